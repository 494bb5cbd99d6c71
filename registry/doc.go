// Package registry provides the central lookup for registered commands.
//
// The Registry stores finalized command definitions keyed by their internal
// colon-delimited names and resolves user-entered names through a
// parent-scoped alias table. The table is populated exactly once, before
// dispatch begins, by scanning every registered command; after that the
// registry is treated as read-only for the remainder of the run, so no
// locking is needed.
package registry
