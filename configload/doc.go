// Package configload builds the effective configuration for one run by
// merging four layers in strict precedence order: caller defaults, values
// derived from prefixed environment variables, the first loadable
// configuration file from an ordered candidate list, and command-line
// overrides last.
//
// The file policy is first-match, not overlay: once one candidate loads,
// the remaining candidates are never read. A candidate that exists but
// cannot be loaded logs a warning and the scan moves on.
//
// The merged object is validated against the caller's schema; on failure
// every field error is logged and the defaults alone become the effective
// configuration. The run is never aborted over configuration.
package configload
