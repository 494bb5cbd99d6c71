// Package command holds the data model for registered commands: the
// immutable Definition, the fluent Builder that produces it, and the
// middleware chain that wraps its handler.
package command

import (
	"fmt"

	"github.com/vk/cmdkit/schema"
)

// MetaGroup is the metadata key every definition carries for help grouping.
const MetaGroup = "group"

// Definition is a finalized command. It is assembled once by Builder.Action
// and must not be mutated afterwards; the registry and the engine treat it
// as read-only.
type Definition struct {
	// Name is the internal colon-delimited identifier, e.g. "user:create".
	Name        string
	Description string
	// Input is always non-nil for a finalized definition.
	Input  *schema.Schema
	Output *schema.Schema
	// Metadata is an open mapping; MetaGroup is always present.
	Metadata map[string]any
	// Aliases are scoped to the command's parent.
	Aliases  []string
	Examples []map[string]any
	// Parent is the internal name of the immediate parent, "" for top-level.
	Parent string
	// Middleware is the full ordered interceptor sequence bound at
	// definition time, inherited middleware included.
	Middleware []Middleware
	// Handler is the raw terminal operation; the engine composes it with
	// Middleware once per invocation.
	Handler Handler
}

// DisplayName returns the space-delimited form shown to users.
func (d *Definition) DisplayName() string {
	return Display(d.Name)
}

// Group returns the help group from metadata.
func (d *Definition) Group() string {
	if g, ok := d.Metadata[MetaGroup].(string); ok && g != "" {
		return g
	}
	return "default"
}

// BuildError reports misuse of the builder at definition time. Unlike every
// runtime error in the framework, this one is fatal to the registration: it
// marks a programming error in the CLI's own definition code.
type BuildError struct {
	Command string
	Reason  string
}

func (e *BuildError) Error() string {
	if e.Command == "" {
		return fmt.Sprintf("command builder: %s", e.Reason)
	}
	return fmt.Sprintf("command %q: %s", e.Command, e.Reason)
}
