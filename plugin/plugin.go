// Package plugin implements the manifest-driven plugin pass.
//
// A plugin root directory holds one subdirectory per plugin, each with a
// manifest.hcl naming the plugin and its entry point. Entry points are not
// loaded dynamically: they are capabilities registered ahead of time under
// the name the manifest's "main" attribute refers to, and the loader
// duck-type checks each one before invoking it. A manifest may also declare
// commands directly, each command block pairing a typed input schema with a
// registered handler capability. The pass runs once, during engine
// initialization, and every per-plugin failure is logged and skipped so one
// broken plugin never takes the others down.
package plugin

import (
	"github.com/hashicorp/hcl/v2"

	"github.com/vk/cmdkit/command"
)

// ManifestFileName is the file the loader expects in every plugin directory.
const ManifestFileName = "manifest.hcl"

// KindBuiltin is the default entry kind: a capability compiled into the
// binary and registered on the loader.
const KindBuiltin = "builtin"

// Manifest describes one plugin.
type Manifest struct {
	Name        string `hcl:"name"`
	Version     string `hcl:"version"`
	Description string `hcl:"description,optional"`
	Author      string `hcl:"author,optional"`
	// Main names the registered entry capability to invoke. It may be omitted
	// when the manifest declares its commands directly.
	Main string `hcl:"main,optional"`
	// Kind defaults to KindBuiltin; any other kind is skipped.
	Kind string `hcl:"kind,optional"`
}

// CommandBlock is a command declared directly in a manifest. Its input schema
// comes from the option blocks; its behavior comes from a registered handler
// capability named by Handler.
type CommandBlock struct {
	Name        string        `hcl:"name,label"`
	Description string        `hcl:"description,optional"`
	Handler     string        `hcl:"handler"`
	Aliases     []string      `hcl:"aliases,optional"`
	Options     []OptionBlock `hcl:"option,block"`
}

// OptionBlock declares one input attribute of a manifest command. Type is an
// HCL type expression (string, number, bool, list(...), map(...), set(...)).
type OptionBlock struct {
	Name        string         `hcl:"name,label"`
	Type        hcl.Expression `hcl:"type"`
	Description string         `hcl:"description,optional"`
	Optional    bool           `hcl:"optional,optional"`
	Default     hcl.Expression `hcl:"default,optional"`
}

// manifestFile is the top-level structure of a manifest.hcl.
type manifestFile struct {
	Plugin   *Manifest      `hcl:"plugin,block"`
	Commands []CommandBlock `hcl:"command,block"`
}

// Surface is the live command-registration surface handed to a plugin's
// initializer. Plugins call back into it synchronously, before dispatch
// begins.
type Surface interface {
	// NewCommand starts a builder already attached to the engine registry
	// and seeded with the global middleware accumulated so far.
	NewCommand(name string) *command.Builder
	// Use appends global middleware, inherited by commands created after
	// the call.
	Use(mws ...command.Middleware)
}

// Initializer is the capability shape an entry must satisfy.
type Initializer interface {
	Initialize(s Surface) error
}

// InitializerFunc adapts a plain function to Initializer.
type InitializerFunc func(s Surface) error

// Initialize implements Initializer.
func (f InitializerFunc) Initialize(s Surface) error {
	return f(s)
}
