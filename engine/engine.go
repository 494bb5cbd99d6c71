// Package engine orchestrates a full command invocation: configuration
// resolution, the plugin pass, argument tokenization, command resolution,
// input validation, middleware-wrapped execution, and help rendering.
//
// One engine executes one command per process run. All runtime failures
// (unknown command, invalid input, handler errors) are logged and recovered;
// Run reports them through the engine state, never through a non-nil error,
// so the process exit status stays zero by design.
package engine

import (
	"os"

	"github.com/vk/cmdkit/command"
	"github.com/vk/cmdkit/configload"
	"github.com/vk/cmdkit/logging"
	"github.com/vk/cmdkit/plugin"
	"github.com/vk/cmdkit/registry"
)

// State is the engine's lifecycle position.
type State int

const (
	Created State = iota
	Initializing
	Dispatching
	Success
	ValidationFailed
	ExecutionFailed
	UnknownCommand
	Done
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Initializing:
		return "initializing"
	case Dispatching:
		return "dispatching"
	case Success:
		return "success"
	case ValidationFailed:
		return "validation_failed"
	case ExecutionFailed:
		return "execution_failed"
	case UnknownCommand:
		return "unknown_command"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Engine owns the registry, the plugin loader, the configuration resolver
// and the logger for one application instance.
type Engine struct {
	opts     Options
	logger   logging.Logger
	registry *registry.Registry
	resolver *configload.Resolver
	plugins  *plugin.Loader
	global   []command.Middleware
	config   map[string]any
	state    State
	// outcome holds the terminal state of the last dispatch, set before the
	// engine settles in Done.
	outcome State
	result  any
}

// New constructs an engine with an isolated logger. CMDKIT_-prefixed
// process environment variables may override logging and plugin options.
func New(opts Options) *Engine {
	opts = optionsFromEnv(opts)
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.LogOutput == nil {
		opts.LogOutput = os.Stderr
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.New(opts.LogOutput, opts.LogLevel, opts.LogFormat)
	}

	return &Engine{
		opts:     opts,
		logger:   logger,
		registry: registry.New(logger),
		resolver: configload.NewResolver(),
		plugins:  plugin.NewLoader(),
		state:    Created,
	}
}

// NewCommand starts a top-level command builder bound to the engine's
// registry and seeded with the global middleware accumulated so far.
// Implements plugin.Surface.
func (e *Engine) NewCommand(name string) *command.Builder {
	b := command.New(name).WithRegistrar(e.registry)
	if len(e.global) > 0 {
		b = b.Use(e.global...)
	}
	return b
}

// Use appends global middleware. Commands created after the call inherit
// it, prepended to their own middleware. Implements plugin.Surface.
func (e *Engine) Use(mws ...command.Middleware) {
	e.global = append(e.global, mws...)
}

// RegisterPluginEntry registers an entry capability for manifests to refer
// to via their "main" attribute.
func (e *Engine) RegisterPluginEntry(name string, entry any) {
	e.plugins.RegisterEntry(name, entry)
}

// Registry exposes the command registry, primarily for tests and plugins
// that need enumeration.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// Resolver exposes the configuration resolver so callers can swap loaders
// or the environment source.
func (e *Engine) Resolver() *configload.Resolver {
	return e.resolver
}

// State reports the engine's current lifecycle state.
func (e *Engine) State() State {
	return e.state
}

// Outcome reports the terminal state of the last dispatch (Success,
// ValidationFailed, ExecutionFailed or UnknownCommand).
func (e *Engine) Outcome() State {
	return e.outcome
}

// Result returns the value produced by the last successfully executed
// handler.
func (e *Engine) Result() any {
	return e.result
}

// Config returns the effective configuration resolved for the current run.
func (e *Engine) Config() map[string]any {
	return e.config
}

func (e *Engine) transition(s State) {
	e.state = s
	e.logger.Debug("Engine state changed.", "state", s.String())
}

// settle records the dispatch outcome and moves the engine to Done.
func (e *Engine) settle(outcome State) {
	e.transition(outcome)
	e.outcome = outcome
	e.transition(Done)
}
