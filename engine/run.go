package engine

import (
	"context"
	"fmt"

	"github.com/agext/levenshtein"
	"github.com/google/uuid"

	"github.com/vk/cmdkit/args"
	"github.com/vk/cmdkit/command"
	"github.com/vk/cmdkit/ctxlog"
	"github.com/vk/cmdkit/logging"
	"github.com/vk/cmdkit/schema"
)

// Run executes one command invocation from a raw argument vector (argv[0]
// and argv[1] are the runtime and script path). It drives the lifecycle:
// Initializing (configuration, plugins, alias table) then Dispatching
// (tokenize, resolve, validate, execute). Runtime failures are logged and
// reflected in Outcome, never returned; the error result exists for
// future fatal startup conditions and is nil today.
func (e *Engine) Run(ctx context.Context, argv []string) error {
	ctx = ctxlog.WithLogger(ctx, e.logger)

	e.transition(Initializing)

	// The command-line layer of the configuration merge comes from an
	// alias-free tokenize pass; aliases only affect the command path, never
	// the options, so this pass is safe before the alias table exists.
	pre := (&args.Tokenizer{}).Tokenize(argv)
	e.config = e.resolver.Resolve(ctx, e.opts.ConfigSchema, e.opts.ConfigDefaults, e.opts.EnvPrefix, e.opts.ConfigFiles, pre.Options)
	e.logger.Debug("Configuration resolved.", "keys", len(e.config))

	if e.opts.PluginDir != "" {
		e.plugins.LoadAll(ctx, e.opts.PluginDir, e)
	}
	e.registry.BuildAliasTable()

	e.transition(Dispatching)

	tok := &args.Tokenizer{Aliases: e.registry}
	res := tok.Tokenize(argv)

	switch res.Path {
	case args.PathHelp:
		e.renderHelpFor(res.HelpTarget)
		e.settle(Success)
		return nil
	case args.PathVersion:
		fmt.Fprintf(e.opts.Output, "%s version %s\n", e.opts.Name, e.opts.Version)
		e.settle(Success)
		return nil
	}

	def, ok := e.registry.Resolve(res.Path)
	if !ok {
		e.logger.Error("Unknown command.", "command", command.Display(res.Path))
		if suggestion, found := e.suggest(res.Path); found {
			e.logger.Info("Did you mean?", "suggestion", command.Display(suggestion))
		}
		e.renderHelp()
		e.settle(UnknownCommand)
		return nil
	}

	e.dispatch(ctx, def, res.Options)
	return nil
}

// dispatch validates input against the command's schema and runs the
// middleware-wrapped handler.
func (e *Engine) dispatch(ctx context.Context, def *command.Definition, options map[string]any) {
	input, errs := def.Input.Validate(options)
	if len(errs) > 0 {
		for _, fe := range errs {
			e.logger.Error("Invalid input.", "command", def.DisplayName(), "path", fe.Path, "message", fe.Message)
		}
		e.logger.Info("Run with --help to see the expected options.", "command", def.DisplayName())
		e.settle(ValidationFailed)
		return
	}

	invocationID := uuid.NewString()
	logger := logging.WithAttrs(e.logger, "invocation_id", invocationID)
	ctx = ctxlog.WithLogger(ctx, logger)

	req := &command.Request{
		Input:    schema.NativeMap(input),
		Config:   e.config,
		Metadata: def.Metadata,
		Values: map[string]any{
			"logger":        logger,
			"invocation_id": invocationID,
		},
	}

	// Composition happens once per invocation; global middleware was
	// prepended when the command builder was created.
	handler := command.Chain(def.Middleware, def.Handler)
	out, err := handler(ctx, req)
	if err != nil {
		logger.Error("Command execution failed.", "command", def.DisplayName(), "error", err)
		e.settle(ExecutionFailed)
		return
	}

	e.validateOutput(def, out)
	e.result = out
	logger.Success("Command completed.", "command", def.DisplayName())
	e.settle(Success)
}

// validateOutput checks the handler result against the output schema when
// one is present. Output validation is advisory: failures are logged and
// the already-produced result stands.
func (e *Engine) validateOutput(def *command.Definition, out any) {
	if def.Output == nil || out == nil {
		return
	}
	m, ok := out.(map[string]any)
	if !ok {
		e.logger.Debug("Handler result is not a mapping, skipping output validation.", "command", def.DisplayName())
		return
	}
	if _, errs := def.Output.Validate(m); len(errs) > 0 {
		for _, fe := range errs {
			e.logger.Warn("Output failed validation (advisory).", "command", def.DisplayName(), "path", fe.Path, "message", fe.Message)
		}
	}
}

// suggest finds the closest registered name or alias within an edit
// distance of two.
func (e *Engine) suggest(path string) (string, bool) {
	best := ""
	bestDist := 3
	for _, name := range e.registry.Names() {
		if d := levenshtein.Distance(path, name, nil); d < bestDist {
			best, bestDist = name, d
		}
	}
	return best, best != ""
}
