package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/cmdkit/command"
	"github.com/vk/cmdkit/logging"
	"github.com/vk/cmdkit/schema"
)

// argv builds a full argument vector; positions 0 and 1 are the runtime and
// script path and are never inspected.
func argv(tokens ...string) []string {
	return append([]string{"/usr/bin/demo-runtime", "demo.app"}, tokens...)
}

func writeConfigFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

// newTestEngine builds an engine with the demo command set, an inert
// environment source and buffered output/log streams.
func newTestEngine(t *testing.T, mutate func(*Options)) (*Engine, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	out := &bytes.Buffer{}
	logs := &bytes.Buffer{}
	opts := Options{
		Name:        "demo",
		Version:     "1.2.3",
		Description: "A demonstration tool.",
		LogLevel:    "debug",
		LogFormat:   "text",
		EnvPrefix:   "DEMO_",
		ConfigSchema: schema.New(
			schema.Attr{Name: "greeting", Type: cty.String, Default: cty.StringVal("Hello")},
			schema.Attr{Name: "verbose", Type: cty.Bool, Optional: true},
		),
		Output:    out,
		LogOutput: logs,
	}
	if mutate != nil {
		mutate(&opts)
	}

	e := New(opts)
	e.Resolver().WithEnviron(func() []string { return nil })
	registerDemoCommands(t, e)
	return e, out, logs
}

func registerDemoCommands(t *testing.T, e *Engine) {
	t.Helper()

	_, err := e.NewCommand("greet").
		Describe("Print a greeting.").
		Aliases("g").
		Input(schema.New(
			schema.Attr{Name: "name", Type: cty.String, Description: "Who to greet."},
			schema.Attr{Name: "uppercase", Type: cty.Bool, Optional: true, Description: "Shout it."},
		)).
		Output(schema.New(schema.Attr{Name: "message", Type: cty.String})).
		Example(map[string]any{"name": "World"}).
		Action(func(ctx context.Context, req *command.Request) (any, error) {
			greeting, _ := req.Config["greeting"].(string)
			msg := fmt.Sprintf("%s, %s!", greeting, req.Input["name"])
			if up, _ := req.Input["uppercase"].(bool); up {
				msg = strings.ToUpper(msg)
			}
			return map[string]any{"message": msg}, nil
		})
	require.NoError(t, err)

	user := e.NewCommand("user").
		Describe("Manage users.").
		Meta(command.MetaGroup, "Users")
	_, err = user.Sub("create").
		Describe("Create a user.").
		Aliases("mk").
		Input(schema.New(schema.Attr{Name: "email", Type: cty.String})).
		Action(func(ctx context.Context, req *command.Request) (any, error) {
			return map[string]any{"created": req.Input["email"]}, nil
		})
	require.NoError(t, err)
	_, err = user.Input(schema.New()).
		Action(func(ctx context.Context, req *command.Request) (any, error) {
			return nil, nil
		})
	require.NoError(t, err)

	_, err = e.NewCommand("boom").
		Describe("Always fails.").
		Input(schema.New()).
		Action(func(ctx context.Context, req *command.Request) (any, error) {
			return nil, errors.New("kaboom")
		})
	require.NoError(t, err)
}

func TestRun_SuccessEndToEnd(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	e, _, logs := newTestEngine(t, nil)

	// --- Act ---
	err := e.Run(context.Background(), argv("greet", "--name", "World", "--uppercase"))

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, Done, e.State())
	assert.Equal(t, Success, e.Outcome())
	assert.Equal(t, map[string]any{"message": "HELLO, WORLD!"}, e.Result())
	assert.Contains(t, logs.String(), "Command completed")
	assert.Contains(t, logs.String(), "invocation_id")
}

func TestRun_AliasInvocation(t *testing.T) {
	t.Parallel()

	e, _, _ := newTestEngine(t, nil)

	require.NoError(t, e.Run(context.Background(), argv("g", "--name", "Ada")))

	assert.Equal(t, Success, e.Outcome())
	assert.Equal(t, map[string]any{"message": "Hello, Ada!"}, e.Result())
}

func TestRun_SubcommandWithScopedAlias(t *testing.T) {
	t.Parallel()

	e, _, _ := newTestEngine(t, nil)

	require.NoError(t, e.Run(context.Background(), argv("user", "mk", "--email", "a@b.com")))

	assert.Equal(t, Success, e.Outcome())
	assert.Equal(t, map[string]any{"created": "a@b.com"}, e.Result())
}

func TestRun_UnknownCommand(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	e, out, logs := newTestEngine(t, nil)

	// --- Act ---
	err := e.Run(context.Background(), argv("gret", "--name", "x"))

	// --- Assert ---
	require.NoError(t, err, "runtime failures never surface as errors")
	assert.Equal(t, UnknownCommand, e.Outcome())
	assert.Equal(t, Done, e.State())
	assert.Contains(t, logs.String(), "Unknown command")
	assert.Contains(t, logs.String(), "Did you mean")
	assert.Contains(t, logs.String(), "greet")
	assert.Contains(t, out.String(), "Usage:", "general help follows an unknown command")
}

func TestRun_ValidationFailure(t *testing.T) {
	t.Parallel()

	e, _, logs := newTestEngine(t, nil)

	err := e.Run(context.Background(), argv("greet"))

	require.NoError(t, err)
	assert.Equal(t, ValidationFailed, e.Outcome())
	assert.Nil(t, e.Result())
	assert.Contains(t, logs.String(), "Invalid input")
	assert.Contains(t, logs.String(), "--help")
}

func TestRun_HandlerError(t *testing.T) {
	t.Parallel()

	e, _, logs := newTestEngine(t, nil)

	err := e.Run(context.Background(), argv("boom"))

	require.NoError(t, err)
	assert.Equal(t, ExecutionFailed, e.Outcome())
	assert.Contains(t, logs.String(), "Command execution failed")
	assert.Contains(t, logs.String(), "kaboom")
}

func TestRun_NoArgumentsShowsGeneralHelp(t *testing.T) {
	t.Parallel()

	e, out, _ := newTestEngine(t, nil)

	require.NoError(t, e.Run(context.Background(), []string{"/usr/bin/demo-runtime", "demo.app"}))

	assert.Equal(t, Success, e.Outcome())
	help := out.String()
	assert.Contains(t, help, "demo - A demonstration tool.")
	assert.Contains(t, help, "General:")
	assert.Contains(t, help, "Users:")
	assert.Contains(t, help, "greet")
	assert.Contains(t, help, "(aliases: g)")
	assert.Contains(t, help, "--help, -h")
	assert.NotContains(t, help, "user create", "subcommands stay out of the top-level listing")
}

func TestRun_HelpFlagWinsOverEverything(t *testing.T) {
	t.Parallel()

	e, out, _ := newTestEngine(t, nil)

	require.NoError(t, e.Run(context.Background(), argv("greet", "--name", "x", "--help")))

	assert.Equal(t, Success, e.Outcome())
	assert.Contains(t, out.String(), "Usage:")
	assert.Nil(t, e.Result(), "the handler must not run when help is requested")
}

func TestRun_CommandHelp(t *testing.T) {
	t.Parallel()

	e, out, _ := newTestEngine(t, nil)

	require.NoError(t, e.Run(context.Background(), argv("help", "greet")))

	assert.Equal(t, Success, e.Outcome())
	help := out.String()
	assert.Contains(t, help, "greet - Print a greeting.")
	assert.Contains(t, help, "--name <string>")
	assert.Contains(t, help, "(required)")
	assert.Contains(t, help, "--uppercase")
	assert.Contains(t, help, "(optional)")
	assert.Contains(t, help, "Aliases: g")
	assert.Contains(t, help, "demo greet --name World")
}

func TestRun_CommandHelpListsSubcommands(t *testing.T) {
	t.Parallel()

	e, out, _ := newTestEngine(t, nil)

	require.NoError(t, e.Run(context.Background(), argv("help", "user")))

	help := out.String()
	assert.Contains(t, help, "Subcommands:")
	assert.Contains(t, help, "user create")
}

func TestRun_Version(t *testing.T) {
	t.Parallel()

	e, out, _ := newTestEngine(t, nil)

	require.NoError(t, e.Run(context.Background(), argv("--version")))

	assert.Equal(t, Success, e.Outcome())
	assert.Equal(t, "demo version 1.2.3\n", out.String())
}

func TestRun_ConfigPrecedence(t *testing.T) {
	t.Parallel()

	t.Run("Defaults apply when nothing else is set", func(t *testing.T) {
		t.Parallel()

		e, _, _ := newTestEngine(t, nil)
		require.NoError(t, e.Run(context.Background(), argv("greet", "--name", "Ada")))

		assert.Equal(t, map[string]any{"message": "Hello, Ada!"}, e.Result())
	})

	t.Run("Environment beats defaults", func(t *testing.T) {
		t.Parallel()

		e, _, _ := newTestEngine(t, nil)
		e.Resolver().WithEnviron(func() []string { return []string{"DEMO_GREETING=Hey"} })
		require.NoError(t, e.Run(context.Background(), argv("greet", "--name", "Ada")))

		assert.Equal(t, "Hey", e.Config()["greeting"])
		assert.Equal(t, map[string]any{"message": "Hey, Ada!"}, e.Result())
	})

	t.Run("Config file beats environment", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		file := filepath.Join(dir, "demo.toml")
		require.NoError(t, writeConfigFile(file, "greeting = \"Howdy\"\n"))

		e, _, _ := newTestEngine(t, func(o *Options) { o.ConfigFiles = []string{file} })
		e.Resolver().WithEnviron(func() []string { return []string{"DEMO_GREETING=Hey"} })
		require.NoError(t, e.Run(context.Background(), argv("greet", "--name", "Ada")))

		assert.Equal(t, "Howdy", e.Config()["greeting"])
	})

	t.Run("CLI option beats config file", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		file := filepath.Join(dir, "demo.toml")
		require.NoError(t, writeConfigFile(file, "greeting = \"Howdy\"\n"))

		e, _, _ := newTestEngine(t, func(o *Options) { o.ConfigFiles = []string{file} })
		require.NoError(t, e.Run(context.Background(), argv("greet", "--name", "Ada", "--greeting", "Yo")))

		assert.Equal(t, "Yo", e.Config()["greeting"])
		assert.Equal(t, map[string]any{"message": "Yo, Ada!"}, e.Result())
	})
}

func TestRun_GlobalMiddlewareOrdering(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	e, _, _ := newTestEngine(t, nil)
	var order []string
	e.Use(command.Middleware{Name: "global", Fn: func(ctx context.Context, req *command.Request, next command.Next) (any, error) {
		order = append(order, "global")
		return next(map[string]any{"tenant": "acme"})
	}})

	_, err := e.NewCommand("audited").
		Input(schema.New()).
		Use(command.Middleware{Name: "local", Fn: func(ctx context.Context, req *command.Request, next command.Next) (any, error) {
			order = append(order, "local")
			return next(nil)
		}}).
		Action(func(ctx context.Context, req *command.Request) (any, error) {
			order = append(order, "handler")
			return req.Values["tenant"], nil
		})
	require.NoError(t, err)

	// --- Act ---
	require.NoError(t, e.Run(context.Background(), argv("audited")))

	// --- Assert ---
	assert.Equal(t, []string{"global", "local", "handler"}, order)
	assert.Equal(t, "acme", e.Result(), "context values flow downstream through the chain")
	assert.Equal(t, Success, e.Outcome())
}

func TestRun_MiddlewareShortCircuit(t *testing.T) {
	t.Parallel()

	e, _, _ := newTestEngine(t, nil)
	handlerRan := false
	_, err := e.NewCommand("gated").
		Input(schema.New()).
		Use(command.Middleware{Name: "gate", Fn: func(ctx context.Context, req *command.Request, next command.Next) (any, error) {
			return "denied", nil
		}}).
		Action(func(ctx context.Context, req *command.Request) (any, error) {
			handlerRan = true
			return nil, nil
		})
	require.NoError(t, err)

	require.NoError(t, e.Run(context.Background(), argv("gated")))

	assert.False(t, handlerRan)
	assert.Equal(t, "denied", e.Result())
	assert.Equal(t, Success, e.Outcome())
}

func TestRun_OutputValidationIsAdvisory(t *testing.T) {
	t.Parallel()

	e, _, logs := newTestEngine(t, nil)
	_, err := e.NewCommand("sloppy").
		Input(schema.New()).
		Output(schema.New(schema.Attr{Name: "message", Type: cty.String})).
		Action(func(ctx context.Context, req *command.Request) (any, error) {
			return map[string]any{"unrelated": 1}, nil
		})
	require.NoError(t, err)

	require.NoError(t, e.Run(context.Background(), argv("sloppy")))

	assert.Equal(t, Success, e.Outcome(), "output validation never fails the run")
	assert.Equal(t, map[string]any{"unrelated": 1}, e.Result(), "the produced result stands")
	assert.Contains(t, logs.String(), "Output failed validation")
}

func TestRun_ValidationFallbackKeepsConfigUsable(t *testing.T) {
	t.Parallel()

	// A bad CLI override for a config key falls back to the defaults; the
	// command itself still runs.
	e, _, logs := newTestEngine(t, func(o *Options) {
		o.ConfigSchema = schema.New(schema.Attr{Name: "limit", Type: cty.Number, Default: cty.NumberIntVal(10)})
		o.ConfigDefaults = map[string]any{"limit": 10}
	})

	require.NoError(t, e.Run(context.Background(), argv("greet", "--name", "Ada", "--limit", "lots")))

	assert.Equal(t, Success, e.Outcome())
	assert.Equal(t, 10, e.Config()["limit"])
	assert.Contains(t, logs.String(), "falling back to defaults")
}

func TestNew_CallerSuppliedLogger(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	buf := &bytes.Buffer{}
	logger := logging.FromSlog(slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})))
	e, _, _ := newTestEngine(t, func(o *Options) {
		o.Logger = logger
		o.LogOutput = nil
	})

	// --- Act ---
	require.NoError(t, e.Run(context.Background(), argv("--version")))

	// --- Assert ---
	assert.Contains(t, buf.String(), "Engine state changed", "all engine logging flows through the supplied logger")
}

func TestOptionsFromEnv_Overlay(t *testing.T) {
	t.Setenv("CMDKIT_LOG_LEVEL", "warn")

	got := optionsFromEnv(Options{LogLevel: "debug", LogFormat: "text"})

	assert.Equal(t, "warn", got.LogLevel)
	assert.Equal(t, "text", got.LogFormat, "unset variables leave fields as passed")
}

func TestState_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "created", Created.String())
	assert.Equal(t, "validation_failed", ValidationFailed.String())
	assert.Equal(t, "unknown", State(99).String())
}
