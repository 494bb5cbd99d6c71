// democli is a small example CLI built on the framework. It registers a
// greet command, a user command group, a global timing middleware, and a
// layered configuration with a greeting default.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/cmdkit/command"
	"github.com/vk/cmdkit/ctxlog"
	"github.com/vk/cmdkit/engine"
	"github.com/vk/cmdkit/logging"
	"github.com/vk/cmdkit/plugin"
	"github.com/vk/cmdkit/schema"
)

func main() {
	// Only definition-time errors (builder misuse) reach this point; all
	// runtime failures are logged by the engine and exit zero.
	if err := run(os.Stdout, os.Stderr, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the wiring for easier testing and error handling.
func run(outW, logW io.Writer, argv []string) error {
	// The engine accepts any logging.Logger; here an application-owned slog
	// instance is wrapped rather than letting the engine build its own.
	logger := logging.FromSlog(slog.New(slog.NewTextHandler(logW, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	e := engine.New(engine.Options{
		Name:        "democli",
		Version:     "0.1.0",
		Description: "An example CLI built on cmdkit.",
		Logger:      logger,
		EnvPrefix:   "DEMOCLI_",
		ConfigFiles: []string{"democli.toml", "democli.yaml", "democli.json", "democli.hcl"},
		ConfigSchema: schema.New(
			schema.Attr{Name: "greeting", Type: cty.String, Default: cty.StringVal("Hello"), Description: "Salutation used by greet."},
			schema.Attr{Name: "verbose", Type: cty.Bool, Optional: true},
		),
		ConfigDefaults: map[string]any{"greeting": "Hello"},
		Output:         outW,
	})

	// A plugin directory (CMDKIT_PLUGIN_DIR) can activate this entry through
	// a manifest with main = "RegisterExtras".
	e.RegisterPluginEntry("RegisterExtras", plugin.InitializerFunc(registerExtras))

	e.Use(command.Middleware{
		Name: "timing",
		Fn: func(ctx context.Context, req *command.Request, next command.Next) (any, error) {
			start := time.Now()
			out, err := next(map[string]any{"started_at": start})
			ctxlog.FromContext(ctx).Debug("Command finished.", "duration", time.Since(start))
			return out, err
		},
	})

	if _, err := e.NewCommand("greet").
		Describe("Print a greeting.").
		Aliases("g").
		Example(map[string]any{"name": "World", "uppercase": true}).
		Input(schema.New(
			schema.Attr{Name: "name", Type: cty.String, Description: "Who to greet."},
			schema.Attr{Name: "uppercase", Type: cty.Bool, Optional: true, Description: "Shout the greeting."},
		)).
		Output(schema.New(
			schema.Attr{Name: "message", Type: cty.String},
		)).
		Action(greet); err != nil {
		return err
	}

	user := e.NewCommand("user").
		Describe("Manage users.").
		Meta(command.MetaGroup, "Users")

	if _, err := user.Sub("create").
		Describe("Create a user.").
		Aliases("mk").
		Example(map[string]any{"email": "a@b.com", "name": "Joe"}).
		Input(schema.New(
			schema.Attr{Name: "email", Type: cty.String, Description: "Email address."},
			schema.Attr{Name: "name", Type: cty.String, Description: "Display name."},
		)).
		Action(createUser); err != nil {
		return err
	}

	if _, err := user.Sub("list").
		Describe("List users.").
		Aliases("ls").
		Input(schema.New(
			schema.Attr{Name: "limit", Type: cty.Number, Default: cty.NumberIntVal(10), Description: "Maximum number of users."},
		)).
		Action(listUsers); err != nil {
		return err
	}

	if _, err := user.
		Input(schema.New()).
		Action(func(ctx context.Context, req *command.Request) (any, error) {
			ctxlog.FromContext(ctx).Info("Use a subcommand.", "subcommands", "create, list")
			return nil, nil
		}); err != nil {
		return err
	}

	return e.Run(context.Background(), argv)
}

// registerExtras adds a ping command when a plugin manifest asks for it.
func registerExtras(s plugin.Surface) error {
	_, err := s.NewCommand("ping").
		Describe("Check that the CLI is alive.").
		Input(schema.New()).
		Action(func(ctx context.Context, req *command.Request) (any, error) {
			ctxlog.FromContext(ctx).Info("pong")
			return map[string]any{"reply": "pong"}, nil
		})
	return err
}

func greet(ctx context.Context, req *command.Request) (any, error) {
	name, _ := req.Input["name"].(string)
	greeting, _ := req.Config["greeting"].(string)
	if greeting == "" {
		greeting = "Hello"
	}
	msg := fmt.Sprintf("%s, %s!", greeting, name)
	if up, _ := req.Input["uppercase"].(bool); up {
		msg = strings.ToUpper(msg)
	}
	ctxlog.FromContext(ctx).Info(msg)
	return map[string]any{"message": msg}, nil
}

func createUser(ctx context.Context, req *command.Request) (any, error) {
	var in struct {
		Email string `cmdkit:"email"`
		Name  string `cmdkit:"name"`
	}
	if err := schema.Decode(req.Input, &in); err != nil {
		return nil, fmt.Errorf("decode input: %w", err)
	}
	ctxlog.FromContext(ctx).Info("User created.", "email", in.Email, "name", in.Name)
	return map[string]any{"email": in.Email, "name": in.Name}, nil
}

func listUsers(ctx context.Context, req *command.Request) (any, error) {
	limit, _ := req.Input["limit"].(int)
	ctxlog.FromContext(ctx).Info("Listing users.", "limit", limit)
	return map[string]any{"count": 0, "limit": limit}, nil
}
