package engine

import (
	"io"

	"github.com/caarlos0/env/v11"

	"github.com/vk/cmdkit/logging"
	"github.com/vk/cmdkit/schema"
)

// envOptionsPrefix scopes the process environment variables that may
// override engine options, e.g. CMDKIT_LOG_LEVEL=debug.
const envOptionsPrefix = "CMDKIT_"

// Options configures an Engine.
type Options struct {
	// Name, Version and Description feed help and version output.
	Name        string
	Version     string
	Description string

	LogLevel  string `env:"LOG_LEVEL"`
	LogFormat string `env:"LOG_FORMAT"`

	// Logger, when set, replaces the engine's own console logger entirely;
	// LogLevel, LogFormat and LogOutput are then ignored. Anything satisfying
	// logging.Logger works, e.g. logging.FromSlog around an existing
	// slog.Logger.
	Logger logging.Logger

	// PluginDir, when set, is scanned for plugin manifests during the
	// initializing phase.
	PluginDir string `env:"PLUGIN_DIR"`

	// Configuration resolution inputs (see configload).
	ConfigSchema   *schema.Schema
	ConfigDefaults map[string]any
	EnvPrefix      string
	ConfigFiles    []string

	// Output receives help and version text; defaults to os.Stdout.
	Output io.Writer
	// LogOutput receives log records; defaults to os.Stderr.
	LogOutput io.Writer
}

// optionsFromEnv overlays CMDKIT_-prefixed process environment variables
// onto the options. A malformed variable leaves the field as passed.
func optionsFromEnv(opts Options) Options {
	overlaid := opts
	if err := env.ParseWithOptions(&overlaid, env.Options{Prefix: envOptionsPrefix}); err != nil {
		return opts
	}
	return overlaid
}
