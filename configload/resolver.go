package configload

import (
	"context"
	"os"

	"github.com/vk/cmdkit/ctxlog"
	"github.com/vk/cmdkit/internal/fsutil"
	"github.com/vk/cmdkit/schema"
)

// Resolver merges configuration layers and validates the result. The zero
// value is not usable; construct with NewResolver.
type Resolver struct {
	loaders []Loader
	environ func() []string
}

// NewResolver creates a resolver with the given loaders, falling back to
// DefaultLoaders when none are passed.
func NewResolver(loaders ...Loader) *Resolver {
	if len(loaders) == 0 {
		loaders = DefaultLoaders()
	}
	return &Resolver{loaders: loaders, environ: os.Environ}
}

// WithEnviron replaces the environment source, for tests.
func (r *Resolver) WithEnviron(environ func() []string) *Resolver {
	r.environ = environ
	return r
}

// Resolve computes the effective configuration: defaults, then environment
// values under envPrefix, then the first loadable candidate file, then CLI
// overrides. The merged object is validated against s when s is non-nil; on
// validation failure the defaults alone become the effective configuration
// and the run continues.
func (r *Resolver) Resolve(ctx context.Context, s *schema.Schema, defaults map[string]any, envPrefix string, files []string, overrides map[string]any) map[string]any {
	logger := ctxlog.FromContext(ctx)

	merged := deepMerge(map[string]any{}, defaults)
	merged = deepMerge(merged, envLayer(r.environ(), envPrefix))
	if layer, path, ok := r.firstFileLayer(ctx, files); ok {
		logger.Debug("Configuration file applied.", "path", path)
		merged = deepMerge(merged, layer)
	}
	merged = deepMerge(merged, overrides)

	if s == nil {
		return merged
	}

	v, errs := s.Validate(merged)
	if len(errs) == 0 {
		return schema.NativeMap(v)
	}
	for _, fe := range errs {
		logger.Error("Invalid configuration value.", "path", fe.Path, "message", fe.Message)
	}
	logger.Warn("Configuration failed validation, falling back to defaults.")

	dv, derrs := s.Validate(defaults)
	if len(derrs) > 0 {
		for _, fe := range derrs {
			logger.Error("Default configuration is itself invalid.", "path", fe.Path, "message", fe.Message)
		}
		return deepMerge(map[string]any{}, defaults)
	}
	return schema.NativeMap(dv)
}

// firstFileLayer scans the candidates in caller-declared order and loads the
// first one that exists and has a matching loader. Later candidates are
// never read once one succeeds; a candidate that fails to load logs a
// warning and the scan resumes with the remaining tail.
func (r *Resolver) firstFileLayer(ctx context.Context, files []string) (map[string]any, string, bool) {
	logger := ctxlog.FromContext(ctx)
	rest := files
	for {
		path, ok := fsutil.FirstExisting(rest)
		if !ok {
			return nil, "", false
		}
		for rest[0] != path {
			rest = rest[1:]
		}
		rest = rest[1:]

		loader := r.loaderFor(path)
		if loader == nil {
			logger.Warn("No loader registered for config file, skipping.", "path", path)
			continue
		}
		layer, err := loader.Load(path)
		if err != nil {
			logger.Warn("Failed to load config file, skipping.", "path", path, "error", err)
			continue
		}
		return layer, path, true
	}
}

func (r *Resolver) loaderFor(path string) Loader {
	for _, l := range r.loaders {
		if l.CanLoad(path) {
			return l
		}
	}
	return nil
}
