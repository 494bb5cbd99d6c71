package plugin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/vk/cmdkit/command"
	"github.com/vk/cmdkit/ctxlog"
	"github.com/vk/cmdkit/internal/fsutil"
	"github.com/vk/cmdkit/schema"
)

// Loader holds the entry capability table and runs the plugin pass.
type Loader struct {
	entries map[string]any
}

// NewLoader creates an empty loader.
func NewLoader() *Loader {
	return &Loader{entries: make(map[string]any)}
}

// RegisterEntry registers an entry capability under the name plugin
// manifests refer to via "main". Registering the same name twice is a
// programming error and panics.
func (l *Loader) RegisterEntry(name string, entry any) {
	if _, exists := l.entries[name]; exists {
		panic(fmt.Sprintf("plugin entry with name '%s' already registered", name))
	}
	l.entries[name] = entry
}

// LoadAll runs the plugin pass over every subdirectory of root, in
// directory-enumeration order. Each plugin's initializer is invoked
// synchronously with the registration surface. Per-plugin failures are
// logged and that plugin skipped; the pass itself never fails the run.
func (l *Loader) LoadAll(ctx context.Context, root string, surface Surface) {
	logger := ctxlog.FromContext(ctx)

	dirs, err := fsutil.SubDirs(root)
	if err != nil {
		logger.Warn("Plugin directory not readable, skipping plugin pass.", "path", root, "error", err)
		return
	}

	loaded := 0
	for _, dir := range dirs {
		manifest, err := l.loadOne(dir, surface)
		if err != nil {
			logger.Error("Plugin failed to load, skipping.", "dir", dir, "error", err)
			continue
		}
		loaded++
		logger.Info("Plugin initialized.", "name", manifest.Name, "version", manifest.Version)
	}
	logger.Debug("Plugin pass finished.", "candidates", len(dirs), "loaded", loaded)
}

// loadOne decodes one plugin directory's manifest, runs its main entry when
// one is declared, then registers its declared commands.
func (l *Loader) loadOne(dir string, surface Surface) (*Manifest, error) {
	path := filepath.Join(dir, ManifestFileName)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("no %s: %w", ManifestFileName, err)
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse %s: %s", path, diags.Error())
	}

	var mf manifestFile
	if diags := gohcl.DecodeBody(file.Body, nil, &mf); diags.HasErrors() {
		return nil, fmt.Errorf("decode %s: %s", path, diags.Error())
	}
	if mf.Plugin == nil {
		return nil, fmt.Errorf("%s has no plugin block", path)
	}
	manifest := mf.Plugin
	if manifest.Kind == "" {
		manifest.Kind = KindBuiltin
	}
	if manifest.Kind != KindBuiltin {
		return nil, fmt.Errorf("unsupported plugin kind %q", manifest.Kind)
	}

	if manifest.Main == "" && len(mf.Commands) == 0 {
		return nil, fmt.Errorf("%s declares neither a main entry nor commands", path)
	}

	if manifest.Main != "" {
		entry, ok := l.entries[manifest.Main]
		if !ok {
			return nil, fmt.Errorf("no entry capability registered under %q", manifest.Main)
		}
		init, ok := entry.(Initializer)
		if !ok {
			return nil, fmt.Errorf("entry %q does not satisfy the initialize capability", manifest.Main)
		}
		if err := init.Initialize(surface); err != nil {
			return nil, fmt.Errorf("initialize %q: %w", manifest.Name, err)
		}
	}

	for _, block := range mf.Commands {
		if err := l.registerCommand(surface, block); err != nil {
			return nil, fmt.Errorf("command %q: %w", block.Name, err)
		}
	}
	return manifest, nil
}

// registerCommand turns one manifest command block into a registered command:
// the input schema is built from the option blocks and the behavior resolved
// from the handler capability table.
func (l *Loader) registerCommand(surface Surface, block CommandBlock) error {
	entry, ok := l.entries[block.Handler]
	if !ok {
		return fmt.Errorf("no handler capability registered under %q", block.Handler)
	}
	handler, ok := asHandler(entry)
	if !ok {
		return fmt.Errorf("entry %q does not satisfy the handler capability", block.Handler)
	}
	s, err := commandSchema(block.Options)
	if err != nil {
		return err
	}

	b := surface.NewCommand(block.Name).
		Describe(block.Description).
		Aliases(block.Aliases...).
		Input(s)
	_, err = b.Action(handler)
	return err
}

// asHandler duck-type checks a registered entry against the handler
// capability shape.
func asHandler(entry any) (command.Handler, bool) {
	switch h := entry.(type) {
	case command.Handler:
		return h, true
	case func(context.Context, *command.Request) (any, error):
		return h, true
	}
	return nil, false
}

// commandSchema builds the input schema declared by a command block's option
// blocks, converting each HCL type expression and literal default.
func commandSchema(blocks []OptionBlock) (*schema.Schema, error) {
	attrs := make([]schema.Attr, 0, len(blocks))
	seen := make(map[string]bool, len(blocks))
	for _, ob := range blocks {
		if ob.Name == "" {
			return nil, fmt.Errorf("option with an empty name")
		}
		if seen[ob.Name] {
			return nil, fmt.Errorf("option %q declared twice", ob.Name)
		}
		seen[ob.Name] = true

		ty, err := schema.TypeFromExpression(ob.Type)
		if err != nil {
			return nil, fmt.Errorf("option %q: %w", ob.Name, err)
		}
		attr := schema.Attr{
			Name:        ob.Name,
			Type:        ty,
			Description: ob.Description,
			Optional:    ob.Optional,
		}
		if ob.Default != nil {
			raw, diags := ob.Default.Value(nil)
			if diags.HasErrors() {
				return nil, fmt.Errorf("option %q default: %s", ob.Name, diags.Error())
			}
			dv, err := convert.Convert(raw, ty)
			if err != nil {
				return nil, fmt.Errorf("option %q default: %w", ob.Name, err)
			}
			attr.Default = dv
		}
		attrs = append(attrs, attr)
	}
	return schema.New(attrs...), nil
}
