package configload

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/hcl/v2/hclparse"
	"gopkg.in/yaml.v3"

	"github.com/vk/cmdkit/schema"
)

// Loader is the contract a file-format adapter satisfies: CanLoad gates on
// the path (extension in practice) and Load reads and parses the file into
// a plain mapping.
type Loader interface {
	CanLoad(path string) bool
	Load(path string) (map[string]any, error)
}

// DefaultLoaders returns the built-in adapters: JSON, YAML, TOML and HCL.
func DefaultLoaders() []Loader {
	return []Loader{&JSONLoader{}, &YAMLLoader{}, &TOMLLoader{}, &HCLLoader{}}
}

// JSONLoader loads .json files.
type JSONLoader struct{}

func (l *JSONLoader) CanLoad(path string) bool {
	return filepath.Ext(path) == ".json"
}

func (l *JSONLoader) Load(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	out := map[string]any{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return out, nil
}

// YAMLLoader loads .yml and .yaml files.
type YAMLLoader struct{}

func (l *YAMLLoader) CanLoad(path string) bool {
	ext := filepath.Ext(path)
	return ext == ".yml" || ext == ".yaml"
}

func (l *YAMLLoader) Load(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	out := map[string]any{}
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return out, nil
}

// TOMLLoader loads .toml files.
type TOMLLoader struct{}

func (l *TOMLLoader) CanLoad(path string) bool {
	return filepath.Ext(path) == ".toml"
}

func (l *TOMLLoader) Load(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	out := map[string]any{}
	if err := toml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return out, nil
}

// HCLLoader loads .hcl files. Only top-level attributes with literal values
// are supported; configuration files are data, not programs.
type HCLLoader struct{}

func (l *HCLLoader) CanLoad(path string) bool {
	return filepath.Ext(path) == ".hcl"
}

func (l *HCLLoader) Load(path string) (map[string]any, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse %s: %s", path, diags.Error())
	}
	attrs, diags := file.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("decode %s: %s", path, diags.Error())
	}
	out := make(map[string]any, len(attrs))
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("evaluate %s in %s: %s", name, path, diags.Error())
		}
		out[name] = schema.Native(val)
	}
	return out, nil
}
