package registry

import (
	"strings"

	"github.com/vk/cmdkit/command"
	"github.com/vk/cmdkit/logging"
)

// Registry owns the mapping from internal command name to definition for a
// single engine instance, plus the alias table built once before dispatch.
type Registry struct {
	defs    map[string]*command.Definition
	order   []string
	aliases map[string]string
	log     logging.Logger
}

// New creates an empty registry. A nil logger is replaced with a no-op one.
func New(log logging.Logger) *Registry {
	if log == nil {
		log = logging.NewNop()
	}
	return &Registry{
		defs:    make(map[string]*command.Definition),
		aliases: make(map[string]string),
		log:     log,
	}
}

// Register inserts or overwrites a definition by internal name. Duplicate
// names are not an error: the last registration wins. This is a documented
// quirk of the registration model, not a validated invariant.
func (r *Registry) Register(def *command.Definition) {
	if _, exists := r.defs[def.Name]; exists {
		r.log.Debug("Overwriting existing command registration.", "name", def.Name)
	} else {
		r.order = append(r.order, def.Name)
		r.log.Debug("Registering command.", "name", def.Name)
	}
	r.defs[def.Name] = def
}

// Resolve returns the definition for name. When name is not a direct key,
// the alias table is consulted once and the lookup retried; aliases never
// chain. The boolean result reports whether anything was found — an unknown
// name is surfaced to the caller, never raised.
func (r *Registry) Resolve(name string) (*command.Definition, bool) {
	if def, ok := r.defs[name]; ok {
		return def, true
	}
	if canonical, ok := r.aliases[name]; ok {
		def, found := r.defs[canonical]
		return def, found
	}
	return nil, false
}

// Canonical reports the canonical internal name behind an alias-form name.
func (r *Registry) Canonical(name string) (string, bool) {
	canonical, ok := r.aliases[name]
	return canonical, ok
}

// BuildAliasTable scans every registered command once and freezes the alias
// table. For a subcommand, each alias is scoped under the parent's internal
// name before insertion. The table is read-only afterwards; registrations
// that happen later (there should be none after the initializing phase) are
// not reflected until the next build.
func (r *Registry) BuildAliasTable() {
	r.aliases = make(map[string]string)
	for _, name := range r.order {
		def := r.defs[name]
		for _, alias := range def.Aliases {
			key := alias
			if def.Parent != "" {
				key = def.Parent + command.Separator + alias
			}
			if prev, dup := r.aliases[key]; dup && prev != def.Name {
				r.log.Debug("Alias collision, last registration wins.", "alias", key, "previous", prev, "now", def.Name)
			}
			r.aliases[key] = def.Name
		}
	}
	r.log.Debug("Alias table built.", "aliases", len(r.aliases))
}

// Group is one help group of top-level commands, in registration order.
type Group struct {
	Name     string
	Commands []*command.Definition
}

// TopLevel returns definitions without a parent, grouped by their metadata
// group. Groups appear in first-registration order, commands in
// registration order within each group.
func (r *Registry) TopLevel() []Group {
	var groups []Group
	index := make(map[string]int)
	for _, name := range r.order {
		def := r.defs[name]
		if def.Parent != "" {
			continue
		}
		g := def.Group()
		i, ok := index[g]
		if !ok {
			i = len(groups)
			index[g] = i
			groups = append(groups, Group{Name: g})
		}
		groups[i].Commands = append(groups[i].Commands, def)
	}
	return groups
}

// ChildrenOf returns definitions exactly one segment deeper than name, in
// registration order.
func (r *Registry) ChildrenOf(name string) []*command.Definition {
	prefix := name + command.Separator
	var children []*command.Definition
	for _, n := range r.order {
		if !strings.HasPrefix(n, prefix) {
			continue
		}
		if command.Depth(n) != command.Depth(name)+1 {
			continue
		}
		children = append(children, r.defs[n])
	}
	return children
}

// Names returns every registered internal name and alias key, for
// suggestion matching.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.order)+len(r.aliases))
	names = append(names, r.order...)
	for alias := range r.aliases {
		names = append(names, alias)
	}
	return names
}

// Len reports how many commands are registered.
func (r *Registry) Len() int {
	return len(r.defs)
}
