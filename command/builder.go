package command

import "github.com/vk/cmdkit/schema"

// Registrar is the sink a finalized definition is handed to. The registry
// satisfies it; tests can substitute a recorder.
type Registrar interface {
	Register(def *Definition)
}

// Builder accumulates the state of a command under construction.
//
// Calls that change the schema or middleware list (Input, Output, Use)
// return a new builder value; holding on to an intermediate builder and
// chaining from it later does not affect other chains taken from the same
// point. Describe, Meta, Aliases and Example mutate the current builder in
// place, as documented.
type Builder struct {
	name        string
	description string
	parent      string
	input       *schema.Schema
	output      *schema.Schema
	middleware  []Middleware
	metadata    map[string]any
	aliases     []string
	examples    []map[string]any
	reg         Registrar
}

// New starts a top-level command builder. Top-level commands default to the
// "General" help group; subcommands created via Sub default to "default".
func New(name string) *Builder {
	return &Builder{
		name:     name,
		metadata: map[string]any{MetaGroup: "General"},
	}
}

// WithRegistrar attaches the registry the finalized definition is entered
// into. Without one, Action still returns the definition but registers
// nothing.
func (b *Builder) WithRegistrar(reg Registrar) *Builder {
	b.reg = reg
	return b
}

// clone produces an independent snapshot of the builder state.
func (b *Builder) clone() *Builder {
	next := *b
	next.middleware = append([]Middleware(nil), b.middleware...)
	next.aliases = append([]string(nil), b.aliases...)
	next.examples = append([]map[string]any(nil), b.examples...)
	next.metadata = make(map[string]any, len(b.metadata))
	for k, v := range b.metadata {
		next.metadata[k] = v
	}
	return &next
}

// Describe sets the command description in place.
func (b *Builder) Describe(desc string) *Builder {
	b.description = desc
	return b
}

// Input attaches the input schema, returning a new builder.
func (b *Builder) Input(s *schema.Schema) *Builder {
	next := b.clone()
	next.input = s
	return next
}

// Output attaches the optional output schema, returning a new builder.
func (b *Builder) Output(s *schema.Schema) *Builder {
	next := b.clone()
	next.output = s
	return next
}

// Use appends middleware to the chain, returning a new builder.
func (b *Builder) Use(mws ...Middleware) *Builder {
	next := b.clone()
	next.middleware = append(next.middleware, mws...)
	return next
}

// Meta sets one metadata entry in place.
func (b *Builder) Meta(key string, value any) *Builder {
	b.metadata[key] = value
	return b
}

// Aliases adds alias names in place. Aliases are scoped to the command's
// parent when the alias table is built.
func (b *Builder) Aliases(names ...string) *Builder {
	b.aliases = append(b.aliases, names...)
	return b
}

// Example appends an example input mapping in place, for help rendering.
func (b *Builder) Example(ex map[string]any) *Builder {
	b.examples = append(b.examples, ex)
	return b
}

// Sub starts a child builder. The child's internal name is parent:child, it
// inherits the middleware accumulated on the parent at this point, and its
// help group defaults to "default".
func (b *Builder) Sub(name string) *Builder {
	return &Builder{
		name:       b.name + Separator + name,
		parent:     b.name,
		middleware: append([]Middleware(nil), b.middleware...),
		metadata:   map[string]any{MetaGroup: "default"},
		reg:        b.reg,
	}
}

// Action finalizes the command with its handler. It requires a name and an
// input schema; missing either is a BuildError. The assembled definition is
// registered when a registrar is attached, then returned.
func (b *Builder) Action(h Handler) (*Definition, error) {
	if b.name == "" {
		return nil, &BuildError{Reason: "cannot finalize a command without a name"}
	}
	if b.input == nil {
		return nil, &BuildError{Command: b.name, Reason: "cannot finalize a command without an input schema"}
	}
	if h == nil {
		return nil, &BuildError{Command: b.name, Reason: "cannot finalize a command without a handler"}
	}

	metadata := make(map[string]any, len(b.metadata))
	for k, v := range b.metadata {
		metadata[k] = v
	}
	if _, ok := metadata[MetaGroup]; !ok {
		metadata[MetaGroup] = "default"
	}

	def := &Definition{
		Name:        b.name,
		Description: b.description,
		Input:       b.input,
		Output:      b.output,
		Metadata:    metadata,
		Aliases:     append([]string(nil), b.aliases...),
		Examples:    append([]map[string]any(nil), b.examples...),
		Parent:      b.parent,
		Middleware:  append([]Middleware(nil), b.middleware...),
		Handler:     h,
	}
	if b.reg != nil {
		b.reg.Register(def)
	}
	return def, nil
}
