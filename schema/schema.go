// Package schema is the validator adapter for the framework.
//
// A Schema describes the shape of a command's input or a configuration
// object as a set of named attributes backed by cty types. Validation takes
// a raw mapping (tokenized CLI options, a merged configuration layer) and
// returns either a fully typed cty value or a list of field errors carrying
// a path and a message. All string coercion happens here, via cty's
// conversion rules; the tokenizer never coerces.
package schema

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// FieldError describes a single validation failure at a field path.
type FieldError struct {
	Path    string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Attr declares one attribute of a schema.
type Attr struct {
	Name        string
	Type        cty.Type
	Description string
	// Optional attributes validate to a null value when absent.
	Optional bool
	// Default, when set, is used in place of an absent value and implies
	// the attribute is optional.
	Default cty.Value
}

// Schema is an ordered set of attributes. Order is preserved for help
// rendering; validation itself is order-independent.
type Schema struct {
	attrs []Attr
}

// New builds a schema from the given attributes. Attribute names must be
// unique; a duplicate is a programming error and panics.
func New(attrs ...Attr) *Schema {
	seen := make(map[string]struct{}, len(attrs))
	for _, a := range attrs {
		if a.Name == "" {
			panic("schema: attribute with empty name")
		}
		if _, dup := seen[a.Name]; dup {
			panic(fmt.Sprintf("schema: duplicate attribute %q", a.Name))
		}
		seen[a.Name] = struct{}{}
	}
	return &Schema{attrs: attrs}
}

// Attrs returns the attributes in declaration order.
func (s *Schema) Attrs() []Attr {
	return s.attrs
}

// Type returns the cty object type the schema validates to.
func (s *Schema) Type() cty.Type {
	attrTypes := make(map[string]cty.Type, len(s.attrs))
	var optional []string
	for _, a := range s.attrs {
		attrTypes[a.Name] = a.Type
		if a.Optional || a.Default != cty.NilVal {
			optional = append(optional, a.Name)
		}
	}
	return cty.ObjectWithOptionalAttrs(attrTypes, optional)
}

// Validate checks raw against the schema and returns the typed object value.
// Keys in raw that the schema does not declare are ignored, which lets a
// configuration layer carry extra keys without failing the whole object.
// On any failure the returned value is cty.NilVal and every field error is
// reported, not just the first.
func (s *Schema) Validate(raw map[string]any) (cty.Value, []FieldError) {
	vals := make(map[string]cty.Value, len(s.attrs))
	var errs []FieldError

	for _, a := range s.attrs {
		rv, present := raw[a.Name]
		if !present || rv == nil {
			switch {
			case a.Default != cty.NilVal:
				vals[a.Name] = a.Default
			case a.Optional:
				vals[a.Name] = cty.NullVal(a.Type)
			default:
				errs = append(errs, FieldError{Path: a.Name, Message: "required attribute is missing"})
			}
			continue
		}

		v, err := toCty(rv)
		if err != nil {
			errs = append(errs, FieldError{Path: a.Name, Message: err.Error()})
			continue
		}
		conv, err := convert.Convert(v, a.Type)
		if err != nil {
			errs = append(errs, FieldError{Path: a.Name, Message: err.Error()})
			continue
		}
		vals[a.Name] = conv
	}

	if len(errs) > 0 {
		return cty.NilVal, errs
	}
	if len(vals) == 0 {
		return cty.EmptyObjectVal, nil
	}
	return cty.ObjectVal(vals), nil
}
