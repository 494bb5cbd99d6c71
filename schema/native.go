package schema

import (
	"fmt"
	"sort"

	"github.com/go-viper/mapstructure/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// toCty converts a native Go value into a cty value. Plain JSON-ish shapes
// are handled directly; anything else falls back to gocty's implied typing.
func toCty(raw any) (cty.Value, error) {
	switch v := raw.(type) {
	case cty.Value:
		return v, nil
	case string:
		return cty.StringVal(v), nil
	case bool:
		return cty.BoolVal(v), nil
	case int:
		return cty.NumberIntVal(int64(v)), nil
	case int64:
		return cty.NumberIntVal(v), nil
	case float64:
		return cty.NumberFloatVal(v), nil
	case float32:
		return cty.NumberFloatVal(float64(v)), nil
	case []any:
		if len(v) == 0 {
			return cty.EmptyTupleVal, nil
		}
		elems := make([]cty.Value, 0, len(v))
		for i, e := range v {
			ev, err := toCty(e)
			if err != nil {
				return cty.NilVal, fmt.Errorf("element %d: %w", i, err)
			}
			elems = append(elems, ev)
		}
		return cty.TupleVal(elems), nil
	case map[string]any:
		if len(v) == 0 {
			return cty.EmptyObjectVal, nil
		}
		attrs := make(map[string]cty.Value, len(v))
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			av, err := toCty(v[k])
			if err != nil {
				return cty.NilVal, fmt.Errorf("%s: %w", k, err)
			}
			attrs[k] = av
		}
		return cty.ObjectVal(attrs), nil
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	default:
		ty, err := gocty.ImpliedType(raw)
		if err != nil {
			return cty.NilVal, fmt.Errorf("unsupported value of type %T: %w", raw, err)
		}
		return gocty.ToCtyValue(raw, ty)
	}
}

// Native converts a cty value back into plain Go values: objects and maps
// become map[string]any, collections become []any, numbers become int when
// whole and float64 otherwise.
func Native(v cty.Value) any {
	if v == cty.NilVal || v.IsNull() {
		return nil
	}
	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString()
	case ty == cty.Bool:
		return v.True()
	case ty == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			i, _ := bf.Int64()
			return int(i)
		}
		f, _ := bf.Float64()
		return f
	case ty.IsTupleType() || ty.IsListType() || ty.IsSetType():
		out := make([]any, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			out = append(out, Native(ev))
		}
		return out
	case ty.IsObjectType() || ty.IsMapType():
		out := make(map[string]any, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			kv, ev := it.Element()
			out[kv.AsString()] = Native(ev)
		}
		return out
	default:
		return nil
	}
}

// NativeMap is Native narrowed to object values; any other value yields an
// empty map.
func NativeMap(v cty.Value) map[string]any {
	if m, ok := Native(v).(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// Decode converts a validated value — a cty value or its native form —
// into the caller's typed struct. Fields are matched by the `cmdkit` tag,
// falling back to case-insensitive name matching.
func Decode(v any, target any) error {
	native := v
	if cv, ok := v.(cty.Value); ok {
		native = Native(cv)
	}
	if native == nil {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "cmdkit",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("build decoder: %w", err)
	}
	if err := dec.Decode(native); err != nil {
		return fmt.Errorf("decode value: %w", err)
	}
	return nil
}
