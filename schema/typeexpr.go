package schema

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// TypeFromExpression converts an HCL expression that represents a type — the
// `string` keyword, or a constructor call like `list(string)` — into its
// cty.Type. Manifest-declared attribute types go through here.
func TypeFromExpression(expr hcl.Expression) (cty.Type, error) {
	if traversal, diags := hcl.AbsTraversalForExpr(expr); !diags.HasErrors() && len(traversal) == 1 {
		switch name := traversal.RootName(); name {
		case "string":
			return cty.String, nil
		case "number":
			return cty.Number, nil
		case "bool":
			return cty.Bool, nil
		case "any":
			return cty.DynamicPseudoType, nil
		default:
			return cty.NilType, fmt.Errorf("unsupported type keyword %q", name)
		}
	}

	call, diags := hcl.ExprCall(expr)
	if diags.HasErrors() {
		return cty.NilType, fmt.Errorf("invalid type expression: %s", diags.Error())
	}
	if len(call.Arguments) != 1 {
		return cty.NilType, fmt.Errorf("type constructor %q takes exactly one argument", call.Name)
	}
	elem, err := TypeFromExpression(call.Arguments[0])
	if err != nil {
		return cty.NilType, err
	}
	switch call.Name {
	case "list":
		return cty.List(elem), nil
	case "map":
		return cty.Map(elem), nil
	case "set":
		return cty.Set(elem), nil
	default:
		return cty.NilType, fmt.Errorf("unsupported type constructor %q", call.Name)
	}
}
