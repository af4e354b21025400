package container

import (
	"reflect"
	"slices"
	"strings"
)

// ChainDelimiter separates type names in rendered dependency chains.
const ChainDelimiter = "---"

// chain is an immutable linked path of the types currently being
// constructed. It exists only for diagnostics.
type chain struct {
	parent *chain
	typ    reflect.Type
	origin reflect.Type // requested type when a mock redirected to typ
}

// rootChain is the sentinel every resolution starts from. It has no type.
var rootChain = &chain{}

// next returns a new node extending c. c is not modified.
func (c *chain) next(typ, origin reflect.Type) *chain {
	return &chain{parent: c, typ: typ, origin: origin}
}

// render joins every type from the root to c, in request order.
func (c *chain) render() string {
	var names []string
	for cursor := c; cursor != rootChain && cursor != nil; cursor = cursor.parent {
		names = append(names, nodeName(cursor.typ, cursor.origin))
	}
	slices.Reverse(names)
	return strings.Join(names, ChainDelimiter)
}

// renderLoop renders the cyclical segment ending in typ: from the node where
// typ first appeared up to the recurring request. It returns "" when typ is
// not on the chain.
func (c *chain) renderLoop(typ, origin reflect.Type) string {
	names := []string{nodeName(typ, origin)}
	cursor := c
	for ; cursor != rootChain && cursor != nil; cursor = cursor.parent {
		names = append(names, nodeName(cursor.typ, cursor.origin))
		if cursor.typ == typ {
			break
		}
	}
	if cursor == rootChain || cursor == nil {
		return ""
	}
	slices.Reverse(names)
	return strings.Join(names, ChainDelimiter)
}

// TypeName renders t the way dependency chains do: every unnamed pointer level
// dereferenced and the package qualifier dropped, eg. *app.Orders -> Orders and
// **app.Orders -> Orders. Named pointer types keep their own name. Other
// unnamed types use reflect's own rendering.
func TypeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	for t.Kind() == reflect.Pointer && t.Name() == "" {
		t = t.Elem()
	}
	if name := t.Name(); name != "" {
		return name
	}
	return t.String()
}

func nodeName(typ, origin reflect.Type) string {
	if origin == nil {
		return TypeName(typ)
	}
	return TypeName(typ) + "(" + TypeName(origin) + ")"
}
