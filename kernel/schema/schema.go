// Package schema implements spec.md §3/§4.2 (component C2): a
// validator/adjuster/compatibility-checker over kernel/value.Value.
// Each Schema node carries a mandatory Type plus, for object/array
// nodes, its compiled Properties/Items children; Validate, adjust.go's
// AdjustValueType and compat.go's IsCompatible each redispatch on
// s.Type directly rather than through a registered Keyword interface —
// simpler than santhosh-tekuri/jsonschema's ExtCompiler/ExtSchema
// split, which this package's compiled-tree shape (type-tagged node,
// properties resolved once at CreateFromValue time) is grounded on,
// because spec §3's four capabilities ("destroy, validate, adjust,
// is_compatible") are fixed and closed rather than an open extension
// point a foreign implementation can add to.
package schema

import (
	"fmt"

	"github.com/nmxmxh/flowmesh/kernel/flowerr"
	"github.com/nmxmxh/flowmesh/kernel/value"
)

// Schema is a compiled node. At most one of Properties/Items is
// populated, depending on Type (neither, for a primitive schema); Type
// itself is mandatory on every node (spec §3: "Every Schema owns a type
// keyword (mandatory)").
type Schema struct {
	Type value.Type

	// Object-schema fields.
	Properties map[string]*Schema
	propOrder  []string
	Required   []string

	// Array-schema field.
	Items *Schema
}

// propertyNames returns Properties' keys in declaration order, used so
// validation/compat error messages are reproducible rather than
// dependent on Go's randomized map iteration.
func (s *Schema) propertyNames() []string {
	return s.propOrder
}

// CreateFromValue compiles a Schema from its JSON-Schema-like object
// representation (spec §4.2, §6). v must be an object Value holding at
// least a "type" string.
func CreateFromValue(v *value.Value) (*Schema, *flowerr.Error) {
	if v == nil || !v.IsObject() {
		return nil, flowerr.New(flowerr.CodeInvalidArgument, "schema: definition must be an object")
	}
	typeVal, ok := v.ObjectPeek("type")
	if !ok {
		return nil, flowerr.New(flowerr.CodeInvalidArgument, "schema: missing mandatory \"type\" keyword")
	}
	typeStr, ok := typeVal.PeekRawStr()
	if !ok {
		return nil, flowerr.New(flowerr.CodeInvalidArgument, "schema: \"type\" must be a string")
	}
	t, err := typeFromKeyword(typeStr)
	if err != nil {
		return nil, err
	}

	s := &Schema{Type: t}

	switch t {
	case value.Object:
		propsVal, ok := v.ObjectPeek("properties")
		if !ok {
			return nil, flowerr.New(flowerr.CodeInvalidArgument, "schema: object schema missing \"properties\"")
		}
		if !propsVal.IsObject() {
			return nil, flowerr.New(flowerr.CodeInvalidArgument, "schema: \"properties\" must be an object")
		}
		s.Properties = make(map[string]*Schema)
		entries, _ := propsVal.PeekObject()
		for _, e := range entries {
			child, cerr := CreateFromValue(e.Val)
			if cerr != nil {
				return nil, cerr.WithPath("." + e.Key)
			}
			s.Properties[e.Key] = child
			s.propOrder = append(s.propOrder, e.Key)
		}
		if reqVal, ok := v.ObjectPeek("required"); ok {
			if !reqVal.IsArray() {
				return nil, flowerr.New(flowerr.CodeInvalidArgument, "schema: \"required\" must be an array")
			}
			items, _ := reqVal.PeekArray()
			for _, item := range items {
				name, ok := item.PeekRawStr()
				if !ok {
					return nil, flowerr.New(flowerr.CodeInvalidArgument, "schema: \"required\" entries must be strings")
				}
				s.Required = append(s.Required, name)
			}
		}
	case value.Array:
		itemsVal, ok := v.ObjectPeek("items")
		if !ok {
			return nil, flowerr.New(flowerr.CodeInvalidArgument, "schema: array schema missing \"items\"")
		}
		child, cerr := CreateFromValue(itemsVal)
		if cerr != nil {
			return nil, cerr.WithPath("[]")
		}
		s.Items = child
	default:
		// Primitive schema: no further keywords required.
	}
	return s, nil
}

func typeFromKeyword(s string) (value.Type, *flowerr.Error) {
	switch s {
	case "null":
		return value.Null, nil
	case "bool":
		return value.Bool, nil
	case "int8":
		return value.Int8, nil
	case "int16":
		return value.Int16, nil
	case "int32":
		return value.Int32, nil
	case "int64":
		return value.Int64, nil
	case "uint8":
		return value.Uint8, nil
	case "uint16":
		return value.Uint16, nil
	case "uint32":
		return value.Uint32, nil
	case "uint64":
		return value.Uint64, nil
	case "float32":
		return value.Float32, nil
	case "float64":
		return value.Float64, nil
	case "string":
		return value.String, nil
	case "buf":
		return value.Buf, nil
	case "ptr":
		return value.Ptr, nil
	case "object":
		return value.Object, nil
	case "array":
		return value.Array, nil
	default:
		return value.Invalid, flowerr.New(flowerr.CodeInvalidArgument, "schema: unknown type keyword %q", s)
	}
}

// Destroy releases the schema tree. Schema trees hold no foreign
// handles, so this simply nils out child references to help the
// garbage collector; it exists mainly to round out the keyword
// capability set spec §3 names ("destroy, validate, adjust,
// is_compatible").
func (s *Schema) Destroy() {
	if s == nil {
		return
	}
	for _, c := range s.Properties {
		c.Destroy()
	}
	s.Properties = nil
	s.propOrder = nil
	s.Items.Destroy()
	s.Items = nil
}

func (s *Schema) String() string {
	return fmt.Sprintf("schema<%s>", s.Type)
}
