package schema

import (
	"fmt"

	"github.com/nmxmxh/flowmesh/kernel/flowerr"
	"github.com/nmxmxh/flowmesh/kernel/value"
)

// Validate checks v against s, applying each keyword's independent
// check (spec §4.2: "Order is irrelevant — each keyword checks an
// independent aspect"). Errors carry a dotted/bracketed path to the
// first failing node, built up exactly like
// santhosh-tekuri/jsonschema's schemaPtr-threading ValidationContext.
func Validate(s *Schema, v *value.Value) *flowerr.Error {
	if s == nil {
		return flowerr.New(flowerr.CodeInvalidArgument, "schema: nil schema")
	}
	if v.IsInvalid() {
		return flowerr.New(flowerr.CodeInvalidArgument, "value is invalid")
	}

	// "type" keyword: the value's tag must match the schema's tag.
	if v.Kind != s.Type {
		return flowerr.New(flowerr.CodeUnsupportedTypeConversion,
			"type is incompatible, value is [%s], but schema expects [%s]", v.Kind, s.Type)
	}

	switch s.Type {
	case value.Object:
		for _, name := range s.Required {
			if _, ok := v.ObjectPeek(name); !ok {
				return flowerr.New(flowerr.CodeInvalidArgument, "required property %q is missing", name).WithPath(fmt.Sprintf(".%s", name))
			}
		}
		for _, name := range s.propertyNames() {
			child, ok := v.ObjectPeek(name)
			if !ok {
				continue // properties absent from v are fine unless required
			}
			childSchema := s.Properties[name]
			if err := Validate(childSchema, child); err != nil {
				return err.WithPath("." + name)
			}
		}
	case value.Array:
		elems, _ := v.PeekArray()
		for i, elem := range elems {
			if err := Validate(s.Items, elem); err != nil {
				return err.WithPath(fmt.Sprintf("[%d]", i))
			}
		}
	}
	return nil
}
