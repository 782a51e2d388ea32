package schema

import (
	"fmt"

	"github.com/nmxmxh/flowmesh/kernel/flowerr"
	"github.com/nmxmxh/flowmesh/kernel/value"
)

// AdjustValueType mutates v in place so its tag matches s.Type, using
// the numeric-conversion rules of value.Get*, and recurses into
// children (spec §4.2). Adjust is idempotent: running it twice on an
// already-matching Value is a no-op, which TestAdjustIsIdempotent in
// schema_test.go checks on an example value (invariant 2).
func AdjustValueType(s *Schema, v *value.Value) *flowerr.Error {
	if s == nil {
		return flowerr.New(flowerr.CodeInvalidArgument, "schema: nil schema")
	}
	if v.IsInvalid() {
		return flowerr.New(flowerr.CodeInvalidArgument, "value is invalid")
	}

	if v.Kind != s.Type {
		if !s.Type.IsNumeric() || !v.Kind.IsNumeric() {
			return flowerr.New(flowerr.CodeUnsupportedTypeConversion,
				"cannot adjust value of type %s to schema type %s", v.Kind, s.Type)
		}
		converted, err := convertNumeric(v, s.Type)
		if err != nil {
			return err
		}
		v.Assign(converted)
	}

	switch s.Type {
	case value.Object:
		for _, name := range s.propertyNames() {
			child, ok := v.ObjectPeek(name)
			if !ok {
				continue
			}
			if err := AdjustValueType(s.Properties[name], child); err != nil {
				return err.WithPath("." + name)
			}
		}
	case value.Array:
		elems, _ := v.PeekArray()
		for i, elem := range elems {
			if err := AdjustValueType(s.Items, elem); err != nil {
				return err.WithPath(fmt.Sprintf("[%d]", i))
			}
		}
	}
	return nil
}

// convertNumeric builds a freshly-tagged Value of type t from v's
// numeric payload, applying the same widening/narrowing rules value.Get*
// uses, so a failed adjust and a failed get_* report the same error
// shape.
func convertNumeric(v *value.Value, t value.Type) (*value.Value, *flowerr.Error) {
	switch t {
	case value.Int8:
		x, err := v.GetInt8()
		if err != nil {
			return nil, err
		}
		return value.NewInt8(x), nil
	case value.Int16:
		x, err := v.GetInt16()
		if err != nil {
			return nil, err
		}
		return value.NewInt16(x), nil
	case value.Int32:
		x, err := v.GetInt32()
		if err != nil {
			return nil, err
		}
		return value.NewInt32(x), nil
	case value.Int64:
		x, err := v.GetInt64()
		if err != nil {
			return nil, err
		}
		return value.NewInt64(x), nil
	case value.Uint8:
		x, err := v.GetUint8()
		if err != nil {
			return nil, err
		}
		return value.NewUint8(x), nil
	case value.Uint16:
		x, err := v.GetUint16()
		if err != nil {
			return nil, err
		}
		return value.NewUint16(x), nil
	case value.Uint32:
		x, err := v.GetUint32()
		if err != nil {
			return nil, err
		}
		return value.NewUint32(x), nil
	case value.Uint64:
		x, err := v.GetUint64()
		if err != nil {
			return nil, err
		}
		return value.NewUint64(x), nil
	case value.Float32:
		x, err := v.GetFloat32()
		if err != nil {
			return nil, err
		}
		return value.NewFloat32(x), nil
	case value.Float64:
		x, err := v.GetFloat64()
		if err != nil {
			return nil, err
		}
		return value.NewFloat64(x), nil
	default:
		return nil, flowerr.New(flowerr.CodeUnsupportedTypeConversion, "schema: %s is not a numeric target", t)
	}
}
