package schema

import (
	"github.com/nmxmxh/flowmesh/kernel/flowerr"
	"github.com/nmxmxh/flowmesh/kernel/value"
)

// widenRank orders the numeric tags by value-domain containment, so
// IsCompatible can ask "is source's domain contained in target's
// domain" as a simple rank comparison within the same signedness
// family, per spec §4.2 rule 1 ("i32 -> i64 compatible; i64 -> i32
// incompatible").
var widenRank = map[value.Type]int{
	value.Int8: 1, value.Int16: 2, value.Int32: 3, value.Int64: 4,
	value.Uint8: 1, value.Uint16: 2, value.Uint32: 3, value.Uint64: 4,
	value.Float32: 1, value.Float64: 2,
}

func sameNumericFamily(a, b value.Type) bool {
	fam := func(t value.Type) int {
		switch t {
		case value.Int8, value.Int16, value.Int32, value.Int64:
			return 1
		case value.Uint8, value.Uint16, value.Uint32, value.Uint64:
			return 2
		case value.Float32, value.Float64:
			return 3
		default:
			return 0
		}
	}
	return fam(a) == fam(b) && fam(a) != 0
}

// IsCompatible reports whether a producer schema (source) can feed a
// consumer schema (target), per spec §4.2's four rules. Error-context
// paths accumulate the same way Validate/AdjustValueType's do.
func IsCompatible(source, target *Schema) *flowerr.Error {
	if source == nil || target == nil {
		return flowerr.New(flowerr.CodeInvalidArgument, "schema: nil schema in compatibility check")
	}

	if source.Type != target.Type {
		if source.Type.IsNumeric() && target.Type.IsNumeric() && sameNumericFamily(source.Type, target.Type) {
			if widenRank[source.Type] > widenRank[target.Type] {
				return flowerr.New(flowerr.CodeGeneric,
					"type is incompatible, source is [%s], but target is [%s]", source.Type, target.Type)
			}
		} else {
			return flowerr.New(flowerr.CodeGeneric,
				"type is incompatible, source is [%s], but target is [%s]", source.Type, target.Type)
		}
	}

	switch target.Type {
	case value.Object:
		for _, name := range target.propertyNames() {
			srcChild, ok := source.Properties[name]
			if !ok {
				continue // only present on one side: doesn't break compatibility
			}
			if err := IsCompatible(srcChild, target.Properties[name]); err != nil {
				return err.WithPath("." + name)
			}
		}
		for _, req := range target.Required {
			if !containsStr(source.Required, req) {
				return flowerr.New(flowerr.CodeGeneric,
					"required property %q is mandated by target but not guaranteed by source", req)
			}
		}
	case value.Array:
		if err := IsCompatible(source.Items, target.Items); err != nil {
			return err.WithPath("[]")
		}
	}
	return nil
}

func containsStr(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
