package value

import (
	"math"
	"strconv"

	"github.com/nmxmxh/flowmesh/kernel/flowerr"
)

// rawSigned/rawUnsigned/rawFloat extract the raw numeric payload regardless of which
// of the three numeric storage fields holds it, so the range checks
// below have a single representation to reason about.
func (v *Value) rawSigned() (int64, bool) {
	switch v.Kind {
	case Int8, Int16, Int32, Int64:
		return v.i, true
	case Uint8, Uint16, Uint32, Uint64:
		if v.u > math.MaxInt64 {
			return 0, false
		}
		return int64(v.u), true
	}
	return 0, false
}

func (v *Value) rawUnsigned() (uint64, bool) {
	switch v.Kind {
	case Uint8, Uint16, Uint32, Uint64:
		return v.u, true
	case Int8, Int16, Int32, Int64:
		if v.i < 0 {
			return 0, false
		}
		return uint64(v.i), true
	}
	return 0, false
}

func (v *Value) rawFloat() (float64, bool) {
	switch v.Kind {
	case Float32, Float64:
		return v.f64, true
	case Int8, Int16, Int32, Int64:
		return float64(v.i), true
	case Uint8, Uint16, Uint32, Uint64:
		return float64(v.u), true
	}
	return 0, false
}

func typeErr(v *Value, target string) *flowerr.Error {
	kind := Invalid
	if v != nil {
		kind = v.Kind
	}
	return flowerr.New(flowerr.CodeUnsupportedTypeConversion,
		"cannot convert %s to %s: value is not numeric", kind, target)
}

func rangeErr(v *Value, target string) *flowerr.Error {
	return flowerr.New(flowerr.CodeOutOfRange,
		"value of type %s does not fit in %s", v.Kind, target)
}

// GetInt64 implements get_<T> for int64: lossless for any integer tag
// that fits, rejected (out-of-range) for a uint64 too large to
// represent signed, rejected (unsupported) for float/string/etc.
func (v *Value) GetInt64() (int64, *flowerr.Error) {
	if v == nil || !v.Kind.IsNumeric() {
		return 0, typeErr(v, "int64")
	}
	if v.Kind == Float32 || v.Kind == Float64 {
		return 0, typeErr(v, "int64")
	}
	i, ok := v.rawSigned()
	if !ok {
		return 0, rangeErr(v, "int64")
	}
	return i, nil
}

// getSignedN is the shared narrowing-integer path for int8/16/32.
func getSignedN(v *Value, bits int) (int64, *flowerr.Error) {
	i64, err := v.GetInt64()
	if err != nil {
		return 0, err
	}
	lo, hi := rangeFor(bits, true)
	if i64 < lo || i64 > hi {
		return 0, rangeErr(v, "int"+itoa(bits))
	}
	return i64, nil
}

func (v *Value) GetInt8() (int8, *flowerr.Error) {
	i, err := getSignedN(v, 8)
	if err != nil {
		return 0, err
	}
	return int8(i), nil
}

func (v *Value) GetInt16() (int16, *flowerr.Error) {
	i, err := getSignedN(v, 16)
	if err != nil {
		return 0, err
	}
	return int16(i), nil
}

func (v *Value) GetInt32() (int32, *flowerr.Error) {
	i, err := getSignedN(v, 32)
	if err != nil {
		return 0, err
	}
	return int32(i), nil
}

// GetUint64 implements get_<T> for uint64: any non-negative integer
// tag converts losslessly.
func (v *Value) GetUint64() (uint64, *flowerr.Error) {
	if v == nil || !v.Kind.IsNumeric() || v.Kind == Float32 || v.Kind == Float64 {
		return 0, typeErr(v, "uint64")
	}
	u, ok := v.rawUnsigned()
	if !ok {
		return 0, rangeErr(v, "uint64")
	}
	return u, nil
}

func getUnsignedN(v *Value, bits int) (uint64, *flowerr.Error) {
	u64, err := v.GetUint64()
	if err != nil {
		return 0, err
	}
	_, hi := rangeFor(bits, false)
	if u64 > uint64(hi) {
		return 0, rangeErr(v, "uint"+itoa(bits))
	}
	return u64, nil
}

func (v *Value) GetUint8() (uint8, *flowerr.Error) {
	u, err := getUnsignedN(v, 8)
	if err != nil {
		return 0, err
	}
	return uint8(u), nil
}

func (v *Value) GetUint16() (uint16, *flowerr.Error) {
	u, err := getUnsignedN(v, 16)
	if err != nil {
		return 0, err
	}
	return uint16(u), nil
}

func (v *Value) GetUint32() (uint32, *flowerr.Error) {
	u, err := getUnsignedN(v, 32)
	if err != nil {
		return 0, err
	}
	return uint32(u), nil
}

// GetFloat64 implements get_<T> for float64. Integer -> float is
// rejected unless the integer round-trips exactly through the target
// float type, per spec §4.1's numeric conversion rules.
func (v *Value) GetFloat64() (float64, *flowerr.Error) {
	if v == nil || !v.Kind.IsNumeric() {
		return 0, typeErr(v, "float64")
	}
	if v.Kind == Float32 || v.Kind == Float64 {
		f, _ := v.rawFloat()
		return f, nil
	}
	f, _ := v.rawFloat()
	if i, ok := v.rawSigned(); ok && (f >= 1<<63 || int64(f) != i) {
		return 0, rangeErr(v, "float64")
	}
	if u, ok := v.rawUnsigned(); ok && (f >= 1<<64 || uint64(f) != u) {
		return 0, rangeErr(v, "float64")
	}
	return f, nil
}

// GetFloat32 narrows float64 -> float32, succeeding only if the value
// is exactly representable (integers) or within float32 range (per
// spec §4.1: "narrowing succeeds iff |x| <= FLT_MAX").
func (v *Value) GetFloat32() (float32, *flowerr.Error) {
	f, err := v.GetFloat64()
	if err != nil {
		return 0, err
	}
	if math.Abs(f) > math.MaxFloat32 {
		return 0, rangeErr(v, "float32")
	}
	if v.Kind != Float32 && v.Kind != Float64 && float64(float32(f)) != f {
		return 0, rangeErr(v, "float32")
	}
	return float32(f), nil
}

// GetBool requires the Value to already be Bool; bool never
// participates in numeric conversion.
func (v *Value) GetBool() (bool, *flowerr.Error) {
	if v == nil || v.Kind != Bool {
		return false, flowerr.New(flowerr.CodeUnsupportedTypeConversion,
			"cannot convert %s to bool", kindOf(v))
	}
	return v.b, nil
}

func kindOf(v *Value) Type {
	if v == nil {
		return Invalid
	}
	return v.Kind
}

func rangeFor(bits int, signed bool) (lo, hi int64) {
	if signed {
		switch bits {
		case 8:
			return math.MinInt8, math.MaxInt8
		case 16:
			return math.MinInt16, math.MaxInt16
		case 32:
			return math.MinInt32, math.MaxInt32
		default:
			return math.MinInt64, math.MaxInt64
		}
	}
	switch bits {
	case 8:
		return 0, math.MaxUint8
	case 16:
		return 0, math.MaxUint16
	case 32:
		return 0, math.MaxUint32
	default:
		return 0, math.MaxInt64
	}
}

func itoa(n int) string { return strconv.Itoa(n) }

// FromTypeAndString parses text under the tag t, per spec §4.1's
// from_type_and_string: numeric tags parse as i64/f64 then convert via
// the same numeric-conversion rules get_* uses; bool accepts exactly
// "true"/"false"; string passes through; malformed literals are parse
// errors, and any other target type is rejected as an invalid argument.
func FromTypeAndString(t Type, text string) (*Value, *flowerr.Error) {
	switch t {
	case Bool:
		switch text {
		case "true":
			return NewBool(true), nil
		case "false":
			return NewBool(false), nil
		default:
			return nil, flowerr.New(flowerr.CodeParse, "invalid bool literal %q", text)
		}
	case String:
		return NewString(text), nil
	case Int8, Int16, Int32, Int64, Uint8, Uint16, Uint32, Uint64:
		i, perr := strconv.ParseInt(text, 10, 64)
		if perr != nil {
			return nil, flowerr.New(flowerr.CodeParse, "invalid integer literal %q: %v", text, perr)
		}
		return adjustIntegerLiteral(t, i)
	case Float32, Float64:
		f, perr := strconv.ParseFloat(text, 64)
		if perr != nil {
			return nil, flowerr.New(flowerr.CodeParse, "invalid float literal %q: %v", text, perr)
		}
		if t == Float32 {
			if math.Abs(f) > math.MaxFloat32 {
				return nil, flowerr.New(flowerr.CodeOutOfRange, "literal %q does not fit in float32", text)
			}
			return NewFloat32(float32(f)), nil
		}
		return NewFloat64(f), nil
	default:
		return nil, flowerr.New(flowerr.CodeInvalidArgument, "type %s is not constructible from a string", t)
	}
}

func adjustIntegerLiteral(t Type, i int64) (*Value, *flowerr.Error) {
	src := NewInt64(i)
	switch t {
	case Int8:
		x, err := src.GetInt8()
		return NewInt8(x), err
	case Int16:
		x, err := src.GetInt16()
		return NewInt16(x), err
	case Int32:
		x, err := src.GetInt32()
		return NewInt32(x), err
	case Int64:
		return NewInt64(i), nil
	case Uint8:
		x, err := src.GetUint8()
		return NewUint8(x), err
	case Uint16:
		x, err := src.GetUint16()
		return NewUint16(x), err
	case Uint32:
		x, err := src.GetUint32()
		return NewUint32(x), err
	case Uint64:
		x, err := src.GetUint64()
		return NewUint64(x), err
	}
	return nil, flowerr.New(flowerr.CodeInvalidArgument, "type %s is not integral", t)
}
