package value

import (
	"bytes"
	"encoding/json"
	"math"

	"github.com/nmxmxh/flowmesh/kernel/flowerr"
)

// ToJSON implements the JSON Bridge (C9) egress direction: ptr and buf
// serialize as JSON null (spec §3: "they survive in-process but not
// across the JSON boundary"); object preserves insertion order by
// construction since we hand-assemble the braces ourselves, writing
// keys in the order we iterate v.obj, rather than delegating to
// encoding/json's map-based (unordered) object marshaling.
func (v *Value) ToJSON() (json.RawMessage, error) {
	if v == nil {
		return json.Marshal(nil)
	}
	switch v.Kind {
	case Invalid, Null, Ptr, Buf:
		return json.Marshal(nil)
	case Bool:
		return json.Marshal(v.b)
	case Int8, Int16, Int32, Int64:
		return json.Marshal(v.i)
	case Uint8, Uint16, Uint32, Uint64:
		return json.Marshal(v.u)
	case Float32, Float64:
		return json.Marshal(v.f64)
	case String:
		return json.Marshal(v.str)
	case Array:
		buf := []byte{'['}
		for i, e := range v.arr {
			if i > 0 {
				buf = append(buf, ',')
			}
			raw, err := e.ToJSON()
			if err != nil {
				return nil, err
			}
			buf = append(buf, raw...)
		}
		buf = append(buf, ']')
		return buf, nil
	case Object:
		buf := []byte{'{'}
		for i, e := range v.obj {
			if i > 0 {
				buf = append(buf, ',')
			}
			keyRaw, err := json.Marshal(e.Key)
			if err != nil {
				return nil, err
			}
			buf = append(buf, keyRaw...)
			buf = append(buf, ':')
			valRaw, err := e.Val.ToJSON()
			if err != nil {
				return nil, err
			}
			buf = append(buf, valRaw...)
		}
		buf = append(buf, '}')
		return buf, nil
	default:
		return json.Marshal(nil)
	}
}

// FromJSON implements the JSON Bridge ingress direction. Per spec
// §4.1: non-negative JSON integers become u64, else i64; floats become
// f64; strings/null/bool pass through directly; arrays and objects
// recurse. Objects are parsed token-by-token with json.Decoder rather
// than decoded into map[string]any, so that insertion order survives
// the round trip named in invariant 1 ("from_json(to_json(v)) equals v
// structurally including object key order") — a plain
// `json.Unmarshal(&map[string]any{})` would have silently discarded it.
func FromJSON(raw []byte) (*Value, *flowerr.Error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (*Value, *flowerr.Error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, flowerr.New(flowerr.CodeParse, "json: %v", err)
	}
	return decodeFromToken(dec, tok)
}

func decodeFromToken(dec *json.Decoder, tok json.Token) (*Value, *flowerr.Error) {
	switch t := tok.(type) {
	case nil:
		return NewNull(), nil
	case bool:
		return NewBool(t), nil
	case json.Number:
		return numberToValue(t)
	case string:
		return NewString(t), nil
	case json.Delim:
		switch t {
		case '[':
			arr := NewArray()
			for dec.More() {
				child, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				if err := arr.ArrayAppend(child); err != nil {
					return nil, flowerr.New(flowerr.CodeGeneric, "%v", err)
				}
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return nil, flowerr.New(flowerr.CodeParse, "json: %v", err)
			}
			return arr, nil
		case '{':
			obj := NewObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, flowerr.New(flowerr.CodeParse, "json: %v", err)
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, flowerr.New(flowerr.CodeParse, "json: object key is not a string")
				}
				child, cerr := decodeValue(dec)
				if cerr != nil {
					return nil, cerr
				}
				if err := obj.ObjectMove(key, child); err != nil {
					return nil, flowerr.New(flowerr.CodeGeneric, "%v", err)
				}
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return nil, flowerr.New(flowerr.CodeParse, "json: %v", err)
			}
			return obj, nil
		}
	}
	return nil, flowerr.New(flowerr.CodeParse, "json: unexpected token %v", tok)
}

func numberToValue(n json.Number) (*Value, *flowerr.Error) {
	if i, err := n.Int64(); err == nil {
		if i >= 0 {
			return NewUint64(uint64(i)), nil
		}
		return NewInt64(i), nil
	}
	f, err := n.Float64()
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, flowerr.New(flowerr.CodeParse, "json: invalid number %q", string(n))
	}
	return NewFloat64(f), nil
}
