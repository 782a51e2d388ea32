package wire

import (
	"github.com/tinylib/msgp/msgp"
)

// Envelope is the cross-app wire frame kernel/sendpath's dial path
// sends: a message type/name, a ScalarHeader, and the JSON-encoded
// property tree (kernel/value's
// own JSON bridge already produces insertion-order-preserving bytes,
// so the envelope carries them opaquely rather than re-encoding them
// as msgpack).
type Envelope struct {
	MsgType    string
	MsgName    string
	Header     ScalarHeader
	Properties []byte // JSON, produced by value.ToJSON
}

// MarshalMsg appends the msgpack encoding of the envelope to b.
func (z *Envelope) MarshalMsg(b []byte) (o []byte, err error) {
	o = msgp.AppendMapHeader(b, 4)

	o = msgp.AppendString(o, "msg_type")
	o = msgp.AppendString(o, z.MsgType)

	o = msgp.AppendString(o, "msg_name")
	o = msgp.AppendString(o, z.MsgName)

	o = msgp.AppendString(o, "header")
	o, err = z.Header.MarshalMsg(o)
	if err != nil {
		return nil, msgp.WrapError(err, "Header")
	}

	o = msgp.AppendString(o, "properties")
	o = msgp.AppendBytes(o, z.Properties)

	return o, nil
}

// UnmarshalMsg consumes the msgpack encoding of the envelope from bts.
func (z *Envelope) UnmarshalMsg(bts []byte) (o []byte, err error) {
	var sz uint32
	sz, bts, err = msgp.ReadMapHeaderBytes(bts)
	if err != nil {
		return nil, msgp.WrapError(err)
	}

	for i := uint32(0); i < sz; i++ {
		var field []byte
		field, bts, err = msgp.ReadMapKeyZC(bts)
		if err != nil {
			return nil, msgp.WrapError(err)
		}
		switch string(field) {
		case "msg_type":
			z.MsgType, bts, err = msgp.ReadStringBytes(bts)
		case "msg_name":
			z.MsgName, bts, err = msgp.ReadStringBytes(bts)
		case "header":
			bts, err = z.Header.UnmarshalMsg(bts)
		case "properties":
			z.Properties, bts, err = msgp.ReadBytesBytes(bts, nil)
		default:
			bts, err = msgp.Skip(bts)
		}
		if err != nil {
			return nil, msgp.WrapError(err, string(field))
		}
	}
	return bts, nil
}
