// Package wire implements the msgpack scalar codec (C10): only the
// message header's scalar fields (is_final, status_code, timestamp,
// and the audio/video frame scalar fields) are encoded here, in the
// hand-written MarshalMsg/UnmarshalMsg shape tinylib/msgp's code
// generator produces, per spec §4.10 ("the full wire protocol is out
// of scope").
package wire

import (
	"time"

	"github.com/tinylib/msgp/msgp"
)

// ScalarHeader is the msgpack-encodable subset of a message's header
// and frame scalar fields.
type ScalarHeader struct {
	IsFinal     bool
	IsCompleted bool
	StatusCode  uint32
	Timestamp   time.Time

	SampleRate        uint32
	BytesPerSample    uint32
	SamplesPerChannel uint32
	NumberOfChannel   uint32
	ChannelLayout     uint64
	LineSize          uint32

	Width  uint32
	Height uint32
}

const scalarHeaderFieldCount = 12

// MarshalMsg appends the msgpack encoding of z to b.
func (z *ScalarHeader) MarshalMsg(b []byte) (o []byte, err error) {
	o = msgp.AppendMapHeader(b, scalarHeaderFieldCount)

	o = msgp.AppendString(o, "is_final")
	o = msgp.AppendBool(o, z.IsFinal)

	o = msgp.AppendString(o, "is_completed")
	o = msgp.AppendBool(o, z.IsCompleted)

	o = msgp.AppendString(o, "status_code")
	o = msgp.AppendUint32(o, z.StatusCode)

	o = msgp.AppendString(o, "timestamp")
	o = msgp.AppendTime(o, z.Timestamp)

	o = msgp.AppendString(o, "sample_rate")
	o = msgp.AppendUint32(o, z.SampleRate)

	o = msgp.AppendString(o, "bytes_per_sample")
	o = msgp.AppendUint32(o, z.BytesPerSample)

	o = msgp.AppendString(o, "samples_per_channel")
	o = msgp.AppendUint32(o, z.SamplesPerChannel)

	o = msgp.AppendString(o, "number_of_channel")
	o = msgp.AppendUint32(o, z.NumberOfChannel)

	o = msgp.AppendString(o, "channel_layout")
	o = msgp.AppendUint64(o, z.ChannelLayout)

	o = msgp.AppendString(o, "line_size")
	o = msgp.AppendUint32(o, z.LineSize)

	o = msgp.AppendString(o, "width")
	o = msgp.AppendUint32(o, z.Width)

	o = msgp.AppendString(o, "height")
	o = msgp.AppendUint32(o, z.Height)

	return o, nil
}

// UnmarshalMsg consumes the msgpack encoding of z from bts, returning
// the remaining unread bytes.
func (z *ScalarHeader) UnmarshalMsg(bts []byte) (o []byte, err error) {
	var sz uint32
	sz, bts, err = msgp.ReadMapHeaderBytes(bts)
	if err != nil {
		err = msgp.WrapError(err)
		return
	}

	for i := uint32(0); i < sz; i++ {
		var field []byte
		field, bts, err = msgp.ReadMapKeyZC(bts)
		if err != nil {
			err = msgp.WrapError(err)
			return
		}
		switch string(field) {
		case "is_final":
			z.IsFinal, bts, err = msgp.ReadBoolBytes(bts)
		case "is_completed":
			z.IsCompleted, bts, err = msgp.ReadBoolBytes(bts)
		case "status_code":
			z.StatusCode, bts, err = msgp.ReadUint32Bytes(bts)
		case "timestamp":
			z.Timestamp, bts, err = msgp.ReadTimeBytes(bts)
		case "sample_rate":
			z.SampleRate, bts, err = msgp.ReadUint32Bytes(bts)
		case "bytes_per_sample":
			z.BytesPerSample, bts, err = msgp.ReadUint32Bytes(bts)
		case "samples_per_channel":
			z.SamplesPerChannel, bts, err = msgp.ReadUint32Bytes(bts)
		case "number_of_channel":
			z.NumberOfChannel, bts, err = msgp.ReadUint32Bytes(bts)
		case "channel_layout":
			z.ChannelLayout, bts, err = msgp.ReadUint64Bytes(bts)
		case "line_size":
			z.LineSize, bts, err = msgp.ReadUint32Bytes(bts)
		case "width":
			z.Width, bts, err = msgp.ReadUint32Bytes(bts)
		case "height":
			z.Height, bts, err = msgp.ReadUint32Bytes(bts)
		default:
			bts, err = msgp.Skip(bts)
		}
		if err != nil {
			err = msgp.WrapError(err, string(field))
			return
		}
	}
	o = bts
	return
}

// Msgsize estimates the encoded size of z, in the style msgp generates
// alongside MarshalMsg/UnmarshalMsg for pre-sizing a buffer.
func (z *ScalarHeader) Msgsize() int {
	return msgp.MapHeaderSize +
		12*msgp.StringPrefixSize + // field-name keys, roughly
		msgp.BoolSize*2 +
		msgp.Uint32Size*8 +
		msgp.Uint64Size +
		msgp.TimeSize
}
