package wire

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScalarHeaderRoundTrip(t *testing.T) {
	in := ScalarHeader{
		IsFinal:           true,
		IsCompleted:       true,
		StatusCode:        7,
		Timestamp:         time.Unix(1700000000, 0).UTC(),
		SampleRate:        48000,
		BytesPerSample:    2,
		SamplesPerChannel: 1024,
		NumberOfChannel:   2,
		ChannelLayout:     3,
		LineSize:          4096,
		Width:             1920,
		Height:            1080,
	}

	b, err := in.MarshalMsg(nil)
	require.NoError(t, err)

	var out ScalarHeader
	rest, err := out.UnmarshalMsg(b)
	require.NoError(t, err)
	assert.Empty(t, rest)
	assert.Equal(t, in.IsFinal, out.IsFinal)
	assert.Equal(t, in.StatusCode, out.StatusCode)
	assert.Equal(t, in.SampleRate, out.SampleRate)
	assert.Equal(t, in.Width, out.Width)
	assert.True(t, in.Timestamp.Equal(out.Timestamp))
}

func TestEnvelopeRoundTrip(t *testing.T) {
	in := Envelope{
		MsgType:    "cmd",
		MsgName:    "do_thing",
		Header:     ScalarHeader{StatusCode: 1, IsCompleted: true, IsFinal: true},
		Properties: []byte(`{"a":1}`),
	}

	b, err := in.MarshalMsg(nil)
	require.NoError(t, err)

	var out Envelope
	rest, err := out.UnmarshalMsg(b)
	require.NoError(t, err)
	assert.Empty(t, rest)
	assert.Equal(t, in.MsgType, out.MsgType)
	assert.Equal(t, in.MsgName, out.MsgName)
	assert.Equal(t, in.Properties, out.Properties)
	assert.Equal(t, in.Header.StatusCode, out.Header.StatusCode)
}
