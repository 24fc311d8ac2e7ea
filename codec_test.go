package reactor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineCodecRoundTrip(t *testing.T) {
	var codec LineCodec
	buf := NewBuffer()
	codec.Encode(NewSlice([]byte("hello")), buf)

	res := codec.TryDecode(buf.Slice())
	require.NoError(t, res.Err)
	require.NotZero(t, res.Consumed)
	assert.Equal(t, "hello", res.Message.String())
	assert.Equal(t, len("hello\r\n"), res.Consumed)
}

func TestLineCodecMixedTerminators(t *testing.T) {
	var codec LineCodec

	lfOnly := codec.TryDecode(NewSlice([]byte("a\nb")))
	assert.Equal(t, 2, lfOnly.Consumed)
	assert.Equal(t, "a", lfOnly.Message.String())

	crlf := codec.TryDecode(NewSlice([]byte("a\r\nb")))
	assert.Equal(t, 3, crlf.Consumed)
	assert.Equal(t, "a", crlf.Message.String())

	partial := codec.TryDecode(NewSlice([]byte("no-terminator-yet")))
	assert.Zero(t, partial.Consumed)
	assert.NoError(t, partial.Err)
}

func TestLineCodecEOTFrame(t *testing.T) {
	var codec LineCodec
	res := codec.TryDecode(NewSlice([]byte{0x04}))
	assert.Equal(t, 1, res.Consumed)
	assert.Equal(t, byte(0x04), res.Message[0])
}

func TestLengthCodecRoundTrip(t *testing.T) {
	var codec LengthCodec
	buf := NewBuffer()
	codec.Encode(NewSlice([]byte("payload")), buf)

	res := codec.TryDecode(buf.Slice())
	require.NoError(t, res.Err)
	assert.Equal(t, "payload", res.Message.String())
	assert.Equal(t, lengthCodecHdrSize+len("payload"), res.Consumed)
}

func TestLengthCodecPartialFrame(t *testing.T) {
	var codec LengthCodec
	buf := NewBuffer()
	codec.Encode(NewSlice([]byte("payload")), buf)

	full := buf.Bytes()
	res := codec.TryDecode(NewSlice(full[:lengthCodecHdrSize+2]))
	assert.Zero(t, res.Consumed)
	assert.NoError(t, res.Err)
}

func TestLengthCodecBadMagicFailsFast(t *testing.T) {
	var codec LengthCodec
	res := codec.TryDecode(NewSlice([]byte("xxxx")))
	assert.ErrorIs(t, res.Err, ErrBadFrame)
}

func TestLengthCodecOversizeFrameRejected(t *testing.T) {
	var codec LengthCodec
	header := []byte(lengthCodecMagic)
	header = append(header, 0x7f, 0xff, 0xff, 0xff) // huge length
	res := codec.TryDecode(NewSlice(header))
	assert.ErrorIs(t, res.Err, ErrFrameTooLarge)
}
