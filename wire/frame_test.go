package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseH2FramesPing(t *testing.T) {
	var opaque [8]byte
	copy(opaque[:], "ABCDEFGH")
	enc := NewHPACKEncoder()
	raw, err := SerializeH2Frame(enc, &H2Frame{Type: FramePing, Opaque: opaque})
	require.NoError(t, err)

	chunks := NewCodec().ParseH2Frames(raw)
	require.Len(t, chunks, 1)
	require.Equal(t, KindH2, chunks[0].Kind)
	require.Equal(t, opaque, chunks[0].H2.Opaque)
}

func TestParseH2FramesDataEndStream(t *testing.T) {
	enc := NewHPACKEncoder()
	raw, err := SerializeH2Frame(enc, &H2Frame{
		Type: FrameData, StreamID: 3, Payload: []byte("ok"), EndStream: true,
	})
	require.NoError(t, err)

	chunks := NewCodec().ParseH2Frames(raw)
	require.Len(t, chunks, 1)
	require.Equal(t, []byte("ok"), chunks[0].H2.Payload)
	require.True(t, chunks[0].H2.EndStream)
}

func TestParseH2FramesHeadersRoundTrip(t *testing.T) {
	codec := NewCodec()
	fields := []HeaderField{{Name: ":method", Value: "GET"}, {Name: ":path", Value: "/"}}
	raw, err := codec.SerializeH2Frame(&H2Frame{
		Type: FrameHeaders, StreamID: 1, Headers: fields, EndStream: true, EndHeaders: true,
	})
	require.NoError(t, err)

	chunks := codec.ParseH2Frames(raw)
	require.Len(t, chunks, 1)
	require.Equal(t, fields, chunks[0].H2.Headers)
	require.True(t, chunks[0].H2.EndHeaders)
}

func TestParseH2FramesUnknownTypeYieldsErrorButContinues(t *testing.T) {
	enc := NewHPACKEncoder()
	good, err := SerializeH2Frame(enc, &H2Frame{Type: FramePing})
	require.NoError(t, err)

	unknown := append([]byte{0, 0, 0, 0x20, 0, 0, 0, 0, 0}, good...)
	chunks := NewCodec().ParseH2Frames(unknown)
	require.Len(t, chunks, 2)
	require.Equal(t, KindError, chunks[0].Kind)
	require.Equal(t, KindH2, chunks[1].Kind)
}

func TestParseH2FramesTruncatedPayloadEmitsTerminalError(t *testing.T) {
	raw := []byte{0, 0, 10, byte(FrameData), 0, 0, 0, 0, 1, 'o', 'k'}
	chunks := NewCodec().ParseH2Frames(raw)
	require.Len(t, chunks, 1)
	require.Equal(t, KindError, chunks[0].Kind)
}

func TestSerializeH2FrameBoundaryLength(t *testing.T) {
	enc := NewHPACKEncoder()
	_, err := SerializeH2Frame(enc, &H2Frame{Type: FrameData, Payload: make([]byte, maxFrameLength)})
	require.NoError(t, err)

	_, err = SerializeH2Frame(enc, &H2Frame{Type: FrameData, Payload: make([]byte, maxFrameLength+1)})
	require.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestParseH3FramesDataAndHeaders(t *testing.T) {
	codec := NewCodec()
	dataRaw, err := codec.SerializeH3Frame(&H3Frame{Type: H3FrameData, Payload: []byte("ok")})
	require.NoError(t, err)
	headersRaw, err := codec.SerializeH3Frame(&H3Frame{
		Type: H3FrameHeaders, Headers: []HeaderField{{Name: ":status", Value: "200"}},
	})
	require.NoError(t, err)

	chunks := codec.ParseH3Frames(append(dataRaw, headersRaw...))
	require.Len(t, chunks, 2)
	require.Equal(t, []byte("ok"), chunks[0].H3.Payload)
	require.Equal(t, ":status", chunks[1].H3.Headers[0].Name)
}

func TestParseH3FramesGoAway(t *testing.T) {
	codec := NewCodec()
	raw, err := codec.SerializeH3Frame(&H3Frame{Type: H3FrameGoAway, StreamID: 4})
	require.NoError(t, err)
	chunks := codec.ParseH3Frames(raw)
	require.Len(t, chunks, 1)
	require.EqualValues(t, 4, chunks[0].H3.StreamID)
}

func TestVarintRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 63, 64, 16383, 16384, varint4ByteMax, varint4ByteMax + 1, varint8ByteMax}
	for _, v := range values {
		dst, err := appendVarint(nil, v)
		require.NoError(t, err)
		got, n, err := readVarint(dst)
		require.NoError(t, err)
		require.Equal(t, len(dst), n)
		require.Equal(t, v, got)
	}
}
