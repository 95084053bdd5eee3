package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHPACKStaticIndexed(t *testing.T) {
	dec := NewHPACKDecoder()
	fields, err := dec.DecodeHeaderBlock([]byte{0x82})
	require.NoError(t, err)
	require.Len(t, fields, 1)
	require.Equal(t, ":method", fields[0].Name)
	require.Equal(t, "GET", fields[0].Value)
}

func TestHPACKLiteralWithoutIndexingRoundTrip(t *testing.T) {
	dec := NewHPACKDecoder()
	enc := NewHPACKEncoder()
	block := enc.EncodeHeaderBlock([]HeaderField{{Name: "x-custom", Value: "value"}})
	fields, err := dec.DecodeHeaderBlock(block)
	require.NoError(t, err)
	require.Equal(t, []HeaderField{{Name: "x-custom", Value: "value"}}, fields)
}

func TestHPACKNeverIndexedSurvivesRoundTrip(t *testing.T) {
	enc := NewHPACKEncoder()
	dec := NewHPACKDecoder()
	block := enc.EncodeHeaderBlock([]HeaderField{{Name: "authorization", Value: "secret", Sensitive: true}})
	fields, err := dec.DecodeHeaderBlock(block)
	require.NoError(t, err)
	require.True(t, fields[0].Sensitive)
}

func TestHPACKIndexedFieldNotFound(t *testing.T) {
	dec := NewHPACKDecoder()
	_, err := dec.DecodeHeaderBlock([]byte{0xff, 0x00})
	require.Error(t, err)
}

func TestHPACKDynamicTableSizeUpdate(t *testing.T) {
	dec := NewHPACKDecoder()
	_, err := dec.DecodeHeaderBlock([]byte{0x3f, 0xe1, 0x1f})
	require.NoError(t, err)
	require.Equal(t, 4096, dec.dynamic.capacity)
}

func TestPrefixIntRoundTrip(t *testing.T) {
	for _, n := range []uint{4, 5, 6, 7, 8} {
		for _, v := range []uint64{0, 1, 30, 127, 128, 1000, 1 << 20, 1 << 40} {
			dst := writePrefixInt(nil, n, 0, v)
			got, consumed, err := readPrefixInt(n, dst)
			require.NoError(t, err)
			require.Equal(t, len(dst), consumed)
			require.Equal(t, v, got)
		}
	}
}

func TestHuffmanRoundTrip(t *testing.T) {
	samples := []string{
		"", "a", "www.example.com", "gzip, deflate",
		"The quick brown fox jumps over the lazy dog.",
		"custom-key", "custom-header-value-12345",
	}
	for _, s := range samples {
		enc := huffmanEncode(nil, []byte(s))
		dec, err := huffmanDecode(nil, enc)
		require.NoError(t, err)
		require.Equal(t, s, string(dec))
	}
}
