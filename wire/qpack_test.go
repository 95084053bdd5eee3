package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQPACKPrefixThenStaticIndex(t *testing.T) {
	dec := NewQPACKDecoder()
	fields, err := dec.DecodeHeaderBlock([]byte{0x00, 0x00, 0xc1})
	require.NoError(t, err)
	require.Len(t, fields, 1)
	require.Equal(t, HeaderField{Name: ":path", Value: "/"}, fields[0])
}

func TestQPACKEncodeNeverEmitsDynamicReference(t *testing.T) {
	enc := NewQPACKEncoder()
	block := enc.EncodeHeaderBlock([]HeaderField{
		{Name: ":path", Value: "/"},
		{Name: "x-request-id", Value: "abc123"},
	})
	dec := NewQPACKDecoder()
	fields, err := dec.DecodeHeaderBlock(block)
	require.NoError(t, err)
	require.Equal(t, ":path", fields[0].Name)
	require.Equal(t, "x-request-id", fields[1].Name)
	require.NotEqual(t, qpackDynamicPlaceholder, fields[1].Name)
}

func TestQPACKDynamicReferenceReportedAsPlaceholder(t *testing.T) {
	dec := NewQPACKDecoder()
	// Required Insert Count=0, Base=0, then an indexed-dynamic (S=0) ref.
	fields, err := dec.DecodeHeaderBlock([]byte{0x00, 0x00, 0x80})
	require.NoError(t, err)
	require.Equal(t, qpackDynamicPlaceholder, fields[0].Name)
}
