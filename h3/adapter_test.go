package h3

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wireclient/httpcore/wire"
)

func TestBuildRequestHeadersPseudoOrder(t *testing.T) {
	fields, err := buildRequestHeaders("GET", "https://example.com/foo?q=1", map[string][]string{
		"Accept":     {"text/plain"},
		"Connection": {"keep-alive"},
		"Upgrade":    {"h2c"},
	})
	require.NoError(t, err)

	require.Equal(t, ":method", fields[0].Name)
	require.Equal(t, "GET", fields[0].Value)
	require.Equal(t, ":scheme", fields[1].Name)
	require.Equal(t, "https", fields[1].Value)
	require.Equal(t, ":authority", fields[2].Name)
	require.Equal(t, "example.com", fields[2].Value)
	require.Equal(t, ":path", fields[3].Name)
	require.Equal(t, "/foo?q=1", fields[3].Value)

	for _, f := range fields[4:] {
		require.NotEqual(t, "connection", f.Name)
		require.NotEqual(t, "upgrade", f.Name)
	}
	require.Equal(t, "accept", fields[4].Name)
	require.Equal(t, "text/plain", fields[4].Value)
}

func TestBuildRequestHeadersDefaultAuthorityAndPath(t *testing.T) {
	fields, err := buildRequestHeaders("GET", "https:///", nil)
	require.NoError(t, err)
	require.Equal(t, "localhost", fields[2].Value)
	require.Equal(t, "/", fields[3].Value)
}

func TestDecodeResponseHeadersRequiresStatus(t *testing.T) {
	_, _, err := decodeResponseHeaders([]wire.HeaderField{{Name: "content-length", Value: "2"}})
	require.Error(t, err)

	status, headers, err := decodeResponseHeaders([]wire.HeaderField{
		{Name: ":status", Value: "200"},
		{Name: "content-length", Value: "2"},
	})
	require.NoError(t, err)
	require.Equal(t, 200, status)
	require.Equal(t, []string{"2"}, headers["content-length"])
}

func TestFrameReaderRoundTripsHeadersAndData(t *testing.T) {
	a := newAdapter()
	var buf bytes.Buffer

	fields := []wire.HeaderField{{Name: ":status", Value: "200"}, {Name: "content-length", Value: "2"}}
	require.NoError(t, a.writeH3Frame(&buf, headersFrame(fields)))
	require.NoError(t, a.writeH3Frame(&buf, dataFrame([]byte("ok"))))

	fr := newFrameReader(&buf, a)

	headers, err := fr.next()
	require.NoError(t, err)
	require.Equal(t, wire.H3FrameHeaders, headers.Type)
	status, hdrs, err := decodeResponseHeaders(headers.Headers)
	require.NoError(t, err)
	require.Equal(t, 200, status)
	require.Equal(t, []string{"2"}, hdrs["content-length"])

	data, err := fr.next()
	require.NoError(t, err)
	require.Equal(t, wire.H3FrameData, data.Type)
	require.Equal(t, []byte("ok"), data.Payload)
}

func TestFrameReaderChunksLargeDataFrame(t *testing.T) {
	a := newAdapter()
	var buf bytes.Buffer

	payload := bytes.Repeat([]byte{0x7a}, defaultReadScratch+10)
	require.NoError(t, a.writeH3Frame(&buf, dataFrame(payload)))

	fr := newFrameReader(&buf, a)

	first, err := fr.next()
	require.NoError(t, err)
	require.Len(t, first.Payload, defaultReadScratch)

	second, err := fr.next()
	require.NoError(t, err)
	require.Len(t, second.Payload, 10)

	require.Equal(t, payload, append(append([]byte{}, first.Payload...), second.Payload...))
}

func TestFrameReaderSurfacesTruncatedInput(t *testing.T) {
	a := newAdapter()
	fr := newFrameReader(bytes.NewReader(nil), a)
	_, err := fr.next()
	require.Error(t, err)
}
