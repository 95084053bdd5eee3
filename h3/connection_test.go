package h3

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewSafeNilConnectionYieldsPlaceholder(t *testing.T) {
	c := NewSafe(nil, TimeoutConfig{})
	require.True(t, c.IsError())
	require.True(t, c.IsClosed())
}

func TestErrorMarkedConnectionEmitsSingleErrorChunk(t *testing.T) {
	c := NewSafe(nil, TimeoutConfig{})

	resp, err := c.SendRequest(context.Background(), "GET", "https://example.com/", nil, nil, 0)
	require.NoError(t, err)

	chunk, ok := <-resp.Body
	require.True(t, ok)
	require.Equal(t, ChunkError, chunk.Kind)

	_, ok = <-resp.Body
	require.False(t, ok, "channel must be closed after the single error chunk")
}

func TestErrorMarkedConnectionCloseIsNoop(t *testing.T) {
	c := NewSafe(nil, TimeoutConfig{})
	require.NoError(t, c.Close())
}
