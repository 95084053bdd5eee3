package h3

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBackoffDoublesUpToMax(t *testing.T) {
	b := newBackoff(10*time.Millisecond, 40*time.Millisecond)
	require.Equal(t, 10*time.Millisecond, b.cur)

	b.wait()
	require.Equal(t, 20*time.Millisecond, b.cur)

	b.wait()
	require.Equal(t, 40*time.Millisecond, b.cur)

	b.wait()
	require.Equal(t, 40*time.Millisecond, b.cur, "must not exceed max")

	b.reset()
	require.Equal(t, 10*time.Millisecond, b.cur)
}
