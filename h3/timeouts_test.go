package h3

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadTimeoutConfig(t *testing.T) {
	doc := `
connect: 2s
request: 5s
idle: 30s
keep_alive: 10s
`
	cfg, err := LoadTimeoutConfig(strings.NewReader(doc))
	require.NoError(t, err)
	require.Equal(t, 2*time.Second, cfg.Connect)
	require.Equal(t, 5*time.Second, cfg.Request)
	require.Equal(t, 30*time.Second, cfg.Idle)
	require.Equal(t, 10*time.Second, cfg.KeepAlive)
}

func TestLoadTimeoutConfigMalformed(t *testing.T) {
	_, err := LoadTimeoutConfig(strings.NewReader("connect: [not-a-duration"))
	require.Error(t, err)
	var herr *Error
	require.ErrorAs(t, err, &herr)
	require.Equal(t, KindConfiguration, herr.Kind)
}
