package h3

import (
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// TimeoutConfig holds the connect/request/idle/keep-alive knobs named in
// spec §3's "H3 Connection State". Zero values mean "no timeout".
type TimeoutConfig struct {
	Connect   time.Duration `yaml:"connect"`
	Request   time.Duration `yaml:"request"`
	Idle      time.Duration `yaml:"idle"`
	KeepAlive time.Duration `yaml:"keep_alive,omitempty"`
}

// LoadTimeoutConfig reads a YAML document into a TimeoutConfig, the
// corpus's usual way of treating a small operational knob set as a
// YAML-tagged struct.
func LoadTimeoutConfig(r io.Reader) (TimeoutConfig, error) {
	var cfg TimeoutConfig
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&cfg); err != nil {
		return TimeoutConfig{}, wrapErr(KindConfiguration, "decoding timeout config", err)
	}
	return cfg, nil
}
