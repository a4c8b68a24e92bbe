// SPDX-FileCopyrightText: 2026 The goquic Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package quicclient

import (
	"crypto/tls"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/dtn7/goquic/congestion"
	"github.com/dtn7/goquic/internal/happyeyeballs"
	"github.com/dtn7/goquic/psk"
	"github.com/dtn7/goquic/qlog"
)

// transportParamCustomThreshold is the lowest transport-parameter
// identifier a caller may register as a custom parameter; everything
// below it is reserved for the IANA-registered parameter space.
const transportParamCustomThreshold = 0x3fd0

// CustomTransportParameter is a caller-supplied transport parameter with
// an identifier at or above transportParamCustomThreshold.
type CustomTransportParameter struct {
	Identifier uint64
	Value      []byte
}

// Config configures a Dial: idle/handshake timeouts, the happy-eyeballs
// delay, the locally-advertised transport parameters, and the optional
// collaborators (congestion controller, PSK cache, qlog emitter) the
// connection drives. IdleTimeout is stored but no idle timer is armed from
// it: the connection never closes for being idle.
type Config struct {
	TLSConfig *tls.Config

	IdleTimeout       time.Duration
	HandshakeTimeout  time.Duration
	HappyEyeballsDelay time.Duration

	InitialMaxData        uint64
	InitialMaxStreamData  [3]uint64 // bidi-local, bidi-remote, uni
	InitialMaxStreamsBidi uint64
	InitialMaxStreamsUni  uint64

	CustomTransportParameters []CustomTransportParameter

	NewController func() congestion.Controller
	PSKCache      psk.Cache
	QLogEmitter   qlog.Emitter

	// OnConnectionEnd is invoked exactly once when the connection reaches
	// its terminal state, whether from a local Close/CloseNow, a peer
	// CONNECTION_CLOSE, or a fatal transport error - distinct from the
	// error (if any) Dial returns, which only ever reports a failure to
	// establish the connection in the first place.
	OnConnectionEnd func(error)
}

// DialConfig is the TOML-decodable counterpart of Config, for CLI-style
// callers that read their settings from a configuration.toml file
// (github.com/BurntSushi/toml).
type DialConfig struct {
	ServerName         string        `toml:"server_name"`
	IdleTimeout        time.Duration `toml:"idle_timeout"`
	HandshakeTimeout   time.Duration `toml:"handshake_timeout"`
	HappyEyeballsDelay time.Duration `toml:"happy_eyeballs_delay"`
	InsecureSkipVerify bool          `toml:"insecure_skip_verify"`
}

// LoadDialConfig decodes a DialConfig from a TOML file.
func LoadDialConfig(path string) (DialConfig, error) {
	var c DialConfig
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return DialConfig{}, fmt.Errorf("quicclient: loading dial config: %w", err)
	}
	return c, nil
}

// TLSConfig builds a *tls.Config from the decoded DialConfig.
func (c DialConfig) TLSConfig() *tls.Config {
	return &tls.Config{
		ServerName:         c.ServerName,
		InsecureSkipVerify: c.InsecureSkipVerify,
		NextProtos:         []string{"goquic"},
		MinVersion:         tls.VersionTLS13,
	}
}

func defaultConfig() Config {
	return Config{
		IdleTimeout:        30 * time.Second,
		HandshakeTimeout:   10 * time.Second,
		HappyEyeballsDelay: happyeyeballs.DefaultDelay,

		InitialMaxData:        1 << 20,
		InitialMaxStreamData:  [3]uint64{1 << 16, 1 << 16, 1 << 16},
		InitialMaxStreamsBidi: 100,
		InitialMaxStreamsUni:  100,
	}
}

// validateCustomTransportParameters rejects identifiers below the custom
// threshold and duplicate identifiers, by design: both checks run
// before start, synchronously, so Dial fails fast rather than racing.
func validateCustomTransportParameters(params []CustomTransportParameter) error {
	seen := make(map[uint64]bool, len(params))
	for _, p := range params {
		if p.Identifier < transportParamCustomThreshold {
			return fmt.Errorf("quicclient: custom transport parameter %#x is below the custom threshold %#x", p.Identifier, uint64(transportParamCustomThreshold))
		}
		if seen[p.Identifier] {
			return fmt.Errorf("quicclient: duplicate custom transport parameter identifier %#x", p.Identifier)
		}
		seen[p.Identifier] = true
	}
	return nil
}
