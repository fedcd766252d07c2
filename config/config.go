// Package config loads and saves the operator-facing parameters used to
// construct a kt.Engine or tt.Engine: dial target, key/value
// representation, codec choice, timeout, and pooling mode. It is setup
// state read once at startup, not the protocol/session state spec.md
// §6 says the client never persists.
package config

import (
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/google/renameio"
	"github.com/spiral/errors"

	"github.com/coleifer/go-kt/internal/wireerr"
)

// Config holds the construction parameters for one engine endpoint.
type Config struct {
	// Host and Port are the TCP dial target. Default 127.0.0.1:1978.
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// Codec names a registered codec.ValueCodec (codec.NameText and
	// friends). Default sets "text", and Load keeps that when the file
	// omits the field; an empty name matches no registered codec.
	Codec string `yaml:"codec,omitempty"`

	// DecodeKeys controls whether returned keys are text or raw bytes.
	DecodeKeys bool `yaml:"decode_keys"`

	// Timeout is the per-socket receive timeout. Zero disables it.
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// ConnectionPool enables the shared free-list pool (C4). When
	// false, each caller gets one persistent socket.
	ConnectionPool bool `yaml:"connection_pool"`

	// DefaultDB is the KT database index used when a call omits one.
	// Ignored by the TT engine.
	DefaultDB uint16 `yaml:"default_db,omitempty"`
}

// Default returns a Config with the engines' own defaults.
func Default() *Config {
	return &Config{
		Host:           "127.0.0.1",
		Port:           1978,
		Codec:          "text",
		DecodeKeys:     true,
		ConnectionPool: true,
	}
}

// Load reads and unmarshals a Config from a YAML file at path. A missing
// file is not an error: Load returns Default().
func Load(path string) (*Config, error) {
	const op = errors.Op("config.Load")

	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, wireerr.Transportf(op, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, wireerr.Protocolf(op, err)
	}
	return cfg, nil
}

// Save marshals cfg to YAML and writes it atomically to path, so a
// concurrent Load never observes a partially written file.
func Save(path string, cfg *Config) error {
	const op = errors.Op("config.Save")

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return wireerr.Protocolf(op, err)
	}
	if err := renameio.WriteFile(path, data, 0o600); err != nil {
		return wireerr.Transportf(op, err)
	}
	return nil
}
