// Package config loads the drive configuration from a yaml file with
// environment overrides, gated by a schema version constraint.
package config

import (
	"fmt"
	"io/ioutil"
	"time"

	"github.com/Masterminds/semver"
	"github.com/caarlos0/env/v6"
	"gopkg.in/yaml.v2"

	"github.com/oakmoor/akdrive/canbus"
	"github.com/oakmoor/akdrive/motor"
)

// SCHEMA_VERSION constrains the config files this build understands.
const SCHEMA_VERSION = "~1.0.0"

// Duration wraps time.Duration so yaml and env values can be written
// as "100ms" / "1s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

type BusConfig struct {
	Driver  string `yaml:"driver" env:"AKDRIVE_BUS_DRIVER"`
	Channel string `yaml:"channel" env:"AKDRIVE_BUS_CHANNEL"`
	Bitrate int    `yaml:"bitrate" env:"AKDRIVE_BUS_BITRATE"`
}

type Config struct {
	Version string    `yaml:"version"`
	Bus     BusConfig `yaml:"bus"`

	// StreamInterval is the continuous-send period. Values below the
	// scheduler floor are raised, not rejected.
	StreamInterval Duration `yaml:"stream_interval" env:"AKDRIVE_STREAM_INTERVAL"`

	// RecvTimeout bounds each telemetry receive.
	RecvTimeout Duration `yaml:"recv_timeout" env:"AKDRIVE_RECV_TIMEOUT"`

	// Listen is the status API address.
	Listen string `yaml:"listen" env:"AKDRIVE_LISTEN"`

	Debug bool `yaml:"debug" env:"DEBUG"`
}

// Default matches the values the original operator tool shipped with:
// a 1 Mbit slcan adapter on the platform's usual port, 10 Hz stream.
func Default() Config {
	return Config{
		Version: "1.0.0",
		Bus: BusConfig{
			Driver:  canbus.DefaultDriver(),
			Channel: canbus.DefaultPort(),
			Bitrate: 1000000,
		},
		StreamInterval: Duration(100 * time.Millisecond),
		RecvTimeout:    Duration(motor.RECV_TIMEOUT),
		Listen:         "0.0.0.0:8080",
	}
}

// Load reads the yaml file at path (skipped when empty), applies
// environment overrides on top, and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := ioutil.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err = yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("config: unable to unmarshal yaml: %v", err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate gates the schema version the same way node firmware is
// gated: a semver constraint, with "DEV" allowed through for local
// experiments. Timing fields are clamped, never fatal.
func (c *Config) Validate() error {
	if c.Version != "DEV" {
		v, err := semver.NewVersion(c.Version)
		if err != nil {
			return fmt.Errorf("config: bad version %q: %v", c.Version, err)
		}
		constraint, err := semver.NewConstraint(SCHEMA_VERSION)
		if err != nil {
			return err
		}
		if !constraint.Check(v) {
			return fmt.Errorf("config: version %s does not satisfy %s", c.Version, SCHEMA_VERSION)
		}
	}

	switch c.Bus.Driver {
	case "slcan", "socketcan", "loopback":
	default:
		return fmt.Errorf("config: unknown bus driver %q", c.Bus.Driver)
	}

	if c.StreamInterval.Std() < motor.MIN_SEND_INTERVAL {
		c.StreamInterval = Duration(motor.MIN_SEND_INTERVAL)
	}
	if c.RecvTimeout.Std() <= 0 {
		c.RecvTimeout = Duration(motor.RECV_TIMEOUT)
	}
	return nil
}
