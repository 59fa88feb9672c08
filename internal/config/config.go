package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/eigerco/polkadot-util/pkg/log"
)

const (
	DefaultEndpoint       = "ws://127.0.0.1:9944"
	DefaultDuration       = 20 * time.Second
	DefaultDialTimeout    = 10 * time.Second
	DefaultRequestTimeout = 30 * time.Second
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "console"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config is the top level configuration of the polkadot-util CLI.
type Config struct {
	Node      NodeConfig      `yaml:"node"`
	Subscribe SubscribeConfig `yaml:"subscribe"`
	Store     StoreConfig     `yaml:"store"`
	Log       LogConfig       `yaml:"log"`
}

type NodeConfig struct {
	// Endpoint is a ws:// or wss:// JSON-RPC address.
	Endpoint       string        `yaml:"endpoint"`
	DialTimeout    time.Duration `yaml:"dial_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type SubscribeConfig struct {
	// Duration after which the head subscription is cancelled. Zero keeps it
	// open until interrupted.
	Duration time.Duration `yaml:"duration"`
}

type StoreConfig struct {
	// Path of the pebble directory headers are recorded into. Empty disables
	// recording.
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Node: NodeConfig{
			Endpoint:       DefaultEndpoint,
			DialTimeout:    DefaultDialTimeout,
			RequestTimeout: DefaultRequestTimeout,
		},
		Subscribe: SubscribeConfig{
			Duration: DefaultDuration,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Load reads a yaml file over the defaults and validates the result. An empty
// path yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: parse failed (%s): %v", ErrInvalidConfig, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every field, returning an error wrapping ErrInvalidConfig.
func (c Config) Validate() error {
	u, err := url.Parse(c.Node.Endpoint)
	if err != nil {
		return fmt.Errorf("%w: endpoint %q: %v", ErrInvalidConfig, c.Node.Endpoint, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("%w: endpoint %q must use ws or wss", ErrInvalidConfig, c.Node.Endpoint)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: endpoint %q has no host", ErrInvalidConfig, c.Node.Endpoint)
	}
	if c.Node.DialTimeout < 0 || c.Node.RequestTimeout < 0 {
		return fmt.Errorf("%w: timeouts must not be negative", ErrInvalidConfig)
	}
	if c.Subscribe.Duration < 0 {
		return fmt.Errorf("%w: subscribe duration %s is negative", ErrInvalidConfig, c.Subscribe.Duration)
	}
	if _, err := c.Log.Options(); err != nil {
		return err
	}
	return nil
}

// Options converts the log section into logger options.
func (l LogConfig) Options() (log.Options, error) {
	level, err := log.ParseLogLevel(l.Level)
	if err != nil {
		return log.Options{}, fmt.Errorf("%w: log level: %v", ErrInvalidConfig, err)
	}
	// zerolog parses "" as NoLevel, which would log everything.
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	typ, err := log.ParseLoggerType(l.Format)
	if err != nil {
		return log.Options{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return log.Options{LogLevel: level, Type: typ}, nil
}
