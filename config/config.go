// Package config holds settings of the cellkit tooling: BoC encoding options and logging.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/tonkit/cellkit/tvm/cell"
)

// Config top level struct representing the config file.
type Config struct {
	BOC    BOC    `yaml:"BOC"`
	Logger Logger `yaml:"Logger"`
}

// BOC describes optional parts of produced bag of cells.
type BOC struct {
	WithIndex     bool `yaml:"WithIndex"`
	WithCRC32C    bool `yaml:"WithCRC32C"`
	WithCacheBits bool `yaml:"WithCacheBits"`
}

type Logger struct {
	// LogLevel is one of zap levels: debug, info, warn, error.
	LogLevel string `yaml:"LogLevel"`
	// LogEncoding is console or json.
	LogEncoding string `yaml:"LogEncoding"`
}

// Default returns config used when no file is given.
func Default() Config {
	return Config{
		BOC: BOC{
			WithCRC32C: true,
		},
		Logger: Logger{
			LogLevel:    "info",
			LogEncoding: "console",
		},
	}
}

// LoadFile reads yaml config from path, missing fields keep their defaults.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("unable to read config: %w", err)
	}

	cfg, err := Load(data)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Load parses yaml config, unknown fields are rejected.
func Load(data []byte) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Logger.LogLevel != "" {
		if _, err := zapcore.ParseLevel(c.Logger.LogLevel); err != nil {
			return fmt.Errorf("log setting: %w", err)
		}
	}

	switch c.Logger.LogEncoding {
	case "", "console", "json":
	default:
		return fmt.Errorf("log setting: unknown encoding %q", c.Logger.LogEncoding)
	}
	return nil
}

// BOCOptions converts settings to serializer options, cache bits are only written together with index.
func (c Config) BOCOptions() cell.BOCOptions {
	return cell.BOCOptions{
		WithIndex:     c.BOC.WithIndex || c.BOC.WithCacheBits,
		WithCRC32C:    c.BOC.WithCRC32C,
		WithCacheBits: c.BOC.WithCacheBits,
	}
}
