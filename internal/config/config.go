// Package config holds the settings shared by the command line tool and the
// server: which area strategy to run, the default threshold, the clipper scale
// and the logging and listener options.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/sightline/internal/core/clipper"
	"github.com/zeusync/sightline/internal/core/observability/log"
	"github.com/zeusync/sightline/internal/core/shadow"
	"github.com/zeusync/sightline/internal/core/visibility"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Strategy      string            `json:"strategy" yaml:"strategy"`
	PercentArea   float64           `json:"percent_area" yaml:"percent_area"`
	ScalingFactor float64           `json:"scaling_factor" yaml:"scaling_factor"`
	MaxThrow      float64           `json:"max_throw" yaml:"max_throw"`
	ShadowCache   ShadowCacheConfig `json:"shadow_cache" yaml:"shadow_cache"`
	Bodies        BodiesConfig      `json:"bodies" yaml:"bodies"`
	Workers       int               `json:"workers" yaml:"workers"`
	Log           LogConfig         `json:"log" yaml:"log"`
	Server        ServerConfig      `json:"server" yaml:"server"`
}

type ShadowCacheConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
	Size    int  `json:"size" yaml:"size"`
}

type BodiesConfig struct {
	LiveBlock      bool `json:"live_block" yaml:"live_block"`
	DeadBlock      bool `json:"dead_block" yaml:"dead_block"`
	DeadHalfHeight bool `json:"dead_half_height" yaml:"dead_half_height"`
}

type LogConfig struct {
	Level string `json:"level" yaml:"level"`
}

// ServerConfig configures the HTTP listener. Timeouts accept Go duration
// strings ("15s") in YAML and nanoseconds in JSON.
type ServerConfig struct {
	Host            string        `json:"host" yaml:"host"`
	Port            int           `json:"port" yaml:"port"`
	ReadTimeout     time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `json:"max_body_bytes" yaml:"max_body_bytes"`
	Token           string        `json:"token,omitempty" yaml:"token,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Strategy:      string(visibility.TwoDimensionalKind),
		PercentArea:   0,
		ScalingFactor: clipper.DefaultScale,
		MaxThrow:      shadow.DefaultMaxThrow,
		ShadowCache: ShadowCacheConfig{
			Enabled: false,
			Size:    shadow.DefaultCacheSize,
		},
		Bodies: BodiesConfig{
			LiveBlock:      false,
			DeadBlock:      false,
			DeadHalfHeight: true,
		},
		Workers: 0,
		Log:     LogConfig{Level: log.LevelInfo.String()},
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxBodyBytes:    4 << 20,
		},
	}
}

// Validate reports every problem with c, joined.
func (c Config) Validate() error {
	var errs []error
	if _, err := visibility.ParseStrategyKind(c.Strategy); err != nil {
		errs = append(errs, err)
	}
	if math.IsNaN(c.PercentArea) || c.PercentArea < 0 || c.PercentArea > 1 {
		errs = append(errs, fmt.Errorf("percent_area %v outside [0, 1]", c.PercentArea))
	}
	if !(c.ScalingFactor > 0) || math.IsInf(c.ScalingFactor, 0) {
		errs = append(errs, fmt.Errorf("scaling_factor must be positive, got %v", c.ScalingFactor))
	}
	if !(c.MaxThrow > 0) || math.IsInf(c.MaxThrow, 0) {
		errs = append(errs, fmt.Errorf("max_throw must be positive, got %v", c.MaxThrow))
	}
	if c.ShadowCache.Enabled && c.ShadowCache.Size <= 0 {
		errs = append(errs, fmt.Errorf("shadow_cache.size must be positive, got %d", c.ShadowCache.Size))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Server.Port < 0 || c.Server.Port > math.MaxUint16 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 || c.Server.ShutdownTimeout < 0 {
		errs = append(errs, errors.New("server timeouts must not be negative"))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("server.max_body_bytes must be positive, got %d", c.Server.MaxBodyBytes))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// StrategyKind returns the parsed strategy, or ErrUnknownStrategy.
func (c Config) StrategyKind() (visibility.StrategyKind, error) {
	return visibility.ParseStrategyKind(c.Strategy)
}

// LogLevel returns the parsed log level, Info when it does not parse.
func (c Config) LogLevel() log.Level {
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.LevelInfo
	}
	return level
}

// Policy is the default policy for checks that set no threshold of their own.
func (c Config) Policy() visibility.Policy {
	return visibility.Policy{
		PercentArea:     c.PercentArea,
		LiveBodiesBlock: c.Bodies.LiveBlock,
		DeadBodiesBlock: c.Bodies.DeadBlock,
		DeadHalfHeight:  c.Bodies.DeadHalfHeight,
	}
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoadJSON reads a configuration from r on top of Default.
func LoadJSON(r io.Reader) (*Config, error) {
	c := Default()
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadYAML reads a configuration from r on top of Default. An empty document
// yields the defaults.
func LoadYAML(r io.Reader) (*Config, error) {
	c := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Load reads path as JSON when it has a .json extension and as YAML otherwise.
// An empty path returns the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		c := Default()
		return &c, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return LoadJSON(f)
	}
	return LoadYAML(f)
}
