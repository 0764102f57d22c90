package config

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/google/uuid"
)

//go:embed schema.cue
var schemaCUE string

// Config holds a node's identity and clock tuning knobs.
type Config struct {
	// NodeID is the node's UUID, or empty to generate one at startup.
	NodeID string `json:"node_id,omitempty"`

	// MaxSkew is the skew rejection window in nanoseconds.
	MaxSkew int64 `json:"max_skew_ns"`

	// MaxVectorSize is the vector clock capacity threshold.
	MaxVectorSize int `json:"max_vector_size"`

	// PruneRatio is the fraction of capacity evicted per pruning pass.
	PruneRatio float64 `json:"prune_ratio"`

	// DB is the optional SQLite snapshot path.
	DB string `json:"db,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level"`
}

// Default returns the documented knob defaults.
func Default() Config {
	return Config{
		MaxSkew:       5_000_000_000,
		MaxVectorSize: 25,
		PruneRatio:    0.2,
		LogLevel:      "info",
	}
}

// Load reads a CUE config file, unifies it with the embedded schema,
// and decodes the result. Schema violations surface as CUE validation
// errors with file positions.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, fmt.Errorf("compile config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))
	if !def.Exists() {
		return Config{}, fmt.Errorf("compile config schema: #Config not found")
	}

	val := ctx.CompileBytes(data, cue.Filename(path))
	if err := val.Err(); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}

	unified := def.Unify(val)
	if err := unified.Validate(cue.Final(), cue.Concrete(true)); err != nil {
		return Config{}, fmt.Errorf("validate %s: %w", path, err)
	}

	cfg := Config{}
	if err := unified.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode %s: %w", path, err)
	}

	if cfg.NodeID != "" {
		if _, err := uuid.Parse(cfg.NodeID); err != nil {
			return Config{}, fmt.Errorf("validate %s: node_id: %w", path, err)
		}
	}
	return cfg, nil
}

// SlogLevel maps LogLevel onto a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
