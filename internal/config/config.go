// Package config holds the engine's recognized configuration knobs,
// loadable from a YAML file via gopkg.in/yaml.v3.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the set of engine-wide knobs recognized at startup. None are
// required; a zero Config behaves the same as Default().
type Config struct {
	// MaxVarLengthDepth caps an unbounded `*` variable-length expansion
	// (default 15).
	MaxVarLengthDepth int `yaml:"max_var_length_depth"`

	// QueryTimeout is the cooperative cancellation deadline applied to a
	// single Execute/Mutate call when non-zero. The facade derives a
	// context.WithTimeout from it; it never preempts a running operator
	// mid-step, only the next suspension point.
	QueryTimeout time.Duration `yaml:"query_timeout"`

	// ReturnColumnOrder is always "insertion" — documented but immutable.
	// Kept as a field (rather than omitted) so a loaded YAML file that
	// sets it to anything else fails loudly in Validate instead of being
	// silently ignored.
	ReturnColumnOrder string `yaml:"return_column_order"`
}

// Default returns the engine's documented defaults.
func Default() Config {
	return Config{
		MaxVarLengthDepth: 15,
		QueryTimeout:      0,
		ReturnColumnOrder: "insertion",
	}
}

// Load reads and validates a YAML config file, applying Default() for any
// field the file doesn't set.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects a Config that violates one of the engine's fixed knobs.
func (c Config) Validate() error {
	if c.MaxVarLengthDepth <= 0 {
		return &InvalidConfigError{Field: "max_var_length_depth", Message: "must be positive"}
	}
	if c.ReturnColumnOrder != "insertion" {
		return &InvalidConfigError{Field: "return_column_order", Message: "is immutable; must be \"insertion\""}
	}
	return nil
}

// InvalidConfigError reports a rejected configuration field.
type InvalidConfigError struct {
	Field   string
	Message string
}

func (e *InvalidConfigError) Error() string { return e.Field + ": " + e.Message }
