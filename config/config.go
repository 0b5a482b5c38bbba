// Package config loads cozo's process-level configuration the way erigon
// loads chain configuration: defaults are set in code, then overridden by an
// optional TOML file, then by command-line flags bound in cmd/cozo — each
// layer only ever overwriting fields the layer above actually set.
package config

import (
	"os"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/chiefnoah/cozo/internal/xerrors"
)

// Config is every knob the `cozo` binary needs. DataPath is the directory
// under which the two physical KV stores live (spec.md §6: "two child
// directories under the configured data path, `triple/` and `rel/`").
type Config struct {
	DataPath string `toml:"data_path"`

	// Debug selects zap.NewDevelopment over zap.NewProduction (SPEC_FULL.md
	// §1's ambient logging stack).
	Debug bool `toml:"debug"`

	// DefaultTimeoutSeconds seeds a query's poison timeout when the script
	// request omits its own `timeout` option; 0 means no default timeout.
	DefaultTimeoutSeconds int `toml:"default_timeout_seconds"`

	// ProgramCacheSize bounds runtime.ProgramCache's LRU capacity.
	ProgramCacheSize int `toml:"program_cache_size"`

	// CheckEvery overrides datalog/eval.Env.CheckEvery (tuples produced
	// between cancellation checks); 0 keeps the evaluator's own default.
	CheckEvery int `toml:"check_every"`

	// ListenAddr is the `cozo serve` bind address.
	ListenAddr string `toml:"listen_addr"`
}

// Default returns the in-code baseline every layer above starts from.
func Default() Config {
	return Config{
		DataPath:              "./cozo-data",
		Debug:                 false,
		DefaultTimeoutSeconds: 0,
		ProgramCacheSize:      128,
		CheckEvery:            0,
		ListenAddr:            "127.0.0.1:9070",
	}
}

// Load reads a TOML file at path and overlays it onto base. A missing file
// is not an error — it degenerates to returning base unchanged, since the
// file layer is optional by design.
func Load(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return base, nil
		}
		return base, xerrors.Wrap(xerrors.KindStorage, err, "config: read %q", path)
	}
	cfg := base
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return base, xerrors.Wrap(xerrors.KindParse, err, "config: parse %q", path)
	}
	return cfg, nil
}
