package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	// SourceGlob matches source file basenames during discovery.
	SourceGlob string `toml:"source_glob"`
	// BoxFile matches box document basenames during discovery.
	BoxFile string `toml:"box_file"`
	// BuiltinsFile optionally replaces the embedded built-in constant
	// deny list with a newline-separated file.
	BuiltinsFile string  `toml:"builtins_file"`
	Exclude      Exclude `toml:"exclude"`
	Watch        Watch   `toml:"watch"`
	Metrics      Metrics `toml:"metrics"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
}

type Metrics struct {
	Addr string `toml:"addr"`
}

func Default() Config {
	return Config{
		SourceGlob: "*.rb",
		BoxFile:    "box.yml",
		Exclude: Exclude{
			Dirs: []string{".git", "node_modules", "vendor", "tmp"},
		},
		Watch: Watch{Debounce: 500 * time.Millisecond},
	}
}

// Load reads path and overlays it on the defaults. A missing file at the
// default location is not an error; an explicitly requested file must exist.
func Load(path string, explicit bool) (Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if explicit {
			return cfg, fmt.Errorf("config file not found: %s", path)
		}
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("loading config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.SourceGlob == "" {
		return fmt.Errorf("source_glob must not be empty")
	}
	if c.BoxFile == "" {
		return fmt.Errorf("box_file must not be empty")
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	return nil
}
