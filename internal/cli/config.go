package cli

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/tracevec/tracevec/pkg/vectorize"
)

// Config holds defaults loaded from the optional config file. Command-line
// flags override anything set here.
type Config struct {
	// Vectorize seeds the vectorization options for the vectorize command
	// and the serve endpoint.
	Vectorize vectorize.Options `toml:"vectorize"`

	// Serve configures the HTTP server.
	Serve ServeConfig `toml:"serve"`
}

// ServeConfig holds HTTP server settings.
type ServeConfig struct {
	// Addr is the listen address (host:port).
	Addr string `toml:"addr"`

	// MaxBodyBytes caps the size of an uploaded image.
	MaxBodyBytes int64 `toml:"max_body_bytes"`
}

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() Config {
	return Config{
		Vectorize: vectorize.DefaultOptions(),
		Serve: ServeConfig{
			Addr:         ":8080",
			MaxBodyBytes: 32 << 20,
		},
	}
}

// LoadConfig reads a TOML config file on top of the defaults. A missing
// file is not an error; unknown keys are.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	meta, err := toml.DecodeFile(path, &cfg)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return cfg, fmt.Errorf("load config %s: unknown key %q", path, undecoded[0].String())
	}
	return cfg, nil
}
