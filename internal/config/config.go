// Package config holds the engine settings shared by the REPL and the
// HTTP server.
package config

import (
	"os"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"sigs.k8s.io/yaml"
)

// Config is loaded from YAML; zero fields keep their defaults.
type Config struct {
	// DBPath is the database file.
	DBPath string `json:"db_path"`
	// BufferPoolPages caps the number of cached pages.
	BufferPoolPages int `json:"buffer_pool_pages"`
	// ChunkSize is the number of outer tuples a join buffers per inner scan.
	ChunkSize int `json:"chunk_size"`
	// ListenAddr is the address of the HTTP query endpoint.
	ListenAddr string `json:"listen_addr"`
	// LogLevel is a zap level name: debug, info, warn or error.
	LogLevel string `json:"log_level"`
}

func Default() Config {
	return Config{
		DBPath:          "my_rdbms.db",
		BufferPoolPages: 100,
		ChunkSize:       64,
		ListenAddr:      ":8080",
		LogLevel:        "info",
	}
}

// Load reads path on top of the defaults. An empty path returns Default().
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "reading config %s", path)
	}
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "parsing config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.DBPath == "" {
		return errors.New("db_path must be set")
	}
	if c.ChunkSize < 1 {
		return errors.Newf("chunk_size must be at least 1, got %d", c.ChunkSize)
	}
	// A table insert pins two pages at once.
	if c.BufferPoolPages < 2 {
		return errors.Newf("buffer_pool_pages must be at least 2, got %d", c.BufferPoolPages)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (zapcore.Level, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return lvl, errors.Wrapf(err, "log_level")
	}
	return lvl, nil
}

// NewLogger builds a console logger at the configured level.
func (c Config) NewLogger() (*zap.Logger, error) {
	lvl, err := c.Level()
	if err != nil {
		return nil, err
	}
	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.DisableStacktrace = true
	return zc.Build()
}
