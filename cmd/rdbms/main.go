package main

import (
	"fmt"
	"os"

	"github.com/benkivuva/chunkdb/internal/config"
	"github.com/benkivuva/chunkdb/internal/engine"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// options holds the flag values. Flags that were set replace the
// settings of the config file.
type options struct {
	configPath string
	overrides  config.Config
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{overrides: config.Default()}
	overrides := &opts.overrides
	root := &cobra.Command{
		Use:           "rdbms",
		Short:         "A small relational engine with chunk nested loop joins",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withEngine(cmd.Flags(), runREPL)
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "YAML config file")
	flags.StringVar(&overrides.DBPath, "db", overrides.DBPath, "database file")
	flags.IntVar(&overrides.ChunkSize, "chunk-size", overrides.ChunkSize, "outer tuples buffered per inner scan")
	flags.IntVar(&overrides.BufferPoolPages, "buffer-pages", overrides.BufferPoolPages, "buffer pool capacity in pages")
	flags.StringVar(&overrides.LogLevel, "log-level", overrides.LogLevel, "debug, info, warn or error")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve queries over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withEngine(cmd.Flags(), startServer)
		},
	}
	serve.Flags().StringVar(&overrides.ListenAddr, "addr", overrides.ListenAddr, "listen address")

	root.AddCommand(serve)
	return root
}

// loadConfig reads the config file and applies the flags that were set.
func (o *options) loadConfig(flags *pflag.FlagSet) (config.Config, error) {
	overrides := &o.overrides
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return cfg, err
	}
	flags.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "db":
			cfg.DBPath = overrides.DBPath
		case "chunk-size":
			cfg.ChunkSize = overrides.ChunkSize
		case "buffer-pages":
			cfg.BufferPoolPages = overrides.BufferPoolPages
		case "log-level":
			cfg.LogLevel = overrides.LogLevel
		case "addr":
			cfg.ListenAddr = overrides.ListenAddr
		}
	})
	return cfg, cfg.Validate()
}

func (o *options) withEngine(flags *pflag.FlagSet, run func(*engine.Engine, config.Config) error) error {
	cfg, err := o.loadConfig(flags)
	if err != nil {
		return err
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	defer zap.ReplaceGlobals(logger)()

	e, err := engine.Open(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := e.Close(); err != nil {
			zap.L().Error("closing engine", zap.Error(err))
		}
	}()
	return run(e, cfg)
}
