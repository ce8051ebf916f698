package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/agentic-research/fsmap/internal/catalog"
	"github.com/agentic-research/fsmap/internal/config"
	"github.com/agentic-research/fsmap/internal/walk"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var version = "dev"

var (
	configPath  string
	logLevel    string
	noExtract   bool
	noHardLinks bool
	catalogPath string
	digest      bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (.hcl, .json, .yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Diagnostic level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noExtract, "no-extract", false, "Map the hierarchy without extracting file metadata")
	rootCmd.PersistentFlags().BoolVar(&noHardLinks, "no-hardlinks", false, "Emit every name of a multiply linked file as a file")
	rootCmd.Flags().StringVar(&catalogPath, "catalog", "", "Record visited nodes in this SQLite database")
	rootCmd.Flags().BoolVar(&digest, "digest", false, "Store content digests in the catalog")
}

var rootCmd = &cobra.Command{
	Use:          "fsmap <path>",
	Short:        "Display a file hierarchy in FSML",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if digest && catalogPath == "" {
			return errors.New("--digest needs --catalog")
		}
		cfg, err := setup(cmd)
		if err != nil {
			return err
		}

		fs := walk.NewHostFS()
		tc, err := newToolchain(cfg, log.StandardLogger(), fs, !noExtract)
		if err != nil {
			return err
		}
		defer func() {
			if err := tc.Close(); err != nil {
				log.Warnf("%v", err)
			}
		}()

		ctx, stop := signal.NotifyContext(cmd.Context(), shutdownSignals...)
		defer stop()

		opts := []walk.Option{walk.WithFS(fs), walk.WithHardLinks(!noHardLinks)}
		if catalogPath != "" {
			cat, err := catalog.Open(catalogPath, catalog.WithDigest(digest), catalog.WithFS(fs))
			if err != nil {
				return err
			}
			defer func() {
				if err := cat.Close(); err != nil {
					log.Warnf("(catalog): %v", err)
				}
			}()
			root, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			id, err := cat.Begin(root)
			if err != nil {
				return err
			}
			log.Debugf("catalog run %s", id)
			opts = append(opts, walk.WithSink(cat))
		}

		out := bufio.NewWriter(cmd.OutOrStdout())
		err = walk.NewEngine(tc.reg, opts...).Produce(ctx, args[0], out)
		if ferr := out.Flush(); err == nil && ferr != nil {
			err = fmt.Errorf("write document: %w", ferr)
		}
		return err
	},
}

// setup loads the configuration and applies it to the standard logger.
// An explicit --config must exist; the default path is optional.
func setup(cmd *cobra.Command) (*config.Config, error) {
	path := configPath
	if path == "" {
		if p, err := config.DefaultPath(); err == nil {
			if _, err := os.Stat(p); err == nil {
				path = p
			}
		}
	}

	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = logLevel
	}

	level := log.InfoLevel
	if cfg.LogLevel != "" {
		var err error
		if level, err = log.ParseLevel(cfg.LogLevel); err != nil {
			return nil, err
		}
	}
	log.SetOutput(cmd.ErrOrStderr())
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
	if path != "" {
		log.Debugf("loaded config from %s", path)
	}
	return cfg, nil
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
