// ABOUTME: Root Cobra command and global flags
// ABOUTME: Loads config, sets up logging and opens the configured store

package main

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/harper/beacon/internal/config"
	"github.com/harper/beacon/internal/kv"
	"github.com/harper/beacon/internal/logging"
	"github.com/harper/beacon/internal/shortlink"
	"github.com/harper/beacon/internal/storage"
	"github.com/harper/beacon/internal/tracker"
	"github.com/spf13/cobra"
)

var (
	cfg      *config.Config
	store    kv.Store
	logger   *log.Logger
	sessions *storage.SessionStore
	history  *storage.HistoryStore
	links    *shortlink.Directory
)

var (
	flagLogLevel string
	flagJSONLogs bool
	flagBackend  string
)

var rootCmd = &cobra.Command{
	Use:   "beacon",
	Short: "Live location sharing from the terminal",
	Long: `
██████╗ ███████╗ █████╗  ██████╗ ██████╗ ███╗   ██╗
██╔══██╗██╔════╝██╔══██╗██╔════╝██╔═══██╗████╗  ██║
██████╔╝█████╗  ███████║██║     ██║   ██║██╔██╗ ██║
██╔══██╗██╔══╝  ██╔══██║██║     ██║   ██║██║╚██╗██║
██████╔╝███████╗██║  ██║╚██████╗╚██████╔╝██║ ╚████║
╚═════╝ ╚══════╝╚═╝  ╚═╝ ╚═════╝ ╚═════╝ ╚═╝  ╚═══╝

      Record a trip and share it with a short link

Examples:
  gpspipe -w | my-filter | beacon start commute
  beacon start --lat 41.8781 --lng -87.6298 --interval 30s
  beacon track --session k3j2h9x 41.8781 -87.6298
  beacon link list
  beacon serve`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(); err != nil {
			return err
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if flagBackend != "" {
			cfg.Backend = flagBackend
		}

		level := cfg.GetLogLevel()
		if flagLogLevel != "" {
			level = flagLogLevel
		}
		logger, err = logging.Setup(logging.Options{Level: level, JSON: flagJSONLogs})
		if err != nil {
			return err
		}

		s, err := cfg.OpenStore()
		if err != nil {
			return fmt.Errorf("failed to open %s store: %w", cfg.GetBackend(), err)
		}
		useStore(s)
		logger.Debug("store opened", "backend", cfg.GetBackend(), "data_dir", cfg.GetDataDir())
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if store != nil {
			err := store.Close()
			store = nil
			return err
		}
		return nil
	},
}

// useStore points every package-level store at s.
func useStore(s kv.Store) {
	store = s
	sessions = storage.NewSessionStore(s, logger)
	history = storage.NewHistoryStore(s, logger)
	links = shortlink.New(s, shortlink.WithLogger(logger))
}

func baseURL() string {
	if cfg == nil {
		return config.DefaultBaseURL
	}
	return cfg.GetBaseURL()
}

func trackerDeps(provider tracker.Provider) tracker.Deps {
	return tracker.Deps{
		Sessions: sessions,
		History:  history,
		Links:    links,
		Provider: provider,
		BaseURL:  baseURL(),
		Logger:   logger,
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&flagJSONLogs, "json-logs", false, "write logs as JSON")
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "", "override the configured store (badger, sqlite, charm, memory)")
}
