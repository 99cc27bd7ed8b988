package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danielhkuo/anonvote/cliparse"
	"github.com/danielhkuo/anonvote/recompute"
	"github.com/danielhkuo/anonvote/store"
)

var rootCmd = &cobra.Command{
	Use:           "anonvote",
	Short:         "Anonymous voter credentials and auditable tallies",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// flags is shared by every subcommand through the root's persistent flags.
var flags = cliparse.Bind(rootCmd.PersistentFlags())

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// loadConfig resolves the configuration and installs the default logger.
func loadConfig(requireSecret bool) (cliparse.Config, error) {
	var cfg cliparse.Config
	var err error
	if requireSecret {
		cfg, err = flags.Load()
	} else {
		cfg, err = flags.LoadPartial()
	}
	if err != nil {
		return cliparse.Config{}, err
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	})))
	return cfg, nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func openStore(cfg cliparse.Config) (*store.SQLStore, error) {
	st, err := store.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	slog.Info("database schema ready", "type", cfg.DatabaseType)
	return st, nil
}

func newEngine(cfg cliparse.Config, creds store.CredentialStore, st store.Store) *recompute.Engine {
	return &recompute.Engine{
		Credentials:  creds,
		Submissions:  st,
		Results:      st,
		MasterSecret: cfg.MasterSecret,
		Options: recompute.Options{
			MaxRank:         cfg.MaxRank,
			Race1Candidates: cfg.Race1Candidates,
			Race2Candidates: cfg.Race2Candidates,
			Locale:          cfg.Locale,
			CutoffFraction:  cfg.CutoffFraction,
		},
		Logger: slog.Default(),
	}
}
