package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/remindbot/internal/profile"
	"github.com/hrygo/remindbot/store"
	"github.com/hrygo/remindbot/store/db"
)

var version = "dev"

var (
	v = viper.New()

	rootCmd = &cobra.Command{
		Use:   "remindbot",
		Short: "Telegram reminder bot that understands Russian time phrases",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			setupLogger(v.GetString(profile.KeyLogLevel), v.GetString(profile.KeyLogFormat))
			return nil
		},
		SilenceUsage: true,
	}
)

func init() {
	profile.SetDefaults(v)

	flags := rootCmd.PersistentFlags()
	flags.String("mode", "dev", `mode of server, can be "prod" or "dev"`)
	flags.String("data", ".", "data directory")
	flags.String("driver", "sqlite", "database driver")
	flags.String("dsn", "", "database source name")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("log-format", "text", "log format: text or json")

	for key, flag := range map[string]string{
		profile.KeyMode:      "mode",
		profile.KeyData:      "data",
		profile.KeyDriver:    "driver",
		profile.KeyDSN:       "dsn",
		profile.KeyLogLevel:  "log-level",
		profile.KeyLogFormat: "log-format",
	} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}
	profile.BindEnv(v)

	rootCmd.AddCommand(serveCmd, migrateCmd, parseCmd)
}

// setupLogger installs the default slog logger.
func setupLogger(level, format string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// loadProfile reads and validates the configuration.
func loadProfile() (*profile.Profile, error) {
	p := profile.FromViper(v)
	p.Version = version
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// openStore connects to the database and applies pending migrations.
func openStore(ctx context.Context, p *profile.Profile) (*store.Store, error) {
	dbDriver, err := db.NewDBDriver(p)
	if err != nil {
		return nil, fmt.Errorf("failed to create db driver: %w", err)
	}
	s := store.New(dbDriver, p)
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return s, nil
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the database schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := loadProfile()
		if err != nil {
			return err
		}
		s, err := openStore(cmd.Context(), p)
		if err != nil {
			return err
		}
		defer s.Close()
		slog.Info("database is up to date", "driver", p.Driver)
		return nil
	},
}

func main() {
	// A missing .env file is fine; the environment may be set already.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
