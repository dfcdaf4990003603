package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"dirawatch/config"
	"dirawatch/internal/database"
)

var (
	cfg    *config.Config
	logger *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "dirawatch",
	Short: "Real-estate listing ingestion pipeline",
	Long:  "Deduplicates scraped apartment listings across sources, filters and scores them, tracks price history and alerts on good deals.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c

		l, err := newLogger(cfg.Log.Level)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(ingestCmd, statsCmd, serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newLogger logs JSON to stderr so stdout stays free for command output
func newLogger(level string) (*logrus.Logger, error) {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetOutput(os.Stderr)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	l.SetLevel(lvl)
	return l, nil
}

// openDatabase connects and migrates the configured database
func openDatabase() (*gorm.DB, error) {
	db, err := database.Open(cfg.Database.Driver, cfg.Database.URL, logger)
	if err != nil {
		return nil, err
	}
	if err := database.MigrateSchema(db); err != nil {
		return nil, err
	}
	return db, nil
}
