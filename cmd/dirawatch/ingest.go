package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"dirawatch/internal/database"
	"dirawatch/internal/ingest"
	"dirawatch/internal/notify"
	"dirawatch/internal/processor"
)

var (
	ingestSource   string
	ingestFile     string
	ingestExec     string
	ingestNoNotify bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Process scraper output into the listing database",
	Long:  "Reads scraper JSON lines from a file, a command's stdout or stdin, then prints the batch stats.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if ingestFile != "" && ingestExec != "" {
			return errors.New("--file and --exec are mutually exclusive")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		db, err := openDatabase()
		if err != nil {
			return err
		}
		store := database.NewDatabase(db)
		defer store.Close()

		manager := ingest.NewManager(processor.New(db, cfg, logger), logger)

		var stats processor.Stats
		switch {
		case ingestExec != "":
			parts := strings.Fields(ingestExec)
			if len(parts) == 0 {
				return errors.New("--exec needs a command")
			}
			stats, err = manager.RunCommand(ctx, ingestSource, parts[0], parts[1:]...)
		default:
			var r io.Reader = cmd.InOrStdin()
			if ingestFile != "" {
				f, openErr := os.Open(ingestFile)
				if openErr != nil {
					return fmt.Errorf("failed to open %s: %w", ingestFile, openErr)
				}
				defer f.Close()
				r = f
			}
			stats, err = manager.Consume(ctx, ingestSource, r)
		}
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(stats); err != nil {
			return err
		}

		if ingestNoNotify || (stats.New == 0 && stats.PriceDrops == 0) {
			return nil
		}
		notifier := notify.New(store, notify.LogSender{Logger: logger}, cfg, logger)
		res := notifier.NotifyBatch(ctx, stats.Outcomes)
		logger.WithFields(logrus.Fields{
			"sent":    res.Sent,
			"skipped": res.Skipped,
			"failed":  res.Failed,
		}).Info("Notifications processed")
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestSource, "source", "", "source site name (yad2, madlan, facebook)")
	ingestCmd.Flags().StringVar(&ingestFile, "file", "", "read scraper JSON lines from this file")
	ingestCmd.Flags().StringVar(&ingestExec, "exec", "", "run this scraper command and read its stdout")
	ingestCmd.Flags().BoolVar(&ingestNoNotify, "no-notify", false, "skip notification checks")
	_ = ingestCmd.MarkFlagRequired("source")
}
