package main

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"dirawatch/internal/database"
	"dirawatch/internal/dealscore"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Recompute neighborhood price statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase()
		if err != nil {
			return err
		}
		store := database.NewDatabase(db)
		defer store.Close()

		ctx := cmd.Context()
		return store.Transaction(ctx, func(tx *database.Database) error {
			updated, err := dealscore.UpdateNeighborhoodStats(ctx, tx, cfg.Scoring.MinSamples, time.Now().UTC())
			if err != nil {
				return err
			}
			logger.WithFields(logrus.Fields{
				"neighborhoods": len(updated),
			}).Info("Neighborhood stats updated")
			return nil
		})
	},
}
