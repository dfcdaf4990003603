package database

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"dirawatch/internal/models"
)

// PriceSample is one listing's contribution to neighborhood statistics
type PriceSample struct {
	City         string
	Neighborhood string
	Price        float64
	PricePerSqm  float64
}

// PriceSamples returns every listing with a positive price and price per sqm
func (d *Database) PriceSamples(ctx context.Context) ([]PriceSample, error) {
	var samples []PriceSample
	err := d.conn(ctx).Model(&models.Listing{}).
		Select("city, neighborhood, price, price_per_sqm").
		Where("price > 0 AND price_per_sqm > 0").
		Order("id ASC").
		Scan(&samples).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load price samples: %w", err)
	}
	return samples, nil
}

// GetNeighborhoodStats returns nil, nil when no row exists for the pair
func (d *Database) GetNeighborhoodStats(ctx context.Context, city, neighborhood string) (*models.NeighborhoodStats, error) {
	var stats models.NeighborhoodStats
	err := d.conn(ctx).Where("city = ? AND neighborhood = ?", city, neighborhood).First(&stats).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get neighborhood stats: %w", err)
	}
	return &stats, nil
}

func (d *Database) ListNeighborhoodStats(ctx context.Context, city string) ([]models.NeighborhoodStats, error) {
	tx := d.conn(ctx).Order("city ASC, neighborhood ASC")
	if city != "" {
		tx = tx.Where("city = ?", city)
	}
	var stats []models.NeighborhoodStats
	if err := tx.Find(&stats).Error; err != nil {
		return nil, fmt.Errorf("failed to list neighborhood stats: %w", err)
	}
	return stats, nil
}

// UpsertNeighborhoodStats inserts or replaces the row for (city, neighborhood)
func (d *Database) UpsertNeighborhoodStats(ctx context.Context, stats *models.NeighborhoodStats) error {
	err := d.conn(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "city"}, {Name: "neighborhood"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"avg_price", "avg_price_per_sqm", "median_price", "median_price_per_sqm",
			"sample_size", "last_updated",
		}),
	}).Create(stats).Error
	if err != nil {
		return fmt.Errorf("failed to upsert stats for %s/%s: %w", stats.City, stats.Neighborhood, err)
	}
	return nil
}

// DeleteNeighborhoodStatsExcept removes rows whose pair is not in keep
func (d *Database) DeleteNeighborhoodStatsExcept(ctx context.Context, keep []models.NeighborhoodStats) (int64, error) {
	var existing []models.NeighborhoodStats
	if err := d.conn(ctx).Select("id, city, neighborhood").Find(&existing).Error; err != nil {
		return 0, fmt.Errorf("failed to load neighborhood stats: %w", err)
	}

	kept := make(map[[2]string]bool, len(keep))
	for _, s := range keep {
		kept[[2]string{s.City, s.Neighborhood}] = true
	}
	var stale []uint
	for _, s := range existing {
		if !kept[[2]string{s.City, s.Neighborhood}] {
			stale = append(stale, s.ID)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}

	res := d.conn(ctx).Delete(&models.NeighborhoodStats{}, stale)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete stale stats: %w", res.Error)
	}
	return res.RowsAffected, nil
}
