package dealscore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"dirawatch/internal/database"
	"dirawatch/internal/models"
)

// StatsStore is the storage surface used by UpdateNeighborhoodStats
type StatsStore interface {
	PriceSamples(ctx context.Context) ([]database.PriceSample, error)
	UpsertNeighborhoodStats(ctx context.Context, stats *models.NeighborhoodStats) error
	DeleteNeighborhoodStatsExcept(ctx context.Context, keep []models.NeighborhoodStats) (int64, error)
}

type neighborhoodKey struct {
	city         string
	neighborhood string
}

// UpdateNeighborhoodStats recomputes price statistics for every
// (city, neighborhood) with at least minSamples priced listings. Groups
// that fall below the threshold lose their stored row.
func UpdateNeighborhoodStats(ctx context.Context, store StatsStore, minSamples int, now time.Time) ([]models.NeighborhoodStats, error) {
	samples, err := store.PriceSamples(ctx)
	if err != nil {
		return nil, err
	}

	groups := make(map[neighborhoodKey][]database.PriceSample)
	var order []neighborhoodKey
	for _, s := range samples {
		key := neighborhoodKey{s.City, s.Neighborhood}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], s)
	}

	var updated []models.NeighborhoodStats
	for _, key := range order {
		group := groups[key]
		if len(group) < minSamples {
			continue
		}
		stats := aggregate(key, group, now)
		if err := store.UpsertNeighborhoodStats(ctx, &stats); err != nil {
			return nil, err
		}
		updated = append(updated, stats)
	}

	if _, err := store.DeleteNeighborhoodStatsExcept(ctx, updated); err != nil {
		return nil, fmt.Errorf("failed to prune neighborhood stats: %w", err)
	}
	return updated, nil
}

func aggregate(key neighborhoodKey, group []database.PriceSample, now time.Time) models.NeighborhoodStats {
	prices := make([]float64, len(group))
	perSqm := make([]float64, len(group))
	for i, s := range group {
		prices[i] = s.Price
		perSqm[i] = s.PricePerSqm
	}
	return models.NeighborhoodStats{
		City:              key.city,
		Neighborhood:      key.neighborhood,
		AvgPrice:          mean(prices),
		AvgPricePerSqm:    mean(perSqm),
		MedianPrice:       median(prices),
		MedianPricePerSqm: median(perSqm),
		SampleSize:        len(group),
		LastUpdated:       now,
	}
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
