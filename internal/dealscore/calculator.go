package dealscore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"dirawatch/config"
	"dirawatch/internal/models"
)

// Default component weights. Staircase levels below are expressed on this scale.
const (
	DefaultPriceWeight    = 40.0
	DefaultFeaturesWeight = 30.0
	DefaultRecencyWeight  = 15.0
	DefaultTrendWeight    = 15.0
)

// Relative feature weights used for the proportional feature score
const (
	parkingWeight  = 10.0
	balconyWeight  = 8.0
	elevatorWeight = 7.0
	mamadWeight    = 8.0
	topFloorWeight = 5.0
)

// StatsLookup returns nil, nil when a neighborhood has no statistics
type StatsLookup interface {
	GetNeighborhoodStats(ctx context.Context, city, neighborhood string) (*models.NeighborhoodStats, error)
}

type step struct {
	limit float64
	level float64
}

// price per sqm as a fraction of the neighborhood average
var priceSteps = []step{
	{0.70, 40}, {0.80, 35}, {0.90, 30}, {1.00, 25}, {1.10, 15}, {1.20, 10},
}

// age in whole days
var recencySteps = []step{
	{0, 15}, {2, 12}, {5, 9}, {10, 6}, {20, 3},
}

// percent change of the latest price
var trendSteps = []step{
	{-10, 15}, {-5, 12}, {-2, 9},
}

const (
	priceFloor     = 5.0
	priceNeutral   = 20.0
	recencyFloor   = 1.0
	trendAnyDrop   = 7.0
	trendUnchanged = 5.0
	trendIncrease  = 2.0
	trendNoHistory = trendUnchanged
)

// Calculator scores a listing from 0 to 100 on price against its
// neighborhood, preferred features, freshness and price trend.
type Calculator struct {
	stats      StatsLookup
	weights    config.Scoring
	prefs      config.Preferences
	minSamples int
	now        func() time.Time
}

func NewCalculator(stats StatsLookup, cfg *config.Config) *Calculator {
	return &Calculator{
		stats:      stats,
		weights:    cfg.Scoring,
		prefs:      cfg.Preferences,
		minSamples: cfg.Scoring.MinSamples,
		now:        time.Now,
	}
}

// SetClock replaces the time source used for recency
func (c *Calculator) SetClock(now func() time.Time) {
	c.now = now
}

// Breakdown is the per-component result of a score
type Breakdown struct {
	Price    float64 `json:"price"`
	Features float64 `json:"features"`
	Recency  float64 `json:"recency"`
	Trend    float64 `json:"trend"`
	Total    float64 `json:"total"`
}

// CalculateScore returns the clamped deal score of listing
func (c *Calculator) CalculateScore(ctx context.Context, listing *models.Listing) (float64, error) {
	b, err := c.Breakdown(ctx, listing)
	if err != nil {
		return 0, err
	}
	return b.Total, nil
}

func (c *Calculator) Breakdown(ctx context.Context, listing *models.Listing) (Breakdown, error) {
	price, err := c.priceScore(ctx, listing)
	if err != nil {
		return Breakdown{}, err
	}
	b := Breakdown{
		Price:    price,
		Features: c.featureScore(listing),
		Recency:  c.recencyScore(listing),
		Trend:    c.trendScore(listing),
	}
	b.Total = math.Min(100, math.Max(0, b.Price+b.Features+b.Recency+b.Trend))
	return b, nil
}

func scale(level, weight, defaultWeight float64) float64 {
	return level * weight / defaultWeight
}

func (c *Calculator) priceScore(ctx context.Context, listing *models.Listing) (float64, error) {
	w := c.weights.PriceWeight
	if !models.Positive(listing.PricePerSqm) {
		return 0, nil
	}

	stats, err := c.stats.GetNeighborhoodStats(ctx, listing.City, listing.Neighborhood)
	if err != nil {
		return 0, fmt.Errorf("failed to load neighborhood stats: %w", err)
	}
	if stats == nil || stats.AvgPricePerSqm <= 0 || stats.SampleSize < c.minSamples {
		return scale(priceNeutral, w, DefaultPriceWeight), nil
	}

	ratio := *listing.PricePerSqm / stats.AvgPricePerSqm
	for _, s := range priceSteps {
		if ratio <= s.limit {
			return scale(s.level, w, DefaultPriceWeight), nil
		}
	}
	return scale(priceFloor, w, DefaultPriceWeight), nil
}

func (c *Calculator) featureScore(listing *models.Listing) float64 {
	type feature struct {
		present bool
		weight  float64
	}
	var features []feature
	if c.prefs.Parking {
		features = append(features, feature{listing.HasParking, parkingWeight})
	}
	if c.prefs.Balcony {
		features = append(features, feature{listing.HasBalcony, balconyWeight})
	}
	if c.prefs.Elevator {
		features = append(features, feature{listing.HasElevator, elevatorWeight})
	}
	if c.prefs.Mamad {
		features = append(features, feature{listing.HasMamad, mamadWeight})
	}
	if c.prefs.TopFloors && listing.Floor != nil && listing.TotalFloors != nil && *listing.Floor != 0 && *listing.TotalFloors != 0 {
		topHalf := float64(*listing.Floor) >= float64(*listing.TotalFloors)/2
		features = append(features, feature{topHalf, topFloorWeight})
	}

	var total float64
	for _, f := range features {
		total += f.weight
	}
	if total == 0 {
		return 0
	}

	var score float64
	for _, f := range features {
		if f.present {
			score += f.weight / total * c.weights.FeaturesWeight
		}
	}
	return score
}

func (c *Calculator) recencyScore(listing *models.Listing) float64 {
	w := c.weights.RecencyWeight
	if listing.FirstSeen.IsZero() {
		return w
	}

	days := math.Floor(c.now().Sub(listing.FirstSeen).Hours() / 24)
	for _, s := range recencySteps {
		if days <= s.limit {
			return scale(s.level, w, DefaultRecencyWeight)
		}
	}
	return scale(recencyFloor, w, DefaultRecencyWeight)
}

func (c *Calculator) trendScore(listing *models.Listing) float64 {
	w := c.weights.PriceTrendWeight
	current, previous, ok := latestPrices(listing.PriceHistory)
	if !ok {
		return scale(trendNoHistory, w, DefaultTrendWeight)
	}
	change := (current - previous) / previous * 100

	for _, s := range trendSteps {
		if change <= s.limit {
			return scale(s.level, w, DefaultTrendWeight)
		}
	}
	switch {
	case change < 0:
		return scale(trendAnyDrop, w, DefaultTrendWeight)
	case change == 0:
		return scale(trendUnchanged, w, DefaultTrendWeight)
	default:
		return scale(trendIncrease, w, DefaultTrendWeight)
	}
}

// latestPrices returns the two most recent positive prices, newest first
func latestPrices(history []models.PriceHistory) (current, previous float64, ok bool) {
	if len(history) < 2 {
		return 0, 0, false
	}
	sorted := make([]models.PriceHistory, len(history))
	copy(sorted, history)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Timestamp.Equal(sorted[j].Timestamp) {
			return sorted[i].ID > sorted[j].ID
		}
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})

	current, previous = sorted[0].Price, sorted[1].Price
	if current <= 0 || previous <= 0 {
		return 0, 0, false
	}
	return current, previous, true
}

// PriceDropPercentage returns how far the latest price fell below the one
// before it. A rise yields a negative value. nil when undeterminable.
func PriceDropPercentage(history []models.PriceHistory) *float64 {
	current, previous, ok := latestPrices(history)
	if !ok {
		return nil
	}
	drop := (previous - current) / previous * 100
	return &drop
}
