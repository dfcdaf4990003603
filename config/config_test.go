package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 3000000.0, cfg.Search.MaxPrice)
	assert.Equal(t, 2.5, cfg.Search.MinRooms)
	assert.Equal(t, 65.0, cfg.Search.MinSizeSqm)
	assert.True(t, cfg.DealBreaker.ExcludeGroundFloor)
	assert.Equal(t, 2, cfg.DealBreaker.RequireElevatorAboveFloor)
	assert.False(t, cfg.DealBreaker.RequireParking)
	assert.True(t, cfg.Preferences.TopFloors)
	assert.Equal(t, 85, cfg.SimilarityThreshold)
	assert.Equal(t, 40.0, cfg.Scoring.PriceWeight)
	assert.Equal(t, 3, cfg.Scoring.MinSamples)
	assert.NoError(t, cfg.Validate())
}

func TestParseFromEnv(t *testing.T) {
	t.Setenv("CITIES", "Tel Aviv, Haifa ,")
	t.Setenv("MAX_PRICE", "2500000")
	t.Setenv("REQUIRE_PARKING", "true")
	t.Setenv("HIGH_PRIORITY_NEIGHBORHOODS", "Florentin")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, []string{"Tel Aviv", "Haifa"}, cfg.CityNames())
	assert.Equal(t, 2500000.0, cfg.Search.MaxPrice)
	assert.True(t, cfg.DealBreaker.RequireParking)
	assert.Equal(t, []string{"Florentin"}, cfg.HighPriorityNeighborhoods())
}

func TestIsCityAllowed(t *testing.T) {
	cfg := Default()
	assert.True(t, cfg.IsCityAllowed("Anywhere"))

	cfg.Search.Cities = "Tel Aviv,Haifa"
	assert.True(t, cfg.IsCityAllowed("Haifa"))
	assert.False(t, cfg.IsCityAllowed("Jerusalem"))
	assert.False(t, cfg.IsCityAllowed(""))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad driver", func(c *Config) { c.Database.Driver = "postgres" }},
		{"negative price", func(c *Config) { c.Search.MaxPrice = -1 }},
		{"threshold above 100", func(c *Config) { c.SimilarityThreshold = 101 }},
		{"negative weight", func(c *Config) { c.Scoring.RecencyWeight = -5 }},
		{"zero weights", func(c *Config) {
			c.Scoring.PriceWeight, c.Scoring.FeaturesWeight = 0, 0
			c.Scoring.RecencyWeight, c.Scoring.PriceTrendWeight = 0, 0
		}},
		{"zero samples", func(c *Config) { c.Scoring.MinSamples = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	t.Setenv("DUPLICATE_SIMILARITY_THRESHOLD", "150")
	_, err := Parse()
	assert.Error(t, err)
}
