package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	Database struct {
		// sqlite or mysql
		Driver string `env:"DATABASE_DRIVER" envDefault:"sqlite"`
		URL    string `env:"DATABASE_URL" envDefault:"dirawatch.db"`
	}

	Log struct {
		Level string `env:"LOG_LEVEL" envDefault:"info"`
	}

	HTTP struct {
		Addr string `env:"HTTP_ADDR" envDefault:":8000"`
	}

	Search      Search
	DealBreaker DealBreakers
	Preferences Preferences
	Scoring     Scoring

	Notify struct {
		MinDealScore      float64 `env:"MIN_DEAL_SCORE_NOTIFY" envDefault:"80"`
		MinPriceDropPct   float64 `env:"MIN_PRICE_DROP_PERCENT_NOTIFY" envDefault:"3"`
		HighPriorityHoods string  `env:"HIGH_PRIORITY_NEIGHBORHOODS" envDefault:""`
	}

	// Minimum address similarity (0-100) for a phone match to count as a duplicate
	SimilarityThreshold int `env:"DUPLICATE_SIMILARITY_THRESHOLD" envDefault:"85"`
}

// Search holds the hard search criteria
type Search struct {
	Cities     string  `env:"CITIES" envDefault:""`
	MaxPrice   float64 `env:"MAX_PRICE" envDefault:"3000000"`
	MinRooms   float64 `env:"MIN_ROOMS" envDefault:"2.5"`
	MinSizeSqm float64 `env:"MIN_SIZE_SQM" envDefault:"65"`
}

// DealBreakers disqualify a listing outright
type DealBreakers struct {
	ExcludeGroundFloor bool `env:"EXCLUDE_GROUND_FLOOR" envDefault:"true"`
	// 0 disables the elevator requirement
	RequireElevatorAboveFloor int  `env:"REQUIRE_ELEVATOR_ABOVE_FLOOR" envDefault:"2"`
	RequireParking            bool `env:"REQUIRE_PARKING" envDefault:"false"`
	RequireMamad              bool `env:"REQUIRE_MAMAD" envDefault:"false"`
}

// Preferences select which features count towards the deal score
type Preferences struct {
	Parking   bool `env:"PREFER_PARKING" envDefault:"true"`
	Balcony   bool `env:"PREFER_BALCONY" envDefault:"true"`
	Elevator  bool `env:"PREFER_ELEVATOR" envDefault:"true"`
	Mamad     bool `env:"PREFER_MAMAD" envDefault:"true"`
	TopFloors bool `env:"PREFER_TOP_FLOORS" envDefault:"true"`
}

// Scoring holds the deal score component weights and the stats sample gate
type Scoring struct {
	PriceWeight      float64 `env:"DEAL_SCORE_WEIGHT_PRICE" envDefault:"40"`
	FeaturesWeight   float64 `env:"DEAL_SCORE_WEIGHT_FEATURES" envDefault:"30"`
	RecencyWeight    float64 `env:"DEAL_SCORE_WEIGHT_RECENCY" envDefault:"15"`
	PriceTrendWeight float64 `env:"DEAL_SCORE_WEIGHT_PRICE_TREND" envDefault:"15"`
	MinSamples       int     `env:"NEIGHBORHOOD_MIN_SAMPLES" envDefault:"3"`
}

// LoadConfig reads an optional .env file and parses the environment
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	return Parse()
}

// Parse builds a Config from the current environment only
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	// defaults are static literals, parsing them cannot fail
	_ = env.Parse(cfg, env.Options{Environment: map[string]string{}})
	return cfg
}

// Validate checks that thresholds and weights are usable
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Search.MaxPrice < 0 || c.Search.MinRooms < 0 || c.Search.MinSizeSqm < 0 {
		return errors.New("search thresholds must not be negative")
	}
	if c.DealBreaker.RequireElevatorAboveFloor < 0 {
		return errors.New("elevator floor threshold must not be negative")
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 100 {
		return fmt.Errorf("similarity threshold %d outside 0-100", c.SimilarityThreshold)
	}
	s := c.Scoring
	if s.PriceWeight < 0 || s.FeaturesWeight < 0 || s.RecencyWeight < 0 || s.PriceTrendWeight < 0 {
		return errors.New("deal score weights must not be negative")
	}
	if s.PriceWeight+s.FeaturesWeight+s.RecencyWeight+s.PriceTrendWeight <= 0 {
		return errors.New("deal score weights must sum to a positive number")
	}
	if s.MinSamples < 1 {
		return errors.New("neighborhood minimum samples must be at least 1")
	}
	return nil
}
