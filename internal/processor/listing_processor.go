package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"dirawatch/config"
	"dirawatch/internal/database"
	"dirawatch/internal/dealscore"
	"dirawatch/internal/dedup"
	"dirawatch/internal/filter"
	"dirawatch/internal/models"
	"dirawatch/internal/phone"
)

// Processor turns scraped listings into stored, deduplicated and scored listings
type Processor struct {
	db     *database.Database
	logger *logrus.Logger
	config *config.Config
	filter *filter.Filter
	now    func() time.Time
}

// New creates a processor bound to db
func New(db *gorm.DB, config *config.Config, logger *logrus.Logger) *Processor {
	return &Processor{
		db:     database.NewDatabase(db),
		logger: logger,
		config: config,
		filter: filter.New(config),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source for timestamps and recency
func (p *Processor) SetClock(now func() time.Time) {
	p.now = now
}

// ProcessListings handles a scraped batch inside one transaction. A failing
// listing is rolled back to its savepoint, logged and skipped. Only a
// failure of the batch transaction itself is returned.
func (p *Processor) ProcessListings(ctx context.Context, raws []models.RawListing, source string) (Stats, error) {
	var stats Stats
	log := p.logger.WithFields(logrus.Fields{
		"source": source,
		"run_id": uuid.NewString(),
	})
	log.WithField("count", len(raws)).Info("Starting batch processing")

	err := p.db.Transaction(ctx, func(tx *database.Database) error {
		for i := range raws {
			savepoint := fmt.Sprintf("listing_%d", i)
			if err := tx.DB().SavePoint(savepoint).Error; err != nil {
				return fmt.Errorf("failed to create savepoint: %w", err)
			}

			outcome, err := p.process(ctx, tx, &raws[i], source, log)
			if err != nil {
				if rbErr := tx.DB().RollbackTo(savepoint).Error; rbErr != nil {
					return fmt.Errorf("failed to roll back listing %d: %w", i, rbErr)
				}
				stats.Errors++
				log.WithError(err).WithField("index", i).Error("Error processing listing")
				continue
			}
			stats.record(outcome)
		}
		return nil
	})
	if err != nil {
		return Stats{}, fmt.Errorf("failed to process batch: %w", err)
	}

	log.WithFields(logrus.Fields{
		"new":         stats.New,
		"updated":     stats.Updated,
		"duplicates":  stats.Duplicates,
		"filtered":    stats.Filtered,
		"price_drops": stats.PriceDrops,
		"errors":      stats.Errors,
	}).Info("Batch processing completed")
	return stats, nil
}

// ProcessSingleListing handles one listing in its own transaction
func (p *Processor) ProcessSingleListing(ctx context.Context, raw models.RawListing, source string) (Outcome, error) {
	var outcome Outcome
	log := p.logger.WithField("source", source)
	err := p.db.Transaction(ctx, func(tx *database.Database) error {
		var err error
		outcome, err = p.process(ctx, tx, &raw, source, log)
		return err
	})
	return outcome, err
}

func (p *Processor) process(ctx context.Context, tx *database.Database, raw *models.RawListing, source string, log *logrus.Entry) (Outcome, error) {
	if source == "" {
		source = raw.Source
	}

	if ok, reason := p.filter.PassesAll(raw); !ok {
		log.WithFields(logrus.Fields{
			"reason": reason,
			"title":  truncate(raw.Title, 50),
		}).Info("Listing filtered out")
		return Outcome{Tag: OutcomeFiltered, Reason: reason}, nil
	}

	hash, err := dedup.HashListing(raw.Address, raw.Rooms, raw.SizeSqm)
	if err != nil {
		return Outcome{}, err
	}
	normalizedPhone := phone.NormalizeOrEmpty(raw.ContactPhone)

	detector := dedup.NewDetector(tx, p.config.SimilarityThreshold, p.logger)
	existing, method, err := detector.FindDuplicate(ctx, hash, source, raw.ExternalID, normalizedPhone, raw.Address)
	if err != nil {
		return Outcome{}, err
	}

	calc := dealscore.NewCalculator(tx, p.config)
	calc.SetClock(p.now)

	if existing != nil {
		log.WithFields(logrus.Fields{
			"listing_id":    existing.ID,
			"method":        method,
			"property_hash": hash[:16],
		}).Debug("Found duplicate")
		return p.updateExisting(ctx, tx, calc, existing, raw, method, log)
	}
	return p.createNew(ctx, tx, calc, raw, source, hash, normalizedPhone, log)
}

func (p *Processor) createNew(ctx context.Context, tx *database.Database, calc *dealscore.Calculator, raw *models.RawListing, source, hash, normalizedPhone string, log *logrus.Entry) (Outcome, error) {
	now := p.now()
	listing := &models.Listing{
		PropertyHash: hash,
		Source:       source,
		ExternalID:   optional(raw.ExternalID),
		URL:          raw.URL,
		Title:        raw.Title,
		Description:  raw.Description,
		Address:      raw.Address,
		City:         raw.City,
		Neighborhood: raw.Neighborhood,
		Street:       raw.Street,
		Rooms:        raw.Rooms,
		SizeSqm:      raw.SizeSqm,
		Floor:        raw.Floor,
		TotalFloors:  raw.TotalFloors,
		HasElevator:  models.Flag(raw.HasElevator),
		HasParking:   models.Flag(raw.HasParking),
		HasBalcony:   models.Flag(raw.HasBalcony),
		HasMamad:     models.Flag(raw.HasMamad),
		Price:        raw.Price,
		PricePerSqm:  raw.PricePerSqm,
		ContactName:  raw.ContactName,
		ContactPhone: normalizedPhone,
		FirstSeen:    now,
		LastSeen:     now,
		LastChecked:  now,
		Status:       models.StatusUnseen,
	}
	if models.Positive(raw.Price) && models.Positive(raw.SizeSqm) {
		perSqm := *raw.Price / *raw.SizeSqm
		listing.PricePerSqm = &perSqm
	}
	if len(raw.Images) > 0 {
		if err := listing.SetImages(raw.Images); err != nil {
			return Outcome{}, fmt.Errorf("failed to encode images: %w", err)
		}
	}

	score, err := calc.CalculateScore(ctx, listing)
	if err != nil {
		return Outcome{}, err
	}
	listing.DealScore = score

	if err := tx.CreateListing(ctx, listing); err != nil {
		return Outcome{}, err
	}

	if models.Positive(listing.Price) {
		entry := models.PriceHistory{
			ListingID:   listing.ID,
			Price:       *listing.Price,
			PricePerSqm: listing.PricePerSqm,
			Timestamp:   now,
		}
		if err := tx.AddPriceHistory(ctx, &entry); err != nil {
			return Outcome{}, err
		}
	}
	if listing.Description != "" {
		entry := models.DescriptionHistory{
			ListingID:   listing.ID,
			Description: listing.Description,
			Timestamp:   now,
		}
		if err := tx.AddDescriptionHistory(ctx, &entry); err != nil {
			return Outcome{}, err
		}
	}

	log.WithFields(logrus.Fields{
		"listing_id":    listing.ID,
		"property_hash": hash[:16],
		"score":         fmt.Sprintf("%.1f", score),
		"title":         truncate(listing.Title, 50),
	}).Info("New listing created")
	return Outcome{Tag: OutcomeNew, ListingID: listing.ID}, nil
}

func (p *Processor) updateExisting(ctx context.Context, tx *database.Database, calc *dealscore.Calculator, listing *models.Listing, raw *models.RawListing, method string, log *logrus.Entry) (Outcome, error) {
	now := p.now()
	log = log.WithField("listing_id", listing.ID)

	listing.LastSeen = now
	listing.LastChecked = now

	var priceChanged, priceDropped, descriptionChanged bool

	if models.Positive(raw.Price) && (listing.Price == nil || *listing.Price != *raw.Price) {
		newPrice := *raw.Price
		var oldPrice float64
		if listing.Price != nil {
			oldPrice = *listing.Price
		}

		listing.Price = &newPrice
		if models.Positive(listing.SizeSqm) {
			perSqm := newPrice / *listing.SizeSqm
			listing.PricePerSqm = &perSqm
		}

		entry := models.PriceHistory{
			ListingID:   listing.ID,
			Price:       newPrice,
			PricePerSqm: listing.PricePerSqm,
			Timestamp:   now,
		}
		if err := tx.AddPriceHistory(ctx, &entry); err != nil {
			return Outcome{}, err
		}
		listing.PriceHistory = append(listing.PriceHistory, entry)
		priceChanged = true

		if oldPrice > 0 && newPrice < oldPrice {
			priceDropped = true
			dropPct := (oldPrice - newPrice) / oldPrice * 100
			log.WithFields(logrus.Fields{
				"old_price":    oldPrice,
				"new_price":    newPrice,
				"drop_percent": fmt.Sprintf("%.1f", dropPct),
			}).Info("Price drop detected")

			if dropPct >= p.config.Notify.MinPriceDropPct && listing.Status == models.StatusNotInterested {
				listing.Status = models.StatusUnseen
				log.Info("Reopening dismissed listing after price drop")
			}
		} else {
			log.WithFields(logrus.Fields{
				"old_price": oldPrice,
				"new_price": newPrice,
			}).Info("Price change detected")
		}
	}

	if raw.Description != "" && raw.Description != listing.Description {
		listing.Description = raw.Description
		entry := models.DescriptionHistory{
			ListingID:   listing.ID,
			Description: raw.Description,
			Timestamp:   now,
		}
		if err := tx.AddDescriptionHistory(ctx, &entry); err != nil {
			return Outcome{}, err
		}
		descriptionChanged = true
	}

	if raw.URL != "" {
		listing.URL = raw.URL
	}
	if raw.Title != "" {
		listing.Title = raw.Title
	}

	oldScore := listing.DealScore
	score, err := calc.CalculateScore(ctx, listing)
	if err != nil {
		return Outcome{}, err
	}
	listing.DealScore = score

	if err := tx.SaveListing(ctx, listing); err != nil {
		return Outcome{}, err
	}

	outcome := Outcome{ListingID: listing.ID, Method: method}
	switch {
	case priceDropped:
		outcome.Tag = OutcomePriceDrops
	case priceChanged, descriptionChanged:
		outcome.Tag = OutcomeUpdated
	default:
		outcome.Tag = OutcomeDuplicates
	}

	if outcome.Tag != OutcomeDuplicates {
		log.WithFields(logrus.Fields{
			"outcome":     outcome.Tag,
			"score_delta": fmt.Sprintf("%.1f -> %.1f", oldScore, score),
		}).Info("Listing updated")
	}
	return outcome, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
