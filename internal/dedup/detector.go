package dedup

import (
	"context"
	"fmt"

	"dirawatch/internal/models"

	"github.com/sirupsen/logrus"
)

// Method tags reported by FindDuplicate
const (
	MethodPropertyHash = "property_hash"
	MethodExternalID   = "external_id"
	MethodPhoneFuzzy   = "phone_fuzzy"
)

// DefaultThreshold is the minimum address similarity for a phone match
const DefaultThreshold = 85

// Store is the lookup surface the detector needs. Each finder returns
// nil, nil when nothing matches.
type Store interface {
	FindByPropertyHash(ctx context.Context, hash string) (*models.Listing, error)
	FindBySourceExternalID(ctx context.Context, source, externalID string) (*models.Listing, error)
	FindByPhone(ctx context.Context, phone string) (*models.Listing, error)
}

// Detector resolves an incoming listing to an already stored one
type Detector struct {
	store     Store
	threshold int
	logger    *logrus.Logger
}

func NewDetector(store Store, threshold int, logger *logrus.Logger) *Detector {
	return &Detector{
		store:     store,
		threshold: threshold,
		logger:    logger,
	}
}

// FindDuplicate tries the property hash, then source and external id, then
// phone plus fuzzy address. The first strategy that hits wins.
func (d *Detector) FindDuplicate(ctx context.Context, hash, source, externalID, phone, address string) (*models.Listing, string, error) {
	listing, err := d.store.FindByPropertyHash(ctx, hash)
	if err != nil {
		return nil, "", fmt.Errorf("failed to look up property hash: %w", err)
	}
	if listing != nil {
		return listing, MethodPropertyHash, nil
	}

	if externalID != "" {
		listing, err = d.store.FindBySourceExternalID(ctx, source, externalID)
		if err != nil {
			return nil, "", fmt.Errorf("failed to look up external id: %w", err)
		}
		if listing != nil {
			return listing, MethodExternalID, nil
		}
	}

	if phone != "" && address != "" {
		listing, err = d.store.FindByPhone(ctx, phone)
		if err != nil {
			return nil, "", fmt.Errorf("failed to look up phone: %w", err)
		}
		if listing != nil {
			similarity := Ratio(listing.Address, address)
			if similarity >= d.threshold {
				return listing, fmt.Sprintf("%s (similarity: %d%%)", MethodPhoneFuzzy, similarity), nil
			}
			d.logger.WithFields(logrus.Fields{
				"listing_id": listing.ID,
				"similarity": similarity,
				"threshold":  d.threshold,
			}).Debug("Phone matched but address too different")
		}
	}

	return nil, "", nil
}
