package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"dirawatch/internal/models"
)

// ListingQuery narrows and orders ListListings. Zero values mean no filter.
type ListingQuery struct {
	Status       string
	City         string
	Neighborhood string
	MinScore     *float64
	MaxPrice     *float64
	// score (default), price or newest
	Sort  string
	Limit int
}

func historyByTime(db *gorm.DB) *gorm.DB {
	return db.Order("timestamp ASC, id ASC")
}

// findOne returns nil, nil when no row matches
func (d *Database) findOne(ctx context.Context, query string, args ...interface{}) (*models.Listing, error) {
	var listing models.Listing
	err := d.conn(ctx).
		Preload("PriceHistory", historyByTime).
		Where(query, args...).
		Order("id ASC").
		First(&listing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

func (d *Database) FindByPropertyHash(ctx context.Context, hash string) (*models.Listing, error) {
	return d.findOne(ctx, "property_hash = ?", hash)
}

func (d *Database) FindBySourceExternalID(ctx context.Context, source, externalID string) (*models.Listing, error) {
	return d.findOne(ctx, "source = ? AND external_id = ?", source, externalID)
}

// FindByPhone returns the oldest listing carrying the normalized phone
func (d *Database) FindByPhone(ctx context.Context, phone string) (*models.Listing, error) {
	return d.findOne(ctx, "contact_phone = ?", phone)
}

// CreateListing inserts the listing row only. History rows are added separately.
func (d *Database) CreateListing(ctx context.Context, listing *models.Listing) error {
	if err := d.conn(ctx).Omit(clause.Associations).Create(listing).Error; err != nil {
		return fmt.Errorf("failed to create listing: %w", err)
	}
	return nil
}

// SaveListing updates every column of the listing row
func (d *Database) SaveListing(ctx context.Context, listing *models.Listing) error {
	if err := d.conn(ctx).Omit(clause.Associations).Save(listing).Error; err != nil {
		return fmt.Errorf("failed to save listing %d: %w", listing.ID, err)
	}
	return nil
}

func (d *Database) AddPriceHistory(ctx context.Context, entry *models.PriceHistory) error {
	if err := d.conn(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to add price history: %w", err)
	}
	return nil
}

func (d *Database) AddDescriptionHistory(ctx context.Context, entry *models.DescriptionHistory) error {
	if err := d.conn(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to add description history: %w", err)
	}
	return nil
}

// GetListing loads a listing with both histories
func (d *Database) GetListing(ctx context.Context, id uint) (*models.Listing, error) {
	var listing models.Listing
	err := d.conn(ctx).
		Preload("PriceHistory", historyByTime).
		Preload("DescriptionHistory", historyByTime).
		First(&listing, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get listing %d: %w", id, err)
	}
	return &listing, nil
}

func (d *Database) GetPriceHistory(ctx context.Context, listingID uint) ([]models.PriceHistory, error) {
	if _, err := d.listingExists(ctx, listingID); err != nil {
		return nil, err
	}
	var history []models.PriceHistory
	err := historyByTime(d.conn(ctx)).Where("listing_id = ?", listingID).Find(&history).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get price history: %w", err)
	}
	return history, nil
}

func (d *Database) listingExists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := d.conn(ctx).Model(&models.Listing{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to look up listing %d: %w", id, err)
	}
	if count == 0 {
		return false, ErrNotFound
	}
	return true, nil
}

var listingSorts = map[string]string{
	"score":  "deal_score DESC",
	"price":  "price ASC",
	"newest": "first_seen DESC",
}

// ListListings returns listings matching q
func (d *Database) ListListings(ctx context.Context, q ListingQuery) ([]models.Listing, error) {
	tx := d.conn(ctx).Model(&models.Listing{})
	if q.Status != "" {
		tx = tx.Where("status = ?", q.Status)
	}
	if q.City != "" {
		tx = tx.Where("city = ?", q.City)
	}
	if q.Neighborhood != "" {
		tx = tx.Where("neighborhood = ?", q.Neighborhood)
	}
	if q.MinScore != nil {
		tx = tx.Where("deal_score >= ?", *q.MinScore)
	}
	if q.MaxPrice != nil {
		tx = tx.Where("price <= ?", *q.MaxPrice)
	}

	order, ok := listingSorts[q.Sort]
	if !ok {
		order = listingSorts["score"]
	}
	tx = tx.Order(order).Order("id ASC")
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var listings []models.Listing
	if err := tx.Find(&listings).Error; err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}
	return listings, nil
}

// UpdateStatus sets the workflow status and, when note is non-nil, the user note
func (d *Database) UpdateStatus(ctx context.Context, id uint, status models.ListingStatus, note *string) error {
	if _, err := d.listingExists(ctx, id); err != nil {
		return err
	}
	updates := map[string]interface{}{"status": status}
	if note != nil {
		updates["user_note"] = *note
	}
	err := d.conn(ctx).Model(&models.Listing{}).Where("id = ?", id).Updates(updates).Error
	if err != nil {
		return fmt.Errorf("failed to update status of listing %d: %w", id, err)
	}
	return nil
}

// Summary computes dashboard totals. since bounds the "last 24h" counters.
func (d *Database) Summary(ctx context.Context, since time.Time) (*models.ListingSummary, error) {
	summary := &models.ListingSummary{ByStatus: map[string]int{}}

	var rows []struct {
		Status string
		Count  int
	}
	err := d.conn(ctx).Model(&models.Listing{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count listings by status: %w", err)
	}
	for _, r := range rows {
		summary.ByStatus[r.Status] = r.Count
		summary.TotalListings += r.Count
	}

	var avg struct{ Avg *float64 }
	if err := d.conn(ctx).Model(&models.Listing{}).Select("AVG(deal_score) AS avg").Scan(&avg).Error; err != nil {
		return nil, fmt.Errorf("failed to average deal score: %w", err)
	}
	if avg.Avg != nil {
		summary.AverageScore = *avg.Avg
	}

	var fresh int64
	if err := d.conn(ctx).Model(&models.Listing{}).Where("first_seen >= ?", since).Count(&fresh).Error; err != nil {
		return nil, fmt.Errorf("failed to count new listings: %w", err)
	}
	summary.NewLast24h = int(fresh)

	// the initial price row shares first_seen and is not a change
	var changed int64
	err = d.conn(ctx).Model(&models.PriceHistory{}).
		Joins("JOIN listings ON listings.id = price_histories.listing_id").
		Where("price_histories.timestamp >= ? AND price_histories.timestamp > listings.first_seen", since).
		Distinct("price_histories.listing_id").
		Count(&changed).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count price changes: %w", err)
	}
	summary.PriceChanges24h = int(changed)

	return summary, nil
}
