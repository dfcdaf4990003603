package database

import (
	"context"
	"fmt"
	"time"

	"dirawatch/internal/models"
)

// HasNotification reports whether a notification of kind was recorded for
// the listing at or after since. A zero since matches any time.
func (d *Database) HasNotification(ctx context.Context, listingID uint, kind models.NotificationType, since time.Time) (bool, error) {
	tx := d.conn(ctx).Model(&models.Notification{}).
		Where("listing_id = ? AND type = ?", listingID, kind)
	if !since.IsZero() {
		tx = tx.Where("sent_at >= ?", since)
	}
	var count int64
	if err := tx.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check notifications: %w", err)
	}
	return count > 0, nil
}

func (d *Database) RecordNotification(ctx context.Context, n *models.Notification) error {
	if err := d.conn(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("failed to record notification: %w", err)
	}
	return nil
}

func (d *Database) ListNotifications(ctx context.Context, listingID uint) ([]models.Notification, error) {
	var out []models.Notification
	err := d.conn(ctx).Where("listing_id = ?", listingID).Order("sent_at ASC, id ASC").Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return out, nil
}
