package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"dirawatch/config"
	"dirawatch/internal/dealscore"
	"dirawatch/internal/models"
	"dirawatch/internal/processor"
)

// priceDropCooldown suppresses repeated price drop alerts for one listing
const priceDropCooldown = 24 * time.Hour

// Sender delivers a rendered message
type Sender interface {
	Send(ctx context.Context, message string) error
}

// Store is the storage surface used by the notifier
type Store interface {
	GetListing(ctx context.Context, id uint) (*models.Listing, error)
	HasNotification(ctx context.Context, listingID uint, kind models.NotificationType, since time.Time) (bool, error)
	RecordNotification(ctx context.Context, n *models.Notification) error
}

// LogSender writes messages to the log instead of a chat service
type LogSender struct {
	Logger *logrus.Logger
}

func (s LogSender) Send(ctx context.Context, message string) error {
	s.Logger.WithField("message", message).Info("Notification")
	return nil
}

// Notifier decides which listings deserve an alert and records what was sent
type Notifier struct {
	store        Store
	sender       Sender
	logger       *logrus.Logger
	minScore     float64
	minDropPct   float64
	highPriority map[string]bool
	now          func() time.Time
}

func New(store Store, sender Sender, cfg *config.Config, logger *logrus.Logger) *Notifier {
	n := &Notifier{
		store:        store,
		sender:       sender,
		logger:       logger,
		minScore:     cfg.Notify.MinDealScore,
		minDropPct:   cfg.Notify.MinPriceDropPct,
		highPriority: make(map[string]bool),
		now:          func() time.Time { return time.Now().UTC() },
	}
	for _, hood := range cfg.HighPriorityNeighborhoods() {
		n.highPriority[hood] = true
	}
	return n
}

// SetClock replaces the time source for cooldowns and record timestamps
func (n *Notifier) SetClock(now func() time.Time) {
	n.now = now
}

// Result counts what a batch run sent
type Result struct {
	Sent    int `json:"sent"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// NotifyBatch alerts on the new listings and price drops of a processed batch
func (n *Notifier) NotifyBatch(ctx context.Context, outcomes []processor.Outcome) Result {
	var res Result
	for _, o := range outcomes {
		if o.Tag != processor.OutcomeNew && o.Tag != processor.OutcomePriceDrops {
			continue
		}
		log := n.logger.WithFields(logrus.Fields{"listing_id": o.ListingID, "outcome": o.Tag})

		listing, err := n.store.GetListing(ctx, o.ListingID)
		if err != nil {
			log.WithError(err).Error("Failed to load listing for notification")
			res.Failed++
			continue
		}

		var sent bool
		switch {
		case o.Tag == processor.OutcomePriceDrops:
			sent, err = n.NotifyPriceDrop(ctx, listing)
		case listing.Status != models.StatusUnseen:
			continue
		case listing.DealScore >= n.minScore:
			sent, err = n.NotifyHighScore(ctx, listing)
		default:
			sent, err = n.NotifyNewListing(ctx, listing)
		}

		switch {
		case err != nil:
			log.WithError(err).Error("Failed to send notification")
			res.Failed++
		case sent:
			res.Sent++
		default:
			res.Skipped++
		}
	}
	return res
}

// ShouldNotifyNewListing applies the status, score and neighborhood rules
func (n *Notifier) ShouldNotifyNewListing(listing *models.Listing) bool {
	if listing.Status == models.StatusNotInterested || listing.Status == models.StatusContacted {
		return false
	}
	return listing.DealScore >= n.minScore || n.highPriority[listing.Neighborhood]
}

func (n *Notifier) NotifyNewListing(ctx context.Context, listing *models.Listing) (bool, error) {
	if !n.ShouldNotifyNewListing(listing) {
		return false, nil
	}
	done, err := n.store.HasNotification(ctx, listing.ID, models.NotificationNewListing, time.Time{})
	if err != nil || done {
		return false, err
	}
	return n.send(ctx, listing, models.NotificationNewListing, nil)
}

func (n *Notifier) NotifyHighScore(ctx context.Context, listing *models.Listing) (bool, error) {
	if listing.DealScore < n.minScore {
		return false, nil
	}
	done, err := n.store.HasNotification(ctx, listing.ID, models.NotificationHighScore, time.Time{})
	if err != nil || done {
		return false, err
	}
	return n.send(ctx, listing, models.NotificationHighScore, nil)
}

func (n *Notifier) NotifyPriceDrop(ctx context.Context, listing *models.Listing) (bool, error) {
	drop := dealscore.PriceDropPercentage(listing.PriceHistory)
	if drop == nil || *drop <= 0 || *drop < n.minDropPct {
		return false, nil
	}
	recent, err := n.store.HasNotification(ctx, listing.ID, models.NotificationPriceDrop, n.now().Add(-priceDropCooldown))
	if err != nil || recent {
		return false, err
	}
	return n.send(ctx, listing, models.NotificationPriceDrop, drop)
}

func (n *Notifier) send(ctx context.Context, listing *models.Listing, kind models.NotificationType, dropPct *float64) (bool, error) {
	message := BuildMessage(listing, kind, dropPct)
	if err := n.sender.Send(ctx, message); err != nil {
		return false, fmt.Errorf("failed to send %s notification: %w", kind, err)
	}

	record := &models.Notification{
		ListingID: listing.ID,
		Type:      kind,
		Message:   message,
		SentAt:    n.now(),
	}
	if err := n.store.RecordNotification(ctx, record); err != nil {
		return true, err
	}

	n.logger.WithFields(logrus.Fields{
		"listing_id": listing.ID,
		"type":       kind,
	}).Info("Notification sent")
	return true, nil
}
