package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"dirawatch/config"
	"dirawatch/internal/database"
	"dirawatch/internal/models"
	"dirawatch/internal/processor"
)

// MockSender is a mock implementation of Sender
type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, message string) error {
	return m.Called(message).Error(0)
}

var testNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func setup(t *testing.T, cfg *config.Config) (*Notifier, *database.Database, *MockSender) {
	t.Helper()
	db, err := database.NewTestDB()
	require.NoError(t, err)
	require.NoError(t, database.MigrateSchema(db))
	store := database.NewDatabase(db)

	if cfg == nil {
		cfg = config.Default()
	}
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	sender := &MockSender{}
	n := New(store, sender, cfg, logger)
	n.SetClock(func() time.Time { return testNow })
	return n, store, sender
}

func storeListing(t *testing.T, d *database.Database, l models.Listing) *models.Listing {
	t.Helper()
	if l.Status == "" {
		l.Status = models.StatusUnseen
	}
	l.FirstSeen, l.LastSeen, l.LastChecked = testNow, testNow, testNow
	require.NoError(t, d.CreateListing(context.Background(), &l))
	for i := range l.PriceHistory {
		l.PriceHistory[i].ListingID = l.ID
		require.NoError(t, d.AddPriceHistory(context.Background(), &l.PriceHistory[i]))
	}
	return &l
}

func countNotifications(t *testing.T, d *database.Database, id uint) int {
	t.Helper()
	list, err := d.ListNotifications(context.Background(), id)
	require.NoError(t, err)
	return len(list)
}

func TestShouldNotifyNewListing(t *testing.T) {
	cfg := config.Default()
	cfg.Notify.HighPriorityHoods = "Florentin, Neve Tzedek"
	n, _, _ := setup(t, cfg)

	tests := []struct {
		name    string
		listing models.Listing
		want    bool
	}{
		{"high score", models.Listing{DealScore: 85, Status: models.StatusUnseen}, true},
		{"score at threshold", models.Listing{DealScore: 80, Status: models.StatusUnseen}, true},
		{"low score", models.Listing{DealScore: 50, Status: models.StatusUnseen}, false},
		{"priority neighborhood", models.Listing{DealScore: 10, Neighborhood: "Neve Tzedek", Status: models.StatusInterested}, true},
		{"dismissed", models.Listing{DealScore: 95, Status: models.StatusNotInterested}, false},
		{"contacted", models.Listing{DealScore: 95, Neighborhood: "Florentin", Status: models.StatusContacted}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.ShouldNotifyNewListing(&tt.listing))
		})
	}
}

func TestNotifyNewListing_OnlyOnce(t *testing.T) {
	cfg := config.Default()
	cfg.Notify.HighPriorityHoods = "Florentin"
	n, store, sender := setup(t, cfg)
	ctx := context.Background()
	listing := storeListing(t, store, models.Listing{PropertyHash: "a", Title: "Flat", Neighborhood: "Florentin", DealScore: 40, Source: "yad2"})
	sender.On("Send", mock.Anything).Return(nil).Once()

	sent, err := n.NotifyNewListing(ctx, listing)
	require.NoError(t, err)
	assert.True(t, sent)

	sent, err = n.NotifyNewListing(ctx, listing)
	require.NoError(t, err)
	assert.False(t, sent)

	sender.AssertExpectations(t)
	assert.Equal(t, 1, countNotifications(t, store, listing.ID))
}

func TestNotifyHighScore(t *testing.T) {
	n, store, sender := setup(t, nil)
	ctx := context.Background()
	low := storeListing(t, store, models.Listing{PropertyHash: "low", DealScore: 79.9})
	high := storeListing(t, store, models.Listing{PropertyHash: "high", DealScore: 92})
	sender.On("Send", mock.MatchedBy(func(msg string) bool {
		return firstLine(msg) == "HIGH SCORE LISTING (score 92/100)"
	})).Return(nil).Once()

	sent, err := n.NotifyHighScore(ctx, low)
	require.NoError(t, err)
	assert.False(t, sent)

	sent, err = n.NotifyHighScore(ctx, high)
	require.NoError(t, err)
	assert.True(t, sent)

	sent, err = n.NotifyHighScore(ctx, high)
	require.NoError(t, err)
	assert.False(t, sent)
	sender.AssertExpectations(t)
}

func TestNotifyPriceDrop_Cooldown(t *testing.T) {
	n, store, sender := setup(t, nil)
	ctx := context.Background()
	listing := storeListing(t, store, models.Listing{
		PropertyHash: "drop",
		PriceHistory: []models.PriceHistory{
			{Price: 2000000, Timestamp: testNow.Add(-48 * time.Hour)},
			{Price: 1800000, Timestamp: testNow.Add(-time.Hour)},
		},
	})
	sender.On("Send", mock.Anything).Return(nil)

	sent, err := n.NotifyPriceDrop(ctx, listing)
	require.NoError(t, err)
	assert.True(t, sent)

	sent, err = n.NotifyPriceDrop(ctx, listing)
	require.NoError(t, err)
	assert.False(t, sent)

	n.SetClock(func() time.Time { return testNow.Add(25 * time.Hour) })
	sent, err = n.NotifyPriceDrop(ctx, listing)
	require.NoError(t, err)
	assert.True(t, sent)
	sender.AssertNumberOfCalls(t, "Send", 2)
}

func TestNotifyPriceDrop_BelowThreshold(t *testing.T) {
	n, store, sender := setup(t, nil)
	small := storeListing(t, store, models.Listing{
		PropertyHash: "small",
		PriceHistory: []models.PriceHistory{
			{Price: 2000000, Timestamp: testNow.Add(-2 * time.Hour)},
			{Price: 1990000, Timestamp: testNow.Add(-time.Hour)},
		},
	})
	rise := storeListing(t, store, models.Listing{
		PropertyHash: "rise",
		PriceHistory: []models.PriceHistory{
			{Price: 2000000, Timestamp: testNow.Add(-2 * time.Hour)},
			{Price: 2500000, Timestamp: testNow.Add(-time.Hour)},
		},
	})

	for _, l := range []*models.Listing{small, rise} {
		sent, err := n.NotifyPriceDrop(context.Background(), l)
		require.NoError(t, err)
		assert.False(t, sent)
	}
	sender.AssertNotCalled(t, "Send", mock.Anything)
}

func TestNotify_SendFailureIsNotRecorded(t *testing.T) {
	n, store, sender := setup(t, nil)
	listing := storeListing(t, store, models.Listing{PropertyHash: "x", DealScore: 99})
	sender.On("Send", mock.Anything).Return(errors.New("chat unavailable"))

	sent, err := n.NotifyHighScore(context.Background(), listing)
	assert.Error(t, err)
	assert.False(t, sent)
	assert.Equal(t, 0, countNotifications(t, store, listing.ID))
}

func TestNotifyBatch(t *testing.T) {
	n, store, sender := setup(t, nil)
	ctx := context.Background()

	high := storeListing(t, store, models.Listing{PropertyHash: "h", DealScore: 90})
	low := storeListing(t, store, models.Listing{PropertyHash: "l", DealScore: 30})
	dismissed := storeListing(t, store, models.Listing{PropertyHash: "d", DealScore: 95, Status: models.StatusNotInterested})
	dropped := storeListing(t, store, models.Listing{
		PropertyHash: "p",
		PriceHistory: []models.PriceHistory{
			{Price: 1000000, Timestamp: testNow.Add(-2 * time.Hour)},
			{Price: 900000, Timestamp: testNow.Add(-time.Hour)},
		},
	})
	sender.On("Send", mock.Anything).Return(nil)

	res := n.NotifyBatch(ctx, []processor.Outcome{
		{Tag: processor.OutcomeNew, ListingID: high.ID},
		{Tag: processor.OutcomeNew, ListingID: low.ID},
		{Tag: processor.OutcomeNew, ListingID: dismissed.ID},
		{Tag: processor.OutcomePriceDrops, ListingID: dropped.ID},
		{Tag: processor.OutcomeDuplicates, ListingID: high.ID},
		{Tag: processor.OutcomeNew, ListingID: 999},
	})

	assert.Equal(t, Result{Sent: 2, Skipped: 1, Failed: 1}, res)

	records, err := store.ListNotifications(ctx, high.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.NotificationHighScore, records[0].Type)
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
