package dedup

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"dirawatch/internal/models"
)

// MockStore is a mock implementation of Store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) FindByPropertyHash(ctx context.Context, hash string) (*models.Listing, error) {
	args := m.Called(hash)
	l, _ := args.Get(0).(*models.Listing)
	return l, args.Error(1)
}

func (m *MockStore) FindBySourceExternalID(ctx context.Context, source, externalID string) (*models.Listing, error) {
	args := m.Called(source, externalID)
	l, _ := args.Get(0).(*models.Listing)
	return l, args.Error(1)
}

func (m *MockStore) FindByPhone(ctx context.Context, phone string) (*models.Listing, error) {
	args := m.Called(phone)
	l, _ := args.Get(0).(*models.Listing)
	return l, args.Error(1)
}

func newTestDetector(store Store) *Detector {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewDetector(store, DefaultThreshold, logger)
}

func TestFindDuplicate_HashWinsOverExternalID(t *testing.T) {
	// Setup
	store := &MockStore{}
	byHash := &models.Listing{ID: 1}
	store.On("FindByPropertyHash", "h1").Return(byHash, nil)

	// Test
	got, method, err := newTestDetector(store).FindDuplicate(context.Background(), "h1", "yad2", "ext-9", "0501234567", "Herzl 10")

	// Assert
	require.NoError(t, err)
	assert.Same(t, byHash, got)
	assert.Equal(t, MethodPropertyHash, method)
	store.AssertNotCalled(t, "FindBySourceExternalID", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "FindByPhone", mock.Anything)
}

func TestFindDuplicate_ExternalID(t *testing.T) {
	store := &MockStore{}
	existing := &models.Listing{ID: 2}
	store.On("FindByPropertyHash", "h2").Return(nil, nil)
	store.On("FindBySourceExternalID", "yad2", "ext-1").Return(existing, nil)

	got, method, err := newTestDetector(store).FindDuplicate(context.Background(), "h2", "yad2", "ext-1", "", "Herzl 10")

	require.NoError(t, err)
	assert.Same(t, existing, got)
	assert.Equal(t, MethodExternalID, method)
}

func TestFindDuplicate_EmptyExternalIDSkipsLookup(t *testing.T) {
	store := &MockStore{}
	store.On("FindByPropertyHash", "h3").Return(nil, nil)

	got, method, err := newTestDetector(store).FindDuplicate(context.Background(), "h3", "yad2", "", "", "Herzl 10")

	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Empty(t, method)
	store.AssertNotCalled(t, "FindBySourceExternalID", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "FindByPhone", mock.Anything)
}

func TestFindDuplicate_PhoneFuzzyThresholdBoundary(t *testing.T) {
	tests := []struct {
		name      string
		stored    string
		incoming  string
		wantMatch bool
		method    string
	}{
		{
			name:      "exactly at threshold",
			stored:    "abcdefghijklmnopq",
			incoming:  "abcdefghijklmnopqrstuvw",
			wantMatch: true,
			method:    "phone_fuzzy (similarity: 85%)",
		},
		{
			name:     "just below threshold",
			stored:   "abcdefghijklmnopq",
			incoming: "abcdefghijklmnopqrstuvwx",
		},
		{
			name:      "case insensitive",
			stored:    "Herzl 10 Tel Aviv",
			incoming:  "HERZL 10 TEL AVIV",
			wantMatch: true,
			method:    "phone_fuzzy (similarity: 100%)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &MockStore{}
			existing := &models.Listing{ID: 7, Address: tt.stored}
			store.On("FindByPropertyHash", "h").Return(nil, nil)
			store.On("FindByPhone", "0501234567").Return(existing, nil)

			got, method, err := newTestDetector(store).FindDuplicate(context.Background(), "h", "madlan", "", "0501234567", tt.incoming)

			require.NoError(t, err)
			if tt.wantMatch {
				assert.Same(t, existing, got)
				assert.Equal(t, tt.method, method)
			} else {
				assert.Nil(t, got)
				assert.Empty(t, method)
			}
		})
	}
}

func TestFindDuplicate_StoreError(t *testing.T) {
	store := &MockStore{}
	store.On("FindByPropertyHash", "h").Return(nil, errors.New("db down"))

	_, _, err := newTestDetector(store).FindDuplicate(context.Background(), "h", "yad2", "x", "", "a")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}
