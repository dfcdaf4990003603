package models

import (
	"encoding/json"
	"time"
)

// ListingStatus is the user's workflow state for a listing
type ListingStatus string

const (
	StatusUnseen        ListingStatus = "unseen"
	StatusInterested    ListingStatus = "interested"
	StatusNotInterested ListingStatus = "not_interested"
	StatusContacted     ListingStatus = "contacted"
)

// Valid reports whether s is one of the known workflow states
func (s ListingStatus) Valid() bool {
	switch s {
	case StatusUnseen, StatusInterested, StatusNotInterested, StatusContacted:
		return true
	}
	return false
}

// Listing is a unique real-world property tracked over time
type Listing struct {
	ID           uint    `json:"id" gorm:"primaryKey"`
	PropertyHash string  `json:"property_hash" gorm:"size:64;uniqueIndex;not null"`
	Source       string  `json:"source" gorm:"size:50;index;uniqueIndex:uix_source_external_id"`
	ExternalID   *string `json:"external_id" gorm:"size:255;uniqueIndex:uix_source_external_id"`
	URL          string  `json:"url"`
	Title        string  `json:"title" gorm:"size:500"`
	Description  string  `json:"description"`

	Address      string `json:"address" gorm:"size:500"`
	City         string `json:"city" gorm:"size:100;index"`
	Neighborhood string `json:"neighborhood" gorm:"size:100;index"`
	Street       string `json:"street" gorm:"size:200"`

	Rooms       *float64 `json:"rooms"`
	SizeSqm     *float64 `json:"size_sqm"`
	Floor       *int     `json:"floor"`
	TotalFloors *int     `json:"total_floors"`

	HasElevator bool `json:"has_elevator"`
	HasParking  bool `json:"has_parking"`
	HasBalcony  bool `json:"has_balcony"`
	HasMamad    bool `json:"has_mamad"`

	Price       *float64 `json:"price" gorm:"index"`
	PricePerSqm *float64 `json:"price_per_sqm"`

	ContactName  string `json:"contact_name" gorm:"size:200"`
	ContactPhone string `json:"contact_phone" gorm:"size:50;index"`

	FirstSeen   time.Time `json:"first_seen"`
	LastSeen    time.Time `json:"last_seen"`
	LastChecked time.Time `json:"last_checked"`

	Status   ListingStatus `json:"status" gorm:"size:50;not null;default:'unseen';index"`
	UserNote string        `json:"user_note"`

	DealScore  float64 `json:"deal_score" gorm:"index"`
	ImagesJSON string  `json:"-"`

	PriceHistory       []PriceHistory       `json:"price_history,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	DescriptionHistory []DescriptionHistory `json:"description_history,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	Notifications      []Notification       `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

// Images decodes the stored image URLs
func (l *Listing) Images() []string {
	if l.ImagesJSON == "" {
		return []string{}
	}
	var images []string
	if err := json.Unmarshal([]byte(l.ImagesJSON), &images); err != nil {
		return []string{}
	}
	return images
}

// SetImages stores image URLs as a JSON array
func (l *Listing) SetImages(images []string) error {
	data, err := json.Marshal(images)
	if err != nil {
		return err
	}
	l.ImagesJSON = string(data)
	return nil
}

// PriceHistory is an append-only price observation
type PriceHistory struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	ListingID   uint      `json:"listing_id" gorm:"index;not null"`
	Price       float64   `json:"price"`
	PricePerSqm *float64  `json:"price_per_sqm"`
	Timestamp   time.Time `json:"timestamp" gorm:"index"`
}

// DescriptionHistory is an append-only description observation
type DescriptionHistory struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	ListingID   uint      `json:"listing_id" gorm:"index;not null"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

// NotificationType identifies why an alert was sent
type NotificationType string

const (
	NotificationNewListing NotificationType = "new_listing"
	NotificationPriceDrop  NotificationType = "price_drop"
	NotificationHighScore  NotificationType = "high_score"
)

// Notification records a sent alert
type Notification struct {
	ID        uint             `json:"id" gorm:"primaryKey"`
	ListingID uint             `json:"listing_id" gorm:"index;not null"`
	Type      NotificationType `json:"type" gorm:"size:50;index"`
	Message   string           `json:"message"`
	SentAt    time.Time        `json:"sent_at" gorm:"index"`
}

// NeighborhoodStats aggregates listing prices for one (city, neighborhood)
type NeighborhoodStats struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	City              string    `json:"city" gorm:"size:100;uniqueIndex:uix_city_neighborhood"`
	Neighborhood      string    `json:"neighborhood" gorm:"size:100;uniqueIndex:uix_city_neighborhood"`
	AvgPrice          float64   `json:"avg_price"`
	AvgPricePerSqm    float64   `json:"avg_price_per_sqm"`
	MedianPrice       float64   `json:"median_price"`
	MedianPricePerSqm float64   `json:"median_price_per_sqm"`
	SampleSize        int       `json:"sample_size"`
	LastUpdated       time.Time `json:"last_updated"`
}

// ListingSummary holds dashboard totals
type ListingSummary struct {
	TotalListings   int            `json:"total_listings"`
	ByStatus        map[string]int `json:"by_status"`
	AverageScore    float64        `json:"average_score"`
	NewLast24h      int            `json:"new_last_24h"`
	PriceChanges24h int            `json:"price_changes_last_24h"`
}
