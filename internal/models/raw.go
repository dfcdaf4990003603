package models

// RawListing is one scraped listing as handed over by a scraper.
// Optional numbers and booleans are pointers so absence can be told apart from zero.
type RawListing struct {
	Source       string   `json:"source"`
	ExternalID   string   `json:"external_id"`
	URL          string   `json:"url"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Address      string   `json:"address"`
	City         string   `json:"city"`
	Neighborhood string   `json:"neighborhood"`
	Street       string   `json:"street"`
	Rooms        *float64 `json:"rooms"`
	SizeSqm      *float64 `json:"size_sqm"`
	Floor        *int     `json:"floor"`
	TotalFloors  *int     `json:"total_floors"`
	Price        *float64 `json:"price"`
	PricePerSqm  *float64 `json:"price_per_sqm"`
	HasElevator  *bool    `json:"has_elevator"`
	HasParking   *bool    `json:"has_parking"`
	HasBalcony   *bool    `json:"has_balcony"`
	HasMamad     *bool    `json:"has_mamad"`
	ContactName  string   `json:"contact_name"`
	ContactPhone string   `json:"contact_phone"`
	Images       []string `json:"images"`
}

// Flag returns the value of an optional boolean, false when absent
func Flag(b *bool) bool {
	return b != nil && *b
}

// Positive reports whether an optional number is present and greater than zero
func Positive(f *float64) bool {
	return f != nil && *f > 0
}
