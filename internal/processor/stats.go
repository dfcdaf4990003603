package processor

// Outcome tags, also the keys of the batch stats
const (
	OutcomeNew        = "new"
	OutcomeUpdated    = "updated"
	OutcomeDuplicates = "duplicates"
	OutcomeFiltered   = "filtered"
	OutcomePriceDrops = "price_drops"
)

// Outcome is the classification of one raw listing
type Outcome struct {
	Tag       string `json:"outcome"`
	ListingID uint   `json:"listing_id,omitempty"`
	// how a duplicate was matched, empty for new listings
	Method string `json:"method,omitempty"`
	// filter rejection reason
	Reason string `json:"reason,omitempty"`
}

// Stats counts batch outcomes. Errors counts listings skipped on failure.
type Stats struct {
	New        int `json:"new"`
	Updated    int `json:"updated"`
	Duplicates int `json:"duplicates"`
	Filtered   int `json:"filtered"`
	PriceDrops int `json:"price_drops"`
	Errors     int `json:"errors"`

	Outcomes []Outcome `json:"-"`
}

func (s *Stats) record(o Outcome) {
	switch o.Tag {
	case OutcomeNew:
		s.New++
	case OutcomeUpdated:
		s.Updated++
	case OutcomeDuplicates:
		s.Duplicates++
	case OutcomeFiltered:
		s.Filtered++
	case OutcomePriceDrops:
		s.PriceDrops++
	}
	s.Outcomes = append(s.Outcomes, o)
}

// Add merges other into s
func (s *Stats) Add(other Stats) {
	s.New += other.New
	s.Updated += other.Updated
	s.Duplicates += other.Duplicates
	s.Filtered += other.Filtered
	s.PriceDrops += other.PriceDrops
	s.Errors += other.Errors
	s.Outcomes = append(s.Outcomes, other.Outcomes...)
}

// Total is the number of listings that were classified
func (s Stats) Total() int {
	return s.New + s.Updated + s.Duplicates + s.Filtered + s.PriceDrops
}
