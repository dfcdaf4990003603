package filter

import (
	"fmt"
	"strings"

	"dirawatch/config"
	"dirawatch/internal/models"
)

// Filter applies the hard search criteria and deal-breakers to raw listings.
// A missing numeric field never disqualifies a listing. A missing amenity
// flag counts as the amenity being absent.
type Filter struct {
	maxPrice     float64
	minRooms     float64
	minSize      float64
	dealBreakers config.DealBreakers
	cityAllowed  func(string) bool
	cityOrder    []string
}

func New(cfg *config.Config) *Filter {
	f := &Filter{
		maxPrice:     cfg.Search.MaxPrice,
		minRooms:     cfg.Search.MinRooms,
		minSize:      cfg.Search.MinSizeSqm,
		dealBreakers: cfg.DealBreaker,
		cityAllowed:  cfg.IsCityAllowed,
		cityOrder:    cfg.CityNames(),
	}
	return f
}

// PassesAll runs every check in order and reports the first failure
func (f *Filter) PassesAll(raw *models.RawListing) (bool, string) {
	checks := []func(*models.RawListing) (bool, string){
		f.checkPrice,
		f.checkRooms,
		f.checkSize,
		f.checkDealBreakers,
		f.checkCity,
	}
	for _, check := range checks {
		if ok, reason := check(raw); !ok {
			return false, reason
		}
	}
	return true, ""
}

func (f *Filter) checkPrice(raw *models.RawListing) (bool, string) {
	if raw.Price == nil || *raw.Price == 0 || f.maxPrice <= 0 {
		return true, ""
	}
	if *raw.Price > f.maxPrice {
		return false, fmt.Sprintf("price %.0f exceeds max %.0f", *raw.Price, f.maxPrice)
	}
	return true, ""
}

func (f *Filter) checkRooms(raw *models.RawListing) (bool, string) {
	if raw.Rooms == nil || *raw.Rooms == 0 {
		return true, ""
	}
	if *raw.Rooms < f.minRooms {
		return false, fmt.Sprintf("rooms %g below min %g", *raw.Rooms, f.minRooms)
	}
	return true, ""
}

func (f *Filter) checkSize(raw *models.RawListing) (bool, string) {
	if raw.SizeSqm == nil || *raw.SizeSqm == 0 {
		return true, ""
	}
	if *raw.SizeSqm < f.minSize {
		return false, fmt.Sprintf("size %gsqm below min %gsqm", *raw.SizeSqm, f.minSize)
	}
	return true, ""
}

func (f *Filter) checkDealBreakers(raw *models.RawListing) (bool, string) {
	db := f.dealBreakers

	if raw.Floor != nil {
		floor := *raw.Floor
		if db.ExcludeGroundFloor && floor == 0 {
			return false, "ground floor excluded"
		}
		if db.RequireElevatorAboveFloor > 0 && floor > db.RequireElevatorAboveFloor && !models.Flag(raw.HasElevator) {
			return false, fmt.Sprintf("floor %d without elevator", floor)
		}
	}
	if db.RequireParking && !models.Flag(raw.HasParking) {
		return false, "parking required"
	}
	if db.RequireMamad && !models.Flag(raw.HasMamad) {
		return false, "mamad required"
	}
	return true, ""
}

func (f *Filter) checkCity(raw *models.RawListing) (bool, string) {
	if raw.City == "" {
		return true, ""
	}
	if !f.cityAllowed(raw.City) {
		return false, fmt.Sprintf("city %s not in search list", raw.City)
	}
	return true, ""
}

// Summary describes the active criteria in one line per rule
func (f *Filter) Summary() []string {
	db := f.dealBreakers
	lines := []string{
		fmt.Sprintf("Max price: %.0f", f.maxPrice),
		fmt.Sprintf("Min rooms: %g", f.minRooms),
		fmt.Sprintf("Min size: %gsqm", f.minSize),
	}
	if db.ExcludeGroundFloor {
		lines = append(lines, "Excluding ground floor")
	}
	if db.RequireElevatorAboveFloor > 0 {
		lines = append(lines, fmt.Sprintf("Elevator required above floor %d", db.RequireElevatorAboveFloor))
	}
	if db.RequireParking {
		lines = append(lines, "Parking required")
	}
	if db.RequireMamad {
		lines = append(lines, "Mamad required")
	}
	if len(f.cityOrder) > 0 {
		lines = append(lines, "Cities: "+strings.Join(f.cityOrder, ", "))
	}
	return lines
}
