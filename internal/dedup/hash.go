package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrMissingAddress is returned when a listing has no address to fingerprint
var ErrMissingAddress = errors.New("listing has no address")

var lower = cases.Lower(language.Und)

// NormalizeAddress lower-cases an address and strips every whitespace rune
func NormalizeAddress(address string) string {
	folded := lower.String(address)
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, folded)
}

// PropertyHash fingerprints a property by normalized address, rooms and size.
// It is the cross-source identity of a listing and must stay stable.
func PropertyHash(address string, rooms, sizeSqm float64) string {
	key := NormalizeAddress(address) + "_" + formatNumber(rooms) + "_" + formatNumber(sizeSqm)
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// HashListing is PropertyHash with the missing-field rules of the ingest
// boundary: no address is an error, missing rooms or size count as zero.
func HashListing(address string, rooms, sizeSqm *float64) (string, error) {
	if strings.TrimSpace(address) == "" {
		return "", ErrMissingAddress
	}
	var r, s float64
	if rooms != nil {
		r = *rooms
	}
	if sizeSqm != nil {
		s = *sizeSqm
	}
	return PropertyHash(address, r, s), nil
}

// formatNumber renders integral values with one decimal ("3.0") so that
// 3 and 3.0 hash identically.
func formatNumber(v float64) string {
	if v == math.Trunc(v) && !math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
