package dedup

import (
	"math"
	"unicode/utf8"

	"github.com/agext/levenshtein"
)

// substitutions cost two edits, which turns the distance into the
// insert/delete metric behind the classic similarity ratio
var ratioParams = levenshtein.NewParams().SubCost(2)

// Ratio returns the case-insensitive similarity of two strings on a 0-100 scale
func Ratio(a, b string) int {
	a, b = lower.String(a), lower.String(b)
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 100
	}
	dist := levenshtein.Distance(a, b, ratioParams)
	return int(math.Round(100 * float64(total-dist) / float64(total)))
}
