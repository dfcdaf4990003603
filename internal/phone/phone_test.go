package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"local dashed", "050-123-4567", "0501234567", true},
		{"international plus", "+972501234567", "0501234567", true},
		{"international dashed", "972-50-1234567", "0501234567", true},
		{"international spaced", "+972 50 123 4567", "0501234567", true},
		{"landline nine digits", "03-1234567", "031234567", true},
		{"too long truncated", "05012345678999", "0501234567", true},
		{"empty", "", "", false},
		{"no digits", "call me", "", false},
		{"too short", "12345", "", false},
		{"too long without leading zero", "12345678901", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeEquivalentForms(t *testing.T) {
	a, _ := Normalize("050-123-4567")
	b, _ := Normalize("+972501234567")
	c, _ := Normalize("972-50-1234567")
	assert.Equal(t, "0501234567", a)
	assert.Equal(t, a, b)
	assert.Equal(t, b, c)
}

func TestNormalizeOrEmpty(t *testing.T) {
	assert.Equal(t, "0501234567", NormalizeOrEmpty("(050) 123 4567"))
	assert.Equal(t, "", NormalizeOrEmpty("n/a"))
}
