package config

import "strings"

// splitList splits a comma separated env value, dropping blanks
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// CityNames returns the configured city allow-list. Empty means any city.
func (c *Config) CityNames() []string {
	return splitList(c.Search.Cities)
}

// HighPriorityNeighborhoods returns the configured neighborhood list
func (c *Config) HighPriorityNeighborhoods() []string {
	return splitList(c.Notify.HighPriorityHoods)
}

// IsCityAllowed reports whether a city passes the allow-list
func (c *Config) IsCityAllowed(city string) bool {
	names := c.CityNames()
	if len(names) == 0 {
		return true
	}
	for _, name := range names {
		if name == city {
			return true
		}
	}
	return false
}
