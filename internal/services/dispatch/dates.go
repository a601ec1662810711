package dispatch

import (
	"strings"
	"time"

	"github.com/BearBump/ShipReport/internal/models"
)

// Форматы, которые встречались в ответах НП.
var carrierDateLayouts = []string{
	"15:04 02.01.2006",
	"02-01-2006 15:04:05",
	"02.01.2006 15:04:05",
	"2006-01-02 15:04:05",
	"02.01.2006",
	"2006-01-02",
}

// ParseCarrierDate returns the calendar date of a carrier timestamp.
// When no layout matches, the first ten characters are tried as a bare date.
func ParseCarrierDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range carrierDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return models.DateOf(t), true
		}
	}
	if len(s) >= 10 {
		head := s[:10]
		for _, layout := range []string{"2006-01-02", "02-01-2006"} {
			if t, err := time.Parse(layout, head); err == nil {
				return models.DateOf(t), true
			}
		}
	}
	return time.Time{}, false
}
