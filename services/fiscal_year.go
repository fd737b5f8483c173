package services

import (
	"fmt"
	"time"
)

// FiscalYear returns the Indian fiscal year (April to March) of t as
// "25-26". The zero time has no fiscal year.
func FiscalYear(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	start := t.Year()
	if t.Month() < time.April {
		start--
	}
	return fmt.Sprintf("%02d-%02d", start%100, (start+1)%100)
}
