package slots

import (
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar date format shared by bookings, keys and the API.
const DateLayout = "2006-01-02"

// Slot is a calendar date plus a minute-precision time of day.
type Slot struct {
	Date string // "2024-05-01"
	Time string // "08:00"
}

// Key returns the aggregation key for the slot.
func (s Slot) Key() string {
	return Key(s.Date, s.Time)
}

// Key builds the lookup key "date_time". It is a map convenience, not a validated calendar value.
func Key(date, hhmm string) string {
	return date + "_" + hhmm
}

// ParseSlot splits a "YYYY-MM-DD HH:MM:SS" timestamp into its date and minute-truncated time.
// It fails unless the input has exactly two non-empty space-separated tokens.
func ParseSlot(ts string) (Slot, bool) {
	parts := strings.Split(ts, " ")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Slot{}, false
	}

	hhmm := parts[1]
	if len(hhmm) > 5 {
		hhmm = hhmm[:5]
	}
	return Slot{Date: parts[0], Time: hhmm}, true
}

// FormatDate renders t in the date format used by slot keys.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate validates a "YYYY-MM-DD" date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// ValidTime reports whether s is a "HH:MM" time of day.
func ValidTime(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil && len(s) == 5
}

// hourOf returns the hour of a "HH:MM" label, or -1 when it cannot be read.
func hourOf(hhmm string) int {
	parts := strings.SplitN(hhmm, ":", 2)
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return -1
	}
	return h
}
