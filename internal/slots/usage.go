package slots

import (
	"sort"
	"strings"
	"time"

	"gymbook/internal/models"

	"github.com/google/uuid"
)

// Usage aggregates the bookings that share one slot.
type Usage struct {
	CourseCount int                    `json:"course_count"`
	CoachCount  int                    `json:"coach_count"`
	CourseItems []models.CourseBooking `json:"course_items"`
	CoachItems  []models.CoachBooking  `json:"coach_items"`
}

// Total returns the number of bookings of any kind in the slot.
func (u Usage) Total() int {
	return u.CourseCount + u.CoachCount
}

// Meta describes how a snapshot was produced.
type Meta struct {
	Scope      string
	Account    string
	Generation uint64
}

// Snapshot is an immutable usage index built from one fetch of both booking lists.
// All query methods are read-only and safe for concurrent use.
type Snapshot struct {
	ID         string    `json:"id"`
	Scope      string    `json:"scope"`
	Account    string    `json:"account,omitempty"`
	Generation uint64    `json:"generation"`
	BuiltAt    time.Time `json:"built_at"`
	Courses    int       `json:"courses"`
	Coaches    int       `json:"coaches"`
	Skipped    int       `json:"skipped"`

	usage map[string]*Usage
}

// EmptySnapshot returns a snapshot with no bookings.
func EmptySnapshot() *Snapshot {
	return &Snapshot{usage: map[string]*Usage{}}
}

// BuildSnapshot indexes course bookings, then coach bookings, by slot key.
// Records whose slot time cannot be parsed are skipped and counted.
func BuildSnapshot(courses []models.CourseBooking, coaches []models.CoachBooking, meta Meta) *Snapshot {
	s := &Snapshot{
		ID:         uuid.NewString(),
		Scope:      meta.Scope,
		Account:    meta.Account,
		Generation: meta.Generation,
		BuiltAt:    time.Now(),
		Courses:    len(courses),
		Coaches:    len(coaches),
		usage:      make(map[string]*Usage),
	}

	for _, c := range courses {
		slot, ok := ParseSlot(c.SlotTime)
		if !ok {
			s.Skipped++
			continue
		}
		u := s.entry(slot.Key())
		u.CourseCount++
		u.CourseItems = append(u.CourseItems, c)
	}

	for _, c := range coaches {
		slot, ok := ParseSlot(c.SlotTime)
		if !ok {
			s.Skipped++
			continue
		}
		u := s.entry(slot.Key())
		u.CoachCount++
		u.CoachItems = append(u.CoachItems, c)
	}

	return s
}

func (s *Snapshot) entry(key string) *Usage {
	u, ok := s.usage[key]
	if !ok {
		u = &Usage{}
		s.usage[key] = u
	}
	return u
}

// UsageAt returns the usage recorded for a slot. ok is false when the slot has no bookings.
// The returned item slices are copies.
func (s *Snapshot) UsageAt(date, hhmm string) (Usage, bool) {
	if s == nil {
		return Usage{}, false
	}
	u, ok := s.usage[Key(date, hhmm)]
	if !ok {
		return Usage{}, false
	}
	return Usage{
		CourseCount: u.CourseCount,
		CoachCount:  u.CoachCount,
		CourseItems: append([]models.CourseBooking(nil), u.CourseItems...),
		CoachItems:  append([]models.CoachBooking(nil), u.CoachItems...),
	}, true
}

// Len returns the number of occupied slots.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.usage)
}

// usedAt returns the total bookings in a slot without copying items.
func (s *Snapshot) usedAt(date, hhmm string) (course, coach int) {
	if s == nil {
		return 0, 0
	}
	u, ok := s.usage[Key(date, hhmm)]
	if !ok {
		return 0, 0
	}
	return u.CourseCount, u.CoachCount
}

// SlotsOn returns the occupied times on date in ascending order.
func (s *Snapshot) SlotsOn(date string) []string {
	if s == nil {
		return nil
	}
	prefix := date + "_"
	var times []string
	for key := range s.usage {
		if hhmm, ok := strings.CutPrefix(key, prefix); ok && hhmm != "" {
			times = append(times, hhmm)
		}
	}
	sort.Strings(times)
	return times
}
