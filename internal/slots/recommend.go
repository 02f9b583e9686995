package slots

import (
	"sort"
)

// CandidateSlot is a named daily time offered to members.
type CandidateSlot struct {
	Time   string `json:"time" yaml:"time"`     // "18:30"
	Period string `json:"period" yaml:"period"` // "傍晚"
}

// DefaultCatalog is the stock set of daily candidate times.
var DefaultCatalog = []CandidateSlot{
	{Time: "06:30", Period: "清晨"},
	{Time: "09:00", Period: "上午"},
	{Time: "14:00", Period: "下午"},
	{Time: "18:30", Period: "傍晚"},
	{Time: "22:00", Period: "夜间"},
}

// Reason texts attached to suggestions.
const (
	ReasonPreferred    = "matches your preferred time"
	ReasonAmple        = "ample capacity"
	ReasonGood         = "good capacity"
	ReasonModerate     = "moderate capacity"
	ReasonTight        = "tight capacity"
	ReasonConflict     = "has conflict, not recommended"
	ReasonEvening      = "evening favored"
	ReasonDaytime      = "daytime slightly favored"
	ReasonAvailable    = "available"
	defaultLimit       = 3
	defaultMinScore    = 8
	baseScore          = 10
	conflictPenalty    = 5
	preferredBonus     = 4
	tightPenalty       = 2
	ampleRemaining     = 10
	goodRemaining      = 8
	moderateRemaining  = 5
	tightRemainingUpTo = 2
)

// Suggestion is a scored candidate slot.
type Suggestion struct {
	Time      string `json:"time"`
	Period    string `json:"period"`
	Score     int    `json:"score"`
	Reason    string `json:"reason"`
	Remaining int    `json:"remaining"`
	Conflict  bool   `json:"conflict"`
}

// Recommender ranks candidate slots for a date against a snapshot.
type Recommender struct {
	Catalog  []CandidateSlot
	Capacity int
	Limit    int // suggestions returned
	MinScore int // threshold for Best
}

// NewRecommender returns a recommender with the default catalog and limits.
func NewRecommender(capacity int) *Recommender {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Recommender{
		Catalog:  DefaultCatalog,
		Capacity: capacity,
		Limit:    defaultLimit,
		MinScore: defaultMinScore,
	}
}

// candidate holds the facts a slot is scored on.
type candidate struct {
	slot      CandidateSlot
	conflict  bool
	remaining int
	preferred bool
	hour      int
}

// reasonRule maps a condition to a reason text; the highest matching priority wins.
type reasonRule struct {
	priority int
	match    func(c *candidate) bool
	text     func(c *candidate) string
}

func fixed(s string) func(*candidate) string {
	return func(*candidate) string { return s }
}

var reasonRules = []reasonRule{
	{
		priority: 40,
		match:    func(c *candidate) bool { return c.preferred },
		text:     fixed(ReasonPreferred),
	},
	{
		priority: 30,
		match: func(c *candidate) bool {
			return c.remaining >= moderateRemaining || c.remaining <= tightRemainingUpTo
		},
		text: func(c *candidate) string {
			switch {
			case c.remaining >= ampleRemaining:
				return ReasonAmple
			case c.remaining >= goodRemaining:
				return ReasonGood
			case c.remaining >= moderateRemaining:
				return ReasonModerate
			default:
				return ReasonTight
			}
		},
	},
	{
		priority: 20,
		match:    func(c *candidate) bool { return c.conflict },
		text:     fixed(ReasonConflict),
	},
	{
		priority: 10,
		match:    func(c *candidate) bool { return isEvening(c.hour) },
		text:     fixed(ReasonEvening),
	},
	{
		priority: 10,
		match:    func(c *candidate) bool { return isDaytime(c.hour) },
		text:     fixed(ReasonDaytime),
	},
}

func isDaytime(hour int) bool { return hour >= 8 && hour <= 12 }
func isEvening(hour int) bool { return hour >= 18 && hour <= 21 }

func (c *candidate) score() int {
	score := baseScore
	if c.conflict {
		score -= conflictPenalty
	}
	switch {
	case c.remaining >= goodRemaining:
		score += 3
	case c.remaining >= moderateRemaining:
		score++
	case c.remaining <= tightRemainingUpTo:
		score -= tightPenalty
	}
	if c.preferred {
		score += preferredBonus
	}
	switch {
	case isDaytime(c.hour):
		score++
	case isEvening(c.hour):
		score += 2
	}
	return score
}

func (c *candidate) reason() string {
	best, text := -1, ReasonAvailable
	for i := range reasonRules {
		r := &reasonRules[i]
		if r.priority > best && r.match(c) {
			best, text = r.priority, r.text(c)
		}
	}
	return text
}

// Suggest scores every catalog slot on date and returns the best Limit of them,
// highest score first. Equal scores keep catalog order.
func (r *Recommender) Suggest(snap *Snapshot, date, preferred string) []Suggestion {
	suggestions := make([]Suggestion, 0, len(r.Catalog))
	for _, slot := range r.Catalog {
		c := candidate{
			slot:      slot,
			conflict:  snap.HasConflict(date, slot.Time),
			remaining: snap.Remaining(date, slot.Time, r.capacity()),
			preferred: preferred != "" && preferred == slot.Time,
			hour:      hourOf(slot.Time),
		}
		suggestions = append(suggestions, Suggestion{
			Time:      slot.Time,
			Period:    slot.Period,
			Score:     c.score(),
			Reason:    c.reason(),
			Remaining: c.remaining,
			Conflict:  c.conflict,
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Score > suggestions[j].Score
	})

	if limit := r.limit(); len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions
}

// Best returns the top suggestion scoring at least MinScore.
func (r *Recommender) Best(snap *Snapshot, date string) (*Suggestion, bool) {
	for _, s := range r.Suggest(snap, date, "") {
		if s.Score >= r.minScore() {
			return &s, true
		}
	}
	return nil, false
}

func (r *Recommender) capacity() int {
	if r.Capacity <= 0 {
		return DefaultCapacity
	}
	return r.Capacity
}

func (r *Recommender) limit() int {
	if r.Limit <= 0 {
		return defaultLimit
	}
	return r.Limit
}

func (r *Recommender) minScore() int {
	if r.MinScore <= 0 {
		return defaultMinScore
	}
	return r.MinScore
}
