package models

// Booking kinds.
const (
	KindCourse = "course"
	KindCoach  = "coach"
)

// CourseBooking is a reservation for a group class.
type CourseBooking struct {
	ID         int64  `json:"id"`
	Account    string `json:"account"`
	CourseName string `json:"course_name"`
	CoachName  string `json:"coach_name,omitempty"` // optional
	SlotTime   string `json:"slot_time"`            // "YYYY-MM-DD HH:MM:SS"
}

// CoachBooking is a personal-training reservation.
type CoachBooking struct {
	ID        int64    `json:"id"`
	Account   string   `json:"account"`
	CoachName string   `json:"coach_name"`
	Price     *float64 `json:"price,omitempty"` // nil when the session has no price
	SlotTime  string   `json:"slot_time"`       // "YYYY-MM-DD HH:MM:SS"
}

// HasCoach reports whether the class names a coach.
func (b *CourseBooking) HasCoach() bool {
	return b.CoachName != ""
}

// HasPrice reports whether the session carries a price.
func (b *CoachBooking) HasPrice() bool {
	return b.Price != nil
}

// PriceOf is a helper for building priced coach bookings.
func PriceOf(v float64) *float64 {
	return &v
}
