package slots

// DefaultCapacity is the number of reservations one slot holds, shared by every course and coach.
const DefaultCapacity = 12

// Remaining returns the free seats in a slot: capacity minus bookings of any kind, never negative.
func (s *Snapshot) Remaining(date, hhmm string, capacity int) int {
	course, coach := s.usedAt(date, hhmm)
	return max(capacity-(course+coach), 0)
}

// RemainingDefault is Remaining with DefaultCapacity.
func (s *Snapshot) RemainingDefault(date, hhmm string) int {
	return s.Remaining(date, hhmm, DefaultCapacity)
}
