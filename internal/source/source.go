// Package source defines the contract for reading existing bookings from the backing store.
package source

import (
	"context"

	"gymbook/internal/models"
)

// MinFetchLimit is the smallest page size used when loading "all" bookings of a member.
const MinFetchLimit = 200

// ListRequest selects bookings. An empty AccountFilter lists bookings of every member.
type ListRequest struct {
	AccountFilter string `json:"account,omitempty"`
	Page          int    `json:"page"`
	Limit         int    `json:"limit"`
}

// CourseList is one page of course bookings.
type CourseList struct {
	List []models.CourseBooking `json:"list"`
}

// CoachList is one page of personal-training bookings.
type CoachList struct {
	List []models.CoachBooking `json:"list"`
}

// CourseLister lists group-class bookings.
type CourseLister interface {
	ListCourseBookings(ctx context.Context, req ListRequest) (*CourseList, error)
}

// CoachLister lists personal-training bookings.
type CoachLister interface {
	ListCoachBookings(ctx context.Context, req ListRequest) (*CoachList, error)
}

// Lister provides both booking kinds.
type Lister interface {
	CourseLister
	CoachLister
}

// Normalize fills page and limit defaults.
func (r ListRequest) Normalize() ListRequest {
	if r.Page <= 0 {
		r.Page = 1
	}
	if r.Limit < MinFetchLimit {
		r.Limit = MinFetchLimit
	}
	return r
}

// Offset returns the zero-based row offset of the page.
func (r ListRequest) Offset() int {
	n := r.Normalize()
	return (n.Page - 1) * n.Limit
}
