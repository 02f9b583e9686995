// Package booking refreshes booking snapshots from the source and answers slot queries over them.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"gymbook/internal/account"
	"gymbook/internal/models"
	"gymbook/internal/slots"
	"gymbook/internal/source"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var (
	ErrAccountUnknown = errors.New("member account unknown")
	ErrInvalidScope   = errors.New("invalid booking scope")
)

// Scope selects whose bookings a snapshot covers.
type Scope string

const (
	// ScopeSelf covers the resolved member only.
	ScopeSelf Scope = "self"
	// ScopeVenue covers every member, so conflicts mean venue-wide occupancy.
	ScopeVenue Scope = "venue"
)

// ParseScope validates a configured scope value.
func ParseScope(s string) (Scope, error) {
	switch Scope(strings.ToLower(strings.TrimSpace(s))) {
	case ScopeSelf:
		return ScopeSelf, nil
	case ScopeVenue:
		return ScopeVenue, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidScope, s)
	}
}

// Aggregator fetches both booking kinds and publishes immutable snapshots.
type Aggregator struct {
	courses    source.CourseLister
	coaches    source.CoachLister
	accounts   account.Resolver
	scope      Scope
	fetchLimit int
	logger     zerolog.Logger

	generation atomic.Uint64
	current    atomic.Pointer[slots.Snapshot]
}

// NewAggregator wires the booking sources. accounts may be nil for the venue scope.
func NewAggregator(courses source.CourseLister, coaches source.CoachLister, accounts account.Resolver, scope Scope, fetchLimit int, logger *zerolog.Logger) (*Aggregator, error) {
	if courses == nil || coaches == nil {
		return nil, errors.New("booking sources are required")
	}
	if scope != ScopeSelf && scope != ScopeVenue {
		return nil, fmt.Errorf("%w: %q", ErrInvalidScope, scope)
	}
	if fetchLimit < source.MinFetchLimit {
		fetchLimit = source.MinFetchLimit
	}

	a := &Aggregator{
		courses:    courses,
		coaches:    coaches,
		accounts:   accounts,
		scope:      scope,
		fetchLimit: fetchLimit,
		logger:     logger.With().Str("component", "aggregator").Str("scope", string(scope)).Logger(),
	}
	a.current.Store(slots.EmptySnapshot())

	if scope == ScopeVenue {
		a.logger.Info().Msg("venue scope: conflicts reflect occupancy across all members")
	}
	return a, nil
}

// Scope returns the configured scope.
func (a *Aggregator) Scope() Scope {
	return a.scope
}

// Current returns the latest published snapshot. It is never nil.
func (a *Aggregator) Current() *slots.Snapshot {
	return a.current.Load()
}

// Refresh fetches course and coach bookings concurrently and builds a new snapshot.
// On failure the previously published snapshot stays in place.
// A snapshot is published only if no refresh that started later has been published already;
// the returned snapshot may therefore be older than Current.
func (a *Aggregator) Refresh(ctx context.Context) (*slots.Snapshot, error) {
	gen := a.generation.Add(1)

	acct, err := a.filter(ctx)
	if err != nil {
		return nil, err
	}
	req := source.ListRequest{AccountFilter: acct, Page: 1, Limit: a.fetchLimit}

	var (
		courses []models.CourseBooking
		coaches []models.CoachBooking
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		list, err := a.courses.ListCourseBookings(gctx, req)
		if err != nil {
			return fmt.Errorf("fetch course bookings: %w", err)
		}
		if list != nil {
			courses = list.List
		}
		return nil
	})
	g.Go(func() error {
		list, err := a.coaches.ListCoachBookings(gctx, req)
		if err != nil {
			return fmt.Errorf("fetch coach bookings: %w", err)
		}
		if list != nil {
			coaches = list.List
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := slots.BuildSnapshot(courses, coaches, slots.Meta{
		Scope:      string(a.scope),
		Account:    acct,
		Generation: gen,
	})
	if snap.Skipped > 0 {
		a.logger.Debug().Int("skipped", snap.Skipped).Uint64("generation", gen).Msg("bookings with unparsable slot time skipped")
	}

	if !a.publish(snap) {
		a.logger.Debug().Uint64("generation", gen).Msg("newer snapshot already published")
	}
	return snap, nil
}

func (a *Aggregator) filter(ctx context.Context) (string, error) {
	if a.scope == ScopeVenue {
		return "", nil
	}
	if a.accounts == nil {
		return "", ErrAccountUnknown
	}
	acct, ok := a.accounts.Resolve(ctx)
	if !ok {
		return "", ErrAccountUnknown
	}
	return acct, nil
}

func (a *Aggregator) publish(snap *slots.Snapshot) bool {
	for {
		cur := a.current.Load()
		if cur.Generation > snap.Generation {
			return false
		}
		if a.current.CompareAndSwap(cur, snap) {
			return true
		}
	}
}
