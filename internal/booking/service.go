package booking

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"gymbook/internal/events"
	"gymbook/internal/metrics"
	"gymbook/internal/slots"

	"github.com/rs/zerolog"
)

// Options tunes the recommender. Zero values fall back to the slot package defaults.
type Options struct {
	Capacity    int
	Suggestions int
	MinScore    int
	Catalog     []slots.CandidateSlot
}

// Service answers conflict, capacity and suggestion queries over the latest snapshot.
type Service struct {
	agg    *Aggregator
	rec    atomic.Pointer[slots.Recommender]
	bus    *events.EventBus
	logger zerolog.Logger
}

// NewService builds the facade. bus may be nil.
func NewService(agg *Aggregator, opts Options, bus *events.EventBus, logger *zerolog.Logger) *Service {
	s := &Service{
		agg:    agg,
		bus:    bus,
		logger: logger.With().Str("component", "booking").Logger(),
	}

	rec := slots.NewRecommender(opts.Capacity)
	if opts.Suggestions > 0 {
		rec.Limit = opts.Suggestions
	}
	if opts.MinScore > 0 {
		rec.MinScore = opts.MinScore
	}
	if len(opts.Catalog) > 0 {
		rec.Catalog = append([]slots.CandidateSlot(nil), opts.Catalog...)
	}
	s.rec.Store(rec)
	return s
}

// Refresh rebuilds the snapshot from the booking source.
func (s *Service) Refresh(ctx context.Context) (*slots.Snapshot, error) {
	start := time.Now()
	snap, err := s.agg.Refresh(ctx)
	took := time.Since(start)

	if err != nil {
		metrics.ObserveRefresh("error", took)
		level := s.logger.Error()
		if errors.Is(err, ErrAccountUnknown) {
			level = s.logger.Warn()
		}
		level.Err(err).Dur("took", took).Msg("snapshot refresh failed")
		s.publish(events.SnapshotRefreshFailed, events.RefreshPayload{
			Scope: string(s.agg.Scope()),
			Error: err.Error(),
		})
		return nil, err
	}

	result := "ok"
	if cur := s.agg.Current(); cur != snap {
		result = "stale"
	}
	metrics.ObserveRefresh(result, took)
	metrics.AddSkipped(snap.Skipped)
	metrics.SetSnapshotSlots(s.agg.Current().Len())

	s.logger.Info().
		Str("snapshot_id", snap.ID).
		Uint64("generation", snap.Generation).
		Int("courses", snap.Courses).
		Int("coaches", snap.Coaches).
		Int("skipped", snap.Skipped).
		Str("result", result).
		Dur("took", took).
		Msg("snapshot refreshed")

	s.publish(events.SnapshotRefreshed, events.RefreshPayload{
		SnapshotID: snap.ID,
		Generation: snap.Generation,
		Scope:      snap.Scope,
		Account:    snap.Account,
		Courses:    snap.Courses,
		Coaches:    snap.Coaches,
		Skipped:    snap.Skipped,
	})
	return snap, nil
}

func (s *Service) publish(eventType string, payload events.RefreshPayload) {
	if s.bus == nil {
		return
	}
	if err := s.bus.PublishJSON(eventType, payload); err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Msg("publish event")
	}
}

// Snapshot returns the latest published snapshot.
func (s *Service) Snapshot() *slots.Snapshot {
	return s.agg.Current()
}

func (s *Service) UsageAt(date, hhmm string) (slots.Usage, bool) {
	return s.Snapshot().UsageAt(date, hhmm)
}

func (s *Service) HasConflict(date, hhmm string) bool {
	conflict := s.Snapshot().HasConflict(date, hhmm)
	metrics.IncConflictCheck(conflict)
	return conflict
}

func (s *Service) ConflictDetails(date, hhmm string) []string {
	return s.Snapshot().ConflictDetails(date, hhmm)
}

func (s *Service) ConflictSummary(date, hhmm string) *slots.ConflictSummary {
	return s.Snapshot().ConflictSummary(date, hhmm)
}

func (s *Service) ConflictMessage(date, hhmm string) string {
	return s.Snapshot().ConflictMessage(date, hhmm)
}

// Remaining returns free seats; capacity <= 0 uses the configured capacity.
func (s *Service) Remaining(date, hhmm string, capacity int) int {
	if capacity <= 0 {
		capacity = s.Capacity()
	}
	return s.Snapshot().Remaining(date, hhmm, capacity)
}

// Capacity returns the configured per-slot capacity.
func (s *Service) Capacity() int {
	return s.rec.Load().Capacity
}

// TimeSuggestions ranks the candidate catalog for date.
func (s *Service) TimeSuggestions(date, preferred string) []slots.Suggestion {
	metrics.IncSuggestions("list")
	return s.rec.Load().Suggest(s.Snapshot(), date, preferred)
}

// BestAvailableTime returns the top suggestion that clears the minimum score.
func (s *Service) BestAvailableTime(date string) (*slots.Suggestion, bool) {
	metrics.IncSuggestions("best")
	return s.rec.Load().Best(s.Snapshot(), date)
}

// Catalog returns a copy of the active candidate catalog.
func (s *Service) Catalog() []slots.CandidateSlot {
	return append([]slots.CandidateSlot(nil), s.rec.Load().Catalog...)
}

// SetCatalog swaps the candidate catalog used by later suggestion calls.
func (s *Service) SetCatalog(catalog []slots.CandidateSlot) {
	if len(catalog) == 0 {
		return
	}
	next := *s.rec.Load()
	next.Catalog = append([]slots.CandidateSlot(nil), catalog...)
	s.rec.Store(&next)

	s.logger.Info().Int("slots", len(catalog)).Msg("candidate catalog updated")
	if s.bus != nil {
		if err := s.bus.PublishJSON(events.CatalogReloaded, catalog); err != nil {
			s.logger.Warn().Err(err).Msg("publish catalog event")
		}
	}
}
