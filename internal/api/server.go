// Package api exposes the slot engine over HTTP.
package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"gymbook/internal/booking"
	"gymbook/internal/report"
	"gymbook/internal/slots"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// SlotService is the part of booking.Service the API serves.
type SlotService interface {
	Refresh(ctx context.Context) (*slots.Snapshot, error)
	Snapshot() *slots.Snapshot
	UsageAt(date, hhmm string) (slots.Usage, bool)
	HasConflict(date, hhmm string) bool
	ConflictDetails(date, hhmm string) []string
	ConflictSummary(date, hhmm string) *slots.ConflictSummary
	ConflictMessage(date, hhmm string) string
	Remaining(date, hhmm string, capacity int) int
	Capacity() int
	TimeSuggestions(date, preferred string) []slots.Suggestion
	BestAvailableTime(date string) (*slots.Suggestion, bool)
	Catalog() []slots.CandidateSlot
}

var _ SlotService = (*booking.Service)(nil)

// Options configures the inbound rate limit. RatePerSecond <= 0 disables it.
type Options struct {
	RatePerSecond float64
	Burst         int
}

// Server routes HTTP requests to the slot service.
type Server struct {
	svc    SlotService
	logger zerolog.Logger
	engine *gin.Engine
}

type errorResponse struct {
	Error string `json:"error"`
}

type usageResponse struct {
	Date string `json:"date"`
	Time string `json:"time"`
	slots.Usage
}

type conflictResponse struct {
	Date        string                 `json:"date"`
	Time        string                 `json:"time"`
	HasConflict bool                   `json:"has_conflict"`
	Details     []string               `json:"details"`
	Summary     *slots.ConflictSummary `json:"summary"`
	Message     string                 `json:"message"`
}

type remainingResponse struct {
	Date      string `json:"date"`
	Time      string `json:"time"`
	Capacity  int    `json:"capacity"`
	Remaining int    `json:"remaining"`
}

type suggestionsResponse struct {
	Date        string             `json:"date"`
	Preferred   string             `json:"preferred,omitempty"`
	Suggestions []slots.Suggestion `json:"suggestions"`
}

// NewServer builds the gin engine with logging, request IDs and rate limiting.
func NewServer(svc SlotService, opts Options, logger *zerolog.Logger) *Server {
	s := &Server{
		svc:    svc,
		logger: logger.With().Str("component", "api").Logger(),
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), requestID(), accessLog(&s.logger))
	if opts.RatePerSecond > 0 {
		engine.Use(rateLimit(newClientLimiters(opts.RatePerSecond, opts.Burst), &s.logger))
	}

	engine.GET("/healthz", s.handleHealth)

	v1 := engine.Group("/api/v1")
	{
		v1.POST("/refresh", s.handleRefresh)
		v1.GET("/slots/usage", s.handleUsage)
		v1.GET("/slots/conflict", s.handleConflict)
		v1.GET("/slots/remaining", s.handleRemaining)
		v1.GET("/suggestions", s.handleSuggestions)
		v1.GET("/suggestions/best", s.handleBest)
		v1.GET("/reports/day", s.handleDayReport)
	}

	s.engine = engine
	return s
}

// Handler returns the http.Handler serving all routes.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) handleHealth(c *gin.Context) {
	snap := s.svc.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"snapshot_id": snap.ID,
		"generation":  snap.Generation,
		"built_at":    snap.BuiltAt,
	})
}

func (s *Server) handleRefresh(c *gin.Context) {
	snap, err := s.svc.Refresh(c.Request.Context())
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, booking.ErrAccountUnknown) {
			status = http.StatusConflict
		}
		c.JSON(status, errorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) handleUsage(c *gin.Context) {
	date, hhmm, ok := slotParams(c)
	if !ok {
		return
	}
	u, _ := s.svc.UsageAt(date, hhmm)
	c.JSON(http.StatusOK, usageResponse{Date: date, Time: hhmm, Usage: u})
}

func (s *Server) handleConflict(c *gin.Context) {
	date, hhmm, ok := slotParams(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, conflictResponse{
		Date:        date,
		Time:        hhmm,
		HasConflict: s.svc.HasConflict(date, hhmm),
		Details:     s.svc.ConflictDetails(date, hhmm),
		Summary:     s.svc.ConflictSummary(date, hhmm),
		Message:     s.svc.ConflictMessage(date, hhmm),
	})
}

func (s *Server) handleRemaining(c *gin.Context) {
	date, hhmm, ok := slotParams(c)
	if !ok {
		return
	}

	capacity := s.svc.Capacity()
	if raw := c.Query("capacity"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			badRequest(c, "capacity must be a positive integer")
			return
		}
		capacity = v
	}

	c.JSON(http.StatusOK, remainingResponse{
		Date:      date,
		Time:      hhmm,
		Capacity:  capacity,
		Remaining: s.svc.Remaining(date, hhmm, capacity),
	})
}

func (s *Server) handleSuggestions(c *gin.Context) {
	date, ok := dateParam(c)
	if !ok {
		return
	}
	preferred := c.Query("preferred")
	if preferred != "" && !slots.ValidTime(preferred) {
		badRequest(c, "invalid preferred format; expected HH:MM")
		return
	}
	c.JSON(http.StatusOK, suggestionsResponse{
		Date:        date,
		Preferred:   preferred,
		Suggestions: s.svc.TimeSuggestions(date, preferred),
	})
}

func (s *Server) handleBest(c *gin.Context) {
	date, ok := dateParam(c)
	if !ok {
		return
	}
	best, found := s.svc.BestAvailableTime(date)
	if !found {
		c.JSON(http.StatusNotFound, errorResponse{Error: "no suitable time slot"})
		return
	}
	c.JSON(http.StatusOK, best)
}

func (s *Server) handleDayReport(c *gin.Context) {
	date, ok := dateParam(c)
	if !ok {
		return
	}

	r := report.DayReport{
		Date:        date,
		Snapshot:    s.svc.Snapshot(),
		Capacity:    s.svc.Capacity(),
		Catalog:     s.svc.Catalog(),
		Suggestions: s.svc.TimeSuggestions(date, ""),
	}
	var buf bytes.Buffer
	if err := r.Write(&buf); err != nil {
		s.logger.Error().Err(err).Str("date", date).Msg("render day report")
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to render report"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", r.Filename()))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func dateParam(c *gin.Context) (string, bool) {
	date := c.Query("date")
	if date == "" {
		badRequest(c, "date is required")
		return "", false
	}
	if _, err := slots.ParseDate(date); err != nil {
		badRequest(c, "invalid date format; expected YYYY-MM-DD")
		return "", false
	}
	return date, true
}

func slotParams(c *gin.Context) (date, hhmm string, ok bool) {
	if date, ok = dateParam(c); !ok {
		return "", "", false
	}
	hhmm = c.Query("time")
	if hhmm == "" {
		badRequest(c, "time is required")
		return "", "", false
	}
	if !slots.ValidTime(hhmm) {
		badRequest(c, "invalid time format; expected HH:MM")
		return "", "", false
	}
	return date, hhmm, true
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: msg})
}
