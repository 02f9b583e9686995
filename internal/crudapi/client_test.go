package crudapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"gymbook/internal/models"
	"gymbook/internal/source"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/course-bookings", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		assert.Equal(t, "key", r.Header.Get("x-api-key"))
		assert.Equal(t, "m1", r.URL.Query().Get("account"))
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		assert.Equal(t, "500", r.URL.Query().Get("limit"))
		_ = json.NewEncoder(w).Encode(source.CourseList{List: []models.CourseBooking{
			{ID: 1, Account: "m1", CourseName: "Yoga", CoachName: "Li", SlotTime: "2024-05-01 09:00:00"},
		}})
	})
	mux.HandleFunc("/api/coach-bookings", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		assert.Empty(t, r.URL.Query().Get("account"))
		_ = json.NewEncoder(w).Encode(source.CoachList{List: []models.CoachBooking{
			{ID: 2, Account: "m2", CoachName: "Wang", Price: models.PriceOf(199), SlotTime: "2024-05-01 18:30:00"},
		}})
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_List(t *testing.T) {
	var hits int32
	srv := newBackend(t, &hits)
	c := NewClient(srv.URL, "key", time.Second)
	ctx := context.Background()

	courses, err := c.ListCourseBookings(ctx, source.ListRequest{AccountFilter: "m1", Limit: 500})
	require.NoError(t, err)
	require.Len(t, courses.List, 1)
	assert.Equal(t, "Yoga", courses.List[0].CourseName)

	coaches, err := c.ListCoachBookings(ctx, source.ListRequest{})
	require.NoError(t, err)
	require.Len(t, coaches.List, 1)
	require.NotNil(t, coaches.List[0].Price)
	assert.InDelta(t, 199.0, *coaches.List[0].Price, 0.001)

	assert.NoError(t, c.HealthCheck(ctx))
}

func TestClient_UnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	_, err := c.ListCourseBookings(context.Background(), source.ListRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Contains(t, err.Error(), "list course bookings")
	assert.Error(t, c.HealthCheck(context.Background()))
}

func TestClient_RedisCache(t *testing.T) {
	var hits int32
	srv := newBackend(t, &hits)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	c := NewClient(srv.URL, "key", time.Second)
	c.UseRedisCache(rdb, time.Minute)
	ctx := context.Background()
	req := source.ListRequest{AccountFilter: "m1", Limit: 500}

	first, err := c.ListCourseBookings(ctx, req)
	require.NoError(t, err)
	second, err := c.ListCourseBookings(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))

	require.NoError(t, c.Invalidate(ctx, "m1"))
	_, err = c.ListCourseBookings(ctx, req)
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&hits))
}

func TestClient_RateLimitHonoursContext(t *testing.T) {
	var hits int32
	srv := newBackend(t, &hits)
	c := NewClient(srv.URL, "key", time.Second)
	c.UseRateLimit(0.001, 1)

	ctx := context.Background()
	_, err := c.ListCoachBookings(ctx, source.ListRequest{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = c.ListCoachBookings(ctx, source.ListRequest{})
	assert.Error(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}
