// Package crudapi reads bookings from the generic CRUD backend over HTTP.
package crudapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"gymbook/internal/source"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// ErrUnexpectedStatus is returned for non-2xx responses.
var ErrUnexpectedStatus = errors.New("unexpected status")

var (
	_ source.CourseLister = (*Client)(nil)
	_ source.CoachLister  = (*Client)(nil)
)

// Client calls the CRUD backend list endpoints.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter

	redis    *redis.Client
	cacheTTL time.Duration
}

// NewClient constructs a client with baseURL, API key and request timeout.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// UseRedisCache configures optional Redis caching for list responses.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

// UseRateLimit throttles outbound requests to rps with the given burst.
func (c *Client) UseRateLimit(rps float64, burst int) {
	if rps <= 0 {
		c.limiter = nil
		return
	}
	if burst <= 0 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
}

// ListCourseBookings calls GET /api/course-bookings.
func (c *Client) ListCourseBookings(ctx context.Context, req source.ListRequest) (*source.CourseList, error) {
	var resp source.CourseList
	if err := c.list(ctx, "course-bookings", req, &resp); err != nil {
		return nil, fmt.Errorf("list course bookings: %w", err)
	}
	return &resp, nil
}

// ListCoachBookings calls GET /api/coach-bookings.
func (c *Client) ListCoachBookings(ctx context.Context, req source.ListRequest) (*source.CoachList, error) {
	var resp source.CoachList
	if err := c.list(ctx, "coach-bookings", req, &resp); err != nil {
		return nil, fmt.Errorf("list coach bookings: %w", err)
	}
	return &resp, nil
}

func (c *Client) list(ctx context.Context, resource string, req source.ListRequest, out any) error {
	req = req.Normalize()

	q := url.Values{}
	q.Set("page", strconv.Itoa(req.Page))
	q.Set("limit", strconv.Itoa(req.Limit))
	if req.AccountFilter != "" {
		q.Set("account", req.AccountFilter)
	}
	endpoint := fmt.Sprintf("%s/api/%s?%s", c.baseURL, resource, q.Encode())
	cacheKey := fmt.Sprintf("gymbook:%s:%s:%d:%d", resource, req.AccountFilter, req.Page, req.Limit)

	if c.readCache(ctx, cacheKey, out) {
		return nil
	}
	if err := c.doGet(ctx, endpoint, out); err != nil {
		return err
	}
	c.writeCache(ctx, cacheKey, out)
	return nil
}

// Invalidate drops cached list pages for an account ("" for the unfiltered lists).
func (c *Client) Invalidate(ctx context.Context, account string) error {
	if c.redis == nil {
		return nil
	}
	iter := c.redis.Scan(ctx, 0, fmt.Sprintf("gymbook:*-bookings:%s:*", account), 100).Iterator()
	for iter.Next(ctx) {
		if err := c.redis.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.cacheTTL).Err()
}

func (c *Client) doGet(ctx context.Context, endpoint string, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return err
	}
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: http %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// HealthCheck checks that the backend answers /healthz.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", http.NoBody)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed: %d", resp.StatusCode)
	}
	return nil
}
