package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gymbook/internal/slots"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Parse([]byte(`
booking:
  scope: self
database:
  path: ` + filepath.Join(dir, "db", "gym.db") + `
`))
	require.NoError(t, err)

	assert.Equal(t, SourceSQLite, cfg.Source.Kind)
	assert.Equal(t, 500, cfg.Source.FetchLimit)
	assert.Equal(t, slots.DefaultCapacity, cfg.Booking.Capacity)
	assert.Equal(t, 3, cfg.Booking.Suggestions)
	assert.Equal(t, 8, cfg.Booking.MinScore)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.APITimeout())
	assert.Zero(t, cfg.APICacheTTL())
	assert.Zero(t, cfg.RefreshInterval())

	_, err = os.Stat(filepath.Join(dir, "db"))
	assert.NoError(t, err)
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("GYMBOOK_TEST_KEY", "secret")
	cfg, err := Parse([]byte(`
source:
  kind: http
api:
  base_url: http://crud.local
  api_key: ${GYMBOOK_TEST_KEY}
  cache_ttl_seconds: 30
booking:
  scope: venue
`))
	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.API.APIKey)
	assert.Equal(t, 30*time.Second, cfg.APICacheTTL())
	assert.Equal(t, ScopeVenue, cfg.Booking.Scope)
}

func TestParse_Validation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{name: "missing scope", yaml: "database:\n  path: ':memory:'\n", wantErr: "booking.scope is required"},
		{name: "bad scope", yaml: "booking:\n  scope: everyone\n", wantErr: "unknown value \"everyone\""},
		{name: "http without url", yaml: "source:\n  kind: http\nbooking:\n  scope: self\n", wantErr: "api.base_url is required"},
		{name: "bad source", yaml: "source:\n  kind: mongo\nbooking:\n  scope: self\n", wantErr: "source.kind"},
		{name: "small fetch limit", yaml: "source:\n  kind: http\n  fetch_limit: 50\napi:\n  base_url: http://x\nbooking:\n  scope: self\n", wantErr: "at least 200"},
		{name: "bad yaml", yaml: "booking: [", wantErr: "parse config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("booking:\n  scope: self\ndatabase:\n  path: ':memory:'\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":memory:", cfg.Database.Path)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

const catalogYAML = `
slots:
  - time: "07:00"
    period: 早上
  - time: "19:00"
    period: 晚上
`

func TestLoadCatalog(t *testing.T) {
	def, err := LoadCatalog("")
	require.NoError(t, err)
	assert.Equal(t, slots.DefaultCatalog, def)

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(catalogYAML), 0o644))

	got, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, []slots.CandidateSlot{{Time: "07:00", Period: "早上"}, {Time: "19:00", Period: "晚上"}}, got)
}

func TestCatalogValidate(t *testing.T) {
	tests := []struct {
		name    string
		slots   []slots.CandidateSlot
		wantErr string
	}{
		{name: "empty", wantErr: "no slots"},
		{name: "bad time", slots: []slots.CandidateSlot{{Time: "7:00", Period: "早上"}}, wantErr: "invalid time"},
		{name: "no period", slots: []slots.CandidateSlot{{Time: "07:00"}}, wantErr: "period is required"},
		{name: "duplicate", slots: []slots.CandidateSlot{{Time: "07:00", Period: "a"}, {Time: "07:00", Period: "b"}}, wantErr: "duplicate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := CatalogConfig{Slots: tt.slots}
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWatchCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(catalogYAML), 0o644))

	var mu sync.Mutex
	var updates [][]slots.CandidateSlot
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := WatchCatalog(ctx, path, 10*time.Millisecond, func(c []slots.CandidateSlot) {
		mu.Lock()
		defer mu.Unlock()
		updates = append(updates, c)
	})
	require.NoError(t, err)

	mu.Lock()
	require.Len(t, updates, 1)
	mu.Unlock()

	require.NoError(t, os.WriteFile(path, []byte("slots:\n  - time: \"20:00\"\n    period: 晚上\n"), 0o644))
	future := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, future, future))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(updates) == 2 && updates[1][0].Time == "20:00"
	}, 2*time.Second, 10*time.Millisecond)
}
