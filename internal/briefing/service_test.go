package briefing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eclewis/wxbrief/internal/metar"
	"github.com/eclewis/wxbrief/internal/observability"
	"github.com/eclewis/wxbrief/pkg/logger"
)

// upstreams is a trio of fake upstream servers with request counters
type upstreams struct {
	weather, datis, status *httptest.Server
	weatherHits            atomic.Int64
	datisHits              atomic.Int64
	statusHits             atomic.Int64

	mu          sync.Mutex
	datisPaths  []string
	statusPaths []string
}

func (u *upstreams) seenStatusPath(path string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, p := range u.statusPaths {
		if p == path {
			return true
		}
	}
	return false
}

func newUpstreams(t *testing.T) *upstreams {
	t.Helper()
	u := &upstreams{}

	u.weather = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.weatherHits.Add(1)
		ids := strings.Split(r.URL.Query().Get("ids"), ",")
		var lines []string
		for _, id := range ids {
			lines = append(lines, id+" 092251Z 22010KT 2SM -RA OVC008 08/07 A2975")
		}
		_, _ = w.Write([]byte(strings.Join(lines, "\n")))
	}))
	t.Cleanup(u.weather.Close)

	u.datis = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.datisHits.Add(1)
		u.mu.Lock()
		u.datisPaths = append(u.datisPaths, r.URL.Path)
		u.mu.Unlock()
		icao := strings.TrimPrefix(r.URL.Path, "/")
		_, _ = w.Write([]byte(`[{"airport":"` + icao + `","datis":"` + icao + ` ATIS INFO B"}]`))
	}))
	t.Cleanup(u.datis.Close)

	u.status = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.statusHits.Add(1)
		u.mu.Lock()
		u.statusPaths = append(u.statusPaths, r.URL.Path)
		u.mu.Unlock()
		_, _ = w.Write([]byte(`{"ICAO":"X","Name":"Test","City":"Test","State":"TS","Delay":false}`))
	}))
	t.Cleanup(u.status.Close)

	return u
}

func newTestService(u *upstreams, clock clockwork.Clock) *Service {
	sources := testSources(u.weather.URL, u.datis.URL, u.status.URL)
	metrics := observability.NewMetricsForTesting()
	log := logger.NewNop()
	client := NewClient(sources, metrics, log)
	cache := NewCache(60*time.Second, 16, clock, log)
	return NewService(client, cache, sources, metrics, clock, log)
}

func TestBuild(t *testing.T) {
	u := newUpstreams(t)
	svc := newTestService(u, clockwork.NewRealClock())

	result, err := svc.Build(context.Background(), Request{Departure: "JFK", Arrival: "HNL", Alternate: "SJU"})
	require.NoError(t, err)

	require.NotEmpty(t, result.Weather)
	assert.Empty(t, result.WeatherError)
	for _, line := range result.Weather {
		assert.Equal(t, metar.IFR, line.Category, "line %q", line.Text)
	}

	assert.Equal(t, "KJFK ATIS INFO B", result.DATIS[RoleDeparture].Text)
	assert.Equal(t, "PHNL ATIS INFO B", result.DATIS[RoleArrival].Text)
	assert.Equal(t, "TJSJ ATIS INFO B", result.DATIS[RoleAlternate].Text)

	// The status API is addressed by IATA code
	assert.True(t, u.seenStatusPath("/JFK"))
	assert.True(t, u.seenStatusPath("/HNL"))
	assert.True(t, u.seenStatusPath("/SJU"))

	assert.Contains(t, result.Status[RoleDeparture].Text, "No delays reported")
	assert.False(t, result.RetrievedAt.IsZero())
}

func TestBuild_AlternateAbsent(t *testing.T) {
	u := newUpstreams(t)
	svc := newTestService(u, clockwork.NewRealClock())

	result, err := svc.Build(context.Background(), Request{Departure: "JFK", Arrival: "LAX"})
	require.NoError(t, err)

	assert.NotContains(t, result.DATIS, RoleAlternate)
	assert.NotContains(t, result.Status, RoleAlternate)
	assert.Equal(t, int64(2), u.datisHits.Load(), "one DATIS call per present airport")
	assert.Equal(t, int64(2), u.statusHits.Load(), "one status call per present airport")
}

func TestBuild_InvalidCodeFailsBeforeNetwork(t *testing.T) {
	u := newUpstreams(t)
	svc := newTestService(u, clockwork.NewRealClock())

	_, err := svc.Build(context.Background(), Request{Departure: "", Arrival: "LAX"})
	require.Error(t, err)
	assert.Zero(t, u.weatherHits.Load())
	assert.Zero(t, u.datisHits.Load())
	assert.Zero(t, u.statusHits.Load())
}

func TestBuild_PartialFailureIsolation(t *testing.T) {
	u := newUpstreams(t)

	// Replace the weather upstream with one that always fails
	u.weather.Close()
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(broken.Close)
	u.weather = broken

	svc := newTestService(u, clockwork.NewRealClock())
	result, err := svc.Build(context.Background(), Request{Departure: "JFK", Arrival: "LAX"})
	require.NoError(t, err, "a failed upstream never fails the build")

	assert.Empty(t, result.Weather)
	assert.NotEmpty(t, result.WeatherError)
	assert.Equal(t, "KJFK ATIS INFO B", result.DATIS[RoleDeparture].Text)
	assert.Equal(t, "KLAX ATIS INFO B", result.DATIS[RoleArrival].Text)
	assert.NotEmpty(t, result.Status[RoleDeparture].Text)
	assert.NotEmpty(t, result.Status[RoleArrival].Text)
}

func TestBuild_CacheWithinTTL(t *testing.T) {
	u := newUpstreams(t)
	clock := clockwork.NewFakeClock()
	svc := newTestService(u, clock)

	req := Request{Departure: "JFK", Arrival: "LAX"}

	first, err := svc.Build(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.weatherHits.Load())

	// Same tuple within the TTL: served from cache, no new upstream calls
	second, err := svc.Build(context.Background(), req)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, int64(1), u.weatherHits.Load())
	assert.Equal(t, int64(2), u.datisHits.Load())

	// Past the TTL the entry expires on its own
	clock.Advance(61 * time.Second)
	_, err = svc.Build(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int64(2), u.weatherHits.Load())
}

func TestBuild_CacheKeyIncludesAlternate(t *testing.T) {
	u := newUpstreams(t)
	clock := clockwork.NewFakeClock()
	svc := newTestService(u, clock)

	_, err := svc.Build(context.Background(), Request{Departure: "JFK", Arrival: "LAX"})
	require.NoError(t, err)

	// Adding an alternate is a different tuple and must not hit the cache
	_, err = svc.Build(context.Background(), Request{Departure: "JFK", Arrival: "LAX", Alternate: "SFO"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), u.weatherHits.Load())
}
