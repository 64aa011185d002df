package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eclewis/wxbrief/internal/briefing"
	"github.com/eclewis/wxbrief/internal/config"
	"github.com/eclewis/wxbrief/internal/observability"
	"github.com/eclewis/wxbrief/internal/websocket"
	"github.com/eclewis/wxbrief/pkg/logger"
)

// newTestRouter stands up fake upstreams and a full route tree over them
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	weather := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids := strings.Split(r.URL.Query().Get("ids"), ",")
		var lines []string
		for _, id := range ids {
			lines = append(lines, id+" 092251Z 25008KT 10SM SCT250 21/13 A2999")
		}
		_, _ = w.Write([]byte(strings.Join(lines, "\n")))
	}))
	t.Cleanup(weather.Close)

	datis := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		icao := strings.TrimPrefix(r.URL.Path, "/")
		_, _ = w.Write([]byte(`[{"airport":"` + icao + `","datis":"` + icao + ` ATIS INFO C"}]`))
	}))
	t.Cleanup(datis.Close)

	status := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"ICAO":"X","Name":"Test","City":"Test","State":"TS","Delay":false}`))
	}))
	t.Cleanup(status.Close)

	cfg := config.DefaultConfig()
	cfg.Sources.WeatherBaseURL = weather.URL
	cfg.Sources.DATISBaseURL = datis.URL
	cfg.Sources.StatusBaseURL = status.URL

	log := logger.NewNop()
	metrics := observability.NewMetricsForTesting()
	clock := clockwork.NewRealClock()
	client := briefing.NewClient(cfg.Sources, metrics, log)
	cache := briefing.NewCache(time.Duration(cfg.Cache.TTLSeconds)*time.Second, cfg.Cache.MaxEntries, clock, log)
	service := briefing.NewService(client, cache, cfg.Sources, metrics, clock, log)
	wsServer := websocket.NewServer(service, cfg.Refresh, log)

	return NewRouter(service, cfg, log, wsServer).Routes()
}

func TestGetBriefing(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/briefing?departure=JFK&arrival=LAX", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var result briefing.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.NotEmpty(t, result.Weather)
	assert.Equal(t, "KJFK ATIS INFO C", result.DATIS[briefing.RoleDeparture].Text)
}

func TestGetBriefing_MissingParams(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/briefing?departure=JFK", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetBriefing_InvalidCode(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/briefing?departure=JFK&arrival=12", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetBriefingHTML(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/briefing/html?departure=JFK&arrival=LAX", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "<b>KJFK</b>")
	assert.Contains(t, rec.Body.String(), "color:green")
}

func TestGetAirport(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/airports/HNL", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Input  string `json:"input"`
		ICAO   string `json:"icao"`
		IATA   string `json:"iata"`
		Region string `json:"region"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "PHNL", resp.ICAO)
	assert.Equal(t, "HNL", resp.IATA)
	assert.Equal(t, "HAWAII", resp.Region)
}

func TestGetAirport_Invalid(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/airports/1234", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetHealth(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSHeaders(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "http://example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}
