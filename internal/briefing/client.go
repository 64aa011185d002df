package briefing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/eclewis/wxbrief/internal/config"
	"github.com/eclewis/wxbrief/internal/observability"
	"github.com/eclewis/wxbrief/pkg/logger"
)

// ErrUpstreamUnavailable marks non-2xx responses and transport
// failures (including timeouts) from an upstream API.
var ErrUpstreamUnavailable = errors.New("upstream unavailable")

// ErrMalformedResponse marks responses that decoded but are missing
// the expected fields.
var ErrMalformedResponse = errors.New("malformed upstream response")

// Client issues HTTP requests to the three upstream data sources.
// Every call is a single attempt with a bounded timeout; callers fold
// failures into display strings rather than retrying.
type Client struct {
	sources    config.SourcesConfig
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *logger.Logger
}

// NewClient creates a new upstream API client
func NewClient(sources config.SourcesConfig, metrics *observability.Metrics, log *logger.Logger) *Client {
	return &Client{
		sources: sources,
		httpClient: &http.Client{
			Timeout: time.Duration(sources.RequestTimeoutSeconds) * time.Second,
		},
		metrics: metrics,
		logger:  log.Named("briefing-client"),
	}
}

// FetchWeather fetches combined raw METAR/TAF text for the given ICAO
// codes in one request. The response is newline-separated fixed-format
// text, one airport after another.
func (c *Client) FetchWeather(ctx context.Context, icaos []string) (string, error) {
	params := url.Values{
		"ids":    {strings.Join(icaos, ",")},
		"format": {"raw"},
		"metar":  {"true"},
		"time":   {"valid"},
	}
	reqURL := fmt.Sprintf("%s/taf?%s", c.sources.WeatherBaseURL, params.Encode())

	body, err := c.get(ctx, reqURL, FetchKindWeather)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// FetchDATIS fetches the current DATIS text for one ICAO code
func (c *Client) FetchDATIS(ctx context.Context, icao string) (string, error) {
	reqURL := fmt.Sprintf("%s/%s", c.sources.DATISBaseURL, icao)

	body, err := c.get(ctx, reqURL, FetchKindDATIS)
	if err != nil {
		return "", err
	}

	var entries []datisResponse
	if err := json.Unmarshal(body, &entries); err != nil {
		return "", fmt.Errorf("%w: decoding DATIS for %s: %v", ErrMalformedResponse, icao, err)
	}
	if len(entries) == 0 || entries[0].DATIS == "" {
		return "", fmt.Errorf("%w: no datis field in response for %s", ErrMalformedResponse, icao)
	}
	return entries[0].DATIS, nil
}

// FetchStatus fetches the FAA status record for one IATA code
func (c *Client) FetchStatus(ctx context.Context, iata string) (*statusResponse, error) {
	reqURL := fmt.Sprintf("%s/%s", c.sources.StatusBaseURL, iata)

	body, err := c.get(ctx, reqURL, FetchKindStatus)
	if err != nil {
		return nil, err
	}

	var status statusResponse
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("%w: decoding status for %s: %v", ErrMalformedResponse, iata, err)
	}
	return &status, nil
}

// get performs one instrumented GET request and returns the body
func (c *Client) get(ctx context.Context, reqURL string, kind FetchKind) ([]byte, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating %s request: %w", kind, err)
	}

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	c.metrics.UpstreamDuration.WithLabelValues(string(kind)).Observe(duration.Seconds())
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(string(kind), "error").Inc()
		c.logger.Warn("Upstream request failed",
			logger.String("kind", string(kind)),
			logger.Duration("duration", duration),
			logger.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.UpstreamRequests.WithLabelValues(string(kind), "error").Inc()
		c.logger.Warn("Upstream returned non-OK status",
			logger.String("kind", string(kind)),
			logger.Int("status_code", resp.StatusCode))
		return nil, fmt.Errorf("%w: status code %d", ErrUpstreamUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(string(kind), "error").Inc()
		return nil, fmt.Errorf("%w: reading body: %v", ErrUpstreamUnavailable, err)
	}

	c.metrics.UpstreamRequests.WithLabelValues(string(kind), "success").Inc()
	c.logger.Debug("Upstream request completed",
		logger.String("kind", string(kind)),
		logger.Duration("duration", duration),
		logger.Int("bytes", len(body)))
	return body, nil
}
