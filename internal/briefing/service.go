package briefing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/eclewis/wxbrief/internal/airports"
	"github.com/eclewis/wxbrief/internal/config"
	"github.com/eclewis/wxbrief/internal/metar"
	"github.com/eclewis/wxbrief/internal/observability"
	"github.com/eclewis/wxbrief/pkg/logger"
)

// Service assembles weather briefings. It normalizes the requested
// airport codes, fans out the independent upstream retrievals, and
// joins their results, folding every upstream failure into a
// per-field error string. A build only fails on invalid input.
type Service struct {
	client  *Client
	cache   *Cache
	sources config.SourcesConfig
	metrics *observability.Metrics
	clock   clockwork.Clock
	logger  *logger.Logger
}

// NewService creates a new briefing service
func NewService(client *Client, cache *Cache, sources config.SourcesConfig, metrics *observability.Metrics, clock clockwork.Clock, log *logger.Logger) *Service {
	return &Service{
		client:  client,
		cache:   cache,
		sources: sources,
		metrics: metrics,
		clock:   clock,
		logger:  log.Named("briefing-service"),
	}
}

// leg is one airport of the request with both code forms resolved
type leg struct {
	role Role
	icao string
	iata string
}

// legResult collects the per-airport fetch outcomes. Each fan-out
// goroutine writes only its own slot, so no locking is needed.
type legResult struct {
	datis  SourceText
	status SourceText
}

// Build assembles a briefing for the request. Invalid airport codes
// fail fast before any network call; everything after that point
// produces a fully-populated result whose individual fields may carry
// error strings.
func (s *Service) Build(ctx context.Context, req Request) (*Result, error) {
	legs, err := s.resolveLegs(req)
	if err != nil {
		return nil, err
	}

	key := cacheKey(legs)
	if cached := s.cache.Get(key); cached != nil {
		s.metrics.CacheLookups.WithLabelValues("hit").Inc()
		s.logger.Debug("Briefing served from cache", logger.String("key", key))
		return cached, nil
	}
	s.metrics.CacheLookups.WithLabelValues("miss").Inc()

	start := time.Now()
	icaos := make([]string, len(legs))
	for i, l := range legs {
		icaos[i] = l.icao
	}

	var (
		wg          sync.WaitGroup
		weatherText string
		weatherErr  error
	)
	results := make([]legResult, len(legs))

	// One combined weather call covers all airports
	wg.Add(1)
	go func() {
		defer wg.Done()
		weatherText, weatherErr = s.client.FetchWeather(ctx, icaos)
	}()

	// DATIS and status are independent per airport; each goroutine
	// owns a disjoint slot of results, so they join lock-free.
	for i, l := range legs {
		if s.sources.FetchDATIS {
			wg.Add(1)
			go func(i int, l leg) {
				defer wg.Done()
				text, err := s.client.FetchDATIS(ctx, l.icao)
				if err != nil {
					results[i].datis = SourceText{Airport: l.icao, Error: fmt.Sprintf("No DATIS available for %s: %s", l.icao, err)}
					return
				}
				results[i].datis = SourceText{Airport: l.icao, Text: text}
			}(i, l)
		}

		if s.sources.FetchStatus {
			wg.Add(1)
			go func(i int, l leg) {
				defer wg.Done()
				status, err := s.client.FetchStatus(ctx, l.iata)
				if err != nil {
					results[i].status = SourceText{Airport: l.iata, Error: fmt.Sprintf("Could not retrieve status for %s: %s", l.iata, err)}
					return
				}
				results[i].status = SourceText{Airport: l.iata, Text: FormatStatus(status)}
			}(i, l)
		}
	}

	wg.Wait()

	result := &Result{
		DATIS:       make(map[Role]SourceText),
		Status:      make(map[Role]SourceText),
		RetrievedAt: s.clock.Now().UTC(),
	}

	if weatherErr != nil {
		result.WeatherError = fmt.Sprintf("Weather data unavailable: %s", weatherErr)
	} else {
		result.Weather = metar.SplitLines(weatherText)
	}

	for i, l := range legs {
		if s.sources.FetchDATIS {
			result.DATIS[l.role] = results[i].datis
		}
		if s.sources.FetchStatus {
			result.Status[l.role] = results[i].status
		}
	}

	s.cache.Set(key, result)
	s.metrics.BriefingsBuilt.Inc()
	s.logger.Info("Briefing assembled",
		logger.String("key", key),
		logger.Int("airports", len(legs)),
		logger.Duration("duration", time.Since(start)))

	return result, nil
}

// resolveLegs normalizes the requested codes into ICAO and IATA forms.
// The alternate is skipped entirely when absent.
func (s *Service) resolveLegs(req Request) ([]leg, error) {
	inputs := []struct {
		role Role
		code string
	}{
		{RoleDeparture, req.Departure},
		{RoleArrival, req.Arrival},
	}
	if req.Alternate != "" {
		inputs = append(inputs, struct {
			role Role
			code string
		}{RoleAlternate, req.Alternate})
	}

	legs := make([]leg, 0, len(inputs))
	for _, in := range inputs {
		icao, err := airports.ToICAO(in.code)
		if err != nil {
			return nil, fmt.Errorf("%s airport: %w", in.role, err)
		}
		iata, err := airports.ToIATA(in.code)
		if err != nil {
			return nil, fmt.Errorf("%s airport: %w", in.role, err)
		}
		legs = append(legs, leg{role: in.role, icao: icao, iata: iata})
	}
	return legs, nil
}

// cacheKey builds the cache key from the normalized ICAO tuple
func cacheKey(legs []leg) string {
	key := ""
	for i, l := range legs {
		if i > 0 {
			key += ","
		}
		key += l.icao
	}
	return key
}
