// Package forecasts serves current conditions and the five-day forecast for a
// location. It fans out to the weather provider, caches the raw documents and
// derives the per-request views: the advisory snapshot, the outdoor verdict
// and the forecast grouped by day.
package forecasts

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"meteo/internal/advisory"
	"meteo/internal/types"
)

// DefaultCacheTTL bounds how stale a served observation may be.
const DefaultCacheTTL = 10 * time.Minute

// WeatherSource is the upstream provider.
type WeatherSource interface {
	Current(ctx context.Context, loc types.Location) (*types.CurrentWeather, error)
	Forecast(ctx context.Context, loc types.Location) (*types.Forecast, error)
}

// Report is the combined weather view for one location.
type Report struct {
	Location  types.Location        `json:"location"`
	Current   *types.CurrentWeather `json:"current"`
	Snapshot  types.WeatherSnapshot `json:"snapshot"`
	Outdoor   bool                  `json:"outdoor"`
	IconURL   string                `json:"icon_url,omitempty"`
	Days      []Day                 `json:"days"`
	FetchedAt time.Time             `json:"fetched_at"`
	Cached    bool                  `json:"cached"`
}

// Service reads weather through a cache.
type Service struct {
	source WeatherSource
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
	clock  types.Clock
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithCache replaces the default in-memory cache.
func WithCache(c Cache) ServiceOption {
	return func(s *Service) { s.cache = c }
}

// WithTTL sets the cache lifetime. Zero disables caching.
func WithTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) { s.ttl = ttl }
}

// WithClock overrides the time source.
func WithClock(c types.Clock) ServiceOption {
	return func(s *Service) { s.clock = c }
}

// NewService creates a Service over source.
func NewService(source WeatherSource, logger *slog.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		source: source,
		ttl:    DefaultCacheTTL,
		logger: logger,
		clock:  types.RealClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = NewMemoryCache(s.clock)
	}
	return s
}

// Normalize fills in the default city when loc names no place.
func Normalize(loc types.Location) types.Location {
	loc.City = strings.TrimSpace(loc.City)
	if !loc.HasCoordinates() && loc.City == "" {
		loc.City = types.DefaultCity
	}
	return loc
}

// Weather returns the report for loc, served from cache when fresh.
func (s *Service) Weather(ctx context.Context, loc types.Location) (*Report, error) {
	loc = Normalize(loc)
	key := loc.CacheKey()

	obs, cached := s.cached(ctx, key)
	if obs == nil {
		var err error
		obs, err = s.fetch(ctx, loc)
		if err != nil {
			return nil, err
		}
		s.store(ctx, key, obs)
	}

	return s.report(loc, obs, cached), nil
}

// fetch reads current conditions and the forecast concurrently. Either
// failing fails the call.
func (s *Service) fetch(ctx context.Context, loc types.Location) (*Observation, error) {
	var obs Observation

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cw, err := s.source.Current(gCtx, loc)
		obs.Current = cw
		return err
	})
	g.Go(func() error {
		fc, err := s.source.Forecast(gCtx, loc)
		obs.Forecast = fc
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	obs.FetchedAt = s.clock.Now()
	return &obs, nil
}

func (s *Service) cached(ctx context.Context, key string) (*Observation, bool) {
	if s.ttl <= 0 {
		return nil, false
	}
	obs, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "weather cache read failed", "key", key, "error", err)
		return nil, false
	}
	return obs, obs != nil
}

func (s *Service) store(ctx context.Context, key string, obs *Observation) {
	if s.ttl <= 0 {
		return
	}
	if err := s.cache.Set(ctx, key, obs, s.ttl); err != nil {
		s.logger.WarnContext(ctx, "weather cache write failed", "key", key, "error", err)
	}
}

func (s *Service) report(loc types.Location, obs *Observation, cached bool) *Report {
	snap := SnapshotFrom(obs.Current)
	r := &Report{
		Location:  loc,
		Current:   obs.Current,
		Snapshot:  snap,
		Outdoor:   advisory.OutdoorSuitable(snap),
		FetchedAt: obs.FetchedAt,
		Cached:    cached,
	}
	if obs.Current != nil {
		r.IconURL = obs.Current.PrimaryCondition().IconURL()
	}
	if obs.Forecast != nil {
		zone := ZoneFor(obs.Forecast.City.Timezone)
		r.Days = GroupByDay(obs.Forecast.List, s.clock.Now(), zone)
	}
	return r
}

// Current returns live current conditions for loc, bypassing the cache.
func (s *Service) Current(ctx context.Context, loc types.Location) (*types.CurrentWeather, error) {
	return s.source.Current(ctx, Normalize(loc))
}
