package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-dashboard/internal/cache"
	"github.com/kjstillabower/weather-dashboard/internal/client"
	"github.com/kjstillabower/weather-dashboard/internal/models"
	"github.com/kjstillabower/weather-dashboard/internal/observability"
	"github.com/kjstillabower/weather-dashboard/internal/traffic"
)

// RelayService forwards a Query to the weather provider and hands back the
// provider's body untouched. Without a cache every call is exactly one upstream call.
type RelayService struct {
	client client.WeatherClient
	cache  cache.Cache // nil disables caching
	ttl    time.Duration
}

// NewRelayService creates a RelayService. Pass a nil cache for plain pass-through.
func NewRelayService(client client.WeatherClient, cache cache.Cache, ttl time.Duration) *RelayService {
	return &RelayService{
		client: client,
		cache:  cache,
		ttl:    ttl,
	}
}

// GetWeather returns the provider's timeline JSON for q.
func (s *RelayService) GetWeather(ctx context.Context, q models.Query) ([]byte, error) {
	start := time.Now()
	logger := observability.LoggerFromContext(ctx)
	unitGroup := q.UnitGroup()
	observability.RecordWeatherQuery(q.Location, unitGroup)

	key := cacheKey(q)
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			observability.CacheErrorsTotal.WithLabelValues("get").Inc()
			if logger != nil {
				logger.Warn("cache get failed", zap.String("location", q.Location), zap.Error(err))
			}
		} else if ok {
			observability.CacheHitsTotal.WithLabelValues("relay").Inc()
			if logger != nil {
				logger.Debug("weather served", zap.String("location", q.Location), zap.String("unit_group", unitGroup), zap.Bool("cached", true), zap.Duration("duration", time.Since(start)))
			}
			return cached, nil
		}
	}

	body, err := s.client.GetTimeline(ctx, q)
	if err != nil {
		traffic.RecordError()
		observability.WeatherAPIErrorsTotal.WithLabelValues(string(client.CategorizeError(err))).Inc()
		return nil, fmt.Errorf("fetch weather for %q: %w", q.Location, err)
	}
	traffic.RecordSuccess()

	if s.cache != nil {
		if setErr := s.cache.Set(ctx, key, body, s.ttl); setErr != nil {
			observability.CacheErrorsTotal.WithLabelValues("set").Inc()
			if logger != nil {
				logger.Warn("cache set failed", zap.String("location", q.Location), zap.Error(setErr))
			}
		}
	}
	if logger != nil {
		logger.Debug("weather served", zap.String("location", q.Location), zap.String("unit_group", unitGroup), zap.Bool("cached", false), zap.Duration("duration", time.Since(start)))
	}
	return body, nil
}

// cacheKey keys on the provider's view of the query: unit group plus the location as sent.
func cacheKey(q models.Query) string {
	return q.UnitGroup() + "|" + q.Location
}
