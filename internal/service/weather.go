package service

import (
	"context"
	"errors"
	"strings"

	"github.com/cloo-solutions/grootai/internal/domain"
	"github.com/cloo-solutions/grootai/internal/telemetry"
)

// WeatherProvider returns current conditions for an area.
type WeatherProvider interface {
	Current(ctx context.Context, area string) (*domain.WeatherReport, error)
}

type WeatherService struct {
	provider WeatherProvider
}

func NewWeatherService(provider WeatherProvider) *WeatherService {
	return &WeatherService{provider: provider}
}

func (s *WeatherService) Report(ctx context.Context, area string) (*domain.WeatherReport, error) {
	area = strings.TrimSpace(area)
	if area == "" {
		return nil, domain.Wrap(domain.ErrMissingRequiredField, errors.New("area"))
	}

	ctx, span := telemetry.StartSpan(ctx, "weather.current", telemetry.SpanAttributes{Tool: "weather_tool"})
	defer span.End()

	report, err := s.provider.Current(ctx, area)
	if err != nil {
		span.SetError(err)
		return nil, domain.Wrap(domain.ErrWeatherProvider, err)
	}
	return report, nil
}
