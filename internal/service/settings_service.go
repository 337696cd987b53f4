package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/probing-go-api/internal/dto"
	"github.com/noah-isme/probing-go-api/internal/models"
	"github.com/noah-isme/probing-go-api/internal/observability"
	"github.com/noah-isme/probing-go-api/internal/repository"
)

const settingsCacheKey = "settings:menu:main"

// SettingsService reads and toggles feature flags.
type SettingsService interface {
	Get(ctx context.Context) (dto.MenuSettingsResponse, error)
	Load(ctx context.Context) (models.MenuSettings, bool, error)
	Update(ctx context.Context, flag string, enabled bool) (dto.MenuSettingsResponse, error)
}

type settingsService struct {
	repo     repository.SettingsRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

// NewSettingsService constructs a SettingsService. cache may be nil.
func NewSettingsService(repo repository.SettingsRepository, cache *redis.Client, cacheTTL time.Duration, logger zerolog.Logger) SettingsService {
	return &settingsService{
		repo:     repo,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger.With().Str("component", "settings_service").Logger(),
		now:      time.Now,
	}
}

func (s *settingsService) Get(ctx context.Context) (dto.MenuSettingsResponse, error) {
	settings, _, err := s.Load(ctx)
	if err != nil {
		return dto.MenuSettingsResponse{}, err
	}
	return newMenuSettingsResponse(settings), nil
}

// Load returns the stored settings and whether the row exists.
func (s *settingsService) Load(ctx context.Context) (models.MenuSettings, bool, error) {
	if cached, ok := s.readCache(ctx); ok {
		return cached, cached.ID != "", nil
	}

	settings, err := s.repo.Get(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.writeCache(ctx, models.MenuSettings{})
			return models.MenuSettings{}, false, nil
		}
		return models.MenuSettings{}, false, fmt.Errorf("load settings: %w", err)
	}

	s.writeCache(ctx, settings)
	return settings, true, nil
}

func (s *settingsService) Update(ctx context.Context, flag string, enabled bool) (dto.MenuSettingsResponse, error) {
	if !isKnownFeature(flag) {
		return dto.MenuSettingsResponse{}, ErrUnknownFeature
	}

	current, err := s.repo.Get(ctx)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.MenuSettingsResponse{}, fmt.Errorf("load settings: %w", err)
	}

	flags := datatypes.JSONMap{}
	for key, value := range current.Flags {
		flags[key] = value
	}
	flags[flag] = enabled

	updatedAt := s.now()
	next := models.MenuSettings{ID: models.MenuSettingsID, Flags: flags, UpdatedAt: &updatedAt}
	if err := s.repo.Save(ctx, &next); err != nil {
		return dto.MenuSettingsResponse{}, fmt.Errorf("save settings: %w", err)
	}

	s.invalidateCache(ctx)
	s.logger.Info().Str("feature", flag).Bool("enabled", enabled).Msg("feature flag updated")

	return newMenuSettingsResponse(next), nil
}

func (s *settingsService) readCache(ctx context.Context) (models.MenuSettings, bool) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return models.MenuSettings{}, false
	}

	raw, err := s.cache.Get(ctx, settingsCacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("settings cache read failed")
		}
		return models.MenuSettings{}, false
	}

	var settings models.MenuSettings
	if err := json.Unmarshal(raw, &settings); err != nil {
		return models.MenuSettings{}, false
	}
	return settings, true
}

func (s *settingsService) writeCache(ctx context.Context, settings models.MenuSettings) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	payload, err := json.Marshal(settings)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, settingsCacheKey, payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("settings cache write failed")
	}
}

func (s *settingsService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, settingsCacheKey).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("settings cache invalidation failed")
	}
}

func newMenuSettingsResponse(settings models.MenuSettings) dto.MenuSettingsResponse {
	flags := make(map[string]bool, len(models.KnownFeatures))
	for _, feature := range models.KnownFeatures {
		flags[feature] = !settings.Disabled(feature)
	}
	return dto.MenuSettingsResponse{Flags: flags, UpdatedAt: settings.UpdatedAt}
}

func isKnownFeature(flag string) bool {
	for _, feature := range models.KnownFeatures {
		if feature == flag {
			return true
		}
	}
	return false
}

// FeatureGate decides whether an identity may open a gated page.
type FeatureGate struct {
	settings SettingsService
	admins   AdminPolicy
	logger   zerolog.Logger
}

// NewFeatureGate constructs a FeatureGate.
func NewFeatureGate(settings SettingsService, admins AdminPolicy, logger zerolog.Logger) *FeatureGate {
	return &FeatureGate{
		settings: settings,
		admins:   admins,
		logger:   logger.With().Str("component", "feature_gate").Logger(),
	}
}

// Check grants admins unconditionally. Everyone else is denied only when the
// flag is stored as false; a settings read failure grants access.
func (g *FeatureGate) Check(ctx context.Context, identity Identity, flag string) bool {
	if g.admins.IsAdmin(identity.UID) {
		observability.FeatureDecisions().WithLabelValues(flag, "admin").Inc()
		return true
	}

	settings, _, err := g.settings.Load(ctx)
	if err != nil {
		g.logger.Warn().Err(err).Str("feature", flag).Msg("settings unavailable, granting access")
		observability.FeatureDecisions().WithLabelValues(flag, "fail_open").Inc()
		return true
	}

	if settings.Disabled(flag) {
		observability.FeatureDecisions().WithLabelValues(flag, "denied").Inc()
		return false
	}

	observability.FeatureDecisions().WithLabelValues(flag, "granted").Inc()
	return true
}
