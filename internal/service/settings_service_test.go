package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/noah-isme/probing-go-api/internal/models"
	"github.com/noah-isme/probing-go-api/internal/repository"
)

type failingSettingsRepo struct{}

func (failingSettingsRepo) Get(context.Context) (models.MenuSettings, error) {
	return models.MenuSettings{}, errors.New("store unavailable")
}

func (failingSettingsRepo) Save(context.Context, *models.MenuSettings) error {
	return errors.New("store unavailable")
}

func TestSettingsGetDefaultsToEnabled(t *testing.T) {
	repo := repository.NewSettingsRepository(setupProbingDB(t))
	svc := NewSettingsService(repo, nil, 0, zerolog.Nop())

	settings, err := svc.Get(context.Background())
	require.NoError(t, err)
	require.Len(t, settings.Flags, len(models.KnownFeatures))
	for _, feature := range models.KnownFeatures {
		require.True(t, settings.Flags[feature], feature)
	}
	require.Nil(t, settings.UpdatedAt)
}

func TestSettingsUpdateMergesFlags(t *testing.T) {
	repo := repository.NewSettingsRepository(setupProbingDB(t))
	svc := NewSettingsService(repo, nil, 0, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &models.MenuSettings{Flags: datatypes.JSONMap{"legacyFlag": true, models.FeatureProbing01: false}}))

	updated, err := svc.Update(ctx, models.FeatureProbing02, false)
	require.NoError(t, err)
	require.False(t, updated.Flags[models.FeatureProbing02])
	require.False(t, updated.Flags[models.FeatureProbing01])
	require.NotNil(t, updated.UpdatedAt)

	stored, err := repo.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, true, stored.Flags["legacyFlag"])
	require.Equal(t, false, stored.Flags[models.FeatureProbing02])

	_, err = svc.Update(ctx, "unknown", true)
	require.ErrorIs(t, err, ErrUnknownFeature)
}

func TestSettingsCacheInvalidatedOnWrite(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := repository.NewSettingsRepository(setupProbingDB(t))
	svc := NewSettingsService(repo, client, time.Minute, zerolog.Nop())
	ctx := context.Background()

	_, exists, err := svc.Load(ctx)
	require.NoError(t, err)
	require.False(t, exists)
	require.True(t, mr.Exists(settingsCacheKey))

	_, err = svc.Update(ctx, models.FeatureActivity2, false)
	require.NoError(t, err)
	require.False(t, mr.Exists(settingsCacheKey))

	settings, exists, err := svc.Load(ctx)
	require.NoError(t, err)
	require.True(t, exists)
	require.True(t, settings.Disabled(models.FeatureActivity2))
}

func TestFeatureGateDecisions(t *testing.T) {
	ctx := context.Background()
	admins := NewAdminPolicy([]string{"admin-1"})

	t.Run("explicit false denies non-admins", func(t *testing.T) {
		repo := repository.NewSettingsRepository(setupProbingDB(t))
		require.NoError(t, repo.Save(ctx, &models.MenuSettings{Flags: datatypes.JSONMap{models.FeatureProbing02: false}}))
		gate := NewFeatureGate(NewSettingsService(repo, nil, 0, zerolog.Nop()), admins, zerolog.Nop())

		require.False(t, gate.Check(ctx, identity("student-1"), models.FeatureProbing02))
		require.True(t, gate.Check(ctx, identity("admin-1"), models.FeatureProbing02))
		require.True(t, gate.Check(ctx, identity("student-1"), models.FeatureActivity2))
	})

	t.Run("empty flags grant", func(t *testing.T) {
		repo := repository.NewSettingsRepository(setupProbingDB(t))
		require.NoError(t, repo.Save(ctx, &models.MenuSettings{Flags: datatypes.JSONMap{}}))
		gate := NewFeatureGate(NewSettingsService(repo, nil, 0, zerolog.Nop()), admins, zerolog.Nop())

		require.True(t, gate.Check(ctx, identity("student-1"), models.FeatureProbing02))
	})

	t.Run("missing record grants", func(t *testing.T) {
		repo := repository.NewSettingsRepository(setupProbingDB(t))
		gate := NewFeatureGate(NewSettingsService(repo, nil, 0, zerolog.Nop()), admins, zerolog.Nop())

		require.True(t, gate.Check(ctx, identity("student-1"), models.FeatureProbing02))
	})

	t.Run("read failure grants", func(t *testing.T) {
		gate := NewFeatureGate(NewSettingsService(failingSettingsRepo{}, nil, 0, zerolog.Nop()), admins, zerolog.Nop())

		require.True(t, gate.Check(ctx, identity("student-1"), models.FeatureProbing02))
	})
}

func TestAdminPolicy(t *testing.T) {
	policy := NewAdminPolicy([]string{" admin-1 ", ""})

	require.True(t, policy.IsAdmin("admin-1"))
	require.False(t, policy.IsAdmin("student-1"))
	require.False(t, policy.IsAdmin(""))
}
