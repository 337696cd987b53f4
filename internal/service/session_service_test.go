package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/probing-go-api/internal/dto"
)

func TestSessionDescribe(t *testing.T) {
	registry, _, _ := newTestRegistryService(t, "AB12C")
	ctx := context.Background()
	sessions := NewSessionService(registry, NewMemoryTokenRevoker(), NewAdminPolicy([]string{"uid-admin"}), zerolog.Nop())

	_, err := sessions.Describe(ctx, Identity{})
	require.ErrorIs(t, err, ErrSignInRequired)

	described, err := sessions.Describe(ctx, identity("uid-1"))
	require.NoError(t, err)
	require.Equal(t, "Display uid-1", described.Label)
	require.Nil(t, described.Registry)
	require.False(t, described.IsAdmin)

	described, err = sessions.Describe(ctx, Identity{UID: "uid-2", Email: "two@example.com"})
	require.NoError(t, err)
	require.Equal(t, "two@example.com", described.Label)

	_, err = registry.Add(ctx, dto.RegistryUserCreateRequest{Name: "Kim", Affiliation: "Seoul"})
	require.NoError(t, err)
	_, err = registry.Redeem(ctx, identity("uid-1"), dto.LinkCodeRequest{Code: "AB12C"})
	require.NoError(t, err)

	described, err = sessions.Describe(ctx, identity("uid-1"))
	require.NoError(t, err)
	require.Equal(t, "Kim (Seoul)", described.Label)
	require.NotNil(t, described.Registry)
	require.Equal(t, dto.RegistryStatusLinked, described.Registry.Status)

	described, err = sessions.Describe(ctx, identity("uid-admin"))
	require.NoError(t, err)
	require.True(t, described.IsAdmin)
}

func TestSessionLogoutRevokesToken(t *testing.T) {
	registry, _, _ := newTestRegistryService(t)
	revoker := NewMemoryTokenRevoker()
	sessions := NewSessionService(registry, revoker, NewAdminPolicy(nil), zerolog.Nop())
	ctx := context.Background()

	require.ErrorIs(t, sessions.Logout(ctx, "", time.Now()), ErrSignInRequired)

	require.NoError(t, sessions.Logout(ctx, "token-1", time.Now().Add(time.Hour)))
	revoked, err := revoker.IsRevoked(ctx, "token-1")
	require.NoError(t, err)
	require.True(t, revoked)

	revoked, err = revoker.IsRevoked(ctx, "token-2")
	require.NoError(t, err)
	require.False(t, revoked)
}

func TestMemoryTokenRevokerForgetsExpiredTokens(t *testing.T) {
	revoker := NewMemoryTokenRevoker().(*memoryTokenRevoker)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	revoker.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, revoker.Revoke(ctx, "token", now.Add(time.Minute)))
	revoked, err := revoker.IsRevoked(ctx, "token")
	require.NoError(t, err)
	require.True(t, revoked)

	now = now.Add(2 * time.Minute)
	revoked, err = revoker.IsRevoked(ctx, "token")
	require.NoError(t, err)
	require.False(t, revoked)
	require.Empty(t, revoker.revoked)
}

func TestRedisTokenRevoker(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	revoker := NewRedisTokenRevoker(client)
	ctx := context.Background()

	require.NoError(t, revoker.Revoke(ctx, "token", time.Now().Add(time.Hour)))
	require.True(t, mr.Exists(revocationKey("token")))

	revoked, err := revoker.IsRevoked(ctx, "token")
	require.NoError(t, err)
	require.True(t, revoked)

	require.NoError(t, revoker.Revoke(ctx, "stale", time.Now().Add(-time.Minute)))
	require.False(t, mr.Exists(revocationKey("stale")))

	mr.FastForward(2 * time.Hour)
	revoked, err = revoker.IsRevoked(ctx, "token")
	require.NoError(t, err)
	require.False(t, revoked)
}

func TestRedisTokenRevokerKeepsTokensWithoutExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	registry, _, _ := newTestRegistryService(t)
	revoker := NewRedisTokenRevoker(client)
	sessions := NewSessionService(registry, revoker, NewAdminPolicy(nil), zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, sessions.Logout(ctx, "no-exp-token", time.Time{}))
	require.True(t, mr.Exists(revocationKey("no-exp-token")))
	require.Zero(t, mr.TTL(revocationKey("no-exp-token")))

	mr.FastForward(30 * 24 * time.Hour)
	revoked, err := revoker.IsRevoked(ctx, "no-exp-token")
	require.NoError(t, err)
	require.True(t, revoked)
}

func TestMemoryTokenRevokerPrunesOnRevoke(t *testing.T) {
	revoker := NewMemoryTokenRevoker().(*memoryTokenRevoker)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	revoker.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, revoker.Revoke(ctx, "short", now.Add(time.Minute)))
	require.NoError(t, revoker.Revoke(ctx, "no-exp", time.Time{}))

	now = now.Add(time.Hour)
	require.NoError(t, revoker.Revoke(ctx, "fresh", now.Add(time.Hour)))
	require.Len(t, revoker.revoked, 2)

	revoked, err := revoker.IsRevoked(ctx, "no-exp")
	require.NoError(t, err)
	require.True(t, revoked)
}
