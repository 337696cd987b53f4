package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/probing-go-api/internal/dto"
)

// TokenRevoker remembers signed-out tokens until they expire.
type TokenRevoker interface {
	Revoke(ctx context.Context, token string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

func revocationKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "revoked:" + hex.EncodeToString(sum[:])
}

type redisTokenRevoker struct {
	client *redis.Client
}

// NewRedisTokenRevoker stores revocations in Redis with the token's remaining lifetime as TTL.
func NewRedisTokenRevoker(client *redis.Client) TokenRevoker {
	return &redisTokenRevoker{client: client}
}

// Revoke keeps the entry until expiresAt. A zero expiresAt never expires.
func (r *redisTokenRevoker) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	var ttl time.Duration
	if !expiresAt.IsZero() {
		ttl = time.Until(expiresAt)
		if ttl <= 0 {
			return nil
		}
	}
	return r.client.Set(ctx, revocationKey(token), "1", ttl).Err()
}

func (r *redisTokenRevoker) IsRevoked(ctx context.Context, token string) (bool, error) {
	count, err := r.client.Exists(ctx, revocationKey(token)).Result()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

type memoryTokenRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

// NewMemoryTokenRevoker keeps revocations in process memory.
func NewMemoryTokenRevoker() TokenRevoker {
	return &memoryTokenRevoker{revoked: make(map[string]time.Time), now: time.Now}
}

// Revoke also drops entries whose token has expired. Zero expiries are kept until restart.
func (r *memoryTokenRevoker) Revoke(_ context.Context, token string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	for key, until := range r.revoked {
		if !until.IsZero() && now.After(until) {
			delete(r.revoked, key)
		}
	}
	r.revoked[revocationKey(token)] = expiresAt
	return nil
}

func (r *memoryTokenRevoker) IsRevoked(_ context.Context, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := revocationKey(token)
	expiresAt, ok := r.revoked[key]
	if !ok {
		return false, nil
	}
	if !expiresAt.IsZero() && r.now().After(expiresAt) {
		delete(r.revoked, key)
		return false, nil
	}
	return true, nil
}

// SessionService describes and ends the signed-in session.
type SessionService interface {
	Describe(ctx context.Context, identity Identity) (dto.SessionResponse, error)
	Logout(ctx context.Context, token string, expiresAt time.Time) error
}

type sessionService struct {
	registry UserRegistryService
	revoker  TokenRevoker
	admins   AdminPolicy
	logger   zerolog.Logger
}

// NewSessionService constructs a SessionService.
func NewSessionService(registry UserRegistryService, revoker TokenRevoker, admins AdminPolicy, logger zerolog.Logger) SessionService {
	return &sessionService{
		registry: registry,
		revoker:  revoker,
		admins:   admins,
		logger:   logger.With().Str("component", "session_service").Logger(),
	}
}

func (s *sessionService) Describe(ctx context.Context, identity Identity) (dto.SessionResponse, error) {
	if !identity.SignedIn() {
		return dto.SessionResponse{}, ErrSignInRequired
	}

	response := dto.SessionResponse{
		UID:         identity.UID,
		Label:       identity.FallbackLabel(),
		DisplayName: identity.DisplayName,
		Email:       identity.Email,
		IsAdmin:     s.admins.IsAdmin(identity.UID),
	}

	record, err := s.registry.LinkedRecord(ctx, identity.UID)
	if err != nil {
		return dto.SessionResponse{}, err
	}
	if record != nil {
		registry := dto.NewRegistryUserResponse(*record)
		response.Registry = &registry
		response.Label = record.Label()
	}

	return response, nil
}

// Logout revokes the token. A failure leaves the token usable.
func (s *sessionService) Logout(ctx context.Context, token string, expiresAt time.Time) error {
	if token == "" {
		return ErrSignInRequired
	}
	if err := s.revoker.Revoke(ctx, token, expiresAt); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	s.logger.Info().Time("expires_at", expiresAt).Msg("session token revoked")
	return nil
}
