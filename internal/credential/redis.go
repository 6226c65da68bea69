package credential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kunlesxo/cyriox-storefront/internal/domain/auth"
)

const (
	credKeyPrefix      = "credential:"
	challengeKeyPrefix = "otp:"
)

// RedisStore persists session credentials in Redis. Each credential is one
// JSON value under one key, so the token/role pairing invariant holds by
// construction, and the key TTL keeps the store from outliving the upstream
// refresh token.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisStore creates a Store backed by the given Redis client.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client, ttl: DefaultTTL}
}

func (s *RedisStore) Put(ctx context.Context, sessionID string, cred auth.Credential) error {
	if !cred.Valid() {
		return ErrInvalidCredential
	}
	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("marshal credential: %w", err)
	}

	ttl := credentialTTL(cred.RefreshToken, s.ttl)
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, challengeKeyPrefix+sessionID)
	pipe.Set(ctx, credKeyPrefix+sessionID, data, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store credential: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (auth.Credential, error) {
	data, err := s.client.Get(ctx, credKeyPrefix+sessionID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return auth.Credential{}, ErrNoCredential
		}
		return auth.Credential{}, fmt.Errorf("redis get credential: %w", err)
	}

	var cred auth.Credential
	if err := json.Unmarshal([]byte(data), &cred); err != nil {
		return auth.Credential{}, fmt.Errorf("unmarshal credential: %w", err)
	}
	return cred, nil
}

func (s *RedisStore) ReplaceAccessToken(ctx context.Context, sessionID, accessToken string) error {
	cred, err := s.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	cred.AccessToken = accessToken

	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("marshal credential: %w", err)
	}
	// KeepTTL: a refreshed access token does not extend the session beyond
	// the refresh token's lifetime.
	if err := s.client.Set(ctx, credKeyPrefix+sessionID, data, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("replace access token: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, credKeyPrefix+sessionID, challengeKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *RedisStore) PutChallenge(ctx context.Context, sessionID string, ch auth.PendingOTPChallenge) error {
	data, err := json.Marshal(ch)
	if err != nil {
		return fmt.Errorf("marshal challenge: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, credKeyPrefix+sessionID)
	pipe.Set(ctx, challengeKeyPrefix+sessionID, data, DefaultChallengeTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store challenge: %w", err)
	}
	return nil
}

func (s *RedisStore) TakeChallenge(ctx context.Context, sessionID string) (auth.PendingOTPChallenge, error) {
	data, err := s.client.GetDel(ctx, challengeKeyPrefix+sessionID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return auth.PendingOTPChallenge{}, ErrNoChallenge
		}
		return auth.PendingOTPChallenge{}, fmt.Errorf("redis take challenge: %w", err)
	}

	var ch auth.PendingOTPChallenge
	if err := json.Unmarshal([]byte(data), &ch); err != nil {
		return auth.PendingOTPChallenge{}, fmt.Errorf("unmarshal challenge: %w", err)
	}
	return ch, nil
}
