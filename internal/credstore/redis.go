package credstore

import (
	"context"
	"encoding/json"

	"github.com/fieldtrace/evidence-cli/internal/config"
	"github.com/fieldtrace/evidence-cli/internal/metrics"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisStore persists credentials in Redis, for shared kiosk devices where
// several terminals front one signed-in store account.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	logger    *logrus.Logger
}

// NewRedisStore creates a Redis-backed credential store.
func NewRedisStore(cfg *config.Config, logger *logrus.Logger) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.Database,
	})

	return &RedisStore{
		client:    client,
		keyPrefix: cfg.Credentials.KeyPrefix,
		logger:    logger,
	}
}

func (s *RedisStore) key(name string) string {
	return s.keyPrefix + name
}

// Save writes token then profile sequentially. A crash between the two
// writes leaves a token without a profile, which Load's callers treat as
// signed out.
func (s *RedisStore) Save(ctx context.Context, creds Credentials) error {
	if err := s.client.Set(ctx, s.key(KeyAuthToken), creds.Token, 0).Err(); err != nil {
		metrics.RecordCredStoreOperation("redis", "save", "failure")
		return err
	}

	if creds.SessionID != "" {
		if err := s.client.Set(ctx, s.key(KeySessionID), creds.SessionID, 0).Err(); err != nil {
			metrics.RecordCredStoreOperation("redis", "save", "failure")
			return err
		}
	}

	if creds.Profile != nil {
		profileJSON, err := json.Marshal(creds.Profile)
		if err != nil {
			metrics.RecordCredStoreOperation("redis", "save", "failure")
			return err
		}
		if err := s.client.Set(ctx, s.key(KeyUserData), string(profileJSON), 0).Err(); err != nil {
			metrics.RecordCredStoreOperation("redis", "save", "failure")
			return err
		}
	}

	metrics.RecordCredStoreOperation("redis", "save", "success")
	return nil
}

func (s *RedisStore) Load(ctx context.Context) Credentials {
	token, err := s.client.Get(ctx, s.key(KeyAuthToken)).Result()
	if err != nil {
		if err != redis.Nil {
			s.logger.WithError(err).Warn("Failed to read token from Redis, treating as signed out")
			metrics.RecordCredStoreOperation("redis", "load", "failure")
		}
		return Credentials{}
	}

	creds := Credentials{Token: token}

	if sessionID, err := s.client.Get(ctx, s.key(KeySessionID)).Result(); err == nil {
		creds.SessionID = sessionID
	}

	if raw, err := s.client.Get(ctx, s.key(KeyUserData)).Result(); err == nil && raw != "" {
		var profile Profile
		if err := json.Unmarshal([]byte(raw), &profile); err != nil {
			s.logger.WithError(err).Warn("Corrupt stored profile, ignoring")
		} else {
			creds.Profile = &profile
		}
	}

	metrics.RecordCredStoreOperation("redis", "load", "success")
	return creds
}

func (s *RedisStore) Clear(ctx context.Context) error {
	keys := []string{s.key(KeyAuthToken), s.key(KeySessionID), s.key(KeyUserData)}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		metrics.RecordCredStoreOperation("redis", "clear", "failure")
		return err
	}
	metrics.RecordCredStoreOperation("redis", "clear", "success")
	return nil
}

// Close releases the underlying Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
