package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"gm-economy-api/internal/model"

	"github.com/redis/go-redis/v9"
)

const (
	// SessionTokenPrefix is the prefix for all host session tokens
	SessionTokenPrefix = "gmt_"

	// SessionTTL is the default session lifetime (1 hour)
	SessionTTL = 1 * time.Hour

	// sessionRedisKeyPrefix is the Redis key prefix for sessions
	sessionRedisKeyPrefix = "gmeco:session:"
)

// SessionService handles host session token generation and validation.
type SessionService struct {
	redis *redis.Client
}

// NewSessionService creates a new session service.
func NewSessionService(redisClient *redis.Client) *SessionService {
	return &SessionService{
		redis: redisClient,
	}
}

// GenerateToken creates a new session token and stores it in Redis.
func (s *SessionService) GenerateToken(ctx context.Context, data model.SessionData) (string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	token := SessionTokenPrefix + hex.EncodeToString(tokenBytes)

	data.CreatedAt = time.Now()
	data.ExpiresAt = data.CreatedAt.Add(SessionTTL)

	jsonData, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to serialize session data: %w", err)
	}

	key := sessionRedisKeyPrefix + token
	if err := s.redis.Set(ctx, key, jsonData, SessionTTL).Err(); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}

	log.Printf("[SessionService] Generated session for host_key_id=%d (%s), expires=%v",
		data.HostKeyID, data.Label, data.ExpiresAt)

	return token, nil
}

// ValidateToken checks if a session token is valid and returns its data.
func (s *SessionService) ValidateToken(ctx context.Context, token string) (*model.SessionData, error) {
	if token == "" {
		return nil, fmt.Errorf("empty token")
	}

	if len(token) < len(SessionTokenPrefix) || token[:len(SessionTokenPrefix)] != SessionTokenPrefix {
		return nil, fmt.Errorf("invalid token format")
	}

	key := sessionRedisKeyPrefix + token
	jsonData, err := s.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("session not found or expired")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var data model.SessionData
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return nil, fmt.Errorf("failed to parse session data: %w", err)
	}

	if time.Now().After(data.ExpiresAt) {
		s.redis.Del(ctx, key)
		return nil, fmt.Errorf("session expired")
	}

	return &data, nil
}

// RevokeToken deletes a session token from Redis.
func (s *SessionService) RevokeToken(ctx context.Context, token string) error {
	key := sessionRedisKeyPrefix + token
	return s.redis.Del(ctx, key).Err()
}
