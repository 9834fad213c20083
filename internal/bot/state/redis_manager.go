package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vladimiradmaev/profile-switcher/internal/logger"
)

// stateTTL expires abandoned conversations
const stateTTL = 30 * time.Minute

// RedisManager manages user states using Redis
type RedisManager struct {
	client *redis.Client
	log    *slog.Logger
}

// NewRedisManager creates a new Redis-based state manager
func NewRedisManager(redisHost, redisPort string) (*RedisManager, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", redisHost, redisPort),
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisManager{
		client: client,
		log:    logger.Component("redis_state"),
	}, nil
}

func stateKey(userID int64) string { return fmt.Sprintf("profile-switcher:user:%d:state", userID) }
func tempKey(userID int64) string  { return fmt.Sprintf("profile-switcher:user:%d:temp", userID) }

// SetUserState sets the state for a user with TTL
func (m *RedisManager) SetUserState(userID int64, state string) {
	if err := m.client.Set(context.Background(), stateKey(userID), state, stateTTL).Err(); err != nil {
		m.log.Error("Failed to save user state", "user_id", userID, "error", err)
	}
}

// GetUserState gets the state for a user
func (m *RedisManager) GetUserState(userID int64) string {
	result := m.client.Get(context.Background(), stateKey(userID))
	if errors.Is(result.Err(), redis.Nil) {
		return None
	}
	if result.Err() != nil {
		m.log.Error("Failed to read user state", "user_id", userID, "error", result.Err())
		return None
	}
	return result.Val()
}

// ClearUserState clears the state for a user
func (m *RedisManager) ClearUserState(userID int64) {
	m.client.Del(context.Background(), stateKey(userID))
}

// SetTempData sets temporary data for a user
func (m *RedisManager) SetTempData(userID int64, key string, value interface{}) {
	tempData := m.getTempDataMap(userID)
	if tempData == nil {
		tempData = make(map[string]interface{})
	}
	tempData[key] = value
	m.saveTempDataMap(userID, tempData)
}

// GetTempData gets temporary data for a user
func (m *RedisManager) GetTempData(userID int64, key string) (interface{}, bool) {
	tempData := m.getTempDataMap(userID)
	if tempData == nil {
		return nil, false
	}
	value, exists := tempData[key]
	return value, exists
}

// ClearTempData clears all temporary data for a user
func (m *RedisManager) ClearTempData(userID int64) {
	m.client.Del(context.Background(), tempKey(userID))
}

// Close closes the Redis connection
func (m *RedisManager) Close() error {
	return m.client.Close()
}

func (m *RedisManager) getTempDataMap(userID int64) map[string]interface{} {
	result := m.client.Get(context.Background(), tempKey(userID))
	if result.Err() != nil {
		if !errors.Is(result.Err(), redis.Nil) {
			m.log.Error("Failed to read temp data", "user_id", userID, "error", result.Err())
		}
		return nil
	}
	return decodeTempData(result.Val())
}

func (m *RedisManager) saveTempDataMap(userID int64, tempData map[string]interface{}) {
	data, err := encodeTempData(tempData)
	if err != nil {
		m.log.Error("Failed to encode temp data", "user_id", userID, "error", err)
		return
	}
	if err := m.client.Set(context.Background(), tempKey(userID), data, stateTTL).Err(); err != nil {
		m.log.Error("Failed to save temp data", "user_id", userID, "error", err)
	}
}

func encodeTempData(tempData map[string]interface{}) (string, error) {
	data, err := json.Marshal(tempData)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeTempData(raw string) map[string]interface{} {
	var tempData map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &tempData); err != nil {
		return nil
	}
	return tempData
}
