package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Redis key 前缀
	sessionKeyPrefix = "session:"
	recordsKey       = "records:snapshot"

	// 会话镜像过期时间
	sessionExpiration = 2 * time.Hour
)

// SessionData 会话数据（用于 Redis 序列化）
type SessionData struct {
	ID              int          `json:"id"`
	State           string       `json:"state"`
	Board           string       `json:"board"`
	Owner           string       `json:"owner"`
	RequiredPlayers int          `json:"required_players"`
	RoundsCompleted int          `json:"rounds_completed"`
	Players         []PlayerData `json:"players"`
	SolutionSize    int          `json:"solution_size"`
	CreatedAt       int64        `json:"created_at"`
	UpdatedAt       int64        `json:"updated_at"`
}

// PlayerData 玩家数据
type PlayerData struct {
	Name           string `json:"name"`
	Score          int    `json:"score"`
	BestWord       string `json:"best_word,omitempty"`
	BestWordPoints int    `json:"best_word_points"`
	NewWords       int    `json:"new_words"`
	RepeatedWords  int    `json:"repeated_words"`
}

// RedisStore Redis 存储
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore 创建 Redis 存储
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Client 底层客户端
func (rs *RedisStore) Client() *redis.Client {
	return rs.client
}

// Ping 检查连接
func (rs *RedisStore) Ping(ctx context.Context) error {
	return rs.client.Ping(ctx).Err()
}

// --- 会话镜像 ---

// SaveSession 保存会话到 Redis
func (rs *RedisStore) SaveSession(ctx context.Context, data *SessionData) error {
	if data == nil {
		return nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("序列化会话数据失败: %w", err)
	}

	key := sessionKey(data.ID)
	return rs.client.Set(ctx, key, jsonData, sessionExpiration).Err()
}

// LoadSession 从 Redis 加载会话镜像，不存在时返回 nil
func (rs *RedisStore) LoadSession(ctx context.Context, id int) (*SessionData, error) {
	data, err := rs.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var sessionData SessionData
	if err := json.Unmarshal(data, &sessionData); err != nil {
		return nil, fmt.Errorf("反序列化会话数据失败: %w", err)
	}
	return &sessionData, nil
}

// DeleteSession 从 Redis 删除会话
func (rs *RedisStore) DeleteSession(ctx context.Context, id int) error {
	return rs.client.Del(ctx, sessionKey(id)).Err()
}

// GetAllSessionIDs 获取所有镜像中的会话 ID
func (rs *RedisStore) GetAllSessionIDs(ctx context.Context) ([]int, error) {
	keys, err := rs.client.Keys(ctx, sessionKeyPrefix+"*").Result()
	if err != nil {
		return nil, err
	}

	ids := make([]int, 0, len(keys))
	for _, key := range keys {
		id, err := strconv.Atoi(key[len(sessionKeyPrefix):])
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// --- 记录快照 ---

// SaveRecords 保存记录快照
func (rs *RedisStore) SaveRecords(ctx context.Context, blob []byte) error {
	return rs.client.Set(ctx, recordsKey, blob, 0).Err()
}

// LoadRecords 读取记录快照，不存在时返回 nil
func (rs *RedisStore) LoadRecords(ctx context.Context) ([]byte, error) {
	data, err := rs.client.Get(ctx, recordsKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

func sessionKey(id int) string {
	return sessionKeyPrefix + strconv.Itoa(id)
}
