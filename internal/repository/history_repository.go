package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"deco-front-go/internal/model"

	"github.com/go-redis/redis/v8"
)

// HistoryRepository 定义了聊天历史会话列表的持久化接口。
// 列表按保存时间倒序排列，调用方负责裁剪长度；这里只做整体读写。
type HistoryRepository interface {
	GetSessions(ctx context.Context, clientKey string) ([]model.HistorySession, error)
	SaveSessions(ctx context.Context, clientKey string, sessions []model.HistorySession) error
}

type redisHistoryRepository struct {
	redisClient *redis.Client
}

// NewHistoryRepository 创建一个新的 HistoryRepository 实例。
func NewHistoryRepository(redisClient *redis.Client) HistoryRepository {
	return &redisHistoryRepository{redisClient: redisClient}
}

// GetSessions 从 Redis 读取会话列表；没有记录时返回空列表。
func (r *redisHistoryRepository) GetSessions(ctx context.Context, clientKey string) ([]model.HistorySession, error) {
	key := historyKey(clientKey)
	jsonData, err := r.redisClient.Get(ctx, key).Result()
	if err == redis.Nil {
		return []model.HistorySession{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chat history: %w", err)
	}
	var sessions []model.HistorySession
	if err := json.Unmarshal([]byte(jsonData), &sessions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal chat history: %w", err)
	}
	return sessions, nil
}

// SaveSessions 将会话列表整体写入 Redis。不设置过期时间：历史是持久文档。
func (r *redisHistoryRepository) SaveSessions(ctx context.Context, clientKey string, sessions []model.HistorySession) error {
	if sessions == nil {
		sessions = []model.HistorySession{}
	}
	jsonData, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("failed to marshal chat history: %w", err)
	}
	if err := r.redisClient.Set(ctx, historyKey(clientKey), jsonData, 0).Err(); err != nil {
		return fmt.Errorf("failed to set chat history: %w", err)
	}
	return nil
}

func historyKey(clientKey string) string {
	return fmt.Sprintf("chat:history:%s", clientKey)
}
