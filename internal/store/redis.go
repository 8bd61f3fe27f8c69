package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/empathyengine/resonance/internal/core/model"
)

// redisStore keeps each chat record as a JSON value under chat:<id> and
// the per-user append-order index as a list under user:<id>:chats.
type redisStore struct {
	client *redis.Client
}

func chatKey(chatID string) string {
	return "chat:" + chatID
}

func userKey(userID string) string {
	return fmt.Sprintf("user:%s:chats", userID)
}

func (s *redisStore) Create(ctx context.Context, rec *model.ChatRecord) error {
	val, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	key := chatKey(rec.Metadata.ChatID)
	ok, err := s.client.SetNX(ctx, key, val, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrAlreadyExists
	}

	return s.client.RPush(ctx, userKey(rec.Metadata.UserID), rec.Metadata.ChatID).Err()
}

func (s *redisStore) Get(ctx context.Context, chatID string) (*model.ChatRecord, error) {
	val, err := s.client.Get(ctx, chatKey(chatID)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var rec model.ChatRecord
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *redisStore) Save(ctx context.Context, rec *model.ChatRecord) error {
	val, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	key := chatKey(rec.Metadata.ChatID)
	ok, err := s.client.SetXX(ctx, key, val, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *redisStore) Delete(ctx context.Context, chatID, userID string) error {
	rec, err := s.Get(ctx, chatID)
	if err != nil {
		return err
	}
	if rec.Metadata.UserID != userID {
		return ErrNotFound
	}

	if err := s.client.Del(ctx, chatKey(chatID)).Err(); err != nil {
		return err
	}
	return s.client.LRem(ctx, userKey(userID), 0, chatID).Err()
}

func (s *redisStore) ListIDs(ctx context.Context, userID string) ([]string, error) {
	ids, err := s.client.LRange(ctx, userKey(userID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *redisStore) Close() error {
	return s.client.Close()
}
