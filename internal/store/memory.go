package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/empathyengine/resonance/internal/core/model"
	"github.com/empathyengine/resonance/internal/logger"
)

// memoryStore keeps chat records in a map guarded by a RWMutex. When a
// snapshot path is set, every mutation rewrites the JSON snapshot; the
// snapshot is loaded once at construction.
type memoryStore struct {
	mu           sync.RWMutex
	chats        map[string]*model.ChatRecord
	userChats    map[string][]string
	snapshotPath string
	log          *logger.Logger
}

type snapshot struct {
	Chats     map[string]*model.ChatRecord `json:"chats"`
	UserChats map[string][]string          `json:"user_chats"`
}

func newMemoryStore(cfg *storeConfig) *memoryStore {
	s := &memoryStore{
		chats:        make(map[string]*model.ChatRecord),
		userChats:    make(map[string][]string),
		snapshotPath: cfg.snapshotPath,
		log:          cfg.log,
	}
	s.loadSnapshot()
	return s
}

func (s *memoryStore) Create(ctx context.Context, rec *model.ChatRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := rec.Metadata.ChatID
	if _, exists := s.chats[id]; exists {
		return ErrAlreadyExists
	}

	stored, err := cloneRecord(rec)
	if err != nil {
		return err
	}
	s.chats[id] = stored
	s.userChats[rec.Metadata.UserID] = append(s.userChats[rec.Metadata.UserID], id)

	s.persist()
	return nil
}

func (s *memoryStore) Get(ctx context.Context, chatID string) (*model.ChatRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.chats[chatID]
	if !exists {
		return nil, ErrNotFound
	}
	return cloneRecord(rec)
}

func (s *memoryStore) Save(ctx context.Context, rec *model.ChatRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := rec.Metadata.ChatID
	if _, exists := s.chats[id]; !exists {
		return ErrNotFound
	}

	stored, err := cloneRecord(rec)
	if err != nil {
		return err
	}
	s.chats[id] = stored

	s.persist()
	return nil
}

func (s *memoryStore) Delete(ctx context.Context, chatID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.chats[chatID]
	if !exists || rec.Metadata.UserID != userID {
		return ErrNotFound
	}

	delete(s.chats, chatID)

	ids := s.userChats[userID]
	for i, id := range ids {
		if id == chatID {
			s.userChats[userID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}

	s.persist()
	return nil
}

func (s *memoryStore) ListIDs(ctx context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.userChats[userID]
	out := make([]string, len(ids))
	copy(out, ids)
	return out, nil
}

func (s *memoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.chats = nil
	s.userChats = nil
	return nil
}

// persist writes the snapshot under the held write lock. Failures are
// reported through the logger, not retried.
func (s *memoryStore) persist() {
	if s.snapshotPath == "" {
		return
	}

	data, err := json.MarshalIndent(snapshot{Chats: s.chats, UserChats: s.userChats}, "", "  ")
	if err != nil {
		s.log.Warn("failed to marshal snapshot", "error", err.Error())
		return
	}

	if err := os.MkdirAll(filepath.Dir(s.snapshotPath), 0o755); err != nil {
		s.log.Warn("failed to create snapshot directory", "error", err.Error())
		return
	}
	if err := os.WriteFile(s.snapshotPath, data, 0o644); err != nil {
		s.log.Warn("failed to write snapshot", "path", s.snapshotPath, "error", err.Error())
	}
}

func (s *memoryStore) loadSnapshot() {
	if s.snapshotPath == "" {
		return
	}

	data, err := os.ReadFile(s.snapshotPath)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("failed to read snapshot", "path", s.snapshotPath, "error", err.Error())
		}
		return
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.log.Warn("failed to parse snapshot", "path", s.snapshotPath, "error", err.Error())
		return
	}

	if snap.Chats != nil {
		s.chats = snap.Chats
	}
	if snap.UserChats != nil {
		s.userChats = snap.UserChats
	}
	s.log.Info("loaded chats from snapshot", "count", len(s.chats), "path", s.snapshotPath)
}

// cloneRecord isolates callers from the stored maps and slices.
func cloneRecord(rec *model.ChatRecord) (*model.ChatRecord, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	var out model.ChatRecord
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
