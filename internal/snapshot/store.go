package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/pep299/subreddit-digest/internal/config"
	"github.com/pep299/subreddit-digest/internal/model"
)

// ErrNotFound is returned by Load when no snapshot has been saved yet
var ErrNotFound = errors.New("snapshot not found")

// Store persists the last published snapshot so it survives restarts
type Store interface {
	Load(ctx context.Context) (*model.Snapshot, error)
	Save(ctx context.Context, s *model.Snapshot) error
	Close() error
}

// NewStore creates the store selected by configuration
func NewStore(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.SnapshotStore {
	case config.StoreMemory:
		return NewMemoryStore(), nil
	case config.StoreFile:
		return NewFileStore(cfg.SnapshotPath), nil
	case config.StoreCloudStorage:
		store, err := NewCloudStorageStore(ctx, cfg.SnapshotBucket, objectName(cfg.Subreddit))
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.StoreRedis:
		store, err := NewRedisStore(cfg.RedisURL, redisKey(cfg.Subreddit))
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.StorePostgres:
		store, err := NewPostgresStore(ctx, cfg.DatabaseURL, cfg.Subreddit)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported snapshot store type: %s", cfg.SnapshotStore)
	}
}

// MemoryStore keeps the encoded snapshot in memory
type MemoryStore struct {
	mu   sync.RWMutex
	data []byte
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(ctx context.Context) (*model.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.data == nil {
		return nil, ErrNotFound
	}
	return decode(m.data)
}

func (m *MemoryStore) Save(ctx context.Context, s *model.Snapshot) error {
	data, err := encode(s)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = data
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}

func encode(s *model.Snapshot) ([]byte, error) {
	if s == nil {
		return nil, errors.New("snapshot is nil")
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshaling snapshot: %w", err)
	}
	return data, nil
}

func decode(data []byte) (*model.Snapshot, error) {
	var s model.Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshaling snapshot: %w", err)
	}
	if s.Stories == nil {
		s.Stories = []model.Story{}
	}
	return &s, nil
}

func objectName(channel string) string {
	return "snapshots/" + channel + ".json"
}

func redisKey(channel string) string {
	return "subreddit-digest:snapshot:" + channel
}
