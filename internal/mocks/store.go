package mocks

import (
	"context"
	"sync"

	"github.com/pep299/subreddit-digest/internal/model"
	"github.com/pep299/subreddit-digest/internal/snapshot"
)

// Mock snapshot store
type MockSnapshotStore struct {
	mu       sync.Mutex
	Snapshot *model.Snapshot
	LoadErr  error
	SaveErr  error
	saves    int
}

func (m *MockSnapshotStore) Load(ctx context.Context) (*model.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	if m.Snapshot == nil {
		return nil, snapshot.ErrNotFound
	}
	return m.Snapshot, nil
}

func (m *MockSnapshotStore) Save(ctx context.Context, s *model.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.saves++
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Snapshot = s
	return nil
}

func (m *MockSnapshotStore) Close() error {
	return nil
}

// Saves returns how many times Save was called
func (m *MockSnapshotStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
