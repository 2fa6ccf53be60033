package store

import (
	"context"
	"sync"
	"time"
)

// MemoryStore はプロセス内メモリに保持する Repository 実装です。
type MemoryStore struct {
	repository
	mu       sync.RWMutex
	projects map[string]*Project
}

// NewMemoryStore は空の MemoryStore を生成します。
func NewMemoryStore() *MemoryStore {
	m := &MemoryStore{projects: make(map[string]*Project)}
	m.repository = repository{b: m, now: time.Now}
	return m
}

func (m *MemoryStore) view(ctx context.Context, projectID string, fn func(*Project) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.projects[projectID]
	if !ok {
		p = newProject(projectID)
	}
	return fn(p)
}

// mutate は複製に対して fn を適用し、成功したときだけ差し替えます。
func (m *MemoryStore) mutate(ctx context.Context, projectID string, fn func(*Project) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[projectID]
	if !ok {
		p = newProject(projectID)
	}
	next := p.clone()
	if err := fn(next); err != nil {
		return err
	}
	m.projects[projectID] = next
	return nil
}

var _ Repository = (*MemoryStore)(nil)
