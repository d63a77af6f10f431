// Package profile — store.go описывает хранилище снимков и его
// реализацию в памяти (STORAGE_DRIVER=memory и тесты).
package profile

import (
	"context"
	"errors"
	"sort"
	"sync"
)

var (
	// ErrNotFound — профиля ещё нет
	ErrNotFound = errors.New("профиль не найден")
	// ErrVersionConflict — снимок успел измениться с момента чтения
	ErrVersionConflict = errors.New("конфликт версий профиля")
)

// Store — хранилище снимков с оптимистичной проверкой версии.
type Store interface {
	Get(ctx context.Context, userID int64) (Profile, error)
	// Create сохраняет p, если профиля ещё нет, и возвращает актуальный снимок.
	Create(ctx context.Context, p Profile) (Profile, error)
	// Update сохраняет next, только если в хранилище лежит prevVersion.
	// tx (если не nil) пишется атомарно вместе со снимком.
	Update(ctx context.Context, prevVersion int64, next Profile, tx *Transaction) error
	UserIDs(ctx context.Context) ([]int64, error)
	Transactions(ctx context.Context, userID int64, limit int) ([]Transaction, error)
}

// MemoryStore хранит снимки в памяти процесса.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[int64]Profile
	txs      map[int64][]Transaction
	nextTxID int64
}

// NewMemoryStore создаёт пустое хранилище.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[int64]Profile),
		txs:      make(map[int64][]Transaction),
	}
}

func (m *MemoryStore) Get(_ context.Context, userID int64) (Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[userID]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return p.Clone(), nil
}

func (m *MemoryStore) Create(_ context.Context, p Profile) (Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.profiles[p.UserID]; ok {
		return existing.Clone(), nil
	}
	m.profiles[p.UserID] = p.Clone()
	return p.Clone(), nil
}

func (m *MemoryStore) Update(_ context.Context, prevVersion int64, next Profile, tx *Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.profiles[next.UserID]
	if !ok {
		return ErrNotFound
	}
	if cur.Version != prevVersion {
		return ErrVersionConflict
	}
	m.profiles[next.UserID] = next.Clone()
	if tx != nil {
		m.nextTxID++
		t := *tx
		t.ID = m.nextTxID
		m.txs[next.UserID] = append(m.txs[next.UserID], t)
	}
	return nil
}

func (m *MemoryStore) UserIDs(_ context.Context) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]int64, 0, len(m.profiles))
	for id := range m.profiles {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Transactions возвращает последние limit записей, новые первыми.
func (m *MemoryStore) Transactions(_ context.Context, userID int64, limit int) ([]Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := m.txs[userID]
	out := make([]Transaction, 0, limit)
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}
