package store

import (
	"context"
	"sort"
	"sync"

	"github.com/karupanerura/rpn-expressions/internal/types"
	"github.com/samber/lo"
)

// Store keeps the stored form of each expression keyed by id.
type Store interface {
	Load(ctx context.Context, id int) (string, error)
	Create(ctx context.Context, id int, raw string) error
	Replace(ctx context.Context, id int, raw string) error
	Delete(ctx context.Context, id int) error
	ListIDs(ctx context.Context) ([]int, error)
}

type MemoryStore struct {
	mu      sync.RWMutex
	records map[int]string
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[int]string{}}
}

func notFound(id int) error {
	return &types.Error{
		Tag:   types.NotFoundErrorTag,
		Err:   errExpressionNotFound,
		Extra: map[string]any{"id": id},
	}
}

func alreadyExists(id int) error {
	return &types.Error{
		Tag:   types.AlreadyExistsErrorTag,
		Err:   errExpressionAlreadyExists,
		Extra: map[string]any{"id": id},
	}
}

func (s *MemoryStore) Load(_ context.Context, id int) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, ok := s.records[id]
	if !ok {
		return "", notFound(id)
	}
	return raw, nil
}

func (s *MemoryStore) Create(_ context.Context, id int, raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; ok {
		return alreadyExists(id)
	}
	s.records[id] = raw
	return nil
}

func (s *MemoryStore) Replace(_ context.Context, id int, raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return notFound(id)
	}
	s.records[id] = raw
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return notFound(id)
	}
	delete(s.records, id)
	return nil
}

func (s *MemoryStore) ListIDs(context.Context) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := lo.Keys(s.records)
	sort.Ints(ids)
	return ids, nil
}

func (s *MemoryStore) exists(id int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.records[id]
	return ok
}

// snapshotWith returns every record with id set to raw, or without id when
// remove is true. The store itself is not modified.
func (s *MemoryStore) snapshotWith(id int, raw string, remove bool) []record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]record, 0, len(s.records)+1)
	for recordID, expr := range s.records {
		if recordID != id {
			records = append(records, record{ID: recordID, Expression: expr})
		}
	}
	if !remove {
		records = append(records, record{ID: id, Expression: raw})
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].ID < records[j].ID
	})
	return records
}

func (s *MemoryStore) restore(records []record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = lo.Associate(records, func(r record) (int, string) {
		return r.ID, r.Expression
	})
}
