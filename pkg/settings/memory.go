package settings

import (
	"context"
	"sync"
)

// MemStore keeps settings in memory. It backs the -memory development mode
// and doubles as a scriptable store in tests: the On* hooks, when set, run
// before the corresponding operation and may fail it.
type MemStore struct {
	mu     sync.Mutex
	values map[string]string

	OnSave   func(name string) error
	OnFlush  func() error
	OnDelete func(name string) error
}

func NewMemStore() *MemStore {
	return &MemStore{values: map[string]string{}}
}

func (s *MemStore) Save(ctx context.Context, name string, value string) (Setting, error) {
	if s.OnSave != nil {
		if err := s.OnSave(name); err != nil {
			return Setting{}, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[name] = value
	return Setting{Name: name, Value: value}, nil
}

func (s *MemStore) Flush(ctx context.Context) error {
	if s.OnFlush != nil {
		return s.OnFlush()
	}
	return nil
}

func (s *MemStore) Delete(ctx context.Context, setting Setting) error {
	if s.OnDelete != nil {
		if err := s.OnDelete(setting.Name); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[setting.Name]; !ok {
		return ErrNotFound
	}
	delete(s.values, setting.Name)
	return nil
}

func (s *MemStore) Get(ctx context.Context, name string) (Setting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.values[name]
	if !ok {
		return Setting{}, ErrNotFound
	}
	return Setting{Name: name, Value: value}, nil
}

func (s *MemStore) Count(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.values)), nil
}

func (s *MemStore) Close() {}
