package keywords

import (
	"sync"

	"github.com/rs/zerolog"
)

// Service serializes load-mutate-save cycles against a Store. The store is
// written only when a mutation actually changes the set.
type Service struct {
	store Store
	log   zerolog.Logger
	mu    sync.Mutex
}

// NewService wraps store.
func NewService(store Store, log zerolog.Logger) *Service {
	return &Service{
		store: store,
		log:   log.With().Str("component", "keywords").Logger(),
	}
}

// List returns the current set.
func (s *Service) List() (Set, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Load()
}

// Add appends term unless an equivalent one exists and returns the resulting set.
func (s *Service) Add(term string) (Set, error) {
	return s.mutate("add", term, Set.Add)
}

// Remove drops every entry equal to term, ignoring case, and returns the resulting set.
func (s *Service) Remove(term string) (Set, error) {
	return s.mutate("remove", term, Set.Remove)
}

func (s *Service) mutate(op, term string, fn func(Set, string) (Set, bool, error)) (Set, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	next, changed, err := fn(current, term)
	if err != nil {
		return current, err
	}
	if !changed {
		s.log.Debug().Str("op", op).Str("term", term).Msg("keyword set unchanged")
		return current, nil
	}
	if err := s.store.Save(next); err != nil {
		return current, err
	}
	s.log.Info().Str("op", op).Str("term", term).Int("count", len(next)).Msg("keyword set saved")
	return next, nil
}
