package store

import (
	"github.com/sentinelworks/gatepass/internal/database"
)

// Source resolves a bound repository set for either store. It is the
// seam between the connection registry and request-scoped middleware.
type Source struct {
	Registry *database.Registry
	Binder   *Binder
}

func NewSource(registry *database.Registry) *Source {
	return &Source{Registry: registry, Binder: NewBinder()}
}

func (s *Source) Production() (*Repos, error) {
	pool, err := s.Registry.Production()
	if err != nil {
		return nil, err
	}
	return s.Binder.Bind(pool)
}

func (s *Source) Demo() (*Repos, error) {
	pool, err := s.Registry.Demo()
	if err != nil {
		return nil, err
	}
	return s.Binder.Bind(pool)
}
