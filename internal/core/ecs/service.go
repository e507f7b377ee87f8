package ecs

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/google/uuid"
)

// ServiceID identifies a service by a 128-bit UUID.
type ServiceID = uuid.UUID

// ParseServiceID parses a UUID in any form uuid.Parse accepts, including
// the braced "{xxxxxxxx-...}" form.
func ParseServiceID(s string) (ServiceID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return ServiceID{}, fmt.Errorf("parse service id %q: %w", s, err)
	}
	return id, nil
}

// MustServiceID is ParseServiceID for package-level ids; it panics on error.
func MustServiceID(s string) ServiceID { return uuid.MustParse(s) }

// ServiceProvider resolves services by id.
type ServiceProvider interface {
	Service(id ServiceID) (any, bool)
}

// OwnerContext is the application context a domain belongs to. If it also
// implements ServiceProvider and no provider was given, the domain uses it.
type OwnerContext interface {
	Lookup(key string) (any, bool)
}

// Services is a map-backed ServiceProvider.
type Services struct {
	mu     sync.RWMutex
	values map[ServiceID]any
}

func NewServices() *Services {
	return &Services{values: make(map[ServiceID]any)}
}

func (s *Services) Service(id ServiceID) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[id]
	return v, ok
}

func (s *Services) Set(id ServiceID, v any) {
	s.mu.Lock()
	s.values[id] = v
	s.mu.Unlock()
}

func (s *Services) Delete(id ServiceID) {
	s.mu.Lock()
	delete(s.values, id)
	s.mu.Unlock()
}

// Services returns the domain's service provider, or nil.
func (d *Domain) Services() ServiceProvider { return d.services }

// Resolve looks up the service id in the domain's provider and asserts it
// to T.
func Resolve[T any](d *Domain, id ServiceID) (T, error) {
	var zero T
	if d.services == nil {
		return zero, fmt.Errorf("resolve %s: %w", id, ErrNoServiceProvider)
	}
	v, ok := d.services.Service(id)
	if !ok {
		return zero, fmt.Errorf("resolve %s: %w", id, ErrServiceNotFound)
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("resolve %s as %s (have %T): %w", id, reflect.TypeOf((*T)(nil)).Elem(), v, ErrServiceType)
	}
	return t, nil
}

var _ ServiceProvider = (*Services)(nil)
