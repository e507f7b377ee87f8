package system

import (
	"reflect"

	"go.uber.org/zap"

	"github.com/l1jgo/shell/internal/component"
	"github.com/l1jgo/shell/internal/core/ecs"
	"github.com/l1jgo/shell/internal/core/event"
)

// EventExpired is triggered on an entity right before the expiry system
// deletes it. The argument is the entity's *component.Lifetime.
const EventExpired = "Expired"

// ExpirySystem deletes entities whose Lifetime has run out. Cleanup phase,
// so every system has seen the entity during its last frame.
type ExpirySystem struct {
	ecs.SystemBase
	log     *zap.Logger
	expired int
}

func NewExpirySystem(log *zap.Logger) *ExpirySystem {
	if log == nil {
		log = zap.NewNop()
	}
	return &ExpirySystem{log: log}
}

func (s *ExpirySystem) Requires() []reflect.Type {
	return []reflect.Type{ecs.TypeOf[component.Lifetime]()}
}

func (s *ExpirySystem) Cleanup() {
	d := s.Domain()
	if s.Entries().Len() == 0 {
		return
	}
	if _, err := d.AddEvent(EventExpired); err != nil {
		s.log.Error("register expiry event", zap.Error(err))
		return
	}
	ref := event.Named(EventExpired)
	s.Entries().Each(func(en ecs.Entry) bool {
		life := ecs.Field[component.Lifetime](en, 0)
		if !life.Expired() {
			return true
		}
		e := ecs.EntityOf(en)
		if err := d.TriggerEntityEvent(ref, e, life); err != nil {
			s.log.Warn("expiry event", zap.Stringer("entity", e), zap.Error(err))
		}
		// The entity may already be gone if a handler deleted it.
		if d.IsValid(e) {
			if err := d.DeleteEntity(e); err != nil {
				s.log.Warn("delete expired entity", zap.Stringer("entity", e), zap.Error(err))
				return true
			}
		}
		s.expired++
		s.log.Debug("entity expired",
			zap.Stringer("entity", e),
			zap.String("name", d.EntityName(e)),
			zap.Duration("lived", life.Elapsed))
		return true
	})
}

// Expired returns how many entities the system has removed.
func (s *ExpirySystem) Expired() int { return s.expired }
