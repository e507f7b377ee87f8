package system

import (
	"reflect"
	"time"

	"github.com/l1jgo/shell/internal/component"
	"github.com/l1jgo/shell/internal/core/ecs"
)

// MotionSystem integrates Velocity into Position. Advance phase.
type MotionSystem struct {
	ecs.SystemBase
}

func NewMotionSystem() *MotionSystem {
	return &MotionSystem{}
}

func (s *MotionSystem) Requires() []reflect.Type {
	return []reflect.Type{
		ecs.TypeOf[component.Position](),
		ecs.TypeOf[component.Velocity](),
	}
}

func (s *MotionSystem) Advance(dt time.Duration) {
	secs := dt.Seconds()
	s.Entries().Each(func(e ecs.Entry) bool {
		pos := ecs.Field[component.Position](e, 0)
		vel := ecs.Field[component.Velocity](e, 1)
		pos.X += vel.DX * secs
		pos.Y += vel.DY * secs
		return true
	})
}
