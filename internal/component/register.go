package component

import (
	"fmt"

	"github.com/l1jgo/shell/internal/core/ecs"
)

// Stable component indices. Spawn tables and scripts refer to components
// by these names and numbers.
const (
	IndexPosition = iota + 1
	IndexVelocity
	IndexBounds
	IndexLifetime
)

// Register creates storage for every component type in this package.
func Register(d *ecs.Domain) error {
	regs := []func() (*ecs.ComponentType, error){
		func() (*ecs.ComponentType, error) {
			return ecs.RegisterComponent[Position](d, "position", ecs.WithIndex(IndexPosition))
		},
		func() (*ecs.ComponentType, error) {
			return ecs.RegisterComponent[Velocity](d, "velocity", ecs.WithIndex(IndexVelocity))
		},
		func() (*ecs.ComponentType, error) {
			return ecs.RegisterComponent[Bounds](d, "bounds", ecs.WithIndex(IndexBounds))
		},
		func() (*ecs.ComponentType, error) {
			return ecs.RegisterComponent[Lifetime](d, "lifetime", ecs.WithIndex(IndexLifetime))
		},
	}
	for _, reg := range regs {
		if _, err := reg(); err != nil {
			return fmt.Errorf("register components: %w", err)
		}
	}
	return nil
}
