package ecs

import (
	"fmt"
	"reflect"
)

// ComponentType describes one registered component type: its storage, its
// membership bit and the systems that require it.
type ComponentType struct {
	name    string
	index   int
	bit     uint64
	typ     reflect.Type
	storage ComponentStorage
	systems []*systemRecord
}

func (ct *ComponentType) Name() string { return ct.name }

// Index returns the stable numeric index given at registration, or -1.
func (ct *ComponentType) Index() int { return ct.index }

// Bit returns the membership bit. Bits repeat every 64 registrations, so a
// set bit never proves membership on its own.
func (ct *ComponentType) Bit() uint64 { return ct.bit }

func (ct *ComponentType) Type() reflect.Type        { return ct.typ }
func (ct *ComponentType) Storage() ComponentStorage { return ct.storage }
func (ct *ComponentType) String() string            { return ct.name }

func (ct *ComponentType) removeSystem(sr *systemRecord) {
	for i, s := range ct.systems {
		if s == sr {
			ct.systems = append(ct.systems[:i], ct.systems[i+1:]...)
			return
		}
	}
}

// registry tracks every component type by Go type, name and index.
type registry struct {
	byType  map[reflect.Type]*ComponentType
	byName  map[string]*ComponentType
	byIndex map[int]*ComponentType
	order   []*ComponentType
}

func newRegistry() registry {
	return registry{
		byType:  make(map[reflect.Type]*ComponentType, 16),
		byName:  make(map[string]*ComponentType, 16),
		byIndex: make(map[int]*ComponentType, 16),
		order:   make([]*ComponentType, 0, 16),
	}
}

// register assigns the next membership bit and records ct.
func (r *registry) register(ct *ComponentType) error {
	if ct.name == "" {
		return fmt.Errorf("register %s: %w", ct.typ, ErrEmptyComponentName)
	}
	if _, ok := r.byType[ct.typ]; ok {
		return fmt.Errorf("register %s: %w", ct.typ, ErrComponentAlreadyRegistered)
	}
	if _, ok := r.byName[ct.name]; ok {
		return fmt.Errorf("register %q: %w", ct.name, ErrComponentAlreadyRegistered)
	}
	if ct.index >= 0 {
		if other, ok := r.byIndex[ct.index]; ok {
			return fmt.Errorf("register %q index %d (held by %q): %w", ct.name, ct.index, other.name, ErrComponentAlreadyRegistered)
		}
		r.byIndex[ct.index] = ct
	}
	ct.bit = uint64(1) << (uint(len(r.order)) % 64)
	r.byType[ct.typ] = ct
	r.byName[ct.name] = ct
	r.order = append(r.order, ct)
	return nil
}

func (r *registry) lookup(t reflect.Type) *ComponentType {
	return r.byType[t]
}
