package ecs

import (
	"reflect"
	"sync"
	"time"

	"github.com/l1jgo/shell/internal/core/system"
)

// System is logic that runs over every active entity carrying all of the
// component types it requires. Implementations embed SystemBase and are
// always used by pointer.
type System interface {
	system.Stepper
	Render(target any)
	Name() string
	// Requires lists the component types an entity must carry, in the order
	// their pointers appear in each Entry.
	Requires() []reflect.Type
	// NewEntry returns a blank entry. The domain fills in the entity and the
	// component pointers.
	NewEntry() Entry
	// DestroyEntry is called after an entry leaves the system.
	DestroyEntry(e Entry)
	base() *SystemBase
}

// TypeOf is shorthand for listing component types in Requires.
func TypeOf[T any]() reflect.Type { return reflect.TypeOf((*T)(nil)).Elem() }

// SystemBase supplies no-op phase methods, plain entries and the
// bookkeeping the domain needs. Embed it and override what the system uses.
type SystemBase struct {
	nameOnce    sync.Once
	defaultName string
	name        string
	domain      *Domain
	record      *systemRecord
	entries     EntrySet
}

func (b *SystemBase) base() *SystemBase { return b }

func (b *SystemBase) Ready()                   {}
func (b *SystemBase) Advance(time.Duration)    {}
func (b *SystemBase) Cleanup()                 {}
func (b *SystemBase) Render(any)               {}
func (b *SystemBase) Requires() []reflect.Type { return nil }
func (b *SystemBase) NewEntry() Entry          { return &EntryBase{} }
func (b *SystemBase) DestroyEntry(Entry)       {}

// Name returns the name the system was registered under, or "" before it
// is added to a domain.
func (b *SystemBase) Name() string { return b.name }

// Entries returns the set of entries currently held by the system.
func (b *SystemBase) Entries() *EntrySet { return &b.entries }

// Entry returns the system's entry for e, or nil.
func (b *SystemBase) Entry(e Entity) Entry { return b.entries.Get(e) }

// Domain returns the domain the system is registered with, or nil.
func (b *SystemBase) Domain() *Domain { return b.domain }

// typeName resolves the default name once per instance from the concrete
// type embedding the base.
func (b *SystemBase) typeName(s System) string {
	b.nameOnce.Do(func() {
		t := reflect.TypeOf(s)
		for t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		b.defaultName = t.Name()
	})
	return b.defaultName
}

// systemRecord is the domain's registration of one system.
type systemRecord struct {
	sys   System
	name  string
	mask  uint64
	types []*ComponentType
	valid bool
}

// matches applies the membership rule: the mask is a fast reject and the
// descriptor scan decides. A system requiring nothing matches nothing.
func (sr *systemRecord) matches(rec *entityRecord) bool {
	if len(sr.types) == 0 {
		return false
	}
	if sr.mask&rec.mask != sr.mask {
		return false
	}
	for _, ct := range sr.types {
		if !rec.hasType(ct) {
			return false
		}
	}
	return true
}

func (sr *systemRecord) requires(ct *ComponentType) bool {
	for _, t := range sr.types {
		if t == ct {
			return true
		}
	}
	return false
}
