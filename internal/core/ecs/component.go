package ecs

import (
	"reflect"
	"time"
)

// bucketSize is the number of components held by one bucket. Buckets are
// allocated individually and never moved, so a component's address is stable
// until it is deleted.
const bucketSize = 256

// Lifecycle is the per-type behaviour a Storage delegates to when it creates,
// copies and destroys components in place.
type Lifecycle[T any] interface {
	Construct(c *T)
	Copy(dst, src *T)
	Destroy(c *T)
}

// Optional methods a component type may implement on its pointer receiver.
// A storage without an explicit Lifecycle uses whichever are present.
type (
	Initializer   interface{ Init() }
	Copier[T any] interface{ CopyFrom(src *T) }
	Destroyer     interface{ Destroy() }
	// Ager is called for every live component when its storage advances.
	Ager interface{ Age(dt time.Duration) }
)

// LifecycleFuncs adapts plain functions to a Lifecycle. Nil fields fall back
// to zero-value construction, assignment and no-op destruction.
type LifecycleFuncs[T any] struct {
	ConstructFn func(c *T)
	CopyFn      func(dst, src *T)
	DestroyFn   func(c *T)
}

func (f LifecycleFuncs[T]) Construct(c *T) {
	if f.ConstructFn != nil {
		f.ConstructFn(c)
	}
}

func (f LifecycleFuncs[T]) Copy(dst, src *T) {
	if f.CopyFn != nil {
		f.CopyFn(dst, src)
		return
	}
	*dst = *src
}

func (f LifecycleFuncs[T]) Destroy(c *T) {
	if f.DestroyFn != nil {
		f.DestroyFn(c)
	}
}

// methodLifecycle dispatches to the optional methods implemented by *T.
type methodLifecycle[T any] struct {
	init    bool
	copier  bool
	destroy bool
}

func (m methodLifecycle[T]) Construct(c *T) {
	if m.init {
		any(c).(Initializer).Init()
	}
}

func (m methodLifecycle[T]) Copy(dst, src *T) {
	if m.copier {
		any(dst).(Copier[T]).CopyFrom(src)
		return
	}
	*dst = *src
}

func (m methodLifecycle[T]) Destroy(c *T) {
	if m.destroy {
		any(c).(Destroyer).Destroy()
	}
}

// defaultLifecycle inspects *T once. It reports trivial when *T implements
// none of the optional methods, in which case the storage skips the calls.
func defaultLifecycle[T any]() (Lifecycle[T], bool) {
	var probe *T
	_, init := any(probe).(Initializer)
	_, copier := any(probe).(Copier[T])
	_, destroy := any(probe).(Destroyer)
	if !init && !copier && !destroy {
		return nil, true
	}
	return methodLifecycle[T]{init: init, copier: copier, destroy: destroy}, false
}

// ComponentStorage is the type-erased view of a Storage the domain works
// with when it does not know the concrete component type.
type ComponentStorage interface {
	Type() reflect.Type
	NewAny(e Entity) (any, bool)
	CloneAny(e, src Entity) any
	LookupAny(e Entity) any
	Delete(e Entity) bool
	Advance(dt time.Duration)
	Len() int
}

type bucket[T any] [bucketSize]T

// Storage is a bucketed pool of components of one type keyed by entity.
// Freed slots are reused last-in first-out before the pool grows.
type Storage[T any] struct {
	life    Lifecycle[T]
	trivial bool
	ages    bool
	buckets []*bucket[T]
	owners  []Entity
	free    []int32
	slots   map[Entity]int32
	age     uint64
}

// NewStorage constructs an empty storage. A nil lifecycle selects the
// optional-method lifecycle of T.
func NewStorage[T any](life Lifecycle[T]) *Storage[T] {
	s := &Storage[T]{
		life:  life,
		slots: make(map[Entity]int32, bucketSize),
	}
	if life == nil {
		s.life, s.trivial = defaultLifecycle[T]()
	}
	var probe *T
	_, s.ages = any(probe).(Ager)
	return s
}

func (s *Storage[T]) Type() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// New returns the entity's component, constructing one in a free slot if it
// has none. The bool reports whether an existing component was returned.
func (s *Storage[T]) New(e Entity) (*T, bool) {
	if idx, ok := s.slots[e]; ok {
		return s.at(idx), true
	}
	idx := s.alloc(e)
	c := s.at(idx)
	if !s.trivial {
		s.life.Construct(c)
	}
	return c, false
}

// Clone copies src's component into a new slot for e. It returns nil if e
// already has a component or src has none.
func (s *Storage[T]) Clone(e, src Entity) *T {
	if _, ok := s.slots[e]; ok {
		return nil
	}
	srcIdx, ok := s.slots[src]
	if !ok {
		return nil
	}
	idx := s.alloc(e)
	c := s.at(idx)
	if s.trivial {
		*c = *s.at(srcIdx)
	} else {
		s.life.Copy(c, s.at(srcIdx))
	}
	return c
}

// Lookup returns the entity's component or nil.
func (s *Storage[T]) Lookup(e Entity) *T {
	idx, ok := s.slots[e]
	if !ok {
		return nil
	}
	return s.at(idx)
}

// Delete destroys the entity's component and frees its slot.
func (s *Storage[T]) Delete(e Entity) bool {
	idx, ok := s.slots[e]
	if !ok {
		return false
	}
	c := s.at(idx)
	if !s.trivial {
		s.life.Destroy(c)
	}
	var zero T
	*c = zero
	delete(s.slots, e)
	s.owners[idx] = InvalidEntity
	s.free = append(s.free, idx)
	return true
}

// Advance ages the storage and every component implementing Ager.
func (s *Storage[T]) Advance(dt time.Duration) {
	s.age++
	if !s.ages {
		return
	}
	s.Each(func(_ Entity, c *T) bool {
		any(c).(Ager).Age(dt)
		return true
	})
}

// Each visits live components in slot order until fn returns false.
func (s *Storage[T]) Each(fn func(Entity, *T) bool) {
	for idx, owner := range s.owners {
		if owner.IsZero() {
			continue
		}
		if !fn(owner, s.at(int32(idx))) {
			return
		}
	}
}

// Len returns the number of live components.
func (s *Storage[T]) Len() int { return len(s.slots) }

// Cap returns the number of slots across all allocated buckets.
func (s *Storage[T]) Cap() int { return len(s.buckets) * bucketSize }

// Age returns how many times the storage has advanced.
func (s *Storage[T]) Age() uint64 { return s.age }

func (s *Storage[T]) NewAny(e Entity) (any, bool) {
	c, existed := s.New(e)
	return c, existed
}

func (s *Storage[T]) CloneAny(e, src Entity) any {
	if c := s.Clone(e, src); c != nil {
		return c
	}
	return nil
}

func (s *Storage[T]) LookupAny(e Entity) any {
	if c := s.Lookup(e); c != nil {
		return c
	}
	return nil
}

func (s *Storage[T]) alloc(e Entity) int32 {
	var idx int32
	if n := len(s.free); n > 0 {
		idx = s.free[n-1]
		s.free = s.free[:n-1]
		s.owners[idx] = e
	} else {
		idx = int32(len(s.owners))
		if int(idx)/bucketSize >= len(s.buckets) {
			s.buckets = append(s.buckets, new(bucket[T]))
		}
		s.owners = append(s.owners, e)
	}
	s.slots[e] = idx
	return idx
}

func (s *Storage[T]) at(idx int32) *T {
	return &s.buckets[idx/bucketSize][idx%bucketSize]
}

var _ ComponentStorage = (*Storage[struct{}])(nil)
