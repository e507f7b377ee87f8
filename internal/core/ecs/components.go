package ecs

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"
)

type componentConfig struct {
	index int
	life  any
}

// ComponentOption configures RegisterComponent.
type ComponentOption func(*componentConfig)

// WithIndex gives the component type a stable numeric index, unique within
// the domain.
func WithIndex(i int) ComponentOption {
	return func(c *componentConfig) { c.index = i }
}

// WithLifecycle overrides how components of T are constructed, copied and
// destroyed. It must be given to RegisterComponent[T] for the same T.
func WithLifecycle[T any](l Lifecycle[T]) ComponentOption {
	return func(c *componentConfig) { c.life = l }
}

// RegisterComponent creates storage for T under name. Without WithLifecycle
// the storage uses the optional Init, CopyFrom and Destroy methods of *T.
func RegisterComponent[T any](d *Domain, name string, opts ...ComponentOption) (*ComponentType, error) {
	cfg := componentConfig{index: -1}
	for _, opt := range opts {
		opt(&cfg)
	}
	var life Lifecycle[T]
	if cfg.life != nil {
		l, ok := cfg.life.(Lifecycle[T])
		if !ok {
			return nil, d.fail("register component", fmt.Errorf("register %q: %w", name, ErrLifecycleMismatch))
		}
		life = l
	}
	ct := &ComponentType{
		name:    name,
		index:   cfg.index,
		typ:     reflect.TypeOf((*T)(nil)).Elem(),
		storage: NewStorage[T](life),
	}
	if err := d.registry.register(ct); err != nil {
		return nil, d.fail("register component", err)
	}
	d.log.Debug("component registered",
		zap.String("component", name),
		zap.Stringer("type", ct.typ),
		zap.Int("index", ct.index))
	return ct, nil
}

func storageOf[T any](d *Domain) (*ComponentType, *Storage[T]) {
	ct := d.registry.lookup(reflect.TypeOf((*T)(nil)).Elem())
	if ct == nil {
		return nil, nil
	}
	return ct, ct.storage.(*Storage[T])
}

// StorageOf returns the storage registered for T, or nil.
func StorageOf[T any](d *Domain) *Storage[T] {
	_, st := storageOf[T](d)
	return st
}

// AddComponent attaches a T to e. Adding a component e already has returns
// the existing one and reports true. The pointer stays valid until the
// component or the entity is deleted.
func AddComponent[T any](d *Domain, e Entity) (*T, bool, error) {
	rec := d.pool.get(e)
	if rec == nil {
		return nil, false, d.fail("add component", fmt.Errorf("add to %s: %w", e, ErrInvalidEntity))
	}
	ct, st := storageOf[T](d)
	if ct == nil {
		return nil, false, d.fail("add component", fmt.Errorf("add %s to %s: %w", reflect.TypeOf((*T)(nil)).Elem(), e, ErrComponentNotRegistered))
	}
	c, existed := st.New(e)
	if existed {
		return c, true, nil
	}
	rec.types = append(rec.types, ct)
	rec.mask |= ct.bit
	for _, sr := range ct.systems {
		d.tryRegister(rec, sr)
	}
	return c, false, nil
}

// LookupComponent returns e's T, or nil.
func LookupComponent[T any](d *Domain, e Entity) *T {
	rec := d.pool.get(e)
	if rec == nil {
		return nil
	}
	ct, st := storageOf[T](d)
	if ct == nil || rec.mask&ct.bit == 0 || !rec.hasType(ct) {
		return nil
	}
	return st.Lookup(e)
}

// HasComponent reports whether e carries a T.
func HasComponent[T any](d *Domain, e Entity) bool {
	return LookupComponent[T](d, e) != nil
}

// DeleteComponent detaches e's T, removing e from every system that
// required it first.
func DeleteComponent[T any](d *Domain, e Entity) error {
	rec := d.pool.get(e)
	if rec == nil {
		return d.fail("delete component", fmt.Errorf("delete from %s: %w", e, ErrInvalidEntity))
	}
	ct, st := storageOf[T](d)
	if ct == nil {
		return d.fail("delete component", fmt.Errorf("delete %s from %s: %w", reflect.TypeOf((*T)(nil)).Elem(), e, ErrComponentNotRegistered))
	}
	if !rec.hasType(ct) {
		return d.fail("delete component", fmt.Errorf("delete %q from %s: %w", ct.name, e, ErrComponentNotFound))
	}
	d.detach(rec, ct)
	st.Delete(e)
	rec.removeType(ct)
	rec.recomputeMask()
	return nil
}

// detach drops every system interest of rec that depends on ct, with its
// entry if one exists. rec.systems is replaced before any entry is
// destroyed, so DestroyEntry sees the updated list.
func (d *Domain) detach(rec *entityRecord, ct *ComponentType) {
	kept := make([]*systemRecord, 0, len(rec.systems))
	var dropped []*systemRecord
	for _, sr := range rec.systems {
		if sr.requires(ct) {
			dropped = append(dropped, sr)
		} else {
			kept = append(kept, sr)
		}
	}
	rec.systems = kept
	for _, sr := range dropped {
		d.dematerialize(sr, rec)
	}
}
