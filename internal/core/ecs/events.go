package ecs

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/l1jgo/shell/internal/core/event"
)

// Handler receives triggered events. e is InvalidEntity for domain-wide
// triggers. args is whatever the trigger site passed; the domain never looks
// at it.
//
// Handlers are matched by equality on removal, so they must be comparable.
// NewHandler and HandlerOf return pointers, which always are.
type Handler interface {
	HandleEvent(d *Domain, e Entity, id event.ID, args any)
}

// HandlerFunc is the signature wrapped by NewHandler.
type HandlerFunc func(d *Domain, e Entity, id event.ID, args any)

type funcHandler struct{ fn HandlerFunc }

func (h *funcHandler) HandleEvent(d *Domain, e Entity, id event.ID, args any) {
	h.fn(d, e, id, args)
}

// NewHandler wraps fn. Keep the result to remove the handler later.
func NewHandler(fn HandlerFunc) Handler {
	return &funcHandler{fn: fn}
}

type typedHandler[T any] struct {
	fn func(d *Domain, e Entity, id event.ID, args *T)
}

func (h *typedHandler[T]) HandleEvent(d *Domain, e Entity, id event.ID, args any) {
	a, _ := args.(*T)
	h.fn(d, e, id, a)
}

// HandlerOf wraps fn for events whose argument is a *T. Arguments of any
// other type arrive as nil.
func HandlerOf[T any](fn func(d *Domain, e Entity, id event.ID, args *T)) Handler {
	return &typedHandler[T]{fn: fn}
}

func checkHandler(h Handler) error {
	if h == nil {
		return ErrNilHandler
	}
	if !reflect.TypeOf(h).Comparable() {
		return fmt.Errorf("%T: %w", h, ErrHandlerNotComparable)
	}
	return nil
}

// AddEvent registers name with an automatically allocated id and returns
// it. Registering an existing name returns the id it already has.
func (d *Domain) AddEvent(name string) (event.ID, error) {
	id, err := d.events.Add(name)
	if err != nil {
		return event.InvalidID, d.fail("add event", err, zap.String("event", name))
	}
	return id, nil
}

// AddEventWithID binds name to id. It fails if either is already bound to
// something else.
func (d *Domain) AddEventWithID(name string, id event.ID) error {
	if err := d.events.AddWithID(name, id); err != nil {
		return d.fail("add event", err, zap.String("event", name), zap.Int32("id", int32(id)))
	}
	return nil
}

func (d *Domain) EventID(name string) (event.ID, bool) { return d.events.Lookup(name) }
func (d *Domain) EventName(id event.ID) (string, bool) { return d.events.Name(id) }

// AddEventHandler binds h to the event for domain-wide dispatch. A named
// event that does not exist yet is registered.
func (d *Domain) AddEventHandler(ref event.Ref, h Handler) error {
	id, err := d.bindable(ref, h)
	if err != nil {
		return d.fail("add event handler", err)
	}
	d.handlers.Add(id, h)
	return nil
}

// AddEntityEventHandler binds h to the event for triggers aimed at e.
func (d *Domain) AddEntityEventHandler(ref event.Ref, e Entity, h Handler) error {
	rec := d.pool.get(e)
	if rec == nil {
		return d.fail("add event handler", fmt.Errorf("%s on %s: %w", ref, e, ErrInvalidEntity))
	}
	id, err := d.bindable(ref, h)
	if err != nil {
		return d.fail("add event handler", err)
	}
	rec.handlers.Add(id, h)
	return nil
}

func (d *Domain) bindable(ref event.Ref, h Handler) (event.ID, error) {
	if err := checkHandler(h); err != nil {
		return event.InvalidID, fmt.Errorf("%s: %w", ref, err)
	}
	return d.events.Resolve(ref, true)
}

// RemoveEventHandler unbinds a domain-wide handler.
func (d *Domain) RemoveEventHandler(ref event.Ref, h Handler) error {
	if err := checkHandler(h); err != nil {
		return d.fail("remove event handler", err)
	}
	id, err := d.events.Resolve(ref, false)
	if err != nil {
		return d.fail("remove event handler", err)
	}
	if !d.handlers.Remove(id, h) {
		return d.fail("remove event handler", fmt.Errorf("%s: %w", ref, ErrHandlerNotFound))
	}
	return nil
}

// RemoveEntityEventHandler unbinds a handler from e.
func (d *Domain) RemoveEntityEventHandler(ref event.Ref, e Entity, h Handler) error {
	if err := checkHandler(h); err != nil {
		return d.fail("remove event handler", err)
	}
	rec := d.pool.get(e)
	if rec == nil {
		return d.fail("remove event handler", fmt.Errorf("%s on %s: %w", ref, e, ErrInvalidEntity))
	}
	id, err := d.events.Resolve(ref, false)
	if err != nil {
		return d.fail("remove event handler", err)
	}
	if !rec.handlers.Remove(id, h) {
		return d.fail("remove event handler", fmt.Errorf("%s on %s: %w", ref, e, ErrHandlerNotFound))
	}
	return nil
}

// TriggerEvent invokes the domain-wide handlers of the event in the order
// they were added.
func (d *Domain) TriggerEvent(ref event.Ref, args any) error {
	id, err := d.events.Resolve(ref, false)
	if err != nil {
		return d.fail("trigger event", err)
	}
	d.dispatch(&d.handlers, InvalidEntity, id, args)
	return nil
}

// TriggerEntityEvent invokes e's handlers for the event, then the
// domain-wide ones. Handlers may add or remove handlers as they run; the
// change applies from the next trigger.
func (d *Domain) TriggerEntityEvent(ref event.Ref, e Entity, args any) error {
	id, err := d.events.Resolve(ref, false)
	if err != nil {
		return d.fail("trigger event", err)
	}
	rec := d.pool.get(e)
	if rec == nil {
		return d.fail("trigger event", fmt.Errorf("%s on %s: %w", ref, e, ErrInvalidEntity))
	}
	d.dispatch(&rec.handlers, e, id, args)
	d.dispatch(&d.handlers, e, id, args)
	return nil
}

func (d *Domain) dispatch(list *event.List[Handler], e Entity, id event.ID, args any) {
	snap := list.Snapshot()
	defer snap.Release()
	snap.Each(id, func(h Handler) {
		h.HandleEvent(d, e, id, args)
	})
}
