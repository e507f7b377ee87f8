package event

import (
	"fmt"
	"math"
)

// ID is the numeric identity of a registered event. Explicitly chosen ids are
// non-negative by convention; ids allocated by Names.Add count down from -1 so
// the two ranges never meet.
type ID int32

// InvalidID is never bound to an event. Handlers of domain-wide triggers see a
// real id; InvalidID only appears in failed lookups.
const InvalidID ID = math.MinInt32

// Ref addresses an event either by name or by id.
type Ref struct {
	name string
	id   ID
	byID bool
}

// Named refers to an event by name.
func Named(name string) Ref { return Ref{name: name, id: InvalidID} }

// ByID refers to an event by numeric id.
func ByID(id ID) Ref { return Ref{id: id, byID: true} }

func (r Ref) Name() string { return r.name }
func (r Ref) ID() ID       { return r.id }
func (r Ref) IsID() bool   { return r.byID }

func (r Ref) String() string {
	if r.byID {
		return fmt.Sprintf("event#%d", r.id)
	}
	return fmt.Sprintf("event(%q)", r.name)
}

// Names is the name<->id table of registered events. Registrations are never
// removed; they accumulate for the lifetime of the owner.
type Names struct {
	byName   map[string]ID
	byID     map[ID]string
	nextAuto ID
}

func NewNames() *Names {
	return &Names{
		byName:   make(map[string]ID, 32),
		byID:     make(map[ID]string, 32),
		nextAuto: -1,
	}
}

// Add registers name with an automatically allocated id. Adding a name that is
// already registered returns its existing id.
func (n *Names) Add(name string) (ID, error) {
	if name == "" {
		return InvalidID, ErrEmptyName
	}
	if id, ok := n.byName[name]; ok {
		return id, nil
	}
	id := n.nextAuto
	for {
		if id == InvalidID {
			return InvalidID, fmt.Errorf("allocate id for %q: %w", name, ErrInvalidID)
		}
		if _, taken := n.byID[id]; !taken {
			break
		}
		id--
	}
	n.nextAuto = id - 1
	n.bind(name, id)
	return id, nil
}

// AddWithID binds name to an explicitly chosen id. Re-adding the identical
// binding succeeds.
func (n *Names) AddWithID(name string, id ID) error {
	if name == "" {
		return ErrEmptyName
	}
	if id == InvalidID {
		return ErrInvalidID
	}
	if bound, ok := n.byID[id]; ok {
		if bound != name {
			return fmt.Errorf("bind %q to %d: %w (%q)", name, id, ErrIDConflict, bound)
		}
		return nil
	}
	if existing, ok := n.byName[name]; ok {
		return fmt.Errorf("bind %q to %d: %w (%d)", name, id, ErrNameConflict, existing)
	}
	n.bind(name, id)
	return nil
}

func (n *Names) bind(name string, id ID) {
	n.byName[name] = id
	n.byID[id] = name
}

// Resolve turns a Ref into a registered id. Named refs are registered on
// demand when create is set; id refs must already be registered.
func (n *Names) Resolve(ref Ref, create bool) (ID, error) {
	if ref.byID {
		if _, ok := n.byID[ref.id]; !ok {
			return InvalidID, fmt.Errorf("%s: %w", ref, ErrUnknownEvent)
		}
		return ref.id, nil
	}
	if id, ok := n.byName[ref.name]; ok {
		return id, nil
	}
	if !create {
		if ref.name == "" {
			return InvalidID, ErrEmptyName
		}
		return InvalidID, fmt.Errorf("%s: %w", ref, ErrUnknownEvent)
	}
	return n.Add(ref.name)
}

// Lookup returns the id bound to name.
func (n *Names) Lookup(name string) (ID, bool) {
	id, ok := n.byName[name]
	return id, ok
}

// Name returns the name bound to id.
func (n *Names) Name(id ID) (string, bool) {
	name, ok := n.byID[id]
	return name, ok
}

// Len returns the number of registered events.
func (n *Names) Len() int { return len(n.byName) }
