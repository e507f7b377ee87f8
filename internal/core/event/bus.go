package event

// Binding pairs an event id with one of its handlers.
type Binding[H comparable] struct {
	Event   ID
	Handler H
}

// shared is the reference-counted backing store of one or more Lists and any
// outstanding Snapshots. It is only mutated while refs == 1.
type shared[H comparable] struct {
	refs     int
	bindings []Binding[H]
}

// List is a copy-on-write vector of (event, handler) bindings. The zero value
// is empty and holds no allocation; a List that becomes empty drops its
// backing store again.
type List[H comparable] struct {
	s *shared[H]
}

// Len returns the number of bindings.
func (l *List[H]) Len() int {
	if l.s == nil {
		return 0
	}
	return len(l.s.bindings)
}

// Empty reports whether the list holds no allocation.
func (l *List[H]) Empty() bool { return l.s == nil }

// Add appends a binding, taking a private copy first if the store is shared.
func (l *List[H]) Add(ev ID, h H) {
	l.unshare()
	l.s.bindings = append(l.s.bindings, Binding[H]{Event: ev, Handler: h})
}

// Remove deletes the first binding equal to (ev, h).
func (l *List[H]) Remove(ev ID, h H) bool {
	if l.indexOf(ev, h) < 0 {
		return false
	}
	l.unshare()
	i := l.indexOf(ev, h)
	b := l.s.bindings
	copy(b[i:], b[i+1:])
	var zero Binding[H]
	b[len(b)-1] = zero
	l.s.bindings = b[:len(b)-1]
	if len(l.s.bindings) == 0 {
		l.Clear()
	}
	return true
}

// Contains reports whether (ev, h) is bound.
func (l *List[H]) Contains(ev ID, h H) bool { return l.indexOf(ev, h) >= 0 }

// Count returns how many bindings exist for ev.
func (l *List[H]) Count(ev ID) int {
	if l.s == nil {
		return 0
	}
	n := 0
	for _, b := range l.s.bindings {
		if b.Event == ev {
			n++
		}
	}
	return n
}

// Share returns a second List backed by the same store. Whichever side
// mutates first takes a private copy.
func (l *List[H]) Share() List[H] {
	if l.s != nil {
		l.s.refs++
	}
	return List[H]{s: l.s}
}

// Clear releases the backing store.
func (l *List[H]) Clear() {
	if l.s != nil {
		l.s.refs--
		l.s = nil
	}
}

// Snapshot pins the current bindings. Later mutations of the List do not
// affect the snapshot. Release must be called when done.
func (l *List[H]) Snapshot() Snapshot[H] {
	if l.s == nil {
		return Snapshot[H]{}
	}
	l.s.refs++
	return Snapshot[H]{s: l.s}
}

func (l *List[H]) indexOf(ev ID, h H) int {
	if l.s == nil {
		return -1
	}
	for i, b := range l.s.bindings {
		if b.Event == ev && b.Handler == h {
			return i
		}
	}
	return -1
}

func (l *List[H]) unshare() {
	if l.s == nil {
		l.s = &shared[H]{refs: 1, bindings: make([]Binding[H], 0, 4)}
		return
	}
	if l.s.refs == 1 {
		return
	}
	l.s.refs--
	bindings := make([]Binding[H], len(l.s.bindings), len(l.s.bindings)+4)
	copy(bindings, l.s.bindings)
	l.s = &shared[H]{refs: 1, bindings: bindings}
}

// Snapshot is an immutable view of a List taken at one point in time.
type Snapshot[H comparable] struct {
	s *shared[H]
}

// Each calls fn for every handler bound to ev, in registration order.
func (s Snapshot[H]) Each(ev ID, fn func(H)) {
	if s.s == nil {
		return
	}
	for _, b := range s.s.bindings {
		if b.Event == ev {
			fn(b.Handler)
		}
	}
}

// Len returns the number of bindings in the snapshot.
func (s Snapshot[H]) Len() int {
	if s.s == nil {
		return 0
	}
	return len(s.s.bindings)
}

// Release unpins the snapshot.
func (s Snapshot[H]) Release() {
	if s.s != nil {
		s.s.refs--
	}
}
