package ecs

// Entry is a system's per-entity view. Concrete entries embed EntryBase and
// may add any fields of their own after it.
type Entry interface {
	entryBase() *EntryBase
}

// EntryBase holds the entity and pointers to its components, in the order
// the owning system declared them in Requires.
type EntryBase struct {
	entity     Entity
	components []any
}

func (b *EntryBase) entryBase() *EntryBase { return b }

// Entity returns the entity this entry mirrors.
func (b *EntryBase) Entity() Entity { return b.entity }

// Component returns the i-th required component as a pointer of its
// concrete type.
func (b *EntryBase) Component(i int) any { return b.components[i] }

// Len returns the number of component pointers.
func (b *EntryBase) Len() int { return len(b.components) }

// EntityOf returns the entity an entry mirrors.
func EntityOf(e Entry) Entity { return e.entryBase().entity }

// Field returns the i-th component of an entry as *T. It panics if the
// system declared a different type at that position.
func Field[T any](e Entry, i int) *T {
	return e.entryBase().components[i].(*T)
}

type entryNode struct {
	entity     Entity
	entry      Entry
	prev, next int32
	used       bool
}

const noNode int32 = -1

// EntrySet is an insertion-ordered set of entries keyed by entity. Nodes
// live in a slab and are linked by index. Removal during Each leaves the node
// linked but unused until the outermost walk finishes.
type EntrySet struct {
	nodes     []entryNode
	byEntity  map[Entity]int32
	free      []int32
	pending   []int32
	head      int32
	tail      int32
	iterating int
	stamp     uint64
}

func (s *EntrySet) init() {
	if s.byEntity == nil {
		s.byEntity = make(map[Entity]int32, 64)
		s.head, s.tail = noNode, noNode
	}
}

// Len returns the number of entries.
func (s *EntrySet) Len() int { return len(s.byEntity) }

// Stamp increases on every insertion and removal. Comparing stamps tells a
// consumer whether the set changed since it last looked.
func (s *EntrySet) Stamp() uint64 { return s.stamp }

// Get returns the entry for e, or nil.
func (s *EntrySet) Get(e Entity) Entry {
	idx, ok := s.byEntity[e]
	if !ok {
		return nil
	}
	return s.nodes[idx].entry
}

// Each visits entries in insertion order until fn returns false. Entries
// removed during the walk are not visited afterwards; entries inserted during
// the walk are.
func (s *EntrySet) Each(fn func(Entry) bool) {
	if len(s.nodes) == 0 {
		return
	}
	s.iterating++
	defer s.endIteration()
	for cur := s.head; cur != noNode; cur = s.nodes[cur].next {
		n := s.nodes[cur]
		if !n.used {
			continue
		}
		if !fn(n.entry) {
			return
		}
	}
}

// EachEntry is Each with the entries asserted to the system's concrete type.
func EachEntry[E Entry](s *EntrySet, fn func(E) bool) {
	s.Each(func(e Entry) bool {
		return fn(e.(E))
	})
}

func (s *EntrySet) insert(e Entity, entry Entry) bool {
	s.init()
	if _, ok := s.byEntity[e]; ok {
		return false
	}
	var idx int32
	if n := len(s.free); n > 0 {
		idx = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		idx = int32(len(s.nodes))
		s.nodes = append(s.nodes, entryNode{})
	}
	s.nodes[idx] = entryNode{entity: e, entry: entry, prev: s.tail, next: noNode, used: true}
	if s.tail != noNode {
		s.nodes[s.tail].next = idx
	} else {
		s.head = idx
	}
	s.tail = idx
	s.byEntity[e] = idx
	s.stamp++
	return true
}

func (s *EntrySet) remove(e Entity) Entry {
	idx, ok := s.byEntity[e]
	if !ok {
		return nil
	}
	n := &s.nodes[idx]
	entry := n.entry
	n.entry = nil
	n.used = false
	delete(s.byEntity, e)
	s.stamp++
	if s.iterating > 0 {
		// Stays linked as a tombstone until the walk ends.
		s.pending = append(s.pending, idx)
		return entry
	}
	s.unlink(idx)
	return entry
}

func (s *EntrySet) unlink(idx int32) {
	n := &s.nodes[idx]
	if n.prev != noNode {
		s.nodes[n.prev].next = n.next
	} else {
		s.head = n.next
	}
	if n.next != noNode {
		s.nodes[n.next].prev = n.prev
	} else {
		s.tail = n.prev
	}
	n.prev, n.next = noNode, noNode
	s.free = append(s.free, idx)
}

func (s *EntrySet) endIteration() {
	s.iterating--
	if s.iterating > 0 {
		return
	}
	for _, idx := range s.pending {
		s.unlink(idx)
	}
	s.pending = s.pending[:0]
}

// drain removes every entry in order, handing each to fn.
func (s *EntrySet) drain(fn func(Entry)) {
	if len(s.nodes) == 0 {
		return
	}
	for cur := s.head; cur != noNode; {
		n := s.nodes[cur]
		next := n.next
		if n.used {
			fn(s.remove(n.entity))
		}
		cur = next
	}
}
