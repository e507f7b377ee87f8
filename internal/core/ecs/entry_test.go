package ecs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func entriesOf(s *EntrySet) []Entity {
	var out []Entity
	s.Each(func(e Entry) bool {
		out = append(out, e.entryBase().entity)
		return true
	})
	return out
}

func fill(t *testing.T, s *EntrySet, n uint32) []Entity {
	t.Helper()
	ents := make([]Entity, 0, n)
	for i := uint32(1); i <= n; i++ {
		e := newEntity(i, 1)
		require.True(t, s.insert(e, &EntryBase{entity: e}))
		ents = append(ents, e)
	}
	return ents
}

func TestEntrySetZeroValue(t *testing.T) {
	var s EntrySet
	require.Equal(t, 0, s.Len())
	require.Nil(t, s.Get(newEntity(1, 1)))
	require.Nil(t, s.remove(newEntity(1, 1)))
	require.Empty(t, entriesOf(&s))
}

func TestEntrySetInsertionOrderAndStamp(t *testing.T) {
	var s EntrySet
	ents := fill(t, &s, 3)
	require.Equal(t, uint64(3), s.Stamp())
	require.False(t, s.insert(ents[0], &EntryBase{entity: ents[0]}))
	require.Equal(t, uint64(3), s.Stamp())

	require.NotNil(t, s.remove(ents[1]))
	require.Equal(t, uint64(4), s.Stamp())
	require.Equal(t, []Entity{ents[0], ents[2]}, entriesOf(&s))

	e4 := newEntity(4, 1)
	s.insert(e4, &EntryBase{entity: e4})
	require.Equal(t, []Entity{ents[0], ents[2], e4}, entriesOf(&s))
}

func TestEntrySetRemoveDuringEach(t *testing.T) {
	var s EntrySet
	ents := fill(t, &s, 4)

	var seen []Entity
	s.Each(func(e Entry) bool {
		ent := e.entryBase().entity
		seen = append(seen, ent)
		if ent == ents[0] {
			s.remove(ents[0])
			s.remove(ents[1])
		}
		return true
	})
	require.Equal(t, []Entity{ents[0], ents[2], ents[3]}, seen)
	require.Equal(t, []Entity{ents[2], ents[3]}, entriesOf(&s))
	require.Empty(t, s.pending)
}

func TestEntrySetInsertAfterRemovedTailDuringEach(t *testing.T) {
	var s EntrySet
	ents := fill(t, &s, 2)
	extra := newEntity(9, 1)

	var seen []Entity
	s.Each(func(e Entry) bool {
		ent := e.entryBase().entity
		seen = append(seen, ent)
		if ent == ents[0] {
			s.remove(ents[1])
			s.insert(extra, &EntryBase{entity: extra})
		}
		return true
	})
	require.Equal(t, []Entity{ents[0], extra}, seen)
	require.Equal(t, 2, s.Len())
}

func TestEntrySetDrain(t *testing.T) {
	var s EntrySet
	ents := fill(t, &s, 3)
	var drained []Entity
	s.drain(func(e Entry) { drained = append(drained, e.entryBase().entity) })
	require.Equal(t, ents, drained)
	require.Equal(t, 0, s.Len())

	fill(t, &s, 2)
	require.Equal(t, 2, s.Len())
}

type tagged struct {
	EntryBase
	Note string
}

func TestFieldAndEachEntry(t *testing.T) {
	p := &plain{X: 1}
	e := &tagged{EntryBase: EntryBase{entity: newEntity(1, 1), components: []any{p}}, Note: "n"}
	require.Same(t, p, Field[plain](e, 0))
	require.Equal(t, 1, e.Len())

	var s EntrySet
	s.insert(e.entity, e)
	EachEntry(&s, func(te *tagged) bool {
		require.Equal(t, "n", te.Note)
		return true
	})
}
