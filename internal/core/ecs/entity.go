package ecs

import (
	"fmt"

	"github.com/l1jgo/shell/internal/core/event"
)

// Entity encodes a 32-bit index in the lower bits and a 32-bit generation
// in the upper bits. Generation increments when the record is reclaimed, so a
// stale handle never resolves to the record's next occupant.
type Entity uint64

// InvalidEntity is the zero handle. Generations start at 1, so no live
// entity ever encodes to it.
const InvalidEntity Entity = 0

func newEntity(index uint32, generation uint32) Entity {
	return Entity(uint64(generation)<<32 | uint64(index))
}

func (e Entity) Index() uint32      { return uint32(e) }
func (e Entity) Generation() uint32 { return uint32(e >> 32) }
func (e Entity) IsZero() bool       { return e == InvalidEntity }

func (e Entity) String() string {
	if e.IsZero() {
		return "Entity(invalid)"
	}
	return fmt.Sprintf("Entity(%d:%d)", e.Index(), e.Generation())
}

// entityRecord is the domain-owned state behind an Entity. Its address is
// stable for as long as the record is valid.
type entityRecord struct {
	index      uint32
	generation uint32
	name       string
	mask       uint64
	types      []*ComponentType
	systems    []*systemRecord
	handlers   event.List[Handler]
	valid      bool
	active     bool
}

func (r *entityRecord) handle() Entity {
	return newEntity(r.index, r.generation)
}

func (r *entityRecord) hasType(ct *ComponentType) bool {
	for _, t := range r.types {
		if t == ct {
			return true
		}
	}
	return false
}

func (r *entityRecord) removeType(ct *ComponentType) {
	for i, t := range r.types {
		if t == ct {
			r.types = append(r.types[:i], r.types[i+1:]...)
			return
		}
	}
}

// recomputeMask rebuilds the membership mask from the descriptor list. Used
// after removals instead of clearing a bit another type may share.
func (r *entityRecord) recomputeMask() {
	r.mask = 0
	for _, t := range r.types {
		r.mask |= t.bit
	}
}

func (r *entityRecord) hasSystem(sr *systemRecord) bool {
	for _, s := range r.systems {
		if s == sr {
			return true
		}
	}
	return false
}

func (r *entityRecord) removeSystem(sr *systemRecord) bool {
	for i, s := range r.systems {
		if s == sr {
			r.systems = append(r.systems[:i], r.systems[i+1:]...)
			return true
		}
	}
	return false
}

// entityPool manages entity records with generational indices and a free
// list. Records are heap-allocated individually so growing the index never
// moves one.
type entityPool struct {
	records  []*entityRecord
	freeList []uint32
	live     int
}

func newEntityPool() entityPool {
	return entityPool{
		records:  make([]*entityRecord, 0, 1024),
		freeList: make([]uint32, 0, 256),
	}
}

func (p *entityPool) create() *entityRecord {
	var rec *entityRecord
	if n := len(p.freeList); n > 0 {
		idx := p.freeList[n-1]
		p.freeList = p.freeList[:n-1]
		rec = p.records[idx]
	} else {
		rec = &entityRecord{index: uint32(len(p.records)), generation: 1}
		p.records = append(p.records, rec)
	}
	rec.valid = true
	p.live++
	return rec
}

// get resolves a handle to its record, or nil if the handle is stale or the
// entity has been deleted.
func (p *entityPool) get(e Entity) *entityRecord {
	idx := e.Index()
	if e.IsZero() || int(idx) >= len(p.records) {
		return nil
	}
	rec := p.records[idx]
	if !rec.valid || rec.generation != e.Generation() {
		return nil
	}
	return rec
}

// markDeleted flags the record invalid without reclaiming it.
func (p *entityPool) markDeleted(rec *entityRecord) {
	rec.valid = false
	p.live--
}

// reclaim resets a deleted record and returns its index to the free list.
func (p *entityPool) reclaim(rec *entityRecord) {
	rec.generation++
	if rec.generation == 0 {
		rec.generation = 1
	}
	rec.name = ""
	rec.mask = 0
	rec.types = rec.types[:0]
	rec.systems = rec.systems[:0]
	rec.handlers.Clear()
	rec.active = false
	p.freeList = append(p.freeList, rec.index)
}
