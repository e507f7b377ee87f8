package system

import (
	"context"
	"runtime/trace"
	"time"
)

type entry struct {
	s       Stepper
	removed bool
}

// Runner drives registered steppers through the phase barriers in
// registration order. Removal is deferred: a removed stepper is skipped at
// once but only dropped from the list on Flush, so removing during a phase
// never disturbs the iteration in progress.
type Runner struct {
	entries []entry
	pending int
}

func NewRunner() *Runner {
	return &Runner{
		entries: make([]entry, 0, 16),
	}
}

func (r *Runner) Register(s Stepper) {
	r.entries = append(r.entries, entry{s: s})
}

// Remove marks s for removal. It reports false if s is not registered.
func (r *Runner) Remove(s Stepper) bool {
	for i := range r.entries {
		if r.entries[i].s == s && !r.entries[i].removed {
			r.entries[i].removed = true
			r.pending++
			return true
		}
	}
	return false
}

// Flush drops steppers marked by Remove.
func (r *Runner) Flush() {
	if r.pending == 0 {
		return
	}
	kept := r.entries[:0]
	for _, e := range r.entries {
		if !e.removed {
			kept = append(kept, e)
		}
	}
	for i := len(kept); i < len(r.entries); i++ {
		r.entries[i] = entry{}
	}
	r.entries = kept
	r.pending = 0
}

// Len returns the number of live steppers.
func (r *Runner) Len() int {
	return len(r.entries) - r.pending
}

// Tick runs all three phases. Steppers registered during the tick join on
// the next one.
func (r *Runner) Tick(dt time.Duration) {
	n := len(r.entries)
	r.run(PhaseReady, n, dt)
	r.run(PhaseAdvance, n, dt)
	r.run(PhaseCleanup, n, dt)
}

// TickPhase runs a single phase over every live stepper.
func (r *Runner) TickPhase(phase Phase, dt time.Duration) {
	r.run(phase, len(r.entries), dt)
}

func (r *Runner) run(phase Phase, n int, dt time.Duration) {
	trace.WithRegion(context.Background(), phase.String(), func() {
		for i := 0; i < n && i < len(r.entries); i++ {
			e := r.entries[i]
			if e.removed {
				continue
			}
			switch phase {
			case PhaseReady:
				e.s.Ready()
			case PhaseAdvance:
				e.s.Advance(dt)
			case PhaseCleanup:
				e.s.Cleanup()
			}
		}
	})
}

// Each visits live steppers in registration order.
func (r *Runner) Each(fn func(Stepper)) {
	n := len(r.entries)
	for i := 0; i < n && i < len(r.entries); i++ {
		if !r.entries[i].removed {
			fn(r.entries[i].s)
		}
	}
}
