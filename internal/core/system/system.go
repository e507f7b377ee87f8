package system

import (
	"fmt"
	"time"
)

// Phase is one of the three barriers a frame is split into. Every stepper
// finishes a phase before any stepper starts the next one.
type Phase int

const (
	PhaseReady   Phase = iota // 0: observe state, nobody has advanced yet
	PhaseAdvance              // 1: mutate per-frame state
	PhaseCleanup              // 2: every stepper has advanced
)

func (p Phase) String() string {
	switch p {
	case PhaseReady:
		return "ready"
	case PhaseAdvance:
		return "advance"
	case PhaseCleanup:
		return "cleanup"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Stepper is the per-frame contract every system implements.
type Stepper interface {
	Ready()
	Advance(dt time.Duration)
	Cleanup()
}
