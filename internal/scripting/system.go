package scripting

import (
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/l1jgo/shell/internal/core/ecs"
)

// ScriptSystem runs the Lua globals ready(), advance(dt) and cleanup() in
// the matching frame phases. dt is in seconds. It requires no components,
// so it never holds entries.
type ScriptSystem struct {
	ecs.SystemBase
	engine *Engine
	calls  int
}

func NewScriptSystem(e *Engine) *ScriptSystem {
	return &ScriptSystem{engine: e}
}

func (s *ScriptSystem) Ready() {
	if s.engine.call("ready") {
		s.calls++
	}
}

func (s *ScriptSystem) Advance(dt time.Duration) {
	if s.engine.call("advance", lua.LNumber(dt.Seconds())) {
		s.calls++
	}
}

func (s *ScriptSystem) Cleanup() {
	if s.engine.call("cleanup") {
		s.calls++
	}
}

// Calls returns how many hook calls completed without error.
func (s *ScriptSystem) Calls() int { return s.calls }
