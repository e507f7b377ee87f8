package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/l1jgo/shell/internal/component"
	"github.com/l1jgo/shell/internal/core/ecs"
	"github.com/l1jgo/shell/internal/core/event"
)

// Engine wraps a single gopher-lua VM bound to one domain. Scripts register
// event handlers and per-frame hooks through the globals installed by
// NewEngine. Single-goroutine access only (frame loop).
type Engine struct {
	vm       *lua.LState
	log      *zap.Logger
	domain   *ecs.Domain
	handlers []*luaHandler
}

// NewEngine creates a Lua engine for d and loads all scripts from dir.
// A missing dir loads nothing.
func NewEngine(d *ecs.Domain, dir string, log *zap.Logger) (*Engine, error) {
	e := NewBareEngine(d, log)
	if dir == "" {
		return e, nil
	}

	// Load core scripts first, then feature scripts
	for _, sub := range []string{"core", "events", "systems"} {
		p := filepath.Join(dir, sub)
		if err := e.loadDir(p); err != nil {
			e.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}
	return e, nil
}

// NewBareEngine creates an engine with the API installed and no scripts.
func NewBareEngine(d *ecs.Domain, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	// Set API version global
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log.Named("lua"), domain: d}
	e.install()
	return e
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// DoString runs a chunk of Lua in the engine.
func (e *Engine) DoString(src string) error {
	return e.vm.DoString(src)
}

// Handlers returns how many event handlers scripts have registered.
func (e *Engine) Handlers() int { return len(e.handlers) }

// Close removes the script handlers from the domain and shuts the VM down.
func (e *Engine) Close() {
	for _, h := range e.handlers {
		var err error
		if h.entity.IsZero() {
			err = e.domain.RemoveEventHandler(event.ByID(h.id), h)
		} else if e.domain.IsValid(h.entity) {
			err = e.domain.RemoveEntityEventHandler(event.ByID(h.id), h.entity, h)
		}
		if err != nil {
			e.log.Warn("remove lua handler", zap.Int32("event", int32(h.id)), zap.Error(err))
		}
	}
	e.handlers = nil
	e.vm.Close()
}

// call invokes a global Lua function if it exists. Errors are logged and
// reported as false.
func (e *Engine) call(name string, args ...lua.LValue) bool {
	fn := e.vm.GetGlobal(name)
	if fn == lua.LNil {
		return false
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, args...); err != nil {
		e.log.Error("lua "+name+" error", zap.Error(err))
		return false
	}
	return true
}

// luaHandler adapts a Lua function to ecs.Handler. Lua sees
// fn(entity, event_name, arg).
type luaHandler struct {
	engine *Engine
	fn     *lua.LFunction
	id     event.ID
	entity ecs.Entity
}

func (h *luaHandler) HandleEvent(d *ecs.Domain, e ecs.Entity, id event.ID, args any) {
	name, _ := d.EventName(id)
	vm := h.engine.vm
	if err := vm.CallByParam(lua.P{
		Fn:      h.fn,
		NRet:    0,
		Protect: true,
	}, entityValue(e), lua.LString(name), h.engine.toLua(args)); err != nil {
		h.engine.log.Error("lua event handler error",
			zap.String("event", name),
			zap.Stringer("entity", e),
			zap.Error(err))
	}
}

func entityValue(e ecs.Entity) lua.LValue {
	if e.IsZero() {
		return lua.LNil
	}
	return lua.LNumber(e)
}

func checkEntity(L *lua.LState, n int) ecs.Entity {
	v := L.Get(n)
	if v == lua.LNil {
		return ecs.InvalidEntity
	}
	return ecs.Entity(uint64(L.CheckNumber(n)))
}

// toLua converts an event argument for scripts. Unknown types arrive as
// their fmt %v text.
func (e *Engine) toLua(v any) lua.LValue {
	switch a := v.(type) {
	case nil:
		return lua.LNil
	case lua.LValue:
		return a
	case string:
		return lua.LString(a)
	case bool:
		return lua.LBool(a)
	case int:
		return lua.LNumber(a)
	case int64:
		return lua.LNumber(a)
	case float64:
		return lua.LNumber(a)
	case time.Duration:
		return lua.LNumber(a.Seconds())
	case *component.Lifetime:
		t := e.vm.NewTable()
		t.RawSetString("remaining", lua.LNumber(a.Remaining.Seconds()))
		t.RawSetString("elapsed", lua.LNumber(a.Elapsed.Seconds()))
		return t
	case *component.Position:
		t := e.vm.NewTable()
		t.RawSetString("x", lua.LNumber(a.X))
		t.RawSetString("y", lua.LNumber(a.Y))
		return t
	default:
		return lua.LString(fmt.Sprintf("%v", v))
	}
}

// fromLua converts a script value into an event argument.
func fromLua(v lua.LValue) any {
	switch a := v.(type) {
	case *lua.LNilType:
		return nil
	case lua.LString:
		return string(a)
	case lua.LNumber:
		return float64(a)
	case lua.LBool:
		return bool(a)
	default:
		return v
	}
}
