package scripting

import (
	"fmt"
	"math"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/l1jgo/shell/internal/component"
	"github.com/l1jgo/shell/internal/core/ecs"
	"github.com/l1jgo/shell/internal/core/event"
)

// install registers the Go functions scripts can call.
//
//	on_event(name, fn)                   fn(entity|nil, name, arg)
//	on_entity_event(name, entity, fn)
//	trigger_event(name [, entity [, arg]]) -> ok
//	add_event(name [, id]) -> id
//	entity(name) -> entity|nil
//	entity_name(entity) -> string
//	is_valid(entity) -> bool
//	delete_entity(entity) -> ok
//	position(entity) -> x, y | nil
//	set_position(entity, x, y) -> ok
//	set_velocity(entity, dx, dy) -> ok
//	frame() -> number
//	log(msg)
func (e *Engine) install() {
	for name, fn := range map[string]lua.LGFunction{
		"on_event":        e.luaOnEvent,
		"on_entity_event": e.luaOnEntityEvent,
		"trigger_event":   e.luaTriggerEvent,
		"add_event":       e.luaAddEvent,
		"entity":          e.luaEntity,
		"entity_name":     e.luaEntityName,
		"is_valid":        e.luaIsValid,
		"delete_entity":   e.luaDeleteEntity,
		"position":        e.luaPosition,
		"set_position":    e.luaSetPosition,
		"set_velocity":    e.luaSetVelocity,
		"frame":           e.luaFrame,
		"log":             e.luaLog,
	} {
		e.vm.SetGlobal(name, e.vm.NewFunction(fn))
	}
}

// resolveEntity accepts either an entity handle or an entity name.
func (e *Engine) resolveEntity(L *lua.LState, n int) ecs.Entity {
	if s, ok := L.Get(n).(lua.LString); ok {
		return e.domain.GetEntity(string(s))
	}
	return checkEntity(L, n)
}

func (e *Engine) luaOnEvent(L *lua.LState) int {
	name := L.CheckString(1)
	fn := L.CheckFunction(2)
	h := &luaHandler{engine: e, fn: fn}
	if err := e.domain.AddEventHandler(event.Named(name), h); err != nil {
		L.RaiseError("on_event %s: %s", name, err.Error())
		return 0
	}
	h.id, _ = e.domain.EventID(name)
	e.handlers = append(e.handlers, h)
	return 0
}

func (e *Engine) luaOnEntityEvent(L *lua.LState) int {
	name := L.CheckString(1)
	ent := e.resolveEntity(L, 2)
	fn := L.CheckFunction(3)
	h := &luaHandler{engine: e, fn: fn, entity: ent}
	if err := e.domain.AddEntityEventHandler(event.Named(name), ent, h); err != nil {
		L.RaiseError("on_entity_event %s: %s", name, err.Error())
		return 0
	}
	h.id, _ = e.domain.EventID(name)
	e.handlers = append(e.handlers, h)
	return 0
}

func (e *Engine) luaTriggerEvent(L *lua.LState) int {
	name := L.CheckString(1)
	arg := fromLua(L.Get(3))
	var err error
	if L.Get(2) == lua.LNil {
		err = e.domain.TriggerEvent(event.Named(name), arg)
	} else {
		err = e.domain.TriggerEntityEvent(event.Named(name), e.resolveEntity(L, 2), arg)
	}
	if err != nil {
		e.log.Warn("trigger_event", zap.String("event", name), zap.Error(err))
	}
	L.Push(lua.LBool(err == nil))
	return 1
}

func (e *Engine) luaAddEvent(L *lua.LState) int {
	name := L.CheckString(1)
	if L.GetTop() >= 2 {
		n := float64(L.CheckNumber(2))
		if n < math.MinInt32 || n > math.MaxInt32 || n != math.Trunc(n) {
			L.ArgError(2, fmt.Sprintf("event id %v is not a 32-bit integer", n))
			return 0
		}
		id := event.ID(n)
		if err := e.domain.AddEventWithID(name, id); err != nil {
			L.RaiseError("add_event %s: %s", name, err.Error())
			return 0
		}
		L.Push(lua.LNumber(id))
		return 1
	}
	id, err := e.domain.AddEvent(name)
	if err != nil {
		L.RaiseError("add_event %s: %s", name, err.Error())
		return 0
	}
	L.Push(lua.LNumber(id))
	return 1
}

func (e *Engine) luaEntity(L *lua.LState) int {
	L.Push(entityValue(e.domain.GetEntity(L.CheckString(1))))
	return 1
}

func (e *Engine) luaEntityName(L *lua.LState) int {
	L.Push(lua.LString(e.domain.EntityName(e.resolveEntity(L, 1))))
	return 1
}

func (e *Engine) luaIsValid(L *lua.LState) int {
	L.Push(lua.LBool(e.domain.IsValid(e.resolveEntity(L, 1))))
	return 1
}

func (e *Engine) luaDeleteEntity(L *lua.LState) int {
	ent := e.resolveEntity(L, 1)
	if !e.domain.IsValid(ent) {
		L.Push(lua.LFalse)
		return 1
	}
	err := e.domain.DeleteEntity(ent)
	L.Push(lua.LBool(err == nil))
	return 1
}

func (e *Engine) luaPosition(L *lua.LState) int {
	p := ecs.LookupComponent[component.Position](e.domain, e.resolveEntity(L, 1))
	if p == nil {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(p.X))
	L.Push(lua.LNumber(p.Y))
	return 2
}

func (e *Engine) luaSetPosition(L *lua.LState) int {
	p := ecs.LookupComponent[component.Position](e.domain, e.resolveEntity(L, 1))
	if p == nil {
		L.Push(lua.LFalse)
		return 1
	}
	p.X = float64(L.CheckNumber(2))
	p.Y = float64(L.CheckNumber(3))
	L.Push(lua.LTrue)
	return 1
}

func (e *Engine) luaSetVelocity(L *lua.LState) int {
	v := ecs.LookupComponent[component.Velocity](e.domain, e.resolveEntity(L, 1))
	if v == nil {
		L.Push(lua.LFalse)
		return 1
	}
	v.DX = float64(L.CheckNumber(2))
	v.DY = float64(L.CheckNumber(3))
	L.Push(lua.LTrue)
	return 1
}

func (e *Engine) luaFrame(L *lua.LState) int {
	L.Push(lua.LNumber(e.domain.Frame()))
	return 1
}

func (e *Engine) luaLog(L *lua.LState) int {
	e.log.Info(L.CheckString(1))
	return 0
}
