package ecs_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/l1jgo/shell/internal/core/ecs"
	"github.com/l1jgo/shell/internal/core/event"
)

type pos struct{ X, Y float64 }

type bounds struct{ Rect [4]float64 }

type heat struct{ Elapsed time.Duration }

func (h *heat) Age(dt time.Duration) { h.Elapsed += dt }

type viewEntry struct {
	ecs.EntryBase
}

// viewSystem requires {pos, bounds} and records its phase calls.
type viewSystem struct {
	ecs.SystemBase
	log       *[]string
	tag       string
	destroyed []ecs.Entity
}

func (s *viewSystem) Requires() []reflect.Type {
	return []reflect.Type{ecs.TypeOf[pos](), ecs.TypeOf[bounds]()}
}

func (s *viewSystem) NewEntry() ecs.Entry { return &viewEntry{} }

func (s *viewSystem) DestroyEntry(e ecs.Entry) {
	s.destroyed = append(s.destroyed, e.(*viewEntry).Entity())
}

func (s *viewSystem) note(what string) {
	if s.log != nil {
		*s.log = append(*s.log, s.tag+"."+what)
	}
}

func (s *viewSystem) Ready()                { s.note("ready") }
func (s *viewSystem) Advance(time.Duration) { s.note("advance") }
func (s *viewSystem) Cleanup()              { s.note("cleanup") }
func (s *viewSystem) Render(target any)     { s.note("render:" + target.(string)) }

type posOnly struct{ ecs.SystemBase }

func (s *posOnly) Requires() []reflect.Type { return []reflect.Type{ecs.TypeOf[pos]()} }

type pingArgs struct{ Count int }

func newDomain(t *testing.T) *ecs.Domain {
	t.Helper()
	d := ecs.NewDomain(ecs.WithLogger(zaptest.NewLogger(t)))
	_, err := ecs.RegisterComponent[pos](d, "pos")
	require.NoError(t, err)
	_, err = ecs.RegisterComponent[bounds](d, "bounds", ecs.WithIndex(7))
	require.NoError(t, err)
	return d
}

func spawn(t *testing.T, d *ecs.Domain, name string) ecs.Entity {
	t.Helper()
	e := d.CreateEntity(name)
	_, _, err := ecs.AddComponent[pos](d, e)
	require.NoError(t, err)
	_, _, err = ecs.AddComponent[bounds](d, e)
	require.NoError(t, err)
	return e
}

func TestHeroScenario(t *testing.T) {
	d := newDomain(t)
	s := &viewSystem{}
	require.NoError(t, d.AddSystem(s, ""))
	require.Equal(t, "viewSystem", s.Name())
	require.Same(t, d, s.Domain())

	e1 := d.CreateEntity("Hero")
	require.Equal(t, ecs.InvalidEntity, d.GetEntity("Hero"), "inactive entities are not named")

	p, existed, err := ecs.AddComponent[pos](d, e1)
	require.NoError(t, err)
	require.False(t, existed)
	p.X, p.Y = 3, 4
	b, _, err := ecs.AddComponent[bounds](d, e1)
	require.NoError(t, err)
	b.Rect = [4]float64{0, 0, 10, 10}
	require.Equal(t, 0, s.Entries().Len())

	require.NoError(t, d.ActivateEntity(e1))
	require.Equal(t, e1, d.GetEntity("Hero"))
	require.Equal(t, 1, s.Entries().Len())
	entry := s.Entry(e1)
	require.NotNil(t, entry)
	require.Same(t, p, ecs.Field[pos](entry, 0))
	require.Same(t, b, ecs.Field[bounds](entry, 1))

	e2, err := d.CloneEntity(e1, "Sidekick")
	require.NoError(t, err)
	require.False(t, d.IsActive(e2))
	require.Equal(t, 1, s.Entries().Len())

	p2 := ecs.LookupComponent[pos](d, e2)
	require.NotSame(t, p, p2)
	require.Equal(t, *p, *p2)
	p2.X = 99
	require.Equal(t, 3.0, p.X, "clone is independent of its source")

	require.NoError(t, d.ActivateEntity(e2))
	require.Equal(t, 2, s.Entries().Len())
	require.NoError(t, d.DeactivateEntity(e1))
	require.Equal(t, 1, s.Entries().Len())
	require.Equal(t, ecs.InvalidEntity, d.GetEntity("Hero"))

	require.NoError(t, d.AddEventWithID("Ping", 100))
	var order []string
	onEntity := ecs.HandlerOf(func(_ *ecs.Domain, e ecs.Entity, id event.ID, a *pingArgs) {
		require.Equal(t, e2, e)
		require.Equal(t, event.ID(100), id)
		order = append(order, "entity")
		if a != nil {
			a.Count++
		}
	})
	onDomain := ecs.NewHandler(func(_ *ecs.Domain, _ ecs.Entity, _ event.ID, args any) {
		order = append(order, "domain")
		if a, ok := args.(*pingArgs); ok {
			a.Count += 10
		}
	})
	require.NoError(t, d.AddEntityEventHandler(event.Named("Ping"), e2, onEntity))
	require.NoError(t, d.AddEventHandler(event.ByID(100), onDomain))

	require.NoError(t, d.TriggerEntityEvent(event.Named("Ping"), e2, nil))
	require.Equal(t, []string{"entity", "domain"}, order)

	args := &pingArgs{}
	require.NoError(t, d.TriggerEntityEvent(event.ByID(100), e2, args))
	require.Equal(t, 11, args.Count)

	order = nil
	require.NoError(t, d.TriggerEvent(event.Named("Ping"), args))
	require.Equal(t, []string{"domain"}, order)
	require.Equal(t, 21, args.Count)

	require.NoError(t, d.DeleteEntity(e1))
	require.Equal(t, 1, s.Entries().Len())
}

func TestAddComponentIsIdempotent(t *testing.T) {
	d := newDomain(t)
	e := d.CreateEntity("")
	first, existed, err := ecs.AddComponent[pos](d, e)
	require.NoError(t, err)
	require.False(t, existed)

	second, existed, err := ecs.AddComponent[pos](d, e)
	require.NoError(t, err)
	require.True(t, existed)
	require.Same(t, first, second)
	require.Same(t, first, ecs.LookupComponent[pos](d, e))
}

func TestComponentRegistrationErrors(t *testing.T) {
	d := newDomain(t)
	_, err := ecs.RegisterComponent[pos](d, "other")
	require.ErrorIs(t, err, ecs.ErrComponentAlreadyRegistered)
	_, err = ecs.RegisterComponent[heat](d, "pos")
	require.ErrorIs(t, err, ecs.ErrComponentAlreadyRegistered)
	_, err = ecs.RegisterComponent[heat](d, "heat", ecs.WithIndex(7))
	require.ErrorIs(t, err, ecs.ErrComponentAlreadyRegistered)
	_, err = ecs.RegisterComponent[heat](d, "")
	require.ErrorIs(t, err, ecs.ErrEmptyComponentName)
	_, err = ecs.RegisterComponent[heat](d, "heat", ecs.WithLifecycle[pos](ecs.LifecycleFuncs[pos]{}))
	require.ErrorIs(t, err, ecs.ErrLifecycleMismatch)

	ct, err := ecs.RegisterComponent[heat](d, "heat", ecs.WithIndex(3))
	require.NoError(t, err)
	require.Same(t, ct, d.ComponentTypeByIndex(3))
	require.Same(t, ct, d.ComponentTypeByName("heat"))
	require.Same(t, ct, d.ComponentType(ecs.TypeOf[heat]()))
	require.Equal(t, 3, d.ComponentTypeCount())

	type unknown struct{}
	e := d.CreateEntity("")
	_, _, err = ecs.AddComponent[unknown](d, e)
	require.ErrorIs(t, err, ecs.ErrComponentNotRegistered)
}

func TestSystemViewFollowsMembership(t *testing.T) {
	d := newDomain(t)
	s := &viewSystem{}
	require.NoError(t, d.AddSystem(s, "view"))

	e := d.CreateEntity("")
	require.NoError(t, d.ActivateEntity(e))
	_, _, err := ecs.AddComponent[pos](d, e)
	require.NoError(t, err)
	require.Equal(t, 0, s.Entries().Len())

	_, _, err = ecs.AddComponent[bounds](d, e)
	require.NoError(t, err)
	require.Equal(t, 1, s.Entries().Len(), "active entity joins as soon as it matches")

	stamp := s.Entries().Stamp()
	require.NoError(t, ecs.DeleteComponent[pos](d, e))
	require.Equal(t, 0, s.Entries().Len())
	require.Greater(t, s.Entries().Stamp(), stamp)
	require.Equal(t, []ecs.Entity{e}, s.destroyed)
	require.False(t, ecs.HasComponent[pos](d, e))
	require.True(t, ecs.HasComponent[bounds](d, e))

	err = ecs.DeleteComponent[pos](d, e)
	require.ErrorIs(t, err, ecs.ErrComponentNotFound)

	_, _, err = ecs.AddComponent[pos](d, e)
	require.NoError(t, err)
	require.Equal(t, 1, s.Entries().Len())
	require.Len(t, d.ComponentTypes(e), 2)
}

func TestAddSystemAttachesExistingEntities(t *testing.T) {
	d := newDomain(t)
	active := spawn(t, d, "a")
	require.NoError(t, d.ActivateEntity(active))
	inactive := spawn(t, d, "b")

	s := &viewSystem{}
	require.NoError(t, d.AddSystem(s, ""))
	require.Equal(t, 1, s.Entries().Len())
	require.NotNil(t, s.Entry(active))

	require.NoError(t, d.ActivateEntity(inactive))
	require.Equal(t, 2, s.Entries().Len())
}

func TestAddSystemErrors(t *testing.T) {
	d := newDomain(t)
	require.ErrorIs(t, d.AddSystem(nil, ""), ecs.ErrNilSystem)

	s := &viewSystem{}
	require.NoError(t, d.AddSystem(s, "view"))
	require.ErrorIs(t, d.AddSystem(s, "again"), ecs.ErrSystemInUse)
	require.ErrorIs(t, d.AddSystem(&viewSystem{}, "view"), ecs.ErrDuplicateSystem)

	type missing struct{}
	bad := &requiresMissing{want: ecs.TypeOf[missing]()}
	require.ErrorIs(t, d.AddSystem(bad, ""), ecs.ErrComponentNotRegistered)
	require.Nil(t, bad.Domain())

	require.Same(t, s, d.System("view"))
	require.Len(t, d.Systems(), 1)
}

type requiresMissing struct {
	ecs.SystemBase
	want reflect.Type
}

func (s *requiresMissing) Requires() []reflect.Type { return []reflect.Type{s.want} }

func TestSystemWithoutRequirementsMatchesNothing(t *testing.T) {
	d := newDomain(t)
	s := &struct{ ecs.SystemBase }{}
	require.NoError(t, d.AddSystem(s, "idle"))
	e := spawn(t, d, "")
	require.NoError(t, d.ActivateEntity(e))
	require.Equal(t, 0, s.Entries().Len())
}

func TestAdvanceRunsPhaseBarriers(t *testing.T) {
	d := newDomain(t)
	var log []string
	a := &viewSystem{log: &log, tag: "a"}
	b := &viewSystem{log: &log, tag: "b"}
	require.NoError(t, d.AddSystem(a, "a"))
	require.NoError(t, d.AddSystem(b, "b"))

	d.Advance(time.Millisecond)
	require.Equal(t, []string{
		"a.ready", "b.ready",
		"a.advance", "b.advance",
		"a.cleanup", "b.cleanup",
	}, log)
	require.Equal(t, uint64(1), d.Frame())

	log = nil
	d.Render("canvas")
	require.Equal(t, []string{"a.render:canvas", "b.render:canvas"}, log)
}

func TestAdvanceAgesStorages(t *testing.T) {
	d := newDomain(t)
	_, err := ecs.RegisterComponent[heat](d, "heat")
	require.NoError(t, err)
	e := d.CreateEntity("")
	h, _, err := ecs.AddComponent[heat](d, e)
	require.NoError(t, err)

	d.Advance(time.Second)
	d.Advance(time.Second)
	require.Equal(t, 2*time.Second, h.Elapsed)
	require.Equal(t, uint64(2), ecs.StorageOf[heat](d).Age())
}

func TestRemoveSystemFreesNameAtFrameBoundary(t *testing.T) {
	d := newDomain(t)
	var log []string
	s := &viewSystem{log: &log, tag: "s"}
	require.NoError(t, d.AddSystem(s, "view"))
	e := spawn(t, d, "")
	require.NoError(t, d.ActivateEntity(e))
	require.Equal(t, 1, s.Entries().Len())

	require.NoError(t, d.RemoveSystem(s))
	require.Equal(t, 0, s.Entries().Len())
	require.Equal(t, []ecs.Entity{e}, s.destroyed)
	require.Nil(t, d.System("view"))
	require.ErrorIs(t, d.RemoveSystem(s), ecs.ErrUnknownSystem)

	require.ErrorIs(t, d.AddSystem(&viewSystem{}, "view"), ecs.ErrDuplicateSystem)

	d.Advance(time.Millisecond)
	require.Empty(t, log, "removed system does not run")
	require.Nil(t, s.Domain())

	next := &viewSystem{}
	require.NoError(t, d.AddSystem(next, "view"))
	require.Equal(t, 1, next.Entries().Len())

	require.NoError(t, d.AddSystem(s, "view-again"))
	require.Equal(t, 1, s.Entries().Len())
}

func TestDeleteEntityIsDeferred(t *testing.T) {
	d := newDomain(t)
	ents := make([]ecs.Entity, 5)
	for i := range ents {
		ents[i] = spawn(t, d, "")
	}
	store := ecs.StorageOf[pos](d)

	var visited []ecs.Entity
	var late ecs.Entity
	d.Entities(func(e ecs.Entity) bool {
		visited = append(visited, e)
		if e == ents[1] {
			require.NoError(t, d.DeleteEntity(ents[1]))
			require.NoError(t, d.DeleteEntity(ents[3]))
			late = d.CreateEntity("late")
		}
		return true
	})
	require.Equal(t, []ecs.Entity{ents[0], ents[1], ents[2], ents[4]}, visited)
	require.NotEqual(t, ents[3].Index(), late.Index(), "records are not reused before the frame boundary")

	require.False(t, d.IsValid(ents[3]))
	require.Nil(t, ecs.LookupComponent[pos](d, ents[3]))
	require.Equal(t, 5, store.Len(), "slots are reclaimed at the frame boundary")
	require.Equal(t, 4, d.EntityCount())
	require.ErrorIs(t, d.DeleteEntity(ents[3]), ecs.ErrInvalidEntity)

	d.Advance(0)
	require.Equal(t, 3, store.Len())

	reused := d.CreateEntity("")
	require.Equal(t, ents[3].Index(), reused.Index(), "freed records are reused")
	require.NotEqual(t, ents[3], reused)
	require.False(t, d.IsValid(ents[3]), "stale handle stays invalid")
	require.Nil(t, ecs.LookupComponent[pos](d, reused))
}

func TestEntityNamesAreNormalised(t *testing.T) {
	d := newDomain(t)
	composed := "Caf\u00e9"
	decomposed := "Cafe\u0301"
	e := d.CreateEntity(decomposed)
	require.NoError(t, d.ActivateEntity(e))
	require.Equal(t, e, d.GetEntity(composed))
	require.Equal(t, composed, d.EntityName(e))
}

func TestInvalidHandlesFail(t *testing.T) {
	d := newDomain(t)
	require.ErrorIs(t, d.ActivateEntity(ecs.InvalidEntity), ecs.ErrInvalidEntity)
	require.ErrorIs(t, d.DeactivateEntity(ecs.InvalidEntity), ecs.ErrInvalidEntity)
	_, err := d.CloneEntity(ecs.InvalidEntity, "")
	require.ErrorIs(t, err, ecs.ErrInvalidEntity)
	_, _, err = ecs.AddComponent[pos](d, ecs.InvalidEntity)
	require.ErrorIs(t, err, ecs.ErrInvalidEntity)
	require.ErrorIs(t, ecs.DeleteComponent[pos](d, ecs.InvalidEntity), ecs.ErrInvalidEntity)
}

func TestCloseReclaimsEverything(t *testing.T) {
	d := newDomain(t)
	s := &viewSystem{}
	require.NoError(t, d.AddSystem(s, ""))
	for i := 0; i < 3; i++ {
		e := spawn(t, d, "")
		require.NoError(t, d.ActivateEntity(e))
	}
	d.Close()
	require.Equal(t, 0, d.EntityCount())
	require.Equal(t, 0, s.Entries().Len())
	require.Equal(t, 0, ecs.StorageOf[pos](d).Len())
	require.Equal(t, ecs.InvalidEntity, d.CreateEntity(""))
}

func TestEachQueries(t *testing.T) {
	d := newDomain(t)
	a := spawn(t, d, "")
	require.NoError(t, d.ActivateEntity(a))
	spawn(t, d, "") // inactive
	c := d.CreateEntity("")
	_, _, err := ecs.AddComponent[pos](d, c)
	require.NoError(t, err)
	require.NoError(t, d.ActivateEntity(c))

	var got []ecs.Entity
	ecs.Each2(d, func(e ecs.Entity, _ *pos, _ *bounds) { got = append(got, e) })
	require.Equal(t, []ecs.Entity{a}, got)

	_, err = ecs.RegisterComponent[heat](d, "heat")
	require.NoError(t, err)
	_, _, err = ecs.AddComponent[heat](d, a)
	require.NoError(t, err)
	got = nil
	ecs.Each3(d, func(e ecs.Entity, _ *pos, _ *bounds, _ *heat) { got = append(got, e) })
	require.Equal(t, []ecs.Entity{a}, got)
}

func TestPosOnlySystemAndEntryFields(t *testing.T) {
	d := newDomain(t)
	s := &posOnly{}
	require.NoError(t, d.AddSystem(s, ""))
	e := spawn(t, d, "")
	require.NoError(t, d.ActivateEntity(e))

	ecs.EachEntry(s.Entries(), func(en *ecs.EntryBase) bool {
		require.Equal(t, e, en.Entity())
		require.Equal(t, 1, en.Len())
		require.Same(t, ecs.LookupComponent[pos](d, e), en.Component(0))
		return true
	})
}

// boundsOnly requires {bounds}.
type boundsOnly struct{ ecs.SystemBase }

func (s *boundsOnly) Requires() []reflect.Type { return []reflect.Type{ecs.TypeOf[bounds]()} }

// stripper requires {pos} and deletes the entity's bounds from inside its
// entry callbacks.
type stripper struct {
	ecs.SystemBase
	t         *testing.T
	target    ecs.Entity
	onCreate  bool
	onDestroy bool
}

func (s *stripper) Requires() []reflect.Type { return []reflect.Type{ecs.TypeOf[pos]()} }

func (s *stripper) strip() {
	if ecs.HasComponent[bounds](s.Domain(), s.target) {
		require.NoError(s.t, ecs.DeleteComponent[bounds](s.Domain(), s.target))
	}
}

func (s *stripper) NewEntry() ecs.Entry {
	if s.onCreate {
		s.strip()
	}
	return &ecs.EntryBase{}
}

func (s *stripper) DestroyEntry(ecs.Entry) {
	if s.onDestroy {
		s.strip()
	}
}

func TestDeactivateSurvivesEntryCallbackDeletingComponent(t *testing.T) {
	d := newDomain(t)
	e := spawn(t, d, "")
	strip := &stripper{t: t, target: e, onDestroy: true}
	b1, b2 := &boundsOnly{}, &boundsOnly{}
	require.NoError(t, d.AddSystem(strip, "strip"))
	require.NoError(t, d.AddSystem(b1, "b1"))
	require.NoError(t, d.AddSystem(b2, "b2"))
	require.NoError(t, d.ActivateEntity(e))
	require.Equal(t, 1, b1.Entries().Len())
	require.Equal(t, 1, b2.Entries().Len())

	require.NotPanics(t, func() { require.NoError(t, d.DeactivateEntity(e)) })
	require.False(t, ecs.HasComponent[bounds](d, e))
	require.Equal(t, 0, strip.Entries().Len())
	require.Equal(t, 0, b1.Entries().Len())
	require.Equal(t, 0, b2.Entries().Len())

	strip.onDestroy = false
	require.NoError(t, d.ActivateEntity(e))
	require.Equal(t, 1, strip.Entries().Len())
	require.Equal(t, 0, b1.Entries().Len(), "bounds is gone")
}

func TestActivateSurvivesEntryCallbackDeletingComponent(t *testing.T) {
	d := newDomain(t)
	e := spawn(t, d, "")
	strip := &stripper{t: t, target: e, onCreate: true}
	b1, b2 := &boundsOnly{}, &boundsOnly{}
	require.NoError(t, d.AddSystem(strip, "strip"))
	require.NoError(t, d.AddSystem(b1, "b1"))
	require.NoError(t, d.AddSystem(b2, "b2"))

	require.NotPanics(t, func() { require.NoError(t, d.ActivateEntity(e)) })
	require.True(t, d.IsActive(e))
	require.Equal(t, 1, strip.Entries().Len())
	require.Equal(t, 0, b1.Entries().Len())
	require.Equal(t, 0, b2.Entries().Len())
}
