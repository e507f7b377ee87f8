package ecs

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/l1jgo/shell/internal/core/event"
	"github.com/l1jgo/shell/internal/core/system"
)

// Domain owns entities, component storages, systems and events. It is not
// safe for concurrent use; one goroutine drives mutation, Advance and Render.
//
// Deleted entities and removed systems are reclaimed at frame boundaries
// (the start and end of Advance, and Close), never inside the call that
// deleted them.
type Domain struct {
	log      *zap.Logger
	owner    OwnerContext
	services ServiceProvider

	pool  entityPool
	names map[string][]Entity

	registry registry

	systems     []*systemRecord
	systemNames map[string]*systemRecord
	runner      *system.Runner

	events   *event.Names
	handlers event.List[Handler]

	deadEntities []*entityRecord
	deadSystems  []*systemRecord

	frame     uint64
	advancing bool
	closed    bool
}

// Option configures a Domain.
type Option func(*Domain)

// WithLogger sets the diagnostics logger. Precondition failures are logged
// at DPanic, so a development logger turns them into panics.
func WithLogger(log *zap.Logger) Option {
	return func(d *Domain) {
		if log != nil {
			d.log = log
		}
	}
}

// WithOwner attaches the context the domain lives in.
func WithOwner(owner OwnerContext) Option {
	return func(d *Domain) { d.owner = owner }
}

// WithServices sets the provider systems resolve dependencies from.
func WithServices(p ServiceProvider) Option {
	return func(d *Domain) { d.services = p }
}

func NewDomain(opts ...Option) *Domain {
	d := &Domain{
		log:         zap.NewNop(),
		pool:        newEntityPool(),
		names:       make(map[string][]Entity, 64),
		registry:    newRegistry(),
		systems:     make([]*systemRecord, 0, 16),
		systemNames: make(map[string]*systemRecord, 16),
		runner:      system.NewRunner(),
		events:      event.NewNames(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.log = d.log.Named("domain")
	if d.services == nil && d.owner != nil {
		if p, ok := d.owner.(ServiceProvider); ok {
			d.services = p
		}
	}
	return d
}

func (d *Domain) Logger() *zap.Logger     { return d.log }
func (d *Domain) Owner() OwnerContext     { return d.owner }
func (d *Domain) Frame() uint64           { return d.frame }
func (d *Domain) EntityCount() int        { return d.pool.live }
func (d *Domain) ComponentTypeCount() int { return len(d.registry.order) }

// fail reports a precondition failure and returns err unchanged.
func (d *Domain) fail(op string, err error, fields ...zap.Field) error {
	d.log.DPanic(op+" failed", append(fields, zap.Error(err))...)
	return err
}

// ---------- Entities ----------

// CreateEntity allocates an inactive entity. The name is optional and need
// not be unique.
func (d *Domain) CreateEntity(name string) Entity {
	if d.closed {
		d.fail("create entity", ErrDomainClosed, zap.String("name", name))
		return InvalidEntity
	}
	rec := d.pool.create()
	rec.name = norm.NFC.String(name)
	e := rec.handle()
	d.log.Debug("entity created", zap.Stringer("entity", e), zap.String("name", rec.name))
	return e
}

// CloneEntity creates an inactive entity carrying copies of every component
// of src. The clone shares src's entity event handlers until either side
// changes them.
func (d *Domain) CloneEntity(src Entity, name string) (Entity, error) {
	srcRec := d.pool.get(src)
	if srcRec == nil {
		return InvalidEntity, d.fail("clone entity", fmt.Errorf("clone %s: %w", src, ErrInvalidEntity))
	}
	e := d.CreateEntity(name)
	if e.IsZero() {
		return InvalidEntity, ErrDomainClosed
	}
	rec := d.pool.get(e)
	for _, ct := range srcRec.types {
		if ct.storage.CloneAny(e, src) == nil {
			err := fmt.Errorf("clone %s component %q: %w", src, ct.name, ErrCloneFailed)
			d.DeleteEntity(e)
			return InvalidEntity, d.fail("clone entity", err)
		}
		// Recorded as we go so a failed clone still reclaims its copies.
		rec.types = append(rec.types, ct)
	}
	rec.mask = srcRec.mask
	rec.systems = append(rec.systems, srcRec.systems...)
	rec.handlers = srcRec.handlers.Share()
	return e, nil
}

// GetEntity returns an active entity with the given name, or InvalidEntity.
// When several share the name, which one is returned is unspecified.
func (d *Domain) GetEntity(name string) Entity {
	list := d.names[norm.NFC.String(name)]
	if len(list) == 0 {
		return InvalidEntity
	}
	return list[0]
}

// IsValid reports whether e refers to an entity that has not been deleted.
func (d *Domain) IsValid(e Entity) bool { return d.pool.get(e) != nil }

func (d *Domain) IsActive(e Entity) bool {
	rec := d.pool.get(e)
	return rec != nil && rec.active
}

func (d *Domain) EntityName(e Entity) string {
	if rec := d.pool.get(e); rec != nil {
		return rec.name
	}
	return ""
}

// Entities visits every valid entity in index order until fn returns false.
// Entities deleted by fn are skipped if not yet visited. Records are not
// reclaimed during the walk, so no handle is visited twice.
func (d *Domain) Entities(fn func(Entity) bool) {
	n := len(d.pool.records)
	for i := 0; i < n; i++ {
		rec := d.pool.records[i]
		if !rec.valid {
			continue
		}
		if !fn(rec.handle()) {
			return
		}
	}
}

// ActivateEntity makes e visible to name lookup and to every system it
// matches. Activating an active entity does nothing.
func (d *Domain) ActivateEntity(e Entity) error {
	rec := d.pool.get(e)
	if rec == nil {
		return d.fail("activate entity", fmt.Errorf("activate %s: %w", e, ErrInvalidEntity))
	}
	if rec.active {
		return nil
	}
	rec.active = true
	if rec.name != "" {
		d.names[rec.name] = append(d.names[rec.name], e)
	}
	// NewEntry may change rec.systems; walk a copy.
	for _, sr := range append([]*systemRecord(nil), rec.systems...) {
		if !rec.active {
			break
		}
		if rec.hasSystem(sr) {
			d.materialize(sr, rec)
		}
	}
	return nil
}

// DeactivateEntity hides e from name lookup and drops its system entries.
// The entity keeps its components and reactivates cheaply.
func (d *Domain) DeactivateEntity(e Entity) error {
	rec := d.pool.get(e)
	if rec == nil {
		return d.fail("deactivate entity", fmt.Errorf("deactivate %s: %w", e, ErrInvalidEntity))
	}
	d.deactivate(rec)
	return nil
}

func (d *Domain) deactivate(rec *entityRecord) {
	if !rec.active {
		return
	}
	rec.active = false
	e := rec.handle()
	if rec.name != "" {
		d.unname(rec.name, e)
	}
	// DestroyEntry may change rec.systems; walk a copy.
	for _, sr := range append([]*systemRecord(nil), rec.systems...) {
		if rec.active {
			break
		}
		d.dematerialize(sr, rec)
	}
}

func (d *Domain) unname(name string, e Entity) {
	list := d.names[name]
	for i, other := range list {
		if other == e {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(d.names, name)
		return
	}
	d.names[name] = list
}

// DeleteEntity deactivates e and invalidates its handle at once. Its
// components are destroyed and its record reused only after the next frame
// boundary.
func (d *Domain) DeleteEntity(e Entity) error {
	rec := d.pool.get(e)
	if rec == nil {
		return d.fail("delete entity", fmt.Errorf("delete %s: %w", e, ErrInvalidEntity))
	}
	d.deactivate(rec)
	d.pool.markDeleted(rec)
	d.deadEntities = append(d.deadEntities, rec)
	d.log.Debug("entity deleted", zap.Stringer("entity", e))
	return nil
}

// ComponentTypes returns the descriptors attached to e in attach order.
func (d *Domain) ComponentTypes(e Entity) []*ComponentType {
	rec := d.pool.get(e)
	if rec == nil {
		return nil
	}
	out := make([]*ComponentType, len(rec.types))
	copy(out, rec.types)
	return out
}

// ComponentType returns the descriptor registered for t, or nil.
func (d *Domain) ComponentType(t reflect.Type) *ComponentType {
	return d.registry.lookup(t)
}

// ComponentTypeByName returns the descriptor registered under name, or nil.
func (d *Domain) ComponentTypeByName(name string) *ComponentType {
	return d.registry.byName[name]
}

// ComponentTypeByIndex returns the descriptor registered with the stable
// index i, or nil.
func (d *Domain) ComponentTypeByIndex(i int) *ComponentType {
	return d.registry.byIndex[i]
}

// ---------- Systems ----------

// AddSystem registers s under name, or under its type name when name is
// empty, and attaches every existing entity that matches its requirements.
func (d *Domain) AddSystem(s System, name string) error {
	if isNilSystem(s) {
		return d.fail("add system", ErrNilSystem)
	}
	if d.closed {
		return d.fail("add system", ErrDomainClosed)
	}
	b := s.base()
	if b.domain != nil {
		return d.fail("add system", fmt.Errorf("add %q: %w", b.name, ErrSystemInUse))
	}
	if name == "" {
		name = b.typeName(s)
	}
	if name == "" {
		return d.fail("add system", ErrEmptySystemName)
	}
	if _, taken := d.systemNames[name]; taken {
		return d.fail("add system", fmt.Errorf("add %q: %w", name, ErrDuplicateSystem))
	}

	reqs := s.Requires()
	sr := &systemRecord{sys: s, name: name, types: make([]*ComponentType, 0, len(reqs)), valid: true}
	for _, t := range reqs {
		ct := d.registry.lookup(t)
		if ct == nil {
			return d.fail("add system", fmt.Errorf("add %q requires %s: %w", name, t, ErrComponentNotRegistered))
		}
		sr.types = append(sr.types, ct)
		sr.mask |= ct.bit
	}

	b.domain = d
	b.record = sr
	b.name = name
	d.systems = append(d.systems, sr)
	d.systemNames[name] = sr
	d.runner.Register(s)
	for _, ct := range sr.types {
		if !containsSystem(ct.systems, sr) {
			ct.systems = append(ct.systems, sr)
		}
	}
	for _, rec := range d.pool.records {
		if rec.valid {
			d.tryRegister(rec, sr)
		}
	}
	d.log.Debug("system added", zap.String("system", name), zap.Int("requires", len(sr.types)))
	return nil
}

// RemoveSystem detaches s from every entity and component type. It stops
// running at once; its name becomes available after the next frame boundary.
func (d *Domain) RemoveSystem(s System) error {
	if isNilSystem(s) {
		return d.fail("remove system", ErrNilSystem)
	}
	b := s.base()
	sr := b.record
	if b.domain != d || sr == nil || !sr.valid {
		return d.fail("remove system", fmt.Errorf("remove %q: %w", b.name, ErrUnknownSystem))
	}
	b.entries.drain(s.DestroyEntry)
	for _, ct := range sr.types {
		ct.removeSystem(sr)
	}
	for _, rec := range d.pool.records {
		rec.removeSystem(sr)
	}
	sr.valid = false
	d.runner.Remove(s)
	d.deadSystems = append(d.deadSystems, sr)
	d.log.Debug("system removed", zap.String("system", sr.name))
	return nil
}

// System returns the live system registered under name, or nil.
func (d *Domain) System(name string) System {
	if sr, ok := d.systemNames[name]; ok && sr.valid {
		return sr.sys
	}
	return nil
}

// Systems returns the live systems in registration order.
func (d *Domain) Systems() []System {
	out := make([]System, 0, len(d.systems))
	for _, sr := range d.systems {
		if sr.valid {
			out = append(out, sr.sys)
		}
	}
	return out
}

func isNilSystem(s System) bool {
	if s == nil {
		return true
	}
	v := reflect.ValueOf(s)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

func containsSystem(list []*systemRecord, sr *systemRecord) bool {
	for _, s := range list {
		if s == sr {
			return true
		}
	}
	return false
}

// tryRegister records sr's interest in rec when rec matches, and builds the
// entry if rec is active.
func (d *Domain) tryRegister(rec *entityRecord, sr *systemRecord) {
	if !sr.valid || rec.hasSystem(sr) || !sr.matches(rec) {
		return
	}
	rec.systems = append(rec.systems, sr)
	if rec.active {
		d.materialize(sr, rec)
	}
}

func (d *Domain) materialize(sr *systemRecord, rec *entityRecord) {
	e := rec.handle()
	entry := sr.sys.NewEntry()
	if entry == nil {
		d.fail("materialize entry", fmt.Errorf("system %q returned a nil entry", sr.name), zap.Stringer("entity", e))
		return
	}
	eb := entry.entryBase()
	eb.entity = e
	eb.components = eb.components[:0]
	for _, ct := range sr.types {
		eb.components = append(eb.components, ct.storage.LookupAny(e))
	}
	sr.sys.base().entries.insert(e, entry)
}

func (d *Domain) dematerialize(sr *systemRecord, rec *entityRecord) {
	if entry := sr.sys.base().entries.remove(rec.handle()); entry != nil {
		sr.sys.DestroyEntry(entry)
	}
}

// ---------- Frame ----------

// Advance runs one frame: reclaim what was deleted since the last frame,
// run every system through Ready, Advance and Cleanup with a full barrier
// between phases, age every component storage, then reclaim again.
func (d *Domain) Advance(dt time.Duration) {
	if d.advancing {
		d.fail("advance", errors.New("advance called re-entrantly"))
		return
	}
	d.advancing = true
	defer func() { d.advancing = false }()

	d.flush()
	d.runner.Tick(dt)
	for _, ct := range d.registry.order {
		ct.storage.Advance(dt)
	}
	d.flush()
	d.frame++
}

// Render passes target unchanged to every live system in registration order.
func (d *Domain) Render(target any) {
	for i := 0; i < len(d.systems); i++ {
		if sr := d.systems[i]; sr.valid {
			sr.sys.Render(target)
		}
	}
}

// Close deletes every entity and reclaims everything that was deleted.
// The domain rejects new entities and systems afterwards.
func (d *Domain) Close() {
	if d.closed {
		return
	}
	d.Entities(func(e Entity) bool {
		d.DeleteEntity(e)
		return true
	})
	d.flush()
	d.closed = true
	d.log.Debug("domain closed", zap.Uint64("frames", d.frame))
}

// flush drains the deferred reclamation queues.
func (d *Domain) flush() {
	for len(d.deadEntities) > 0 {
		dead := d.deadEntities
		d.deadEntities = nil
		for _, rec := range dead {
			e := rec.handle()
			for _, ct := range rec.types {
				ct.storage.Delete(e)
			}
			d.pool.reclaim(rec)
		}
	}
	if len(d.deadSystems) == 0 {
		return
	}
	d.runner.Flush()
	kept := d.systems[:0]
	for _, sr := range d.systems {
		if sr.valid {
			kept = append(kept, sr)
		}
	}
	for i := len(kept); i < len(d.systems); i++ {
		d.systems[i] = nil
	}
	d.systems = kept
	for _, sr := range d.deadSystems {
		if d.systemNames[sr.name] == sr {
			delete(d.systemNames, sr.name)
		}
		b := sr.sys.base()
		b.domain = nil
		b.record = nil
		b.name = ""
	}
	d.deadSystems = d.deadSystems[:0]
}
