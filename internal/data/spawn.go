package data

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/l1jgo/shell/internal/component"
	"github.com/l1jgo/shell/internal/core/ecs"
)

// Vec is a 2D value in canvas cells.
type Vec struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Size is a rectangle size in cells.
type Size struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// SpawnEntry is one entity template placed at startup. Only the components
// given are attached.
type SpawnEntry struct {
	Name     string        `yaml:"name"`
	Count    int           `yaml:"count"`    // copies, default 1
	Spread   Vec           `yaml:"spread"`   // offset between copies
	Position *Vec          `yaml:"position"`
	Velocity *Vec          `yaml:"velocity"` // cells per second
	Bounds   *Size         `yaml:"bounds"`
	Lifetime time.Duration `yaml:"lifetime"` // 0 = lives forever
	Inactive bool          `yaml:"inactive"`
}

type spawnListFile struct {
	Spawns []SpawnEntry `yaml:"spawns"`
}

// SpawnList holds the templates in file order.
type SpawnList struct {
	entries []SpawnEntry
}

// LoadSpawnList loads spawn_list.yaml.
func LoadSpawnList(path string) (*SpawnList, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spawn list: %w", err)
	}
	return ParseSpawnList(raw)
}

// ParseSpawnList decodes a spawn list document.
func ParseSpawnList(raw []byte) (*SpawnList, error) {
	var f spawnListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse spawn list: %w", err)
	}
	for i := range f.Spawns {
		e := &f.Spawns[i]
		if e.Count == 0 {
			e.Count = 1
		}
		if e.Count < 0 {
			return nil, fmt.Errorf("spawn %d (%q): negative count %d", i, e.Name, e.Count)
		}
		if e.Lifetime < 0 {
			return nil, fmt.Errorf("spawn %d (%q): negative lifetime %s", i, e.Name, e.Lifetime)
		}
	}
	return &SpawnList{entries: f.Spawns}, nil
}

func (l *SpawnList) Entries() []SpawnEntry { return l.entries }

// Count returns the number of entities the list places.
func (l *SpawnList) Count() int {
	n := 0
	for _, e := range l.entries {
		n += e.Count
	}
	return n
}

// Spawn places every template into d. The first copy of an entry is built
// from its fields; further copies are clones of it, shifted by Spread.
func (l *SpawnList) Spawn(d *ecs.Domain) ([]ecs.Entity, error) {
	out := make([]ecs.Entity, 0, l.Count())
	for i := range l.entries {
		entry := &l.entries[i]
		first, err := build(d, entry)
		if err != nil {
			return out, fmt.Errorf("spawn %q: %w", entry.Name, err)
		}
		out = append(out, first)
		for n := 1; n < entry.Count; n++ {
			e, err := d.CloneEntity(first, entry.Name)
			if err != nil {
				return out, fmt.Errorf("spawn %q copy %d: %w", entry.Name, n, err)
			}
			if p := ecs.LookupComponent[component.Position](d, e); p != nil {
				p.X += entry.Spread.X * float64(n)
				p.Y += entry.Spread.Y * float64(n)
			}
			out = append(out, e)
		}
	}
	if err := activate(d, l.entries, out); err != nil {
		return out, err
	}
	return out, nil
}

func build(d *ecs.Domain, entry *SpawnEntry) (ecs.Entity, error) {
	e := d.CreateEntity(entry.Name)
	if e.IsZero() {
		return e, ecs.ErrDomainClosed
	}
	if entry.Position != nil {
		p, _, err := ecs.AddComponent[component.Position](d, e)
		if err != nil {
			return e, err
		}
		p.X, p.Y = entry.Position.X, entry.Position.Y
	}
	if entry.Velocity != nil {
		v, _, err := ecs.AddComponent[component.Velocity](d, e)
		if err != nil {
			return e, err
		}
		v.DX, v.DY = entry.Velocity.X, entry.Velocity.Y
	}
	if entry.Bounds != nil {
		b, _, err := ecs.AddComponent[component.Bounds](d, e)
		if err != nil {
			return e, err
		}
		b.Width, b.Height = entry.Bounds.Width, entry.Bounds.Height
	}
	if entry.Lifetime > 0 {
		lt, _, err := ecs.AddComponent[component.Lifetime](d, e)
		if err != nil {
			return e, err
		}
		lt.Remaining = entry.Lifetime
	}
	return e, nil
}

func activate(d *ecs.Domain, entries []SpawnEntry, ents []ecs.Entity) error {
	i := 0
	for _, entry := range entries {
		for n := 0; n < entry.Count; n++ {
			if !entry.Inactive {
				if err := d.ActivateEntity(ents[i]); err != nil {
					return err
				}
			}
			i++
		}
	}
	return nil
}
