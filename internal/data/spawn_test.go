package data

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/l1jgo/shell/internal/component"
	"github.com/l1jgo/shell/internal/core/ecs"
)

const spawnDoc = `
spawns:
  - name: Hero
    position: {x: 2, y: 1}
    bounds: {width: 2, height: 1}
  - name: spark
    count: 3
    spread: {x: 4}
    position: {x: 10, y: 5}
    velocity: {x: 0, y: -1}
    bounds: {width: 1, height: 1}
    lifetime: 1500ms
  - name: marker
    inactive: true
`

func TestParseSpawnList(t *testing.T) {
	l, err := ParseSpawnList([]byte(spawnDoc))
	require.NoError(t, err)
	require.Len(t, l.Entries(), 3)
	require.Equal(t, 5, l.Count())

	spark := l.Entries()[1]
	require.Equal(t, 1500*time.Millisecond, spark.Lifetime)
	require.Equal(t, Vec{X: 4}, spark.Spread)
	require.Nil(t, l.Entries()[2].Position)
}

func TestParseSpawnListRejectsBadEntries(t *testing.T) {
	_, err := ParseSpawnList([]byte("spawns:\n  - name: x\n    count: -2\n"))
	require.ErrorContains(t, err, "negative count")
	_, err = ParseSpawnList([]byte("spawns: [\n"))
	require.ErrorContains(t, err, "parse spawn list")
}

func TestLoadSpawnList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spawn_list.yaml")
	require.NoError(t, os.WriteFile(path, []byte(spawnDoc), 0o644))
	l, err := LoadSpawnList(path)
	require.NoError(t, err)
	require.Equal(t, 5, l.Count())

	_, err = LoadSpawnList(filepath.Join(t.TempDir(), "none.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestSpawnPlacesEntities(t *testing.T) {
	d := ecs.NewDomain()
	require.NoError(t, component.Register(d))
	l, err := ParseSpawnList([]byte(spawnDoc))
	require.NoError(t, err)

	ents, err := l.Spawn(d)
	require.NoError(t, err)
	require.Len(t, ents, 5)

	hero := d.GetEntity("Hero")
	require.Equal(t, ents[0], hero)
	require.Equal(t, component.Position{X: 2, Y: 1}, *ecs.LookupComponent[component.Position](d, hero))
	require.False(t, ecs.HasComponent[component.Lifetime](d, hero))

	third := ents[3]
	require.Equal(t, component.Position{X: 18, Y: 5}, *ecs.LookupComponent[component.Position](d, third))
	require.Equal(t, 1500*time.Millisecond, ecs.LookupComponent[component.Lifetime](d, third).Remaining)
	require.NotSame(t,
		ecs.LookupComponent[component.Position](d, ents[1]),
		ecs.LookupComponent[component.Position](d, ents[2]))

	require.False(t, d.IsActive(ents[4]))
	require.Equal(t, ecs.InvalidEntity, d.GetEntity("marker"))
}
