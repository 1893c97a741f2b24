package game

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestRegistryUpsertOverwritesInPlace(t *testing.T) {
	r := NewRegistry(4)
	r.Upsert("a", r2.Vec{X: 1}, 1.5, true)
	r.Upsert("b", r2.Vec{X: 2}, 1.5, false)
	r.Upsert("a", r2.Vec{X: 5, Y: 6}, 2, true)

	snap := r.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "a", snap[0].ID, "overwrite keeps insertion order")
	assert.Equal(t, r2.Vec{X: 5, Y: 6}, snap[0].Position)
	assert.Equal(t, 2.0, snap[0].Radius)
	assert.Equal(t, "b", snap[1].ID)
}

func TestRegistryRemove(t *testing.T) {
	r := NewRegistry(0)
	for _, id := range []string{"a", "b", "c"} {
		r.Upsert(id, r2.Vec{}, 1, false)
	}

	r.Remove("b")
	r.Remove("missing")

	ids := []string{}
	for _, e := range r.Snapshot() {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"a", "c"}, ids)

	// Index must still point at the shifted entry
	r.Upsert("c", r2.Vec{X: 9}, 3, false)
	got, ok := r.Get("c")
	require.True(t, ok)
	assert.Equal(t, 3.0, got.Radius)
	assert.Equal(t, 2, r.Len())
}

func TestRegistrySnapshotIsIsolated(t *testing.T) {
	r := NewRegistry(1)
	r.Upsert("a", r2.Vec{X: 1}, 1, false)

	snap := r.Snapshot()
	r.Upsert("a", r2.Vec{X: 100}, 50, false)
	r.Upsert("b", r2.Vec{}, 1, false)

	require.Len(t, snap, 1)
	assert.Equal(t, 1.0, snap[0].Position.X)
	assert.Equal(t, 1.0, snap[0].Radius)
}

func TestRegistrySnapshotIntoReusesBuffer(t *testing.T) {
	r := NewRegistry(2)
	r.Upsert("a", r2.Vec{}, 1, false)
	r.Upsert("b", r2.Vec{}, 1, false)

	buf := make([]RegistryEntry, 0, 8)
	buf = r.SnapshotInto(buf)
	assert.Len(t, buf, 2)
	assert.Equal(t, 8, cap(buf))

	r.Remove("a")
	buf = r.SnapshotInto(buf)
	assert.Len(t, buf, 1)
	assert.Equal(t, "b", buf[0].ID)
}

func TestRegistryClear(t *testing.T) {
	r := NewRegistry(1)
	r.Upsert("a", r2.Vec{}, 1, false)
	r.Clear()

	assert.Zero(t, r.Len())
	_, ok := r.Get("a")
	assert.False(t, ok)
	r.Upsert("a", r2.Vec{}, 2, false)
	assert.Equal(t, 1, r.Len())
}

// Concurrent writers on distinct ids never lose an entry and readers never
// see a torn one.
func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry(0)
	const writers = 8
	const rounds = 500

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			id := fmt.Sprintf("void-%d", w)
			for i := 0; i < rounds; i++ {
				f := float64(i)
				r.Upsert(id, r2.Vec{X: f, Y: f}, f, false)
			}
		}(w)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			for _, e := range r.Snapshot() {
				if e.Position.X != e.Position.Y || e.Position.X != e.Radius {
					t.Errorf("torn entry %+v", e)
					return
				}
			}
		}
	}()
	wg.Wait()

	require.Equal(t, writers, r.Len())
	for _, e := range r.Snapshot() {
		assert.Equal(t, float64(rounds-1), e.Radius)
	}
}
