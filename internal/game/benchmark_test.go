package game

import (
	"fmt"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

// BenchmarkEngineTick measures one tick with the default roster against a
// growing object field. Consumption is an objects x voids scan.
func BenchmarkEngineTick(b *testing.B) {
	for _, objects := range []int{100, 500, 2000} {
		b.Run(fmt.Sprintf("objects=%d", objects), func(b *testing.B) {
			cfg := DefaultEngineConfig()
			cfg.Seed = 1
			cfg.World = scatterWorld{count: objects}
			e := NewEngine(cfg)
			e.Start()
			e.SetPlayerAimPoint(r2.Vec{X: 60, Y: -20})

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				e.Tick(dt60)
			}
		})
	}
}

func BenchmarkRegistrySnapshot(b *testing.B) {
	r := NewRegistry(16)
	for i := 0; i < 16; i++ {
		r.Upsert(fmt.Sprintf("v-%d", i), r2.Vec{X: float64(i)}, 1.5, i == 0)
	}
	buf := make([]RegistryEntry, 0, 16)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf = r.SnapshotInto(buf)
	}
}

func BenchmarkLeaderboard(b *testing.B) {
	s := NewObservableState()
	for i := 0; i < 8; i++ {
		s.Register(VoidView{ID: fmt.Sprintf("v-%d", i), Name: fmt.Sprintf("Void %d", i), Score: float64(i * 37 % 11)})
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = s.Leaderboard()
	}
}
