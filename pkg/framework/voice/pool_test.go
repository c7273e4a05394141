package voice

import (
	"testing"
)

func TestPoolCapacity(t *testing.T) {
	pool := NewPool(2)

	if _, ok := pool.Allocate(60, 1); !ok {
		t.Fatal("First note should get a voice")
	}
	if _, ok := pool.Allocate(64, 1); !ok {
		t.Fatal("Second note should get a voice")
	}
	if _, ok := pool.Allocate(67, 1); ok {
		t.Error("Third note should be refused with stealing off")
	}

	if pool.ActiveCount() != 2 {
		t.Errorf("Expected 2 active voices, got %d", pool.ActiveCount())
	}
	if pool.Available() != 0 {
		t.Errorf("Expected 0 available voices, got %d", pool.Available())
	}
}

func TestPoolLRUOrder(t *testing.T) {
	pool := NewPool(3)

	a, _ := pool.Allocate(60, 1)
	pool.Allocate(62, 1)

	handles := pool.Release(60, nil)
	if len(handles) != 1 || handles[0] != a {
		t.Fatalf("Expected release of %v, got %v", a, handles)
	}
	pool.Reclaim(a)

	// Slot 2 has been free longer than slot a
	c, _ := pool.Allocate(64, 1)
	if c.Index != 2 {
		t.Errorf("Expected least recently used slot 2, got %d", c.Index)
	}
	d, _ := pool.Allocate(65, 1)
	if d.Index != a.Index {
		t.Errorf("Expected reclaimed slot %d, got %d", a.Index, d.Index)
	}
	if d.Generation == a.Generation {
		t.Error("Reused slot should have a new generation")
	}
}

func TestPoolReleaseOverlappingNotes(t *testing.T) {
	pool := NewPool(4)

	pool.Allocate(60, 1)
	pool.Allocate(60, 0.5)
	pool.Allocate(62, 1)

	handles := pool.Release(60, make([]Handle, 0, 4))
	if len(handles) != 2 {
		t.Fatalf("Expected both voices of note 60 released, got %d", len(handles))
	}
	for _, h := range handles {
		if pool.State(h.Index) != Releasing {
			t.Errorf("Slot %d: expected releasing, got %v", h.Index, pool.State(h.Index))
		}
	}

	// Releasing slots are still owned until reclaimed
	if pool.ActiveCount() != 3 {
		t.Errorf("Expected 3 owned slots, got %d", pool.ActiveCount())
	}
	if again := pool.Release(60, nil); len(again) != 0 {
		t.Errorf("Second release should find nothing, got %v", again)
	}
}

func TestPoolReclaimIgnoresStaleHandles(t *testing.T) {
	pool := NewPool(1)

	h, _ := pool.Allocate(60, 1)
	pool.SetStealingMode(StealOldest)
	stolen, _ := pool.Steal(61, 1)

	if pool.Reclaim(h) {
		t.Error("Reclaim with the pre-steal generation should be ignored")
	}
	if pool.ActiveCount() != 1 {
		t.Errorf("Expected slot still owned, got %d owned", pool.ActiveCount())
	}
	if !pool.Reclaim(stolen) {
		t.Error("Reclaim with the current generation should succeed")
	}
	if pool.Reclaim(stolen) {
		t.Error("Double reclaim should be ignored")
	}
	if pool.Available() != 1 {
		t.Errorf("Expected 1 available slot, got %d", pool.Available())
	}
}

func TestPoolStealing(t *testing.T) {
	tests := []struct {
		name string
		mode StealingMode
		want uint8
	}{
		{"Oldest", StealOldest, 64},
		{"Quietest", StealQuietest, 60},
		{"Highest", StealHighest, 67},
		{"Lowest", StealLowest, 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := NewPool(3)
			pool.SetStealingMode(tt.mode)

			pool.Allocate(64, 0.8)
			pool.Allocate(60, 0.2)
			pool.Allocate(67, 0.9)

			victim := -1
			for i := 0; i < pool.Capacity(); i++ {
				if pool.Note(i) == tt.want {
					victim = i
				}
			}

			h, ok := pool.Steal(72, 1)
			if !ok {
				t.Fatal("Steal failed")
			}
			if h.Index != victim {
				t.Errorf("Expected to steal note %d (slot %d), got slot %d", tt.want, victim, h.Index)
			}
			if pool.Note(h.Index) != 72 || pool.State(h.Index) != Active {
				t.Errorf("Stolen slot should be active for 72, got %d/%v", pool.Note(h.Index), pool.State(h.Index))
			}
			if released := pool.Release(tt.want, nil); len(released) != 0 {
				t.Errorf("Stolen note should no longer own a slot, released %v", released)
			}
			if pool.ActiveCount() != 3 {
				t.Errorf("Steal must not change the owned count, got %d", pool.ActiveCount())
			}
		})
	}
}

func TestPoolStealNone(t *testing.T) {
	pool := NewPool(1)
	pool.Allocate(60, 1)

	if _, ok := pool.Steal(61, 1); ok {
		t.Error("StealNone should refuse to steal")
	}
}

func TestPoolStealFallsBackToReleasing(t *testing.T) {
	pool := NewPool(2)
	pool.SetStealingMode(StealHighest)

	a, _ := pool.Allocate(60, 1)
	pool.Allocate(62, 1)
	pool.StopAll(nil)

	h, ok := pool.Steal(70, 1)
	if !ok {
		t.Fatal("Expected to steal a releasing slot")
	}
	if h.Index != a.Index {
		t.Errorf("Expected oldest releasing slot %d, got %d", a.Index, h.Index)
	}
}

func TestPoolSustain(t *testing.T) {
	pool := NewPool(4)

	pool.Allocate(60, 1)
	pool.SetSustain(true, nil)

	if released := pool.Release(60, nil); len(released) != 0 {
		t.Errorf("Release under sustain should hold, got %v", released)
	}
	if pool.State(0) != Active {
		t.Errorf("Held slot should stay active, got %v", pool.State(0))
	}

	pool.Allocate(62, 1)
	released := pool.SetSustain(false, nil)
	if len(released) != 1 || released[0].Index != 0 {
		t.Fatalf("Lifting the pedal should release slot 0 only, got %v", released)
	}
	if pool.State(1) != Active {
		t.Error("Unreleased note should keep playing after pedal up")
	}
}

func TestPoolStopAll(t *testing.T) {
	pool := NewPool(3)
	pool.Allocate(60, 1)
	pool.Allocate(61, 1)

	handles := pool.StopAll(nil)
	if len(handles) != 2 {
		t.Fatalf("Expected 2 handles, got %d", len(handles))
	}
	for _, h := range handles {
		pool.Reclaim(h)
	}
	if pool.ActiveCount() != 0 || pool.Available() != 3 {
		t.Errorf("Expected empty pool, got %d owned %d free", pool.ActiveCount(), pool.Available())
	}
}

// Every slot is either free or owned, never both, through a churn of operations.
func TestPoolInvariant(t *testing.T) {
	pool := NewPool(8)
	pool.SetStealingMode(StealOldest)
	var handles []Handle

	for i := 0; i < 1000; i++ {
		note := uint8(40 + i%13)
		switch i % 5 {
		case 0, 1:
			if _, ok := pool.Allocate(note, 1); !ok {
				pool.Steal(note, 1)
			}
		case 2:
			handles = pool.Release(uint8(40+(i*7)%13), handles[:0])
			for _, h := range handles {
				pool.Reclaim(h)
			}
		case 3:
			pool.Release(note, nil)
		case 4:
			for j := 0; j < pool.Capacity(); j++ {
				if pool.State(j) == Releasing {
					pool.Reclaim(Handle{Index: j, Generation: pool.gen[j]})
				}
			}
		}

		if pool.ActiveCount()+pool.Available() != pool.Capacity() {
			t.Fatalf("Step %d: owned %d + free %d != capacity %d",
				i, pool.ActiveCount(), pool.Available(), pool.Capacity())
		}

		owned := 0
		for j := 0; j < pool.Capacity(); j++ {
			if pool.State(j) != Free {
				owned++
			}
		}
		if owned != pool.ActiveCount() {
			t.Fatalf("Step %d: state table says %d owned, counter says %d", i, owned, pool.ActiveCount())
		}
	}
}

func TestPoolDoesNotAllocate(t *testing.T) {
	pool := NewPool(16)
	pool.SetStealingMode(StealOldest)
	dst := make([]Handle, 0, 16)

	allocs := testing.AllocsPerRun(100, func() {
		h, ok := pool.Allocate(60, 1)
		if !ok {
			h, _ = pool.Steal(60, 1)
		}
		dst = pool.Release(60, dst[:0])
		pool.Reclaim(h)
	})
	if allocs != 0 {
		t.Errorf("Expected 0 allocations, got %f", allocs)
	}
}

func BenchmarkPoolAllocateRelease(b *testing.B) {
	pool := NewPool(32)
	dst := make([]Handle, 0, 32)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		note := uint8(i % 128)
		pool.Allocate(note, 1)
		dst = pool.Release(note, dst[:0])
		for _, h := range dst {
			pool.Reclaim(h)
		}
	}
}
