package auction

import (
	"sync"
	"testing"
)

func TestLockArenaMutualExclusion(t *testing.T) {
	arena := newLockArena()

	const workers = 16
	const rounds = 100

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < rounds; j++ {
				unlock := arena.lock("item-a")
				counter++
				unlock()
			}
		}()
	}
	wg.Wait()

	if counter != workers*rounds {
		t.Fatalf("expected %d increments, got %d", workers*rounds, counter)
	}
}

func TestLockArenaIndependentIDs(t *testing.T) {
	arena := newLockArena()

	unlockA := arena.lock("item-a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := arena.lock("item-b")
		unlockB()
		close(done)
	}()

	// A held lock on one id must not block another id.
	<-done
}

func TestLockArenaReclaimsEntries(t *testing.T) {
	arena := newLockArena()

	unlock := arena.lock("item-a")
	if arena.size() != 1 {
		t.Fatalf("expected 1 live entry, got %d", arena.size())
	}
	unlock()
	if arena.size() != 0 {
		t.Fatalf("expected entries reclaimed, got %d", arena.size())
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u := arena.lock("item-a")
			u()
		}()
	}
	wg.Wait()
	if arena.size() != 0 {
		t.Fatalf("expected entries reclaimed after contention, got %d", arena.size())
	}
}
