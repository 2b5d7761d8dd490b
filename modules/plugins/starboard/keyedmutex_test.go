package starboard

import (
	"sync"
	"testing"
)

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	locks := newKeyedMutex()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			locks.Lock("key")
			counter++
			locks.Unlock("key")
		}()
	}
	wg.Wait()

	if counter != 100 {
		t.Fatalf("expected 100 increments, got %d", counter)
	}
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	locks := newKeyedMutex()

	locks.Lock("a")
	done := make(chan struct{})
	go func() {
		locks.Lock("b")
		locks.Unlock("b")
		close(done)
	}()
	<-done
	locks.Unlock("a")
}

// The lock map must not grow with every key ever locked.
func TestKeyedMutexReleasesEntries(t *testing.T) {
	locks := newKeyedMutex()

	locks.Lock("key")
	locks.Unlock("key")

	locks.mutex.Lock()
	size := len(locks.locks)
	locks.mutex.Unlock()

	if size != 0 {
		t.Fatalf("expected the entry to be released, map has %d entries", size)
	}
}
