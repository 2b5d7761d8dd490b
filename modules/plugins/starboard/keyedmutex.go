package starboard

import (
	"sync"

	"github.com/starboardbot/starboard/models"
)

// keyedMutex serializes work per key. Entries are refcounted and removed
// once the last holder unlocks, so the map does not grow with every
// message ever starred.
type keyedMutex struct {
	mutex sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mutex sync.Mutex
	refs  int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*lockEntry)}
}

func lockKey(ref models.MessageRef) string {
	return ref.ChannelID + ":" + ref.MessageID
}

func (k *keyedMutex) Lock(key string) {
	k.mutex.Lock()
	entry, ok := k.locks[key]
	if !ok {
		entry = &lockEntry{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mutex.Unlock()

	entry.mutex.Lock()
}

func (k *keyedMutex) Unlock(key string) {
	k.mutex.Lock()
	entry := k.locks[key]
	entry.refs--
	if entry.refs <= 0 {
		delete(k.locks, key)
	}
	k.mutex.Unlock()

	entry.mutex.Unlock()
}
