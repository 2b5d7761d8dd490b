package starboard

import (
	"fmt"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/starboardbot/starboard/models"
)

func setStars(platform *fakePlatform, count int) {
	reactors := make([]string, 0, count)
	for i := 0; i < count; i++ {
		reactors = append(reactors, fmt.Sprintf("user-%d", i+1))
	}

	platform.mutex.Lock()
	platform.reactorsByEmoji["⭐"] = reactors
	platform.message.Reactions[0].Count = count
	platform.mutex.Unlock()
}

func TestSyncPromotesAtThreshold(t *testing.T) {
	message, reactors := testMessage(3)
	platform := newFakePlatform(message, reactors)
	store := newMemoryStore()
	sync := newTestSynchronizer(testSettings(), store, platform)

	if err := sync.Sync(testRef()); err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}

	_, creates, _, _ := platform.counters()
	if creates != 1 {
		t.Fatalf("expected 1 mirror, got %d", creates)
	}

	entry, ok := store.entry(testRef())
	if !ok {
		t.Fatal("expected a stored entry")
	}
	if entry.State != models.StarboardEntryStateActive {
		t.Fatalf("expected active entry, got %q", entry.State)
	}
	if entry.LastStarCount != 3 {
		t.Fatalf("expected star count 3, got %d", entry.LastStarCount)
	}
	if _, ok := entry.Mirror(); !ok {
		t.Fatal("expected a mirror ref on the entry")
	}
}

func TestSyncBelowThresholdIgnored(t *testing.T) {
	message, reactors := testMessage(2)
	platform := newFakePlatform(message, reactors)
	store := newMemoryStore()
	sync := newTestSynchronizer(testSettings(), store, platform)

	if err := sync.Sync(testRef()); err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}

	_, creates, _, _ := platform.counters()
	if creates != 0 {
		t.Fatalf("expected no mirror, got %d", creates)
	}
	if store.count() != 0 {
		t.Fatal("expected no stored entry")
	}
}

// Replaying the same event converges without posting a second mirror and
// without touching the existing one: an unchanged count is a no-op.
func TestSyncIdempotentReplay(t *testing.T) {
	message, reactors := testMessage(3)
	platform := newFakePlatform(message, reactors)
	store := newMemoryStore()
	sync := newTestSynchronizer(testSettings(), store, platform)

	for i := 0; i < 3; i++ {
		if err := sync.Sync(testRef()); err != nil {
			t.Fatalf("Sync %d returned error: %v", i, err)
		}
	}

	_, creates, edits, deletes := platform.counters()
	if creates != 1 {
		t.Fatalf("expected 1 mirror after replay, got %d", creates)
	}
	if edits != 0 {
		t.Fatalf("expected no edits on identical replays, got %d", edits)
	}
	if deletes != 0 {
		t.Fatalf("expected no deletes on identical replays, got %d", deletes)
	}
	if platform.liveMirrorCount() != 1 {
		t.Fatalf("expected 1 live mirror, got %d", platform.liveMirrorCount())
	}
	if store.count() != 1 {
		t.Fatalf("expected 1 entry, got %d", store.count())
	}
}

func TestSyncUpdatesOnCountChange(t *testing.T) {
	message, reactors := testMessage(3)
	platform := newFakePlatform(message, reactors)
	store := newMemoryStore()
	sync := newTestSynchronizer(testSettings(), store, platform)

	if err := sync.Sync(testRef()); err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}

	setStars(platform, 4)
	if err := sync.Sync(testRef()); err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}

	_, creates, edits, _ := platform.counters()
	if creates != 1 || edits != 1 {
		t.Fatalf("expected 1 create and 1 edit, got %d and %d", creates, edits)
	}

	entry, _ := store.entry(testRef())
	if entry.LastStarCount != 4 {
		t.Fatalf("expected star count 4, got %d", entry.LastStarCount)
	}
}

func TestSyncRetractsBelowThreshold(t *testing.T) {
	message, reactors := testMessage(3)
	platform := newFakePlatform(message, reactors)
	store := newMemoryStore()
	sync := newTestSynchronizer(testSettings(), store, platform)

	if err := sync.Sync(testRef()); err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}

	setStars(platform, 2)
	if err := sync.Sync(testRef()); err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}

	_, _, _, deletes := platform.counters()
	if deletes != 1 {
		t.Fatalf("expected 1 delete, got %d", deletes)
	}
	if platform.liveMirrorCount() != 0 {
		t.Fatal("expected no live mirrors")
	}

	entry, ok := store.entry(testRef())
	if !ok {
		t.Fatal("expected the entry to survive retraction")
	}
	if entry.State != models.StarboardEntryStateRetracted {
		t.Fatalf("expected retracted entry, got %q", entry.State)
	}
	if _, ok := entry.Mirror(); ok {
		t.Fatal("expected the mirror ref to be cleared")
	}
}

// An entry crossing the threshold again after a retraction gets a fresh
// mirror but keeps its record.
func TestSyncRevival(t *testing.T) {
	message, reactors := testMessage(3)
	platform := newFakePlatform(message, reactors)
	store := newMemoryStore()
	sync := newTestSynchronizer(testSettings(), store, platform)

	if err := sync.Sync(testRef()); err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}
	setStars(platform, 2)
	if err := sync.Sync(testRef()); err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}
	setStars(platform, 3)
	if err := sync.Sync(testRef()); err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}

	_, creates, _, _ := platform.counters()
	if creates != 2 {
		t.Fatalf("expected 2 mirrors over the message's lifetime, got %d", creates)
	}
	if platform.liveMirrorCount() != 1 {
		t.Fatalf("expected 1 live mirror, got %d", platform.liveMirrorCount())
	}
	if store.count() != 1 {
		t.Fatalf("expected a single entry, got %d", store.count())
	}

	entry, _ := store.entry(testRef())
	if entry.State != models.StarboardEntryStateActive {
		t.Fatalf("expected active entry, got %q", entry.State)
	}
}

func TestSyncDeletedRetractsMirror(t *testing.T) {
	message, reactors := testMessage(3)
	platform := newFakePlatform(message, reactors)
	store := newMemoryStore()
	sync := newTestSynchronizer(testSettings(), store, platform)

	if err := sync.Sync(testRef()); err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}
	if err := sync.SyncDeleted(testRef()); err != nil {
		t.Fatalf("SyncDeleted returned error: %v", err)
	}

	_, _, _, deletes := platform.counters()
	if deletes != 1 {
		t.Fatalf("expected exactly 1 delete, got %d", deletes)
	}

	entry, _ := store.entry(testRef())
	if entry.State != models.StarboardEntryStateRetracted {
		t.Fatalf("expected retracted entry, got %q", entry.State)
	}

	// replaying the deletion is harmless
	if err := sync.SyncDeleted(testRef()); err != nil {
		t.Fatalf("replayed SyncDeleted returned error: %v", err)
	}
	_, _, _, deletes = platform.counters()
	if deletes != 1 {
		t.Fatalf("expected still 1 delete after replay, got %d", deletes)
	}
}

func TestSyncDeletedWithoutEntry(t *testing.T) {
	message, reactors := testMessage(3)
	platform := newFakePlatform(message, reactors)
	store := newMemoryStore()
	sync := newTestSynchronizer(testSettings(), store, platform)

	if err := sync.SyncDeleted(testRef()); err != nil {
		t.Fatalf("SyncDeleted returned error: %v", err)
	}

	fetches, creates, edits, deletes := platform.counters()
	if fetches+creates+edits+deletes != 0 {
		t.Fatal("expected no platform calls")
	}
}

func TestSyncOriginalDeletedRetracts(t *testing.T) {
	message, reactors := testMessage(3)
	platform := newFakePlatform(message, reactors)
	store := newMemoryStore()
	sync := newTestSynchronizer(testSettings(), store, platform)

	if err := sync.Sync(testRef()); err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}

	platform.mutex.Lock()
	platform.fetchMessageErr = ErrNotFound
	platform.mutex.Unlock()

	if err := sync.Sync(testRef()); err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}

	entry, _ := store.entry(testRef())
	if entry.State != models.StarboardEntryStateRetracted {
		t.Fatalf("expected retracted entry, got %q", entry.State)
	}
	if platform.liveMirrorCount() != 0 {
		t.Fatal("expected no live mirrors")
	}
}

func TestSyncExcludedChannelDoesNothing(t *testing.T) {
	settings := testSettings()
	settings.StarboardExcludedChannelIDs = []string{"text-channel"}

	message, reactors := testMessage(5)
	platform := newFakePlatform(message, reactors)
	store := newMemoryStore()
	sync := newTestSynchronizer(settings, store, platform)

	if err := sync.Sync(testRef()); err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}

	fetches, creates, edits, deletes := platform.counters()
	if fetches+creates+edits+deletes != 0 {
		t.Fatal("expected no platform calls for an excluded channel")
	}
	if store.count() != 0 {
		t.Fatal("expected no stored entry")
	}
}

// A mirror deleted by hand marks the entry retracted on the next edit
// attempt, and the sync after that posts a fresh one.
func TestSyncMirrorDeletedByHand(t *testing.T) {
	message, reactors := testMessage(3)
	platform := newFakePlatform(message, reactors)
	store := newMemoryStore()
	sync := newTestSynchronizer(testSettings(), store, platform)

	if err := sync.Sync(testRef()); err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}

	platform.mutex.Lock()
	platform.liveMirrors = make(map[string]bool)
	platform.mutex.Unlock()

	// an unchanged count is not re-rendered, only the next count change
	// touches the dead mirror and notices it is gone
	setStars(platform, 4)
	if err := sync.Sync(testRef()); err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}
	entry, _ := store.entry(testRef())
	if entry.State != models.StarboardEntryStateRetracted {
		t.Fatalf("expected retracted entry, got %q", entry.State)
	}

	if err := sync.Sync(testRef()); err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}
	_, creates, _, _ := platform.counters()
	if creates != 2 {
		t.Fatalf("expected a fresh mirror, got %d creates", creates)
	}
	entry, _ = store.entry(testRef())
	if entry.State != models.StarboardEntryStateActive {
		t.Fatalf("expected active entry, got %q", entry.State)
	}
}

func TestSyncConcurrentNoDuplicateMirrors(t *testing.T) {
	message, reactors := testMessage(3)
	platform := newFakePlatform(message, reactors)
	store := newMemoryStore()
	synchronizer := newTestSynchronizer(testSettings(), store, platform)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := synchronizer.Sync(testRef()); err != nil {
				t.Errorf("Sync returned error: %v", err)
			}
		}()
	}
	wg.Wait()

	_, creates, _, _ := platform.counters()
	if creates != 1 {
		t.Fatalf("expected 1 mirror from concurrent syncs, got %d", creates)
	}
	if platform.liveMirrorCount() != 1 {
		t.Fatalf("expected 1 live mirror, got %d", platform.liveMirrorCount())
	}
	if store.count() != 1 {
		t.Fatalf("expected 1 entry, got %d", store.count())
	}
}

// A sync losing the write race takes its own uncommitted mirror down
// again and leaves the board to the winner.
func TestSyncConflictRemovesUncommittedMirror(t *testing.T) {
	message, reactors := testMessage(3)
	platform := newFakePlatform(message, reactors)
	store := newMemoryStore()
	store.failUpsert = ErrConflict
	sync := newTestSynchronizer(testSettings(), store, platform)

	if err := sync.Sync(testRef()); err != nil {
		t.Fatalf("expected the conflict to be absorbed, got %v", err)
	}

	if platform.liveMirrorCount() != 0 {
		t.Fatalf("expected no live mirrors after conflicts, got %d", platform.liveMirrorCount())
	}
	if store.count() != 0 {
		t.Fatal("expected no stored entry")
	}
}

func TestSyncTransientFailureLeavesNoTrace(t *testing.T) {
	message, reactors := testMessage(3)
	platform := newFakePlatform(message, reactors)
	platform.fetchMessageErr = ErrTransient
	store := newMemoryStore()
	sync := newTestSynchronizer(testSettings(), store, platform)

	if err := sync.Sync(testRef()); err != nil {
		t.Fatalf("expected the transient failure to be absorbed, got %v", err)
	}

	_, creates, edits, deletes := platform.counters()
	if creates+edits+deletes != 0 {
		t.Fatal("expected no mirror operations")
	}
	if store.count() != 0 {
		t.Fatal("expected no stored entry")
	}
}

func TestSyncPersistenceFailurePropagates(t *testing.T) {
	message, reactors := testMessage(3)
	platform := newFakePlatform(message, reactors)
	store := newMemoryStore()
	store.failGet = errors.New("database down")
	sync := newTestSynchronizer(testSettings(), store, platform)

	err := sync.Sync(testRef())
	if err == nil {
		t.Fatal("expected the persistence failure to propagate")
	}

	fetches, creates, edits, deletes := platform.counters()
	if fetches+creates+edits+deletes != 0 {
		t.Fatal("expected no platform calls when the store is down")
	}
}

func TestSyncEmptyMessageNotPromoted(t *testing.T) {
	message, reactors := testMessage(3)
	message.Content = ""
	platform := newFakePlatform(message, reactors)
	store := newMemoryStore()
	sync := newTestSynchronizer(testSettings(), store, platform)

	if err := sync.Sync(testRef()); err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}

	_, creates, _, _ := platform.counters()
	if creates != 0 {
		t.Fatalf("expected no mirror for an empty message, got %d", creates)
	}
	if store.count() != 0 {
		t.Fatal("expected no stored entry")
	}
}

func TestHandleEventAsync(t *testing.T) {
	message, reactors := testMessage(3)
	platform := newFakePlatform(message, reactors)
	store := newMemoryStore()
	sync := newTestSynchronizer(testSettings(), store, platform)

	sync.HandleEvent(testRef())
	sync.Wait()

	_, creates, _, _ := platform.counters()
	if creates != 1 {
		t.Fatalf("expected 1 mirror, got %d", creates)
	}
}
