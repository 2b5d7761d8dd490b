package starboard

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
	"github.com/starboardbot/starboard/cache"
	"github.com/starboardbot/starboard/models"
)

func init() {
	log := logrus.New()
	log.Out = io.Discard
	cache.SetLogger(log)
}

// memoryStore reproduces the compare-and-swap semantics of the mongodb
// store for tests
type memoryStore struct {
	mutex   sync.Mutex
	entries map[string]models.StarboardEntry

	failGet    error
	failUpsert error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{entries: make(map[string]models.StarboardEntry)}
}

func storeKey(original models.MessageRef) string {
	return original.GuildID + ":" + original.MessageID
}

func (s *memoryStore) Get(original models.MessageRef) (*models.StarboardEntry, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.failGet != nil {
		return nil, s.failGet
	}

	entry, ok := s.entries[storeKey(original)]
	if !ok {
		return nil, ErrNotFound
	}
	return &entry, nil
}

func (s *memoryStore) Upsert(entry *models.StarboardEntry, prior models.StarboardEntryState) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.failUpsert != nil {
		return s.failUpsert
	}

	key := storeKey(entry.Original())
	stored, exists := s.entries[key]

	if prior == models.StarboardEntryStateNone {
		if exists {
			return ErrConflict
		}
		entry.UpdatedAt = time.Now()
		s.entries[key] = *entry
		return nil
	}

	if !exists || stored.State != prior {
		return ErrConflict
	}
	entry.UpdatedAt = time.Now()
	s.entries[key] = *entry
	return nil
}

func (s *memoryStore) Delete(original models.MessageRef) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	key := storeKey(original)
	if _, ok := s.entries[key]; !ok {
		return ErrNotFound
	}
	delete(s.entries, key)
	return nil
}

func (s *memoryStore) PruneRetracted(cutoff time.Time) (int, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	removed := 0
	for key, entry := range s.entries {
		if entry.State == models.StarboardEntryStateRetracted && entry.UpdatedAt.Before(cutoff) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed, nil
}

func (s *memoryStore) entry(original models.MessageRef) (models.StarboardEntry, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	entry, ok := s.entries[storeKey(original)]
	return entry, ok
}

func (s *memoryStore) count() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return len(s.entries)
}

// fakePlatform serves a single scripted message and records every mirror
// operation
type fakePlatform struct {
	mutex sync.Mutex

	message         *discordgo.Message
	reactorsByEmoji map[string][]string

	fetchMessageErr error
	createErr       error
	editErr         error
	deleteErr       error

	fetches        int
	reactorFetches int
	creates        int
	edits          int
	deletes        int

	liveMirrors map[string]bool
	nextMirror  int
}

func newFakePlatform(message *discordgo.Message, reactorsByEmoji map[string][]string) *fakePlatform {
	return &fakePlatform{
		message:         message,
		reactorsByEmoji: reactorsByEmoji,
		liveMirrors:     make(map[string]bool),
	}
}

func (p *fakePlatform) FetchMessage(ref models.MessageRef) (*discordgo.Message, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.fetches++
	if p.fetchMessageErr != nil {
		return nil, p.fetchMessageErr
	}
	return p.message, nil
}

func (p *fakePlatform) FetchReactors(ref models.MessageRef, emoji string) ([]string, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.reactorFetches++
	return p.reactorsByEmoji[emoji], nil
}

func (p *fakePlatform) CreateMirror(guildID string, channelID string, embed *discordgo.MessageEmbed) (models.MessageRef, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.createErr != nil {
		return models.MessageRef{}, p.createErr
	}

	p.creates++
	p.nextMirror++
	messageID := fmt.Sprintf("mirror-%d", p.nextMirror)
	p.liveMirrors[messageID] = true

	return models.MessageRef{
		GuildID:   guildID,
		ChannelID: channelID,
		MessageID: messageID,
	}, nil
}

func (p *fakePlatform) EditMirror(ref models.MessageRef, embed *discordgo.MessageEmbed) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.editErr != nil {
		return p.editErr
	}
	if !p.liveMirrors[ref.MessageID] {
		return ErrNotFound
	}

	p.edits++
	return nil
}

func (p *fakePlatform) DeleteMirror(ref models.MessageRef) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.deleteErr != nil {
		return p.deleteErr
	}
	if !p.liveMirrors[ref.MessageID] {
		return ErrNotFound
	}

	p.deletes++
	delete(p.liveMirrors, ref.MessageID)
	return nil
}

func (p *fakePlatform) reactorFetchCount() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	return p.reactorFetches
}

func (p *fakePlatform) liveMirrorCount() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	return len(p.liveMirrors)
}

func (p *fakePlatform) counters() (fetches int, creates int, edits int, deletes int) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	return p.fetches, p.creates, p.edits, p.deletes
}

func testSettings() models.Config {
	return models.Config{
		GuildID:            "guild-1",
		StarboardChannelID: "board-channel",
		StarboardEmoji:     []string{"⭐"},
		StarboardMinimum:   3,
	}
}

func testMessage(starCount int) (*discordgo.Message, map[string][]string) {
	reactors := make([]string, 0, starCount)
	for i := 0; i < starCount; i++ {
		reactors = append(reactors, fmt.Sprintf("user-%d", i+1))
	}

	message := &discordgo.Message{
		ID:        "message-1",
		ChannelID: "text-channel",
		Content:   "hello world",
		Author:    &discordgo.User{ID: "author-1", Username: "author"},
		Reactions: []*discordgo.MessageReactions{
			{Count: starCount, Emoji: &discordgo.Emoji{Name: "⭐"}},
		},
	}

	return message, map[string][]string{"⭐": reactors}
}

func testRef() models.MessageRef {
	return models.MessageRef{
		GuildID:   "guild-1",
		ChannelID: "text-channel",
		MessageID: "message-1",
	}
}

func newTestSynchronizer(settings models.Config, store Store, platform Platform) *Synchronizer {
	resolver := NewResolver(func(guildID string) models.Config {
		return settings
	})

	log := logrus.New()
	log.Out = io.Discard

	return NewSynchronizer(
		resolver,
		NewAggregator(platform),
		store,
		platform,
		log.WithField("module", "starboard"),
	)
}
