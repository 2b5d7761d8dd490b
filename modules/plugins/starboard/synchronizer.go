package starboard

import (
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/karrick/tparse/v2"
	"github.com/sirupsen/logrus"
	"github.com/starboardbot/starboard/helpers"
	"github.com/starboardbot/starboard/metrics"
	"github.com/starboardbot/starboard/models"
)

const (
	defaultWorkerLimit = 16
	syncAttempts       = 2
)

// Synchronizer drives every starboard change. All paths converge here:
// reaction events, message deletions and command-triggered refreshes all
// end in a Sync or SyncDeleted for one original message.
//
// Syncs for the same message are serialized by a per-message lock, syncs
// for different messages run concurrently up to the worker limit. A sync
// recounts from the platform's current state, so replaying any event is
// harmless.
type Synchronizer struct {
	resolver   *Resolver
	aggregator *Aggregator
	store      Store
	platform   Platform
	log        *logrus.Entry

	locks   *keyedMutex
	workers chan struct{}
	wg      sync.WaitGroup
}

func NewSynchronizer(resolver *Resolver, aggregator *Aggregator, store Store, platform Platform, log *logrus.Entry) *Synchronizer {
	return &Synchronizer{
		resolver:   resolver,
		aggregator: aggregator,
		store:      store,
		platform:   platform,
		log:        log,
		locks:      newKeyedMutex(),
		workers:    make(chan struct{}, defaultWorkerLimit),
	}
}

// Qualifies reports whether an event for this emoji in this channel can
// affect the starboard, used to drop events cheaply before scheduling
func (s *Synchronizer) Qualifies(guildID string, channelID string, emoji *discordgo.Emoji) bool {
	cfg := s.resolver.Resolve(guildID, channelID)
	if cfg == nil {
		return false
	}
	if emoji == nil {
		// reaction-remove-all events carry no emoji and can always
		// take stars away
		return true
	}
	return helpers.EmojiMatches(emoji, cfg.Emoji)
}

// HandleEvent schedules an asynchronous sync for the original message
func (s *Synchronizer) HandleEvent(original models.MessageRef) {
	s.schedule(func() {
		err := s.Sync(original)
		helpers.RelaxLog(err)
	})
}

// HandleDeleted schedules an asynchronous retraction after the original
// message got deleted
func (s *Synchronizer) HandleDeleted(original models.MessageRef) {
	s.schedule(func() {
		err := s.SyncDeleted(original)
		helpers.RelaxLog(err)
	})
}

func (s *Synchronizer) schedule(work func()) {
	s.wg.Add(1)
	go func() {
		defer helpers.Recover()
		defer s.wg.Done()

		s.workers <- struct{}{}
		defer func() { <-s.workers }()

		work()
	}()
}

// Wait blocks until all scheduled syncs finished, used on shutdown
func (s *Synchronizer) Wait() {
	s.wg.Wait()
}

// Sync brings the starboard in line with the current state of one
// original message. Transient platform failures and lost write races are
// absorbed: the next event recounts from scratch anyway.
func (s *Synchronizer) Sync(original models.MessageRef) error {
	cfg := s.resolver.Resolve(original.GuildID, original.ChannelID)
	if cfg == nil {
		return nil
	}

	key := lockKey(original)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	metrics.StarboardEvaluations.Add(1)

	var err error
	for attempt := 0; attempt < syncAttempts; attempt++ {
		err = s.evaluate(cfg, original)
		if !IsConflict(err) {
			break
		}
		metrics.StarboardStoreConflicts.Add(1)
	}

	return s.absorb(original, err)
}

// SyncDeleted retracts the mirror after the original message was deleted
func (s *Synchronizer) SyncDeleted(original models.MessageRef) error {
	key := lockKey(original)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	entry, err := s.store.Get(original)
	if IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}

	return s.absorb(original, s.retract(entry))
}

// absorb maps failure classes to outcomes: conflicts and transient
// failures end the sync quietly, everything else propagates
func (s *Synchronizer) absorb(original models.MessageRef, err error) error {
	switch {
	case err == nil:
		return nil
	case IsConflict(err):
		s.log.WithField("message", original.MessageID).Debug("sync lost write race, leaving resolution to the winner")
		return nil
	case IsTransient(err):
		metrics.StarboardTransientFailures.Add(1)
		s.log.WithField("message", original.MessageID).Debug("sync failed transiently: " + err.Error())
		return nil
	default:
		return err
	}
}

func (s *Synchronizer) evaluate(cfg *Config, original models.MessageRef) error {
	// read the entry first: when the store is down the sync has to fail
	// before any platform call, not after
	entry, err := s.store.Get(original)
	if IsNotFound(err) {
		entry = nil
	} else if err != nil {
		return err
	}

	message, err := s.platform.FetchMessage(original)
	if IsNotFound(err) {
		return s.retract(entry)
	}
	if err != nil {
		return err
	}

	count, err := s.aggregator.StarCount(cfg, message)
	if IsNotFound(err) {
		return s.retract(entry)
	}
	if err != nil {
		return err
	}

	prior := models.StarboardEntryStateNone
	priorCount := 0
	if entry != nil {
		prior = entry.State
		priorCount = entry.LastStarCount
	}

	switch Evaluate(count, cfg.Minimum, prior, priorCount) {
	case DecisionPromote:
		if !renderable(message) {
			return nil
		}
		return s.promote(cfg, original, message, entry, count)
	case DecisionUpdate:
		return s.update(cfg, original, message, entry, count)
	case DecisionRetract:
		return s.retract(entry)
	}

	return nil
}

// renderable filters messages that would produce an empty mirror
func renderable(message *discordgo.Message) bool {
	return message.Content != "" || len(message.Attachments) > 0 || len(message.Embeds) > 0
}

// promote posts a fresh mirror and commits the entry. Revived entries
// (retracted ones crossing the threshold again) reuse the stored record
// but always get a new mirror message.
func (s *Synchronizer) promote(cfg *Config, original models.MessageRef, message *discordgo.Message, entry *models.StarboardEntry, count int) error {
	mirror, err := s.platform.CreateMirror(cfg.GuildID, cfg.ChannelID, renderMirror(cfg, message, count))
	if err != nil {
		return err
	}

	prior := models.StarboardEntryStateNone
	if entry == nil {
		entry = &models.StarboardEntry{
			GuildID:      original.GuildID,
			ChannelID:    original.ChannelID,
			MessageID:    original.MessageID,
			FirstStarred: time.Now(),
		}
		if message.Author != nil {
			entry.AuthorID = message.Author.ID
		}
	} else {
		prior = entry.State
	}

	entry.StarboardMessageChannelID = mirror.ChannelID
	entry.StarboardMessageID = mirror.MessageID
	entry.LastStarCount = count
	entry.State = models.StarboardEntryStateActive

	err = s.store.Upsert(entry, prior)
	if err != nil {
		// the mirror is not committed anywhere, take it down again so
		// the winning writer does not leave a duplicate behind
		helpers.RelaxLog(s.platform.DeleteMirror(mirror))
		return err
	}

	metrics.StarboardMirrorsPosted.Add(1)
	return nil
}

func (s *Synchronizer) update(cfg *Config, original models.MessageRef, message *discordgo.Message, entry *models.StarboardEntry, count int) error {
	mirror, ok := entry.Mirror()
	if !ok {
		// active entry without a mirror ref should not happen, repair
		// by promoting
		return s.promote(cfg, original, message, entry, count)
	}

	err := s.platform.EditMirror(mirror, renderMirror(cfg, message, count))
	if IsNotFound(err) {
		// someone deleted the mirror by hand, record that and let the
		// next event decide whether to revive
		return s.markRetracted(entry)
	}
	if err != nil {
		return err
	}

	entry.LastStarCount = count
	err = s.store.Upsert(entry, models.StarboardEntryStateActive)
	if err != nil {
		return err
	}

	metrics.StarboardMirrorsUpdated.Add(1)
	return nil
}

// retract takes the mirror down and marks the entry retracted. Safe to
// call with nil or already retracted entries.
func (s *Synchronizer) retract(entry *models.StarboardEntry) error {
	if entry == nil || entry.State != models.StarboardEntryStateActive {
		return nil
	}

	if mirror, ok := entry.Mirror(); ok {
		err := s.platform.DeleteMirror(mirror)
		if err != nil && !IsNotFound(err) {
			return err
		}
	}

	return s.markRetracted(entry)
}

func (s *Synchronizer) markRetracted(entry *models.StarboardEntry) error {
	prior := entry.State

	entry.State = models.StarboardEntryStateRetracted
	entry.StarboardMessageChannelID = ""
	entry.StarboardMessageID = ""

	err := s.store.Upsert(entry, prior)
	if err != nil {
		return err
	}

	metrics.StarboardMirrorsRetracted.Add(1)
	return nil
}

// PruneLoop periodically removes retracted entries older than the
// retention, meant to be launched as a goroutine. The retention is a
// tparse duration like "720h" or "30d".
func (s *Synchronizer) PruneLoop(retention string, interval time.Duration) {
	defer helpers.Recover()

	for {
		time.Sleep(interval)

		cutoff, err := tparse.AddDuration(time.Now(), "-"+retention)
		if err != nil {
			s.log.Error("invalid prune retention: " + err.Error())
			return
		}

		removed, err := s.store.PruneRetracted(cutoff)
		if err != nil {
			s.log.Error("failed to prune retracted entries: " + err.Error())
			continue
		}

		if removed > 0 {
			metrics.StarboardEntriesPruned.Add(int64(removed))
			s.log.Infof("pruned %d retracted starboard entries", removed)
		}
	}
}
