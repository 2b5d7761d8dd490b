package starboard

import (
	"time"

	"github.com/globalsign/mgo"
	"github.com/globalsign/mgo/bson"
	"github.com/pkg/errors"
	"github.com/starboardbot/starboard/helpers"
	"github.com/starboardbot/starboard/models"
)

// Store is the durable entry store. Upsert is a compare-and-swap on the
// entry's prior state: writers race by announcing the state they read,
// and the write fails with ErrConflict when someone got there first.
type Store interface {
	// Get returns the entry for the original message, or ErrNotFound
	Get(original models.MessageRef) (*models.StarboardEntry, error)

	// Upsert writes the entry if its stored state still equals prior.
	// prior StarboardEntryStateNone inserts, anything else updates.
	// Returns ErrConflict when the precondition no longer holds.
	Upsert(entry *models.StarboardEntry, prior models.StarboardEntryState) error

	// Delete removes the entry for the original message
	Delete(original models.MessageRef) error

	// PruneRetracted removes retracted entries not updated since cutoff
	// and returns how many were removed
	PruneRetracted(cutoff time.Time) (int, error)
}

type mongoStore struct{}

// NewMongoStore returns a Store on the bot's mongodb and ensures the
// uniqueness index that backs the insert half of the CAS
func NewMongoStore() (Store, error) {
	err := helpers.MdbCollection(models.StarboardEntriesTable).EnsureIndex(mgo.Index{
		Key:    []string{"guildid", "messageid"},
		Unique: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to ensure starboard entry index")
	}

	return &mongoStore{}, nil
}

func (s *mongoStore) Get(original models.MessageRef) (*models.StarboardEntry, error) {
	var entry models.StarboardEntry

	err := helpers.MdbOne(
		helpers.MdbCollection(models.StarboardEntriesTable).Find(bson.M{
			"guildid":   original.GuildID,
			"messageid": original.MessageID,
		}),
		&entry,
	)
	if helpers.IsMdbNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &entry, nil
}

func (s *mongoStore) Upsert(entry *models.StarboardEntry, prior models.StarboardEntryState) error {
	entry.UpdatedAt = time.Now()

	if prior == models.StarboardEntryStateNone {
		id, err := helpers.MDbInsert(models.StarboardEntriesTable, *entry)
		if helpers.IsMdbDup(err) {
			return errors.Wrap(ErrConflict, "entry already exists")
		}
		if err != nil {
			return err
		}
		entry.ID = id
		return nil
	}

	err := helpers.MDbUpdateQuery(
		models.StarboardEntriesTable,
		bson.M{
			"guildid":   entry.GuildID,
			"messageid": entry.MessageID,
			"state":     prior,
		},
		*entry,
	)
	if helpers.IsMdbNotFound(err) {
		return errors.Wrap(ErrConflict, "entry state changed concurrently")
	}

	return err
}

func (s *mongoStore) Delete(original models.MessageRef) error {
	_, err := helpers.MdbDeleteQuery(models.StarboardEntriesTable, bson.M{
		"guildid":   original.GuildID,
		"messageid": original.MessageID,
	})
	if helpers.IsMdbNotFound(err) {
		return ErrNotFound
	}
	return err
}

func (s *mongoStore) PruneRetracted(cutoff time.Time) (int, error) {
	info, err := helpers.MdbDeleteQuery(models.StarboardEntriesTable, bson.M{
		"state":     models.StarboardEntryStateRetracted,
		"updatedat": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return 0, err
	}
	return info.Removed, nil
}
