package models

import (
	"time"

	"github.com/globalsign/mgo/bson"
)

const (
	StarboardEntriesTable MongoDbCollection = "starboard_entries"
)

// StarboardEntryState is the lifecycle state of a starboard entry.
type StarboardEntryState string

const (
	// StarboardEntryStateNone marks "no entry exists", it is never persisted
	StarboardEntryStateNone StarboardEntryState = ""
	// StarboardEntryStateActive marks an entry with a live mirror message
	StarboardEntryStateActive StarboardEntryState = "active"
	// StarboardEntryStateRetracted marks an entry whose mirror was taken down
	StarboardEntryStateRetracted StarboardEntryState = "retracted"
)

// MessageRef identifies one message on discord
type MessageRef struct {
	GuildID   string
	ChannelID string
	MessageID string
}

// StarboardEntry maps an original message to its mirror on the starboard.
// There is at most one entry per original message (unique index on
// guildid+messageid) and at most one live mirror per entry.
type StarboardEntry struct {
	ID                        bson.ObjectId `bson:"_id,omitempty"`
	GuildID                   string
	ChannelID                 string
	MessageID                 string
	AuthorID                  string
	StarboardMessageChannelID string
	StarboardMessageID        string
	LastStarCount             int
	State                     StarboardEntryState
	FirstStarred              time.Time
	UpdatedAt                 time.Time
}

// Original returns the ref of the starred message
func (e *StarboardEntry) Original() MessageRef {
	return MessageRef{
		GuildID:   e.GuildID,
		ChannelID: e.ChannelID,
		MessageID: e.MessageID,
	}
}

// Mirror returns the ref of the starboard message, if one is recorded
func (e *StarboardEntry) Mirror() (MessageRef, bool) {
	if e.StarboardMessageChannelID == "" || e.StarboardMessageID == "" {
		return MessageRef{}, false
	}
	return MessageRef{
		GuildID:   e.GuildID,
		ChannelID: e.StarboardMessageChannelID,
		MessageID: e.StarboardMessageID,
	}, true
}
