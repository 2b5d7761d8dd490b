package models

import "github.com/globalsign/mgo/bson"

const (
	GuildConfigTable MongoDbCollection = "guild_configs"
)

// Config holds the per-guild settings. The starboard engine never reads it
// directly; it consumes resolved snapshots built from the cached copy.
type Config struct {
	ID      bson.ObjectId `bson:"_id,omitempty"`
	GuildID string

	Prefix string

	StarboardChannelID          string
	StarboardEmoji              []string
	StarboardMinimum            int
	StarboardSelfStarAllowed    bool
	StarboardAllowBots          bool
	StarboardExcludedChannelIDs []string
}

func (c Config) Default(guildID string) Config {
	return Config{
		GuildID: guildID,

		Prefix: "%",

		StarboardChannelID:          "",
		StarboardEmoji:              []string{},
		StarboardMinimum:            0,
		StarboardSelfStarAllowed:    false,
		StarboardAllowBots:          false,
		StarboardExcludedChannelIDs: []string{},
	}
}
