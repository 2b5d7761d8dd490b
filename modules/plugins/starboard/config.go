package starboard

import "github.com/starboardbot/starboard/models"

// DefaultEmoji are the reactions counted when a guild configured none
var DefaultEmoji = []string{"⭐", "🌟"}

const defaultMinimum = 1

// Config is the resolved starboard configuration for one guild, a frozen
// snapshot taken at the start of a sync. It never changes mid-sync even
// when an admin edits the settings concurrently.
type Config struct {
	GuildID          string
	ChannelID        string
	Emoji            []string
	Minimum          int
	SelfStarAllowed  bool
	AllowBots        bool
	ExcludedChannels []string
}

// SettingsSource provides the stored settings for a guild, usually
// helpers.GuildSettingsGetCached
type SettingsSource func(guildID string) models.Config

// Resolver turns stored guild settings into engine configs
type Resolver struct {
	source SettingsSource
}

func NewResolver(source SettingsSource) *Resolver {
	return &Resolver{source: source}
}

// Resolve returns the effective config for a message, or nil if the
// message is not subject to the starboard: the guild has no starboard
// channel, the message lives on the starboard itself (recursion guard),
// or its channel is excluded.
func (r *Resolver) Resolve(guildID string, channelID string) *Config {
	settings := r.source(guildID)

	if settings.StarboardChannelID == "" {
		return nil
	}
	if channelID == settings.StarboardChannelID {
		return nil
	}
	for _, excluded := range settings.StarboardExcludedChannelIDs {
		if channelID == excluded {
			return nil
		}
	}

	emoji := settings.StarboardEmoji
	if len(emoji) == 0 {
		emoji = DefaultEmoji
	}

	minimum := settings.StarboardMinimum
	if minimum < defaultMinimum {
		minimum = defaultMinimum
	}

	config := &Config{
		GuildID:          guildID,
		ChannelID:        settings.StarboardChannelID,
		Emoji:            make([]string, len(emoji)),
		Minimum:          minimum,
		SelfStarAllowed:  settings.StarboardSelfStarAllowed,
		AllowBots:        settings.StarboardAllowBots,
		ExcludedChannels: settings.StarboardExcludedChannelIDs,
	}
	copy(config.Emoji, emoji)

	return config
}
