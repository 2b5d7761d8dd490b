package starboard

import (
	"github.com/bwmarrin/discordgo"
	"github.com/starboardbot/starboard/helpers"
	"github.com/starboardbot/starboard/models"
)

// Aggregator recounts stars from the platform's current state. Reaction
// events only trigger a recount, their payload is never trusted as a
// delta: replays, missed events and bulk removals all converge on the
// same count.
type Aggregator struct {
	platform Platform
}

func NewAggregator(platform Platform) *Aggregator {
	return &Aggregator{platform: platform}
}

// StarCount returns the number of distinct qualifying users who starred
// the message. A user reacting with several configured emoji counts once.
// The author's own stars are skipped unless self-stars are allowed, and
// messages authored by bots count zero unless bot messages are allowed.
func (a *Aggregator) StarCount(cfg *Config, message *discordgo.Message) (int, error) {
	if !cfg.AllowBots && message.Author != nil && message.Author.Bot {
		return 0, nil
	}

	ref := models.MessageRef{
		GuildID:   cfg.GuildID,
		ChannelID: message.ChannelID,
		MessageID: message.ID,
	}

	seen := make(map[string]struct{})

	for _, reaction := range message.Reactions {
		if !helpers.EmojiMatches(reaction.Emoji, cfg.Emoji) {
			continue
		}

		reactors, err := a.platform.FetchReactors(ref, reaction.Emoji.APIName())
		if err != nil {
			return 0, err
		}

		for _, userID := range reactors {
			if !cfg.SelfStarAllowed && message.Author != nil && userID == message.Author.ID {
				continue
			}
			seen[userID] = struct{}{}
		}
	}

	return len(seen), nil
}
