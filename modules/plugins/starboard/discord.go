package starboard

import (
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	"github.com/starboardbot/starboard/models"
)

const reactorsPageSize = 100

// DiscordPlatform implements Platform on a discordgo session
type DiscordPlatform struct {
	session *discordgo.Session
}

func NewDiscordPlatform(session *discordgo.Session) *DiscordPlatform {
	return &DiscordPlatform{session: session}
}

func (p *DiscordPlatform) FetchMessage(ref models.MessageRef) (*discordgo.Message, error) {
	message, err := p.session.ChannelMessage(ref.ChannelID, ref.MessageID)
	if err != nil {
		return nil, classify(err)
	}
	return message, nil
}

// FetchReactors pages through the full reactor list, reaction events only
// carry deltas and the message object caps the per-emoji count
func (p *DiscordPlatform) FetchReactors(ref models.MessageRef, emoji string) ([]string, error) {
	var reactors []string

	afterID := ""
	for {
		users, err := p.session.MessageReactions(
			ref.ChannelID, ref.MessageID, emoji, reactorsPageSize, "", afterID,
		)
		if err != nil {
			return nil, classify(err)
		}

		for _, user := range users {
			reactors = append(reactors, user.ID)
		}

		if len(users) < reactorsPageSize {
			break
		}
		afterID = users[len(users)-1].ID
	}

	return reactors, nil
}

func (p *DiscordPlatform) CreateMirror(guildID string, channelID string, embed *discordgo.MessageEmbed) (models.MessageRef, error) {
	message, err := p.session.ChannelMessageSendEmbed(channelID, embed)
	if err != nil {
		return models.MessageRef{}, classify(err)
	}

	return models.MessageRef{
		GuildID:   guildID,
		ChannelID: message.ChannelID,
		MessageID: message.ID,
	}, nil
}

func (p *DiscordPlatform) EditMirror(ref models.MessageRef, embed *discordgo.MessageEmbed) error {
	_, err := p.session.ChannelMessageEditEmbed(ref.ChannelID, ref.MessageID, embed)
	if err != nil {
		return classify(err)
	}
	return nil
}

func (p *DiscordPlatform) DeleteMirror(ref models.MessageRef) error {
	err := p.session.ChannelMessageDelete(ref.ChannelID, ref.MessageID)
	if err != nil {
		return classify(err)
	}
	return nil
}

// classify maps discordgo errors onto the package sentinels. Unknown
// errors count as transient, retrying an unknown failure is safe because
// syncs are idempotent.
func classify(err error) error {
	if err == nil {
		return nil
	}

	if restErr, ok := err.(*discordgo.RESTError); ok {
		if restErr.Message != nil {
			switch restErr.Message.Code {
			case discordgo.ErrCodeUnknownMessage,
				discordgo.ErrCodeUnknownChannel,
				discordgo.ErrCodeUnknownGuild:
				return errors.Wrap(ErrNotFound, err.Error())
			}
		}
		if restErr.Response != nil {
			switch {
			case restErr.Response.StatusCode == http.StatusNotFound:
				return errors.Wrap(ErrNotFound, err.Error())
			case restErr.Response.StatusCode == http.StatusTooManyRequests:
				return errors.Wrap(ErrTransient, err.Error())
			case restErr.Response.StatusCode >= http.StatusInternalServerError:
				return errors.Wrap(ErrTransient, err.Error())
			}
		}
		return err
	}

	if _, ok := err.(*discordgo.RateLimitError); ok {
		return errors.Wrap(ErrTransient, err.Error())
	}

	return errors.Wrap(ErrTransient, err.Error())
}
