package starboard

import (
	"github.com/bwmarrin/discordgo"
	"github.com/starboardbot/starboard/models"
)

// Platform is the chat backend the synchronizer talks to. All methods
// return the package error sentinels (possibly wrapped) so the
// synchronizer can map failures without knowing the backend.
type Platform interface {
	// FetchMessage returns the referenced message
	FetchMessage(ref models.MessageRef) (*discordgo.Message, error)

	// FetchReactors returns the IDs of all users who reacted with the
	// given emoji identifier on the message
	FetchReactors(ref models.MessageRef, emoji string) ([]string, error)

	// CreateMirror posts a new starboard message and returns its ref
	CreateMirror(guildID string, channelID string, embed *discordgo.MessageEmbed) (models.MessageRef, error)

	// EditMirror replaces the embed of an existing starboard message
	EditMirror(ref models.MessageRef, embed *discordgo.MessageEmbed) error

	// DeleteMirror removes a starboard message
	DeleteMirror(ref models.MessageRef) error
}
