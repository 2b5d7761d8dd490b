package helpers

import (
	"regexp"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	"github.com/starboardbot/starboard/cache"
)

var channelMentionRegex = regexp.MustCompile(`^<#(\d+)>$`)

// GetChannel returns the channel from the state if cached, otherwise from
// the API
func GetChannel(channelID string) (*discordgo.Channel, error) {
	if channelID == "" {
		return nil, errors.New("empty channel id")
	}

	session := cache.GetSession()

	channel, err := session.State.Channel(channelID)
	if err == nil {
		return channel, nil
	}

	return session.Channel(channelID)
}

// GetGuild returns the guild from the state if cached, otherwise from the API
func GetGuild(guildID string) (*discordgo.Guild, error) {
	if guildID == "" {
		return nil, errors.New("empty guild id")
	}

	session := cache.GetSession()

	guild, err := session.State.Guild(guildID)
	if err == nil {
		return guild, nil
	}

	return session.Guild(guildID)
}

// GetMessage returns the message from the state if cached, otherwise from
// the API
func GetMessage(channelID string, messageID string) (*discordgo.Message, error) {
	if channelID == "" || messageID == "" {
		return nil, errors.New("empty channel or message id")
	}

	session := cache.GetSession()

	message, err := session.State.Message(channelID, messageID)
	if err == nil {
		return message, nil
	}

	return session.ChannelMessage(channelID, messageID)
}

// GetGuildMember returns the member from the state if cached, otherwise
// from the API
func GetGuildMember(guildID string, userID string) (*discordgo.Member, error) {
	if guildID == "" || userID == "" {
		return nil, errors.New("empty guild or user id")
	}

	session := cache.GetSession()

	member, err := session.State.Member(guildID, userID)
	if err == nil {
		return member, nil
	}

	return session.GuildMember(guildID, userID)
}

// GetUser returns the user from the API
func GetUser(userID string) (*discordgo.User, error) {
	if userID == "" {
		return nil, errors.New("empty user id")
	}

	return cache.GetSession().User(userID)
}

// GetChannelFromMention parses a channel mention (or a raw channel ID) in
// $input and returns the channel if it belongs to $guildID
func GetChannelFromMention(guildID string, input string) (*discordgo.Channel, error) {
	channelID := input
	if matches := channelMentionRegex.FindStringSubmatch(input); matches != nil {
		channelID = matches[1]
	}

	channel, err := GetChannel(channelID)
	if err != nil {
		return nil, err
	}
	if channel.GuildID != guildID {
		return nil, errors.New("channel not found on this guild")
	}

	return channel, nil
}

// IsAdmin returns true if $msg was sent by a member with the administrator
// permission or by the guild owner
func IsAdmin(msg *discordgo.Message) bool {
	channel, err := GetChannel(msg.ChannelID)
	if err != nil {
		return false
	}

	guild, err := GetGuild(channel.GuildID)
	if err != nil {
		return false
	}

	if msg.Author.ID == guild.OwnerID {
		return true
	}

	member, err := GetGuildMember(guild.ID, msg.Author.ID)
	if err != nil {
		return false
	}

	for _, roleID := range member.Roles {
		for _, role := range guild.Roles {
			if role.ID != roleID {
				continue
			}
			if role.Permissions&discordgo.PermissionAdministrator == discordgo.PermissionAdministrator {
				return true
			}
		}
	}

	return false
}
