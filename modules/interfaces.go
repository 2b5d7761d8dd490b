package modules

import "github.com/bwmarrin/discordgo"

// BaseModule is the base for all plugin types
type BaseModule interface {
	// Commands returns the aliases the plugin listens to
	Commands() []string

	// Init is called on connect
	Init(session *discordgo.Session)
}

// Plugin is a simple command plugin
type Plugin interface {
	BaseModule

	// Action is called when a command of the plugin got executed
	Action(command string, content string, msg *discordgo.Message, session *discordgo.Session)
}

// ExtendedPlugin also receives gateway events and a shutdown call
type ExtendedPlugin interface {
	BaseModule

	Uninit(session *discordgo.Session)

	Action(command string, content string, msg *discordgo.Message, session *discordgo.Session)
	OnMessage(content string, msg *discordgo.Message, session *discordgo.Session)
	OnMessageDelete(msg *discordgo.MessageDelete, session *discordgo.Session)
	OnReactionAdd(reaction *discordgo.MessageReactionAdd, session *discordgo.Session)
	OnReactionRemove(reaction *discordgo.MessageReactionRemove, session *discordgo.Session)
	OnReactionRemoveAll(reaction *discordgo.MessageReactionRemoveAll, session *discordgo.Session)
}
