package main

import (
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/starboardbot/starboard/cache"
	"github.com/starboardbot/starboard/helpers"
	"github.com/starboardbot/starboard/metrics"
	"github.com/starboardbot/starboard/modules"
)

// BotOnReady gets called after the gateway connected
func BotOnReady(session *discordgo.Session, event *discordgo.Ready) {
	log := cache.GetLogger()
	log.WithField("module", "bot").Info("Connected to discord as " + event.User.String())

	modules.Init(session)

	go helpers.GuildSettingsUpdater()
}

// BotOnMessageCreate gets called after a new message got posted
func BotOnMessageCreate(session *discordgo.Session, message *discordgo.MessageCreate) {
	defer helpers.Recover()

	metrics.MessagesReceived.Add(1)

	if message.Author == nil || message.Author.Bot {
		return
	}
	if message.GuildID == "" {
		return
	}

	modules.CallExtendedPlugin(message.Content, message.Message)

	prefix := helpers.GetPrefixForServer(message.GuildID)
	if !strings.HasPrefix(message.Content, prefix) {
		return
	}

	cmd := strings.Fields(strings.TrimPrefix(message.Content, prefix))
	if len(cmd) == 0 {
		return
	}

	content := strings.TrimSpace(strings.TrimPrefix(
		strings.TrimPrefix(message.Content, prefix), cmd[0],
	))

	modules.CallBotPlugin(strings.ToLower(cmd[0]), content, message.Message)
}

// BotOnMessageDelete gets called after a message got deleted
func BotOnMessageDelete(session *discordgo.Session, message *discordgo.MessageDelete) {
	defer helpers.Recover()

	modules.CallExtendedPluginOnMessageDelete(message)
}

// BotOnReactionAdd gets called after a reaction got added
func BotOnReactionAdd(session *discordgo.Session, reaction *discordgo.MessageReactionAdd) {
	defer helpers.Recover()

	modules.CallExtendedPluginOnReactionAdd(reaction)
}

// BotOnReactionRemove gets called after a reaction got removed
func BotOnReactionRemove(session *discordgo.Session, reaction *discordgo.MessageReactionRemove) {
	defer helpers.Recover()

	modules.CallExtendedPluginOnReactionRemove(reaction)
}

// BotOnReactionRemoveAll gets called after all reactions got removed from
// a message at once
func BotOnReactionRemoveAll(session *discordgo.Session, reaction *discordgo.MessageReactionRemoveAll) {
	defer helpers.Recover()

	modules.CallExtendedPluginOnReactionRemoveAll(reaction)
}

// BotDestroy shuts the plugins down
func BotDestroy(session *discordgo.Session) {
	modules.Uninit(session)
}
