package plugins

import (
	"github.com/bwmarrin/discordgo"
	"github.com/starboardbot/starboard/helpers"
)

// Ping answers with pong, mostly useful to check the bot is alive
type Ping struct{}

func (p *Ping) Commands() []string {
	return []string{
		"ping",
	}
}

func (p *Ping) Init(session *discordgo.Session) {
}

func (p *Ping) Action(command string, content string, msg *discordgo.Message, session *discordgo.Session) {
	_, err := session.ChannelMessageSend(msg.ChannelID, "pong")
	helpers.RelaxLog(err)
}
