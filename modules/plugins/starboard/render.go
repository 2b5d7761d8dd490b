package starboard

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"
	"mvdan.cc/xurls"
)

const embedColor = "ffd700"

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".webp"}

// renderMirror builds the embed posted to the starboard channel
func renderMirror(cfg *Config, message *discordgo.Message, starCount int) *discordgo.MessageEmbed {
	var authorName, authorIcon string
	if message.Author != nil {
		authorName = "@" + message.Author.Username
		authorIcon = message.Author.AvatarURL("")
	}

	content := message.Content
	for _, attachment := range message.Attachments {
		if content != "" {
			content += "\n"
		}
		content += attachment.URL
	}

	jumpLink := fmt.Sprintf("https://discord.com/channels/%s/%s/%s",
		cfg.GuildID, message.ChannelID, message.ID)
	if content != "" {
		content += "\n\n"
	}
	content += fmt.Sprintf("[Jump to message](%s) • <#%s>", jumpLink, message.ChannelID)

	embed := &discordgo.MessageEmbed{
		Author: &discordgo.MessageEmbedAuthor{
			Name:    authorName,
			IconURL: authorIcon,
		},
		Description: content,
		Color:       hexColor(embedColor),
		Timestamp:   message.Timestamp.Format("2006-01-02T15:04:05-07:00"),
		Footer: &discordgo.MessageEmbedFooter{
			Text: footerText(cfg, starCount, message.ID),
		},
	}

	if imageURL := pickImage(message); imageURL != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: imageURL}
	}

	return embed
}

// footerText renders "⭐ 1,234 | Message #id". Custom starboard emoji
// cannot be rendered in footers, those fall back to the star.
func footerText(cfg *Config, starCount int, messageID string) string {
	emoji := "⭐"
	if len(cfg.Emoji) > 0 && !strings.Contains(cfg.Emoji[0], ":") {
		emoji = cfg.Emoji[0]
	}

	return fmt.Sprintf("%s %s | Message #%s", emoji, humanize.Comma(int64(starCount)), messageID)
}

// pickImage chooses the image to show on the mirror: an image the
// original embeds, the first image attachment, or the first image link
// in the message text
func pickImage(message *discordgo.Message) string {
	for _, embed := range message.Embeds {
		if embed.Image != nil && embed.Image.URL != "" {
			return embed.Image.URL
		}
		if embed.Video != nil && embed.Video.URL != "" {
			return embed.Video.URL
		}
		if embed.Thumbnail != nil && embed.Thumbnail.URL != "" {
			return embed.Thumbnail.URL
		}
	}

	for _, attachment := range message.Attachments {
		if isImageURL(attachment.URL) {
			return attachment.URL
		}
	}

	for _, link := range xurls.Strict.FindAllString(message.Content, -1) {
		if isImageURL(link) {
			return link
		}
	}

	return ""
}

func isImageURL(url string) bool {
	lowered := strings.ToLower(url)
	if index := strings.IndexAny(lowered, "?#"); index >= 0 {
		lowered = lowered[:index]
	}
	for _, extension := range imageExtensions {
		if strings.HasSuffix(lowered, extension) {
			return true
		}
	}
	return false
}

// hexColor parses a hex color string into the int discord expects
func hexColor(hex string) int {
	color, err := strconv.ParseInt(strings.TrimPrefix(hex, "#"), 16, 32)
	if err != nil {
		return 0
	}
	return int(color)
}
