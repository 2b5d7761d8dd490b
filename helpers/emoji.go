package helpers

import (
	"regexp"
	"strings"

	"github.com/bwmarrin/discordgo"
)

var customEmojiRegex = regexp.MustCompile(`^<a?:([^:]+:\d+)>$`)

// EmojiIdentifier normalizes the emoji given in a command to the form
// reaction events report: unicode emoji stay as they are, custom emoji
// mentions like <:name:id> or <a:name:id> become "name:id"
func EmojiIdentifier(input string) string {
	input = strings.TrimSpace(input)

	if matches := customEmojiRegex.FindStringSubmatch(input); matches != nil {
		return matches[1]
	}

	return input
}

// EmojiMatches returns true if the reacted emoji matches one of the
// configured identifiers. Custom emoji compare by "name:id", unicode
// emoji by the character itself.
func EmojiMatches(emoji *discordgo.Emoji, configured []string) bool {
	if emoji == nil {
		return false
	}

	for _, identifier := range configured {
		if emoji.ID != "" {
			if emoji.APIName() == identifier {
				return true
			}
			continue
		}
		if emoji.Name == identifier {
			return true
		}
	}

	return false
}

// EmojiDisplay renders an emoji identifier so discord shows it: custom
// emoji identifiers get wrapped in <:…>, unicode emoji pass through
func EmojiDisplay(identifier string) string {
	if strings.Contains(identifier, ":") {
		return "<:" + identifier + ">"
	}
	return identifier
}
