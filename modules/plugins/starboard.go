package plugins

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
	"github.com/starboardbot/starboard/cache"
	"github.com/starboardbot/starboard/helpers"
	"github.com/starboardbot/starboard/metrics"
	"github.com/starboardbot/starboard/models"
	starboardengine "github.com/starboardbot/starboard/modules/plugins/starboard"
)

// Starboard mirrors popular messages into a per-guild starboard channel
// and keeps the mirrors in sync with the live reaction counts
type Starboard struct {
	synchronizer *starboardengine.Synchronizer
	resolver     *starboardengine.Resolver
	platform     starboardengine.Platform
	store        starboardengine.Store
}

type starboardAction func(args []string, in *discordgo.Message, out **discordgo.MessageSend) starboardAction

func (s *Starboard) Commands() []string {
	return []string{
		"starboard",
		"sb",
	}
}

func (s *Starboard) Init(session *discordgo.Session) {
	store, err := starboardengine.NewMongoStore()
	helpers.Relax(err)

	s.store = store
	s.platform = starboardengine.NewDiscordPlatform(session)
	s.resolver = starboardengine.NewResolver(helpers.GuildSettingsGetCached)
	s.synchronizer = starboardengine.NewSynchronizer(
		s.resolver,
		starboardengine.NewAggregator(s.platform),
		s.store,
		s.platform,
		s.logger(),
	)

	go s.synchronizer.PruneLoop(s.pruneRetention(), time.Hour)
}

func (s *Starboard) Uninit(session *discordgo.Session) {
	s.synchronizer.Wait()
}

func (s *Starboard) pruneRetention() string {
	return helpers.GetConfigString("starboard.prune_retracted_after", "720h")
}

func (s *Starboard) Action(command string, content string, msg *discordgo.Message, session *discordgo.Session) {
	defer helpers.Recover()

	session.ChannelTyping(msg.ChannelID)

	var result *discordgo.MessageSend
	args := strings.Fields(content)

	action := s.actionStart
	for action != nil {
		action = action(args, msg, &result)
	}
}

func (s *Starboard) actionStart(args []string, in *discordgo.Message, out **discordgo.MessageSend) starboardAction {
	if len(args) < 1 {
		return s.actionStatus
	}

	switch args[0] {
	case "set", "channel":
		return s.actionSet
	case "minimum", "min":
		return s.actionMinimum
	case "emoji":
		return s.actionEmoji
	case "selfstar":
		return s.actionSelfStar
	case "bots":
		return s.actionBots
	case "exclude", "ignore":
		return s.actionExclude
	case "status":
		return s.actionStatus
	case "starrers":
		return s.actionStarrers
	}

	*out = s.newMsg("Unknown subcommand. Try `status`, `set`, `minimum`, `emoji`, `selfstar`, `bots`, `exclude` or `starrers`.")
	return s.actionFinish
}

// actionSet sets or clears the starboard channel
func (s *Starboard) actionSet(args []string, in *discordgo.Message, out **discordgo.MessageSend) starboardAction {
	if !helpers.IsAdmin(in) {
		*out = s.newMsg("You need to be an admin to do this.")
		return s.actionFinish
	}

	channel, err := helpers.GetChannel(in.ChannelID)
	if err != nil {
		*out = s.newMsg("Something went wrong, please try again.")
		return s.actionFinish
	}

	settings := helpers.GuildSettingsGetCached(channel.GuildID)

	if len(args) < 2 || args[1] == "none" || args[1] == "off" {
		settings.StarboardChannelID = ""
		err = helpers.GuildSettingsSet(channel.GuildID, settings)
		helpers.Relax(err)

		*out = s.newMsg("Starboard disabled.")
		return s.actionFinish
	}

	target, err := helpers.GetChannelFromMention(channel.GuildID, args[1])
	if err != nil {
		*out = s.newMsg("I couldn't find that channel.")
		return s.actionFinish
	}

	settings.StarboardChannelID = target.ID
	err = helpers.GuildSettingsSet(channel.GuildID, settings)
	helpers.Relax(err)

	*out = s.newMsg(fmt.Sprintf("Starboard channel set to <#%s>.", target.ID))
	return s.actionFinish
}

// actionMinimum sets the star threshold
func (s *Starboard) actionMinimum(args []string, in *discordgo.Message, out **discordgo.MessageSend) starboardAction {
	if !helpers.IsAdmin(in) {
		*out = s.newMsg("You need to be an admin to do this.")
		return s.actionFinish
	}

	if len(args) < 2 {
		*out = s.newMsg("Please tell me the minimum amount of stars, e.g. `starboard minimum 3`.")
		return s.actionFinish
	}

	minimum, err := strconv.Atoi(args[1])
	if err != nil || minimum < 1 {
		*out = s.newMsg("The minimum has to be a number of at least 1.")
		return s.actionFinish
	}

	channel, err := helpers.GetChannel(in.ChannelID)
	if err != nil {
		*out = s.newMsg("Something went wrong, please try again.")
		return s.actionFinish
	}

	settings := helpers.GuildSettingsGetCached(channel.GuildID)
	settings.StarboardMinimum = minimum
	err = helpers.GuildSettingsSet(channel.GuildID, settings)
	helpers.Relax(err)

	*out = s.newMsg(fmt.Sprintf("Messages now need %d stars to get on the starboard.", minimum))
	return s.actionFinish
}

// actionEmoji toggles which emoji count as stars
func (s *Starboard) actionEmoji(args []string, in *discordgo.Message, out **discordgo.MessageSend) starboardAction {
	if !helpers.IsAdmin(in) {
		*out = s.newMsg("You need to be an admin to do this.")
		return s.actionFinish
	}

	channel, err := helpers.GetChannel(in.ChannelID)
	if err != nil {
		*out = s.newMsg("Something went wrong, please try again.")
		return s.actionFinish
	}

	settings := helpers.GuildSettingsGetCached(channel.GuildID)

	if len(args) < 2 || args[1] == "reset" {
		settings.StarboardEmoji = []string{}
		err = helpers.GuildSettingsSet(channel.GuildID, settings)
		helpers.Relax(err)

		*out = s.newMsg("Starboard emoji reset to ⭐ and 🌟.")
		return s.actionFinish
	}

	// each given emoji toggles: present ones get removed, new ones added
	for _, arg := range args[1:] {
		identifier := helpers.EmojiIdentifier(arg)

		removed := false
		for index, existing := range settings.StarboardEmoji {
			if existing != identifier {
				continue
			}
			settings.StarboardEmoji = append(
				settings.StarboardEmoji[:index],
				settings.StarboardEmoji[index+1:]...,
			)
			removed = true
			break
		}
		if !removed {
			settings.StarboardEmoji = append(settings.StarboardEmoji, identifier)
		}
	}

	err = helpers.GuildSettingsSet(channel.GuildID, settings)
	helpers.Relax(err)

	emoji := settings.StarboardEmoji
	if len(emoji) == 0 {
		*out = s.newMsg("Starboard emoji reset to ⭐ and 🌟.")
		return s.actionFinish
	}

	display := make([]string, 0, len(emoji))
	for _, identifier := range emoji {
		display = append(display, helpers.EmojiDisplay(identifier))
	}

	*out = s.newMsg("Starboard emoji set to " + strings.Join(display, " ") + ".")
	return s.actionFinish
}

// actionSelfStar toggles whether authors can star their own messages
func (s *Starboard) actionSelfStar(args []string, in *discordgo.Message, out **discordgo.MessageSend) starboardAction {
	return s.actionToggle(args, in, out, func(settings *models.Config, enabled bool) string {
		settings.StarboardSelfStarAllowed = enabled
		if enabled {
			return "Self-stars now count."
		}
		return "Self-stars no longer count."
	})
}

// actionBots toggles whether bot messages can reach the starboard
func (s *Starboard) actionBots(args []string, in *discordgo.Message, out **discordgo.MessageSend) starboardAction {
	return s.actionToggle(args, in, out, func(settings *models.Config, enabled bool) string {
		settings.StarboardAllowBots = enabled
		if enabled {
			return "Messages by bots can now get on the starboard."
		}
		return "Messages by bots can no longer get on the starboard."
	})
}

func (s *Starboard) actionToggle(args []string, in *discordgo.Message, out **discordgo.MessageSend,
	apply func(settings *models.Config, enabled bool) string) starboardAction {
	if !helpers.IsAdmin(in) {
		*out = s.newMsg("You need to be an admin to do this.")
		return s.actionFinish
	}

	if len(args) < 2 {
		*out = s.newMsg("Please tell me `on` or `off`.")
		return s.actionFinish
	}

	var enabled bool
	switch args[1] {
	case "on", "enable", "yes":
		enabled = true
	case "off", "disable", "no":
		enabled = false
	default:
		*out = s.newMsg("Please tell me `on` or `off`.")
		return s.actionFinish
	}

	channel, err := helpers.GetChannel(in.ChannelID)
	if err != nil {
		*out = s.newMsg("Something went wrong, please try again.")
		return s.actionFinish
	}

	settings := helpers.GuildSettingsGetCached(channel.GuildID)
	message := apply(&settings, enabled)
	err = helpers.GuildSettingsSet(channel.GuildID, settings)
	helpers.Relax(err)

	*out = s.newMsg(message)
	return s.actionFinish
}

// actionExclude adds or removes a channel from the excluded list
func (s *Starboard) actionExclude(args []string, in *discordgo.Message, out **discordgo.MessageSend) starboardAction {
	if !helpers.IsAdmin(in) {
		*out = s.newMsg("You need to be an admin to do this.")
		return s.actionFinish
	}

	if len(args) < 2 {
		*out = s.newMsg("Please mention the channel to exclude, e.g. `starboard exclude #spam`.")
		return s.actionFinish
	}

	channel, err := helpers.GetChannel(in.ChannelID)
	if err != nil {
		*out = s.newMsg("Something went wrong, please try again.")
		return s.actionFinish
	}

	target, err := helpers.GetChannelFromMention(channel.GuildID, args[1])
	if err != nil {
		*out = s.newMsg("I couldn't find that channel.")
		return s.actionFinish
	}

	settings := helpers.GuildSettingsGetCached(channel.GuildID)

	for index, excluded := range settings.StarboardExcludedChannelIDs {
		if excluded != target.ID {
			continue
		}
		settings.StarboardExcludedChannelIDs = append(
			settings.StarboardExcludedChannelIDs[:index],
			settings.StarboardExcludedChannelIDs[index+1:]...,
		)
		err = helpers.GuildSettingsSet(channel.GuildID, settings)
		helpers.Relax(err)

		*out = s.newMsg(fmt.Sprintf("<#%s> is no longer excluded from the starboard.", target.ID))
		return s.actionFinish
	}

	settings.StarboardExcludedChannelIDs = append(settings.StarboardExcludedChannelIDs, target.ID)
	err = helpers.GuildSettingsSet(channel.GuildID, settings)
	helpers.Relax(err)

	*out = s.newMsg(fmt.Sprintf("<#%s> is now excluded from the starboard.", target.ID))
	return s.actionFinish
}

// actionStatus shows the current configuration
func (s *Starboard) actionStatus(args []string, in *discordgo.Message, out **discordgo.MessageSend) starboardAction {
	channel, err := helpers.GetChannel(in.ChannelID)
	if err != nil {
		*out = s.newMsg("Something went wrong, please try again.")
		return s.actionFinish
	}

	settings := helpers.GuildSettingsGetCached(channel.GuildID)

	if settings.StarboardChannelID == "" {
		*out = s.newMsg("No starboard is set up. Admins can enable one with `starboard set #channel`.")
		return s.actionFinish
	}

	emoji := settings.StarboardEmoji
	if len(emoji) == 0 {
		emoji = starboardengine.DefaultEmoji
	}
	display := make([]string, 0, len(emoji))
	for _, identifier := range emoji {
		display = append(display, helpers.EmojiDisplay(identifier))
	}

	minimum := settings.StarboardMinimum
	if minimum < 1 {
		minimum = 1
	}

	text := fmt.Sprintf("Starboard channel: <#%s>\nMinimum stars: %d\nEmoji: %s\nSelf-stars: %s\nBot messages: %s",
		settings.StarboardChannelID,
		minimum,
		strings.Join(display, " "),
		enabledText(settings.StarboardSelfStarAllowed),
		enabledText(settings.StarboardAllowBots),
	)
	if len(settings.StarboardExcludedChannelIDs) > 0 {
		mentions := make([]string, 0, len(settings.StarboardExcludedChannelIDs))
		for _, channelID := range settings.StarboardExcludedChannelIDs {
			mentions = append(mentions, "<#"+channelID+">")
		}
		text += "\nExcluded channels: " + strings.Join(mentions, " ")
	}

	*out = s.newMsg(text)
	return s.actionFinish
}

// actionStarrers lists who starred a message in the current channel
func (s *Starboard) actionStarrers(args []string, in *discordgo.Message, out **discordgo.MessageSend) starboardAction {
	if len(args) < 2 {
		*out = s.newMsg("Please tell me the message ID, e.g. `starboard starrers 1234`.")
		return s.actionFinish
	}

	channel, err := helpers.GetChannel(in.ChannelID)
	if err != nil {
		*out = s.newMsg("Something went wrong, please try again.")
		return s.actionFinish
	}

	cfg := s.resolver.Resolve(channel.GuildID, in.ChannelID)
	if cfg == nil {
		*out = s.newMsg("No starboard is set up for this channel.")
		return s.actionFinish
	}

	ref := models.MessageRef{
		GuildID:   channel.GuildID,
		ChannelID: in.ChannelID,
		MessageID: args[1],
	}

	message, err := s.platform.FetchMessage(ref)
	if err != nil {
		*out = s.newMsg("I couldn't find that message.")
		return s.actionFinish
	}

	seen := make(map[string]struct{})
	starrers := make([]string, 0)
	for _, reaction := range message.Reactions {
		if !helpers.EmojiMatches(reaction.Emoji, cfg.Emoji) {
			continue
		}
		reactors, err := s.platform.FetchReactors(ref, reaction.Emoji.APIName())
		if err != nil {
			continue
		}
		for _, userID := range reactors {
			if _, ok := seen[userID]; ok {
				continue
			}
			seen[userID] = struct{}{}

			user, err := helpers.GetUser(userID)
			if err != nil {
				starrers = append(starrers, userID)
				continue
			}
			starrers = append(starrers, user.Username)
		}
	}

	if len(starrers) == 0 {
		*out = s.newMsg("Nobody starred that message yet.")
		return s.actionFinish
	}

	*out = s.newMsg(fmt.Sprintf("%d starrer(s): %s", len(starrers), strings.Join(starrers, ", ")))
	return s.actionFinish
}

func (s *Starboard) actionFinish(args []string, in *discordgo.Message, out **discordgo.MessageSend) starboardAction {
	_, err := cache.GetSession().ChannelMessageSendComplex(in.ChannelID, *out)
	helpers.RelaxLog(err)

	return nil
}

func (s *Starboard) newMsg(content string) *discordgo.MessageSend {
	return &discordgo.MessageSend{Content: content}
}

func (s *Starboard) logger() *logrus.Entry {
	return cache.GetLogger().WithField("module", "starboard")
}

func enabledText(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}

// OnMessage is unused, syncs are driven by reaction events
func (s *Starboard) OnMessage(content string, msg *discordgo.Message, session *discordgo.Session) {
}

func (s *Starboard) OnMessageDelete(msg *discordgo.MessageDelete, session *discordgo.Session) {
	defer helpers.Recover()

	guildID := msg.GuildID
	if guildID == "" {
		channel, err := helpers.GetChannel(msg.ChannelID)
		if err != nil {
			return
		}
		guildID = channel.GuildID
	}

	s.synchronizer.HandleDeleted(models.MessageRef{
		GuildID:   guildID,
		ChannelID: msg.ChannelID,
		MessageID: msg.ID,
	})
}

func (s *Starboard) OnReactionAdd(reaction *discordgo.MessageReactionAdd, session *discordgo.Session) {
	s.onReactionEvent(reaction.MessageReaction, session)
}

func (s *Starboard) OnReactionRemove(reaction *discordgo.MessageReactionRemove, session *discordgo.Session) {
	s.onReactionEvent(reaction.MessageReaction, session)
}

func (s *Starboard) OnReactionRemoveAll(reaction *discordgo.MessageReactionRemoveAll, session *discordgo.Session) {
	// the emoji field is empty on sweeps, onReactionEvent lets those
	// through unconditionally
	s.onReactionEvent(reaction.MessageReaction, session)
}

func (s *Starboard) onReactionEvent(reaction *discordgo.MessageReaction, session *discordgo.Session) {
	defer helpers.Recover()

	// reactions in DMs carry no guild
	if reaction.GuildID == "" {
		return
	}
	if session.State != nil && session.State.User != nil && reaction.UserID == session.State.User.ID {
		return
	}

	metrics.ReactionsReceived.Add(1)

	var emoji *discordgo.Emoji
	if reaction.Emoji.Name != "" || reaction.Emoji.ID != "" {
		emoji = &reaction.Emoji
	}
	if !s.synchronizer.Qualifies(reaction.GuildID, reaction.ChannelID, emoji) {
		return
	}

	s.synchronizer.HandleEvent(models.MessageRef{
		GuildID:   reaction.GuildID,
		ChannelID: reaction.ChannelID,
		MessageID: reaction.MessageID,
	})
}
