package modules

import (
	"github.com/bwmarrin/discordgo"
	"github.com/starboardbot/starboard/cache"
	"github.com/starboardbot/starboard/helpers"
	"github.com/starboardbot/starboard/metrics"
)

// Init initializes all plugins
func Init(session *discordgo.Session) {
	checkDuplicateCommands()

	log := cache.GetLogger().WithField("module", "modules")

	for _, plugin := range PluginList {
		plugin.Init(session)
		log.Info("Initialized plugin " + helpers.Typeof(plugin))
	}

	for _, plugin := range PluginExtendedList {
		plugin.Init(session)
		log.Info("Initialized extended plugin " + helpers.Typeof(plugin))
	}
}

// Uninit shuts all extended plugins down
func Uninit(session *discordgo.Session) {
	log := cache.GetLogger().WithField("module", "modules")

	for _, plugin := range PluginExtendedList {
		plugin.Uninit(session)
		log.Info("Uninitialized extended plugin " + helpers.Typeof(plugin))
	}
}

// CallBotPlugin routes a command to the plugin that claims it
func CallBotPlugin(command string, content string, msg *discordgo.Message) {
	session := cache.GetSession()

	for _, plugin := range PluginList {
		if !commandMatches(plugin, command) {
			continue
		}
		metrics.CommandsExecuted.Add(1)
		go func(plugin Plugin) {
			defer helpers.Recover()
			plugin.Action(command, content, msg, session)
		}(plugin)
		return
	}

	for _, plugin := range PluginExtendedList {
		if !commandMatches(plugin, command) {
			continue
		}
		metrics.CommandsExecuted.Add(1)
		go func(plugin ExtendedPlugin) {
			defer helpers.Recover()
			plugin.Action(command, content, msg, session)
		}(plugin)
		return
	}
}

// CallExtendedPlugin distributes a message to all extended plugins
func CallExtendedPlugin(content string, msg *discordgo.Message) {
	session := cache.GetSession()

	for _, plugin := range PluginExtendedList {
		go func(plugin ExtendedPlugin) {
			defer helpers.Recover()
			plugin.OnMessage(content, msg, session)
		}(plugin)
	}
}

// CallExtendedPluginOnMessageDelete distributes a deletion to all
// extended plugins
func CallExtendedPluginOnMessageDelete(msg *discordgo.MessageDelete) {
	session := cache.GetSession()

	for _, plugin := range PluginExtendedList {
		go func(plugin ExtendedPlugin) {
			defer helpers.Recover()
			plugin.OnMessageDelete(msg, session)
		}(plugin)
	}
}

// CallExtendedPluginOnReactionAdd distributes a reaction to all extended
// plugins
func CallExtendedPluginOnReactionAdd(reaction *discordgo.MessageReactionAdd) {
	session := cache.GetSession()

	for _, plugin := range PluginExtendedList {
		go func(plugin ExtendedPlugin) {
			defer helpers.Recover()
			plugin.OnReactionAdd(reaction, session)
		}(plugin)
	}
}

// CallExtendedPluginOnReactionRemove distributes a removed reaction to
// all extended plugins
func CallExtendedPluginOnReactionRemove(reaction *discordgo.MessageReactionRemove) {
	session := cache.GetSession()

	for _, plugin := range PluginExtendedList {
		go func(plugin ExtendedPlugin) {
			defer helpers.Recover()
			plugin.OnReactionRemove(reaction, session)
		}(plugin)
	}
}

// CallExtendedPluginOnReactionRemoveAll distributes a reaction sweep to
// all extended plugins
func CallExtendedPluginOnReactionRemoveAll(reaction *discordgo.MessageReactionRemoveAll) {
	session := cache.GetSession()

	for _, plugin := range PluginExtendedList {
		go func(plugin ExtendedPlugin) {
			defer helpers.Recover()
			plugin.OnReactionRemoveAll(reaction, session)
		}(plugin)
	}
}

func commandMatches(plugin BaseModule, command string) bool {
	for _, alias := range plugin.Commands() {
		if alias == command {
			return true
		}
	}
	return false
}

func checkDuplicateCommands() {
	seen := make(map[string]string)

	check := func(plugin BaseModule) {
		name := helpers.Typeof(plugin)
		for _, alias := range plugin.Commands() {
			if owner, ok := seen[alias]; ok {
				panic("duplicate command " + alias + " registered by " + owner + " and " + name)
			}
			seen[alias] = name
		}
	}

	for _, plugin := range PluginList {
		check(plugin)
	}
	for _, plugin := range PluginExtendedList {
		check(plugin)
	}
}
