package modules

import "github.com/starboardbot/starboard/modules/plugins"

// PluginList is the list of simple plugins
var PluginList = []Plugin{
	&plugins.Ping{},
}

// PluginExtendedList is the list of plugins that receive gateway events
var PluginExtendedList = []ExtendedPlugin{
	&plugins.Starboard{},
}
