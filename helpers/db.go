package helpers

import (
	"fmt"
	"sync"
	"time"

	"github.com/globalsign/mgo/bson"
	rediscache "github.com/go-redis/cache"
	"github.com/starboardbot/starboard/cache"
	"github.com/starboardbot/starboard/models"
)

var (
	guildSettingsCache      map[string]models.Config
	guildSettingsCacheMutex sync.RWMutex
)

func init() {
	guildSettingsCache = make(map[string]models.Config)
}

func guildSettingsRedisKey(guildID string) string {
	return fmt.Sprintf("starboard:guild-settings:%s", guildID)
}

// GuildSettingsSet writes the settings for $guild to the database and
// refreshes the caches
func GuildSettingsSet(guild string, config models.Config) error {
	var err error

	if config.ID.Valid() {
		err = MDbUpdate(models.GuildConfigTable, config.ID, config)
	} else {
		config.ID, err = MDbInsert(models.GuildConfigTable, config)
	}
	if err != nil {
		return err
	}

	setGuildSettingsCached(guild, config)

	return nil
}

// GuildSettingsGet returns all settings for $guild from the database
func GuildSettingsGet(guild string) (models.Config, error) {
	var settings models.Config

	err := MdbOne(
		MdbCollection(models.GuildConfigTable).Find(bson.M{"guildid": guild}),
		&settings,
	)
	if IsMdbNotFound(err) {
		settings = settings.Default(guild)
		return settings, nil
	}

	return settings, err
}

// GuildSettingsGetCached returns the cached settings for $guild. Falls back
// to the redis snapshot, then the database, for guilds not seen since start.
func GuildSettingsGetCached(guild string) models.Config {
	guildSettingsCacheMutex.RLock()
	settings, ok := guildSettingsCache[guild]
	guildSettingsCacheMutex.RUnlock()
	if ok {
		return settings
	}

	codec := cache.GetRedisCacheCodec()
	if err := codec.Get(guildSettingsRedisKey(guild), &settings); err == nil {
		setGuildSettingsLocal(guild, settings)
		return settings
	}

	settings, err := GuildSettingsGet(guild)
	if err != nil {
		cache.GetLogger().WithField("module", "db").Error("failed to get guild settings: " + err.Error())
		return settings.Default(guild)
	}
	setGuildSettingsCached(guild, settings)

	return settings
}

func setGuildSettingsLocal(guild string, settings models.Config) {
	guildSettingsCacheMutex.Lock()
	guildSettingsCache[guild] = settings
	guildSettingsCacheMutex.Unlock()
}

func setGuildSettingsCached(guild string, settings models.Config) {
	setGuildSettingsLocal(guild, settings)

	codec := cache.GetRedisCacheCodec()
	err := codec.Set(&rediscache.Item{
		Key:        guildSettingsRedisKey(guild),
		Object:     settings,
		Expiration: time.Hour,
	})
	RelaxLog(err)
}

// GuildSettingsUpdater refreshes the settings cache from the database in
// regular intervals, meant to be launched as a goroutine on connect
func GuildSettingsUpdater() {
	defer Recover()

	for {
		guildSettingsCacheMutex.RLock()
		guilds := make([]string, 0, len(guildSettingsCache))
		for guild := range guildSettingsCache {
			guilds = append(guilds, guild)
		}
		guildSettingsCacheMutex.RUnlock()

		for _, guild := range guilds {
			settings, err := GuildSettingsGet(guild)
			if err != nil {
				continue
			}
			setGuildSettingsCached(guild, settings)
		}

		time.Sleep(15 * time.Second)
	}
}

// GetPrefixForServer returns the prefix configured for $guild
func GetPrefixForServer(guild string) string {
	prefix := GuildSettingsGetCached(guild).Prefix
	if prefix == "" {
		prefix = "%"
	}
	return prefix
}
