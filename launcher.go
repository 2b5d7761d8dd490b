package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"
	"github.com/getsentry/raven-go"
	"github.com/go-redis/redis"
	"github.com/kz/discordrus"
	"github.com/sirupsen/logrus"
	"github.com/starboardbot/starboard/cache"
	"github.com/starboardbot/starboard/helpers"
	"github.com/starboardbot/starboard/logging"
	"github.com/starboardbot/starboard/metrics"
	"github.com/starboardbot/starboard/version"
)

func main() {
	log := logrus.New()
	log.Formatter = &logrus.TextFormatter{ForceColors: true, FullTimestamp: true}
	log.Out = os.Stderr
	log.Level = logrus.InfoLevel
	cache.SetLogger(log)

	log.WithField("module", "launcher").Info("Booting the starboard bot...")

	helpers.LoadConfig("config.json")
	config := helpers.GetConfig()

	if config.ExistsP("debug") && config.Path("debug").Data().(bool) {
		helpers.DEBUG_MODE = true
		log.Level = logrus.DebugLevel
	}

	if logfile := helpers.GetConfigString("logging.file", ""); logfile != "" {
		fileHook, err := logging.NewLogrusFileHook(
			logfile,
			os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0666,
		)
		if err == nil {
			log.Hooks.Add(fileHook)
		} else {
			log.WithField("module", "launcher").Error("Failed to open logfile: " + err.Error())
		}
	}

	webhookID := helpers.GetConfigString("logging.discord_webhook_id", "")
	webhookToken := helpers.GetConfigString("logging.discord_webhook_token", "")
	if webhookID != "" && webhookToken != "" {
		log.Hooks.Add(discordrus.NewHook(
			"https://discord.com/api/webhooks/"+webhookID+"/"+webhookToken,
			logrus.ErrorLevel,
			&discordrus.Opts{
				Username:           "Starboard",
				EnableCustomColors: true,
			},
		))
	}

	version.DumpInfo()

	if dsn := helpers.GetConfigString("sentry.dsn", ""); dsn != "" {
		err := raven.SetDSN(dsn)
		if err != nil {
			panic(err)
		}
	}

	helpers.ConnectMDB(
		config.Path("mongodb.url").Data().(string),
		config.Path("mongodb.db").Data().(string),
	)
	defer helpers.GetMDbSession().Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr: config.Path("redis.address").Data().(string),
	})
	cache.SetRedisClient(redisClient)

	discord, err := discordgo.New("Bot " + config.Path("discord.token").Data().(string))
	if err != nil {
		panic(err)
	}

	discord.StateEnabled = true
	discord.State.MaxMessageCount = 400
	discord.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentMessageContent

	discord.AddHandlerOnce(BotOnReady)
	discord.AddHandler(BotOnMessageCreate)
	discord.AddHandler(BotOnMessageDelete)
	discord.AddHandler(BotOnReactionAdd)
	discord.AddHandler(BotOnReactionRemove)
	discord.AddHandler(BotOnReactionRemoveAll)

	cache.SetSession(discord)

	err = discord.Open()
	if err != nil {
		raven.CaptureErrorAndWait(err, map[string]string{})
		panic(err)
	}

	metrics.Init()

	log.WithField("module", "launcher").Info("Bot is running. Press CTRL-C to exit.")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.WithField("module", "launcher").Info("Shutting down...")

	BotDestroy(discord)
	discord.Close()
}
