package metrics

import (
	"expvar"
	"net/http"
	"runtime"
	"time"

	"github.com/starboardbot/starboard/cache"
	"github.com/starboardbot/starboard/helpers"
)

var (
	// MessagesReceived counts all messages the bot saw
	MessagesReceived = expvar.NewInt("messages_received")

	// ReactionsReceived counts all reaction events the bot saw
	ReactionsReceived = expvar.NewInt("reactions_received")

	// CommandsExecuted counts all executed commands
	CommandsExecuted = expvar.NewInt("commands_executed")

	// StarboardEvaluations counts how often a message got (re-)evaluated
	StarboardEvaluations = expvar.NewInt("starboard_evaluations")

	// StarboardMirrorsPosted counts posted starboard messages
	StarboardMirrorsPosted = expvar.NewInt("starboard_mirrors_posted")

	// StarboardMirrorsUpdated counts edited starboard messages
	StarboardMirrorsUpdated = expvar.NewInt("starboard_mirrors_updated")

	// StarboardMirrorsRetracted counts removed starboard messages
	StarboardMirrorsRetracted = expvar.NewInt("starboard_mirrors_retracted")

	// StarboardStoreConflicts counts lost CAS races on the entry store
	StarboardStoreConflicts = expvar.NewInt("starboard_store_conflicts")

	// StarboardTransientFailures counts syncs given up on transient errors
	StarboardTransientFailures = expvar.NewInt("starboard_transient_failures")

	// StarboardEntriesPruned counts retracted entries removed by the sweeper
	StarboardEntriesPruned = expvar.NewInt("starboard_entries_pruned")

	// CoroutineCount mirrors runtime.NumGoroutine()
	CoroutineCount = expvar.NewInt("coroutine_count")

	// Uptime is the process uptime in seconds
	Uptime = expvar.NewInt("uptime")

	startTime time.Time
)

// Init starts the metrics endpoint and the runtime collector
func Init() {
	startTime = time.Now()

	address := "127.0.0.1:1337"
	if helpers.GetConfig().ExistsP("metrics.address") {
		address = helpers.GetConfig().Path("metrics.address").Data().(string)
	}

	cache.GetLogger().WithField("module", "metrics").Info("Listening on " + address)

	go func() {
		defer helpers.Recover()
		err := http.ListenAndServe(address, nil)
		helpers.RelaxLog(err)
	}()

	go collectRuntimeMetrics()
}

func collectRuntimeMetrics() {
	defer helpers.Recover()

	for {
		CoroutineCount.Set(int64(runtime.NumGoroutine()))
		Uptime.Set(int64(time.Since(startTime).Seconds()))

		time.Sleep(15 * time.Second)
	}
}
