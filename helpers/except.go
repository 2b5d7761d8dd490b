package helpers

import (
	"github.com/getsentry/raven-go"
	"github.com/starboardbot/starboard/cache"
)

var (
	// DEBUG_MODE is true when the bot is running with verbose logging
	DEBUG_MODE bool
)

// Recover recovers from a panic, logs it and reports it to sentry.
// Meant to be used with defer in every goroutine the dispatcher spawns.
func Recover() {
	err := recover()

	if err != nil {
		cache.GetLogger().WithField("module", "except").Errorln("recovered from panic:", err)

		if errE, ok := err.(error); ok {
			raven.CaptureError(errE, map[string]string{})
		}
	}
}

// Relax panics if err is not nil, to be caught by a Recover further up
func Relax(err error) {
	if err != nil {
		panic(err)
	}
}

// RelaxLog logs err and reports it to sentry without disturbing control flow
func RelaxLog(err error) {
	if err != nil {
		cache.GetLogger().WithField("module", "except").Errorln("error:", err.Error())

		raven.CaptureError(err, map[string]string{})
	}
}

// SoftRelax calls cb instead of panicking if err is not nil
func SoftRelax(err error, cb Callback) {
	if err != nil {
		cb()
	}
}
