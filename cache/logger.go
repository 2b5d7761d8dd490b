package cache

import (
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	logger      *logrus.Logger
	loggerMutex sync.RWMutex
)

// SetLogger stores the process-wide logger, called once during boot
// before anything else runs
func SetLogger(l *logrus.Logger) {
	loggerMutex.Lock()
	logger = l
	loggerMutex.Unlock()
}

// GetLogger returns the process-wide logger. Panics when boot has not
// stored one yet, logging before SetLogger is a programming error.
func GetLogger() *logrus.Logger {
	loggerMutex.RLock()
	defer loggerMutex.RUnlock()

	if logger == nil {
		panic("cache: GetLogger called before SetLogger")
	}

	return logger
}
