package logger

import (
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

var (
	log  zerolog.Logger
	once sync.Once
)

// Init configures the process-wide logger and returns it. The first call wins;
// later calls return the already-configured logger.
func Init(level string) zerolog.Logger {
	once.Do(func() {
		lvl, err := zerolog.ParseLevel(strings.ToLower(level))
		if err != nil || lvl == zerolog.NoLevel {
			lvl = zerolog.InfoLevel
		}
		log = zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
	})
	return log
}

// Get returns the process-wide logger.
func Get() zerolog.Logger {
	return log
}

// MaskKey shortens a credential so it can be logged without leaking it.
func MaskKey(key string) string {
	if key == "" {
		return "unset"
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
