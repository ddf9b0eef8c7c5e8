package observability

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger builds the process logger: console format on stderr, info level
// by default. Setting CHATMESH_DEBUG to any non-empty value enables debug
// lines such as per-connection frame drops.
func InitLogger(app string) zerolog.Logger {
	level := zerolog.InfoLevel
	if os.Getenv("CHATMESH_DEBUG") != "" {
		level = zerolog.DebugLevel
	}
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
	logger := zerolog.New(output).Level(level).With().Timestamp().Str("app", app).Logger()
	log.Logger = logger
	return logger
}
