package utils

import (
	"os"
	"time"

	"github.com/rollbar/rollbar-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ignation/worldcourse-backend/config"
)

var rollbarEnabled bool

// InitLogger configures the global zerolog logger and, when a token is set, Rollbar.
func InitLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.IsDev() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	}

	rollbarEnabled = cfg.RollbarToken != ""
	if rollbarEnabled {
		rollbar.SetToken(cfg.RollbarToken)
		rollbar.SetEnvironment(cfg.Env)
		rollbar.SetServerRoot("github.com/ignation/worldcourse-backend")
	}
	rollbar.SetEnabled(rollbarEnabled)
}

// ReportError logs a server-side failure and forwards it to Rollbar when enabled.
func ReportError(err error, fields map[string]interface{}) {
	log.Error().Err(err).Fields(fields).Msg("server error")
	if rollbarEnabled {
		rollbar.Error(err, fields)
	}
}

// FlushReports waits for queued Rollbar items on shutdown.
func FlushReports() {
	if rollbarEnabled {
		rollbar.Wait()
	}
}
