package utils

import (
	"io"
	"os"
	"time"

	"github.com/rollbar/rollbar-go"
	rollbarErrors "github.com/rollbar/rollbar-go/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const logFilePermission = 0664

type LogBuild struct {
	writer  io.Writer
	path    string
	level   zerolog.Level
	console bool
	rollbar bool
}

type LogData struct {
	LogFile *os.File
	Logger  zerolog.Logger
}

func NewLogBuild() *LogBuild {
	return &LogBuild{writer: os.Stdout, level: zerolog.InfoLevel}
}

func (build *LogBuild) FromPath(path string) *LogBuild {
	build.path = path
	return build
}

func (build *LogBuild) FromWriter(w io.Writer) *LogBuild {
	build.writer = w
	return build
}

// Level accepts zerolog level names; unknown names keep the current level.
func (build *LogBuild) Level(name string) *LogBuild {
	if lvl, err := zerolog.ParseLevel(name); err == nil && name != "" {
		build.level = lvl
	}
	return build
}

// Console switches to the human readable writer used in development.
func (build *LogBuild) Console(enabled bool) *LogBuild {
	build.console = enabled
	return build
}

// Rollbar forwards error and fatal events to rollbar.
func (build *LogBuild) Rollbar(enabled bool) *LogBuild {
	build.rollbar = enabled
	return build
}

func (build *LogBuild) Make() (logData *LogData, err error) {
	logData = new(LogData)
	writer := build.writer
	if build.path != "" {
		logData.LogFile, err = os.OpenFile(build.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, logFilePermission)
		if err != nil {
			return nil, err
		}
		writer = zerolog.SyncWriter(logData.LogFile)
	} else if build.console {
		writer = zerolog.ConsoleWriter{Out: writer, TimeFormat: time.RFC3339}
	}

	logger := zerolog.New(writer).Level(build.level).With().Timestamp().Logger()
	if build.rollbar {
		logger = logger.Hook(rollbarHook{})
	}
	logData.Logger = logger
	return
}

// InitLogger makes the built logger the process-wide zerolog logger.
func InitLogger(logData *LogData) {
	log.Logger = logData.Logger
	zerolog.DefaultContextLogger = &logData.Logger
}

// InitRollbar configures the rollbar notifier. With an empty token reporting
// is disabled and the hook and recovery middleware become no-ops.
func InitRollbar(token, env, build string) bool {
	rollbar.SetToken(token)
	rollbar.SetEnvironment(env)
	rollbar.SetCodeVersion(build)
	rollbar.SetStackTracer(rollbarErrors.StackTracer)
	rollbar.SetEnabled(token != "")
	return token != ""
}

type rollbarHook struct{}

func (rollbarHook) Run(_ *zerolog.Event, level zerolog.Level, msg string) {
	switch level {
	case zerolog.ErrorLevel:
		rollbar.Message(rollbar.ERR, msg)
	case zerolog.FatalLevel, zerolog.PanicLevel:
		rollbar.Message(rollbar.CRIT, msg)
	}
}
