package logger

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const timeFormat = "2006-01-02 15:04:05"

// Configure the global logger to write human readable lines to stdout
func Setup(debug bool) zerolog.Logger {
	return SetupWriter(os.Stdout, debug)
}

func SetupWriter(out io.Writer, debug bool) zerolog.Logger {

	zerolog.DurationFieldUnit = time.Millisecond
	zerolog.CallerMarshalFunc = func(pc uintptr, file string, line int) string {
		return filepath.Base(file) + ":" + strconv.Itoa(line)
	}

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	output := zerolog.ConsoleWriter{Out: out, TimeFormat: timeFormat, NoColor: out != os.Stdout}
	log.Logger = zerolog.New(output).With().Timestamp().Caller().Logger()

	return log.Logger
}
