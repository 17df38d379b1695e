// Package logging builds the process logger: a rotating log file in the
// output directory, optionally mirrored to the console.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const logFileName = "tablepipe.log"

// New returns a logger writing to <dir>/tablepipe.log, rotated at 2 MB with
// 3 backups kept. With toConsole, log lines are also rendered on stderr in
// human-readable form.
func New(dir string, toConsole bool) (zerolog.Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return zerolog.Nop(), err
	}

	writers := []io.Writer{&lumberjack.Logger{
		Filename:   filepath.Join(dir, logFileName),
		MaxSize:    2, // megabytes
		MaxBackups: 3,
	}}
	if toConsole {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	}

	return zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger(), nil
}
