// Package logger sets up the leveled logging of the perfstats tools.
package logger

import (
	"io"

	"github.com/op/go-logging"
)

const defaultLogFormat = "%{time:15:04:05.000} %{color}%{level:-8s} %{module}%{color:reset}: %{message}"

// New returns the logger of module writing to out. Unknown levels fall back
// to INFO. The backend is process wide, so the last call configures every
// logger.
func New(out io.Writer, level, module string) *logging.Logger {
	backend := logging.NewLogBackend(out, "", 0)
	fmtBackend := logging.NewBackendFormatter(backend, logging.MustStringFormatter(defaultLogFormat))

	lvl, err := logging.LogLevel(level)
	if err != nil {
		lvl = logging.INFO
	}
	lvlBackend := logging.AddModuleLevel(fmtBackend)
	lvlBackend.SetLevel(lvl, "")

	logging.SetBackend(lvlBackend)
	return logging.MustGetLogger(module)
}
