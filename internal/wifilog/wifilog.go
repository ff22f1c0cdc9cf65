// Package wifilog wraps zerolog with the field conventions used across
// this module: every log line is tagged with the component name its
// logger was created with, and bring-up/teardown transitions carry
// iface/cap_iface fields so a supervisor's log stream can be correlated
// to a single source definition.
package wifilog

import (
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	baseOnce sync.Once
	base     zerolog.Logger
)

func initBase() {
	base = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		With().
		Timestamp().
		Logger()
}

// New returns a logger scoped to component, e.g. "monitor" or "chancontrol".
func New(component string) zerolog.Logger {
	baseOnce.Do(initBase)
	return base.With().Str("component", component).Logger()
}
