package client

import (
	"io"
	"log"
)

var debugLog = log.New(io.Discard, "Client: ", log.LstdFlags|log.Lmicroseconds)

// SetVerboseLogging toggles per-event debug logging. When enabled the output
// goes wherever the standard logger writes.
// When disabled (default), debug output is discarded.
func SetVerboseLogging(enable bool) {
	if enable {
		debugLog.SetOutput(log.Writer())
	} else {
		debugLog.SetOutput(io.Discard)
	}
}
