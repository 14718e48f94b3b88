package recovery

import (
	"log"
)

// PermissiveRecoverer only reports the failure and lets the caller carry
// on, e.g. to try the next boot entry or drop to a shell.
type PermissiveRecoverer struct {
	Logf func(format string, v ...interface{})
}

// Recover logs message
func (pr PermissiveRecoverer) Recover(message string) error {
	logf := pr.Logf
	if logf == nil {
		logf = log.Printf
	}
	if message != "" {
		logf("Recovering from: %s", message)
	}
	return nil
}
