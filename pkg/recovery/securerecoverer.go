package recovery

import (
	"log"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// DebugTimeout is how long SecureRecoverer waits before power cycling in
// debug mode
var DebugTimeout = 10 * time.Second

// SecureRecoverer properties
// Reboot: does a reboot if true, powers off otherwise
// Sync: sync file descriptors and devices
// Debug: print the message and wait DebugTimeout before acting
type SecureRecoverer struct {
	Reboot bool
	Sync   bool
	Debug  bool
}

// Recover by reboot or poweroff without or with sync
func (sr SecureRecoverer) Recover(message string) error {
	if sr.Sync {
		for _, f := range []*os.File{
			os.Stdout,
			os.Stderr,
		} {
			if err := f.Sync(); err != nil {
				return err
			}
		}
		unix.Sync()
	}

	if sr.Debug {
		if message != "" {
			log.Printf("%s\n", message)
		}
		time.Sleep(DebugTimeout)
	}

	if sr.Reboot {
		return unix.Reboot(unix.LINUX_REBOOT_CMD_RESTART)
	}
	return unix.Reboot(unix.LINUX_REBOOT_CMD_POWER_OFF)
}
