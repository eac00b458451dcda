package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// renewalSignalFile is the sentinel dropped next to the database by the
// cron-installed trigger. The daemon holds an exclusive lock on the
// database for its whole lifetime, so the trigger path must not open
// it; a plain file needs no lock and is consumed by the daemon's next
// event cycle.
const renewalSignalFile = "renew-requested"

// SignalRenewal drops the renewal sentinel in dataDir.
func SignalRenewal(dataDir string) error {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	stamp := time.Now().Format(time.RFC3339) + "\n"
	if err := os.WriteFile(filepath.Join(dataDir, renewalSignalFile), []byte(stamp), 0600); err != nil {
		return fmt.Errorf("failed to write renewal signal: %w", err)
	}
	return nil
}

// ConsumeRenewalSignal removes the sentinel, reporting whether it was
// present. Removing before acting means a crash mid-renewal cannot
// loop on a stale signal.
func ConsumeRenewalSignal(dataDir string) (bool, error) {
	err := os.Remove(filepath.Join(dataDir, renewalSignalFile))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to consume renewal signal: %w", err)
}
