package syncer

import (
	"encoding/json"
	"os"

	log "github.com/sirupsen/logrus"
)

// State carries the whole-feed revision markers persisted between runs. It
// enables the fast "nothing changed" exit before any per-event work.
type State struct {
	ETag         string `json:"etag,omitempty"`
	LastModified string `json:"last_modified,omitempty"`
	Hash         string `json:"hash,omitempty"`
}

// LoadState reads the persisted state. A missing, unreadable or corrupt file
// yields an empty state (forcing a full resync) and is never an error.
func LoadState(path string) State {
	data, err := os.ReadFile(path)
	if err != nil {
		return State{}
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		log.Warnf("sync state at %s is unreadable, forcing full resync: %v", path, err)
		return State{}
	}
	return s
}

// SaveState writes the state atomically (write-temp-then-rename) so a crash
// can never leave a partially written file behind.
func SaveState(path string, s State) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
