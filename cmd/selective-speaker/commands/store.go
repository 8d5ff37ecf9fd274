package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/doInfinitely/selective-speaker/pkg/kv"
)

// openStore opens the badger database holding voiceprints, segments, and
// processed marks. An empty dir falls back to the config value, then to
// the default data directory.
func openStore(dir string) (kv.Store, error) {
	if dir == "" {
		dir = cfg.DataDir
	}
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("cannot determine data directory: %w", err)
		}
		dir = filepath.Join(base, "selective-speaker", "data")
	}
	return kv.NewBadger(kv.BadgerOptions{Dir: dir})
}
