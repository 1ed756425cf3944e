package memsys

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/aistore-io/shmq/cmn/nlog"
)

// Sweep removes every /dev/shm entry whose name starts with prefix. It is
// never called automatically by Create/Open/Unlink - a crashed sender
// leaves segments behind by design (spec §5: best-effort cleanup only) and
// deciding when that garbage is safe to remove is an operational call, not
// one this package should make on its own. Intended for startup hygiene in
// a long-lived process (or cmd/shmqbench) that knows no other process is
// still using segments under prefix.
func Sweep(prefix string) (removed int, err error) {
	entries, err := os.ReadDir(shmDir)
	if err != nil {
		return 0, err
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		path := filepath.Join(shmDir, e.Name())
		if rmErr := os.Remove(path); rmErr != nil {
			nlog.Warningf("sweep: failed to remove %s: %v", path, rmErr)
			continue
		}
		removed++
	}
	return removed, nil
}
