package ingest

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// ScratchWorkdir creates a per-program scratch directory under base,
// named with a fresh UUID so concurrent programs in the same process
// never collide, used to stage any temporary block buffers the optimizer
// or a Kernels implementation needs beyond what fits in memory.
func ScratchWorkdir(base string) (string, error) {
	dir := filepath.Join(base, "atmoseng-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}
