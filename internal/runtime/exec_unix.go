//go:build unix

package runtime

import (
	"fmt"
	"os"
)

// ensureExecutable grants owner/group/other execute bits to the resolved
// file if it has none. Idempotent and safe to repeat; bundled runtimes
// extracted from archives occasionally arrive without the execute bit.
func ensureExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("read metadata failed: %w", err)
	}
	mode := info.Mode()
	if mode&0o111 != 0 {
		return nil
	}
	if err := os.Chmod(path, mode|0o755); err != nil {
		return fmt.Errorf("set execute permission failed: %w", err)
	}
	return nil
}
