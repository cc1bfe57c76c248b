//go:build windows

package runtime

// ensureExecutable is a no-op on Windows, which has no execute bit.
func ensureExecutable(path string) error {
	return nil
}
