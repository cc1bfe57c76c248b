// Package runtime locates the relay sidecar executable across a layered
// set of candidate locations: an explicit override path, bundled resource
// directories, the system PATH, and well-known install prefixes.
//
// Candidate sources are ordered pure functions producing paths; resolution
// is "first existing file wins". The existence predicate is injectable so
// precedence can be tested without touching the filesystem.
package runtime

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/relaykit/relayctl/internal/errors"
)

// BinaryName is the relay sidecar executable name.
const BinaryName = "relay-rs"

// bundledRelativeDarwinARM64 is the relocatable layout the offline
// installer ships for Apple Silicon.
const bundledRelativeDarwinARM64 = "offline/relay-rs/darwin-aarch64/relay-rs"

// Resolver finds the sidecar executable. The zero value is not usable;
// construct with NewResolver.
type Resolver struct {
	// isFile reports whether path exists and is a regular file.
	isFile func(path string) bool
	// executable returns the current executable's path.
	executable func() (string, error)
	// pathDirs returns the directories of the system PATH.
	pathDirs func() []string
	// ensureExec grants execute permission to an accepted candidate.
	ensureExec func(path string) error
}

// NewResolver returns a Resolver backed by the real filesystem.
func NewResolver() *Resolver {
	return &Resolver{
		isFile:     fileExists,
		executable: os.Executable,
		pathDirs:   systemPathDirs,
		ensureExec: ensureExecutable,
	}
}

// NewResolverWithProbes returns a Resolver with injected probes, for tests.
// The execute-permission side effect is skipped.
func NewResolverWithProbes(isFile func(string) bool, executable func() (string, error), pathDirs func() []string) *Resolver {
	return &Resolver{
		isFile:     isFile,
		executable: executable,
		pathDirs:   pathDirs,
		ensureExec: func(string) error { return nil },
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func systemPathDirs() []string {
	return filepath.SplitList(os.Getenv("PATH"))
}

// Resolve returns the path of exactly one usable sidecar executable, or a
// ResolveError enumerating every candidate checked. An explicit override
// that matches nothing does not abort the search: its failure message is
// kept and prefixed to the aggregate error if the later stages also fail.
//
// On POSIX systems the resolved file is granted execute permission if it
// lacks one; this is idempotent.
func (r *Resolver) Resolve(override string) (string, error) {
	var checked []string
	var explicitMsg string

	if trimmed := strings.TrimSpace(override); trimmed != "" {
		path, msg, ok := r.resolveExplicit(trimmed, &checked)
		if ok {
			return r.accept(path)
		}
		explicitMsg = msg
	}

	for _, candidate := range r.bundledCandidates() {
		checked = append(checked, candidate)
		if r.isFile(candidate) {
			return r.accept(candidate)
		}
	}

	for _, candidate := range r.systemCandidates() {
		checked = append(checked, candidate)
		if r.isFile(candidate) {
			return r.accept(candidate)
		}
	}

	err := errors.NewResolveError(checked)
	if explicitMsg != "" {
		err = err.WithExplicitPathMessage(explicitMsg)
	}
	return "", err
}

// accept finalizes a found candidate, ensuring it is executable.
func (r *Resolver) accept(path string) (string, error) {
	if err := r.ensureExec(path); err != nil {
		return "", err
	}
	return path, nil
}

// resolveExplicit probes a caller-supplied override path. It returns the
// resolved path when one is found; otherwise a failure message specific to
// the override, so the caller can prefix it to the aggregate error.
func (r *Resolver) resolveExplicit(path string, checked *[]string) (resolved, failureMsg string, ok bool) {
	if r.looksLikeLegacyNodeProject(path) {
		return "", "legacy Node project path is no longer used by the relay runtime: " + path, false
	}

	for _, candidate := range explicitCandidates(path) {
		*checked = append(*checked, candidate)
		if r.isFile(candidate) {
			return candidate, "", true
		}
	}

	return "", "runtime path not found or invalid: " + path, false
}

// explicitCandidates lists the conventional locations probed under an
// override path: the path itself, then build-output and bin subdirectories
// when it is a directory.
func explicitCandidates(path string) []string {
	return []string{
		path,
		filepath.Join(path, BinaryName),
		filepath.Join(path, "target", "release", BinaryName),
		filepath.Join(path, "target", "debug", BinaryName),
		filepath.Join(path, "bin", BinaryName),
	}
}

// looksLikeLegacyNodeProject detects the pre-rewrite Node entrypoint
// layout, which the current runtime no longer launches.
func (r *Resolver) looksLikeLegacyNodeProject(path string) bool {
	return r.isFile(filepath.Join(path, "package.json")) &&
		r.isFile(filepath.Join(path, "src", "index.js"))
}

// bundledCandidates lists the relocatable resource layouts shipped next to
// the relayctl executable.
func (r *Resolver) bundledCandidates() []string {
	var bases []string
	if exe, err := r.executable(); err == nil {
		exeDir := filepath.Dir(exe)
		bases = append(bases,
			exeDir,
			filepath.Join(exeDir, "..", "Resources"),
			filepath.Join(exeDir, "resources"),
		)
	}

	var candidates []string
	for _, base := range bases {
		candidates = append(candidates,
			filepath.Join(base, filepath.FromSlash(bundledRelativeDarwinARM64)),
			filepath.Join(base, "offline", "relay-rs", BinaryName),
			filepath.Join(base, BinaryName),
		)
	}
	return candidates
}

// systemCandidates lists the system PATH entries followed by well-known
// install prefixes.
func (r *Resolver) systemCandidates() []string {
	var candidates []string
	for _, dir := range r.pathDirs() {
		if dir == "" {
			continue
		}
		candidates = append(candidates, filepath.Join(dir, BinaryName))
	}
	for _, prefix := range []string{
		"/opt/homebrew/bin",
		"/usr/local/bin",
		"/usr/bin",
	} {
		candidates = append(candidates, filepath.Join(prefix, BinaryName))
	}
	return candidates
}
