package config

import (
	"os"
	"path/filepath"

	"github.com/QuillFuzz/QuillFuzz/internal/ports"
)

// EnvRoot overrides the resolved project root.
const EnvRoot = "QF_ROOT"

// ResolveRoot determines the canonical project root independent of the
// invocation directory. Precedence: explicit value, QF_ROOT, the nearest
// ancestor of the working directory containing quillfuzz.yaml, the working
// directory itself.
func ResolveRoot(fs ports.FileSystem, explicit string) (string, error) {
	if explicit != "" {
		return filepath.Abs(ports.ExpandPath(explicit))
	}
	if env := os.Getenv(EnvRoot); env != "" {
		return filepath.Abs(ports.ExpandPath(env))
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for dir := cwd; ; dir = filepath.Dir(dir) {
		if fs.Exists(filepath.Join(dir, DefaultFileName)) {
			return dir, nil
		}
		if filepath.Dir(dir) == dir {
			break
		}
	}
	return cwd, nil
}
