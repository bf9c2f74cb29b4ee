package config

import (
	"os"
	"path/filepath"
)

// FindEnvFile resolves filename (default ".env") against the working
// directory and its parents, so commands and tests run from a package
// directory still pick up the repository's .env. Absolute paths are only
// checked for existence.
func FindEnvFile(filename string) (string, error) {
	if filename == "" {
		filename = ".env"
	}
	if filepath.IsAbs(filename) {
		if _, err := os.Stat(filename); err != nil {
			return "", err
		}
		return filename, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return findUp(wd, filename)
}

func findUp(dir, filename string) (string, error) {
	for {
		candidate := filepath.Join(dir, filename)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}
