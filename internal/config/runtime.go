package config

import (
	"os"
	"path/filepath"
)

// GetRuntimePath resolves the runtime directory before the .env file is loaded.
func GetRuntimePath() string {
	return resolveRuntimePath(os.Getenv("STOREDASH_RUNTIME_PATH"))
}

func resolveRuntimePath(path string) string {
	if path == "" {
		path = ".storedash"
	}

	if !filepath.IsAbs(path) {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path)
	}
	return path
}
