package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/changeset-demo/changeset-demo/common"
)

const (
	appDir         = "changeset-demo"
	activityDbFile = "activity.db"
)

// GetOrCreateActivityDBPath returns the activity database path.
// An explicit path wins; otherwise an existing database in one of the OS data directories is reused,
// and a new one goes to the preferred data directory.
func GetOrCreateActivityDBPath(explicitPath string) (string, error) {
	if explicitPath != "" {
		return ensureDir(explicitPath)
	}

	candidates := dataDirs(runtime.GOOS, os.Getenv, os.UserHomeDir)

	var existingPaths []string
	for _, dir := range candidates {
		path := toDbFilePath(dir)
		if _, err := os.Stat(path); err == nil {
			existingPaths = append(existingPaths, path)
		}
	}

	if len(existingPaths) > 1 {
		return "", fmt.Errorf("multiple activity databases found at: %v. Please remove duplicates manually", existingPaths)
	}
	if len(existingPaths) == 1 {
		return existingPaths[0], nil
	}

	preferredDir := ""
	if len(candidates) > 0 {
		preferredDir = candidates[0]
	}
	return ensureDir(toDbFilePath(preferredDir))
}

// dataDirs lists the per-user data directories of goos, preferred first.
func dataDirs(goos string, getenv func(string) string, homeDir func() (string, error)) []string {
	var dirs []string
	home, _ := homeDir()

	switch goos {
	case common.WindowsOS:
		if appData := getenv("APPDATA"); appData != "" {
			dirs = append(dirs, appData)
		}
		if localAppData := getenv("LOCALAPPDATA"); localAppData != "" {
			dirs = append(dirs, localAppData)
		}
	case common.MacOS:
		if home != "" {
			dirs = append(dirs, filepath.Join(home, "Library", "Application Support"))
		}
	case common.LinuxOS:
		if xdgData := getenv("XDG_DATA_HOME"); xdgData != "" {
			dirs = append(dirs, xdgData)
		}
		if home != "" {
			dirs = append(dirs, filepath.Join(home, ".local", "share"))
		}
	}

	if home != "" {
		dirs = append(dirs, home) // fallback location
	}
	return dirs
}

func ensureDir(dbPath string) (string, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return dbPath, nil
}

func toDbFilePath(dataDir string) string {
	return filepath.Join(dataDir, appDir, activityDbFile)
}
