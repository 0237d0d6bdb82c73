package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	roomsFile = "rooms.json"
	cacheFile = "cache.db"
	credsFile = "credentials.json"
)

// ConfigDir is ~/.config/roombook unless ROOMBOOK_CONFIG_DIR points elsewhere.
func ConfigDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv("ROOMBOOK_CONFIG_DIR")); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "roombook"), nil
}

func RoomsPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, roomsFile), nil
}

func CachePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, cacheFile), nil
}

func CredentialsPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, credsFile), nil
}

func ensureConfigDir() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	return dir, nil
}
