package credentials

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultCredsPath returns $XDG_CONFIG_HOME/eventpix/credentials.json,
// falling back to ~/.config when XDG_CONFIG_HOME is unset.
func DefaultCredsPath() string {
	xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfigHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		xdgConfigHome = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(xdgConfigHome, "eventpix", "credentials.json")
}

// DefaultSQLitePath is the database used by the sqlite driver when no DSN is configured.
func DefaultSQLitePath() string {
	p := DefaultCredsPath()
	if p == "" {
		return ""
	}
	return filepath.Join(filepath.Dir(p), "credentials.db")
}

func EnsureParentDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
