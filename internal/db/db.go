// Package db opens the snapshot store: one SQLite file per workspace, kept in a
// hidden state directory beside tirep.yml.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// StateDir holds the store inside a workspace.
const StateDir = ".tirep"

// StoreFile is the SQLite file inside StateDir.
const StoreFile = "tirep.db"

type Config struct {
	Workspace string
}

// StorePath is the store location for workspace, which defaults to ".".
func StorePath(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, StateDir, StoreFile)
}

// EnsureWorkspace creates the state directory and returns its path.
func EnsureWorkspace(workspace string) (string, error) {
	if workspace == "" {
		workspace = "."
	}
	dir := filepath.Join(workspace, StateDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create state dir: %w", err)
	}
	return dir, nil
}

// Open returns a pool on the workspace store with foreign keys enforced. The
// busy timeout lets serve, watch and listen write to one workspace at once.
// Schema setup is left to migrate.
func Open(cfg Config) (*sql.DB, error) {
	if _, err := EnsureWorkspace(cfg.Workspace); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", StorePath(cfg.Workspace))
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return conn, nil
}
