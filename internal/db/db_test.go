package db_test

import (
	"os"
	"path/filepath"
	"testing"

	"tirep/internal/db"
)

func TestStorePath(t *testing.T) {
	if got := db.StorePath(""); got != filepath.Join(".", ".tirep", "tirep.db") {
		t.Fatalf("default workspace: %s", got)
	}
	if got := db.StorePath("/games/campaign"); got != filepath.Join("/games/campaign", ".tirep", "tirep.db") {
		t.Fatalf("unexpected path %s", got)
	}
}

func TestOpenCreatesStoreWithPragmas(t *testing.T) {
	ws := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: ws})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer conn.Close()
	var fk, timeout int
	if err := conn.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatal(err)
	}
	if err := conn.QueryRow("PRAGMA busy_timeout").Scan(&timeout); err != nil {
		t.Fatal(err)
	}
	if fk != 1 || timeout != 5000 {
		t.Fatalf("expected foreign_keys=1 busy_timeout=5000, got %d %d", fk, timeout)
	}
	if _, err := os.Stat(db.StorePath(ws)); err != nil {
		t.Fatalf("store file not created: %v", err)
	}
}
