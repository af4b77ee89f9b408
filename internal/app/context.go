package app

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"tirep/internal/config"
	"tirep/internal/db"
	"tirep/internal/engine"
	"tirep/internal/migrate"
	"tirep/internal/snapshot"
)

// Workspace is an opened, migrated workspace with its config and engine.
type Workspace struct {
	Dir    string
	DB     *sql.DB
	Config *config.Config
	Engine *engine.Engine
}

// LoadConfig reads tirep.yml from the workspace, falling back to defaults
// when the file does not exist.
func LoadConfig(workspace string) (*config.Config, error) {
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", config.Path(workspace), err)
	}
	if cfg == nil {
		cfg = config.Default("")
	}
	return cfg, nil
}

// Open opens the workspace database, applies migrations and builds the engine.
func Open(ctx context.Context, workspace string, log *zap.Logger) (*Workspace, error) {
	cfg, err := LoadConfig(workspace)
	if err != nil {
		return nil, err
	}
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return nil, err
	}
	if _, err := migrate.Migrate(ctx, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	cfg.Output.Dir = Resolve(workspace, cfg.Output.Dir)
	cfg.Watch.Dir = Resolve(workspace, cfg.Watch.Dir)
	return &Workspace{
		Dir:    workspace,
		DB:     conn,
		Config: cfg,
		Engine: engine.New(conn, cfg, log),
	}, nil
}

// Resolve makes a configured path relative to the workspace.
func Resolve(workspace, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(workspace, p)
}

func (w *Workspace) Close() error {
	return w.DB.Close()
}

// View picks the snapshot a command works on: a file on disk when one is
// given, otherwise a stored snapshot id (empty or "latest" for the newest).
func (w *Workspace) View(ctx context.Context, snapshotID, file, observer string) (*snapshot.View, error) {
	if file != "" {
		s, err := snapshot.Load(file)
		if err != nil {
			return nil, err
		}
		return snapshot.NewView(s, w.Engine.Observer(observer))
	}
	return w.Engine.LoadView(ctx, snapshotID, observer)
}
