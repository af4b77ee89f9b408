package engine

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tirep/internal/config"
	"tirep/internal/domain"
	"tirep/internal/events"
	"tirep/internal/generator"
	"tirep/internal/reports"
	"tirep/internal/repo"
	"tirep/internal/snapshot"
)

// Latest resolves to the most recently imported snapshot.
const Latest = "latest"

// Engine imports snapshots into the workspace store and renders reports from
// them. Generation is serialized; every trigger renders one snapshot at a time.
type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Config *config.Config
	Log    *zap.Logger
	Now    func() time.Time

	genMu *sync.Mutex
}

func New(db *sql.DB, cfg *config.Config, log *zap.Logger) *Engine {
	if cfg == nil {
		cfg = config.Default("")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{},
		Config: cfg,
		Log:    log,
		Now:    time.Now,
		genMu:  &sync.Mutex{},
	}
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// ImportOptions describe one snapshot import. Data wins over Path; Path is
// still recorded as the source.
type ImportOptions struct {
	Path    string
	Data    []byte
	Format  snapshot.Format
	Name    string
	ActorID string
}

// ImportSnapshot validates a snapshot and stores it with an import event.
func (e *Engine) ImportSnapshot(ctx context.Context, opts ImportOptions) (domain.Snapshot, error) {
	data := opts.Data
	if data == nil {
		if opts.Path == "" {
			return domain.Snapshot{}, errors.New("snapshot path or data required")
		}
		b, err := os.ReadFile(opts.Path)
		if err != nil {
			return domain.Snapshot{}, err
		}
		data = b
	}
	format := opts.Format
	if format == "" {
		format = snapshot.FormatFor(opts.Path)
	}
	snap, err := snapshot.Parse(data, format)
	if err != nil {
		return domain.Snapshot{}, err
	}
	payload, err := snapshot.Encode(snap, snapshot.FormatJSON)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("encode snapshot: %w", err)
	}
	now := e.now().UTC()
	name := strings.TrimSpace(opts.Name)
	if name == "" {
		name = defaultName(opts.Path, snap)
	}
	rec := domain.Snapshot{
		ID:        uuid.NewSHA1(uuid.NameSpaceOID, []byte(name+"|"+snap.Date+"|"+now.Format(time.RFC3339Nano))).String(),
		Name:      name,
		GameDate:  snap.Date,
		Observer:  snap.Observer,
		Source:    opts.Path,
		SizeBytes: int64(len(payload)),
		CreatedAt: now.Format(time.RFC3339),
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Snapshot{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertSnapshot(ctx, tx, rec, payload); err != nil {
		return domain.Snapshot{}, fmt.Errorf("insert snapshot: %w", err)
	}
	if err := e.Events.Append(ctx, tx, events.SnapshotImport, "snapshot", rec.ID, actor(opts.ActorID), events.EventPayload{
		"name":      rec.Name,
		"game_date": rec.GameDate,
		"observer":  rec.Observer,
		"source":    rec.Source,
	}); err != nil {
		return domain.Snapshot{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Snapshot{}, err
	}
	e.Log.Info("snapshot imported", zap.String("id", rec.ID), zap.String("name", rec.Name), zap.String("date", rec.GameDate))
	return rec, nil
}

func defaultName(path string, s *snapshot.Snapshot) string {
	if path != "" {
		base := filepath.Base(path)
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	return "snapshot " + s.Date
}

func actor(id string) string {
	if strings.TrimSpace(id) == "" {
		return "local-user"
	}
	return id
}

// ResolveID maps "latest" (or an empty id) to the newest snapshot id.
func (e *Engine) ResolveID(ctx context.Context, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id != "" && id != Latest {
		return id, nil
	}
	s, err := e.Repo.LatestSnapshot(ctx)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", fmt.Errorf("no snapshots imported: %w", err)
		}
		return "", err
	}
	return s.ID, nil
}

// GetSnapshot returns stored metadata, resolving "latest".
func (e *Engine) GetSnapshot(ctx context.Context, id string) (domain.Snapshot, error) {
	id, err := e.ResolveID(ctx, id)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return e.Repo.GetSnapshot(ctx, id)
}

func (e *Engine) DeleteSnapshot(ctx context.Context, id, actorID string) error {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Repo.DeleteSnapshot(ctx, tx, id); err != nil {
		return err
	}
	if err := e.Events.Append(ctx, tx, events.SnapshotDelete, "snapshot", id, actor(actorID), nil); err != nil {
		return err
	}
	return tx.Commit()
}

// LoadSnapshot decodes a stored snapshot.
func (e *Engine) LoadSnapshot(ctx context.Context, id string) (*snapshot.Snapshot, error) {
	id, err := e.ResolveID(ctx, id)
	if err != nil {
		return nil, err
	}
	payload, err := e.Repo.SnapshotPayload(ctx, id)
	if err != nil {
		return nil, err
	}
	return snapshot.Parse(payload, snapshot.FormatJSON)
}

// Observer picks the perspective: an explicit override, then the configured
// observer; empty leaves the snapshot's own.
func (e *Engine) Observer(override string) string {
	if o := strings.TrimSpace(override); o != "" {
		return o
	}
	return e.Config.Observer
}

// LoadView loads a stored snapshot bound to an observer.
func (e *Engine) LoadView(ctx context.Context, id, observer string) (*snapshot.View, error) {
	snap, err := e.LoadSnapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	return snapshot.NewView(snap, e.Observer(observer))
}

// GenerateOptions override the configured output for one run.
type GenerateOptions struct {
	Dir        string
	Only       []string
	SnapshotID string
	ActorID    string
}

// Generate writes the selected reports for v. Report failures are returned
// joined, next to the results of the reports that did succeed.
func (e *Engine) Generate(ctx context.Context, v *snapshot.View, opts GenerateOptions) ([]generator.Result, error) {
	dir := opts.Dir
	if dir == "" {
		dir = e.Config.Output.Dir
	}
	only := opts.Only
	if len(only) == 0 {
		only = e.Config.Output.Reports
	}
	gen, err := generator.New(dir, only, e.Log.Named("generator"))
	if err != nil {
		return nil, err
	}
	e.genMu.Lock()
	defer e.genMu.Unlock()
	results, runErr := gen.Run(ctx, v)
	if opts.SnapshotID != "" {
		if err := e.recordGenerate(ctx, opts, dir, results); err != nil {
			e.Log.Warn("record generate event", zap.Error(err))
		}
	}
	return results, runErr
}

func (e *Engine) recordGenerate(ctx context.Context, opts GenerateOptions, dir string, results []generator.Result) error {
	var written, failed []string
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r.Report)
		} else {
			written = append(written, r.Report)
		}
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Events.Append(ctx, tx, events.ReportGenerate, "snapshot", opts.SnapshotID, actor(opts.ActorID), events.EventPayload{
		"dir":     dir,
		"written": written,
		"failed":  failed,
	}); err != nil {
		return err
	}
	return tx.Commit()
}

// RenderReport renders a single report into memory.
func (e *Engine) RenderReport(v *snapshot.View, name string) ([]byte, error) {
	r, ok := reports.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown report %q: %w", name, repo.ErrNotFound)
	}
	return generator.Render(r, v)
}

// ImportAndGenerate is what the watcher and MQTT triggers run for a new file.
func (e *Engine) ImportAndGenerate(ctx context.Context, opts ImportOptions) (domain.Snapshot, []generator.Result, error) {
	rec, err := e.ImportSnapshot(ctx, opts)
	if err != nil {
		return domain.Snapshot{}, nil, err
	}
	v, err := e.LoadView(ctx, rec.ID, "")
	if err != nil {
		return rec, nil, err
	}
	results, err := e.Generate(ctx, v, GenerateOptions{SnapshotID: rec.ID, ActorID: opts.ActorID})
	return rec, results, err
}

// CreateAPIKey mints a random key for actorID. The plain key is only
// returned here; the store keeps its hash.
func (e *Engine) CreateAPIKey(ctx context.Context, actorID, name string) (domain.APIKey, string, error) {
	if strings.TrimSpace(actorID) == "" {
		return domain.APIKey{}, "", errors.New("actor_id required")
	}
	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return domain.APIKey{}, "", err
	}
	plain := "tirep_" + hex.EncodeToString(raw)
	key := domain.APIKey{
		ID:        uuid.NewString(),
		ActorID:   actorID,
		Name:      name,
		KeyHash:   repo.HashAPIKey(plain),
		CreatedAt: e.now().UTC().Format(time.RFC3339),
	}
	if err := e.Repo.InsertAPIKey(ctx, nil, key); err != nil {
		return domain.APIKey{}, "", err
	}
	return key, plain, nil
}
