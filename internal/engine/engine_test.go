package engine_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"tirep/internal/config"
	"tirep/internal/db"
	"tirep/internal/engine"
	"tirep/internal/events"
	"tirep/internal/migrate"
	"tirep/internal/repo"
	"tirep/internal/snapshot"
)

const fixture = "../snapshot/testdata/campaign.yaml"

type testEnv struct {
	Engine *engine.Engine
	Ctx    context.Context
	Dir    string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if _, err := migrate.Migrate(context.Background(), conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	cfg := config.Default("")
	cfg.Output.Dir = filepath.Join(dir, "reports")
	eng := engine.New(conn, cfg, nil)
	tick := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	eng.Now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}
	return testEnv{Engine: eng, Ctx: context.Background(), Dir: dir}
}

func (env testEnv) importFixture(t *testing.T, name string) string {
	t.Helper()
	rec, err := env.Engine.ImportSnapshot(env.Ctx, engine.ImportOptions{Path: fixture, Name: name, ActorID: "tester"})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	return rec.ID
}

func TestImportSnapshot(t *testing.T) {
	env := newTestEnv(t)
	rec, err := env.Engine.ImportSnapshot(env.Ctx, engine.ImportOptions{Path: fixture, ActorID: "tester"})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if rec.Name != "campaign" || rec.GameDate != "2031-04-12" || rec.Observer != "resist" {
		t.Fatalf("unexpected record %+v", rec)
	}
	if rec.SizeBytes == 0 || rec.Source != fixture {
		t.Fatalf("expected size and source, got %+v", rec)
	}
	got, err := env.Engine.GetSnapshot(env.Ctx, engine.Latest)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if diff := cmp.Diff(rec, got); diff != "" {
		t.Fatalf("stored record mismatch (-want +got):\n%s", diff)
	}
	evts, err := env.Engine.Repo.LatestEvents(env.Ctx, 10, repo.EventFilter{EntityID: rec.ID})
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(evts) != 1 || evts[0].Type != events.SnapshotImport || evts[0].ActorID != "tester" {
		t.Fatalf("expected one import event, got %+v", evts)
	}
	if !strings.Contains(evts[0].Payload, `"game_date":"2031-04-12"`) {
		t.Fatalf("payload missing game date: %s", evts[0].Payload)
	}
}

func TestImportRejectsInvalidSnapshot(t *testing.T) {
	env := newTestEnv(t)
	data := []byte("date: x\nobserver: nobody\nfactions: []\ntechs: []\nresearch: {}\n")
	_, err := env.Engine.ImportSnapshot(env.Ctx, engine.ImportOptions{Data: data, Format: snapshot.FormatYAML})
	if !errors.Is(err, snapshot.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	if _, err := env.Engine.Repo.LatestSnapshot(env.Ctx); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("nothing should be stored, got %v", err)
	}
}

func TestLatestResolvesNewest(t *testing.T) {
	env := newTestEnv(t)
	env.importFixture(t, "first")
	second := env.importFixture(t, "second")
	id, err := env.Engine.ResolveID(env.Ctx, "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if id != second {
		t.Fatalf("expected %s, got %s", second, id)
	}
	list, err := env.Engine.Repo.ListSnapshots(env.Ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var names []string
	for _, s := range list {
		names = append(names, s.Name)
	}
	if diff := cmp.Diff([]string{"second", "first"}, names); diff != "" {
		t.Fatalf("list order (-want +got):\n%s", diff)
	}
}

func TestResolveWithoutSnapshots(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.Engine.ResolveID(env.Ctx, engine.Latest); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteSnapshot(t *testing.T) {
	env := newTestEnv(t)
	id := env.importFixture(t, "doomed")
	if err := env.Engine.DeleteSnapshot(env.Ctx, id, "tester"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := env.Engine.GetSnapshot(env.Ctx, id); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := env.Engine.DeleteSnapshot(env.Ctx, id, "tester"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("second delete should be ErrNotFound, got %v", err)
	}
	evts, err := env.Engine.Repo.LatestEvents(env.Ctx, 10, repo.EventFilter{Type: events.SnapshotDelete})
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(evts) != 1 || evts[0].EntityID != id {
		t.Fatalf("expected one delete event, got %+v", evts)
	}
}

func TestLoadViewObserver(t *testing.T) {
	env := newTestEnv(t)
	id := env.importFixture(t, "")
	v, err := env.Engine.LoadView(env.Ctx, id, "")
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if v.Observer != "resist" {
		t.Fatalf("expected snapshot observer, got %s", v.Observer)
	}
	env.Engine.Config.Observer = "initiative"
	v, err = env.Engine.LoadView(env.Ctx, id, "")
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if v.Observer != "initiative" {
		t.Fatalf("expected configured observer, got %s", v.Observer)
	}
	if _, err := env.Engine.LoadView(env.Ctx, id, "nobody"); !errors.Is(err, snapshot.ErrInvalid) {
		t.Fatalf("expected ErrInvalid for unknown observer, got %v", err)
	}
}

func TestImportAndGenerate(t *testing.T) {
	env := newTestEnv(t)
	env.Engine.Config.Output.Reports = []string{"technology", "armies"}
	rec, results, err := env.Engine.ImportAndGenerate(env.Ctx, engine.ImportOptions{Path: fixture, ActorID: "watcher"})
	if err != nil {
		t.Fatalf("import and generate: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, name := range []string{"technology", "armies"} {
		if _, err := os.Stat(filepath.Join(env.Engine.Config.Output.Dir, name+".md")); err != nil {
			t.Fatalf("%s not written: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(env.Engine.Config.Output.Dir, "councilors.md")); !os.IsNotExist(err) {
		t.Fatalf("councilors should not be generated, stat err %v", err)
	}
	evts, err := env.Engine.Repo.LatestEvents(env.Ctx, 10, repo.EventFilter{Type: events.ReportGenerate, EntityID: rec.ID})
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(evts) != 1 || !strings.Contains(evts[0].Payload, `"written":["technology","armies"]`) {
		t.Fatalf("unexpected generate events %+v", evts)
	}
}

func TestRenderReport(t *testing.T) {
	env := newTestEnv(t)
	id := env.importFixture(t, "")
	v, err := env.Engine.LoadView(env.Ctx, id, "")
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	out, err := env.Engine.RenderReport(v, "relations")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.HasPrefix(string(out), "# Faction Relations Report as of 2031-04-12\n") {
		t.Fatalf("unexpected heading: %q", strings.SplitN(string(out), "\n", 2)[0])
	}
	if _, err := env.Engine.RenderReport(v, "nope"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown report, got %v", err)
	}
}

func TestCreateAPIKey(t *testing.T) {
	env := newTestEnv(t)
	key, plain, err := env.Engine.CreateAPIKey(env.Ctx, "bot", "ci")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasPrefix(plain, "tirep_") || key.KeyHash == plain {
		t.Fatalf("unexpected key material %q / %q", plain, key.KeyHash)
	}
	got, err := env.Engine.Repo.GetAPIKeyByHash(env.Ctx, repo.HashAPIKey(plain))
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.ActorID != "bot" || got.Name != "ci" {
		t.Fatalf("unexpected stored key %+v", got)
	}
	if _, _, err := env.Engine.CreateAPIKey(env.Ctx, " ", ""); err == nil {
		t.Fatalf("expected error for empty actor")
	}
}
