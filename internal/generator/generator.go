// Package generator runs reports over a snapshot and writes each one to
// <dir>/<name>.md. A report that fails is logged and skipped; the others still
// run.
package generator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"tirep/internal/reports"
	"tirep/internal/snapshot"
)

// ErrPanic marks a report aborted by a panic while rendering.
var ErrPanic = errors.New("report panicked")

// ReportError is the failure of one report.
type ReportError struct {
	Report string
	Err    error
}

func (e *ReportError) Error() string {
	return fmt.Sprintf("report %s: %v", e.Report, e.Err)
}

func (e *ReportError) Unwrap() error { return e.Err }

// Result describes one report of a run.
type Result struct {
	Report   string        `json:"report"`
	Path     string        `json:"path,omitempty"`
	Bytes    int           `json:"bytes"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

type Generator struct {
	Dir     string
	Reports []reports.Report
	Log     *zap.Logger
}

// New selects reports by name; an empty list selects the whole catalogue.
func New(dir string, only []string, log *zap.Logger) (*Generator, error) {
	if log == nil {
		log = zap.NewNop()
	}
	selected, err := Select(only)
	if err != nil {
		return nil, err
	}
	return &Generator{Dir: dir, Reports: selected, Log: log}, nil
}

// Select resolves report names against the catalogue, keeping catalogue order.
func Select(only []string) ([]reports.Report, error) {
	if len(only) == 0 {
		return reports.All(), nil
	}
	want := map[string]bool{}
	for _, name := range only {
		if _, ok := reports.Lookup(name); !ok {
			return nil, fmt.Errorf("unknown report %q", name)
		}
		want[name] = true
	}
	var out []reports.Report
	for _, r := range reports.All() {
		if want[r.Name] {
			out = append(out, r)
		}
	}
	return out, nil
}

// Render generates one report into memory. A panic inside the report is
// returned as a *ReportError wrapping ErrPanic.
func Render(r reports.Report, v *snapshot.View) (out []byte, err error) {
	var buf bytes.Buffer
	defer func() {
		if p := recover(); p != nil {
			err = &ReportError{Report: r.Name, Err: fmt.Errorf("%w: %v\n%s", ErrPanic, p, debug.Stack())}
		}
	}()
	if err := r.Generate(&buf, v); err != nil {
		return nil, &ReportError{Report: r.Name, Err: err}
	}
	return buf.Bytes(), nil
}

// Path is where a report lands inside dir.
func Path(dir, name string) string {
	return filepath.Join(dir, name+".md")
}

// Run generates every selected report in order. Failed reports leave no file
// behind and are collected into the returned error; Run stops early only when
// ctx is done or the output directory cannot be created.
func (g *Generator) Run(ctx context.Context, v *snapshot.View) ([]Result, error) {
	if err := os.MkdirAll(g.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}
	var results []Result
	var errs []error
	for _, r := range g.Reports {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res := g.runOne(r, v)
		if res.Err != nil {
			errs = append(errs, res.Err)
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

func (g *Generator) runOne(r reports.Report, v *snapshot.View) Result {
	log := g.Log.With(zap.String("report", r.Name))
	log.Info("generating report")
	start := time.Now()
	res := Result{Report: r.Name}

	out, err := Render(r, v)
	if err == nil {
		path := Path(g.Dir, r.Name)
		if err = os.WriteFile(path, out, 0o644); err != nil {
			err = &ReportError{Report: r.Name, Err: err}
		} else {
			res.Path = path
			res.Bytes = len(out)
		}
	}
	res.Duration = time.Since(start)
	if err != nil {
		res.Err = err
		log.Error("report failed", zap.Error(err))
		return res
	}
	log.Info("report written", zap.String("path", res.Path), zap.Duration("took", res.Duration))
	return res
}
