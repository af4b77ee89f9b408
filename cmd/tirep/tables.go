package main

import (
	"time"

	"github.com/dustin/go-humanize"

	"tirep/internal/domain"
	"tirep/internal/generator"
	"tirep/internal/reports"
	"tirep/internal/schema"
)

// Terminal listings reuse the report schemas and renderers.

var snapshotTable = schema.New[domain.Snapshot]().
	Add(schema.Field("ID", func(s domain.Snapshot) string { return s.ID })).
	Add(schema.Field("Name", func(s domain.Snapshot) string { return s.Name })).
	Add(schema.Field("Date", func(s domain.Snapshot) string { return s.GameDate })).
	Add(schema.Field("Observer", func(s domain.Snapshot) string { return s.Observer })).
	Add(schema.FieldFunc("Size", func(s domain.Snapshot) int64 { return s.SizeBytes }, func(n int64) string { return humanize.Bytes(uint64(n)) })).
	Add(schema.FieldFunc("Imported", func(s domain.Snapshot) string { return s.CreatedAt }, importedAgo))

var reportTable = schema.New[reports.Report]().
	Add(schema.Field("Name", func(r reports.Report) string { return r.Name })).
	Add(schema.Field("Title", func(r reports.Report) string { return r.Title }))

var resultTable = schema.New[generator.Result]().
	Add(schema.Field("Report", func(r generator.Result) string { return r.Report })).
	Add(schema.Field("File", func(r generator.Result) string { return r.Path })).
	Add(schema.FieldFunc("Size", func(r generator.Result) int { return r.Bytes }, func(n int) string { return humanize.Bytes(uint64(n)) })).
	Add(schema.Field("Took", func(r generator.Result) time.Duration { return r.Duration.Round(time.Microsecond) })).
	Add(schema.FieldFunc("Error", func(r generator.Result) error { return r.Err }, func(err error) string {
		if err == nil {
			return ""
		}
		return err.Error()
	}))

var apiKeyTable = schema.New[domain.APIKey]().
	Add(schema.Field("ID", func(k domain.APIKey) string { return k.ID })).
	Add(schema.Field("Actor", func(k domain.APIKey) string { return k.ActorID })).
	Add(schema.Field("Name", func(k domain.APIKey) string { return k.Name })).
	Add(schema.FieldFunc("Created", func(k domain.APIKey) string { return k.CreatedAt }, importedAgo))

var eventTable = schema.New[domain.Event]().
	Add(schema.Field("ID", func(e domain.Event) int64 { return e.ID })).
	Add(schema.Field("Time", func(e domain.Event) string { return e.TS })).
	Add(schema.Field("Type", func(e domain.Event) string { return e.Type })).
	Add(schema.Field("Entity", func(e domain.Event) string { return e.EntityKind + ":" + e.EntityID })).
	Add(schema.Field("Actor", func(e domain.Event) string { return e.ActorID }))

func importedAgo(ts string) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return humanize.Time(t)
}
