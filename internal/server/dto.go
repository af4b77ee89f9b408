package server

import (
	"encoding/json"

	"tirep/internal/domain"
	"tirep/internal/reports"
)

// Request payloads

type ImportSnapshotRequest struct {
	Name    string `json:"name,omitempty"`
	Format  string `json:"format,omitempty" enum:"yaml,json" default:"yaml"`
	Content string `json:"content" doc:"Snapshot document in the given format"`
}

// Response payloads

type SnapshotResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	GameDate  string `json:"game_date"`
	Observer  string `json:"observer"`
	Source    string `json:"source,omitempty"`
	SizeBytes int64  `json:"size_bytes"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type snapshotList struct {
	Items []SnapshotResponse `json:"items"`
}

type ReportInfo struct {
	Name  string `json:"name" example:"technology"`
	Title string `json:"title" example:"Tech Report"`
}

type reportList struct {
	Items []ReportInfo `json:"items"`
}

type EventResponse struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts" format:"date-time"`
	Type       string         `json:"type"`
	EntityKind string         `json:"entity_kind"`
	EntityID   string         `json:"entity_id,omitempty"`
	ActorID    string         `json:"actor_id"`
	Payload    map[string]any `json:"payload"`
}

type paginatedEvents struct {
	Items      []EventResponse `json:"items"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

// Conversion helpers

func snapshotResponse(s domain.Snapshot) SnapshotResponse {
	return SnapshotResponse(s)
}

func snapshotResponses(items []domain.Snapshot) []SnapshotResponse {
	out := make([]SnapshotResponse, 0, len(items))
	for _, s := range items {
		out = append(out, snapshotResponse(s))
	}
	return out
}

func reportInfos(items []reports.Report) []ReportInfo {
	out := make([]ReportInfo, 0, len(items))
	for _, r := range items {
		out = append(out, ReportInfo{Name: r.Name, Title: r.Title})
	}
	return out
}

func eventResponse(e domain.Event) EventResponse {
	return EventResponse{
		ID:         e.ID,
		TS:         e.TS,
		Type:       e.Type,
		EntityKind: e.EntityKind,
		EntityID:   e.EntityID,
		ActorID:    e.ActorID,
		Payload:    decodeJSONMap(e.Payload),
	}
}

func decodeJSONMap(raw string) map[string]any {
	out := map[string]any{}
	if raw == "" {
		return out
	}
	_ = json.Unmarshal([]byte(raw), &out)
	return out
}
