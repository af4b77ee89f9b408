package domain

// Snapshot is the stored metadata of an imported snapshot. The snapshot body
// itself is only read through repo.Repo.SnapshotPayload.
type Snapshot struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	GameDate  string `json:"game_date"`
	Observer  string `json:"observer"`
	Source    string `json:"source,omitempty"`
	SizeBytes int64  `json:"size_bytes"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type" enum:"snapshot.import,snapshot.delete,report.generate"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}

type APIKey struct {
	ID        string `json:"id"`
	ActorID   string `json:"actor_id"`
	Name      string `json:"name,omitempty"`
	KeyHash   string `json:"key_hash"`
	CreatedAt string `json:"created_at" format:"date-time"`
}
