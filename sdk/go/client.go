package tirepsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal tirep HTTP API client.
type Client struct {
	BaseURL     string
	BasePath    string
	APIKey      string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:  baseURL,
		BasePath: "/v0",
		Timeout:  10 * time.Second,
	}
}

// Snapshot is the stored metadata of an imported snapshot.
type Snapshot struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	GameDate  string `json:"game_date"`
	Observer  string `json:"observer"`
	Source    string `json:"source,omitempty"`
	SizeBytes int64  `json:"size_bytes"`
	CreatedAt string `json:"created_at"`
}

type Report struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

// Event represents an audit log entry.
type Event struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts"`
	Type       string         `json:"type"`
	EntityKind string         `json:"entity_kind"`
	EntityID   string         `json:"entity_id"`
	ActorID    string         `json:"actor_id"`
	Payload    map[string]any `json:"payload"`
}

// PaginatedEvents wraps list responses with cursors.
type PaginatedEvents struct {
	Items      []Event `json:"items"`
	NextCursor string  `json:"next_cursor"`
}

// TechExport mirrors the structured technology export. Progress is kept as
// the server's {done, cost} pair; Completion is a fraction between 0 and 1.
type TechExport struct {
	Date        string `json:"date"`
	Observer    string `json:"observer"`
	GlobalTechs []struct {
		Name                string          `json:"name"`
		Status              string          `json:"status"`
		Progress            json.RawMessage `json:"progress"`
		Completion          float32         `json:"completion"`
		RemainingTreeCost   float32         `json:"remaining_tree_cost"`
		LargestContribution string          `json:"largest_contribution"`
	} `json:"global_techs"`
	FactionProjects []struct {
		Name               string          `json:"name"`
		Status             string          `json:"status"`
		Progress           json.RawMessage `json:"progress"`
		Completion         float32         `json:"completion"`
		RemainingTreeCost  float32         `json:"remaining_tree_cost"`
		CompletedByFaction []string        `json:"completed_by_factions"`
		AllowedForFactions []string        `json:"allowed_for_factions"`
	} `json:"faction_projects"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// ImportSnapshot uploads a snapshot document. format is "yaml" or "json".
func (c *Client) ImportSnapshot(ctx context.Context, name, format string, content []byte) (Snapshot, error) {
	body := map[string]any{
		"name":    name,
		"format":  format,
		"content": string(content),
	}
	var resp Snapshot
	err := c.do(ctx, http.MethodPost, "snapshots", body, &resp)
	return resp, err
}

// ListSnapshots returns snapshots newest first.
func (c *Client) ListSnapshots(ctx context.Context, limit int) ([]Snapshot, error) {
	endpoint := "snapshots"
	if limit > 0 {
		endpoint = fmt.Sprintf("%s?limit=%d", endpoint, limit)
	}
	var resp struct {
		Items []Snapshot `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp.Items, err
}

// GetSnapshot fetches metadata by id; "latest" resolves the newest.
func (c *Client) GetSnapshot(ctx context.Context, id string) (Snapshot, error) {
	var resp Snapshot
	err := c.do(ctx, http.MethodGet, "snapshots/"+url.PathEscape(id), nil, &resp)
	return resp, err
}

func (c *Client) DeleteSnapshot(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "snapshots/"+url.PathEscape(id), nil, nil)
}

// Reports lists the report catalogue.
func (c *Client) Reports(ctx context.Context) ([]Report, error) {
	var resp struct {
		Items []Report `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, "reports", nil, &resp)
	return resp.Items, err
}

// RenderReport returns one report as Markdown. An empty observer uses the
// server's default perspective.
func (c *Client) RenderReport(ctx context.Context, snapshotID, name, observer string) ([]byte, error) {
	endpoint := fmt.Sprintf("snapshots/%s/reports/%s", url.PathEscape(snapshotID), url.PathEscape(name))
	if observer != "" {
		endpoint += "?observer=" + url.QueryEscape(observer)
	}
	var buf bytes.Buffer
	err := c.do(ctx, http.MethodGet, endpoint, nil, &buf)
	return buf.Bytes(), err
}

// Export returns the structured technology export.
func (c *Client) Export(ctx context.Context, snapshotID, observer string) (TechExport, error) {
	endpoint := fmt.Sprintf("snapshots/%s/export", url.PathEscape(snapshotID))
	if observer != "" {
		endpoint += "?observer=" + url.QueryEscape(observer)
	}
	var resp TechExport
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// EventsPage returns a paginated event listing.
func (c *Client) EventsPage(ctx context.Context, limit int, cursor string) (PaginatedEvents, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	endpoint := "events"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	var resp PaginatedEvents
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// do sends a request. out may be nil, an io.Writer for raw bodies, or a
// value to decode JSON into.
func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	switch dst := out.(type) {
	case nil:
		return nil
	case io.Writer:
		_, err := io.Copy(dst, resp.Body)
		return err
	default:
		return json.NewDecoder(resp.Body).Decode(out)
	}
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/") + "/" + strings.Trim(c.BasePath, "/")
}
