// Package search indexes hooks and messaging angles for full-text
// lookup. Meilisearch is the primary backend; a Postgres ILIKE scan
// covers for it while it is unreachable.
package search

// ResultType identifies the kind of entity in a search result.
type ResultType string

const (
	ResultHook  ResultType = "hook"
	ResultAngle ResultType = "angle"
)

// Result is a single search hit returned to the caller.
type Result struct {
	Type      ResultType `json:"type"`
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Snippet   string     `json:"snippet"`
	ProjectID string     `json:"projectId"`
}

// Query describes a search request, always scoped to one project.
type Query struct {
	Text       string
	ProjectID  string
	FilterType ResultType // empty = both types
	Limit      int
	Offset     int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// HookRecord is the data indexed for a hook.
type HookRecord struct {
	ID         string `json:"id"`
	Content    string `json:"content"`
	Type       string `json:"type"`
	Stage      string `json:"stage"`
	AngleTitle string `json:"angleTitle"`
	ProjectID  string `json:"projectId"`
}

// AngleRecord is the data indexed for a messaging angle.
type AngleRecord struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Tone        string `json:"tone"`
	ProjectID   string `json:"projectId"`
}
