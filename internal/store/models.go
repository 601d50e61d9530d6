package store

import "time"

type Project struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ShareLink grants read-only access to one project's assembled brief.
// PasswordHash is a bcrypt hash, empty when the link is open.
type ShareLink struct {
	ID             string
	Token          string
	ProjectID      string
	CreatedBy      string
	PasswordHash   string
	ExpiresAt      *time.Time
	AccessCount    int
	LastAccessedAt *time.Time
	CreatedAt      time.Time
	RevokedAt      *time.Time
}

// BriefExport records one export run: which commit captured the
// snapshot and where the rendered artifact landed, if anywhere.
type BriefExport struct {
	ID          string
	ProjectID   string
	CommitHash  string
	ArtifactURL string
	ExportedBy  string
	CreatedAt   time.Time
}
