package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"briefforge/api/internal/graph"
	"briefforge/api/internal/util"
)

// PostgresStore is the remote source of truth for funnel rows. It
// offers plain per-row CRUD: IDs are assigned here, every insert and
// update returns the canonical row, and deletes never cascade; the
// sync engine does its own cascade bookkeeping with separate calls.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// --- projects ------------------------------------------------------------

func (s *PostgresStore) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, created_at, updated_at
		FROM projects
		ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	items := make([]Project, 0)
	for rows.Next() {
		var item Project
		if err := rows.Scan(&item.ID, &item.Name, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) CreateProject(ctx context.Context, name string) (Project, error) {
	var item Project
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO projects (id, name)
		VALUES ($1, $2)
		RETURNING id, name, created_at, updated_at
	`, util.NewID("proj"), name).Scan(&item.ID, &item.Name, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return Project{}, fmt.Errorf("insert project: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) GetProject(ctx context.Context, projectID string) (Project, error) {
	var item Project
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, created_at, updated_at
		FROM projects
		WHERE id=$1
	`, projectID).Scan(&item.ID, &item.Name, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return Project{}, err
	}
	return item, nil
}

func (s *PostgresStore) TouchProject(ctx context.Context, projectID string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE projects SET updated_at=NOW() WHERE id=$1`, projectID)
	if err != nil {
		return fmt.Errorf("touch project: %w", err)
	}
	return nil
}

// --- hydration -----------------------------------------------------------

// LoadProject reads every funnel row for one project and assembles a
// fresh graph from them. Safe to call repeatedly for the same project.
func (s *PostgresStore) LoadProject(ctx context.Context, projectID string) (*graph.Graph, error) {
	g := graph.New(projectID)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, name, description, sort_order
		FROM audiences
		WHERE project_id=$1
		ORDER BY sort_order, id
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("load audiences: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var a graph.Audience
		if err := rows.Scan(&a.ID, &a.ProjectID, &a.Name, &a.Description, &a.SortOrder); err != nil {
			return nil, fmt.Errorf("scan audience: %w", err)
		}
		g.Audiences[a.ID] = a
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audiences: %w", err)
	}

	pdRows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, kind, title, description, intensity, sort_order
		FROM pain_desires
		WHERE project_id=$1
		ORDER BY sort_order, id
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("load pain desires: %w", err)
	}
	defer pdRows.Close()
	for pdRows.Next() {
		var p graph.PainDesire
		if err := pdRows.Scan(&p.ID, &p.ProjectID, &p.Kind, &p.Title, &p.Description, &p.Intensity, &p.SortOrder); err != nil {
			return nil, fmt.Errorf("scan pain desire: %w", err)
		}
		g.PainDesires[p.ID] = p
	}
	if err := pdRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pain desires: %w", err)
	}

	linkRows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, pain_desire_id, audience_id, sort_order
		FROM pain_desire_audience_links
		WHERE project_id=$1
		ORDER BY sort_order, id
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("load links: %w", err)
	}
	defer linkRows.Close()
	for linkRows.Next() {
		var l graph.PainDesireAudienceLink
		if err := linkRows.Scan(&l.ID, &l.ProjectID, &l.PainDesireID, &l.AudienceID, &l.SortOrder); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		g.Links[l.ID] = l
	}
	if err := linkRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate links: %w", err)
	}

	angleRows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, pain_desire_id, audience_id, title, description, tone, origin, lenses, sort_order
		FROM messaging_angles
		WHERE project_id=$1
		ORDER BY sort_order, id
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("load angles: %w", err)
	}
	defer angleRows.Close()
	for angleRows.Next() {
		a, err := scanAngle(angleRows)
		if err != nil {
			return nil, err
		}
		g.Angles[a.ID] = a
	}
	if err := angleRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate angles: %w", err)
	}

	hookRows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, messaging_angle_id, type, content, awareness_stage, starred, origin, sort_order
		FROM hooks
		WHERE project_id=$1
		ORDER BY awareness_stage, sort_order, id
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("load hooks: %w", err)
	}
	defer hookRows.Close()
	for hookRows.Next() {
		var h graph.Hook
		if err := hookRows.Scan(&h.ID, &h.ProjectID, &h.MessagingAngleID, &h.Type, &h.Content, &h.Stage, &h.Starred, &h.Origin, &h.SortOrder); err != nil {
			return nil, fmt.Errorf("scan hook: %w", err)
		}
		g.Hooks[h.ID] = h
	}
	if err := hookRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hooks: %w", err)
	}

	execRows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, hook_id, template_id, concept_notes, sort_order
		FROM format_executions
		WHERE project_id=$1
		ORDER BY sort_order, id
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("load executions: %w", err)
	}
	defer execRows.Close()
	for execRows.Next() {
		var e graph.FormatExecution
		if err := execRows.Scan(&e.ID, &e.ProjectID, &e.HookID, &e.TemplateID, &e.ConceptNotes, &e.SortOrder); err != nil {
			return nil, fmt.Errorf("scan execution: %w", err)
		}
		g.Executions[e.ID] = e
	}
	if err := execRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate executions: %w", err)
	}

	return g, nil
}

// --- audiences -----------------------------------------------------------

func (s *PostgresStore) CreateAudience(ctx context.Context, a graph.Audience) (graph.Audience, error) {
	var item graph.Audience
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO audiences (id, project_id, name, description, sort_order)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, project_id, name, description, sort_order
	`, util.NewID("aud"), a.ProjectID, a.Name, a.Description, a.SortOrder).Scan(
		&item.ID, &item.ProjectID, &item.Name, &item.Description, &item.SortOrder,
	)
	if err != nil {
		return graph.Audience{}, fmt.Errorf("insert audience: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) UpdateAudience(ctx context.Context, a graph.Audience) (graph.Audience, error) {
	var item graph.Audience
	err := s.db.QueryRowContext(ctx, `
		UPDATE audiences
		SET name=$2, description=$3, sort_order=$4, updated_at=NOW()
		WHERE id=$1
		RETURNING id, project_id, name, description, sort_order
	`, a.ID, a.Name, a.Description, a.SortOrder).Scan(
		&item.ID, &item.ProjectID, &item.Name, &item.Description, &item.SortOrder,
	)
	if err != nil {
		return graph.Audience{}, fmt.Errorf("update audience: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) DeleteAudience(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM audiences WHERE id=$1`, id); err != nil {
		return fmt.Errorf("delete audience: %w", err)
	}
	return nil
}

// --- pain/desires --------------------------------------------------------

func (s *PostgresStore) CreatePainDesire(ctx context.Context, p graph.PainDesire) (graph.PainDesire, error) {
	var item graph.PainDesire
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO pain_desires (id, project_id, kind, title, description, intensity, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, project_id, kind, title, description, intensity, sort_order
	`, util.NewID("pd"), p.ProjectID, p.Kind, p.Title, p.Description, p.Intensity, p.SortOrder).Scan(
		&item.ID, &item.ProjectID, &item.Kind, &item.Title, &item.Description, &item.Intensity, &item.SortOrder,
	)
	if err != nil {
		return graph.PainDesire{}, fmt.Errorf("insert pain desire: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) UpdatePainDesire(ctx context.Context, p graph.PainDesire) (graph.PainDesire, error) {
	var item graph.PainDesire
	err := s.db.QueryRowContext(ctx, `
		UPDATE pain_desires
		SET kind=$2, title=$3, description=$4, intensity=$5, sort_order=$6, updated_at=NOW()
		WHERE id=$1
		RETURNING id, project_id, kind, title, description, intensity, sort_order
	`, p.ID, p.Kind, p.Title, p.Description, p.Intensity, p.SortOrder).Scan(
		&item.ID, &item.ProjectID, &item.Kind, &item.Title, &item.Description, &item.Intensity, &item.SortOrder,
	)
	if err != nil {
		return graph.PainDesire{}, fmt.Errorf("update pain desire: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) DeletePainDesire(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM pain_desires WHERE id=$1`, id); err != nil {
		return fmt.Errorf("delete pain desire: %w", err)
	}
	return nil
}

// --- links ---------------------------------------------------------------

func (s *PostgresStore) CreateLink(ctx context.Context, l graph.PainDesireAudienceLink) (graph.PainDesireAudienceLink, error) {
	var item graph.PainDesireAudienceLink
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO pain_desire_audience_links (id, project_id, pain_desire_id, audience_id, sort_order)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, project_id, pain_desire_id, audience_id, sort_order
	`, util.NewID("lnk"), l.ProjectID, l.PainDesireID, l.AudienceID, l.SortOrder).Scan(
		&item.ID, &item.ProjectID, &item.PainDesireID, &item.AudienceID, &item.SortOrder,
	)
	if err != nil {
		return graph.PainDesireAudienceLink{}, fmt.Errorf("insert link: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) DeleteLink(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM pain_desire_audience_links WHERE id=$1`, id); err != nil {
		return fmt.Errorf("delete link: %w", err)
	}
	return nil
}

// --- messaging angles ----------------------------------------------------

func (s *PostgresStore) CreateAngle(ctx context.Context, a graph.MessagingAngle) (graph.MessagingAngle, error) {
	lenses, err := marshalLenses(a.Lenses)
	if err != nil {
		return graph.MessagingAngle{}, err
	}
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO messaging_angles (id, project_id, pain_desire_id, audience_id, title, description, tone, origin, lenses, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, project_id, pain_desire_id, audience_id, title, description, tone, origin, lenses, sort_order
	`, util.NewID("ang"), a.ProjectID, a.PainDesireID, a.AudienceID, a.Title, a.Description, a.Tone, a.Origin, lenses, a.SortOrder)
	item, err := scanAngle(row)
	if err != nil {
		return graph.MessagingAngle{}, fmt.Errorf("insert angle: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) UpdateAngle(ctx context.Context, a graph.MessagingAngle) (graph.MessagingAngle, error) {
	lenses, err := marshalLenses(a.Lenses)
	if err != nil {
		return graph.MessagingAngle{}, err
	}
	row := s.db.QueryRowContext(ctx, `
		UPDATE messaging_angles
		SET title=$2, description=$3, tone=$4, origin=$5, lenses=$6, sort_order=$7, updated_at=NOW()
		WHERE id=$1
		RETURNING id, project_id, pain_desire_id, audience_id, title, description, tone, origin, lenses, sort_order
	`, a.ID, a.Title, a.Description, a.Tone, a.Origin, lenses, a.SortOrder)
	item, err := scanAngle(row)
	if err != nil {
		return graph.MessagingAngle{}, fmt.Errorf("update angle: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) DeleteAngle(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM messaging_angles WHERE id=$1`, id); err != nil {
		return fmt.Errorf("delete angle: %w", err)
	}
	return nil
}

// --- hooks ---------------------------------------------------------------

func (s *PostgresStore) CreateHook(ctx context.Context, h graph.Hook) (graph.Hook, error) {
	var item graph.Hook
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO hooks (id, project_id, messaging_angle_id, type, content, awareness_stage, starred, origin, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, project_id, messaging_angle_id, type, content, awareness_stage, starred, origin, sort_order
	`, util.NewID("hk"), h.ProjectID, h.MessagingAngleID, h.Type, h.Content, h.Stage, h.Starred, h.Origin, h.SortOrder).Scan(
		&item.ID, &item.ProjectID, &item.MessagingAngleID, &item.Type, &item.Content, &item.Stage, &item.Starred, &item.Origin, &item.SortOrder,
	)
	if err != nil {
		return graph.Hook{}, fmt.Errorf("insert hook: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) UpdateHook(ctx context.Context, h graph.Hook) (graph.Hook, error) {
	var item graph.Hook
	err := s.db.QueryRowContext(ctx, `
		UPDATE hooks
		SET type=$2, content=$3, awareness_stage=$4, starred=$5, origin=$6, sort_order=$7, updated_at=NOW()
		WHERE id=$1
		RETURNING id, project_id, messaging_angle_id, type, content, awareness_stage, starred, origin, sort_order
	`, h.ID, h.Type, h.Content, h.Stage, h.Starred, h.Origin, h.SortOrder).Scan(
		&item.ID, &item.ProjectID, &item.MessagingAngleID, &item.Type, &item.Content, &item.Stage, &item.Starred, &item.Origin, &item.SortOrder,
	)
	if err != nil {
		return graph.Hook{}, fmt.Errorf("update hook: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) DeleteHook(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM hooks WHERE id=$1`, id); err != nil {
		return fmt.Errorf("delete hook: %w", err)
	}
	return nil
}

// CreateHookBatch inserts all hooks in one transaction. The batch path
// exists to give "accept all suggestions" store-level atomicity the
// core cannot compose from per-row calls: any failure rolls the whole
// transaction back and returns no rows.
func (s *PostgresStore) CreateHookBatch(ctx context.Context, hooks []graph.Hook) ([]graph.Hook, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin hook batch: %w", err)
	}

	items := make([]graph.Hook, 0, len(hooks))
	for _, h := range hooks {
		var item graph.Hook
		err := tx.QueryRowContext(ctx, `
			INSERT INTO hooks (id, project_id, messaging_angle_id, type, content, awareness_stage, starred, origin, sort_order)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id, project_id, messaging_angle_id, type, content, awareness_stage, starred, origin, sort_order
		`, util.NewID("hk"), h.ProjectID, h.MessagingAngleID, h.Type, h.Content, h.Stage, h.Starred, h.Origin, h.SortOrder).Scan(
			&item.ID, &item.ProjectID, &item.MessagingAngleID, &item.Type, &item.Content, &item.Stage, &item.Starred, &item.Origin, &item.SortOrder,
		)
		if err != nil {
			_ = tx.Rollback()
			return nil, fmt.Errorf("insert batch hook: %w", err)
		}
		items = append(items, item)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit hook batch: %w", err)
	}
	return items, nil
}

// --- format executions ---------------------------------------------------

func (s *PostgresStore) CreateExecution(ctx context.Context, e graph.FormatExecution) (graph.FormatExecution, error) {
	var item graph.FormatExecution
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO format_executions (id, project_id, hook_id, template_id, concept_notes, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, project_id, hook_id, template_id, concept_notes, sort_order
	`, util.NewID("fx"), e.ProjectID, e.HookID, e.TemplateID, e.ConceptNotes, e.SortOrder).Scan(
		&item.ID, &item.ProjectID, &item.HookID, &item.TemplateID, &item.ConceptNotes, &item.SortOrder,
	)
	if err != nil {
		return graph.FormatExecution{}, fmt.Errorf("insert execution: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) UpdateExecution(ctx context.Context, e graph.FormatExecution) (graph.FormatExecution, error) {
	var item graph.FormatExecution
	err := s.db.QueryRowContext(ctx, `
		UPDATE format_executions
		SET template_id=$2, concept_notes=$3, sort_order=$4, updated_at=NOW()
		WHERE id=$1
		RETURNING id, project_id, hook_id, template_id, concept_notes, sort_order
	`, e.ID, e.TemplateID, e.ConceptNotes, e.SortOrder).Scan(
		&item.ID, &item.ProjectID, &item.HookID, &item.TemplateID, &item.ConceptNotes, &item.SortOrder,
	)
	if err != nil {
		return graph.FormatExecution{}, fmt.Errorf("update execution: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) DeleteExecution(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM format_executions WHERE id=$1`, id); err != nil {
		return fmt.Errorf("delete execution: %w", err)
	}
	return nil
}

// --- share links ---------------------------------------------------------

func (s *PostgresStore) InsertShareLink(ctx context.Context, link ShareLink) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO share_links (id, token, project_id, created_by, password_hash, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, link.ID, link.Token, link.ProjectID, link.CreatedBy, link.PasswordHash, link.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert share link: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetShareLinkByToken(ctx context.Context, token string) (ShareLink, error) {
	var link ShareLink
	err := s.db.QueryRowContext(ctx, `
		SELECT id, token, project_id, created_by, password_hash, expires_at, access_count, last_accessed_at, created_at, revoked_at
		FROM share_links
		WHERE token=$1
	`, token).Scan(
		&link.ID, &link.Token, &link.ProjectID, &link.CreatedBy, &link.PasswordHash,
		&link.ExpiresAt, &link.AccessCount, &link.LastAccessedAt, &link.CreatedAt, &link.RevokedAt,
	)
	if err != nil {
		return ShareLink{}, err
	}
	return link, nil
}

func (s *PostgresStore) TouchShareLink(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE share_links
		SET access_count=access_count+1, last_accessed_at=NOW()
		WHERE id=$1
	`, id)
	if err != nil {
		return fmt.Errorf("touch share link: %w", err)
	}
	return nil
}

func (s *PostgresStore) RevokeShareLink(ctx context.Context, id string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE share_links SET revoked_at=NOW()
		WHERE id=$1 AND revoked_at IS NULL
	`, id)
	if err != nil {
		return false, fmt.Errorf("revoke share link: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("revoke share link rows: %w", err)
	}
	return affected > 0, nil
}

// --- brief exports -------------------------------------------------------

func (s *PostgresStore) InsertBriefExport(ctx context.Context, export BriefExport) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO brief_exports (id, project_id, commit_hash, artifact_url, exported_by)
		VALUES ($1, $2, $3, $4, $5)
	`, export.ID, export.ProjectID, export.CommitHash, export.ArtifactURL, export.ExportedBy)
	if err != nil {
		return fmt.Errorf("insert brief export: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListBriefExports(ctx context.Context, projectID string, limit int) ([]BriefExport, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, commit_hash, artifact_url, exported_by, created_at
		FROM brief_exports
		WHERE project_id=$1
		ORDER BY created_at DESC
		LIMIT $2
	`, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("list brief exports: %w", err)
	}
	defer rows.Close()

	items := make([]BriefExport, 0)
	for rows.Next() {
		var item BriefExport
		if err := rows.Scan(&item.ID, &item.ProjectID, &item.CommitHash, &item.ArtifactURL, &item.ExportedBy, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan brief export: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate brief exports: %w", err)
	}
	return items, nil
}

// --- helpers -------------------------------------------------------------

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAngle(row rowScanner) (graph.MessagingAngle, error) {
	var a graph.MessagingAngle
	var lenses []byte
	if err := row.Scan(&a.ID, &a.ProjectID, &a.PainDesireID, &a.AudienceID, &a.Title, &a.Description, &a.Tone, &a.Origin, &lenses, &a.SortOrder); err != nil {
		return graph.MessagingAngle{}, fmt.Errorf("scan angle: %w", err)
	}
	if len(lenses) > 0 {
		if err := json.Unmarshal(lenses, &a.Lenses); err != nil {
			return graph.MessagingAngle{}, fmt.Errorf("decode angle lenses: %w", err)
		}
	}
	return a, nil
}

func marshalLenses(lenses map[string]string) ([]byte, error) {
	if lenses == nil {
		lenses = map[string]string{}
	}
	payload, err := json.Marshal(lenses)
	if err != nil {
		return nil, fmt.Errorf("encode angle lenses: %w", err)
	}
	return payload, nil
}

// IsNotFound reports whether err denotes a missing row.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
