package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgLike implements Searcher with case-insensitive substring matching
// in Postgres. No ranking; hooks come before angles, then sort order.
type PgLike struct {
	db *sql.DB
}

func NewPgLike(db *sql.DB) *PgLike {
	return &PgLike{db: db}
}

// Healthy always returns true: if Postgres is down, the whole API is.
func (p *PgLike) Healthy() bool {
	return true
}

func (p *PgLike) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	pattern := "%" + q.Text + "%"
	args := []any{pattern, q.ProjectID}

	var subQueries []string
	if q.FilterType == "" || q.FilterType == ResultHook {
		subQueries = append(subQueries, `
			SELECT 'hook'::text AS type, h.id, coalesce(a.title, '') AS title,
				h.content AS snippet, h.project_id, 0 AS bucket, h.sort_order
			FROM hooks h
			LEFT JOIN messaging_angles a ON a.id = h.messaging_angle_id
			WHERE h.content ILIKE $1 AND h.project_id = $2`)
	}
	if q.FilterType == "" || q.FilterType == ResultAngle {
		subQueries = append(subQueries, `
			SELECT 'angle'::text AS type, a.id, a.title,
				a.description AS snippet, a.project_id, 1 AS bucket, a.sort_order
			FROM messaging_angles a
			WHERE (a.title ILIKE $1 OR a.description ILIKE $1) AND a.project_id = $2`)
	}
	if len(subQueries) == 0 {
		return nil, 0, nil
	}

	union := strings.Join(subQueries, " UNION ALL ")
	countSQL := fmt.Sprintf("SELECT count(*) FROM (%s) sub", union)
	dataSQL := fmt.Sprintf(`SELECT type, id, title, snippet, project_id
		FROM (%s) sub
		ORDER BY bucket, sort_order, id
		LIMIT %d OFFSET %d`, union, limit, offset)

	ctx := context.Background()

	var total int
	if err := p.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("fallback search count: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("fallback search query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var typ string
		if err := rows.Scan(&typ, &r.ID, &r.Title, &r.Snippet, &r.ProjectID); err != nil {
			return nil, 0, fmt.Errorf("fallback search scan: %w", err)
		}
		r.Type = ResultType(typ)
		results = append(results, r)
	}
	return results, total, rows.Err()
}

// LoadProjectRecords reads a project's searchable rows for reindexing.
func (p *PgLike) LoadProjectRecords(ctx context.Context, projectID string) ([]HookRecord, []AngleRecord, error) {
	hookRows, err := p.db.QueryContext(ctx, `
		SELECT h.id, h.content, h.type, h.awareness_stage, coalesce(a.title, ''), h.project_id
		FROM hooks h
		LEFT JOIN messaging_angles a ON a.id = h.messaging_angle_id
		WHERE h.project_id = $1
	`, projectID)
	if err != nil {
		return nil, nil, fmt.Errorf("load hooks: %w", err)
	}
	defer hookRows.Close()

	hooks := make([]HookRecord, 0)
	for hookRows.Next() {
		var h HookRecord
		if err := hookRows.Scan(&h.ID, &h.Content, &h.Type, &h.Stage, &h.AngleTitle, &h.ProjectID); err != nil {
			return nil, nil, fmt.Errorf("scan hook record: %w", err)
		}
		hooks = append(hooks, h)
	}
	if err := hookRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate hook records: %w", err)
	}

	angleRows, err := p.db.QueryContext(ctx, `
		SELECT id, title, description, tone, project_id
		FROM messaging_angles
		WHERE project_id = $1
	`, projectID)
	if err != nil {
		return nil, nil, fmt.Errorf("load angles: %w", err)
	}
	defer angleRows.Close()

	angles := make([]AngleRecord, 0)
	for angleRows.Next() {
		var a AngleRecord
		if err := angleRows.Scan(&a.ID, &a.Title, &a.Description, &a.Tone, &a.ProjectID); err != nil {
			return nil, nil, fmt.Errorf("scan angle record: %w", err)
		}
		angles = append(angles, a)
	}
	if err := angleRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate angle records: %w", err)
	}

	return hooks, angles, nil
}
