package search

import (
	"context"
	"log"
)

// Service tries Meilisearch first and falls back to the Postgres scan.
type Service struct {
	meili    *Meili
	fallback Searcher
}

// NewService creates the facade. meili may be nil when Meilisearch is
// not configured.
func NewService(meili *Meili, fallback Searcher) *Service {
	return &Service{meili: meili, fallback: fallback}
}

// Search never fails: backend errors degrade to an empty result set.
func (s *Service) Search(q Query) Response {
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		log.Printf("search: meilisearch error, falling back: %v", err)
	}

	if s.fallback == nil {
		return Response{Results: []Result{}, Query: q.Text}
	}
	results, total, err := s.fallback.Search(q)
	if err != nil {
		log.Printf("search: fallback error: %v", err)
		return Response{Results: []Result{}, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text}
}

// IndexHook pushes a hook to Meilisearch, fire-and-forget.
func (s *Service) IndexHook(record HookRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexHook(record); err != nil {
			log.Printf("search: index hook %s: %v", record.ID, err)
		}
	}()
}

// IndexHooks pushes a batch of hooks, fire-and-forget.
func (s *Service) IndexHooks(records []HookRecord) {
	if s.meili == nil || !s.meili.Healthy() || len(records) == 0 {
		return
	}
	go func() {
		if err := s.meili.IndexHooks(records); err != nil {
			log.Printf("search: index hook batch: %v", err)
		}
	}()
}

// IndexAngle pushes an angle to Meilisearch, fire-and-forget.
func (s *Service) IndexAngle(record AngleRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexAngle(record); err != nil {
			log.Printf("search: index angle %s: %v", record.ID, err)
		}
	}()
}

// DeleteHook removes a hook from the index, fire-and-forget.
func (s *Service) DeleteHook(id string) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.DeleteHook(id); err != nil {
			log.Printf("search: delete hook %s: %v", id, err)
		}
	}()
}

// DeleteAngle removes an angle from the index, fire-and-forget.
func (s *Service) DeleteAngle(id string) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.DeleteAngle(id); err != nil {
			log.Printf("search: delete angle %s: %v", id, err)
		}
	}()
}

// ReindexProject reloads a project's rows from Postgres and pushes
// them to Meilisearch.
func (s *Service) ReindexProject(ctx context.Context, loader *PgLike, projectID string) {
	if s.meili == nil || !s.meili.Healthy() || loader == nil {
		return
	}
	hooks, angles, err := loader.LoadProjectRecords(ctx, projectID)
	if err != nil {
		log.Printf("search: reindex load failed: %v", err)
		return
	}
	if err := s.meili.IndexHooks(hooks); err != nil {
		log.Printf("search: reindex hooks: %v", err)
	}
	for _, a := range angles {
		if err := s.meili.IndexAngle(a); err != nil {
			log.Printf("search: reindex angle %s: %v", a.ID, err)
		}
	}
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
