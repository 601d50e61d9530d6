package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	gosync "sync"
	"testing"
	"time"

	"briefforge/api/internal/brief"
	"briefforge/api/internal/config"
	"briefforge/api/internal/graph"
	"briefforge/api/internal/store"
	"briefforge/api/internal/suggest"
)

// fakeStore satisfies dataStore: it hands out a seeded graph on load
// and behaves like the Postgres store on writes, swapping provisional
// IDs for canonical ones.
type fakeStore struct {
	mu  gosync.Mutex
	seq int

	projects map[string]store.Project
	exports  []store.BriefExport

	loadCalls   int
	touched     []string
	hookUpdates []graph.Hook

	pingErr       error
	updateHookErr error
	createErr     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		projects: map[string]store.Project{
			"proj_test": {ID: "proj_test", Name: "Launch Q4", CreatedAt: time.Now(), UpdatedAt: time.Now()},
		},
	}
}

func (f *fakeStore) canonicalID(prefix string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	return fmt.Sprintf("%s_%04d", prefix, f.seq)
}

func (f *fakeStore) LoadProject(ctx context.Context, projectID string) (*graph.Graph, error) {
	f.mu.Lock()
	f.loadCalls++
	f.mu.Unlock()

	g := graph.New(projectID)
	g.InsertAudience(graph.Audience{ID: "aud_1", ProjectID: projectID, Name: "Founders", SortOrder: 0})
	g.InsertAudience(graph.Audience{ID: "aud_2", ProjectID: projectID, Name: "Marketers", SortOrder: 1})
	g.InsertPainDesire(graph.PainDesire{ID: "pd_1", ProjectID: projectID, Kind: graph.KindPain, Title: "No signal", Intensity: 8, SortOrder: 0})
	g.InsertLink(graph.PainDesireAudienceLink{ID: "lnk_1", ProjectID: projectID, PainDesireID: "pd_1", AudienceID: "aud_1", SortOrder: 0})
	g.InsertAngle(graph.MessagingAngle{ID: "ang_1", ProjectID: projectID, PainDesireID: "pd_1", AudienceID: "aud_1", Title: "Quiet data", Origin: graph.OriginManual, SortOrder: 0})
	g.InsertHook(graph.Hook{ID: "hk_1", ProjectID: projectID, MessagingAngleID: "ang_1", Type: graph.HookQuestion, Content: "What if nobody sees it?", Stage: graph.StageUnaware, Origin: graph.OriginManual, SortOrder: 0})
	g.InsertExecution(graph.FormatExecution{ID: "fx_1", ProjectID: projectID, HookID: "hk_1", TemplateID: "tpl_ugc", ConceptNotes: "Talking head", SortOrder: 0})
	return g, nil
}

func (f *fakeStore) ListProjects(ctx context.Context) ([]store.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]store.Project, 0, len(f.projects))
	for _, project := range f.projects {
		out = append(out, project)
	}
	return out, nil
}

func (f *fakeStore) CreateProject(ctx context.Context, name string) (store.Project, error) {
	project := store.Project{ID: f.canonicalID("proj"), Name: name, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.projects[project.ID] = project
	return project, nil
}

func (f *fakeStore) GetProject(ctx context.Context, projectID string) (store.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	project, ok := f.projects[projectID]
	if !ok {
		return store.Project{}, sql.ErrNoRows
	}
	return project, nil
}

func (f *fakeStore) TouchProject(ctx context.Context, projectID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched = append(f.touched, projectID)
	return nil
}

func (f *fakeStore) ListBriefExports(ctx context.Context, projectID string, limit int) ([]store.BriefExport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]store.BriefExport(nil), f.exports...), nil
}

func (f *fakeStore) Ping(ctx context.Context) error {
	return f.pingErr
}

func (f *fakeStore) CreateAudience(ctx context.Context, a graph.Audience) (graph.Audience, error) {
	if f.createErr != nil {
		return graph.Audience{}, f.createErr
	}
	a.ID = f.canonicalID("aud")
	return a, nil
}

func (f *fakeStore) UpdateAudience(ctx context.Context, a graph.Audience) (graph.Audience, error) {
	return a, nil
}

func (f *fakeStore) DeleteAudience(ctx context.Context, id string) error { return nil }

func (f *fakeStore) CreatePainDesire(ctx context.Context, p graph.PainDesire) (graph.PainDesire, error) {
	if f.createErr != nil {
		return graph.PainDesire{}, f.createErr
	}
	p.ID = f.canonicalID("pd")
	return p, nil
}

func (f *fakeStore) UpdatePainDesire(ctx context.Context, p graph.PainDesire) (graph.PainDesire, error) {
	return p, nil
}

func (f *fakeStore) DeletePainDesire(ctx context.Context, id string) error { return nil }

func (f *fakeStore) CreateLink(ctx context.Context, l graph.PainDesireAudienceLink) (graph.PainDesireAudienceLink, error) {
	l.ID = f.canonicalID("lnk")
	return l, nil
}

func (f *fakeStore) DeleteLink(ctx context.Context, id string) error { return nil }

func (f *fakeStore) CreateAngle(ctx context.Context, a graph.MessagingAngle) (graph.MessagingAngle, error) {
	if f.createErr != nil {
		return graph.MessagingAngle{}, f.createErr
	}
	a.ID = f.canonicalID("ang")
	return a, nil
}

func (f *fakeStore) UpdateAngle(ctx context.Context, a graph.MessagingAngle) (graph.MessagingAngle, error) {
	return a, nil
}

func (f *fakeStore) DeleteAngle(ctx context.Context, id string) error { return nil }

func (f *fakeStore) CreateHook(ctx context.Context, h graph.Hook) (graph.Hook, error) {
	if f.createErr != nil {
		return graph.Hook{}, f.createErr
	}
	h.ID = f.canonicalID("hk")
	return h, nil
}

func (f *fakeStore) UpdateHook(ctx context.Context, h graph.Hook) (graph.Hook, error) {
	if f.updateHookErr != nil {
		return graph.Hook{}, f.updateHookErr
	}
	f.mu.Lock()
	f.hookUpdates = append(f.hookUpdates, h)
	f.mu.Unlock()
	return h, nil
}

func (f *fakeStore) DeleteHook(ctx context.Context, id string) error { return nil }

func (f *fakeStore) CreateHookBatch(ctx context.Context, hooks []graph.Hook) ([]graph.Hook, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	out := make([]graph.Hook, 0, len(hooks))
	for _, hook := range hooks {
		hook.ID = f.canonicalID("hk")
		out = append(out, hook)
	}
	return out, nil
}

func (f *fakeStore) CreateExecution(ctx context.Context, e graph.FormatExecution) (graph.FormatExecution, error) {
	if f.createErr != nil {
		return graph.FormatExecution{}, f.createErr
	}
	e.ID = f.canonicalID("fx")
	return e, nil
}

func (f *fakeStore) UpdateExecution(ctx context.Context, e graph.FormatExecution) (graph.FormatExecution, error) {
	return e, nil
}

func (f *fakeStore) DeleteExecution(ctx context.Context, id string) error { return nil }

type fakeBriefCache struct {
	mu          gosync.Mutex
	docs        map[string]brief.Document
	hits        int
	sets        int
	invalidated []string
}

func newFakeBriefCache() *fakeBriefCache {
	return &fakeBriefCache{docs: make(map[string]brief.Document)}
}

func (f *fakeBriefCache) Get(ctx context.Context, projectID string) (brief.Document, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[projectID]
	if ok {
		f.hits++
	}
	return doc, ok
}

func (f *fakeBriefCache) Set(ctx context.Context, projectID string, doc brief.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[projectID] = doc
	f.sets++
	return nil
}

func (f *fakeBriefCache) Invalidate(ctx context.Context, projectID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, projectID)
	f.invalidated = append(f.invalidated, projectID)
	return nil
}

type fakeSuggester struct {
	candidates []suggest.Candidate
	err        error
}

func (f *fakeSuggester) SuggestHooks(ctx context.Context, angle suggest.AngleContext, count int) ([]suggest.Candidate, error) {
	return f.candidates, f.err
}

func newTestService(fs *fakeStore) *Service {
	return &Service{
		cfg:        config.Config{},
		store:      fs,
		logger:     log.New(io.Discard, "", 0),
		sessionTTL: time.Minute,
		sessions:   make(map[string]engineSession),
	}
}

func TestEngineSessionIsReusedAcrossCalls(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs)

	ctx := context.Background()
	if _, err := svc.Board(ctx, "proj_test"); err != nil {
		t.Fatalf("first board call failed: %v", err)
	}
	if _, err := svc.Intersections(ctx, "proj_test"); err != nil {
		t.Fatalf("intersections call failed: %v", err)
	}

	if fs.loadCalls != 1 {
		t.Fatalf("expected one hydration, got %d", fs.loadCalls)
	}
}

func TestExpiredEngineSessionRehydrates(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs)

	ctx := context.Background()
	if _, err := svc.Board(ctx, "proj_test"); err != nil {
		t.Fatalf("board call failed: %v", err)
	}

	svc.sessionMu.Lock()
	session := svc.sessions["proj_test"]
	session.expiresAt = time.Now().Add(-time.Second)
	svc.sessions["proj_test"] = session
	svc.sessionMu.Unlock()

	if _, err := svc.Board(ctx, "proj_test"); err != nil {
		t.Fatalf("board call after expiry failed: %v", err)
	}
	if fs.loadCalls != 2 {
		t.Fatalf("expected rehydration after expiry, got %d loads", fs.loadCalls)
	}
}

func TestUnknownProjectIsNotFound(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs)

	_, err := svc.Board(context.Background(), "proj_missing")
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Status != 404 {
		t.Fatalf("expected 404 domain error, got %v", err)
	}
}

func TestMutationInvalidatesBriefCache(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs)
	fc := newFakeBriefCache()
	svc.cache = fc

	ctx := context.Background()
	if _, err := svc.Brief(ctx, "proj_test"); err != nil {
		t.Fatalf("brief failed: %v", err)
	}
	if fc.sets != 1 {
		t.Fatalf("expected brief to be cached, sets=%d", fc.sets)
	}

	if _, err := svc.Brief(ctx, "proj_test"); err != nil {
		t.Fatalf("second brief failed: %v", err)
	}
	if fc.hits != 1 {
		t.Fatalf("expected second read served from cache, hits=%d", fc.hits)
	}

	if _, err := svc.CreateAudience(ctx, "proj_test", CreateAudienceInput{Name: "New folks"}); err != nil {
		t.Fatalf("create audience failed: %v", err)
	}
	if len(fc.invalidated) != 1 || fc.invalidated[0] != "proj_test" {
		t.Fatalf("expected cache invalidation for proj_test, got %v", fc.invalidated)
	}
	if len(fs.touched) == 0 || fs.touched[0] != "proj_test" {
		t.Fatalf("expected project touch after mutation, got %v", fs.touched)
	}
}

func TestBriefDocumentCarriesFunnelContent(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs)

	doc, err := svc.Brief(context.Background(), "proj_test")
	if err != nil {
		t.Fatalf("brief failed: %v", err)
	}
	if doc.ProjectName != "Launch Q4" {
		t.Fatalf("unexpected project name %q", doc.ProjectName)
	}
	if len(doc.Audiences) != 2 {
		t.Fatalf("expected 2 audiences, got %d", len(doc.Audiences))
	}
	if len(doc.Pains) != 1 || doc.Pains[0].Title != "No signal" {
		t.Fatalf("unexpected pains %+v", doc.Pains)
	}
	if len(doc.HookGroups) != 1 || len(doc.HookGroups[0].Hooks) != 1 {
		t.Fatalf("unexpected hook groups %+v", doc.HookGroups)
	}
}

func TestSuggestHooksBuildsAngleContext(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs)
	svc.suggester = &fakeSuggester{candidates: []suggest.Candidate{
		{Type: graph.HookQuestion, Content: "Ever wonder why?", Stage: graph.StageUnaware},
	}}

	payload, err := svc.SuggestHooks(context.Background(), "proj_test", "ang_1", 3)
	if err != nil {
		t.Fatalf("suggest failed: %v", err)
	}
	suggestions, ok := payload["suggestions"].([]map[string]any)
	if !ok || len(suggestions) != 1 {
		t.Fatalf("unexpected suggestions payload %+v", payload)
	}
	if suggestions[0]["content"] != "Ever wonder why?" {
		t.Fatalf("unexpected suggestion %+v", suggestions[0])
	}
}

func TestSuggestHooksWithoutGeneratorIsUnavailable(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs)

	_, err := svc.SuggestHooks(context.Background(), "proj_test", "ang_1", 3)
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Status != 503 {
		t.Fatalf("expected 503 domain error, got %v", err)
	}
}
