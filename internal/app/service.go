package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	gosync "sync"
	"time"

	"briefforge/api/internal/brief"
	"briefforge/api/internal/briefrepo"
	"briefforge/api/internal/cache"
	"briefforge/api/internal/config"
	"briefforge/api/internal/graph"
	"briefforge/api/internal/search"
	"briefforge/api/internal/sharelink"
	"briefforge/api/internal/store"
	"briefforge/api/internal/suggest"
	"briefforge/api/internal/sync"
)

type CreateProjectInput struct {
	Name string `json:"name"`
}

type CreateAudienceInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type UpdateAudienceInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	SortOrder   *int    `json:"sortOrder"`
}

type CreatePainDesireInput struct {
	Kind        string `json:"kind"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Intensity   int    `json:"intensity"`
}

type UpdatePainDesireInput struct {
	Kind        *string `json:"kind"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Intensity   *int    `json:"intensity"`
	SortOrder   *int    `json:"sortOrder"`
}

type CreateLinkInput struct {
	PainDesireID string `json:"painDesireId"`
	AudienceID   string `json:"audienceId"`
}

type CreateAngleInput struct {
	PainDesireID string            `json:"painDesireId"`
	AudienceID   string            `json:"audienceId"`
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	Tone         string            `json:"tone"`
	Origin       string            `json:"origin"`
	Lenses       map[string]string `json:"lenses"`
}

type UpdateAngleInput struct {
	Title       *string           `json:"title"`
	Description *string           `json:"description"`
	Tone        *string           `json:"tone"`
	Origin      *string           `json:"origin"`
	Lenses      map[string]string `json:"lenses"`
	SortOrder   *int              `json:"sortOrder"`
}

type CreateHookInput struct {
	MessagingAngleID string `json:"messagingAngleId"`
	Type             string `json:"type"`
	Content          string `json:"content"`
	AwarenessStage   string `json:"awarenessStage"`
	Origin           string `json:"origin"`
}

type UpdateHookInput struct {
	Type           *string `json:"type"`
	Content        *string `json:"content"`
	AwarenessStage *string `json:"awarenessStage"`
	Starred        *bool   `json:"starred"`
	Origin         *string `json:"origin"`
	SortOrder      *int    `json:"sortOrder"`
}

type MoveHookInput struct {
	Stage string `json:"stage"`
	Index int    `json:"index"`
}

type StarHookInput struct {
	Starred bool `json:"starred"`
}

type CreateExecutionInput struct {
	HookID       string `json:"hookId"`
	TemplateID   string `json:"templateId"`
	ConceptNotes string `json:"conceptNotes"`
}

type UpdateExecutionInput struct {
	TemplateID   *string `json:"templateId"`
	ConceptNotes *string `json:"conceptNotes"`
	SortOrder    *int    `json:"sortOrder"`
}

type ReorderInput struct {
	SortOrder int `json:"sortOrder"`
}

type SuggestionInput struct {
	Type           string `json:"type"`
	Content        string `json:"content"`
	AwarenessStage string `json:"awarenessStage"`
}

type AcceptSuggestionsInput struct {
	Suggestions []SuggestionInput `json:"suggestions"`
}

type CreateShareLinkInput struct {
	Password       string `json:"password"`
	ExpiresInHours int    `json:"expiresInHours"`
}

type dataStore interface {
	sync.Loader
	sync.Remote
	ListProjects(context.Context) ([]store.Project, error)
	CreateProject(context.Context, string) (store.Project, error)
	GetProject(context.Context, string) (store.Project, error)
	TouchProject(context.Context, string) error
	ListBriefExports(context.Context, string, int) ([]store.BriefExport, error)
	Ping(ctx context.Context) error
}

type hookSuggester interface {
	SuggestHooks(ctx context.Context, angle suggest.AngleContext, count int) ([]suggest.Candidate, error)
}

type briefExporter interface {
	Export(ctx context.Context, g *graph.Graph, projectName, actor string) (brief.ExportResult, error)
}

type exportHistory interface {
	History(ctx context.Context, projectID string, limit int) ([]briefrepo.CommitInfo, error)
	BriefByHash(ctx context.Context, projectID, hash string) ([]byte, error)
}

type shareLinker interface {
	Create(ctx context.Context, projectID string, opts sharelink.CreateOptions) (store.ShareLink, error)
	Resolve(ctx context.Context, token, password string) (store.ShareLink, error)
	Revoke(ctx context.Context, id string) error
}

type briefCache interface {
	Get(ctx context.Context, projectID string) (brief.Document, bool)
	Set(ctx context.Context, projectID string, doc brief.Document) error
	Invalidate(ctx context.Context, projectID string) error
}

// Deps bundles the optional collaborators. Any nil field disables the
// corresponding surface without taking the rest of the API down.
type Deps struct {
	Suggester *suggest.Generator
	Exporter  *brief.Service
	History   *briefrepo.Service
	Shares    *sharelink.Service
	Cache     *cache.BriefCache
	Search    *search.Service
	Logger    *log.Logger
}

type engineSession struct {
	engine    *sync.Engine
	expiresAt time.Time
}

type Service struct {
	cfg       config.Config
	store     dataStore
	suggester hookSuggester
	exporter  briefExporter
	history   exportHistory
	shares    shareLinker
	cache     briefCache
	search    *search.Service
	logger    *log.Logger

	sessionTTL time.Duration
	sessionMu  gosync.Mutex
	sessions   map[string]engineSession
}

func New(cfg config.Config, dataStore *store.PostgresStore, deps Deps) *Service {
	s := &Service{
		cfg:        cfg,
		store:      dataStore,
		search:     deps.Search,
		logger:     deps.Logger,
		sessionTTL: cfg.SessionTTL,
		sessions:   make(map[string]engineSession),
	}
	if s.sessionTTL <= 0 {
		s.sessionTTL = 30 * time.Minute
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if deps.Suggester != nil {
		s.suggester = deps.Suggester
	}
	if deps.Exporter != nil {
		s.exporter = deps.Exporter
	}
	if deps.History != nil {
		s.history = deps.History
	}
	if deps.Shares != nil {
		s.shares = deps.Shares
	}
	if deps.Cache != nil {
		s.cache = deps.Cache
	}
	return s
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// engineFor returns the per-project editing session, hydrating one
// from the store on first use. Idle sessions expire after sessionTTL;
// a fresh lookup re-hydrates.
func (s *Service) engineFor(ctx context.Context, projectID string) (*sync.Engine, error) {
	now := time.Now()

	s.sessionMu.Lock()
	for id, session := range s.sessions {
		if now.After(session.expiresAt) {
			delete(s.sessions, id)
		}
	}
	if session, ok := s.sessions[projectID]; ok {
		session.expiresAt = now.Add(s.sessionTTL)
		s.sessions[projectID] = session
		s.sessionMu.Unlock()
		return session.engine, nil
	}
	s.sessionMu.Unlock()

	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		if store.IsNotFound(err) {
			return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Project not found", nil)
		}
		return nil, fmt.Errorf("load project %s: %w", projectID, err)
	}

	engine, err := sync.Hydrate(ctx, s.store, s.store, projectID)
	if err != nil {
		return nil, fmt.Errorf("hydrate project %s: %w", projectID, err)
	}

	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()
	if session, ok := s.sessions[projectID]; ok {
		// Lost the hydration race; the earlier engine wins.
		return session.engine, nil
	}
	s.sessions[projectID] = engineSession{engine: engine, expiresAt: time.Now().Add(s.sessionTTL)}
	return engine, nil
}

// afterMutation runs the write side effects that are best-effort by
// contract: the mutation already succeeded, so failures here are
// logged, not surfaced.
func (s *Service) afterMutation(ctx context.Context, projectID string) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, projectID); err != nil {
			s.logger.Printf("brief cache invalidate failed project=%s err=%v", projectID, err)
		}
	}
	if err := s.store.TouchProject(ctx, projectID); err != nil {
		s.logger.Printf("touch project failed project=%s err=%v", projectID, err)
	}
}

func mapSyncError(err error) error {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	if errors.Is(err, sync.ErrNotFound) {
		return domainError(http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	}
	if errors.Is(err, sync.ErrValidation) {
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil)
	}
	return err
}

// --- projects ------------------------------------------------------------

func (s *Service) ListProjects(ctx context.Context) (map[string]any, error) {
	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	items := make([]map[string]any, 0, len(projects))
	for _, project := range projects {
		items = append(items, projectPayload(project))
	}
	return map[string]any{"projects": items}, nil
}

func (s *Service) CreateProject(ctx context.Context, input CreateProjectInput) (map[string]any, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
	}
	project, err := s.store.CreateProject(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return projectPayload(project), nil
}

func (s *Service) GetProject(ctx context.Context, projectID string) (map[string]any, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Project not found", nil)
		}
		return nil, fmt.Errorf("get project: %w", err)
	}
	return projectPayload(project), nil
}

// ProjectGraph hydrates the full funnel for a project in one payload,
// the shape a client loads once and then mutates optimistically.
func (s *Service) ProjectGraph(ctx context.Context, projectID string) (map[string]any, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Project not found", nil)
		}
		return nil, fmt.Errorf("get project: %w", err)
	}

	engine, err := s.engineFor(ctx, projectID)
	if err != nil {
		return nil, err
	}
	g := engine.Snapshot()

	audiences := make([]map[string]any, 0)
	for _, audience := range g.AudiencesOrdered() {
		audiences = append(audiences, audiencePayload(audience))
	}
	painDesires := make([]map[string]any, 0)
	for _, painDesire := range g.PainDesiresOrdered() {
		painDesires = append(painDesires, painDesirePayload(painDesire))
	}
	links := make([]map[string]any, 0)
	for _, link := range g.LinksOrdered() {
		links = append(links, linkPayload(link))
	}
	angles := make([]map[string]any, 0)
	for _, angle := range g.AnglesOrdered() {
		angles = append(angles, anglePayload(angle))
	}
	hooks := make([]map[string]any, 0)
	for _, hook := range g.HooksOrdered() {
		hooks = append(hooks, hookPayload(hook))
	}
	executions := make([]map[string]any, 0)
	for _, hook := range g.HooksOrdered() {
		for _, execution := range g.ExecutionsForHook(hook.ID) {
			executions = append(executions, executionPayload(execution))
		}
	}

	return map[string]any{
		"project":       projectPayload(project),
		"audiences":     audiences,
		"painDesires":   painDesires,
		"links":         links,
		"angles":        angles,
		"hooks":         hooks,
		"executions":    executions,
		"intersections": intersectionPayloads(engine.Intersections()),
		"board":         boardPayload(engine.Board()),
	}, nil
}

func (s *Service) Intersections(ctx context.Context, projectID string) (map[string]any, error) {
	engine, err := s.engineFor(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"intersections": intersectionPayloads(engine.Intersections())}, nil
}

func (s *Service) Board(ctx context.Context, projectID string) (map[string]any, error) {
	engine, err := s.engineFor(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"board": boardPayload(engine.Board())}, nil
}

// --- audiences -----------------------------------------------------------

func (s *Service) CreateAudience(ctx context.Context, projectID string, input CreateAudienceInput) (map[string]any, error) {
	engine, err := s.engineFor(ctx, projectID)
	if err != nil {
		return nil, err
	}
	audience, err := engine.CreateAudience(ctx, sync.AudienceDraft{
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
	})
	if err != nil {
		return nil, mapSyncError(err)
	}
	s.afterMutation(ctx, projectID)
	return audiencePayload(audience), nil
}

func (s *Service) UpdateAudience(ctx context.Context, projectID, audienceID string, input UpdateAudienceInput) (map[string]any, error) {
	engine, err := s.engineFor(ctx, projectID)
	if err != nil {
		return nil, err
	}
	audience, err := engine.UpdateAudience(ctx, audienceID, graph.AudiencePatch{
		Name:        input.Name,
		Description: input.Description,
		SortOrder:   input.SortOrder,
	})
	if err != nil {
		return nil, mapSyncError(err)
	}
	s.afterMutation(ctx, projectID)
	return audiencePayload(audience), nil
}

func (s *Service) DeleteAudience(ctx context.Context, projectID, audienceID string) (map[string]any, error) {
	engine, err := s.engineFor(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := engine.DeleteAudience(ctx, audienceID); err != nil {
		return nil, mapSyncError(err)
	}
	s.afterMutation(ctx, projectID)
	return map[string]any{"ok": true}, nil
}

// --- pains and desires ---------------------------------------------------

func (s *Service) CreatePainDesire(ctx context.Context, projectID string, input CreatePainDesireInput) (map[string]any, error) {
	engine, err := s.engineFor(ctx, projectID)
	if err != nil {
		return nil, err
	}
	painDesire, err := engine.CreatePainDesire(ctx, sync.PainDesireDraft{
		Kind:        graph.PainDesireKind(strings.ToUpper(strings.TrimSpace(input.Kind))),
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Intensity:   input.Intensity,
	})
	if err != nil {
		return nil, mapSyncError(err)
	}
	s.afterMutation(ctx, projectID)
	return painDesirePayload(painDesire), nil
}

func (s *Service) UpdatePainDesire(ctx context.Context, projectID, painDesireID string, input UpdatePainDesireInput) (map[string]any, error) {
	engine, err := s.engineFor(ctx, projectID)
	if err != nil {
		return nil, err
	}
	patch := graph.PainDesirePatch{
		Title:       input.Title,
		Description: input.Description,
		Intensity:   input.Intensity,
		SortOrder:   input.SortOrder,
	}
	if input.Kind != nil {
		kind := graph.PainDesireKind(strings.ToUpper(strings.TrimSpace(*input.Kind)))
		patch.Kind = &kind
	}
	painDesire, err := engine.UpdatePainDesire(ctx, painDesireID, patch)
	if err != nil {
		return nil, mapSyncError(err)
	}
	s.afterMutation(ctx, projectID)
	return painDesirePayload(painDesire), nil
}

func (s *Service) DeletePainDesire(ctx context.Context, projectID, painDesireID string) (map[string]any, error) {
	engine, err := s.engineFor(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := engine.DeletePainDesire(ctx, painDesireID); err != nil {
		return nil, mapSyncError(err)
	}
	s.afterMutation(ctx, projectID)
	return map[string]any{"ok": true}, nil
}

// --- links ---------------------------------------------------------------

func (s *Service) CreateLink(ctx context.Context, projectID string, input CreateLinkInput) (map[string]any, error) {
	engine, err := s.engineFor(ctx, projectID)
	if err != nil {
		return nil, err
	}
	link, err := engine.Link(ctx, input.PainDesireID, input.AudienceID)
	if err != nil {
		return nil, mapSyncError(err)
	}
	s.afterMutation(ctx, projectID)
	return linkPayload(link), nil
}

func (s *Service) DeleteLink(ctx context.Context, projectID, linkID string) (map[string]any, error) {
	engine, err := s.engineFor(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := engine.Unlink(ctx, linkID); err != nil {
		return nil, mapSyncError(err)
	}
	s.afterMutation(ctx, projectID)
	return map[string]any{"ok": true}, nil
}

// --- messaging angles ----------------------------------------------------

func (s *Service) CreateAngle(ctx context.Context, projectID string, input CreateAngleInput) (map[string]any, error) {
	engine, err := s.engineFor(ctx, projectID)
	if err != nil {
		return nil, err
	}
	angle, err := engine.CreateAngle(ctx, sync.AngleDraft{
		PainDesireID: input.PainDesireID,
		AudienceID:   input.AudienceID,
		Title:        strings.TrimSpace(input.Title),
		Description:  input.Description,
		Tone:         input.Tone,
		Origin:       graph.Origin(input.Origin),
		Lenses:       input.Lenses,
	})
	if err != nil {
		return nil, mapSyncError(err)
	}
	s.afterMutation(ctx, projectID)
	s.indexAngle(angle)
	return anglePayload(angle), nil
}

func (s *Service) UpdateAngle(ctx context.Context, projectID, angleID string, input UpdateAngleInput) (map[string]any, error) {
	engine, err := s.engineFor(ctx, projectID)
	if err != nil {
		return nil, err
	}
	patch := graph.AnglePatch{
		Title:       input.Title,
		Description: input.Description,
		Tone:        input.Tone,
		Lenses:      input.Lenses,
		SortOrder:   input.SortOrder,
	}
	if input.Origin != nil {
		origin := graph.Origin(*input.Origin)
		patch.Origin = &origin
	}
	angle, err := engine.UpdateAngle(ctx, angleID, patch)
	if err != nil {
		return nil, mapSyncError(err)
	}
	s.afterMutation(ctx, projectID)
	s.indexAngle(angle)
	return anglePayload(angle), nil
}

func (s *Service) DeleteAngle(ctx context.Context, projectID, angleID string) (map[string]any, error) {
	engine, err := s.engineFor(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := engine.DeleteAngle(ctx, angleID); err != nil {
		return nil, mapSyncError(err)
	}
	s.afterMutation(ctx, projectID)
	if s.search != nil {
		s.search.DeleteAngle(angleID)
	}
	return map[string]any{"ok": true}, nil
}

// --- hooks ---------------------------------------------------------------

func (s *Service) CreateHook(ctx context.Context, projectID string, input CreateHookInput) (map[string]any, error) {
	engine, err := s.engineFor(ctx, projectID)
	if err != nil {
		return nil, err
	}
	hook, err := engine.CreateHook(ctx, sync.HookDraft{
		MessagingAngleID: input.MessagingAngleID,
		Type:             graph.HookType(strings.ToUpper(strings.TrimSpace(input.Type))),
		Content:          input.Content,
		Stage:            graph.AwarenessStage(strings.ToUpper(strings.TrimSpace(input.AwarenessStage))),
		Origin:           graph.Origin(input.Origin),
	})
	if err != nil {
		return nil, mapSyncError(err)
	}
	s.afterMutation(ctx, projectID)
	s.indexHook(engine.Snapshot(), hook)
	return hookPayload(hook), nil
}

func (s *Service) UpdateHook(ctx context.Context, projectID, hookID string, input UpdateHookInput) (map[string]any, error) {
	engine, err := s.engineFor(ctx, projectID)
	if err != nil {
		return nil, err
	}
	patch := graph.HookPatch{
		Content:   input.Content,
		Starred:   input.Starred,
		SortOrder: input.SortOrder,
	}
	if input.Type != nil {
		hookType := graph.HookType(strings.ToUpper(strings.TrimSpace(*input.Type)))
		patch.Type = &hookType
	}
	if input.AwarenessStage != nil {
		stage := graph.AwarenessStage(strings.ToUpper(strings.TrimSpace(*input.AwarenessStage)))
		patch.Stage = &stage
	}
	if input.Origin != nil {
		origin := graph.Origin(*input.Origin)
		patch.Origin = &origin
	}
	hook, err := engine.UpdateHook(ctx, hookID, patch)
	if err != nil {
		return nil, mapSyncError(err)
	}
	s.afterMutation(ctx, projectID)
	s.indexHook(engine.Snapshot(), hook)
	return hookPayload(hook), nil
}

func (s *Service) DeleteHook(ctx context.Context, projectID, hookID string) (map[string]any, error) {
	engine, err := s.engineFor(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := engine.DeleteHook(ctx, hookID); err != nil {
		return nil, mapSyncError(err)
	}
	s.afterMutation(ctx, projectID)
	if s.search != nil {
		s.search.DeleteHook(hookID)
	}
	return map[string]any{"ok": true}, nil
}

func (s *Service) MoveHook(ctx context.Context, projectID, hookID string, input MoveHookInput) (map[string]any, error) {
	engine, err := s.engineFor(ctx, projectID)
	if err != nil {
		return nil, err
	}
	stage := graph.AwarenessStage(strings.ToUpper(strings.TrimSpace(input.Stage)))
	hook, err := engine.MoveHook(ctx, hookID, stage, input.Index)
	if err != nil {
		return nil, mapSyncError(err)
	}
	s.afterMutation(ctx, projectID)
	s.indexHook(engine.Snapshot(), hook)
	return hookPayload(hook), nil
}

func (s *Service) StarHook(ctx context.Context, projectID, hookID string, input StarHookInput) (map[string]any, error) {
	engine, err := s.engineFor(ctx, projectID)
	if err != nil {
		return nil, err
	}
	hook, err := engine.StarHook(ctx, hookID, input.Starred)
	if err != nil {
		return nil, mapSyncError(err)
	}
	s.afterMutation(ctx, projectID)
	return hookPayload(hook), nil
}

// --- format executions ---------------------------------------------------

func (s *Service) CreateExecution(ctx context.Context, projectID string, input CreateExecutionInput) (map[string]any, error) {
	engine, err := s.engineFor(ctx, projectID)
	if err != nil {
		return nil, err
	}
	execution, err := engine.CreateExecution(ctx, sync.ExecutionDraft{
		HookID:       input.HookID,
		TemplateID:   input.TemplateID,
		ConceptNotes: input.ConceptNotes,
	})
	if err != nil {
		return nil, mapSyncError(err)
	}
	s.afterMutation(ctx, projectID)
	return executionPayload(execution), nil
}

func (s *Service) UpdateExecution(ctx context.Context, projectID, executionID string, input UpdateExecutionInput) (map[string]any, error) {
	engine, err := s.engineFor(ctx, projectID)
	if err != nil {
		return nil, err
	}
	execution, err := engine.UpdateExecution(ctx, executionID, graph.ExecutionPatch{
		TemplateID:   input.TemplateID,
		ConceptNotes: input.ConceptNotes,
		SortOrder:    input.SortOrder,
	})
	if err != nil {
		return nil, mapSyncError(err)
	}
	s.afterMutation(ctx, projectID)
	return executionPayload(execution), nil
}

func (s *Service) DeleteExecution(ctx context.Context, projectID, executionID string) (map[string]any, error) {
	engine, err := s.engineFor(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := engine.DeleteExecution(ctx, executionID); err != nil {
		return nil, mapSyncError(err)
	}
	s.afterMutation(ctx, projectID)
	return map[string]any{"ok": true}, nil
}

// --- reordering ----------------------------------------------------------
//
// Reorders are sort-order rewrites for interior drops. Stage moves for
// hooks go through MoveHook instead, which owns the cross-column math.

func (s *Service) ReorderAudience(ctx context.Context, projectID, audienceID string, input ReorderInput) (map[string]any, error) {
	engine, err := s.engineFor(ctx, projectID)
	if err != nil {
		return nil, err
	}
	audience, err := engine.ReorderAudience(ctx, audienceID, input.SortOrder)
	if err != nil {
		return nil, mapSyncError(err)
	}
	s.afterMutation(ctx, projectID)
	return audiencePayload(audience), nil
}

func (s *Service) ReorderPainDesire(ctx context.Context, projectID, painDesireID string, input ReorderInput) (map[string]any, error) {
	engine, err := s.engineFor(ctx, projectID)
	if err != nil {
		return nil, err
	}
	painDesire, err := engine.ReorderPainDesire(ctx, painDesireID, input.SortOrder)
	if err != nil {
		return nil, mapSyncError(err)
	}
	s.afterMutation(ctx, projectID)
	return painDesirePayload(painDesire), nil
}

func (s *Service) ReorderAngle(ctx context.Context, projectID, angleID string, input ReorderInput) (map[string]any, error) {
	engine, err := s.engineFor(ctx, projectID)
	if err != nil {
		return nil, err
	}
	angle, err := engine.ReorderAngle(ctx, angleID, input.SortOrder)
	if err != nil {
		return nil, mapSyncError(err)
	}
	s.afterMutation(ctx, projectID)
	return anglePayload(angle), nil
}

func (s *Service) ReorderExecution(ctx context.Context, projectID, executionID string, input ReorderInput) (map[string]any, error) {
	engine, err := s.engineFor(ctx, projectID)
	if err != nil {
		return nil, err
	}
	execution, err := engine.ReorderExecution(ctx, executionID, input.SortOrder)
	if err != nil {
		return nil, mapSyncError(err)
	}
	s.afterMutation(ctx, projectID)
	return executionPayload(execution), nil
}

// --- hook suggestions ----------------------------------------------------

func (s *Service) SuggestHooks(ctx context.Context, projectID, angleID string, count int) (map[string]any, error) {
	if s.suggester == nil {
		return nil, domainError(http.StatusServiceUnavailable, "SUGGESTIONS_UNAVAILABLE", "Suggestion generator is not configured", nil)
	}
	engine, err := s.engineFor(ctx, projectID)
	if err != nil {
		return nil, err
	}
	g := engine.Snapshot()
	angle, ok := g.Angles[angleID]
	if !ok {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Messaging angle not found", nil)
	}

	candidates, err := s.suggester.SuggestHooks(ctx, suggest.AngleContext{
		AngleTitle:       angle.Title,
		AngleDescription: angle.Description,
		Tone:             angle.Tone,
		PainDesireTitle:  g.PainDesires[angle.PainDesireID].Title,
		AudienceName:     g.Audiences[angle.AudienceID].Name,
	}, count)
	if err != nil {
		return nil, domainError(http.StatusBadGateway, "SUGGESTION_FAILED", "Suggestion provider request failed", nil)
	}

	items := make([]map[string]any, 0, len(candidates))
	for _, candidate := range candidates {
		items = append(items, map[string]any{
			"type":           string(candidate.Type),
			"content":        candidate.Content,
			"awarenessStage": string(candidate.Stage),
		})
	}
	return map[string]any{"suggestions": items}, nil
}

// AcceptSuggestions lands the suggestions the user kept as real hooks
// under the angle. The batch is all-or-nothing.
func (s *Service) AcceptSuggestions(ctx context.Context, projectID, angleID string, input AcceptSuggestionsInput) (map[string]any, error) {
	engine, err := s.engineFor(ctx, projectID)
	if err != nil {
		return nil, err
	}
	drafts := make([]sync.HookDraft, 0, len(input.Suggestions))
	for _, suggestion := range input.Suggestions {
		drafts = append(drafts, sync.HookDraft{
			MessagingAngleID: angleID,
			Type:             graph.HookType(strings.ToUpper(strings.TrimSpace(suggestion.Type))),
			Content:          suggestion.Content,
			Stage:            graph.AwarenessStage(strings.ToUpper(strings.TrimSpace(suggestion.AwarenessStage))),
		})
	}
	hooks, err := engine.AcceptSuggestedHooks(ctx, angleID, drafts)
	if err != nil {
		return nil, mapSyncError(err)
	}
	if len(hooks) > 0 {
		s.afterMutation(ctx, projectID)
		s.indexHooks(engine.Snapshot(), hooks)
	}
	items := make([]map[string]any, 0, len(hooks))
	for _, hook := range hooks {
		items = append(items, hookPayload(hook))
	}
	return map[string]any{"hooks": items}, nil
}

// --- brief ---------------------------------------------------------------

// Brief assembles the read-side creative brief, serving from the
// cache when the project has not mutated since the last assembly.
func (s *Service) Brief(ctx context.Context, projectID string) (brief.Document, error) {
	if s.cache != nil {
		if doc, ok := s.cache.Get(ctx, projectID); ok {
			return doc, nil
		}
	}

	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		if store.IsNotFound(err) {
			return brief.Document{}, domainError(http.StatusNotFound, "NOT_FOUND", "Project not found", nil)
		}
		return brief.Document{}, fmt.Errorf("get project: %w", err)
	}

	engine, err := s.engineFor(ctx, projectID)
	if err != nil {
		return brief.Document{}, err
	}
	doc := brief.Assemble(engine.Snapshot(), project.Name, time.Now().UTC())

	if s.cache != nil {
		if err := s.cache.Set(ctx, projectID, doc); err != nil {
			s.logger.Printf("brief cache set failed project=%s err=%v", projectID, err)
		}
	}
	return doc, nil
}

func (s *Service) BriefPDF(ctx context.Context, projectID string) ([]byte, string, error) {
	doc, err := s.Brief(ctx, projectID)
	if err != nil {
		return nil, "", err
	}
	html, err := brief.RenderHTML(doc)
	if err != nil {
		return nil, "", fmt.Errorf("render brief html: %w", err)
	}
	pdf, err := brief.RenderPDF(html)
	if err != nil {
		if errors.Is(err, brief.ErrPDFDependencyMissing) {
			return nil, "", domainError(http.StatusServiceUnavailable, "PDF_UNAVAILABLE", "PDF rendering is not available on this host", nil)
		}
		return nil, "", fmt.Errorf("render brief pdf: %w", err)
	}
	return pdf, brief.Filename(doc.ProjectName), nil
}

func (s *Service) ExportBrief(ctx context.Context, projectID, actor string) (map[string]any, error) {
	if s.exporter == nil {
		return nil, domainError(http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE", "Brief export is not configured", nil)
	}
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Project not found", nil)
		}
		return nil, fmt.Errorf("get project: %w", err)
	}

	engine, err := s.engineFor(ctx, projectID)
	if err != nil {
		return nil, err
	}
	result, err := s.exporter.Export(ctx, engine.Snapshot(), project.Name, actor)
	if err != nil {
		if errors.Is(err, brief.ErrPDFDependencyMissing) {
			return nil, domainError(http.StatusServiceUnavailable, "PDF_UNAVAILABLE", "PDF rendering is not available on this host", nil)
		}
		return nil, fmt.Errorf("export brief: %w", err)
	}

	return map[string]any{
		"commitHash":  result.CommitHash,
		"artifactUrl": result.ArtifactURL,
		"pdfFilename": result.PDFFilename,
		"generatedAt": result.Document.GeneratedAt,
	}, nil
}

func (s *Service) ExportHistory(ctx context.Context, projectID string, limit int) (map[string]any, error) {
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		if store.IsNotFound(err) {
			return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Project not found", nil)
		}
		return nil, fmt.Errorf("get project: %w", err)
	}

	commits := make([]briefrepo.CommitInfo, 0)
	if s.history != nil {
		loaded, err := s.history.History(ctx, projectID, limit)
		if err != nil {
			return nil, fmt.Errorf("load export history: %w", err)
		}
		commits = loaded
	}

	records, err := s.store.ListBriefExports(ctx, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("list brief exports: %w", err)
	}
	exports := make([]map[string]any, 0, len(records))
	for _, record := range records {
		exports = append(exports, map[string]any{
			"id":          record.ID,
			"projectId":   record.ProjectID,
			"commitHash":  record.CommitHash,
			"artifactUrl": record.ArtifactURL,
			"exportedBy":  record.ExportedBy,
			"createdAt":   record.CreatedAt,
		})
	}

	return map[string]any{"commits": commits, "exports": exports}, nil
}

// ExportedBrief returns the brief JSON exactly as it was committed at
// the given export.
func (s *Service) ExportedBrief(ctx context.Context, projectID, hash string) ([]byte, error) {
	if s.history == nil {
		return nil, domainError(http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE", "Brief export is not configured", nil)
	}
	payload, err := s.history.BriefByHash(ctx, projectID, hash)
	if err != nil {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Export not found", nil)
	}
	return payload, nil
}

// --- share links ---------------------------------------------------------

func (s *Service) CreateShareLink(ctx context.Context, projectID, actor string, input CreateShareLinkInput) (map[string]any, error) {
	if s.shares == nil {
		return nil, domainError(http.StatusServiceUnavailable, "SHARING_UNAVAILABLE", "Share links are not configured", nil)
	}
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		if store.IsNotFound(err) {
			return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Project not found", nil)
		}
		return nil, fmt.Errorf("get project: %w", err)
	}

	opts := sharelink.CreateOptions{Password: input.Password, CreatedBy: actor}
	if input.ExpiresInHours > 0 {
		expiresAt := time.Now().UTC().Add(time.Duration(input.ExpiresInHours) * time.Hour)
		opts.ExpiresAt = &expiresAt
	}
	link, err := s.shares.Create(ctx, projectID, opts)
	if err != nil {
		return nil, fmt.Errorf("create share link: %w", err)
	}
	return shareLinkPayload(link), nil
}

func (s *Service) RevokeShareLink(ctx context.Context, linkID string) (map[string]any, error) {
	if s.shares == nil {
		return nil, domainError(http.StatusServiceUnavailable, "SHARING_UNAVAILABLE", "Share links are not configured", nil)
	}
	if err := s.shares.Revoke(ctx, linkID); err != nil {
		if errors.Is(err, sharelink.ErrNotFound) {
			return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Share link not found", nil)
		}
		return nil, fmt.Errorf("revoke share link: %w", err)
	}
	return map[string]any{"ok": true}, nil
}

// SharedBrief resolves a public token into the read-only brief.
func (s *Service) SharedBrief(ctx context.Context, token, password string) (map[string]any, error) {
	if s.shares == nil {
		return nil, domainError(http.StatusServiceUnavailable, "SHARING_UNAVAILABLE", "Share links are not configured", nil)
	}
	link, err := s.shares.Resolve(ctx, token, password)
	if err != nil {
		switch {
		case errors.Is(err, sharelink.ErrNotFound):
			return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Share link not found", nil)
		case errors.Is(err, sharelink.ErrRevoked):
			return nil, domainError(http.StatusGone, "LINK_REVOKED", "Share link has been revoked", nil)
		case errors.Is(err, sharelink.ErrExpired):
			return nil, domainError(http.StatusGone, "LINK_EXPIRED", "Share link has expired", nil)
		case errors.Is(err, sharelink.ErrPasswordRequired):
			return nil, domainError(http.StatusUnauthorized, "PASSWORD_REQUIRED", "This share link requires a password", nil)
		case errors.Is(err, sharelink.ErrWrongPassword):
			return nil, domainError(http.StatusUnauthorized, "WRONG_PASSWORD", "Wrong share link password", nil)
		}
		return nil, fmt.Errorf("resolve share link: %w", err)
	}

	doc, err := s.Brief(ctx, link.ProjectID)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"projectId":   link.ProjectID,
		"projectName": doc.ProjectName,
		"brief":       doc,
	}, nil
}

// --- search --------------------------------------------------------------

func (s *Service) Search(ctx context.Context, text, filterType, projectID string, limit, offset int) (map[string]any, error) {
	if s.search == nil {
		return map[string]any{"results": []search.Result{}, "total": 0, "query": text}, nil
	}
	response := s.search.Search(search.Query{
		Text:       text,
		ProjectID:  projectID,
		FilterType: search.ResultType(filterType),
		Limit:      limit,
		Offset:     offset,
	})
	return map[string]any{
		"results": response.Results,
		"total":   response.Total,
		"query":   response.Query,
	}, nil
}

// --- search indexing -----------------------------------------------------

func (s *Service) indexHook(g *graph.Graph, hook graph.Hook) {
	if s.search == nil {
		return
	}
	s.search.IndexHook(hookRecord(g, hook))
}

func (s *Service) indexHooks(g *graph.Graph, hooks []graph.Hook) {
	if s.search == nil || len(hooks) == 0 {
		return
	}
	records := make([]search.HookRecord, 0, len(hooks))
	for _, hook := range hooks {
		records = append(records, hookRecord(g, hook))
	}
	s.search.IndexHooks(records)
}

func (s *Service) indexAngle(angle graph.MessagingAngle) {
	if s.search == nil {
		return
	}
	s.search.IndexAngle(search.AngleRecord{
		ID:          angle.ID,
		Title:       angle.Title,
		Description: angle.Description,
		Tone:        angle.Tone,
		ProjectID:   angle.ProjectID,
	})
}

func hookRecord(g *graph.Graph, hook graph.Hook) search.HookRecord {
	return search.HookRecord{
		ID:         hook.ID,
		Content:    hook.Content,
		Type:       string(hook.Type),
		Stage:      string(hook.Stage),
		AngleTitle: g.Angles[hook.MessagingAngleID].Title,
		ProjectID:  hook.ProjectID,
	}
}

// --- payloads ------------------------------------------------------------

func projectPayload(project store.Project) map[string]any {
	return map[string]any{
		"id":        project.ID,
		"name":      project.Name,
		"createdAt": project.CreatedAt,
		"updatedAt": project.UpdatedAt,
	}
}

func audiencePayload(audience graph.Audience) map[string]any {
	return map[string]any{
		"id":          audience.ID,
		"projectId":   audience.ProjectID,
		"name":        audience.Name,
		"description": audience.Description,
		"sortOrder":   audience.SortOrder,
	}
}

func painDesirePayload(painDesire graph.PainDesire) map[string]any {
	return map[string]any{
		"id":          painDesire.ID,
		"projectId":   painDesire.ProjectID,
		"kind":        string(painDesire.Kind),
		"title":       painDesire.Title,
		"description": painDesire.Description,
		"intensity":   painDesire.Intensity,
		"sortOrder":   painDesire.SortOrder,
	}
}

func linkPayload(link graph.PainDesireAudienceLink) map[string]any {
	return map[string]any{
		"id":           link.ID,
		"projectId":    link.ProjectID,
		"painDesireId": link.PainDesireID,
		"audienceId":   link.AudienceID,
		"sortOrder":    link.SortOrder,
	}
}

func anglePayload(angle graph.MessagingAngle) map[string]any {
	lenses := angle.Lenses
	if lenses == nil {
		lenses = map[string]string{}
	}
	return map[string]any{
		"id":           angle.ID,
		"projectId":    angle.ProjectID,
		"painDesireId": angle.PainDesireID,
		"audienceId":   angle.AudienceID,
		"title":        angle.Title,
		"description":  angle.Description,
		"tone":         angle.Tone,
		"origin":       string(angle.Origin),
		"lenses":       lenses,
		"sortOrder":    angle.SortOrder,
	}
}

func hookPayload(hook graph.Hook) map[string]any {
	return map[string]any{
		"id":               hook.ID,
		"projectId":        hook.ProjectID,
		"messagingAngleId": hook.MessagingAngleID,
		"type":             string(hook.Type),
		"content":          hook.Content,
		"awarenessStage":   string(hook.Stage),
		"starred":          hook.Starred,
		"origin":           string(hook.Origin),
		"sortOrder":        hook.SortOrder,
	}
}

func executionPayload(execution graph.FormatExecution) map[string]any {
	return map[string]any{
		"id":           execution.ID,
		"projectId":    execution.ProjectID,
		"hookId":       execution.HookID,
		"templateId":   execution.TemplateID,
		"conceptNotes": execution.ConceptNotes,
		"sortOrder":    execution.SortOrder,
	}
}

func shareLinkPayload(link store.ShareLink) map[string]any {
	return map[string]any{
		"id":          link.ID,
		"token":       link.Token,
		"projectId":   link.ProjectID,
		"createdBy":   link.CreatedBy,
		"protected":   link.PasswordHash != "",
		"expiresAt":   link.ExpiresAt,
		"accessCount": link.AccessCount,
		"createdAt":   link.CreatedAt,
	}
}

func intersectionPayloads(intersections []graph.Intersection) []map[string]any {
	items := make([]map[string]any, 0, len(intersections))
	for _, intersection := range intersections {
		angles := make([]map[string]any, 0, len(intersection.Angles))
		for _, angle := range intersection.Angles {
			angles = append(angles, anglePayload(angle))
		}
		items = append(items, map[string]any{
			"linkId":     intersection.LinkID,
			"painDesire": painDesirePayload(intersection.PainDesire),
			"audience":   audiencePayload(intersection.Audience),
			"angles":     angles,
		})
	}
	return items
}

func boardPayload(board map[graph.AwarenessStage][]graph.Hook) map[string]any {
	columns := make(map[string]any, len(graph.Stages))
	for _, stage := range graph.Stages {
		hooks := make([]map[string]any, 0, len(board[stage]))
		for _, hook := range board[stage] {
			hooks = append(hooks, hookPayload(hook))
		}
		columns[string(stage)] = hooks
	}
	return columns
}
