package sync

import (
	"context"
	"fmt"
	gosync "sync"

	"briefforge/api/internal/graph"
	"briefforge/api/internal/util"
)

// Engine owns one project's graph for the duration of a viewing
// session. All mutations and reads go through it; the internal mutex
// serializes them, which is what lets the rollback snapshot be a plain
// pre-image of the whole graph.
type Engine struct {
	mu     gosync.Mutex
	g      *graph.Graph
	remote Remote
}

// NewEngine wraps a hydrated graph. The engine takes ownership: callers
// must not mutate g directly afterwards.
func NewEngine(g *graph.Graph, remote Remote) *Engine {
	return &Engine{g: g, remote: remote}
}

func (e *Engine) ProjectID() string {
	return e.g.ProjectID
}

// Snapshot returns a deep copy of the current graph for read paths
// that outlive the lock, such as brief assembly.
func (e *Engine) Snapshot() *graph.Graph {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.g.Clone()
}

// Intersections resolves the angle matrix from the current graph.
func (e *Engine) Intersections() []graph.Intersection {
	e.mu.Lock()
	defer e.mu.Unlock()
	return graph.ResolveIntersections(e.g)
}

// Board returns the hook kanban, one ordered column per awareness stage.
func (e *Engine) Board() map[graph.AwarenessStage][]graph.Hook {
	e.mu.Lock()
	defer e.mu.Unlock()
	board := make(map[graph.AwarenessStage][]graph.Hook, len(graph.Stages))
	for _, stage := range graph.Stages {
		board[stage] = e.g.HooksByStage(stage)
	}
	return board
}

func provisionalID() string {
	return util.NewID("tmp")
}

// --- audiences -----------------------------------------------------------

func (e *Engine) CreateAudience(ctx context.Context, draft AudienceDraft) (graph.Audience, error) {
	if draft.Name == "" {
		return graph.Audience{}, fmt.Errorf("%w: audience name required", ErrValidation)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	snapshot := e.g.Clone()
	local := e.g.InsertAudience(graph.Audience{
		ID:          provisionalID(),
		ProjectID:   e.g.ProjectID,
		Name:        draft.Name,
		Description: draft.Description,
		SortOrder:   graph.Unspecified,
	})

	canonical, err := e.remote.CreateAudience(ctx, local)
	if err != nil {
		e.g.Restore(snapshot)
		return graph.Audience{}, fmt.Errorf("create audience: %w", err)
	}
	e.g.ReplaceAudience(local.ID, canonical)
	return canonical, nil
}

func (e *Engine) UpdateAudience(ctx context.Context, id string, patch graph.AudiencePatch) (graph.Audience, error) {
	if patch.Name != nil && *patch.Name == "" {
		return graph.Audience{}, fmt.Errorf("%w: audience name required", ErrValidation)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	snapshot := e.g.Clone()
	local, ok := e.g.PatchAudience(id, patch)
	if !ok {
		return graph.Audience{}, fmt.Errorf("audience %s: %w", id, ErrNotFound)
	}

	canonical, err := e.remote.UpdateAudience(ctx, local)
	if err != nil {
		e.g.Restore(snapshot)
		return graph.Audience{}, fmt.Errorf("update audience: %w", err)
	}
	e.g.ReplaceAudience(id, canonical)
	return canonical, nil
}

// DeleteAudience removes the audience and cascades into its links.
// The remote sees one delete per cascaded link plus the entity delete;
// any failure restores the whole pre-image, links included.
func (e *Engine) DeleteAudience(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.g.Audiences[id]; !ok {
		return fmt.Errorf("audience %s: %w", id, ErrNotFound)
	}

	snapshot := e.g.Clone()
	removed := e.g.RemoveAudience(id)

	for _, link := range removed {
		if err := e.remote.DeleteLink(ctx, link.ID); err != nil {
			e.g.Restore(snapshot)
			return fmt.Errorf("delete audience links: %w", err)
		}
	}
	if err := e.remote.DeleteAudience(ctx, id); err != nil {
		e.g.Restore(snapshot)
		return fmt.Errorf("delete audience: %w", err)
	}
	return nil
}

// --- pain/desires --------------------------------------------------------

func (e *Engine) CreatePainDesire(ctx context.Context, draft PainDesireDraft) (graph.PainDesire, error) {
	if draft.Title == "" {
		return graph.PainDesire{}, fmt.Errorf("%w: title required", ErrValidation)
	}
	if draft.Kind != graph.KindPain && draft.Kind != graph.KindDesire {
		return graph.PainDesire{}, fmt.Errorf("%w: kind must be PAIN or DESIRE", ErrValidation)
	}
	if draft.Intensity < 0 || draft.Intensity > 10 {
		return graph.PainDesire{}, fmt.Errorf("%w: intensity must be between 1 and 10", ErrValidation)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	snapshot := e.g.Clone()
	local := e.g.InsertPainDesire(graph.PainDesire{
		ID:          provisionalID(),
		ProjectID:   e.g.ProjectID,
		Kind:        draft.Kind,
		Title:       draft.Title,
		Description: draft.Description,
		Intensity:   draft.Intensity,
		SortOrder:   graph.Unspecified,
	})

	canonical, err := e.remote.CreatePainDesire(ctx, local)
	if err != nil {
		e.g.Restore(snapshot)
		return graph.PainDesire{}, fmt.Errorf("create pain desire: %w", err)
	}
	e.g.ReplacePainDesire(local.ID, canonical)
	return canonical, nil
}

func (e *Engine) UpdatePainDesire(ctx context.Context, id string, patch graph.PainDesirePatch) (graph.PainDesire, error) {
	if patch.Title != nil && *patch.Title == "" {
		return graph.PainDesire{}, fmt.Errorf("%w: title required", ErrValidation)
	}
	if patch.Kind != nil && *patch.Kind != graph.KindPain && *patch.Kind != graph.KindDesire {
		return graph.PainDesire{}, fmt.Errorf("%w: kind must be PAIN or DESIRE", ErrValidation)
	}
	if patch.Intensity != nil && (*patch.Intensity < 0 || *patch.Intensity > 10) {
		return graph.PainDesire{}, fmt.Errorf("%w: intensity must be between 1 and 10", ErrValidation)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	snapshot := e.g.Clone()
	local, ok := e.g.PatchPainDesire(id, patch)
	if !ok {
		return graph.PainDesire{}, fmt.Errorf("pain desire %s: %w", id, ErrNotFound)
	}

	canonical, err := e.remote.UpdatePainDesire(ctx, local)
	if err != nil {
		e.g.Restore(snapshot)
		return graph.PainDesire{}, fmt.Errorf("update pain desire: %w", err)
	}
	e.g.ReplacePainDesire(id, canonical)
	return canonical, nil
}

func (e *Engine) DeletePainDesire(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.g.PainDesires[id]; !ok {
		return fmt.Errorf("pain desire %s: %w", id, ErrNotFound)
	}

	snapshot := e.g.Clone()
	removed := e.g.RemovePainDesire(id)

	for _, link := range removed {
		if err := e.remote.DeleteLink(ctx, link.ID); err != nil {
			e.g.Restore(snapshot)
			return fmt.Errorf("delete pain desire links: %w", err)
		}
	}
	if err := e.remote.DeletePainDesire(ctx, id); err != nil {
		e.g.Restore(snapshot)
		return fmt.Errorf("delete pain desire: %w", err)
	}
	return nil
}

// --- links ---------------------------------------------------------------

// Link joins a pain/desire to an audience. Both endpoints must exist
// and the pair must not already be linked.
func (e *Engine) Link(ctx context.Context, painDesireID, audienceID string) (graph.PainDesireAudienceLink, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.g.PainDesires[painDesireID]; !ok {
		return graph.PainDesireAudienceLink{}, fmt.Errorf("pain desire %s: %w", painDesireID, ErrNotFound)
	}
	if _, ok := e.g.Audiences[audienceID]; !ok {
		return graph.PainDesireAudienceLink{}, fmt.Errorf("audience %s: %w", audienceID, ErrNotFound)
	}
	if e.g.HasLinkPair(painDesireID, audienceID) {
		return graph.PainDesireAudienceLink{}, fmt.Errorf("%w: pair already linked", ErrValidation)
	}

	snapshot := e.g.Clone()
	local := e.g.InsertLink(graph.PainDesireAudienceLink{
		ID:           provisionalID(),
		ProjectID:    e.g.ProjectID,
		PainDesireID: painDesireID,
		AudienceID:   audienceID,
		SortOrder:    graph.Unspecified,
	})

	canonical, err := e.remote.CreateLink(ctx, local)
	if err != nil {
		e.g.Restore(snapshot)
		return graph.PainDesireAudienceLink{}, fmt.Errorf("create link: %w", err)
	}
	e.g.ReplaceLink(local.ID, canonical)
	return canonical, nil
}

// Unlink removes a single link. Angles under the intersection stay,
// orphaned.
func (e *Engine) Unlink(ctx context.Context, linkID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.g.Links[linkID]; !ok {
		return fmt.Errorf("link %s: %w", linkID, ErrNotFound)
	}

	snapshot := e.g.Clone()
	e.g.RemoveLink(linkID)

	if err := e.remote.DeleteLink(ctx, linkID); err != nil {
		e.g.Restore(snapshot)
		return fmt.Errorf("delete link: %w", err)
	}
	return nil
}

// --- messaging angles ----------------------------------------------------

func (e *Engine) CreateAngle(ctx context.Context, draft AngleDraft) (graph.MessagingAngle, error) {
	if draft.Title == "" {
		return graph.MessagingAngle{}, fmt.Errorf("%w: angle title required", ErrValidation)
	}
	if draft.Origin == "" {
		draft.Origin = graph.OriginManual
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.g.PainDesires[draft.PainDesireID]; !ok {
		return graph.MessagingAngle{}, fmt.Errorf("pain desire %s: %w", draft.PainDesireID, ErrNotFound)
	}
	if _, ok := e.g.Audiences[draft.AudienceID]; !ok {
		return graph.MessagingAngle{}, fmt.Errorf("audience %s: %w", draft.AudienceID, ErrNotFound)
	}

	snapshot := e.g.Clone()
	local := e.g.InsertAngle(graph.MessagingAngle{
		ID:           provisionalID(),
		ProjectID:    e.g.ProjectID,
		PainDesireID: draft.PainDesireID,
		AudienceID:   draft.AudienceID,
		Title:        draft.Title,
		Description:  draft.Description,
		Tone:         draft.Tone,
		Origin:       draft.Origin,
		Lenses:       draft.Lenses,
		SortOrder:    graph.Unspecified,
	})

	canonical, err := e.remote.CreateAngle(ctx, local)
	if err != nil {
		e.g.Restore(snapshot)
		return graph.MessagingAngle{}, fmt.Errorf("create angle: %w", err)
	}
	e.g.ReplaceAngle(local.ID, canonical)
	return canonical, nil
}

func (e *Engine) UpdateAngle(ctx context.Context, id string, patch graph.AnglePatch) (graph.MessagingAngle, error) {
	if patch.Title != nil && *patch.Title == "" {
		return graph.MessagingAngle{}, fmt.Errorf("%w: angle title required", ErrValidation)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// Editing generated copy demotes it to AI_EDITED unless the caller
	// sets the origin explicitly.
	if patch.Origin == nil && (patch.Title != nil || patch.Description != nil || patch.Tone != nil || patch.Lenses != nil) {
		if current, ok := e.g.Angles[id]; ok && current.Origin == graph.OriginAIGenerated {
			edited := graph.OriginAIEdited
			patch.Origin = &edited
		}
	}

	snapshot := e.g.Clone()
	local, ok := e.g.PatchAngle(id, patch)
	if !ok {
		return graph.MessagingAngle{}, fmt.Errorf("angle %s: %w", id, ErrNotFound)
	}

	canonical, err := e.remote.UpdateAngle(ctx, local)
	if err != nil {
		e.g.Restore(snapshot)
		return graph.MessagingAngle{}, fmt.Errorf("update angle: %w", err)
	}
	e.g.ReplaceAngle(id, canonical)
	return canonical, nil
}

func (e *Engine) DeleteAngle(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.g.Angles[id]; !ok {
		return fmt.Errorf("angle %s: %w", id, ErrNotFound)
	}

	snapshot := e.g.Clone()
	e.g.RemoveAngle(id)

	if err := e.remote.DeleteAngle(ctx, id); err != nil {
		e.g.Restore(snapshot)
		return fmt.Errorf("delete angle: %w", err)
	}
	return nil
}

// --- hooks ---------------------------------------------------------------

func (e *Engine) CreateHook(ctx context.Context, draft HookDraft) (graph.Hook, error) {
	if err := validateHookDraft(draft); err != nil {
		return graph.Hook{}, err
	}
	if draft.Origin == "" {
		draft.Origin = graph.OriginManual
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.g.Angles[draft.MessagingAngleID]; !ok {
		return graph.Hook{}, fmt.Errorf("angle %s: %w", draft.MessagingAngleID, ErrNotFound)
	}

	snapshot := e.g.Clone()
	local := e.g.InsertHook(graph.Hook{
		ID:               provisionalID(),
		ProjectID:        e.g.ProjectID,
		MessagingAngleID: draft.MessagingAngleID,
		Type:             draft.Type,
		Content:          draft.Content,
		Stage:            draft.Stage,
		Origin:           draft.Origin,
		SortOrder:        graph.Unspecified,
	})

	canonical, err := e.remote.CreateHook(ctx, local)
	if err != nil {
		e.g.Restore(snapshot)
		return graph.Hook{}, fmt.Errorf("create hook: %w", err)
	}
	e.g.ReplaceHook(local.ID, canonical)
	return canonical, nil
}

func (e *Engine) UpdateHook(ctx context.Context, id string, patch graph.HookPatch) (graph.Hook, error) {
	if patch.Content != nil && *patch.Content == "" {
		return graph.Hook{}, fmt.Errorf("%w: hook content required", ErrValidation)
	}
	if patch.Type != nil && !graph.ValidHookType(*patch.Type) {
		return graph.Hook{}, fmt.Errorf("%w: unknown hook type %q", ErrValidation, *patch.Type)
	}
	if patch.Stage != nil && !graph.ValidStage(*patch.Stage) {
		return graph.Hook{}, fmt.Errorf("%w: unknown awareness stage %q", ErrValidation, *patch.Stage)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if patch.Origin == nil && patch.Content != nil {
		if current, ok := e.g.Hooks[id]; ok && current.Origin == graph.OriginAIGenerated {
			edited := graph.OriginAIEdited
			patch.Origin = &edited
		}
	}

	snapshot := e.g.Clone()
	local, ok := e.g.PatchHook(id, patch)
	if !ok {
		return graph.Hook{}, fmt.Errorf("hook %s: %w", id, ErrNotFound)
	}

	canonical, err := e.remote.UpdateHook(ctx, local)
	if err != nil {
		e.g.Restore(snapshot)
		return graph.Hook{}, fmt.Errorf("update hook: %w", err)
	}
	e.g.ReplaceHook(id, canonical)
	return canonical, nil
}

// StarHook toggles the star flag on a hook.
func (e *Engine) StarHook(ctx context.Context, id string, starred bool) (graph.Hook, error) {
	return e.UpdateHook(ctx, id, graph.HookPatch{Starred: &starred})
}

// DeleteHook removes the hook and cascades into its format executions.
func (e *Engine) DeleteHook(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.g.Hooks[id]; !ok {
		return fmt.Errorf("hook %s: %w", id, ErrNotFound)
	}

	snapshot := e.g.Clone()
	executions := e.g.ExecutionsForHook(id)
	for _, exec := range executions {
		e.g.RemoveExecution(exec.ID)
	}
	e.g.RemoveHook(id)

	for _, exec := range executions {
		if err := e.remote.DeleteExecution(ctx, exec.ID); err != nil {
			e.g.Restore(snapshot)
			return fmt.Errorf("delete hook executions: %w", err)
		}
	}
	if err := e.remote.DeleteHook(ctx, id); err != nil {
		e.g.Restore(snapshot)
		return fmt.Errorf("delete hook: %w", err)
	}
	return nil
}

// MoveHook applies a board drop. A drop onto the hook's current stage
// and position is a pure no-op: the graph is untouched and the remote
// is never called.
func (e *Engine) MoveHook(ctx context.Context, id string, stage graph.AwarenessStage, index int) (graph.Hook, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.g.Hooks[id]; !ok {
		return graph.Hook{}, fmt.Errorf("hook %s: %w", id, ErrNotFound)
	}
	if !graph.ValidStage(stage) {
		return graph.Hook{}, fmt.Errorf("%w: unknown awareness stage %q", ErrValidation, stage)
	}

	snapshot := e.g.Clone()
	result, ok := graph.MoveHook(e.g, id, stage, index)
	if !ok {
		return graph.Hook{}, fmt.Errorf("hook %s: %w", id, ErrNotFound)
	}
	if !result.Changed {
		return result.Hook, nil
	}

	canonical, err := e.remote.UpdateHook(ctx, result.Hook)
	if err != nil {
		e.g.Restore(snapshot)
		return graph.Hook{}, fmt.Errorf("move hook: %w", err)
	}
	e.g.ReplaceHook(id, canonical)
	return canonical, nil
}

// AcceptSuggestedHooks lands a batch of accepted suggestions under one
// angle. The batch is atomic end to end: every draft is validated up
// front, the remote write is one transaction, and a failure restores
// the graph with none of the batch in it.
func (e *Engine) AcceptSuggestedHooks(ctx context.Context, angleID string, drafts []HookDraft) ([]graph.Hook, error) {
	if len(drafts) == 0 {
		return []graph.Hook{}, nil
	}
	for i, draft := range drafts {
		if err := validateHookDraft(draft); err != nil {
			return nil, fmt.Errorf("suggestion %d: %w", i, err)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.g.Angles[angleID]; !ok {
		return nil, fmt.Errorf("angle %s: %w", angleID, ErrNotFound)
	}

	snapshot := e.g.Clone()
	locals := make([]graph.Hook, 0, len(drafts))
	for _, draft := range drafts {
		local := e.g.InsertHook(graph.Hook{
			ID:               provisionalID(),
			ProjectID:        e.g.ProjectID,
			MessagingAngleID: angleID,
			Type:             draft.Type,
			Content:          draft.Content,
			Stage:            draft.Stage,
			Origin:           graph.OriginAIGenerated,
			SortOrder:        graph.Unspecified,
		})
		locals = append(locals, local)
	}

	canonical, err := e.remote.CreateHookBatch(ctx, locals)
	if err != nil {
		e.g.Restore(snapshot)
		return nil, fmt.Errorf("accept suggested hooks: %w", err)
	}
	if len(canonical) != len(locals) {
		e.g.Restore(snapshot)
		return nil, fmt.Errorf("accept suggested hooks: store returned %d rows for %d drafts", len(canonical), len(locals))
	}
	for i, local := range locals {
		e.g.ReplaceHook(local.ID, canonical[i])
	}
	return canonical, nil
}

func validateHookDraft(draft HookDraft) error {
	if draft.Content == "" {
		return fmt.Errorf("%w: hook content required", ErrValidation)
	}
	if !graph.ValidHookType(draft.Type) {
		return fmt.Errorf("%w: unknown hook type %q", ErrValidation, draft.Type)
	}
	if draft.Stage != "" && !graph.ValidStage(draft.Stage) {
		return fmt.Errorf("%w: unknown awareness stage %q", ErrValidation, draft.Stage)
	}
	return nil
}

// --- format executions ---------------------------------------------------

func (e *Engine) CreateExecution(ctx context.Context, draft ExecutionDraft) (graph.FormatExecution, error) {
	if draft.TemplateID == "" {
		return graph.FormatExecution{}, fmt.Errorf("%w: template id required", ErrValidation)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.g.Hooks[draft.HookID]; !ok {
		return graph.FormatExecution{}, fmt.Errorf("hook %s: %w", draft.HookID, ErrNotFound)
	}

	snapshot := e.g.Clone()
	local := e.g.InsertExecution(graph.FormatExecution{
		ID:           provisionalID(),
		ProjectID:    e.g.ProjectID,
		HookID:       draft.HookID,
		TemplateID:   draft.TemplateID,
		ConceptNotes: draft.ConceptNotes,
		SortOrder:    graph.Unspecified,
	})

	canonical, err := e.remote.CreateExecution(ctx, local)
	if err != nil {
		e.g.Restore(snapshot)
		return graph.FormatExecution{}, fmt.Errorf("create execution: %w", err)
	}
	e.g.ReplaceExecution(local.ID, canonical)
	return canonical, nil
}

func (e *Engine) UpdateExecution(ctx context.Context, id string, patch graph.ExecutionPatch) (graph.FormatExecution, error) {
	if patch.TemplateID != nil && *patch.TemplateID == "" {
		return graph.FormatExecution{}, fmt.Errorf("%w: template id required", ErrValidation)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	snapshot := e.g.Clone()
	local, ok := e.g.PatchExecution(id, patch)
	if !ok {
		return graph.FormatExecution{}, fmt.Errorf("execution %s: %w", id, ErrNotFound)
	}

	canonical, err := e.remote.UpdateExecution(ctx, local)
	if err != nil {
		e.g.Restore(snapshot)
		return graph.FormatExecution{}, fmt.Errorf("update execution: %w", err)
	}
	e.g.ReplaceExecution(id, canonical)
	return canonical, nil
}

func (e *Engine) DeleteExecution(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.g.Executions[id]; !ok {
		return fmt.Errorf("execution %s: %w", id, ErrNotFound)
	}

	snapshot := e.g.Clone()
	e.g.RemoveExecution(id)

	if err := e.remote.DeleteExecution(ctx, id); err != nil {
		e.g.Restore(snapshot)
		return fmt.Errorf("delete execution: %w", err)
	}
	return nil
}

// --- reorder helpers -----------------------------------------------------
//
// Reorders are sort-order patches. They never renumber siblings; the
// (SortOrder, ID) display sort absorbs any duplicates that result.

func (e *Engine) ReorderAudience(ctx context.Context, id string, order int) (graph.Audience, error) {
	return e.UpdateAudience(ctx, id, graph.AudiencePatch{SortOrder: &order})
}

func (e *Engine) ReorderPainDesire(ctx context.Context, id string, order int) (graph.PainDesire, error) {
	return e.UpdatePainDesire(ctx, id, graph.PainDesirePatch{SortOrder: &order})
}

func (e *Engine) ReorderAngle(ctx context.Context, id string, order int) (graph.MessagingAngle, error) {
	return e.UpdateAngle(ctx, id, graph.AnglePatch{SortOrder: &order})
}

func (e *Engine) ReorderExecution(ctx context.Context, id string, order int) (graph.FormatExecution, error) {
	return e.UpdateExecution(ctx, id, graph.ExecutionPatch{SortOrder: &order})
}
