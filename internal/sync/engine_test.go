package sync

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"briefforge/api/internal/graph"
)

type fakeRemote struct {
	calls []string
	seq   int

	createAudienceFn  func(a graph.Audience) (graph.Audience, error)
	updateAudienceFn  func(a graph.Audience) (graph.Audience, error)
	deleteAudienceFn  func(id string) error
	deleteLinkFn      func(id string) error
	updateHookFn      func(h graph.Hook) (graph.Hook, error)
	createHookBatchFn func(hooks []graph.Hook) ([]graph.Hook, error)
}

func (r *fakeRemote) record(call string) {
	r.calls = append(r.calls, call)
}

func (r *fakeRemote) canonicalID(prefix string) string {
	r.seq++
	return fmt.Sprintf("%s_%04d", prefix, r.seq)
}

func (r *fakeRemote) CreateAudience(_ context.Context, a graph.Audience) (graph.Audience, error) {
	r.record("CreateAudience")
	if r.createAudienceFn != nil {
		return r.createAudienceFn(a)
	}
	a.ID = r.canonicalID("aud")
	return a, nil
}

func (r *fakeRemote) UpdateAudience(_ context.Context, a graph.Audience) (graph.Audience, error) {
	r.record("UpdateAudience")
	if r.updateAudienceFn != nil {
		return r.updateAudienceFn(a)
	}
	return a, nil
}

func (r *fakeRemote) DeleteAudience(_ context.Context, id string) error {
	r.record("DeleteAudience")
	if r.deleteAudienceFn != nil {
		return r.deleteAudienceFn(id)
	}
	return nil
}

func (r *fakeRemote) CreatePainDesire(_ context.Context, p graph.PainDesire) (graph.PainDesire, error) {
	r.record("CreatePainDesire")
	p.ID = r.canonicalID("pd")
	return p, nil
}

func (r *fakeRemote) UpdatePainDesire(_ context.Context, p graph.PainDesire) (graph.PainDesire, error) {
	r.record("UpdatePainDesire")
	return p, nil
}

func (r *fakeRemote) DeletePainDesire(_ context.Context, id string) error {
	r.record("DeletePainDesire")
	return nil
}

func (r *fakeRemote) CreateLink(_ context.Context, l graph.PainDesireAudienceLink) (graph.PainDesireAudienceLink, error) {
	r.record("CreateLink")
	l.ID = r.canonicalID("lnk")
	return l, nil
}

func (r *fakeRemote) DeleteLink(_ context.Context, id string) error {
	r.record("DeleteLink")
	if r.deleteLinkFn != nil {
		return r.deleteLinkFn(id)
	}
	return nil
}

func (r *fakeRemote) CreateAngle(_ context.Context, a graph.MessagingAngle) (graph.MessagingAngle, error) {
	r.record("CreateAngle")
	a.ID = r.canonicalID("ang")
	return a, nil
}

func (r *fakeRemote) UpdateAngle(_ context.Context, a graph.MessagingAngle) (graph.MessagingAngle, error) {
	r.record("UpdateAngle")
	return a, nil
}

func (r *fakeRemote) DeleteAngle(_ context.Context, id string) error {
	r.record("DeleteAngle")
	return nil
}

func (r *fakeRemote) CreateHook(_ context.Context, h graph.Hook) (graph.Hook, error) {
	r.record("CreateHook")
	h.ID = r.canonicalID("hk")
	return h, nil
}

func (r *fakeRemote) UpdateHook(_ context.Context, h graph.Hook) (graph.Hook, error) {
	r.record("UpdateHook")
	if r.updateHookFn != nil {
		return r.updateHookFn(h)
	}
	return h, nil
}

func (r *fakeRemote) DeleteHook(_ context.Context, id string) error {
	r.record("DeleteHook")
	return nil
}

func (r *fakeRemote) CreateHookBatch(_ context.Context, hooks []graph.Hook) ([]graph.Hook, error) {
	r.record("CreateHookBatch")
	if r.createHookBatchFn != nil {
		return r.createHookBatchFn(hooks)
	}
	out := make([]graph.Hook, 0, len(hooks))
	for _, h := range hooks {
		h.ID = r.canonicalID("hk")
		out = append(out, h)
	}
	return out, nil
}

func (r *fakeRemote) CreateExecution(_ context.Context, e graph.FormatExecution) (graph.FormatExecution, error) {
	r.record("CreateExecution")
	e.ID = r.canonicalID("fx")
	return e, nil
}

func (r *fakeRemote) UpdateExecution(_ context.Context, e graph.FormatExecution) (graph.FormatExecution, error) {
	r.record("UpdateExecution")
	return e, nil
}

func (r *fakeRemote) DeleteExecution(_ context.Context, id string) error {
	r.record("DeleteExecution")
	return nil
}

// seededGraph builds a small funnel: two audiences, one pain, one
// desire, two links under the pain, one angle, one hook with one
// execution.
func seededGraph() *graph.Graph {
	g := graph.New("proj_test")
	g.Audiences["aud_1"] = graph.Audience{ID: "aud_1", ProjectID: "proj_test", Name: "Busy founders", SortOrder: 0}
	g.Audiences["aud_2"] = graph.Audience{ID: "aud_2", ProjectID: "proj_test", Name: "Agency owners", SortOrder: 1}
	g.PainDesires["pd_1"] = graph.PainDesire{ID: "pd_1", ProjectID: "proj_test", Kind: graph.KindPain, Title: "No time", SortOrder: 0}
	g.PainDesires["pd_2"] = graph.PainDesire{ID: "pd_2", ProjectID: "proj_test", Kind: graph.KindDesire, Title: "Scale output", SortOrder: 1}
	g.Links["lnk_1"] = graph.PainDesireAudienceLink{ID: "lnk_1", ProjectID: "proj_test", PainDesireID: "pd_1", AudienceID: "aud_1", SortOrder: 0}
	g.Links["lnk_2"] = graph.PainDesireAudienceLink{ID: "lnk_2", ProjectID: "proj_test", PainDesireID: "pd_1", AudienceID: "aud_2", SortOrder: 1}
	g.Angles["ang_1"] = graph.MessagingAngle{ID: "ang_1", ProjectID: "proj_test", PainDesireID: "pd_1", AudienceID: "aud_1", Title: "Time is the product", Origin: graph.OriginManual, SortOrder: 0}
	g.Hooks["hk_1"] = graph.Hook{ID: "hk_1", ProjectID: "proj_test", MessagingAngleID: "ang_1", Type: graph.HookQuestion, Content: "Where did your week go?", Stage: graph.StageUnaware, Origin: graph.OriginManual, SortOrder: 0}
	g.Executions["fx_1"] = graph.FormatExecution{ID: "fx_1", ProjectID: "proj_test", HookID: "hk_1", TemplateID: "tpl_ugc", SortOrder: 0}
	return g
}

func newTestEngine() (*Engine, *fakeRemote) {
	remote := &fakeRemote{}
	return NewEngine(seededGraph(), remote), remote
}

func TestCreateAudienceMergesCanonicalRow(t *testing.T) {
	engine, remote := newTestEngine()

	created, err := engine.CreateAudience(context.Background(), AudienceDraft{Name: "DTC operators"})
	if err != nil {
		t.Fatalf("create audience: %v", err)
	}
	if strings.HasPrefix(created.ID, "tmp") {
		t.Fatalf("provisional ID leaked into result: %s", created.ID)
	}
	if created.SortOrder != 2 {
		t.Fatalf("sort order = %d, want append position 2", created.SortOrder)
	}

	snapshot := engine.Snapshot()
	if _, ok := snapshot.Audiences[created.ID]; !ok {
		t.Fatal("canonical row missing from graph")
	}
	for id := range snapshot.Audiences {
		if strings.HasPrefix(id, "tmp") {
			t.Fatalf("provisional row %s left behind", id)
		}
	}
	if got := remote.calls; len(got) != 1 || got[0] != "CreateAudience" {
		t.Fatalf("remote calls = %v", got)
	}
}

func TestCreateAudienceRollsBackOnRemoteFailure(t *testing.T) {
	engine, remote := newTestEngine()
	remote.createAudienceFn = func(graph.Audience) (graph.Audience, error) {
		return graph.Audience{}, errors.New("store down")
	}

	before := engine.Snapshot()
	if _, err := engine.CreateAudience(context.Background(), AudienceDraft{Name: "DTC operators"}); err == nil {
		t.Fatal("expected error")
	}

	if !reflect.DeepEqual(before, engine.Snapshot()) {
		t.Fatal("graph not restored to pre-image after remote failure")
	}
}

func TestUpdateUnknownAudienceMakesNoRemoteCall(t *testing.T) {
	engine, remote := newTestEngine()

	name := "Renamed"
	_, err := engine.UpdateAudience(context.Background(), "aud_missing", graph.AudiencePatch{Name: &name})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if len(remote.calls) != 0 {
		t.Fatalf("remote calls = %v, want none", remote.calls)
	}
	if !reflect.DeepEqual(seededGraph(), engine.Snapshot()) {
		t.Fatal("graph changed on failed patch")
	}
}

func TestDeleteAudienceCascadesItsLinks(t *testing.T) {
	engine, remote := newTestEngine()

	if err := engine.DeleteAudience(context.Background(), "aud_1"); err != nil {
		t.Fatalf("delete audience: %v", err)
	}

	snapshot := engine.Snapshot()
	if _, ok := snapshot.Audiences["aud_1"]; ok {
		t.Fatal("audience still present")
	}
	if _, ok := snapshot.Links["lnk_1"]; ok {
		t.Fatal("link to deleted audience still present")
	}
	if _, ok := snapshot.Links["lnk_2"]; !ok {
		t.Fatal("unrelated link removed")
	}
	if _, ok := snapshot.PainDesires["pd_1"]; !ok {
		t.Fatal("linked pain removed by audience cascade")
	}
	want := []string{"DeleteLink", "DeleteAudience"}
	if !reflect.DeepEqual(remote.calls, want) {
		t.Fatalf("remote calls = %v, want %v", remote.calls, want)
	}
}

func TestDeleteAudienceRestoresCascadeOnFailure(t *testing.T) {
	engine, remote := newTestEngine()
	remote.deleteAudienceFn = func(string) error { return errors.New("store down") }

	before := engine.Snapshot()
	if err := engine.DeleteAudience(context.Background(), "aud_1"); err == nil {
		t.Fatal("expected error")
	}

	if !reflect.DeepEqual(before, engine.Snapshot()) {
		t.Fatal("cascaded links not restored after failed delete")
	}
}

func TestLinkRejectsDuplicatePair(t *testing.T) {
	engine, remote := newTestEngine()

	_, err := engine.Link(context.Background(), "pd_1", "aud_1")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if len(remote.calls) != 0 {
		t.Fatalf("remote calls = %v, want none", remote.calls)
	}
}

func TestLinkNewPair(t *testing.T) {
	engine, _ := newTestEngine()

	link, err := engine.Link(context.Background(), "pd_2", "aud_1")
	if err != nil {
		t.Fatalf("link: %v", err)
	}
	if link.SortOrder != 2 {
		t.Fatalf("sort order = %d, want 2", link.SortOrder)
	}
	if !engine.Snapshot().HasLinkPair("pd_2", "aud_1") {
		t.Fatal("pair not linked in graph")
	}
}

func TestMoveHookToSamePositionSkipsRemote(t *testing.T) {
	engine, remote := newTestEngine()

	before := engine.Snapshot()
	moved, err := engine.MoveHook(context.Background(), "hk_1", graph.StageUnaware, 0)
	if err != nil {
		t.Fatalf("move hook: %v", err)
	}
	if len(remote.calls) != 0 {
		t.Fatalf("remote calls = %v, want none for no-op drop", remote.calls)
	}
	if !reflect.DeepEqual(before, engine.Snapshot()) {
		t.Fatal("no-op drop mutated the graph")
	}
	if moved.ID != "hk_1" {
		t.Fatalf("moved.ID = %s", moved.ID)
	}
}

func TestMoveHookPersistsStageAndOrder(t *testing.T) {
	engine, remote := newTestEngine()

	moved, err := engine.MoveHook(context.Background(), "hk_1", graph.StageProblemAware, 0)
	if err != nil {
		t.Fatalf("move hook: %v", err)
	}
	if moved.Stage != graph.StageProblemAware || moved.SortOrder != 0 {
		t.Fatalf("moved to %s/%d", moved.Stage, moved.SortOrder)
	}
	want := []string{"UpdateHook"}
	if !reflect.DeepEqual(remote.calls, want) {
		t.Fatalf("remote calls = %v, want %v", remote.calls, want)
	}

	board := engine.Board()
	if len(board[graph.StageUnaware]) != 0 {
		t.Fatal("hook still in source column")
	}
	if len(board[graph.StageProblemAware]) != 1 {
		t.Fatal("hook missing from destination column")
	}
}

func TestMoveHookRollsBackOnRemoteFailure(t *testing.T) {
	engine, remote := newTestEngine()
	remote.updateHookFn = func(graph.Hook) (graph.Hook, error) {
		return graph.Hook{}, errors.New("store down")
	}

	before := engine.Snapshot()
	if _, err := engine.MoveHook(context.Background(), "hk_1", graph.StageMostAware, 0); err == nil {
		t.Fatal("expected error")
	}
	if !reflect.DeepEqual(before, engine.Snapshot()) {
		t.Fatal("graph not restored after failed move")
	}
}

func TestUpdateHookContentMarksGeneratedAsEdited(t *testing.T) {
	engine, _ := newTestEngine()

	// Seed a generated hook through the batch path.
	accepted, err := engine.AcceptSuggestedHooks(context.Background(), "ang_1", []HookDraft{
		{Type: graph.HookStatistic, Content: "73% of founders skip planning", Stage: graph.StageProblemAware},
	})
	if err != nil {
		t.Fatalf("accept: %v", err)
	}

	content := "9 in 10 founders skip planning"
	updated, err := engine.UpdateHook(context.Background(), accepted[0].ID, graph.HookPatch{Content: &content})
	if err != nil {
		t.Fatalf("update hook: %v", err)
	}
	if updated.Origin != graph.OriginAIEdited {
		t.Fatalf("origin = %s, want AI_EDITED", updated.Origin)
	}
}

func TestStarHook(t *testing.T) {
	engine, _ := newTestEngine()

	starred, err := engine.StarHook(context.Background(), "hk_1", true)
	if err != nil {
		t.Fatalf("star hook: %v", err)
	}
	if !starred.Starred {
		t.Fatal("hook not starred")
	}
	if !engine.Snapshot().Hooks["hk_1"].Starred {
		t.Fatal("star not persisted in graph")
	}
}

func TestAcceptSuggestedHooksAssignsPerStageOrder(t *testing.T) {
	engine, _ := newTestEngine()

	accepted, err := engine.AcceptSuggestedHooks(context.Background(), "ang_1", []HookDraft{
		{Type: graph.HookQuestion, Content: "First?", Stage: graph.StageUnaware},
		{Type: graph.HookStory, Content: "Second.", Stage: graph.StageUnaware},
		{Type: graph.HookMetaphor, Content: "Third.", Stage: graph.StageMostAware},
	})
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	// hk_1 already sits at UNAWARE position 0.
	if accepted[0].SortOrder != 1 || accepted[1].SortOrder != 2 {
		t.Fatalf("unaware orders = %d, %d; want 1, 2", accepted[0].SortOrder, accepted[1].SortOrder)
	}
	if accepted[2].SortOrder != 0 {
		t.Fatalf("most-aware order = %d, want 0", accepted[2].SortOrder)
	}
	for _, h := range accepted {
		if h.Origin != graph.OriginAIGenerated {
			t.Fatalf("origin = %s, want AI_GENERATED", h.Origin)
		}
		if strings.HasPrefix(h.ID, "tmp") {
			t.Fatalf("provisional ID leaked: %s", h.ID)
		}
	}
}

func TestAcceptSuggestedHooksIsAllOrNothing(t *testing.T) {
	engine, remote := newTestEngine()
	remote.createHookBatchFn = func([]graph.Hook) ([]graph.Hook, error) {
		return nil, errors.New("store down")
	}

	before := engine.Snapshot()
	_, err := engine.AcceptSuggestedHooks(context.Background(), "ang_1", []HookDraft{
		{Type: graph.HookQuestion, Content: "First?", Stage: graph.StageUnaware},
		{Type: graph.HookStory, Content: "Second.", Stage: graph.StageUnaware},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !reflect.DeepEqual(before, engine.Snapshot()) {
		t.Fatal("partial batch left in graph after failure")
	}
}

func TestAcceptSuggestedHooksRejectsInvalidDraftBeforeRemote(t *testing.T) {
	engine, remote := newTestEngine()

	_, err := engine.AcceptSuggestedHooks(context.Background(), "ang_1", []HookDraft{
		{Type: graph.HookQuestion, Content: "Fine.", Stage: graph.StageUnaware},
		{Type: "SLOGAN", Content: "Bad type.", Stage: graph.StageUnaware},
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if len(remote.calls) != 0 {
		t.Fatalf("remote calls = %v, want none", remote.calls)
	}
}

func TestDeleteHookCascadesExecutions(t *testing.T) {
	engine, remote := newTestEngine()

	if err := engine.DeleteHook(context.Background(), "hk_1"); err != nil {
		t.Fatalf("delete hook: %v", err)
	}

	snapshot := engine.Snapshot()
	if _, ok := snapshot.Executions["fx_1"]; ok {
		t.Fatal("execution for deleted hook still present")
	}
	want := []string{"DeleteExecution", "DeleteHook"}
	if !reflect.DeepEqual(remote.calls, want) {
		t.Fatalf("remote calls = %v, want %v", remote.calls, want)
	}
}

func TestReorderLeavesSiblingsAlone(t *testing.T) {
	engine, _ := newTestEngine()

	if _, err := engine.ReorderAudience(context.Background(), "aud_2", 0); err != nil {
		t.Fatalf("reorder: %v", err)
	}

	snapshot := engine.Snapshot()
	if snapshot.Audiences["aud_1"].SortOrder != 0 {
		t.Fatal("sibling sort order rewritten")
	}
	ordered := snapshot.AudiencesOrdered()
	// Duplicate sort orders resolve on ID.
	if ordered[0].ID != "aud_1" || ordered[1].ID != "aud_2" {
		t.Fatalf("order = %s, %s", ordered[0].ID, ordered[1].ID)
	}
}
