// Package graph holds the in-memory relational model for one project's
// creative funnel: six typed collections keyed by ID, low-level
// mutators that maintain per-scope sort order, and the pure read
// derivations (intersections, board columns) built on top of them.
//
// A Graph's lifetime is one project-viewing session. It is constructed
// by hydration, mutated exclusively through the sync engine, and
// discarded on navigation away. Cross-references are not validated
// eagerly: a dangling foreign key is tolerated, and readers treat a
// missing lookup as an expected case.
package graph

import "sort"

// Unspecified marks a sort order the caller wants assigned on insert.
const Unspecified = -1

// Graph is an explicit, injectable store. It is not safe for
// concurrent mutation; callers serialize access per project session.
type Graph struct {
	ProjectID  string
	Audiences  map[string]Audience
	PainDesires map[string]PainDesire
	Links      map[string]PainDesireAudienceLink
	Angles     map[string]MessagingAngle
	Hooks      map[string]Hook
	Executions map[string]FormatExecution
}

// New returns an empty graph for one project.
func New(projectID string) *Graph {
	return &Graph{
		ProjectID:   projectID,
		Audiences:   make(map[string]Audience),
		PainDesires: make(map[string]PainDesire),
		Links:       make(map[string]PainDesireAudienceLink),
		Angles:      make(map[string]MessagingAngle),
		Hooks:       make(map[string]Hook),
		Executions:  make(map[string]FormatExecution),
	}
}

// Clone returns a deep copy. Snapshots taken before an optimistic
// mutation and the point-in-time graph handed to brief assembly both
// come from here.
func (g *Graph) Clone() *Graph {
	c := New(g.ProjectID)
	for id, a := range g.Audiences {
		c.Audiences[id] = a
	}
	for id, p := range g.PainDesires {
		c.PainDesires[id] = p
	}
	for id, l := range g.Links {
		c.Links[id] = l
	}
	for id, a := range g.Angles {
		if a.Lenses != nil {
			lenses := make(map[string]string, len(a.Lenses))
			for k, v := range a.Lenses {
				lenses[k] = v
			}
			a.Lenses = lenses
		}
		c.Angles[id] = a
	}
	for id, h := range g.Hooks {
		c.Hooks[id] = h
	}
	for id, e := range g.Executions {
		c.Executions[id] = e
	}
	return c
}

// Restore replaces the graph's contents with those of the snapshot.
// The receiver keeps its identity so references held by callers stay
// valid across a rollback.
func (g *Graph) Restore(snapshot *Graph) {
	g.ProjectID = snapshot.ProjectID
	g.Audiences = snapshot.Audiences
	g.PainDesires = snapshot.PainDesires
	g.Links = snapshot.Links
	g.Angles = snapshot.Angles
	g.Hooks = snapshot.Hooks
	g.Executions = snapshot.Executions
}

// --- inserts -------------------------------------------------------------

// InsertAudience appends a. A SortOrder of Unspecified is assigned
// count-of-scope (append position).
func (g *Graph) InsertAudience(a Audience) Audience {
	if a.SortOrder == Unspecified {
		a.SortOrder = len(g.Audiences)
	}
	g.Audiences[a.ID] = a
	return a
}

func (g *Graph) InsertPainDesire(p PainDesire) PainDesire {
	if p.SortOrder == Unspecified {
		p.SortOrder = len(g.PainDesires)
	}
	g.PainDesires[p.ID] = p
	return p
}

func (g *Graph) InsertLink(l PainDesireAudienceLink) PainDesireAudienceLink {
	if l.SortOrder == Unspecified {
		l.SortOrder = len(g.Links)
	}
	g.Links[l.ID] = l
	return l
}

func (g *Graph) InsertAngle(a MessagingAngle) MessagingAngle {
	if a.SortOrder == Unspecified {
		a.SortOrder = len(g.Angles)
	}
	g.Angles[a.ID] = a
	return a
}

// InsertHook appends h within its awareness stage: the unspecified
// sort order is the current size of the destination column.
func (g *Graph) InsertHook(h Hook) Hook {
	if h.Stage == "" {
		h.Stage = StageUnaware
	}
	if h.SortOrder == Unspecified {
		h.SortOrder = len(g.HooksByStage(h.Stage))
	}
	g.Hooks[h.ID] = h
	return h
}

func (g *Graph) InsertExecution(e FormatExecution) FormatExecution {
	if e.SortOrder == Unspecified {
		e.SortOrder = len(g.ExecutionsForHook(e.HookID))
	}
	g.Executions[e.ID] = e
	return e
}

// --- patches -------------------------------------------------------------
//
// Patches fail silently on an unknown ID: the graph is returned
// unchanged and ok is false. Callers check ok before reporting success.

type AudiencePatch struct {
	Name        *string
	Description *string
	SortOrder   *int
}

func (g *Graph) PatchAudience(id string, patch AudiencePatch) (Audience, bool) {
	a, ok := g.Audiences[id]
	if !ok {
		return Audience{}, false
	}
	if patch.Name != nil {
		a.Name = *patch.Name
	}
	if patch.Description != nil {
		a.Description = *patch.Description
	}
	if patch.SortOrder != nil {
		a.SortOrder = *patch.SortOrder
	}
	g.Audiences[id] = a
	return a, true
}

type PainDesirePatch struct {
	Kind        *PainDesireKind
	Title       *string
	Description *string
	Intensity   *int
	SortOrder   *int
}

func (g *Graph) PatchPainDesire(id string, patch PainDesirePatch) (PainDesire, bool) {
	p, ok := g.PainDesires[id]
	if !ok {
		return PainDesire{}, false
	}
	if patch.Kind != nil {
		p.Kind = *patch.Kind
	}
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Intensity != nil {
		p.Intensity = *patch.Intensity
	}
	if patch.SortOrder != nil {
		p.SortOrder = *patch.SortOrder
	}
	g.PainDesires[id] = p
	return p, true
}

type AnglePatch struct {
	Title       *string
	Description *string
	Tone        *string
	Origin      *Origin
	Lenses      map[string]string
	SortOrder   *int
}

func (g *Graph) PatchAngle(id string, patch AnglePatch) (MessagingAngle, bool) {
	a, ok := g.Angles[id]
	if !ok {
		return MessagingAngle{}, false
	}
	if patch.Title != nil {
		a.Title = *patch.Title
	}
	if patch.Description != nil {
		a.Description = *patch.Description
	}
	if patch.Tone != nil {
		a.Tone = *patch.Tone
	}
	if patch.Origin != nil {
		a.Origin = *patch.Origin
	}
	if patch.Lenses != nil {
		lenses := make(map[string]string, len(patch.Lenses))
		for k, v := range patch.Lenses {
			lenses[k] = v
		}
		a.Lenses = lenses
	}
	if patch.SortOrder != nil {
		a.SortOrder = *patch.SortOrder
	}
	g.Angles[id] = a
	return a, true
}

type HookPatch struct {
	Type      *HookType
	Content   *string
	Stage     *AwarenessStage
	Starred   *bool
	Origin    *Origin
	SortOrder *int
}

func (g *Graph) PatchHook(id string, patch HookPatch) (Hook, bool) {
	h, ok := g.Hooks[id]
	if !ok {
		return Hook{}, false
	}
	if patch.Type != nil {
		h.Type = *patch.Type
	}
	if patch.Content != nil {
		h.Content = *patch.Content
	}
	if patch.Stage != nil {
		h.Stage = *patch.Stage
	}
	if patch.Starred != nil {
		h.Starred = *patch.Starred
	}
	if patch.Origin != nil {
		h.Origin = *patch.Origin
	}
	if patch.SortOrder != nil {
		h.SortOrder = *patch.SortOrder
	}
	g.Hooks[id] = h
	return h, true
}

type ExecutionPatch struct {
	TemplateID   *string
	ConceptNotes *string
	SortOrder    *int
}

func (g *Graph) PatchExecution(id string, patch ExecutionPatch) (FormatExecution, bool) {
	e, ok := g.Executions[id]
	if !ok {
		return FormatExecution{}, false
	}
	if patch.TemplateID != nil {
		e.TemplateID = *patch.TemplateID
	}
	if patch.ConceptNotes != nil {
		e.ConceptNotes = *patch.ConceptNotes
	}
	if patch.SortOrder != nil {
		e.SortOrder = *patch.SortOrder
	}
	g.Executions[id] = e
	return e, true
}

// --- removes -------------------------------------------------------------
//
// Removes delete the entity and, for link endpoints, cascade into link
// removal. Remaining sort orders are not renumbered: readers sort by
// (SortOrder, ID) and tolerate gaps.

// RemoveAudience deletes the audience and every link referencing it.
// Angles pointing at the audience are left orphaned.
func (g *Graph) RemoveAudience(id string) []PainDesireAudienceLink {
	if _, ok := g.Audiences[id]; !ok {
		return nil
	}
	delete(g.Audiences, id)
	return g.removeLinksWhere(func(l PainDesireAudienceLink) bool { return l.AudienceID == id })
}

// RemovePainDesire deletes the pain/desire and every link referencing it.
func (g *Graph) RemovePainDesire(id string) []PainDesireAudienceLink {
	if _, ok := g.PainDesires[id]; !ok {
		return nil
	}
	delete(g.PainDesires, id)
	return g.removeLinksWhere(func(l PainDesireAudienceLink) bool { return l.PainDesireID == id })
}

func (g *Graph) removeLinksWhere(match func(PainDesireAudienceLink) bool) []PainDesireAudienceLink {
	removed := make([]PainDesireAudienceLink, 0)
	for id, l := range g.Links {
		if match(l) {
			removed = append(removed, l)
			delete(g.Links, id)
		}
	}
	sort.Slice(removed, func(i, j int) bool {
		if removed[i].SortOrder != removed[j].SortOrder {
			return removed[i].SortOrder < removed[j].SortOrder
		}
		return removed[i].ID < removed[j].ID
	})
	return removed
}

func (g *Graph) RemoveLink(id string)      { delete(g.Links, id) }
func (g *Graph) RemoveAngle(id string)     { delete(g.Angles, id) }
func (g *Graph) RemoveHook(id string)      { delete(g.Hooks, id) }
func (g *Graph) RemoveExecution(id string) { delete(g.Executions, id) }

// --- replace -------------------------------------------------------------
//
// Replace swaps a client-provisional row for the canonical row the
// remote store returned, preserving nothing of the provisional entry.

func (g *Graph) ReplaceAudience(oldID string, a Audience) {
	delete(g.Audiences, oldID)
	g.Audiences[a.ID] = a
}

func (g *Graph) ReplacePainDesire(oldID string, p PainDesire) {
	delete(g.PainDesires, oldID)
	g.PainDesires[p.ID] = p
}

func (g *Graph) ReplaceLink(oldID string, l PainDesireAudienceLink) {
	delete(g.Links, oldID)
	g.Links[l.ID] = l
}

func (g *Graph) ReplaceAngle(oldID string, a MessagingAngle) {
	delete(g.Angles, oldID)
	g.Angles[a.ID] = a
}

func (g *Graph) ReplaceHook(oldID string, h Hook) {
	delete(g.Hooks, oldID)
	g.Hooks[h.ID] = h
}

func (g *Graph) ReplaceExecution(oldID string, e FormatExecution) {
	delete(g.Executions, oldID)
	g.Executions[e.ID] = e
}

// --- ordered reads -------------------------------------------------------
//
// Display order everywhere is (SortOrder, ID): stable under the
// duplicate sort orders an interior board drop can produce.

func (g *Graph) AudiencesOrdered() []Audience {
	items := make([]Audience, 0, len(g.Audiences))
	for _, a := range g.Audiences {
		items = append(items, a)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].SortOrder != items[j].SortOrder {
			return items[i].SortOrder < items[j].SortOrder
		}
		return items[i].ID < items[j].ID
	})
	return items
}

func (g *Graph) PainDesiresOrdered() []PainDesire {
	items := make([]PainDesire, 0, len(g.PainDesires))
	for _, p := range g.PainDesires {
		items = append(items, p)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].SortOrder != items[j].SortOrder {
			return items[i].SortOrder < items[j].SortOrder
		}
		return items[i].ID < items[j].ID
	})
	return items
}

func (g *Graph) LinksOrdered() []PainDesireAudienceLink {
	items := make([]PainDesireAudienceLink, 0, len(g.Links))
	for _, l := range g.Links {
		items = append(items, l)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].SortOrder != items[j].SortOrder {
			return items[i].SortOrder < items[j].SortOrder
		}
		return items[i].ID < items[j].ID
	})
	return items
}

func (g *Graph) AnglesOrdered() []MessagingAngle {
	items := make([]MessagingAngle, 0, len(g.Angles))
	for _, a := range g.Angles {
		items = append(items, a)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].SortOrder != items[j].SortOrder {
			return items[i].SortOrder < items[j].SortOrder
		}
		return items[i].ID < items[j].ID
	})
	return items
}

// HooksByStage returns one board column, ordered.
func (g *Graph) HooksByStage(stage AwarenessStage) []Hook {
	items := make([]Hook, 0)
	for _, h := range g.Hooks {
		if h.Stage == stage {
			items = append(items, h)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].SortOrder != items[j].SortOrder {
			return items[i].SortOrder < items[j].SortOrder
		}
		return items[i].ID < items[j].ID
	})
	return items
}

// HooksOrdered returns all hooks in stage order, then column order.
func (g *Graph) HooksOrdered() []Hook {
	items := make([]Hook, 0, len(g.Hooks))
	for _, stage := range Stages {
		items = append(items, g.HooksByStage(stage)...)
	}
	return items
}

func (g *Graph) ExecutionsForHook(hookID string) []FormatExecution {
	items := make([]FormatExecution, 0)
	for _, e := range g.Executions {
		if e.HookID == hookID {
			items = append(items, e)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].SortOrder != items[j].SortOrder {
			return items[i].SortOrder < items[j].SortOrder
		}
		return items[i].ID < items[j].ID
	})
	return items
}

// HasLinkPair reports whether the (painDesireID, audienceID) pair is
// already linked.
func (g *Graph) HasLinkPair(painDesireID, audienceID string) bool {
	for _, l := range g.Links {
		if l.PainDesireID == painDesireID && l.AudienceID == audienceID {
			return true
		}
	}
	return false
}
