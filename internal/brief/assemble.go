// Package brief turns a funnel graph into the deliverable: an
// assembled document tree, its HTML rendering, and a PDF.
package brief

import (
	"sort"
	"time"

	"briefforge/api/internal/graph"
)

// unknown stands in for any reference the graph cannot resolve. A
// half-built or partially-orphaned funnel still yields a complete
// document.
const unknown = "Unknown"

// Assemble denormalizes a point-in-time graph snapshot into a
// Document. It is read-only and total: no graph state can make it
// fail, and the output order is deterministic for a given snapshot.
func Assemble(g *graph.Graph, projectName string, generatedAt time.Time) Document {
	doc := Document{
		ProjectID:   g.ProjectID,
		ProjectName: projectName,
		GeneratedAt: generatedAt,
		Audiences:   []AudienceEntry{},
		Pains:       []PainDesireItem{},
		Desires:     []PainDesireItem{},
		AngleGroups: []AngleGroup{},
		HookGroups:  []HookGroup{},
		Concepts:    []FormatConcept{},
	}

	for _, a := range g.AudiencesOrdered() {
		doc.Audiences = append(doc.Audiences, AudienceEntry{Name: a.Name, Description: a.Description})
	}

	for _, p := range g.PainDesiresOrdered() {
		item := PainDesireItem{Title: p.Title, Description: p.Description, Intensity: p.Intensity}
		if p.Kind == graph.KindDesire {
			doc.Desires = append(doc.Desires, item)
		} else {
			doc.Pains = append(doc.Pains, item)
		}
	}

	doc.AngleGroups = assembleAngleGroups(g)
	doc.HookGroups = assembleHookGroups(g)
	doc.Concepts = assembleConcepts(g)
	return doc
}

// assembleAngleGroups groups angles by their resolved (pain/desire,
// audience) labels, groups in first-appearance order over the ordered
// angle list. Dangling endpoints resolve to the placeholder, so
// orphaned angles land in an "Unknown" group instead of vanishing.
func assembleAngleGroups(g *graph.Graph) []AngleGroup {
	type key struct{ pain, audience string }
	index := map[key]int{}
	groups := []AngleGroup{}

	for _, a := range g.AnglesOrdered() {
		painTitle := unknown
		if p, ok := g.PainDesires[a.PainDesireID]; ok {
			painTitle = p.Title
		}
		audienceName := unknown
		if aud, ok := g.Audiences[a.AudienceID]; ok {
			audienceName = aud.Name
		}

		k := key{painTitle, audienceName}
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, AngleGroup{PainDesireTitle: painTitle, AudienceName: audienceName})
		}
		groups[i].Angles = append(groups[i].Angles, AngleEntry{
			Title:       a.Title,
			Description: a.Description,
			Tone:        a.Tone,
			Origin:      string(a.Origin),
			Lenses:      lensEntries(a.Lenses),
		})
	}
	return groups
}

func lensEntries(lenses map[string]string) []LensEntry {
	if len(lenses) == 0 {
		return nil
	}
	names := make([]string, 0, len(lenses))
	for name := range lenses {
		names = append(names, name)
	}
	sort.Strings(names)
	entries := make([]LensEntry, 0, len(names))
	for _, name := range names {
		entries = append(entries, LensEntry{Name: name, Text: lenses[name]})
	}
	return entries
}

// assembleHookGroups walks angles in display order and attaches each
// angle's hooks in board order. Hooks whose angle no longer exists
// collect in a trailing "Unknown" group.
func assembleHookGroups(g *graph.Graph) []HookGroup {
	hooksByAngle := map[string][]graph.Hook{}
	for _, h := range g.HooksOrdered() {
		hooksByAngle[h.MessagingAngleID] = append(hooksByAngle[h.MessagingAngleID], h)
	}

	groups := []HookGroup{}
	for _, a := range g.AnglesOrdered() {
		hooks := hooksByAngle[a.ID]
		if len(hooks) == 0 {
			continue
		}
		delete(hooksByAngle, a.ID)
		groups = append(groups, HookGroup{AngleTitle: a.Title, Hooks: hookEntries(hooks)})
	}

	var orphaned []graph.Hook
	for _, hooks := range hooksByAngle {
		orphaned = append(orphaned, hooks...)
	}
	if len(orphaned) > 0 {
		sort.Slice(orphaned, func(i, j int) bool {
			if orphaned[i].SortOrder != orphaned[j].SortOrder {
				return orphaned[i].SortOrder < orphaned[j].SortOrder
			}
			return orphaned[i].ID < orphaned[j].ID
		})
		groups = append(groups, HookGroup{AngleTitle: unknown, Hooks: hookEntries(orphaned)})
	}
	return groups
}

func hookEntries(hooks []graph.Hook) []HookEntry {
	entries := make([]HookEntry, 0, len(hooks))
	for _, h := range hooks {
		entries = append(entries, HookEntry{
			Type:    string(h.Type),
			Stage:   string(h.Stage),
			Content: h.Content,
			Starred: h.Starred,
			Origin:  string(h.Origin),
		})
	}
	return entries
}

// assembleConcepts lists format executions that carry concept notes,
// in hook display order; executions whose hook is gone trail the list.
func assembleConcepts(g *graph.Graph) []FormatConcept {
	concepts := []FormatConcept{}
	seen := map[string]bool{}

	for _, h := range g.HooksOrdered() {
		for _, exec := range g.ExecutionsForHook(h.ID) {
			seen[exec.ID] = true
			if exec.ConceptNotes == "" {
				continue
			}
			concepts = append(concepts, FormatConcept{
				HookContent: h.Content,
				TemplateID:  exec.TemplateID,
				Notes:       exec.ConceptNotes,
			})
		}
	}

	var dangling []graph.FormatExecution
	for _, exec := range g.Executions {
		if !seen[exec.ID] && exec.ConceptNotes != "" {
			dangling = append(dangling, exec)
		}
	}
	sort.Slice(dangling, func(i, j int) bool {
		if dangling[i].SortOrder != dangling[j].SortOrder {
			return dangling[i].SortOrder < dangling[j].SortOrder
		}
		return dangling[i].ID < dangling[j].ID
	})
	for _, exec := range dangling {
		concepts = append(concepts, FormatConcept{
			HookContent: unknown,
			TemplateID:  exec.TemplateID,
			Notes:       exec.ConceptNotes,
		})
	}
	return concepts
}
