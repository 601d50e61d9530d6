package graph

import (
	"reflect"
	"testing"
)

func seedIntersectionGraph() *Graph {
	g := New("proj-1")
	g.InsertAudience(Audience{ID: "aud-1", Name: "Founders", SortOrder: Unspecified})
	g.InsertAudience(Audience{ID: "aud-2", Name: "Operators", SortOrder: Unspecified})
	g.InsertPainDesire(PainDesire{ID: "pd-1", Kind: KindPain, Title: "No time", SortOrder: Unspecified})
	g.InsertPainDesire(PainDesire{ID: "pd-2", Kind: KindDesire, Title: "Calm mornings", SortOrder: Unspecified})
	g.InsertLink(PainDesireAudienceLink{ID: "lnk-2", PainDesireID: "pd-2", AudienceID: "aud-2", SortOrder: 1})
	g.InsertLink(PainDesireAudienceLink{ID: "lnk-1", PainDesireID: "pd-1", AudienceID: "aud-1", SortOrder: 0})
	g.InsertAngle(MessagingAngle{ID: "ang-2", PainDesireID: "pd-1", AudienceID: "aud-1", Title: "Second", SortOrder: 1})
	g.InsertAngle(MessagingAngle{ID: "ang-1", PainDesireID: "pd-1", AudienceID: "aud-1", Title: "First", SortOrder: 0})
	g.InsertAngle(MessagingAngle{ID: "ang-3", PainDesireID: "pd-2", AudienceID: "aud-1", Title: "Unlinked pair", SortOrder: 2})
	return g
}

func TestResolveIntersectionsOrdersByLinkThenAngle(t *testing.T) {
	g := seedIntersectionGraph()

	views := ResolveIntersections(g)
	if len(views) != 2 {
		t.Fatalf("expected one entry per link, got %d", len(views))
	}
	if views[0].LinkID != "lnk-1" || views[1].LinkID != "lnk-2" {
		t.Fatalf("expected link sort order, got %s then %s", views[0].LinkID, views[1].LinkID)
	}
	if views[0].PainDesire.Title != "No time" || views[0].Audience.Name != "Founders" {
		t.Fatalf("unexpected endpoints on first entry: %+v", views[0])
	}
	if len(views[0].Angles) != 2 || views[0].Angles[0].ID != "ang-1" || views[0].Angles[1].ID != "ang-2" {
		t.Fatalf("expected angles in angle sort order, got %+v", views[0].Angles)
	}
	// ang-3 matches no link pair and must not surface anywhere.
	for _, view := range views {
		for _, angle := range view.Angles {
			if angle.ID == "ang-3" {
				t.Fatalf("angle on an unlinked pair leaked into %s", view.LinkID)
			}
		}
	}
}

func TestResolveIntersectionsIsDeterministic(t *testing.T) {
	g := seedIntersectionGraph()

	first := ResolveIntersections(g)
	second := ResolveIntersections(g)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical output across calls with no mutation between them")
	}
}

func TestResolveIntersectionsToleratesDanglingEndpoint(t *testing.T) {
	g := seedIntersectionGraph()
	// Simulate a stale link left behind by hydration of inconsistent rows.
	delete(g.Audiences, "aud-2")

	views := ResolveIntersections(g)
	if len(views) != 2 {
		t.Fatalf("expected the stale link to still yield an entry, got %d", len(views))
	}
	if views[1].Audience.ID != "" {
		t.Fatalf("expected zero-value audience for dangling endpoint, got %+v", views[1].Audience)
	}
}
