package graph

// Intersection is the resolved view of one pain/desire ↔ audience
// link: the endpoints plus every messaging angle attached to the pair.
type Intersection struct {
	LinkID     string
	PainDesire PainDesire
	Audience   Audience
	Angles     []MessagingAngle
}

// ResolveIntersections derives the pain/desire × audience matrix. It
// is pure and recomputed on every call: the input is small enough that
// caching would only add staleness to reason about.
//
// Output carries one entry per link in link sort order; angles within
// an entry keep angle sort order. A link whose endpoint has been
// deleted out from under it yields an entry with a zero-value
// endpoint; readers label those, they do not fail.
func ResolveIntersections(g *Graph) []Intersection {
	links := g.LinksOrdered()
	angles := g.AnglesOrdered()

	out := make([]Intersection, 0, len(links))
	for _, link := range links {
		entry := Intersection{
			LinkID:     link.ID,
			PainDesire: g.PainDesires[link.PainDesireID],
			Audience:   g.Audiences[link.AudienceID],
			Angles:     make([]MessagingAngle, 0),
		}
		for _, angle := range angles {
			if angle.PainDesireID == link.PainDesireID && angle.AudienceID == link.AudienceID {
				entry.Angles = append(entry.Angles, angle)
			}
		}
		out = append(out, entry)
	}
	return out
}
