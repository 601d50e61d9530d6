package graph

// PainDesireKind distinguishes the two halves of the pain/desire column.
type PainDesireKind string

const (
	KindPain   PainDesireKind = "PAIN"
	KindDesire PainDesireKind = "DESIRE"
)

// Origin records how an entity came into existence.
type Origin string

const (
	OriginManual      Origin = "MANUAL"
	OriginAIGenerated Origin = "AI_GENERATED"
	OriginAIEdited    Origin = "AI_EDITED"
)

// HookType is the rhetorical device a hook is built on.
type HookType string

const (
	HookQuestion      HookType = "QUESTION"
	HookStatistic     HookType = "STATISTIC"
	HookStory         HookType = "STORY"
	HookContradiction HookType = "CONTRADICTION"
	HookChallenge     HookType = "CHALLENGE"
	HookMetaphor      HookType = "METAPHOR"
)

var hookTypes = map[HookType]struct{}{
	HookQuestion:      {},
	HookStatistic:     {},
	HookStory:         {},
	HookContradiction: {},
	HookChallenge:     {},
	HookMetaphor:      {},
}

// ValidHookType reports whether t is one of the six hook types.
func ValidHookType(t HookType) bool {
	_, ok := hookTypes[t]
	return ok
}

// AwarenessStage is one of the five fixed buyer-readiness levels.
// A hook is always in exactly one stage; there is no unassigned state.
type AwarenessStage string

const (
	StageUnaware       AwarenessStage = "UNAWARE"
	StageProblemAware  AwarenessStage = "PROBLEM_AWARE"
	StageSolutionAware AwarenessStage = "SOLUTION_AWARE"
	StageProductAware  AwarenessStage = "PRODUCT_AWARE"
	StageMostAware     AwarenessStage = "MOST_AWARE"
)

// Stages lists the awareness stages in funnel order.
var Stages = []AwarenessStage{
	StageUnaware,
	StageProblemAware,
	StageSolutionAware,
	StageProductAware,
	StageMostAware,
}

// ValidStage reports whether s is one of the five awareness stages.
func ValidStage(s AwarenessStage) bool {
	for _, stage := range Stages {
		if stage == s {
			return true
		}
	}
	return false
}

type Audience struct {
	ID          string
	ProjectID   string
	Name        string
	Description string
	SortOrder   int
}

type PainDesire struct {
	ID          string
	ProjectID   string
	Kind        PainDesireKind
	Title       string
	Description string
	// Intensity is 1..10 when set, 0 when unset.
	Intensity int
	SortOrder int
}

// PainDesireAudienceLink joins a pain/desire to an audience. A pair
// (PainDesireID, AudienceID) appears at most once per project.
type PainDesireAudienceLink struct {
	ID           string
	ProjectID    string
	PainDesireID string
	AudienceID   string
	SortOrder    int
}

// MessagingAngle belongs logically to a (pain/desire, audience)
// intersection. The references are loose: the backing link can be
// removed later, leaving the angle orphaned but intact.
type MessagingAngle struct {
	ID           string
	ProjectID    string
	PainDesireID string
	AudienceID   string
	Title        string
	Description  string
	Tone         string
	Origin       Origin
	Lenses       map[string]string
	SortOrder    int
}

// Hook carries its sort order scoped per awareness stage, not globally.
type Hook struct {
	ID               string
	ProjectID        string
	MessagingAngleID string
	Type             HookType
	Content          string
	Stage            AwarenessStage
	Starred          bool
	Origin           Origin
	SortOrder        int
}

// FormatExecution maps a hook onto one of the external narrative
// templates. TemplateID points into a catalog the core does not own.
type FormatExecution struct {
	ID           string
	ProjectID    string
	HookID       string
	TemplateID   string
	ConceptNotes string
	SortOrder    int
}
