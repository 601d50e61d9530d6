package brief

import "time"

// Document is the denormalized creative brief: a display tree with no
// IDs to chase, every reference already resolved or replaced by an
// "Unknown" placeholder.
type Document struct {
	ProjectID   string           `json:"projectId"`
	ProjectName string           `json:"projectName"`
	GeneratedAt time.Time        `json:"generatedAt"`
	Audiences   []AudienceEntry  `json:"audiences"`
	Pains       []PainDesireItem `json:"pains"`
	Desires     []PainDesireItem `json:"desires"`
	AngleGroups []AngleGroup     `json:"angleGroups"`
	HookGroups  []HookGroup      `json:"hookGroups"`
	Concepts    []FormatConcept  `json:"formatConcepts"`
}

type AudienceEntry struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type PainDesireItem struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	// Intensity is 0 when never set.
	Intensity int `json:"intensity"`
}

// AngleGroup collects the angles of one intersection, labeled by the
// resolved endpoint names.
type AngleGroup struct {
	PainDesireTitle string       `json:"painDesireTitle"`
	AudienceName    string       `json:"audienceName"`
	Angles          []AngleEntry `json:"angles"`
}

type AngleEntry struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Tone        string      `json:"tone"`
	Origin      string      `json:"origin"`
	Lenses      []LensEntry `json:"lenses"`
}

// LensEntry is one copywriting-lens variation, listed in lens-name order.
type LensEntry struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

type HookGroup struct {
	AngleTitle string      `json:"angleTitle"`
	Hooks      []HookEntry `json:"hooks"`
}

type HookEntry struct {
	Type    string `json:"type"`
	Stage   string `json:"stage"`
	Content string `json:"content"`
	Starred bool   `json:"starred"`
	Origin  string `json:"origin"`
}

type FormatConcept struct {
	HookContent string `json:"hookContent"`
	TemplateID  string `json:"templateId"`
	Notes       string `json:"notes"`
}
