// Package sync drives every funnel mutation through one pipeline:
// snapshot the graph, apply the change locally, issue the remote write,
// then either merge the canonical row back or restore the snapshot.
// The local graph therefore always shows either the confirmed state or
// an optimistic state the remote is about to confirm.
package sync

import (
	"context"
	"errors"

	"briefforge/api/internal/graph"
)

var (
	// ErrNotFound is returned when an operation references an ID the
	// graph does not contain. No remote call is made.
	ErrNotFound = errors.New("not found")
	// ErrValidation is returned when an operation's input is rejected
	// before any state changes.
	ErrValidation = errors.New("invalid input")
)

// Remote is the durable side of the pipeline. Create calls receive a
// provisionally-identified row and return the canonical row with its
// server-assigned ID; deletes are plain and never cascade.
type Remote interface {
	CreateAudience(ctx context.Context, a graph.Audience) (graph.Audience, error)
	UpdateAudience(ctx context.Context, a graph.Audience) (graph.Audience, error)
	DeleteAudience(ctx context.Context, id string) error

	CreatePainDesire(ctx context.Context, p graph.PainDesire) (graph.PainDesire, error)
	UpdatePainDesire(ctx context.Context, p graph.PainDesire) (graph.PainDesire, error)
	DeletePainDesire(ctx context.Context, id string) error

	CreateLink(ctx context.Context, l graph.PainDesireAudienceLink) (graph.PainDesireAudienceLink, error)
	DeleteLink(ctx context.Context, id string) error

	CreateAngle(ctx context.Context, a graph.MessagingAngle) (graph.MessagingAngle, error)
	UpdateAngle(ctx context.Context, a graph.MessagingAngle) (graph.MessagingAngle, error)
	DeleteAngle(ctx context.Context, id string) error

	CreateHook(ctx context.Context, h graph.Hook) (graph.Hook, error)
	UpdateHook(ctx context.Context, h graph.Hook) (graph.Hook, error)
	DeleteHook(ctx context.Context, id string) error
	CreateHookBatch(ctx context.Context, hooks []graph.Hook) ([]graph.Hook, error)

	CreateExecution(ctx context.Context, e graph.FormatExecution) (graph.FormatExecution, error)
	UpdateExecution(ctx context.Context, e graph.FormatExecution) (graph.FormatExecution, error)
	DeleteExecution(ctx context.Context, id string) error
}

// Loader produces a hydrated graph for a project. The Postgres store
// implements it.
type Loader interface {
	LoadProject(ctx context.Context, projectID string) (*graph.Graph, error)
}

// Hydrate loads a project's rows and wraps them in a fresh engine.
// Calling it again for the same project yields an equivalent engine;
// hydration itself never writes.
func Hydrate(ctx context.Context, loader Loader, remote Remote, projectID string) (*Engine, error) {
	g, err := loader.LoadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return NewEngine(g, remote), nil
}

// AudienceDraft carries the caller-supplied fields for a new audience.
type AudienceDraft struct {
	Name        string
	Description string
}

type PainDesireDraft struct {
	Kind        graph.PainDesireKind
	Title       string
	Description string
	Intensity   int
}

type AngleDraft struct {
	PainDesireID string
	AudienceID   string
	Title        string
	Description  string
	Tone         string
	Origin       graph.Origin
	Lenses       map[string]string
}

type HookDraft struct {
	MessagingAngleID string
	Type             graph.HookType
	Content          string
	Stage            graph.AwarenessStage
	Origin           graph.Origin
}

type ExecutionDraft struct {
	HookID       string
	TemplateID   string
	ConceptNotes string
}
