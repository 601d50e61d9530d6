// Package suggest generates hook candidates for a messaging angle via
// an OpenAI chat completion. The model's output is advisory: anything
// that does not parse into well-formed candidates degrades to zero
// suggestions rather than an error, so a flaky model never blocks the
// editing workflow.
package suggest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"briefforge/api/internal/graph"
)

const systemPrompt = `You are a direct-response copywriter generating scroll-stopping hooks for short-form ads.
Respond with a JSON array only, no prose. Each element:
{"type": one of QUESTION|STATISTIC|STORY|CONTRADICTION|CHALLENGE|METAPHOR,
 "content": the hook line,
 "awareness_stage": one of UNAWARE|PROBLEM_AWARE|SOLUTION_AWARE|PRODUCT_AWARE|MOST_AWARE}`

// Candidate is one suggested hook, not yet part of any graph.
type Candidate struct {
	Type    graph.HookType
	Content string
	Stage   graph.AwarenessStage
}

// AngleContext is the creative context the prompt is built from.
type AngleContext struct {
	AngleTitle       string
	AngleDescription string
	Tone             string
	PainDesireTitle  string
	AudienceName     string
}

type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Generator wraps one chat-completion model.
type Generator struct {
	client chatClient
	model  string
}

func NewGenerator(apiKey, model string) *Generator {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &Generator{client: openai.NewClient(apiKey), model: model}
}

// SuggestHooks asks the model for count hook candidates. It returns an
// error only when the provider call itself fails; a response that
// parses to nothing yields an empty slice and nil error.
func (g *Generator) SuggestHooks(ctx context.Context, angle AngleContext, count int) ([]Candidate, error) {
	if count <= 0 {
		count = 5
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: 0.9,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(angle, count)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return []Candidate{}, nil
	}
	return parseCandidates(resp.Choices[0].Message.Content), nil
}

func buildPrompt(angle AngleContext, count int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write %d hooks for the messaging angle %q.\n", count, angle.AngleTitle)
	if angle.AngleDescription != "" {
		fmt.Fprintf(&b, "Angle description: %s\n", angle.AngleDescription)
	}
	if angle.Tone != "" {
		fmt.Fprintf(&b, "Tone: %s\n", angle.Tone)
	}
	if angle.PainDesireTitle != "" {
		fmt.Fprintf(&b, "Underlying pain or desire: %s\n", angle.PainDesireTitle)
	}
	if angle.AudienceName != "" {
		fmt.Fprintf(&b, "Target audience: %s\n", angle.AudienceName)
	}
	b.WriteString("Vary the hook types and awareness stages across the set.")
	return b.String()
}

type rawCandidate struct {
	Type           string `json:"type"`
	Content        string `json:"content"`
	AwarenessStage string `json:"awareness_stage"`
}

// parseCandidates extracts well-formed candidates from the model
// output. Code fences are stripped, entries with an unknown type or
// stage or empty content are dropped, and anything unparseable yields
// an empty slice.
func parseCandidates(output string) []Candidate {
	output = strings.TrimSpace(output)
	output = strings.TrimPrefix(output, "```json")
	output = strings.TrimPrefix(output, "```")
	output = strings.TrimSuffix(output, "```")
	output = strings.TrimSpace(output)

	var raw []rawCandidate
	if err := json.Unmarshal([]byte(output), &raw); err != nil {
		return []Candidate{}
	}

	candidates := make([]Candidate, 0, len(raw))
	for _, r := range raw {
		hookType := graph.HookType(strings.ToUpper(strings.TrimSpace(r.Type)))
		stage := graph.AwarenessStage(strings.ToUpper(strings.TrimSpace(r.AwarenessStage)))
		content := strings.TrimSpace(r.Content)
		if content == "" || !graph.ValidHookType(hookType) || !graph.ValidStage(stage) {
			continue
		}
		candidates = append(candidates, Candidate{Type: hookType, Content: content, Stage: stage})
	}
	return candidates
}
