package suggest

import (
	"context"
	"errors"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

type fakeChat struct {
	content string
	err     error
	lastReq openai.ChatCompletionRequest
}

func (f *fakeChat) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: f.content}},
		},
	}, nil
}

func TestSuggestHooksParsesFencedJSON(t *testing.T) {
	chat := &fakeChat{content: "```json\n[" +
		`{"type": "QUESTION", "content": "Still writing briefs by hand?", "awareness_stage": "PROBLEM_AWARE"},` +
		`{"type": "STATISTIC", "content": "82% of ads die in 3 seconds.", "awareness_stage": "UNAWARE"}` +
		"]\n```"}
	g := &Generator{client: chat, model: "test-model"}

	candidates, err := g.SuggestHooks(context.Background(), AngleContext{AngleTitle: "Speed as an edge"}, 2)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("got %d candidates, want 2", len(candidates))
	}
	if candidates[0].Type != "QUESTION" || candidates[0].Stage != "PROBLEM_AWARE" {
		t.Fatalf("candidate[0] = %+v", candidates[0])
	}
}

func TestSuggestHooksDropsMalformedEntries(t *testing.T) {
	chat := &fakeChat{content: `[
		{"type": "SLOGAN", "content": "bad type", "awareness_stage": "UNAWARE"},
		{"type": "STORY", "content": "", "awareness_stage": "UNAWARE"},
		{"type": "STORY", "content": "good", "awareness_stage": "NOWHERE"},
		{"type": "story", "content": "kept, case folded", "awareness_stage": "most_aware"}
	]`}
	g := &Generator{client: chat, model: "test-model"}

	candidates, err := g.SuggestHooks(context.Background(), AngleContext{AngleTitle: "x"}, 4)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(candidates))
	}
	if candidates[0].Content != "kept, case folded" {
		t.Fatalf("candidate = %+v", candidates[0])
	}
}

func TestSuggestHooksMalformedOutputYieldsZeroCandidates(t *testing.T) {
	chat := &fakeChat{content: "Sure! Here are some great hooks:\n1. ..."}
	g := &Generator{client: chat, model: "test-model"}

	candidates, err := g.SuggestHooks(context.Background(), AngleContext{AngleTitle: "x"}, 5)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if len(candidates) != 0 {
		t.Fatalf("got %d candidates, want 0", len(candidates))
	}
}

func TestSuggestHooksPropagatesProviderError(t *testing.T) {
	chat := &fakeChat{err: errors.New("rate limited")}
	g := &Generator{client: chat, model: "test-model"}

	if _, err := g.SuggestHooks(context.Background(), AngleContext{AngleTitle: "x"}, 5); err == nil {
		t.Fatal("expected error")
	}
}

func TestPromptCarriesAngleContext(t *testing.T) {
	chat := &fakeChat{content: "[]"}
	g := &Generator{client: chat, model: "test-model"}

	_, err := g.SuggestHooks(context.Background(), AngleContext{
		AngleTitle:      "Speed as an edge",
		Tone:            "confident",
		PainDesireTitle: "No time",
		AudienceName:    "Busy founders",
	}, 3)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}

	prompt := chat.lastReq.Messages[1].Content
	for _, want := range []string{"Speed as an edge", "confident", "No time", "Busy founders"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
