package briefrepo

import (
	"context"
	"strings"
	"testing"
)

func TestCommitBriefInitializesRepoAndRecordsHistory(t *testing.T) {
	s := New(t.TempDir())
	ctx := context.Background()

	hash1, err := s.CommitBrief(ctx, "proj_1", []byte(`{"v":1}`), "Export brief for Launch")
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if len(hash1) != 7 {
		t.Fatalf("hash = %q, want 7-char abbreviation", hash1)
	}

	hash2, err := s.CommitBrief(ctx, "proj_1", []byte(`{"v":2}`), "Export brief again")
	if err != nil {
		t.Fatalf("second commit: %v", err)
	}
	if hash1 == hash2 {
		t.Fatal("distinct exports produced identical hashes")
	}

	history, err := s.History(ctx, "proj_1", 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	// Two exports plus the init commit, newest first.
	if len(history) != 3 {
		t.Fatalf("history length = %d, want 3", len(history))
	}
	if history[0].Hash != hash2 || history[1].Hash != hash1 {
		t.Fatalf("history order = %s, %s", history[0].Hash, history[1].Hash)
	}
	if !strings.Contains(history[0].Message, "again") {
		t.Fatalf("message = %q", history[0].Message)
	}
}

func TestHistoryOfUnknownProjectIsEmpty(t *testing.T) {
	s := New(t.TempDir())

	history, err := s.History(context.Background(), "proj_none", 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("history = %v, want empty", history)
	}
}

func TestHistoryHonorsLimit(t *testing.T) {
	s := New(t.TempDir())
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		if _, err := s.CommitBrief(ctx, "proj_1", []byte(`{}`), "Export"); err != nil {
			t.Fatalf("commit %d: %v", i, err)
		}
	}

	history, err := s.History(ctx, "proj_1", 2)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}
}

func TestBriefByHashReturnsCommittedPayload(t *testing.T) {
	s := New(t.TempDir())
	ctx := context.Background()

	payload := []byte(`{"projectName":"Launch Q4"}`)
	hash, err := s.CommitBrief(ctx, "proj_1", payload, "Export")
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if _, err := s.CommitBrief(ctx, "proj_1", []byte(`{"projectName":"Later"}`), "Export"); err != nil {
		t.Fatalf("second commit: %v", err)
	}

	got, err := s.BriefByHash(ctx, "proj_1", hash)
	if err != nil {
		t.Fatalf("brief by hash: %v", err)
	}
	if !strings.Contains(string(got), "Launch Q4") {
		t.Fatalf("payload = %s", got)
	}
}

func TestProjectsAreIsolated(t *testing.T) {
	s := New(t.TempDir())
	ctx := context.Background()

	if _, err := s.CommitBrief(ctx, "proj_a", []byte(`{}`), "Export"); err != nil {
		t.Fatalf("commit a: %v", err)
	}

	history, err := s.History(ctx, "proj_b", 10)
	if err != nil {
		t.Fatalf("history b: %v", err)
	}
	if len(history) != 0 {
		t.Fatal("project histories leaked across repos")
	}
}
