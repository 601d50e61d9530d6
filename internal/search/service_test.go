package search

import (
	"errors"
	"testing"
)

type stubSearcher struct {
	results []Result
	total   int
	err     error
	lastQ   Query
}

func (s *stubSearcher) Search(q Query) ([]Result, int, error) {
	s.lastQ = q
	return s.results, s.total, s.err
}

func (s *stubSearcher) Healthy() bool { return true }

func TestServiceUsesFallbackWithoutMeili(t *testing.T) {
	fallback := &stubSearcher{
		results: []Result{{Type: ResultHook, ID: "hk_1", Snippet: "Where did your week go?"}},
		total:   1,
	}
	svc := NewService(nil, fallback)

	resp := svc.Search(Query{Text: "week", ProjectID: "proj_1"})
	if resp.Total != 1 || len(resp.Results) != 1 {
		t.Fatalf("resp = %+v", resp)
	}
	if fallback.lastQ.ProjectID != "proj_1" {
		t.Fatalf("fallback query = %+v", fallback.lastQ)
	}
}

func TestServiceDegradesToEmptyResponseOnFallbackError(t *testing.T) {
	fallback := &stubSearcher{err: errors.New("db down")}
	svc := NewService(nil, fallback)

	resp := svc.Search(Query{Text: "week"})
	if resp.Results == nil || len(resp.Results) != 0 {
		t.Fatalf("resp.Results = %v, want empty non-nil", resp.Results)
	}
	if resp.Query != "week" {
		t.Fatalf("query echo = %q", resp.Query)
	}
}

func TestServiceWithNoBackendsReturnsEmpty(t *testing.T) {
	svc := NewService(nil, nil)

	resp := svc.Search(Query{Text: "week"})
	if len(resp.Results) != 0 || resp.Total != 0 {
		t.Fatalf("resp = %+v", resp)
	}
}
