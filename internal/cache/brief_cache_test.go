package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"briefforge/api/internal/brief"
)

func newTestCache(t *testing.T) (*BriefCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewBriefCacheWithClient(client, time.Minute), mr
}

func sampleDoc() brief.Document {
	return brief.Document{
		ProjectID:   "proj_1",
		ProjectName: "Launch Q4",
		GeneratedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Audiences:   []brief.AudienceEntry{{Name: "Busy founders"}},
	}
}

func TestSetAndGetRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	if _, ok := c.Get(ctx, "proj_1"); ok {
		t.Fatal("unexpected hit on empty cache")
	}

	if err := c.Set(ctx, "proj_1", sampleDoc()); err != nil {
		t.Fatalf("set: %v", err)
	}

	doc, ok := c.Get(ctx, "proj_1")
	if !ok {
		t.Fatal("expected hit")
	}
	if doc.ProjectName != "Launch Q4" || len(doc.Audiences) != 1 {
		t.Fatalf("doc = %+v", doc)
	}
}

func TestInvalidateDropsEntry(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "proj_1", sampleDoc()); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := c.Invalidate(ctx, "proj_1"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, ok := c.Get(ctx, "proj_1"); ok {
		t.Fatal("entry survived invalidation")
	}
}

func TestInvalidateMissingKeyIsFine(t *testing.T) {
	c, _ := newTestCache(t)

	if err := c.Invalidate(context.Background(), "proj_none"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
}

func TestEntriesExpire(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "proj_1", sampleDoc()); err != nil {
		t.Fatalf("set: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	if _, ok := c.Get(ctx, "proj_1"); ok {
		t.Fatal("entry survived TTL")
	}
}

func TestUnavailableRedisReadsAsMiss(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	if _, ok := c.Get(context.Background(), "proj_1"); ok {
		t.Fatal("hit from a dead cache")
	}
}
