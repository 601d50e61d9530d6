package sharelink

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"briefforge/api/internal/store"
)

type fakeStore struct {
	links   map[string]store.ShareLink
	touched []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{links: make(map[string]store.ShareLink)}
}

func (f *fakeStore) InsertShareLink(_ context.Context, link store.ShareLink) error {
	f.links[link.Token] = link
	return nil
}

func (f *fakeStore) GetShareLinkByToken(_ context.Context, token string) (store.ShareLink, error) {
	link, ok := f.links[token]
	if !ok {
		return store.ShareLink{}, sql.ErrNoRows
	}
	return link, nil
}

func (f *fakeStore) TouchShareLink(_ context.Context, id string) error {
	f.touched = append(f.touched, id)
	return nil
}

func (f *fakeStore) RevokeShareLink(_ context.Context, id string) (bool, error) {
	for token, link := range f.links {
		if link.ID == id && link.RevokedAt == nil {
			now := time.Now()
			link.RevokedAt = &now
			f.links[token] = link
			return true, nil
		}
	}
	return false, nil
}

func TestCreateAndResolveWithoutPassword(t *testing.T) {
	fs := newFakeStore()
	s := New(fs)
	ctx := context.Background()

	created, err := s.Create(ctx, "proj_1", CreateOptions{CreatedBy: "dana"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.PasswordHash != "" {
		t.Fatal("password hash set without a password")
	}

	resolved, err := s.Resolve(ctx, created.Token, "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.ProjectID != "proj_1" {
		t.Fatalf("project = %s", resolved.ProjectID)
	}
	if len(fs.touched) != 1 || fs.touched[0] != created.ID {
		t.Fatalf("touched = %v", fs.touched)
	}
}

func TestPasswordGate(t *testing.T) {
	fs := newFakeStore()
	s := New(fs)
	ctx := context.Background()

	created, err := s.Create(ctx, "proj_1", CreateOptions{Password: "hunter2"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.PasswordHash == "" || created.PasswordHash == "hunter2" {
		t.Fatal("password not stored as a hash")
	}

	if _, err := s.Resolve(ctx, created.Token, ""); !errors.Is(err, ErrPasswordRequired) {
		t.Fatalf("err = %v, want ErrPasswordRequired", err)
	}
	if _, err := s.Resolve(ctx, created.Token, "wrong"); !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("err = %v, want ErrWrongPassword", err)
	}
	if _, err := s.Resolve(ctx, created.Token, "hunter2"); err != nil {
		t.Fatalf("resolve with password: %v", err)
	}
}

func TestResolveUnknownToken(t *testing.T) {
	s := New(newFakeStore())

	if _, err := s.Resolve(context.Background(), "share_nope", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestResolveExpiredLink(t *testing.T) {
	fs := newFakeStore()
	s := New(fs)
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	created, err := s.Create(ctx, "proj_1", CreateOptions{ExpiresAt: &past})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := s.Resolve(ctx, created.Token, ""); !errors.Is(err, ErrExpired) {
		t.Fatalf("err = %v, want ErrExpired", err)
	}
	if len(fs.touched) != 0 {
		t.Fatal("expired resolve still counted an access")
	}
}

func TestRevokedLinkStopsResolving(t *testing.T) {
	fs := newFakeStore()
	s := New(fs)
	ctx := context.Background()

	created, err := s.Create(ctx, "proj_1", CreateOptions{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Revoke(ctx, created.ID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := s.Resolve(ctx, created.Token, ""); !errors.Is(err, ErrRevoked) {
		t.Fatalf("err = %v, want ErrRevoked", err)
	}
	if err := s.Revoke(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double revoke err = %v, want ErrNotFound", err)
	}
}
