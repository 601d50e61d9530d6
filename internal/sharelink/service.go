// Package sharelink issues read-only share tokens for a project's
// assembled brief, with an optional bcrypt-hashed password gate.
package sharelink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"briefforge/api/internal/store"
	"briefforge/api/internal/util"
)

var (
	ErrNotFound         = errors.New("share link not found")
	ErrRevoked          = errors.New("share link revoked")
	ErrExpired          = errors.New("share link expired")
	ErrPasswordRequired = errors.New("password required")
	ErrWrongPassword    = errors.New("wrong password")
)

// Store is the persistence surface the service needs.
type Store interface {
	InsertShareLink(ctx context.Context, link store.ShareLink) error
	GetShareLinkByToken(ctx context.Context, token string) (store.ShareLink, error)
	TouchShareLink(ctx context.Context, id string) error
	RevokeShareLink(ctx context.Context, id string) (bool, error)
}

type Service struct {
	store Store
	now   func() time.Time
}

func New(s Store) *Service {
	return &Service{store: s, now: time.Now}
}

// CreateOptions carries the optional gates for a new link.
type CreateOptions struct {
	Password  string
	ExpiresAt *time.Time
	CreatedBy string
}

// Create mints a share link for the project. The password, when set,
// is stored only as a bcrypt hash.
func (s *Service) Create(ctx context.Context, projectID string, opts CreateOptions) (store.ShareLink, error) {
	link := store.ShareLink{
		ID:        util.NewID("shl"),
		Token:     util.NewID("share"),
		ProjectID: projectID,
		CreatedBy: opts.CreatedBy,
		ExpiresAt: opts.ExpiresAt,
	}

	if opts.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(opts.Password), bcrypt.DefaultCost)
		if err != nil {
			return store.ShareLink{}, fmt.Errorf("hash share password: %w", err)
		}
		link.PasswordHash = string(hash)
	}

	if err := s.store.InsertShareLink(ctx, link); err != nil {
		return store.ShareLink{}, fmt.Errorf("insert share link: %w", err)
	}
	return link, nil
}

// Resolve validates token and password and returns the link, bumping
// its access counter on success.
func (s *Service) Resolve(ctx context.Context, token, password string) (store.ShareLink, error) {
	link, err := s.store.GetShareLinkByToken(ctx, token)
	if err != nil {
		if store.IsNotFound(err) {
			return store.ShareLink{}, ErrNotFound
		}
		return store.ShareLink{}, fmt.Errorf("load share link: %w", err)
	}

	if link.RevokedAt != nil {
		return store.ShareLink{}, ErrRevoked
	}
	if link.ExpiresAt != nil && s.now().After(*link.ExpiresAt) {
		return store.ShareLink{}, ErrExpired
	}
	if link.PasswordHash != "" {
		if password == "" {
			return store.ShareLink{}, ErrPasswordRequired
		}
		if err := bcrypt.CompareHashAndPassword([]byte(link.PasswordHash), []byte(password)); err != nil {
			return store.ShareLink{}, ErrWrongPassword
		}
	}

	if err := s.store.TouchShareLink(ctx, link.ID); err != nil {
		return store.ShareLink{}, fmt.Errorf("touch share link: %w", err)
	}
	return link, nil
}

// Revoke disables a link permanently.
func (s *Service) Revoke(ctx context.Context, id string) error {
	revoked, err := s.store.RevokeShareLink(ctx, id)
	if err != nil {
		return fmt.Errorf("revoke share link: %w", err)
	}
	if !revoked {
		return ErrNotFound
	}
	return nil
}
