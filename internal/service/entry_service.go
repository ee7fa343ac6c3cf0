package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"linkdrop/internal/generator"
	"linkdrop/internal/logger"
	"linkdrop/internal/model"
	"linkdrop/internal/repository"
)

// Custom errors for the service layer
var (
	ErrNotFound = errors.New("entry not found")
	ErrExpired  = errors.New("entry expired")
	ErrNoTarget = errors.New("target cannot be empty")
)

// IsNotFound reports whether err is a not-found condition.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsExpired reports whether err indicates a logically expired entry.
func IsExpired(err error) bool { return errors.Is(err, ErrExpired) }

// Cache is the optional read-path accelerator. A nil Cache is valid
// and means every lookup goes to the repository.
type Cache interface {
	GetEntry(ctx context.Context, code string) (*model.Entry, error)
	SetEntry(ctx context.Context, entry *model.Entry, ttl time.Duration) error
	Delete(ctx context.Context, code string) error
}

// EntryService owns the entry lifecycle: creation with code generation,
// TTL-checked lookups with hit counting, and listing for the admin view.
type EntryService struct {
	repo    repository.Repository
	gen     *generator.Generator
	cache   Cache
	log     *logger.Logger
	baseURL string
	ttl     time.Duration
	nowFunc func() time.Time
	sf      singleflight.Group
}

// NewEntryService creates a new service instance. cache may be nil.
func NewEntryService(repo repository.Repository, gen *generator.Generator, cache Cache, log *logger.Logger, baseURL string, ttl time.Duration) *EntryService {
	return &EntryService{
		repo:    repo,
		gen:     gen,
		cache:   cache,
		log:     log,
		baseURL: strings.TrimRight(baseURL, "/"),
		ttl:     ttl,
		nowFunc: time.Now,
	}
}

// WithNow overrides the clock. Tests use this to walk entries across
// the TTL boundary without sleeping.
func (s *EntryService) WithNow(now func() time.Time) *EntryService {
	s.nowFunc = now
	return s
}

// Create maps a code to a target, overwriting any previous mapping for
// that code (last write wins; a replaced entry's hit count starts over).
// An empty code means "generate one"; anything else is used verbatim —
// code legality is the caller's concern.
func (s *EntryService) Create(ctx context.Context, code, target string) (*model.Entry, error) {
	if strings.TrimSpace(target) == "" {
		return nil, ErrNoTarget
	}

	if code == "" {
		generated, err := s.gen.Generate()
		if err != nil {
			return nil, err
		}
		code = generated
	}

	now := s.nowFunc()
	if err := s.repo.Upsert(code, target, now); err != nil {
		return nil, err
	}

	// The code may have meant something else a moment ago.
	s.invalidate(ctx, code)

	return &model.Entry{
		Code:      code,
		Target:    target,
		CreatedAt: now.Unix(),
		Hits:      0,
	}, nil
}

// Lookup resolves a code to its live target, bumping the hit counter.
// Outcomes: the target, ErrExpired (entry exists but is past TTL, not
// yet reaped), or ErrNotFound. An expired entry is never served, even
// though its row may still be present until the next sweep.
func (s *EntryService) Lookup(ctx context.Context, code string) (string, error) {
	entry, err := s.getEntry(ctx, code)
	if err != nil {
		return "", err
	}

	// Strictly greater: at exactly now - created_at == TTL the entry is
	// still live, matching the reaper's FindExpired cutoff.
	if s.nowFunc().Unix()-entry.CreatedAt > int64(s.ttl.Seconds()) {
		return "", ErrExpired
	}

	// Hit accounting is best-effort: a failed increment must not cost
	// the caller their redirect.
	if err := s.repo.IncrementHits(code); err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.log.Warn("hit increment failed", "code", code, "error", err.Error())
	}

	return entry.Target, nil
}

// Metadata returns the entry for a code regardless of TTL status,
// plus its remaining lifetime (0 once expired). Callers decide how to
// present expiry.
func (s *EntryService) Metadata(ctx context.Context, code string) (*model.Entry, int64, error) {
	entry, err := s.repo.Get(code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, err
	}
	return entry, s.SecondsLeft(entry.CreatedAt), nil
}

// List returns all entries newest-first, optionally filtered by
// substring match on code or target.
func (s *EntryService) List(filter string) ([]model.Entry, error) {
	return s.repo.List(filter)
}

// SecondsLeft returns the remaining lifetime in whole seconds for an
// entry created at the given unix timestamp, floored at zero.
func (s *EntryService) SecondsLeft(createdAt int64) int64 {
	left := int64(s.ttl.Seconds()) - (s.nowFunc().Unix() - createdAt)
	if left < 0 {
		return 0
	}
	return left
}

// TTL returns the configured entry lifetime.
func (s *EntryService) TTL() time.Duration { return s.ttl }

// ShortURL builds the absolute short link for a code.
func (s *EntryService) ShortURL(code string) string {
	return s.baseURL + "/" + code
}

// getEntry reads through the cache when one is configured. Concurrent
// misses for the same code collapse into a single repository read.
func (s *EntryService) getEntry(ctx context.Context, code string) (*model.Entry, error) {
	if s.cache == nil {
		return s.repoGet(code)
	}

	if entry, err := s.cache.GetEntry(ctx, code); err == nil {
		return entry, nil
	}

	v, err, _ := s.sf.Do(code, func() (interface{}, error) {
		entry, err := s.repoGet(code)
		if err != nil {
			return nil, err
		}
		if left := s.SecondsLeft(entry.CreatedAt); left > 0 {
			if cerr := s.cache.SetEntry(ctx, entry, time.Duration(left)*time.Second); cerr != nil {
				s.log.Debug("cache set failed", "code", code, "error", cerr.Error())
			}
		}
		return entry, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.Entry), nil
}

func (s *EntryService) repoGet(code string) (*model.Entry, error) {
	entry, err := s.repo.Get(code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return entry, nil
}

func (s *EntryService) invalidate(ctx context.Context, code string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, code); err != nil {
		s.log.Debug("cache invalidation failed", "code", code, "error", err.Error())
	}
}
