package service

import (
	"context"
	"time"

	"linkdrop/internal/logger"
	"linkdrop/internal/repository"
)

// ArtifactRemover is the file-removal capability the reaper needs from
// the artifact store. Removing an absent artifact must not error.
type ArtifactRemover interface {
	Remove(name string) error
}

// Reaper enforces TTL physically: on a fixed interval it finds expired
// entries, removes their file artifacts, and deletes the rows. It is
// the only component that deletes entries. The lookup path enforces
// TTL logically in the meantime, so an entry that expired between
// sweeps is rejected, never served.
type Reaper struct {
	repo     repository.Repository
	files    ArtifactRemover
	cache    Cache
	log      *logger.Logger
	ttl      time.Duration
	interval time.Duration
	nowFunc  func() time.Time
}

// NewReaper creates a reaper. cache may be nil.
func NewReaper(repo repository.Repository, files ArtifactRemover, cache Cache, log *logger.Logger, ttl, interval time.Duration) *Reaper {
	return &Reaper{
		repo:     repo,
		files:    files,
		cache:    cache,
		log:      log,
		ttl:      ttl,
		interval: interval,
		nowFunc:  time.Now,
	}
}

// WithNow overrides the clock for tests.
func (r *Reaper) WithNow(now func() time.Time) *Reaper {
	r.nowFunc = now
	return r
}

// Run sweeps on every tick until ctx is cancelled. A failed sweep is
// logged and retried on the next tick; one bad iteration never ends
// the loop.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.log.Info("reaper started",
		"ttl", r.ttl.String(),
		"interval", r.interval.String())

	for {
		select {
		case <-ctx.Done():
			r.log.Info("reaper stopped")
			return
		case <-ticker.C:
			reaped, err := r.Sweep(ctx)
			if err != nil {
				r.log.Error("sweep failed", "error", err.Error())
				continue
			}
			if reaped > 0 {
				r.log.Info("swept expired entries", "count", reaped)
			}
		}
	}
}

// Sweep removes every entry whose TTL has passed, deleting the backing
// file artifact first when there is one. Artifact-removal failures are
// logged and swallowed — the row is deleted regardless, otherwise an
// unremovable file would be retried forever. Running Sweep twice in a
// row is a no-op the second time. Returns the number of entries deleted.
func (r *Reaper) Sweep(ctx context.Context) (int, error) {
	expired, err := r.repo.FindExpired(r.nowFunc(), r.ttl)
	if err != nil {
		return 0, err
	}

	reaped := 0
	for i := range expired {
		entry := &expired[i]

		if entry.IsFileTarget() {
			if err := r.files.Remove(entry.FileName()); err != nil {
				r.log.Warn("artifact removal failed",
					"code", entry.Code,
					"file", entry.FileName(),
					"error", err.Error())
			}
		}

		if err := r.repo.Delete(entry.Code); err != nil {
			// Skip this one; the next sweep will see it again.
			r.log.Warn("entry delete failed", "code", entry.Code, "error", err.Error())
			continue
		}

		if r.cache != nil {
			if err := r.cache.Delete(ctx, entry.Code); err != nil {
				r.log.Debug("cache invalidation failed", "code", entry.Code, "error", err.Error())
			}
		}
		reaped++
	}

	return reaped, nil
}
