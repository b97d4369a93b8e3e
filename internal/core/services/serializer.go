package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/custodia-labs/pocketbot/internal/core/domain"
	"github.com/custodia-labs/pocketbot/internal/core/ports/driven"
	"github.com/puzpuzpuz/xsync/v3"
)

const (
	defaultLockTTL        = 30 * time.Second
	defaultLockWait       = 10 * time.Second
	defaultLockPollPeriod = 50 * time.Millisecond
)

// IdentitySerializerConfig holds configuration for the IdentitySerializer.
type IdentitySerializerConfig struct {
	// Lock coordinates with other bot processes. Optional; without it only
	// goroutines of this process are serialized.
	Lock driven.DistributedLock

	// LockTTL bounds how long a crashed holder can block a user.
	LockTTL time.Duration

	// MaxWait bounds how long a transition waits for the user's lock.
	MaxWait time.Duration

	// PollInterval is the delay between attempts on the distributed lock.
	PollInterval time.Duration

	Logger *slog.Logger
}

// IdentitySerializer runs at most one transition per user at a time.
// Different users never block each other.
type IdentitySerializer struct {
	local        *xsync.MapOf[domain.UserID, *identityMutex]
	lock         driven.DistributedLock
	lockTTL      time.Duration
	maxWait      time.Duration
	pollInterval time.Duration
	logger       *slog.Logger
}

// identityMutex is a context-aware mutex. refs counts goroutines holding or
// waiting for it and is only touched inside MapOf.Compute.
type identityMutex struct {
	sem  chan struct{}
	refs int
}

// NewIdentitySerializer creates a new IdentitySerializer.
func NewIdentitySerializer(cfg IdentitySerializerConfig) *IdentitySerializer {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := cfg.LockTTL
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	maxWait := cfg.MaxWait
	if maxWait <= 0 {
		maxWait = defaultLockWait
	}
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = defaultLockPollPeriod
	}

	return &IdentitySerializer{
		local:        xsync.NewMapOf[domain.UserID, *identityMutex](),
		lock:         cfg.Lock,
		lockTTL:      ttl,
		maxWait:      maxWait,
		pollInterval: poll,
		logger:       logger,
	}
}

// Do runs fn while holding the user's lock.
// Returns an error wrapping domain.ErrLockTimeout if the lock could not be
// taken within MaxWait.
func (s *IdentitySerializer) Do(ctx context.Context, id domain.UserID, fn func(ctx context.Context) error) error {
	waitCtx, cancel := context.WithTimeout(ctx, s.maxWait)
	defer cancel()

	m := s.retain(id)
	defer s.forget(id)

	select {
	case m.sem <- struct{}{}:
	case <-waitCtx.Done():
		return s.waitError(ctx, id, waitCtx.Err())
	}
	defer func() { <-m.sem }()

	if s.lock != nil {
		name := lockName(id)
		if err := s.acquireDistributed(waitCtx, name); err != nil {
			return s.waitError(ctx, id, err)
		}
		defer func() {
			// Release even if the caller's context was cancelled.
			if err := s.lock.Release(context.WithoutCancel(ctx), name); err != nil {
				s.logger.Warn("failed to release user lock", "user_id", id, "error", err)
			}
		}()
	}

	return fn(ctx)
}

// retain returns the user's mutex, creating it if needed.
func (s *IdentitySerializer) retain(id domain.UserID) *identityMutex {
	m, _ := s.local.Compute(id, func(old *identityMutex, loaded bool) (*identityMutex, bool) {
		if !loaded {
			old = &identityMutex{sem: make(chan struct{}, 1)}
		}
		old.refs++
		return old, false
	})
	return m
}

// forget drops the user's mutex once nobody holds or waits for it.
func (s *IdentitySerializer) forget(id domain.UserID) {
	s.local.Compute(id, func(old *identityMutex, loaded bool) (*identityMutex, bool) {
		if !loaded {
			return old, true
		}
		old.refs--
		return old, old.refs <= 0
	})
}

func (s *IdentitySerializer) acquireDistributed(ctx context.Context, name string) error {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		acquired, err := s.lock.Acquire(ctx, name, s.lockTTL)
		if err != nil {
			return fmt.Errorf("acquire %s: %w", name, err)
		}
		if acquired {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *IdentitySerializer) waitError(parent context.Context, id domain.UserID, err error) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		s.logger.Warn("timed out waiting for user lock", "user_id", id, "max_wait", s.maxWait)
		return fmt.Errorf("user %s: %w", id, domain.ErrLockTimeout)
	}
	return err
}

// Locked reports whether a goroutine of this process holds or waits for the
// user's lock.
func (s *IdentitySerializer) Locked(id domain.UserID) bool {
	_, ok := s.local.Load(id)
	return ok
}

func lockName(id domain.UserID) string {
	return "user:" + id.String()
}
