package regulation

import (
	"context"
	"fmt"
	"time"

	"github.com/gatewarden/gatewarden/pkg/apis/options"
	"github.com/gatewarden/gatewarden/pkg/clock"
)

// Regulator throttles repeated failed authentication attempts. Ban status is
// purely a function of the persisted failure history: it is recomputed from
// the attempt log on every Regulate call and never cached, so it stays
// consistent with the latest records even under concurrent writers.
type Regulator struct {
	maxRetries int
	findTime   time.Duration
	banTime    time.Duration

	store Store
	clock clock.Clock
}

// New builds a Regulator over the given attempt store. A MaxRetries of zero
// disables regulation entirely.
func New(config options.Regulation, store Store) *Regulator {
	return &Regulator{
		maxRetries: config.MaxRetries,
		findTime:   config.FindTime,
		banTime:    config.BanTime,
		store:      store,
	}
}

// Regulate decides whether username may currently attempt to authenticate.
// It returns a *BannedError while a ban is in effect. A store failure also
// blocks the attempt: regulation fails closed rather than letting an
// attacker ride out a storage outage.
func (r *Regulator) Regulate(ctx context.Context, username string) error {
	if r.maxRetries <= 0 {
		return nil
	}

	now := r.clock.Now()

	// Look back far enough to find any failure streak whose ban could still
	// be in effect.
	attempts, err := r.store.LoadAttempts(ctx, username, now.Add(-(r.findTime + r.banTime)))
	if err != nil {
		return fmt.Errorf("unable to load authentication attempts: %w", err)
	}

	// Walk newest to oldest, collecting the current failure streak. A
	// recorded success starts a new window going forward; it does not erase
	// older failures, they simply stop being part of the current streak.
	failures := make([]Attempt, 0, r.maxRetries)
	for _, attempt := range attempts {
		if attempt.Successful {
			break
		}
		failures = append(failures, attempt)
		if len(failures) == r.maxRetries {
			break
		}
	}

	if len(failures) < r.maxRetries {
		return nil
	}

	newest := failures[0].Time
	oldest := failures[len(failures)-1].Time
	if newest.Sub(oldest) > r.findTime {
		// The streak is spread over more than the sliding window.
		return nil
	}

	if until := newest.Add(r.banTime); now.Before(until) {
		return &BannedError{Until: until}
	}

	return nil
}

// Mark records the outcome of an authentication attempt. The write is a
// defence-in-depth measure, not a blocking dependency of the login path:
// callers log a returned error and carry on.
func (r *Regulator) Mark(ctx context.Context, username string, successful bool) error {
	return r.store.AppendAttempt(ctx, Attempt{
		Username:   username,
		Successful: successful,
		Time:       r.clock.Now(),
	})
}

// Clock exposes the regulator's clock for stubbing in tests.
func (r *Regulator) Clock() *clock.Clock {
	return &r.clock
}
