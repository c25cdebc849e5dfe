/*
Copyright 2025 Cloud Conveyor Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package scheduler owns every pipeline's state machine for the lifetime
// of the process: it decides when each one is next due, advances due
// machines concurrently, persists a snapshot after every advance, and
// retries a machine whose tick fails with the same exponential backoff
// statemachine applies to a slow-to-finish action, surfacing a fatal
// error only once a machine has failed too many ticks in a row.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/errgroup"

	"github.com/zprobst/cloud-conveyor/internal/apperrors"
	"github.com/zprobst/cloud-conveyor/internal/circuitbreaker"
	"github.com/zprobst/cloud-conveyor/internal/metrics"
	"github.com/zprobst/cloud-conveyor/internal/store"
	"github.com/zprobst/cloud-conveyor/pkg/domain"
	"github.com/zprobst/cloud-conveyor/pkg/statemachine"
)

// DefaultMaxRetries is the number of consecutive tick failures a machine
// tolerates before the host gives up on it and surfaces a fatal error.
const DefaultMaxRetries = 5

// entry is one pipeline under management: its state machine, the time it
// next becomes due, and how many ticks it has failed in a row. mu
// enforces that at most one goroutine ever advances this machine at a
// time, independent of how the host's own run loop happens to schedule
// its goroutines.
type entry struct {
	mu         sync.Mutex
	id         string
	sm         *statemachine.StateMachine
	nextTickAt time.Time
	failures   int
	startedAt  time.Time
}

// Host advances many pipelines' state machines concurrently, snapshots
// them to a Store as they progress, and reports outcomes through a
// metrics.Recorder. Host does not serialize Application-level mutation
// (trigger matching's fabricated PR stage, an AppUpdate action re-reading
// config): trigger matching runs outside it, and due entries tick
// concurrently, each under only its own mutex, so AppUpdate actions of two
// pipelines for the same application can reach rc.Applications at the
// same time.
type Host struct {
	rc         *domain.Context
	store      store.Store
	recorder   metrics.Recorder
	maxRetries int

	mu      sync.Mutex
	entries map[string]*entry
}

// New returns a Host ready to manage pipelines. rc is the capability
// bundle every action dispatches through; st persists and restores
// pipeline state across restarts; rec receives lifecycle metrics. A nil
// rec is not accepted — pass metrics.NoopRecorder{} when metrics are not
// wanted.
//
// Every substrate in rc is wrapped in its own named circuit breaker
// (internal/circuitbreaker), so a builder, deployer, teardowner, or
// approver that fails repeatedly trips independently of the others and
// short-circuits further calls until it recovers, instead of every tick
// re-dispatching to a substrate that has already shown it is down.
// Breaker state transitions are reported through rec, the same recorder
// every other scheduler metric goes through.
func New(rc *domain.Context, st store.Store, rec metrics.Recorder) *Host {
	breakers := circuitbreaker.NewManager(gobreaker.Settings{
		MaxRequests: 1,
		Interval:    0,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			rec.UpdateCircuitBreakerState(name, to.String())
		},
	})

	guarded := *rc
	guarded.Builder = circuitbreaker.GuardBuilder(rc.Builder, breakers)
	guarded.Deployer = circuitbreaker.GuardDeployer(rc.Deployer, breakers)
	guarded.Teardowner = circuitbreaker.GuardTeardowner(rc.Teardowner, breakers)
	guarded.Approver = circuitbreaker.GuardApprover(rc.Approver, breakers)

	return &Host{
		rc:         &guarded,
		store:      st,
		recorder:   rec,
		maxRetries: DefaultMaxRetries,
		entries:    make(map[string]*entry),
	}
}

// WithMaxRetries overrides DefaultMaxRetries. Returns h for chaining.
func (h *Host) WithMaxRetries(n int) *Host {
	h.maxRetries = n
	return h
}

// NewPipelineID mints a fresh, globally unique pipeline ID for Enqueue.
// Callers that already have a natural stable identifier (e.g. a
// deduplication key derived from the triggering VCS event) are free to
// use that instead; this exists for callers that don't.
func NewPipelineID() string {
	return uuid.NewString()
}

// Enqueue starts a freshly constructed pipeline and registers it for
// ticking on the next Run iteration. It dispatches the pipeline's first
// action immediately and snapshots the result before returning.
func (h *Host) Enqueue(ctx context.Context, id string, pipeline *domain.Pipeline) error {
	sm := statemachine.New(pipeline)
	if err := sm.Start(ctx, h.rc); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrorTypeSubstrate, "starting pipeline %s", id)
	}

	e := &entry{id: id, sm: sm, nextTickAt: time.Now(), startedAt: time.Now()}
	e.mu.Lock()
	defer e.mu.Unlock()

	h.mu.Lock()
	h.entries[id] = e
	h.mu.Unlock()

	h.recorder.PipelineStarted()
	return h.snapshot(ctx, e)
}

// Resume reloads every pipeline the Store knows about and registers each
// as immediately due, for use on process startup after a restart. A
// machine resumed this way has its current action rehydrated fresh
// (never "started" from the snapshot's point of view), so Resume
// re-dispatches it via Start before registering the entry; every
// action's Start is required to be idempotent against this, since a
// process can always have crashed after issuing the substrate call but
// before snapshotting that it had.
func (h *Host) Resume(ctx context.Context) error {
	ids, err := h.store.ListIDs(ctx)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrorTypeInternal, "listing persisted pipelines")
	}

	for _, id := range ids {
		snap, ok, err := h.store.Load(ctx, id)
		if err != nil {
			return apperrors.Wrapf(err, apperrors.ErrorTypeInternal, "loading pipeline %s", id)
		}
		if !ok {
			continue
		}
		sm, err := store.Restore(snap)
		if err != nil {
			return apperrors.Wrapf(err, apperrors.ErrorTypeInternal, "restoring pipeline %s", id)
		}
		if sm.IsTerminal() {
			continue
		}
		if err := sm.Start(ctx, h.rc); err != nil {
			return apperrors.Wrapf(err, apperrors.ErrorTypeSubstrate, "redispatching pipeline %s on resume", id)
		}

		h.mu.Lock()
		h.entries[id] = &entry{id: id, sm: sm, nextTickAt: time.Now(), startedAt: time.Now()}
		h.mu.Unlock()
	}
	return nil
}

// Run ticks due pipelines until ctx is canceled. Between wakeups it
// sleeps on a cancelable timer, never a bare time.Sleep, so shutdown is
// never blocked waiting out a long backoff. It returns nil on a clean
// ctx cancellation.
func (h *Host) Run(ctx context.Context) error {
	for {
		if err := h.runDueEntries(ctx); err != nil {
			return err
		}

		wait := h.nextWake()
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// nextWake returns how long the host should sleep before its next pass,
// the smallest nextTickAt across every managed entry, clamped to a
// sensible floor and ceiling so an empty host still wakes periodically
// to notice newly enqueued work.
func (h *Host) nextWake() time.Duration {
	const floor = 100 * time.Millisecond
	const ceiling = 30 * time.Second

	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.entries) == 0 {
		return ceiling
	}

	soonest := time.Time{}
	now := time.Now()
	for _, e := range h.entries {
		e.mu.Lock()
		due := e.nextTickAt
		e.mu.Unlock()
		if soonest.IsZero() || due.Before(soonest) {
			soonest = due
		}
	}

	wait := soonest.Sub(now)
	if wait < floor {
		wait = floor
	}
	if wait > ceiling {
		wait = ceiling
	}
	return wait
}

// runDueEntries advances every entry whose nextTickAt has passed,
// concurrently, one goroutine per due entry in an errgroup. Every entry ticks against the
// same ctx the caller gave Run, never a derived errgroup.WithContext:
// that derived context is canceled the instant any one goroutine
// returns an error, which would abort every other entry's in-flight
// substrate call mid-pipeline just because one unrelated pipeline
// exhausted its retry budget. A plain errgroup.Group only reports the
// first error it saw (after every goroutine has finished) without ever
// canceling the others.
func (h *Host) runDueEntries(ctx context.Context) error {
	now := time.Now()

	h.mu.Lock()
	due := make([]*entry, 0, len(h.entries))
	for _, e := range h.entries {
		e.mu.Lock()
		isDue := !e.nextTickAt.After(now)
		e.mu.Unlock()
		if isDue {
			due = append(due, e)
		}
	}
	h.mu.Unlock()

	var g errgroup.Group
	for _, e := range due {
		e := e
		g.Go(func() error {
			return h.tick(ctx, e)
		})
	}
	return g.Wait()
}

// tick advances one entry by exactly one call to its state machine's
// Tick, under that entry's own mutex so it is never advanced by two
// goroutines at once. A tick error grows the entry's retry backoff
// using statemachine's own exponential policy; once the entry has
// failed maxRetries ticks in a row, tick gives up on it (removing it
// from the host and returning the fatal error) rather than retrying
// forever.
func (h *Host) tick(ctx context.Context, e *entry) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, err := e.sm.Tick(ctx, h.rc)
	if err != nil {
		e.failures++
		logrus.WithFields(logrus.Fields{
			"pipeline": e.id,
			"failures": e.failures,
			"error":    err,
		}).Warn("pipeline tick failed")

		if e.failures >= h.maxRetries {
			h.forget(e.id)
			return apperrors.Wrapf(err, apperrors.ErrorTypeSubstrate,
				"pipeline %s failed %d consecutive ticks", e.id, e.failures)
		}

		e.nextTickAt = time.Now().Add(retryWait(e.failures))
		return nil
	}

	e.failures = 0
	e.nextTickAt = time.Now().Add(e.sm.RecommendedWait)

	if err := h.snapshot(ctx, e); err != nil {
		return err
	}

	if e.sm.IsTerminal() {
		h.recordCompletion(e)
		h.forget(e.id)
		return h.store.Delete(ctx, e.id)
	}
	return nil
}

// Cancel drains a pipeline's remaining pending work, snapshots the
// result, and stops the host from ticking it further.
func (h *Host) Cancel(ctx context.Context, id string) error {
	h.mu.Lock()
	e, ok := h.entries[id]
	h.mu.Unlock()
	if !ok {
		return nil
	}

	e.mu.Lock()
	e.sm.Pipeline.Cancel()
	err := h.snapshot(ctx, e)
	e.mu.Unlock()

	h.forget(id)
	return err
}

func (h *Host) forget(id string) {
	h.mu.Lock()
	delete(h.entries, id)
	h.mu.Unlock()
}

// snapshot persists e's current state. Callers must hold e.mu.
func (h *Host) snapshot(ctx context.Context, e *entry) error {
	snap, err := store.SnapshotOf(e.id, e.sm, e.nextTickAt)
	if err != nil {
		return apperrors.Wrapf(err, apperrors.ErrorTypeInternal, "snapshotting pipeline %s", e.id)
	}
	if err := h.store.Save(ctx, snap); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrorTypeInternal, "saving pipeline %s", e.id)
	}
	return nil
}

func (h *Host) recordCompletion(e *entry) {
	outcome := "succeeded"
	for _, r := range e.sm.Pipeline.Results {
		if !r.Proceeds() {
			outcome = "failed"
			break
		}
	}
	h.recorder.PipelineCompleted(outcome, time.Since(e.startedAt))
}

// retryWait applies statemachine's own InitialWait/BackoffFactor/MaxWait
// policy to a count of consecutive failures, so the host's tick-error
// backoff grows on exactly the same curve a slow action's poll backoff
// does.
func retryWait(failures int) time.Duration {
	wait := statemachine.InitialWait
	for i := 1; i < failures; i++ {
		wait = time.Duration(float64(wait) * statemachine.BackoffFactor)
		if wait >= statemachine.MaxWait {
			return statemachine.MaxWait
		}
	}
	return wait
}
