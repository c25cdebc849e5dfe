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

// Package statemachine drives a single pipeline forward one tick at a
// time: start the current action, poll it to completion, project its
// result, cancel the rest of the pipeline on failure, and dispatch the
// next action. The scheduler host owns many of these, each advanced by
// at most one worker at a time.
package statemachine

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zprobst/cloud-conveyor/pkg/domain"
)

const (
	// InitialWait is the RecommendedWait a freshly dispatched action
	// starts at, and the value it resets to whenever a new action is
	// dispatched. Exported so the scheduler host can apply the same
	// policy to its own tick-error backoff (spec.md §5: "the host
	// backs off using the same exponential policy").
	InitialWait = 10 * time.Second
	// BackoffFactor is applied to RecommendedWait every tick the
	// current action reports itself still pending.
	BackoffFactor = 1.5
	// MaxWait clamps RecommendedWait so a stuck action never pushes the
	// scheduler's poll interval out to an unreasonable span.
	MaxWait = 5 * time.Minute
)

// StateMachine drives one pipeline. Pipeline is the queue of pending and
// completed work; Current is the action presently in flight (nil once
// the machine is terminal); RecommendedWait is the delay the scheduler
// host should wait before the next tick.
type StateMachine struct {
	Pipeline        *domain.Pipeline
	Current         domain.Action
	RecommendedWait time.Duration
}

// New constructs a state machine for pipeline, popping its first pending
// action into Current. It does not start that action — callers must call
// Start exactly once before the first Tick, mirroring the invariant that
// start is invoked exactly once per action per state-machine lifetime.
func New(pipeline *domain.Pipeline) *StateMachine {
	sm := &StateMachine{Pipeline: pipeline, RecommendedWait: InitialWait}
	sm.Current, _ = pipeline.PopNextAction()
	return sm
}

// IsTerminal reports whether the machine has no current action and
// nothing left pending — it will never advance again.
func (sm *StateMachine) IsTerminal() bool {
	return sm.Current == nil && sm.Pipeline.IsDrained()
}

// Start commands the substrate to begin the current action, if any. It
// is a no-op on a terminal machine (Current == nil). Call this once
// after New; Tick starts each later Current itself when it dispatches it.
func (sm *StateMachine) Start(ctx context.Context, rc *domain.Context) error {
	if sm.Current == nil {
		return nil
	}
	return sm.Current.Start(ctx, rc)
}

// Tick performs one cycle: poll the current action; if it is still
// pending, grow RecommendedWait and return (false, nil); if it has
// reached a terminal state, project its result, cancel the rest of the
// pipeline on failure, splice in any follow-up work, complete the
// action, and dispatch the next one (starting it and resetting
// RecommendedWait). The returned bool reports whether the machine
// advanced to a new current action this tick.
func (sm *StateMachine) Tick(ctx context.Context, rc *domain.Context) (bool, error) {
	if sm.Current == nil {
		return false, nil
	}

	done, err := sm.Current.IsDone(ctx, rc)
	if err != nil {
		return false, err
	}
	if !done {
		sm.growWait()
		return false, nil
	}

	finished := sm.Current
	result := finished.GetResult()
	if !result.Proceeds() {
		sm.Pipeline.Cancel()
	}

	// AddImmediateAction prepends a single action, so walking newWork in
	// reverse and prepending each one leaves it at the front in its
	// original order.
	newWork := finished.GetNewWork(ctx, rc)
	for i := len(newWork) - 1; i >= 0; i-- {
		sm.Pipeline.AddImmediateAction(newWork[i])
	}

	sm.Pipeline.CompleteAction(finished, result)
	logrus.WithFields(logrus.Fields{"result": result.String()}).Debug("action completed")

	sm.Current, _ = sm.Pipeline.PopNextAction()
	if sm.Current == nil {
		return true, nil
	}

	sm.RecommendedWait = InitialWait
	if err := sm.Current.Start(ctx, rc); err != nil {
		return true, err
	}
	return true, nil
}

func (sm *StateMachine) growWait() {
	grown := time.Duration(float64(sm.RecommendedWait) * BackoffFactor)
	if grown > MaxWait {
		grown = MaxWait
	}
	sm.RecommendedWait = grown
}
