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

package statemachine_test

import (
	"context"

	"github.com/zprobst/cloud-conveyor/pkg/domain"
)

// fakeAction is a scriptable domain.Action used to drive the state
// machine through specific sequences of is-done polls without a real
// substrate.
type fakeAction struct {
	name string

	starts int

	// doneSequence lists canned IsDone answers consumed in order; once
	// exhausted the last entry repeats.
	doneSequence []bool
	doneCalls    int

	result  domain.ActionResult
	newWork []domain.Action

	startErr error
}

func (f *fakeAction) Start(ctx context.Context, rc *domain.Context) error {
	f.starts++
	return f.startErr
}

func (f *fakeAction) IsDone(ctx context.Context, rc *domain.Context) (bool, error) {
	idx := f.doneCalls
	if idx >= len(f.doneSequence) {
		idx = len(f.doneSequence) - 1
	}
	f.doneCalls++
	return f.doneSequence[idx], nil
}

func (f *fakeAction) GetResult() domain.ActionResult { return f.result }

func (f *fakeAction) GetNewWork(ctx context.Context, rc *domain.Context) []domain.Action {
	return f.newWork
}

func (f *fakeAction) Equal(other domain.Action) bool {
	o, ok := other.(*fakeAction)
	return ok && o.name == f.name
}
