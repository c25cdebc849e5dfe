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

package domain

import (
	"context"
	"fmt"

	"github.com/zprobst/cloud-conveyor/pkg/substrate"
)

// TeardownAction removes a stage's deployed stack. It is enqueued when a
// PR closes and its fabricated stage exists.
type TeardownAction struct {
	App   substrate.AppRef
	Stage Stage
	Repo  string

	started bool
	result  *substrate.TeardownStatus
}

// NewTeardownAction constructs a pending teardown of stage.
func NewTeardownAction(app substrate.AppRef, stage Stage, repo string) *TeardownAction {
	return &TeardownAction{App: app, Stage: stage, Repo: repo}
}

func (a *TeardownAction) request() substrate.TeardownRequest {
	return substrate.TeardownRequest{App: a.App, Stage: a.Stage.Name}
}

// Start implements Action.
func (a *TeardownAction) Start(ctx context.Context, rc *Context) error {
	if a.started {
		return nil
	}
	if err := rc.Teardowner.StartTeardown(ctx, a.request()); err != nil {
		return err
	}
	a.started = true
	return nil
}

// IsDone implements Action.
func (a *TeardownAction) IsDone(ctx context.Context, rc *Context) (bool, error) {
	status, err := rc.Teardowner.CheckTeardown(ctx, a.request())
	if err != nil {
		return false, err
	}
	if status.Outcome == substrate.TeardownPending {
		return false, nil
	}
	a.result = &status
	return true, nil
}

// GetResult implements Action.
func (a *TeardownAction) GetResult() ActionResult {
	if a.result == nil {
		panic("TeardownAction.GetResult called before IsDone returned true")
	}
	switch a.result.Outcome {
	case substrate.TeardownComplete:
		return ActionSuccess
	case substrate.TeardownFailed:
		return ActionFailed
	default:
		panic(fmt.Sprintf("unexpected terminal teardown outcome %v", a.result.Outcome))
	}
}

// GetNewWork implements Action. Teardowns never inject follow-up work.
func (a *TeardownAction) GetNewWork(ctx context.Context, rc *Context) []Action { return nil }

// Equal implements Action.
func (a *TeardownAction) Equal(other Action) bool {
	o, ok := other.(*TeardownAction)
	return ok && a.App == o.App && a.Stage.Equal(o.Stage) && a.Repo == o.Repo
}
