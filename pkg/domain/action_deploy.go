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

// DeployAction deploys one stage's stack from the artifacts of a build.
// The stack it deploys is named "{org}-{app}-{stage}" (the stack naming
// invariant) so that a later Teardown can find and remove it.
type DeployAction struct {
	App   substrate.AppRef
	Stage Stage
	Repo  string
	Sha   string

	started bool
	result  *substrate.DeployStatus
}

// NewDeployAction constructs a pending deploy of sha from repo to stage.
func NewDeployAction(app substrate.AppRef, stage Stage, repo, sha string) *DeployAction {
	return &DeployAction{App: app, Stage: stage, Repo: repo, Sha: sha}
}

func (a *DeployAction) request() substrate.DeployRequest {
	return substrate.DeployRequest{App: a.App, Stage: a.Stage.Name, Repo: a.Repo, Sha: a.Sha}
}

// Start implements Action.
func (a *DeployAction) Start(ctx context.Context, rc *Context) error {
	if a.started {
		return nil
	}
	if err := rc.Deployer.StartDeployment(ctx, a.request()); err != nil {
		return err
	}
	a.started = true
	return nil
}

// IsDone implements Action.
func (a *DeployAction) IsDone(ctx context.Context, rc *Context) (bool, error) {
	status, err := rc.Deployer.CheckDeployment(ctx, a.request())
	if err != nil {
		return false, err
	}
	if status.Outcome == substrate.DeployPending {
		return false, nil
	}
	a.result = &status
	return true, nil
}

// GetResult implements Action.
func (a *DeployAction) GetResult() ActionResult {
	if a.result == nil {
		panic("DeployAction.GetResult called before IsDone returned true")
	}
	switch a.result.Outcome {
	case substrate.DeployComplete:
		return ActionSuccess
	case substrate.DeployFailed:
		return ActionFailed
	default:
		panic(fmt.Sprintf("unexpected terminal deploy outcome %v", a.result.Outcome))
	}
}

// GetNewWork implements Action. Deploys never inject follow-up work.
func (a *DeployAction) GetNewWork(ctx context.Context, rc *Context) []Action { return nil }

// Equal implements Action.
func (a *DeployAction) Equal(other Action) bool {
	o, ok := other.(*DeployAction)
	return ok && a.App == o.App && a.Stage.Equal(o.Stage) && a.Repo == o.Repo && a.Sha == o.Sha
}
