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

// BuildAction kicks off the build substrate for a single commit and
// waits for it to finish. It always precedes any Deploy in the pipeline
// that enqueued it.
type BuildAction struct {
	Sha  string
	Repo string

	started bool
	result  *substrate.BuildStatus
}

// NewBuildAction constructs a pending build for sha in repo.
func NewBuildAction(repo, sha string) *BuildAction {
	return &BuildAction{Repo: repo, Sha: sha}
}

func (a *BuildAction) request() substrate.BuildRequest {
	return substrate.BuildRequest{Sha: a.Sha, Repo: a.Repo}
}

// Start implements Action.
func (a *BuildAction) Start(ctx context.Context, rc *Context) error {
	if a.started {
		return nil
	}
	if err := rc.Builder.StartBuild(ctx, a.request()); err != nil {
		return err
	}
	a.started = true
	return nil
}

// IsDone implements Action.
func (a *BuildAction) IsDone(ctx context.Context, rc *Context) (bool, error) {
	status, err := rc.Builder.CheckBuild(ctx, a.request())
	if err != nil {
		return false, err
	}
	if status.Outcome == substrate.BuildPending {
		return false, nil
	}
	a.result = &status
	return true, nil
}

// GetResult implements Action.
func (a *BuildAction) GetResult() ActionResult {
	if a.result == nil {
		panic("BuildAction.GetResult called before IsDone returned true")
	}
	switch a.result.Outcome {
	case substrate.BuildSucceeded:
		return ActionSuccess
	case substrate.BuildFailed:
		return ActionFailed
	default:
		panic(fmt.Sprintf("unexpected terminal build outcome %v", a.result.Outcome))
	}
}

// GetNewWork implements Action. Builds never inject follow-up work.
func (a *BuildAction) GetNewWork(ctx context.Context, rc *Context) []Action { return nil }

// Equal implements Action.
func (a *BuildAction) Equal(other Action) bool {
	o, ok := other.(*BuildAction)
	return ok && a.Sha == o.Sha && a.Repo == o.Repo
}
