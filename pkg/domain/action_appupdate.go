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

import "context"

// AppUpdateAction clones a repo, re-reads its application configuration,
// and persists the result. Unlike the substrate-backed actions, its
// work completes synchronously inside Start: there is no external
// long-running job to poll, so IsDone is true as soon as Start has run.
//
// Open question (spec.md §9): whether a pending AppUpdate should block
// other pipelines for the same application is left to the host. This
// action does not itself serialize anything; see DESIGN.md for the
// decision recorded for the scheduler host.
type AppUpdateAction struct {
	Repo string
	Sha  string

	done   bool
	failed bool
}

// NewAppUpdateAction constructs a pending configuration reload for repo
// at sha.
func NewAppUpdateAction(repo, sha string) *AppUpdateAction {
	return &AppUpdateAction{Repo: repo, Sha: sha}
}

// Start implements Action.
func (a *AppUpdateAction) Start(ctx context.Context, rc *Context) error {
	if a.done {
		return nil
	}
	app, err := rc.ConfigFetcher.FetchConfig(a.Repo, a.Sha)
	if err != nil {
		a.failed = true
		a.done = true
		return nil
	}
	a.failed = rc.Applications.Save(app) != nil
	a.done = true
	return nil
}

// IsDone implements Action.
func (a *AppUpdateAction) IsDone(ctx context.Context, rc *Context) (bool, error) {
	return a.done, nil
}

// GetResult implements Action.
func (a *AppUpdateAction) GetResult() ActionResult {
	if !a.done {
		panic("AppUpdateAction.GetResult called before IsDone returned true")
	}
	if a.failed {
		return ActionFailed
	}
	return ActionSuccess
}

// GetNewWork implements Action. AppUpdate never injects follow-up work.
func (a *AppUpdateAction) GetNewWork(ctx context.Context, rc *Context) []Action { return nil }

// Equal implements Action.
func (a *AppUpdateAction) Equal(other Action) bool {
	o, ok := other.(*AppUpdateAction)
	return ok && a.Repo == o.Repo && a.Sha == o.Sha
}
