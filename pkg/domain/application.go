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
	"fmt"

	"github.com/zprobst/cloud-conveyor/pkg/substrate"
)

// Application is the full configuration of one application managed by
// Cloud Conveyor: its accounts, its declared stages, and the triggers
// that translate version-control events into pipelines.
//
// Application is mutable: PR creation may append a fabricated stage
// (trigger matching holds a *Application for exactly this reason), and
// AppUpdate actions replace it wholesale after re-reading configuration
// from the repo. Callers must serialize concurrent mutation of a given
// application themselves; Application does not lock itself.
type Application struct {
	Org                string
	App                string
	Accounts           []Account
	DefaultAccountIndex *int
	Stages             []Stage
	Triggers           []Trigger
	ApprovalGroups     []substrate.ApprovalGroup
}

// FullName returns "{org}/{app}", the canonical identifier used in
// approval prompts and logs.
func (a *Application) FullName() string {
	return fmt.Sprintf("%s/%s", a.Org, a.App)
}

// Ref returns the minimal substrate.AppRef handle for this application.
func (a *Application) Ref() substrate.AppRef {
	return substrate.AppRef{Org: a.Org, App: a.App}
}

// DefaultAccount returns the account designated as default, if any.
func (a *Application) DefaultAccount() (Account, bool) {
	if a.DefaultAccountIndex == nil {
		return Account{}, false
	}
	i := *a.DefaultAccountIndex
	if i < 0 || i >= len(a.Accounts) {
		// Invariant violation: default_account_index, when set, must
		// index a valid account. Configuration loading is responsible
		// for never producing this state.
		return Account{}, false
	}
	return a.Accounts[i], true
}

// AddStage appends a stage to the application's stage list. Used by
// trigger matching to install a fabricated pr-N stage, and available to
// AppUpdate for the same purpose after reloading configuration.
func (a *Application) AddStage(s Stage) {
	a.Stages = append(a.Stages, s)
}

// FindStage returns the stage with the given name, if declared.
func (a *Application) FindStage(name string) (Stage, bool) {
	for _, s := range a.Stages {
		if s.Name == name {
			return s, true
		}
	}
	return Stage{}, false
}

// FindPRStage returns the fabricated stage for the given pull request
// number, if one has been created.
func (a *Application) FindPRStage(prNumber int) (Stage, bool) {
	return a.FindStage(prStageName(prNumber))
}

// ResolveStages resolves a list of stage names to their Stage objects,
// preserving the caller's order and silently dropping names that do not
// resolve to a declared stage. This is the documented behavior for
// Merge.stages / Tag.stages references to stages that don't exist.
func (a *Application) ResolveStages(names []string) []Stage {
	stages := make([]Stage, 0, len(names))
	for _, name := range names {
		if s, ok := a.FindStage(name); ok {
			stages = append(stages, s)
		}
	}
	return stages
}
