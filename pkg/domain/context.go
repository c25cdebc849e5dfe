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

import "github.com/zprobst/cloud-conveyor/pkg/substrate"

// ApplicationStore resolves an application's stored configuration from
// its repository URL, and allows it to be persisted after mutation (by
// trigger matching's PR-stage fabrication, or by an AppUpdate action).
// It is logically the one capability in Context that is not read-only:
// LoadMutable hands back a pointer the caller may mutate in place.
type ApplicationStore interface {
	// LoadMutable returns a mutable handle to the application known for
	// repoURL, or false if no application is configured for it.
	LoadMutable(repoURL string) (*Application, bool)
	// Save persists the application, e.g. after an AppUpdate action
	// re-reads it from the repo, or after trigger matching appends a
	// fabricated PR stage.
	Save(app *Application) error
}

// ConfigFetcher clones a repository at a sha and re-reads its
// application configuration. Its internals (how the clone happens, what
// file is parsed) are out of scope for the core; AppUpdateAction only
// depends on this contract.
type ConfigFetcher interface {
	FetchConfig(repoURL, sha string) (*Application, error)
}

// Context is the capability bundle injected into every action: the
// substrate adapters it may call, plus the application store used to
// resolve and persist configuration. It is logically read-only from an
// action's perspective except for the application store.
type Context struct {
	ArtifactProvider substrate.ArtifactProvider
	Builder          substrate.Builder
	Deployer         substrate.Deployer
	Teardowner       substrate.Teardowner
	Approver         substrate.Approver
	Applications     ApplicationStore
	ConfigFetcher    ConfigFetcher
}
