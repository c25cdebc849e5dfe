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

package domain_test

import (
	"context"

	"github.com/zprobst/cloud-conveyor/pkg/domain"
	"github.com/zprobst/cloud-conveyor/pkg/substrate"
)

// fakeBuilder reports the configured statuses in order each time
// CheckBuild is called, holding the last one once exhausted.
type fakeBuilder struct {
	starts   int
	statuses []substrate.BuildStatus
	calls    int
	startErr *substrate.Error
}

func (f *fakeBuilder) StartBuild(ctx context.Context, req substrate.BuildRequest) *substrate.Error {
	f.starts++
	return f.startErr
}

func (f *fakeBuilder) CheckBuild(ctx context.Context, req substrate.BuildRequest) (substrate.BuildStatus, *substrate.Error) {
	idx := f.calls
	if idx >= len(f.statuses) {
		idx = len(f.statuses) - 1
	}
	f.calls++
	return f.statuses[idx], nil
}

type fakeDeployer struct {
	starts   int
	statuses []substrate.DeployStatus
	calls    int
}

func (f *fakeDeployer) StartDeployment(ctx context.Context, req substrate.DeployRequest) *substrate.Error {
	f.starts++
	return nil
}

func (f *fakeDeployer) CheckDeployment(ctx context.Context, req substrate.DeployRequest) (substrate.DeployStatus, *substrate.Error) {
	idx := f.calls
	if idx >= len(f.statuses) {
		idx = len(f.statuses) - 1
	}
	f.calls++
	return f.statuses[idx], nil
}

type fakeTeardowner struct {
	statuses []substrate.TeardownStatus
	calls    int
}

func (f *fakeTeardowner) StartTeardown(ctx context.Context, req substrate.TeardownRequest) *substrate.Error {
	return nil
}

func (f *fakeTeardowner) CheckTeardown(ctx context.Context, req substrate.TeardownRequest) (substrate.TeardownStatus, *substrate.Error) {
	idx := f.calls
	if idx >= len(f.statuses) {
		idx = len(f.statuses) - 1
	}
	f.calls++
	return f.statuses[idx], nil
}

type fakeApprover struct {
	outcomes []substrate.ApprovalOutcome
	calls    int
}

func (f *fakeApprover) RequestApproval(ctx context.Context, req substrate.ApprovalRequest) *substrate.Error {
	return nil
}

func (f *fakeApprover) CheckApproval(ctx context.Context, req substrate.ApprovalRequest) (substrate.ApprovalOutcome, *substrate.Error) {
	idx := f.calls
	if idx >= len(f.outcomes) {
		idx = len(f.outcomes) - 1
	}
	f.calls++
	return f.outcomes[idx], nil
}

type fakeApplicationStore struct {
	apps map[string]*domain.Application
	saved []*domain.Application
}

func (f *fakeApplicationStore) LoadMutable(repoURL string) (*domain.Application, bool) {
	app, ok := f.apps[repoURL]
	return app, ok
}

func (f *fakeApplicationStore) Save(app *domain.Application) error {
	f.saved = append(f.saved, app)
	return nil
}

type fakeConfigFetcher struct {
	app *domain.Application
	err error
}

func (f *fakeConfigFetcher) FetchConfig(repoURL, sha string) (*domain.Application, error) {
	return f.app, f.err
}
