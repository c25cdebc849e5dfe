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

package circuitbreaker

import (
	"context"
	"errors"

	"github.com/zprobst/cloud-conveyor/pkg/substrate"
)

// Breaker names, one per substrate family. A repeatedly failing builder
// trips independently of a repeatedly failing deployer, since one
// substrate being unreachable says nothing about the others.
const (
	BreakerBuild    = "build"
	BreakerDeploy   = "deploy"
	BreakerTeardown = "teardown"
	BreakerApproval = "approval"
)

// execute runs fn through the named breaker and translates gobreaker's
// own open-circuit error into the substrate error taxonomy, so a tripped
// breaker looks to callers exactly like any other substrate failure
// classified ErrOther: the state machine and scheduler host need no
// breaker-specific handling.
func execute(m *Manager, name string, fn func() *substrate.Error) *substrate.Error {
	_, err := m.Execute(name, func() (interface{}, error) {
		if serr := fn(); serr != nil {
			return nil, serr
		}
		return nil, nil
	})
	if err == nil {
		return nil
	}
	var serr *substrate.Error
	if errors.As(err, &serr) {
		return serr
	}
	return substrate.NewOtherError("circuit breaker open", err)
}

// GuardBuilder wraps inner so that repeated StartBuild/CheckBuild
// failures trip a breaker named BreakerBuild, short-circuiting further
// calls until it recovers instead of re-dispatching to a substrate that
// has already shown it is down.
func GuardBuilder(inner substrate.Builder, m *Manager) substrate.Builder {
	return &guardedBuilder{inner: inner, breakers: m}
}

type guardedBuilder struct {
	inner    substrate.Builder
	breakers *Manager
}

func (g *guardedBuilder) StartBuild(ctx context.Context, req substrate.BuildRequest) *substrate.Error {
	return execute(g.breakers, BreakerBuild, func() *substrate.Error { return g.inner.StartBuild(ctx, req) })
}

func (g *guardedBuilder) CheckBuild(ctx context.Context, req substrate.BuildRequest) (substrate.BuildStatus, *substrate.Error) {
	var status substrate.BuildStatus
	serr := execute(g.breakers, BreakerBuild, func() *substrate.Error {
		var inner *substrate.Error
		status, inner = g.inner.CheckBuild(ctx, req)
		return inner
	})
	return status, serr
}

// GuardDeployer is GuardBuilder for substrate.Deployer, tripping
// BreakerDeploy.
func GuardDeployer(inner substrate.Deployer, m *Manager) substrate.Deployer {
	return &guardedDeployer{inner: inner, breakers: m}
}

type guardedDeployer struct {
	inner    substrate.Deployer
	breakers *Manager
}

func (g *guardedDeployer) StartDeployment(ctx context.Context, req substrate.DeployRequest) *substrate.Error {
	return execute(g.breakers, BreakerDeploy, func() *substrate.Error { return g.inner.StartDeployment(ctx, req) })
}

func (g *guardedDeployer) CheckDeployment(ctx context.Context, req substrate.DeployRequest) (substrate.DeployStatus, *substrate.Error) {
	var status substrate.DeployStatus
	serr := execute(g.breakers, BreakerDeploy, func() *substrate.Error {
		var inner *substrate.Error
		status, inner = g.inner.CheckDeployment(ctx, req)
		return inner
	})
	return status, serr
}

// GuardTeardowner is GuardBuilder for substrate.Teardowner, tripping
// BreakerTeardown.
func GuardTeardowner(inner substrate.Teardowner, m *Manager) substrate.Teardowner {
	return &guardedTeardowner{inner: inner, breakers: m}
}

type guardedTeardowner struct {
	inner    substrate.Teardowner
	breakers *Manager
}

func (g *guardedTeardowner) StartTeardown(ctx context.Context, req substrate.TeardownRequest) *substrate.Error {
	return execute(g.breakers, BreakerTeardown, func() *substrate.Error { return g.inner.StartTeardown(ctx, req) })
}

func (g *guardedTeardowner) CheckTeardown(ctx context.Context, req substrate.TeardownRequest) (substrate.TeardownStatus, *substrate.Error) {
	var status substrate.TeardownStatus
	serr := execute(g.breakers, BreakerTeardown, func() *substrate.Error {
		var inner *substrate.Error
		status, inner = g.inner.CheckTeardown(ctx, req)
		return inner
	})
	return status, serr
}

// GuardApprover is GuardBuilder for substrate.Approver, tripping
// BreakerApproval.
func GuardApprover(inner substrate.Approver, m *Manager) substrate.Approver {
	return &guardedApprover{inner: inner, breakers: m}
}

type guardedApprover struct {
	inner    substrate.Approver
	breakers *Manager
}

func (g *guardedApprover) RequestApproval(ctx context.Context, req substrate.ApprovalRequest) *substrate.Error {
	return execute(g.breakers, BreakerApproval, func() *substrate.Error { return g.inner.RequestApproval(ctx, req) })
}

func (g *guardedApprover) CheckApproval(ctx context.Context, req substrate.ApprovalRequest) (substrate.ApprovalOutcome, *substrate.Error) {
	var outcome substrate.ApprovalOutcome
	serr := execute(g.breakers, BreakerApproval, func() *substrate.Error {
		var inner *substrate.Error
		outcome, inner = g.inner.CheckApproval(ctx, req)
		return inner
	})
	return outcome, serr
}
