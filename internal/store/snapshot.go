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

package store

import (
	"fmt"
	"time"

	"github.com/zprobst/cloud-conveyor/pkg/domain"
	"github.com/zprobst/cloud-conveyor/pkg/substrate"
)

// actionKind discriminates an ActionSnapshot's variant, mirroring the
// five domain.Action variants from spec.md §4.4.
type actionKind string

const (
	kindBuild    actionKind = "build"
	kindDeploy   actionKind = "deploy"
	kindTeardown actionKind = "teardown"
	kindApproval actionKind = "approval"
	kindAppUpdate actionKind = "appupdate"
)

// stageSnapshot is the JSON-safe shape of a domain.Stage.
type stageSnapshot struct {
	Name          string                 `json:"name"`
	Account       domain.Account         `json:"account"`
	ApprovalGroup *approvalGroupSnapshot `json:"approval_group,omitempty"`
}

// approvalGroupSnapshot is the JSON-safe shape of a substrate.ApprovalGroup.
// Slack is the only variant today; additional kinds add a field here the
// same way decodeApprovalGroup's switch grows a case.
type approvalGroupSnapshot struct {
	Kind   string   `json:"kind"`
	People []string `json:"people,omitempty"`
}

// ActionSnapshot is the wire format for one domain.Action, carrying only
// the exported, caller-supplied fields a variant's constructor needs —
// never its cached "started"/"result" state. Rehydrating a snapshot
// always produces a fresh, not-yet-started action: per spec.md §4.4
// every Start implementation is idempotent against the substrate's own
// naming convention, so re-dispatching after a restart is safe and the
// store need not (and, since those fields are unexported, cannot from
// outside pkg/domain) preserve them.
type ActionSnapshot struct {
	Kind actionKind `json:"kind"`

	Repo string `json:"repo,omitempty"`
	Sha  string `json:"sha,omitempty"`

	App   *substrate.AppRef `json:"app,omitempty"`
	Stage *stageSnapshot    `json:"stage,omitempty"`

	ApprovalGroup *approvalGroupSnapshot `json:"approval_group,omitempty"`
	StageName     string                 `json:"stage_name,omitempty"`
	AppName       string                 `json:"app_name,omitempty"`
}

// EncodeAction converts a live action into its wire format.
func EncodeAction(action domain.Action) (ActionSnapshot, error) {
	switch a := action.(type) {
	case *domain.BuildAction:
		return ActionSnapshot{Kind: kindBuild, Repo: a.Repo, Sha: a.Sha}, nil
	case *domain.DeployAction:
		app := a.App
		return ActionSnapshot{
			Kind:  kindDeploy,
			Repo:  a.Repo,
			Sha:   a.Sha,
			App:   &app,
			Stage: encodeStage(a.Stage),
		}, nil
	case *domain.TeardownAction:
		app := a.App
		return ActionSnapshot{
			Kind:  kindTeardown,
			Repo:  a.Repo,
			App:   &app,
			Stage: encodeStage(a.Stage),
		}, nil
	case *domain.ApprovalAction:
		return ActionSnapshot{
			Kind:          kindApproval,
			Sha:           a.Sha,
			StageName:     a.StageName,
			AppName:       a.AppName,
			ApprovalGroup: encodeApprovalGroup(a.Group),
		}, nil
	case *domain.AppUpdateAction:
		return ActionSnapshot{Kind: kindAppUpdate, Repo: a.Repo, Sha: a.Sha}, nil
	default:
		return ActionSnapshot{}, fmt.Errorf("store: unrecognized action type %T", action)
	}
}

// DecodeAction rebuilds a fresh, not-yet-started domain.Action from its
// wire format.
func DecodeAction(snap ActionSnapshot) (domain.Action, error) {
	switch snap.Kind {
	case kindBuild:
		return domain.NewBuildAction(snap.Repo, snap.Sha), nil
	case kindDeploy:
		if snap.App == nil || snap.Stage == nil {
			return nil, fmt.Errorf("store: deploy snapshot missing app or stage")
		}
		return domain.NewDeployAction(*snap.App, decodeStage(snap.Stage), snap.Repo, snap.Sha), nil
	case kindTeardown:
		if snap.App == nil || snap.Stage == nil {
			return nil, fmt.Errorf("store: teardown snapshot missing app or stage")
		}
		return domain.NewTeardownAction(*snap.App, decodeStage(snap.Stage), snap.Repo), nil
	case kindApproval:
		group, err := decodeApprovalGroup(snap.ApprovalGroup)
		if err != nil {
			return nil, err
		}
		return domain.NewApprovalAction(group, snap.StageName, snap.Sha, snap.AppName), nil
	case kindAppUpdate:
		return domain.NewAppUpdateAction(snap.Repo, snap.Sha), nil
	default:
		return nil, fmt.Errorf("store: unrecognized action kind %q", snap.Kind)
	}
}

func encodeStage(s domain.Stage) *stageSnapshot {
	return &stageSnapshot{
		Name:          s.Name,
		Account:       s.Account,
		ApprovalGroup: encodeApprovalGroup(s.ApprovalGroup),
	}
}

func decodeStage(snap *stageSnapshot) domain.Stage {
	stage := domain.Stage{Name: snap.Name, Account: snap.Account}
	if snap.ApprovalGroup != nil {
		group, err := decodeApprovalGroup(snap.ApprovalGroup)
		if err == nil {
			stage.ApprovalGroup = group
		}
	}
	return stage
}

func encodeApprovalGroup(group substrate.ApprovalGroup) *approvalGroupSnapshot {
	if group == nil {
		return nil
	}
	if slack, ok := group.(substrate.SlackApprovalGroup); ok {
		return &approvalGroupSnapshot{Kind: "slack", People: slack.People}
	}
	return &approvalGroupSnapshot{Kind: group.Kind()}
}

func decodeApprovalGroup(snap *approvalGroupSnapshot) (substrate.ApprovalGroup, error) {
	if snap == nil {
		return nil, nil
	}
	switch snap.Kind {
	case "slack":
		return substrate.SlackApprovalGroup{People: snap.People}, nil
	default:
		return nil, fmt.Errorf("store: unrecognized approval group kind %q", snap.Kind)
	}
}

// PipelineSnapshot is the wire format for one pipeline and the state
// machine driving it, as persisted after every advanced tick and every
// cancellation (spec.md §5).
type PipelineSnapshot struct {
	ID      string           `json:"id"`
	Current *ActionSnapshot  `json:"current,omitempty"`
	Pending []ActionSnapshot `json:"pending"`

	Completed []ActionSnapshot `json:"completed"`
	Results   []string         `json:"results"`

	RecommendedWait time.Duration `json:"recommended_wait"`
	NextTickAt      time.Time     `json:"next_tick_at"`
}
