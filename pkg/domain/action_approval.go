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
	"reflect"

	"github.com/zprobst/cloud-conveyor/pkg/substrate"
)

// ApprovalAction asks humans, via whichever approval substrate the
// application's stage names, whether a deployment may proceed. It
// precedes the Deploy for its stage whenever that stage has an approval
// group configured.
type ApprovalAction struct {
	Group     substrate.ApprovalGroup
	StageName string
	Sha       string
	AppName   string

	started bool
	result  *substrate.ApprovalOutcome
}

// NewApprovalAction constructs a pending approval request.
func NewApprovalAction(group substrate.ApprovalGroup, stageName, sha, appName string) *ApprovalAction {
	return &ApprovalAction{Group: group, StageName: stageName, Sha: sha, AppName: appName}
}

func (a *ApprovalAction) request() substrate.ApprovalRequest {
	return substrate.ApprovalRequest{Group: a.Group, StageName: a.StageName, Sha: a.Sha, AppName: a.AppName}
}

// Start implements Action.
func (a *ApprovalAction) Start(ctx context.Context, rc *Context) error {
	if a.started {
		return nil
	}
	if err := rc.Approver.RequestApproval(ctx, a.request()); err != nil {
		return err
	}
	a.started = true
	return nil
}

// IsDone implements Action.
func (a *ApprovalAction) IsDone(ctx context.Context, rc *Context) (bool, error) {
	outcome, err := rc.Approver.CheckApproval(ctx, a.request())
	if err != nil {
		return false, err
	}
	if outcome == substrate.ApprovalPending {
		return false, nil
	}
	a.result = &outcome
	return true, nil
}

// GetResult implements Action. Approved maps to success, proceeding to
// the stage's deploy; rejected maps to failed, canceling the pipeline.
func (a *ApprovalAction) GetResult() ActionResult {
	if a.result == nil {
		panic("ApprovalAction.GetResult called before IsDone returned true")
	}
	switch *a.result {
	case substrate.ApprovalApproved:
		return ActionSuccess
	case substrate.ApprovalRejected:
		return ActionFailed
	default:
		panic(fmt.Sprintf("unexpected terminal approval outcome %v", *a.result))
	}
}

// GetNewWork implements Action. Approvals never inject follow-up work.
func (a *ApprovalAction) GetNewWork(ctx context.Context, rc *Context) []Action { return nil }

// Equal implements Action.
func (a *ApprovalAction) Equal(other Action) bool {
	o, ok := other.(*ApprovalAction)
	if !ok {
		return false
	}
	return reflect.DeepEqual(a.Group, o.Group) && a.StageName == o.StageName && a.Sha == o.Sha && a.AppName == o.AppName
}
