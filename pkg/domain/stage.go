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
	"reflect"

	"github.com/zprobst/cloud-conveyor/pkg/substrate"
)

// Stage is a deployable environment tied to a cloud account: either a
// user-declared environment ("dev", "prod") or a dynamically fabricated
// ephemeral PR stage.
type Stage struct {
	Name          string
	Account       Account
	ApprovalGroup substrate.ApprovalGroup
}

// prStageName returns the conventional name for the ephemeral stage
// fabricated for pull request number n: "pr-{n}".
func prStageName(prNumber int) string {
	return fmt.Sprintf("pr-%d", prNumber)
}

// NewPRStage fabricates the ephemeral stage for a pull request. It
// inherits the application's default account and carries no approval
// group. Callers must append the result to Application.Stages
// themselves; constructing it here does not mutate app.
func NewPRStage(app *Application, prNumber int) (Stage, error) {
	account, ok := app.DefaultAccount()
	if !ok {
		return Stage{}, fmt.Errorf("no default account configured on application %s", app.FullName())
	}
	return Stage{
		Name:    prStageName(prNumber),
		Account: account,
	}, nil
}

// IsForPR reports whether this stage is the fabricated stage for pull
// request number prNumber.
func (s Stage) IsForPR(prNumber int) bool {
	return s.Name == prStageName(prNumber)
}

// Equal compares two stages field-for-field, including the approval
// group. reflect.DeepEqual is used because ApprovalGroup implementations
// may carry slices, which are not comparable with ==.
func (s Stage) Equal(other Stage) bool {
	return reflect.DeepEqual(s, other)
}
