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

package awsstack

import (
	"fmt"

	"github.com/zprobst/cloud-conveyor/pkg/domain"
	"github.com/zprobst/cloud-conveyor/pkg/substrate"
)

// Resolver looks up the AWS account a given application's stage deploys
// into. It exists because substrate.DeployRequest and
// substrate.TeardownRequest only carry an AppRef and a stage name, never
// an account ID or region.
type Resolver interface {
	// Resolve returns the account configured for app's named stage, or
	// false if either the application or the stage is not known.
	Resolve(app substrate.AppRef, stage string) (domain.Account, bool)
}

// StaticResolver answers Resolve from a fixed snapshot of applications,
// indexed once at construction. It does not watch for configuration
// changes; callers that reload applications (AppUpdate) must build a new
// StaticResolver, or wrap one in their own refreshing Resolver.
type StaticResolver struct {
	accounts map[string]domain.Account
}

// NewStaticResolver indexes every stage of every application by
// "{org}/{app}/{stage}" so Resolve is an O(1) map lookup.
func NewStaticResolver(apps []*domain.Application) *StaticResolver {
	accounts := make(map[string]domain.Account)
	for _, app := range apps {
		for _, stage := range app.Stages {
			accounts[resolverKey(app.Ref(), stage.Name)] = stage.Account
		}
	}
	return &StaticResolver{accounts: accounts}
}

// Resolve implements Resolver.
func (r *StaticResolver) Resolve(app substrate.AppRef, stage string) (domain.Account, bool) {
	account, ok := r.accounts[resolverKey(app, stage)]
	return account, ok
}

func resolverKey(app substrate.AppRef, stage string) string {
	return fmt.Sprintf("%s/%s/%s", app.Org, app.App, stage)
}
