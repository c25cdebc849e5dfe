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

package awsstack_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zprobst/cloud-conveyor/internal/adapters/awsstack"
	"github.com/zprobst/cloud-conveyor/pkg/domain"
	"github.com/zprobst/cloud-conveyor/pkg/substrate"
)

var _ = Describe("StaticResolver", func() {
	apps := []*domain.Application{
		{
			Org: "acme",
			App: "widget",
			Stages: []domain.Stage{
				{Name: "dev", Account: domain.Account{Name: "dev", ID: 1, Regions: []string{"us-west-2"}}},
				{Name: "production", Account: domain.Account{Name: "prod", ID: 2, Regions: []string{"us-east-1"}}},
			},
		},
	}

	It("resolves a declared stage to its account", func() {
		resolver := awsstack.NewStaticResolver(apps)
		account, ok := resolver.Resolve(substrate.AppRef{Org: "acme", App: "widget"}, "production")
		Expect(ok).To(BeTrue())
		Expect(account.Name).To(Equal("prod"))
	})

	It("reports false for an application it has no record of", func() {
		resolver := awsstack.NewStaticResolver(apps)
		_, ok := resolver.Resolve(substrate.AppRef{Org: "acme", App: "nonexistent"}, "production")
		Expect(ok).To(BeFalse())
	})

	It("reports false for a stage name the application hasn't declared", func() {
		resolver := awsstack.NewStaticResolver(apps)
		_, ok := resolver.Resolve(substrate.AppRef{Org: "acme", App: "widget"}, "staging")
		Expect(ok).To(BeFalse())
	})
})
