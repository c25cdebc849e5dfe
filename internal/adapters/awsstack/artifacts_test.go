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
	"github.com/zprobst/cloud-conveyor/pkg/substrate"
)

var _ = Describe("Artifacts", func() {
	artifacts := awsstack.NewArtifacts("acme-artifacts")
	app := substrate.AppRef{Org: "acme", App: "widget"}

	It("names every application's bucket as the configured shared bucket", func() {
		Expect(artifacts.GetBucket(app)).To(Equal("acme-artifacts"))
	})

	It("folders by org/app/ref", func() {
		Expect(artifacts.GetFolder(app, "abc123")).To(Equal("acme/widget/abc123"))
	})

	It("locates the stack template alongside the rest of a ref's artifacts", func() {
		Expect(artifacts.TemplateURL(app, "abc123")).To(Equal("https://acme-artifacts.s3.amazonaws.com/acme/widget/abc123/template.yaml"))
	})
})
