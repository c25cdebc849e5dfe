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

package config

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zprobst/cloud-conveyor/internal/apperrors"
	"github.com/zprobst/cloud-conveyor/pkg/domain"
	"github.com/zprobst/cloud-conveyor/pkg/substrate"
)

var _ = Describe("Load", func() {
	var (
		tempDir    string
		configFile string
	)

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "conveyor-config-test")
		Expect(err).NotTo(HaveOccurred())
		configFile = filepath.Join(tempDir, ".conveyor.yaml")
	})

	AfterEach(func() {
		os.RemoveAll(tempDir)
	})

	Context("with a fully populated config file", func() {
		BeforeEach(func() {
			contents := `
org: acme
app: widget
accounts:
  - name: default
    id: 111
    regions: [us-east-1]
  - name: staging
    id: 222
    regions: [us-west-2]
stages:
  - name: dev
  - name: prod
    account: staging
    approvers: prod-approvers
triggers:
  - pr: {deploy: true}
  - merge: {to: master, deploy: [prod]}
  - tag: {pattern: semver, deploy: [prod]}
approvals:
  prod-approvers:
    type: slack
    people: ["@alice", "@bob"]
`
			Expect(os.WriteFile(configFile, []byte(contents), 0644)).To(Succeed())
		})

		It("resolves a complete application", func() {
			app, err := Load(configFile)
			Expect(err).NotTo(HaveOccurred())

			Expect(app.Org).To(Equal("acme"))
			Expect(app.App).To(Equal("widget"))
			Expect(app.Accounts).To(HaveLen(2))
			Expect(app.DefaultAccountIndex).NotTo(BeNil())
			account, ok := app.DefaultAccount()
			Expect(ok).To(BeTrue())
			Expect(account.Name).To(Equal("default"))

			dev, ok := app.FindStage("dev")
			Expect(ok).To(BeTrue())
			Expect(dev.Account.Name).To(Equal("default"))
			Expect(dev.ApprovalGroup).To(BeNil())

			prod, ok := app.FindStage("prod")
			Expect(ok).To(BeTrue())
			Expect(prod.Account.Name).To(Equal("staging"))
			Expect(prod.ApprovalGroup).To(Equal(substrate.SlackApprovalGroup{People: []string{"@alice", "@bob"}}))

			Expect(app.Triggers).To(HaveLen(3))
			Expect(app.Triggers[0]).To(Equal(domain.PrTrigger{Deploy: true}))
			Expect(app.Triggers[1]).To(Equal(domain.MergeTrigger{To: "master", Stages: []string{"prod"}}))
			Expect(app.Triggers[2]).To(Equal(domain.TagTrigger{Pattern: "semver", Stages: []string{"prod"}}))
		})
	})

	Context("when a stage omits account", func() {
		BeforeEach(func() {
			contents := `
org: acme
app: widget
accounts:
  - name: default
    id: 1
    regions: [us-east-1]
stages:
  - name: dev
`
			Expect(os.WriteFile(configFile, []byte(contents), 0644)).To(Succeed())
		})

		It("defaults the stage's account to \"default\"", func() {
			app, err := Load(configFile)
			Expect(err).NotTo(HaveOccurred())
			dev, ok := app.FindStage("dev")
			Expect(ok).To(BeTrue())
			Expect(dev.Account.Name).To(Equal("default"))
		})
	})

	Context("when the file does not exist", func() {
		It("returns a config-type AppError", func() {
			_, err := Load(filepath.Join(tempDir, "missing.yaml"))
			Expect(err).To(HaveOccurred())
			Expect(apperrors.IsType(err, apperrors.ErrorTypeConfig)).To(BeTrue())
		})
	})

	Context("when the YAML is malformed", func() {
		BeforeEach(func() {
			Expect(os.WriteFile(configFile, []byte("org: [unterminated"), 0644)).To(Succeed())
		})

		It("returns a config-type AppError", func() {
			_, err := Load(configFile)
			Expect(err).To(HaveOccurred())
			Expect(apperrors.IsType(err, apperrors.ErrorTypeConfig)).To(BeTrue())
		})
	})

	Context("when a stage references an account that does not exist", func() {
		BeforeEach(func() {
			contents := `
org: acme
app: widget
accounts:
  - name: default
    id: 1
    regions: [us-east-1]
stages:
  - name: prod
    account: nonexistent
`
			Expect(os.WriteFile(configFile, []byte(contents), 0644)).To(Succeed())
		})

		It("fails validation and names the offending stage", func() {
			_, err := Load(configFile)
			Expect(err).To(HaveOccurred())
			Expect(apperrors.IsType(err, apperrors.ErrorTypeConfig)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("nonexistent"))
		})
	})

	Context("when a stage references an unknown approval group", func() {
		BeforeEach(func() {
			contents := `
org: acme
app: widget
accounts:
  - name: default
    id: 1
    regions: [us-east-1]
stages:
  - name: prod
    approvers: missing-group
`
			Expect(os.WriteFile(configFile, []byte(contents), 0644)).To(Succeed())
		})

		It("fails validation", func() {
			_, err := Load(configFile)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("missing-group"))
		})
	})
})

var _ = Describe("validate", func() {
	It("reports every violation found, not just the first", func() {
		f := &File{
			Stages: []fileStage{
				{Name: "prod", Account: "nonexistent"},
				{Name: "", Account: "default"},
			},
		}
		err := validate(f)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("org is required"))
		Expect(err.Error()).To(ContainSubstring("app is required"))
		Expect(err.Error()).To(ContainSubstring("nonexistent"))
		Expect(err.Error()).To(ContainSubstring("missing a name"))
	})

	It("passes a minimal valid file", func() {
		f := &File{
			Org: "acme",
			App: "widget",
			Accounts: []fileAccount{
				{Name: "default", ID: 1, Regions: []string{"us-east-1"}},
			},
			Stages: []fileStage{{Name: "dev"}},
		}
		Expect(validate(f)).NotTo(HaveOccurred())
	})
})

var _ = Describe("Render", func() {
	It("round-trips an application parsed from YAML", func() {
		original := `org: acme
app: widget
accounts:
  - name: default
    id: 1
    regions: [us-east-1]
stages:
  - name: dev
  - name: prod
    approvers: prod-approvers
triggers:
  - merge: {to: master, deploy: [prod]}
approvals:
  prod-approvers:
    type: slack
    people: ["@alice"]
`
		app, err := Parse([]byte(original))
		Expect(err).NotTo(HaveOccurred())

		rendered, err := Render(app)
		Expect(err).NotTo(HaveOccurred())

		roundTripped, err := Parse(rendered)
		Expect(err).NotTo(HaveOccurred())

		Expect(roundTripped.Org).To(Equal(app.Org))
		Expect(roundTripped.App).To(Equal(app.App))
		Expect(roundTripped.Accounts).To(Equal(app.Accounts))
		Expect(roundTripped.Stages).To(HaveLen(len(app.Stages)))
		for i := range app.Stages {
			Expect(roundTripped.Stages[i].Equal(app.Stages[i])).To(BeTrue())
		}
		Expect(roundTripped.Triggers).To(Equal(app.Triggers))
	})
})

var _ = Describe("Default", func() {
	It("builds a minimal application ready to render", func() {
		app := Default("acme", "widget")
		Expect(app.Org).To(Equal("acme"))
		Expect(app.App).To(Equal("widget"))
		_, ok := app.DefaultAccount()
		Expect(ok).To(BeTrue())
		Expect(app.Triggers).To(ConsistOf(domain.PrTrigger{Deploy: true}))

		out, err := Render(app)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).NotTo(BeEmpty())

		reparsed, err := Parse(out)
		Expect(err).NotTo(HaveOccurred())
		Expect(reparsed.Org).To(Equal("acme"))
	})
})
