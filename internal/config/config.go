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

// Package config loads and validates ".conveyor.yaml" into a
// domain.Application, and renders a default one back out for
// "conveyor init".
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zprobst/cloud-conveyor/internal/apperrors"
	"github.com/zprobst/cloud-conveyor/pkg/domain"
	"github.com/zprobst/cloud-conveyor/pkg/substrate"
)

const defaultAccountName = "default"

// fileAccount is the on-disk shape of an account entry.
type fileAccount struct {
	Name    string   `yaml:"name"`
	ID      int      `yaml:"id"`
	Regions []string `yaml:"regions"`
}

// fileStage is the on-disk shape of a stage entry. Approvers names a key
// into the top-level approvals map; Account defaults to "default".
type fileStage struct {
	Name      string `yaml:"name"`
	Approvers string `yaml:"approvers,omitempty"`
	Account   string `yaml:"account,omitempty"`
}

// filePrTrigger, fileMergeTrigger and fileTagTrigger are the three
// trigger shapes, each nested under its own key in fileTriggerEntry so
// that a list of triggers round-trips as a list of single-key maps, the
// way spec.md §6 lays it out.
type filePrTrigger struct {
	Deploy bool `yaml:"deploy"`
}

type fileMergeTrigger struct {
	To     string   `yaml:"to"`
	From   string   `yaml:"from,omitempty"`
	Deploy []string `yaml:"deploy"`
}

type fileTagTrigger struct {
	Pattern string   `yaml:"pattern"`
	Deploy  []string `yaml:"deploy"`
}

type fileTriggerEntry struct {
	Pr    *filePrTrigger    `yaml:"pr,omitempty"`
	Merge *fileMergeTrigger `yaml:"merge,omitempty"`
	Tag   *fileTagTrigger   `yaml:"tag,omitempty"`
}

// fileApprovalGroup is the on-disk shape of one entry in the top-level
// approvals map. Type is presently always "slack"; the field exists so
// additional approval back-ends can be added without a format break.
type fileApprovalGroup struct {
	Type   string   `yaml:"type"`
	People []string `yaml:"people"`
}

// File is the on-disk shape of .conveyor.yaml, deserialized as a flat
// tree before being resolved into a domain.Application.
type File struct {
	Org       string                       `yaml:"org"`
	App       string                       `yaml:"app"`
	Accounts  []fileAccount                `yaml:"accounts"`
	Stages    []fileStage                  `yaml:"stages"`
	Triggers  []fileTriggerEntry           `yaml:"triggers"`
	Approvals map[string]fileApprovalGroup `yaml:"approvals,omitempty"`
}

// Load reads path, parses it as YAML, and resolves it into a
// domain.Application, returning an *apperrors.AppError of type
// ErrorTypeConfig on any failure. Per spec.md §7, config errors are only
// ever surfaced here, at load time.
func Load(path string) (*domain.Application, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrorTypeConfig, "failed to read config file %s", path)
	}
	return Parse(raw)
}

// Parse parses raw YAML bytes into a domain.Application, validating the
// invariants from spec.md §3: the default account index is derived from
// the account named "default", when present; a stage's named account must exist.
// Triggers referencing an unknown stage are not rejected here — per
// spec.md §4.6 that is a silently-dropped runtime behavior of the
// trigger matcher, not a load-time error.
func Parse(raw []byte) (*domain.Application, error) {
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorTypeConfig, "failed to parse config file")
	}

	if errs := validate(&f); errs != nil {
		return nil, apperrors.Wrap(errs, apperrors.ErrorTypeConfig, "invalid configuration").
			WithDetails(errs.Error())
	}

	return resolve(&f), nil
}

// validate checks the structural invariants that must hold before
// resolve can safely build a domain.Application, chaining every failure
// found into one error via apperrors.Chain rather than stopping at the
// first.
func validate(f *File) error {
	var errs []error

	if f.Org == "" {
		errs = append(errs, fmt.Errorf("org is required"))
	}
	if f.App == "" {
		errs = append(errs, fmt.Errorf("app is required"))
	}

	accountNames := make(map[string]bool, len(f.Accounts))
	for _, a := range f.Accounts {
		if a.Name == "" {
			errs = append(errs, fmt.Errorf("account with id %d has no name", a.ID))
			continue
		}
		accountNames[a.Name] = true
	}

	for _, s := range f.Stages {
		if s.Name == "" {
			errs = append(errs, fmt.Errorf("a stage is missing a name"))
			continue
		}
		account := s.Account
		if account == "" {
			account = defaultAccountName
		}
		if !accountNames[account] {
			errs = append(errs, fmt.Errorf("stage %q references unknown account %q", s.Name, account))
		}
		if s.Approvers != "" {
			if _, ok := f.Approvals[s.Approvers]; !ok {
				errs = append(errs, fmt.Errorf("stage %q references unknown approval group %q", s.Name, s.Approvers))
			}
		}
	}

	for key, group := range f.Approvals {
		if group.Type != "slack" {
			errs = append(errs, fmt.Errorf("approval group %q has unsupported type %q", key, group.Type))
		}
	}

	return apperrors.Chain(errs...)
}

// resolve builds a domain.Application from a validated File. Called only
// after validate has reported no errors, so account/approval-group
// lookups here are assumed to succeed.
func resolve(f *File) *domain.Application {
	app := &domain.Application{
		Org: f.Org,
		App: f.App,
	}

	for _, a := range f.Accounts {
		app.Accounts = append(app.Accounts, domain.Account{Name: a.Name, ID: a.ID, Regions: a.Regions})
		if a.Name == defaultAccountName {
			idx := len(app.Accounts) - 1
			app.DefaultAccountIndex = &idx
		}
	}

	approvalGroups := make(map[string]substrate.ApprovalGroup, len(f.Approvals))
	for key, g := range f.Approvals {
		approvalGroups[key] = substrate.SlackApprovalGroup{People: g.People}
	}

	accountByName := make(map[string]domain.Account, len(app.Accounts))
	for _, a := range app.Accounts {
		accountByName[a.Name] = a
	}

	for _, s := range f.Stages {
		accountName := s.Account
		if accountName == "" {
			accountName = defaultAccountName
		}
		stage := domain.Stage{
			Name:    s.Name,
			Account: accountByName[accountName],
		}
		if s.Approvers != "" {
			stage.ApprovalGroup = approvalGroups[s.Approvers]
		}
		app.Stages = append(app.Stages, stage)
	}

	for _, t := range f.Triggers {
		switch {
		case t.Pr != nil:
			app.Triggers = append(app.Triggers, domain.PrTrigger{Deploy: t.Pr.Deploy})
		case t.Merge != nil:
			app.Triggers = append(app.Triggers, domain.MergeTrigger{
				To:     t.Merge.To,
				From:   t.Merge.From,
				Stages: t.Merge.Deploy,
			})
		case t.Tag != nil:
			app.Triggers = append(app.Triggers, domain.TagTrigger{
				Pattern: t.Tag.Pattern,
				Stages:  t.Tag.Deploy,
			})
		}
	}

	return app
}

// Render serializes an Application back into .conveyor.yaml bytes. It is
// the inverse of Parse, used by spec.md §8's round-trip testable
// property and by "conveyor init" to write out a freshly built default.
func Render(app *domain.Application) ([]byte, error) {
	f := File{Org: app.Org, App: app.App}

	for _, a := range app.Accounts {
		f.Accounts = append(f.Accounts, fileAccount{Name: a.Name, ID: a.ID, Regions: a.Regions})
	}

	approverKeys := make(map[string]string)
	for _, s := range app.Stages {
		if s.ApprovalGroup == nil {
			continue
		}
		if _, seen := approverKeys[s.Name]; seen {
			continue
		}
		key := s.Name + "-approvers"
		approverKeys[s.Name] = key
		if slack, ok := s.ApprovalGroup.(substrate.SlackApprovalGroup); ok {
			if f.Approvals == nil {
				f.Approvals = make(map[string]fileApprovalGroup)
			}
			f.Approvals[key] = fileApprovalGroup{Type: "slack", People: slack.People}
		}
	}

	for _, s := range app.Stages {
		fs := fileStage{Name: s.Name}
		if !s.Account.IsNamed(defaultAccountName) {
			fs.Account = s.Account.Name
		}
		if key, ok := approverKeys[s.Name]; ok {
			fs.Approvers = key
		}
		f.Stages = append(f.Stages, fs)
	}

	for _, t := range app.Triggers {
		switch trig := t.(type) {
		case domain.PrTrigger:
			f.Triggers = append(f.Triggers, fileTriggerEntry{Pr: &filePrTrigger{Deploy: trig.Deploy}})
		case domain.MergeTrigger:
			f.Triggers = append(f.Triggers, fileTriggerEntry{Merge: &fileMergeTrigger{
				To:     trig.To,
				From:   trig.From,
				Deploy: trig.Stages,
			}})
		case domain.TagTrigger:
			f.Triggers = append(f.Triggers, fileTriggerEntry{Tag: &fileTagTrigger{
				Pattern: trig.Pattern,
				Deploy:  trig.Stages,
			}})
		}
	}

	out, err := yaml.Marshal(&f)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorTypeInternal, "failed to render configuration")
	}
	return out, nil
}

// Default builds the starter Application that "conveyor init <org>
// <app>" writes out: one default account, a dev stage with no approval
// gate, and a PR trigger that builds and deploys to a fabricated pr-N stage.
func Default(org, app string) *domain.Application {
	defaultIdx := 0
	return &domain.Application{
		Org: org,
		App: app,
		Accounts: []domain.Account{
			{Name: defaultAccountName, ID: 0, Regions: []string{"us-east-1"}},
		},
		DefaultAccountIndex: &defaultIdx,
		Stages: []domain.Stage{
			{Name: "dev", Account: domain.Account{Name: defaultAccountName, ID: 0, Regions: []string{"us-east-1"}}},
		},
		Triggers: []domain.Trigger{
			domain.PrTrigger{Deploy: true},
		},
	}
}
