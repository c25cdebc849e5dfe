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

// Package webhook defines the generic contract a provider-specific
// interpreter (GitHub, GitLab, Bitbucket, ...) must satisfy to turn a
// raw inbound webhook request into the semantic version-control events
// the trigger matcher understands, plus the default orchestration that
// resolves each event's application.
package webhook

import "github.com/zprobst/cloud-conveyor/pkg/domain"

// Request is the opaque inbound webhook request: a byte body plus a
// string-to-string header map. Authentication (signature validation)
// is the interpreter's responsibility; the core never inspects the
// body or headers itself.
type Request struct {
	Body    []byte
	Headers map[string]string
}

// Interpreter is the generic provider contract. I is a provider-specific
// intermediate representation — e.g. a parsed GitHub event envelope —
// that need only be meaningful to this interpreter's own methods.
type Interpreter[I any] interface {
	// ParseToIntermediary parses req into zero or more intermediaries.
	// Parsing failures and authentication failures (signature mismatch)
	// both collapse to an empty slice rather than an error: a rejected
	// or malformed webhook simply contributes no events.
	ParseToIntermediary(req Request) []I

	// GetRepo returns the repository URL an intermediary concerns.
	GetRepo(i I) string

	// GetVcsEvent extracts the semantic event(s) an intermediary
	// represents. An intermediary may yield more than one event — a
	// merged pull request closing emits both a PullRequestComplete and
	// a Merge.
	GetVcsEvent(i I) []domain.VcsEvent
}

// Match pairs a resolved VcsEvent with the mutable application handle
// and repository URL it applies to, ready for the trigger matcher.
type Match struct {
	Event domain.VcsEvent
	App   *domain.Application
	Repo  string
}

// Handle runs the default orchestration described in spec §4.5: parse
// req into intermediaries, and for each one whose repository resolves
// to a known application, emit one Match per event it carries.
// Intermediaries whose repository is not configured are silently
// dropped — an unrecognized repo is not an error, just not ours.
func Handle[I any](interp Interpreter[I], req Request, apps domain.ApplicationStore) []Match {
	var matches []Match

	for _, intermediary := range interp.ParseToIntermediary(req) {
		repo := interp.GetRepo(intermediary)
		app, ok := apps.LoadMutable(repo)
		if !ok {
			continue
		}
		for _, event := range interp.GetVcsEvent(intermediary) {
			matches = append(matches, Match{Event: event, App: app, Repo: repo})
		}
	}

	return matches
}
