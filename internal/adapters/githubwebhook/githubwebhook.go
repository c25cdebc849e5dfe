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

// Package githubwebhook implements webhook.Interpreter for GitHub's
// webhook payloads: signature validation, event parsing, and the
// translation from GitHub's event vocabulary to the core's VcsEvent sum
// type. All error cases — bad signature, unparseable body, an event
// type the core has no use for — collapse to zero events rather than
// an error, matching the Interpreter contract.
package githubwebhook

import (
	"strings"

	"github.com/google/go-github/v57/github"
	"github.com/sirupsen/logrus"

	"github.com/zprobst/cloud-conveyor/pkg/domain"
	"github.com/zprobst/cloud-conveyor/pkg/webhook"
)

// Envelope is the intermediate representation this interpreter hands
// back to webhook.Handle: the repository the event concerns, plus the
// already-typed go-github event payload.
type Envelope struct {
	repo  string
	event any
}

// Interpreter validates and parses GitHub webhook deliveries using the
// repository's configured secret.
type Interpreter struct {
	secret []byte
}

// New returns an Interpreter that validates deliveries against secret,
// the value configured in the GitHub repository's webhook settings.
func New(secret []byte) *Interpreter {
	return &Interpreter{secret: secret}
}

var _ webhook.Interpreter[Envelope] = (*Interpreter)(nil)

// ParseToIntermediary implements webhook.Interpreter.
func (i *Interpreter) ParseToIntermediary(req webhook.Request) []Envelope {
	signature := req.Headers["X-Hub-Signature-256"]
	if signature == "" {
		signature = req.Headers["x-hub-signature-256"]
	}
	if err := github.ValidateSignature(signature, req.Body, i.secret); err != nil {
		logrus.WithError(err).Debug("github webhook: signature validation failed")
		return nil
	}

	eventType := req.Headers["X-GitHub-Event"]
	if eventType == "" {
		eventType = req.Headers["x-github-event"]
	}
	event, err := github.ParseWebHook(eventType, req.Body)
	if err != nil {
		logrus.WithError(err).WithField("event_type", eventType).Debug("github webhook: unparseable payload")
		return nil
	}

	repo := repoURL(event)
	if repo == "" {
		return nil
	}
	return []Envelope{{repo: repo, event: event}}
}

// GetRepo implements webhook.Interpreter.
func (i *Interpreter) GetRepo(e Envelope) string { return e.repo }

// GetVcsEvent implements webhook.Interpreter.
func (i *Interpreter) GetVcsEvent(e Envelope) []domain.VcsEvent {
	switch payload := e.event.(type) {
	case *github.PullRequestEvent:
		return pullRequestEvents(payload)
	case *github.PushEvent:
		return pushEvents(payload)
	default:
		return nil
	}
}

func repoURL(event any) string {
	switch payload := event.(type) {
	case *github.PullRequestEvent:
		return payload.GetRepo().GetHTMLURL()
	case *github.PushEvent:
		return payload.GetRepo().GetHTMLURL()
	default:
		return ""
	}
}

// pullRequestEvents maps a pull_request delivery onto zero, one, or two
// VcsEvents: opened/reopened become PullRequestCreateEvent, new commits
// on an already-open PR become PullRequestUpdateEvent, and a close
// always yields PullRequestCompleteEvent, plus a MergeEvent alongside it
// when the PR was actually merged rather than abandoned.
func pullRequestEvents(e *github.PullRequestEvent) []domain.VcsEvent {
	pr := e.GetPullRequest()
	switch e.GetAction() {
	case "opened", "reopened":
		return []domain.VcsEvent{domain.PullRequestCreateEvent{
			SourceBranch: pr.GetHead().GetRef(),
			PRNumber:     pr.GetNumber(),
			Sha:          pr.GetHead().GetSHA(),
		}}
	case "synchronize":
		return []domain.VcsEvent{domain.PullRequestUpdateEvent{
			SourceBranch: pr.GetHead().GetRef(),
			PRNumber:     pr.GetNumber(),
			Sha:          pr.GetHead().GetSHA(),
		}}
	case "closed":
		events := []domain.VcsEvent{domain.PullRequestCompleteEvent{
			PRNumber: pr.GetNumber(),
			Merged:   pr.GetMerged(),
		}}
		if pr.GetMerged() {
			events = append(events, domain.MergeEvent{
				ToBranch:   pr.GetBase().GetRef(),
				FromBranch: pr.GetHead().GetRef(),
				Sha:        pr.GetMergeCommitSHA(),
			})
		}
		return events
	default:
		return nil
	}
}

// pushEvents maps a push delivery onto a TagPushEvent when the ref is a
// tag. Pushes to a branch outside of a pull request merge carry no
// meaningful "from" branch and are not translated to a MergeEvent; a
// Merge is only ever derived from a pull request's own closed-and-merged
// delivery (see pullRequestEvents).
func pushEvents(e *github.PushEvent) []domain.VcsEvent {
	const tagPrefix = "refs/tags/"
	ref := e.GetRef()
	if !strings.HasPrefix(ref, tagPrefix) {
		return nil
	}
	return []domain.VcsEvent{domain.TagPushEvent{
		Tag: strings.TrimPrefix(ref, tagPrefix),
		Sha: e.GetAfter(),
	}}
}
