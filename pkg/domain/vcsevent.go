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

// VcsEvent is the semantic event a webhook interpreter extracts from a
// raw provider payload. It is a closed sum type.
type VcsEvent interface {
	isVcsEvent()
}

// MergeEvent fires when FromBranch is merged into ToBranch at Sha.
type MergeEvent struct {
	ToBranch   string
	FromBranch string
	Sha        string
}

func (MergeEvent) isVcsEvent() {}

// TagPushEvent fires when a tag is pushed.
type TagPushEvent struct {
	Tag string
	Sha string
}

func (TagPushEvent) isVcsEvent() {}

// PullRequestCreateEvent fires when a pull request is opened or
// reopened.
type PullRequestCreateEvent struct {
	SourceBranch string
	PRNumber     int
	Sha          string
}

func (PullRequestCreateEvent) isVcsEvent() {}

// PullRequestUpdateEvent fires when new commits land on an already-open
// pull request.
type PullRequestUpdateEvent struct {
	SourceBranch string
	PRNumber     int
	Sha          string
}

func (PullRequestUpdateEvent) isVcsEvent() {}

// PullRequestCompleteEvent fires when a pull request is closed, whether
// merged or abandoned.
type PullRequestCompleteEvent struct {
	PRNumber int
	Merged   bool
}

func (PullRequestCompleteEvent) isVcsEvent() {}
