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

// Package substrate defines the provider-agnostic contracts that external
// execution backends (a cloud provider, a CI service, a chat system) must
// satisfy to plug into Cloud Conveyor. The core never imports a concrete
// adapter; it only ever depends on the interfaces in this package.
package substrate

// ApprovalGroup is a sum type of ways to gather human approval for a stage
// deployment. The only variant today is Slack; the type is kept as an
// interface so additional backends (PagerDuty, email, a ticketing system)
// can be added without touching the trigger matcher or state machine.
type ApprovalGroup interface {
	// Kind returns a short stable discriminator, used when persisting an
	// approval group and in errors naming an unsupported variant.
	Kind() string
}

// SlackApprovalGroup asks a fixed list of Slack handles to approve or
// reject a deployment before it proceeds.
type SlackApprovalGroup struct {
	// People is the ordered list of Slack handles (e.g. "@zprobst") who
	// may approve or reject on behalf of this group.
	People []string
}

// Kind implements ApprovalGroup.
func (SlackApprovalGroup) Kind() string { return "slack" }
