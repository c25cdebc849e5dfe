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

package substrate

// BuildStatus reports the current state of a build substrate's work. It
// reflects the state of the underlying job, not the success of the API
// call used to check it — a failed API call is reported as an *Error*,
// never as BuildFailed.
type BuildStatus struct {
	Outcome BuildOutcome
	// Logs is a URL or reference to the build's output, present for both
	// Succeeded and Failed outcomes.
	Logs string
	// Error carries additional detail when Outcome is BuildFailed.
	Error string
}

// BuildOutcome enumerates the terminal/non-terminal states of a build.
type BuildOutcome int

const (
	// BuildPending indicates the build has not reached a terminal state;
	// the caller should poll again later.
	BuildPending BuildOutcome = iota
	// BuildSucceeded indicates the build completed successfully.
	BuildSucceeded
	// BuildFailed indicates the build completed with a failure.
	BuildFailed
)

// DeployOutcome enumerates the terminal/non-terminal states of a deploy.
type DeployOutcome int

const (
	// DeployPending indicates the deployment has not reached a terminal
	// state yet.
	DeployPending DeployOutcome = iota
	// DeployComplete indicates the stack was created or updated
	// successfully.
	DeployComplete
	// DeployFailed indicates the deployment failed in a way that should
	// cancel the rest of the pipeline.
	DeployFailed
)

// TeardownOutcome enumerates the terminal/non-terminal states of a
// teardown.
type TeardownOutcome int

const (
	// TeardownPending indicates the teardown has not reached a terminal
	// state yet.
	TeardownPending TeardownOutcome = iota
	// TeardownComplete indicates the stack was removed successfully.
	TeardownComplete
	// TeardownFailed indicates the teardown failed.
	TeardownFailed
)

// ApprovalOutcome enumerates the terminal/non-terminal states of an
// approval request.
type ApprovalOutcome int

const (
	// ApprovalPending indicates nobody has responded yet.
	ApprovalPending ApprovalOutcome = iota
	// ApprovalApproved indicates the deployment was approved.
	ApprovalApproved
	// ApprovalRejected indicates the deployment was explicitly rejected.
	ApprovalRejected
)
