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

import "context"

// AppRef is the minimal, provider-agnostic handle to an application that
// substrate implementations need: enough to name buckets, stacks, and
// folders without depending on the full application configuration model.
type AppRef struct {
	Org string
	App string
}

// ArtifactProvider locates where build artifacts for an application live.
type ArtifactProvider interface {
	// GetBucket returns the name of the bucket (or equivalent storage
	// root) that holds artifacts for app.
	GetBucket(app AppRef) string
	// GetFolder returns the path inside the bucket that holds the
	// artifacts for a particular git ref. The default convention,
	// followed by implementations that have no stronger opinion, is
	// "{org}/{app}/{git_ref}".
	GetFolder(app AppRef, gitRef string) string
}

// BuildRequest carries everything a build substrate needs to start or
// check a build.
type BuildRequest struct {
	Sha  string
	Repo string
}

// Builder commands and observes an external build substrate (a CI
// service). Every method may suspend; implementations must be safe to
// call repeatedly with the same request (start is expected to be
// idempotent, typically via the substrate's own naming convention).
type Builder interface {
	StartBuild(ctx context.Context, req BuildRequest) *Error
	CheckBuild(ctx context.Context, req BuildRequest) (BuildStatus, *Error)
}

// DeployRequest carries everything a deploy substrate needs to start or
// check a deployment of one stage.
type DeployRequest struct {
	App   AppRef
	Stage string
	Repo  string
	Sha   string
}

// Deployer commands and observes an external infrastructure substrate (a
// cloud provider). A single deploy request targets one named stack:
// "{org}-{app}-{stage}" (the stack naming invariant). Deployer does not
// decide whether to create or update — that is the implementation's
// responsibility, derived from whatever the substrate reports about the
// stack's current existence.
type Deployer interface {
	StartDeployment(ctx context.Context, req DeployRequest) *Error
	CheckDeployment(ctx context.Context, req DeployRequest) (DeployStatus, *Error)
}

// TeardownRequest carries everything a teardown substrate needs to start
// or check removal of a stage's infrastructure.
type TeardownRequest struct {
	App   AppRef
	Stage string
}

// Teardowner commands and observes removal of a stage's infrastructure.
type Teardowner interface {
	StartTeardown(ctx context.Context, req TeardownRequest) *Error
	CheckTeardown(ctx context.Context, req TeardownRequest) (TeardownStatus, *Error)
}

// ApprovalRequest carries everything an approval substrate needs to ask
// for, and later check, human sign-off on a deployment.
type ApprovalRequest struct {
	Group     ApprovalGroup
	StageName string
	Sha       string
	AppName   string
}

// Approver asks humans (via whatever chat/ticketing backend it wraps) for
// permission to proceed with a deployment, and reports their answer.
type Approver interface {
	RequestApproval(ctx context.Context, req ApprovalRequest) *Error
	CheckApproval(ctx context.Context, req ApprovalRequest) (ApprovalOutcome, *Error)
}

// DeployStatus and TeardownStatus are plain outcome wrappers; they carry
// no extra detail today but are structs (not bare enums) so a substrate
// can attach diagnostic fields later without breaking the interface.
type DeployStatus struct {
	Outcome DeployOutcome
}

// TeardownStatus wraps a TeardownOutcome.
type TeardownStatus struct {
	Outcome TeardownOutcome
}
