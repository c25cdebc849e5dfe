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

package awsstack

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/codebuild"
	"github.com/aws/aws-sdk-go-v2/service/codebuild/types"

	"github.com/zprobst/cloud-conveyor/pkg/substrate"
)

// codebuildClient is the subset of *codebuild.Client this package calls.
type codebuildClient interface {
	StartBuild(ctx context.Context, params *codebuild.StartBuildInput, optFns ...func(*codebuild.Options)) (*codebuild.StartBuildOutput, error)
	BatchGetBuilds(ctx context.Context, params *codebuild.BatchGetBuildsInput, optFns ...func(*codebuild.Options)) (*codebuild.BatchGetBuildsOutput, error)
	ListBuildsForProject(ctx context.Context, params *codebuild.ListBuildsForProjectInput, optFns ...func(*codebuild.Options)) (*codebuild.ListBuildsForProjectOutput, error)
}

// maxLookbackBuilds bounds how many of a project's most recent builds
// findExisting inspects when looking for one already in flight for a
// repo/sha. CodeBuild has no query-by-source-version API, so this is a
// deliberately small, recent window rather than a full project history
// scan.
const maxLookbackBuilds = 20

// Builder implements substrate.Builder against a single shared CodeBuild
// project. substrate.BuildRequest carries no application identity at all
// (only a repo and a sha), which implies every application shares one
// project and is distinguished at build time purely by source location
// and version override — exactly what StartBuild's
// SourceLocationOverride/SourceVersion parameters are for.
type Builder struct {
	client      codebuildClient
	projectName string

	mu       sync.Mutex
	buildIDs map[string]string
}

// NewBuilder returns a Builder that starts every build in projectName,
// the CodeBuild project configured once for the whole deployment.
func NewBuilder(client *codebuild.Client, projectName string) *Builder {
	return newBuilder(client, projectName)
}

func newBuilder(client codebuildClient, projectName string) *Builder {
	return &Builder{client: client, projectName: projectName, buildIDs: make(map[string]string)}
}

func buildKey(req substrate.BuildRequest) string {
	return req.Repo + "@" + req.Sha
}

// StartBuild implements substrate.Builder. It is safe to call repeatedly
// for the same request, including across a process restart: the
// in-memory buildIDs map only dedupes within the current process, so
// before launching a new build it also asks CodeBuild itself (via
// findExisting) whether a build for this repo/sha already exists, in any
// status, and adopts that build instead of starting a duplicate.
func (b *Builder) StartBuild(ctx context.Context, req substrate.BuildRequest) *substrate.Error {
	key := buildKey(req)

	b.mu.Lock()
	_, already := b.buildIDs[key]
	b.mu.Unlock()
	if already {
		return nil
	}

	id, found, serr := b.findExisting(ctx, req)
	if serr != nil {
		return serr
	}
	if found {
		b.mu.Lock()
		b.buildIDs[key] = id
		b.mu.Unlock()
		return nil
	}

	out, err := b.client.StartBuild(ctx, &codebuild.StartBuildInput{
		ProjectName:            aws.String(b.projectName),
		SourceLocationOverride: aws.String(req.Repo),
		SourceVersion:          aws.String(req.Sha),
	})
	if err != nil {
		return substrate.NewOtherError(fmt.Sprintf("starting build for %s@%s", req.Repo, req.Sha), err)
	}

	b.mu.Lock()
	b.buildIDs[key] = aws.ToString(out.Build.Id)
	b.mu.Unlock()
	return nil
}

// findExisting looks for one of the project's recent builds against
// req's repo and sha, whatever its status, so a rehydrated BuildAction on a
// freshly restarted process rediscovers a build it already launched rather than
// launching a second one. CodeBuild's only way to find a build is by ID,
// so this lists the project's most recent build IDs, newest first, and
// inspects up to maxLookbackBuilds of them.
func (b *Builder) findExisting(ctx context.Context, req substrate.BuildRequest) (string, bool, *substrate.Error) {
	list, err := b.client.ListBuildsForProject(ctx, &codebuild.ListBuildsForProjectInput{
		ProjectName: aws.String(b.projectName),
		SortOrder:   types.SortOrderTypeDescending,
	})
	if err != nil {
		return "", false, substrate.NewOtherError(fmt.Sprintf("listing builds for %s", b.projectName), err)
	}
	if len(list.Ids) == 0 {
		return "", false, nil
	}

	ids := list.Ids
	if len(ids) > maxLookbackBuilds {
		ids = ids[:maxLookbackBuilds]
	}

	out, err := b.client.BatchGetBuilds(ctx, &codebuild.BatchGetBuildsInput{Ids: ids})
	if err != nil {
		return "", false, substrate.NewOtherError(fmt.Sprintf("looking up recent builds for %s", b.projectName), err)
	}

	for _, build := range out.Builds {
		if aws.ToString(build.SourceVersion) != req.Sha {
			continue
		}
		if build.Source == nil || aws.ToString(build.Source.Location) != req.Repo {
			continue
		}
		return aws.ToString(build.Id), true, nil
	}
	return "", false, nil
}

// CheckBuild implements substrate.Builder.
func (b *Builder) CheckBuild(ctx context.Context, req substrate.BuildRequest) (substrate.BuildStatus, *substrate.Error) {
	key := buildKey(req)
	b.mu.Lock()
	id, ok := b.buildIDs[key]
	b.mu.Unlock()
	if !ok {
		return substrate.BuildStatus{}, substrate.NewOtherError(fmt.Sprintf("no build tracked for %s@%s", req.Repo, req.Sha), nil)
	}

	out, err := b.client.BatchGetBuilds(ctx, &codebuild.BatchGetBuildsInput{Ids: []string{id}})
	if err != nil {
		return substrate.BuildStatus{}, substrate.NewOtherError(fmt.Sprintf("checking build %s", id), err)
	}
	if len(out.Builds) == 0 {
		return substrate.BuildStatus{}, substrate.NewOtherError(fmt.Sprintf("build %s disappeared from CodeBuild", id), nil)
	}

	build := out.Builds[0]
	logs := ""
	if build.Logs != nil {
		logs = aws.ToString(build.Logs.DeepLink)
	}

	switch build.BuildStatus {
	case types.StatusTypeSucceeded:
		return substrate.BuildStatus{Outcome: substrate.BuildSucceeded, Logs: logs}, nil
	case types.StatusTypeFailed, types.StatusTypeFault, types.StatusTypeStopped, types.StatusTypeTimedOut:
		return substrate.BuildStatus{Outcome: substrate.BuildFailed, Logs: logs, Error: string(build.BuildStatus)}, nil
	default:
		return substrate.BuildStatus{Outcome: substrate.BuildPending, Logs: logs}, nil
	}
}

var _ substrate.Builder = (*Builder)(nil)
