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

// Package awsstack implements the core's build, deploy, teardown, and
// artifact-location substrate contracts against a single AWS account: one
// shared CodeBuild project for builds, CloudFormation for deploy and
// teardown of the per-stage stack, and S3 for artifact storage.
//
// None of the substrate request types the core hands these adapters
// (substrate.BuildRequest, substrate.DeployRequest,
// substrate.TeardownRequest) carry an AWS account ID or region — they
// only carry application and stage identity. Resolver bridges that gap by
// looking the account up from the application configuration the core
// already maintains, so every adapter here takes one as a constructor
// argument rather than trying to derive region/account from the request.
package awsstack

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"

	"github.com/zprobst/cloud-conveyor/pkg/substrate"
)

// stackName implements the naming invariant every Deployer/Teardowner
// request must honor: a deploy targets exactly one stack, named
// "{org}-{app}-{stage}".
func stackName(app substrate.AppRef, stage string) string {
	return fmt.Sprintf("%s-%s-%s", app.Org, app.App, stage)
}

// LoadConfig loads the default AWS SDK configuration for region,
// resolving credentials the way every other AWS SDK v2 consumer does
// (environment, shared config file, container/instance role, in that
// order). Region is overridden per call by the resolved account's region,
// since a single process may deploy applications that live in different
// accounts and regions.
func LoadConfig(ctx context.Context, region string) (aws.Config, error) {
	return config.LoadDefaultConfig(ctx, config.WithRegion(region))
}
