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
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/smithy-go"

	"github.com/zprobst/cloud-conveyor/pkg/domain"
	"github.com/zprobst/cloud-conveyor/pkg/substrate"
)

// cloudformationClient is the subset of *cloudformation.Client this
// package calls.
type cloudformationClient interface {
	DescribeStacks(ctx context.Context, params *cloudformation.DescribeStacksInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error)
	CreateStack(ctx context.Context, params *cloudformation.CreateStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.CreateStackOutput, error)
	UpdateStack(ctx context.Context, params *cloudformation.UpdateStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.UpdateStackOutput, error)
	DeleteStack(ctx context.Context, params *cloudformation.DeleteStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DeleteStackOutput, error)
}

// Stack implements substrate.Deployer and substrate.Teardowner against
// CloudFormation: one stack per application stage, named
// "{org}-{app}-{stage}", built from the template this application's build
// publishes to its artifact location.
type Stack struct {
	config    func(ctx context.Context, region string) (cloudformationClient, error)
	resolver  Resolver
	artifacts *Artifacts
}

// NewStack returns a Stack that resolves each request's account and
// region through resolver, and locates each application's CloudFormation
// template through artifacts.
func NewStack(resolver Resolver, artifacts *Artifacts) *Stack {
	return newStack(resolver, artifacts, func(ctx context.Context, region string) (cloudformationClient, error) {
		cfg, err := LoadConfig(ctx, region)
		if err != nil {
			return nil, err
		}
		return cloudformation.NewFromConfig(cfg), nil
	})
}

func newStack(resolver Resolver, artifacts *Artifacts, config func(ctx context.Context, region string) (cloudformationClient, error)) *Stack {
	return &Stack{config: config, resolver: resolver, artifacts: artifacts}
}

func (s *Stack) clientFor(ctx context.Context, app substrate.AppRef, stage string) (cloudformationClient, error) {
	account, ok := s.resolver.Resolve(app, stage)
	if !ok {
		return nil, fmt.Errorf("no account configured for %s/%s stage %s", app.Org, app.App, stage)
	}
	region, err := accountRegion(account)
	if err != nil {
		return nil, err
	}
	return s.config(ctx, region)
}

// accountRegion picks the account's first configured region. An account
// may list more than one region it is allowed to deploy into, but a
// single deploy/teardown request targets exactly one stack in exactly
// one region; the first entry is that account's primary region by
// convention.
func accountRegion(account domain.Account) (string, error) {
	if len(account.Regions) == 0 {
		return "", fmt.Errorf("account %s has no configured regions", account.Name)
	}
	return account.Regions[0], nil
}

// StartDeployment implements substrate.Deployer. It describes the stack
// first and creates it if absent, or updates it otherwise; "no updates
// are to be performed" from UpdateStack is treated as a successful no-op
// rather than an error, since it only means the template and parameters
// didn't change.
func (s *Stack) StartDeployment(ctx context.Context, req substrate.DeployRequest) *substrate.Error {
	client, err := s.clientFor(ctx, req.App, req.Stage)
	if err != nil {
		return substrate.NewOtherError(err.Error(), nil)
	}
	name := stackName(req.App, req.Stage)
	templateURL := s.artifacts.TemplateURL(req.App, req.Sha)

	exists, descErr := stackExists(ctx, client, name)
	if descErr != nil {
		return substrate.NewOtherError(fmt.Sprintf("describing stack %s", name), descErr)
	}

	if !exists {
		_, err := client.CreateStack(ctx, &cloudformation.CreateStackInput{
			StackName:    aws.String(name),
			TemplateURL:  aws.String(templateURL),
			Capabilities: []types.Capability{types.CapabilityCapabilityNamedIam},
		})
		if err != nil {
			return substrate.NewOtherError(fmt.Sprintf("creating stack %s", name), err)
		}
		return nil
	}

	_, err = client.UpdateStack(ctx, &cloudformation.UpdateStackInput{
		StackName:    aws.String(name),
		TemplateURL:  aws.String(templateURL),
		Capabilities: []types.Capability{types.CapabilityCapabilityNamedIam},
	})
	if err != nil && !isNoUpdatesError(err) {
		return substrate.NewOtherError(fmt.Sprintf("updating stack %s", name), err)
	}
	return nil
}

// CheckDeployment implements substrate.Deployer.
func (s *Stack) CheckDeployment(ctx context.Context, req substrate.DeployRequest) (substrate.DeployStatus, *substrate.Error) {
	client, err := s.clientFor(ctx, req.App, req.Stage)
	if err != nil {
		return substrate.DeployStatus{}, substrate.NewOtherError(err.Error(), nil)
	}
	name := stackName(req.App, req.Stage)

	status, descErr := describeStackStatus(ctx, client, name)
	if descErr != nil {
		return substrate.DeployStatus{}, substrate.NewOtherError(fmt.Sprintf("describing stack %s", name), descErr)
	}

	switch {
	case strings.HasSuffix(string(status), "_COMPLETE") && !strings.Contains(string(status), "ROLLBACK") && !strings.Contains(string(status), "DELETE"):
		return substrate.DeployStatus{Outcome: substrate.DeployComplete}, nil
	case strings.Contains(string(status), "FAILED") || strings.Contains(string(status), "ROLLBACK"):
		return substrate.DeployStatus{Outcome: substrate.DeployFailed}, nil
	default:
		return substrate.DeployStatus{Outcome: substrate.DeployPending}, nil
	}
}

// StartTeardown implements substrate.Teardowner.
func (s *Stack) StartTeardown(ctx context.Context, req substrate.TeardownRequest) *substrate.Error {
	client, err := s.clientFor(ctx, req.App, req.Stage)
	if err != nil {
		return substrate.NewOtherError(err.Error(), nil)
	}
	name := stackName(req.App, req.Stage)
	if _, err := client.DeleteStack(ctx, &cloudformation.DeleteStackInput{StackName: aws.String(name)}); err != nil {
		return substrate.NewOtherError(fmt.Sprintf("deleting stack %s", name), err)
	}
	return nil
}

// CheckTeardown implements substrate.Teardowner. A stack that no longer
// describes at all is the success case: CloudFormation only keeps a
// DELETE_COMPLETE stack's description around briefly before it stops
// resolving entirely.
func (s *Stack) CheckTeardown(ctx context.Context, req substrate.TeardownRequest) (substrate.TeardownStatus, *substrate.Error) {
	client, err := s.clientFor(ctx, req.App, req.Stage)
	if err != nil {
		return substrate.TeardownStatus{}, substrate.NewOtherError(err.Error(), nil)
	}
	name := stackName(req.App, req.Stage)

	exists, descErr := stackExists(ctx, client, name)
	if descErr != nil {
		return substrate.TeardownStatus{}, substrate.NewOtherError(fmt.Sprintf("describing stack %s", name), descErr)
	}
	if !exists {
		return substrate.TeardownStatus{Outcome: substrate.TeardownComplete}, nil
	}

	status, descErr := describeStackStatus(ctx, client, name)
	if descErr != nil {
		return substrate.TeardownStatus{}, substrate.NewOtherError(fmt.Sprintf("describing stack %s", name), descErr)
	}
	if status == types.StackStatusDeleteComplete {
		return substrate.TeardownStatus{Outcome: substrate.TeardownComplete}, nil
	}
	if status == types.StackStatusDeleteFailed {
		return substrate.TeardownStatus{Outcome: substrate.TeardownFailed}, nil
	}
	return substrate.TeardownStatus{Outcome: substrate.TeardownPending}, nil
}

func describeStackStatus(ctx context.Context, client cloudformationClient, name string) (types.StackStatus, error) {
	out, err := client.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{StackName: aws.String(name)})
	if err != nil {
		if isStackNotFoundError(err) {
			return types.StackStatusDeleteComplete, nil
		}
		return "", err
	}
	if len(out.Stacks) == 0 {
		return types.StackStatusDeleteComplete, nil
	}
	return out.Stacks[0].StackStatus, nil
}

func stackExists(ctx context.Context, client cloudformationClient, name string) (bool, error) {
	_, err := client.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{StackName: aws.String(name)})
	if err == nil {
		return true, nil
	}
	if isStackNotFoundError(err) {
		return false, nil
	}
	return false, err
}

// isStackNotFoundError reports whether err is CloudFormation's way of
// saying a stack name doesn't exist: DescribeStacks has no dedicated
// modeled exception for this, it returns a generic validation error whose
// message names the stack.
func isStackNotFoundError(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return strings.Contains(apiErr.ErrorMessage(), "does not exist")
	}
	return strings.Contains(err.Error(), "does not exist")
}

// isNoUpdatesError reports whether err is UpdateStack's way of saying the
// template and parameters are unchanged, which this package treats as a
// successful no-op rather than a failure.
func isNoUpdatesError(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return strings.Contains(apiErr.ErrorMessage(), "No updates are to be performed")
	}
	return strings.Contains(err.Error(), "No updates are to be performed")
}

var (
	_ substrate.Deployer   = (*Stack)(nil)
	_ substrate.Teardowner = (*Stack)(nil)
)
