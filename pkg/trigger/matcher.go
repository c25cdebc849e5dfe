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

// Package trigger folds an application's declared triggers against a
// single version-control event, producing the pipeline of actions (if
// any) the event should enqueue.
package trigger

import (
	"fmt"
	"regexp"

	"github.com/zprobst/cloud-conveyor/pkg/domain"
)

// Match folds app's triggers left-to-right against event, threading an
// accumulating pipeline. It returns nil if no trigger contributes any
// action. repo is the repository URL carried into every enqueued
// action. Matching mutates app in place when a trigger fabricates a PR
// stage — callers must serialize concurrent matches against the same
// application themselves (see domain.Application's mutability note).
func Match(event domain.VcsEvent, app *domain.Application, repo string) (*domain.Pipeline, error) {
	var pipeline *domain.Pipeline

	for _, t := range app.Triggers {
		var err error
		pipeline, err = applyTrigger(t, event, app, repo, pipeline)
		if err != nil {
			return nil, err
		}
	}

	return pipeline, nil
}

func applyTrigger(t domain.Trigger, event domain.VcsEvent, app *domain.Application, repo string, pipeline *domain.Pipeline) (*domain.Pipeline, error) {
	switch trig := t.(type) {
	case domain.PrTrigger:
		return applyPrTrigger(trig, event, app, repo, pipeline)
	case domain.MergeTrigger:
		return applyMergeTrigger(trig, event, app, repo, pipeline)
	case domain.TagTrigger:
		return applyTagTrigger(trig, event, app, repo, pipeline)
	default:
		return pipeline, nil
	}
}

func applyPrTrigger(trig domain.PrTrigger, event domain.VcsEvent, app *domain.Application, repo string, pipeline *domain.Pipeline) (*domain.Pipeline, error) {
	switch e := event.(type) {
	case domain.PullRequestCreateEvent:
		if !trig.Deploy {
			return buildOnly(pipeline, repo, e.Sha), nil
		}
		stage, err := domain.NewPRStage(app, e.PRNumber)
		if err != nil {
			return nil, fmt.Errorf("pr trigger with deploy=true: %w", err)
		}
		app.AddStage(stage)
		return buildAndDeploy(pipeline, app, repo, e.Sha, []domain.Stage{stage}), nil

	case domain.PullRequestUpdateEvent:
		stage, ok := app.FindPRStage(e.PRNumber)
		if !ok {
			return buildOnly(pipeline, repo, e.Sha), nil
		}
		return buildAndDeploy(pipeline, app, repo, e.Sha, []domain.Stage{stage}), nil

	case domain.PullRequestCompleteEvent:
		stage, ok := app.FindPRStage(e.PRNumber)
		if !ok {
			return pipeline, nil
		}
		pipeline = ensurePipeline(pipeline)
		pipeline.AddAction(domain.NewTeardownAction(app.Ref(), stage, repo))
		return pipeline, nil

	default:
		return pipeline, nil
	}
}

func applyMergeTrigger(trig domain.MergeTrigger, event domain.VcsEvent, app *domain.Application, repo string, pipeline *domain.Pipeline) (*domain.Pipeline, error) {
	e, ok := event.(domain.MergeEvent)
	if !ok {
		return pipeline, nil
	}

	toRe, err := regexp.Compile(trig.To)
	if err != nil {
		return nil, fmt.Errorf("merge trigger: compiling to-pattern %q: %w", trig.To, err)
	}
	if !toRe.MatchString(e.ToBranch) {
		return pipeline, nil
	}

	fromPattern := trig.From
	if fromPattern == "" {
		fromPattern = ".*"
	}
	fromRe, err := regexp.Compile(fromPattern)
	if err != nil {
		return nil, fmt.Errorf("merge trigger: compiling from-pattern %q: %w", fromPattern, err)
	}
	if !fromRe.MatchString(e.FromBranch) {
		return pipeline, nil
	}

	stages := app.ResolveStages(trig.Stages)
	return buildAndDeploy(pipeline, app, repo, e.Sha, stages), nil
}

func applyTagTrigger(trig domain.TagTrigger, event domain.VcsEvent, app *domain.Application, repo string, pipeline *domain.Pipeline) (*domain.Pipeline, error) {
	e, ok := event.(domain.TagPushEvent)
	if !ok {
		return pipeline, nil
	}

	pattern := trig.Pattern
	if pattern == "semver" {
		pattern = domain.SemverRegex
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("tag trigger: compiling pattern %q: %w", pattern, err)
	}
	if !re.MatchString(e.Tag) {
		return pipeline, nil
	}

	stages := app.ResolveStages(trig.Stages)
	return buildAndDeploy(pipeline, app, repo, e.Sha, stages), nil
}

// buildOnly enqueues a build with no accompanying deploy, for the
// Pr{deploy:false} and PR-update-with-no-fabricated-stage cases.
func buildOnly(pipeline *domain.Pipeline, repo, sha string) *domain.Pipeline {
	pipeline = ensurePipeline(pipeline)
	pipeline.AddAction(domain.NewBuildAction(repo, sha))
	return pipeline
}

// buildAndDeploy enqueues one deduped build followed by, for each stage
// in the caller-supplied order, an optional approval and then a deploy.
// This ordering is the enqueue contract's guarantee: build precedes all
// deploys, each stage's approval (if any) precedes its own deploy, and
// stages deploy in the order given.
func buildAndDeploy(pipeline *domain.Pipeline, app *domain.Application, repo, sha string, stages []domain.Stage) *domain.Pipeline {
	pipeline = ensurePipeline(pipeline)
	pipeline.AddAction(domain.NewBuildAction(repo, sha))

	ref := app.Ref()
	for _, stage := range stages {
		if stage.ApprovalGroup != nil {
			pipeline.AddAction(domain.NewApprovalAction(stage.ApprovalGroup, stage.Name, sha, app.FullName()))
		}
		pipeline.AddAction(domain.NewDeployAction(ref, stage, repo, sha))
	}

	return pipeline
}

func ensurePipeline(pipeline *domain.Pipeline) *domain.Pipeline {
	if pipeline == nil {
		return domain.NewPipeline()
	}
	return pipeline
}
