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

// Pipeline is an ordered queue of pending actions plus an append-only
// history of completed actions and their results. Actions are dispatched
// from the front of Pending; AddAction appends to the back (deduped
// against Pending only), AddImmediateAction prepends.
type Pipeline struct {
	Pending   []Action
	Completed []Action
	Results   []ActionResult
}

// NewPipeline returns an empty pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{}
}

// AddAction appends action to the back of Pending, unless an
// action comparing Equal to it is already pending. Completed entries are
// not consulted: re-adding an action that already ran is allowed.
func (p *Pipeline) AddAction(action Action) {
	for _, existing := range p.Pending {
		if existing.Equal(action) {
			return
		}
	}
	p.Pending = append(p.Pending, action)
}

// AddImmediateAction prepends action to the front of Pending, so it is
// the very next action PopNextAction returns.
func (p *Pipeline) AddImmediateAction(action Action) {
	p.Pending = append([]Action{action}, p.Pending...)
}

// PopNextAction removes and returns the action at the front of Pending,
// or (nil, false) if Pending is empty.
func (p *Pipeline) PopNextAction() (Action, bool) {
	if len(p.Pending) == 0 {
		return nil, false
	}
	action := p.Pending[0]
	p.Pending = p.Pending[1:]
	return action, true
}

// CompleteAction appends action to Completed with the given result. It
// is the caller's (the state machine's) responsibility to have already
// popped action off Pending, or for it never to have been enqueued (the
// currently-executing action, for instance).
func (p *Pipeline) CompleteAction(action Action, result ActionResult) {
	p.Completed = append(p.Completed, action)
	p.Results = append(p.Results, result)
}

// Cancel drains every action remaining in Pending into Completed with
// result Canceled, in order. It does not touch any action currently
// executing outside the pipeline (the state machine's Current field) —
// cancellation targets pending work only.
func (p *Pipeline) Cancel() {
	for {
		action, ok := p.PopNextAction()
		if !ok {
			return
		}
		p.CompleteAction(action, ActionCanceled)
	}
}

// IsDrained reports whether there is no pending work left to dispatch.
func (p *Pipeline) IsDrained() bool {
	return len(p.Pending) == 0
}
