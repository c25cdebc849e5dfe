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

// Package slackapproval implements substrate.Approver against Slack:
// every person in a SlackApprovalGroup gets a direct message asking them
// to react with a thumbs-up or thumbs-down, and CheckApproval polls
// those reactions until either someone rejects or everyone has approved.
package slackapproval

import (
	"context"
	"fmt"
	"sync"

	"github.com/slack-go/slack"

	"github.com/zprobst/cloud-conveyor/pkg/substrate"
)

const (
	approveReaction = "thumbsup"
	rejectReaction  = "thumbsdown"
)

// client is the subset of *slack.Client this package calls, so tests can
// substitute a fake without talking to the real Slack API.
type client interface {
	OpenConversationContext(ctx context.Context, params *slack.OpenConversationParameters) (*slack.Channel, bool, bool, error)
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
	GetReactionsContext(ctx context.Context, item slack.ItemRef, params slack.GetReactionsParameters) ([]slack.ItemReaction, error)
}

// sentMessage records where one approver's request was posted, so
// CheckApproval knows which conversation and timestamp to poll.
type sentMessage struct {
	handle    string
	channelID string
	timestamp string
}

// Approver implements substrate.Approver against a real Slack workspace.
// It keeps an in-memory index from approval request to the messages it
// sent for that request; a process restart loses this index, in which
// case RequestApproval simply re-sends the prompts (idempotent from the
// approvers' point of view — a duplicate reminder, not a duplicate
// decision) and CheckApproval starts polling from the freshly sent
// messages.
type Approver struct {
	client client

	mu       sync.Mutex
	messages map[string][]sentMessage
}

// New returns an Approver that posts through a real Slack client
// constructed from token (a bot token with chat:write, im:write, and
// reactions:read scopes).
func New(token string) *Approver {
	return newWithClient(slack.New(token))
}

func newWithClient(c client) *Approver {
	return &Approver{
		client:   c,
		messages: make(map[string][]sentMessage),
	}
}

func requestKey(req substrate.ApprovalRequest) string {
	return fmt.Sprintf("%s/%s@%s", req.AppName, req.StageName, req.Sha)
}

// RequestApproval implements substrate.Approver.
func (a *Approver) RequestApproval(ctx context.Context, req substrate.ApprovalRequest) *substrate.Error {
	group, ok := req.Group.(substrate.SlackApprovalGroup)
	if !ok {
		return substrate.NewOtherError(fmt.Sprintf("slackapproval: unsupported approval group kind %q", req.Group.Kind()), nil)
	}

	text := fmt.Sprintf(
		"Deployment of `%s` to stage `%s` (sha `%s`) is waiting on your approval. React with :%s: to approve or :%s: to reject.",
		req.AppName, req.StageName, req.Sha, approveReaction, rejectReaction,
	)

	var sent []sentMessage
	for _, handle := range group.People {
		channel, _, _, err := a.client.OpenConversationContext(ctx, &slack.OpenConversationParameters{Users: []string{handle}})
		if err != nil {
			return substrate.NewOtherError(fmt.Sprintf("slackapproval: opening conversation with %s", handle), err)
		}
		_, timestamp, err := a.client.PostMessageContext(ctx, channel.ID, slack.MsgOptionText(text, false))
		if err != nil {
			return substrate.NewOtherError(fmt.Sprintf("slackapproval: posting approval request to %s", handle), err)
		}
		sent = append(sent, sentMessage{handle: handle, channelID: channel.ID, timestamp: timestamp})
	}

	a.mu.Lock()
	a.messages[requestKey(req)] = sent
	a.mu.Unlock()
	return nil
}

// CheckApproval implements substrate.Approver. A single rejection from
// any approver rejects the whole request; it is approved only once
// every approver has reacted with approveReaction.
func (a *Approver) CheckApproval(ctx context.Context, req substrate.ApprovalRequest) (substrate.ApprovalOutcome, *substrate.Error) {
	a.mu.Lock()
	sent, ok := a.messages[requestKey(req)]
	a.mu.Unlock()
	if !ok {
		return substrate.ApprovalPending, substrate.NewOtherError("slackapproval: check called before request was sent for this key", nil)
	}

	approved := 0
	for _, msg := range sent {
		reactions, err := a.client.GetReactionsContext(ctx, slack.ItemRef{Channel: msg.channelID, Timestamp: msg.timestamp}, slack.GetReactionsParameters{})
		if err != nil {
			return substrate.ApprovalPending, substrate.NewOtherError(fmt.Sprintf("slackapproval: fetching reactions for %s", msg.handle), err)
		}
		for _, reaction := range reactions {
			switch reaction.Name {
			case rejectReaction:
				return substrate.ApprovalRejected, nil
			case approveReaction:
				approved++
			}
		}
	}

	if approved >= len(sent) {
		return substrate.ApprovalApproved, nil
	}
	return substrate.ApprovalPending, nil
}

var _ substrate.Approver = (*Approver)(nil)
