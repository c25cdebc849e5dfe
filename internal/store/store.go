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

// Package store persists pipeline snapshots for the scheduler host
// (pkg/scheduler), so that state machines can be rebuilt after a
// process restart. The core itself is deliberately silent on storage —
// spec.md §5 calls it "an out-of-scope store" — this package is where
// that gap gets a concrete, swappable implementation.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/zprobst/cloud-conveyor/pkg/domain"
	"github.com/zprobst/cloud-conveyor/pkg/statemachine"
)

// Store persists and retrieves PipelineSnapshots keyed by pipeline ID.
type Store interface {
	// Save writes snap, overwriting any prior snapshot for the same ID.
	Save(ctx context.Context, snap PipelineSnapshot) error
	// Load returns the snapshot for id, or (zero, false, nil) if none
	// exists.
	Load(ctx context.Context, id string) (PipelineSnapshot, bool, error)
	// Delete removes id's snapshot. Called once a pipeline reaches a
	// terminal state and the scheduler host stops tracking it.
	Delete(ctx context.Context, id string) error
	// ListIDs returns every pipeline ID currently persisted, used by
	// the scheduler host to resume tracked pipelines on startup.
	ListIDs(ctx context.Context) ([]string, error)
}

// SnapshotOf builds a PipelineSnapshot from a live state machine. It
// returns an error only if the machine's current action or a pending
// one is of a type this package does not know how to encode, which
// would indicate a new domain.Action variant added without a matching
// ActionSnapshot case.
func SnapshotOf(id string, sm *statemachine.StateMachine, nextTickAt time.Time) (PipelineSnapshot, error) {
	snap := PipelineSnapshot{
		ID:              id,
		RecommendedWait: sm.RecommendedWait,
		NextTickAt:      nextTickAt,
	}

	if sm.Current != nil {
		current, err := EncodeAction(sm.Current)
		if err != nil {
			return PipelineSnapshot{}, err
		}
		snap.Current = &current
	}

	for _, action := range sm.Pipeline.Pending {
		encoded, err := EncodeAction(action)
		if err != nil {
			return PipelineSnapshot{}, err
		}
		snap.Pending = append(snap.Pending, encoded)
	}

	for _, action := range sm.Pipeline.Completed {
		encoded, err := EncodeAction(action)
		if err != nil {
			return PipelineSnapshot{}, err
		}
		snap.Completed = append(snap.Completed, encoded)
	}

	for _, result := range sm.Pipeline.Results {
		snap.Results = append(snap.Results, result.String())
	}

	return snap, nil
}

// Restore rebuilds a state machine from a snapshot. The rebuilt current
// and pending actions are fresh, not-yet-started instances (see
// ActionSnapshot's doc comment); completed history and results are
// carried over verbatim for reporting.
func Restore(snap PipelineSnapshot) (*statemachine.StateMachine, error) {
	pipeline := domain.NewPipeline()

	for _, encoded := range snap.Pending {
		action, err := DecodeAction(encoded)
		if err != nil {
			return nil, err
		}
		pipeline.AddAction(action)
	}

	for i, encoded := range snap.Completed {
		action, err := DecodeAction(encoded)
		if err != nil {
			return nil, err
		}
		result := resultFromString(snap.Results[i])
		pipeline.Completed = append(pipeline.Completed, action)
		pipeline.Results = append(pipeline.Results, result)
	}

	sm := &statemachine.StateMachine{Pipeline: pipeline, RecommendedWait: snap.RecommendedWait}
	if snap.Current != nil {
		current, err := DecodeAction(*snap.Current)
		if err != nil {
			return nil, err
		}
		sm.Current = current
	}
	return sm, nil
}

func resultFromString(s string) domain.ActionResult {
	switch s {
	case "success":
		return domain.ActionSuccess
	case "failed":
		return domain.ActionFailed
	case "failed_allow":
		return domain.ActionFailedAllow
	case "canceled":
		return domain.ActionCanceled
	default:
		return domain.ActionFailed
	}
}

// MemoryStore is an in-process Store backed by a map, guarded by a
// mutex. Useful for tests and for single-process deployments that don't
// need to survive a restart.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]PipelineSnapshot
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snapshots: make(map[string]PipelineSnapshot)}
}

// Save implements Store.
func (m *MemoryStore) Save(ctx context.Context, snap PipelineSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[snap.ID] = snap
	return nil
}

// Load implements Store.
func (m *MemoryStore) Load(ctx context.Context, id string) (PipelineSnapshot, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.snapshots[id]
	return snap, ok, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snapshots, id)
	return nil
}

// ListIDs implements Store.
func (m *MemoryStore) ListIDs(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.snapshots))
	for id := range m.snapshots {
		ids = append(ids, id)
	}
	return ids, nil
}
