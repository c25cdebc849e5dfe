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

package scheduler_test

import (
	"context"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zprobst/cloud-conveyor/internal/metrics"
	"github.com/zprobst/cloud-conveyor/internal/store"
	"github.com/zprobst/cloud-conveyor/pkg/domain"
	"github.com/zprobst/cloud-conveyor/pkg/scheduler"
	"github.com/zprobst/cloud-conveyor/pkg/statemachine"
	"github.com/zprobst/cloud-conveyor/pkg/substrate"
)

// fakeBuilder reports BuildPending until a configured number of checks
// have been made, then reports a fixed outcome.
type fakeBuilder struct {
	mu          sync.Mutex
	pendingFor  int
	checks      int
	startCalls  int
	outcome     substrate.BuildOutcome
}

func (b *fakeBuilder) StartBuild(ctx context.Context, req substrate.BuildRequest) *substrate.Error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.startCalls++
	return nil
}

func (b *fakeBuilder) CheckBuild(ctx context.Context, req substrate.BuildRequest) (substrate.BuildStatus, *substrate.Error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.checks++
	if b.checks <= b.pendingFor {
		return substrate.BuildStatus{Outcome: substrate.BuildPending}, nil
	}
	return substrate.BuildStatus{Outcome: b.outcome}, nil
}

// recordingRecorder captures every call a Host made against it.
type recordingRecorder struct {
	mu        sync.Mutex
	started   int
	completed []string
}

func (r *recordingRecorder) PipelineStarted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started++
}

func (r *recordingRecorder) PipelineCompleted(outcome string, duration time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = append(r.completed, outcome)
}

func (r *recordingRecorder) ActionDuration(actionKind string, duration time.Duration) {}

func (r *recordingRecorder) UpdateCircuitBreakerState(name, state string) {}

func (r *recordingRecorder) snapshot() (int, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started, append([]string(nil), r.completed...)
}

var _ metrics.Recorder = (*recordingRecorder)(nil)

var _ = Describe("Host", func() {
	var (
		builder   *fakeBuilder
		recorder  *recordingRecorder
		snapshots store.Store
		rc        *domain.Context
		host      *scheduler.Host
	)

	BeforeEach(func() {
		builder = &fakeBuilder{outcome: substrate.BuildSucceeded}
		recorder = &recordingRecorder{}
		snapshots = store.NewMemoryStore()
		rc = &domain.Context{Builder: builder}
		host = scheduler.New(rc, snapshots, recorder)
	})

	It("starts the pipeline's first action and snapshots it on Enqueue", func() {
		pipeline := domain.NewPipeline()
		pipeline.AddAction(domain.NewBuildAction("acme/widget", "deadbeef"))

		Expect(host.Enqueue(context.Background(), "p1", pipeline)).To(Succeed())
		Expect(builder.startCalls).To(Equal(1))

		snap, ok, err := snapshots.Load(context.Background(), "p1")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(snap.Current).NotTo(BeNil())

		started, _ := recorder.snapshot()
		Expect(started).To(Equal(1))
	})

	It("ticks a single-action pipeline through to completion and deletes its snapshot", func() {
		pipeline := domain.NewPipeline()
		pipeline.AddAction(domain.NewBuildAction("acme/widget", "deadbeef"))
		Expect(host.Enqueue(context.Background(), "p1", pipeline)).To(Succeed())

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		runErr := make(chan error, 1)
		go func() { runErr <- host.Run(ctx) }()

		Eventually(func() bool {
			_, ok, _ := snapshots.Load(context.Background(), "p1")
			return ok
		}, time.Second, 10*time.Millisecond).Should(BeFalse())

		cancel()
		Expect(<-runErr).To(Succeed())

		_, completed := recorder.snapshot()
		Expect(completed).To(Equal([]string{"succeeded"}))
	})

	It("stops managing a pipeline once Cancel drains its pending work", func() {
		pipeline := domain.NewPipeline()
		pipeline.AddAction(domain.NewBuildAction("acme/widget", "deadbeef"))
		pipeline.AddAction(domain.NewBuildAction("acme/widget", "feedface"))
		Expect(host.Enqueue(context.Background(), "p1", pipeline)).To(Succeed())

		Expect(host.Cancel(context.Background(), "p1")).To(Succeed())

		snap, ok, err := snapshots.Load(context.Background(), "p1")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(snap.Pending).To(BeEmpty())
	})

	It("restores every non-terminal pipeline the store knows about", func() {
		pipeline := domain.NewPipeline()
		pipeline.AddAction(domain.NewBuildAction("acme/widget", "deadbeef"))
		sm := statemachine.New(pipeline)
		Expect(sm.Start(context.Background(), rc)).To(Succeed())
		snap, err := store.SnapshotOf("resumed", sm, time.Now())
		Expect(err).NotTo(HaveOccurred())
		Expect(snapshots.Save(context.Background(), snap)).To(Succeed())

		fresh := scheduler.New(rc, snapshots, recorder)
		Expect(fresh.Resume(context.Background())).To(Succeed())

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		go func() { _ = fresh.Run(ctx) }()

		Eventually(func() bool {
			_, ok, _ := snapshots.Load(context.Background(), "resumed")
			return ok
		}, time.Second, 10*time.Millisecond).Should(BeFalse())
	})
})
