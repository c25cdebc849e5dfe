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

package store_test

import (
	"context"
	"time"

	"github.com/alicebob/miniredis/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"

	"github.com/zprobst/cloud-conveyor/internal/store"
	"github.com/zprobst/cloud-conveyor/pkg/domain"
	"github.com/zprobst/cloud-conveyor/pkg/statemachine"
)

func samplePipeline() *domain.Pipeline {
	p := domain.NewPipeline()
	p.AddAction(domain.NewBuildAction("repo-a", "sha1"))
	p.CompleteAction(domain.NewBuildAction("repo-a", "sha0"), domain.ActionSuccess)
	return p
}

var _ = Describe("SnapshotOf and Restore", func() {
	It("round-trips a state machine's pending, current and completed work", func() {
		pipeline := samplePipeline()
		current, _ := pipeline.PopNextAction()
		pipeline.AddAction(domain.NewBuildAction("repo-a", "sha2"))
		sm := &statemachine.StateMachine{Pipeline: pipeline, Current: current, RecommendedWait: 20 * time.Second}

		nextTick := time.Now().Add(sm.RecommendedWait)
		snap, err := store.SnapshotOf("pipeline-1", sm, nextTick)
		Expect(err).NotTo(HaveOccurred())
		Expect(snap.ID).To(Equal("pipeline-1"))
		Expect(snap.RecommendedWait).To(Equal(20 * time.Second))
		Expect(snap.NextTickAt).To(Equal(nextTick))
		Expect(snap.Pending).To(HaveLen(1))
		Expect(snap.Completed).To(HaveLen(1))
		Expect(snap.Results).To(Equal([]string{"success"}))

		restored, err := store.Restore(snap)
		Expect(err).NotTo(HaveOccurred())
		Expect(restored.RecommendedWait).To(Equal(20 * time.Second))
		Expect(restored.Current.Equal(current)).To(BeTrue())
		Expect(restored.Pipeline.Pending).To(HaveLen(1))
		Expect(restored.Pipeline.Pending[0].Equal(domain.NewBuildAction("repo-a", "sha2"))).To(BeTrue())
		Expect(restored.Pipeline.Completed).To(HaveLen(1))
		Expect(restored.Pipeline.Results).To(Equal([]domain.ActionResult{domain.ActionSuccess}))
	})

	It("restores a pipeline with no current action as terminal-ready", func() {
		pipeline := domain.NewPipeline()
		sm := &statemachine.StateMachine{Pipeline: pipeline}
		snap, err := store.SnapshotOf("pipeline-empty", sm, time.Time{})
		Expect(err).NotTo(HaveOccurred())
		Expect(snap.Current).To(BeNil())

		restored, err := store.Restore(snap)
		Expect(err).NotTo(HaveOccurred())
		Expect(restored.Current).To(BeNil())
		Expect(restored.IsTerminal()).To(BeTrue())
	})
})

var _ = Describe("MemoryStore", func() {
	It("saves, loads, lists and deletes snapshots", func() {
		ctx := context.Background()
		s := store.NewMemoryStore()

		_, ok, err := s.Load(ctx, "missing")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())

		snap := store.PipelineSnapshot{ID: "pipeline-1", RecommendedWait: 10 * time.Second}
		Expect(s.Save(ctx, snap)).To(Succeed())

		loaded, ok, err := s.Load(ctx, "pipeline-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(loaded).To(Equal(snap))

		ids, err := s.ListIDs(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(ids).To(ConsistOf("pipeline-1"))

		Expect(s.Delete(ctx, "pipeline-1")).To(Succeed())
		_, ok, err = s.Load(ctx, "pipeline-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("RedisStore", func() {
	var (
		mr     *miniredis.Miniredis
		client *redis.Client
		s      *store.RedisStore
		ctx    context.Context
	)

	BeforeEach(func() {
		var err error
		mr, err = miniredis.Run()
		Expect(err).NotTo(HaveOccurred())
		client = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		s = store.NewRedisStore(client)
		ctx = context.Background()
	})

	AfterEach(func() {
		Expect(client.Close()).To(Succeed())
		mr.Close()
	})

	It("saves and loads a snapshot by pipeline id", func() {
		snap := store.PipelineSnapshot{ID: "pipeline-2", RecommendedWait: 30 * time.Second}
		Expect(s.Save(ctx, snap)).To(Succeed())

		loaded, ok, err := s.Load(ctx, "pipeline-2")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(loaded.RecommendedWait).To(Equal(30 * time.Second))
	})

	It("reports a missing id as not-found rather than an error", func() {
		_, ok, err := s.Load(ctx, "never-saved")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})

	It("lists only ids under this store's keyspace", func() {
		Expect(s.Save(ctx, store.PipelineSnapshot{ID: "pipeline-a"})).To(Succeed())
		Expect(s.Save(ctx, store.PipelineSnapshot{ID: "pipeline-b"})).To(Succeed())
		Expect(client.Set(ctx, "unrelated:key", "value", 0).Err()).NotTo(HaveOccurred())

		ids, err := s.ListIDs(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(ids).To(ConsistOf("pipeline-a", "pipeline-b"))
	})

	It("deletes a snapshot", func() {
		Expect(s.Save(ctx, store.PipelineSnapshot{ID: "pipeline-3"})).To(Succeed())
		Expect(s.Delete(ctx, "pipeline-3")).To(Succeed())

		_, ok, err := s.Load(ctx, "pipeline-3")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})
})
