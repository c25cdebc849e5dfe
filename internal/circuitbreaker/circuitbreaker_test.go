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

package circuitbreaker_test

import (
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sony/gobreaker"

	"github.com/zprobst/cloud-conveyor/internal/circuitbreaker"
)

var _ = Describe("Manager", func() {
	var (
		stateChanges []string
		manager      *circuitbreaker.Manager
	)

	BeforeEach(func() {
		stateChanges = nil
		manager = circuitbreaker.NewManager(gobreaker.Settings{
			MaxRequests: 1,
			Timeout:     20 * time.Millisecond,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 2
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				stateChanges = append(stateChanges, name+":"+to.String())
			},
		})
	})

	It("lends a distinct breaker per name from the shared template", func() {
		a := manager.For("aws-deploy")
		b := manager.For("slack-approval")
		Expect(a).NotTo(BeIdenticalTo(b))
		Expect(manager.For("aws-deploy")).To(BeIdenticalTo(a))
	})

	It("trips open after the configured consecutive-failure threshold", func() {
		boom := errors.New("substrate unavailable")
		failing := func() error { return boom }

		Expect(manager.ExecuteErr("aws-deploy", failing)).To(MatchError(boom))
		Expect(manager.ExecuteErr("aws-deploy", failing)).To(MatchError(boom))

		Expect(manager.State("aws-deploy")).To(Equal(gobreaker.StateOpen))
		Expect(manager.ExecuteErr("aws-deploy", failing)).To(MatchError(gobreaker.ErrOpenState))
		Expect(stateChanges).To(ContainElement("aws-deploy:open"))
	})

	It("recovers to closed once calls succeed again after the timeout", func() {
		boom := errors.New("substrate unavailable")
		failing := func() error { return boom }
		succeeding := func() error { return nil }

		manager.ExecuteErr("aws-deploy", failing)
		manager.ExecuteErr("aws-deploy", failing)
		Expect(manager.State("aws-deploy")).To(Equal(gobreaker.StateOpen))

		time.Sleep(25 * time.Millisecond)

		Expect(manager.ExecuteErr("aws-deploy", succeeding)).NotTo(HaveOccurred())
		Expect(manager.State("aws-deploy")).To(Equal(gobreaker.StateClosed))
	})

	It("propagates a successful result through Execute", func() {
		result, err := manager.Execute("aws-deploy", func() (interface{}, error) {
			return "stack-created", nil
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(result).To(Equal("stack-created"))
	})
})
