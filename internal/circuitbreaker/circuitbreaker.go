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

// Package circuitbreaker wraps github.com/sony/gobreaker in a Manager
// that lends one breaker per named substrate family (builder, deployer,
// teardowner, approver, each shared by every pipeline) out of a single settings
// template, so the scheduler host doesn't hand-roll breaker lifecycle
// management for every substrate it talks to.
package circuitbreaker

import (
	"sync"

	"github.com/sony/gobreaker"
)

// Manager lends out a *gobreaker.CircuitBreaker per name, constructing
// it lazily from a shared Settings template the first time that name is
// requested.
type Manager struct {
	mu       sync.Mutex
	template gobreaker.Settings
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewManager returns a Manager that builds every named breaker from
// template, overriding only its Name field per breaker.
func NewManager(template gobreaker.Settings) *Manager {
	return &Manager{
		template: template,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

// For returns the named breaker, creating it from the settings template
// on first use.
func (m *Manager) For(name string) *gobreaker.CircuitBreaker {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cb, ok := m.breakers[name]; ok {
		return cb
	}
	settings := m.template
	settings.Name = name
	cb := gobreaker.NewCircuitBreaker(settings)
	m.breakers[name] = cb
	return cb
}

// Execute runs fn through the named breaker, short-circuiting with
// gobreaker.ErrOpenState if it is currently open.
func (m *Manager) Execute(name string, fn func() (interface{}, error)) (interface{}, error) {
	return m.For(name).Execute(fn)
}

// ExecuteErr is Execute for the common case of a substrate call that
// returns only an error, avoiding an interface{} wrapper at call sites.
func (m *Manager) ExecuteErr(name string, fn func() error) error {
	_, err := m.Execute(name, func() (interface{}, error) {
		return nil, fn()
	})
	return err
}

// State returns the named breaker's current state, creating it from the
// template if it does not exist yet.
func (m *Manager) State(name string) gobreaker.State {
	return m.For(name).State()
}
