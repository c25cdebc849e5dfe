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

// Package domain holds the data model and state machinery that is driven
// by, but independent of, any particular version-control or substrate
// provider: accounts, stages, triggers, applications, actions, pipelines
// and the runtime context bundle injected into every action.
package domain

// Account is a cloud account an application can deploy into. It is a
// value object: immutable once the application that owns it has loaded.
type Account struct {
	Name    string
	ID      int
	Regions []string
}

// IsCandidateForDefault reports whether this account is named "default",
// the one name the trigger matcher treats as the implicit account for
// fabricated PR stages.
func (a Account) IsCandidateForDefault() bool {
	return a.IsNamed("default")
}

// IsNamed reports whether the account has the given name.
func (a Account) IsNamed(name string) bool {
	return a.Name == name
}
