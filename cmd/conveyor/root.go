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

package main

import (
	"github.com/spf13/cobra"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

const defaultConfigPath = ".conveyor.yaml"

// newRootCmd builds the conveyor root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "conveyor",
		Short:   "Cloud Conveyor configuration tool",
		Version: version,
		Long: "conveyor checks and scaffolds the .conveyor.yaml file that " +
			"drives an application's Cloud Conveyor pipelines.",
	}

	cmd.AddCommand(newCheckCmd())
	cmd.AddCommand(newInitCmd())
	return cmd
}
