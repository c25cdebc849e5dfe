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
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zprobst/cloud-conveyor/internal/config"
)

// newInitCmd builds "conveyor init <org> <app>", which writes a starter
// .conveyor.yaml for the current directory.
func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "init <org> <app>",
		Aliases: []string{"i"},
		Short:   "Creates a new .conveyor.yaml file for the current directory",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			org, app := args[0], args[1]

			out, err := config.Render(config.Default(org, app))
			if err != nil {
				return fmt.Errorf("rendering default configuration: %w", err)
			}
			if err := os.WriteFile(defaultConfigPath, out, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", defaultConfigPath, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s for %s/%s\n", defaultConfigPath, org, app)
			return nil
		},
	}
	return cmd
}
