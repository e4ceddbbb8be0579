// Copyright 2025 The ProjectMap Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const defaultSeedFile = "cmd/testdata/seed.json"

func newSeedCmd() *cobra.Command {
	var file string

	c := &cobra.Command{
		Use:   "seed",
		Short: "Seeds the database with data from " + defaultSeedFile,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			projects, err := readProjects(file)
			if err != nil {
				return fmt.Errorf("failed to read seed data: %w", err)
			}

			repo, closeRepo, err := openRepository(cmd.Context(), cfg.Storage)
			if err != nil {
				return fmt.Errorf("opening store: %w", err)
			}
			defer closeRepo()

			n, err := restore(cmd, repo, projects)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Database seeded successfully with %d projects.\n", n)

			return nil
		},
	}

	c.Flags().StringVarP(&file, "file", "f", defaultSeedFile, "seed file")

	return c
}

func init() {
	rootCmd.AddCommand(newSeedCmd())
}
