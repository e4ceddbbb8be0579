// Copyright 2025 The ProjectMap Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jcodagnone/projectmap/project"
	"github.com/jcodagnone/projectmap/spatial"
	"github.com/jcodagnone/projectmap/utils/textutils"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Manages the project catalog from the command line",
}

var listOptions struct {
	Status string
	Search string
	Near   string
	Ring   int
	Limit  int
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists projects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		f := project.ListFilter{
			Status: project.Status(listOptions.Status),
			Search: listOptions.Search,
			Ring:   listOptions.Ring,
			Limit:  listOptions.Limit,
		}

		if f.Status != "" && !f.Status.Valid() {
			return fmt.Errorf("unknown status %q", listOptions.Status)
		}

		if listOptions.Near != "" {
			pt, err := spatial.ParsePoint(listOptions.Near)
			if err != nil {
				return err
			}

			f.Near = &pt
		}

		repo, closeRepo, err := openRepository(cmd.Context(), cfg.Storage)
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		defer closeRepo()

		projects, err := repo.List(cmd.Context(), f)
		if err != nil {
			return fmt.Errorf("listing projects: %w", err)
		}

		total, err := repo.Count(cmd.Context())
		if err != nil {
			return fmt.Errorf("counting projects: %w", err)
		}

		printProjects(cmd.OutOrStdout(), projects, total)

		return nil
	},
}

// printProjects renders projects as a table, followed by how many of the
// total stored projects were shown.
func printProjects(w io.Writer, projects []*project.Project, total int) {
	const (
		nameWidth     = 30
		locationWidth = 40
	)

	row := func(uuid, name, status, location, coords string) {
		fmt.Fprintf(w, "│ %-36s │ %-*s │ %-11s │ %-*s │ %-22s │\n",
			uuid, nameWidth, name, status, locationWidth, location, coords)
	}
	line := func(left, mid, right string) {
		widths := []int{36, nameWidth, 11, locationWidth, 22}
		parts := make([]string, len(widths))

		for i, n := range widths {
			parts[i] = strings.Repeat("─", n+2)
		}

		fmt.Fprintln(w, left+strings.Join(parts, mid)+right)
	}

	line("┌", "┬", "┐")
	row("UUID", "Name", "Status", "Location", "Coordinates")
	line("├", "┼", "┤")

	for _, p := range projects {
		coords := "-"
		if pt, ok := p.Point(); ok {
			coords = fmt.Sprintf("%.6f,%.6f", pt.Lat, pt.Lng)
		}

		row(p.UUID.String(),
			textutils.Truncate(p.Name, nameWidth),
			string(p.Status),
			textutils.Truncate(p.Location, locationWidth),
			coords)
	}

	line("└", "┴", "┘")
	fmt.Fprintf(w, "%s of %s projects\n",
		textutils.FormatInt(int64(len(projects))), textutils.FormatInt(int64(total)))
}

var clustersOptions struct {
	Distance float64
}

var projectsClustersCmd = &cobra.Command{
	Use:   "clusters",
	Short: "Groups located projects that are close to each other",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		repo, closeRepo, err := openRepository(cmd.Context(), cfg.Storage)
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		defer closeRepo()

		projects, err := repo.List(cmd.Context(), project.ListFilter{})
		if err != nil {
			return fmt.Errorf("listing projects: %w", err)
		}

		for i, cluster := range project.Cluster(projects, clustersOptions.Distance) {
			fmt.Fprintf(cmd.OutOrStdout(), "cluster %d (%d projects)\n", i+1, len(cluster))

			for _, p := range cluster {
				pt, _ := p.Point()
				fmt.Fprintf(cmd.OutOrStdout(), "  %.6f,%.6f\t%s\n", pt.Lat, pt.Lng, p.Name)
			}
		}

		return nil
	},
}

var exportOptions struct {
	Output string
}

var projectsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Exports every project as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		repo, closeRepo, err := openRepository(cmd.Context(), cfg.Storage)
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		defer closeRepo()

		projects, err := repo.List(cmd.Context(), project.ListFilter{})
		if err != nil {
			return fmt.Errorf("listing projects: %w", err)
		}

		data, err := json.MarshalIndent(projects, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding projects: %w", err)
		}

		data = append(data, '\n')

		if exportOptions.Output == "" || exportOptions.Output == "-" {
			_, err = cmd.OutOrStdout().Write(data)

			return err
		}

		if err := os.WriteFile(exportOptions.Output, data, 0o600); err != nil {
			return fmt.Errorf("writing %s: %w", exportOptions.Output, err)
		}

		logger.Info("exported projects",
			zap.Int("count", len(projects)),
			zap.String("path", exportOptions.Output))

		return nil
	},
}

var projectsImportCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Imports projects previously exported",
	Long: `
Imports a JSON array produced by 'projects export'. Coordinates are taken from
the file; locations are not resolved again.
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		projects, err := readProjects(args[0])
		if err != nil {
			return err
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

		fmt.Fprintf(cmd.OutOrStdout(), "imported %s projects\n", textutils.FormatInt(int64(n)))

		return nil
	},
}

func readProjects(path string) ([]*project.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var projects []*project.Project
	if err := json.Unmarshal(data, &projects); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	return projects, nil
}

// restore inserts projects through a manager with no geocoder; nothing is
// resolved on this path.
func restore(cmd *cobra.Command, repo project.Repository, projects []*project.Project) (int, error) {
	var progress func()

	if isatty.IsTerminal(os.Stderr.Fd()) {
		bar := progressbar.NewOptions(len(projects),
			progressbar.OptionSetDescription("importing"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		defer bar.Finish()

		progress = func() { _ = bar.Add(1) }
	}

	manager := project.NewManager(repo, nil, logger.Named("projects"))

	n, err := manager.Restore(cmd.Context(), projects, progress)
	if err != nil {
		return n, fmt.Errorf("importing projects: %w", err)
	}

	return n, nil
}

func init() {
	projectsListCmd.Flags().StringVar(&listOptions.Status, "status", "", "only projects in this status")
	projectsListCmd.Flags().StringVarP(&listOptions.Search, "search", "s", "", "text to look for in name, location or status")
	projectsListCmd.Flags().StringVar(&listOptions.Near, "near", "", "only projects around lat,lng")
	projectsListCmd.Flags().IntVar(&listOptions.Ring, "ring", 1, "H3 rings around --near")
	projectsListCmd.Flags().IntVarP(&listOptions.Limit, "limit", "n", 0, "maximum number of projects (0 is no limit)")

	projectsClustersCmd.Flags().Float64VarP(&clustersOptions.Distance, "distance", "d", 1000, "maximum distance in meters between neighbours")

	projectsExportCmd.Flags().StringVarP(&exportOptions.Output, "output", "o", "", "output file (stdout by default)")

	projectsCmd.AddCommand(projectsListCmd, projectsClustersCmd, projectsExportCmd, projectsImportCmd)
	rootCmd.AddCommand(projectsCmd)
}
