// Copyright 2025 The ProjectMap Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/jcodagnone/projectmap/geocoding"
	"github.com/spf13/cobra"
)

var geocodeCmd = &cobra.Command{
	Use:   "geocode <address>",
	Short: "Resolves an address into coordinates",
	Long: `
Sends the address to the Google Maps Geocoding API, exactly as a project
location would be, and prints the coordinates. Useful to check the API key.
`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		address := strings.Join(args, " ")

		pt, err := newGeocoder(cmd.Context(), cfg.Geocoding, nil).Resolve(cmd.Context(), address)
		if err != nil {
			if geocoding.IsResolutionError(err) {
				return fmt.Errorf("%q could not be resolved: %w", address, err)
			}

			return fmt.Errorf("talking to the provider: %w", err)
		}

		pt = pt.Rounded()
		fmt.Fprintf(cmd.OutOrStdout(), "%.6f\t%.6f\t%s\n", pt.Lat, pt.Lng, address)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(geocodeCmd)
}
