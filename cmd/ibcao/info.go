package main

import (
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"
)

func (c *config) newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print information about the grid",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := c.newDepthService()
			if err != nil {
				return err
			}
			defer service.Close()

			grid := service.Grid()
			rows, cols := grid.Shape()
			xMin, xMax := grid.XLim()
			yMin, yMax := grid.YLim()
			fmt.Fprintf(c.stdout, "title: %s\n", grid.Title())
			fmt.Fprintf(c.stdout, "version: %s\n", grid.Edition().Version)
			fmt.Fprintf(c.stdout, "shape: %dx%d\n", rows, cols)
			fmt.Fprintf(c.stdout, "resolution: %g\n", grid.Resolution())
			fmt.Fprintf(c.stdout, "x: %g %g\n", xMin, xMax)
			fmt.Fprintf(c.stdout, "y: %g %g\n", yMin, yMax)
			fmt.Fprintf(c.stdout, "projection: %s\n", service.Projection().Params().ProjString())
			metadata := grid.Metadata()
			for _, key := range slices.Sorted(maps.Keys(metadata.Strings)) {
				fmt.Fprintf(c.stdout, "%s: %s\n", key, metadata.Strings[key])
			}
			for _, key := range slices.Sorted(maps.Keys(metadata.Floats)) {
				fmt.Fprintf(c.stdout, "%s: %v\n", key, metadata.Floats[key])
			}
			for _, key := range slices.Sorted(maps.Keys(metadata.Ints)) {
				fmt.Fprintf(c.stdout, "%s: %v\n", key, metadata.Ints[key])
			}
			return nil
		},
	}
}
