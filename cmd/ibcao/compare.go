package main

import (
	"fmt"
	"math/rand/v2"

	"github.com/spf13/cobra"

	"github.com/twpayne/go-ibcao"
)

func (c *config) newCompareCmd() *cobra.Command {
	var (
		n         int
		order     int
		seed      uint64
		tolerance float64
	)
	compareCmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare the map and interp methods at random points",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := c.newDepthService()
			if err != nil {
				return err
			}
			defer service.Close()

			grid := service.Grid()
			xMin, xMax := grid.XLim()
			yMin, yMax := grid.YLim()
			r := rand.New(rand.NewPCG(seed, seed))
			xys := make([][]float64, n)
			for i := range xys {
				xys[i] = []float64{
					xMin + (xMax-xMin)*r.Float64(),
					yMin + (yMax-yMin)*r.Float64(),
				}
			}

			mapDepths, err := grid.MapDepth(cmd.Context(), xys, order)
			if err != nil {
				return err
			}
			interpDepths, err := grid.Interpolate(cmd.Context(), xys)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.stdout, ibcao.Compare(mapDepths, interpDepths, tolerance))
			return nil
		},
	}
	flags := compareCmd.Flags()
	flags.IntVarP(&n, "n", "n", 10000, "number of points")
	flags.IntVarP(&order, "order", "o", 3, "interpolation order for the map method")
	flags.Uint64Var(&seed, "seed", 1, "random seed")
	flags.Float64Var(&tolerance, "tolerance", 1, "tolerance in meters")
	return compareCmd
}
