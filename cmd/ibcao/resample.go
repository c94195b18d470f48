package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/twpayne/go-ibcao"
)

func (c *config) newResampleCmd() *cobra.Command {
	var (
		div   int
		order int
	)
	resampleCmd := &cobra.Command{
		Use:   "resample OUTPUT",
		Short: "Write a coarser copy of the grid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			service, err := c.newDepthService()
			if err != nil {
				return err
			}
			defer service.Close()

			grid := service.Grid()
			x, y, z, err := grid.Resample(cmd.Context(), div, order)
			if err != nil {
				return err
			}

			file, err := os.Create(args[0])
			if err != nil {
				return err
			}
			defer func() {
				err = errors.Join(err, file.Close())
			}()
			title := fmt.Sprintf("%s (resampled every %d samples)", grid.Title(), div)
			if err := ibcao.WriteGrid(file, title, x, y, z); err != nil {
				return err
			}

			edition := grid.Edition().ResampledEdition(div)
			c.logger().Info("resample",
				"output", args[0],
				"samples", len(x),
				"resolution", edition.Resolution,
			)
			return nil
		},
	}
	flags := resampleCmd.Flags()
	flags.IntVarP(&div, "div", "d", 10, "divisor")
	flags.IntVarP(&order, "order", "o", 3, "interpolation order")
	return resampleCmd
}
