package main

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/twpayne/go-ibcao"
)

var errValidationFailed = errors.New("validation failed")

func (c *config) newValidateCmd() *cobra.Command {
	var order int
	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Check depths against known soundings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := c.newDepthService()
			if err != nil {
				return err
			}
			defer service.Close()

			soundings := slices.Concat(ibcao.KnownPositions, ibcao.GMTProfile)
			results, err := ibcao.Validate(cmd.Context(), service, order, soundings)
			if err != nil {
				return err
			}
			failures := 0
			for _, result := range results {
				status := "ok"
				if !result.OK() {
					status = "FAIL"
					failures++
				}
				name := result.Name
				if name == "" {
					name = fmt.Sprintf("%.6f,%.6f", result.Lon, result.Lat)
				}
				fmt.Fprintf(c.stdout, "%-4s %-24s expected=%.2f map=%.2f interp=%.2f\n",
					status, name, result.Depth, result.MapDepth, result.InterpDepth)
			}
			if failures > 0 {
				return fmt.Errorf("%w: %d of %d soundings", errValidationFailed, failures, len(results))
			}
			return nil
		},
	}
	validateCmd.Flags().IntVarP(&order, "order", "o", 3, "interpolation order for the map method")
	return validateCmd
}
