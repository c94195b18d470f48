package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/twpayne/go-ibcao"
)

type sampleFlags struct {
	method string
	order  int
}

func (f *sampleFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.method, "method", "m", string(ibcao.MethodMap), "sampling method (map or interp)")
	flags.IntVarP(&f.order, "order", "o", 3, "interpolation order for the map method")
}

func (f *sampleFlags) options() ([]ibcao.DepthServiceOption, error) {
	method, err := ibcao.ParseMethod(f.method)
	if err != nil {
		return nil, err
	}
	return []ibcao.DepthServiceOption{
		ibcao.WithMethod(method),
		ibcao.WithOrder(f.order),
	}, nil
}

func (c *config) newDepthCmd() *cobra.Command {
	var (
		sampleFlags sampleFlags
		planar      bool
	)
	depthCmd := &cobra.Command{
		Use:   "depth LON LAT",
		Short: "Print the depth at a point",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			coords, err := parseFloats(args)
			if err != nil {
				return err
			}
			options, err := sampleFlags.options()
			if err != nil {
				return err
			}
			service, err := c.newDepthService(options...)
			if err != nil {
				return err
			}
			defer service.Close()

			var depths []float64
			if planar {
				depths, err = service.Depth(cmd.Context(), [][]float64{coords})
			} else {
				depths, err = service.Depth4326(cmd.Context(), [][]float64{coords})
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(c.stdout, "%g\n", depths[0])
			return nil
		},
	}
	sampleFlags.register(depthCmd)
	depthCmd.Flags().BoolVar(&planar, "planar", false, "coordinates are x and y in meters")
	return depthCmd
}

func (c *config) newProfileCmd() *cobra.Command {
	var (
		sampleFlags sampleFlags
		n           int
	)
	profileCmd := &cobra.Command{
		Use:   "profile LON1 LAT1 LON2 LAT2",
		Short: "Print the depths along a geodesic as JSON",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			coords, err := parseFloats(args)
			if err != nil {
				return err
			}
			options, err := sampleFlags.options()
			if err != nil {
				return err
			}
			service, err := c.newDepthService(options...)
			if err != nil {
				return err
			}
			defer service.Close()

			profile, err := service.Profile(cmd.Context(), coords[0:2], coords[2:4], n)
			if err != nil {
				return err
			}
			encoder := json.NewEncoder(c.stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(newProfileResponse(profile))
		},
	}
	sampleFlags.register(profileCmd)
	profileCmd.Flags().IntVarP(&n, "n", "n", 100, "number of points")
	return profileCmd
}
