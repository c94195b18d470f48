package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/twpayne/go-ibcao"
)

// A config is the configuration shared by all commands.
type config struct {
	grid       string
	extent     float64
	resolution float64
	titleTag   string
	verbose    bool
	stdout     io.Writer
	stderr     io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	defaultGrid := os.Getenv("IBCAO_GRID")
	if defaultGrid == "" {
		defaultGrid = ibcao.IBCAOv3.Filename
	}

	c := &config{
		stdout: stdout,
		stderr: stderr,
	}
	rootCmd := &cobra.Command{
		Use:           "ibcao",
		Short:         "Query the International Bathymetric Chart of the Arctic Ocean",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	persistentFlags := rootCmd.PersistentFlags()
	persistentFlags.StringVarP(&c.grid, "grid", "g", defaultGrid, "path to grid (default $IBCAO_GRID)")
	persistentFlags.Float64Var(&c.extent, "extent", ibcao.IBCAOv3.Extent, "half-width of the grid in meters")
	persistentFlags.Float64Var(&c.resolution, "resolution", ibcao.IBCAOv3.Resolution, "grid resolution in meters")
	persistentFlags.StringVar(&c.titleTag, "title-tag", ibcao.IBCAOv3.TitleTag, "substring required in the grid title")
	persistentFlags.BoolVarP(&c.verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(
		c.newInfoCmd(),
		c.newDepthCmd(),
		c.newProfileCmd(),
		c.newCompareCmd(),
		c.newValidateCmd(),
		c.newResampleCmd(),
		c.newServeCmd(),
	)
	return rootCmd
}

// logger returns the logger.
func (c *config) logger() *slog.Logger {
	level := slog.LevelInfo
	if c.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(c.stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// edition returns the edition described by the flags.
func (c *config) edition() ibcao.Edition {
	edition := ibcao.IBCAOv3
	edition.Extent = c.extent
	edition.Resolution = c.resolution
	edition.TitleTag = c.titleTag
	return edition
}

// newDepthService opens the grid.
func (c *config) newDepthService(options ...ibcao.DepthServiceOption) (*ibcao.DepthService, error) {
	return ibcao.NewDepthService(
		os.DirFS(filepath.Dir(c.grid)),
		filepath.Base(c.grid),
		append([]ibcao.DepthServiceOption{
			ibcao.WithGridOptions(
				ibcao.WithEdition(c.edition()),
				ibcao.WithLogger(c.logger()),
			),
		}, options...)...,
	)
}

func parseFloats(args []string) ([]float64, error) {
	values := make([]float64, len(args))
	for i, arg := range args {
		value, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return nil, err
		}
		values[i] = value
	}
	return values, nil
}

func run() error {
	return newRootCmd(os.Stdout, os.Stderr).Execute()
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
