package ibcao

import "context"

// A Coord is an index into a raster.
type Coord struct {
	Row int
	Col int
}

// A Raster is a regular two dimensional array of samples.
type Raster interface {
	// Samples returns the samples at coords. Samples outside the raster are
	// NaN.
	Samples(ctx context.Context, coords []Coord) ([]float64, error)
	// Shape returns the number of rows and columns.
	Shape() (int, int)
}
