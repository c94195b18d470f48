package ibcao

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/interp"
)

// splineWindow is the number of samples along each axis used by order 3
// interpolation.
const splineWindow = 12

// MapCoordinates interpolates raster at coords. Each coord is a fractional
// index {col, row}. order selects the interpolation: 0 is nearest neighbor,
// 1 is bilinear, 2 is biquadratic, and 3 is bicubic spline. Coordinates
// outside the raster return NaN. Stencils that extend past the edge of the
// raster are clamped to it.
func MapCoordinates(ctx context.Context, raster Raster, coords [][]float64, order int) ([]float64, error) {
	if order < 0 || 3 < order {
		return nil, fmt.Errorf("%w: %d", ErrInvalidOrder, order)
	}
	rows, cols := raster.Shape()

	// Collect the stencil of every coordinate.
	stencils := make([]stencil, len(coords))
	var rasterCoords []Coord
	for i, coord := range coords {
		col, row := coord[0], coord[1]
		if !(0 <= col && col <= float64(cols-1) && 0 <= row && row <= float64(rows-1)) {
			continue
		}
		s := newStencil(order, col, cols, row, rows)
		s.offset = len(rasterCoords)
		for _, r := range s.rows {
			for _, c := range s.cols {
				rasterCoords = append(rasterCoords, Coord{Row: r, Col: c})
			}
		}
		stencils[i] = s
	}

	samples, err := raster.Samples(ctx, rasterCoords)
	if err != nil {
		return nil, err
	}

	result := make([]float64, len(coords))
	for i, s := range stencils {
		if s.rows == nil {
			result[i] = math.NaN()
			continue
		}
		result[i] = s.evaluate(samples[s.offset : s.offset+len(s.rows)*len(s.cols)])
	}
	return result, nil
}

// A stencil is the set of samples used to interpolate a single coordinate.
type stencil struct {
	order  int
	col    float64
	row    float64
	cols   []int
	rows   []int
	offset int
}

func newStencil(order int, col float64, cols int, row float64, rows int) stencil {
	return stencil{
		order: order,
		col:   col,
		row:   row,
		cols:  stencilIndexes(order, col, cols),
		rows:  stencilIndexes(order, row, rows),
	}
}

// stencilIndexes returns the indexes along an axis of length n used to
// interpolate at x.
func stencilIndexes(order int, x float64, n int) []int {
	clamp := func(i int) int {
		return min(max(i, 0), n-1)
	}
	switch order {
	case 0:
		return []int{clamp(int(math.Floor(x + 0.5)))}
	case 1:
		i := int(math.Floor(x))
		return []int{clamp(i), clamp(i + 1)}
	case 2:
		i := int(math.Floor(x + 0.5))
		return []int{clamp(i - 1), clamp(i), clamp(i + 1)}
	default:
		// The window is shifted to lie within the axis so that the spline
		// knots are distinct.
		size := min(splineWindow, n)
		first := min(max(int(math.Floor(x))-splineWindow/2+1, 0), n-size)
		indexes := make([]int, size)
		for i := range indexes {
			indexes[i] = first + i
		}
		return indexes
	}
}

// evaluate returns the interpolated value given the stencil's samples in row
// major order.
func (s stencil) evaluate(samples []float64) float64 {
	switch s.order {
	case 0:
		return samples[0]
	case 1:
		dx := s.col - math.Floor(s.col)
		dy := s.row - math.Floor(s.row)
		return 0 +
			samples[0]*(1-dx)*(1-dy) +
			samples[1]*dx*(1-dy) +
			samples[2]*(1-dx)*dy +
			samples[3]*dx*dy
	case 2:
		wx := quadraticWeights(s.col - math.Floor(s.col+0.5))
		wy := quadraticWeights(s.row - math.Floor(s.row+0.5))
		result := 0.0
		for j := range 3 {
			for i := range 3 {
				result += wy[j] * wx[i] * samples[3*j+i]
			}
		}
		return result
	default:
		// Interpolate along each row, then along the resulting column.
		rowValues := make([]float64, len(s.rows))
		for j := range s.rows {
			rowValues[j] = naturalCubic(s.cols, samples[j*len(s.cols):(j+1)*len(s.cols)], s.col)
		}
		return naturalCubic(s.rows, rowValues, s.row)
	}
}

// quadraticWeights returns the Lagrange weights of the nodes at -1, 0, and 1
// for a point at t.
func quadraticWeights(t float64) [3]float64 {
	return [3]float64{
		t * (t - 1) / 2,
		1 - t*t,
		t * (t + 1) / 2,
	}
}

// naturalCubic evaluates at x the natural cubic spline through ys at the
// integer positions indexes.
func naturalCubic(indexes []int, ys []float64, x float64) float64 {
	if len(indexes) == 1 {
		return ys[0]
	}
	for _, y := range ys {
		if math.IsNaN(y) {
			return math.NaN()
		}
	}
	xs := make([]float64, len(indexes))
	for i, index := range indexes {
		xs[i] = float64(index)
	}
	var spline interp.NaturalCubic
	if err := spline.Fit(xs, ys); err != nil {
		return math.NaN()
	}
	return spline.Predict(x)
}

// MapDepth returns the depth at the planar coordinates xys by interpolating
// the raster directly with the given order. Points outside the grid are NaN.
func (g *Grid) MapDepth(ctx context.Context, xys [][]float64, order int) ([]float64, error) {
	if err := g.acquire(); err != nil {
		return nil, err
	}
	defer g.release()
	depthSamples.WithLabelValues("map").Add(float64(len(xys)))
	depths, err := MapCoordinates(ctx, g.z, g.indexCoords(xys), order)
	if err != nil {
		return nil, err
	}
	for i, xy := range xys {
		if !g.InBounds(xy[0], xy[1]) {
			depths[i] = math.NaN()
		}
	}
	return depths, nil
}

// indexCoords returns the fractional raster indexes of the planar
// coordinates xys.
func (g *Grid) indexCoords(xys [][]float64) [][]float64 {
	coords := cloneCoords(xys)
	for _, coord := range coords {
		coord[0] = (coord[0] + g.edition.Extent) / g.edition.Resolution
		coord[1] = (coord[1] + g.edition.Extent) / g.edition.Resolution
	}
	return coords
}
