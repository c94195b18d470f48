package ibcao

import (
	"context"
	"log/slog"
	"math"
	"slices"
	"sort"
	"time"
)

// A bicubicSpline is a tensor product natural cubic spline through every
// sample of a raster. It stores the second derivatives of the spline at
// each sample. The samples themselves are read from the raster.
type bicubicSpline struct {
	x     []float64
	y     []float64
	z     *bandRaster
	zxx   []float32 // ∂²z/∂x².
	zyy   []float32 // ∂²z/∂y².
	zxxyy []float32 // ∂⁴z/∂x²∂y².
}

// A splineSystem is the factorized tridiagonal system whose solution is the
// second derivatives of the natural cubic spline through values on axis.
// Rows correspond to the interior points of axis, the second derivatives at
// the end points being zero.
type splineSystem struct {
	h     []float64 // Spacing, h[i] = axis[i+1]-axis[i].
	lower []float64 // Sub-diagonal.
	upper []float64 // Super-diagonal after elimination.
	pivot []float64 // Diagonal after elimination.
}

func newSplineSystem(axis []float64) *splineSystem {
	n := len(axis)
	s := &splineSystem{
		h: make([]float64, n-1),
	}
	for i := range n - 1 {
		s.h[i] = axis[i+1] - axis[i]
	}
	m := max(n-2, 0)
	s.lower = make([]float64, m)
	s.upper = make([]float64, m)
	s.pivot = make([]float64, m)
	for k := range m {
		i := k + 1
		s.lower[k] = s.h[i-1] / 6
		diagonal := (s.h[i-1] + s.h[i]) / 3
		upper := s.h[i] / 6
		if k > 0 {
			diagonal -= s.lower[k] * s.upper[k-1]
		}
		s.pivot[k] = diagonal
		s.upper[k] = upper / diagonal
	}
	return s
}

// rhs returns the right hand side of interior row i given the values at
// i-1, i, and i+1.
func (s *splineSystem) rhs(i int, prev, curr, next float64) float64 {
	return (next-curr)/s.h[i] - (curr-prev)/s.h[i-1]
}

// solve sets m to the second derivatives of the natural cubic spline through
// ys.
func (s *splineSystem) solve(ys, m []float64) {
	n := len(ys)
	m[0] = 0
	m[n-1] = 0
	for k := range s.pivot {
		i := k + 1
		d := s.rhs(i, ys[i-1], ys[i], ys[i+1])
		if k > 0 {
			d -= s.lower[k] * m[i-1]
		}
		m[i] = d / s.pivot[k]
	}
	for k := len(s.pivot) - 2; k >= 0; k-- {
		i := k + 1
		m[i] -= s.upper[k] * m[i+1]
	}
}

// newBicubicSpline builds the spline through z. It streams the raster once,
// solving each row as it arrives and eliminating each column incrementally.
// Missing samples are filled from their row before solving so that they only
// affect the cells that touch them, which evaluate masks.
func newBicubicSpline(ctx context.Context, x, y []float64, z *bandRaster) (*bicubicSpline, error) {
	rows, cols := len(y), len(x)
	s := &bicubicSpline{
		x:     x,
		y:     y,
		z:     z,
		zxx:   make([]float32, rows*cols),
		zyy:   make([]float32, rows*cols),
		zxxyy: make([]float32, rows*cols),
	}
	xSystem := newSplineSystem(x)
	ySystem := newSplineSystem(y)

	// Sliding windows of the last three rows of z and zxx.
	var zWindow, zxxWindow [3][]float64
	for i := range 3 {
		zWindow[i] = make([]float64, cols)
		zxxWindow[i] = make([]float64, cols)
	}
	// Forward elimination state of the previous interior row.
	prevZyy := make([]float64, cols)
	prevZxxyy := make([]float64, cols)

	if err := z.rowFloat32s(ctx, func(row int, samples []float32) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		zWindow[0], zWindow[1], zWindow[2] = zWindow[1], zWindow[2], zWindow[0]
		zxxWindow[0], zxxWindow[1], zxxWindow[2] = zxxWindow[1], zxxWindow[2], zxxWindow[0]
		for col, sample := range samples {
			zWindow[2][col] = float64(sample)
		}
		fillGaps(zWindow[2], zWindow[1])
		xSystem.solve(zWindow[2], zxxWindow[2])
		for col, value := range zxxWindow[2] {
			s.zxx[row*cols+col] = float32(value)
		}

		// Row row-1 is interior and its right hand side is now known.
		if row < 2 {
			return nil
		}
		i := row - 1
		k := i - 1
		for col := range cols {
			dyy := ySystem.rhs(i, zWindow[0][col], zWindow[1][col], zWindow[2][col])
			dxxyy := ySystem.rhs(i, zxxWindow[0][col], zxxWindow[1][col], zxxWindow[2][col])
			if k > 0 {
				dyy -= ySystem.lower[k] * prevZyy[col]
				dxxyy -= ySystem.lower[k] * prevZxxyy[col]
			}
			prevZyy[col] = dyy / ySystem.pivot[k]
			prevZxxyy[col] = dxxyy / ySystem.pivot[k]
			s.zyy[i*cols+col] = float32(prevZyy[col])
			s.zxxyy[i*cols+col] = float32(prevZxxyy[col])
		}
		return nil
	}); err != nil {
		return nil, err
	}

	// Back substitution up the columns. The first and last rows stay zero.
	for k := len(ySystem.pivot) - 2; k >= 0; k-- {
		i := k + 1
		upper := float32(ySystem.upper[k])
		for col := range cols {
			s.zyy[i*cols+col] -= upper * s.zyy[(i+1)*cols+col]
			s.zxxyy[i*cols+col] -= upper * s.zxxyy[(i+1)*cols+col]
		}
	}

	return s, nil
}

// fillGaps replaces each NaN in values with the nearest valid value in
// values, or copies prev if values contains no valid values.
func fillGaps(values, prev []float64) {
	last := -1
	for i, value := range values {
		if math.IsNaN(value) {
			continue
		}
		for j := last + 1; j < i; j++ {
			if last >= 0 && j-last <= i-j {
				values[j] = values[last]
			} else {
				values[j] = value
			}
		}
		last = i
	}
	if last < 0 {
		copy(values, prev)
		return
	}
	for j := last + 1; j < len(values); j++ {
		values[j] = values[last]
	}
}

// interval returns the index i of the interval [axis[i], axis[i+1]]
// containing v, clamped to the first and last intervals.
func interval(axis []float64, v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	i := sort.SearchFloat64s(axis, v) - 1
	return min(max(i, 0), len(axis)-2)
}

// weights returns the value and curvature weights of the left and right
// knots of interval i of axis at v.
func weights(axis []float64, i int, v float64) (w, c [2]float64) {
	h := axis[i+1] - axis[i]
	a := (axis[i+1] - v) / h
	b := 1 - a
	w = [2]float64{a, b}
	c = [2]float64{(a*a*a - a) * h * h / 6, (b*b*b - b) * h * h / 6}
	return w, c
}

// evaluate returns the value of s at xys. Points outside the raster are
// extrapolated from the nearest edge interval. Points in a cell with a
// missing corner are NaN.
func (s *bicubicSpline) evaluate(ctx context.Context, xys [][]float64) ([]float64, error) {
	cols := len(s.x)
	intervals := make([][2]int, len(xys))
	coords := make([]Coord, 0, 4*len(xys))
	for n, xy := range xys {
		i, j := interval(s.x, xy[0]), interval(s.y, xy[1])
		intervals[n] = [2]int{i, j}
		coords = append(coords,
			Coord{Row: j, Col: i},
			Coord{Row: j, Col: i + 1},
			Coord{Row: j + 1, Col: i},
			Coord{Row: j + 1, Col: i + 1},
		)
	}
	zs, err := s.z.Samples(ctx, coords)
	if err != nil {
		return nil, err
	}

	result := make([]float64, len(xys))
	for n, xy := range xys {
		if slices.ContainsFunc(zs[4*n:4*n+4], math.IsNaN) {
			result[n] = math.NaN()
			continue
		}
		i, j := intervals[n][0], intervals[n][1]
		wx, cx := weights(s.x, i, xy[0])
		wy, cy := weights(s.y, j, xy[1])
		value := 0.0
		for q := range 2 {
			for p := range 2 {
				index := (j+q)*cols + i + p
				value += wx[p]*wy[q]*zs[4*n+2*q+p] +
					cx[p]*wy[q]*float64(s.zxx[index]) +
					wx[p]*cy[q]*float64(s.zyy[index]) +
					cx[p]*cy[q]*float64(s.zxxyy[index])
			}
		}
		result[n] = value
	}
	return result, nil
}

// getSplineCached returns g's spline, building it if needed.
func (g *Grid) getSplineCached(ctx context.Context) (*bicubicSpline, error) {
	if spline := g.spline.Load(); spline != nil {
		return spline, nil
	}

	g.splineMutex.Lock()
	defer g.splineMutex.Unlock()

	if spline := g.spline.Load(); spline != nil {
		return spline, nil
	}

	start := time.Now()
	spline, err := newBicubicSpline(ctx, g.x, g.y, g.z)
	if err != nil {
		return nil, err
	}
	g.splineBuilds.Add(1)
	splineBuilds.Inc()
	g.spline.Store(spline)
	g.logger.Debug("built spline",
		slog.String("filename", g.filename),
		slog.Duration("duration", time.Since(start)),
	)
	return spline, nil
}

// Interpolate returns the depth at the planar coordinates xys by evaluating
// a bicubic spline through the whole grid. The spline is built on first use,
// which requires reading the whole grid, and is kept until g is closed.
// Points outside the grid are NaN.
func (g *Grid) Interpolate(ctx context.Context, xys [][]float64) ([]float64, error) {
	if err := g.acquire(); err != nil {
		return nil, err
	}
	defer g.release()
	spline, err := g.getSplineCached(ctx)
	if err != nil {
		return nil, err
	}
	depthSamples.WithLabelValues("interp").Add(float64(len(xys)))
	depths, err := spline.evaluate(ctx, xys)
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

// SplineBuilds returns the number of times g's spline has been built.
func (g *Grid) SplineBuilds() int {
	return int(g.splineBuilds.Load())
}
