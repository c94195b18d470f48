package ibcao_test

import (
	"math"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/alecthomas/assert/v2"
	"gonum.org/v1/gonum/interp"

	"github.com/twpayne/go-ibcao"
)

func randomXYs(r *rand.Rand, n int, extent float64) [][]float64 {
	xys := make([][]float64, n)
	for i := range xys {
		xys[i] = []float64{
			extent * (2*r.Float64() - 1),
			extent * (2*r.Float64() - 1),
		}
	}
	return xys
}

func TestInterpolateBilinear(t *testing.T) {
	grid := openTestGrid(t, testEdition, bilinear)
	xys := randomXYs(rand.New(rand.NewPCG(1, 2)), 64, testEdition.Extent)
	actual, err := grid.Interpolate(t.Context(), xys)
	assert.NoError(t, err)
	for i, xy := range xys {
		assertInDelta(t, bilinear(xy[0], xy[1]), actual[i], 1e-6)
	}
}

func TestInterpolateKnots(t *testing.T) {
	grid := openTestGrid(t, testEdition, wavy)
	rows, cols := grid.Shape()
	x, y := grid.X(), grid.Y()
	for row := range rows {
		for col := range cols {
			expected, err := grid.Z(t.Context(), row, col)
			assert.NoError(t, err)
			actual, err := grid.Interpolate(t.Context(), [][]float64{{x[col], y[row]}})
			assert.NoError(t, err)
			assertInDelta(t, expected, actual[0], 1e-9)
		}
	}
}

func TestInterpolateNaturalCubic(t *testing.T) {
	edition := ibcao.Edition{
		TitleTag:   "test",
		Extent:     6000,
		Resolution: 500,
	}
	f := func(x, y float64) float64 {
		return wavy(x, 0)
	}
	grid := openTestGrid(t, edition, f, ibcao.WithBandRows(4))

	xs := grid.X()
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = float64(float32(f(x, 0)))
	}
	var naturalCubic interp.NaturalCubic
	assert.NoError(t, naturalCubic.Fit(xs, ys))

	xys := randomXYs(rand.New(rand.NewPCG(3, 4)), 64, edition.Extent)
	actual, err := grid.Interpolate(t.Context(), xys)
	assert.NoError(t, err)
	for i, xy := range xys {
		assertInDelta(t, naturalCubic.Predict(xy[0]), actual[i], 1e-3)
	}
}

func TestInterpolateOutside(t *testing.T) {
	grid := openTestGrid(t, testEdition, linear)
	actual, err := grid.Interpolate(t.Context(), [][]float64{
		{2000.5, 0},
		{0, -2000.5},
		{math.NaN(), 0},
		{2000, -2000},
	})
	assert.NoError(t, err)
	assert.True(t, math.IsNaN(actual[0]))
	assert.True(t, math.IsNaN(actual[1]))
	assert.True(t, math.IsNaN(actual[2]))
	assertInDelta(t, linear(2000, -2000), actual[3], 1e-9)
}

func TestInterpolateBuildsOnce(t *testing.T) {
	grid := openTestGrid(t, testEdition, wavy)
	assert.Equal(t, 0, grid.SplineBuilds())

	xys := randomXYs(rand.New(rand.NewPCG(5, 6)), 16, testEdition.Extent)
	var wg sync.WaitGroup
	results := make([][]float64, 8)
	errs := make([]error, len(results))
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = grid.Interpolate(t.Context(), xys)
		}()
	}
	wg.Wait()
	for i := range results {
		assert.NoError(t, errs[i])
		assert.Equal(t, results[0], results[i])
	}
	assert.Equal(t, 1, grid.SplineBuilds())

	again, err := grid.Interpolate(t.Context(), xys)
	assert.NoError(t, err)
	assert.Equal(t, results[0], again)
	assert.Equal(t, 1, grid.SplineBuilds())
}

func TestMapDepthAgreesWithInterpolate(t *testing.T) {
	edition := ibcao.Edition{
		TitleTag:   "test",
		Extent:     8000,
		Resolution: 500,
	}
	grid := openTestGrid(t, edition, wavy)
	xys := randomXYs(rand.New(rand.NewPCG(7, 8)), 256, 6000)
	mapDepths, err := grid.MapDepth(t.Context(), xys, 3)
	assert.NoError(t, err)
	interpDepths, err := grid.Interpolate(t.Context(), xys)
	assert.NoError(t, err)
	agreement := ibcao.Compare(mapDepths, interpDepths, 1)
	assert.Equal(t, len(xys), agreement.Count)
	assert.Equal(t, 0, agreement.NaNMismatches)
	assert.Equal(t, 1., agreement.Fraction())
}

func TestInterpolateMissingSample(t *testing.T) {
	edition := ibcao.Edition{
		TitleTag:   "test",
		Extent:     8000,
		Resolution: 500,
	}
	grid := openTestGrid(t, edition, func(x, y float64) float64 {
		if x == -8000 && y == -8000 {
			return math.NaN()
		}
		return linear(x, y)
	})

	xys := [][]float64{
		{7000, 7000},
		{0, 0},
		{-7500, 7500},
		{7500, -7500},
	}
	mapDepths, err := grid.MapDepth(t.Context(), xys, 3)
	assert.NoError(t, err)
	interpDepths, err := grid.Interpolate(t.Context(), xys)
	assert.NoError(t, err)
	for i, xy := range xys {
		assertInDelta(t, linear(xy[0], xy[1]), mapDepths[i], 1e-6)
		assertInDelta(t, mapDepths[i], interpDepths[i], 1e-3)
	}

	interpDepths, err = grid.Interpolate(t.Context(), [][]float64{{-7750, -7750}, {-8000, -8000}})
	assert.NoError(t, err)
	assert.True(t, math.IsNaN(interpDepths[0]))
	assert.True(t, math.IsNaN(interpDepths[1]))
}
