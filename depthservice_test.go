package ibcao_test

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/twpayne/go-ibcao"
)

func newTestDepthService(t *testing.T, f func(x, y float64) float64, options ...ibcao.DepthServiceOption) *ibcao.DepthService {
	t.Helper()
	path := writeTestGrid(t, testEdition, "test grid", f)
	service, err := ibcao.NewDepthService(
		os.DirFS(filepath.Dir(path)),
		filepath.Base(path),
		append([]ibcao.DepthServiceOption{
			ibcao.WithGridOptions(ibcao.WithEdition(testEdition)),
		}, options...)...,
	)
	assert.NoError(t, err)
	t.Cleanup(func() {
		_ = service.Close()
	})
	return service
}

func TestParseMethod(t *testing.T) {
	method, err := ibcao.ParseMethod("map")
	assert.NoError(t, err)
	assert.Equal(t, ibcao.MethodMap, method)
	method, err = ibcao.ParseMethod("interp")
	assert.NoError(t, err)
	assert.Equal(t, ibcao.MethodInterp, method)
	_, err = ibcao.ParseMethod("cubic")
	assert.Error(t, err)
}

func TestDepthService(t *testing.T) {
	for _, method := range []ibcao.Method{ibcao.MethodMap, ibcao.MethodInterp} {
		t.Run(string(method), func(t *testing.T) {
			service := newTestDepthService(t, linear, ibcao.WithMethod(method))
			assert.Equal(t, method, service.Method())

			depths, err := service.Depth(t.Context(), [][]float64{
				{0, 0},
				{750, -250},
				{3000, 0},
			})
			assert.NoError(t, err)
			assertInDelta(t, -1000, depths[0], 1e-6)
			assertInDelta(t, linear(750, -250), depths[1], 1e-6)
			assertInDelta(t, math.NaN(), depths[2], 0)

			depths, err = service.Depth4326(t.Context(), [][]float64{
				{0, 90},
				{0, 0},
			})
			assert.NoError(t, err)
			assertInDelta(t, -1000, depths[0], 1e-6)
			assertInDelta(t, math.NaN(), depths[1], 0)
		})
	}
}

func TestDepthServiceOptions(t *testing.T) {
	path := writeTestGrid(t, testEdition, "test grid", linear)
	fsys := os.DirFS(filepath.Dir(path))
	filename := filepath.Base(path)

	_, err := ibcao.NewDepthService(fsys, filename,
		ibcao.WithGridOptions(ibcao.WithEdition(testEdition)),
		ibcao.WithOrder(4),
	)
	assert.IsError(t, err, ibcao.ErrInvalidOrder)

	_, err = ibcao.NewDepthService(fsys, filename,
		ibcao.WithGridOptions(ibcao.WithEdition(testEdition)),
		ibcao.WithMethod("cubic"),
	)
	assert.Error(t, err)

	_, err = ibcao.NewDepthService(fsys, filename)
	var formatError *ibcao.FormatError
	assert.True(t, errors.As(err, &formatError))

	_, err = ibcao.NewIBCAODepthService(os.DirFS(t.TempDir()))
	var notFoundError *ibcao.NotFoundError
	assert.True(t, errors.As(err, &notFoundError))
}

func TestDepthServiceProfile(t *testing.T) {
	service := newTestDepthService(t, linear)
	profile, err := service.Profile(t.Context(), []float64{0, 89.99}, []float64{90, 89.99}, 4)
	assert.NoError(t, err)
	assert.Equal(t, 4, len(profile))
	for i, point := range profile {
		assert.True(t, point.Lat > 89.99)
		if i > 0 {
			assert.True(t, point.Distance > profile[i-1].Distance)
		}
		x, y, err := service.Projection().ForwardPoint(point.Lon, point.Lat)
		assert.NoError(t, err)
		assertInDelta(t, linear(x, y), point.Depth, 1e-6)
	}
	total, _, _, err := service.Projection().Geod(0, 89.99, 90, 89.99)
	assert.NoError(t, err)
	assertInDelta(t, total/5, profile[0].Distance, 1e-3)
	assertInDelta(t, 4*total/5, profile[3].Distance, 1e-3)

	for _, tc := range []struct {
		name  string
		start []float64
		end   []float64
	}{
		{name: "nil_start", start: nil, end: []float64{90, 89.99}},
		{name: "short_start", start: []float64{0}, end: []float64{90, 89.99}},
		{name: "short_end", start: []float64{0, 89.99}, end: []float64{90}},
		{name: "long_end", start: []float64{0, 89.99}, end: []float64{90, 89.99, 0}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.Profile(t.Context(), tc.start, tc.end, 4)
			assert.IsError(t, err, ibcao.ErrInvalidPosition)
		})
	}
}

func TestDepthServiceClose(t *testing.T) {
	service := newTestDepthService(t, linear)
	assert.NoError(t, service.Close())
	_, err := service.Depth(t.Context(), [][]float64{{0, 0}})
	assert.IsError(t, err, ibcao.ErrClosed)
	_, err = service.Depth4326(t.Context(), [][]float64{{0, 90}})
	assert.IsError(t, err, ibcao.ErrClosed)
	assert.IsError(t, service.Close(), ibcao.ErrClosed)
}
