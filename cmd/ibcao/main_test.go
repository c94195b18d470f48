package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/twpayne/go-ibcao"
)

// writeTestGrid writes a 9x9 grid with depths -1000 + x/10 + y/5 and returns
// its path.
func writeTestGrid(t *testing.T) string {
	t.Helper()
	axis := make([]float64, 9)
	for i := range axis {
		axis[i] = -2000 + 500*float64(i)
	}
	z := make([]float32, 0, len(axis)*len(axis))
	for _, y := range axis {
		for _, x := range axis {
			z = append(z, float32(-1000+x/10+y/5))
		}
	}
	path := filepath.Join(t.TempDir(), "test.grd")
	file, err := os.Create(path)
	assert.NoError(t, err)
	assert.NoError(t, ibcao.WriteGrid(file, "test grid", axis, axis, z))
	assert.NoError(t, file.Close())
	return path
}

func gridArgs(path string) []string {
	return []string{
		"--grid", path,
		"--extent", "2000",
		"--resolution", "500",
		"--title-tag", "test",
	}
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	rootCmd := newRootCmd(stdout, stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(t.Context())
	return stdout.String(), err
}

func TestInfoCmd(t *testing.T) {
	path := writeTestGrid(t)
	output, err := runCmd(t, append([]string{"info"}, gridArgs(path)...)...)
	assert.NoError(t, err)
	assert.Contains(t, output, "title: test grid\n")
	assert.Contains(t, output, "shape: 9x9\n")
	assert.Contains(t, output, "x: -2000 2000\n")
	assert.Contains(t, output, "+proj=stere")
}

func TestDepthCmd(t *testing.T) {
	path := writeTestGrid(t)
	for _, tc := range []struct {
		name     string
		args     []string
		expected string
	}{
		{
			name:     "map",
			args:     []string{"--planar", "500", "1000"},
			expected: "-750\n",
		},
		{
			name:     "map_order_1",
			args:     []string{"--planar", "--order", "1", "250", "250"},
			expected: "-925\n",
		},
		{
			name:     "interp",
			args:     []string{"--planar", "--method", "interp", "500", "1000"},
			expected: "-750\n",
		},
		{
			name:     "outside",
			args:     []string{"--planar", "3000", "0"},
			expected: "NaN\n",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			args := slices.Concat([]string{"depth"}, gridArgs(path), tc.args)
			output, err := runCmd(t, args...)
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, output)
		})
	}
}

func TestDepthCmdErrors(t *testing.T) {
	path := writeTestGrid(t)
	_, err := runCmd(t, slices.Concat([]string{"depth"}, gridArgs(path), []string{"--method", "cubic", "0", "90"})...)
	assert.Error(t, err)
	_, err = runCmd(t, slices.Concat([]string{"depth"}, gridArgs(path), []string{"--order", "4", "0", "90"})...)
	assert.IsError(t, err, ibcao.ErrInvalidOrder)
	_, err = runCmd(t, slices.Concat([]string{"depth"}, gridArgs(path), []string{"zero", "90"})...)
	assert.Error(t, err)
	_, err = runCmd(t, slices.Concat([]string{"depth"}, gridArgs(filepath.Join(t.TempDir(), "missing.grd")), []string{"0", "90"})...)
	var notFoundError *ibcao.NotFoundError
	assert.True(t, errors.As(err, &notFoundError))
}

func TestProfileCmd(t *testing.T) {
	path := writeTestGrid(t)
	for _, tc := range []struct {
		name      string
		args      []string
		hasDepths []bool
	}{
		{
			name:      "map",
			args:      []string{"--n", "3", "0", "89.99", "180", "89.99"},
			hasDepths: []bool{true, true, true},
		},
		{
			name:      "interp",
			args:      []string{"--method", "interp", "--n", "2", "0", "89.99", "180", "89.99"},
			hasDepths: []bool{true, true},
		},
		{
			name:      "outside",
			args:      []string{"--n", "3", "0", "89", "180", "89"},
			hasDepths: []bool{false, true, false},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			output, err := runCmd(t, slices.Concat([]string{"profile"}, gridArgs(path), tc.args)...)
			assert.NoError(t, err)
			var profile []profilePoint
			assert.NoError(t, json.Unmarshal([]byte(output), &profile))
			assert.Equal(t, len(tc.hasDepths), len(profile))
			for i, point := range profile {
				assert.Equal(t, tc.hasDepths[i], point.Depth != nil, "point %d", i)
				if i > 0 {
					assert.True(t, point.Distance > profile[i-1].Distance)
				}
			}
		})
	}

	_, err := runCmd(t, slices.Concat([]string{"profile"}, gridArgs(path), []string{"0", "89.99", "180"})...)
	assert.Error(t, err)
}

func TestCompareCmd(t *testing.T) {
	path := writeTestGrid(t)
	output, err := runCmd(t, slices.Concat([]string{"compare"}, gridArgs(path), []string{"--n", "64", "--seed", "3"})...)
	assert.NoError(t, err)
	assert.Contains(t, output, "count=64 within=64 (100.00%) nan_mismatches=0")

	_, err = runCmd(t, slices.Concat([]string{"compare"}, gridArgs(path), []string{"--order", "4"})...)
	assert.IsError(t, err, ibcao.ErrInvalidOrder)
}

func TestValidateCmd(t *testing.T) {
	path := writeTestGrid(t)
	output, err := runCmd(t, slices.Concat([]string{"validate"}, gridArgs(path))...)
	assert.IsError(t, err, errValidationFailed)
	assert.Contains(t, err.Error(), "30 of 30 soundings")
	assert.Contains(t, output, "FAIL north_pole")
	assert.Contains(t, output, "expected=-4261.00 map=-1000.00")
}

func TestResampleCmd(t *testing.T) {
	path := writeTestGrid(t)
	outputPath := filepath.Join(t.TempDir(), "resampled.grd")
	_, err := runCmd(t, slices.Concat([]string{"resample"}, gridArgs(path), []string{"--div", "2", outputPath})...)
	assert.NoError(t, err)

	grid, err := ibcao.OpenFile(outputPath, ibcao.WithEdition(ibcao.Edition{
		TitleTag:   "resampled",
		Extent:     2000,
		Resolution: 1000,
	}))
	assert.NoError(t, err)
	defer grid.Close()
	rows, cols := grid.Shape()
	assert.Equal(t, 5, rows)
	assert.Equal(t, 5, cols)
	depth, err := grid.Z(t.Context(), 4, 4)
	assert.NoError(t, err)
	assert.Equal(t, -1000+200.+400., depth)
}

func newTestServer(t *testing.T, options ...ibcao.DepthServiceOption) *httptest.Server {
	t.Helper()
	path := writeTestGrid(t)
	c := &config{
		grid:       path,
		extent:     2000,
		resolution: 500,
		titleTag:   "test",
		stdout:     &bytes.Buffer{},
		stderr:     &bytes.Buffer{},
	}
	service, err := c.newDepthService(options...)
	assert.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, service.Close())
	})
	s := &server{
		service: service,
		logger:  c.logger(),
		maxN:    100,
	}
	server := httptest.NewServer(s.handler())
	t.Cleanup(server.Close)
	return server
}

func getJSON(t *testing.T, url string, value any) int {
	t.Helper()
	resp, err := http.Get(url) //nolint:noctx
	assert.NoError(t, err)
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(resp.Body).Decode(value))
	}
	return resp.StatusCode
}

func TestServeDepth(t *testing.T) {
	server := newTestServer(t)

	var response depthResponse
	assert.Equal(t, http.StatusOK, getJSON(t, server.URL+"/depth?lon=0&lat=90", &response))
	assert.True(t, response.Depth != nil)
	assert.True(t, math.Abs(*response.Depth+1000) < 1e-6)
	assert.Equal(t, "map", response.Method)

	response = depthResponse{}
	assert.Equal(t, http.StatusOK, getJSON(t, server.URL+"/depth?lon=0&lat=0", &response))
	assert.Zero(t, response.Depth)

	assert.Equal(t, http.StatusBadRequest, getJSON(t, server.URL+"/depth?lon=zero&lat=0", nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, server.URL+"/depth?lat=0", nil))
}

func TestServeProfile(t *testing.T) {
	server := newTestServer(t, ibcao.WithMethod(ibcao.MethodInterp))

	var profile []profilePoint
	assert.Equal(t, http.StatusOK, getJSON(t, server.URL+"/profile?lon1=0&lat1=89.99&lon2=180&lat2=89.99&n=3", &profile))
	assert.Equal(t, 3, len(profile))
	for i, point := range profile {
		assert.True(t, point.Depth != nil)
		if i > 0 {
			assert.True(t, point.Distance > profile[i-1].Distance)
		}
	}

	assert.Equal(t, http.StatusBadRequest, getJSON(t, server.URL+"/profile?lon1=0&lat1=89.99&lon2=180&lat2=89.99&n=1000", nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, server.URL+"/profile?lon1=0&lat1=89.99", nil))
}

func TestServeMetrics(t *testing.T) {
	server := newTestServer(t)
	var response depthResponse
	assert.Equal(t, http.StatusOK, getJSON(t, server.URL+"/depth?lon=0&lat=90", &response))

	resp, err := http.Get(server.URL + "/metrics") //nolint:noctx
	assert.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	assert.Contains(t, string(body), "ibcao_grid_opens_total")
	assert.Contains(t, string(body), `ibcao_depth_samples_total{method="map"}`)
}
