package ibcao_test

import (
	"math"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/twpayne/go-ibcao"
)

func TestDefaultColormap(t *testing.T) {
	colormap := ibcao.DefaultColormap()
	assert.Equal(t, 29, colormap.Len())
	assert.Equal(t, 29, len(colormap.Colors))
	assert.Equal(t, -6000., colormap.Boundaries[0])
	assert.Equal(t, 5000., colormap.Boundaries[28])
	for i := 1; i < colormap.Len(); i++ {
		assert.True(t, colormap.Boundaries[i-1] < colormap.Boundaries[i])
	}
	for _, color := range colormap.Colors {
		assert.True(t, color.IsValid())
	}
	assert.Equal(t, colorful.Color{R: 18. / 255, G: 10. / 255, B: 59. / 255}, colormap.Colors[0])
	assert.Equal(t, colorful.Color{R: 200. / 255, G: 200. / 255, B: 200. / 255}, colormap.Colors[28])
}

func TestColormapColor(t *testing.T) {
	colormap := ibcao.DefaultColormap()
	for _, tc := range []struct {
		name     string
		value    float64
		expected int
	}{
		{name: "below", value: -10000, expected: 0},
		{name: "first", value: -6000, expected: 0},
		{name: "deep", value: -4500, expected: 1},
		{name: "boundary", value: -4000, expected: 2},
		{name: "sea_level", value: 0, expected: 14},
		{name: "just_below_sea_level", value: -0.1, expected: 13},
		{name: "last", value: 5000, expected: 28},
		{name: "above", value: 9000, expected: 28},
	} {
		t.Run(tc.name, func(t *testing.T) {
			actual, ok := colormap.Color(tc.value)
			assert.True(t, ok)
			assert.Equal(t, colormap.Colors[tc.expected], actual)
		})
	}

	_, ok := colormap.Color(math.NaN())
	assert.False(t, ok)
}

func TestColormapGradient(t *testing.T) {
	colormap := ibcao.DefaultColormap()

	actual, ok := colormap.Gradient(-5500)
	assert.True(t, ok)
	assert.Equal(t, colormap.Colors[0].BlendRgb(colormap.Colors[1], 0.5), actual)

	actual, ok = colormap.Gradient(-5000)
	assert.True(t, ok)
	assert.Equal(t, colormap.Colors[1], actual)

	actual, ok = colormap.Gradient(6000)
	assert.True(t, ok)
	assert.Equal(t, colormap.Colors[28], actual)

	_, ok = colormap.Gradient(math.NaN())
	assert.False(t, ok)
}

func TestParseColormap(t *testing.T) {
	colormap, err := ibcao.ParseColormap(strings.NewReader("" +
		"# comment\n" +
		"\n" +
		"0 0 0 0 10 255 255 255\n" +
		"10 255 0 0 20 0 0 255\n"))
	assert.NoError(t, err)
	assert.Equal(t, &ibcao.Colormap{
		Boundaries: []float64{0, 10, 20},
		Colors: []colorful.Color{
			{R: 0, G: 0, B: 0},
			{R: 1, G: 0, B: 0},
			{R: 0, G: 0, B: 1},
		},
	}, colormap)
}

func TestParseColormapErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		data string
	}{
		{name: "empty", data: ""},
		{name: "only_comments", data: "# comment\n"},
		{name: "too_few_fields", data: "0 0 0 0 10 0 0\n"},
		{name: "too_many_fields", data: "0 0 0 0 10 0 0 0 0\n"},
		{name: "not_a_number", data: "0 0 0 zero 10 0 0 0\n"},
		{name: "channel_out_of_range", data: "0 0 0 256 10 0 0 0\n"},
		{name: "negative_channel", data: "0 0 0 0 10 0 -1 0\n"},
		{name: "not_increasing", data: "10 0 0 0 10 0 0 0\n"},
		{name: "discontinuous", data: "0 0 0 0 10 0 0 0\n11 0 0 0 20 0 0 0\n"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ibcao.ParseColormap(strings.NewReader(tc.data))
			assert.IsError(t, err, ibcao.ErrInvalidColormap)
		})
	}
}
