package ibcao

import (
	"bufio"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

//go:embed ibcao.cpt
var ibcaoCPT string

// ErrInvalidColormap is returned when a color table cannot be parsed.
var ErrInvalidColormap = errors.New("invalid colormap")

// A Colormap is a discrete color ramp. Values between Boundaries[i] and
// Boundaries[i+1] have color Colors[i]. There is one more boundary than
// there are intervals, and one color per boundary.
type Colormap struct {
	Boundaries []float64
	Colors     []colorful.Color
}

// DefaultColormap returns the IBCAO color table.
func DefaultColormap() *Colormap {
	colormap, err := ParseColormap(strings.NewReader(ibcaoCPT))
	if err != nil {
		panic(err)
	}
	return colormap
}

// ParseColormap parses a color table from r. Blank lines and lines starting
// with # are ignored. Every other line contains two value and RGB tuples,
// with RGB in the range 0 to 255. The trailing value of each line must equal
// the leading value of the next line and values must be strictly increasing.
func ParseColormap(r io.Reader) (*Colormap, error) {
	colormap := &Colormap{}
	var (
		lineNumber    int
		trailingValue float64
		trailingColor colorful.Color
	)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 8 {
			return nil, fmt.Errorf("line %d: %w: got %d fields, expected 8", lineNumber, ErrInvalidColormap, len(fields))
		}
		values := make([]float64, len(fields))
		for i, field := range fields {
			value, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w: %w", lineNumber, ErrInvalidColormap, err)
			}
			values[i] = value
		}
		leadingColor, err := parseRGB(values[1:4])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNumber, err)
		}
		trailingColor, err = parseRGB(values[5:8])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNumber, err)
		}

		if n := len(colormap.Boundaries); n > 0 && values[0] != trailingValue {
			return nil, fmt.Errorf("line %d: %w: leading value %g does not match previous trailing value %g", lineNumber, ErrInvalidColormap, values[0], trailingValue)
		}
		if !(values[0] < values[4]) {
			return nil, fmt.Errorf("line %d: %w: values %g and %g are not increasing", lineNumber, ErrInvalidColormap, values[0], values[4])
		}
		colormap.Boundaries = append(colormap.Boundaries, values[0])
		colormap.Colors = append(colormap.Colors, leadingColor)
		trailingValue = values[4]
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(colormap.Boundaries) == 0 {
		return nil, fmt.Errorf("%w: no data", ErrInvalidColormap)
	}

	colormap.Boundaries = append(colormap.Boundaries, trailingValue)
	colormap.Colors = append(colormap.Colors, trailingColor)
	return colormap, nil
}

func parseRGB(rgb []float64) (colorful.Color, error) {
	for _, channel := range rgb {
		if channel < 0 || 255 < channel {
			return colorful.Color{}, fmt.Errorf("%w: channel value %g out of range", ErrInvalidColormap, channel)
		}
	}
	return colorful.Color{R: rgb[0] / 255, G: rgb[1] / 255, B: rgb[2] / 255}, nil
}

// Len returns the number of boundaries in c.
func (c *Colormap) Len() int {
	return len(c.Boundaries)
}

// interval returns the index of the interval containing value, clamped to
// the first and last boundaries.
func (c *Colormap) interval(value float64) int {
	i := sort.Search(len(c.Boundaries), func(i int) bool {
		return c.Boundaries[i] > value
	})
	return min(max(i-1, 0), len(c.Boundaries)-1)
}

// Color returns the color of value. Values below the first boundary take the
// first color and values at or above the last boundary take the last color.
// It returns false if value is NaN.
func (c *Colormap) Color(value float64) (colorful.Color, bool) {
	if math.IsNaN(value) {
		return colorful.Color{}, false
	}
	return c.Colors[c.interval(value)], true
}

// Gradient returns the color of value interpolated linearly in RGB between
// the colors of the surrounding boundaries. It returns false if value is
// NaN.
func (c *Colormap) Gradient(value float64) (colorful.Color, bool) {
	if math.IsNaN(value) {
		return colorful.Color{}, false
	}
	i := c.interval(value)
	if i == len(c.Boundaries)-1 {
		return c.Colors[i], true
	}
	t := (value - c.Boundaries[i]) / (c.Boundaries[i+1] - c.Boundaries[i])
	t = min(max(t, 0), 1)
	return c.Colors[i].BlendRgb(c.Colors[i+1], t), true
}
