package ibcao

import (
	"context"
	"fmt"
)

// Resample returns the raster sampled every div samples in each direction
// using [Grid.MapDepth] with order. (len(x)-1) must be a multiple of div.
// z is in row major order.
func (g *Grid) Resample(ctx context.Context, div, order int) (x, y []float64, z []float32, err error) {
	if div < 1 || (len(g.x)-1)%div != 0 || (len(g.y)-1)%div != 0 {
		return nil, nil, nil, fmt.Errorf("%d: invalid divisor for %d samples", div, len(g.x))
	}
	x = make([]float64, (len(g.x)-1)/div+1)
	for i := range x {
		x[i] = g.x[i*div]
	}
	y = make([]float64, (len(g.y)-1)/div+1)
	for j := range y {
		y[j] = g.y[j*div]
	}

	z = make([]float32, 0, len(x)*len(y))
	xys := make([][]float64, len(x))
	for j := range y {
		for i := range x {
			xys[i] = []float64{x[i], y[j]}
		}
		depths, err := g.MapDepth(ctx, xys, order)
		if err != nil {
			return nil, nil, nil, err
		}
		for _, depth := range depths {
			z = append(z, float32(depth))
		}
	}
	return x, y, z, nil
}

// ResampledEdition returns the edition of a grid produced by resampling e
// every div samples.
func (e Edition) ResampledEdition(div int) Edition {
	resampled := e
	resampled.Resolution = e.Resolution * float64(div)
	resampled.Filename = ""
	return resampled
}
