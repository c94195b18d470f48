package ibcao

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/ctessum/cdf"
	"github.com/maypok86/otter/v2"
)

// A bandRaster reads a two dimensional netCDF variable in bands of whole
// rows, caching decoded bands.
type bandRaster struct {
	file            *cdf.File
	variable        string
	rows            int
	cols            int
	bandRows        int
	bandsDown       int
	fillValue       float32
	hasFillValue    bool
	bandCacheSize   int
	bandSampleCache *otter.Cache[int, []float32]
}

func newBandRaster(file *cdf.File, variable string, bandRows, bandCacheSize int) (*bandRaster, error) {
	lengths := file.Header.Lengths(variable)
	if len(lengths) != 2 {
		return nil, fmt.Errorf("%s: expected 2 dimensions, got %d", variable, len(lengths))
	}
	switch file.Header.ZeroValue(variable, 0).(type) {
	case []float32, []float64, []int16, []int32:
	default:
		return nil, fmt.Errorf("%s: %w", variable, errors.ErrUnsupported)
	}

	r := &bandRaster{
		file:          file,
		variable:      variable,
		rows:          lengths[0],
		cols:          lengths[1],
		bandRows:      min(max(bandRows, 1), lengths[0]),
		bandCacheSize: bandCacheSize,
	}
	r.bandsDown = (r.rows + r.bandRows - 1) / r.bandRows

	switch fillValue := file.Header.GetAttribute(variable, "_FillValue").(type) {
	case []float32:
		if len(fillValue) == 1 && !math.IsNaN(float64(fillValue[0])) {
			r.fillValue, r.hasFillValue = fillValue[0], true
		}
	case []float64:
		if len(fillValue) == 1 && !math.IsNaN(fillValue[0]) {
			r.fillValue, r.hasFillValue = float32(fillValue[0]), true
		}
	case []int16:
		if len(fillValue) == 1 {
			r.fillValue, r.hasFillValue = float32(fillValue[0]), true
		}
	case []int32:
		if len(fillValue) == 1 {
			r.fillValue, r.hasFillValue = float32(fillValue[0]), true
		}
	}

	bandBytes := 4 * r.bandRows * r.cols
	bandCacheCount := max(r.bandCacheSize/bandBytes, 1)
	var err error
	r.bandSampleCache, err = otter.New(&otter.Options[int, []float32]{
		MaximumSize: bandCacheCount,
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Shape returns the number of rows and columns in r.
func (r *bandRaster) Shape() (int, int) {
	return r.rows, r.cols
}

// Sample returns a single sample from r.
func (r *bandRaster) Sample(ctx context.Context, coord Coord) (float64, error) {
	band, ok := r.band(coord)
	if !ok {
		return math.NaN(), nil
	}
	bandSamples, err := r.getBandSamplesCached(ctx, band)
	if err != nil {
		return 0, err
	}
	return r.bandSample(bandSamples, band, coord), nil
}

// Samples returns multiple samples from r. It is significantly faster than
// calling [Sample] for each coordinate.
func (r *bandRaster) Samples(ctx context.Context, coords []Coord) ([]float64, error) {
	samples := make([]float64, len(coords))

	// Group indexes by band.
	indexesByBand := make(map[int][]int)
	for index, coord := range coords {
		band, ok := r.band(coord)
		if !ok {
			samples[index] = math.NaN()
			continue
		}
		indexesByBand[band] = append(indexesByBand[band], index)
	}

	// Populate samples one band at a time.
	bands := make([]int, 0, len(indexesByBand))
	for band := range indexesByBand {
		bands = append(bands, band)
	}
	slices.Sort(bands)
	for _, band := range bands {
		bandSamples, err := r.getBandSamplesCached(ctx, band)
		if err != nil {
			return nil, err
		}
		for _, index := range indexesByBand[band] {
			samples[index] = r.bandSample(bandSamples, band, coords[index])
		}
	}

	return samples, nil
}

// Row returns the samples in row.
func (r *bandRaster) Row(ctx context.Context, row int) ([]float64, error) {
	if row < 0 || r.rows <= row {
		return nil, fmt.Errorf("row %d: out of range [0, %d)", row, r.rows)
	}
	band := row / r.bandRows
	bandSamples, err := r.getBandSamplesCached(ctx, band)
	if err != nil {
		return nil, err
	}
	offset := (row - band*r.bandRows) * r.cols
	samples := make([]float64, r.cols)
	for col := range r.cols {
		samples[col] = r.decode(bandSamples[offset+col])
	}
	return samples, nil
}

// rowFloat32s calls f with the samples of each row in turn, from the first
// row to the last. The slice passed to f must not be retained.
func (r *bandRaster) rowFloat32s(ctx context.Context, f func(row int, samples []float32) error) error {
	samples := make([]float32, r.cols)
	for band := range r.bandsDown {
		bandSamples, err := r.getBandSamplesCached(ctx, band)
		if err != nil {
			return err
		}
		for localRow := range len(bandSamples) / r.cols {
			for col, sample := range bandSamples[localRow*r.cols : (localRow+1)*r.cols] {
				samples[col] = float32(r.decode(sample))
			}
			if err := f(band*r.bandRows+localRow, samples); err != nil {
				return err
			}
		}
	}
	return nil
}

// getBandSamples reads and decodes band.
func (r *bandRaster) getBandSamples(ctx context.Context, band int) ([]float32, error) {
	bandLoads.Inc()
	firstRow := band * r.bandRows
	lastRow := min(firstRow+r.bandRows, r.rows) - 1
	n := (lastRow - firstRow + 1) * r.cols
	reader := r.file.Reader(r.variable, []int{firstRow, 0}, []int{lastRow, r.cols - 1})

	var bandSamples []float32
	switch values := reader.Zero(n).(type) {
	case []float32:
		if err := readFull(reader, values); err != nil {
			return nil, err
		}
		bandSamples = values
	case []float64:
		if err := readFull(reader, values); err != nil {
			return nil, err
		}
		bandSamples = make([]float32, n)
		for i, value := range values {
			bandSamples[i] = float32(value)
		}
	case []int16:
		if err := readFull(reader, values); err != nil {
			return nil, err
		}
		bandSamples = make([]float32, n)
		for i, value := range values {
			bandSamples[i] = float32(value)
		}
	case []int32:
		if err := readFull(reader, values); err != nil {
			return nil, err
		}
		bandSamples = make([]float32, n)
		for i, value := range values {
			bandSamples[i] = float32(value)
		}
	default:
		return nil, errors.ErrUnsupported
	}
	return bandSamples, nil
}

// getBandSamplesCached returns the samples of band using r's cache.
func (r *bandRaster) getBandSamplesCached(ctx context.Context, band int) ([]float32, error) {
	return r.bandSampleCache.Get(ctx, band, otter.LoaderFunc[int, []float32](r.getBandSamples))
}

// band returns the band containing coord.
func (r *bandRaster) band(coord Coord) (int, bool) {
	if coord.Row < 0 || r.rows <= coord.Row || coord.Col < 0 || r.cols <= coord.Col {
		return 0, false
	}
	return coord.Row / r.bandRows, true
}

// bandSample returns the sample from bandSamples at coord.
func (r *bandRaster) bandSample(bandSamples []float32, band int, coord Coord) float64 {
	return r.decode(bandSamples[(coord.Row-band*r.bandRows)*r.cols+coord.Col])
}

func (r *bandRaster) decode(sample float32) float64 {
	if r.hasFillValue && sample == r.fillValue {
		return math.NaN()
	}
	return float64(sample)
}

// readFull reads exactly len(values) values from reader.
func readFull[T any](reader cdf.Reader, values []T) error {
	switch n, err := reader.Read(values); {
	case err != nil:
		return err
	case n != len(values):
		return errShortRead
	default:
		return nil
	}
}

var errShortRead = errors.New("short read")
