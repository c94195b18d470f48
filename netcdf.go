package ibcao

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/ctessum/cdf"
)

// A ReadWriterAt can be read and written at arbitrary offsets. *os.File
// implements ReadWriterAt.
type ReadWriterAt interface {
	io.ReaderAt
	io.WriterAt
}

var errReadOnly = errors.New("read-only")

// A readOnlyReaderAt adapts an io.ReaderAt to a cdf.ReaderWriterAt that
// refuses writes.
type readOnlyReaderAt struct {
	io.ReaderAt
}

func (readOnlyReaderAt) WriteAt([]byte, int64) (int, error) {
	return 0, errReadOnly
}

// WriteGrid writes a GMT compatible netCDF classic grid to w. z is in row
// major order with len(x) columns and len(y) rows.
func WriteGrid(w ReadWriterAt, title string, x, y []float64, z []float32) error {
	if len(x) < 2 || len(y) < 2 {
		return fmt.Errorf("grid must be at least 2x2, got %dx%d", len(y), len(x))
	}
	if len(z) != len(x)*len(y) {
		return fmt.Errorf("got %d samples, expected %d", len(z), len(x)*len(y))
	}

	header := cdf.NewHeader([]string{"x", "y"}, []int{len(x), len(y)})
	header.AddVariable("x", []string{"x"}, []float64{})
	header.AddAttribute("x", "long_name", "x")
	header.AddAttribute("x", "actual_range", []float64{x[0], x[len(x)-1]})
	header.AddVariable("y", []string{"y"}, []float64{})
	header.AddAttribute("y", "long_name", "y")
	header.AddAttribute("y", "actual_range", []float64{y[0], y[len(y)-1]})
	header.AddVariable("z", []string{"y", "x"}, []float32{})
	header.AddAttribute("z", "long_name", "z")
	header.AddAttribute("z", "_FillValue", []float32{float32(math.NaN())})
	zMin, zMax := math.Inf(1), math.Inf(-1)
	for _, value := range z {
		if !math.IsNaN(float64(value)) {
			zMin = min(zMin, float64(value))
			zMax = max(zMax, float64(value))
		}
	}
	if zMin <= zMax {
		header.AddAttribute("z", "actual_range", []float64{zMin, zMax})
	}
	header.AddAttribute("", "Conventions", "COARDS/CF-1.0")
	header.AddAttribute("", "title", title)
	header.AddAttribute("", "node_offset", []int32{0})
	header.Define()

	file, err := cdf.Create(w, header)
	if err != nil {
		return err
	}
	if err := writeFull(file.Writer("x", nil, nil), x); err != nil {
		return fmt.Errorf("x: %w", err)
	}
	if err := writeFull(file.Writer("y", nil, nil), y); err != nil {
		return fmt.Errorf("y: %w", err)
	}
	if err := writeFull(file.Writer("z", nil, nil), z); err != nil {
		return fmt.Errorf("z: %w", err)
	}
	return nil
}

// writeFull writes all of values to writer. Reaching the end of the variable
// is not an error.
func writeFull[T any](writer cdf.Writer, values []T) error {
	switch n, err := writer.Write(values); {
	case errors.Is(err, io.EOF) && n == len(values):
		return nil
	case err != nil:
		return err
	case n != len(values):
		return io.ErrShortWrite
	default:
		return nil
	}
}

// readAxis reads the one dimensional variable name from file.
func readAxis(file *cdf.File, name string) ([]float64, error) {
	lengths := file.Header.Lengths(name)
	switch {
	case lengths == nil:
		return nil, fmt.Errorf("%s: variable not found", name)
	case len(lengths) != 1:
		return nil, fmt.Errorf("%s: expected 1 dimension, got %d", name, len(lengths))
	case lengths[0] < 2:
		return nil, fmt.Errorf("%s: expected at least 2 values, got %d", name, lengths[0])
	}

	reader := file.Reader(name, nil, nil)
	switch values := reader.Zero(lengths[0]).(type) {
	case []float64:
		if err := readFull(reader, values); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return values, nil
	case []float32:
		if err := readFull(reader, values); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return float64s(values), nil
	case []int32:
		if err := readFull(reader, values); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return float64s(values), nil
	case []int16:
		if err := readFull(reader, values); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return float64s(values), nil
	default:
		return nil, fmt.Errorf("%s: %w", name, errors.ErrUnsupported)
	}
}

func float64s[T float32 | int16 | int32](values []T) []float64 {
	result := make([]float64, len(values))
	for i, value := range values {
		result[i] = float64(value)
	}
	return result
}
