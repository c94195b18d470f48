package ibcao

import (
	"errors"
	"fmt"
	"io/fs"
)

var (
	// ErrClosed is returned by queries on a closed Grid.
	ErrClosed = errors.New("ibcao: grid closed")

	// ErrInvalidOrder is returned when an interpolation order is not in the
	// range 0 to 3.
	ErrInvalidOrder = errors.New("ibcao: invalid interpolation order")

	// ErrInvalidPosition is returned when a position is not a {longitude,
	// latitude} pair.
	ErrInvalidPosition = errors.New("ibcao: invalid position")
)

// A NotFoundError is returned when the grid file does not exist.
type NotFoundError struct {
	Filename string
	Err      error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: grid not found (download from %s)", e.Filename, downloadURL)
}

func (e *NotFoundError) Unwrap() error {
	if e.Err == nil {
		return fs.ErrNotExist
	}
	return e.Err
}

// A FormatError is returned when a file is not a recognized grid.
type FormatError struct {
	Filename string
	Reason   string
	Err      error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Filename, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Filename, e.Reason)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

const downloadURL = "https://www.ngdc.noaa.gov/mgg/bathymetry/arctic/grids/version3_0/IBCAO_V3_500m_RR.grd"
