package ibcao

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"slices"
)

// A Method is a depth sampling method.
type Method string

// Methods.
const (
	// MethodMap interpolates the raster locally around each point. It is
	// the default.
	MethodMap Method = "map"
	// MethodInterp evaluates a bicubic spline through the whole raster,
	// which is built on first use.
	MethodInterp Method = "interp"
)

// ParseMethod parses a Method.
func ParseMethod(s string) (Method, error) {
	switch method := Method(s); method {
	case MethodMap, MethodInterp:
		return method, nil
	default:
		return "", fmt.Errorf("%s: unknown method", s)
	}
}

// A DepthService returns depths at planar or geodetic coordinates.
type DepthService struct {
	grid             *Grid
	projection       *Projection
	projectionParams ProjectionParams
	method           Method
	order            int
	gridOptions      []GridOption
}

// A DepthServiceOption sets an option on a DepthService.
type DepthServiceOption func(*DepthService)

// WithMethod sets the sampling method.
func WithMethod(method Method) DepthServiceOption {
	return func(s *DepthService) {
		s.method = method
	}
}

// WithOrder sets the interpolation order used by [MethodMap].
func WithOrder(order int) DepthServiceOption {
	return func(s *DepthService) {
		s.order = order
	}
}

// WithGridOptions adds options used to open the grid.
func WithGridOptions(gridOptions ...GridOption) DepthServiceOption {
	return func(s *DepthService) {
		s.gridOptions = append(s.gridOptions, gridOptions...)
	}
}

// WithProjectionParams sets the projection of the grid.
func WithProjectionParams(projectionParams ProjectionParams) DepthServiceOption {
	return func(s *DepthService) {
		s.projectionParams = projectionParams
	}
}

// NewDepthService returns a new DepthService for the grid filename in fsys.
func NewDepthService(fsys fs.FS, filename string, options ...DepthServiceOption) (*DepthService, error) {
	s := &DepthService{
		projectionParams: UPS,
		method:           MethodMap,
		order:            3,
	}
	for _, option := range options {
		option(s)
	}
	if _, err := ParseMethod(string(s.method)); err != nil {
		return nil, err
	}
	if s.order < 0 || 3 < s.order {
		return nil, fmt.Errorf("%w: %d", ErrInvalidOrder, s.order)
	}

	var err error
	s.grid, err = Open(fsys, filename, s.gridOptions...)
	if err != nil {
		return nil, err
	}
	s.projection, err = NewProjection(s.projectionParams)
	if err != nil {
		_ = s.grid.Close()
		return nil, err
	}
	return s, nil
}

// NewIBCAODepthService returns a new DepthService for IBCAO 3.0 in fsys.
func NewIBCAODepthService(fsys fs.FS, options ...DepthServiceOption) (*DepthService, error) {
	return NewDepthService(fsys, IBCAOv3.Filename, slices.Concat(
		[]DepthServiceOption{
			WithGridOptions(WithEdition(IBCAOv3)),
			WithProjectionParams(UPS),
		},
		options,
	)...)
}

// Close releases the resources held by s.
func (s *DepthService) Close() error {
	return errors.Join(s.grid.Close(), s.projection.Close())
}

// Grid returns s's grid.
func (s *DepthService) Grid() *Grid {
	return s.grid
}

// Projection returns s's projection.
func (s *DepthService) Projection() *Projection {
	return s.projection
}

// Method returns s's sampling method.
func (s *DepthService) Method() Method {
	return s.method
}

// Depth returns the depths at the planar coordinates xys.
func (s *DepthService) Depth(ctx context.Context, xys [][]float64) ([]float64, error) {
	switch s.method {
	case MethodInterp:
		return s.grid.Interpolate(ctx, xys)
	default:
		return s.grid.MapDepth(ctx, xys, s.order)
	}
}

// Depth4326 returns the depths at lonLats, which are {longitude, latitude}
// in degrees.
func (s *DepthService) Depth4326(ctx context.Context, lonLats [][]float64) ([]float64, error) {
	xys, err := s.projection.Forward(lonLats)
	if err != nil {
		return nil, err
	}
	return s.Depth(ctx, xys)
}

// A ProfilePoint is a point on a depth profile. Depth is NaN where there is
// no data, so callers encoding profiles as JSON must handle it.
type ProfilePoint struct {
	Lon      float64
	Lat      float64
	Distance float64 // Geodesic distance from the start, in meters.
	Depth    float64
}

// Profile returns the depths at n points equally spaced along the geodesic
// from start to end, which are {longitude, latitude} in degrees. The end
// points are not included.
func (s *DepthService) Profile(ctx context.Context, start, end []float64, n int) ([]ProfilePoint, error) {
	if len(start) != 2 || len(end) != 2 {
		return nil, fmt.Errorf("%w: got %d and %d values, expected {longitude, latitude}", ErrInvalidPosition, len(start), len(end))
	}
	lonLats, err := s.projection.GreatCircle(start[0], start[1], end[0], end[1], n)
	if err != nil {
		return nil, err
	}
	depths, err := s.Depth4326(ctx, lonLats)
	if err != nil {
		return nil, err
	}
	profile := make([]ProfilePoint, len(lonLats))
	for i, lonLat := range lonLats {
		distance, _, _, err := s.projection.Geod(start[0], start[1], lonLat[0], lonLat[1])
		if err != nil {
			return nil, err
		}
		profile[i] = ProfilePoint{
			Lon:      lonLat[0],
			Lat:      lonLat[1],
			Distance: distance,
			Depth:    depths[i],
		}
	}
	return profile, nil
}
