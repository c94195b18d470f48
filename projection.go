package ibcao

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/twpayne/go-proj/v10"
)

// A Projection converts between geodetic coordinates and the planar
// coordinates of a grid. A Projection is safe for concurrent use.
type Projection struct {
	mutex         sync.Mutex
	closed        bool
	params        ProjectionParams
	pj            *proj.PJ
	geod          *proj.PJ
	aeqdCacheSize int
	aeqdCache     *lru.Cache[[2]float64, *proj.PJ]
}

// A ProjectionOption sets an option on a Projection.
type ProjectionOption func(*Projection)

// WithAEQDCacheSize sets the number of azimuthal equidistant projections,
// one per great circle start point, that are cached.
func WithAEQDCacheSize(aeqdCacheSize int) ProjectionOption {
	return func(p *Projection) {
		p.aeqdCacheSize = aeqdCacheSize
	}
}

// NewProjection returns a new Projection with params.
func NewProjection(params ProjectionParams, options ...ProjectionOption) (*Projection, error) {
	p := &Projection{
		params:        params,
		aeqdCacheSize: 16,
	}
	for _, option := range options {
		option(p)
	}

	var err error
	p.pj, err = proj.NewCRSToCRS("EPSG:4326", params.ProjString()+" +type=crs", nil)
	if err != nil {
		return nil, err
	}
	p.geod, err = proj.New("+proj=longlat +ellps=" + params.Ellps)
	if err != nil {
		p.pj.Destroy()
		return nil, err
	}
	p.aeqdCache, err = lru.NewWithEvict(max(p.aeqdCacheSize, 1), func(key [2]float64, value *proj.PJ) {
		aeqdCacheEvictions.Inc()
		value.Destroy()
	})
	if err != nil {
		p.pj.Destroy()
		p.geod.Destroy()
		return nil, err
	}
	return p, nil
}

// Params returns p's parameters.
func (p *Projection) Params() ProjectionParams {
	return p.params
}

// Close releases the resources held by p.
func (p *Projection) Close() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.closed {
		return ErrClosed
	}
	p.closed = true
	p.aeqdCache.Purge()
	p.pj.Destroy()
	p.geod.Destroy()
	return nil
}

// Forward returns the planar coordinates {x, y} of lonLats, which are
// {longitude, latitude} in degrees.
func (p *Projection) Forward(lonLats [][]float64) ([][]float64, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.closed {
		return nil, ErrClosed
	}
	xys := cloneCoords(lonLats)
	flipCoords(xys)
	if err := p.pj.ForwardFloat64Slices(xys); err != nil {
		return nil, err
	}
	return xys, nil
}

// Inverse returns the geodetic coordinates {longitude, latitude} in degrees
// of xys.
func (p *Projection) Inverse(xys [][]float64) ([][]float64, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.closed {
		return nil, ErrClosed
	}
	lonLats := cloneCoords(xys)
	if err := p.pj.InverseFloat64Slices(lonLats); err != nil {
		return nil, err
	}
	flipCoords(lonLats)
	return lonLats, nil
}

// ForwardPoint returns the planar coordinates of a single point.
func (p *Projection) ForwardPoint(lon, lat float64) (float64, float64, error) {
	xys, err := p.Forward([][]float64{{lon, lat}})
	if err != nil {
		return 0, 0, err
	}
	return xys[0][0], xys[0][1], nil
}

// InversePoint returns the geodetic coordinates of a single point.
func (p *Projection) InversePoint(x, y float64) (float64, float64, error) {
	lonLats, err := p.Inverse([][]float64{{x, y}})
	if err != nil {
		return 0, 0, err
	}
	return lonLats[0][0], lonLats[0][1], nil
}

// Geod returns the geodesic distance in meters and the forward and reverse
// azimuths in degrees between two points on p's ellipsoid.
func (p *Projection) Geod(lon1, lat1, lon2, lat2 float64) (float64, float64, float64, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.closed {
		return 0, 0, 0, ErrClosed
	}
	a := proj.NewCoord(lon1, lat1, 0, 0).DegToRad()
	b := proj.NewCoord(lon2, lat2, 0, 0).DegToRad()
	distance, forwardAzimuth, reverseAzimuth := p.geod.Geod(a, b)
	return distance, forwardAzimuth, reverseAzimuth, nil
}

func cloneCoords(coords [][]float64) [][]float64 {
	clonedCoordsFlat := make([]float64, 2*len(coords))
	clonedCoords := make([][]float64, len(coords))
	for i, coord := range coords {
		copy(clonedCoordsFlat[2*i:2*i+2], coord)
		clonedCoords[i] = clonedCoordsFlat[2*i : 2*i+2]
	}
	return clonedCoords
}

func flipCoords(coords [][]float64) {
	for i, coord := range coords {
		coords[i][0], coords[i][1] = coord[1], coord[0]
	}
}
