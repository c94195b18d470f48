package ibcao

import (
	"fmt"
	"strconv"

	"github.com/twpayne/go-proj/v10"
)

// GreatCircle returns n points {longitude, latitude} equally spaced along
// the geodesic between two points. The end points themselves are not
// included.
func (p *Projection) GreatCircle(lon1, lat1, lon2, lat2 float64, n int) ([][]float64, error) {
	if n < 0 {
		return nil, fmt.Errorf("%d: invalid number of points", n)
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.closed {
		return nil, ErrClosed
	}

	// Geodesics through the center of an azimuthal equidistant projection
	// are straight lines with true distances.
	aeqd, err := p.getAEQDCached(lon1, lat1)
	if err != nil {
		return nil, err
	}
	end, err := aeqd.Forward(proj.NewCoord(lon2, lat2, 0, 0).DegToRad())
	if err != nil {
		return nil, err
	}

	lonLats := make([][]float64, n)
	for i := range n {
		t := float64(i+1) / float64(n+1)
		coord, err := aeqd.Inverse(proj.NewCoord(t*end[0], t*end[1], 0, 0))
		if err != nil {
			return nil, err
		}
		coord = coord.RadToDeg()
		lonLats[i] = []float64{coord[0], coord[1]}
	}
	return lonLats, nil
}

// getAEQDCached returns the azimuthal equidistant projection centered on lon
// and lat. p.mutex must be held.
func (p *Projection) getAEQDCached(lon, lat float64) (*proj.PJ, error) {
	key := [2]float64{lon, lat}
	if aeqd, ok := p.aeqdCache.Get(key); ok {
		aeqdCacheHits.Inc()
		return aeqd, nil
	}
	aeqdCacheMisses.Inc()

	aeqd, err := proj.New("+proj=aeqd" +
		" +lat_0=" + strconv.FormatFloat(lat, 'f', -1, 64) +
		" +lon_0=" + strconv.FormatFloat(lon, 'f', -1, 64) +
		" +ellps=" + p.params.Ellps +
		" +units=m")
	if err != nil {
		return nil, err
	}
	p.aeqdCache.Add(key, aeqd)
	return aeqd, nil
}
