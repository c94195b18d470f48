package ibcao

import (
	"context"
	"math"

	"github.com/dhconnelly/rtreego"
)

// A Sounding is an independently measured depth at a geodetic position.
type Sounding struct {
	Name      string
	Lon       float64
	Lat       float64
	Depth     float64
	Tolerance float64
}

// KnownPositions are soundings at well known places.
var KnownPositions = []Sounding{
	{Name: "north_pole", Lon: 0, Lat: 90, Depth: -4261, Tolerance: 50},
	{Name: "longyearbyen", Lon: 15.651140, Lat: 78.222665, Depth: 1.7, Tolerance: 7},
	{Name: "gunnbjorn_fjeld", Lon: -29.898533, Lat: 68.9195, Depth: 3694, Tolerance: 400},
}

// GMTProfile are depths extracted with GMT from IBCAO 3.0 along a track near
// 82°N in the Fram Strait.
var GMTProfile = []Sounding{
	{Lon: -0.648317, Lat: 81.9962170001, Depth: -2574.32325995, Tolerance: 3},
	{Lon: -1.253283, Lat: 81.9983000001, Depth: -2304.80896863, Tolerance: 3},
	{Lon: -1.856417, Lat: 81.9994330001, Depth: -1992.40861882, Tolerance: 3},
	{Lon: -2.396967, Lat: 81.9947830001, Depth: -2540.36409855, Tolerance: 3},
	{Lon: -3.130133, Lat: 81.9987830001, Depth: -3509.64727122, Tolerance: 3},
	{Lon: -3.707333, Lat: 81.9998670001, Depth: -4018.8108823, Tolerance: 3},
	{Lon: -4.296033, Lat: 81.997083, Depth: -4011.25898682, Tolerance: 3},
	{Lon: -4.920717, Lat: 81.9994000001, Depth: -3525.6963024, Tolerance: 3},
	{Lon: -5.50345000001, Lat: 82.0028670001, Depth: -3023.12097893, Tolerance: 3},
	{Lon: -6.130917, Lat: 82.0015830001, Depth: -3006.31591506, Tolerance: 3},
	{Lon: -6.69468300003, Lat: 81.9966170001, Depth: -3190.38107675, Tolerance: 3},
	{Lon: -7.31206699999, Lat: 81.9941330001, Depth: -3115.38103425, Tolerance: 3},
	{Lon: -7.93959999997, Lat: 82.000267, Depth: -2982.875422, Tolerance: 3},
	{Lon: -8.19741700001, Lat: 81.9721330001, Depth: -2911.32670751, Tolerance: 3},
	{Lon: -0.62855, Lat: 81.9993830001, Depth: -2589.30052845, Tolerance: 3},
	{Lon: -0.051117, Lat: 81.999717, Depth: -2822.43058789, Tolerance: 3},
	{Lon: 0.56, Lat: 82, Depth: -3006.25619309, Tolerance: 3},
	{Lon: 1.705833, Lat: 81.9945, Depth: -3435.51613899, Tolerance: 3},
	{Lon: 2.310417, Lat: 82.0015, Depth: -2030.92420387, Tolerance: 3},
	{Lon: 2.89165, Lat: 81.9971670001, Depth: -1309.44942805, Tolerance: 3},
	{Lon: 3.48035, Lat: 81.996817, Depth: -1136.05331727, Tolerance: 3},
	{Lon: 4.093633, Lat: 81.99945, Depth: -1098.94253697, Tolerance: 3},
	{Lon: 4.6825, Lat: 81.998917, Depth: -1275.39851465, Tolerance: 3},
	{Lon: 5.290717, Lat: 81.998917, Depth: -1345.6958582, Tolerance: 3},
	{Lon: 5.878783, Lat: 82.000133, Depth: -989.180725733, Tolerance: 3},
	{Lon: 6.76653300003, Lat: 82.0143830001, Depth: -796.276219227, Tolerance: 3},
	{Lon: 7.07896700002, Lat: 82.00315, Depth: -777.077539801, Tolerance: 3},
}

// An indexedSounding is a sounding at planar coordinates.
type indexedSounding struct {
	Sounding
	x    float64
	y    float64
	rect rtreego.Rect
}

// Bounds implements rtreego.Spatial.
func (s *indexedSounding) Bounds() rtreego.Rect {
	return s.rect
}

// A SoundingIndex is a spatial index of soundings in planar coordinates.
type SoundingIndex struct {
	tree *rtreego.Rtree
}

// NewSoundingIndex returns a new SoundingIndex containing soundings projected
// with projection.
func NewSoundingIndex(projection *Projection, soundings []Sounding) (*SoundingIndex, error) {
	lonLats := make([][]float64, len(soundings))
	for i, sounding := range soundings {
		lonLats[i] = []float64{sounding.Lon, sounding.Lat}
	}
	xys, err := projection.Forward(lonLats)
	if err != nil {
		return nil, err
	}
	objs := make([]rtreego.Spatial, len(soundings))
	for i, sounding := range soundings {
		objs[i] = &indexedSounding{
			Sounding: sounding,
			x:        xys[i][0],
			y:        xys[i][1],
			rect:     rtreego.Point{xys[i][0], xys[i][1]}.ToRect(0.5),
		}
	}
	return &SoundingIndex{
		tree: rtreego.NewTree(2, 25, 50, objs...),
	}, nil
}

// Len returns the number of soundings in i.
func (i *SoundingIndex) Len() int {
	return i.tree.Size()
}

// Nearest returns the k soundings nearest to x and y, nearest first.
func (i *SoundingIndex) Nearest(x, y float64, k int) []Sounding {
	spatials := i.tree.NearestNeighbors(k, rtreego.Point{x, y})
	soundings := make([]Sounding, 0, len(spatials))
	for _, spatial := range spatials {
		if spatial == nil {
			continue
		}
		soundings = append(soundings, spatial.(*indexedSounding).Sounding)
	}
	return soundings
}

// Within returns the soundings with planar coordinates in the given
// rectangle.
func (i *SoundingIndex) Within(xMin, yMin, xMax, yMax float64) ([]Sounding, error) {
	xMin, xMax = min(xMin, xMax), max(xMin, xMax)
	yMin, yMax = min(yMin, yMax), max(yMin, yMax)
	rect, err := rtreego.NewRectFromPoints(rtreego.Point{xMin, yMin}, rtreego.Point{xMax, yMax})
	if err != nil {
		return nil, err
	}
	var soundings []Sounding
	for _, spatial := range i.tree.SearchIntersect(rect) {
		s := spatial.(*indexedSounding)
		if xMin <= s.x && s.x <= xMax && yMin <= s.y && s.y <= yMax {
			soundings = append(soundings, s.Sounding)
		}
	}
	return soundings, nil
}

// A ValidationResult compares the depths returned by each method with a
// sounding.
type ValidationResult struct {
	Sounding
	MapDepth    float64
	InterpDepth float64
}

// OK returns whether both depths are within the sounding's tolerance.
func (r ValidationResult) OK() bool {
	return withinTolerance(r.MapDepth, r.Depth, r.Tolerance) &&
		withinTolerance(r.InterpDepth, r.Depth, r.Tolerance)
}

func withinTolerance(actual, expected, tolerance float64) bool {
	return math.Abs(actual-expected) <= tolerance
}

// Validate returns the depths at soundings using both methods.
func Validate(ctx context.Context, service *DepthService, order int, soundings []Sounding) ([]ValidationResult, error) {
	lonLats := make([][]float64, len(soundings))
	for i, sounding := range soundings {
		lonLats[i] = []float64{sounding.Lon, sounding.Lat}
	}
	xys, err := service.Projection().Forward(lonLats)
	if err != nil {
		return nil, err
	}
	mapDepths, err := service.Grid().MapDepth(ctx, xys, order)
	if err != nil {
		return nil, err
	}
	interpDepths, err := service.Grid().Interpolate(ctx, xys)
	if err != nil {
		return nil, err
	}
	results := make([]ValidationResult, len(soundings))
	for i, sounding := range soundings {
		results[i] = ValidationResult{
			Sounding:    sounding,
			MapDepth:    mapDepths[i],
			InterpDepth: interpDepths[i],
		}
	}
	return results, nil
}
