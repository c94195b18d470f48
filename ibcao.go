// Package ibcao provides access to the International Bathymetric Chart of the
// Arctic Ocean (IBCAO) grid: depth lookups in the grid's polar stereographic
// projection, conversion from geodetic coordinates, and the IBCAO color
// table.
//
// The grid itself is not distributed with this package. IBCAO 3.0 is
// available from
// https://www.ngdc.noaa.gov/mgg/bathymetry/arctic/grids/version3_0/IBCAO_V3_500m_RR.grd.
package ibcao

import (
	"strconv"
	"strings"
)

// An Edition describes a release of the IBCAO grid.
type Edition struct {
	Version       string
	TitleTag      string // Substring that must appear in the grid's title.
	Filename      string
	Extent        float64 // Half-width of the square planar domain, in meters.
	Resolution    float64 // Sample spacing, in meters.
	VerticalDatum string
	Reference     string
}

// IBCAOv3 is IBCAO version 3.0 at 500m resolution.
var IBCAOv3 = Edition{
	Version:       "3.0",
	TitleTag:      "ver3.0",
	Filename:      "IBCAO_V3_500m_RR.grd",
	Extent:        2904000,
	Resolution:    500,
	VerticalDatum: "mean sea level",
	Reference: "Jakobsson, M., et al. (2012), The International Bathymetric Chart of the Arctic Ocean (IBCAO) " +
		"Version 3.0, Geophys. Res. Lett., doi:10.1029/2012GL052219.",
}

// Samples returns the number of samples along each axis of e.
func (e Edition) Samples() int {
	return int(2*e.Extent/e.Resolution) + 1
}

// ProjectionParams are the parameters of a polar stereographic projection.
type ProjectionParams struct {
	Proj          string
	Ellps         string
	Datum         string
	TrueScaleLat  float64
	ScaleFactor   float64
	OriginLat     float64
	OriginLon     float64
	FalseEasting  float64
	FalseNorthing float64
}

// UPS is the Universal Polar Stereographic variant used by IBCAO.
var UPS = ProjectionParams{
	Proj:          "stere",
	Ellps:         "WGS84",
	Datum:         "WGS84",
	TrueScaleLat:  75,
	ScaleFactor:   0.982966757777337,
	OriginLat:     90,
	OriginLon:     0,
	FalseEasting:  0,
	FalseNorthing: 0,
}

// ProjString returns p as a PROJ definition.
func (p ProjectionParams) ProjString() string {
	formatFloat := func(f float64) string {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strings.Join([]string{
		"+proj=" + p.Proj,
		"+ellps=" + p.Ellps,
		"+datum=" + p.Datum,
		"+lat_ts=" + formatFloat(p.TrueScaleLat),
		"+lat_0=" + formatFloat(p.OriginLat),
		"+lon_0=" + formatFloat(p.OriginLon),
		"+k_0=" + formatFloat(p.ScaleFactor),
		"+x_0=" + formatFloat(p.FalseEasting),
		"+y_0=" + formatFloat(p.FalseNorthing),
		"+units=m",
	}, " ")
}
