package ibcao

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	gridOpens = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ibcao_grid_opens_total",
		Help: "The total number of grids opened",
	})
	bandLoads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ibcao_band_loads_total",
		Help: "The total number of raster bands read from grid files",
	})
	splineBuilds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ibcao_spline_builds_total",
		Help: "The total number of bicubic spline builds",
	})
	aeqdCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ibcao_aeqd_cache_hits_total",
		Help: "The total number of hits on the azimuthal equidistant projection cache",
	})
	aeqdCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ibcao_aeqd_cache_misses_total",
		Help: "The total number of misses on the azimuthal equidistant projection cache",
	})
	aeqdCacheEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ibcao_aeqd_cache_evictions_total",
		Help: "The total number of evictions from the azimuthal equidistant projection cache",
	})
	depthSamples = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ibcao_depth_samples_total",
		Help: "The total number of depth samples by method",
	}, []string{"method"})
)
