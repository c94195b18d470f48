package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/twpayne/go-ibcao"
)

// A profilePoint is an ibcao.ProfilePoint with a missing depth encoded as
// null.
type profilePoint struct {
	Lon      float64  `json:"lon"`
	Lat      float64  `json:"lat"`
	Distance float64  `json:"distance"`
	Depth    *float64 `json:"depth"`
}

type depthResponse struct {
	Lon    float64  `json:"lon"`
	Lat    float64  `json:"lat"`
	X      float64  `json:"x"`
	Y      float64  `json:"y"`
	Depth  *float64 `json:"depth"`
	Method string   `json:"method"`
}

func nullable(value float64) *float64 {
	if math.IsNaN(value) {
		return nil
	}
	return &value
}

func newProfileResponse(profile []ibcao.ProfilePoint) []profilePoint {
	response := make([]profilePoint, len(profile))
	for i, point := range profile {
		response[i] = profilePoint{
			Lon:      point.Lon,
			Lat:      point.Lat,
			Distance: point.Distance,
			Depth:    nullable(point.Depth),
		}
	}
	return response
}

type server struct {
	service *ibcao.DepthService
	logger  *slog.Logger
	maxN    int
}

func (s *server) handler() http.Handler {
	router := httprouter.New()
	router.GET("/depth", s.handleDepth)
	router.GET("/profile", s.handleProfile)
	router.Handler(http.MethodGet, "/metrics", promhttp.Handler())
	return router
}

func queryFloats(r *http.Request, keys ...string) ([]float64, error) {
	query := r.URL.Query()
	values := make([]float64, len(keys))
	for i, key := range keys {
		value, err := strconv.ParseFloat(query.Get(key), 64)
		if err != nil {
			return nil, err
		}
		values[i] = value
	}
	return values, nil
}

func (s *server) writeJSON(w http.ResponseWriter, value any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(value); err != nil {
		s.logger.Error("encode", "err", err)
	}
}

func (s *server) handleDepth(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	lonLat, err := queryFloats(r, "lon", "lat")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	x, y, err := s.service.Projection().ForwardPoint(lonLat[0], lonLat[1])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	depths, err := s.service.Depth(r.Context(), [][]float64{{x, y}})
	if err != nil {
		s.logger.Error("depth", "lon", lonLat[0], "lat", lonLat[1], "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, depthResponse{
		Lon:    lonLat[0],
		Lat:    lonLat[1],
		X:      x,
		Y:      y,
		Depth:  nullable(depths[0]),
		Method: string(s.service.Method()),
	})
}

func (s *server) handleProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	coords, err := queryFloats(r, "lon1", "lat1", "lon2", "lat2")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	n := 100
	if value := r.URL.Query().Get("n"); value != "" {
		n, err = strconv.Atoi(value)
		if err != nil || n < 1 || n > s.maxN {
			http.Error(w, "invalid n", http.StatusBadRequest)
			return
		}
	}
	profile, err := s.service.Profile(r.Context(), coords[0:2], coords[2:4], n)
	if err != nil {
		s.logger.Error("profile", "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, newProfileResponse(profile))
}

func (c *config) newServeCmd() *cobra.Command {
	var (
		sampleFlags sampleFlags
		addr        string
		maxN        int
	)
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve depths over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			options, err := sampleFlags.options()
			if err != nil {
				return err
			}
			service, err := c.newDepthService(options...)
			if err != nil {
				return err
			}
			defer service.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := c.logger()
			s := &server{
				service: service,
				logger:  logger,
				maxN:    maxN,
			}
			httpServer := &http.Server{
				Addr:              addr,
				Handler:           s.handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() {
				errCh <- httpServer.ListenAndServe()
			}()
			logger.Info("serve", "addr", addr, "method", service.Method())

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				return err
			}
			if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	sampleFlags.register(serveCmd)
	flags := serveCmd.Flags()
	flags.StringVar(&addr, "addr", ":8080", "listen address")
	flags.IntVar(&maxN, "max-n", 10000, "maximum number of points in a profile")
	return serveCmd
}
