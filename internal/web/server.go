// Package web serves the metrics-exposition endpoint and a small JSON
// inspection API.
package web

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tgray/purpleair-exporter/internal/config"
	"github.com/tgray/purpleair-exporter/internal/registry"
	"github.com/tgray/purpleair-exporter/internal/transform"
)

// Server bundles router and dependencies for the exporter's HTTP surface.
type Server struct {
	cfg     config.Config
	metrics *registry.Registry
	engine  *gin.Engine
}

// New constructs a server exposing /metrics for the given gatherer plus
// /healthz and /sensors.
func New(cfg config.Config, metrics *registry.Registry, gatherer prometheus.Gatherer) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	server := &Server{cfg: cfg, metrics: metrics, engine: engine}
	server.registerRoutes(gatherer)
	return server
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run starts the HTTP server and blocks until shutdown.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.ListenAddr(),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes(gatherer prometheus.Gatherer) {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	s.engine.GET("/sensors", s.handleSensors)
}

// sensorView is one identity's currently exported values.
type sensorView struct {
	ParentSensorID string             `json:"parent_sensor_id"`
	SensorID       string             `json:"sensor_id"`
	SensorName     string             `json:"sensor_name"`
	Metrics        map[string]float64 `json:"metrics"`
}

func (s *Server) handleSensors(c *gin.Context) {
	snap := s.metrics.Snapshot()

	byIdentity := make(map[transform.Identity]map[string]float64)
	for metric, family := range snap {
		for id, value := range family {
			if byIdentity[id] == nil {
				byIdentity[id] = make(map[string]float64)
			}
			byIdentity[id][string(metric)] = value
		}
	}

	views := make([]sensorView, 0, len(byIdentity))
	for id, metrics := range byIdentity {
		views = append(views, sensorView{
			ParentSensorID: id.ParentSensorID,
			SensorID:       id.SensorID,
			SensorName:     id.SensorName,
			Metrics:        metrics,
		})
	}
	sort.Slice(views, func(i, j int) bool {
		if views[i].ParentSensorID != views[j].ParentSensorID {
			return views[i].ParentSensorID < views[j].ParentSensorID
		}
		return views[i].SensorID < views[j].SensorID
	})

	c.JSON(http.StatusOK, gin.H{"count": len(views), "sensors": views})
}
