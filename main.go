// Command purpleair-exporter polls PurpleAir sensors, converts readings to
// AQI values, and exports them as Prometheus gauges.
package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tgray/purpleair-exporter/internal/config"
	"github.com/tgray/purpleair-exporter/internal/poller"
	"github.com/tgray/purpleair-exporter/internal/purpleair"
	"github.com/tgray/purpleair-exporter/internal/registry"
	"github.com/tgray/purpleair-exporter/internal/web"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("purpleair-exporter: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client := purpleair.NewClient(cfg.BaseURL, cfg.ReadAPIKey, cfg.RequestTimeout)
	metrics := registry.New()

	promReg := prometheus.NewRegistry()
	if err := promReg.Register(metrics); err != nil {
		return err
	}

	sensors := make([]poller.Sensor, len(cfg.SensorIDs))
	for i, id := range cfg.SensorIDs {
		sensors[i] = poller.Sensor{ParentSensorID: id, PrivateKey: cfg.PrivateKeys[i]}
	}

	p := poller.New(client, metrics, sensors, cfg.RefreshInterval)
	go func() {
		if err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("poller stopped: %v", err)
		}
	}()

	srv := web.New(cfg, metrics, promReg)
	log.Printf("serving prometheus metrics on %s/metrics (polling %d sensors every %s)",
		cfg.ListenAddr(), len(sensors), cfg.RefreshInterval)

	return srv.Run(ctx)
}
