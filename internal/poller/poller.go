// Package poller drives the fetch/transform/update cycle on a fixed
// interval.
package poller

import (
	"context"
	"log"
	"time"

	"github.com/tgray/purpleair-exporter/internal/purpleair"
	"github.com/tgray/purpleair-exporter/internal/registry"
	"github.com/tgray/purpleair-exporter/internal/transform"
)

// Sensor is one operator-configured parent sensor. PrivateKey is empty for
// public sensors.
type Sensor struct {
	ParentSensorID string
	PrivateKey     string
}

// Fetcher performs one request/response cycle against the sensor API.
type Fetcher interface {
	Fetch(ctx context.Context, parentSensorID, privateKey string) ([]purpleair.RawSensorRecord, error)
}

// Poller polls the configured sensors in list order, one tick at a time.
// It keeps no state between ticks; everything it exports lives in the
// registry.
type Poller struct {
	client   Fetcher
	registry *registry.Registry
	sensors  []Sensor
	interval time.Duration
}

// New builds a poller over the given sensor list.
func New(client Fetcher, reg *registry.Registry, sensors []Sensor, interval time.Duration) *Poller {
	return &Poller{
		client:   client,
		registry: reg,
		sensors:  sensors,
		interval: interval,
	}
}

// Run polls until the context is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	for {
		log.Printf("refreshing sensors...")
		p.tick(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.interval):
		}
	}
}

// tick walks the sensor list once. Any fetch or transform failure abandons
// the remainder of the tick: the failure already adjusted the registry, and
// stale values must not keep flowing while the source is misbehaving.
func (p *Poller) tick(ctx context.Context) {
	for _, s := range p.sensors {
		records, err := p.client.Fetch(ctx, s.ParentSensorID, s.PrivateKey)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			// A fetch-level failure invalidates confidence in every
			// exported value, not just this sensor's.
			p.registry.ClearAll()
			log.Printf("fetch sensor %s: %v; cleared metrics, sleeping till next poll", s.ParentSensorID, err)
			return
		}

		for _, rec := range records {
			id, derived, err := transform.Derive(s.ParentSensorID, rec)
			if err != nil {
				p.registry.RemoveIdentity(id)
				log.Printf("transform sensor %s/%s: %v; stopped exporting it, sleeping till next poll", id.ParentSensorID, id.SensorID, err)
				return
			}
			p.registry.Update(id, derived)
		}
	}
}
