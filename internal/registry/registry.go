// Package registry owns the set of currently-exported metric series.
//
// It implements prometheus.Collector directly instead of using GaugeVecs so
// that every scrape reads one locked snapshot: a concurrent poll-loop write
// can never be observed half-applied, and removal truly stops a series from
// being exported rather than freezing its last value.
package registry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tgray/purpleair-exporter/internal/transform"
)

// Metric names one of the six exported gauge families.
type Metric string

const (
	MetricIAQI        Metric = "purpleair_pm_25_10m_iaqi"
	MetricIAQIAQandU  Metric = "purpleair_pm_25_10m_iaqi_AQandU"
	MetricIAQILRAPA   Metric = "purpleair_pm_25_10m_iaqi_LRAPA"
	MetricTempF       Metric = "purpleair_temp_f"
	MetricHumidityPct Metric = "purpleair_humidity_pct"
	MetricPressureMb  Metric = "purpleair_pressure_mb"
)

// metricOrder fixes the family order for Collect and Snapshot.
var metricOrder = []Metric{
	MetricIAQI,
	MetricIAQIAQandU,
	MetricIAQILRAPA,
	MetricTempF,
	MetricHumidityPct,
	MetricPressureMb,
}

var labelNames = []string{"parent_sensor_id", "sensor_id", "sensor_name"}

var descs = map[Metric]*prometheus.Desc{
	MetricIAQI: prometheus.NewDesc(
		string(MetricIAQI), "iAQI (10 min average)", labelNames, nil),
	MetricIAQIAQandU: prometheus.NewDesc(
		string(MetricIAQIAQandU), "iAQI (10 min average) w/ AQandU correction", labelNames, nil),
	MetricIAQILRAPA: prometheus.NewDesc(
		string(MetricIAQILRAPA), "iAQI (10 min average) w/ LRAPA correction", labelNames, nil),
	MetricTempF: prometheus.NewDesc(
		string(MetricTempF), "Sensor temp reading (degrees Fahrenheit)", labelNames, nil),
	MetricHumidityPct: prometheus.NewDesc(
		string(MetricHumidityPct), "Sensor humidity reading (percent)", labelNames, nil),
	MetricPressureMb: prometheus.NewDesc(
		string(MetricPressureMb), "Sensor pressure reading (millibars)", labelNames, nil),
}

// Registry maps sensor identities to their last successfully derived values,
// one map per metric family. A value is exported iff it was set by a
// successful transform and has not since been removed; there is no implicit
// expiry.
type Registry struct {
	mu     sync.RWMutex
	series map[Metric]map[transform.Identity]float64
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{series: emptySeries()}
}

func emptySeries() map[Metric]map[transform.Identity]float64 {
	m := make(map[Metric]map[transform.Identity]float64, len(metricOrder))
	for _, name := range metricOrder {
		m[name] = make(map[transform.Identity]float64)
	}
	return m
}

// Set upserts one scalar under the (metric, identity) key.
func (r *Registry) Set(id transform.Identity, metric Metric, value float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.series[metric][id] = value
}

// Update applies every present field of a derived result for one identity in
// a single critical section, so a concurrent scrape sees either all of the
// new values or none of them. Absent fields leave any previously exported
// value for that series untouched.
func (r *Registry) Update(id transform.Identity, d transform.Derived) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for metric, value := range map[Metric]*float64{
		MetricIAQI:        d.IAQI,
		MetricIAQIAQandU:  d.IAQIAQandU,
		MetricIAQILRAPA:   d.IAQILRAPA,
		MetricTempF:       d.TempF,
		MetricHumidityPct: d.HumidityPct,
		MetricPressureMb:  d.PressureMb,
	} {
		if value != nil {
			r.series[metric][id] = *value
		}
	}
}

// RemoveIdentity drops all metric entries for one identity. Removing an
// identity that was never set is not an error.
func (r *Registry) RemoveIdentity(id transform.Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range metricOrder {
		delete(r.series[name], id)
	}
}

// ClearAll drops every entry across every metric family. Safe to call on an
// empty registry.
func (r *Registry) ClearAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.series = emptySeries()
}

// Snapshot returns a copy of the current state, keyed by metric family.
func (r *Registry) Snapshot() map[Metric]map[transform.Identity]float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[Metric]map[transform.Identity]float64, len(metricOrder))
	for _, name := range metricOrder {
		family := make(map[transform.Identity]float64, len(r.series[name]))
		for id, v := range r.series[name] {
			family[id] = v
		}
		out[name] = family
	}
	return out
}

// Describe implements prometheus.Collector.
func (r *Registry) Describe(ch chan<- *prometheus.Desc) {
	for _, name := range metricOrder {
		ch <- descs[name]
	}
}

// Collect implements prometheus.Collector.
func (r *Registry) Collect(ch chan<- prometheus.Metric) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range metricOrder {
		desc := descs[name]
		for id, value := range r.series[name] {
			ch <- prometheus.MustNewConstMetric(
				desc, prometheus.GaugeValue, value,
				id.ParentSensorID, id.SensorID, id.SensorName,
			)
		}
	}
}
