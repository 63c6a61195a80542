package registry

import (
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgray/purpleair-exporter/internal/transform"
)

var testID = transform.Identity{
	ParentSensorID: "12345",
	SensorID:       "12345",
	SensorName:     "backyard",
}

func fullDerived(v float64) transform.Derived {
	return transform.Derived{
		IAQI:        &v,
		IAQIAQandU:  &v,
		IAQILRAPA:   &v,
		TempF:       &v,
		HumidityPct: &v,
		PressureMb:  &v,
	}
}

func TestUpdateExportsAllFamilies(t *testing.T) {
	r := New()
	temp, hum, press := 72.5, 40.0, 1013.0
	iaqi, aqandu, lrapa := 50.0, 50.0, 22.0
	r.Update(testID, transform.Derived{
		IAQI:        &iaqi,
		IAQIAQandU:  &aqandu,
		IAQILRAPA:   &lrapa,
		TempF:       &temp,
		HumidityPct: &hum,
		PressureMb:  &press,
	})

	assert.Equal(t, 6, testutil.CollectAndCount(r))

	expected := `
# HELP purpleair_temp_f Sensor temp reading (degrees Fahrenheit)
# TYPE purpleair_temp_f gauge
purpleair_temp_f{parent_sensor_id="12345",sensor_id="12345",sensor_name="backyard"} 72.5
`
	require.NoError(t, testutil.CollectAndCompare(r, strings.NewReader(expected), "purpleair_temp_f"))
}

func TestUpdateLeavesAbsentFieldsUntouched(t *testing.T) {
	r := New()
	r.Update(testID, fullDerived(50))

	// A tick without a stats blob only refreshes the environmental fields.
	temp := 68.0
	r.Update(testID, transform.Derived{TempF: &temp})

	snap := r.Snapshot()
	assert.Equal(t, 50.0, snap[MetricIAQI][testID])
	assert.Equal(t, 50.0, snap[MetricIAQIAQandU][testID])
	assert.Equal(t, 50.0, snap[MetricIAQILRAPA][testID])
	assert.Equal(t, 68.0, snap[MetricTempF][testID])
}

func TestSetUpsertsOneSeries(t *testing.T) {
	r := New()
	r.Set(testID, MetricHumidityPct, 40)
	r.Set(testID, MetricHumidityPct, 41)

	snap := r.Snapshot()
	assert.Equal(t, 41.0, snap[MetricHumidityPct][testID])
	assert.Empty(t, snap[MetricTempF])
}

func TestRemoveIdentityIsIdempotent(t *testing.T) {
	r := New()
	other := transform.Identity{ParentSensorID: "9", SensorID: "9", SensorName: "roof"}
	r.Update(testID, fullDerived(1))
	r.Update(other, fullDerived(2))

	r.RemoveIdentity(testID)
	r.RemoveIdentity(testID)

	snap := r.Snapshot()
	for _, name := range metricOrder {
		_, ok := snap[name][testID]
		assert.False(t, ok, "series %s still present after removal", name)
		assert.Equal(t, 2.0, snap[name][other])
	}
}

func TestClearAllEmptiesEveryFamily(t *testing.T) {
	r := New()

	// Safe on a registry that has never been set.
	r.ClearAll()
	assert.Equal(t, 0, testutil.CollectAndCount(r))

	r.Update(testID, fullDerived(3))
	require.Equal(t, 6, testutil.CollectAndCount(r))

	r.ClearAll()
	assert.Equal(t, 0, testutil.CollectAndCount(r))
}

func TestScrapeNeverSeesPartialUpdate(t *testing.T) {
	r := New()
	r.Update(testID, fullDerived(1))

	preg := prometheus.NewPedanticRegistry()
	require.NoError(t, preg.Register(r))

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		v := 1.0
		for {
			select {
			case <-done:
				return
			default:
			}
			v++
			r.Update(testID, fullDerived(v))
		}
	}()

	for i := 0; i < 200; i++ {
		families, err := preg.Gather()
		require.NoError(t, err)
		require.Len(t, families, 6)

		first := families[0].GetMetric()[0].GetGauge().GetValue()
		for _, fam := range families {
			require.Len(t, fam.GetMetric(), 1)
			got := fam.GetMetric()[0].GetGauge().GetValue()
			require.Equal(t, first, got, "scrape observed a half-updated identity")
		}
	}

	close(done)
	wg.Wait()
}
