// Package transform derives exported metric values from raw sensor records.
package transform

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/tgray/purpleair-exporter/internal/aqi"
	"github.com/tgray/purpleair-exporter/internal/purpleair"
)

// Calibration corrections applied to the raw PM2.5 average before AQI
// conversion.
//
// AQandU: https://www.aqandu.org/airu_sensor#calibrationSection
// LRAPA:  https://www.lrapa.org/DocumentCenter/View/4147/PurpleAir-Correction-Summary
const (
	aqanduSlope  = 0.778
	aqanduOffset = 2.65
	lrapaSlope   = 0.5
	lrapaOffset  = -0.66
)

// Identity is the label triple that keys one exported metric series family.
// It is built when a record is parsed and never mutated.
type Identity struct {
	ParentSensorID string
	SensorID       string
	SensorName     string
}

// Derived holds the metric values produced for one identity. Each field is
// independently present; a nil field exports nothing and leaves any
// previously exported value for that series untouched.
type Derived struct {
	IAQI        *float64
	IAQIAQandU  *float64
	IAQILRAPA   *float64
	TempF       *float64
	HumidityPct *float64
	PressureMb  *float64
}

// ErrorKind distinguishes the ways a transform can fail.
type ErrorKind int

const (
	// BadStats marks an unparseable statistics blob.
	BadStats ErrorKind = iota
	// BadNumeric marks a raw field that could not be converted to a number.
	BadNumeric
)

// Error is returned by Derive. Any Error invalidates the whole record: the
// poll loop removes the identity rather than exporting a partial result.
type Error struct {
	Kind  ErrorKind
	Field string
	Err   error
}

func (e *Error) Error() string {
	switch e.Kind {
	case BadStats:
		return fmt.Sprintf("parse stats blob: %v", e.Err)
	default:
		return fmt.Sprintf("non-numeric %s: %v", e.Field, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// stats is the subset of the nested statistics blob the exporter reads.
type stats struct {
	PM25TenMinute purpleair.RawValue `json:"pm2.5_10minute"`
}

// Derive converts one raw record into its derived metric values, or fails
// with *Error. Output is all or nothing: a failure anywhere produces no
// partial Derived.
func Derive(parentSensorID string, rec purpleair.RawSensorRecord) (Identity, Derived, error) {
	id := Identity{
		ParentSensorID: parentSensorID,
		SensorID:       rec.SensorIndex.String(),
		SensorName:     rec.Name,
	}

	var out Derived

	if len(rec.Stats) > 0 {
		st, err := parseStats(rec.Stats)
		if err != nil {
			return id, Derived{}, &Error{Kind: BadStats, Err: err}
		}

		if st.PM25TenMinute.Present() {
			raw, err := st.PM25TenMinute.Float64()
			if err != nil {
				return id, Derived{}, &Error{Kind: BadNumeric, Field: "pm2.5_10minute", Err: err}
			}
			raw = math.Max(raw, 0)

			// The three indices are produced together or not at all.
			iaqi, err := aqi.ToIAQI(raw)
			if err != nil {
				return id, Derived{}, &Error{Kind: BadNumeric, Field: "pm2.5_10minute", Err: err}
			}
			aqandu, err := aqi.ToIAQI(aqanduSlope*raw + aqanduOffset)
			if err != nil {
				return id, Derived{}, &Error{Kind: BadNumeric, Field: "pm2.5_10minute", Err: err}
			}
			lrapa, err := aqi.ToIAQI(math.Max(lrapaSlope*raw+lrapaOffset, 0))
			if err != nil {
				return id, Derived{}, &Error{Kind: BadNumeric, Field: "pm2.5_10minute", Err: err}
			}

			out.IAQI = floatPtr(float64(iaqi))
			out.IAQIAQandU = floatPtr(float64(aqandu))
			out.IAQILRAPA = floatPtr(float64(lrapa))
		}
	}

	if rec.Temperature.Present() {
		v, err := rec.Temperature.Float64()
		if err != nil {
			return id, Derived{}, &Error{Kind: BadNumeric, Field: "temperature", Err: err}
		}
		out.TempF = &v
	}
	if rec.Humidity.Present() {
		v, err := rec.Humidity.Float64()
		if err != nil {
			return id, Derived{}, &Error{Kind: BadNumeric, Field: "humidity", Err: err}
		}
		out.HumidityPct = &v
	}
	if rec.Pressure.Present() {
		v, err := rec.Pressure.Float64()
		if err != nil {
			return id, Derived{}, &Error{Kind: BadNumeric, Field: "pressure", Err: err}
		}
		out.PressureMb = &v
	}

	return id, out, nil
}

// parseStats decodes the statistics blob, accepting both the inline-object
// form and the legacy form where the blob arrives as a JSON-encoded string.
func parseStats(raw json.RawMessage) (stats, error) {
	blob := []byte(raw)
	if len(blob) > 0 && blob[0] == '"' {
		var inner string
		if err := json.Unmarshal(blob, &inner); err != nil {
			return stats{}, err
		}
		blob = []byte(inner)
	}

	var st stats
	if err := json.Unmarshal(blob, &st); err != nil {
		return stats{}, err
	}
	return st, nil
}

func floatPtr(v float64) *float64 {
	return &v
}
