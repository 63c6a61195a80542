package purpleair

import (
	"encoding/json"
	"strconv"
	"strings"
)

// SensorPayload models the JSON body returned by GET /sensors/{id}.
type SensorPayload struct {
	Sensors []RawSensorRecord `json:"sensor"`
}

// RawSensorRecord is a single sensor entry from a fetch response. Numeric
// fields stay raw until the transform step so that a malformed value in one
// record fails that record's transform instead of the whole payload decode.
type RawSensorRecord struct {
	SensorIndex RawValue        `json:"sensor_index"`
	Name        string          `json:"name"`
	Stats       json.RawMessage `json:"stats,omitempty"`
	Temperature RawValue        `json:"temperature,omitempty"`
	Humidity    RawValue        `json:"humidity,omitempty"`
	Pressure    RawValue        `json:"pressure,omitempty"`
}

// RawValue holds a field that the API may deliver as a JSON number or as a
// quoted string. The zero value marks an absent field; absence is distinct
// from zero.
type RawValue string

func (v *RawValue) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		return nil
	}
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		s = s[1 : len(s)-1]
	}
	*v = RawValue(s)
	return nil
}

// Present reports whether the field appeared in the payload.
func (v RawValue) Present() bool {
	return v != ""
}

// Float64 converts the raw text to a number.
func (v RawValue) Float64() (float64, error) {
	return strconv.ParseFloat(string(v), 64)
}

func (v RawValue) String() string {
	return string(v)
}
