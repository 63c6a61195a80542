// Package aqi converts PM2.5 concentrations to instantaneous AQI values
// using the EPA breakpoint table.
package aqi

import (
	"fmt"
	"math"
)

// breakpoint is one row of the EPA PM2.5 table: a concentration band
// (micrograms per cubic meter, 24h standard) and the index band it maps to.
type breakpoint struct {
	cLow, cHigh float64
	iLow, iHigh float64
}

var pm25Breakpoints = []breakpoint{
	{0.0, 12.0, 0, 50},
	{12.1, 35.4, 51, 100},
	{35.5, 55.4, 101, 150},
	{55.5, 150.4, 151, 200},
	{150.5, 250.4, 201, 300},
	{250.5, 350.4, 301, 400},
	{350.5, 500.4, 401, 500},
}

// ToIAQI maps a PM2.5 concentration to its EPA index value.
//
// The concentration is truncated to one decimal place before lookup, the
// index is interpolated linearly within the bracketing band and rounded
// half-to-even. Concentrations beyond the top of the table return the
// maximum index of 500. Negative input is rejected; callers are expected
// to clamp to zero first.
func ToIAQI(concentration float64) (int, error) {
	if concentration < 0 {
		return 0, fmt.Errorf("negative concentration %v", concentration)
	}

	c := math.Trunc(concentration*10) / 10

	top := pm25Breakpoints[len(pm25Breakpoints)-1]
	if c > top.cHigh {
		return int(top.iHigh), nil
	}

	for _, bp := range pm25Breakpoints {
		if c <= bp.cHigh {
			idx := (bp.iHigh-bp.iLow)/(bp.cHigh-bp.cLow)*(c-bp.cLow) + bp.iLow
			return int(math.RoundToEven(idx)), nil
		}
	}

	// Unreachable: the table covers [0, cHigh of the last band].
	return int(top.iHigh), nil
}
