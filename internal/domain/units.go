package domain

import (
	"fmt"
	"strings"
)

// UnitSystem is the PFDS "units" query parameter.
type UnitSystem string

const (
	English UnitSystem = "english"
	Metric  UnitSystem = "metric"
)

// DepthUnit is the unit a depth is reported in.
type DepthUnit string

const (
	Inch       DepthUnit = "inch"
	Millimeter DepthUnit = "mm"
)

// DepthUnitChoices lists the values accepted on the command line.
var DepthUnitChoices = []string{string(Inch), string(Millimeter)}

// ParseDepthUnit accepts "inch"/"in" and "mm"/"millimeter", case-insensitively.
func ParseDepthUnit(s string) (DepthUnit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inch", "in", "inches":
		return Inch, nil
	case "mm", "millimeter", "millimeters":
		return Millimeter, nil
	default:
		return "", fmt.Errorf("unknown depth unit %q (want inch or mm)", s)
	}
}

// UnitSystem returns the PFDS unit system that yields depths in u.
func (u DepthUnit) UnitSystem() UnitSystem {
	if u == Millimeter {
		return Metric
	}
	return English
}

// Name is the spelled-out unit used in human-readable output.
func (u DepthUnit) Name() string {
	if u == Millimeter {
		return "millimeter"
	}
	return "inch"
}

// DepthUnit returns the unit PFDS reports depths in for s.
func (s UnitSystem) DepthUnit() DepthUnit {
	if s == Metric {
		return Millimeter
	}
	return Inch
}
