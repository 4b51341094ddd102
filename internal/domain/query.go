package domain

import "math"

// Bounding box of the contiguous United States (CONUS), inclusive.
const (
	NorthBound = 49.0
	SouthBound = 24.5
	EastBound  = -66.9
	WestBound  = -125.0
)

// Fixed PFDS query parameters.
const (
	DataType = "pf"
	DataKind = "depth"
	Series   = "pds"
)

// Query identifies one PFDS table request.
type Query struct {
	Lat   float64
	Lon   float64
	Units UnitSystem
}

// NewQuery validates the coordinate against the CONUS bounding box.
func NewQuery(lat, lon float64, units UnitSystem) (Query, error) {
	if err := ValidateCoordinate(lat, lon); err != nil {
		return Query{}, err
	}
	if units != Metric {
		units = English
	}
	return Query{Lat: lat, Lon: lon, Units: units}, nil
}

// ValidateCoordinate returns an *InputRangeError for a point outside CONUS.
func ValidateCoordinate(lat, lon float64) error {
	if lat < SouthBound || lat > NorthBound || math.IsNaN(lat) {
		return &InputRangeError{Field: "latitude", Value: lat, Min: SouthBound, Max: NorthBound}
	}
	if lon < WestBound || lon > EastBound || math.IsNaN(lon) {
		return &InputRangeError{Field: "longitude", Value: lon, Min: WestBound, Max: EastBound}
	}
	return nil
}

// Request is a caller's ask for one design storm event.
type Request struct {
	Lat      float64
	Lon      float64
	Duration string
	ARI      string
	Unit     DepthUnit
}

// Validate checks the coordinate and both labels without touching the network
// and returns the PFDS query to run.
func (r Request) Validate() (Query, error) {
	q, err := NewQuery(r.Lat, r.Lon, r.Unit.UnitSystem())
	if err != nil {
		return Query{}, err
	}
	if err := ValidateLabels(r.Duration, r.ARI); err != nil {
		return Query{}, err
	}
	return q, nil
}
