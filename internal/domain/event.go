package domain

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// DesignStormEvent is one depth selected from a PFDS table, paired with the
// unit of the query that produced the table.
type DesignStormEvent struct {
	Lat         float64   `json:"lat" yaml:"lat"`
	Lon         float64   `json:"lon" yaml:"lon"`
	Duration    string    `json:"duration" yaml:"duration"`
	ARI         string    `json:"ari" yaml:"ari"`
	Depth       float64   `json:"depth" yaml:"depth"`
	Unit        DepthUnit `json:"unit" yaml:"unit"`
	Series      string    `json:"series" yaml:"series"`
	RetrievedAt time.Time `json:"retrieved_at" yaml:"retrieved_at"`
}

// NewDesignStormEvent selects the depth for duration/ari from a table fetched
// with q. The unit is taken from q, never from the caller.
func NewDesignStormEvent(q Query, table Table, duration, ari string) (DesignStormEvent, error) {
	depth, err := Select(table, duration, ari)
	if err != nil {
		return DesignStormEvent{}, err
	}
	return DesignStormEvent{
		Lat:         q.Lat,
		Lon:         q.Lon,
		Duration:    duration,
		ARI:         ari,
		Depth:       depth,
		Unit:        q.Units.DepthUnit(),
		Series:      Series,
		RetrievedAt: clock.Now().UTC(),
	}, nil
}

// String renders the depth with its unit, e.g. "3.45 inch".
func (e DesignStormEvent) String() string {
	return strconv.FormatFloat(e.Depth, 'f', -1, 64) + " " + e.Unit.Name()
}

// Coordinate renders the location with hemisphere suffixes, e.g. "39.7205°N / 105.1193°W".
func (e DesignStormEvent) Coordinate() string {
	return FormatCoordinate(e.Lat, e.Lon)
}

// FormatCoordinate renders lat/lon with hemisphere suffixes.
func FormatCoordinate(lat, lon float64) string {
	ns, ew := "N", "W"
	if lat < 0 {
		ns = "S"
	}
	if lon > 0 {
		ew = "E"
	}
	return fmt.Sprintf("%s°%s / %s°%s",
		strconv.FormatFloat(math.Abs(lat), 'f', -1, 64), ns,
		strconv.FormatFloat(math.Abs(lon), 'f', -1, 64), ew)
}
