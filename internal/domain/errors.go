package domain

import (
	"fmt"
	"net/http"
)

// InputRangeError reports a coordinate outside the supported region.
type InputRangeError struct {
	Field string
	Value float64
	Min   float64
	Max   float64
}

func (e *InputRangeError) Error() string {
	return fmt.Sprintf("%s %g out of range [%g, %g]", e.Field, e.Value, e.Min, e.Max)
}

// NetworkError reports a connection failure or timeout talking to PFDS.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPStatusError reports a non-2xx response from PFDS.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("pfds error: status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("pfds error: status %d: %s", e.StatusCode, e.Body)
}

// MalformedResponseError reports a response without a usable quantiles table.
// Fragment holds the offending text, if any.
type MalformedResponseError struct {
	Reason   string
	Fragment string
}

func (e *MalformedResponseError) Error() string {
	if e.Fragment == "" {
		return "malformed pfds response: " + e.Reason
	}
	return fmt.Sprintf("malformed pfds response: %s near %q", e.Reason, e.Fragment)
}

// UnknownLabelError reports a duration or ARI label missing from the lookup tables.
type UnknownLabelError struct {
	Kind  string // "duration" or "ari"
	Label string
}

func (e *UnknownLabelError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Kind, e.Label)
}

// TableShapeError reports a label whose offset does not exist in the fetched table.
type TableShapeError struct {
	Row  int
	Col  int
	Rows int
	Cols int // width of the selected row, or -1 when the row itself is missing
}

func (e *TableShapeError) Error() string {
	if e.Cols < 0 {
		return fmt.Sprintf("table has %d rows, need row %d", e.Rows, e.Row)
	}
	return fmt.Sprintf("table row %d has %d columns, need column %d", e.Row, e.Cols, e.Col)
}
