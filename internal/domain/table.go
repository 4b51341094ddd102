package domain

import "strings"

// Table holds PFDS depths: rows are durations, columns are ARIs.
type Table [][]float64

// Default design storm: the customary 24-hour / 25-year event.
const (
	DefaultDuration = "1-day"
	DefaultARI      = "25-yr"
)

var (
	durationRows = map[string]int{
		"5-min":   0,
		"10-min":  1,
		"15-min":  2,
		"30-min":  3,
		"60-min":  4,
		"2-hr":    5,
		"3-hr":    6,
		"6-hr":    7,
		"0.5-day": 8,
		"12-hr":   8,
		"1-day":   9,
		"24-hr":   9,
		"2-day":   10,
		"3-day":   11,
		"4-day":   12,
		"7-day":   13,
		"10-day":  14,
		"20-day":  15,
		"30-day":  16,
		"45-day":  17,
		"60-day":  18,
	}

	ariCols = map[string]int{
		"1-yr":    0,
		"2-yr":    1,
		"5-yr":    2,
		"10-yr":   3,
		"25-yr":   4,
		"50-yr":   5,
		"100-yr":  6,
		"200-yr":  7,
		"500-yr":  8,
		"1000-yr": 9,
	}
)

// DurationChoices are the durations offered on the command line. Storms
// shorter than an 8-hour shift are not useful for sizing containment.
var DurationChoices = []string{
	"0.5-day", "1-day", "2-day", "3-day", "4-day", "7-day",
	"10-day", "20-day", "30-day", "45-day", "60-day",
}

// ARIChoices are the average recurrence intervals offered on the command line.
var ARIChoices = []string{
	"1-yr", "2-yr", "5-yr", "10-yr", "25-yr",
	"50-yr", "100-yr", "200-yr", "500-yr", "1000-yr",
}

// DurationRow returns the table row for a duration label.
func DurationRow(label string) (int, error) {
	row, ok := durationRows[normalizeLabel(label)]
	if !ok {
		return 0, &UnknownLabelError{Kind: "duration", Label: label}
	}
	return row, nil
}

// ARIColumn returns the table column for an ARI label.
func ARIColumn(label string) (int, error) {
	col, ok := ariCols[normalizeLabel(label)]
	if !ok {
		return 0, &UnknownLabelError{Kind: "ari", Label: label}
	}
	return col, nil
}

// ValidateLabels reports the first unknown label, duration first.
func ValidateLabels(duration, ari string) error {
	if _, err := DurationRow(duration); err != nil {
		return err
	}
	_, err := ARIColumn(ari)
	return err
}

// Select returns table[row(duration)][col(ari)] as-is.
func Select(table Table, duration, ari string) (float64, error) {
	row, err := DurationRow(duration)
	if err != nil {
		return 0, err
	}
	col, err := ARIColumn(ari)
	if err != nil {
		return 0, err
	}

	if row >= len(table) {
		return 0, &TableShapeError{Row: row, Col: col, Rows: len(table), Cols: -1}
	}
	if col >= len(table[row]) {
		return 0, &TableShapeError{Row: row, Col: col, Rows: len(table), Cols: len(table[row])}
	}
	return table[row][col], nil
}

func normalizeLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
