// Package domain models NOAA precipitation frequency estimates and the
// selection of a single design storm event from them.
//
// # Data Source
//
// Depths come from the Hydrometeorological Design Studies Center (HDSC)
// Precipitation Frequency Data Server (PFDS). The server has no JSON API; its
// CGI endpoint returns a JavaScript document that assigns the estimates to a
// variable:
//
//	quantiles = [['0.303', '0.366', ...], ['0.443', ...], ...];
//
// See https://www.weather.gov/owp/hdsc_faqs (FAQ 2.5) for the scripted access
// conventions.
//
// # PFDS Query Conventions
//
//	lat, lon   decimal degrees, negative longitude for the western hemisphere
//	type       "pf" precipitation frequency (rain and snow); "rf" is rainfall only
//	data       "depth"; the alternative is "intensity"
//	units      "english" (inches) or "metric" (millimeters)
//	series     "pds" partial duration series; "ams" is annual maximum series
//
// Only the contiguous United States is supported:
//
//	latitude  24.5 .. 49.0
//	longitude -125.0 .. -66.9
//
// # Table Layout
//
// Rows are storm durations, 19 of them from 5-min to 60-day. Columns are
// average recurrence intervals (ARI), 10 of them from 1-yr to 1000-yr:
//
//	         1-yr  2-yr  5-yr  10-yr  25-yr  50-yr  100-yr  200-yr  500-yr  1000-yr
//	5-min    [0][0]
//	...
//	1-day                                [9][4]
//	...
//	60-day                                                                  [18][9]
//
// The row and column offsets live in static lookup tables (see [Select]); no
// positional arithmetic is done on labels.
//
// # Units
//
// The table carries no units. A depth read from a table fetched with
// units=english is in inches, with units=metric in millimeters. The indexer
// does not know which one it has, so [DesignStormEvent] is only built from the
// [Query] that produced the table.
package domain
