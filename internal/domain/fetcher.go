package domain

import "context"

// Fetcher retrieves the precipitation frequency table for a query.
type Fetcher interface {
	Fetch(ctx context.Context, q Query) (Table, error)
}
