// Package store defines the record store collaborator used by the quotation
// workflow: equality-filtered queries plus insert, update and delete over
// named collections.
package store

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/spf13/cast"
)

// ErrNotFound is returned by UpdateByID and DeleteByID when no record with
// the given id exists in the collection.
var ErrNotFound = errors.New("store: record not found")

// Store is the record store contract consumed by the services.
type Store interface {
	// Query returns the records of collection matching every field of
	// filter. When fields is non-empty only those fields are loaded into
	// Record.Data.
	Query(ctx context.Context, collection string, filter Filter, fields ...string) ([]Record, error)
	Insert(ctx context.Context, collection string, data map[string]any) (string, error)
	UpdateByID(ctx context.Context, collection, id string, data map[string]any) error
	DeleteByID(ctx context.Context, collection, id string) error
}

// Filter is a conjunction of field equality conditions.
type Filter map[string]any

// Keys returns the filter field names in a stable order.
func (f Filter) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Record is a store row: its id plus the loaded field values.
type Record struct {
	ID   string
	Data map[string]any
}

// String returns the field as text ("" when missing).
func (r Record) String(field string) string {
	return cast.ToString(r.Data[field])
}

// Float returns the field as a number; missing or unparseable values are 0.
func (r Record) Float(field string) float64 {
	return cast.ToFloat64(r.Data[field])
}

// Int returns the field as an integer; missing or unparseable values are 0.
func (r Record) Int(field string) int {
	return cast.ToInt(r.Data[field])
}

// Time returns the field as a time; missing or unparseable values are the
// zero time.
func (r Record) Time(field string) time.Time {
	switch v := r.Data[field].(type) {
	case time.Time:
		return v
	case nil:
		return time.Time{}
	default:
		return cast.ToTime(v)
	}
}
