package services

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"salesquote/store"
)

// LoadFunc fetches a value missing from a LookupCache.
type LoadFunc[V any] func(ctx context.Context, key string) (V, error)

// LookupCache is a read-through cache with size and age limits. It is safe
// for concurrent use.
type LookupCache[V any] struct {
	lru  *expirable.LRU[string, V]
	load LoadFunc[V]
}

func NewLookupCache[V any](size int, ttl time.Duration, load LoadFunc[V]) *LookupCache[V] {
	return &LookupCache[V]{
		lru:  expirable.NewLRU[string, V](size, nil, ttl),
		load: load,
	}
}

// Get returns the cached value for key, loading it on a miss. Load errors
// are not cached.
func (c *LookupCache[V]) Get(ctx context.Context, key string) (V, error) {
	if v, ok := c.lru.Get(key); ok {
		return v, nil
	}
	v, err := c.load(ctx, key)
	if err != nil {
		var zero V
		return zero, err
	}
	c.lru.Add(key, v)
	return v, nil
}

func (c *LookupCache[V]) Invalidate(key string) { c.lru.Remove(key) }

func (c *LookupCache[V]) Purge() { c.lru.Purge() }

func (c *LookupCache[V]) Len() int { return c.lru.Len() }

// Customer is the letter block printed on quotation documents.
type Customer struct {
	Name          string `json:"name"`
	Address       string `json:"address"`
	Email         string `json:"email"`
	GSTNumber     string `json:"gstNumber"`
	ContactPerson string `json:"contactPerson"`
	MobileNumbers string `json:"mobileNumbers"`
}

// Material is a catalog entry keyed by part number.
type Material struct {
	PartNumber string    `json:"partNumber"`
	Length     string    `json:"length"`
	Width      string    `json:"width"`
	Thickness  string    `json:"thickness"`
	Material   string    `json:"material"`
	Weight     string    `json:"weight"`
	Rate       string    `json:"rate"`
	Date       time.Time `json:"date"`
}

// Lookups holds the customer and material caches.
type Lookups struct {
	Customers *LookupCache[Customer]
	Materials *LookupCache[Material]
}

func NewLookups(st store.Store, size int, ttl time.Duration) *Lookups {
	return &Lookups{
		Customers: NewLookupCache(size, ttl, func(ctx context.Context, name string) (Customer, error) {
			row, err := findOne(ctx, st, CollectionCustomers, store.Filter{"name": name})
			if err != nil {
				return Customer{}, err
			}
			return Customer{
				Name:          row.String("name"),
				Address:       row.String("address"),
				Email:         row.String("email"),
				GSTNumber:     row.String("gst_number"),
				ContactPerson: row.String("contact_person"),
				MobileNumbers: row.String("mobile_numbers"),
			}, nil
		}),
		Materials: NewLookupCache(size, ttl, func(ctx context.Context, partNumber string) (Material, error) {
			row, err := findOne(ctx, st, CollectionMaterials, store.Filter{"part_number": partNumber})
			if err != nil {
				return Material{}, err
			}
			return Material{
				PartNumber: row.String("part_number"),
				Length:     row.String("length"),
				Width:      row.String("width"),
				Thickness:  row.String("thickness"),
				Material:   row.String("material"),
				Weight:     row.String("weight"),
				Rate:       row.String("rate"),
				Date:       row.Time("date"),
			}, nil
		}),
	}
}

// Purge empties both caches.
func (l *Lookups) Purge() {
	l.Customers.Purge()
	l.Materials.Purge()
}

func findOne(ctx context.Context, st store.Store, collection string, filter store.Filter) (store.Record, error) {
	rows, err := st.Query(ctx, collection, filter)
	if err != nil {
		return store.Record{}, err
	}
	if len(rows) == 0 {
		return store.Record{}, fmt.Errorf("%s %v: %w", collection, filter, ErrNotFound)
	}
	return rows[0], nil
}
