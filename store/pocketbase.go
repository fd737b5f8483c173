package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"
)

// PocketBase is a Store backed by PocketBase collections.
type PocketBase struct {
	app core.App
}

// NewPocketBase wraps a PocketBase app as a Store.
func NewPocketBase(app core.App) *PocketBase {
	return &PocketBase{app: app}
}

// BuildFilter renders f as a parameterized PocketBase filter expression.
// Values are never interpolated into the expression.
func BuildFilter(f Filter) (string, map[string]any) {
	params := make(map[string]any, len(f))
	if len(f) == 0 {
		return "id != ''", params
	}
	parts := make([]string, 0, len(f))
	for i, key := range f.Keys() {
		name := fmt.Sprintf("p%d", i)
		parts = append(parts, fmt.Sprintf("%s = {:%s}", key, name))
		params[name] = f[key]
	}
	return strings.Join(parts, " && "), params
}

func (s *PocketBase) Query(ctx context.Context, collection string, filter Filter, fields ...string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	expr, params := BuildFilter(filter)
	records, err := s.app.FindRecordsByFilter(collection, expr, "created", 0, 0, params)
	if err != nil {
		return nil, fmt.Errorf("store: query %s: %w", collection, err)
	}
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		out = append(out, toRecord(rec, fields))
	}
	return out, nil
}

func (s *PocketBase) Insert(ctx context.Context, collection string, data map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	col, err := s.app.FindCollectionByNameOrId(collection)
	if err != nil {
		return "", fmt.Errorf("store: find collection %s: %w", collection, err)
	}
	rec := core.NewRecord(col)
	for k, v := range data {
		rec.Set(k, v)
	}
	if err := s.app.Save(rec); err != nil {
		return "", fmt.Errorf("store: insert into %s: %w", collection, err)
	}
	return rec.Id, nil
}

func (s *PocketBase) UpdateByID(ctx context.Context, collection, id string, data map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rec, err := s.app.FindRecordById(collection, id)
	if err != nil {
		return fmt.Errorf("store: update %s/%s: %w", collection, id, ErrNotFound)
	}
	for k, v := range data {
		rec.Set(k, v)
	}
	if err := s.app.Save(rec); err != nil {
		return fmt.Errorf("store: update %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *PocketBase) DeleteByID(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rec, err := s.app.FindRecordById(collection, id)
	if err != nil {
		return fmt.Errorf("store: delete %s/%s: %w", collection, id, ErrNotFound)
	}
	if err := s.app.Delete(rec); err != nil {
		return fmt.Errorf("store: delete %s/%s: %w", collection, id, err)
	}
	return nil
}

// toRecord copies the requested fields (all fields when none are given) out
// of a PocketBase record. Date values are converted to time.Time.
func toRecord(rec *core.Record, fields []string) Record {
	if len(fields) == 0 {
		for name := range rec.FieldsData() {
			fields = append(fields, name)
		}
	}
	data := make(map[string]any, len(fields))
	for _, f := range fields {
		v := rec.Get(f)
		if dt, ok := v.(types.DateTime); ok {
			v = dt.Time()
		}
		data[f] = v
	}
	return Record{ID: rec.Id, Data: data}
}
