package collections

import (
	"context"
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

// HookFuncs are the callbacks RegisterHooks invokes. Nil callbacks are
// skipped.
type HookFuncs struct {
	// RFQDeleted removes the drawings and parts of a deleted RFQ.
	RFQDeleted func(ctx context.Context, rfq string) error
	// CatalogChanged is called with "customers" or "materials" and the
	// record's lookup key after an update or delete.
	CatalogChanged func(collection, key string)
}

// RegisterHooks binds the record hooks of the quotation collections.
func RegisterHooks(app *pocketbase.PocketBase, fn HookFuncs) {
	app.OnRecordCreate("rfqs").BindFunc(func(e *core.RecordEvent) error {
		if e.Record.GetString("status") == "" {
			e.Record.Set("status", "Todo")
		}
		return e.Next()
	})

	app.OnRecordAfterDeleteSuccess("rfqs").BindFunc(func(e *core.RecordEvent) error {
		if fn.RFQDeleted != nil {
			rfq := e.Record.GetString("rfq_number")
			if err := fn.RFQDeleted(e.Context, rfq); err != nil {
				log.Printf("hooks: cleanup of RFQ %q failed: %v\n", rfq, err)
			}
		}
		return e.Next()
	})

	catalogKeys := map[string]string{"customers": "name", "materials": "part_number"}
	invalidate := func(e *core.RecordEvent) error {
		if fn.CatalogChanged != nil {
			name := e.Record.Collection().Name
			fn.CatalogChanged(name, e.Record.GetString(catalogKeys[name]))
			if orig := e.Record.Original(); orig != nil {
				if old := orig.GetString(catalogKeys[name]); old != e.Record.GetString(catalogKeys[name]) {
					fn.CatalogChanged(name, old)
				}
			}
		}
		return e.Next()
	}
	app.OnRecordAfterUpdateSuccess("customers", "materials").BindFunc(invalidate)
	app.OnRecordAfterDeleteSuccess("customers", "materials").BindFunc(invalidate)
}
