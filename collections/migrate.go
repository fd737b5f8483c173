package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"
)

// MigrateRFQStatusDefaults sets Todo on RFQs saved without a status, so
// that every RFQ is visible to the status queues. Safe to call on every
// startup.
func MigrateRFQStatusDefaults(app *pocketbase.PocketBase) error {
	rfqsCol, err := app.FindCollectionByNameOrId("rfqs")
	if err != nil {
		return fmt.Errorf("migrate: could not find rfqs collection: %w", err)
	}

	blank, err := app.FindRecordsByFilter(rfqsCol, "status = ''", "", 0, 0)
	if err != nil {
		return fmt.Errorf("migrate: could not query rfqs without status: %w", err)
	}
	if len(blank) == 0 {
		return nil
	}

	log.Printf("migrate: found %d RFQ(s) without a status, defaulting to Todo\n", len(blank))

	for _, rec := range blank {
		rec.Set("status", "Todo")
		if err := app.Save(rec); err != nil {
			log.Printf("migrate: failed to update RFQ %q (%s): %v\n", rec.GetString("rfq_number"), rec.Id, err)
			continue
		}
	}
	return nil
}
