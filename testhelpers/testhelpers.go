// Package testhelpers provides utilities for testing PocketBase-based applications.
package testhelpers

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"salesquote/collections"
)

// NewTestApp creates a PocketBase instance backed by a temporary directory.
// It bootstraps the app and runs collections.Setup to create all tables.
// The temporary directory is cleaned up automatically when the test finishes.
func NewTestApp(t *testing.T) *pocketbase.PocketBase {
	t.Helper()

	tmpDir := t.TempDir()
	app := pocketbase.NewWithConfig(pocketbase.Config{
		DefaultDataDir: tmpDir,
	})

	if err := app.Bootstrap(); err != nil {
		t.Fatalf("failed to bootstrap test app: %v", err)
	}

	collections.Setup(app)

	return app
}

// CreateRecord saves a record with the given fields into collection.
func CreateRecord(t *testing.T, app *pocketbase.PocketBase, collection string, fields map[string]any) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId(collection)
	if err != nil {
		t.Fatalf("failed to find %s collection: %v", collection, err)
	}

	record := core.NewRecord(col)
	for k, v := range fields {
		record.Set(k, v)
	}

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test %s record: %v", collection, err)
	}

	return record
}

// CreateTestCustomer creates a customer with an address and contact person.
func CreateTestCustomer(t *testing.T, app *pocketbase.PocketBase, name string) *core.Record {
	t.Helper()
	return CreateRecord(t, app, "customers", map[string]any{
		"name":           name,
		"address":        "Plot 12, MIDC Bhosari\nPune",
		"email":          "purchase@example.com",
		"contact_person": "Mr. Kulkarni",
	})
}

// CreateTestMaterial creates a material catalog entry.
func CreateTestMaterial(t *testing.T, app *pocketbase.PocketBase, partNumber, material, weight, rate string) *core.Record {
	t.Helper()
	return CreateRecord(t, app, "materials", map[string]any{
		"part_number": partNumber,
		"material":    material,
		"weight":      weight,
		"rate":        rate,
	})
}

// CreateTestRFQ creates an RFQ in the given status.
func CreateTestRFQ(t *testing.T, app *pocketbase.PocketBase, number, customer, status string) *core.Record {
	t.Helper()
	return CreateRecord(t, app, "rfqs", map[string]any{
		"rfq_number":     number,
		"customer_name":  customer,
		"project_number": "PRJ-" + number,
		"subject":        "Fabrication of structural assemblies",
		"date":           time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		"status":         status,
	})
}

// CreateTestDrawing creates a drawing row for an RFQ.
func CreateTestDrawing(t *testing.T, app *pocketbase.PocketBase, rfq, number, qty string) *core.Record {
	t.Helper()
	return CreateRecord(t, app, "drawings", map[string]any{
		"rfq_number":       rfq,
		"drawing_number":   number,
		"drawing_quantity": qty,
	})
}

// TestPart holds the text values of a part row.
type TestPart struct {
	Name, Material, Grade, Quantity          string
	Weight, Overhead, Rate, Labour, LaserCut string
	Primer                                   string
}

// CreateTestPart creates a part row under a drawing.
func CreateTestPart(t *testing.T, app *pocketbase.PocketBase, rfq, drawing string, p TestPart) *core.Record {
	t.Helper()
	return CreateRecord(t, app, "parts", map[string]any{
		"rfq_number":     rfq,
		"drawing_number": drawing,
		"part_name":      p.Name,
		"material":       p.Material,
		"grade":          p.Grade,
		"quantity":       p.Quantity,
		"weight":         p.Weight,
		"overhead":       p.Overhead,
		"rate":           p.Rate,
		"labour":         p.Labour,
		"laser_cut":      p.LaserCut,
		"primer":         p.Primer,
	})
}

// CreateTestQuotation creates a primary quotation record.
func CreateTestQuotation(t *testing.T, app *pocketbase.PocketBase, rfq string, revision int, status string, totalAmount float64) *core.Record {
	t.Helper()
	return CreateRecord(t, app, "quotations", map[string]any{
		"rfq_serial_number": rfq,
		"revision_number":   revision,
		"quotation_date":    time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC),
		"status":            status,
		"total_amount":      totalAmount,
	})
}

// CreateTestRevision creates a revision-history record.
func CreateTestRevision(t *testing.T, app *pocketbase.PocketBase, rfq string, revision int, status string, totalAmount float64) *core.Record {
	t.Helper()
	return CreateRecord(t, app, "quotation_revisions", map[string]any{
		"rfq_serial_number": rfq,
		"revision_number":   revision,
		"revision_date":     time.Date(2025, 4, 10+revision, 0, 0, 0, 0, time.UTC),
		"revision_status":   status,
		"total_amount":      totalAmount,
	})
}

// AssertBodyContains checks that body contains all specified fragments.
func AssertBodyContains(t *testing.T, body string, fragments ...string) {
	t.Helper()

	for _, frag := range fragments {
		if !strings.Contains(body, frag) {
			t.Errorf("expected body to contain %q, but it did not.\nBody (first 500 chars): %s", frag, truncate(body, 500))
		}
	}
}

// DecodeJSON unmarshals a response body into v, failing the test on error.
func DecodeJSON(t *testing.T, body string, v any) {
	t.Helper()

	if err := json.Unmarshal([]byte(body), v); err != nil {
		t.Fatalf("failed to decode JSON body: %v\nBody (first 500 chars): %s", err, truncate(body, 500))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
