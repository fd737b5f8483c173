package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

// StatusValues lists every quotation/RFQ status tag accepted by the select
// fields. Must stay in sync with services.Status.
var StatusValues = []string{"Todo", "WorkingDone", "Approved", "Waiting", "Won", "Loss", "Revised"}

// LossReasonValues lists the selectable reasons for a lost quotation.
var LossReasonValues = []string{"Delivery", "Budget", "Material Specification"}

// Setup programmatically creates/ensures every collection used by the
// quotation workflow exists.
func Setup(app *pocketbase.PocketBase) {
	ensureCollection(app, "customers", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.Fields.Add(&core.TextField{Name: "address"})
		c.Fields.Add(&core.TextField{Name: "email"})
		c.Fields.Add(&core.TextField{Name: "gst_number"})
		c.Fields.Add(&core.TextField{Name: "contact_person"})
		c.Fields.Add(&core.TextField{Name: "mobile_numbers"})
		addTimestamps(c)
		c.AddIndex("idx_customers_name", true, "name", "")
	})

	ensureCollection(app, "materials", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "part_number", Required: true})
		c.Fields.Add(&core.TextField{Name: "length"})
		c.Fields.Add(&core.TextField{Name: "width"})
		c.Fields.Add(&core.TextField{Name: "thickness"})
		c.Fields.Add(&core.TextField{Name: "material"})
		c.Fields.Add(&core.TextField{Name: "weight"})
		c.Fields.Add(&core.TextField{Name: "rate"})
		c.Fields.Add(&core.DateField{Name: "date"})
		addTimestamps(c)
		c.AddIndex("idx_materials_part_number", true, "part_number", "")
	})

	ensureCollection(app, "rfqs", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "rfq_number", Required: true})
		c.Fields.Add(&core.TextField{Name: "customer_name"})
		c.Fields.Add(&core.TextField{Name: "project_number"})
		c.Fields.Add(&core.TextField{Name: "subject"})
		c.Fields.Add(&core.DateField{Name: "date"})
		c.Fields.Add(&core.SelectField{Name: "status", Values: StatusValues, MaxSelect: 1})
		addTimestamps(c)
		c.AddIndex("idx_rfqs_rfq_number", true, "rfq_number", "")
	})

	ensureCollection(app, "drawings", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "rfq_number", Required: true})
		c.Fields.Add(&core.TextField{Name: "drawing_number", Required: true})
		c.Fields.Add(&core.TextField{Name: "drawing_quantity"})
		c.Fields.Add(&core.NumberField{Name: "total_weight"})
		c.Fields.Add(&core.NumberField{Name: "avg_rate"})
		c.Fields.Add(&core.NumberField{Name: "total_amount"})
		addTimestamps(c)
		c.AddIndex("idx_drawings_rfq_drawing", true, "rfq_number, drawing_number", "")
	})

	// Numeric part values are kept as entered (text); the pricing code
	// parses them with a default of zero.
	ensureCollection(app, "parts", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "rfq_number", Required: true})
		c.Fields.Add(&core.TextField{Name: "drawing_number", Required: true})
		c.Fields.Add(&core.TextField{Name: "part_name", Required: true})
		c.Fields.Add(&core.TextField{Name: "material"})
		c.Fields.Add(&core.TextField{Name: "grade"})
		c.Fields.Add(&core.TextField{Name: "quantity"})
		c.Fields.Add(&core.TextField{Name: "weight"})
		c.Fields.Add(&core.TextField{Name: "overhead"})
		c.Fields.Add(&core.TextField{Name: "rate"})
		c.Fields.Add(&core.TextField{Name: "labour"})
		c.Fields.Add(&core.TextField{Name: "laser_cut"})
		c.Fields.Add(&core.TextField{Name: "primer"})
		addTimestamps(c)
	})

	ensureCollection(app, "quotations", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "rfq_serial_number", Required: true})
		c.Fields.Add(&core.NumberField{Name: "revision_number", OnlyInt: true})
		c.Fields.Add(&core.DateField{Name: "quotation_date"})
		c.Fields.Add(&core.SelectField{Name: "status", Values: StatusValues, MaxSelect: 1})
		c.Fields.Add(&core.NumberField{Name: "total_weight"})
		c.Fields.Add(&core.NumberField{Name: "total_rate"})
		c.Fields.Add(&core.NumberField{Name: "total_amount"})
		c.Fields.Add(&core.TextField{Name: "reason"})
		c.Fields.Add(&core.SelectField{Name: "loss_reason", Values: LossReasonValues, MaxSelect: 1})
		c.Fields.Add(&core.DateField{Name: "approval_date"})
		addTimestamps(c)
	})

	// The revision log names its status and date fields differently from
	// the primary collection; services normalize both shapes.
	ensureCollection(app, "quotation_revisions", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "rfq_serial_number", Required: true})
		c.Fields.Add(&core.NumberField{Name: "revision_number", OnlyInt: true})
		c.Fields.Add(&core.DateField{Name: "revision_date"})
		c.Fields.Add(&core.SelectField{Name: "revision_status", Values: StatusValues, MaxSelect: 1})
		c.Fields.Add(&core.NumberField{Name: "total_weight"})
		c.Fields.Add(&core.NumberField{Name: "total_rate"})
		c.Fields.Add(&core.NumberField{Name: "total_amount"})
		c.Fields.Add(&core.TextField{Name: "reason"})
		c.Fields.Add(&core.SelectField{Name: "loss_reason", Values: LossReasonValues, MaxSelect: 1})
		c.Fields.Add(&core.DateField{Name: "approval_date"})
		addTimestamps(c)
		c.AddIndex("idx_quotation_revisions_rfq_rev", true, "rfq_serial_number, revision_number", "")
	})

	ensureCollection(app, "rate_history", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "part_number", Required: true})
		c.Fields.Add(&core.TextField{Name: "material"})
		c.Fields.Add(&core.TextField{Name: "rate"})
		c.Fields.Add(&core.DateField{Name: "date"})
		addTimestamps(c)
	})

	ensureCollection(app, "purchase_orders", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "rfq_serial_number", Required: true})
		c.Fields.Add(&core.TextField{Name: "po_number", Required: true})
		c.Fields.Add(&core.DateField{Name: "po_date"})
		c.Fields.Add(&core.TextField{Name: "fiscal_year"})
		c.Fields.Add(&core.TextField{Name: "rate_by_customer"})
		c.Fields.Add(&core.NumberField{Name: "total_weight"})
		c.Fields.Add(&core.NumberField{Name: "total_rate"})
		c.Fields.Add(&core.NumberField{Name: "total_amount"})
		addTimestamps(c)
		c.AddIndex("idx_purchase_orders_rfq", true, "rfq_serial_number", "")
	})

	ensureCollection(app, "status_transitions", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "transition_id", Required: true})
		c.Fields.Add(&core.TextField{Name: "rfq_number", Required: true})
		c.Fields.Add(&core.TextField{Name: "action", Required: true})
		c.Fields.Add(&core.TextField{Name: "from_status"})
		c.Fields.Add(&core.TextField{Name: "to_status"})
		c.Fields.Add(&core.TextField{Name: "reason"})
		c.Fields.Add(&core.JSONField{Name: "failed_writes"})
		addTimestamps(c)
	})
}

func addTimestamps(c *core.Collection) {
	c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
	c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
}

// ensureCollection checks if a collection already exists by name. If it does,
// the existing collection is returned. Otherwise a new base collection is
// created, the addFields callback is invoked to populate its fields, and the
// collection is saved.
func ensureCollection(app *pocketbase.PocketBase, name string, addFields func(*core.Collection)) *core.Collection {
	existing, err := app.FindCollectionByNameOrId(name)
	if err == nil && existing != nil {
		log.Printf("Collection %q already exists, skipping creation.\n", name)
		return existing
	}

	collection := core.NewBaseCollection(name)
	addFields(collection)

	if err := app.Save(collection); err != nil {
		log.Fatalf("Failed to create collection %q: %v", name, err)
	}

	fmt.Printf("Created collection %q (id=%s)\n", name, collection.Id)
	return collection
}
