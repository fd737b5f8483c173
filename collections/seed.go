package collections

import (
	"fmt"
	"log"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

type partDef struct {
	name, material, grade, quantity string
	weight, overhead, rate, labour  string
	laserCut, primer                string
}

type drawingDef struct {
	number   string
	quantity string
	parts    []partDef
}

type rfqDef struct {
	number    string
	customer  string
	project   string
	subject   string
	date      time.Time
	status    string
	drawings  []drawingDef
	quotation *quotationDef
}

type quotationDef struct {
	date        time.Time
	status      string
	totalWeight float64
	totalRate   float64
	totalAmount float64
}

var seedCustomers = []map[string]any{
	{
		"name":           "Kalyani Structurals Pvt. Ltd.",
		"address":        "Gat No. 214, Chakan MIDC\nPune",
		"email":          "purchase@kalyanistructurals.example",
		"gst_number":     "27AAACK1234F1Z5",
		"contact_person": "Mr. S. Deshpande",
		"mobile_numbers": "9822012345",
	},
	{
		"name":           "Deccan Conveyors",
		"address":        "Plot 7, Bhosari Industrial Area\nPune",
		"email":          "projects@deccanconveyors.example",
		"contact_person": "Ms. A. Patil",
		"mobile_numbers": "9890098900",
	},
}

var seedMaterials = []map[string]any{
	{"part_number": "BRK-01", "material": "MS", "thickness": "8", "weight": "10", "rate": "85"},
	{"part_number": "GUS-02", "material": "MS", "thickness": "6", "weight": "4.5", "rate": "82"},
	{"part_number": "PLT-10", "material": "SS304", "thickness": "3", "weight": "2.2", "rate": "240"},
}

var seedRFQs = []rfqDef{
	{
		number:   "RFQ-1001",
		customer: "Kalyani Structurals Pvt. Ltd.",
		project:  "KS-PRJ-22",
		subject:  "Fabrication of column brackets",
		date:     time.Date(2025, 4, 3, 0, 0, 0, 0, time.UTC),
		status:   "Todo",
		drawings: []drawingDef{{
			number:   "KS-DRG-101",
			quantity: "12",
			parts: []partDef{
				{name: "BRK-01", material: "MS", grade: "E250", quantity: "2", weight: "10", overhead: "0.5", rate: "85", labour: "12", laserCut: "6"},
				{name: "GUS-02", material: "MS", grade: "E250", quantity: "4", weight: "4.5", overhead: "0.2", rate: "82", labour: "12", primer: "3"},
			},
		}},
	},
	{
		number:   "RFQ-1002",
		customer: "Deccan Conveyors",
		project:  "DC-77",
		subject:  "Conveyor side plates",
		date:     time.Date(2025, 4, 8, 0, 0, 0, 0, time.UTC),
		status:   "Waiting",
		drawings: []drawingDef{{
			number:   "DC-SP-01",
			quantity: "2",
			parts: []partDef{
				{name: "A", material: "MS", grade: "E250", quantity: "1", weight: "10", overhead: "0", rate: "5", labour: "1"},
				{name: "B", material: "MS", grade: "E250", quantity: "1", weight: "20", overhead: "5", rate: "3", laserCut: "2", primer: "1"},
			},
		}},
		quotation: &quotationDef{
			date:        time.Date(2025, 4, 12, 0, 0, 0, 0, time.UTC),
			status:      "Waiting",
			totalWeight: 35,
			totalRate:   6,
			totalAmount: 210,
		},
	},
}

// Seed populates the catalog and a couple of RFQs for a fresh install. It
// is safe to call on every startup because it returns early once any RFQ
// exists.
func Seed(app *pocketbase.PocketBase) error {
	rfqsCol, err := app.FindCollectionByNameOrId("rfqs")
	if err != nil {
		return fmt.Errorf("seed: could not find rfqs collection: %w", err)
	}
	existing, err := app.FindAllRecords(rfqsCol)
	if err != nil {
		return fmt.Errorf("seed: could not query rfqs: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	log.Println("seed: rfqs collection is empty, inserting seed data")

	insert := func(collection string, fields map[string]any) error {
		col, err := app.FindCollectionByNameOrId(collection)
		if err != nil {
			return fmt.Errorf("seed: could not find %s collection: %w", collection, err)
		}
		rec := core.NewRecord(col)
		for k, v := range fields {
			rec.Set(k, v)
		}
		if err := app.Save(rec); err != nil {
			return fmt.Errorf("seed: save %s: %w", collection, err)
		}
		return nil
	}

	for _, c := range seedCustomers {
		if err := insert("customers", c); err != nil {
			return err
		}
	}
	for _, m := range seedMaterials {
		if err := insert("materials", m); err != nil {
			return err
		}
	}

	for _, r := range seedRFQs {
		err := insert("rfqs", map[string]any{
			"rfq_number":     r.number,
			"customer_name":  r.customer,
			"project_number": r.project,
			"subject":        r.subject,
			"date":           r.date,
			"status":         r.status,
		})
		if err != nil {
			return err
		}

		for _, d := range r.drawings {
			err := insert("drawings", map[string]any{
				"rfq_number":       r.number,
				"drawing_number":   d.number,
				"drawing_quantity": d.quantity,
			})
			if err != nil {
				return err
			}
			for _, p := range d.parts {
				err := insert("parts", map[string]any{
					"rfq_number":     r.number,
					"drawing_number": d.number,
					"part_name":      p.name,
					"material":       p.material,
					"grade":          p.grade,
					"quantity":       p.quantity,
					"weight":         p.weight,
					"overhead":       p.overhead,
					"rate":           p.rate,
					"labour":         p.labour,
					"laser_cut":      p.laserCut,
					"primer":         p.primer,
				})
				if err != nil {
					return err
				}
			}
		}

		if q := r.quotation; q != nil {
			err := insert("quotations", map[string]any{
				"rfq_serial_number": r.number,
				"revision_number":   0,
				"quotation_date":    q.date,
				"status":            q.status,
				"total_weight":      q.totalWeight,
				"total_rate":        q.totalRate,
				"total_amount":      q.totalAmount,
			})
			if err != nil {
				return err
			}
		}
		log.Printf("seed: RFQ %s (%s) with %d drawing(s)\n", r.number, r.status, len(r.drawings))
	}

	log.Println("seed: done")
	return nil
}
