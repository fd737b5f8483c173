package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"salesquote/store"
)

var ErrPONumberRequired = errors.New("PO number is required")

type PurchaseOrder struct {
	ID             string    `json:"id"`
	RFQ            string    `json:"rfq"`
	Number         string    `json:"number"`
	Date           time.Time `json:"date"`
	FiscalYear     string    `json:"fiscalYear"`
	RateByCustomer string    `json:"rateByCustomer"`
	TotalWeight    float64   `json:"totalWeight"`
	TotalRate      float64   `json:"totalRate"`
	TotalAmount    float64   `json:"totalAmount"`
}

type POInput struct {
	Number         string    `json:"number"`
	Date           time.Time `json:"date"`
	RateByCustomer string    `json:"rateByCustomer"`
}

// PurchaseOrders records customer POs against won quotations.
type PurchaseOrders struct {
	store    store.Store
	resolver *Resolver
}

func NewPurchaseOrders(st store.Store, resolver *Resolver) *PurchaseOrders {
	return &PurchaseOrders{store: st, resolver: resolver}
}

// Save creates or replaces the PO of a Won RFQ. Totals are copied from the
// current Won revision.
func (p *PurchaseOrders) Save(ctx context.Context, rfq string, in POInput) (*PurchaseOrder, error) {
	in.Number = strings.TrimSpace(in.Number)
	if in.Number == "" {
		return nil, invalid("number", ErrPONumberRequired)
	}
	won, err := p.resolver.resolve(ctx, rfq, StatusWon, false)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", rfq, err)
	}
	if won == nil {
		return nil, invalid("status", fmt.Errorf("%w: RFQ %s is not Won", ErrInvalidTransition, rfq))
	}

	po := &PurchaseOrder{
		RFQ:            rfq,
		Number:         in.Number,
		Date:           in.Date,
		FiscalYear:     FiscalYear(in.Date),
		RateByCustomer: strings.TrimSpace(in.RateByCustomer),
		TotalWeight:    won.TotalWeight,
		TotalRate:      won.TotalRate,
		TotalAmount:    won.TotalAmount,
	}
	data := map[string]any{
		"rfq_serial_number": rfq,
		"po_number":         po.Number,
		"po_date":           po.Date,
		"fiscal_year":       po.FiscalYear,
		"rate_by_customer":  po.RateByCustomer,
		"total_weight":      po.TotalWeight,
		"total_rate":        po.TotalRate,
		"total_amount":      po.TotalAmount,
	}

	rows, err := p.store.Query(ctx, CollectionPOs, store.Filter{"rfq_serial_number": rfq}, "rfq_serial_number")
	if err != nil {
		return nil, fmt.Errorf("load PO %s: %w", rfq, err)
	}
	if len(rows) == 0 {
		id, err := p.store.Insert(ctx, CollectionPOs, data)
		if err != nil {
			return nil, fmt.Errorf("save PO %s: %w", rfq, err)
		}
		po.ID = id
		return po, nil
	}
	po.ID = rows[0].ID
	if err := p.store.UpdateByID(ctx, CollectionPOs, po.ID, data); err != nil {
		return nil, fmt.Errorf("save PO %s: %w", rfq, err)
	}
	return po, nil
}

// Get returns the PO recorded for rfq.
func (p *PurchaseOrders) Get(ctx context.Context, rfq string) (*PurchaseOrder, error) {
	row, err := findOne(ctx, p.store, CollectionPOs, store.Filter{"rfq_serial_number": rfq})
	if err != nil {
		return nil, err
	}
	return &PurchaseOrder{
		ID:             row.ID,
		RFQ:            row.String("rfq_serial_number"),
		Number:         row.String("po_number"),
		Date:           row.Time("po_date"),
		FiscalYear:     row.String("fiscal_year"),
		RateByCustomer: row.String("rate_by_customer"),
		TotalWeight:    row.Float("total_weight"),
		TotalRate:      row.Float("total_rate"),
		TotalAmount:    row.Float("total_amount"),
	}, nil
}
