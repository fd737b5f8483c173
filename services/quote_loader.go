package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"salesquote/store"
)

type RFQ struct {
	ID            string    `json:"id"`
	Number        string    `json:"number"`
	CustomerName  string    `json:"customerName"`
	ProjectNumber string    `json:"projectNumber"`
	Subject       string    `json:"subject"`
	Date          time.Time `json:"date"`
	Status        Status    `json:"status"`
}

// QuotedDrawing is a drawing with its computed totals.
type QuotedDrawing struct {
	Drawing
	Totals DrawingTotals `json:"totals"`
}

// Quotation is everything needed to show or export one quotation.
type Quotation struct {
	RFQ      RFQ              `json:"rfq"`
	Customer *Customer        `json:"customer,omitempty"`
	Drawings []QuotedDrawing  `json:"drawings"`
	Totals   QuotationTotals  `json:"totals"`
	Current  *QuotationRecord `json:"current,omitempty"`
}

// Loader assembles quotations from the store.
type Loader struct {
	store    store.Store
	resolver *Resolver
	lookups  *Lookups
	logger   zerolog.Logger
}

func NewLoader(st store.Store, resolver *Resolver, lookups *Lookups, logger zerolog.Logger) *Loader {
	return &Loader{
		store:    st,
		resolver: resolver,
		lookups:  lookups,
		logger:   logger.With().Str("component", "loader").Logger(),
	}
}

// Load reads the RFQ, its customer, drawings and parts. Empty part weight,
// rate and material are filled from the material catalog. The current
// record is resolved for status, or for the RFQ's own status when status is
// empty.
func (l *Loader) Load(ctx context.Context, rfqNumber string, status Status) (*Quotation, error) {
	rows, err := l.store.Query(ctx, CollectionRFQs, store.Filter{"rfq_number": rfqNumber})
	if err != nil {
		return nil, fmt.Errorf("load RFQ %s: %w", rfqNumber, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("RFQ %s: %w", rfqNumber, ErrNotFound)
	}
	row := rows[0]
	q := &Quotation{RFQ: RFQ{
		ID:            row.ID,
		Number:        row.String("rfq_number"),
		CustomerName:  row.String("customer_name"),
		ProjectNumber: row.String("project_number"),
		Subject:       row.String("subject"),
		Date:          row.Time("date"),
		Status:        rfqStatus(row),
	}}

	if q.RFQ.CustomerName != "" {
		c, err := l.lookups.Customers.Get(ctx, q.RFQ.CustomerName)
		switch {
		case err == nil:
			q.Customer = &c
		case errors.Is(err, ErrNotFound):
			l.logger.Debug().Str("customer", q.RFQ.CustomerName).Msg("customer not in catalog")
		default:
			l.logger.Warn().Err(err).Str("customer", q.RFQ.CustomerName).Msg("customer lookup failed")
		}
	}

	drawings, err := l.drawings(ctx, rfqNumber)
	if err != nil {
		return nil, err
	}
	plain := make([]Drawing, 0, len(drawings))
	for i := range drawings {
		drawings[i].Totals = CalcDrawingTotals(drawings[i].Parts)
		plain = append(plain, drawings[i].Drawing)
	}
	q.Drawings = drawings
	q.Totals = CalcQuotationTotals(plain)

	if status == "" {
		status = q.RFQ.Status
	}
	q.Current = l.resolver.Resolve(ctx, rfqNumber, status, false)
	return q, nil
}

func (l *Loader) drawings(ctx context.Context, rfq string) ([]QuotedDrawing, error) {
	drows, err := l.store.Query(ctx, CollectionDrawings, store.Filter{"rfq_number": rfq})
	if err != nil {
		return nil, fmt.Errorf("load drawings %s: %w", rfq, err)
	}
	prows, err := l.store.Query(ctx, CollectionParts, store.Filter{"rfq_number": rfq})
	if err != nil {
		return nil, fmt.Errorf("load parts %s: %w", rfq, err)
	}

	var out []QuotedDrawing
	index := make(map[string]int)
	add := func(number, id, qty string) int {
		if i, ok := index[number]; ok {
			return i
		}
		index[number] = len(out)
		out = append(out, QuotedDrawing{Drawing: Drawing{ID: id, Number: number, Quantity: qty, Parts: []Part{}}})
		return len(out) - 1
	}
	for _, d := range drows {
		add(d.String("drawing_number"), d.ID, d.String("drawing_quantity"))
	}
	for _, p := range prows {
		i := add(p.String("drawing_number"), "", "")
		part := Part{
			ID:       p.ID,
			Name:     p.String("part_name"),
			Material: p.String("material"),
			Grade:    p.String("grade"),
			Quantity: p.String("quantity"),
			Weight:   p.String("weight"),
			Overhead: p.String("overhead"),
			Rate:     p.String("rate"),
			Labour:   p.String("labour"),
			LaserCut: p.String("laser_cut"),
			Primer:   p.String("primer"),
		}
		out[i].Parts = append(out[i].Parts, l.fillFromCatalog(ctx, part))
	}
	return out, nil
}

func (l *Loader) fillFromCatalog(ctx context.Context, p Part) Part {
	blank := func(s string) bool { return strings.TrimSpace(s) == "" }
	if !blank(p.Weight) && !blank(p.Rate) && !blank(p.Material) {
		return p
	}
	m, err := l.lookups.Materials.Get(ctx, p.Name)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			l.logger.Warn().Err(err).Str("part", p.Name).Msg("material lookup failed")
		}
		return p
	}
	if blank(p.Weight) {
		p.Weight = m.Weight
	}
	if blank(p.Rate) {
		p.Rate = m.Rate
	}
	if blank(p.Material) {
		p.Material = m.Material
	}
	return p
}
