package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"salesquote/store"
)

// DraftInput is an edited part table saved without a status change.
type DraftInput struct {
	Drawings []Drawing
	// Date is the quotation date; rate history is only recorded when set.
	Date time.Time
}

type DraftResult struct {
	RFQ    string          `json:"rfq"`
	Totals QuotationTotals `json:"totals"`
	Writes []WriteOutcome  `json:"writes"`
}

// SaveDraft writes part values and drawing totals back, refreshes the
// material catalog entry of every part and appends rate history. Every
// write is attempted; failures are joined under ErrPartialSave.
func (w *Workflow) SaveDraft(ctx context.Context, rfq string, in DraftInput) (*DraftResult, error) {
	if len(in.Drawings) == 0 {
		return nil, invalid("drawings", ErrNoDrawings)
	}
	if _, err := w.rfqRows(ctx, rfq); err != nil {
		return nil, err
	}

	var log writeLog
	w.saveDrawings(ctx, &log, rfq, in.Drawings)
	for _, d := range in.Drawings {
		for _, p := range d.Parts {
			w.saveCatalog(ctx, &log, p, in.Date)
		}
	}

	res := &DraftResult{RFQ: rfq, Totals: CalcQuotationTotals(in.Drawings), Writes: log.writes}
	var failed int
	for _, wr := range log.writes {
		if wr.Failed() {
			failed++
			w.logger.Error().Err(wr.err).Str("rfq", rfq).Str("collection", wr.Collection).Msg("draft write failed")
		}
	}
	if failed > 0 {
		return res, fmt.Errorf("%w: %d of %d writes failed for %s", ErrPartialSave, failed, len(log.writes), rfq)
	}
	return res, nil
}

func (w *Workflow) saveCatalog(ctx context.Context, log *writeLog, p Part, date time.Time) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return
	}
	rows, err := w.store.Query(ctx, CollectionMaterials, store.Filter{"part_number": name}, "part_number")
	if err != nil {
		log.record(CollectionMaterials, "", false, err)
		return
	}
	for _, row := range rows {
		log.record(CollectionMaterials, row.ID, false, w.store.UpdateByID(ctx, CollectionMaterials, row.ID, map[string]any{
			"material": p.Material,
			"weight":   p.Weight,
			"rate":     p.Rate,
		}))
	}

	if date.IsZero() || strings.TrimSpace(p.Rate) == "" {
		return
	}
	id, err := w.store.Insert(ctx, CollectionRateHistory, map[string]any{
		"part_number": name,
		"material":    p.Material,
		"rate":        p.Rate,
		"date":        date,
	})
	log.record(CollectionRateHistory, id, false, err)
}
