package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"salesquote/store"
)

// AuditEntry is one row of the transition log.
type AuditEntry struct {
	ID           string          `json:"id"`
	RFQ          string          `json:"rfq"`
	Action       Action          `json:"action"`
	From         Status          `json:"from"`
	To           Status          `json:"to"`
	Reason       string          `json:"reason,omitempty"`
	FailedWrites json.RawMessage `json:"failedWrites,omitempty"`
	Created      time.Time       `json:"created"`
}

type QuoteHistory struct {
	Revisions   []QuotationRecord `json:"revisions"`
	Transitions []AuditEntry      `json:"transitions"`
}

// History lists every revision of rfq and the transitions applied to it,
// oldest first.
func (w *Workflow) History(ctx context.Context, rfq string) (*QuoteHistory, error) {
	revs, err := w.resolver.Family(ctx, rfq)
	if err != nil {
		return nil, fmt.Errorf("load revisions %s: %w", rfq, err)
	}
	rows, err := w.store.Query(ctx, CollectionTransitions, store.Filter{"rfq_number": rfq})
	if err != nil {
		return nil, fmt.Errorf("load transitions %s: %w", rfq, err)
	}
	h := &QuoteHistory{Revisions: revs, Transitions: make([]AuditEntry, 0, len(rows))}
	for _, row := range rows {
		h.Transitions = append(h.Transitions, AuditEntry{
			ID:           row.String("transition_id"),
			RFQ:          row.String("rfq_number"),
			Action:       Action(row.String("action")),
			From:         Status(row.String("from_status")),
			To:           Status(row.String("to_status")),
			Reason:       row.String("reason"),
			FailedWrites: rawJSON(row.Data["failed_writes"]),
			Created:      row.Time("created"),
		})
	}
	return h, nil
}

func rawJSON(v any) json.RawMessage {
	switch t := v.(type) {
	case nil:
		return nil
	case json.RawMessage:
		return t
	case []byte:
		return json.RawMessage(t)
	case fmt.Stringer:
		return json.RawMessage(t.String())
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}

// DeleteRFQChildren removes the drawings and parts of a deleted RFQ. Every
// delete is attempted.
func DeleteRFQChildren(ctx context.Context, st store.Store, rfq string) error {
	var errs []error
	for _, collection := range []string{CollectionParts, CollectionDrawings} {
		rows, err := st.Query(ctx, collection, store.Filter{"rfq_number": rfq}, "rfq_number")
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, row := range rows {
			if err := st.DeleteByID(ctx, collection, row.ID); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
