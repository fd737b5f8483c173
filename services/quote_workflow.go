package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"salesquote/store"
)

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrReasonRequired    = errors.New("reason is required")
	ErrUnknownLossReason = errors.New("unknown loss reason")
	ErrNoDrawings        = errors.New("quotation has no drawings")
	ErrPartialTransition = errors.New("status transition partially applied")
	ErrPartialSave       = errors.New("draft partially saved")
	ErrNotFound          = errors.New("not found")
)

// ValidationError reports input or state rejected before any write.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// WriteOutcome is the result of one store write made during a transition.
type WriteOutcome struct {
	Collection string `json:"collection"`
	ID         string `json:"id,omitempty"`
	Required   bool   `json:"required"`
	Deleted    bool   `json:"deleted,omitempty"`
	Error      string `json:"error,omitempty"`

	err error
}

func (w WriteOutcome) Failed() bool { return w.err != nil }

// TransitionResult records every write attempted by one transition. Writes
// are never rolled back.
type TransitionResult struct {
	ID     string         `json:"id"`
	RFQ    string         `json:"rfq"`
	Action Action         `json:"action"`
	From   Status         `json:"from"`
	To     Status         `json:"to"`
	Reason string         `json:"reason,omitempty"`
	Writes []WriteOutcome `json:"writes"`
}

// Failed returns the writes that did not succeed.
func (r *TransitionResult) Failed() []WriteOutcome {
	var out []WriteOutcome
	for _, w := range r.Writes {
		if w.Failed() {
			out = append(out, w)
		}
	}
	return out
}

// Err joins the failed required writes under ErrPartialTransition, or
// returns nil when every required write succeeded.
func (r *TransitionResult) Err() error {
	var errs []error
	for _, w := range r.Writes {
		if w.Required && w.err != nil {
			errs = append(errs, w.err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s %s: %w", ErrPartialTransition, r.Action, r.RFQ, errors.Join(errs...))
}

// writeLog collects outcomes while a transition fans out.
type writeLog struct {
	writes []WriteOutcome
}

func (l *writeLog) record(collection, id string, required bool, err error) {
	w := WriteOutcome{Collection: collection, ID: id, Required: required, err: err}
	if err != nil {
		w.Error = err.Error()
	}
	l.writes = append(l.writes, w)
}

func (l *writeLog) recordDelete(collection, id string, err error) {
	l.record(collection, id, false, err)
	l.writes[len(l.writes)-1].Deleted = true
}

// Workflow applies status transitions to a quotation, its revision history
// and its RFQ.
type Workflow struct {
	store    store.Store
	resolver *Resolver
	logger   zerolog.Logger
	now      func() time.Time
}

func NewWorkflow(st store.Store, resolver *Resolver, logger zerolog.Logger) *Workflow {
	return &Workflow{
		store:    st,
		resolver: resolver,
		logger:   logger.With().Str("component", "workflow").Logger(),
		now:      time.Now,
	}
}

// SubmitInput carries the priced drawings of a quotation.
type SubmitInput struct {
	Drawings []Drawing
	Date     time.Time
}

// Submit prices a Todo RFQ and moves it to WorkingDone.
func (w *Workflow) Submit(ctx context.Context, rfq string, in SubmitInput) (*TransitionResult, error) {
	if len(in.Drawings) == 0 {
		return nil, invalid("drawings", ErrNoDrawings)
	}
	t, _ := TransitionFor(ActionSubmit)
	rfqRows, err := w.rfqRows(ctx, rfq)
	if err != nil {
		return nil, err
	}
	for _, row := range rfqRows {
		if rfqStatus(row) != t.From {
			return nil, invalid("status", fmt.Errorf("%w: RFQ %s is %s, not %s", ErrInvalidTransition, rfq, rfqStatus(row), t.From))
		}
	}
	primary, err := w.store.Query(ctx, CollectionQuotations, store.Filter{"rfq_serial_number": rfq})
	if err != nil {
		return nil, fmt.Errorf("load quotation %s: %w", rfq, err)
	}
	revisions, err := w.store.Query(ctx, CollectionRevisions, store.Filter{"rfq_serial_number": rfq}, "rfq_serial_number", "revision_number")
	if err != nil {
		return nil, fmt.Errorf("load revisions %s: %w", rfq, err)
	}

	date := in.Date
	if date.IsZero() {
		date = w.now()
	}
	totals := CalcQuotationTotals(in.Drawings)
	data := map[string]any{
		"rfq_serial_number": rfq,
		"quotation_date":    date,
		"status":            string(t.To),
		"total_weight":      totals.TotalWeight,
		"total_rate":        totals.AvgRate,
		"total_amount":      totals.TotalAmount,
		"reason":            "",
	}

	var log writeLog
	switch {
	case len(revisions) > 0:
		// A rejected revision is re-priced as the next revision so the
		// highest WorkingDone record carries the new totals.
		var next Revision = 1
		for _, row := range revisions {
			if rev := Revision(row.Int("revision_number")); rev >= next {
				next = rev + 1
			}
		}
		w.appendRevision(ctx, &log, rfq, next, date, t.To, totals)
		w.updateRows(ctx, &log, CollectionQuotations, primary, true, map[string]any{"status": string(t.To), "reason": ""})
		w.updateRows(ctx, &log, CollectionRevisions, revisions, false, map[string]any{"revision_status": string(t.To), "reason": ""})
	case len(primary) == 0:
		data["revision_number"] = 0
		id, err := w.store.Insert(ctx, CollectionQuotations, data)
		log.record(CollectionQuotations, id, true, err)
	default:
		w.updateRows(ctx, &log, CollectionQuotations, primary, true, data)
	}
	w.updateRows(ctx, &log, CollectionRFQs, rfqRows, true, map[string]any{"status": string(t.To)})
	w.saveDrawings(ctx, &log, rfq, in.Drawings)

	return w.finish(ctx, &TransitionResult{RFQ: rfq, Action: ActionSubmit, From: t.From, To: t.To}, &log)
}

// Approve moves a WorkingDone quotation to Approved and stamps the approval
// time.
func (w *Workflow) Approve(ctx context.Context, rfq string) (*TransitionResult, error) {
	now := w.now()
	return w.apply(ctx, rfq, ActionApprove, "", func(statusField string) map[string]any {
		return map[string]any{statusField: string(StatusApproved), "approval_date": now}
	})
}

// Reject returns a WorkingDone quotation to Todo. The reason is required.
func (w *Workflow) Reject(ctx context.Context, rfq, reason string) (*TransitionResult, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, invalid("reason", ErrReasonRequired)
	}
	return w.apply(ctx, rfq, ActionReject, reason, func(statusField string) map[string]any {
		return map[string]any{statusField: string(StatusTodo), "reason": reason}
	})
}

func (w *Workflow) Send(ctx context.Context, rfq string) (*TransitionResult, error) {
	return w.apply(ctx, rfq, ActionSend, "", statusOnly(StatusWaiting))
}

func (w *Workflow) Win(ctx context.Context, rfq string) (*TransitionResult, error) {
	return w.apply(ctx, rfq, ActionWin, "", statusOnly(StatusWon))
}

// Lose marks a Waiting quotation as lost for one of the LossReasons.
func (w *Workflow) Lose(ctx context.Context, rfq, reason string) (*TransitionResult, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, invalid("lossReason", ErrReasonRequired)
	}
	lr, ok := ParseLossReason(reason)
	if !ok {
		return nil, invalid("lossReason", fmt.Errorf("%w: %q", ErrUnknownLossReason, reason))
	}
	return w.apply(ctx, rfq, ActionLose, string(lr), func(statusField string) map[string]any {
		return map[string]any{statusField: string(StatusLoss), "loss_reason": string(lr)}
	})
}

func (w *Workflow) Revise(ctx context.Context, rfq string) (*TransitionResult, error) {
	return w.apply(ctx, rfq, ActionRevise, "", statusOnly(StatusRevised))
}

// ResubmitInput carries the re-priced drawings of a revised quotation.
type ResubmitInput struct {
	Drawings []Drawing
	Date     time.Time
}

// Resubmit appends the next revision of a Revised quotation and moves the
// RFQ back to WorkingDone. Earlier revisions are never overwritten.
func (w *Workflow) Resubmit(ctx context.Context, rfq string, in ResubmitInput) (*TransitionResult, error) {
	if len(in.Drawings) == 0 {
		return nil, invalid("drawings", ErrNoDrawings)
	}
	t, _ := TransitionFor(ActionResubmit)
	if _, err := w.current(ctx, rfq, t.From); err != nil {
		return nil, err
	}
	family, err := w.resolver.Family(ctx, rfq)
	if err != nil {
		return nil, fmt.Errorf("load revisions %s: %w", rfq, err)
	}
	rfqRows, err := w.rfqRows(ctx, rfq)
	if err != nil {
		return nil, err
	}

	var next Revision = 1
	var primary, older []QuotationRecord
	for _, rec := range family {
		if rec.Source == SourcePrimary {
			primary = append(primary, rec)
			continue
		}
		older = append(older, rec)
		if rec.Revision >= next {
			next = rec.Revision + 1
		}
	}

	date := in.Date
	if date.IsZero() {
		date = w.now()
	}
	totals := CalcQuotationTotals(in.Drawings)

	var log writeLog
	w.appendRevision(ctx, &log, rfq, next, date, t.To, totals)
	for _, rec := range primary {
		log.record(CollectionQuotations, rec.ID, true,
			w.store.UpdateByID(ctx, CollectionQuotations, rec.ID, map[string]any{"status": string(t.To)}))
	}
	w.updateRows(ctx, &log, CollectionRFQs, rfqRows, true, map[string]any{"status": string(t.To)})
	for _, rec := range older {
		log.record(CollectionRevisions, rec.ID, false,
			w.store.UpdateByID(ctx, CollectionRevisions, rec.ID, map[string]any{"revision_status": string(t.To)}))
	}
	w.saveDrawings(ctx, &log, rfq, in.Drawings)

	return w.finish(ctx, &TransitionResult{RFQ: rfq, Action: ActionResubmit, From: t.From, To: t.To}, &log)
}

// appendRevision inserts revision rev as a required write.
func (w *Workflow) appendRevision(ctx context.Context, log *writeLog, rfq string, rev Revision, date time.Time, status Status, totals QuotationTotals) {
	id, err := w.store.Insert(ctx, CollectionRevisions, map[string]any{
		"rfq_serial_number": rfq,
		"revision_number":   int(rev),
		"revision_date":     date,
		"revision_status":   string(status),
		"total_weight":      totals.TotalWeight,
		"total_rate":        totals.AvgRate,
		"total_amount":      totals.TotalAmount,
	})
	log.record(CollectionRevisions, id, true, err)
}

func statusOnly(to Status) func(string) map[string]any {
	return func(statusField string) map[string]any {
		return map[string]any{statusField: string(to)}
	}
}

// apply runs a status-only transition: every primary record and the RFQ are
// required writes, revision-history records are best-effort. fields builds
// the update for a collection given the name of its status field.
func (w *Workflow) apply(ctx context.Context, rfq string, action Action, reason string, fields func(statusField string) map[string]any) (*TransitionResult, error) {
	t, ok := TransitionFor(action)
	if !ok {
		return nil, invalid("action", fmt.Errorf("%w: %s", ErrInvalidTransition, action))
	}
	if _, err := w.current(ctx, rfq, t.From); err != nil {
		return nil, err
	}
	family, err := w.resolver.Family(ctx, rfq)
	if err != nil {
		return nil, fmt.Errorf("load revisions %s: %w", rfq, err)
	}
	rfqRows, err := w.rfqRows(ctx, rfq)
	if err != nil {
		return nil, err
	}

	var log writeLog
	for _, rec := range family {
		if rec.Source != SourcePrimary {
			continue
		}
		log.record(CollectionQuotations, rec.ID, true,
			w.store.UpdateByID(ctx, CollectionQuotations, rec.ID, fields(primaryAdapter.statusField())))
	}
	w.updateRows(ctx, &log, CollectionRFQs, rfqRows, true, map[string]any{"status": string(t.To)})
	for _, rec := range family {
		if rec.Source != SourceRevision {
			continue
		}
		log.record(CollectionRevisions, rec.ID, false,
			w.store.UpdateByID(ctx, CollectionRevisions, rec.ID, fields(revisionAdapter.statusField())))
	}

	return w.finish(ctx, &TransitionResult{RFQ: rfq, Action: action, From: t.From, To: t.To, Reason: reason}, &log)
}

// current re-reads the quotation in the given status. Absence is a
// validation failure; a store failure is returned as is.
func (w *Workflow) current(ctx context.Context, rfq string, from Status) (*QuotationRecord, error) {
	rec, err := w.resolver.resolve(ctx, rfq, from, false)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", rfq, err)
	}
	if rec == nil {
		return nil, invalid("status", fmt.Errorf("%w: no %s quotation for RFQ %s", ErrInvalidTransition, from, rfq))
	}
	return rec, nil
}

func (w *Workflow) rfqRows(ctx context.Context, rfq string) ([]store.Record, error) {
	rows, err := w.store.Query(ctx, CollectionRFQs, store.Filter{"rfq_number": rfq}, "rfq_number", "status")
	if err != nil {
		return nil, fmt.Errorf("load RFQ %s: %w", rfq, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("RFQ %s: %w", rfq, ErrNotFound)
	}
	return rows, nil
}

// rfqStatus treats an RFQ with no status as Todo.
func rfqStatus(row store.Record) Status {
	st, err := ParseStatus(row.String("status"))
	if err != nil {
		return StatusTodo
	}
	return st
}

func (w *Workflow) updateRows(ctx context.Context, log *writeLog, collection string, rows []store.Record, required bool, data map[string]any) {
	for _, row := range rows {
		log.record(collection, row.ID, required, w.store.UpdateByID(ctx, collection, row.ID, data))
	}
}

// saveDrawings writes the computed drawing totals and the edited part
// values back, then removes drawing and part rows of the RFQ that are no
// longer in drawings. All of these writes are best-effort.
func (w *Workflow) saveDrawings(ctx context.Context, log *writeLog, rfq string, drawings []Drawing) {
	keepDrawings := make(map[string]bool, len(drawings))
	keepParts := make(map[string]bool)
	for _, d := range drawings {
		keepDrawings[d.Number] = true
		for _, p := range d.Parts {
			keepParts[d.Number+"\x00"+p.Name] = true
		}
	}

	for _, d := range drawings {
		totals := CalcDrawingTotals(d.Parts)
		id, err := w.upsert(ctx, CollectionDrawings,
			store.Filter{"rfq_number": rfq, "drawing_number": d.Number},
			map[string]any{
				"drawing_quantity": d.Quantity,
				"total_weight":     totals.TotalWeight,
				"avg_rate":         totals.AvgRate,
				"total_amount":     totals.TotalAmount,
			})
		log.record(CollectionDrawings, id, false, err)

		for _, p := range d.Parts {
			id, err := w.upsert(ctx, CollectionParts,
				store.Filter{"rfq_number": rfq, "drawing_number": d.Number, "part_name": p.Name},
				partValues(p))
			log.record(CollectionParts, id, false, err)
		}
	}

	w.prune(ctx, log, CollectionParts, rfq, func(r store.Record) bool {
		return keepParts[r.String("drawing_number")+"\x00"+r.String("part_name")]
	}, "drawing_number", "part_name")
	w.prune(ctx, log, CollectionDrawings, rfq, func(r store.Record) bool {
		return keepDrawings[r.String("drawing_number")]
	}, "drawing_number")
}

// prune deletes the rows of collection belonging to rfq that keep rejects.
func (w *Workflow) prune(ctx context.Context, log *writeLog, collection, rfq string, keep func(store.Record) bool, fields ...string) {
	rows, err := w.store.Query(ctx, collection, store.Filter{"rfq_number": rfq}, fields...)
	if err != nil {
		log.record(collection, "", false, err)
		return
	}
	for _, row := range rows {
		if !keep(row) {
			log.recordDelete(collection, row.ID, w.store.DeleteByID(ctx, collection, row.ID))
		}
	}
}

func partValues(p Part) map[string]any {
	return map[string]any{
		"material":  p.Material,
		"grade":     p.Grade,
		"quantity":  p.Quantity,
		"weight":    p.Weight,
		"overhead":  p.Overhead,
		"rate":      p.Rate,
		"labour":    p.Labour,
		"laser_cut": p.LaserCut,
		"primer":    p.Primer,
	}
}

// upsert updates every row matching key, or inserts key+data when none
// match.
func (w *Workflow) upsert(ctx context.Context, collection string, key store.Filter, data map[string]any) (string, error) {
	rows, err := w.store.Query(ctx, collection, key, "id")
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		insert := make(map[string]any, len(key)+len(data))
		for k, v := range key {
			insert[k] = v
		}
		for k, v := range data {
			insert[k] = v
		}
		return w.store.Insert(ctx, collection, insert)
	}
	var errs []error
	for _, row := range rows {
		if err := w.store.UpdateByID(ctx, collection, row.ID, data); err != nil {
			errs = append(errs, err)
		}
	}
	return rows[0].ID, errors.Join(errs...)
}

// finish stamps the result, logs failed writes and appends the audit entry.
func (w *Workflow) finish(ctx context.Context, res *TransitionResult, log *writeLog) (*TransitionResult, error) {
	res.ID = uuid.NewString()
	res.Writes = log.writes

	failed := res.Failed()
	for _, f := range failed {
		w.logger.Error().Err(f.err).
			Str("transition", res.ID).
			Str("rfq", res.RFQ).
			Str("action", string(res.Action)).
			Str("collection", f.Collection).
			Str("record", f.ID).
			Bool("required", f.Required).
			Msg("transition write failed")
	}

	if _, err := w.store.Insert(ctx, CollectionTransitions, map[string]any{
		"transition_id": res.ID,
		"rfq_number":    res.RFQ,
		"action":        string(res.Action),
		"from_status":   string(res.From),
		"to_status":     string(res.To),
		"reason":        res.Reason,
		"failed_writes": failed,
	}); err != nil {
		w.logger.Warn().Err(err).Str("transition", res.ID).Msg("audit entry not written")
	}

	if err := res.Err(); err != nil {
		return res, err
	}
	w.logger.Info().
		Str("transition", res.ID).
		Str("rfq", res.RFQ).
		Str("action", string(res.Action)).
		Str("to", string(res.To)).
		Int("failed", len(failed)).
		Msg("transition applied")
	return res, nil
}
