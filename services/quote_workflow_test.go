package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"salesquote/store"
)

var testNow = time.Date(2025, 5, 6, 10, 30, 0, 0, time.UTC)

func newTestWorkflow(st store.Store) *Workflow {
	w := NewWorkflow(st, NewResolver(st, nopLogger()), nopLogger())
	w.now = func() time.Time { return testNow }
	return w
}

func seedRFQ(t *testing.T, st store.Store, rfq string, status Status) string {
	t.Helper()
	id, err := st.Insert(context.Background(), CollectionRFQs, map[string]any{
		"rfq_number":    rfq,
		"customer_name": "Acme Forgings",
		"status":        string(status),
	})
	if err != nil {
		t.Fatalf("seed rfq: %v", err)
	}
	return id
}

func r42Drawings() []Drawing {
	return []Drawing{{
		Number:   "DRG-1",
		Quantity: "2",
		Parts: []Part{
			{Name: "A", Weight: "10", Overhead: "0", Rate: "10"},
			{Name: "B", Weight: "20", Overhead: "5", Rate: "2"},
		},
	}}
}

func onePartDrawings() []Drawing {
	return []Drawing{{
		Number:   "DRG-1",
		Quantity: "2",
		Parts:    []Part{{Name: "A", Weight: "10", Overhead: "0", Rate: "10"}},
	}}
}

func TestSubmit_CreatesPrimaryAndUpdatesRFQ(t *testing.T) {
	st := newMemStore()
	rfqID := seedRFQ(t, st, "R42", StatusTodo)
	w := newTestWorkflow(st)

	res, err := w.Submit(context.Background(), "R42", SubmitInput{Drawings: r42Drawings()})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.From != StatusTodo || res.To != StatusWorkingDone || res.ID == "" {
		t.Errorf("result = %+v", res)
	}

	rows, _ := st.Query(context.Background(), CollectionQuotations, store.Filter{"rfq_serial_number": "R42"})
	if len(rows) != 1 {
		t.Fatalf("primary records = %d, want 1", len(rows))
	}
	q := rows[0]
	if q.String("status") != "WorkingDone" || q.Int("revision_number") != 0 {
		t.Errorf("primary = %+v", q.Data)
	}
	if !floatClose(q.Float("total_weight"), 35) || !floatClose(q.Float("total_amount"), 210) || !floatClose(q.Float("total_rate"), 6) {
		t.Errorf("primary totals = %+v", q.Data)
	}
	if !q.Time("quotation_date").Equal(testNow) {
		t.Errorf("quotation_date = %v, want %v", q.Time("quotation_date"), testNow)
	}
	if got := st.get(CollectionRFQs, rfqID).String("status"); got != "WorkingDone" {
		t.Errorf("RFQ status = %q, want WorkingDone", got)
	}

	drawings, _ := st.Query(context.Background(), CollectionDrawings, store.Filter{"rfq_number": "R42"})
	if len(drawings) != 1 || !floatClose(drawings[0].Float("total_amount"), 210) || !floatClose(drawings[0].Float("avg_rate"), 6) {
		t.Errorf("drawings = %+v", drawings)
	}
	if n := st.count(CollectionParts); n != 2 {
		t.Errorf("parts = %d, want 2", n)
	}
	if n := st.count(CollectionTransitions); n != 1 {
		t.Errorf("audit entries = %d, want 1", n)
	}
}

func TestSubmit_Validation(t *testing.T) {
	mem := newMemStore()
	seedRFQ(t, mem, "R1", StatusWaiting)
	st := newFaultyStore(mem)
	w := newTestWorkflow(st)

	_, err := w.Submit(context.Background(), "R1", SubmitInput{})
	if !errors.Is(err, ErrNoDrawings) {
		t.Errorf("Submit without drawings = %v, want ErrNoDrawings", err)
	}
	_, err = w.Submit(context.Background(), "R1", SubmitInput{Drawings: r42Drawings()})
	var verr *ValidationError
	if !errors.As(err, &verr) || !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Submit from Waiting = %v, want invalid transition", err)
	}
	_, err = w.Submit(context.Background(), "nope", SubmitInput{Drawings: r42Drawings()})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Submit unknown RFQ = %v, want ErrNotFound", err)
	}
	if n := st.writeCount(); n != 0 {
		t.Errorf("writes = %d, want 0", n)
	}
}

func TestLose_WithoutReasonWritesNothing(t *testing.T) {
	mem := newMemStore()
	seedRFQ(t, mem, "R1", StatusWaiting)
	seedQuotation(t, mem, "R1", 0, StatusWaiting, 100)
	st := newFaultyStore(mem)
	w := newTestWorkflow(st)

	for _, reason := range []string{"", "   "} {
		_, err := w.Lose(context.Background(), "R1", reason)
		var verr *ValidationError
		if !errors.As(err, &verr) || !errors.Is(err, ErrReasonRequired) {
			t.Errorf("Lose(%q) = %v, want ErrReasonRequired validation error", reason, err)
		}
	}
	_, err := w.Lose(context.Background(), "R1", "Too expensive")
	if !errors.Is(err, ErrUnknownLossReason) {
		t.Errorf("Lose with free text = %v, want ErrUnknownLossReason", err)
	}
	if n := st.writeCount(); n != 0 {
		t.Errorf("writes = %d, want 0", n)
	}
}

func TestLose_PersistsReason(t *testing.T) {
	st := newMemStore()
	rfqID := seedRFQ(t, st, "R1", StatusWaiting)
	qID := seedQuotation(t, st, "R1", 0, StatusWaiting, 100)
	revID := seedRevision(t, st, "R1", 1, StatusWaiting, 120)
	w := newTestWorkflow(st)

	if _, err := w.Lose(context.Background(), "R1", "budget"); err != nil {
		t.Fatalf("Lose: %v", err)
	}
	q := st.get(CollectionQuotations, qID)
	if q.String("status") != "Loss" || q.String("loss_reason") != "Budget" {
		t.Errorf("primary = %+v", q.Data)
	}
	rev := st.get(CollectionRevisions, revID)
	if rev.String("revision_status") != "Loss" || rev.String("loss_reason") != "Budget" {
		t.Errorf("revision = %+v", rev.Data)
	}
	if st.get(CollectionRFQs, rfqID).String("status") != "Loss" {
		t.Error("RFQ status not updated")
	}
}

func TestReject_PartialFailureKeepsPrimaryWrite(t *testing.T) {
	mem := newMemStore()
	rfqID := seedRFQ(t, mem, "R1", StatusWorkingDone)
	qID := seedQuotation(t, mem, "R1", 0, StatusWorkingDone, 100)
	st := newFaultyStore(mem)
	st.failUpdate[CollectionRFQs] = true
	w := newTestWorkflow(st)

	res, err := w.Reject(context.Background(), "R1", "  rate too high  ")
	if !errors.Is(err, ErrPartialTransition) {
		t.Fatalf("Reject = %v, want ErrPartialTransition", err)
	}
	if !errors.Is(err, errInjected) {
		t.Errorf("Reject error %v does not wrap the store failure", err)
	}
	if res == nil {
		t.Fatal("Reject returned nil result on partial failure")
	}

	q := mem.get(CollectionQuotations, qID)
	if q.String("status") != "Todo" {
		t.Errorf("primary status = %q, want Todo", q.String("status"))
	}
	if q.String("reason") != "rate too high" {
		t.Errorf("primary reason = %q, want trimmed reason", q.String("reason"))
	}
	if mem.get(CollectionRFQs, rfqID).String("status") != "WorkingDone" {
		t.Error("RFQ status changed despite injected failure")
	}

	failed := res.Failed()
	if len(failed) != 1 || failed[0].Collection != CollectionRFQs || !failed[0].Required {
		t.Errorf("failed writes = %+v, want the RFQ write", failed)
	}
	if mem.count(CollectionTransitions) != 1 {
		t.Error("audit entry not written")
	}
}

func TestReject_RequiresReason(t *testing.T) {
	st := newFaultyStore(newMemStore())
	_, err := newTestWorkflow(st).Reject(context.Background(), "R1", " ")
	if !errors.Is(err, ErrReasonRequired) {
		t.Errorf("Reject = %v, want ErrReasonRequired", err)
	}
	if st.writeCount() != 0 {
		t.Error("writes made on validation failure")
	}
}

func TestBestEffortRevisionFailureStillSucceeds(t *testing.T) {
	mem := newMemStore()
	seedRFQ(t, mem, "R1", StatusWorkingDone)
	seedQuotation(t, mem, "R1", 0, StatusWorkingDone, 100)
	seedRevision(t, mem, "R1", 1, StatusWorkingDone, 110)
	st := newFaultyStore(mem)
	st.failUpdate[CollectionRevisions] = true

	res, err := newTestWorkflow(st).Approve(context.Background(), "R1")
	if err != nil {
		t.Fatalf("Approve = %v, want success with best-effort failure", err)
	}
	if len(res.Failed()) != 1 || res.Failed()[0].Required {
		t.Errorf("failed = %+v, want one best-effort revision write", res.Failed())
	}
}

func TestLifecycle(t *testing.T) {
	st := newMemStore()
	rfqID := seedRFQ(t, st, "R7", StatusTodo)
	w := newTestWorkflow(st)
	ctx := context.Background()

	steps := []struct {
		name string
		run  func() (*TransitionResult, error)
		want Status
	}{
		{"submit", func() (*TransitionResult, error) {
			return w.Submit(ctx, "R7", SubmitInput{Drawings: r42Drawings()})
		}, StatusWorkingDone},
		{"approve", func() (*TransitionResult, error) { return w.Approve(ctx, "R7") }, StatusApproved},
		{"send", func() (*TransitionResult, error) { return w.Send(ctx, "R7") }, StatusWaiting},
		{"revise", func() (*TransitionResult, error) { return w.Revise(ctx, "R7") }, StatusRevised},
		{"resubmit", func() (*TransitionResult, error) {
			return w.Resubmit(ctx, "R7", ResubmitInput{Drawings: r42Drawings()})
		}, StatusWorkingDone},
		{"reject revision", func() (*TransitionResult, error) { return w.Reject(ctx, "R7", "recheck weights") }, StatusTodo},
		{"submit fewer parts", func() (*TransitionResult, error) {
			return w.Submit(ctx, "R7", SubmitInput{Drawings: onePartDrawings()})
		}, StatusWorkingDone},
		{"approve again", func() (*TransitionResult, error) { return w.Approve(ctx, "R7") }, StatusApproved},
		{"send again", func() (*TransitionResult, error) { return w.Send(ctx, "R7") }, StatusWaiting},
		{"win", func() (*TransitionResult, error) { return w.Win(ctx, "R7") }, StatusWon},
	}
	for _, step := range steps {
		res, err := step.run()
		if err != nil {
			t.Fatalf("%s: %v", step.name, err)
		}
		if res.To != step.want {
			t.Fatalf("%s: To = %s, want %s", step.name, res.To, step.want)
		}
		if got := st.get(CollectionRFQs, rfqID).String("status"); got != string(step.want) {
			t.Fatalf("%s: RFQ status = %s, want %s", step.name, got, step.want)
		}
		cur := w.resolver.Resolve(ctx, "R7", step.want, false)
		if cur == nil {
			t.Fatalf("%s: no current record in %s", step.name, step.want)
		}
	}

	cur := w.resolver.Resolve(ctx, "R7", StatusWon, false)
	if cur.Revision != 2 || cur.Source != SourceRevision {
		t.Errorf("current Won record = %+v, want revision 2", cur)
	}
	if !floatClose(cur.TotalAmount, 100) {
		t.Errorf("current Won total = %v, want the resubmitted 100", cur.TotalAmount)
	}
	if cur.ApprovalDate.IsZero() {
		t.Error("approval date not carried onto the revision")
	}
	if n := st.count(CollectionParts); n != 1 {
		t.Errorf("parts = %d, want 1 after submitting without part B", n)
	}

	// A transition out of the wrong state is rejected.
	_, err := w.Send(ctx, "R7")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Send from Won = %v, want ErrInvalidTransition", err)
	}
}

func TestResubmit_AppendsNextRevision(t *testing.T) {
	st := newMemStore()
	seedRFQ(t, st, "R1", StatusRevised)
	seedQuotation(t, st, "R1", 0, StatusRevised, 100)
	rev1 := seedRevision(t, st, "R1", 1, StatusRevised, 110)
	seedRevision(t, st, "R1", 2, StatusRevised, 120)
	w := newTestWorkflow(st)

	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	if _, err := w.Resubmit(context.Background(), "R1", ResubmitInput{Drawings: r42Drawings(), Date: date}); err != nil {
		t.Fatalf("Resubmit: %v", err)
	}

	revs, _ := st.Query(context.Background(), CollectionRevisions, store.Filter{"rfq_serial_number": "R1"})
	if len(revs) != 3 {
		t.Fatalf("revisions = %d, want 3", len(revs))
	}
	added := revs[2]
	if added.Int("revision_number") != 3 || added.String("revision_status") != "WorkingDone" {
		t.Errorf("appended revision = %+v", added.Data)
	}
	if !added.Time("revision_date").Equal(date) || !floatClose(added.Float("total_amount"), 210) {
		t.Errorf("appended revision data = %+v", added.Data)
	}
	if got := st.get(CollectionRevisions, rev1); !floatClose(got.Float("total_amount"), 110) || got.Int("revision_number") != 1 {
		t.Errorf("revision 1 overwritten: %+v", got.Data)
	}
	if got := w.resolver.Resolve(context.Background(), "R1", StatusRevised, false); got != nil {
		t.Errorf("stale Revised record still resolvable: %+v", got)
	}
}

func TestResubmit_RevisionAppendFailureIsPartial(t *testing.T) {
	mem := newMemStore()
	seedRFQ(t, mem, "R1", StatusRevised)
	seedQuotation(t, mem, "R1", 0, StatusRevised, 100)
	st := newFaultyStore(mem)
	st.failInsert[CollectionRevisions] = true

	_, err := newTestWorkflow(st).Resubmit(context.Background(), "R1", ResubmitInput{Drawings: r42Drawings()})
	if !errors.Is(err, ErrPartialTransition) {
		t.Errorf("Resubmit = %v, want ErrPartialTransition", err)
	}
}

func TestSaveDraft(t *testing.T) {
	st := newMemStore()
	seedRFQ(t, st, "R1", StatusTodo)
	matID, _ := st.Insert(context.Background(), CollectionMaterials, map[string]any{
		"part_number": "A", "material": "MS", "weight": "9", "rate": "8",
	})
	w := newTestWorkflow(st)

	drawings := r42Drawings()
	drawings[0].Parts[0].Material = "SS304"
	res, err := w.SaveDraft(context.Background(), "R1", DraftInput{Drawings: drawings, Date: testNow})
	if err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}
	if !floatClose(res.Totals.TotalAmount, 210) {
		t.Errorf("Totals = %+v", res.Totals)
	}
	mat := st.get(CollectionMaterials, matID)
	if mat.String("material") != "SS304" || mat.String("rate") != "10" || mat.String("weight") != "10" {
		t.Errorf("catalog entry = %+v", mat.Data)
	}
	if n := st.count(CollectionRateHistory); n != 2 {
		t.Errorf("rate history entries = %d, want 2", n)
	}
	if n := st.count(CollectionQuotations); n != 0 {
		t.Errorf("draft created %d quotation records", n)
	}

	// Saving again updates the same part rows.
	if _, err := w.SaveDraft(context.Background(), "R1", DraftInput{Drawings: drawings}); err != nil {
		t.Fatal(err)
	}
	if n := st.count(CollectionParts); n != 2 {
		t.Errorf("parts = %d after second save, want 2", n)
	}
	if n := st.count(CollectionRateHistory); n != 2 {
		t.Errorf("rate history grew without a date: %d", n)
	}
}

func TestHistory(t *testing.T) {
	st := newMemStore()
	seedRFQ(t, st, "R1", StatusWorkingDone)
	seedQuotation(t, st, "R1", 0, StatusWorkingDone, 100)
	w := newTestWorkflow(st)
	if _, err := w.Approve(context.Background(), "R1"); err != nil {
		t.Fatal(err)
	}

	h, err := w.History(context.Background(), "R1")
	if err != nil {
		t.Fatal(err)
	}
	if len(h.Revisions) != 1 || h.Revisions[0].Status != StatusApproved {
		t.Errorf("revisions = %+v", h.Revisions)
	}
	if len(h.Transitions) != 1 || h.Transitions[0].Action != ActionApprove || h.Transitions[0].To != StatusApproved {
		t.Errorf("transitions = %+v", h.Transitions)
	}
}

func TestDeleteRFQChildren(t *testing.T) {
	st := newMemStore()
	ctx := context.Background()
	st.Insert(ctx, CollectionDrawings, map[string]any{"rfq_number": "R1", "drawing_number": "D1"})
	st.Insert(ctx, CollectionParts, map[string]any{"rfq_number": "R1", "drawing_number": "D1", "part_name": "A"})
	st.Insert(ctx, CollectionParts, map[string]any{"rfq_number": "R2", "drawing_number": "D1", "part_name": "A"})

	if err := DeleteRFQChildren(ctx, st, "R1"); err != nil {
		t.Fatal(err)
	}
	if st.count(CollectionDrawings) != 0 || st.count(CollectionParts) != 1 {
		t.Errorf("drawings=%d parts=%d, want 0 and 1", st.count(CollectionDrawings), st.count(CollectionParts))
	}
}

func TestSubmit_AfterRejectedRevisionAppendsRevision(t *testing.T) {
	st := newMemStore()
	seedRFQ(t, st, "R9", StatusTodo)
	primaryID := seedQuotation(t, st, "R9", 0, StatusTodo, 150)
	rev1 := seedRevision(t, st, "R9", 1, StatusTodo, 210)
	w := newTestWorkflow(st)
	ctx := context.Background()

	if _, err := w.Submit(ctx, "R9", SubmitInput{Drawings: onePartDrawings()}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	cur := w.resolver.Resolve(ctx, "R9", StatusWorkingDone, false)
	if cur == nil || cur.Revision != 2 || cur.Source != SourceRevision {
		t.Fatalf("current WorkingDone = %+v, want appended revision 2", cur)
	}
	if !floatClose(cur.TotalAmount, 100) {
		t.Errorf("current total = %v, want 100", cur.TotalAmount)
	}
	if got := st.get(CollectionRevisions, rev1); !floatClose(got.Float("total_amount"), 210) {
		t.Errorf("revision 1 overwritten: %+v", got.Data)
	}
	if got := st.get(CollectionQuotations, primaryID); got.String("status") != "WorkingDone" || !floatClose(got.Float("total_amount"), 150) {
		t.Errorf("primary = %+v", got.Data)
	}

	if _, err := w.Approve(ctx, "R9"); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if got := w.resolver.Resolve(ctx, "R9", StatusApproved, false); got == nil || !floatClose(got.TotalAmount, 100) {
		t.Errorf("approved record = %+v, want total 100", got)
	}
}

func TestResubmit_RemovesOmittedPartsAndDrawings(t *testing.T) {
	st := newMemStore()
	seedRFQ(t, st, "R1", StatusRevised)
	seedQuotation(t, st, "R1", 0, StatusRevised, 310)
	w := newTestWorkflow(st)
	ctx := context.Background()

	original := append(r42Drawings(), Drawing{
		Number: "DRG-2",
		Parts:  []Part{{Name: "C", Weight: "10", Rate: "10"}},
	})
	if _, err := w.SaveDraft(ctx, "R1", DraftInput{Drawings: original}); err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}
	if st.count(CollectionParts) != 3 || st.count(CollectionDrawings) != 2 {
		t.Fatalf("seeded parts=%d drawings=%d", st.count(CollectionParts), st.count(CollectionDrawings))
	}

	res, err := w.Resubmit(ctx, "R1", ResubmitInput{Drawings: onePartDrawings()})
	if err != nil {
		t.Fatalf("Resubmit: %v", err)
	}

	parts, _ := st.Query(ctx, CollectionParts, store.Filter{"rfq_number": "R1"})
	if len(parts) != 1 || parts[0].String("part_name") != "A" {
		t.Errorf("parts = %+v, want only A", parts)
	}
	drawings, _ := st.Query(ctx, CollectionDrawings, store.Filter{"rfq_number": "R1"})
	if len(drawings) != 1 || drawings[0].String("drawing_number") != "DRG-1" {
		t.Fatalf("drawings = %+v, want only DRG-1", drawings)
	}
	cur := w.resolver.Resolve(ctx, "R1", StatusWorkingDone, false)
	if cur == nil || !floatClose(drawings[0].Float("total_amount"), cur.TotalAmount) {
		t.Errorf("drawing total %v does not match current record %+v", drawings[0].Float("total_amount"), cur)
	}

	var deleted int
	for _, wr := range res.Writes {
		if wr.Deleted {
			deleted++
			if wr.Required {
				t.Errorf("delete of %s/%s marked required", wr.Collection, wr.ID)
			}
		}
	}
	if deleted != 3 {
		t.Errorf("deletes in write log = %d, want 3 (parts B and C, drawing DRG-2)", deleted)
	}
}
