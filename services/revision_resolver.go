package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"salesquote/store"
)

// Collection names used by the quotation workflow.
const (
	CollectionQuotations  = "quotations"
	CollectionRevisions   = "quotation_revisions"
	CollectionRFQs        = "rfqs"
	CollectionDrawings    = "drawings"
	CollectionParts       = "parts"
	CollectionCustomers   = "customers"
	CollectionMaterials   = "materials"
	CollectionRateHistory = "rate_history"
	CollectionPOs         = "purchase_orders"
	CollectionTransitions = "status_transitions"
)

// Revision is a quotation revision number. Revision 0 is the original
// quotation held in the primary collection.
type Revision uint

// Source names the collection a QuotationRecord was read from.
type Source string

const (
	SourcePrimary  Source = "primary"
	SourceRevision Source = "revision"
)

// QuotationRecord is the collection-independent view of one quotation
// revision.
type QuotationRecord struct {
	ID           string    `json:"id"`
	Source       Source    `json:"source"`
	RFQ          string    `json:"rfq"`
	Revision     Revision  `json:"revision"`
	Date         time.Time `json:"date"`
	Status       Status    `json:"status"`
	TotalWeight  float64   `json:"totalWeight"`
	TotalRate    float64   `json:"totalRate"`
	TotalAmount  float64   `json:"totalAmount"`
	Reason       string    `json:"reason,omitempty"`
	LossReason   string    `json:"lossReason,omitempty"`
	ApprovalDate time.Time `json:"approvalDate"`
	Created      time.Time `json:"created"`
}

// recordAdapter maps one collection's field names onto QuotationRecord.
type recordAdapter interface {
	collection() string
	source() Source
	statusField() string
	dateField() string
	normalize(store.Record) (QuotationRecord, error)
}

type fieldAdapter struct {
	name   string
	src    Source
	status string
	date   string
}

func (a fieldAdapter) collection() string  { return a.name }
func (a fieldAdapter) source() Source      { return a.src }
func (a fieldAdapter) statusField() string { return a.status }
func (a fieldAdapter) dateField() string   { return a.date }

func (a fieldAdapter) normalize(r store.Record) (QuotationRecord, error) {
	status, err := ParseStatus(r.String(a.status))
	if err != nil {
		return QuotationRecord{}, fmt.Errorf("%s/%s: %w", a.name, r.ID, err)
	}
	rev := r.Int("revision_number")
	if rev < 0 {
		return QuotationRecord{}, fmt.Errorf("%s/%s: negative revision %d", a.name, r.ID, rev)
	}
	return QuotationRecord{
		ID:           r.ID,
		Source:       a.src,
		RFQ:          r.String("rfq_serial_number"),
		Revision:     Revision(rev),
		Date:         r.Time(a.date),
		Status:       status,
		TotalWeight:  r.Float("total_weight"),
		TotalRate:    r.Float("total_rate"),
		TotalAmount:  r.Float("total_amount"),
		Reason:       r.String("reason"),
		LossReason:   r.String("loss_reason"),
		ApprovalDate: r.Time("approval_date"),
		Created:      r.Time("created"),
	}, nil
}

var (
	primaryAdapter  recordAdapter = fieldAdapter{name: CollectionQuotations, src: SourcePrimary, status: "status", date: "quotation_date"}
	revisionAdapter recordAdapter = fieldAdapter{name: CollectionRevisions, src: SourceRevision, status: "revision_status", date: "revision_date"}
)

// Resolver finds the current quotation record for an RFQ across the primary
// and revision-history collections.
type Resolver struct {
	store       store.Store
	logger      zerolog.Logger
	concurrency int
	fastPath    func(Stage) bool
}

type ResolverOption func(*Resolver)

// WithConcurrency bounds the number of RFQs resolved at once by ResolveQueue.
func WithConcurrency(n int) ResolverOption {
	return func(r *Resolver) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithFastPath sets the per-stage revision-0 short-cut policy.
func WithFastPath(enabled func(Stage) bool) ResolverOption {
	return func(r *Resolver) {
		if enabled != nil {
			r.fastPath = enabled
		}
	}
}

func NewResolver(st store.Store, logger zerolog.Logger, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		store:       st,
		logger:      logger.With().Str("component", "resolver").Logger(),
		concurrency: 8,
		fastPath:    func(Stage) bool { return false },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the highest revision of rfq whose status is target, or nil
// when none exists or the store could not be read. With fastPath set a
// revision-0 primary record in the target status is returned without
// consulting the revision history.
func (r *Resolver) Resolve(ctx context.Context, rfq string, target Status, fastPath bool) *QuotationRecord {
	rec, err := r.resolve(ctx, rfq, target, fastPath)
	if err != nil {
		r.logger.Error().Err(err).Str("rfq", rfq).Str("status", string(target)).Msg("resolve quotation")
		return nil
	}
	return rec
}

func (r *Resolver) resolve(ctx context.Context, rfq string, target Status, fastPath bool) (*QuotationRecord, error) {
	primary, err := r.query(ctx, primaryAdapter, store.Filter{"rfq_serial_number": rfq})
	if err != nil {
		return nil, err
	}
	var candidates []QuotationRecord
	for _, rec := range primary {
		if rec.Status != target {
			continue
		}
		if fastPath && rec.Revision == 0 {
			return &rec, nil
		}
		candidates = append(candidates, rec)
	}

	revisions, err := r.query(ctx, revisionAdapter, store.Filter{
		"rfq_serial_number": rfq,
		"revision_status":   string(target),
	})
	if err != nil {
		return nil, err
	}
	candidates = append(candidates, revisions...)
	return latest(candidates), nil
}

// Family returns every record of rfq from both collections, ordered by
// revision with the same tie-break Resolve uses.
func (r *Resolver) Family(ctx context.Context, rfq string) ([]QuotationRecord, error) {
	filter := store.Filter{"rfq_serial_number": rfq}
	primary, err := r.query(ctx, primaryAdapter, filter)
	if err != nil {
		return nil, err
	}
	revisions, err := r.query(ctx, revisionAdapter, filter)
	if err != nil {
		return nil, err
	}
	all := append(primary, revisions...)
	sort.SliceStable(all, func(i, j int) bool { return before(all[i], all[j]) })
	return all, nil
}

func (r *Resolver) query(ctx context.Context, a recordAdapter, filter store.Filter) ([]QuotationRecord, error) {
	rows, err := r.store.Query(ctx, a.collection(), filter)
	if err != nil {
		return nil, err
	}
	out := make([]QuotationRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := a.normalize(row)
		if err != nil {
			r.logger.Warn().Err(err).Msg("skipping malformed quotation record")
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// before orders records by revision; on equal revisions primary records sort
// first, then older records first.
func before(a, b QuotationRecord) bool {
	if a.Revision != b.Revision {
		return a.Revision < b.Revision
	}
	if a.Source != b.Source {
		return a.Source == SourcePrimary
	}
	return a.Created.Before(b.Created)
}

func latest(recs []QuotationRecord) *QuotationRecord {
	if len(recs) == 0 {
		return nil
	}
	best := recs[0]
	for _, rec := range recs[1:] {
		if !before(rec, best) {
			best = rec
		}
	}
	return &best
}

// ResolveQueue lists the current record of every RFQ shown on a stage. RFQs
// are returned in the order they were first seen; an RFQ whose resolution
// fails is left out without affecting the others.
func (r *Resolver) ResolveQueue(ctx context.Context, stage Stage) ([]QuotationRecord, error) {
	target, ok := stage.Status()
	if !ok {
		return nil, fmt.Errorf("unknown stage %q", stage)
	}

	primary, err := r.store.Query(ctx, primaryAdapter.collection(), store.Filter{"status": string(target)}, "rfq_serial_number")
	if err != nil {
		return nil, fmt.Errorf("list %s queue: %w", stage, err)
	}
	revisions, err := r.store.Query(ctx, revisionAdapter.collection(), store.Filter{"revision_status": string(target)}, "rfq_serial_number")
	if err != nil {
		return nil, fmt.Errorf("list %s queue: %w", stage, err)
	}

	var ids []string
	seen := make(map[string]bool)
	for _, row := range append(primary, revisions...) {
		id := row.String("rfq_serial_number")
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}

	results := make([]*QuotationRecord, len(ids))
	fast := r.fastPath(stage)
	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			results[i] = r.Resolve(ctx, id, target, fast)
			return nil
		})
	}
	_ = g.Wait()

	out := make([]QuotationRecord, 0, len(results))
	for _, rec := range results {
		if rec != nil {
			out = append(out, *rec)
		}
	}
	return out, nil
}
