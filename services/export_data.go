package services

import (
	"fmt"
	"time"
)

// Letterhead is the seller block and boilerplate printed on exports.
type Letterhead struct {
	CompanyName string
	Address     string
	Pin         string
	Email       string
	Phone       string
	Signatory   string
	RefPrefix   string
	Terms       []string
}

// ExportRow is one line of the detail table: a drawing row followed by
// its part rows.
type ExportRow struct {
	Drawing     bool
	SrNo        string
	DrawingNo   string
	Item        string
	Qty         string
	Grade       string
	Weight      float64
	Overhead    float64
	TotalWeight float64
	Rate        float64
	Labour      float64
	LaserCut    float64
	Primer      float64
	TotalRate   float64
	Amount      float64
}

// ExportSummaryRow is one drawing line of the cover letter.
type ExportSummaryRow struct {
	SrNo        int
	DrawingNo   string
	TotalWeight float64
	AvgRate     float64
	Amount      float64
}

// QuoteExportData holds everything the PDF and Excel exporters need.
type QuoteExportData struct {
	Letterhead Letterhead

	Ref      string
	Date     string
	RFQ      string
	Revision Revision
	Subject  string

	CustomerName    string
	CustomerAddress string
	KindAttn        string

	Rows    []ExportRow
	Summary []ExportSummaryRow

	TotalWeight   float64
	AvgRate       float64
	TotalAmount   float64
	AmountInWords string
}

// QuotationRef builds the document reference: PREFIX/RFQ, with /R<n>
// appended for revisions.
func QuotationRef(prefix, rfq string, rev Revision) string {
	if prefix == "" {
		prefix = "SKG"
	}
	ref := fmt.Sprintf("%s/%s", prefix, rfq)
	if rev > 0 {
		ref += fmt.Sprintf("/R%d", rev)
	}
	return ref
}

// BuildQuoteExport flattens a loaded quotation for export. The document
// date is the current record's date when known, otherwise now.
func BuildQuoteExport(q *Quotation, lh Letterhead, now time.Time) QuoteExportData {
	data := QuoteExportData{
		Letterhead:   lh,
		RFQ:          q.RFQ.Number,
		Subject:      q.RFQ.Subject,
		CustomerName: q.RFQ.CustomerName,
	}
	date := now
	if q.Current != nil {
		data.Revision = q.Current.Revision
		if !q.Current.Date.IsZero() {
			date = q.Current.Date
		}
	}
	data.Ref = QuotationRef(lh.RefPrefix, q.RFQ.Number, data.Revision)
	data.Date = date.Format("02-01-2006")
	if q.Customer != nil {
		data.CustomerAddress = q.Customer.Address
		data.KindAttn = q.Customer.ContactPerson
	}

	for i, d := range q.Drawings {
		data.Rows = append(data.Rows, ExportRow{
			Drawing:     true,
			SrNo:        fmt.Sprintf("%d", i+1),
			DrawingNo:   d.Number,
			Qty:         d.Quantity,
			TotalWeight: d.Totals.TotalWeight,
			TotalRate:   d.Totals.AvgRate,
			Amount:      d.Totals.TotalAmount,
		})
		for j, p := range d.Parts {
			data.Rows = append(data.Rows, ExportRow{
				SrNo:        fmt.Sprintf("%d.%d", i+1, j+1),
				Item:        p.Name,
				Qty:         p.Quantity,
				Grade:       p.Grade,
				Weight:      ParseAmount(p.Weight),
				Overhead:    ParseAmount(p.Overhead),
				TotalWeight: p.EffectiveWeight(),
				Rate:        ParseAmount(p.Rate),
				Labour:      ParseAmount(p.Labour),
				LaserCut:    ParseAmount(p.LaserCut),
				Primer:      ParseAmount(p.Primer),
				TotalRate:   p.EffectiveRate(),
				Amount:      p.Amount(),
			})
		}
		data.Summary = append(data.Summary, ExportSummaryRow{
			SrNo:        i + 1,
			DrawingNo:   d.Number,
			TotalWeight: d.Totals.TotalWeight,
			AvgRate:     d.Totals.AvgRate,
			Amount:      d.Totals.TotalAmount,
		})
	}

	data.TotalWeight = q.Totals.TotalWeight
	data.AvgRate = q.Totals.AvgRate
	data.TotalAmount = q.Totals.TotalAmount
	data.AmountInWords = AmountToWords(q.Totals.TotalAmount)
	return data
}
