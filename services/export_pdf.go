package services

import (
	"fmt"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// detail table column widths on an 18-column grid, in detailHeaders order.
var detailWidths = []int{1, 2, 3, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 2}

const detailGrid = 18

var (
	grey      = &props.Color{Red: 100, Green: 100, Blue: 100}
	charcoal  = &props.Color{Red: 33, Green: 37, Blue: 41}
	white     = &props.Color{Red: 255, Green: 255, Blue: 255}
	drawingBg = &props.Color{Red: 237, Green: 237, Blue: 237}
)

func pageNumber() props.PageNumber {
	return props.PageNumber{
		Pattern: "Page {current} of {total}",
		Place:   props.RightBottom,
		Size:    7,
		Color:   &props.Color{Red: 120, Green: 120, Blue: 120},
	}
}

// GenerateQuotePDF renders the landscape quotation detail sheet.
func GenerateQuotePDF(data QuoteExportData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithOrientation(orientation.Horizontal).
		WithPageSize(pagesize.A4).
		WithMaxGridSize(detailGrid).
		WithLeftMargin(8).
		WithTopMargin(10).
		WithRightMargin(8).
		WithPageNumber(pageNumber()).
		Build()

	m := maroto.New(cfg)
	addLetterhead(m, data, detailGrid)
	addDetailHeader(m)
	for _, r := range data.Rows {
		addDetailRow(m, r)
	}
	addDetailTotals(m, data)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate quotation PDF: %w", err)
	}
	return doc.GetBytes(), nil
}

func addLetterhead(m core.Maroto, data QuoteExportData, grid int) {
	half := grid / 2
	lh := data.Letterhead
	m.AddRows(
		row.New(10).Add(
			col.New(grid).Add(text.New(lh.CompanyName, props.Text{Size: 14, Style: fontstyle.Bold, Align: align.Center})),
		),
	)
	contact := joinNonEmpty([]string{lh.Address, lh.Pin, lh.Phone, lh.Email}, " | ")
	if contact != "" {
		m.AddRows(
			row.New(6).Add(
				col.New(grid).Add(text.New(contact, props.Text{Size: 8, Align: align.Center, Color: grey})),
			),
		)
	}
	m.AddRows(
		row.New(7).Add(
			col.New(half).Add(text.New("Ref: "+data.Ref, props.Text{Size: 9, Style: fontstyle.Bold})),
			col.New(grid-half).Add(text.New("Date: "+data.Date, props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right})),
		),
		row.New(3),
	)
}

func addDetailHeader(m core.Maroto) {
	style := props.Text{Size: 7, Style: fontstyle.Bold, Align: align.Center, Color: white}
	cell := &props.Cell{BackgroundColor: charcoal}
	cols := make([]core.Col, len(detailHeaders))
	for i, h := range detailHeaders {
		cols[i] = col.New(detailWidths[i]).Add(text.New(h, style)).WithStyle(cell)
	}
	m.AddRows(row.New(8).Add(cols...))
}

func addDetailRow(m core.Maroto, r ExportRow) {
	center := props.Text{Size: 7, Align: align.Center}
	left := props.Text{Size: 7, Align: align.Left}
	right := props.Text{Size: 7, Align: align.Right}
	num := func(v float64) string { return Fixed2(v) }

	values := []string{r.SrNo, r.DrawingNo, r.Item, r.Qty, r.Grade}
	if r.Drawing {
		values = append(values, "", "", num(r.TotalWeight), "", "", "", "", num(r.TotalRate), num(r.Amount))
		center.Style, left.Style, right.Style = fontstyle.Bold, fontstyle.Bold, fontstyle.Bold
	} else {
		values = append(values,
			num(r.Weight), num(r.Overhead), num(r.TotalWeight),
			num(r.Rate), num(r.Labour), num(r.LaserCut), num(r.Primer),
			num(r.TotalRate), num(r.Amount))
	}

	cols := make([]core.Col, len(values))
	for i, v := range values {
		style := right
		switch i {
		case 0, 3, 4:
			style = center
		case 1, 2:
			style = left
		}
		c := col.New(detailWidths[i]).Add(text.New(v, style))
		if r.Drawing {
			c = c.WithStyle(&props.Cell{BackgroundColor: drawingBg})
		}
		cols[i] = c
	}
	m.AddRows(row.New(6).Add(cols...))
}

func addDetailTotals(m core.Maroto, data QuoteExportData) {
	label := props.Text{Size: 8, Style: fontstyle.Bold, Align: align.Right, Color: white}
	cell := &props.Cell{BackgroundColor: charcoal}
	// TOTAL spans up to OH; T.WT, T.RATE and AMOUNT line up with their columns.
	m.AddRows(
		row.New(3),
		row.New(8).Add(
			col.New(10).Add(text.New("TOTAL", label)).WithStyle(cell),
			col.New(1).Add(text.New(Fixed2(data.TotalWeight), label)).WithStyle(cell),
			col.New(4).WithStyle(cell),
			col.New(1).Add(text.New(Fixed2(data.AvgRate), label)).WithStyle(cell),
			col.New(2).Add(text.New(Fixed2(data.TotalAmount), label)).WithStyle(cell),
		),
		row.New(8).Add(
			col.New(12).Add(text.New("Amount in Words: "+data.AmountInWords, props.Text{Size: 8, Style: fontstyle.BoldItalic, Top: 2})),
			col.New(6).Add(text.New("Grand Total: "+FormatINR(data.TotalAmount), props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right, Top: 2})),
		),
	)
}

// GenerateCoverLetterPDF renders the portrait covering letter with the
// drawing summary, terms and signatory.
func GenerateCoverLetterPDF(data QuoteExportData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithOrientation(orientation.Vertical).
		WithPageSize(pagesize.A4).
		WithLeftMargin(15).
		WithTopMargin(12).
		WithRightMargin(15).
		WithPageNumber(pageNumber()).
		Build()

	m := maroto.New(cfg)
	addLetterhead(m, data, 12)
	addAddressee(m, data)
	addSummaryTable(m, data)
	addTerms(m, data.Letterhead.Terms)
	addSignatory(m, data.Letterhead)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate cover letter PDF: %w", err)
	}
	return doc.GetBytes(), nil
}

func addAddressee(m core.Maroto, data QuoteExportData) {
	label := props.Text{Size: 9, Style: fontstyle.Bold}
	value := props.Text{Size: 9}
	m.AddRows(row.New(6).Add(col.New(12).Add(text.New("TO,", label))))
	m.AddRows(row.New(6).Add(col.New(12).Add(text.New(data.CustomerName, label))))
	for _, line := range strings.Split(data.CustomerAddress, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		m.AddRows(row.New(5).Add(col.New(12).Add(text.New(strings.TrimSpace(line), value))))
	}
	m.AddRows(row.New(4))
	if data.Subject != "" {
		m.AddRows(row.New(6).Add(
			col.New(2).Add(text.New("SUBJECT:", label)),
			col.New(10).Add(text.New(data.Subject, value)),
		))
	}
	if data.KindAttn != "" {
		m.AddRows(row.New(6).Add(
			col.New(2).Add(text.New("KIND ATTN:", label)),
			col.New(10).Add(text.New(data.KindAttn, value)),
		))
	}
	m.AddRows(
		row.New(4),
		row.New(6).Add(col.New(12).Add(text.New("Dear Sir/Madam,", value))),
		row.New(8).Add(col.New(12).Add(text.New(
			"With reference to your enquiry, we are pleased to submit our offer for the following drawings:", value))),
		row.New(2),
	)
}

func addSummaryTable(m core.Maroto, data QuoteExportData) {
	head := props.Text{Size: 8, Style: fontstyle.Bold, Align: align.Center, Color: white}
	headCell := &props.Cell{BackgroundColor: charcoal}
	m.AddRows(row.New(8).Add(
		col.New(1).Add(text.New("SR", head)).WithStyle(headCell),
		col.New(4).Add(text.New("DRG NO.", head)).WithStyle(headCell),
		col.New(2).Add(text.New("T.WT", head)).WithStyle(headCell),
		col.New(2).Add(text.New("RATE", head)).WithStyle(headCell),
		col.New(3).Add(text.New("AMOUNT", head)).WithStyle(headCell),
	))

	body := props.Text{Size: 8, Align: align.Right}
	for _, s := range data.Summary {
		m.AddRows(row.New(7).Add(
			col.New(1).Add(text.New(fmt.Sprintf("%d", s.SrNo), props.Text{Size: 8, Align: align.Center})),
			col.New(4).Add(text.New(s.DrawingNo, props.Text{Size: 8})),
			col.New(2).Add(text.New(Fixed2(s.TotalWeight), body)),
			col.New(2).Add(text.New(Fixed2(s.AvgRate), body)),
			col.New(3).Add(text.New(FormatINR(s.Amount), body)),
		))
	}

	total := props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}
	m.AddRows(
		row.New(8).Add(
			col.New(9).Add(text.New("Grand Total", total)),
			col.New(3).Add(text.New(FormatINR(data.TotalAmount), total)),
		),
		row.New(8).Add(
			col.New(12).Add(text.New("Amount in Words: "+data.AmountInWords, props.Text{Size: 8, Style: fontstyle.BoldItalic})),
		),
		row.New(4),
	)
}

func addTerms(m core.Maroto, terms []string) {
	if len(terms) == 0 {
		return
	}
	m.AddRows(row.New(7).Add(col.New(12).Add(text.New("TERMS AND CONDITIONS", props.Text{Size: 9, Style: fontstyle.Bold}))))
	for i, t := range terms {
		m.AddRows(row.New(6).Add(col.New(12).Add(text.New(fmt.Sprintf("%d. %s", i+1, t), props.Text{Size: 8}))))
	}
	m.AddRows(row.New(6))
}

func addSignatory(m core.Maroto, lh Letterhead) {
	right := props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}
	m.AddRows(
		row.New(7).Add(col.New(12).Add(text.New("For "+lh.CompanyName, right))),
		row.New(15),
		row.New(7).Add(col.New(12).Add(text.New(lh.Signatory, right))),
	)
}

func joinNonEmpty(parts []string, sep string) string {
	var kept []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
