package services

import (
	"math"
	"strings"

	"github.com/spf13/cast"
)

// Part is one line item of a drawing. Numeric values are kept as entered.
type Part struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Material string `json:"material"`
	Grade    string `json:"grade"`
	Quantity string `json:"quantity"`
	Weight   string `json:"weight"`
	Overhead string `json:"overhead"`
	Rate     string `json:"rate"`
	Labour   string `json:"labour"`
	LaserCut string `json:"laserCut"`
	Primer   string `json:"primer"`
}

// ParseAmount parses a user-entered number. Empty or malformed input is 0.
func ParseAmount(s string) float64 {
	f, err := cast.ToFloat64E(strings.TrimSpace(s))
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// EffectiveWeight is raw weight plus overhead.
func (p Part) EffectiveWeight() float64 {
	return ParseAmount(p.Weight) + ParseAmount(p.Overhead)
}

// EffectiveRate is rate plus labour, laser-cut and primer costs.
func (p Part) EffectiveRate() float64 {
	return ParseAmount(p.Rate) + ParseAmount(p.Labour) + ParseAmount(p.LaserCut) + ParseAmount(p.Primer)
}

func (p Part) Amount() float64 {
	return p.EffectiveWeight() * p.EffectiveRate()
}

// Drawing groups the parts quoted against one drawing number.
type Drawing struct {
	ID       string `json:"id,omitempty"`
	Number   string `json:"number"`
	Quantity string `json:"quantity"`
	Parts    []Part `json:"parts"`
}

type DrawingTotals struct {
	TotalWeight float64 `json:"totalWeight"`
	AvgRate     float64 `json:"avgRate"`
	TotalAmount float64 `json:"totalAmount"`
}

// CalcDrawingTotals aggregates a drawing's parts. The drawing amount is
// totalWeight × avgRate, not the sum of part amounts.
func CalcDrawingTotals(parts []Part) DrawingTotals {
	if len(parts) == 0 {
		return DrawingTotals{}
	}
	var weight, rate float64
	for _, p := range parts {
		weight += p.EffectiveWeight()
		rate += p.EffectiveRate()
	}
	avg := rate / float64(len(parts))
	return DrawingTotals{
		TotalWeight: weight,
		AvgRate:     avg,
		TotalAmount: weight * avg,
	}
}

type QuotationTotals struct {
	TotalWeight float64 `json:"totalWeight"`
	AvgRate     float64 `json:"avgRate"`
	TotalAmount float64 `json:"totalAmount"`
	PartCount   int     `json:"partCount"`
}

// CalcQuotationTotals sums drawing totals. AvgRate is the plain mean of
// every part's effective rate across all drawings.
func CalcQuotationTotals(drawings []Drawing) QuotationTotals {
	var totals QuotationTotals
	var rateSum float64
	for _, d := range drawings {
		dt := CalcDrawingTotals(d.Parts)
		totals.TotalWeight += dt.TotalWeight
		totals.TotalAmount += dt.TotalAmount
		for _, p := range d.Parts {
			rateSum += p.EffectiveRate()
		}
		totals.PartCount += len(d.Parts)
	}
	if totals.PartCount > 0 {
		totals.AvgRate = rateSum / float64(totals.PartCount)
	}
	return totals
}
