package services

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Fixed2 renders v rounded half away from zero to exactly two decimals.
func Fixed2(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// FormatINR formats an amount in Indian Rupee notation: after the rightmost
// 3 digits, digits are grouped in pairs (₹1,23,45,678.90).
func FormatINR(amount float64) string {
	raw := Fixed2(amount)
	sign := ""
	if strings.HasPrefix(raw, "-") {
		sign, raw = "-", raw[1:]
		if strings.Trim(raw, "0.") == "" {
			sign = ""
		}
	}
	intPart, decPart, _ := strings.Cut(raw, ".")
	return sign + "₹" + groupIndian(intPart) + "." + decPart
}

// groupIndian inserts commas into a digit string using Indian grouping.
func groupIndian(s string) string {
	if len(s) <= 3 {
		return s
	}
	head, tail := s[:len(s)-3], s[len(s)-3:]
	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	if head != "" {
		groups = append([]string{head}, groups...)
	}
	return strings.Join(append(groups, tail), ",")
}
