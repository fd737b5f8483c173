package services

import (
	"math"
	"strings"
)

// AmountToWords spells a rupee amount in Indian English, rounded to the
// nearest rupee: 913183 → "Nine Lakhs Thirteen Thousand One Hundred and
// Eighty Three Rupees Only/-".
func AmountToWords(amount float64) string {
	if amount < 0 {
		return "Negative " + AmountToWords(-amount)
	}
	rupees := int64(math.Round(amount))
	if rupees == 0 {
		return "Zero Rupees Only/-"
	}
	return indianWords(rupees) + " Rupees Only/-"
}

var indianScales = []struct {
	size int64
	name string
}{
	{10000000, "Crores"},
	{100000, "Lakhs"},
	{1000, "Thousand"},
}

func indianWords(n int64) string {
	var words []string
	for _, s := range indianScales {
		if n < s.size {
			continue
		}
		words = append(words, indianWords(n/s.size)+" "+s.name)
		n %= s.size
	}
	if n >= 100 {
		words = append(words, smallNumbers[n/100]+" Hundred")
		n %= 100
	}
	if n > 0 {
		w := wordsUnder100(n)
		if len(words) > 0 {
			w = "and " + w
		}
		words = append(words, w)
	}
	return strings.Join(words, " ")
}

func wordsUnder100(n int64) string {
	if n < 20 {
		return smallNumbers[n]
	}
	w := tensWords[n/10]
	if n%10 != 0 {
		w += " " + smallNumbers[n%10]
	}
	return w
}

var smallNumbers = []string{
	"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
	"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen",
	"Seventeen", "Eighteen", "Nineteen",
}

var tensWords = []string{
	"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety",
}
