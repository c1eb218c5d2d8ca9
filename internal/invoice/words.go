package invoice

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ones = []string{
		"Zero", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
		"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen",
		"Seventeen", "Eighteen", "Nineteen",
	}
	tens = []string{
		"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety",
	}
	scales = []string{"", "Thousand", "Million", "Billion", "Trillion"}
)

// wordsLimit is the first amount with no scale word.
const wordsLimit = 1e15

// AmountToWords renders amount for the "amount in words" line, e.g.
// 1234.5 -> "One Thousand Two Hundred Thirty Four and Fifty /100 Only".
// Amounts it cannot render (negative, not finite, too large) come back as
// the plain number.
func AmountToWords(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 || amount >= wordsLimit {
		return strconv.FormatFloat(amount, 'f', -1, 64)
	}

	// Half cents go to the even cent.
	rounded := decimal.NewFromFloat(amount).RoundBank(2)
	whole := rounded.Floor()
	cents := rounded.Sub(whole).Mul(hundred).IntPart()

	words := integerWords(whole.IntPart())
	if cents > 0 {
		words += " and " + integerWords(cents) + " /100"
	}
	return words + " Only"
}

func integerWords(n int64) string {
	if n == 0 {
		return ones[0]
	}
	var groups []string
	for scale := 0; n > 0; scale++ {
		chunk := n % 1000
		n /= 1000
		if chunk == 0 {
			continue
		}
		g := belowThousand(int(chunk))
		if scales[scale] != "" {
			g += " " + scales[scale]
		}
		groups = append([]string{g}, groups...)
	}
	return strings.Join(groups, " ")
}

func belowThousand(n int) string {
	var parts []string
	if n >= 100 {
		parts = append(parts, ones[n/100], "Hundred")
		n %= 100
	}
	switch {
	case n >= 20:
		parts = append(parts, tens[n/10])
		if n%10 != 0 {
			parts = append(parts, ones[n%10])
		}
	case n > 0:
		parts = append(parts, ones[n])
	}
	return strings.Join(parts, " ")
}
