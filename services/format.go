package services

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.English)

// FormatAmount renders an amount with grouping and at most two decimals, e.g. "1,350.5 USDC".
func FormatAmount(amount decimal.Decimal, token string) string {
	s := printer.Sprint(number.Decimal(amount.InexactFloat64(), number.MaxFractionDigits(2)))
	if token == "" {
		return s
	}
	return s + " " + token
}
