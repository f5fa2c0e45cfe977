package handlers

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"salesinsight/internal/weblog"
)

var printer = message.NewPrinter(language.English)

// FormatMoney renders v as dollars with thousands separators, e.g. "$1,234.50".
func FormatMoney(v float64) string {
	return printer.Sprintf("$%.2f", v)
}

// FormatPercent renders a 0..100 percentage, e.g. "12.34%".
func FormatPercent(v float64) string {
	return printer.Sprintf("%.2f%%", v)
}

// FormatCount renders n with thousands separators.
func FormatCount(n int) string {
	return printer.Sprintf("%d", n)
}

// FormatDecimal renders v with two decimals.
func FormatDecimal(v float64) string {
	return printer.Sprintf("%.2f", v)
}

// FormatStat renders an optional statistic, "n/a" when undefined.
func FormatStat(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return FormatDecimal(*v)
}

// FormatEventDateTime formats t the way the dataset stores timestamps.
func FormatEventDateTime(t time.Time) string {
	return t.UTC().Format(weblog.TimeLayout)
}
