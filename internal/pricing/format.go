package pricing

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultLocale is used when no locale or an unparsable one is configured.
const DefaultLocale = "en"

// Formatter renders whole currency amounts with locale-aware digit grouping.
type Formatter struct {
	printer *message.Printer
}

// NewFormatter builds a formatter for a BCP 47 locale such as "en" or "fa-IR".
func NewFormatter(locale string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.MustParse(DefaultLocale)
	}
	return &Formatter{printer: message.NewPrinter(tag)}
}

// Format returns amount grouped per the formatter's locale. The domain
// currency has no subunits in normal use, so no decimals are printed.
func (f *Formatter) Format(amount int64) string {
	return f.printer.Sprintf("%d", amount)
}

// FormatCurrency formats amount using the default locale.
func FormatCurrency(amount int64) string {
	return defaultFormatter.Format(amount)
}

var defaultFormatter = NewFormatter(DefaultLocale)
