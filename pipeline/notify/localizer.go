package notify

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/x-research-team/dispatch-framework/pipeline/result"
)

// PrinterLocalizer renders catalog errors through a golang.org/x/text
// message catalog, using the error code as the message key and the error's
// arguments as formatting values. Applications register translations with
// message.SetString (or a full catalog) per language; an unregistered code
// falls back to the code itself.
type PrinterLocalizer struct {
	printer *message.Printer
}

// NewPrinterLocalizer creates a localizer for the given language.
func NewPrinterLocalizer(tag language.Tag) *PrinterLocalizer {
	return &PrinterLocalizer{
		printer: message.NewPrinter(tag),
	}
}

// Localize implements Localizer.
func (l *PrinterLocalizer) Localize(err *result.Error) string {
	if err == nil {
		return ""
	}
	return l.printer.Sprintf(message.Key(err.Code(), err.Code()), err.Args()...)
}
