// Package format renders event fields for the terminal. The CLI tables and
// the interactive browser share it so both show the same text.
package format

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Shivanand-hulikatti/eventhub/internal/model"
)

var printer = message.NewPrinter(language.English)

// Price renders a price as "Free" or in ringgit with thousands separators.
func Price(price float64) string {
	if price == 0 {
		return "Free"
	}
	return printer.Sprintf("RM%.2f", price)
}

// When renders a date and time for display, falling back to the raw
// strings when they do not parse.
func When(date, clock string) string {
	day, ok := model.ParseDate(date)
	if !ok {
		return strings.TrimSpace(date + " " + clock)
	}
	out := day.Format("Mon Jan 2, 2006")
	if t, ok := model.ParseClock(clock); ok {
		out += " at " + t.Format("3:04 PM")
	}
	return out
}

// Place joins venue and location, skipping whichever is empty.
func Place(venue, location string) string {
	return strings.Trim(venue+", "+location, ", ")
}

// Spots is "sold out" or the number of seats left.
func Spots(e *model.Event) string {
	if e.IsSoldOut() {
		return "sold out"
	}
	return fmt.Sprintf("%d left", e.SpotsLeft())
}

// Truncate shortens s to n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
