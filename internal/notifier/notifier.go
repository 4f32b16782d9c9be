package notifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/pfrederiksen/city-events/internal/event"
)

// MaxMessageLength is the longest message, in runes, a notifier sends.
const MaxMessageLength = 500

// Notifier defines the interface for announcing new records
type Notifier interface {
	// Notify announces the given records in order
	Notify(ctx context.Context, records []*event.Record) error
}

// FormatMessage formats a record as a short chat message
func FormatMessage(rec *event.Record) string {
	var b strings.Builder

	b.WriteString("New event: " + rec.Name + "\n")
	if rec.Date != "" {
		fmt.Fprintf(&b, "Date: %s\n", rec.Date)
	}
	if rec.Venue != "" {
		fmt.Fprintf(&b, "Venue: %s\n", rec.Venue)
	}
	if rec.City != "" {
		fmt.Fprintf(&b, "City: %s\n", rec.City)
	}
	fmt.Fprintf(&b, "Source: %s", rec.Source)
	if rec.URL != "" {
		fmt.Fprintf(&b, "\n%s", rec.URL)
	}

	msg := b.String()
	if runes := []rune(msg); len(runes) > MaxMessageLength {
		msg = string(runes[:MaxMessageLength-3]) + "..."
	}
	return msg
}
