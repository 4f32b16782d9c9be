package notifier

import (
	"context"
	"fmt"
	"io"

	"github.com/pfrederiksen/city-events/internal/event"
)

// DryRunNotifier prints what would be sent without posting anything
type DryRunNotifier struct {
	w io.Writer
}

// NewDryRunNotifier creates a new dry-run notifier writing to w
func NewDryRunNotifier(w io.Writer) *DryRunNotifier {
	return &DryRunNotifier{w: w}
}

// Notify prints the messages that would be posted
func (n *DryRunNotifier) Notify(ctx context.Context, records []*event.Record) error {
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := FormatMessage(rec)
		fmt.Fprintf(n.w, "--- Message %d/%d ---\n", i+1, len(records))
		fmt.Fprintln(n.w, msg)
		fmt.Fprintf(n.w, "\n(Length: %d characters)\n\n", len([]rune(msg)))
	}
	return nil
}
