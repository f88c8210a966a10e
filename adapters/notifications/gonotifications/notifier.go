package gonotifications

import (
	"context"
	"fmt"

	"github.com/goliatone/go-db2xlsx/convert"
	"github.com/goliatone/go-db2xlsx/convert/notify"
	"github.com/goliatone/go-notifications/pkg/onready"
)

// Notifier adapts go-notifications OnReadyNotifier to go-db2xlsx.
type Notifier struct {
	delegate onready.OnReadyNotifier
}

// NewNotifier wraps a go-notifications notifier.
func NewNotifier(delegate onready.OnReadyNotifier) *Notifier {
	return &Notifier{delegate: delegate}
}

// Send forwards the event to the underlying go-notifications notifier.
func (n *Notifier) Send(ctx context.Context, evt notify.WorkbookReadyEvent) error {
	if n == nil || n.delegate == nil {
		return convert.NewError(convert.KindNotImpl, "go-notifications notifier not configured", nil)
	}

	// go-notifications has no table-count slot; each sheet is one part of
	// the workbook, and the source travels in the message text.
	message := evt.Message
	if message == "" {
		message = fmt.Sprintf("%s exported to %s: %d tables, %d rows", evt.Source, evt.FileName, evt.Tables, evt.Rows)
	}

	payload := onready.OnReadyEvent{
		Recipients:       evt.Recipients,
		Locale:           evt.Locale,
		Channels:         evt.Channels,
		FileName:         evt.FileName,
		Format:           "xlsx",
		Rows:             evt.Rows,
		Parts:            evt.Tables,
		Message:          message,
		ChannelOverrides: evt.ChannelOverrides,
	}

	return n.delegate.Send(ctx, payload)
}
