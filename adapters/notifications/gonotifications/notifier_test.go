package gonotifications

import (
	"context"
	"strings"
	"testing"

	"github.com/goliatone/go-db2xlsx/convert/notify"
	"github.com/goliatone/go-notifications/pkg/onready"
)

type captureNotifier struct {
	event onready.OnReadyEvent
}

func (c *captureNotifier) Send(ctx context.Context, evt onready.OnReadyEvent) error {
	_ = ctx
	c.event = evt
	return nil
}

func TestNotifier_SendMapsFields(t *testing.T) {
	capture := &captureNotifier{}
	notifier := NewNotifier(capture)

	err := notifier.Send(context.Background(), notify.WorkbookReadyEvent{
		Recipients: []string{"user-1"},
		Channels:   []string{"email"},
		Locale:     "en",
		FileName:   "app.xlsx",
		Source:     "app.db",
		Tables:     3,
		Rows:       120,
		Message:    "workbook ready",
		ChannelOverrides: map[string]map[string]any{
			"email": {"cta_label": "Download"},
		},
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if capture.event.FileName != "app.xlsx" {
		t.Fatalf("expected filename app.xlsx, got %s", capture.event.FileName)
	}
	if capture.event.Format != "xlsx" {
		t.Fatalf("expected format xlsx, got %s", capture.event.Format)
	}
	if capture.event.Rows != 120 {
		t.Fatalf("expected 120 rows, got %d", capture.event.Rows)
	}
	if capture.event.Parts != 3 {
		t.Fatalf("expected table count forwarded as parts, got %d", capture.event.Parts)
	}
	if capture.event.Message != "workbook ready" {
		t.Fatalf("explicit message must pass through, got %q", capture.event.Message)
	}
}

func TestNotifier_DefaultMessageCarriesSource(t *testing.T) {
	capture := &captureNotifier{}
	notifier := NewNotifier(capture)

	err := notifier.Send(context.Background(), notify.WorkbookReadyEvent{
		FileName: "app.xlsx",
		Source:   "app.db",
		Tables:   2,
		Rows:     5,
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if !strings.Contains(capture.event.Message, "app.db") {
		t.Fatalf("expected the source in the default message, got %q", capture.event.Message)
	}
	if !strings.Contains(capture.event.Message, "2 tables") {
		t.Fatalf("expected the table count in the default message, got %q", capture.event.Message)
	}
}

func TestNotifier_SendWithoutDelegate(t *testing.T) {
	notifier := &Notifier{}
	if err := notifier.Send(context.Background(), notify.WorkbookReadyEvent{}); err == nil {
		t.Fatalf("expected error without delegate")
	}
}
