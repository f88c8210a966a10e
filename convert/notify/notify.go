package notify

import "context"

// WorkbookReadyNotifier delivers workbook-ready notifications.
type WorkbookReadyNotifier interface {
	Send(ctx context.Context, evt WorkbookReadyEvent) error
}

// WorkbookReadyEvent mirrors go-notifications OnReadyEvent, but stays in go-db2xlsx.
type WorkbookReadyEvent struct {
	Recipients       []string
	Channels         []string
	Locale           string
	FileName         string
	Source           string
	Tables           int
	Rows             int
	Message          string
	ChannelOverrides map[string]map[string]any
}
