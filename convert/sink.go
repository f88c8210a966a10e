package convert

import "sync"

// NopSink discards progress notifications.
type NopSink struct{}

func (NopSink) Progress(int) {}
func (NopSink) Finalizing()  {}
func (NopSink) Done()        {}

// ProgressEventKind identifies channel sink event types.
type ProgressEventKind string

const (
	EventProgress   ProgressEventKind = "progress"
	EventFinalizing ProgressEventKind = "finalizing"
	EventDone       ProgressEventKind = "done"
)

// ProgressEvent is a typed progress notification.
type ProgressEvent struct {
	Kind    ProgressEventKind
	Percent int
}

// ChannelSink delivers progress events over a channel so hosts can drain
// them from their own execution context instead of being called from the
// conversion goroutine.
type ChannelSink struct {
	events    chan ProgressEvent
	closeOnce sync.Once
}

// NewChannelSink creates a channel sink with the given buffer size.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer < 0 {
		buffer = 0
	}
	return &ChannelSink{events: make(chan ProgressEvent, buffer)}
}

// Events returns the event stream. The channel is closed after the done
// event, or after the last progress event when the job does not complete.
func (s *ChannelSink) Events() <-chan ProgressEvent {
	return s.events
}

// Progress publishes a progress percentage.
func (s *ChannelSink) Progress(percent int) {
	s.events <- ProgressEvent{Kind: EventProgress, Percent: percent}
}

// Finalizing publishes the finalizing notification.
func (s *ChannelSink) Finalizing() {
	s.events <- ProgressEvent{Kind: EventFinalizing}
}

// Done publishes the terminal done notification and closes the stream.
func (s *ChannelSink) Done() {
	s.events <- ProgressEvent{Kind: EventDone, Percent: 100}
	s.closeOnce.Do(func() { close(s.events) })
}

// CloseEvents closes the stream for jobs that ended without a done event.
// Hosts call it after the handle reports failure or cancellation.
func (s *ChannelSink) CloseEvents() {
	s.closeOnce.Do(func() { close(s.events) })
}
