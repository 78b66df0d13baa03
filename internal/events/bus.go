package events

// Kind is the type of ledger mutation.
type Kind string

const (
	EntryUpserted   Kind = "entry_upserted"
	EntryDeleted    Kind = "entry_deleted"
	FeedbackChanged Kind = "feedback_changed"
	LedgerRescored  Kind = "ledger_rescored"
)

// Event carries the kind of mutation and the affected date, if any.
type Event struct {
	Kind    Kind
	DateKey string
}

// Bus is a lightweight in-process pub-sub implementation backed by a buffered channel.
type Bus struct {
	ch chan Event
}

// NewBus creates a bus with the given buffer size.
func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = 1
	}
	return &Bus{ch: make(chan Event, buffer)}
}

// Publish attempts to enqueue the event without blocking.
// Returns true if published, false if the buffer is full.
func (b *Bus) Publish(evt Event) bool {
	select {
	case b.ch <- evt:
		return true
	default:
		return false
	}
}

// Subscribe returns a read-only channel for consumers.
func (b *Bus) Subscribe() <-chan Event {
	return b.ch
}
