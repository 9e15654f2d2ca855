package editor

import (
	"fmt"

	"github.com/example/panelmark/internal/tools"
)

// EventKind classifies workspace events.
type EventKind int

const (
	// EventNotice carries a message the operator should see.
	EventNotice EventKind = iota
	// EventTextRequest asks the host to collect a text value.
	EventTextRequest
	EventSelection
	EventImageCommitted
	EventImageDiscarded
	EventImageFailed
	EventImageRemoved
	EventLogoAdded
	EventCleared
	EventReset
	EventLayout
	EventExport
)

var eventNames = []string{
	"notice",
	"text_request",
	"selection",
	"image_committed",
	"image_discarded",
	"image_failed",
	"image_removed",
	"logo_added",
	"cleared",
	"reset",
	"layout",
	"export",
}

func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventNames) {
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
	return eventNames[k]
}

// MarshalText encodes the kind by name.
func (k EventKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Event is delivered to subscribers. Delivery never blocks the workspace;
// a subscriber that falls behind misses events.
type Event struct {
	Kind    EventKind          `json:"kind"`
	Canvas  string             `json:"canvas,omitempty"`
	Message string             `json:"message,omitempty"`
	Text    *tools.TextRequest `json:"text,omitempty"`
}

const subscriberBuffer = 64

// Subscribe returns a channel of events and a function that ends the
// subscription.
func (w *Workspace) Subscribe() (<-chan Event, func()) {
	w.subsMu.Lock()
	defer w.subsMu.Unlock()
	id := w.nextSub
	w.nextSub++
	ch := make(chan Event, subscriberBuffer)
	w.subs[id] = ch
	return ch, func() {
		w.subsMu.Lock()
		defer w.subsMu.Unlock()
		if c, ok := w.subs[id]; ok {
			delete(w.subs, id)
			close(c)
		}
	}
}

// Publish delivers ev to every subscriber without blocking.
func (w *Workspace) Publish(ev Event) {
	w.subsMu.Lock()
	defer w.subsMu.Unlock()
	for _, ch := range w.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (w *Workspace) closeSubscribers() {
	w.subsMu.Lock()
	defer w.subsMu.Unlock()
	for id, ch := range w.subs {
		delete(w.subs, id)
		close(ch)
	}
}
