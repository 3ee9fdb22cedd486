package events

import "sync"

// Publisher fans events out to connected clients
type Publisher interface {
	// Publish delivers e to every connection
	Publish(e Event)
	// PublishExcept delivers e to every connection but the one with connID
	PublishExcept(e Event, connID string)
}

// Discard drops every event
type Discard struct{}

func (Discard) Publish(Event)               {}
func (Discard) PublishExcept(Event, string) {}

// Recorder keeps published events in memory
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *Recorder) PublishExcept(e Event, _ string) {
	r.Publish(e)
}

// Events returns a copy of everything published so far
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// OfType filters recorded events by name
func (r *Recorder) OfType(t Type) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Type() == t {
			out = append(out, e)
		}
	}
	return out
}

// Reset forgets recorded events
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
