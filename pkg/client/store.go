package client

import (
	"encoding/json"
	"sync"

	"betportal/internal/events"
	"betportal/internal/models"
	"betportal/internal/support"
)

// Collection selects which chat a MessageStore mirrors
type Collection string

const (
	SupportChat Collection = "chat-support"
	MainChat    Collection = "chat-main"
)

// MessageStore is the local mirror of one chat collection. Remote history
// replaces it wholesale; incremental messages merge by id so an optimistic
// local copy is replaced, not duplicated, when the server echoes it.
type MessageStore struct {
	collection Collection
	viewer     string
	kv         KV

	mu       sync.RWMutex
	messages []models.Message
}

// NewMessageStore rehydrates the collection from kv. viewer is the username
// whose own support thread is open on this client; empty for staff.
func NewMessageStore(kv KV, collection Collection, viewer string) *MessageStore {
	s := &MessageStore{collection: collection, viewer: viewer, kv: kv, messages: []models.Message{}}

	if raw, ok, err := kv.Get(s.key()); err == nil && ok {
		var cached []models.Message
		if json.Unmarshal(raw, &cached) == nil && cached != nil {
			s.messages = cached
		}
	}
	return s
}

func (s *MessageStore) key() string {
	return "messages:" + string(s.collection)
}

// Messages returns a copy of the mirrored collection in arrival order
func (s *MessageStore) Messages() []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Message(nil), s.messages...)
}

// Threads groups the support mirror into threads
func (s *MessageStore) Threads() []models.Thread {
	return support.ComputeThreads(s.Messages())
}

// ApplyLocal records a message this client just composed
func (s *MessageStore) ApplyLocal(msg models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = merge(s.messages, msg)
	return s.persist()
}

// Discard drops an optimistic message the server refused
func (s *MessageStore) Discard(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Message, 0, len(s.messages))
	for _, m := range s.messages {
		if m.ID != id {
			out = append(out, m)
		}
	}
	s.messages = out
	return s.persist()
}

// ApplyRemote folds a server event into the mirror. It reports whether the
// event concerned this collection.
func (s *MessageStore) ApplyRemote(e events.Event) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch ev := e.(type) {
	case events.History:
		if s.collection != SupportChat {
			return false, nil
		}
		s.messages = s.heal(support.CanonicalizeAll(append([]models.Message{}, ev...)))

	case events.MainHistory:
		if s.collection != MainChat {
			return false, nil
		}
		s.messages = append([]models.Message{}, ev...)

	case events.SupportMessage:
		if s.collection != SupportChat {
			return false, nil
		}
		msg := s.heal([]models.Message{models.Message(ev)})[0]
		s.messages = merge(s.messages, msg)

	case events.MainMessage:
		if s.collection != MainChat {
			return false, nil
		}
		s.messages = merge(s.messages, models.Message(ev))

	case events.Cleared:
		if s.collection != MainChat {
			return false, nil
		}
		s.messages = []models.Message{}

	case events.MessagesSeen:
		if s.collection != SupportChat {
			return false, nil
		}
		s.messages = support.MarkSeen(s.messages, ev.Thread, ev.Username)

	case events.MessagesHandled:
		if s.collection != SupportChat {
			return false, nil
		}
		s.messages = support.MarkMessagesAsHandled(s.messages, ev.Thread)

	case events.ThreadDeleted:
		if s.collection != SupportChat {
			return false, nil
		}
		s.messages = support.DeleteThread(s.messages, ev.Thread)

	default:
		return false, nil
	}
	return true, s.persist()
}

// heal marks staff replies in the viewer's own thread as seen by the viewer
func (s *MessageStore) heal(messages []models.Message) []models.Message {
	if s.viewer == "" {
		return messages
	}
	return support.MarkSeen(messages, s.viewer, s.viewer)
}

func (s *MessageStore) persist() error {
	raw, err := json.Marshal(s.messages)
	if err != nil {
		return err
	}
	return s.kv.Set(s.key(), raw)
}

// merge replaces the message with the same id or appends msg
func merge(messages []models.Message, msg models.Message) []models.Message {
	for i := range messages {
		if msg.ID != 0 && messages[i].ID == msg.ID {
			out := append([]models.Message(nil), messages...)
			out[i] = msg
			return out
		}
	}
	return append(messages, msg)
}
