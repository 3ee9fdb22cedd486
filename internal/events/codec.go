package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// Envelope is the wire frame for every event
type Envelope struct {
	Type      Type            `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Encode wraps e in an envelope
func Encode(e Event) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", e.Type(), err)
	}
	return json.Marshal(Envelope{Type: e.Type(), Data: data, Timestamp: time.Now().UTC()})
}

// Decode parses an envelope into its concrete event
func Decode(frame []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	var e Event
	switch env.Type {
	case TypeHistory:
		e = &History{}
	case TypeMainHistory:
		e = &MainHistory{}
	case TypeSupportMessage:
		e = &SupportMessage{}
	case TypeMainMessage:
		e = &MainMessage{}
	case TypeTyping:
		e = &Typing{}
	case TypeToggleGlobal:
		e = &ToggleGlobal{}
	case TypeStateChanged:
		e = &StateChanged{}
	case TypeClearGlobal:
		return ClearGlobal{}, nil
	case TypeCleared:
		return Cleared{}, nil
	case TypeMessagesSeen:
		e = &MessagesSeen{}
	case TypeMessagesHandled:
		e = &MessagesHandled{}
	case TypeThreadDeleted:
		e = &ThreadDeleted{}
	case TypeUserUpdate:
		e = &UserUpdate{}
	case TypeNotification:
		e = &Notification{}
	case TypeError:
		e = &Error{}
	default:
		return nil, fmt.Errorf("unknown event type %q", env.Type)
	}

	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, e); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
	}
	return deref(e), nil
}

// deref returns events by value so type switches match the declared types
func deref(e Event) Event {
	switch v := e.(type) {
	case *History:
		return *v
	case *MainHistory:
		return *v
	case *SupportMessage:
		return *v
	case *MainMessage:
		return *v
	case *Typing:
		return *v
	case *ToggleGlobal:
		return *v
	case *StateChanged:
		return *v
	case *MessagesSeen:
		return *v
	case *MessagesHandled:
		return *v
	case *ThreadDeleted:
		return *v
	case *UserUpdate:
		return *v
	case *Notification:
		return *v
	case *Error:
		return *v
	}
	return e
}
