package events

import (
	"encoding/base64"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Message is the envelope written to the broker.
type Message struct {
	ID      uuid.UUID `json:"id"`
	Content string    `json:"content"`
	Hash    string    `json:"hash"`
}

func ToMessage(e Event) (*Message, error) {
	serialized, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}

	return &Message{
		ID:      uuid.New(),
		Content: string(serialized),
		Hash:    base64.StdEncoding.EncodeToString(serialized),
	}, nil
}

func FromMessage(m *Message) (Event, error) {
	var e Event
	if err := json.Unmarshal([]byte(m.Content), &e); err != nil {
		return Event{}, err
	}
	return e, nil
}
