package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// TotalsChangedMessage announces that the totals of an event changed. It
// carries only the identifiers; consumers load the current summary from the
// store.
type TotalsChangedMessage struct {
	OwnerID   string    `json:"ownerId"`
	EventID   string    `json:"eventId"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

var ErrIncompleteMessage = errors.New("message is missing ownerId or eventId")

func NewTotalsChangedMessage(ownerID, eventID, reason string) *TotalsChangedMessage {
	return &TotalsChangedMessage{
		OwnerID:   ownerID,
		EventID:   eventID,
		Reason:    reason,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TotalsChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TotalsChangedMessageFromJSON decodes a message and checks that it names an
// event.
func TotalsChangedMessageFromJSON(data []byte) (*TotalsChangedMessage, error) {
	var msg TotalsChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.OwnerID == "" || msg.EventID == "" {
		return nil, ErrIncompleteMessage
	}
	return &msg, nil
}
