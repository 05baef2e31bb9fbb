package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// BillSubmittedMessage announces a persisted bill. The worker loads the
// full record from the database.
type BillSubmittedMessage struct {
	BillID    string    `json:"bill_id"`
	Email     string    `json:"email"`
	Timestamp time.Time `json:"timestamp"`
}

var errMissingBillID = errors.New("bill submitted message without bill_id")

func NewBillSubmittedMessage(billID, email string) *BillSubmittedMessage {
	return &BillSubmittedMessage{
		BillID:    billID,
		Email:     email,
		Timestamp: time.Now().UTC(),
	}
}

func (m *BillSubmittedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BillSubmittedMessageFromJSON decodes a message and rejects one without a bill ID.
func BillSubmittedMessageFromJSON(data []byte) (*BillSubmittedMessage, error) {
	var msg BillSubmittedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.BillID == "" {
		return nil, errMissingBillID
	}
	return &msg, nil
}
