package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

var ErrMissingTransactionID = errors.New("approval message without transaction id")

// ApprovalChangedMessage announces that a transaction's approval was stored.
type ApprovalChangedMessage struct {
	TransactionID string    `json:"transactionId"`
	Approved      bool      `json:"approved"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewApprovalChangedMessage(transactionID string, approved bool) *ApprovalChangedMessage {
	return &ApprovalChangedMessage{
		TransactionID: transactionID,
		Approved:      approved,
		Timestamp:     time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ApprovalChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ApprovalChangedMessageFromJSON decodes and validates a message body.
func ApprovalChangedMessageFromJSON(data []byte) (*ApprovalChangedMessage, error) {
	var msg ApprovalChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.TransactionID == "" {
		return nil, ErrMissingTransactionID
	}
	return &msg, nil
}
