package amqp

import (
	"encoding/json"
	"time"

	"payboard/internal/core"
)

// RecordAppendedMessage announces one record added to the sequence.
// Sequence is the 1-based position of the record after the append.
type RecordAppendedMessage struct {
	Sequence  int         `json:"sequence"`
	Record    core.Record `json:"record"`
	Timestamp time.Time   `json:"timestamp"`
}

func NewRecordAppendedMessage(seq int, r core.Record) *RecordAppendedMessage {
	return &RecordAppendedMessage{
		Sequence:  seq,
		Record:    r,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *RecordAppendedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
