package amqp

import (
	"encoding/json"
	"time"
)

// DatasetRefreshMessage notifies consumers that the base trade table
// changed. It carries only the source identity and row count; consumers
// re-read the table from the database themselves.
type DatasetRefreshMessage struct {
	Source    string    `json:"source"`
	Count     int64     `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

// NewDatasetRefreshMessage creates a refresh message for a source.
func NewDatasetRefreshMessage(source string, count int64) *DatasetRefreshMessage {
	return &DatasetRefreshMessage{
		Source:    source,
		Count:     count,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *DatasetRefreshMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// DatasetRefreshMessageFromJSON creates a message from JSON bytes
func DatasetRefreshMessageFromJSON(data []byte) (*DatasetRefreshMessage, error) {
	var msg DatasetRefreshMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
