package outbox

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"example.com/exercisetracker/internal/events"
)

// Header keys attached to every published record.
const (
	HeaderEventType   = "event_type"
	HeaderAggregateID = "aggregate_id"
	HeaderEventID     = "event_id"
)

// Message represents a row fetched from outbox.
type Message struct {
	EventID       int64
	AggregateType string
	AggregateID   string
	EventType     string
	Topic         string
	PartitionKey  string
	Payload       json.RawMessage
}

func (m Message) record(now time.Time) kafka.Message {
	return kafka.Message{
		Key:   []byte(m.PartitionKey),
		Value: []byte(m.Payload),
		Time:  now,
		Headers: []kafka.Header{
			{Key: HeaderEventType, Value: []byte(m.EventType)},
			{Key: HeaderAggregateID, Value: []byte(m.AggregateID)},
			{Key: HeaderEventID, Value: []byte(strconv.FormatInt(m.EventID, 10))},
		},
	}
}

var knownEventTypes = map[string]struct{}{
	events.TypeUserCreated:      {},
	events.TypeExerciseRecorded: {},
}
