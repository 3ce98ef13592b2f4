package infrastructure

import (
	"encoding/json"

	"github.com/ftgo/order-system/shared/events"
	"github.com/ftgo/order-system/shared/models"
	"github.com/pkg/errors"
)

// snsNotification is the wrapper SNS puts around a message when the
// subscription does not use raw message delivery
type snsNotification struct {
	Type              string `json:"Type"`
	Message           string `json:"Message"`
	MessageAttributes map[string]struct {
		Type  string `json:"Type"`
		Value string `json:"Value"`
	} `json:"MessageAttributes"`
}

// decodeSQSBody turns a queue message body back into an envelope
func decodeSQSBody(body string) (*events.Event, error) {
	raw := body

	var notification snsNotification
	if err := json.Unmarshal([]byte(body), &notification); err == nil && notification.Type == "Notification" {
		raw = notification.Message
	}

	var message snsMessage
	if err := json.Unmarshal([]byte(raw), &message); err != nil {
		return nil, errors.Wrap(err, "malformed message body")
	}
	if message.ID == "" || message.Topic == "" {
		return nil, errors.New("message body is not an envelope")
	}

	topic, err := events.NewTopic(message.Topic)
	if err != nil {
		return nil, err
	}

	event := &events.Event{
		ID:            models.ID(message.ID),
		AggregateID:   models.ID(message.AggregateID),
		Topic:         topic,
		EventType:     message.Topic,
		Data:          message.Payload,
		Metadata:      message.Metadata,
		Timestamp:     message.Timestamp,
		CorrelationID: models.ID(message.CorrelationID),
	}
	if event.Metadata == nil {
		event.Metadata = make(events.Metadata)
	}
	for k, v := range notification.MessageAttributes {
		if !event.Metadata.Has(k) {
			event.Metadata.Set(k, v.Value)
		}
	}
	return event, nil
}
