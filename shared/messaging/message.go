// Package messaging defines the command/reply envelopes exchanged between
// the saga orchestrator and participant services, and the plumbing that
// carries them over an events.Publisher.
package messaging

import (
	"fmt"
	"strconv"
	"time"

	"github.com/ftgo/order-system/shared/events"
	"github.com/ftgo/order-system/shared/models"
	"github.com/pkg/errors"
)

// Direction tells whether a saga is moving forward or unwinding
type Direction string

const (
	DirectionForward      Direction = "FORWARD"
	DirectionCompensating Direction = "COMPENSATING"
)

// Outcome of a participant's local transaction
type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomeFailure Outcome = "FAILURE"
)

// Generic reply types used when a handler produces no typed payload
const (
	ReplyTypeSuccess = "Success"
	ReplyTypeFailure = "Failure"
)

// Metadata keys of the envelope
const (
	MetadataKind         = "message_kind"
	MetadataReplyChannel = "reply_channel"
	MetadataSagaID       = "saga_id"
	MetadataSagaType     = "saga_type"
	MetadataStepIndex    = "step_index"
	MetadataDirection    = "direction"
	MetadataOutcome      = "outcome"
	MetadataCommandID    = "command_id"
	MetadataReason       = "reason"

	KindCommand = "command"
	KindReply   = "reply"
)

var ErrNotAMessage = errors.New("event is not a saga message")

// CorrelationKey ties a command and its reply to one saga step in one direction
type CorrelationKey struct {
	SagaID    models.ID `json:"saga_id"`
	SagaType  string    `json:"saga_type"`
	StepIndex int       `json:"step_index"`
	Direction Direction `json:"direction"`
}

func (k CorrelationKey) String() string {
	return fmt.Sprintf("%s/%s/%d/%s", k.SagaType, k.SagaID, k.StepIndex, k.Direction)
}

// TypedReply is implemented by reply payloads that name their own reply type
type TypedReply interface {
	ReplyType() string
}

// Command asks a participant to run one local transaction
type Command struct {
	ID           models.ID      `json:"id"`
	Type         string         `json:"type"`
	Channel      string         `json:"channel"`
	ReplyChannel string         `json:"reply_channel"`
	Payload      interface{}    `json:"payload"`
	Correlation  CorrelationKey `json:"correlation"`
	Timestamp    time.Time      `json:"timestamp"`
}

// NewCommand creates a command addressed to channel
func NewCommand(channel, commandType string, payload interface{}) *Command {
	return &Command{
		ID:        models.GenerateUUID(),
		Type:      commandType,
		Channel:   channel,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// UnmarshalPayload decodes the command payload into v
func (c *Command) UnmarshalPayload(v interface{}) error {
	return (&events.Event{Data: c.Payload}).UnmarshalPayload(v)
}

// ToEvent wraps the command in a transport envelope
func (c *Command) ToEvent() *events.Event {
	event := events.NewEvent(c.Correlation.SagaID, c.Type, c.Payload)
	event.ID = c.ID
	event.Timestamp = c.Timestamp
	event.WithCorrelationID(c.Correlation.SagaID)
	event.WithMetadata(MetadataKind, KindCommand)
	event.WithMetadata(events.MetadataChannel, c.Channel)
	event.WithMetadata(MetadataReplyChannel, c.ReplyChannel)
	setCorrelation(event, c.Correlation)
	return event
}

// CommandFromEvent unwraps a command from its transport envelope
func CommandFromEvent(event *events.Event) (*Command, error) {
	if kind, _ := event.Metadata.Get(MetadataKind); kind != KindCommand {
		return nil, ErrNotAMessage
	}

	correlation, err := getCorrelation(event)
	if err != nil {
		return nil, err
	}

	replyChannel, _ := event.Metadata.Get(MetadataReplyChannel)

	return &Command{
		ID:           event.ID,
		Type:         event.Topic.String(),
		Channel:      event.Channel(),
		ReplyChannel: replyChannel,
		Payload:      event.Data,
		Correlation:  correlation,
		Timestamp:    event.Timestamp,
	}, nil
}

// Reply reports the outcome of a command back to the orchestrator
type Reply struct {
	ID          models.ID      `json:"id"`
	Type        string         `json:"type"`
	Outcome     Outcome        `json:"outcome"`
	Channel     string         `json:"channel"`
	Payload     interface{}    `json:"payload,omitempty"`
	Reason      string         `json:"reason,omitempty"`
	CommandID   models.ID      `json:"command_id"`
	Correlation CorrelationKey `json:"correlation"`
	Timestamp   time.Time      `json:"timestamp"`
}

// SuccessReply builds the SUCCESS reply to cmd
func SuccessReply(cmd *Command, payload interface{}) *Reply {
	replyType := ReplyTypeSuccess
	if typed, ok := payload.(TypedReply); ok {
		replyType = typed.ReplyType()
	}
	return newReply(cmd, replyType, OutcomeSuccess, payload, "")
}

// FailureReply builds the FAILURE reply to cmd
func FailureReply(cmd *Command, reason string) *Reply {
	return newReply(cmd, ReplyTypeFailure, OutcomeFailure, nil, reason)
}

func newReply(cmd *Command, replyType string, outcome Outcome, payload interface{}, reason string) *Reply {
	return &Reply{
		ID:          models.GenerateUUID(),
		Type:        replyType,
		Outcome:     outcome,
		Channel:     cmd.ReplyChannel,
		Payload:     payload,
		Reason:      reason,
		CommandID:   cmd.ID,
		Correlation: cmd.Correlation,
		Timestamp:   time.Now(),
	}
}

// Replay copies r under a new envelope ID so that it can be sent again
// through the outbox. Outcome, payload and correlation are unchanged.
func (r *Reply) Replay() *Reply {
	c := *r
	c.ID = models.GenerateUUID()
	c.Timestamp = time.Now()
	return &c
}

// IsSuccess reports a SUCCESS outcome
func (r *Reply) IsSuccess() bool {
	return r.Outcome == OutcomeSuccess
}

// UnmarshalPayload decodes the reply payload into v
func (r *Reply) UnmarshalPayload(v interface{}) error {
	return (&events.Event{Data: r.Payload}).UnmarshalPayload(v)
}

// ToEvent wraps the reply in a transport envelope
func (r *Reply) ToEvent() *events.Event {
	event := events.NewEvent(r.Correlation.SagaID, r.Type, r.Payload)
	event.ID = r.ID
	event.Timestamp = r.Timestamp
	event.WithCorrelationID(r.Correlation.SagaID)
	event.WithMetadata(MetadataKind, KindReply)
	event.WithMetadata(events.MetadataChannel, r.Channel)
	event.WithMetadata(MetadataOutcome, string(r.Outcome))
	event.WithMetadata(MetadataCommandID, r.CommandID.String())
	if r.Reason != "" {
		event.WithMetadata(MetadataReason, r.Reason)
	}
	setCorrelation(event, r.Correlation)
	return event
}

// ReplyFromEvent unwraps a reply from its transport envelope
func ReplyFromEvent(event *events.Event) (*Reply, error) {
	if kind, _ := event.Metadata.Get(MetadataKind); kind != KindReply {
		return nil, ErrNotAMessage
	}

	correlation, err := getCorrelation(event)
	if err != nil {
		return nil, err
	}

	outcome, _ := event.Metadata.Get(MetadataOutcome)
	if outcome != string(OutcomeSuccess) && outcome != string(OutcomeFailure) {
		return nil, errors.Errorf("invalid reply outcome %q", outcome)
	}

	commandID, _ := event.Metadata.Get(MetadataCommandID)
	reason, _ := event.Metadata.Get(MetadataReason)

	return &Reply{
		ID:          event.ID,
		Type:        event.Topic.String(),
		Outcome:     Outcome(outcome),
		Channel:     event.Channel(),
		Payload:     event.Data,
		Reason:      reason,
		CommandID:   models.ID(commandID),
		Correlation: correlation,
		Timestamp:   event.Timestamp,
	}, nil
}

// IsCommand reports whether the envelope carries a command
func IsCommand(event *events.Event) bool {
	kind, _ := event.Metadata.Get(MetadataKind)
	return kind == KindCommand
}

// IsReply reports whether the envelope carries a reply
func IsReply(event *events.Event) bool {
	kind, _ := event.Metadata.Get(MetadataKind)
	return kind == KindReply
}

func setCorrelation(event *events.Event, key CorrelationKey) {
	event.WithMetadata(MetadataSagaID, key.SagaID.String())
	event.WithMetadata(MetadataSagaType, key.SagaType)
	event.WithMetadata(MetadataStepIndex, strconv.Itoa(key.StepIndex))
	event.WithMetadata(MetadataDirection, string(key.Direction))
}

func getCorrelation(event *events.Event) (CorrelationKey, error) {
	sagaID, _ := event.Metadata.Get(MetadataSagaID)
	sagaType, _ := event.Metadata.Get(MetadataSagaType)
	direction, _ := event.Metadata.Get(MetadataDirection)
	rawStep, _ := event.Metadata.Get(MetadataStepIndex)

	step, err := strconv.Atoi(rawStep)
	if err != nil {
		return CorrelationKey{}, errors.Wrapf(err, "invalid step index %q", rawStep)
	}

	return CorrelationKey{
		SagaID:    models.ID(sagaID),
		SagaType:  sagaType,
		StepIndex: step,
		Direction: Direction(direction),
	}, nil
}
