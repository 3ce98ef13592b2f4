package saga

import (
	"encoding/json"
	"fmt"

	"github.com/ftgo/order-system/shared/messaging"
	"github.com/pkg/errors"
)

// Command is what a step asks the engine to send to its participant
type Command struct {
	Type    string
	Payload interface{}
}

// Send builds a step command
func Send(commandType string, payload interface{}) Command {
	return Command{Type: commandType, Payload: payload}
}

// CommandFunc derives a command from the current saga data
type CommandFunc[D any] func(data *D) Command

// ReplyHandler folds a SUCCESS reply into the saga data
type ReplyHandler[D any] func(data *D, reply *messaging.Reply) error

// Step is one participant interaction. A step without Action is
// compensation-only; a step without Compensation is not undone on rollback.
type Step[D any] struct {
	Name          string
	Channel       string
	Action        CommandFunc[D]
	Compensation  CommandFunc[D]
	ReplyHandlers map[string]ReplyHandler[D]
}

func (s *Step[D]) HasAction() bool       { return s.Action != nil }
func (s *Step[D]) HasCompensation() bool { return s.Compensation != nil }

// Definition is the immutable, ordered step list of one saga type
type Definition[D any] struct {
	sagaType string
	steps    []Step[D]
}

// Saga is the type-erased view of a Definition the Orchestrator works with
type Saga interface {
	SagaType() string
	StepCount() int
	HasAction(step int) bool
	HasCompensation(step int) bool
	StepName(step int) string
	command(step int, direction messaging.Direction, data json.RawMessage) (*messaging.Command, error)
	applyReply(step int, reply *messaging.Reply, data json.RawMessage) (json.RawMessage, error)
	encode(data interface{}) (json.RawMessage, error)
}

func (d *Definition[D]) SagaType() string { return d.sagaType }
func (d *Definition[D]) StepCount() int   { return len(d.steps) }

func (d *Definition[D]) HasAction(step int) bool {
	return step >= 0 && step < len(d.steps) && d.steps[step].HasAction()
}

func (d *Definition[D]) HasCompensation(step int) bool {
	return step >= 0 && step < len(d.steps) && d.steps[step].HasCompensation()
}

func (d *Definition[D]) StepName(step int) string {
	if step < 0 || step >= len(d.steps) {
		return ""
	}
	return d.steps[step].Name
}

// Step returns a copy of the step at index
func (d *Definition[D]) Step(index int) Step[D] {
	return d.steps[index]
}

func (d *Definition[D]) command(step int, direction messaging.Direction, raw json.RawMessage) (*messaging.Command, error) {
	data, err := d.decode(raw)
	if err != nil {
		return nil, err
	}

	s := d.steps[step]
	build := s.Action
	if direction == messaging.DirectionCompensating {
		build = s.Compensation
	}
	if build == nil {
		return nil, errors.Errorf("%s step %d has no %s command", d.sagaType, step, direction)
	}

	c := build(data)
	cmd := messaging.NewCommand(s.Channel, c.Type, c.Payload)
	cmd.ReplyChannel = ReplyChannel(d.sagaType)
	cmd.Correlation = messaging.CorrelationKey{
		SagaType:  d.sagaType,
		StepIndex: step,
		Direction: direction,
	}
	return cmd, nil
}

func (d *Definition[D]) applyReply(step int, reply *messaging.Reply, raw json.RawMessage) (json.RawMessage, error) {
	handler, ok := d.steps[step].ReplyHandlers[reply.Type]
	if !ok {
		return raw, nil
	}

	data, err := d.decode(raw)
	if err != nil {
		return nil, err
	}
	if err := handler(data, reply); err != nil {
		return nil, errors.Wrapf(err, "%s step %d: failed to handle %s", d.sagaType, step, reply.Type)
	}
	return json.Marshal(data)
}

func (d *Definition[D]) encode(data interface{}) (json.RawMessage, error) {
	switch v := data.(type) {
	case D:
		return json.Marshal(v)
	case *D:
		return json.Marshal(v)
	default:
		return nil, errors.Errorf("%s expects data of type %T, got %T", d.sagaType, *new(D), data)
	}
}

func (d *Definition[D]) decode(raw json.RawMessage) (*D, error) {
	data := new(D)
	if err := json.Unmarshal(raw, data); err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s data", d.sagaType)
	}
	return data, nil
}

// Builder assembles a Definition step by step
type Builder[D any] struct {
	sagaType string
	steps    []Step[D]
	err      error
}

// NewDefinition starts the definition of sagaType
func NewDefinition[D any](sagaType string) *Builder[D] {
	return &Builder[D]{sagaType: sagaType}
}

// Step opens a new step addressed to channel
func (b *Builder[D]) Step(name, channel string) *Builder[D] {
	b.steps = append(b.steps, Step[D]{Name: name, Channel: channel})
	return b
}

// Invoke sets the forward action of the current step
func (b *Builder[D]) Invoke(action CommandFunc[D]) *Builder[D] {
	if s := b.current("Invoke"); s != nil {
		s.Action = action
	}
	return b
}

// OnReply registers a handler for a SUCCESS reply of replyType
func (b *Builder[D]) OnReply(replyType string, handler ReplyHandler[D]) *Builder[D] {
	if s := b.current("OnReply"); s != nil {
		if s.ReplyHandlers == nil {
			s.ReplyHandlers = make(map[string]ReplyHandler[D])
		}
		s.ReplyHandlers[replyType] = handler
	}
	return b
}

// WithCompensation sets the compensation of the current step
func (b *Builder[D]) WithCompensation(compensation CommandFunc[D]) *Builder[D] {
	if s := b.current("WithCompensation"); s != nil {
		s.Compensation = compensation
	}
	return b
}

func (b *Builder[D]) current(op string) *Step[D] {
	if len(b.steps) == 0 {
		if b.err == nil {
			b.err = fmt.Errorf("%s: %s called before Step", b.sagaType, op)
		}
		return nil
	}
	return &b.steps[len(b.steps)-1]
}

// Build validates and freezes the definition
func (b *Builder[D]) Build() (*Definition[D], error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.sagaType == "" {
		return nil, errors.New("saga type is required")
	}
	if len(b.steps) == 0 {
		return nil, errors.Errorf("%s has no steps", b.sagaType)
	}
	for i, s := range b.steps {
		if s.Channel == "" {
			return nil, errors.Errorf("%s step %d (%s) has no channel", b.sagaType, i, s.Name)
		}
		if !s.HasAction() && !s.HasCompensation() {
			return nil, errors.Errorf("%s step %d (%s) has neither action nor compensation", b.sagaType, i, s.Name)
		}
	}

	steps := make([]Step[D], len(b.steps))
	copy(steps, b.steps)
	return &Definition[D]{sagaType: b.sagaType, steps: steps}, nil
}

// MustBuild is Build for definitions assembled at start-up
func (b *Builder[D]) MustBuild() *Definition[D] {
	def, err := b.Build()
	if err != nil {
		panic(err)
	}
	return def
}
