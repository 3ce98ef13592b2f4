package saga

import (
	"context"
	"fmt"

	"github.com/ftgo/order-system/shared/apperrors"
	"github.com/ftgo/order-system/shared/events"
	"github.com/ftgo/order-system/shared/logger"
	"github.com/ftgo/order-system/shared/messaging"
	"github.com/ftgo/order-system/shared/models"
	"github.com/ftgo/order-system/shared/telemetry"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// CommandProducer sends step commands
type CommandProducer interface {
	Send(ctx context.Context, channel string, cmd *messaging.Command) error
}

// Orchestrator drives saga instances. It is re-entered only by Start and
// by inbound replies; nothing blocks while a participant works.
type Orchestrator struct {
	sagas      map[string]Saga
	repository InstanceRepository
	producer   CommandProducer
	transactor messaging.Transactor
	events     *events.DomainEventPublisher
	logger     *logger.Logger
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

func WithTransactor(transactor messaging.Transactor) Option {
	return func(o *Orchestrator) {
		o.transactor = transactor
	}
}

// WithEventPublisher publishes saga lifecycle events
func WithEventPublisher(publisher *events.DomainEventPublisher) Option {
	return func(o *Orchestrator) {
		o.events = publisher
	}
}

func WithLogger(log *logger.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = log
	}
}

// NewOrchestrator creates an orchestrator for a fixed set of saga definitions
func NewOrchestrator(repository InstanceRepository, producer CommandProducer, sagas []Saga, opts ...Option) (*Orchestrator, error) {
	o := &Orchestrator{
		sagas:      make(map[string]Saga, len(sagas)),
		repository: repository,
		producer:   producer,
		transactor: messaging.NoopTransactor{},
		logger:     logger.NewNop(),
	}
	for _, s := range sagas {
		if _, dup := o.sagas[s.SagaType()]; dup {
			return nil, errors.Errorf("saga type %s registered twice", s.SagaType())
		}
		o.sagas[s.SagaType()] = s
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// HandlerID returns the unique identifier for the reply consumer
func (o *Orchestrator) HandlerID() string {
	return "saga-orchestrator"
}

// ReplyChannels lists the channels the orchestrator must consume
func (o *Orchestrator) ReplyChannels() []string {
	channels := make([]string, 0, len(o.sagas))
	for sagaType := range o.sagas {
		channels = append(channels, ReplyChannel(sagaType))
	}
	return channels
}

// Start persists a new instance of sagaType and sends its first command.
// Joining the caller's transaction, the instance commits together with
// whatever the caller saved.
func (o *Orchestrator) Start(ctx context.Context, sagaType string, data interface{}) (*Instance, error) {
	ctx, span := telemetry.StartSpan(ctx, "saga_start", trace.WithAttributes(attribute.String("saga_type", sagaType)))
	defer span.End()

	def, ok := o.sagas[sagaType]
	if !ok {
		return nil, errors.Errorf("unknown saga type %s", sagaType)
	}

	raw, err := def.encode(data)
	if err != nil {
		return nil, err
	}

	inst := newInstance(sagaType, raw)
	span.SetAttributes(attribute.String("saga_id", inst.ID.String()))

	err = o.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		cmd, err := o.advance(def, inst, 0)
		if err != nil {
			return err
		}
		o.correlate(inst, cmd)
		if err := o.repository.Create(ctx, inst); err != nil {
			return errors.Wrap(err, "failed to create saga instance")
		}
		if err := o.publishLifecycle(ctx, inst, events.SagaStartedEvent); err != nil {
			return err
		}
		if err := o.publishOutcome(ctx, inst); err != nil {
			return err
		}
		return o.send(ctx, def, inst, cmd)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	o.logger.Info("saga started", "saga_id", inst.ID, "saga_type", sagaType, "step", inst.StepIndex, "status", inst.Status)
	return inst, nil
}

// Handle implements events.EventHandler for reply envelopes
func (o *Orchestrator) Handle(ctx context.Context, event *events.Event) error {
	reply, err := messaging.ReplyFromEvent(event)
	if err != nil {
		return errors.Wrap(err, "failed to decode reply")
	}
	return o.HandleReply(ctx, reply)
}

// HandleReply moves the instance the reply is correlated with. Replies for
// unknown instances or for a cursor position that has already been resolved
// are discarded.
func (o *Orchestrator) HandleReply(ctx context.Context, reply *messaging.Reply) error {
	key := reply.Correlation
	ctx, span := telemetry.StartSpan(ctx, "saga_handle_reply",
		trace.WithAttributes(
			attribute.String("saga_type", key.SagaType),
			attribute.String("saga_id", key.SagaID.String()),
			attribute.Int("step_index", key.StepIndex),
			attribute.String("direction", string(key.Direction)),
			attribute.String("outcome", string(reply.Outcome)),
		),
	)
	defer span.End()

	log := o.logger.With("saga_id", key.SagaID, "saga_type", key.SagaType, "step", key.StepIndex,
		"direction", key.Direction, "outcome", reply.Outcome)

	def, ok := o.sagas[key.SagaType]
	if !ok {
		log.Warn("reply for unknown saga type discarded")
		return nil
	}

	var after *Instance
	err := o.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		inst, err := o.repository.FindByID(ctx, key.SagaID)
		if err != nil {
			if apperrors.IsNotFound(err) {
				log.Warn("reply for unknown saga instance discarded")
				return nil
			}
			return errors.Wrap(err, "failed to load saga instance")
		}

		if !inst.Matches(key) {
			log.Info("duplicate reply discarded", "cursor_step", inst.StepIndex, "cursor_direction", inst.Direction, "status", inst.Status)
			return nil
		}

		cmd, err := o.transition(def, inst, reply)
		if err != nil {
			return err
		}

		o.correlate(inst, cmd)
		inst.touch()
		if err := o.repository.Update(ctx, inst); err != nil {
			return errors.Wrap(err, "failed to update saga instance")
		}
		if err := o.publishOutcome(ctx, inst); err != nil {
			return err
		}
		if err := o.send(ctx, def, inst, cmd); err != nil {
			return err
		}
		after = inst
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return err
	}
	if after == nil {
		return nil
	}

	telemetry.RecordSagaTransition(ctx, after.SagaType, string(after.Direction), string(after.Status))
	switch after.Status {
	case SagaStatusStuck:
		log.Error("saga stuck, compensation failed", "reason", after.FailureReason)
		telemetry.RecordSagaFinished(ctx, after.SagaType, string(after.Status))
	case SagaStatusCompleted, SagaStatusRolledBack:
		log.Info("saga finished", "status", after.Status)
		telemetry.RecordSagaFinished(ctx, after.SagaType, string(after.Status))
	default:
		log.Info("saga advanced", "next_step", after.StepIndex, "next_direction", after.Direction)
	}
	return nil
}

// transition applies reply to the cursor and returns the next command, if any
func (o *Orchestrator) transition(def Saga, inst *Instance, reply *messaging.Reply) (*messaging.Command, error) {
	step := inst.StepIndex

	switch inst.Direction {
	case messaging.DirectionForward:
		if reply.IsSuccess() {
			data, err := def.applyReply(step, reply, inst.Data)
			if err != nil {
				// a reply the saga cannot absorb fails the step
				inst.FailureReason = err.Error()
				return o.compensate(def, inst, step-1)
			}
			inst.Data = data
			return o.advance(def, inst, step+1)
		}
		inst.FailureReason = failureReason(def, step, reply)
		return o.compensate(def, inst, step-1)

	case messaging.DirectionCompensating:
		if reply.IsSuccess() {
			return o.compensate(def, inst, step-1)
		}
		inst.Status = SagaStatusStuck
		inst.FailureReason = failureReason(def, step, reply)
		return nil, nil
	}

	return nil, errors.Errorf("saga %s has invalid direction %q", inst.ID, inst.Direction)
}

// advance moves the cursor forward to the first step at or after from that
// has a forward action. Compensation-only steps are passed over.
func (o *Orchestrator) advance(def Saga, inst *Instance, from int) (*messaging.Command, error) {
	for step := from; step < def.StepCount(); step++ {
		if def.HasAction(step) {
			inst.StepIndex = step
			inst.Direction = messaging.DirectionForward
			return def.command(step, messaging.DirectionForward, inst.Data)
		}
	}
	inst.StepIndex = def.StepCount()
	inst.Status = SagaStatusCompleted
	return nil, nil
}

// compensate moves the cursor backward to the first step at or before from
// that defines a compensation
func (o *Orchestrator) compensate(def Saga, inst *Instance, from int) (*messaging.Command, error) {
	inst.Direction = messaging.DirectionCompensating
	for step := from; step >= 0; step-- {
		if def.HasCompensation(step) {
			inst.StepIndex = step
			return def.command(step, messaging.DirectionCompensating, inst.Data)
		}
	}
	inst.StepIndex = -1
	inst.Status = SagaStatusRolledBack
	return nil, nil
}

func (o *Orchestrator) correlate(inst *Instance, cmd *messaging.Command) {
	if cmd == nil {
		return
	}
	cmd.Correlation.SagaID = inst.ID
	inst.LastCommandID = cmd.ID
}

func (o *Orchestrator) send(ctx context.Context, def Saga, inst *Instance, cmd *messaging.Command) error {
	if cmd == nil {
		return nil
	}
	if err := o.producer.Send(ctx, cmd.Channel, cmd); err != nil {
		return errors.Wrapf(err, "failed to send %s for step %d (%s)", cmd.Type, inst.StepIndex, def.StepName(inst.StepIndex))
	}
	return nil
}

func (o *Orchestrator) publishOutcome(ctx context.Context, inst *Instance) error {
	switch inst.Status {
	case SagaStatusCompleted:
		return o.publishLifecycle(ctx, inst, events.SagaCompletedEvent)
	case SagaStatusRolledBack:
		return o.publishLifecycle(ctx, inst, events.SagaCompensatedEvent)
	case SagaStatusStuck:
		return o.publishLifecycle(ctx, inst, events.SagaStuckEvent)
	}
	return nil
}

type lifecycle struct {
	SagaID        models.ID  `json:"saga_id"`
	SagaType      string     `json:"saga_type"`
	Status        SagaStatus `json:"status"`
	FailureReason string     `json:"failure_reason,omitempty"`
}

func (o *Orchestrator) publishLifecycle(ctx context.Context, inst *Instance, eventType string) error {
	if o.events == nil {
		return nil
	}
	event := events.NewEvent(inst.ID, eventType, lifecycle{
		SagaID:        inst.ID,
		SagaType:      inst.SagaType,
		Status:        inst.Status,
		FailureReason: inst.FailureReason,
	})
	if err := o.events.Publish(ctx, events.AggregateTypeSaga, inst.ID, []*events.Event{event}); err != nil {
		return errors.Wrapf(err, "failed to publish %s", eventType)
	}
	return nil
}

// Get returns a saga instance
func (o *Orchestrator) Get(ctx context.Context, id models.ID) (*Instance, error) {
	return o.repository.FindByID(ctx, id)
}

// Stuck returns the instances waiting for manual intervention
func (o *Orchestrator) Stuck(ctx context.Context) ([]*Instance, error) {
	return o.repository.FindByStatus(ctx, SagaStatusStuck)
}

func failureReason(def Saga, step int, reply *messaging.Reply) string {
	reason := reply.Reason
	if reason == "" {
		reason = "participant replied " + string(reply.Outcome)
	}
	return fmt.Sprintf("step %d (%s): %s", step, def.StepName(step), reason)
}
