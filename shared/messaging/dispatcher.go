package messaging

import (
	"context"
	"sync"
	"time"

	"github.com/ftgo/order-system/shared/apperrors"
	"github.com/ftgo/order-system/shared/events"
	"github.com/ftgo/order-system/shared/logger"
	"github.com/ftgo/order-system/shared/models"
	"github.com/ftgo/order-system/shared/telemetry"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// CommandHandlerFunc runs the local transaction for one command. A nil error
// produces a SUCCESS reply carrying the returned payload; any other error
// produces a FAILURE reply, except transient errors which are handed back to
// the transport for redelivery.
type CommandHandlerFunc func(ctx context.Context, cmd *Command) (interface{}, error)

// CommandHandlers maps a command type tag to its handler
type CommandHandlers map[string]CommandHandlerFunc

// ReplyProducer sends replies
type ReplyProducer interface {
	Reply(ctx context.Context, reply *Reply) error
}

// ProcessedStore remembers the reply given to each command. The dispatcher
// calls it inside the handler's transaction; a store that writes through that
// transaction makes the record commit or roll back with the handler.
type ProcessedStore interface {
	Lookup(ctx context.Context, commandID models.ID) (*Reply, bool, error)
	Remember(ctx context.Context, commandID models.ID, reply *Reply) error
}

// CommandDispatcher routes inbound commands through a dispatch table that is
// assembled once at start-up.
type CommandDispatcher struct {
	id         string
	handlers   CommandHandlers
	replies    ReplyProducer
	transactor Transactor
	processed  ProcessedStore
	logger     *logger.Logger
}

// DispatcherOption configures a CommandDispatcher
type DispatcherOption func(*CommandDispatcher)

func WithTransactor(transactor Transactor) DispatcherOption {
	return func(d *CommandDispatcher) {
		d.transactor = transactor
	}
}

func WithProcessedStore(store ProcessedStore) DispatcherOption {
	return func(d *CommandDispatcher) {
		d.processed = store
	}
}

func WithLogger(log *logger.Logger) DispatcherOption {
	return func(d *CommandDispatcher) {
		d.logger = log
	}
}

// NewCommandDispatcher creates a new CommandDispatcher
func NewCommandDispatcher(id string, handlers CommandHandlers, replies ReplyProducer, opts ...DispatcherOption) *CommandDispatcher {
	d := &CommandDispatcher{
		id:         id,
		handlers:   make(CommandHandlers, len(handlers)),
		replies:    replies,
		transactor: NoopTransactor{},
		logger:     logger.NewNop(),
	}
	for commandType, handler := range handlers {
		d.handlers[commandType] = handler
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// HandlerID returns the unique identifier for this dispatcher
func (d *CommandDispatcher) HandlerID() string {
	return d.id
}

// Handles reports whether a handler is registered for commandType
func (d *CommandDispatcher) Handles(commandType string) bool {
	_, ok := d.handlers[commandType]
	return ok
}

// Handle implements events.EventHandler for command envelopes
func (d *CommandDispatcher) Handle(ctx context.Context, event *events.Event) error {
	cmd, err := CommandFromEvent(event)
	if err != nil {
		return errors.Wrap(err, "failed to decode command")
	}
	return d.Dispatch(ctx, cmd)
}

// Dispatch runs the handler for cmd and sends exactly one reply
func (d *CommandDispatcher) Dispatch(ctx context.Context, cmd *Command) error {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "dispatch_command",
		trace.WithAttributes(
			attribute.String("command_type", cmd.Type),
			attribute.String("saga_id", cmd.Correlation.SagaID.String()),
			attribute.Int("step_index", cmd.Correlation.StepIndex),
		),
	)
	defer span.End()

	log := d.logger.With("command_id", cmd.ID, "command_type", cmd.Type, "correlation", cmd.Correlation.String())

	outcome := "error"
	defer func() {
		telemetry.RecordCounter(ctx, "commands_handled_total", "Total commands handled", 1,
			attribute.String("command_type", cmd.Type),
			attribute.String("outcome", outcome),
		)
		telemetry.RecordHistogram(ctx, "command_duration_seconds", "Command handling duration", time.Since(start).Seconds(),
			attribute.String("command_type", cmd.Type),
		)
	}()

	handler, ok := d.handlers[cmd.Type]
	if !ok {
		log.Warn("no handler registered for command")
		outcome = string(OutcomeFailure)
		return d.reply(ctx, cmd, FailureReply(cmd, "unknown command type "+cmd.Type))
	}

	// The processed-command record commits with the handler's writes, so a
	// redelivery either finds it or finds none of the handler's effects.
	var replayed *Reply
	err := d.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		previous, seen, err := d.lookup(ctx, cmd)
		if err != nil {
			return err
		}
		if seen {
			replayed = previous
			return d.replies.Reply(ctx, previous.Replay())
		}

		payload, err := handler(ctx, cmd)
		if err != nil {
			return err
		}
		return d.send(ctx, cmd, SuccessReply(cmd, payload))
	})

	if err != nil {
		span.RecordError(err)
		if apperrors.IsTransient(err) {
			log.Warn("transient failure, leaving command for redelivery", "error", err)
			return err
		}

		log.Info("command failed", "error", err)
		outcome = string(OutcomeFailure)
		return d.reply(ctx, cmd, FailureReply(cmd, err.Error()))
	}

	if replayed != nil {
		log.Info("duplicate command, replaying reply", "outcome", replayed.Outcome)
		outcome = "duplicate"
		return nil
	}
	outcome = string(OutcomeSuccess)
	return nil
}

// reply sends a FAILURE reply in its own transaction. A concurrent delivery
// of the same command may have committed its reply since the handler ran;
// that reply wins.
func (d *CommandDispatcher) reply(ctx context.Context, cmd *Command, reply *Reply) error {
	err := d.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		previous, seen, err := d.lookup(ctx, cmd)
		if err != nil {
			return err
		}
		if seen {
			d.logger.Info("command already answered, replaying reply",
				"command_id", cmd.ID, "outcome", previous.Outcome)
			return d.replies.Reply(ctx, previous.Replay())
		}
		return d.send(ctx, cmd, reply)
	})
	if err != nil {
		if apperrors.IsTransient(err) {
			return err
		}
		return errors.Wrap(err, "failed to send reply")
	}
	return nil
}

// send publishes reply and records it as the answer to cmd
func (d *CommandDispatcher) send(ctx context.Context, cmd *Command, reply *Reply) error {
	if err := d.replies.Reply(ctx, reply); err != nil {
		return err
	}
	if d.processed == nil {
		return nil
	}
	if err := d.processed.Remember(ctx, cmd.ID, reply); err != nil {
		return apperrors.Transient(errors.Wrap(err, "failed to remember processed command"))
	}
	return nil
}

func (d *CommandDispatcher) lookup(ctx context.Context, cmd *Command) (*Reply, bool, error) {
	if d.processed == nil {
		return nil, false, nil
	}
	previous, seen, err := d.processed.Lookup(ctx, cmd.ID)
	if err != nil {
		return nil, false, apperrors.Transient(errors.Wrap(err, "failed to look up processed command"))
	}
	return previous, seen, nil
}

// MemoryProcessedStore keeps processed commands in memory
type MemoryProcessedStore struct {
	mu      sync.Mutex
	replies map[models.ID]*Reply
}

// NewMemoryProcessedStore creates a new MemoryProcessedStore
func NewMemoryProcessedStore() *MemoryProcessedStore {
	return &MemoryProcessedStore{replies: make(map[models.ID]*Reply)}
}

func (s *MemoryProcessedStore) Lookup(_ context.Context, commandID models.ID) (*Reply, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reply, ok := s.replies[commandID]
	return reply, ok, nil
}

func (s *MemoryProcessedStore) Remember(_ context.Context, commandID models.ID, reply *Reply) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies[commandID] = reply
	return nil
}
