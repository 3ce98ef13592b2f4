package infrastructure

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/ftgo/order-system/shared/events"
	"github.com/ftgo/order-system/shared/logger"
	"github.com/ftgo/order-system/shared/messaging"
	"github.com/ftgo/order-system/shared/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSNS struct {
	inputs []*sns.PublishBatchInput
	failed []snstypes.BatchResultErrorEntry
}

func (f *fakeSNS) PublishBatch(_ context.Context, params *sns.PublishBatchInput, _ ...func(*sns.Options)) (*sns.PublishBatchOutput, error) {
	f.inputs = append(f.inputs, params)
	return &sns.PublishBatchOutput{Failed: f.failed}, nil
}

type fakeSQS struct {
	messages []sqstypes.Message
	deleted  []string
}

func (f *fakeSQS) ReceiveMessage(_ context.Context, _ *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	messages := f.messages
	f.messages = nil
	return &sqs.ReceiveMessageOutput{Messages: messages}, nil
}

func (f *fakeSQS) DeleteMessage(_ context.Context, params *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(params.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

func (f *fakeSQS) ChangeMessageVisibility(_ context.Context, _ *sqs.ChangeMessageVisibilityInput, _ ...func(*sqs.Options)) (*sqs.ChangeMessageVisibilityOutput, error) {
	return &sqs.ChangeMessageVisibilityOutput{}, nil
}

func testCommand() *messaging.Command {
	cmd := messaging.NewCommand("kitchenService", "CreateTicket", map[string]string{"order_id": "o-1"})
	cmd.ReplyChannel = "CreateOrderSaga.reply"
	cmd.Correlation = messaging.CorrelationKey{SagaID: models.GenerateUUID(), SagaType: "CreateOrderSaga", StepIndex: 2, Direction: messaging.DirectionForward}
	return cmd
}

func TestSNSEventPublisher_PublishesChannelAttribute(t *testing.T) {
	client := &fakeSNS{}
	publisher := NewSNSEventPublisher(client, "arn:aws:sns:us-east-1:000000000000:ftgo")

	evts := make([]*events.Event, 0, 12)
	for i := 0; i < 12; i++ {
		evts = append(evts, testCommand().ToEvent())
	}
	require.NoError(t, publisher.Publish(context.Background(), evts...))

	require.Len(t, client.inputs, 2)
	entry := client.inputs[0].PublishBatchRequestEntries[0]
	assert.Equal(t, "kitchenService", aws.ToString(entry.MessageAttributes[events.MetadataChannel].StringValue))
	assert.Equal(t, "CreateTicket", aws.ToString(entry.MessageAttributes["topic"].StringValue))
}

func TestSNSEventPublisher_ReportsRejectedEntries(t *testing.T) {
	client := &fakeSNS{failed: []snstypes.BatchResultErrorEntry{{Id: aws.String("x"), Message: aws.String("throttled")}}}
	publisher := NewSNSEventPublisher(client, "arn")

	err := publisher.Publish(context.Background(), testCommand().ToEvent())
	assert.ErrorContains(t, err, "throttled")
}

func TestDecodeSQSBody_RoundTrip(t *testing.T) {
	cmd := testCommand()
	body, err := encodeSNSMessage(cmd.ToEvent())
	require.NoError(t, err)

	t.Run("raw delivery", func(t *testing.T) {
		event, err := decodeSQSBody(string(body))
		require.NoError(t, err)

		decoded, err := messaging.CommandFromEvent(event)
		require.NoError(t, err)
		assert.Equal(t, cmd.ID, decoded.ID)
		assert.Equal(t, cmd.Correlation, decoded.Correlation)

		var payload map[string]string
		require.NoError(t, decoded.UnmarshalPayload(&payload))
		assert.Equal(t, "o-1", payload["order_id"])
	})

	t.Run("sns notification", func(t *testing.T) {
		wrapped, err := json.Marshal(map[string]interface{}{
			"Type":    "Notification",
			"Message": string(body),
			"MessageAttributes": map[string]interface{}{
				"topic": map[string]string{"Type": "String", "Value": "CreateTicket"},
			},
		})
		require.NoError(t, err)

		event, err := decodeSQSBody(string(wrapped))
		require.NoError(t, err)
		assert.Equal(t, "kitchenService", event.Channel())
		assert.Equal(t, "CreateTicket", event.Topic.String())
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := decodeSQSBody("not json")
		assert.Error(t, err)
		_, err = decodeSQSBody(`{"foo":"bar"}`)
		assert.Error(t, err)
	})
}

func TestSQSEventSubscriber_ReadAndSettle(t *testing.T) {
	body, err := encodeSNSMessage(testCommand().ToEvent())
	require.NoError(t, err)

	client := &fakeSQS{messages: []sqstypes.Message{
		{MessageId: aws.String("m-1"), ReceiptHandle: aws.String("r-1"), Body: aws.String(string(body))},
		{MessageId: aws.String("m-2"), ReceiptHandle: aws.String("r-2"), Body: aws.String("garbage")},
	}}

	var handled []*events.Event
	handler := NewEventHandlerFunc("test", func(_ context.Context, event *events.Event) error {
		handled = append(handled, event)
		return nil
	})
	subscriber := NewSQSEventSubscriber(client, "queue", handler, logger.NewNop())

	ctx := context.Background()
	require.NoError(t, subscriber.read(ctx))

	// the undecodable message is deleted straight away
	assert.Equal(t, []string{"r-2"}, client.deleted)

	message := <-subscriber.inboundMessages
	assert.Equal(t, "m-1", message.Event.Metadata[SQSMessageIDKey])

	subscriber.handle(ctx, message)
	settled := <-subscriber.outboundMessages
	require.NoError(t, subscriber.clean(ctx, settled))

	require.Len(t, handled, 1)
	assert.Equal(t, "kitchenService", handled[0].Channel())
	assert.Equal(t, []string{"r-2", "r-1"}, client.deleted)
}

type countingHandler struct {
	count int
}

func (h *countingHandler) Handle(context.Context, *events.Event) error {
	h.count++
	return nil
}

func TestChannelRouter(t *testing.T) {
	router := NewChannelRouter("order-service", logger.NewNop())
	kitchen := &countingHandler{}
	router.Subscribe("kitchenService", kitchen)

	require.NoError(t, router.Handle(context.Background(), testCommand().ToEvent()))
	require.NoError(t, router.Handle(context.Background(), events.NewEvent("", events.OrderCreatedEvent, nil).WithMetadata(events.MetadataChannel, "order.events")))

	assert.Equal(t, 1, kitchen.count)
	assert.Equal(t, "order-service", router.HandlerID())
}

func TestRedisProcessedStore(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	store := NewRedisProcessedStore(client, "kitchen-service", time.Hour)
	ctx := context.Background()

	cmd := testCommand()
	_, found, err := store.Lookup(ctx, cmd.ID)
	require.NoError(t, err)
	assert.False(t, found)

	reply := messaging.SuccessReply(cmd, map[string]string{"ticket_id": "42"})
	require.NoError(t, store.Remember(ctx, cmd.ID, reply))

	stored, found, err := store.Lookup(ctx, cmd.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, reply.ID, stored.ID)
	assert.Equal(t, cmd.Correlation, stored.Correlation)
	assert.Equal(t, messaging.OutcomeSuccess, stored.Outcome)

	server.FastForward(2 * time.Hour)
	_, found, err = store.Lookup(ctx, cmd.ID)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCachedProcessedStore(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	primary := messaging.NewMemoryProcessedStore()
	cache := NewRedisProcessedStore(client, "accounting-service", time.Hour)
	store := NewCachedProcessedStore(primary, cache, logger.NewNop())
	ctx := context.Background()

	cmd := testCommand()
	reply := messaging.SuccessReply(cmd, nil)

	require.NoError(t, store.Remember(ctx, cmd.ID, reply))
	_, cached, err := cache.Lookup(ctx, cmd.ID)
	require.NoError(t, err)
	assert.False(t, cached, "remember writes the primary only")

	stored, found, err := store.Lookup(ctx, cmd.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, reply.ID, stored.ID)

	fromCache, cached, err := cache.Lookup(ctx, cmd.ID)
	require.NoError(t, err)
	require.True(t, cached)
	assert.Equal(t, reply.ID, fromCache.ID)

	// the primary still answers when redis is gone
	server.Close()
	stored, found, err = store.Lookup(ctx, cmd.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, reply.ID, stored.ID)
}
