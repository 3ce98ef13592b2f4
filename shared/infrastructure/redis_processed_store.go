package infrastructure

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ftgo/order-system/shared/apperrors"
	"github.com/ftgo/order-system/shared/messaging"
	"github.com/ftgo/order-system/shared/models"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

var _ messaging.ProcessedStore = (*RedisProcessedStore)(nil)

// RedisProcessedStore remembers the reply given to each command for ttl,
// which bounds how late a redelivery can still be recognised
type RedisProcessedStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisClient connects to redis and checks the connection
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "failed to ping redis")
	}
	return client, nil
}

// NewRedisProcessedStore creates a store whose keys live under service
func NewRedisProcessedStore(client *redis.Client, service string, ttl time.Duration) *RedisProcessedStore {
	return &RedisProcessedStore{
		client: client,
		prefix: "processed:" + service + ":",
		ttl:    ttl,
	}
}

func (s *RedisProcessedStore) key(commandID models.ID) string {
	return s.prefix + commandID.String()
}

// Lookup returns the reply remembered for commandID
func (s *RedisProcessedStore) Lookup(ctx context.Context, commandID models.ID) (*messaging.Reply, bool, error) {
	raw, err := s.client.Get(ctx, s.key(commandID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, apperrors.Transient(errors.Wrap(err, "failed to read processed command"))
	}

	var reply messaging.Reply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return nil, false, errors.Wrap(err, "corrupt processed command entry")
	}
	return &reply, true, nil
}

// Remember stores reply as the answer to commandID
func (s *RedisProcessedStore) Remember(ctx context.Context, commandID models.ID, reply *messaging.Reply) error {
	raw, err := json.Marshal(reply)
	if err != nil {
		return errors.Wrap(err, "failed to marshal reply")
	}

	if err := s.client.Set(ctx, s.key(commandID), raw, s.ttl).Err(); err != nil {
		return errors.Wrap(err, "failed to remember processed command")
	}
	return nil
}
