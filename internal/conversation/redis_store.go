package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/hadasqueen/booking-assistant/pkg/logging"
)

const sessionKeyPrefix = "session:"

// RedisStore is a SessionStore backed by Redis. Sessions have no TTL; a
// booking conversation may resume weeks later.
type RedisStore struct {
	redis  *redis.Client
	tracer trace.Tracer
	logger *logging.Logger
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client *redis.Client, logger *logging.Logger) *RedisStore {
	if client == nil {
		panic("conversation: redis client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RedisStore{
		redis:  client,
		tracer: otel.Tracer("salon.internal.conversation.sessions"),
		logger: logger,
	}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

// Get loads a session. Unknown senders and corrupt payloads both return
// (nil, nil): a damaged stored session must never block the conversation.
func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.session_get")
	defer span.End()

	data, err := s.redis.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: failed to load session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		span.RecordError(err)
		s.logger.Warn("discarding corrupt stored session", "sender_id", id, "error", err)
		return nil, nil
	}
	return &session, nil
}

// Put persists the session.
func (s *RedisStore) Put(ctx context.Context, session *Session) error {
	ctx, span := s.tracer.Start(ctx, "conversation.session_put")
	defer span.End()

	data, err := json.Marshal(session)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: failed to marshal session: %w", err)
	}
	if err := s.redis.Set(ctx, sessionKey(session.ID), data, 0).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: failed to persist session: %w", err)
	}
	return nil
}

// LoadAll scans every stored session. Corrupt entries are skipped, never
// fatal: startup proceeds with whatever round-trips cleanly.
func (s *RedisStore) LoadAll(ctx context.Context) (map[string]*Session, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.session_load_all")
	defer span.End()

	sessions := make(map[string]*Session)
	iter := s.redis.Scan(ctx, 0, sessionKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		id := strings.TrimPrefix(key, sessionKeyPrefix)

		data, err := s.redis.Get(ctx, key).Bytes()
		if err != nil {
			s.logger.Warn("failed to read stored session", "key", key, "error", err)
			continue
		}
		var session Session
		if err := json.Unmarshal(data, &session); err != nil {
			s.logger.Warn("skipping corrupt stored session", "key", key, "error", err)
			continue
		}
		sessions[id] = &session
	}
	if err := iter.Err(); err != nil {
		span.RecordError(err)
		return sessions, fmt.Errorf("conversation: session scan failed: %w", err)
	}
	return sessions, nil
}
