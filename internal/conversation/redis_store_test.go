package conversation

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hadasqueen/booking-assistant/pkg/logging"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisStore(client, logging.New("error")), mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	session := NewSession("whatsapp:+34600111222")
	session.Append(SpeakerUser, "quiero reductor ultra")
	session.Slots = SlotSet{Service: "reductor ultra", Date: "2025-12-05", Time: "17:00", Name: "Marta"}
	session.Phase = PhaseAwaitingConfirmation
	session.PendingSuggestion = &Suggestion{Date: "2025-12-05", Time: "18:00"}

	require.NoError(t, store.Put(ctx, session))

	loaded, err := store.Get(ctx, session.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, session.Slots, loaded.Slots)
	assert.Equal(t, PhaseAwaitingConfirmation, loaded.Phase)
	require.NotNil(t, loaded.PendingSuggestion)
	assert.Equal(t, "18:00", loaded.PendingSuggestion.Time)
	assert.Len(t, loaded.Turns, 1)
}

func TestRedisStoreGetUnknown(t *testing.T) {
	store, _ := newTestRedisStore(t)

	session, err := store.Get(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestRedisStoreCorruptPayload(t *testing.T) {
	store, mr := newTestRedisStore(t)
	require.NoError(t, mr.Set(sessionKey("broken"), "{not json"))

	session, err := store.Get(context.Background(), "broken")
	require.NoError(t, err, "corrupt sessions must not fail the flow")
	assert.Nil(t, session)
}

func TestRedisStoreLoadAll(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Put(ctx, NewSession(id)))
	}
	require.NoError(t, mr.Set(sessionKey("corrupt"), "???"))

	sessions, err := store.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, 3)
	assert.Contains(t, sessions, "a")
	assert.NotContains(t, sessions, "corrupt")
}
