package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/honeypot-labs/cipher/pkg/intel"
	"github.com/honeypot-labs/cipher/test/util"
)

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	return NewRedisStore(util.SetupTestRedis(t), "cipher:session:", time.Hour)
}

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestRedisStore(t)

	s := New("web-42", "margaret_72")
	require.NoError(t, s.Transition(StateDetecting))
	s.MarkScam(0.72)
	require.NoError(t, s.Transition(StateEngaging))
	s.TurnNumber = 3
	s.IntelBuffer.Add(intel.CategoryUPIIDs, "fraud@ybl")
	s.IntelBuffer.Add(intel.CategoryPhoneNumbers, "9876543210")
	require.NoError(t, store.Save(ctx, s))

	loaded, err := store.Get(ctx, "web-42")
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, "web-42", loaded.SessionID)
	assert.Equal(t, StateEngaging, loaded.State)
	assert.Equal(t, 3, loaded.TurnNumber)
	assert.True(t, loaded.IsScam)
	assert.InDelta(t, 0.72, loaded.ScamScore, 1e-9)
	assert.True(t, loaded.AgentActive)
	assert.Equal(t, "margaret_72", loaded.PersonaID)
	assert.Equal(t, []string{"fraud@ybl"}, loaded.IntelBuffer[intel.CategoryUPIIDs])
	assert.Equal(t, []string{"9876543210"}, loaded.IntelBuffer[intel.CategoryPhoneNumbers])
	assert.WithinDuration(t, s.CreatedAt, loaded.CreatedAt, time.Second)
}

func TestRedisStoreGetMissReturnsNil(t *testing.T) {
	store := newTestRedisStore(t)

	s, err := store.Get(context.Background(), "never-seen")
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestRedisStoreUndecodablePayloadTreatedAsAbsent(t *testing.T) {
	ctx := context.Background()
	store := newTestRedisStore(t)

	require.NoError(t, store.client.Set(ctx, store.key("mangled"), "{not json", 0).Err())

	s, err := store.Get(ctx, "mangled")
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestRedisStoreExistsAndDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestRedisStore(t)

	ok, err := store.Exists(ctx, "web-42")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Save(ctx, New("web-42", "margaret_72")))

	ok, err = store.Exists(ctx, "web-42")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.Delete(ctx, "web-42"))

	ok, err = store.Exists(ctx, "web-42")
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting an absent session is a no-op, not an error.
	require.NoError(t, store.Delete(ctx, "web-42"))
}

func TestRedisStoreSaveRefreshesTTL(t *testing.T) {
	ctx := context.Background()
	store := newTestRedisStore(t)

	s := New("web-42", "margaret_72")
	require.NoError(t, store.Save(ctx, s))

	ttl, err := store.client.TTL(ctx, store.key("web-42")).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 59*time.Minute)
	assert.LessOrEqual(t, ttl, time.Hour)
}

func TestRedisStoreGetNormalizesPartialBuffer(t *testing.T) {
	ctx := context.Background()
	store := newTestRedisStore(t)

	// A payload written by an older producer: intel buffer missing categories.
	raw := `{"session_id":"web-42","state":"engaging","persona_id":"margaret_72",` +
		`"intel_buffer":{"upiIds":["fraud@ybl"]}}`
	require.NoError(t, store.client.Set(ctx, store.key("web-42"), raw, 0).Err())

	loaded, err := store.Get(ctx, "web-42")
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, []string{"fraud@ybl"}, loaded.IntelBuffer[intel.CategoryUPIIDs])
	for _, c := range intel.Categories {
		assert.NotNil(t, loaded.IntelBuffer[c], "category %s missing after normalize", c)
	}
}
