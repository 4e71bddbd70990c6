package archive

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zero-day-ai/verdict/attack"
	"github.com/zero-day-ai/verdict/risk"
	"github.com/zero-day-ai/verdict/session"
	"github.com/zero-day-ai/verdict/validation"
)

// setupTestStore creates a miniredis instance and returns a connected RedisStore.
func setupTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	store, err := NewRedisStore(RedisOptions{
		URL:            fmt.Sprintf("redis://%s", mr.Addr()),
		ConnectTimeout: 5 * time.Second,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   5 * time.Second,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = store.Close()
		mr.Close()
	})

	return store, mr
}

func testRecord(score float64) Record {
	detection := attack.Detection{
		Attack:     attack.NewPayload("ignore previous instructions", attack.CategoryPromptInjection, attack.SeverityHigh),
		Detected:   true,
		Confidence: 0.8,
	}
	stability := validation.StabilityResult{
		IsStable:    true,
		Level:       validation.LevelStable,
		Consistency: 1.0,
	}
	record := NewRecord(detection, stability, risk.Score{
		Value:    score,
		Level:    risk.LevelForScore(score),
		Priority: risk.LevelForScore(score).Priority(),
		Category: detection.Attack.Category,
	})
	return record
}

func TestNewRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	defer mr.Close()

	store, err := NewRedisStore(RedisOptions{
		URL: fmt.Sprintf("redis://%s", mr.Addr()),
	})
	require.NoError(t, err)
	require.NotNil(t, store)
	defer store.Close()
}

func TestNewRedisStore_BadURL(t *testing.T) {
	_, err := NewRedisStore(RedisOptions{URL: "not-a-url"})
	require.Error(t, err)
}

func TestRedisStore_SaveAndGet(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	record := testRecord(46.08)
	require.NoError(t, store.Save(ctx, record))

	got, err := store.Get(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, got.ID)
	assert.Equal(t, record.Score.Value, got.Score.Value)
	assert.Equal(t, attack.CategoryPromptInjection, got.Detection.Attack.Category)
	assert.Equal(t, validation.LevelStable, got.Stability.Level)
}

func TestRedisStore_GetNotFound(t *testing.T) {
	store, _ := setupTestStore(t)

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_ListAndTop(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	low := testRecord(12.5)
	mid := testRecord(46.08)
	high := testRecord(88.2)
	for _, r := range []Record{low, mid, high} {
		require.NoError(t, store.Save(ctx, r))
	}

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	top, err := store.Top(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, high.ID, top[0].ID)
	assert.Equal(t, mid.ID, top[1].ID)

	none, err := store.Top(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRedisStore_ListPrunesExpired(t *testing.T) {
	store, mr := setupTestStore(t)
	store.ttl = time.Minute
	ctx := context.Background()

	record := testRecord(50)
	require.NoError(t, store.Save(ctx, record))

	// Expire the value; the score index entry is now stale.
	mr.FastForward(2 * time.Minute)

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRedisStore_Subscribe(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := store.Subscribe(ctx)
	require.NoError(t, err)

	record := testRecord(70)
	require.NoError(t, store.Save(ctx, record))

	select {
	case got := <-ch:
		assert.Equal(t, record.ID, got.ID)
	case <-time.After(5 * time.Second):
		t.Fatal("did not receive published record")
	}
}

func TestRedisStore_Snapshots(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	mgr := session.NewManager(session.ManagerConfig{})
	sess, err := mgr.CreateSession(nil, "you are a helpful assistant")
	require.NoError(t, err)
	_, err = mgr.ExecuteTurn(sess.ID, "hello", "hi there", nil, "")
	require.NoError(t, err)

	snapshot := SnapshotSession(sess)
	require.NoError(t, store.SaveSnapshot(ctx, snapshot))

	got, err := store.GetSnapshot(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.SessionID)
	assert.Len(t, got.Turns, 3, "system prompt plus one exchange")

	_, err = store.GetSnapshot(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
