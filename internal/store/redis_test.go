package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/tuiquiz/internal/leaderboard"
	"github.com/verte-zerg/tuiquiz/internal/model"
	"github.com/verte-zerg/tuiquiz/internal/store"
)

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	rs := miniredis.RunT(t)

	st, err := store.OpenRedis(ctx, store.RedisOptions{Addr: rs.Addr(), Prefix: "tuiquiz"})
	require.NoError(t, err, "should be able to connect to redis")
	t.Cleanup(func() {
		_ = st.Close()
	})

	_, ok, err := st.Get(ctx, "quizHighScores")
	require.NoError(t, err)
	require.False(t, ok, "missing key should report ok=false")

	require.NoError(t, st.Put(ctx, "quizHighScores", `[]`))
	require.NoError(t, st.Put(ctx, "quizHighScores", `[{"playerName":"Ann"}]`))

	raw, err := rs.Get("tuiquiz:quizHighScores")
	require.NoError(t, err)
	require.Equal(t, `[{"playerName":"Ann"}]`, raw, "value should live under the prefixed key")

	value, ok, err := st.Get(ctx, "quizHighScores")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `[{"playerName":"Ann"}]`, value)

	require.NoError(t, st.Delete(ctx, "quizHighScores"))
	_, ok, err = st.Get(ctx, "quizHighScores")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestOpenRedisUnreachable(t *testing.T) {
	rs := miniredis.RunT(t)
	addr := rs.Addr()
	rs.Close()

	_, err := store.OpenRedis(context.Background(), store.RedisOptions{Addr: addr})
	require.Error(t, err)
}

func openRedisT(t *testing.T, addr string) *store.RedisStore {
	t.Helper()
	st, err := store.OpenRedis(context.Background(), store.RedisOptions{Addr: addr, Prefix: "tuiquiz"})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func TestRedisStore_UpdateKeepsConcurrentFinalize(t *testing.T) {
	ctx := context.Background()
	rs := miniredis.RunT(t)
	here := leaderboard.NewBoard(openRedisT(t, rs.Addr()))
	there := leaderboard.NewBoard(openRedisT(t, rs.Addr()))
	date := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	add := func(name string, pct int) func([]model.HighScoreEntry) ([]model.HighScoreEntry, bool, error) {
		return func(entries []model.HighScoreEntry) ([]model.HighScoreEntry, bool, error) {
			return leaderboard.Insert(entries, model.HighScoreEntry{ID: name, PlayerName: name, Percentage: pct, Date: date}), true, nil
		}
	}

	calls := 0
	err := here.Update(ctx, func(entries []model.HighScoreEntry) ([]model.HighScoreEntry, bool, error) {
		calls++
		if calls == 1 {
			// Another machine finishes between our read and our write.
			require.Empty(t, entries)
			require.NoError(t, there.Update(ctx, add("bob", 70)))
		}
		return add("ann", 80)(entries)
	})
	require.NoError(t, err)
	require.Equal(t, 2, calls, "the conflicting write should force a second pass")

	got, err := here.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2, "neither finalize may be lost")
	require.Equal(t, "ann", got[0].ID)
	require.Equal(t, "bob", got[1].ID)
}

func TestRedisStore_UpdateWithoutWrite(t *testing.T) {
	ctx := context.Background()
	rs := miniredis.RunT(t)
	st := openRedisT(t, rs.Addr())

	err := st.Update(ctx, "quizHighScores", func(old string, ok bool) (string, bool, error) {
		require.False(t, ok)
		return "[]", false, nil
	})
	require.NoError(t, err)
	require.False(t, rs.Exists("tuiquiz:quizHighScores"), "write=false must not create the key")
}
