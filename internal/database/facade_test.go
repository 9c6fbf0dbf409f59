package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newSQLiteStore(t *testing.T) *RowStore {
	t.Helper()
	store, err := Open(context.Background(), DriverSQLite, ":memory:", zaptest.NewLogger(t).Sugar())
	require.NoError(t, err, "open sqlite store")
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "dsn", zaptest.NewLogger(t).Sugar())
	assert.Error(t, err)
}

func TestOpen_MigrationsAreIdempotent(t *testing.T) {
	store := newSQLiteStore(t)
	assert.NoError(t, runMigrations(context.Background(), store.conn, store.dialect, store.log))
	assert.NoError(t, store.Ping(context.Background()))
}

func TestOpen_MigrationFailureClosesStore(t *testing.T) {
	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })

	migrateErr := errors.New("bad migration")
	var dir string
	gooseUpContext = func(ctx context.Context, db *sql.DB, d string, opts ...goose.OptionsFunc) error {
		dir = d
		return migrateErr
	}

	_, err := Open(context.Background(), DriverSQLite, ":memory:", zaptest.NewLogger(t).Sugar())
	assert.ErrorIs(t, err, migrateErr)
	assert.Equal(t, "sqlite", dir)
}

func TestUsers_RoundTrip(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	alice := User{SocketId: "sock-a", Username: "alice"}
	require.NoError(t, store.AddUser(ctx, alice))

	got, err := store.GetUser(ctx, UserUsername(), "alice")
	require.NoError(t, err)
	assert.Equal(t, alice, got)

	all, err := store.GetUsers(ctx, UserSocketId(), "sock-a")
	require.NoError(t, err)
	assert.Equal(t, []User{alice}, all)

	_, err = store.GetUser(ctx, UserUsername(), "nobody")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	none, err := store.GetUsers(ctx, UserUsername(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUsers_GetByReturnsExactlyMatchingRows(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	users := []User{
		{SocketId: "s1", Username: "alice"},
		{SocketId: "s1", Username: "bob"},
		{SocketId: "s2", Username: "carol"},
	}
	for _, u := range users {
		require.NoError(t, store.AddUser(ctx, u))
	}

	got, err := store.GetUsers(ctx, UserSocketId(), "s1")
	require.NoError(t, err)
	assert.ElementsMatch(t, users[:2], got)

	all, err := store.ListUsers(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, users, all)
}

func TestUsers_DuplicateUsername(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddUser(ctx, User{SocketId: "first", Username: "alice"}))

	err := store.AddUser(ctx, User{SocketId: "second", Username: "alice"})
	assert.ErrorIs(t, err, ErrDuplicate)

	var storageErr *StorageError
	assert.ErrorAs(t, err, &storageErr)

	got, err := store.GetUsers(ctx, UserUsername(), "alice")
	require.NoError(t, err)
	assert.Equal(t, []User{{SocketId: "first", Username: "alice"}}, got, "expected first row to be unchanged")
}

func TestUsers_EditAndDelete(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddUser(ctx, User{SocketId: "s1", Username: "alice"}))
	require.NoError(t, store.AddUser(ctx, User{SocketId: "s2", Username: "bob"}))

	require.NoError(t, store.EditUsers(ctx, UserSocketId(), "s1", map[string]any{"username": "alicia"}))
	got, err := store.GetUser(ctx, UserSocketId(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "alicia", got.Username)

	err = store.EditUsers(ctx, UserSocketId(), "s1", map[string]any{"username": "bob"})
	assert.ErrorIs(t, err, ErrDuplicate, "expected edit into a taken username to fail")

	require.NoError(t, store.DeleteUsers(ctx, UserUsername(), "bob"))
	all, err := store.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []User{{SocketId: "s1", Username: "alicia"}}, all)

	require.NoError(t, store.DeleteAllUsers(ctx))
	all, err = store.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestEdit_OnlyInvalidKeysIsNoOp(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddUser(ctx, User{SocketId: "s1", Username: "alice"}))
	_, err := store.AddMessage(ctx, Message{Text: "hi", UserId: "s1", Time: 10})
	require.NoError(t, err)

	usersBefore, err := store.ListUsers(ctx)
	require.NoError(t, err)
	messagesBefore, err := store.ListMessages(ctx)
	require.NoError(t, err)

	require.NoError(t, store.EditUsers(ctx, UserSocketId(), "s1", map[string]any{"text": "x", "nickname": "y"}))
	require.NoError(t, store.EditMessages(ctx, MessageUserId(), "s1", map[string]any{"username": "x"}))
	require.NoError(t, store.EditMessages(ctx, MessageUserId(), "s1", nil))

	usersAfter, err := store.ListUsers(ctx)
	require.NoError(t, err)
	messagesAfter, err := store.ListMessages(ctx)
	require.NoError(t, err)

	assert.Equal(t, usersBefore, usersAfter)
	assert.Equal(t, messagesBefore, messagesAfter)
}

func TestMessages_HistoryOrder(t *testing.T) {
	for _, n := range []int{0, 1, 5, 25} {
		t.Run(fmt.Sprintf("%d messages", n), func(t *testing.T) {
			store := newSQLiteStore(t)
			ctx := context.Background()

			var stored []Message
			for i := range n {
				msg, err := store.AddMessage(ctx, Message{
					Text:   fmt.Sprintf("message %d", i),
					UserId: "s1",
					Time:   int64(1000 + i),
				})
				require.NoError(t, err)
				stored = append(stored, msg)
			}

			history, err := store.ListMessages(ctx)
			require.NoError(t, err)
			require.Len(t, history, n)

			for i := range history {
				assert.Equal(t, stored[i], history[i], "expected history to follow insertion order")
				if i > 0 {
					assert.Greater(t, history[i].Id, history[i-1].Id, "expected strictly ascending ids")
				}
			}
		})
	}
}

func TestMessages_GetEditDelete(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	first, err := store.AddMessage(ctx, Message{Text: "one", UserId: "s1", Time: 1})
	require.NoError(t, err)
	second, err := store.AddMessage(ctx, Message{Text: "two", UserId: "s2", Time: 2})
	require.NoError(t, err)

	got, err := store.GetMessage(ctx, MessageId(), second.Id)
	require.NoError(t, err)
	assert.Equal(t, second, got)

	byUser, err := store.GetMessages(ctx, MessageUserId(), "s1")
	require.NoError(t, err)
	assert.Equal(t, []Message{first}, byUser)

	require.NoError(t, store.EditMessages(ctx, MessageId(), first.Id, map[string]any{"text": "uno"}))
	got, err = store.GetMessage(ctx, MessageId(), first.Id)
	require.NoError(t, err)
	assert.Equal(t, "uno", got.Text)

	require.NoError(t, store.DeleteMessages(ctx, MessageUserId(), "s2"))
	history, err := store.ListMessages(ctx)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	require.NoError(t, store.DeleteAllMessages(ctx))
	history, err = store.ListMessages(ctx)
	require.NoError(t, err)
	assert.Empty(t, history)
}
