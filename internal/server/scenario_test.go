package server

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/npezzotti/basic-chat/internal/database"
	"github.com/npezzotti/basic-chat/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startTestChatServer runs a ChatServer backed by an in-memory sqlite store.
func startTestChatServer(t *testing.T) (*ChatServer, *database.RowStore) {
	t.Helper()
	store := testutil.TestStore(t)
	cs := newTestChatServer(t, store)
	go cs.Run()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		cs.Shutdown(ctx)
	})
	return cs, store
}

func connect(t *testing.T, cs *ChatServer, id string) *Client {
	t.Helper()
	c := newTestClient(t, cs, id)
	require.NoError(t, cs.Register(c))
	history := nextFrame(t, c)
	require.NotNil(t, history.History, "expected history on connect")
	return c
}

func send(t *testing.T, c *Client, msg *ClientMessage) {
	t.Helper()
	msg.client = c
	require.True(t, c.chatServer.submit(msg), "expected frame to be accepted")
}

func TestScenario_UsernameUniqueness(t *testing.T) {
	cs, store := startTestChatServer(t)
	a := connect(t, cs, "conn-a")
	b := connect(t, cs, "conn-b")

	send(t, a, &ClientMessage{BaseMessage: BaseMessage{Id: 1}, Username: &UsernameClaim{Username: "alice"}})
	reply := nextFrame(t, a)
	require.NotNil(t, reply.Response)
	assert.Equal(t, http.StatusOK, reply.Response.ResponseCode)

	send(t, b, &ClientMessage{BaseMessage: BaseMessage{Id: 1}, Username: &UsernameClaim{Username: " alice "}})
	reply = nextFrame(t, b)
	require.NotNil(t, reply.Response)
	assert.Equal(t, http.StatusConflict, reply.Response.ResponseCode)

	send(t, b, &ClientMessage{BaseMessage: BaseMessage{Id: 2}, Publish: &Publish{Text: "let me in"}})
	reply = nextFrame(t, b)
	require.NotNil(t, reply.Response)
	assert.Equal(t, http.StatusForbidden, reply.Response.ResponseCode)
	assertNoFrame(t, a)

	stored, err := store.ListMessages(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stored, "expected rejected message not to be stored")

	users, err := store.GetUsers(context.Background(), database.UserUsername(), "alice")
	require.NoError(t, err)
	assert.Equal(t, []database.User{{SocketId: "conn-a", Username: "alice"}}, users)
}

func TestScenario_PublishAndHistory(t *testing.T) {
	cs, store := startTestChatServer(t)
	a := connect(t, cs, "conn-a")
	b := connect(t, cs, "conn-b")

	send(t, a, &ClientMessage{Username: &UsernameClaim{Username: "alice"}})
	nextFrame(t, a)

	before := time.Now().UnixMilli()
	send(t, a, &ClientMessage{BaseMessage: BaseMessage{Id: 5}, Publish: &Publish{Text: "  hi  "}})

	fromA := nextFrame(t, a)
	fromB := nextFrame(t, b)
	after := time.Now().UnixMilli()

	for _, frame := range []*ServerMessage{fromA, fromB} {
		require.NotNil(t, frame.Message)
		assert.Equal(t, "hi", frame.Message.Text)
		assert.Equal(t, "conn-a", frame.Message.UserId)
		assert.Equal(t, "alice", frame.Username)
		assert.GreaterOrEqual(t, frame.Message.Time, before)
		assert.LessOrEqual(t, frame.Message.Time, after)
	}
	assert.Equal(t, fromA.Message.Id, fromB.Message.Id)

	reply := nextFrame(t, a)
	require.NotNil(t, reply.Response)
	assert.Equal(t, http.StatusAccepted, reply.Response.ResponseCode)

	stored, err := store.GetMessage(context.Background(), database.MessageId(), fromA.Message.Id)
	require.NoError(t, err)
	assert.Equal(t, "hi", stored.Text)

	late := newTestClient(t, cs, "conn-late")
	require.NoError(t, cs.Register(late))
	history := nextFrame(t, late)
	require.NotNil(t, history.History)
	require.Len(t, history.History.Messages, 1)
	assert.Equal(t, *fromA.Message, history.History.Messages[0])
	assert.Equal(t, "alice", history.History.Users["conn-a"], "expected history to name the author")
}

func TestScenario_BroadcastOrderMatchesStoreOrder(t *testing.T) {
	cs, store := startTestChatServer(t)
	a := connect(t, cs, "conn-a")
	b := connect(t, cs, "conn-b")

	send(t, a, &ClientMessage{Username: &UsernameClaim{Username: "alice"}})
	nextFrame(t, a)
	send(t, b, &ClientMessage{Username: &UsernameClaim{Username: "bob"}})
	nextFrame(t, b)

	for i := 0; i < 5; i++ {
		send(t, a, &ClientMessage{Publish: &Publish{Text: "from a"}})
		send(t, b, &ClientMessage{Publish: &Publish{Text: "from b"}})
	}

	history, err := waitForHistory(t, store, 10)
	require.NoError(t, err)

	var received []int64
	for len(received) < 10 {
		frame := nextFrame(t, a)
		if frame.Message != nil {
			received = append(received, frame.Message.Id)
		}
	}

	for i, m := range history {
		assert.Equal(t, m.Id, received[i], "expected broadcast order to follow store order")
	}
}

func waitForHistory(t *testing.T, store *database.RowStore, n int) ([]database.Message, error) {
	t.Helper()
	var history []database.Message
	var err error
	assert.Eventually(t, func() bool {
		history, err = store.ListMessages(context.Background())
		return err != nil || len(history) == n
	}, time.Second, 10*time.Millisecond)
	return history, err
}

func TestScenario_DisconnectKeepsUsernameReserved(t *testing.T) {
	cs, store := startTestChatServer(t)
	a := connect(t, cs, "conn-a")

	send(t, a, &ClientMessage{Username: &UsernameClaim{Username: "alice"}})
	nextFrame(t, a)

	cs.deRegister(a)

	assert.Eventually(t, func() bool {
		status, err := cs.CheckUsername(context.Background(), "alice")
		return err == nil && status == UsernameTaken
	}, time.Second, 10*time.Millisecond)

	u, err := store.GetUser(context.Background(), database.UserUsername(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "conn-a", u.SocketId)

	c := connect(t, cs, "conn-c")
	send(t, c, &ClientMessage{Username: &UsernameClaim{Username: "alice"}})
	reply := nextFrame(t, c)
	require.NotNil(t, reply.Response)
	assert.Equal(t, http.StatusConflict, reply.Response.ResponseCode)
}
