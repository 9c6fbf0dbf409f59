package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/npezzotti/basic-chat/internal/database"
)

var (
	ErrEmptyUsername = errors.New("username is empty")
	ErrUsernameTaken = errors.New("username is taken")
	ErrAlreadyNamed  = errors.New("a username was already claimed on this connection")
	ErrNotNamed      = errors.New("a username must be claimed before sending messages")
	ErrEmptyMessage  = errors.New("the message cannot be empty")
)

// UsernameStatus is the outcome of checking a candidate username.
type UsernameStatus int

const (
	UsernameValid UsernameStatus = iota
	UsernameTaken
	UsernameEmpty
)

func (s UsernameStatus) Valid() bool {
	return s == UsernameValid
}

func (s UsernameStatus) Message() string {
	switch s {
	case UsernameValid:
		return "Username is valid."
	case UsernameTaken:
		return "Sorry, that username is already taken, try another one."
	case UsernameEmpty:
		return "The username cannot be empty."
	default:
		return ""
	}
}

// CheckUsername reports whether name could be claimed right now. It reads
// the store only and may race with a concurrent claim.
func (cs *ChatServer) CheckUsername(ctx context.Context, name string) (UsernameStatus, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return UsernameEmpty, nil
	}

	_, err := cs.db.GetUser(ctx, database.UserUsername(), name)
	switch {
	case err == nil:
		return UsernameTaken, nil
	case errors.Is(err, sql.ErrNoRows):
		return UsernameValid, nil
	default:
		return UsernameValid, fmt.Errorf("check username: %w", err)
	}
}

// claimUsername binds name to the connection. The unique constraint on the
// users table decides races the lookup misses.
func (cs *ChatServer) claimUsername(ctx context.Context, connId, name string) (string, error) {
	if _, ok := cs.presence.username(connId); ok {
		return "", ErrAlreadyNamed
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyUsername
	}

	// a live binding wins even if its row was removed behind our back
	if _, ok := cs.presence.owner(name); ok {
		return "", ErrUsernameTaken
	}

	_, err := cs.db.GetUser(ctx, database.UserUsername(), name)
	if err == nil {
		return "", ErrUsernameTaken
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("lookup username: %w", err)
	}

	if err := cs.db.AddUser(ctx, database.User{SocketId: connId, Username: name}); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return "", ErrUsernameTaken
		}
		return "", fmt.Errorf("add user: %w", err)
	}

	// both bind preconditions were checked above on the loop goroutine
	if err := cs.presence.bind(connId, name); err != nil {
		return "", err
	}
	return name, nil
}

func (cs *ChatServer) handleUsername(msg *ClientMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	c := msg.client
	name, err := cs.claimUsername(ctx, c.id, msg.Username.Username)
	if err != nil {
		var reply *ServerMessage
		switch {
		case errors.Is(err, ErrEmptyUsername):
			reply = ErrResponse(msg.Id, http.StatusBadRequest, UsernameEmpty.Message())
		case errors.Is(err, ErrUsernameTaken):
			reply = ErrResponse(msg.Id, http.StatusConflict, UsernameTaken.Message())
		case errors.Is(err, ErrAlreadyNamed):
			reply = ErrResponse(msg.Id, http.StatusConflict, err.Error())
		default:
			cs.log.Errorw("username claim failed", "conn", c.id, "error", err)
			reply = ErrInternalError(msg.Id)
		}

		cs.stats.Incr(NumUsernameRejections)
		c.queueMessage(reply)
		return
	}

	cs.stats.Incr(NumNamedClients)
	cs.log.Infow("username claimed", "conn", c.id, "username", name, "named", cs.presence.len())
	c.queueMessage(NoErrOK(msg.Id, map[string]any{"username": name}))
}

// publishMessage stores the text under the connection's id and broadcasts
// the stored row to every connection, the sender included.
func (cs *ChatServer) publishMessage(ctx context.Context, connId, text string) (database.Message, error) {
	username, ok := cs.presence.username(connId)
	if !ok {
		return database.Message{}, ErrNotNamed
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return database.Message{}, ErrEmptyMessage
	}

	stored, err := cs.db.AddMessage(ctx, database.Message{
		Text:   text,
		UserId: connId,
		Time:   time.Now().UnixMilli(),
	})
	if err != nil {
		return database.Message{}, fmt.Errorf("add message: %w", err)
	}

	cs.stats.Incr(NumMessagesPublished)
	cs.broadcast(NewChatMessage(stored, username))
	return stored, nil
}

func (cs *ChatServer) handlePublish(msg *ClientMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	c := msg.client
	stored, err := cs.publishMessage(ctx, c.id, msg.Publish.Text)
	switch {
	case err == nil:
		c.queueMessage(NoErrAccepted(msg.Id, map[string]any{"id": stored.Id}))
	case errors.Is(err, ErrNotNamed):
		c.queueMessage(ErrResponse(msg.Id, http.StatusForbidden, err.Error()))
	case errors.Is(err, ErrEmptyMessage):
		c.queueMessage(ErrResponse(msg.Id, http.StatusBadRequest, err.Error()))
	default:
		cs.log.Errorw("message was not delivered", "conn", c.id, "error", err)
		c.queueMessage(ErrResponse(msg.Id, http.StatusInternalServerError, "message was not delivered"))
	}
}

func (cs *ChatServer) sendHistory(c *Client) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	messages, err := cs.db.ListMessages(ctx)
	if err != nil {
		cs.log.Errorw("failed to load history", "conn", c.id, "error", err)
		c.queueMessage(ErrInternalError(0))
		return
	}

	// history without names is still useful, so a failed user read only
	// leaves the authors unnamed
	users, err := cs.db.ListUsers(ctx)
	if err != nil {
		cs.log.Warnw("failed to load users for history", "conn", c.id, "error", err)
		users = nil
	}

	c.queueMessage(NewHistory(messages, users))
}
