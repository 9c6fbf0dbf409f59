package server

import (
	"net/http"
	"time"

	"github.com/npezzotti/basic-chat/internal/database"
	"github.com/npezzotti/basic-chat/internal/types"
)

type BaseMessage struct {
	Id        int       `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ClientMessage is a frame received from a connection. Exactly one of
// Username or Publish is expected to be set.
type ClientMessage struct {
	BaseMessage
	Username *UsernameClaim `json:"username,omitempty"`
	Publish  *Publish       `json:"publish,omitempty"`
	client   *Client
}

type UsernameClaim struct {
	Username string `json:"username"`
}

type Publish struct {
	Text string `json:"text"`
}

// ServerMessage is a frame sent to a connection. A broadcast Message comes
// with the Username bound to its author.
type ServerMessage struct {
	BaseMessage
	Response *Response      `json:"response,omitempty"`
	Message  *types.Message `json:"message,omitempty"`
	Username string         `json:"username,omitempty"`
	History  *History       `json:"history,omitempty"`
}

type Response struct {
	ResponseCode int            `json:"response_code"`
	Error        string         `json:"error,omitempty"`
	Data         map[string]any `json:"data,omitempty"`
}

// History carries the whole chat history in id order, and the username
// claimed by each socket id so authors can be named.
type History struct {
	Messages []types.Message   `json:"messages"`
	Users    map[string]string `json:"users"`
}

func toWireMessage(m database.Message) types.Message {
	return types.Message{
		Id:     m.Id,
		Text:   m.Text,
		UserId: m.UserId,
		Time:   m.Time,
	}
}

func NewHistory(messages []database.Message, users []database.User) *ServerMessage {
	history := &History{
		Messages: make([]types.Message, 0, len(messages)),
		Users:    make(map[string]string, len(users)),
	}
	for _, m := range messages {
		history.Messages = append(history.Messages, toWireMessage(m))
	}
	for _, u := range users {
		history.Users[u.SocketId] = u.Username
	}

	return &ServerMessage{
		BaseMessage: BaseMessage{
			Timestamp: Now(),
		},
		History: history,
	}
}

func NewChatMessage(m database.Message, username string) *ServerMessage {
	wire := toWireMessage(m)
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Timestamp: Now(),
		},
		Message:  &wire,
		Username: username,
	}
}

func NoErrOK(id int, data map[string]any) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusOK,
			Data:         data,
		},
	}
}

func NoErrAccepted(id int, data map[string]any) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusAccepted,
			Data:         data,
		},
	}
}

// ErrResponse builds an error reply to the frame with the given id.
func ErrResponse(id int, code int, text string) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: code,
			Error:        text,
		},
	}
}

func ErrInternalError(id int) *ServerMessage {
	return ErrResponse(id, http.StatusInternalServerError, "internal server error")
}

func ErrServiceUnavailable(id int) *ServerMessage {
	return ErrResponse(id, http.StatusServiceUnavailable, "service unavailable")
}

func ErrInvalidMessage(id int) *ServerMessage {
	msg := ErrResponse(0, http.StatusBadRequest, "invalid message format")
	if id > 0 {
		msg.Id = id
	}
	return msg
}

func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
