package database

import (
	"fmt"
	"strconv"
)

type User struct {
	SocketId string
	Username string
}

type Message struct {
	Id     int64
	Text   string
	UserId string
	// Time is in milliseconds since the Unix epoch.
	Time int64
}

func decodeUser(row Row) (User, error) {
	socketID, err := asString(row, UserSocketId())
	if err != nil {
		return User{}, err
	}
	username, err := asString(row, UserUsername())
	if err != nil {
		return User{}, err
	}
	return User{SocketId: socketID, Username: username}, nil
}

func encodeUser(u User) Values {
	return Values{
		UserSocketId().column: u.SocketId,
		UserUsername().column: u.Username,
	}
}

func decodeMessage(row Row) (Message, error) {
	var (
		msg Message
		err error
	)
	if msg.Id, err = asInt64(row, MessageId()); err != nil {
		return Message{}, err
	}
	if msg.Text, err = asString(row, MessageText()); err != nil {
		return Message{}, err
	}
	if msg.UserId, err = asString(row, MessageUserId()); err != nil {
		return Message{}, err
	}
	if msg.Time, err = asInt64(row, MessageTime()); err != nil {
		return Message{}, err
	}
	return msg, nil
}

// encodeMessage leaves out the id, which the store assigns.
func encodeMessage(m Message) Values {
	return Values{
		MessageText().column:   m.Text,
		MessageUserId().column: m.UserId,
		MessageTime().column:   m.Time,
	}
}

func asString(row Row, p *Property) (string, error) {
	switch v := row[p.Name()].(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		return "", fmt.Errorf("column %q: unexpected type %T", p.Name(), v)
	}
}

func asInt64(row Row, p *Property) (int64, error) {
	return toInt64(p.Name(), row[p.Name()])
}

func toInt64(name string, value any) (int64, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("column %q: %w", name, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("column %q: unexpected type %T", name, v)
	}
}
