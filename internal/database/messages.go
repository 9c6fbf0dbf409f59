package database

import (
	"context"
)

func (s *RowStore) messages() entityAccess[Message] {
	return entityAccess[Message]{store: s, entity: EntityMessage, decode: decodeMessage}
}

// ListMessages returns the chat history ordered by id ascending, which is
// the order the messages were stored in.
func (s *RowStore) ListMessages(ctx context.Context) ([]Message, error) {
	return s.messages().list(ctx, Everything().OrderBy(MessageId().column))
}

func (s *RowStore) GetMessages(ctx context.Context, p *Property, value any) ([]Message, error) {
	return s.messages().getAll(ctx, p, value)
}

func (s *RowStore) GetMessage(ctx context.Context, p *Property, value any) (Message, error) {
	return s.messages().getOne(ctx, p, value)
}

// AddMessage stores msg and returns it with the id assigned by the store.
// Any id already set on msg is ignored.
func (s *RowStore) AddMessage(ctx context.Context, msg Message) (Message, error) {
	table := tableOf(EntityMessage)
	id, err := s.InsertReturning(ctx, table, encodeMessage(msg), MessageId().column)
	if err != nil {
		return Message{}, err
	}

	msg.Id, err = toInt64(MessageId().Name(), id)
	if err != nil {
		return Message{}, &StorageError{Op: "insert", Table: table.name, Err: err}
	}
	return msg, nil
}

func (s *RowStore) DeleteMessages(ctx context.Context, p *Property, value any) error {
	return s.messages().delete(ctx, p, value)
}

// DeleteAllMessages empties the messages table.
func (s *RowStore) DeleteAllMessages(ctx context.Context) error {
	return s.messages().deleteAll(ctx)
}

func (s *RowStore) EditMessages(ctx context.Context, p *Property, value any, newValues map[string]any) error {
	return s.messages().edit(ctx, p, value, newValues)
}
