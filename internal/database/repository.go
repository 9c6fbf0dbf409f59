package database

import "context"

type Repository interface {
	Ping(ctx context.Context) error
	ListUsers(ctx context.Context) ([]User, error)
	GetUsers(ctx context.Context, p *Property, value any) ([]User, error)
	GetUser(ctx context.Context, p *Property, value any) (User, error)
	AddUser(ctx context.Context, u User) error
	DeleteUsers(ctx context.Context, p *Property, value any) error
	DeleteAllUsers(ctx context.Context) error
	EditUsers(ctx context.Context, p *Property, value any, newValues map[string]any) error
	ListMessages(ctx context.Context) ([]Message, error)
	GetMessages(ctx context.Context, p *Property, value any) ([]Message, error)
	GetMessage(ctx context.Context, p *Property, value any) (Message, error)
	AddMessage(ctx context.Context, msg Message) (Message, error)
	DeleteMessages(ctx context.Context, p *Property, value any) error
	DeleteAllMessages(ctx context.Context) error
	EditMessages(ctx context.Context, p *Property, value any, newValues map[string]any) error
}

var _ Repository = (*RowStore)(nil)
