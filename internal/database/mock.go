package database

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
func (m *MockRepository) ListUsers(ctx context.Context) ([]User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]User), args.Error(1)
}
func (m *MockRepository) GetUsers(ctx context.Context, p *Property, value any) ([]User, error) {
	args := m.Called(ctx, p, value)
	return args.Get(0).([]User), args.Error(1)
}
func (m *MockRepository) GetUser(ctx context.Context, p *Property, value any) (User, error) {
	args := m.Called(ctx, p, value)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockRepository) AddUser(ctx context.Context, u User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}
func (m *MockRepository) DeleteUsers(ctx context.Context, p *Property, value any) error {
	args := m.Called(ctx, p, value)
	return args.Error(0)
}
func (m *MockRepository) DeleteAllUsers(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
func (m *MockRepository) EditUsers(ctx context.Context, p *Property, value any, newValues map[string]any) error {
	args := m.Called(ctx, p, value, newValues)
	return args.Error(0)
}
func (m *MockRepository) ListMessages(ctx context.Context) ([]Message, error) {
	args := m.Called(ctx)
	return args.Get(0).([]Message), args.Error(1)
}
func (m *MockRepository) GetMessages(ctx context.Context, p *Property, value any) ([]Message, error) {
	args := m.Called(ctx, p, value)
	return args.Get(0).([]Message), args.Error(1)
}
func (m *MockRepository) GetMessage(ctx context.Context, p *Property, value any) (Message, error) {
	args := m.Called(ctx, p, value)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockRepository) AddMessage(ctx context.Context, msg Message) (Message, error) {
	args := m.Called(ctx, msg)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockRepository) DeleteMessages(ctx context.Context, p *Property, value any) error {
	args := m.Called(ctx, p, value)
	return args.Error(0)
}
func (m *MockRepository) DeleteAllMessages(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
func (m *MockRepository) EditMessages(ctx context.Context, p *Property, value any, newValues map[string]any) error {
	args := m.Called(ctx, p, value, newValues)
	return args.Error(0)
}
