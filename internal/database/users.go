package database

import "context"

func (s *RowStore) users() entityAccess[User] {
	return entityAccess[User]{store: s, entity: EntityUser, decode: decodeUser}
}

// ListUsers returns every user.
func (s *RowStore) ListUsers(ctx context.Context) ([]User, error) {
	return s.users().list(ctx, Everything())
}

// GetUsers returns the users whose property p equals value.
func (s *RowStore) GetUsers(ctx context.Context, p *Property, value any) ([]User, error) {
	return s.users().getAll(ctx, p, value)
}

// GetUser returns the first user whose property p equals value, or
// sql.ErrNoRows.
func (s *RowStore) GetUser(ctx context.Context, p *Property, value any) (User, error) {
	return s.users().getOne(ctx, p, value)
}

// AddUser inserts u. A username already in use fails with an error matching
// ErrDuplicate.
func (s *RowStore) AddUser(ctx context.Context, u User) error {
	return s.Insert(ctx, tableOf(EntityUser), encodeUser(u))
}

func (s *RowStore) DeleteUsers(ctx context.Context, p *Property, value any) error {
	return s.users().delete(ctx, p, value)
}

// DeleteAllUsers empties the users table.
func (s *RowStore) DeleteAllUsers(ctx context.Context) error {
	return s.users().deleteAll(ctx)
}

func (s *RowStore) EditUsers(ctx context.Context, p *Property, value any, newValues map[string]any) error {
	return s.users().edit(ctx, p, value, newValues)
}
