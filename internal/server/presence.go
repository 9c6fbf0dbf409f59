package server

import (
	"context"
	"database/sql"
	"errors"

	"github.com/npezzotti/basic-chat/internal/database"
)

// presence maps connection ids to the usernames they claimed. It is only
// touched from the run loop and needs no locking.
type presence struct {
	names  map[string]string
	owners map[string]string
}

func newPresence() *presence {
	return &presence{
		names:  make(map[string]string),
		owners: make(map[string]string),
	}
}

func (p *presence) username(connId string) (string, bool) {
	name, ok := p.names[connId]
	return name, ok
}

func (p *presence) owner(username string) (string, bool) {
	connId, ok := p.owners[username]
	return connId, ok
}

func (p *presence) bind(connId, username string) error {
	if _, ok := p.names[connId]; ok {
		return ErrAlreadyNamed
	}
	if _, ok := p.owners[username]; ok {
		return ErrUsernameTaken
	}

	p.names[connId] = username
	p.owners[username] = connId
	return nil
}

func (p *presence) unbind(connId string) (string, bool) {
	name, ok := p.names[connId]
	if !ok {
		return "", false
	}

	delete(p.names, connId)
	delete(p.owners, name)
	return name, true
}

func (p *presence) len() int {
	return len(p.names)
}

func (p *presence) snapshot() map[string]string {
	out := make(map[string]string, len(p.names))
	for id, name := range p.names {
		out[id] = name
	}
	return out
}

// reconcile drops bindings whose user row is gone or now belongs to another
// connection. Bindings are left alone when the store cannot be reached.
func (cs *ChatServer) reconcile() {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	for connId, name := range cs.presence.snapshot() {
		u, err := cs.db.GetUser(ctx, database.UserUsername(), name)
		switch {
		case err == nil && u.SocketId == connId:
			continue
		case err == nil, errors.Is(err, sql.ErrNoRows):
			cs.presence.unbind(connId)
			cs.stats.Decr(NumNamedClients)
			cs.log.Warnw("dropped stale username binding", "conn", connId, "username", name)
		default:
			cs.log.Errorw("reconcile lookup failed", "username", name, "error", err)
			return
		}
	}
}
