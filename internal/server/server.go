package server

import (
	"context"
	"errors"
	"time"

	"github.com/npezzotti/basic-chat/internal/database"
	"github.com/npezzotti/basic-chat/internal/stats"
	"go.uber.org/zap"
)

const (
	NumActiveClients      = "NumActiveClients"
	NumNamedClients       = "NumNamedClients"
	NumMessagesPublished  = "NumMessagesPublished"
	NumUsernameRejections = "NumUsernameRejections"

	defaultReconcileInterval = time.Minute
	storeTimeout             = 5 * time.Second
)

var ErrServerClosed = errors.New("chat server closed")

type stopReq struct {
	done chan struct{}
}

// ChatServer coordinates every connection. All presence state is owned by
// the Run goroutine, so events are handled one at a time in arrival order.
type ChatServer struct {
	log               *zap.SugaredLogger
	db                database.Repository
	stats             stats.StatsProvider
	clients           map[string]*Client
	presence          *presence
	registerChan      chan *Client
	deRegisterChan    chan *Client
	clientMsgChan     chan *ClientMessage
	reconcileInterval time.Duration
	stop              chan stopReq
	done              chan struct{}
}

func NewChatServer(logger *zap.SugaredLogger, db database.Repository, su stats.StatsProvider, reconcileInterval time.Duration) (*ChatServer, error) {
	if db == nil {
		return nil, errors.New("chat server requires a repository")
	}
	if reconcileInterval <= 0 {
		reconcileInterval = defaultReconcileInterval
	}

	for _, name := range []string{NumActiveClients, NumNamedClients, NumMessagesPublished, NumUsernameRejections} {
		su.RegisterMetric(name)
	}

	return &ChatServer{
		log:               logger,
		db:                db,
		stats:             su,
		clients:           make(map[string]*Client),
		presence:          newPresence(),
		registerChan:      make(chan *Client),
		deRegisterChan:    make(chan *Client),
		clientMsgChan:     make(chan *ClientMessage, 256),
		reconcileInterval: reconcileInterval,
		stop:              make(chan stopReq),
		done:              make(chan struct{}),
	}, nil
}

func (cs *ChatServer) Run() {
	ticker := time.NewTicker(cs.reconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case c := <-cs.registerChan:
			cs.handleConnect(c)
		case c := <-cs.deRegisterChan:
			cs.handleDisconnect(c)
		case msg := <-cs.clientMsgChan:
			cs.handleClientMessage(msg)
		case <-ticker.C:
			cs.reconcile()
		case req := <-cs.stop:
			cs.log.Infow("shutting down chat server", "clients", len(cs.clients))
			for _, c := range cs.clients {
				c.stopClient()
			}
			close(cs.done)
			close(req.done)
			return
		}
	}
}

// Register hands a freshly upgraded connection to the run loop.
func (cs *ChatServer) Register(c *Client) error {
	select {
	case cs.registerChan <- c:
		return nil
	case <-cs.done:
		return ErrServerClosed
	}
}

func (cs *ChatServer) deRegister(c *Client) {
	select {
	case cs.deRegisterChan <- c:
	case <-cs.done:
	}
}

// submit queues a client frame for the run loop without blocking the
// connection's read pump.
func (cs *ChatServer) submit(msg *ClientMessage) bool {
	select {
	case cs.clientMsgChan <- msg:
		return true
	default:
		return false
	}
}

func (cs *ChatServer) Shutdown(ctx context.Context) error {
	cs.log.Info("received shutdown signal")
	req := stopReq{done: make(chan struct{})}

	select {
	case cs.stop <- req:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-req.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (cs *ChatServer) handleConnect(c *Client) {
	cs.clients[c.id] = c
	cs.stats.Incr(NumActiveClients)
	cs.log.Infow("client connected", "conn", c.id, "clients", len(cs.clients))
	cs.sendHistory(c)
}

// handleDisconnect drops the connection and its binding. The user row is
// left in place.
func (cs *ChatServer) handleDisconnect(c *Client) {
	if _, ok := cs.clients[c.id]; !ok {
		return
	}

	delete(cs.clients, c.id)
	cs.stats.Decr(NumActiveClients)
	if name, ok := cs.presence.unbind(c.id); ok {
		cs.stats.Decr(NumNamedClients)
		cs.log.Infow("named client disconnected", "conn", c.id, "username", name)
	} else {
		cs.log.Infow("client disconnected", "conn", c.id)
	}
}

func (cs *ChatServer) handleClientMessage(msg *ClientMessage) {
	if _, ok := cs.clients[msg.client.id]; !ok {
		cs.log.Debugw("dropping message from unregistered client", "conn", msg.client.id)
		return
	}

	switch {
	case msg.Username != nil:
		cs.handleUsername(msg)
	case msg.Publish != nil:
		cs.handlePublish(msg)
	default:
		msg.client.queueMessage(ErrInvalidMessage(msg.Id))
	}
}

func (cs *ChatServer) broadcast(msg *ServerMessage) {
	for _, c := range cs.clients {
		c.queueMessage(msg)
	}
}
