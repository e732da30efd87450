package notify

import (
	"context"

	"github.com/oni-tag/game-backend/internal/game"
)

type HubMsg interface{ isHubMsg() }

type Subscribe struct {
	SessionID string
	ClientID  string
	Outbox    chan game.Session // where this client wants to receive snapshots
}

type Unsubscribe struct {
	SessionID string
	ClientID  string
}

type publish struct {
	sessionID string
	session   game.Session
}

// SubscriberCount reflects internal state without data races; used by tests.
type SubscriberCount struct {
	SessionID string
	Reply     chan int
}

type ShutdownHub struct{}

func (Subscribe) isHubMsg()       {}
func (Unsubscribe) isHubMsg()     {}
func (publish) isHubMsg()         {}
func (SubscriberCount) isHubMsg() {}
func (ShutdownHub) isHubMsg()     {}

// Hub fans session snapshots out to websocket subscribers, keyed by session
// id. Single goroutine owns all state; everything talks to it through the
// inbox.
type Hub struct {
	inbox  chan HubMsg
	subs   map[string]map[string]chan game.Session
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(parent context.Context) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:  make(chan HubMsg, 64),
		subs:   make(map[string]map[string]chan game.Session),
		ctx:    ctx,
		cancel: cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// SessionChanged implements Notifier. The send is non-blocking: if the hub
// inbox is full the notification is simply dropped.
func (h *Hub) SessionChanged(sessionID string, s game.Session) {
	select {
	case h.inbox <- publish{sessionID: sessionID, session: s}:
	default:
	}
}

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case Subscribe:
				clients, ok := h.subs[msg.SessionID]
				if !ok {
					clients = make(map[string]chan game.Session)
					h.subs[msg.SessionID] = clients
				}
				clients[msg.ClientID] = msg.Outbox

			case Unsubscribe:
				if clients, ok := h.subs[msg.SessionID]; ok {
					delete(clients, msg.ClientID)
					if len(clients) == 0 {
						delete(h.subs, msg.SessionID)
					}
				}

			case publish:
				h.broadcast(msg.sessionID, msg.session)

			case SubscriberCount:
				msg.Reply <- len(h.subs[msg.SessionID])

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) broadcast(sessionID string, s game.Session) {
	clients := h.subs[sessionID]
	for id, ch := range clients {
		select {
		case ch <- s:
			// ok
		default:
			// Client is slow/full - drop them.
			close(ch)
			delete(clients, id)
		}
	}
}

func (h *Hub) shutdown() {
	for _, clients := range h.subs {
		for id, ch := range clients {
			close(ch)
			delete(clients, id)
		}
	}
	clear(h.subs)
	h.cancel()
}
