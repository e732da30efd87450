// Package ws streams advisory session snapshots to spectating clients. The
// feed is not the authoritative path - clients still act through the HTTP
// API - so every write here is best-effort.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oni-tag/game-backend/internal/game"
	"github.com/oni-tag/game-backend/internal/liveness"
	"github.com/oni-tag/game-backend/internal/notify"
	"github.com/oni-tag/game-backend/internal/session"
)

type serverMessage struct {
	Type    string        `json:"type"` // "SessionSnapshot" | "HostGone"
	Session *game.Session `json:"session,omitempty"`
}

// Handler subscribes the connection to one session's snapshot feed and
// watches host liveness on the side, closing the feed once the owner is
// confirmed gone.
func Handler(m *session.Manager, h *notify.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.URL.Query().Get("session")
		if sessionID == "" {
			http.Error(w, "missing session", http.StatusBadRequest)
			return
		}

		snap, err := m.GetSession(r.Context(), sessionID)
		if errors.Is(err, session.ErrNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		// The feed is write-only, so hand reads to CloseRead: it keeps
		// control frames (close, ping) flowing and cancels the context as
		// soon as the client disconnects.
		ctx := conn.CloseRead(r.Context())

		out := make(chan game.Session, 8)
		clientID := uuid.NewString()
		h.Inbox() <- notify.Subscribe{SessionID: sessionID, ClientID: clientID, Outbox: out}
		defer func() {
			h.Inbox() <- notify.Unsubscribe{SessionID: sessionID, ClientID: clientID}
		}()

		// Send the current snapshot immediately so the client doesn't wait
		// for the next change.
		if err := writeSnapshot(ctx, conn, *snap); err != nil {
			return
		}

		monitor := liveness.NewMonitor()
		ticker := time.NewTicker(liveness.DefaultInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return

			case s, ok := <-out:
				if !ok {
					// Dropped by the hub as a slow client.
					return
				}
				if err := writeSnapshot(ctx, conn, s); err != nil {
					return
				}

			case <-ticker.C:
				verdict := monitor.Observe(m.CheckOwnerLiveness(ctx, sessionID))
				if verdict != liveness.Gone {
					continue
				}
				payload, _ := json.Marshal(serverMessage{Type: "HostGone"})
				wctx, wcancel := context.WithTimeout(ctx, 3*time.Second)
				_ = conn.Write(wctx, websocket.MessageText, payload)
				wcancel()
				log.Info("host gone, closing feed", zap.String("session", sessionID))
				return
			}
		}
	}
}

func writeSnapshot(ctx context.Context, conn *websocket.Conn, s game.Session) error {
	payload, err := json.Marshal(serverMessage{Type: "SessionSnapshot", Session: &s})
	if err != nil {
		return err
	}
	wctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return conn.Write(wctx, websocket.MessageText, payload)
}
