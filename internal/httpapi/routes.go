package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/oni-tag/game-backend/internal/notify"
	"github.com/oni-tag/game-backend/internal/session"
	"github.com/oni-tag/game-backend/internal/ws"
)

func SetupRoutes(m *session.Manager, hub *notify.Hub, log *zap.Logger) http.Handler {
	a := &api{manager: m, log: log}
	r := chi.NewRouter()

	r.Get("/healthz", healthz)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", a.createSession)
		r.Get("/", a.listSessions)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", a.getSession)
			r.Post("/join", a.joinSession)
			r.Post("/ai-fill", a.addAIFillers)
			r.Post("/end", a.endSession)
			r.Post("/heartbeat", a.heartbeat)
			r.Post("/leave", a.leaveSession)
			r.Post("/replace-ai", a.replaceWithAI)
			r.Post("/players/{playerID}/state", a.updatePlayerState)
		})
	})

	if hub != nil {
		r.Get("/ws", ws.Handler(m, hub, log))
	}
	return r
}
