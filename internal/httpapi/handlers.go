package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/oni-tag/game-backend/internal/game"
	"github.com/oni-tag/game-backend/internal/session"
)

type api struct {
	manager *session.Manager
	log     *zap.Logger
}

type createSessionRequest struct {
	Username string      `json:"username"`
	Config   game.Config `json:"config"`
}

type createSessionResponse struct {
	SessionID string `json:"sessionId"`
	OwnerID   string `json:"ownerId"`
}

type joinSessionRequest struct {
	Username string `json:"username"`
}

type joinSessionResponse struct {
	PlayerID string        `json:"playerId"`
	Session  *game.Session `json:"sessionSnapshot"`
}

type playerRequest struct {
	PlayerID string `json:"playerId"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

func (a *api) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidConfig")
		return
	}
	sessionID, ownerID, err := a.manager.CreateSession(r.Context(), req.Config, req.Username)
	if err != nil {
		a.writeDomainError(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, createSessionResponse{SessionID: sessionID, OwnerID: ownerID})
}

func (a *api) joinSession(w http.ResponseWriter, r *http.Request) {
	var req joinSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BadRequest")
		return
	}
	playerID, snap, err := a.manager.JoinSession(r.Context(), chi.URLParam(r, "id"), req.Username)
	if err != nil {
		// Join reports not-found as a 400-class error, matching the
		// original client contract.
		a.writeDomainError(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, joinSessionResponse{PlayerID: playerID, Session: snap})
}

func (a *api) getSession(w http.ResponseWriter, r *http.Request) {
	snap, err := a.manager.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.writeDomainError(w, err, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (a *api) addAIFillers(w http.ResponseWriter, r *http.Request) {
	if _, err := a.manager.AddAIFillers(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.writeDomainError(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (a *api) updatePlayerState(w http.ResponseWriter, r *http.Request) {
	var upd game.StateUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidState")
		return
	}
	err := a.manager.UpdatePlayerState(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "playerID"), upd)
	if err != nil {
		a.writeDomainError(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (a *api) endSession(w http.ResponseWriter, r *http.Request) {
	results, err := a.manager.EndSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.writeDomainError(w, err, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Results game.Results `json:"results"`
	}{Results: results})
}

func (a *api) listSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := a.manager.ListJoinableSessions(r.Context())
	if err != nil {
		a.writeDomainError(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Sessions []session.Summary `json:"sessions"`
	}{Sessions: sessions})
}

// heartbeat never hard-fails: liveness is advisory and a failed stamp must
// not disturb the host's game loop.
func (a *api) heartbeat(w http.ResponseWriter, r *http.Request) {
	a.manager.Heartbeat(r.Context(), chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (a *api) leaveSession(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BadRequest")
		return
	}
	if err := a.manager.LeaveSession(r.Context(), chi.URLParam(r, "id"), req.PlayerID); err != nil {
		a.writeDomainError(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (a *api) replaceWithAI(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BadRequest")
		return
	}
	if err := a.manager.ReplaceWithAI(r.Context(), chi.URLParam(r, "id"), req.PlayerID); err != nil {
		a.writeDomainError(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// writeDomainError maps typed lifecycle/validation errors to the wire
// convention: named 400-class errors, notFoundStatus for missing sessions,
// 500 for store failures (the one unrecoverable case).
func (a *api) writeDomainError(w http.ResponseWriter, err error, notFoundStatus int) {
	name, ok := errorName(err)
	if !ok {
		a.log.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal")
		return
	}
	status := http.StatusBadRequest
	if errors.Is(err, session.ErrNotFound) {
		status = notFoundStatus
	}
	writeError(w, status, name)
}

func errorName(err error) (string, bool) {
	switch {
	case errors.Is(err, game.ErrInvalidConfig):
		return "InvalidConfig", true
	case errors.Is(err, game.ErrInvalidState):
		return "InvalidState", true
	case errors.Is(err, session.ErrNotFound):
		return "NotFound", true
	case errors.Is(err, session.ErrAlreadyStarted):
		return "AlreadyStarted", true
	case errors.Is(err, session.ErrFull):
		return "Full", true
	case errors.Is(err, session.ErrExpired):
		return "Expired", true
	case errors.Is(err, session.ErrWrongStatus):
		return "WrongStatus", true
	case errors.Is(err, session.ErrPlayerNotFound):
		return "PlayerNotFound", true
	}
	return "", false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, name string) {
	writeJSON(w, status, struct {
		Error string `json:"error"`
	}{Error: name})
}
