// Package session implements the authoritative lifecycle manager for tag
// sessions. All state lives in the store and is read-modify-written per
// call; there is no locking, so concurrent updates to one session blob race
// at last-write-wins granularity. That is a documented limitation, not a
// bug: one client owns one player, and the store is the single source of
// truth.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oni-tag/game-backend/internal/game"
	"github.com/oni-tag/game-backend/internal/liveness"
	"github.com/oni-tag/game-backend/internal/notify"
	"github.com/oni-tag/game-backend/internal/stats"
	"github.com/oni-tag/game-backend/internal/store"
)

const (
	sessionKeyPrefix = "session:"
	activeIndexKey   = "sessions:active"

	// Session blobs carry a rolling TTL renewed by every write; the active
	// index outlives any single session.
	sessionTTL = time.Hour
	indexTTL   = 24 * time.Hour

	// maxSessionAge is the join/list cutoff for sessions whose host likely
	// abandoned them mid-game.
	maxSessionAge = 2 * time.Hour

	// staleAfter is how long the owner heartbeat may lapse before the sweep
	// tears a session down.
	staleAfter = 90 * time.Second

	// endedGraceWindow allows trailing state writes after endSession so
	// clients can reconcile final numbers before reading results.
	endedGraceWindow = 30 * time.Second
)

// placeholderNames are owner display names seen on sessions created before
// a username resolved; such sessions are hidden from listings.
var placeholderNames = map[string]bool{
	"Player":    true,
	"Guest":     true,
	"anonymous": true,
}

// Summary is one row in the joinable-session listing.
type Summary struct {
	ID           string    `json:"id"`
	HostName     string    `json:"hostName"`
	PlayerCount  int       `json:"playerCount"`
	TotalPlayers int       `json:"totalPlayers"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Manager struct {
	store    store.Store
	log      *zap.Logger
	notifier notify.Notifier
	stats    stats.Store // optional

	rngMu sync.Mutex
	rng   *rand.Rand

	now func() time.Time
}

type Options struct {
	Store    store.Store
	Logger   *zap.Logger
	Notifier notify.Notifier
	Stats    stats.Store
	Rand     *rand.Rand       // injected for deterministic role assignment in tests
	Now      func() time.Time // injected clock for tests
}

func New(opts Options) *Manager {
	m := &Manager{
		store:    opts.Store,
		log:      opts.Logger,
		notifier: opts.Notifier,
		stats:    opts.Stats,
		rng:      opts.Rand,
		now:      opts.Now,
	}
	if m.log == nil {
		m.log = zap.NewNop()
	}
	if m.notifier == nil {
		m.notifier = notify.Nop{}
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// CreateSession makes a new Lobby session owned by ownerUsername, deleting
// any other session the same username already owns so a restarting host
// never leaves orphans behind.
func (m *Manager) CreateSession(ctx context.Context, cfg game.Config, ownerUsername string) (sessionID, ownerID string, err error) {
	if err := cfg.Validate(); err != nil {
		return "", "", err
	}

	m.deleteSessionsOwnedBy(ctx, ownerUsername)

	now := m.now()
	sessionID, err = newSessionID(now)
	if err != nil {
		return "", "", err
	}
	ownerID = uuid.NewString()

	s := &game.Session{
		ID:        sessionID,
		OwnerID:   ownerID,
		Status:    game.StatusLobby,
		Config:    cfg,
		CreatedAt: now,
		Players: []game.Player{{
			ID:       ownerID,
			Username: ownerUsername,
			Fuel:     game.MaxFuel,
		}},
	}

	if err := m.save(ctx, s); err != nil {
		return "", "", err
	}
	if err := m.store.AddToIndex(ctx, activeIndexKey, sessionID, float64(now.UnixMilli())); err != nil {
		return "", "", fmt.Errorf("index session %s: %w", sessionID, err)
	}
	if err := m.store.SetIndexTTL(ctx, activeIndexKey, indexTTL); err != nil {
		m.log.Warn("refresh index ttl", zap.Error(err))
	}

	m.log.Info("session created",
		zap.String("session", sessionID),
		zap.String("owner", ownerUsername),
		zap.Int("totalPlayers", cfg.TotalPlayers))
	return sessionID, ownerID, nil
}

// JoinSession adds username to a Lobby session. Joining twice with the same
// username is idempotent and returns the existing player id. Filling the
// session to capacity starts play before returning.
func (m *Manager) JoinSession(ctx context.Context, sessionID, username string) (string, *game.Session, error) {
	s, err := m.load(ctx, sessionID)
	if err != nil {
		return "", nil, err
	}

	if i := s.FindPlayerByName(username); i >= 0 {
		return s.Players[i].ID, s, nil
	}
	if s.Status != game.StatusLobby {
		return "", nil, ErrAlreadyStarted
	}
	if m.now().Sub(s.CreatedAt) > maxSessionAge {
		return "", nil, ErrExpired
	}
	if s.IsFull() {
		return "", nil, ErrFull
	}

	p := game.Player{
		ID:       uuid.NewString(),
		Username: username,
		Fuel:     game.MaxFuel,
	}
	s.Players = append(s.Players, p)

	if s.IsFull() {
		m.startPlaying(s)
	}

	if err := m.save(ctx, s); err != nil {
		return "", nil, err
	}
	m.notifier.SessionChanged(s.ID, *s)
	return p.ID, s, nil
}

// AddAIFillers tops the session up to capacity with AI players and starts
// play. Safe to call twice: roles are assigned and initial chasers
// snapshotted only on the first pass.
func (m *Manager) AddAIFillers(ctx context.Context, sessionID string) (*game.Session, error) {
	s, err := m.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s.Status == game.StatusEnded {
		return nil, ErrWrongStatus
	}

	for i := len(s.Players); i < s.Config.TotalPlayers; i++ {
		s.Players = append(s.Players, game.Player{
			ID:       uuid.NewString(),
			Username: fmt.Sprintf("AI-%02d", i+1),
			IsAI:     true,
			Fuel:     game.MaxFuel,
		})
	}

	m.startPlaying(s)

	if err := m.save(ctx, s); err != nil {
		return nil, err
	}
	m.notifier.SessionChanged(s.ID, *s)
	return s, nil
}

// startPlaying finalizes roles (once) and moves the session to Playing.
// InitialChaserIDs is the set-once ground truth for end-game attribution;
// re-entering here never touches it again, and StartedAt is never reset.
func (m *Manager) startPlaying(s *game.Session) {
	if len(s.InitialChaserIDs) == 0 {
		m.rngMu.Lock()
		s.Players = game.AssignRoles(s.Players, m.rng)
		m.rngMu.Unlock()
		s.InitialChaserIDs = game.ChaserIDs(s.Players)
	}
	s.Status = game.StatusPlaying
	if s.StartedAt == nil {
		t := m.now()
		s.StartedAt = &t
	}
}

// UpdatePlayerState merges a validated partial state push into one player
// record. The first accepted update against a Lobby session starts play
// implicitly. Hard validation failures reject the whole update and leave
// the stored record untouched.
func (m *Manager) UpdatePlayerState(ctx context.Context, sessionID, playerID string, upd game.StateUpdate) error {
	s, err := m.load(ctx, sessionID)
	if err != nil {
		return err
	}

	switch s.Status {
	case game.StatusLobby:
		// First accepted update starts the game.
	case game.StatusPlaying:
	case game.StatusEnded:
		if s.EndedAt != nil && m.now().Sub(*s.EndedAt) > endedGraceWindow {
			return ErrWrongStatus
		}
	default:
		return ErrWrongStatus
	}

	i := s.FindPlayer(playerID)
	if i < 0 {
		return ErrPlayerNotFound
	}

	merged, err := game.ApplyUpdate(s.Players[i], upd)
	if err != nil {
		return err
	}

	if s.Status == game.StatusLobby {
		m.startPlaying(s)
	}
	s.Players[i] = merged

	if err := m.save(ctx, s); err != nil {
		return err
	}
	m.notifier.SessionChanged(s.ID, *s)
	return nil
}

// EndSession computes final results from the stored session and retires it
// from the active listing. Idempotent: a second call recomputes the same
// results from the same stored data.
func (m *Manager) EndSession(ctx context.Context, sessionID string) (game.Results, error) {
	s, err := m.load(ctx, sessionID)
	if err != nil {
		return game.Results{}, err
	}

	results := game.ComputeResults(*s)

	firstEnd := s.Status != game.StatusEnded
	if firstEnd {
		s.Status = game.StatusEnded
		t := m.now()
		s.EndedAt = &t
	}

	if err := m.save(ctx, s); err != nil {
		return game.Results{}, err
	}
	if err := m.store.RemoveFromIndex(ctx, activeIndexKey, sessionID); err != nil {
		m.log.Warn("deindex ended session", zap.String("session", sessionID), zap.Error(err))
	}

	if firstEnd {
		m.recordStats(ctx, s, results)
		m.notifier.SessionChanged(s.ID, *s)
		m.log.Info("session ended",
			zap.String("session", sessionID),
			zap.String("winner", results.TeamWinner))
	}
	return results, nil
}

// recordStats folds the finished session into per-user career stats.
// Player ids are minted per session, so records are keyed by username -
// the only identity that survives across sessions. Best-effort: failures
// are logged, never surfaced.
func (m *Manager) recordStats(ctx context.Context, s *game.Session, results game.Results) {
	if m.stats == nil {
		return
	}
	winners := make(map[string]bool, len(results.Players))
	for _, e := range results.Players {
		winners[e.ID] = true
	}
	for _, p := range s.Players {
		if p.IsAI {
			continue
		}
		delta := stats.Delta{
			Won:             winners[p.ID],
			WasChaser:       results.TeamWinner == game.TeamOni && winners[p.ID],
			Tags:            p.TagCount,
			SurvivedSeconds: p.SurvivedSeconds,
		}
		if err := m.stats.Apply(ctx, p.Username, delta); err != nil {
			m.log.Warn("record stats", zap.String("user", p.Username), zap.Error(err))
		}
	}
}

// ListJoinableSessions returns Lobby sessions that still have room, are not
// past the age cutoff, and whose owner has a resolved display name. Index
// entries whose blob already expired are silently skipped; the sweep cleans
// them up.
func (m *Manager) ListJoinableSessions(ctx context.Context) ([]Summary, error) {
	ids, err := m.store.RangeIndex(ctx, activeIndexKey)
	if err != nil {
		return nil, fmt.Errorf("list active sessions: %w", err)
	}

	now := m.now()
	out := make([]Summary, 0, len(ids))
	for _, id := range ids {
		s, err := m.load(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			m.log.Warn("load listed session", zap.String("session", id), zap.Error(err))
			continue
		}
		if s.Status != game.StatusLobby || s.IsFull() {
			continue
		}
		if now.Sub(s.CreatedAt) > maxSessionAge {
			continue
		}
		host := s.OwnerUsername()
		if placeholderNames[host] {
			continue
		}
		out = append(out, Summary{
			ID:           s.ID,
			HostName:     host,
			PlayerCount:  len(s.Players),
			TotalPlayers: s.Config.TotalPlayers,
			CreatedAt:    s.CreatedAt,
		})
	}
	return out, nil
}

// LeaveSession removes a player from a Lobby session. The owner cannot
// leave their own session; they disconnect via ReplaceWithAI, which deletes
// it instead.
func (m *Manager) LeaveSession(ctx context.Context, sessionID, playerID string) error {
	s, err := m.load(ctx, sessionID)
	if err != nil {
		return err
	}
	if s.Status != game.StatusLobby {
		return ErrWrongStatus
	}
	if playerID == s.OwnerID {
		return fmt.Errorf("%w: owner cannot leave own session", ErrWrongStatus)
	}

	i := s.FindPlayer(playerID)
	if i < 0 {
		return ErrPlayerNotFound
	}
	s.Players = append(s.Players[:i], s.Players[i+1:]...)

	if err := m.save(ctx, s); err != nil {
		return err
	}
	m.notifier.SessionChanged(s.ID, *s)
	return nil
}

// ReplaceWithAI handles a disconnect: an owner leaving a Lobby session
// deletes it outright; any other player is converted to an AI in place,
// keeping their last known position and stats so the slot stays filled.
func (m *Manager) ReplaceWithAI(ctx context.Context, sessionID, playerID string) error {
	s, err := m.load(ctx, sessionID)
	if err != nil {
		return err
	}

	if playerID == s.OwnerID && s.Status == game.StatusLobby {
		m.deleteSession(ctx, sessionID)
		m.log.Info("session deleted on owner disconnect", zap.String("session", sessionID))
		return nil
	}

	i := s.FindPlayer(playerID)
	if i < 0 {
		return ErrPlayerNotFound
	}
	s.Players[i].IsAI = true
	s.Players[i].Username = s.Players[i].Username + " [AI]"

	if err := m.save(ctx, s); err != nil {
		return err
	}
	m.notifier.SessionChanged(s.ID, *s)
	return nil
}

// Heartbeat stamps the owner-liveness timestamp and renews the blob TTL.
// Liveness is advisory: failures are logged and swallowed so a heartbeat
// can never fail its caller.
func (m *Manager) Heartbeat(ctx context.Context, sessionID string) {
	s, err := m.load(ctx, sessionID)
	if err != nil {
		m.log.Debug("heartbeat on missing session", zap.String("session", sessionID), zap.Error(err))
		return
	}
	t := m.now()
	s.LastOwnerHeartbeatAt = &t
	if err := m.save(ctx, s); err != nil {
		m.log.Warn("persist heartbeat", zap.String("session", sessionID), zap.Error(err))
	}
}

// GetSession returns the stored session snapshot.
func (m *Manager) GetSession(ctx context.Context, sessionID string) (*game.Session, error) {
	return m.load(ctx, sessionID)
}

// CheckOwnerLiveness probes a session's owner heartbeat for a liveness
// monitor. A missing session maps to the unambiguous NotFound signal; a
// transient store failure maps to a fresh check so a flaky read never
// counts against the host.
func (m *Manager) CheckOwnerLiveness(ctx context.Context, sessionID string) liveness.Check {
	s, err := m.load(ctx, sessionID)
	if errors.Is(err, ErrNotFound) {
		return liveness.Check{NotFound: true}
	}
	if err != nil {
		m.log.Warn("liveness probe", zap.String("session", sessionID), zap.Error(err))
		return liveness.Check{}
	}
	if s.LastOwnerHeartbeatAt == nil {
		return liveness.Check{}
	}
	return liveness.Check{
		HasHeartbeat: true,
		HeartbeatAge: m.now().Sub(*s.LastOwnerHeartbeatAt),
	}
}

// SweepStaleSessions walks the active index and deletes sessions whose blob
// is already gone, whose owner heartbeat lapsed past the stale threshold,
// or - when no heartbeat was ever recorded - whose id-derived creation time
// is past the same threshold. Safe to run concurrently with request
// handling.
func (m *Manager) SweepStaleSessions(ctx context.Context) (int, error) {
	ids, err := m.store.RangeIndex(ctx, activeIndexKey)
	if err != nil {
		return 0, fmt.Errorf("sweep: list active sessions: %w", err)
	}

	now := m.now()
	removed := 0
	for _, id := range ids {
		s, err := m.load(ctx, id)
		if errors.Is(err, ErrNotFound) {
			// Blob expired; drop the dangling index entry.
			if err := m.store.RemoveFromIndex(ctx, activeIndexKey, id); err != nil {
				m.log.Warn("deindex expired session", zap.String("session", id), zap.Error(err))
				continue
			}
			removed++
			continue
		}
		if err != nil {
			m.log.Warn("sweep: load session", zap.String("session", id), zap.Error(err))
			continue
		}

		ref := s.CreatedAt
		if s.LastOwnerHeartbeatAt != nil {
			ref = *s.LastOwnerHeartbeatAt
		} else if created, ok := CreationTimeFromID(id); ok {
			ref = created
		}
		if now.Sub(ref) <= staleAfter {
			continue
		}

		m.deleteSession(ctx, id)
		removed++
		m.log.Info("stale session swept", zap.String("session", id))
	}
	return removed, nil
}

func (m *Manager) deleteSessionsOwnedBy(ctx context.Context, username string) {
	ids, err := m.store.RangeIndex(ctx, activeIndexKey)
	if err != nil {
		m.log.Warn("scan for owned sessions", zap.Error(err))
		return
	}
	for _, id := range ids {
		s, err := m.load(ctx, id)
		if err != nil {
			continue
		}
		if s.OwnerUsername() == username {
			m.deleteSession(ctx, id)
			m.log.Info("superseded session deleted",
				zap.String("session", id),
				zap.String("owner", username))
		}
	}
}

func (m *Manager) deleteSession(ctx context.Context, sessionID string) {
	if err := m.store.Delete(ctx, sessionKey(sessionID)); err != nil {
		m.log.Warn("delete session blob", zap.String("session", sessionID), zap.Error(err))
	}
	if err := m.store.RemoveFromIndex(ctx, activeIndexKey, sessionID); err != nil {
		m.log.Warn("deindex session", zap.String("session", sessionID), zap.Error(err))
	}
}

func sessionKey(id string) string { return sessionKeyPrefix + id }

func (m *Manager) load(ctx context.Context, sessionID string) (*game.Session, error) {
	raw, err := m.store.Get(ctx, sessionKey(sessionID))
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	var s game.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return &s, nil
}

// save writes the blob back with a fresh TTL; every write implicitly renews
// the session's lease.
func (m *Manager) save(ctx context.Context, s *game.Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", s.ID, err)
	}
	if err := m.store.Put(ctx, sessionKey(s.ID), raw, sessionTTL); err != nil {
		return fmt.Errorf("save session %s: %w", s.ID, err)
	}
	return nil
}
