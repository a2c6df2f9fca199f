package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/GeorgePPP/bill-splitter/internal/models"
	"github.com/GeorgePPP/bill-splitter/internal/storage"
)

// SessionService implements the Connect SessionService.
// Sessions hold the split wizard state for guests and expire ttl after
// their last update.
type SessionService struct {
	store storage.SessionStore
	ttl   time.Duration
	now   func() time.Time
}

// NewSessionService creates a new SessionService.
func NewSessionService(store storage.SessionStore, ttl time.Duration) *SessionService {
	return &SessionService{store: store, ttl: ttl, now: time.Now}
}

func (s *SessionService) expiry() int64 {
	return s.now().Add(s.ttl).Unix()
}

// CreateSession starts a new session at the first wizard step.
func (s *SessionService) CreateSession(ctx context.Context, req *connect.Request[CreateSessionRequest]) (*connect.Response[SessionResponse], error) {
	session := &models.Session{
		State: models.SessionState{
			CurrentStep:       1,
			Participants:      []models.Participant{},
			KnownParticipants: []models.Participant{},
			ItemAssignments:   []models.ItemAssignment{},
		},
		ExpiresAt: s.expiry(),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, toConnectError("CreateSession", err)
	}
	slog.Info("Session created", "expires_at", time.Unix(session.ExpiresAt, 0).UTC())
	return connect.NewResponse(&SessionResponse{Session: session}), nil
}

// GetSession returns a live session. Reading does not extend it.
func (s *SessionService) GetSession(ctx context.Context, req *connect.Request[GetSessionRequest]) (*connect.Response[SessionResponse], error) {
	session, err := s.get(ctx, req.Msg.Token)
	if err != nil {
		return nil, toConnectError("GetSession", err)
	}
	return connect.NewResponse(&SessionResponse{Session: session}), nil
}

// UpdateSession applies the fields that are set and extends the session.
func (s *SessionService) UpdateSession(ctx context.Context, req *connect.Request[UpdateSessionRequest]) (*connect.Response[SessionResponse], error) {
	session, err := s.get(ctx, req.Msg.Token)
	if err != nil {
		return nil, toConnectError("UpdateSession", err)
	}

	applySessionUpdate(&session.State, req.Msg)
	session.ExpiresAt = s.expiry()

	if err := s.store.UpdateSession(ctx, session); err != nil {
		return nil, toConnectError("UpdateSession", sessionError(err))
	}
	return connect.NewResponse(&SessionResponse{Session: session}), nil
}

// DeleteSession ends a session.
func (s *SessionService) DeleteSession(ctx context.Context, req *connect.Request[DeleteSessionRequest]) (*connect.Response[DeleteSessionResponse], error) {
	if req.Msg.Token == "" {
		return nil, toConnectError("DeleteSession", errMissingID)
	}
	if err := s.store.DeleteSession(ctx, req.Msg.Token); err != nil {
		return nil, toConnectError("DeleteSession", sessionError(err))
	}
	return connect.NewResponse(&DeleteSessionResponse{}), nil
}

func (s *SessionService) get(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, errMissingID
	}
	session, err := s.store.GetSession(ctx, token)
	if err != nil {
		return nil, sessionError(err)
	}
	return session, nil
}

func sessionError(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrSessionExpired, err)
	}
	return err
}

// applySessionUpdate copies the set fields of req into state. Every
// participant ever added stays in KnownParticipants.
func applySessionUpdate(state *models.SessionState, req *UpdateSessionRequest) {
	if req.CurrentStep != nil {
		state.CurrentStep = *req.CurrentStep
	}
	if req.Participants != nil {
		state.Participants = *req.Participants
		known := make(map[string]bool, len(state.KnownParticipants))
		for _, p := range state.KnownParticipants {
			known[p.ID] = true
		}
		for _, p := range state.Participants {
			if !known[p.ID] {
				state.KnownParticipants = append(state.KnownParticipants, p)
				known[p.ID] = true
			}
		}
	}
	if req.ReceiptID != nil {
		state.ReceiptID = *req.ReceiptID
	}
	if req.ItemAssignments != nil {
		state.ItemAssignments = *req.ItemAssignments
	}
	if req.SplitResult != nil {
		state.SplitResult = req.SplitResult
	}
}

// SweepExpiredSessions deletes expired sessions every interval until ctx is done.
func SweepExpiredSessions(ctx context.Context, store storage.SessionStore, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.DeleteExpiredSessions(ctx)
			if err != nil {
				if ctx.Err() == nil {
					slog.Error("Failed to sweep expired sessions", "error", err)
				}
				continue
			}
			if n > 0 {
				slog.Info("Swept expired sessions", "count", n)
			}
		}
	}
}
