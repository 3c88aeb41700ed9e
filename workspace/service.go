package workspace

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/samber/lo"

	"github.com/Desarso/tripagent/models"
	"github.com/Desarso/tripagent/prefs"
	"github.com/Desarso/tripagent/sessions"
	"github.com/Desarso/tripagent/stores"
)

const (
	DefaultTokenTTL  = 24 * time.Hour
	inferenceTimeout = 30 * time.Second
)

// Service owns the token table and runs turns against workspaces.
type Service struct {
	Store     stores.SessionStore
	Runner    *sessions.Runner
	Policy    *sessions.Policy
	Completer prefs.Completer // nil disables preference inference

	// InferInBackground runs preference inference off the request path.
	InferInBackground bool

	tokens *cache.Cache
	locks  *sessions.Locker
	logger *log.Logger
}

func NewService(store stores.SessionStore, runner *sessions.Runner, policy *sessions.Policy, completer prefs.Completer) *Service {
	return &Service{
		Store:             store,
		Runner:            runner,
		Policy:            policy,
		Completer:         completer,
		InferInBackground: true,
		tokens:            cache.New(DefaultTokenTTL, time.Hour),
		locks:             sessions.NewLocker(),
		logger:            log.New(os.Stdout, "[WORKSPACE] ", log.LstdFlags),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates the account and signs it in.
func (s *Service) Register(email, password string, preferences []string) (string, *Workspace, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", nil, fmt.Errorf("email and password are required")
	}
	if err := s.Store.CreateUser(email, password, knownTags(preferences)); err != nil {
		return "", nil, err
	}
	return s.Login(email, password)
}

// Login authenticates and loads the stored history into a new workspace.
func (s *Service) Login(email, password string) (string, *Workspace, error) {
	email = normalizeEmail(email)
	user, err := s.Store.AuthenticateUser(email, password)
	if err != nil {
		return "", nil, err
	}
	history, err := s.Store.LoadHistory(email)
	if err != nil {
		return "", nil, fmt.Errorf("failed to load history: %w", err)
	}
	ws := newWorkspace(user.Email, history, user.Preferences)
	token := newToken()
	s.tokens.Set(token, ws, cache.DefaultExpiration)
	s.logger.Printf("Signed in %s with %d sessions", email, len(history))
	return token, ws, nil
}

// Guest opens a workspace that lives only in memory.
func (s *Service) Guest() (string, *Workspace) {
	ws := newWorkspace("", nil, nil)
	token := newToken()
	s.tokens.Set(token, ws, cache.DefaultExpiration)
	return token, ws
}

func (s *Service) Logout(token string) {
	s.tokens.Delete(token)
}

// Workspace resolves a bearer token.
func (s *Service) Workspace(token string) (*Workspace, error) {
	v, ok := s.tokens.Get(token)
	if !ok {
		return nil, ErrUnauthorized
	}
	return v.(*Workspace), nil
}

// save writes the whole list for account owners. The caller holds ws.mu.
// A failure leaves the in-memory list authoritative and marks it dirty.
func (s *Service) save(ws *Workspace) error {
	if ws.IsGuest() || s.Store == nil {
		return nil
	}
	if err := s.Store.SaveHistory(ws.Email, ws.sessions); err != nil {
		ws.dirty = true
		s.logger.Printf("Error saving history for %s: %v", ws.Email, err)
		return fmt.Errorf("failed to save history: %w", err)
	}
	ws.dirty = false
	return nil
}

// CreateSession starts a session at the top of the list.
func (s *Service) CreateSession(ws *Workspace) (*models.ChatSession, error) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	session := models.NewChatSession(uuid.NewString(), s.systemText(ws.profile))
	ws.insert(session)
	return session.Clone(), s.save(ws)
}

func (s *Service) DeleteSession(ws *Workspace, id string) error {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	i := ws.indexOf(id)
	if i < 0 {
		return ErrSessionNotFound
	}
	ws.sessions = append(ws.sessions[:i], ws.sessions[i+1:]...)
	s.locks.Forget(id)
	return s.save(ws)
}

// knownTags drops duplicates and anything outside the closed tag set.
func knownTags(tags []string) []string {
	return lo.Uniq(lo.Filter(tags, func(t string, _ int) bool { return lo.Contains(prefs.Tags, t) }))
}

// SetPreferences overwrites the tag set. It is the only way tags shrink.
func (s *Service) SetPreferences(ws *Workspace, tags []string) ([]string, error) {
	tags = knownTags(tags)
	if !ws.IsGuest() {
		if err := s.Store.UpdatePreferences(ws.Email, tags); err != nil {
			return nil, err
		}
	}
	ws.mu.Lock()
	ws.preferences = tags
	ws.mu.Unlock()
	return append([]string{}, tags...), nil
}

func (s *Service) systemText(profile models.Profile) string {
	if s.Policy == nil {
		return ""
	}
	return s.Policy.SystemMessage(&profile)
}

// Turn runs one user message. An empty sessionID starts a new session.
func (s *Service) Turn(ctx context.Context, ws *Workspace, sessionID, text string, sink sessions.EventSink) (models.TurnResult, error) {
	if sessionID == "" {
		created, err := s.CreateSession(ws)
		if err != nil && created == nil {
			return models.TurnResult{}, err
		}
		sessionID = created.ID
	}
	return s.drive(ctx, ws, sessionID, func(session *models.ChatSession) (models.TurnResult, error) {
		return s.Runner.Run(ctx, session, text, sink)
	})
}

// Resume continues a suspended turn.
func (s *Service) Resume(ctx context.Context, ws *Workspace, sessionID string, sink sessions.EventSink) (models.TurnResult, error) {
	return s.drive(ctx, ws, sessionID, func(session *models.ChatSession) (models.TurnResult, error) {
		return s.Runner.Resume(ctx, session, sink)
	})
}

// drive runs fn on a copy of the session under the session lock, then
// commits the copy and saves. The copy is committed even on failure so the
// messages appended so far are not lost.
func (s *Service) drive(ctx context.Context, ws *Workspace, sessionID string, fn func(*models.ChatSession) (models.TurnResult, error)) (models.TurnResult, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	ws.mu.Lock()
	i := ws.indexOf(sessionID)
	if i < 0 {
		ws.mu.Unlock()
		return models.TurnResult{}, ErrSessionNotFound
	}
	session := ws.sessions[i].Clone()
	session.SetSystem(s.systemText(ws.profile))
	ws.mu.Unlock()

	res, err := fn(session)

	ws.mu.Lock()
	committed := ws.commit(session)
	if committed {
		s.save(ws)
	}
	ws.mu.Unlock()

	if err != nil {
		return res, err
	}
	if !committed {
		return res, ErrSessionNotFound
	}
	if res.Status == models.TurnCompleted && !ws.IsGuest() && s.Completer != nil {
		if s.InferInBackground {
			go s.inferPreferences(ws, session.Messages)
		} else {
			s.inferPreferences(ws, session.Messages)
		}
	}
	return res, nil
}

// inferPreferences merges tags inferred from the transcript into the
// account. It never fails the turn.
func (s *Service) inferPreferences(ws *Workspace, msgs []models.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), inferenceTimeout)
	defer cancel()

	tags := prefs.Infer(ctx, s.Completer, msgs)
	if len(tags) == 0 {
		return
	}
	merged, err := s.Store.MergePreferences(ws.Email, tags)
	if err != nil {
		s.logger.Printf("Error merging preferences for %s: %v", ws.Email, err)
		return
	}
	ws.mu.Lock()
	ws.preferences = merged
	ws.mu.Unlock()
	s.logger.Printf("Preferences for %s: %v", ws.Email, merged)
}

// Bind adapts the service to one workspace for the transport drivers.
func (s *Service) Bind(ws *Workspace) sessions.TurnService {
	return boundService{svc: s, ws: ws}
}

type boundService struct {
	svc *Service
	ws  *Workspace
}

func (b boundService) Turn(ctx context.Context, sessionID, text string, sink sessions.EventSink) (models.TurnResult, error) {
	return b.svc.Turn(ctx, b.ws, sessionID, text, sink)
}

func (b boundService) Resume(ctx context.Context, sessionID string, sink sessions.EventSink) (models.TurnResult, error) {
	return b.svc.Resume(ctx, b.ws, sessionID, sink)
}
