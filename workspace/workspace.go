// Package workspace keeps each signed-in user's (or guest's) ordered session
// list in memory and syncs it to the session store after every mutation.
package workspace

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Desarso/tripagent/models"
)

var (
	ErrUnauthorized    = errors.New("invalid or expired token")
	ErrSessionNotFound = errors.New("session not found")
)

// Workspace is the authoritative session list of one owner. Guests have an
// empty Email and are never persisted.
type Workspace struct {
	Email string

	mu          sync.Mutex
	sessions    []*models.ChatSession
	preferences []string
	profile     models.Profile
	dirty       bool
}

func newWorkspace(email string, sessions []*models.ChatSession, preferences []string) *Workspace {
	if sessions == nil {
		sessions = []*models.ChatSession{}
	}
	if preferences == nil {
		preferences = []string{}
	}
	return &Workspace{Email: email, sessions: sessions, preferences: preferences}
}

func (w *Workspace) IsGuest() bool {
	return w.Email == ""
}

// Dirty reports whether the last save failed.
func (w *Workspace) Dirty() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dirty
}

func (w *Workspace) indexOf(id string) int {
	for i, s := range w.sessions {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// insert puts a new session at the top of the list.
func (w *Workspace) insert(s *models.ChatSession) {
	w.sessions = append([]*models.ChatSession{s}, w.sessions...)
}

// Summaries lists sessions newest first.
func (w *Workspace) Summaries() []models.SessionSummary {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]models.SessionSummary, len(w.sessions))
	for i, s := range w.sessions {
		out[i] = models.SessionSummary{
			ID:           s.ID,
			Index:        i,
			Title:        s.Title,
			MessageCount: len(s.Messages),
			HasItinerary: s.Itinerary != nil && *s.Itinerary != "",
			HasMap:       s.Route != nil && s.Route.MapHTML != "",
			UpdatedAt:    s.UpdatedAt,
		}
	}
	return out
}

// Session returns a copy of the session with the given id.
func (w *Workspace) Session(id string) (*models.ChatSession, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	i := w.indexOf(id)
	if i < 0 {
		return nil, ErrSessionNotFound
	}
	return w.sessions[i].Clone(), nil
}

// commit replaces the stored session with the turn's copy. It reports false
// when the session was deleted while the turn ran.
func (w *Workspace) commit(s *models.ChatSession) bool {
	i := w.indexOf(s.ID)
	if i < 0 {
		return false
	}
	s.UpdatedAt = time.Now()
	w.sessions[i] = s
	return true
}

func (w *Workspace) Preferences() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string{}, w.preferences...)
}

func (w *Workspace) Profile() models.Profile {
	w.mu.Lock()
	defer w.mu.Unlock()
	p := w.profile
	p.TravelStyles = append([]string{}, w.profile.TravelStyles...)
	return p
}

func (w *Workspace) SetProfile(p models.Profile) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.profile = p
}

func newToken() string {
	return uuid.NewString()
}
