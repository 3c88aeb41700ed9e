package models

import (
	"time"
	"unicode/utf8"
)

const (
	DefaultSessionTitle = "New Chat"
	Greeting            = "Hello! I am your Autonomous AI Agent. Where are we going today?"
	titleRunes          = 15
)

// PlaceCoordinate is a resolved place. It only lives inside route building.
type PlaceCoordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name"`
}

// TravelTimes holds the per-mode durations between two points. An empty
// duration means the mode could not be resolved.
type TravelTimes struct {
	Drive        string   `json:"drive,omitempty"`
	Transit      string   `json:"transit,omitempty"`
	TransitLines []string `json:"transit_lines,omitempty"`
	Walk         string   `json:"walk,omitempty"`
}

// Leg is one consecutive pair of route stops.
type Leg struct {
	From  string      `json:"from"`
	To    string      `json:"to"`
	Times TravelTimes `json:"times"`
}

// RouteArtifact is the rendered map plus the per-leg traffic summary. Only the
// rendering and summary are persisted; Points and Legs are empty on a
// restored artifact.
type RouteArtifact struct {
	Points  []PlaceCoordinate `json:"points,omitempty"`
	Legs    []Leg             `json:"legs,omitempty"`
	Skipped []string          `json:"skipped,omitempty"`
	MapHTML string            `json:"map_html"`
	Traffic string            `json:"traffic"`
}

// ChatSession is one conversation thread with its itinerary and route.
type ChatSession struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Messages  []Message      `json:"messages"`
	Itinerary *string        `json:"itinerary_content,omitempty"`
	Route     *RouteArtifact `json:"route,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// NewChatSession starts a conversation with the policy and the greeting.
func NewChatSession(id, systemPolicy string) *ChatSession {
	return &ChatSession{
		ID:        id,
		Title:     DefaultSessionTitle,
		Messages:  []Message{SystemMessage(systemPolicy), AssistantMessage(Greeting)},
		UpdatedAt: time.Now(),
	}
}

// NeedsResume reports whether a turn was suspended mid-flight: the last
// message is a tool result the model has not seen yet.
func (s *ChatSession) NeedsResume() bool {
	return len(s.Messages) > 0 && s.Messages[len(s.Messages)-1].Role == RoleTool
}

// SetSystem replaces (or inserts) the leading system message.
func (s *ChatSession) SetSystem(text string) {
	if len(s.Messages) > 0 && s.Messages[0].Role == RoleSystem {
		s.Messages[0] = SystemMessage(text)
		return
	}
	s.Messages = append([]Message{SystemMessage(text)}, s.Messages...)
}

// RefreshTitle derives the title from the first user message.
func (s *ChatSession) RefreshTitle() {
	for _, m := range s.Messages {
		if m.Role == RoleUser {
			s.Title = TitleFrom(m.Text())
			return
		}
	}
	if s.Title == "" {
		s.Title = DefaultSessionTitle
	}
}

// TitleFrom truncates text to the first 15 runes and appends "...".
func TitleFrom(text string) string {
	if utf8.RuneCountInString(text) > titleRunes {
		text = string([]rune(text)[:titleRunes])
	}
	return text + "..."
}

// Profile is the traveler configuration injected into the system message
// before each turn.
type Profile struct {
	GroupSize    int      `json:"group_size"`
	TravelStyles []string `json:"travel_styles"`
}

// UserProfile is an account with its preference tags.
type UserProfile struct {
	Email       string    `json:"email"`
	Preferences []string  `json:"preferences"`
	CreatedAt   time.Time `json:"created_at"`
}

// Clone returns a copy a turn can mutate without touching the original.
// Message contents are shared; slices are not.
func (s *ChatSession) Clone() *ChatSession {
	c := *s
	c.Messages = append([]Message(nil), s.Messages...)
	if s.Itinerary != nil {
		text := *s.Itinerary
		c.Itinerary = &text
	}
	if s.Route != nil {
		route := *s.Route
		c.Route = &route
	}
	return &c
}
