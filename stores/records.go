package stores

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Desarso/tripagent/models"
)

// sessionDoc is the stored shape of a session. The field names follow the
// document layout shared with the Firestore collection and the legacy field.
type sessionDoc struct {
	SessionID  string           `json:"session_id,omitempty" firestore:"session_id,omitempty"`
	Title      string           `json:"title" firestore:"title"`
	Messages   []models.Message `json:"messages" firestore:"messages"`
	Itinerary  *string          `json:"itinerary_content" firestore:"itinerary_content"`
	MapHTML    *string          `json:"map_html" firestore:"map_html"`
	Traffic    *string          `json:"traffic_data" firestore:"traffic_data"`
	OrderIndex int              `json:"order_index" firestore:"order_index"`
	UpdatedAt  time.Time        `json:"updated_at" firestore:"updated_at"`
}

func toDoc(s *models.ChatSession, index int) sessionDoc {
	doc := sessionDoc{
		SessionID:  s.ID,
		Title:      s.Title,
		Messages:   s.Messages,
		Itinerary:  s.Itinerary,
		OrderIndex: index,
		UpdatedAt:  s.UpdatedAt,
	}
	if doc.Title == "" {
		doc.Title = models.DefaultSessionTitle
	}
	if doc.Messages == nil {
		doc.Messages = []models.Message{}
	}
	if s.Route != nil {
		mapHTML, traffic := s.Route.MapHTML, s.Route.Traffic
		doc.MapHTML = &mapHTML
		doc.Traffic = &traffic
	}
	return doc
}

func (d sessionDoc) toSession() *models.ChatSession {
	s := &models.ChatSession{
		ID:        d.SessionID,
		Title:     d.Title,
		Messages:  d.Messages,
		Itinerary: d.Itinerary,
		UpdatedAt: d.UpdatedAt,
	}
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.Title == "" {
		s.Title = models.DefaultSessionTitle
	}
	if d.MapHTML != nil || d.Traffic != nil {
		s.Route = &models.RouteArtifact{}
		if d.MapHTML != nil {
			s.Route.MapHTML = *d.MapHTML
		}
		if d.Traffic != nil {
			s.Route.Traffic = *d.Traffic
		}
	}
	return s
}

func toRecord(email string, s *models.ChatSession, index int) (ChatRecord, error) {
	doc := toDoc(s, index)
	messagesJSON, err := json.Marshal(doc.Messages)
	if err != nil {
		return ChatRecord{}, fmt.Errorf("failed to marshal messages for session %s: %w", s.ID, err)
	}
	return ChatRecord{
		UserEmail:    email,
		OrderIndex:   index,
		SessionID:    doc.SessionID,
		Title:        doc.Title,
		MessagesJSON: string(messagesJSON),
		Itinerary:    doc.Itinerary,
		MapHTML:      doc.MapHTML,
		Traffic:      doc.Traffic,
		LastActive:   doc.UpdatedAt,
	}, nil
}

func (r ChatRecord) toSession() (*models.ChatSession, error) {
	var msgs []models.Message
	if err := json.Unmarshal([]byte(r.MessagesJSON), &msgs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal messages for session %s: %w", r.SessionID, err)
	}
	return sessionDoc{
		SessionID:  r.SessionID,
		Title:      r.Title,
		Messages:   msgs,
		Itinerary:  r.Itinerary,
		MapHTML:    r.MapHTML,
		Traffic:    r.Traffic,
		OrderIndex: r.OrderIndex,
		UpdatedAt:  r.LastActive,
	}.toSession(), nil
}

// decodeLegacy reads the single-field history format.
func decodeLegacy(raw string) ([]*models.ChatSession, error) {
	var docs []sessionDoc
	if err := json.Unmarshal([]byte(raw), &docs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal legacy history: %w", err)
	}
	out := make([]*models.ChatSession, 0, len(docs))
	for _, d := range docs {
		if d.Messages == nil {
			continue
		}
		out = append(out, d.toSession())
	}
	return out, nil
}

func encodeTags(tags []string) string {
	if tags == nil {
		tags = []string{}
	}
	b, _ := json.Marshal(tags)
	return string(b)
}

func decodeTags(raw string) []string {
	tags := []string{}
	if raw == "" {
		return tags
	}
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return []string{}
	}
	return tags
}
