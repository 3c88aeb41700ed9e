package stores

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ToolTrace records one tool execution of a session's turn.
type ToolTrace struct {
	ID          uint           `gorm:"primarykey" json:"-"`
	CreatedAt   time.Time      `json:"created_at"`
	SessionID   string         `gorm:"index:idx_trace_session;not null" json:"session_id"`
	ToolCallID  string         `gorm:"index:idx_trace_session;index:idx_trace_call;not null" json:"tool_call_id"`
	Tool        string         `gorm:"not null" json:"tool"`
	Round       int            `json:"round"`
	DurationMS  int64          `json:"duration_ms"`
	ResultBytes int            `json:"result_bytes"`
	IsError     bool           `json:"is_error"`
	Suspended   bool           `json:"suspended"`
	ArgsJSON    string         `gorm:"type:text" json:"-"`
	Args        map[string]any `gorm:"-" json:"args,omitempty"`
}

func (ToolTrace) TableName() string {
	return "tool_traces"
}

// BeforeSave marshals Args to ArgsJSON
func (t *ToolTrace) BeforeSave(tx *gorm.DB) error {
	if t.Args != nil {
		data, err := json.Marshal(t.Args)
		if err != nil {
			return err
		}
		t.ArgsJSON = string(data)
	}
	return nil
}

// AfterFind unmarshals ArgsJSON to Args
func (t *ToolTrace) AfterFind(tx *gorm.DB) error {
	if t.ArgsJSON != "" {
		return json.Unmarshal([]byte(t.ArgsJSON), &t.Args)
	}
	return nil
}

// TraceStore interface for trace persistence operations
type TraceStore interface {
	SaveTrace(trace *ToolTrace) error
	GetTracesBySession(sessionID string) ([]*ToolTrace, error)
	GetTracesByToolCall(toolCallID string) ([]*ToolTrace, error)
	DeleteTracesBySession(sessionID string) error
}

// GORMTraceStore implements TraceStore for SQLite/PostgreSQL via GORM
type GORMTraceStore struct {
	db *gorm.DB
}

// NewGORMTraceStore creates a trace store from an existing GORM database connection
func NewGORMTraceStore(db *gorm.DB) (*GORMTraceStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	if err := db.AutoMigrate(&ToolTrace{}); err != nil {
		return nil, fmt.Errorf("failed to migrate tool_traces table: %w", err)
	}
	return &GORMTraceStore{db: db}, nil
}

func (s *GORMTraceStore) SaveTrace(trace *ToolTrace) error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	return s.db.Create(trace).Error
}

// GetTracesBySession retrieves all traces for a session in execution order
func (s *GORMTraceStore) GetTracesBySession(sessionID string) ([]*ToolTrace, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	var traces []*ToolTrace
	err := s.db.Where("session_id = ?", sessionID).Order("id ASC").Find(&traces).Error
	return traces, err
}

func (s *GORMTraceStore) GetTracesByToolCall(toolCallID string) ([]*ToolTrace, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	var traces []*ToolTrace
	err := s.db.Where("tool_call_id = ?", toolCallID).Order("id ASC").Find(&traces).Error
	return traces, err
}

// DeleteTracesBySession removes all traces for a session
func (s *GORMTraceStore) DeleteTracesBySession(sessionID string) error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	return s.db.Where("session_id = ?", sessionID).Delete(&ToolTrace{}).Error
}
