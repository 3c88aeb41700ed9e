package stores

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Desarso/tripagent/models"
)

var (
	ErrUserExists    = errors.New("already registered")
	ErrUserNotFound  = errors.New("account not found")
	ErrWrongPassword = errors.New("wrong password")
)

// User is an account row. LegacyHistory holds the pre-collection format (a
// JSON array of sessions) until the first successful save clears it.
type User struct {
	gorm.Model
	Email           string `gorm:"uniqueIndex;not null"`
	PasswordHash    string `gorm:"not null"`
	PreferencesJSON string `gorm:"type:text"`
	LegacyHistory   string `gorm:"type:text"`
}

// ChatRecord is one session of a user's ordered history.
type ChatRecord struct {
	gorm.Model
	UserEmail    string  `gorm:"index:idx_chat_owner;not null"`
	OrderIndex   int     `gorm:"index:idx_chat_owner;not null"`
	SessionID    string  `gorm:"not null"`
	Title        string  `gorm:"type:text"`
	MessagesJSON string  `gorm:"type:text"` // empty means the record carries no conversation
	Itinerary    *string `gorm:"type:text"`
	MapHTML      *string `gorm:"type:text"`
	Traffic      *string `gorm:"type:text"`
	LastActive   time.Time
}

// SessionStore persists accounts and their ordered session history.
type SessionStore interface {
	// User operations
	CreateUser(email, password string, preferences []string) error
	AuthenticateUser(email, password string) (*models.UserProfile, error)
	GetUser(email string) (*models.UserProfile, error)
	UpdatePreferences(email string, preferences []string) error
	MergePreferences(email string, tags []string) ([]string, error)

	// History operations. SaveHistory replaces the whole list atomically.
	SaveHistory(email string, sessions []*models.ChatSession) error
	LoadHistory(email string) ([]*models.ChatSession, error)

	// Connection management
	Connect() error
	Close() error

	// Health check
	Ping() error
}

// TraceSource is implemented by stores that can record tool executions.
type TraceSource interface {
	Traces() TraceStore
}

// StoreConfig holds configuration for database stores
type StoreConfig struct {
	Type       string            `json:"type" toml:"type"`             // "sqlite", "postgres", "firestore"
	Connection string            `json:"connection" toml:"connection"` // DSN, file path or Firestore project
	Options    map[string]string `json:"options" toml:"options"`
}

// NewStoreConfig creates a new store configuration
func NewStoreConfig(storeType, connection string) *StoreConfig {
	return &StoreConfig{
		Type:       storeType,
		Connection: connection,
		Options:    make(map[string]string),
	}
}

// WithOption adds an option to the store configuration
func (c *StoreConfig) WithOption(key, value string) *StoreConfig {
	if c.Options == nil {
		c.Options = make(map[string]string)
	}
	c.Options[key] = value
	return c
}
