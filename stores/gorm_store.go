package stores

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/Desarso/tripagent/models"
)

var storeLogger = log.New(os.Stdout, "[STORE] ", log.LstdFlags)

// gormStore holds the operations shared by the SQL drivers.
type gormStore struct {
	db     *gorm.DB
	traces *GORMTraceStore
}

func (s *gormStore) migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&User{}, &ChatRecord{}); err != nil {
		return fmt.Errorf("failed to migrate database schema: %w", err)
	}
	traces, err := NewGORMTraceStore(db)
	if err != nil {
		return err
	}
	s.db = db
	s.traces = traces
	return nil
}

// Close closes the database connection
func (s *gormStore) Close() error {
	if s.db != nil {
		sqlDB, err := s.db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}

// Ping checks if the database connection is alive
func (s *gormStore) Ping() error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func (s *gormStore) Traces() TraceStore {
	return s.traces
}

func (s *gormStore) findUser(db *gorm.DB, email string) (*User, error) {
	var user User
	err := db.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user %s: %w", email, err)
	}
	return &user, nil
}

func (u *User) profile() *models.UserProfile {
	return &models.UserProfile{
		Email:       u.Email,
		Preferences: decodeTags(u.PreferencesJSON),
		CreatedAt:   u.CreatedAt,
	}
}

func (s *gormStore) CreateUser(email, password string, preferences []string) error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	var count int64
	if err := s.db.Model(&User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check for user %s: %w", email, err)
	}
	if count > 0 {
		return ErrUserExists
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	user := User{Email: email, PasswordHash: hash, PreferencesJSON: encodeTags(lo.Uniq(preferences))}
	if err := s.db.Create(&user).Error; err != nil {
		return fmt.Errorf("failed to create user %s: %w", email, err)
	}
	storeLogger.Printf("created user %s", email)
	return nil
}

func (s *gormStore) AuthenticateUser(email, password string) (*models.UserProfile, error) {
	user, err := s.findUser(s.db, email)
	if err != nil {
		return nil, err
	}
	if !CheckPassword(user.PasswordHash, password) {
		return nil, ErrWrongPassword
	}
	return user.profile(), nil
}

func (s *gormStore) GetUser(email string) (*models.UserProfile, error) {
	user, err := s.findUser(s.db, email)
	if err != nil {
		return nil, err
	}
	return user.profile(), nil
}

// UpdatePreferences overwrites the tag set. It is the only way tags shrink.
func (s *gormStore) UpdatePreferences(email string, preferences []string) error {
	res := s.db.Model(&User{}).Where("email = ?", email).Update("preferences_json", encodeTags(lo.Uniq(preferences)))
	if res.Error != nil {
		return fmt.Errorf("failed to update preferences for %s: %w", email, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// MergePreferences unions tags into the stored set and returns the result.
func (s *gormStore) MergePreferences(email string, tags []string) ([]string, error) {
	var merged []string
	err := s.db.Transaction(func(tx *gorm.DB) error {
		user, err := s.findUser(tx, email)
		if err != nil {
			return err
		}
		merged = lo.Union(decodeTags(user.PreferencesJSON), tags)
		return tx.Model(user).Update("preferences_json", encodeTags(merged)).Error
	})
	if err != nil {
		return nil, err
	}
	return merged, nil
}

// SaveHistory deletes every stored session of the user and inserts the list
// in order, in one transaction. A successful save clears the legacy field.
func (s *gormStore) SaveHistory(email string, sessions []*models.ChatSession) error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	records := make([]ChatRecord, 0, len(sessions))
	for i, sess := range sessions {
		rec, err := toRecord(email, sess, i)
		if err != nil {
			return err
		}
		records = append(records, rec)
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	if err := tx.Unscoped().Where("user_email = ?", email).Delete(&ChatRecord{}).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to clear history for %s: %w", email, err)
	}
	if len(records) > 0 {
		if err := tx.Create(&records).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to save history for %s: %w", email, err)
		}
	}
	if err := tx.Model(&User{}).Where("email = ?", email).Update("legacy_history", "").Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to clear legacy history for %s: %w", email, err)
	}
	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit history for %s: %w", email, err)
	}
	storeLogger.Printf("saved %d chats for %s", len(records), email)
	return nil
}

// LoadHistory returns the sessions ordered by their index. Records without a
// conversation are skipped. An empty collection falls back to the legacy field.
func (s *gormStore) LoadHistory(email string) ([]*models.ChatSession, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	var records []ChatRecord
	if err := s.db.Where("user_email = ?", email).Order("order_index ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to load history for %s: %w", email, err)
	}

	sessions := make([]*models.ChatSession, 0, len(records))
	for _, rec := range records {
		if rec.MessagesJSON == "" {
			continue
		}
		sess, err := rec.toSession()
		if err != nil {
			storeLogger.Printf("skipping unreadable chat %d of %s: %v", rec.OrderIndex, email, err)
			continue
		}
		sessions = append(sessions, sess)
	}
	if len(sessions) > 0 {
		return sessions, nil
	}

	user, err := s.findUser(s.db, email)
	if errors.Is(err, ErrUserNotFound) {
		return sessions, nil
	}
	if err != nil {
		return nil, err
	}
	if user.LegacyHistory == "" {
		return sessions, nil
	}
	storeLogger.Printf("migrating legacy history for %s", email)
	return decodeLegacy(user.LegacyHistory)
}
