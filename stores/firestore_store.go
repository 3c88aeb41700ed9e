package stores

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/samber/lo"
	"google.golang.org/api/iterator"

	"github.com/Desarso/tripagent/models"
)

// FirestoreStore keeps users at users/{email} and their sessions in the
// users/{email}/chats sub-collection, one chat_{i} document per session.
type FirestoreStore struct {
	client    *firestore.Client
	projectID string
	timeout   time.Duration
}

type userDoc struct {
	Email       string    `firestore:"email"`
	Password    string    `firestore:"password"`
	Preferences []string  `firestore:"preferences"`
	CreatedAt   time.Time `firestore:"created_at,serverTimestamp"`
}

type legacyDoc struct {
	ChatHistory []sessionDoc `firestore:"chat_history"`
}

// NewFirestoreStore creates a store for the project named by the connection.
func NewFirestoreStore(config *StoreConfig) (*FirestoreStore, error) {
	if config.Type != "firestore" {
		return nil, fmt.Errorf("invalid store type for Firestore store: %s", config.Type)
	}
	store := &FirestoreStore{
		projectID: config.Connection,
		timeout:   30 * time.Second,
	}
	if v, ok := config.Options["timeout"]; ok {
		if d, err := time.ParseDuration(v); err == nil {
			store.timeout = d
		}
	}
	if err := store.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to Firestore: %w", err)
	}
	return store, nil
}

func (s *FirestoreStore) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

func (s *FirestoreStore) Connect() error {
	projectID := s.projectID
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}
	ctx, cancel := s.ctx()
	defer cancel()
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return fmt.Errorf("failed to create Firestore client: %w", err)
	}
	s.client = client
	return nil
}

func (s *FirestoreStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

func (s *FirestoreStore) Ping() error {
	if s.client == nil {
		return fmt.Errorf("firestore client is nil")
	}
	ctx, cancel := s.ctx()
	defer cancel()
	iter := s.client.Collection("users").Limit(1).Documents(ctx)
	defer iter.Stop()
	if _, err := iter.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return err
	}
	return nil
}

func (s *FirestoreStore) userRef(email string) *firestore.DocumentRef {
	return s.client.Collection("users").Doc(email)
}

func (s *FirestoreStore) chats(email string) *firestore.CollectionRef {
	return s.userRef(email).Collection("chats")
}

// getUser returns ErrUserNotFound for a missing document. Get hands back a
// non-nil snapshot with Exists false in that case.
func getUser(snap *firestore.DocumentSnapshot, err error) (*userDoc, error) {
	if snap != nil && !snap.Exists() {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	var u userDoc
	if err := snap.DataTo(&u); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	if u.Preferences == nil {
		u.Preferences = []string{}
	}
	return &u, nil
}

func (u *userDoc) profile() *models.UserProfile {
	return &models.UserProfile{Email: u.Email, Preferences: u.Preferences, CreatedAt: u.CreatedAt}
}

func (s *FirestoreStore) CreateUser(email, password string, preferences []string) error {
	ctx, cancel := s.ctx()
	defer cancel()
	ref := s.userRef(email)
	if snap, _ := ref.Get(ctx); snap != nil && snap.Exists() {
		return ErrUserExists
	}
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	if preferences == nil {
		preferences = []string{}
	}
	if _, err := ref.Set(ctx, userDoc{Email: email, Password: hash, Preferences: lo.Uniq(preferences)}); err != nil {
		return fmt.Errorf("failed to create user %s: %w", email, err)
	}
	return nil
}

func (s *FirestoreStore) AuthenticateUser(email, password string) (*models.UserProfile, error) {
	ctx, cancel := s.ctx()
	defer cancel()
	u, err := getUser(s.userRef(email).Get(ctx))
	if err != nil {
		return nil, err
	}
	if !CheckPassword(u.Password, password) {
		return nil, ErrWrongPassword
	}
	return u.profile(), nil
}

func (s *FirestoreStore) GetUser(email string) (*models.UserProfile, error) {
	ctx, cancel := s.ctx()
	defer cancel()
	u, err := getUser(s.userRef(email).Get(ctx))
	if err != nil {
		return nil, err
	}
	return u.profile(), nil
}

func (s *FirestoreStore) UpdatePreferences(email string, preferences []string) error {
	if _, err := s.GetUser(email); err != nil {
		return err
	}
	ctx, cancel := s.ctx()
	defer cancel()
	if preferences == nil {
		preferences = []string{}
	}
	_, err := s.userRef(email).Update(ctx, []firestore.Update{{Path: "preferences", Value: lo.Uniq(preferences)}})
	if err != nil {
		return fmt.Errorf("failed to update preferences for %s: %w", email, err)
	}
	return nil
}

func (s *FirestoreStore) MergePreferences(email string, tags []string) ([]string, error) {
	ctx, cancel := s.ctx()
	defer cancel()
	ref := s.userRef(email)
	var merged []string
	err := s.client.RunTransaction(ctx, func(_ context.Context, t *firestore.Transaction) error {
		u, err := getUser(t.Get(ref))
		if err != nil {
			return err
		}
		merged = lo.Union(u.Preferences, tags)
		return t.Update(ref, []firestore.Update{{Path: "preferences", Value: merged}})
	})
	if err != nil {
		return nil, err
	}
	return merged, nil
}

// SaveHistory rewrites the chats sub-collection in one transaction and drops
// the legacy chat_history field.
func (s *FirestoreStore) SaveHistory(email string, sessions []*models.ChatSession) error {
	ctx, cancel := s.ctx()
	defer cancel()
	col := s.chats(email)
	err := s.client.RunTransaction(ctx, func(_ context.Context, t *firestore.Transaction) error {
		existing, err := t.Documents(col).GetAll()
		if err != nil {
			return fmt.Errorf("failed to list chats: %w", err)
		}
		keep := make(map[string]bool, len(sessions))
		for i := range sessions {
			keep[chatDocID(i)] = true
		}
		for _, doc := range existing {
			if keep[doc.Ref.ID] {
				continue
			}
			if err := t.Delete(doc.Ref); err != nil {
				return err
			}
		}
		for i, sess := range sessions {
			if err := t.Set(col.Doc(chatDocID(i)), toDoc(sess, i)); err != nil {
				return err
			}
		}
		return t.Update(s.userRef(email), []firestore.Update{{Path: "chat_history", Value: firestore.Delete}})
	})
	if err != nil {
		return fmt.Errorf("failed to save history for %s: %w", email, err)
	}
	storeLogger.Printf("saved %d chats to subcollection for %s", len(sessions), email)
	return nil
}

func chatDocID(i int) string {
	return fmt.Sprintf("chat_%d", i)
}

func (s *FirestoreStore) LoadHistory(email string) ([]*models.ChatSession, error) {
	ctx, cancel := s.ctx()
	defer cancel()
	iter := s.chats(email).Documents(ctx)
	defer iter.Stop()

	var docs []sessionDoc
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load chats for %s: %w", email, err)
		}
		if _, ok := doc.Data()["messages"]; !ok {
			continue
		}
		var d sessionDoc
		if err := doc.DataTo(&d); err != nil {
			storeLogger.Printf("skipping unreadable chat %s of %s: %v", doc.Ref.ID, email, err)
			continue
		}
		docs = append(docs, d)
	}
	sort.SliceStable(docs, func(i, j int) bool { return docs[i].OrderIndex < docs[j].OrderIndex })

	sessions := make([]*models.ChatSession, 0, len(docs))
	for _, d := range docs {
		sessions = append(sessions, d.toSession())
	}
	if len(sessions) > 0 {
		return sessions, nil
	}

	snap, err := s.userRef(email).Get(ctx)
	if snap == nil || !snap.Exists() {
		return sessions, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user %s: %w", email, err)
	}
	if _, ok := snap.Data()["chat_history"]; !ok {
		return sessions, nil
	}
	var legacy legacyDoc
	if err := snap.DataTo(&legacy); err != nil {
		return nil, fmt.Errorf("failed to decode legacy history for %s: %w", email, err)
	}
	storeLogger.Printf("migrating legacy history for %s", email)
	for _, d := range legacy.ChatHistory {
		if d.Messages != nil {
			sessions = append(sessions, d.toSession())
		}
	}
	return sessions, nil
}
