package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/intbank/portal/internal/core/domain"
)

const (
	collectionSessions = "portal_sessions"
	DefaultSessionKey  = "portal:session:default"
)

// SessionStore keeps token and role in one document, so every write and
// delete is atomic without a transaction.
type SessionStore struct {
	col *mongo.Collection
	key string
}

type sessionDocument struct {
	Key       string    `bson:"_id"`
	Token     string    `bson:"token"`
	Role      string    `bson:"role"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// NewSessionStore stores the session under key. An empty key selects
// DefaultSessionKey.
func NewSessionStore(db *mongo.Database, key string) *SessionStore {
	if key == "" {
		key = DefaultSessionKey
	}
	return &SessionStore{col: db.Collection(collectionSessions), key: key}
}

func (s *SessionStore) Load(ctx context.Context) (domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc sessionDocument
	if err := s.col.FindOne(ctx, bson.M{"_id": s.key}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Session{}, nil
		}
		return domain.Session{}, fmt.Errorf("load session: %w", err)
	}
	return doc.session(), nil
}

// session returns the stored pair, or a zero Session when either half is
// missing.
func (d sessionDocument) session() domain.Session {
	if d.Token == "" || d.Role == "" {
		return domain.Session{}
	}
	return domain.Session{Token: d.Token, Role: domain.Role(d.Role)}
}

func (s *SessionStore) Save(ctx context.Context, sess domain.Session) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := sessionDocument{
		Key:       s.key,
		Token:     sess.Token,
		Role:      string(sess.Role),
		UpdatedAt: time.Now().UTC(),
	}
	_, err := s.col.ReplaceOne(ctx, bson.M{"_id": s.key}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *SessionStore) Clear(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := s.col.DeleteOne(ctx, bson.M{"_id": s.key}); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
