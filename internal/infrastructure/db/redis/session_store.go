package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/intbank/portal/internal/core/domain"
)

const (
	DefaultKeyPrefix = "portal:session:"

	tokenKey = "token"
	roleKey  = "role"
)

// SessionStore persists the session as two keys, <prefix>token and
// <prefix>role, written and deleted in one MULTI/EXEC transaction.
type SessionStore struct {
	client *redis.Client
	prefix string
}

// NewSessionStore wraps client. An empty prefix selects DefaultKeyPrefix.
func NewSessionStore(client *redis.Client, prefix string) *SessionStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &SessionStore{client: client, prefix: prefix}
}

// Load reads both keys at once. A session with only one key present is
// treated as absent.
func (s *SessionStore) Load(ctx context.Context) (domain.Session, error) {
	vals, err := s.client.MGet(ctx, s.key(tokenKey), s.key(roleKey)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Session{}, nil
		}
		return domain.Session{}, fmt.Errorf("load session: %w", err)
	}
	token, _ := vals[0].(string)
	role, _ := vals[1].(string)
	if token == "" || role == "" {
		return domain.Session{}, nil
	}
	return domain.Session{Token: token, Role: domain.Role(role)}, nil
}

func (s *SessionStore) Save(ctx context.Context, sess domain.Session) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(tokenKey), sess.Token, 0)
		pipe.Set(ctx, s.key(roleKey), string(sess.Role), 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *SessionStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key(tokenKey), s.key(roleKey)).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *SessionStore) key(name string) string {
	return s.prefix + name
}
