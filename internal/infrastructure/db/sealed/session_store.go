// Package sealed encrypts the session token before it reaches another
// SessionStore. The role is stored as is.
package sealed

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"

	"github.com/intbank/portal/internal/core/domain"
	"github.com/intbank/portal/internal/core/ports"
)

const nonceSize = 24

// ErrUnsealable is returned by Load when the stored token was sealed with a
// different secret or was modified.
var ErrUnsealable = errors.New("stored session token cannot be opened")

type SessionStore struct {
	inner ports.SessionStore
	key   [32]byte
}

var _ ports.SessionStore = (*SessionStore)(nil)

// NewSessionStore derives the secretbox key from secret.
func NewSessionStore(inner ports.SessionStore, secret string) (*SessionStore, error) {
	if secret == "" {
		return nil, errors.New("sealed session store: empty secret")
	}
	return &SessionStore{inner: inner, key: sha256.Sum256([]byte(secret))}, nil
}

func (s *SessionStore) Load(ctx context.Context) (domain.Session, error) {
	sess, err := s.inner.Load(ctx)
	if err != nil || sess.Token == "" {
		return sess, err
	}
	token, err := s.open(sess.Token)
	if err != nil {
		return domain.Session{}, err
	}
	sess.Token = token
	return sess, nil
}

func (s *SessionStore) Save(ctx context.Context, sess domain.Session) error {
	sealed, err := s.seal(sess.Token)
	if err != nil {
		return err
	}
	sess.Token = sealed
	return s.inner.Save(ctx, sess)
}

func (s *SessionStore) Clear(ctx context.Context) error {
	return s.inner.Clear(ctx)
}

func (s *SessionStore) seal(token string) (string, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("seal session token: %w", err)
	}
	box := secretbox.Seal(nonce[:], []byte(token), &nonce, &s.key)
	return base64.RawURLEncoding.EncodeToString(box), nil
}

func (s *SessionStore) open(sealed string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil || len(raw) < nonceSize+secretbox.Overhead {
		return "", ErrUnsealable
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", ErrUnsealable
	}
	return string(plain), nil
}
