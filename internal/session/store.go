// Package session provides Redis-backed admin sessions and the
// authentication middleware.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bomcorte/blackfriday/internal/model"
)

// ErrNotFound is returned for missing or expired sessions.
var ErrNotFound = errors.New("session not found")

const (
	// TTL is the session lifetime.
	TTL = 24 * time.Hour

	keyPrefix = "session:v1:"
)

// Session is an authenticated admin user, cached in Redis so it
// survives server restarts.
type Session struct {
	ID        string     `json:"id"`
	UserID    int64      `json:"user_id"`
	Email     string     `json:"email"`
	Role      model.Role `json:"role"`
	CreatedAt time.Time  `json:"created_at"`
}

// Store persists sessions in Redis.
type Store struct {
	rdb *redis.Client
}

// NewStore creates a session store. Returns error if rdb is nil.
func NewStore(rdb *redis.Client) (*Store, error) {
	if rdb == nil {
		return nil, errors.New("redis client is required")
	}
	return &Store{rdb: rdb}, nil
}

// Create opens a new session for the user and returns it.
func (s *Store) Create(ctx context.Context, user *model.User) (*Session, error) {
	id, err := generateID()
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}

	sess := &Session{
		ID:        id,
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: time.Now().UTC(),
	}

	raw, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}
	if err := s.rdb.Set(ctx, keyPrefix+id, raw, TTL).Err(); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return sess, nil
}

// Get returns the session for id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	raw, err := s.rdb.Get(ctx, keyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

// Delete removes a session. Deleting an unknown id is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.rdb.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func generateID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
