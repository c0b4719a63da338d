// Package session persists per-user generation state between jobs.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"ghostwriter-workers/internal/common/clock"
	"ghostwriter-workers/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "ghostwriter:session:"
	DefaultTTL = 24 * time.Hour
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNoContent       = errors.New("no content to work on")
)

type Store interface {
	Get(ctx context.Context, id string) (*models.Session, error)
	Save(ctx context.Context, s *models.Session) error
	Delete(ctx context.Context, id string) error
}

// RedisStore keeps sessions as JSON documents. Every save refreshes the TTL.
type RedisStore struct {
	redis redis.Cmdable
	ttl   time.Duration
}

func NewRedisStore(rdb redis.Cmdable, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{redis: rdb, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, id string) (*models.Session, error) {
	data, err := s.redis.Get(ctx, Key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}

	var sess models.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &sess, nil
}

func (s *RedisStore) Save(ctx context.Context, sess *models.Session) error {
	if sess == nil || sess.ID == "" {
		return errors.New("session id is required")
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", sess.ID, err)
	}
	if err := s.redis.Set(ctx, Key(sess.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session %s: %w", sess.ID, err)
	}
	return nil
}

// Delete is idempotent.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.redis.Del(ctx, Key(id)).Err(); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

func Key(id string) string {
	return keyPrefix + id
}

// LoadOrCreate returns the stored session for id, or a new unsaved session when
// id is empty or unknown. A new session gets a fresh id when none was given.
func LoadOrCreate(ctx context.Context, store Store, id string, clk clock.Clock) (*models.Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return models.NewSession(uuid.NewString(), clk.Now().UTC()), nil
	}

	sess, err := store.Get(ctx, id)
	if errors.Is(err, ErrSessionNotFound) {
		return models.NewSession(id, clk.Now().UTC()), nil
	}
	return sess, err
}

// ResolveContent picks the text a job works on. Explicit content wins; otherwise
// the session's latest text is used. The session is returned whenever id names
// a stored one, so callers can record follow-up changes on it.
func ResolveContent(ctx context.Context, store Store, id, content string) (string, *models.Session, error) {
	id = strings.TrimSpace(id)

	var sess *models.Session
	if id != "" {
		s, err := store.Get(ctx, id)
		switch {
		case err == nil:
			sess = s
		case errors.Is(err, ErrSessionNotFound):
			if strings.TrimSpace(content) == "" {
				return "", nil, err
			}
		default:
			return "", nil, err
		}
	}

	if strings.TrimSpace(content) != "" {
		return content, sess, nil
	}
	if sess == nil || !sess.HasContent() {
		return "", sess, ErrNoContent
	}
	return sess.GeneratedText, sess, nil
}
