package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"3tcapital/ducactl/internal/core/session"
)

const (
	defaultTimeout = 5 * time.Second
	keyPrefix      = "ducactl:session:"
)

// Config captures the settings for establishing a Redis connection.
type Config struct {
	Addr     string
	Password string
	DB       int
	Timeout  time.Duration
}

// Connect initialises a Redis client and validates connectivity with a ping.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return client, nil
}

// Store keeps one session per profile in a Redis hash, so several terminals share a login.
type Store struct {
	client redis.Cmdable
	key    string
	ttl    time.Duration
}

// NewStore creates a store for profile. A zero ttl keeps the session until logout.
func NewStore(client redis.Cmdable, profile string, ttl time.Duration) *Store {
	if profile == "" {
		profile = "default"
	}
	return &Store{client: client, key: keyPrefix + profile, ttl: ttl}
}

var _ session.Store = (*Store)(nil)

// Key returns the Redis key holding the session.
func (s *Store) Key() string {
	return s.key
}

func (s *Store) Load(ctx context.Context) (session.Session, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return session.Session{}, fmt.Errorf("load session: %w", err)
	}
	if len(fields) == 0 || fields["token"] == "" {
		return session.Session{}, session.ErrNoSession
	}

	sess := session.Session{
		Token: fields["token"],
		Role:  fields["role"],
		Email: fields["email"],
	}
	if raw := fields["created_at"]; raw != "" {
		created, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return session.Session{}, fmt.Errorf("decode session created_at: %w", err)
		}
		sess.CreatedAt = created
	}
	return sess, nil
}

func (s *Store) Save(ctx context.Context, sess session.Session) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key)
		pipe.HSet(ctx, s.key,
			"token", sess.Token,
			"role", sess.Role,
			"email", sess.Email,
			"created_at", sess.CreatedAt.UTC().Format(time.RFC3339Nano),
		)
		if s.ttl > 0 {
			pipe.Expire(ctx, s.key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
