// Package cache keeps decoded exam definitions in Redis so repeated exam
// views and submits skip the JSON resolution step.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mind-engage/mindengage-academy/internal/exam"
)

const (
	PrefixExamDefinition = "exam:def:"

	DefaultTTL = 10 * time.Minute
)

type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Definitions implements exam.DefinitionCache.
type Definitions struct {
	client *redis.Client
	ttl    time.Duration
}

// Connect dials Redis and pings it once.
func Connect(ctx context.Context, cfg Config) (*Definitions, error) {
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 3 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 3 * time.Second
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   2,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cache: ping %s: %w", cfg.Addr, err)
	}
	return NewDefinitions(client, cfg.TTL), nil
}

func NewDefinitions(client *redis.Client, ttl time.Duration) *Definitions {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Definitions{client: client, ttl: ttl}
}

func definitionKey(courseID string) string {
	return PrefixExamDefinition + courseID
}

func (c *Definitions) GetDefinition(ctx context.Context, courseID string) (exam.Definition, bool, error) {
	data, err := c.client.Get(ctx, definitionKey(courseID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return exam.Definition{}, false, nil
	}
	if err != nil {
		return exam.Definition{}, false, fmt.Errorf("cache: get %s: %w", courseID, err)
	}
	var d exam.Definition
	if err := json.Unmarshal(data, &d); err != nil {
		// a stale encoding is treated as a miss and overwritten on the next load
		return exam.Definition{}, false, nil
	}
	return d, true, nil
}

func (c *Definitions) SetDefinition(ctx context.Context, d exam.Definition) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", d.CourseID, err)
	}
	if err := c.client.Set(ctx, definitionKey(d.CourseID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache: set %s: %w", d.CourseID, err)
	}
	return nil
}

func (c *Definitions) DeleteDefinition(ctx context.Context, courseID string) error {
	if err := c.client.Del(ctx, definitionKey(courseID)).Err(); err != nil {
		return fmt.Errorf("cache: delete %s: %w", courseID, err)
	}
	return nil
}

// Ping reports whether Redis is reachable. /readyz reports it as an optional check.
func (c *Definitions) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Definitions) Close() error {
	return c.client.Close()
}
