// Package redis provides a Redis-backed token denylist for deployments that
// run more than one server process against shared state.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/MehvishSheikh/attendance-webapp/internal/repository"
)

const defaultPrefix = "attendance:revoked"

// Denylist stores revoked token ids as keys that expire with the token.
type Denylist struct {
	client *red.Client
	prefix string
}

var _ repository.TokenDenylist = (*Denylist)(nil)

// NewDenylist wires a Redis client into a denylist. An empty prefix falls
// back to "attendance:revoked".
func NewDenylist(client *red.Client, keyPrefix string) *Denylist {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Denylist{client: client, prefix: prefix}
}

// Revoke marks tokenID as revoked until expiresAt. A token that has already
// expired needs no entry.
func (d *Denylist) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	key := d.key(tokenID)
	if key == "" {
		return errors.New("token id must not be empty")
	}

	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}

	if err := d.client.Set(ctx, key, "logout", ttl).Err(); err != nil {
		return fmt.Errorf("redis set revoked token: %w", err)
	}
	return nil
}

func (d *Denylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	key := d.key(tokenID)
	if key == "" {
		return false, errors.New("token id must not be empty")
	}

	n, err := d.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists revoked token: %w", err)
	}
	return n > 0, nil
}

func (d *Denylist) key(tokenID string) string {
	trimmed := strings.TrimSpace(tokenID)
	if trimmed == "" {
		return ""
	}
	return d.prefix + ":" + trimmed
}

// Connect builds a client for addr and checks it with a ping.
func Connect(ctx context.Context, addr, password string, db int) (*red.Client, error) {
	client := red.NewClient(&red.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}
