package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	red "github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*red.Client, *miniredis.Miniredis) {
	t.Helper()

	server, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := red.NewClient(&red.Options{Addr: server.Addr()})

	t.Cleanup(func() {
		_ = client.Close()
		server.Close()
	})

	return client, server
}

func TestDenylist_RevokeAndCheck(t *testing.T) {
	client, server := newTestRedis(t)
	d := NewDenylist(client, "")
	ctx := context.Background()

	revoked, err := d.IsRevoked(ctx, "jti-1")
	if err != nil {
		t.Fatalf("IsRevoked returned error: %v", err)
	}
	if revoked {
		t.Fatalf("expected fresh jti not to be revoked")
	}

	if err := d.Revoke(ctx, "jti-1", time.Now().Add(2*time.Minute)); err != nil {
		t.Fatalf("Revoke returned error: %v", err)
	}

	revoked, err = d.IsRevoked(ctx, "jti-1")
	if err != nil {
		t.Fatalf("IsRevoked returned error: %v", err)
	}
	if !revoked {
		t.Fatalf("expected jti to be revoked")
	}

	remaining := server.TTL("attendance:revoked:jti-1")
	if remaining <= 0 || remaining > 2*time.Minute {
		t.Fatalf("expected ttl within (0, 2m], got %v", remaining)
	}

	// Once the token would have expired, the entry is gone.
	server.FastForward(3 * time.Minute)
	revoked, _ = d.IsRevoked(ctx, "jti-1")
	if revoked {
		t.Fatalf("expected entry to expire with the token")
	}
}

func TestDenylist_ExpiredTokenSkipsWrite(t *testing.T) {
	client, server := newTestRedis(t)
	d := NewDenylist(client, "custom")

	if err := d.Revoke(context.Background(), "old", time.Now().Add(-time.Second)); err != nil {
		t.Fatalf("Revoke returned error: %v", err)
	}
	if server.Exists("custom:old") {
		t.Fatalf("expected no key for an already expired token")
	}
}

func TestDenylist_EmptyTokenID(t *testing.T) {
	client, _ := newTestRedis(t)
	d := NewDenylist(client, "")

	if err := d.Revoke(context.Background(), "  ", time.Now().Add(time.Minute)); err == nil {
		t.Fatalf("expected error for empty token id")
	}
	if _, err := d.IsRevoked(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty token id")
	}
}

func TestConnect(t *testing.T) {
	_, server := newTestRedis(t)

	client, err := Connect(context.Background(), server.Addr(), "", 0)
	if err != nil {
		t.Fatalf("Connect returned error: %v", err)
	}
	_ = client.Close()
}

func TestConnect_StoppedServer(t *testing.T) {
	server, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	addr := server.Addr()
	server.Close()

	if _, err := Connect(context.Background(), addr, "", 0); err == nil {
		t.Fatalf("expected Connect to fail against a stopped server at %s", addr)
	}
}
