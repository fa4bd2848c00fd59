package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/MehvishSheikh/attendance-webapp/internal/repository"
)

var _ repository.TokenDenylist = (*DB)(nil)

// Revoke records tokenID as logged out. Rows past their expiry are pruned
// on the way, since an expired token is rejected by signature checks anyway.
func (db *DB) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if _, err := db.conn.ExecContext(ctx,
		`DELETE FROM revoked_tokens WHERE expires_at <= ?`, time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("sqlite: pruning revoked tokens: %w", err)
	}

	if _, err := db.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO revoked_tokens (token_id, expires_at) VALUES (?, ?)`,
		tokenID, expiresAt.UTC(),
	); err != nil {
		return fmt.Errorf("sqlite: revoking token %s: %w", tokenID, err)
	}
	return nil
}

func (db *DB) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	var count int
	if err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM revoked_tokens WHERE token_id = ?`, tokenID,
	).Scan(&count); err != nil {
		return false, fmt.Errorf("sqlite: checking token %s: %w", tokenID, err)
	}
	return count > 0, nil
}
