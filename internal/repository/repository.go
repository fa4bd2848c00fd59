// Package repository defines the storage contracts the services depend on.
// Concrete backends live in the sqlite and redis subpackages.
package repository

import (
	"context"
	"time"

	"github.com/MehvishSheikh/attendance-webapp/internal/model"
)

// UserRepository stores employee accounts.
type UserRepository interface {
	// CreateUser assigns user.ID and user.CreatedAt and inserts the row.
	// A duplicate email yields an apperror.ErrConflict with code email_taken.
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	// DeleteUser removes the user together with every attendance record and
	// geo sample they own, in one transaction.
	DeleteUser(ctx context.Context, id string) error
}

// LocationRepository is the read-only registry of office sites.
type LocationRepository interface {
	ListLocations(ctx context.Context) ([]model.Location, error)
	GetLocation(ctx context.Context, id int64) (*model.Location, error)
}

// AttendanceRepository is the ledger of check-in/check-out records.
type AttendanceRepository interface {
	// InTx runs fn inside a single storage transaction. If fn returns an
	// error, nothing fn wrote is persisted.
	InTx(ctx context.Context, fn func(tx AttendanceTx) error) error

	// ListByUser returns a user's records, newest day first and newest
	// check-in first within a day.
	ListByUser(ctx context.Context, userID string) ([]model.AttendanceRecord, error)
	// ListAll returns every record in the system in ListByUser order.
	ListAll(ctx context.Context) ([]model.AttendanceRecord, error)
	// ListByUserBetween returns a user's records whose day falls in [from, to]
	// (both YYYY-MM-DD, inclusive) in chronological order.
	ListByUserBetween(ctx context.Context, userID, from, to string) ([]model.AttendanceRecord, error)
}

// AttendanceTx is the transactional view of the ledger used by the
// check-in/check-out read-check-write cycle.
type AttendanceTx interface {
	// DayRecords returns the user's records for day in check-in order.
	DayRecords(ctx context.Context, userID, day string) ([]model.AttendanceRecord, error)
	// Insert assigns rec.ID and stores an open record, plus rec.Geo when set.
	// A second open record for the same user and day is rejected with
	// apperror code already_checked_in.
	Insert(ctx context.Context, rec *model.AttendanceRecord) error
	// CloseRecord writes the check-out time and task fields onto an open
	// record. It fails with code already_checked_out if the record is closed.
	CloseRecord(ctx context.Context, rec *model.AttendanceRecord) error
}

// TokenDenylist remembers tokens revoked by logout until they expire.
type TokenDenylist interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
