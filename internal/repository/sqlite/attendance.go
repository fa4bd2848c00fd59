package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/rs/xid"

	"github.com/MehvishSheikh/attendance-webapp/internal/apperror"
	"github.com/MehvishSheikh/attendance-webapp/internal/model"
	"github.com/MehvishSheikh/attendance-webapp/internal/repository"
)

var _ repository.AttendanceRepository = (*DB)(nil)

// queryer is the part of *sql.DB and *sql.Tx the record queries need.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// recordSelect is the shared projection for every record listing: the record
// itself, its owner's name, its location's name and the optional geo sample.
func recordSelect() sq.SelectBuilder {
	return sq.Select(
		"r.id", "r.user_id", "u.name", "r.day", "r.checkin_at", "r.checkout_at",
		"r.location_id", "COALESCE(l.name, '')",
		"r.task", "r.task_status", "r.project_name",
		"g.latitude", "g.longitude", "g.pincode", "g.address", "g.captured_at",
	).
		From("attendance_records r").
		Join("users u ON u.id = r.user_id").
		LeftJoin("locations l ON l.id = r.location_id").
		LeftJoin("geo_samples g ON g.record_id = r.id")
}

// InTx runs fn in a transaction and commits only if fn returns nil.
func (db *DB) InTx(ctx context.Context, fn func(tx repository.AttendanceTx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning attendance transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	if err := fn(&attendanceTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing attendance transaction: %w", err)
	}
	return nil
}

func (db *DB) ListByUser(ctx context.Context, userID string) ([]model.AttendanceRecord, error) {
	return queryRecords(ctx, db.conn, recordSelect().
		Where(sq.Eq{"r.user_id": userID}).
		OrderBy("r.day DESC", "r.checkin_at DESC"))
}

func (db *DB) ListAll(ctx context.Context) ([]model.AttendanceRecord, error) {
	return queryRecords(ctx, db.conn, recordSelect().
		OrderBy("r.day DESC", "r.checkin_at DESC"))
}

func (db *DB) ListByUserBetween(ctx context.Context, userID, from, to string) ([]model.AttendanceRecord, error) {
	return queryRecords(ctx, db.conn, recordSelect().
		Where(sq.Eq{"r.user_id": userID}).
		Where(sq.GtOrEq{"r.day": from}).
		Where(sq.LtOrEq{"r.day": to}).
		OrderBy("r.day ASC", "r.checkin_at ASC"))
}

// attendanceTx implements repository.AttendanceTx on top of one *sql.Tx.
type attendanceTx struct {
	tx *sql.Tx
}

func (t *attendanceTx) DayRecords(ctx context.Context, userID, day string) ([]model.AttendanceRecord, error) {
	return queryRecords(ctx, t.tx, recordSelect().
		Where(sq.Eq{"r.user_id": userID, "r.day": day}).
		OrderBy("r.checkin_at ASC"))
}

func (t *attendanceTx) Insert(ctx context.Context, rec *model.AttendanceRecord) error {
	rec.ID = xid.New().String()
	rec.CheckInAt = rec.CheckInAt.UTC()

	query, args, err := sq.Insert("attendance_records").
		Columns("id", "user_id", "day", "checkin_at", "location_id").
		Values(rec.ID, rec.UserID, rec.Day, rec.CheckInAt, rec.LocationID).
		ToSql()
	if err != nil {
		return fmt.Errorf("sqlite: building attendance insert: %w", err)
	}

	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return apperror.InvalidState(apperror.CodeAlreadyCheckedIn, "already checked in today")
		}
		return fmt.Errorf("sqlite: inserting attendance record: %w", err)
	}

	if rec.Geo == nil {
		return nil
	}

	rec.Geo.CapturedAt = rec.Geo.CapturedAt.UTC()
	query, args, err = sq.Insert("geo_samples").
		Columns("record_id", "latitude", "longitude", "pincode", "address", "captured_at").
		Values(rec.ID, rec.Geo.Latitude, rec.Geo.Longitude, rec.Geo.Pincode, rec.Geo.Address, rec.Geo.CapturedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("sqlite: building geo sample insert: %w", err)
	}
	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("sqlite: inserting geo sample for %s: %w", rec.ID, err)
	}
	return nil
}

func (t *attendanceTx) CloseRecord(ctx context.Context, rec *model.AttendanceRecord) error {
	if rec.CheckOutAt == nil {
		return fmt.Errorf("sqlite: closing record %s without a check-out time", rec.ID)
	}
	out := rec.CheckOutAt.UTC()
	rec.CheckOutAt = &out

	query, args, err := sq.Update("attendance_records").
		Set("checkout_at", out).
		Set("task", rec.Task).
		Set("task_status", string(rec.TaskStatus)).
		Set("project_name", rec.ProjectName).
		Where(sq.Eq{"id": rec.ID, "checkout_at": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("sqlite: building attendance update: %w", err)
	}

	result, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("sqlite: closing attendance record %s: %w", rec.ID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.InvalidState(apperror.CodeAlreadyCheckedOut, "already checked out today")
	}
	return nil
}

func queryRecords(ctx context.Context, q queryer, b sq.SelectBuilder) ([]model.AttendanceRecord, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlite: building attendance query: %w", err)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing attendance: %w", err)
	}
	defer rows.Close()

	records := make([]model.AttendanceRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning attendance row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating attendance: %w", err)
	}
	return records, nil
}

func scanRecord(row rowScanner) (model.AttendanceRecord, error) {
	var (
		rec        model.AttendanceRecord
		taskStatus string
		checkOut   sql.NullTime
		lat, lng   sql.NullFloat64
		pincode    sql.NullString
		address    sql.NullString
		capturedAt sql.NullTime
	)
	if err := row.Scan(
		&rec.ID, &rec.UserID, &rec.UserName, &rec.Day, &rec.CheckInAt, &checkOut,
		&rec.LocationID, &rec.LocationName,
		&rec.Task, &taskStatus, &rec.ProjectName,
		&lat, &lng, &pincode, &address, &capturedAt,
	); err != nil {
		return rec, err
	}

	rec.TaskStatus = model.TaskStatus(taskStatus)
	if checkOut.Valid {
		t := checkOut.Time
		rec.CheckOutAt = &t
	}
	if lat.Valid && lng.Valid {
		rec.Geo = &model.GeoSample{
			Latitude:   lat.Float64,
			Longitude:  lng.Float64,
			Pincode:    pincode.String,
			Address:    address.String,
			CapturedAt: capturedAt.Time,
		}
	}
	return rec, nil
}
