package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MehvishSheikh/attendance-webapp/internal/apperror"
	"github.com/MehvishSheikh/attendance-webapp/internal/model"
	"github.com/MehvishSheikh/attendance-webapp/internal/repository"
)

// dayState is where a user stands on the ledger for one calendar day.
type dayState int

const (
	stateNoRecord dayState = iota
	stateOpen
	stateClosed
)

// stateOf folds a day's records into a single state. Any open record makes
// the day Open; otherwise any record at all makes it Closed.
func stateOf(records []model.AttendanceRecord) (dayState, *model.AttendanceRecord) {
	for i := range records {
		if records[i].Open() {
			return stateOpen, &records[i]
		}
	}
	if len(records) > 0 {
		return stateClosed, &records[len(records)-1]
	}
	return stateNoRecord, nil
}

// AttendanceService is the check-in/check-out state machine.
//
// Each user has, per calendar day, one of three states:
//
//	NoRecord ──checkIn──▶ Open ──checkOut──▶ Closed
//
// Every transition is a read-check-write inside one repository transaction,
// so two concurrent requests cannot both observe NoRecord.
type AttendanceService struct {
	records   repository.AttendanceRepository
	locations repository.LocationRepository
	geo       *GeoResolver
	zone      *time.Location
	now       func() time.Time
	logger    *slog.Logger
}

// AttendanceOption customises an AttendanceService.
type AttendanceOption func(*AttendanceService)

// WithClock replaces time.Now. Tests use it to pin "today".
func WithClock(now func() time.Time) AttendanceOption {
	return func(s *AttendanceService) { s.now = now }
}

// NewAttendanceService builds the ledger. zone decides where a calendar day
// starts and ends; nil means time.Local.
func NewAttendanceService(
	records repository.AttendanceRepository,
	locations repository.LocationRepository,
	geo *GeoResolver,
	zone *time.Location,
	logger *slog.Logger,
	opts ...AttendanceOption,
) *AttendanceService {
	if zone == nil {
		zone = time.Local
	}
	s := &AttendanceService{
		records:   records,
		locations: locations,
		geo:       geo,
		zone:      zone,
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckInInput is the payload of POST /api/attendance/checkin. Coordinates
// are used only when both are present.
type CheckInInput struct {
	LocationID *int64   `json:"locationId"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
	Address    string   `json:"address"`
}

func (in CheckInInput) hasCoordinates() bool {
	return in.Latitude != nil && in.Longitude != nil
}

// CheckInResult reports the new open record and whether a geo sample was stored.
type CheckInResult struct {
	Record      *model.AttendanceRecord
	GeoRecorded bool
}

// CheckIn opens today's record for userID.
//
// It fails with already_checked_in if today is Open and already_completed if
// today is Closed. The record and its geo sample are stored atomically.
func (s *AttendanceService) CheckIn(ctx context.Context, userID string, in CheckInInput) (*CheckInResult, error) {
	now := s.now().In(s.zone)
	day := now.Format(model.DayLayout)

	// Location reads happen before the transaction opens: the store hands
	// the transaction its only connection.
	location, err := s.resolveLocation(ctx, in)
	if err != nil {
		return nil, err
	}

	rec := &model.AttendanceRecord{
		UserID:       userID,
		Day:          day,
		CheckInAt:    now,
		LocationID:   location.ID,
		LocationName: location.Name,
	}
	if in.hasCoordinates() {
		rec.Geo = &model.GeoSample{
			Latitude:   *in.Latitude,
			Longitude:  *in.Longitude,
			Pincode:    location.Pincode,
			Address:    strings.TrimSpace(in.Address),
			CapturedAt: now,
		}
	}

	err = s.records.InTx(ctx, func(tx repository.AttendanceTx) error {
		existing, err := tx.DayRecords(ctx, userID, day)
		if err != nil {
			return err
		}
		state, _ := stateOf(existing)
		switch state {
		case stateOpen:
			return apperror.InvalidState(apperror.CodeAlreadyCheckedIn, "already checked in today")
		case stateClosed:
			return apperror.InvalidState(apperror.CodeAlreadyCompleted, "attendance already completed for today")
		}
		return tx.Insert(ctx, rec)
	})
	if err != nil {
		if errors.Is(err, apperror.ErrInvalidState) {
			return nil, err
		}
		return nil, fmt.Errorf("service/attendance: checking in user %s: %w", userID, err)
	}

	s.logger.Info("checked in",
		slog.String("userID", userID),
		slog.String("day", day),
		slog.Int64("locationID", location.ID),
		slog.Bool("geo", rec.Geo != nil),
	)

	return &CheckInResult{Record: rec, GeoRecorded: rec.Geo != nil}, nil
}

// resolveLocation picks the check-in location. Coordinates win over an
// explicit id; with neither, the first registered location is used.
func (s *AttendanceService) resolveLocation(ctx context.Context, in CheckInInput) (*model.Location, error) {
	if in.hasCoordinates() {
		return s.geo.Nearest(ctx, *in.Latitude, *in.Longitude)
	}

	if in.LocationID != nil {
		l, err := s.locations.GetLocation(ctx, *in.LocationID)
		if err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				return nil, apperror.ValidationFailed("locationId", "unknown location")
			}
			return nil, fmt.Errorf("service/attendance: %w", err)
		}
		return l, nil
	}

	locations, err := s.locations.ListLocations(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/attendance: listing locations: %w", err)
	}
	if len(locations) == 0 {
		return nil, apperror.ValidationFailed("locationId", "no locations are registered")
	}
	return &locations[0], nil
}

// CheckOutInput is the payload of POST /api/attendance/checkout.
type CheckOutInput struct {
	Task        string `json:"task"`
	TaskStatus  string `json:"taskStatus"`
	ProjectName string `json:"projectName"`
}

// validate returns the first problem with in, or nil.
func (in CheckOutInput) validate() error {
	if strings.TrimSpace(in.Task) == "" {
		return apperror.MissingField("task")
	}
	if strings.TrimSpace(in.TaskStatus) == "" {
		return apperror.MissingField("taskStatus")
	}
	if strings.TrimSpace(in.ProjectName) == "" {
		return apperror.MissingField("projectName")
	}
	if !model.TaskStatus(strings.TrimSpace(in.TaskStatus)).Valid() {
		return &apperror.AppError{
			Err:     apperror.ErrValidation,
			Message: "taskStatus must be one of pending, blockage, completed",
			Field:   "taskStatus",
			Code:    apperror.CodeInvalidTaskStatus,
		}
	}
	return nil
}

// CheckOut closes today's open record for userID and stores the task fields.
//
// It fails with no_open_session if today has no record and
// already_checked_out if today is Closed. Invalid task fields reject the
// whole call and nothing is written.
func (s *AttendanceService) CheckOut(ctx context.Context, userID string, in CheckOutInput) (*model.AttendanceRecord, error) {
	now := s.now().In(s.zone)
	day := now.Format(model.DayLayout)

	var closed *model.AttendanceRecord
	err := s.records.InTx(ctx, func(tx repository.AttendanceTx) error {
		existing, err := tx.DayRecords(ctx, userID, day)
		if err != nil {
			return err
		}

		state, open := stateOf(existing)
		switch state {
		case stateNoRecord:
			return apperror.InvalidState(apperror.CodeNoOpenSession, "not checked in today")
		case stateClosed:
			return apperror.InvalidState(apperror.CodeAlreadyCheckedOut, "already checked out today")
		}

		if err := in.validate(); err != nil {
			return err
		}

		out := now
		if out.Before(open.CheckInAt) {
			out = open.CheckInAt
		}
		open.CheckOutAt = &out
		open.Task = strings.TrimSpace(in.Task)
		open.TaskStatus = model.TaskStatus(strings.TrimSpace(in.TaskStatus))
		open.ProjectName = strings.TrimSpace(in.ProjectName)

		if err := tx.CloseRecord(ctx, open); err != nil {
			return err
		}
		closed = open
		return nil
	})
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, fmt.Errorf("service/attendance: checking out user %s: %w", userID, err)
	}

	s.logger.Info("checked out",
		slog.String("userID", userID),
		slog.String("day", day),
		slog.String("taskStatus", string(closed.TaskStatus)),
	)
	return closed, nil
}

// Status is the caller's standing for today. A user who has not checked in
// is a normal result, not an error.
type Status struct {
	IsCheckedIn  bool
	CheckInAt    *time.Time
	LocationID   int64
	LocationName string
}

// Status reports whether userID has an open record today.
func (s *AttendanceService) Status(ctx context.Context, userID string) (*Status, error) {
	day := s.now().In(s.zone).Format(model.DayLayout)

	var existing []model.AttendanceRecord
	err := s.records.InTx(ctx, func(tx repository.AttendanceTx) error {
		var err error
		existing, err = tx.DayRecords(ctx, userID, day)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("service/attendance: reading status of user %s: %w", userID, err)
	}

	state, open := stateOf(existing)
	if state != stateOpen {
		return &Status{}, nil
	}
	checkIn := open.CheckInAt
	return &Status{
		IsCheckedIn:  true,
		CheckInAt:    &checkIn,
		LocationID:   open.LocationID,
		LocationName: open.LocationName,
	}, nil
}

// History returns every record of userID, newest first.
func (s *AttendanceService) History(ctx context.Context, userID string) ([]model.AttendanceRecord, error) {
	records, err := s.records.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/attendance: listing history of user %s: %w", userID, err)
	}
	return records, nil
}

// Locations returns the location registry.
func (s *AttendanceService) Locations(ctx context.Context) ([]model.Location, error) {
	locations, err := s.locations.ListLocations(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/attendance: listing locations: %w", err)
	}
	return locations, nil
}
