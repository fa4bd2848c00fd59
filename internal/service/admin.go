package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MehvishSheikh/attendance-webapp/internal/apperror"
	"github.com/MehvishSheikh/attendance-webapp/internal/auth"
	"github.com/MehvishSheikh/attendance-webapp/internal/model"
	"github.com/MehvishSheikh/attendance-webapp/internal/repository"
)

// AdminService holds the operations reserved for admin callers. Every method
// checks caller.IsAdmin first, before looking at its other arguments.
type AdminService struct {
	users   repository.UserRepository
	records repository.AttendanceRepository
	zone    *time.Location
	now     func() time.Time
	logger  *slog.Logger
}

// NewAdminService wires the admin operations. zone is used to pick the
// default export month; nil means time.Local.
func NewAdminService(
	users repository.UserRepository,
	records repository.AttendanceRepository,
	zone *time.Location,
	logger *slog.Logger,
) *AdminService {
	if zone == nil {
		zone = time.Local
	}
	return &AdminService{
		users:   users,
		records: records,
		zone:    zone,
		now:     time.Now,
		logger:  logger,
	}
}

// RequireAdmin returns a Forbidden error unless caller is an admin.
func RequireAdmin(caller auth.Caller) error {
	if !caller.IsAdmin {
		return apperror.Forbidden("admin access required")
	}
	return nil
}

func (s *AdminService) ListUsers(ctx context.Context, caller auth.Caller) ([]model.User, error) {
	if err := RequireAdmin(caller); err != nil {
		return nil, err
	}
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/admin: listing users: %w", err)
	}
	return users, nil
}

func (s *AdminService) GetUser(ctx context.Context, caller auth.Caller, id string) (*model.User, error) {
	if err := RequireAdmin(caller); err != nil {
		return nil, err
	}
	return s.getUser(ctx, id)
}

// DeleteUser removes the user and all of their attendance. Admins cannot
// delete their own account.
func (s *AdminService) DeleteUser(ctx context.Context, caller auth.Caller, id string) error {
	if err := RequireAdmin(caller); err != nil {
		return err
	}
	if id == caller.UserID {
		return apperror.ValidationFailed("id", "admins cannot delete their own account")
	}

	if err := s.users.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return err
		}
		return fmt.Errorf("service/admin: deleting user %s: %w", id, err)
	}

	s.logger.Info("user deleted",
		slog.String("userID", id),
		slog.String("by", caller.UserID),
	)
	return nil
}

// ListAllAttendance returns every record in the system, newest first.
func (s *AdminService) ListAllAttendance(ctx context.Context, caller auth.Caller) ([]model.AttendanceRecord, error) {
	if err := RequireAdmin(caller); err != nil {
		return nil, err
	}
	records, err := s.records.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/admin: listing attendance: %w", err)
	}
	return records, nil
}

// ListUserAttendance returns one user's records, newest first. An unknown
// user is a NotFound error rather than an empty list.
func (s *AdminService) ListUserAttendance(ctx context.Context, caller auth.Caller, id string) ([]model.AttendanceRecord, error) {
	if err := RequireAdmin(caller); err != nil {
		return nil, err
	}
	if _, err := s.getUser(ctx, id); err != nil {
		return nil, err
	}
	records, err := s.records.ListByUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/admin: listing attendance of %s: %w", id, err)
	}
	return records, nil
}

// MonthExport is one user's attendance for a calendar month, in
// chronological order.
type MonthExport struct {
	User     *model.User
	Year     int
	Month    time.Month
	Records  []model.AttendanceRecord
	Filename string
}

// ExportMonth collects the records of user id whose day falls in the given
// month. A zero year or month defaults to the current one.
func (s *AdminService) ExportMonth(ctx context.Context, caller auth.Caller, id string, year, month int) (*MonthExport, error) {
	if err := RequireAdmin(caller); err != nil {
		return nil, err
	}

	now := s.now().In(s.zone)
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = int(now.Month())
	}
	if month < 1 || month > 12 {
		return nil, apperror.ValidationFailed("month", "month must be between 1 and 12")
	}
	if year < 1 || year > 9999 {
		return nil, apperror.ValidationFailed("year", "year is out of range")
	}

	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}

	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	records, err := s.records.ListByUserBetween(ctx, id,
		first.Format(model.DayLayout), last.Format(model.DayLayout))
	if err != nil {
		return nil, fmt.Errorf("service/admin: exporting attendance of %s: %w", id, err)
	}

	return &MonthExport{
		User:     user,
		Year:     year,
		Month:    time.Month(month),
		Records:  records,
		Filename: exportFilename(user.Name, year, month),
	}, nil
}

func (s *AdminService) getUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, &apperror.AppError{
				Err:     apperror.ErrNotFound,
				Message: "user not found",
				Code:    apperror.CodeUserNotFound,
			}
		}
		return nil, fmt.Errorf("service/admin: fetching user %s: %w", id, err)
	}
	return user, nil
}

// exportFilename builds e.g. "attendance_Alice_Smith_2024_1.csv". Characters
// that are awkward in a Content-Disposition header are replaced with "_".
func exportFilename(name string, year, month int) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		}
		return '_'
	}, strings.TrimSpace(name))
	if clean == "" {
		clean = "user"
	}
	return fmt.Sprintf("attendance_%s_%d_%d.csv", clean, year, month)
}
