package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MehvishSheikh/attendance-webapp/internal/apperror"
	"github.com/MehvishSheikh/attendance-webapp/internal/auth"
	"github.com/MehvishSheikh/attendance-webapp/internal/model"
)

type adminFixture struct {
	svc     *AdminService
	users   *fakeUserRepo
	records *fakeAttendanceRepo
	admin   auth.Caller
	alice   *model.User
}

func newAdminFixture(t *testing.T) *adminFixture {
	t.Helper()
	users := newFakeUserRepo()
	records := newFakeAttendanceRepo()
	svc := NewAdminService(users, records, time.UTC, testLogger())
	svc.now = func() time.Time { return time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC) }

	admin := &model.User{Name: "Admin User", Email: "admin@x.com", IsAdmin: true}
	require.NoError(t, users.CreateUser(context.Background(), admin))
	alice := &model.User{Name: "Alice Smith", Email: "a@x.com"}
	require.NoError(t, users.CreateUser(context.Background(), alice))

	return &adminFixture{
		svc:     svc,
		users:   users,
		records: records,
		admin:   auth.Caller{UserID: admin.ID, IsAdmin: true},
		alice:   alice,
	}
}

func TestAdmin_NonAdminForbidden(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()
	user := auth.Caller{UserID: f.alice.ID}

	// Even nonsense arguments get Forbidden, never a validation or 404 error.
	checks := map[string]error{}
	_, checks["ListUsers"] = f.svc.ListUsers(ctx, user)
	_, checks["GetUser"] = f.svc.GetUser(ctx, user, "missing")
	checks["DeleteUser"] = f.svc.DeleteUser(ctx, user, "missing")
	_, checks["ListAllAttendance"] = f.svc.ListAllAttendance(ctx, user)
	_, checks["ListUserAttendance"] = f.svc.ListUserAttendance(ctx, user, "missing")
	_, checks["ExportMonth"] = f.svc.ExportMonth(ctx, user, "missing", 2024, 13)

	for name, err := range checks {
		assert.ErrorIs(t, err, apperror.ErrForbidden, name)
	}
}

func TestAdmin_Users(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()

	users, err := f.svc.ListUsers(ctx, f.admin)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	u, err := f.svc.GetUser(ctx, f.admin, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice Smith", u.Name)

	_, err = f.svc.GetUser(ctx, f.admin, "missing")
	require.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Equal(t, apperror.CodeUserNotFound, apperror.CodeOf(err))
}

func TestAdmin_DeleteUser(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.DeleteUser(ctx, f.admin, f.alice.ID))

	_, err := f.svc.GetUser(ctx, f.admin, f.alice.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	err = f.svc.DeleteUser(ctx, f.admin, f.alice.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = f.svc.ListUserAttendance(ctx, f.admin, f.alice.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = f.svc.ExportMonth(ctx, f.admin, f.alice.ID, 2024, 1)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestAdmin_CannotDeleteSelf(t *testing.T) {
	f := newAdminFixture(t)
	err := f.svc.DeleteUser(context.Background(), f.admin, f.admin.UserID)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestAdmin_Attendance(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()
	f.records.seed(
		model.AttendanceRecord{ID: "a1", UserID: f.alice.ID, Day: "2024-01-05", CheckInAt: time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)},
		model.AttendanceRecord{ID: "x1", UserID: f.admin.UserID, Day: "2024-01-06", CheckInAt: time.Date(2024, 1, 6, 9, 0, 0, 0, time.UTC)},
	)

	all, err := f.svc.ListAllAttendance(ctx, f.admin)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "x1", all[0].ID)

	mine, err := f.svc.ListUserAttendance(ctx, f.admin, f.alice.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "a1", mine[0].ID)
}

func TestAdmin_ExportMonth(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()
	out := time.Date(2024, 1, 5, 17, 30, 0, 0, time.UTC)
	f.records.seed(
		model.AttendanceRecord{ID: "late", UserID: f.alice.ID, Day: "2024-01-20", CheckInAt: time.Date(2024, 1, 20, 9, 0, 0, 0, time.UTC)},
		model.AttendanceRecord{ID: "early", UserID: f.alice.ID, Day: "2024-01-05", CheckInAt: time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC), CheckOutAt: &out},
		model.AttendanceRecord{ID: "dec", UserID: f.alice.ID, Day: "2023-12-31", CheckInAt: time.Date(2023, 12, 31, 9, 0, 0, 0, time.UTC)},
		model.AttendanceRecord{ID: "feb", UserID: f.alice.ID, Day: "2024-02-01", CheckInAt: time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)},
	)

	exp, err := f.svc.ExportMonth(ctx, f.admin, f.alice.ID, 2024, 1)
	require.NoError(t, err)
	require.Len(t, exp.Records, 2)
	assert.Equal(t, "early", exp.Records[0].ID)
	assert.Equal(t, "late", exp.Records[1].ID)
	assert.Equal(t, "attendance_Alice_Smith_2024_1.csv", exp.Filename)
	assert.Equal(t, time.January, exp.Month)
}

func TestAdmin_ExportMonth_Defaults(t *testing.T) {
	f := newAdminFixture(t)

	exp, err := f.svc.ExportMonth(context.Background(), f.admin, f.alice.ID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 2024, exp.Year)
	assert.Equal(t, time.January, exp.Month)
	assert.Empty(t, exp.Records)
}

func TestAdmin_ExportMonth_InvalidMonth(t *testing.T) {
	f := newAdminFixture(t)
	_, err := f.svc.ExportMonth(context.Background(), f.admin, f.alice.ID, 2024, 13)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestExportFilename(t *testing.T) {
	assert.Equal(t, "attendance_Alice_Smith_2024_3.csv", exportFilename("Alice Smith", 2024, 3))
	assert.Equal(t, "attendance_a_b_2024_3.csv", exportFilename(`a"b`, 2024, 3))
	assert.Equal(t, "attendance_user_2024_3.csv", exportFilename("  ", 2024, 3))
}
