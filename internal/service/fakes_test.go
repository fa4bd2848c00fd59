package service

import (
	"context"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/MehvishSheikh/attendance-webapp/internal/apperror"
	"github.com/MehvishSheikh/attendance-webapp/internal/model"
	"github.com/MehvishSheikh/attendance-webapp/internal/repository"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================
//
// Hand-written in-memory fakes (not a mock framework) keep the tests easy to
// read: you can see exactly what each repository method does.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// fakeUserRepo is an in-memory repository.UserRepository.
type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[string]*model.User
	nextID int
	// set to a non-nil error to simulate a database failure
	getErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (f *fakeUserRepo) CreateUser(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return apperror.Conflict(apperror.CodeEmailTaken, "email already registered")
		}
	}
	f.nextID++
	u.ID = "user-" + strconv.Itoa(f.nextID)
	u.CreatedAt = time.Now()
	copied := *u
	f.users[u.ID] = &copied
	return nil
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (f *fakeUserRepo) ListUsers(_ context.Context) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	users := make([]model.User, 0, len(f.users))
	for _, u := range f.users {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (f *fakeUserRepo) DeleteUser(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return apperror.NotFound("user", id)
	}
	delete(f.users, id)
	return nil
}

// fakeDenylist is an in-memory repository.TokenDenylist.
type fakeDenylist struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func newFakeDenylist() *fakeDenylist {
	return &fakeDenylist{revoked: make(map[string]time.Time)}
}

func (f *fakeDenylist) Revoke(_ context.Context, id string, exp time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked[id] = exp
	return nil
}

func (f *fakeDenylist) IsRevoked(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.revoked[id]
	return ok, nil
}

// fakeLocationRepo serves a fixed list.
type fakeLocationRepo struct {
	locations []model.Location
}

func newFakeLocationRepo() *fakeLocationRepo {
	return &fakeLocationRepo{locations: append([]model.Location(nil), model.DefaultLocations...)}
}

func (f *fakeLocationRepo) ListLocations(_ context.Context) ([]model.Location, error) {
	return append([]model.Location(nil), f.locations...), nil
}

func (f *fakeLocationRepo) GetLocation(_ context.Context, id int64) (*model.Location, error) {
	for _, l := range f.locations {
		if l.ID == id {
			copied := l
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("location", strconv.FormatInt(id, 10))
}

// fakeAttendanceRepo keeps records in a slice. InTx works on a copy and only
// publishes it when fn succeeds, which mirrors a real rollback.
type fakeAttendanceRepo struct {
	mu      sync.Mutex
	records []model.AttendanceRecord
	nextID  int
	// closeErr makes CloseRecord fail, to exercise rollback
	closeErr error
}

func newFakeAttendanceRepo() *fakeAttendanceRepo {
	return &fakeAttendanceRepo{}
}

func (f *fakeAttendanceRepo) InTx(_ context.Context, fn func(tx repository.AttendanceTx) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	tx := &fakeAttendanceTx{repo: f, records: cloneRecords(f.records), nextID: f.nextID}
	if err := fn(tx); err != nil {
		return err
	}
	f.records = tx.records
	f.nextID = tx.nextID
	return nil
}

func (f *fakeAttendanceRepo) ListByUser(_ context.Context, userID string) ([]model.AttendanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := filterRecords(f.records, func(r model.AttendanceRecord) bool { return r.UserID == userID })
	sortRecords(out, true)
	return out, nil
}

func (f *fakeAttendanceRepo) ListAll(_ context.Context) ([]model.AttendanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := cloneRecords(f.records)
	sortRecords(out, true)
	return out, nil
}

func (f *fakeAttendanceRepo) ListByUserBetween(_ context.Context, userID, from, to string) ([]model.AttendanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := filterRecords(f.records, func(r model.AttendanceRecord) bool {
		return r.UserID == userID && r.Day >= from && r.Day <= to
	})
	sortRecords(out, false)
	return out, nil
}

// seed stores records directly, bypassing the state machine.
func (f *fakeAttendanceRepo) seed(records ...model.AttendanceRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range records {
		f.nextID++
		if r.ID == "" {
			r.ID = "rec-" + strconv.Itoa(f.nextID)
		}
		f.records = append(f.records, r)
	}
}

type fakeAttendanceTx struct {
	repo    *fakeAttendanceRepo
	records []model.AttendanceRecord
	nextID  int
}

func (t *fakeAttendanceTx) DayRecords(_ context.Context, userID, day string) ([]model.AttendanceRecord, error) {
	out := filterRecords(t.records, func(r model.AttendanceRecord) bool {
		return r.UserID == userID && r.Day == day
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CheckInAt.Before(out[j].CheckInAt) })
	return out, nil
}

func (t *fakeAttendanceTx) Insert(_ context.Context, rec *model.AttendanceRecord) error {
	for _, r := range t.records {
		if r.UserID == rec.UserID && r.Day == rec.Day && r.Open() {
			return apperror.InvalidState(apperror.CodeAlreadyCheckedIn, "already checked in today")
		}
	}
	t.nextID++
	rec.ID = "rec-" + strconv.Itoa(t.nextID)
	t.records = append(t.records, cloneRecord(*rec))
	return nil
}

func (t *fakeAttendanceTx) CloseRecord(_ context.Context, rec *model.AttendanceRecord) error {
	if t.repo.closeErr != nil {
		return t.repo.closeErr
	}
	for i := range t.records {
		if t.records[i].ID == rec.ID {
			if !t.records[i].Open() {
				return apperror.InvalidState(apperror.CodeAlreadyCheckedOut, "already checked out today")
			}
			t.records[i] = cloneRecord(*rec)
			return nil
		}
	}
	return apperror.NotFound("attendance record", rec.ID)
}

func cloneRecord(r model.AttendanceRecord) model.AttendanceRecord {
	if r.CheckOutAt != nil {
		out := *r.CheckOutAt
		r.CheckOutAt = &out
	}
	if r.Geo != nil {
		g := *r.Geo
		r.Geo = &g
	}
	return r
}

func cloneRecords(in []model.AttendanceRecord) []model.AttendanceRecord {
	out := make([]model.AttendanceRecord, 0, len(in))
	for _, r := range in {
		out = append(out, cloneRecord(r))
	}
	return out
}

func filterRecords(in []model.AttendanceRecord, keep func(model.AttendanceRecord) bool) []model.AttendanceRecord {
	out := make([]model.AttendanceRecord, 0)
	for _, r := range in {
		if keep(r) {
			out = append(out, cloneRecord(r))
		}
	}
	return out
}

func sortRecords(rs []model.AttendanceRecord, newestFirst bool) {
	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].Day != rs[j].Day {
			if newestFirst {
				return rs[i].Day > rs[j].Day
			}
			return rs[i].Day < rs[j].Day
		}
		if newestFirst {
			return rs[i].CheckInAt.After(rs[j].CheckInAt)
		}
		return rs[i].CheckInAt.Before(rs[j].CheckInAt)
	})
}

// fixedClock returns a clock that always reads t. Advance it by assigning
// to *t between calls.
func fixedClock(t *time.Time) func() time.Time {
	return func() time.Time { return *t }
}
