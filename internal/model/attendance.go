package model

import "time"

// DayLayout is the calendar-day format used for storage, JSON and CSV.
const DayLayout = "2006-01-02"

// TaskStatus is the outcome a user reports for their task on check-out.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskBlockage  TaskStatus = "blockage"
	TaskCompleted TaskStatus = "completed"
)

// Valid reports whether s is one of the three accepted statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskBlockage, TaskCompleted:
		return true
	}
	return false
}

// AttendanceRecord is one check-in/check-out cycle for one user on one day.
//
// A record with CheckOutAt == nil is "open". Once closed, a record is never
// modified again; the task fields are written together with CheckOutAt.
type AttendanceRecord struct {
	ID           string     `json:"id"`
	UserID       string     `json:"userId"`
	UserName     string     `json:"userName,omitempty"`
	Day          string     `json:"date"` // YYYY-MM-DD in the configured time zone
	CheckInAt    time.Time  `json:"checkInTime"`
	CheckOutAt   *time.Time `json:"checkOutTime"`
	LocationID   int64      `json:"locationId"`
	LocationName string     `json:"locationName,omitempty"`
	Task         string     `json:"task,omitempty"`
	TaskStatus   TaskStatus `json:"taskStatus,omitempty"`
	ProjectName  string     `json:"projectName,omitempty"`
	Geo          *GeoSample `json:"geoLocation"`
}

// Open reports whether the record is still waiting for a check-out.
func (r *AttendanceRecord) Open() bool {
	return r.CheckOutAt == nil
}

// HoursWorked returns the duration between check-in and check-out in hours.
// ok is false for an open record.
func (r *AttendanceRecord) HoursWorked() (hours float64, ok bool) {
	if r.CheckOutAt == nil {
		return 0, false
	}
	return r.CheckOutAt.Sub(r.CheckInAt).Hours(), true
}

// GeoSample is the GPS reading a client supplied at check-in. At most one
// exists per record and it is immutable once written.
type GeoSample struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Pincode    string    `json:"pincode"`
	Address    string    `json:"address"`
	CapturedAt time.Time `json:"timestamp"`
}
