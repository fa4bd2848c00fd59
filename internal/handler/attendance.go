package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/MehvishSheikh/attendance-webapp/internal/apperror"
	"github.com/MehvishSheikh/attendance-webapp/internal/auth"
	"github.com/MehvishSheikh/attendance-webapp/internal/model"
	"github.com/MehvishSheikh/attendance-webapp/internal/service"
)

// AttendanceHandler exposes the caller's own ledger: status, check-in,
// check-out and history. Every route sits behind Gate.RequireUser.
type AttendanceHandler struct {
	ledger *service.AttendanceService
	logger *slog.Logger
}

func NewAttendanceHandler(ledger *service.AttendanceService, logger *slog.Logger) *AttendanceHandler {
	return &AttendanceHandler{ledger: ledger, logger: logger}
}

// StatusResponse is the body of GET /api/attendance/status. The optional
// fields are only present while the caller is checked in.
type StatusResponse struct {
	IsCheckedIn  bool       `json:"isCheckedIn"`
	CheckInTime  *time.Time `json:"checkInTime,omitempty"`
	LocationID   *int64     `json:"locationId,omitempty"`
	LocationName string     `json:"locationName,omitempty"`
}

// CheckInResponse is the body of a successful check-in.
type CheckInResponse struct {
	Message      string                  `json:"message"`
	CheckInTime  time.Time               `json:"checkInTime"`
	LocationID   int64                   `json:"locationId"`
	LocationName string                  `json:"locationName"`
	GeoRecorded  bool                    `json:"geoRecorded"`
	Record       *model.AttendanceRecord `json:"record"`
}

// CheckOutResponse is the body of a successful check-out.
type CheckOutResponse struct {
	Message      string                  `json:"message"`
	CheckOutTime time.Time               `json:"checkOutTime"`
	TaskStatus   model.TaskStatus        `json:"taskStatus"`
	Record       *model.AttendanceRecord `json:"record"`
}

// caller pulls the authenticated identity or writes a 401.
func caller(w http.ResponseWriter, r *http.Request) (auth.Caller, bool) {
	c, ok := auth.CallerFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated(apperror.CodeUnauthenticated, "authentication required"))
	}
	return c, ok
}

// HandleStatus reports whether the caller is checked in today.
//
// HTTP: GET /api/attendance/status
func (h *AttendanceHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}

	st, err := h.ledger.Status(r.Context(), c.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := StatusResponse{IsCheckedIn: st.IsCheckedIn}
	if st.IsCheckedIn {
		id := st.LocationID
		resp.CheckInTime = st.CheckInAt
		resp.LocationID = &id
		resp.LocationName = st.LocationName
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleCheckIn opens today's record.
//
// HTTP: POST /api/attendance/checkin
// REQUEST BODY (all optional):
//
//	{"locationId": 1}
//	{"latitude": 17.38, "longitude": 78.48, "address": "..."}
func (h *AttendanceHandler) HandleCheckIn(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}

	var in service.CheckInInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.ledger.CheckIn(r.Context(), c.UserID, in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, CheckInResponse{
		Message:      "Check-in successful",
		CheckInTime:  res.Record.CheckInAt,
		LocationID:   res.Record.LocationID,
		LocationName: res.Record.LocationName,
		GeoRecorded:  res.GeoRecorded,
		Record:       res.Record,
	})
}

// HandleCheckOut closes today's record.
//
// HTTP: POST /api/attendance/checkout
// REQUEST BODY: {"task": "...", "taskStatus": "completed", "projectName": "..."}
func (h *AttendanceHandler) HandleCheckOut(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}

	var in service.CheckOutInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	rec, err := h.ledger.CheckOut(r.Context(), c.UserID, in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, CheckOutResponse{
		Message:      "Check-out successful",
		CheckOutTime: *rec.CheckOutAt,
		TaskStatus:   rec.TaskStatus,
		Record:       rec,
	})
}

// HandleHistory lists all of the caller's records, newest first.
//
// HTTP: GET /api/attendance/history
func (h *AttendanceHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}

	records, err := h.ledger.History(r.Context(), c.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// HandleLocations lists the registered office locations. No login needed.
//
// HTTP: GET /api/locations
func (h *AttendanceHandler) HandleLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.ledger.Locations(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, locations)
}
