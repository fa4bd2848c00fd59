package handler

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MehvishSheikh/attendance-webapp/internal/apperror"
	"github.com/MehvishSheikh/attendance-webapp/internal/export"
	"github.com/MehvishSheikh/attendance-webapp/internal/service"
)

// AdminHandler serves /api/admin/*. Each handler checks the caller's admin
// flag before it reads anything else from the request, so a non-admin gets
// 403 no matter what they send.
type AdminHandler struct {
	admin  *service.AdminService
	zone   *time.Location
	logger *slog.Logger
}

// NewAdminHandler wires the admin endpoints. zone is the time zone the CSV
// export shows check-in and check-out times in.
func NewAdminHandler(admin *service.AdminService, zone *time.Location, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, zone: zone, logger: logger}
}

// HTTP: GET /api/admin/users
func (h *AdminHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	users, err := h.admin.ListUsers(r.Context(), c)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// HTTP: GET /api/admin/users/{id}
func (h *AdminHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	user, err := h.admin.GetUser(r.Context(), c, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleDeleteUser removes a user and cascades to their attendance.
//
// HTTP: DELETE /api/admin/users/{id}
func (h *AdminHandler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	if err := h.admin.DeleteUser(r.Context(), c, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "User deleted"})
}

// HTTP: GET /api/admin/attendance
func (h *AdminHandler) HandleListAttendance(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	records, err := h.admin.ListAllAttendance(r.Context(), c)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// HTTP: GET /api/admin/attendance/{id}
func (h *AdminHandler) HandleUserAttendance(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	records, err := h.admin.ListUserAttendance(r.Context(), c, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// HandleExport downloads one user's month as CSV.
//
// HTTP: GET /api/admin/attendance/export/{id}?year=2024&month=1
// Missing year or month means the current one.
func (h *AdminHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	if err := service.RequireAdmin(c); err != nil {
		writeError(w, err)
		return
	}

	year, err := queryInt(r, "year")
	if err != nil {
		writeError(w, err)
		return
	}
	month, err := queryInt(r, "month")
	if err != nil {
		writeError(w, err)
		return
	}

	exp, err := h.admin.ExportMonth(r.Context(), c, chi.URLParam(r, "id"), year, month)
	if err != nil {
		writeError(w, err)
		return
	}

	// Render into a buffer first so a failure can still become a JSON error.
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, exp.Records, h.zone); err != nil {
		writeError(w, err)
		return
	}

	h.logger.Info("attendance exported",
		slog.String("userID", exp.User.ID),
		slog.Int("year", exp.Year),
		slog.Int("month", int(exp.Month)),
		slog.Int("rows", len(exp.Records)),
	)

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exp.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// queryInt parses an optional integer query parameter. Absent means 0.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.ValidationFailed(name, name+" must be an integer")
	}
	return v, nil
}
