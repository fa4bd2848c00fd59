// Package export renders attendance records as downloadable files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/MehvishSheikh/attendance-webapp/internal/model"
)

// Header is the fixed CSV column order.
var Header = []string{
	"Date",
	"Check-in Time",
	"Check-out Time",
	"Location",
	"Task",
	"Task Status",
	"Project Name",
	"Hours Worked",
}

const clockLayout = "15:04:05"

// WriteCSV writes records in the order given, one row per record, after the
// header. Times are shown in zone; nil means UTC. Open records leave the
// check-out and hours columns blank.
func WriteCSV(w io.Writer, records []model.AttendanceRecord, zone *time.Location) error {
	if zone == nil {
		zone = time.UTC
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("export: writing header: %w", err)
	}

	for i := range records {
		if err := cw.Write(row(&records[i], zone)); err != nil {
			return fmt.Errorf("export: writing record %s: %w", records[i].ID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export: flushing csv: %w", err)
	}
	return nil
}

func row(r *model.AttendanceRecord, zone *time.Location) []string {
	checkOut, hours := "", ""
	if r.CheckOutAt != nil {
		checkOut = r.CheckOutAt.In(zone).Format(clockLayout)
	}
	if h, ok := r.HoursWorked(); ok {
		hours = fmt.Sprintf("%.2f", h)
	}

	return []string{
		r.Day,
		r.CheckInAt.In(zone).Format(clockLayout),
		checkOut,
		r.LocationName,
		r.Task,
		string(r.TaskStatus),
		r.ProjectName,
		hours,
	}
}
