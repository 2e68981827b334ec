package export

import (
	"strings"
	"time"
	"unicode"

	"github.com/crewtime/shiftclock/internal/store"
)

// Row is the flat report projection of one shift: the shape shared by
// the CSV export and the daily report sender.
type Row struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Date           string `json:"date"`
	SubmittedAt    string `json:"submitted_at"`
	LogIn          string `json:"log_in"`
	LogOut         string `json:"log_out"`
	StartLocation  string `json:"start_location"`
	FinishLocation string `json:"finish_location"`
}

// Rows projects shifts into report rows, preserving input order
// (newest first, as the store lists them). A shift whose employee is
// unknown still produces a row, with empty name fields.
//
// SubmittedAt duplicates the start timestamp. The legacy report format
// never tracked an independent audit timestamp, and consumers of the
// column depend on the current behavior.
func Rows(shifts []store.Shift, employees map[int64]*store.Employee) []Row {
	rows := make([]Row, 0, len(shifts))
	for _, sh := range shifts {
		first, last := "", ""
		if e, ok := employees[sh.EmployeeID]; ok {
			first, last = splitName(e.Name)
		}

		logOut := ""
		if sh.FinishTS != nil {
			logOut = sh.FinishTS.Local().Format("15:04")
		}

		rows = append(rows, Row{
			FirstName:      first,
			LastName:       last,
			Date:           sh.Date,
			SubmittedAt:    sh.StartTS.Local().Format(time.RFC3339),
			LogIn:          sh.StartTS.Local().Format("15:04"),
			LogOut:         logOut,
			StartLocation:  sh.StartGeo.String(),
			FinishLocation: sh.FinishGeo.String(),
		})
	}
	return rows
}

// splitName splits a display name at the first whitespace boundary.
func splitName(name string) (first, last string) {
	i := strings.IndexFunc(name, unicode.IsSpace)
	if i < 0 {
		return name, ""
	}
	return name[:i], strings.TrimSpace(name[i:])
}
