package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// reportHeader is the legacy report header. The payroll importer on
// the receiving end matches it byte for byte, space after each comma
// included.
var reportHeader = []string{
	"First Name", "Last Name", "Date", "Time of Submission",
	"Log In Time", "Log Out Time", "Start Location", "Finish Location",
}

func ToCSV(rows []Row, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(strings.Join(reportHeader, ", ") + "\n"); err != nil {
		return err
	}

	w := csv.NewWriter(f)
	defer w.Flush()

	for _, r := range rows {
		record := []string{
			r.FirstName,
			r.LastName,
			r.Date,
			r.SubmittedAt,
			r.LogIn,
			r.LogOut,
			r.StartLocation,
			r.FinishLocation,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	return w.Error()
}
