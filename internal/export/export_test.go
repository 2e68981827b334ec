package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/crewtime/shiftclock/internal/store"
)

func sampleData() ([]store.Shift, map[int64]*store.Employee) {
	start := time.Date(2026, 8, 28, 8, 0, 0, 0, time.UTC)
	finish := start.Add(8 * time.Hour)

	shifts := []store.Shift{
		{
			ID:         "newer",
			EmployeeID: 2,
			ProjectID:  1,
			Date:       "2026-08-28",
			StartTS:    start.Add(time.Hour),
			StartGeo:   &store.GeoPoint{Lat: 52.52, Lng: 13.405},
			// still open
		},
		{
			ID:         "older",
			EmployeeID: 1,
			ProjectID:  1,
			Date:       "2026-08-28",
			StartTS:    start,
			StartGeo:   &store.GeoPoint{Lat: 52.52, Lng: 13.405},
			FinishTS:   &finish,
			FinishGeo:  &store.GeoPoint{Lat: 52.53, Lng: 13.41},
		},
	}

	employees := map[int64]*store.Employee{
		1: {ID: 1, Name: "Ada Lovelace", Role: "worker"},
		2: {ID: 2, Name: "Grace Brewster Murray Hopper", Role: "foreman"},
	}

	return shifts, employees
}

// ============================================================
// Rows
// ============================================================

func TestRows(t *testing.T) {
	shifts, employees := sampleData()
	rows := Rows(shifts, employees)

	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	// Input order (newest first) is preserved.
	if rows[0].FirstName != "Grace" || rows[1].FirstName != "Ada" {
		t.Fatalf("row order changed: %q, %q", rows[0].FirstName, rows[1].FirstName)
	}

	// Name splits at the first whitespace boundary only.
	if rows[0].LastName != "Brewster Murray Hopper" {
		t.Fatalf("LastName = %q", rows[0].LastName)
	}
	if rows[1].LastName != "Lovelace" {
		t.Fatalf("LastName = %q", rows[1].LastName)
	}

	finished := rows[1]
	if finished.Date != "2026-08-28" {
		t.Fatalf("Date = %q", finished.Date)
	}
	if finished.StartLocation != "52.52,13.405" {
		t.Fatalf("StartLocation = %q", finished.StartLocation)
	}
	if finished.FinishLocation != "52.53,13.41" {
		t.Fatalf("FinishLocation = %q", finished.FinishLocation)
	}

	// Open shift: no log-out time, no finish location.
	running := rows[0]
	if running.LogOut != "" {
		t.Fatalf("open shift LogOut = %q, want empty", running.LogOut)
	}
	if running.FinishLocation != "" {
		t.Fatalf("open shift FinishLocation = %q, want empty", running.FinishLocation)
	}
}

func TestRowsSubmissionIsStartTime(t *testing.T) {
	shifts, employees := sampleData()
	rows := Rows(shifts, employees)

	for _, r := range rows {
		submitted, err := time.Parse(time.RFC3339, r.SubmittedAt)
		if err != nil {
			t.Fatalf("submitted_at not RFC3339: %q", r.SubmittedAt)
		}
		logIn := submitted.Format("15:04")
		if r.LogIn != logIn {
			t.Fatalf("SubmittedAt %q does not match LogIn %q", r.SubmittedAt, r.LogIn)
		}
	}
}

func TestRowsMissingEmployee(t *testing.T) {
	shifts, _ := sampleData()
	rows := Rows(shifts, map[int64]*store.Employee{})

	if len(rows) != 2 {
		t.Fatalf("missing employee must not drop rows, got %d", len(rows))
	}
	for _, r := range rows {
		if r.FirstName != "" || r.LastName != "" {
			t.Fatalf("expected empty name fields, got %q %q", r.FirstName, r.LastName)
		}
	}
}

func TestRowsMissingGeo(t *testing.T) {
	shifts := []store.Shift{
		{ID: "s", EmployeeID: 1, Date: "2026-08-28", StartTS: time.Now()},
	}
	rows := Rows(shifts, nil)
	if rows[0].StartLocation != "" || rows[0].FinishLocation != "" {
		t.Fatalf("missing geo should render empty, got %q %q", rows[0].StartLocation, rows[0].FinishLocation)
	}
}

func TestSplitName(t *testing.T) {
	tests := []struct {
		name  string
		first string
		last  string
	}{
		{"Ada Lovelace", "Ada", "Lovelace"},
		{"Cher", "Cher", ""},
		{"Grace Brewster Murray Hopper", "Grace", "Brewster Murray Hopper"},
		{"", "", ""},
	}
	for _, tt := range tests {
		first, last := splitName(tt.name)
		if first != tt.first || last != tt.last {
			t.Errorf("splitName(%q) = %q, %q; want %q, %q", tt.name, first, last, tt.first, tt.last)
		}
	}
}

// ============================================================
// CSV
// ============================================================

func TestToCSVHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "header.csv")
	if err := ToCSV(nil, path); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	want := "First Name, Last Name, Date, Time of Submission, Log In Time, Log Out Time, Start Location, Finish Location\n"
	if string(data) != want {
		t.Fatalf("header mismatch:\ngot  %q\nwant %q", string(data), want)
	}
}

func TestToCSV(t *testing.T) {
	shifts, employees := sampleData()
	rows := Rows(shifts, employees)
	path := filepath.Join(t.TempDir(), "test.csv")

	if err := ToCSV(rows, path); err != nil {
		t.Fatalf("ToCSV: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		t.Fatal(err)
	}

	// header + 2 data rows
	if len(records) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(records))
	}

	row := records[2]
	if row[0] != "Ada" || row[1] != "Lovelace" {
		t.Fatalf("name fields = %q %q", row[0], row[1])
	}
	if row[6] != "52.52,13.405" {
		t.Fatalf("start location = %q", row[6])
	}

	// CSV row count equals shift count.
	if len(records)-1 != len(shifts) {
		t.Fatalf("row count %d != shift count %d", len(records)-1, len(shifts))
	}
}

func TestToCSVBadPath(t *testing.T) {
	if err := ToCSV(nil, "/nonexistent/dir/file.csv"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

// ============================================================
// JSON
// ============================================================

func TestToJSON(t *testing.T) {
	shifts, employees := sampleData()
	rows := Rows(shifts, employees)
	path := filepath.Join(t.TempDir(), "test.json")

	if err := ToJSON(rows, path); err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var result jsonExport
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if result.Count != 2 {
		t.Fatalf("count = %d, want 2", result.Count)
	}
	if result.Shifts[0].FirstName != "Grace" {
		t.Fatalf("FirstName = %q", result.Shifts[0].FirstName)
	}
	if _, err := time.Parse(time.RFC3339, result.ExportedAt); err != nil {
		t.Fatalf("exported_at is not valid RFC3339: %q", result.ExportedAt)
	}
}

func TestToJSONEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	if err := ToJSON(nil, path); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "\n") {
		t.Fatal("JSON should be pretty-printed")
	}

	var result jsonExport
	json.Unmarshal(data, &result)
	if result.Count != 0 {
		t.Fatalf("count = %d, want 0", result.Count)
	}
}

func TestToJSONBadPath(t *testing.T) {
	if err := ToJSON(nil, "/nonexistent/dir/file.json"); err == nil {
		t.Fatal("expected error for bad path")
	}
}
