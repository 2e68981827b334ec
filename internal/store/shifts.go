package store

import (
	"database/sql"
	"fmt"
	"time"
)

// geoArgs flattens an optional point into two nullable SQL parameters.
func geoArgs(g *GeoPoint) (any, any) {
	if g == nil {
		return nil, nil
	}
	return g.Lat, g.Lng
}

// scanGeo rebuilds an optional point from two nullable columns.
func scanGeo(lat, lng sql.NullFloat64) *GeoPoint {
	if !lat.Valid || !lng.Valid {
		return nil
	}
	return &GeoPoint{Lat: lat.Float64, Lng: lng.Float64}
}

func (s *Store) InsertShift(sh *Shift) error {
	startLat, startLng := geoArgs(sh.StartGeo)
	_, err := s.db.Exec(
		`INSERT INTO shifts (id, employee_id, project_id, date, start_ts, start_lat, start_lng, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sh.ID, sh.EmployeeID, sh.ProjectID, sh.Date,
		sh.StartTS.UTC().Format(time.RFC3339), startLat, startLng, sh.Notes,
	)
	if err != nil {
		return fmt.Errorf("insert shift: %w", err)
	}
	return nil
}

func (s *Store) scanShift(row *sql.Row) (*Shift, error) {
	sh := &Shift{}
	var startTS string
	var finishTS sql.NullString
	var startLat, startLng, finishLat, finishLng sql.NullFloat64

	err := row.Scan(&sh.ID, &sh.EmployeeID, &sh.ProjectID, &sh.Date,
		&startTS, &startLat, &startLng, &finishTS, &finishLat, &finishLng, &sh.Notes)
	if err != nil {
		return nil, err
	}
	sh.StartTS, _ = time.Parse(time.RFC3339, startTS)
	sh.StartGeo = scanGeo(startLat, startLng)
	if finishTS.Valid {
		t, _ := time.Parse(time.RFC3339, finishTS.String)
		sh.FinishTS = &t
	}
	sh.FinishGeo = scanGeo(finishLat, finishLng)
	return sh, nil
}

func (s *Store) GetShift(id string) (*Shift, error) {
	row := s.db.QueryRow(
		`SELECT id, employee_id, project_id, date, start_ts, start_lat, start_lng,
		        finish_ts, finish_lat, finish_lng, notes
		 FROM shifts WHERE id = ?`, id,
	)
	sh, err := s.scanShift(row)
	if err != nil {
		return nil, fmt.Errorf("get shift %s: %w", id, err)
	}
	sh.Breaks, err = s.listBreaks(sh.ID)
	if err != nil {
		return nil, err
	}
	return sh, nil
}

// OpenShift returns the employee's shift with no finish timestamp, or
// (nil, nil) when the employee is idle.
func (s *Store) OpenShift(employeeID int64) (*Shift, error) {
	row := s.db.QueryRow(
		`SELECT id, employee_id, project_id, date, start_ts, start_lat, start_lng,
		        finish_ts, finish_lat, finish_lng, notes
		 FROM shifts WHERE employee_id = ? AND finish_ts IS NULL
		 ORDER BY start_ts DESC LIMIT 1`, employeeID,
	)
	sh, err := s.scanShift(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get open shift: %w", err)
	}
	sh.Breaks, err = s.listBreaks(sh.ID)
	if err != nil {
		return nil, err
	}
	return sh, nil
}

func (s *Store) FinishShift(id string, ts time.Time, geo *GeoPoint) error {
	lat, lng := geoArgs(geo)
	_, err := s.db.Exec(
		`UPDATE shifts SET finish_ts = ?, finish_lat = ?, finish_lng = ?
		 WHERE id = ? AND finish_ts IS NULL`,
		ts.UTC().Format(time.RFC3339), lat, lng, id,
	)
	if err != nil {
		return fmt.Errorf("finish shift: %w", err)
	}
	return nil
}

// FinishShiftClosingBreak closes a dangling break and finishes its
// shift in one transaction, sharing the timestamp and geotag. Either
// both updates land or neither does.
func (s *Store) FinishShiftClosingBreak(shiftID string, breakID int64, ts time.Time, geo *GeoPoint) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("finish shift: %w", err)
	}
	defer tx.Rollback()

	lat, lng := geoArgs(geo)
	tsStr := ts.UTC().Format(time.RFC3339)

	if _, err := tx.Exec(
		`UPDATE breaks SET end_ts = ?, end_lat = ?, end_lng = ?
		 WHERE id = ? AND end_ts IS NULL`,
		tsStr, lat, lng, breakID,
	); err != nil {
		return fmt.Errorf("close break: %w", err)
	}
	if _, err := tx.Exec(
		`UPDATE shifts SET finish_ts = ?, finish_lat = ?, finish_lng = ?
		 WHERE id = ? AND finish_ts IS NULL`,
		tsStr, lat, lng, shiftID,
	); err != nil {
		return fmt.Errorf("finish shift: %w", err)
	}
	return tx.Commit()
}

func (s *Store) AppendBreak(shiftID string, ts time.Time, geo *GeoPoint) (*Break, error) {
	lat, lng := geoArgs(geo)
	res, err := s.db.Exec(
		`INSERT INTO breaks (shift_id, start_ts, start_lat, start_lng) VALUES (?, ?, ?, ?)`,
		shiftID, ts.UTC().Format(time.RFC3339), lat, lng,
	)
	if err != nil {
		return nil, fmt.Errorf("append break: %w", err)
	}
	id, _ := res.LastInsertId()
	return &Break{ID: id, ShiftID: shiftID, StartTS: ts, StartGeo: geo}, nil
}

func (s *Store) CloseBreak(breakID int64, ts time.Time, geo *GeoPoint) error {
	lat, lng := geoArgs(geo)
	_, err := s.db.Exec(
		`UPDATE breaks SET end_ts = ?, end_lat = ?, end_lng = ?
		 WHERE id = ? AND end_ts IS NULL`,
		ts.UTC().Format(time.RFC3339), lat, lng, breakID,
	)
	if err != nil {
		return fmt.Errorf("close break: %w", err)
	}
	return nil
}

func (s *Store) listBreaks(shiftID string) ([]Break, error) {
	rows, err := s.db.Query(
		`SELECT id, shift_id, start_ts, start_lat, start_lng, end_ts, end_lat, end_lng
		 FROM breaks WHERE shift_id = ? ORDER BY start_ts, id`, shiftID,
	)
	if err != nil {
		return nil, fmt.Errorf("list breaks: %w", err)
	}
	defer rows.Close()

	var breaks []Break
	for rows.Next() {
		var b Break
		var startTS string
		var endTS sql.NullString
		var startLat, startLng, endLat, endLng sql.NullFloat64
		if err := rows.Scan(&b.ID, &b.ShiftID, &startTS, &startLat, &startLng, &endTS, &endLat, &endLng); err != nil {
			return nil, err
		}
		b.StartTS, _ = time.Parse(time.RFC3339, startTS)
		b.StartGeo = scanGeo(startLat, startLng)
		if endTS.Valid {
			t, _ := time.Parse(time.RFC3339, endTS.String)
			b.EndTS = &t
		}
		b.EndGeo = scanGeo(endLat, endLng)
		breaks = append(breaks, b)
	}
	return breaks, rows.Err()
}

// ListShifts returns shifts newest first, breaks included.
func (s *Store) ListShifts(f ShiftFilter) ([]Shift, error) {
	query := `SELECT id, employee_id, project_id, date, start_ts, start_lat, start_lng,
	                 finish_ts, finish_lat, finish_lng, notes
	          FROM shifts WHERE 1=1`
	var args []any

	if f.EmployeeID != nil {
		query += ` AND employee_id = ?`
		args = append(args, *f.EmployeeID)
	}
	if f.From != nil {
		query += ` AND start_ts >= ?`
		args = append(args, f.From.UTC().Format(time.RFC3339))
	}
	if f.To != nil {
		query += ` AND start_ts < ?`
		args = append(args, f.To.UTC().Format(time.RFC3339))
	}
	query += ` ORDER BY start_ts DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list shifts: %w", err)
	}
	defer rows.Close()

	var shifts []Shift
	for rows.Next() {
		sh := Shift{}
		var startTS string
		var finishTS sql.NullString
		var startLat, startLng, finishLat, finishLng sql.NullFloat64
		if err := rows.Scan(&sh.ID, &sh.EmployeeID, &sh.ProjectID, &sh.Date,
			&startTS, &startLat, &startLng, &finishTS, &finishLat, &finishLng, &sh.Notes); err != nil {
			return nil, err
		}
		sh.StartTS, _ = time.Parse(time.RFC3339, startTS)
		sh.StartGeo = scanGeo(startLat, startLng)
		if finishTS.Valid {
			t, _ := time.Parse(time.RFC3339, finishTS.String)
			sh.FinishTS = &t
		}
		sh.FinishGeo = scanGeo(finishLat, finishLng)
		shifts = append(shifts, sh)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range shifts {
		shifts[i].Breaks, err = s.listBreaks(shifts[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return shifts, nil
}

// GetDayTotals aggregates worked time per calendar day over [from, to).
func (s *Store) GetDayTotals(from, to time.Time) ([]DayTotal, error) {
	shifts, err := s.ListShifts(ShiftFilter{From: &from, To: &to})
	if err != nil {
		return nil, err
	}

	byDate := make(map[string]*DayTotal)
	var order []string
	for _, sh := range shifts {
		if sh.Open() {
			continue
		}
		dt, ok := byDate[sh.Date]
		if !ok {
			dt = &DayTotal{Date: sh.Date}
			byDate[sh.Date] = dt
			order = append(order, sh.Date)
		}
		dt.TotalSeconds += sh.WorkedSeconds(*sh.FinishTS)
		dt.ShiftCount++
	}

	// ListShifts is newest first; reverse into chronological order.
	totals := make([]DayTotal, 0, len(order))
	for i := len(order) - 1; i >= 0; i-- {
		totals = append(totals, *byDate[order[i]])
	}
	return totals, nil
}
