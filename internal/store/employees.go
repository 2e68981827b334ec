package store

import "fmt"

func (s *Store) CreateEmployee(name, role string) (*Employee, error) {
	res, err := s.db.Exec(
		`INSERT INTO employees (name, role) VALUES (?, ?)`,
		name, role,
	)
	if err != nil {
		return nil, fmt.Errorf("insert employee: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetEmployee(id)
}

func (s *Store) GetEmployee(id int64) (*Employee, error) {
	e := &Employee{}
	err := s.db.QueryRow(
		`SELECT id, name, role FROM employees WHERE id = ?`, id,
	).Scan(&e.ID, &e.Name, &e.Role)
	if err != nil {
		return nil, fmt.Errorf("get employee %d: %w", id, err)
	}
	return e, nil
}

func (s *Store) ListEmployees() ([]Employee, error) {
	rows, err := s.db.Query(`SELECT id, name, role FROM employees ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		var e Employee
		if err := rows.Scan(&e.ID, &e.Name, &e.Role); err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}
