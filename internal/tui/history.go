package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/crewtime/shiftclock/internal/store"
)

const historyPageSize = 50

type historyModel struct {
	store  *store.Store
	width  int
	height int

	shifts    []store.Shift
	employees map[int64]*store.Employee
	projects  map[int64]*store.Project
	cursor    int
	expanded  map[string]bool // shift ID -> show breaks
}

func newHistoryModel(s *store.Store) historyModel {
	return historyModel{
		store:    s,
		expanded: make(map[string]bool),
	}
}

func (h *historyModel) setSize(w, ht int) {
	h.width = w
	h.height = ht
}

type historyDataMsg struct {
	shifts    []store.Shift
	employees map[int64]*store.Employee
	projects  map[int64]*store.Project
}

func (h historyModel) refresh() tea.Cmd {
	return func() tea.Msg {
		shifts, _ := h.store.ListShifts(store.ShiftFilter{Limit: historyPageSize})

		employees := make(map[int64]*store.Employee)
		elist, _ := h.store.ListEmployees()
		for i := range elist {
			employees[elist[i].ID] = &elist[i]
		}

		projects := make(map[int64]*store.Project)
		plist, _ := h.store.ListProjects()
		for i := range plist {
			projects[plist[i].ID] = &plist[i]
		}

		return historyDataMsg{shifts: shifts, employees: employees, projects: projects}
	}
}

func (h historyModel) update(msg tea.Msg) (historyModel, tea.Cmd) {
	switch msg := msg.(type) {
	case historyDataMsg:
		h.shifts = msg.shifts
		h.employees = msg.employees
		h.projects = msg.projects
		if h.cursor >= len(h.shifts) {
			h.cursor = max(0, len(h.shifts)-1)
		}
		return h, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if h.cursor > 0 {
				h.cursor--
			}
		case key.Matches(msg, keys.Down):
			if h.cursor < len(h.shifts)-1 {
				h.cursor++
			}
		case key.Matches(msg, keys.Enter):
			if h.cursor < len(h.shifts) {
				id := h.shifts[h.cursor].ID
				h.expanded[id] = !h.expanded[id]
			}
		}
	}
	return h, nil
}

func (h historyModel) view() string {
	w := h.width - 4

	var rows []string
	rows = append(rows, titleStyle.Render("Shift History"))

	if len(h.shifts) == 0 {
		rows = append(rows, mutedStyle.Render("No shifts recorded yet"))
		return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
	}

	for i, sh := range h.shifts {
		rows = append(rows, h.renderShiftRow(sh, i == h.cursor))
		if h.expanded[sh.ID] {
			rows = append(rows, h.renderBreakRows(sh)...)
		}
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  ↑/↓: move  enter: toggle breaks"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (h historyModel) renderShiftRow(sh store.Shift, selected bool) string {
	name := ""
	if e, ok := h.employees[sh.EmployeeID]; ok {
		name = e.Name
	}
	project := ""
	if p, ok := h.projects[sh.ProjectID]; ok {
		project = p.Name
	}

	span := sh.StartTS.Local().Format("15:04") + "–"
	status := successStyle.Render("✓")
	worked := ""
	if sh.FinishTS != nil {
		span += sh.FinishTS.Local().Format("15:04")
		worked = formatSeconds(sh.WorkedSeconds(*sh.FinishTS))
	} else {
		status = warningStyle.Render("●")
		worked = formatSeconds(sh.WorkedSeconds(time.Now())) + " (open)"
	}

	cursor := "  "
	style := normalItemStyle
	if selected {
		cursor = "> "
		style = selectedItemStyle
	}

	line := fmt.Sprintf("%s%s %s  %s  %-14s %-14s %s", cursor, status, sh.Date, span, name, project, worked)
	if len(sh.Breaks) > 0 {
		line += mutedStyle.Render(fmt.Sprintf("  [%d breaks]", len(sh.Breaks)))
	}
	return style.Render(line)
}

func (h historyModel) renderBreakRows(sh store.Shift) []string {
	var rows []string
	rows = append(rows, mutedStyle.Render("      in  @ "+locationLine(sh.StartGeo)))
	for _, b := range sh.Breaks {
		span := b.StartTS.Local().Format("15:04") + "–"
		if b.EndTS != nil {
			span += b.EndTS.Local().Format("15:04")
		} else {
			span += "…"
		}
		rows = append(rows, mutedStyle.Render("      break "+span+" @ "+locationLine(b.StartGeo)))
	}
	if sh.FinishTS != nil {
		rows = append(rows, mutedStyle.Render("      out @ "+locationLine(sh.FinishGeo)))
	}
	return rows
}
