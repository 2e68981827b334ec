package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/crewtime/shiftclock/internal/store"
)

var employeeRoles = []string{"worker", "foreman", "manager"}

type crewModel struct {
	store  *store.Store
	width  int
	height int

	employees []store.Employee
	projects  []store.Project

	onProjects bool // false = employees column focused
	empCursor  int
	projCursor int

	formActive bool
	form       *huh.Form
	formType   string // "employee", "project"

	// Form field pointers (survive value copies)
	formName    *string
	formRole    *string
	formAddress *string
}

func newCrewModel(s *store.Store) crewModel {
	name, role, address := "", employeeRoles[0], ""
	return crewModel{
		store:       s,
		formName:    &name,
		formRole:    &role,
		formAddress: &address,
	}
}

func (c *crewModel) setSize(w, h int) {
	c.width = w
	c.height = h
}

type crewDataMsg struct {
	employees []store.Employee
	projects  []store.Project
}

func (c crewModel) refresh() tea.Cmd {
	return func() tea.Msg {
		employees, _ := c.store.ListEmployees()
		projects, _ := c.store.ListProjects()
		return crewDataMsg{employees: employees, projects: projects}
	}
}

func (c crewModel) update(msg tea.Msg) (crewModel, tea.Cmd) {
	if c.formActive && c.form != nil {
		return c.updateForm(msg)
	}

	switch msg := msg.(type) {
	case crewDataMsg:
		c.employees = msg.employees
		c.projects = msg.projects
		if c.empCursor >= len(c.employees) {
			c.empCursor = max(0, len(c.employees)-1)
		}
		if c.projCursor >= len(c.projects) {
			c.projCursor = max(0, len(c.projects)-1)
		}
		return c, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			c.onProjects = false
		case key.Matches(msg, keys.Right):
			c.onProjects = true
		case key.Matches(msg, keys.Up):
			if c.onProjects && c.projCursor > 0 {
				c.projCursor--
			} else if !c.onProjects && c.empCursor > 0 {
				c.empCursor--
			}
		case key.Matches(msg, keys.Down):
			if c.onProjects && c.projCursor < len(c.projects)-1 {
				c.projCursor++
			} else if !c.onProjects && c.empCursor < len(c.employees)-1 {
				c.empCursor++
			}
		case key.Matches(msg, keys.New):
			if c.onProjects {
				return c.showProjectForm()
			}
			return c.showEmployeeForm()
		}
	}
	return c, nil
}

func (c crewModel) showEmployeeForm() (crewModel, tea.Cmd) {
	*c.formName = ""
	*c.formRole = employeeRoles[0]

	roleOptions := make([]huh.Option[string], 0, len(employeeRoles))
	for _, r := range employeeRoles {
		roleOptions = append(roleOptions, huh.NewOption(r, r))
	}

	c.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(c.formName),
			huh.NewSelect[string]().Title("Role").Options(roleOptions...).Value(c.formRole),
		).Title("New Employee"),
	).WithShowHelp(true).WithShowErrors(true)

	c.formType = "employee"
	c.formActive = true
	return c, c.form.Init()
}

func (c crewModel) showProjectForm() (crewModel, tea.Cmd) {
	*c.formName = ""
	*c.formAddress = ""

	c.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(c.formName),
			huh.NewInput().Title("Address").Value(c.formAddress),
		).Title("New Project"),
	).WithShowHelp(true).WithShowErrors(true)

	c.formType = "project"
	c.formActive = true
	return c, c.form.Init()
}

func (c crewModel) updateForm(msg tea.Msg) (crewModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			c.formActive = false
			c.form = nil
			return c, nil
		}
	}

	form, cmd := c.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		c.form = f
	}

	if c.form.State == huh.StateCompleted {
		c.formActive = false
		return c, c.submitForm()
	}

	return c, cmd
}

func (c crewModel) submitForm() tea.Cmd {
	formType := c.formType
	name := strings.TrimSpace(*c.formName)
	role := *c.formRole
	address := strings.TrimSpace(*c.formAddress)

	return func() tea.Msg {
		if name == "" {
			return statusMsg{text: "Name is required", isError: true}
		}
		if formType == "project" {
			p, err := c.store.CreateProject(name, address)
			if err != nil {
				return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
			}
			return projectCreatedMsg{project: p}
		}
		e, err := c.store.CreateEmployee(name, role)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		return employeeCreatedMsg{employee: e}
	}
}

func (c crewModel) view() string {
	w := c.width - 4

	if c.formActive && c.form != nil {
		return panelStyle.Width(w).Render(c.form.View())
	}

	colWidth := w/2 - 2
	left := c.renderEmployees(colWidth)
	right := c.renderProjects(colWidth)
	hint := mutedStyle.Render("  ←/→: switch column  n: new")

	columns := lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	return lipgloss.JoinVertical(lipgloss.Left, columns, hint)
}

func (c crewModel) renderEmployees(w int) string {
	var rows []string
	rows = append(rows, titleStyle.Render("Employees"))
	if len(c.employees) == 0 {
		rows = append(rows, mutedStyle.Render("No employees. Press n to add."))
	}
	for i, e := range c.employees {
		cursor := "  "
		style := normalItemStyle
		if !c.onProjects && i == c.empCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%-18s %s", cursor, e.Name, mutedStyle.Render(e.Role))))
	}

	if c.onProjects {
		return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
	}
	return activePanelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (c crewModel) renderProjects(w int) string {
	var rows []string
	rows = append(rows, titleStyle.Render("Projects"))
	if len(c.projects) == 0 {
		rows = append(rows, mutedStyle.Render("No projects. Press n to add."))
	}
	for i, p := range c.projects {
		cursor := "  "
		style := normalItemStyle
		if c.onProjects && i == c.projCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		line := fmt.Sprintf("%s%s", cursor, p.Name)
		if p.Address != "" {
			line += mutedStyle.Render("  " + p.Address)
		}
		rows = append(rows, style.Render(line))
	}

	if c.onProjects {
		return activePanelStyle.Width(w).Render(strings.Join(rows, "\n"))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
