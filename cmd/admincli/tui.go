package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/essexfb/backend/adminauth"
	"github.com/essexfb/backend/feedback"
)

type state int

const (
	statePassword state = iota
	stateMenu
	stateRecent
	statePurgeConfirm
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type model struct {
	state state
	store *feedback.Store
	guard *adminauth.Guard

	passwordInput textinput.Model
	confirmInput  textinput.Model

	recent  []feedback.Submission
	status  string
	lastErr string
}

type loginDoneMsg struct{ err error }
type recentMsg struct {
	subs []feedback.Submission
	err  error
}
type exportDoneMsg struct {
	filename string
	count    int
	err      error
}
type purgeDoneMsg struct {
	cleared int
	err     error
}

func initialModel(store *feedback.Store, guard *adminauth.Guard) model {
	password := textinput.New()
	password.Placeholder = "admin password"
	password.EchoMode = textinput.EchoPassword
	password.Focus()

	confirm := textinput.New()
	confirm.Placeholder = "type DELETE to confirm"

	return model{
		state:         statePassword,
		store:         store,
		guard:         guard,
		passwordInput: password,
		confirmInput:  confirm,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) login(password string) tea.Cmd {
	return func() tea.Msg {
		_, err := m.guard.Login(context.Background(), password)
		return loginDoneMsg{err: err}
	}
}

func (m model) loadRecent(n int) tea.Cmd {
	return func() tea.Msg {
		subs, err := m.store.Recent(context.Background(), n)
		return recentMsg{subs: subs, err: err}
	}
}

func (m model) export(render func(context.Context) (feedback.Export, error)) tea.Cmd {
	return func() tea.Msg {
		export, err := render(context.Background())
		if err != nil {
			return exportDoneMsg{err: err}
		}
		if export.Count == 0 {
			return exportDoneMsg{count: 0}
		}
		if err := os.WriteFile(export.Filename, export.Content, 0o644); err != nil {
			return exportDoneMsg{err: err}
		}
		return exportDoneMsg{filename: export.Filename, count: export.Count}
	}
}

func (m model) purge() tea.Cmd {
	return func() tea.Msg {
		result, err := m.store.Purge(context.Background())
		return purgeDoneMsg{cleared: result.ClearedCount, err: err}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.state {
	case statePassword:
		return m.updatePassword(msg)
	case stateMenu:
		return m.updateMenu(msg)
	case stateRecent:
		if key, ok := msg.(tea.KeyMsg); ok {
			switch key.String() {
			case "b", "esc":
				m.state = stateMenu
			case "q":
				return m, tea.Quit
			}
		}
		return m, nil
	case statePurgeConfirm:
		return m.updatePurgeConfirm(msg)
	}
	return m, nil
}

func (m model) updatePassword(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, tea.Quit
		case "enter":
			password := m.passwordInput.Value()
			m.passwordInput.SetValue("")
			return m, m.login(password)
		}
	case loginDoneMsg:
		if msg.err != nil {
			m.lastErr = msg.err.Error()
			return m, nil
		}
		m.lastErr = ""
		m.state = stateMenu
		return m, nil
	}

	var cmd tea.Cmd
	m.passwordInput, cmd = m.passwordInput.Update(msg)
	return m, cmd
}

func (m model) updateMenu(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// the session expires on idle like everywhere else; bounce back to
		// the password prompt instead of failing the chosen action
		if !m.guard.IsValid(context.Background()) {
			m.state = statePassword
			m.lastErr = "session expired, log in again"
			m.passwordInput.Focus()
			return m, textinput.Blink
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "1":
			return m, m.loadRecent(10)
		case "2":
			return m, m.export(m.store.ExportCSV)
		case "3":
			return m, m.export(m.store.ExportJSON)
		case "4":
			m.state = statePurgeConfirm
			m.confirmInput.SetValue("")
			m.confirmInput.Focus()
			return m, textinput.Blink
		}
	case recentMsg:
		if msg.err != nil {
			m.lastErr = msg.err.Error()
			return m, nil
		}
		m.lastErr = ""
		m.recent = msg.subs
		m.state = stateRecent
		return m, nil
	case exportDoneMsg:
		if msg.err != nil {
			m.lastErr = msg.err.Error()
			return m, nil
		}
		m.lastErr = ""
		if msg.count == 0 {
			m.status = "No submissions to export."
		} else {
			m.status = fmt.Sprintf("Exported %d submissions to %s", msg.count, msg.filename)
		}
		return m, nil
	}
	return m, nil
}

func (m model) updatePurgeConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			m.state = stateMenu
			return m, nil
		case "enter":
			if m.confirmInput.Value() != "DELETE" {
				m.lastErr = "confirmation did not match, purge cancelled"
				m.state = stateMenu
				return m, nil
			}
			return m, m.purge()
		}
	case purgeDoneMsg:
		m.state = stateMenu
		if msg.err != nil {
			m.lastErr = msg.err.Error()
			return m, nil
		}
		m.lastErr = ""
		m.status = fmt.Sprintf("Cleared %d submissions.", msg.cleared)
		return m, nil
	}

	var cmd tea.Cmd
	m.confirmInput, cmd = m.confirmInput.Update(msg)
	return m, cmd
}

func (m model) View() string {
	switch m.state {
	case statePassword:
		s := titleStyle.Render("Essex Feedback — Admin") + "\n\n"
		s += "Enter the admin password:\n\n"
		s += m.passwordInput.View() + "\n\n"
		if m.lastErr != "" {
			s += errorStyle.Render(m.lastErr) + "\n\n"
		}
		s += dimStyle.Render("esc to quit") + "\n"
		return s
	case stateMenu:
		s := titleStyle.Render("Essex Feedback — Admin") + "\n\n"
		s += "1. Recent submissions\n"
		s += "2. Export CSV\n"
		s += "3. Export JSON backup\n"
		s += "4. Clear all submissions\n\n"
		if m.status != "" {
			s += statusStyle.Render(m.status) + "\n"
		}
		if m.lastErr != "" {
			s += errorStyle.Render(m.lastErr) + "\n"
		}
		s += "\n" + dimStyle.Render("q to quit") + "\n"
		return s
	case stateRecent:
		s := titleStyle.Render("Recent submissions") + "\n\n"
		if len(m.recent) == 0 {
			s += "No submissions yet.\n"
		}
		for _, sub := range m.recent {
			name := sub.LastName
			if sub.IsAnonymous {
				name = "(anonymous)"
			}
			s += fmt.Sprintf("%s  %s  unit %s  [%s] %s\n",
				sub.SubmittedAt.Format("2006-01-02 15:04"),
				name, sub.UnitNumber, sub.Urgency, sub.Subject)
			if sub.Comment != "" {
				s += dimStyle.Render("  "+truncate(sub.Comment, 100)) + "\n"
			}
		}
		s += "\n" + dimStyle.Render("b to go back, q to quit") + "\n"
		return s
	case statePurgeConfirm:
		s := titleStyle.Render("Clear ALL submissions") + "\n\n"
		s += "This cannot be undone. Consider exporting first.\n\n"
		s += m.confirmInput.View() + "\n\n"
		s += dimStyle.Render("enter to confirm, esc to cancel") + "\n"
		return s
	}
	return ""
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
