package ui

import (
	"github.com/MatthiasKunnen/lockscreen/internal/identity"
	"github.com/MatthiasKunnen/lockscreen/internal/wizard"
	"github.com/charmbracelet/lipgloss"
	"strings"
)

// maxMaskWidth caps the number of mask characters so long passwords do not wrap.
const maxMaskWidth = 32

var (
	clockStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("252"))

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			MarginBottom(1)

	accountStyle = lipgloss.NewStyle().
			Width(40).
			Align(lipgloss.Center).
			Padding(0, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Foreground(lipgloss.Color("252"))

	inputStyle = lipgloss.NewStyle().
			Width(40).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("6"))

	placeholderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6"))
)

func (m Model) View() string {
	var body string
	switch view := m.wizard.View().(type) {
	case wizard.WelcomeView:
		body = m.viewWelcome(view)
	case wizard.AuthView:
		body = m.viewAuth(view)
	default:
		panic("ui: unhandled view")
	}

	if m.width == 0 || m.height == 0 {
		return body
	}

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)
}

func (m Model) viewClock() string {
	return lipgloss.JoinVertical(
		lipgloss.Center,
		clockStyle.Render(m.clock.Format(m.timeFormat)),
		dateStyle.Render(m.clock.Format(m.dateFormat)),
	)
}

func (m Model) accountName(id identity.Identity) string {
	if m.showRealName {
		return id.DisplayName()
	}
	return id.Name
}

func (m Model) viewWelcome(view wizard.WelcomeView) string {
	return lipgloss.JoinVertical(
		lipgloss.Center,
		m.viewClock(),
		accountStyle.Render(m.accountName(view.Identity)),
		hintStyle.Render("Press Enter to unlock"),
	)
}

func (m Model) viewAuth(view wizard.AuthView) string {
	var field string
	switch {
	case view.PasswordLength > 0:
		field = strings.Repeat("•", min(view.PasswordLength, maxMaskWidth))
	case !m.focused:
		field = placeholderStyle.Render("Enter password")
	}
	if m.focused && !view.Unlocked {
		field += "▏"
	}

	var status string
	switch {
	case view.Unlocked:
		status = "Unlocking"
	case view.Verifying:
		status = m.spinner.View() + " Verifying"
	case view.Error != "":
		status = errorStyle.Render(view.Error)
	}

	return lipgloss.JoinVertical(
		lipgloss.Center,
		m.viewClock(),
		accountStyle.Render(m.accountName(view.Identity)),
		inputStyle.Render(field),
		status,
	)
}
