package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"github.com/desertthunder/linkbox/internal/dashboard"
)

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case EntryView:
		return m.renderEntry()
	case ListView:
		return m.renderList()
	default:
		return styles.help.Render("Resolving session...")
	}
}

func (m *Model) renderEntry() string {
	title := styles.title.Render("linkbox")
	body := "Sign in with Google to see your bookmarks."
	if m.signingIn {
		body = "A browser window was opened. Finish signing in there."
	}

	signIn := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "sign in"))
	helpView := m.help.ShortHelpView([]key.Binding{signIn, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n%s\n\n%s", title, body, m.renderStatus(), helpView)
}

func (m *Model) renderList() string {
	var b strings.Builder
	b.WriteString(m.list.View())
	b.WriteString("\n")
	b.WriteString(m.renderForm())
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")

	var helpKeys []key.Binding
	if m.focus == focusList {
		helpKeys = m.keys.ShortHelp()
	} else {
		helpKeys = []key.Binding{m.keys.enter, m.keys.next, m.keys.back}
	}
	b.WriteString(m.help.ShortHelpView(helpKeys))
	return b.String()
}

func (m *Model) renderForm() string {
	heading := "New bookmark"
	if m.form.State() == dashboard.Editing {
		heading = "Editing bookmark"
	}

	rows := []string{
		styles.label.Render(heading),
		fmt.Sprintf("%s %s", styles.help.Render("title"), m.title.View()),
		fmt.Sprintf("%s %s", styles.help.Render("url  "), m.url.View()),
	}
	return styles.box.Render(strings.Join(rows, "\n"))
}

func (m *Model) renderStatus() string {
	if m.status == "" {
		return ""
	}
	return m.tone.Render(m.status)
}
