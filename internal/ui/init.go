package ui

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"thronemind/internal/models"
	"thronemind/internal/session"
	"thronemind/internal/styles"
)

func NewModel(deps Deps) *Model {
	ti := textarea.New()
	ti.Placeholder = "Ask ThroneMind... (@image.png to attach a photo)"
	ti.Prompt = "❯ "
	ti.ShowLineNumbers = false
	ti.CharLimit = 0
	ti.MaxHeight = 6
	ti.SetHeight(1)
	ti.SetWidth(80)
	ti.FocusedStyle.Prompt = lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
	ti.BlurredStyle.Prompt = lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
	ti.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(styles.HintColor)
	ti.BlurredStyle.Placeholder = lipgloss.NewStyle().Foreground(styles.HintColor)
	ti.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ti.BlurredStyle.CursorLine = lipgloss.NewStyle()
	ti.Focus()

	ni := textinput.New()
	ni.Placeholder = "Write a note or a prompt to improve..."
	ni.Prompt = "✎ "
	ni.PromptStyle = lipgloss.NewStyle().Foreground(styles.Primary)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.Primary)

	m := &Model{
		deps:         deps,
		route:        deps.Session.Guard(models.RouteHome),
		login:        newLoginForm(),
		register:     newRegisterForm(),
		Viewport:     viewport.New(60, 15),
		TextInput:    ti,
		NoteInput:    ni,
		Spinner:      sp,
		modalWidth:   MaxModalWidth,
		contentWidth: MaxModalWidth - 6,
	}
	if p, ok := deps.Session.Profile(); ok {
		deps.Store.SetOwner(p.Email)
	}
	deps.Store.Subscribe(m.storeChanged)
	m.UpdateViewport()
	return m
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink, m.Spinner.Tick}
	if m.route == models.RouteHome {
		cmds = append(cmds, m.start(opSummary, m.deps.Store.BeginSummary))
	}
	return tea.Batch(cmds...)
}

// NewProgram builds the TUI and hooks the session's navigation into it.
func NewProgram(deps Deps) (*tea.Program, *Model) {
	m := NewModel(deps)
	p := tea.NewProgram(m, tea.WithAltScreen())
	m.Program = p
	deps.Session.SetNavigator(session.NavigatorFunc(func(r models.Route) {
		go p.Send(navigateMsg{route: r})
	}))
	return p, m
}
