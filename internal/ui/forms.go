package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"thronemind/internal/styles"
)

const (
	loginEmail = iota
	loginPassword
)

const (
	regEmail = iota
	regNickname
	regPassword
	regPhoto
)

func newInput(placeholder string, secret bool) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.Prompt = ""
	in.CharLimit = 256
	in.Width = 40
	if secret {
		in.EchoMode = textinput.EchoPassword
		in.EchoCharacter = '•'
	}
	return in
}

func newLoginForm() form {
	f := form{inputs: []textinput.Model{
		newInput("email", false),
		newInput("password", true),
	}}
	f.focusFirst()
	return f
}

func newRegisterForm() form {
	f := form{inputs: []textinput.Model{
		newInput("email", false),
		newInput("nickname", false),
		newInput("password", true),
		newInput("photo path (optional)", false),
	}}
	f.focusFirst()
	return f
}

func (f *form) value(i int) string {
	return strings.TrimSpace(f.inputs[i].Value())
}

// filled reports whether every listed field has a value.
func (f *form) filled(fields ...int) bool {
	for _, i := range fields {
		if f.value(i) == "" {
			return false
		}
	}
	return true
}

func (f *form) focusFirst() {
	f.setFocus(0)
}

func (f *form) setFocus(i int) {
	n := len(f.inputs)
	f.focus = ((i % n) + n) % n
	for j := range f.inputs {
		if j == f.focus {
			f.inputs[j].Focus()
		} else {
			f.inputs[j].Blur()
		}
	}
}

func (f *form) next() { f.setFocus(f.focus + 1) }
func (f *form) prev() { f.setFocus(f.focus - 1) }

func (f *form) reset() {
	for i := range f.inputs {
		f.inputs[i].Reset()
	}
	f.notice = ""
	f.focusFirst()
}

func (f *form) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f *form) view(labels []string, width int) string {
	rows := make([]string, 0, len(f.inputs))
	for i, in := range f.inputs {
		label := styles.FormLabelStyle.Render(labels[i])
		box := styles.FormInputStyle
		if i == f.focus {
			box = styles.FormInputFocusedStyle
		}
		rows = append(rows, lipgloss.JoinVertical(lipgloss.Left, label, box.Width(width).Render(in.View())))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
