package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"thronemind/internal/models"
	"thronemind/internal/state"
	"thronemind/internal/styles"
)

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		if m.route == models.RouteHome {
			m.UpdateViewport()
		}
		return m, cmd

	case settledMsg:
		return m, m.settle(msg)

	case navigateMsg:
		if msg.route == models.RouteLogin && m.route.Protected() {
			m.login.notice = "Your session has ended. Please sign in again."
		}
		return m, m.navigate(msg.route)

	case transcriptMsg:
		return m, m.applyTranscript(msg)

	case voiceDoneMsg:
		m.stopListening()
		return m, nil

	case tea.WindowSizeMsg:
		m.resize(msg)
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}

	return m, m.updateInputs(msg)
}

// busy reports whether any request is in flight.
func (m *Model) busy() bool {
	st := m.deps.Store
	return m.deps.Session.Login.Pending() || m.deps.Session.Register.Pending() ||
		st.Improve.Pending() || st.History.Pending() || st.Save.Pending() ||
		st.Act.Pending() || st.ActPhoto.Pending() || st.Optimize.Pending() ||
		st.TaskStatus.Pending() || st.Summary.Pending()
}

func (m *Model) chatBusy() bool {
	return m.deps.Store.Act.Pending() || m.deps.Store.ActPhoto.Pending()
}

func (m *Model) updateInputs(msg tea.Msg) tea.Cmd {
	switch m.route {
	case models.RouteLogin:
		return m.login.update(msg)
	case models.RouteRegister:
		return m.register.update(msg)
	case models.RouteHome:
		var cmd tea.Cmd
		m.TextInput, cmd = m.TextInput.Update(msg)
		return cmd
	case models.RouteNotes:
		var cmd tea.Cmd
		m.NoteInput, cmd = m.NoteInput.Update(msg)
		return cmd
	}
	return nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		m.stopListening()
		return tea.Quit
	}
	if m.modal != modalNone {
		return m.handleModalKey(msg)
	}

	switch m.route {
	case models.RouteLogin:
		return m.handleLoginKey(msg)
	case models.RouteRegister:
		return m.handleRegisterKey(msg)
	}

	switch msg.String() {
	case "f1":
		return m.navigate(models.RouteHome)
	case "f2":
		return m.navigate(models.RouteNotes)
	case "f3":
		return m.navigate(models.RouteTodos)
	case "f4":
		return m.navigate(models.RouteProfile)
	case "ctrl+s":
		m.modal = modalShortcuts
		return nil
	}
	m.notice = ""

	switch m.route {
	case models.RouteHome:
		return m.handleChatKey(msg)
	case models.RouteNotes:
		return m.handleNotesKey(msg)
	case models.RouteTodos:
		return m.handleTodosKey(msg)
	case models.RouteProfile:
		return m.handleProfileKey(msg)
	}
	return nil
}

func (m *Model) handleLoginKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "tab", "down":
		m.login.next()
		return nil
	case "shift+tab", "up":
		m.login.prev()
		return nil
	case "ctrl+r":
		return m.navigate(models.RouteRegister)
	case "esc":
		return tea.Quit
	case "enter":
		if m.login.focus == loginEmail {
			m.login.next()
			return nil
		}
		return m.submitLogin()
	}
	return m.login.update(msg)
}

func (m *Model) submitLogin() tea.Cmd {
	if !m.login.filled(loginEmail, loginPassword) || m.deps.Session.Login.Pending() {
		return nil
	}
	m.login.notice = ""
	email, password := m.login.value(loginEmail), m.login.inputs[loginPassword].Value()
	return m.start(opLogin, func() (state.Runner, error) {
		return m.deps.Session.BeginLogin(m.deps.Auth, email, password)
	})
}

func (m *Model) handleRegisterKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "tab", "down":
		m.register.next()
		return nil
	case "shift+tab", "up":
		m.register.prev()
		return nil
	case "esc":
		return m.navigate(models.RouteLogin)
	case "enter":
		if m.register.focus < regPhoto {
			m.register.next()
			return nil
		}
		return m.submitRegister()
	}
	return m.register.update(msg)
}

func (m *Model) submitRegister() tea.Cmd {
	f := &m.register
	if !f.filled(regEmail, regNickname, regPassword) || m.deps.Session.Register.Pending() {
		return nil
	}
	rf := models.RegisterForm{
		Email:    f.value(regEmail),
		Nickname: f.value(regNickname),
		Password: f.inputs[regPassword].Value(),
	}
	if path := f.value(regPhoto); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			f.notice = fmt.Sprintf("Cannot read photo: %v", err)
			return nil
		}
		rf.Photo = &models.Photo{Filename: path, Data: data}
	}
	f.notice = ""
	return m.start(opRegister, func() (state.Runner, error) {
		return m.deps.Session.BeginRegister(m.deps.Auth, rf)
	})
}

func (m *Model) handleChatKey(msg tea.KeyMsg) tea.Cmd {
	if isNewlineShortcut(msg) {
		m.TextInput.InsertString("\n")
		m.FileSuggestOpen = false
		m.updateInputLayout()
		return nil
	}

	if m.FileSuggestOpen {
		switch msg.String() {
		case "esc":
			m.FileSuggestOpen = false
			return nil
		case "up", "ctrl+p":
			if len(m.FileSuggestions) > 0 {
				m.FileSuggestIdx--
				if m.FileSuggestIdx < 0 {
					m.FileSuggestIdx = len(m.FileSuggestions) - 1
				}
			}
			return nil
		case "down", "ctrl+n":
			if len(m.FileSuggestions) > 0 {
				m.FileSuggestIdx++
				if m.FileSuggestIdx >= len(m.FileSuggestions) {
					m.FileSuggestIdx = 0
				}
			}
			return nil
		case "tab", "enter":
			m.acceptSuggestion()
			return nil
		}
	}

	switch msg.String() {
	case "ctrl+n":
		m.deps.Store.NewConversation()
		m.TextInput.Reset()
		m.updateInputLayout()
		return nil
	case "ctrl+h":
		m.modal = modalConversations
		m.convPage = 0
		m.refreshConversations()
		return nil
	case "ctrl+o":
		if id, ok := m.openDuplicate(); ok {
			m.optimizeMessageID = id
			m.modal = modalOptimize
		} else {
			m.notice = "No duplicate tasks to merge."
		}
		return nil
	case "ctrl+r":
		return m.start(opSummary, m.deps.Store.BeginSummary)
	case "ctrl+v":
		return m.startListening(voiceChat)
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.Viewport, cmd = m.Viewport.Update(msg)
		return cmd
	case "enter":
		return m.send()
	}

	var cmd tea.Cmd
	m.TextInput, cmd = m.TextInput.Update(msg)
	m.updateInputLayout()

	// Terminal background and cursor report sequences can leak into the input.
	val := m.TextInput.Value()
	if strings.Contains(val, "]11;rgb:") || strings.Contains(val, "1;rgb:") || strings.Contains(val, "[1;1R") {
		m.TextInput.Reset()
	}

	val = m.TextInput.Value()
	if prefix, _, found := GetAtPosition(val, TextareaCursorIndex(m.TextInput)); found {
		if suggestions := GetFileSuggestions(prefix); len(suggestions) > 0 {
			m.FileSuggestions = suggestions
			m.FileSuggestOpen = true
			m.FileSuggestIdx = 0
		} else {
			m.FileSuggestOpen = false
		}
	} else {
		m.FileSuggestOpen = false
	}
	_, m.PendingImages = ExtractImageMentions(val)

	return cmd
}

func (m *Model) acceptSuggestion() {
	if len(m.FileSuggestions) == 0 || m.FileSuggestIdx >= len(m.FileSuggestions) {
		m.FileSuggestOpen = false
		return
	}
	selected := m.FileSuggestions[m.FileSuggestIdx]
	val := m.TextInput.Value()
	prefix, startPos, found := GetAtPosition(val, TextareaCursorIndex(m.TextInput))
	if found {
		newVal := val[:startPos] + "@" + selected + " " + val[startPos+1+len(prefix):]
		m.TextInput.SetValue(newVal)
		row, col := TextareaCursorFromIndex(newVal, startPos+len(selected)+2)
		SetTextareaCursor(&m.TextInput, row, col)
	}
	m.FileSuggestOpen = false
	_, m.PendingImages = ExtractImageMentions(m.TextInput.Value())
}

func (m *Model) send() tea.Cmd {
	input := m.TextInput.Value()
	if strings.TrimSpace(input) == "" || m.chatBusy() {
		return nil
	}
	if input == "/clear" || input == "/new" {
		m.deps.Store.NewConversation()
		m.TextInput.Reset()
		m.updateInputLayout()
		return nil
	}

	text, images := ExtractImageMentions(input)
	var cmds []tea.Cmd
	if len(images) > 0 {
		data, err := os.ReadFile(images[0])
		if err != nil {
			m.notice = fmt.Sprintf("Cannot read %s: %v", images[0], err)
			return nil
		}
		photo := models.Photo{Filename: images[0], Data: data}
		cmds = append(cmds, m.start(opActPhoto, func() (state.Runner, error) {
			return m.deps.Store.BeginActWithPhoto(photo)
		}))
	}
	if text != "" {
		cmds = append(cmds, m.start(opAct, func() (state.Runner, error) {
			return m.deps.Store.BeginAct(text)
		}))
	}

	m.TextInput.Reset()
	m.PendingImages = nil
	m.FileSuggestOpen = false
	m.updateInputLayout()
	m.UpdateViewport()
	return tea.Batch(cmds...)
}

// openDuplicate finds the newest duplicate-task message not yet merged.
func (m *Model) openDuplicate() (string, bool) {
	msgs := m.deps.Store.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Type == models.TypeDuplicateTask && !msgs[i].Resolved && len(msgs[i].Tasks) > 0 {
			return msgs[i].ID, true
		}
	}
	return "", false
}

func (m *Model) handleNotesKey(msg tea.KeyMsg) tea.Cmd {
	st := m.deps.Store
	switch msg.String() {
	case "enter":
		if _, err := st.AddNote(m.NoteInput.Value(), m.voiceNote); err == nil {
			m.NoteInput.Reset()
			m.voiceNote = false
			m.notesSelected = 0
			st.ClearCurrentPrompt()
		}
		return nil
	case "ctrl+e":
		if m.NoteInput.Value() != st.CurrentPrompt() {
			st.SetCurrentPrompt(m.NoteInput.Value())
		}
		return m.start(opImprove, st.BeginImprove)
	case "ctrl+y":
		if _, err := st.UseImprovedAsNote(); err == nil {
			m.notesSelected = 0
		}
		return nil
	case "ctrl+w":
		return m.start(opSave, func() (state.Runner, error) { return st.BeginSave("") })
	case "ctrl+h":
		m.modal = modalPrompts
		m.promptSelected = 0
		return m.start(opHistory, st.BeginHistory)
	case "ctrl+v":
		return m.startListening(voiceNotes)
	case "up":
		if m.notesSelected > 0 {
			m.notesSelected--
		}
		return nil
	case "down":
		if m.notesSelected < len(st.Notes())-1 {
			m.notesSelected++
		}
		return nil
	case "ctrl+d":
		notes := st.Notes()
		if m.notesSelected < len(notes) {
			if err := st.DeleteNote(notes[m.notesSelected].ID); err != nil {
				m.notice = err.Error()
			}
			if m.notesSelected > 0 && m.notesSelected >= len(notes)-1 {
				m.notesSelected--
			}
		}
		return nil
	case "esc":
		st.ClearPromptErrors()
		return nil
	}

	var cmd tea.Cmd
	before := m.NoteInput.Value()
	m.NoteInput, cmd = m.NoteInput.Update(msg)
	if after := m.NoteInput.Value(); after != before {
		if after == "" {
			m.voiceNote = false
		}
		st.SetCurrentPrompt(after)
	}
	return cmd
}

func (m *Model) handleTodosKey(msg tea.KeyMsg) tea.Cmd {
	tasks := m.deps.Store.Tasks()
	switch msg.String() {
	case "up", "k":
		if m.todoSelected > 0 {
			m.todoSelected--
		}
	case "down", "j":
		if m.todoSelected < len(tasks)-1 {
			m.todoSelected++
		}
	case "enter", " ":
		if m.todoSelected < len(tasks) {
			id := tasks[m.todoSelected].ID
			return m.start(opTaskStatus, func() (state.Runner, error) {
				return m.deps.Store.BeginCycleStatus(id)
			})
		}
	case "esc":
		m.deps.Store.ResetTaskStatus()
	}
	return nil
}

func (m *Model) handleProfileKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "l" {
		m.deps.Session.Logout()
		m.deps.Store.SetOwner("")
		return m.navigate(models.RouteLogin)
	}
	return nil
}

func (m *Model) handleModalKey(msg tea.KeyMsg) tea.Cmd {
	switch m.modal {
	case modalShortcuts:
		switch msg.String() {
		case "esc", "enter", "?", "ctrl+s":
			m.modal = modalNone
		}
		return nil

	case modalOptimize:
		switch msg.String() {
		case "y", "enter":
			m.modal = modalNone
			id := m.optimizeMessageID
			return m.start(opOptimize, func() (state.Runner, error) {
				return m.deps.Store.BeginOptimize(id)
			})
		case "n", "esc":
			m.modal = modalNone
		}
		return nil

	case modalPrompts:
		history := m.deps.Store.PromptHistory()
		switch msg.String() {
		case "esc", "ctrl+h":
			m.modal = modalNone
		case "up", "k":
			if len(history) > 0 {
				m.promptSelected = (m.promptSelected - 1 + len(history)) % len(history)
			}
		case "down", "j":
			if len(history) > 0 {
				m.promptSelected = (m.promptSelected + 1) % len(history)
			}
		case "enter":
			if m.promptSelected < len(history) {
				h := history[m.promptSelected]
				m.NoteInput.SetValue(h.Original)
				m.NoteInput.CursorEnd()
				m.deps.Store.SetCurrentPrompt(h.Original)
				m.modal = modalNone
			}
		case "d":
			if m.promptSelected < len(history) {
				m.deps.Store.RemoveFromHistory(history[m.promptSelected].ID)
				if m.promptSelected > 0 && m.promptSelected >= len(history)-1 {
					m.promptSelected--
				}
			}
		case "x":
			m.deps.Store.ClearHistory()
			m.promptSelected = 0
		}
		return nil

	case modalConversations:
		switch msg.String() {
		case "esc", "ctrl+h":
			m.modal = modalNone
			m.convErr = nil
		case "up", "k":
			if len(m.convItems) > 0 {
				m.convSelected = (m.convSelected - 1 + len(m.convItems)) % len(m.convItems)
			}
		case "down", "j":
			if len(m.convItems) > 0 {
				m.convSelected = (m.convSelected + 1) % len(m.convItems)
			}
		case "enter":
			if len(m.convItems) == 0 {
				return nil
			}
			if err := m.deps.Store.LoadConversation(m.convItems[m.convSelected].ID); err != nil {
				m.convErr = err
				return nil
			}
			m.modal = modalNone
			m.convErr = nil
		case "left", "h":
			if m.convPage > 0 {
				m.convPage--
				m.refreshConversations()
			}
		case "right", "l":
			totalPages := (m.convCount + HistoryPageSize - 1) / HistoryPageSize
			if m.convPage < totalPages-1 {
				m.convPage++
				m.refreshConversations()
			}
		}
		return nil
	}
	return nil
}

func (m *Model) refreshConversations() {
	m.convErr = nil
	m.convItems = nil
	m.convSelected = 0
	count, items, err := m.deps.Store.Conversations(HistoryPageSize, m.convPage*HistoryPageSize)
	if err != nil {
		m.convErr = err
		return
	}
	m.convCount = count
	m.convItems = items
}

func isNewlineShortcut(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "shift+enter", "shift+return", "ctrl+j", "ctrl+enter", "alt+enter":
		return true
	default:
		return false
	}
}

func (m *Model) resize(msg tea.WindowSizeMsg) {
	m.WindowWidth = msg.Width
	m.WindowHeight = msg.Height

	m.modalWidth = msg.Width - 10
	if m.modalWidth > MaxModalWidth {
		m.modalWidth = MaxModalWidth
	}
	if m.modalWidth < MinModalWidth {
		m.modalWidth = MinModalWidth
	}
	m.contentWidth = m.modalWidth - 6

	m.Viewport.Width = msg.Width - 4
	m.NoteInput.Width = msg.Width - 10

	m.updateInputLayout()
	m.Renderer, _ = glamour.NewTermRenderer(
		glamour.WithStylePath(styles.GlamourStyle()),
		glamour.WithWordWrap(msg.Width-8),
	)
	m.UpdateViewport()
}

func (m *Model) updateInputLayout() {
	if m.WindowWidth == 0 || m.WindowHeight == 0 {
		return
	}

	inputWidth := m.WindowWidth - 6
	if inputWidth < 20 {
		inputWidth = 20
	}
	contentWidth := inputWidth - 2
	if contentWidth < 1 {
		contentWidth = 1
	}

	maxInputHeight := 6
	lineCount := WrappedLineCount(m.TextInput.Value(), contentWidth)
	if lineCount < 1 {
		lineCount = 1
	}
	if lineCount > maxInputHeight {
		lineCount = maxInputHeight
	}

	m.TextInput.MaxHeight = maxInputHeight
	m.TextInput.SetWidth(inputWidth)
	m.TextInput.SetHeight(lineCount)

	// header tabs, summary card, input box and bottom bar
	reserved := m.TextInput.Height() + 2 + summaryHeight + 6
	viewportHeight := m.WindowHeight - reserved
	if viewportHeight < 5 {
		viewportHeight = 5
	}
	m.Viewport.Height = viewportHeight
}
