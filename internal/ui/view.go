package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"thronemind/internal/models"
	"thronemind/internal/styles"
)

// summaryHeight is the number of lines the daily summary card occupies.
const summaryHeight = 5

func (m *Model) View() string {
	route := m.route
	// Never draw a protected view or its modals without a session, even for
	// the one frame before the guard's navigation arrives.
	if route.Protected() && !m.deps.Session.Authenticated() {
		return m.center(m.renderLogin())
	}

	if m.modal != modalNone {
		return m.renderModal()
	}

	var body string
	switch route {
	case models.RouteLogin:
		return m.center(m.renderLogin())
	case models.RouteRegister:
		return m.center(m.renderRegister())
	case models.RouteNotes:
		body = m.renderNotes()
	case models.RouteTodos:
		body = m.renderTodos()
	case models.RouteProfile:
		body = m.renderProfile()
	default:
		body = m.renderChat()
	}

	return lipgloss.JoinVertical(lipgloss.Left, m.renderTabs(), body, m.RenderBottomBar())
}

func (m *Model) center(s string) string {
	if m.WindowWidth == 0 || m.WindowHeight == 0 {
		return s
	}
	return lipgloss.Place(m.WindowWidth, m.WindowHeight, lipgloss.Center, lipgloss.Center, s)
}

func (m *Model) renderTabs() string {
	tabs := []struct {
		key   string
		label string
		route models.Route
	}{
		{"F1", "Chat", models.RouteHome},
		{"F2", "Notes", models.RouteNotes},
		{"F3", "Todos", models.RouteTodos},
		{"F4", "Profile", models.RouteProfile},
	}
	parts := []string{styles.TitleStyle.Render("THRONEMIND")}
	for _, t := range tabs {
		label := fmt.Sprintf("%s %s", t.key, t.label)
		if t.route == m.route {
			parts = append(parts, styles.TabActiveStyle.Render(label))
		} else {
			parts = append(parts, styles.TabStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, parts...)
}

func (m *Model) renderLogin() string {
	req := m.deps.Session.Login
	title := styles.TitleStyle.Render("Sign in to ThroneMind")
	parts := []string{title, "", m.login.view([]string{"Email", "Password"}, 40)}

	if m.login.notice != "" {
		parts = append(parts, "", styles.NoticeStyle.Render(m.login.notice))
	}
	if req.Pending() {
		parts = append(parts, "", m.Spinner.View()+" Signing in...")
	} else if e := req.Err(); e != "" {
		parts = append(parts, "", styles.ErrorStyle.Render(e))
	}

	hint := "Enter: sign in • Tab: next field • Ctrl+R: create account • Esc: quit"
	if !m.login.filled(loginEmail, loginPassword) {
		hint = "Fill in email and password • Ctrl+R: create account • Esc: quit"
	}
	parts = append(parts, "", styles.HintStyle.Render(hint))
	return styles.CardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m *Model) renderRegister() string {
	req := m.deps.Session.Register
	title := styles.TitleStyle.Render("Create your account")
	parts := []string{title, "", m.register.view([]string{"Email", "Nickname", "Password", "Photo"}, 40)}

	if m.register.notice != "" {
		parts = append(parts, "", styles.ErrorStyle.Render(m.register.notice))
	}
	if req.Pending() {
		parts = append(parts, "", m.Spinner.View()+" Creating account...")
	} else if e := req.Err(); e != "" {
		parts = append(parts, "", styles.ErrorStyle.Render(e))
	}
	parts = append(parts, "", styles.HintStyle.Render("Enter on last field: register • Tab: next field • Esc: back to sign in"))
	return styles.CardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m *Model) renderChat() string {
	parts := []string{m.renderSummary(), m.Viewport.View()}

	if m.notice != "" {
		parts = append(parts, styles.NoticeStyle.Render(m.notice))
	}
	if pending := m.RenderPendingImages(); pending != "" {
		parts = append(parts, pending)
	}
	if popup := m.RenderFileSuggestions(); popup != "" {
		parts = append(parts, popup)
	}
	inputBox := styles.InputBoxStyle.Width(m.WindowWidth - 4).Render(m.TextInput.View())
	parts = append(parts, inputBox)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// renderSummary draws the daily summary card. A failed refresh keeps the
// last good summary and shows the error beneath it.
func (m *Model) renderSummary() string {
	st := m.deps.Store
	lines := make([]string, 0, summaryHeight)

	sum, ok := st.DailySummary()
	switch {
	case ok:
		lines = append(lines,
			styles.SummaryTitleStyle.Render("Daily summary "+sum.Date),
			fmt.Sprintf("Reign %.0f%% • Productivity %.0f • Done %d • Focus %.1fh • Deadlines %d",
				sum.ReignPercent, sum.ProductivityScore, sum.TasksDone, sum.FocusTimeHours, sum.Deadlines),
			TruncateRunes("Yesterday: "+sum.YesterdaysVictory+"  Today: "+sum.TodaysFocus, m.WindowWidth-4),
		)
		if len(sum.AIRecommendations) > 0 {
			lines = append(lines, TruncateRunes("💡 "+strings.Join(sum.AIRecommendations, " • "), m.WindowWidth-4))
		}
	case st.Summary.Pending():
		lines = append(lines, m.Spinner.View()+" Loading daily summary...")
	default:
		lines = append(lines, styles.HintStyle.Render("No summary yet • Ctrl+R: refresh"))
	}
	if e := st.Summary.Err(); e != "" {
		lines = append(lines, styles.ErrorStyle.Render(e))
	}
	for len(lines) < summaryHeight {
		lines = append(lines, "")
	}
	return strings.Join(lines[:summaryHeight], "\n")
}

func (m *Model) renderNotes() string {
	st := m.deps.Store
	var parts []string

	input := styles.InputBoxStyle.Width(m.WindowWidth - 4).Render(m.NoteInput.View())
	parts = append(parts, input)

	switch {
	case st.Improve.Pending():
		parts = append(parts, m.Spinner.View()+" Improving prompt...")
	case st.Improve.Err() != "":
		parts = append(parts, styles.ErrorStyle.Render(st.Improve.Err()))
	}
	if improved, ok := st.ImprovedPrompt(); ok {
		parts = append(parts,
			styles.SummaryTitleStyle.Render("Improved prompt"),
			styles.AiMsgStyle.Width(m.WindowWidth-6).Render(improved),
			styles.HintStyle.Render("Ctrl+Y: keep as note • Ctrl+W: save prompt"),
		)
	}
	if st.Save.Pending() {
		parts = append(parts, m.Spinner.View()+" Saving...")
	} else if e := st.Save.Err(); e != "" {
		parts = append(parts, styles.ErrorStyle.Render(e))
	} else if saved := st.SavedPrompts(); len(saved) > 0 {
		parts = append(parts, styles.HintStyle.Render(fmt.Sprintf("%d prompt(s) saved this session", len(saved))))
	}
	if m.listening {
		parts = append(parts, styles.NoticeStyle.Render("🎙 Listening... Ctrl+V to stop"))
	}
	if m.notice != "" {
		parts = append(parts, styles.NoticeStyle.Render(m.notice))
	}

	parts = append(parts, "", styles.SummaryTitleStyle.Render("Notes"))
	notes := st.Notes()
	if len(notes) == 0 {
		parts = append(parts, styles.HintStyle.Render("No notes yet"))
	}
	for i, n := range notes {
		icon := "📝"
		if n.IsVoiceNote {
			icon = "🎙"
		}
		line := fmt.Sprintf("%s %s  %s", icon, TruncateRunes(PromptPreview(n.Content), m.WindowWidth-24), styles.HintStyle.Render(RelativeTime(n.CreatedAt)))
		if i == m.notesSelected {
			parts = append(parts, styles.ListSelectedStyle.Render("▸ "+line))
		} else {
			parts = append(parts, styles.ListItemStyle.Render("  "+line))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *Model) renderTodos() string {
	st := m.deps.Store
	tasks := st.Tasks()
	parts := []string{styles.SummaryTitleStyle.Render(fmt.Sprintf("Tasks (%d)", len(tasks)))}

	if len(tasks) == 0 {
		parts = append(parts, styles.HintStyle.Render("Ask the assistant to create or list tasks in Chat."))
	}
	for i, t := range tasks {
		line := fmt.Sprintf("%s #%d %s", statusBadge(t.Status), t.ID, t.Description)
		if span := dateSpan(t.TaskRef); span != "" {
			line += "  " + styles.HintStyle.Render(span)
		}
		if i == m.todoSelected {
			parts = append(parts, styles.ListSelectedStyle.Render("▸ "+line))
		} else {
			parts = append(parts, styles.ListItemStyle.Render("  "+line))
		}
	}

	if st.TaskStatus.Pending() {
		parts = append(parts, "", m.Spinner.View()+" Updating status...")
	} else if e := st.TaskStatus.Err(); e != "" {
		parts = append(parts, "", styles.ErrorStyle.Render(e))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func statusBadge(s models.TaskStatus) string {
	switch s {
	case models.StatusInProgress:
		return styles.StatusProgressStyle.Render("[~]")
	case models.StatusDone:
		return styles.StatusDoneStyle.Render("[✓]")
	default:
		return styles.StatusTodoStyle.Render("[ ]")
	}
}

func (m *Model) renderProfile() string {
	p, ok := m.deps.Session.Profile()
	if !ok {
		return styles.HintStyle.Render("Not signed in")
	}
	avatar := m.deps.Session.AvatarURL()
	if avatar == "" {
		avatar = "(none)"
	}
	rows := []string{
		styles.SummaryTitleStyle.Render("Profile"),
		fmt.Sprintf("%s %s", styles.FormLabelStyle.Render("Nickname"), p.Nickname),
		fmt.Sprintf("%s %s", styles.FormLabelStyle.Render("Email"), p.Email),
		fmt.Sprintf("%s %s", styles.FormLabelStyle.Render("Avatar"), avatar),
		"",
		styles.HintStyle.Render("L: log out"),
	}
	return styles.CardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderModal() string {
	var content string
	switch m.modal {
	case modalConversations:
		content = m.RenderConversationHistory()
	case modalPrompts:
		content = m.RenderPromptHistory()
	case modalOptimize:
		content = m.RenderOptimizeConfirm()
	case modalShortcuts:
		content = m.RenderShortcutsModal()
	}
	modal := styles.ModalStyle.Width(m.modalWidth).Render(content)
	return m.center(modal)
}

func (m *Model) modalHint(s string) string {
	return lipgloss.NewStyle().
		Foreground(styles.HintColor).
		Width(m.contentWidth).
		PaddingTop(1).
		Render(s)
}

func (m *Model) RenderConversationHistory() string {
	totalPages := (m.convCount + HistoryPageSize - 1) / HistoryPageSize
	if totalPages < 1 {
		totalPages = 1
	}
	title := styles.ModalTitleStyle.Width(m.contentWidth).Render(fmt.Sprintf("Conversations (%d) - Page %d/%d", m.convCount, m.convPage+1, totalPages))

	var body string
	if m.convErr != nil {
		body = lipgloss.NewStyle().Width(m.contentWidth).Render(styles.ErrorStyle.Render(fmt.Sprintf("Error: %v", m.convErr)))
	} else if len(m.convItems) == 0 {
		body = styles.ModalItemStyle.Render(lipgloss.NewStyle().Foreground(styles.HintColor).Render("No conversations yet"))
	} else {
		items := make([]string, 0, len(m.convItems))
		for i, c := range m.convItems {
			isSelected := i == m.convSelected
			cursor := "  "
			if isSelected {
				cursor = "> "
			}
			timeStr := RelativeTime(time.Unix(c.UpdatedAtUnix, 0))
			prompt := PromptPreview(c.LastUserPrompt)
			if prompt == "" {
				prompt = "(no prompt)"
			}
			prompt = TruncateRunes(prompt, m.contentWidth-2-len(cursor)-1-len(timeStr))

			item := fmt.Sprintf("%s%s %s", cursor, prompt, lipgloss.NewStyle().Foreground(styles.HintColor).Render(timeStr))
			if isSelected {
				items = append(items, styles.ModalSelectedStyle.Width(m.contentWidth).Render(item))
			} else {
				items = append(items, styles.ModalItemStyle.Width(m.contentWidth).Render(item))
			}
		}
		body = lipgloss.JoinVertical(lipgloss.Left, items...)
	}

	content := lipgloss.JoinVertical(lipgloss.Left, title, body)
	return lipgloss.JoinVertical(lipgloss.Left, content, m.modalHint("↑/↓: navigate • ←/→: page • Enter: open • Esc: close"))
}

func (m *Model) RenderPromptHistory() string {
	st := m.deps.Store
	history := st.PromptHistory()
	title := styles.ModalTitleStyle.Width(m.contentWidth).Render(fmt.Sprintf("Prompt history (%d)", len(history)))

	var body string
	switch {
	case st.History.Pending() && len(history) == 0:
		body = m.Spinner.View() + " Loading..."
	case st.History.Err() != "" && len(history) == 0:
		body = styles.ErrorStyle.Render(st.History.Err())
	case len(history) == 0:
		body = styles.ModalItemStyle.Render(lipgloss.NewStyle().Foreground(styles.HintColor).Render("No prompts yet"))
	default:
		items := make([]string, 0, len(history))
		for i, h := range history {
			line := TruncateRunes(PromptPreview(h.Original)+" → "+PromptPreview(h.Improved), m.contentWidth-4)
			if i == m.promptSelected {
				items = append(items, styles.ModalSelectedStyle.Width(m.contentWidth).Render("> "+line))
			} else {
				items = append(items, styles.ModalItemStyle.Width(m.contentWidth).Render("  "+line))
			}
		}
		body = lipgloss.JoinVertical(lipgloss.Left, items...)
		if e := st.History.Err(); e != "" {
			body = lipgloss.JoinVertical(lipgloss.Left, body, styles.ErrorStyle.Render(e))
		}
	}

	content := lipgloss.JoinVertical(lipgloss.Left, title, body)
	return lipgloss.JoinVertical(lipgloss.Left, content, m.modalHint("↑/↓: navigate • Enter: reuse • d: remove • x: clear all • Esc: close"))
}

func (m *Model) RenderOptimizeConfirm() string {
	title := styles.ModalTitleStyle.Width(m.contentWidth).Render("Merge duplicate tasks?")
	var rows []string
	for _, msg := range m.deps.Store.Messages() {
		if msg.ID != m.optimizeMessageID {
			continue
		}
		for _, t := range msg.Tasks {
			rows = append(rows, styles.ModalItemStyle.Width(m.contentWidth).Render(TruncateRunes(fmt.Sprintf("#%d %s", t.ID, t.Description), m.contentWidth-2)))
		}
	}
	content := lipgloss.JoinVertical(lipgloss.Left, append([]string{title}, rows...)...)
	return lipgloss.JoinVertical(lipgloss.Left, content, m.modalHint("y/Enter: merge • n/Esc: cancel"))
}

func (m *Model) RenderShortcutsModal() string {
	title := styles.ModalTitleStyle.Width(m.contentWidth).Render("Keyboard Shortcuts")

	shortcuts := []struct {
		key  string
		desc string
	}{
		{"F1-F4", "Chat / Notes / Todos / Profile"},
		{"Ctrl+C", "Quit"},
		{"Ctrl+N", "New conversation"},
		{"Ctrl+H", "History (chat or prompts)"},
		{"Ctrl+O", "Merge duplicate tasks"},
		{"Ctrl+R", "Refresh daily summary"},
		{"Ctrl+V", "Start/stop voice input"},
		{"Ctrl+E", "Improve prompt (notes)"},
		{"@", "Attach image (in chat input)"},
		{"Ctrl+S", "Shortcuts (this menu)"},
	}

	keyStyle := lipgloss.NewStyle().
		Foreground(styles.Accent).
		Bold(true).
		Width(12)

	var items []string
	for _, s := range shortcuts {
		line := fmt.Sprintf("%s %s", keyStyle.Render(s.key), s.desc)
		items = append(items, styles.ModalItemStyle.Width(m.contentWidth).Render(line))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, items...))
	return lipgloss.JoinVertical(lipgloss.Left, content, m.modalHint("Esc/Enter: close"))
}

func (m *Model) RenderBottomBar() string {
	routeBadge := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(styles.Primary).
		Padding(0, 1).
		Render(strings.ToUpper(routeName(m.route)))

	user := ""
	if p, ok := m.deps.Session.Profile(); ok {
		user = lipgloss.NewStyle().Foreground(styles.Secondary).Render(TruncateRunes(p.Nickname, 25))
	}

	status := ""
	if m.busy() {
		status = m.Spinner.View() + " working"
	}
	if m.listening {
		status = "🎙 listening"
	}

	help := lipgloss.NewStyle().Foreground(styles.HintColor).Render("Help: ^S")

	leftSide := lipgloss.JoinHorizontal(lipgloss.Center, routeBadge, "  ", user)
	rightSide := lipgloss.JoinHorizontal(lipgloss.Center, status, "  ", help)

	availableWidth := m.WindowWidth - lipgloss.Width(leftSide) - lipgloss.Width(rightSide) - 2
	if availableWidth < 0 {
		availableWidth = 0
	}
	bar := lipgloss.JoinHorizontal(lipgloss.Center, leftSide, strings.Repeat(" ", availableWidth), rightSide)

	return lipgloss.NewStyle().
		Width(m.WindowWidth).
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.BorderColor).
		Padding(0, 1).
		Render(bar)
}

func routeName(r models.Route) string {
	switch r {
	case models.RouteNotes:
		return "notes"
	case models.RouteTodos:
		return "todos"
	case models.RouteProfile:
		return "profile"
	case models.RouteLogin, models.RouteRegister:
		return "guest"
	default:
		return "chat"
	}
}

func (m *Model) RenderPendingImages() string {
	if len(m.PendingImages) == 0 {
		return ""
	}
	var chips []string
	for _, file := range m.PendingImages {
		chips = append(chips, styles.ChipStyle.Render("📷 "+filepath.Base(file)))
	}
	return styles.HintStyle.Render("Attached: ") + strings.Join(chips, " ")
}

func (m *Model) RenderFileSuggestions() string {
	if !m.FileSuggestOpen || len(m.FileSuggestions) == 0 {
		return ""
	}

	var lines []string
	lines = append(lines, lipgloss.NewStyle().
		Foreground(styles.HintColor).
		Italic(true).
		Render("  Images (↑↓ to select, Tab/Enter to insert)"))

	for i, suggestion := range m.FileSuggestions {
		display := suggestion
		if info, _ := os.Stat(suggestion); info != nil && info.IsDir() {
			display = suggestion + "/"
		}
		if i == m.FileSuggestIdx {
			lines = append(lines, styles.ListSelectedStyle.Render("▸ "+display))
		} else {
			lines = append(lines, styles.ListItemStyle.Render("  "+display))
		}
	}

	return styles.PopupStyle.Render(strings.Join(lines, "\n"))
}

// UpdateViewport rebuilds the conversation transcript.
func (m *Model) UpdateViewport() {
	st := m.deps.Store
	msgs := st.Messages()
	rendered := make([]string, 0, len(msgs)+1)
	for i, msg := range msgs {
		if msg.IsUser {
			rendered = append(rendered, FormatUserMessage(msg.Text, m.Viewport.Width, i == 0))
			continue
		}
		rendered = append(rendered, m.formatReply(msg))
	}

	if m.chatBusy() {
		rendered = append(rendered, fmt.Sprintf("%s\n%s Thinking...", styles.AiLabelStyle.Render("THRONEMIND"), m.Spinner.View()))
	}
	for _, e := range []string{st.Act.Err(), st.ActPhoto.Err(), st.Optimize.Err()} {
		if e != "" {
			rendered = append(rendered, styles.ErrorStyle.Render("Error: "+e))
		}
	}
	if m.listening && m.voiceTarget == voiceChat {
		rendered = append(rendered, styles.NoticeStyle.Render("🎙 Listening... Ctrl+V to stop"))
	}

	m.Viewport.SetContent(strings.Join(rendered, "\n\n"))
	m.Viewport.GotoBottom()
}

func (m *Model) formatReply(msg models.ConversationMessage) string {
	text := msg.Text
	if m.Renderer != nil {
		if out, err := m.Renderer.Render(text); err == nil {
			text = strings.TrimSpace(out)
		}
	}
	if len(msg.Tasks) == 0 {
		return FormatAIMessage(text)
	}

	tasks := FormatTasks(msg.Tasks)
	switch {
	case msg.Type == models.TypeDuplicateTask && msg.Resolved:
		tasks += "\n" + styles.StatusDoneStyle.Render("✓ merged")
	case msg.Type == models.TypeDuplicateTask && m.deps.Store.Optimize.Pending():
		tasks += "\n" + m.Spinner.View() + " merging..."
	case msg.Type == models.TypeDuplicateTask:
		tasks += "\n" + styles.HintStyle.Render("Ctrl+O: merge these tasks")
	}
	return FormatAIMessageWithTasks(text, tasks)
}
