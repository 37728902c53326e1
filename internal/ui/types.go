package ui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"thronemind/internal/models"
	"thronemind/internal/session"
	"thronemind/internal/state"
	"thronemind/internal/store"
	"thronemind/internal/voice"
)

const (
	MaxModalWidth = 60
	MinModalWidth = 30

	HistoryPageSize = 10
	MaxSuggestions  = 10
)

// Deps are the services the TUI drives.
type Deps struct {
	Session *session.Store
	Auth    session.Authenticator
	Store   *store.Store
	Voice   voice.Recognizer
}

type op int

const (
	opLogin op = iota
	opRegister
	opImprove
	opHistory
	opSave
	opAct
	opActPhoto
	opOptimize
	opTaskStatus
	opSummary
)

// settledMsg carries a finished call back to the event loop, where it is
// applied to its request.
type settledMsg struct {
	op op
	s  state.Settlement
}

// navigateMsg is sent from outside the event loop, e.g. when the session
// is revoked mid-request.
type navigateMsg struct {
	route models.Route
}

type transcriptMsg struct {
	text string
	ch   <-chan voice.Transcript
}

type voiceDoneMsg struct{}

type voiceErrMsg struct{ err error }

type modal int

const (
	modalNone modal = iota
	modalConversations
	modalPrompts
	modalOptimize
	modalShortcuts
)

// form is a column of text inputs; tab cycles the focused one.
type form struct {
	inputs []textinput.Model
	focus  int
	notice string
}

type Model struct {
	deps Deps

	route  models.Route
	notice string

	WindowWidth  int
	WindowHeight int
	modalWidth   int
	contentWidth int

	login    form
	register form

	Viewport  viewport.Model
	TextInput textarea.Model
	NoteInput textinput.Model
	Spinner   spinner.Model
	Renderer  *glamour.TermRenderer

	modal modal

	// conversation history modal
	convPage     int
	convCount    int
	convItems    []models.ConversationListItem
	convSelected int
	convErr      error

	// prompt history modal
	promptSelected int

	// optimize confirmation
	optimizeMessageID string

	notesSelected int
	todoSelected  int

	// @ mentions
	FileSuggestOpen bool
	FileSuggestions []string
	FileSuggestIdx  int
	PendingImages   []string

	listening   bool
	stopVoice   context.CancelFunc
	voiceTarget voiceTarget
	voiceNote   bool

	Program *tea.Program
}

type voiceTarget int

const (
	voiceChat voiceTarget = iota
	voiceNotes
)
