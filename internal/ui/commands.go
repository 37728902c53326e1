package ui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"thronemind/internal/models"
	"thronemind/internal/state"
	"thronemind/internal/store"
	"thronemind/internal/voice"
)

// start begins an operation on the event loop and returns the command that
// performs its network half. Refusals (pending, empty input) start nothing.
func (m *Model) start(o op, begin func() (state.Runner, error)) tea.Cmd {
	run, err := begin()
	switch {
	case err == nil:
	case errors.Is(err, state.ErrPending), errors.Is(err, store.ErrEmpty):
		return nil
	case errors.Is(err, store.ErrResolved):
		m.notice = "Those tasks were already merged."
		return nil
	default:
		m.notice = err.Error()
		return nil
	}
	return tea.Batch(runCmd(o, run), m.Spinner.Tick)
}

func runCmd(o op, run state.Runner) tea.Cmd {
	return func() tea.Msg {
		return settledMsg{op: o, s: run.Run(context.Background())}
	}
}

// settle applies a finished call and reacts to its outcome.
func (m *Model) settle(msg settledMsg) tea.Cmd {
	if !msg.s.Apply() {
		return nil
	}
	ok := msg.s.Err() == nil

	switch msg.op {
	case opLogin, opRegister:
		if ok {
			if p, signedIn := m.deps.Session.Profile(); signedIn {
				m.deps.Store.SetOwner(p.Email)
			}
			m.login.reset()
			m.register.reset()
			return m.navigate(models.RouteHome)
		}
	case opImprove:
		if ok {
			m.promptSelected = 0
		}
	}
	return nil
}

// storeChanged keeps the derived views in step with the store. It runs on
// the event loop, the only goroutine that changes the store.
func (m *Model) storeChanged(c store.Change) {
	switch c.Slice {
	case store.SliceConversation:
		m.UpdateViewport()
	case store.SliceNotes:
		if n := len(m.deps.Store.Notes()); m.notesSelected >= n {
			m.notesSelected = max(n-1, 0)
		}
	}
}

// navigate switches view through the session guard. Entering home
// refreshes the daily summary.
func (m *Model) navigate(route models.Route) tea.Cmd {
	target := m.deps.Session.Guard(route)
	if target != route {
		log.Debug().Str("route", string(route)).Str("to", string(target)).Msg("route guarded")
	}
	m.route = target
	m.modal = modalNone
	m.FileSuggestOpen = false
	m.stopListening()

	switch target {
	case models.RouteLogin:
		m.login.focusFirst()
	case models.RouteRegister:
		m.register.focusFirst()
	case models.RouteHome:
		m.TextInput.Focus()
		m.UpdateViewport()
		return m.start(opSummary, m.deps.Store.BeginSummary)
	case models.RouteNotes:
		m.NoteInput.Focus()
	}
	return nil
}

func (m *Model) startListening(target voiceTarget) tea.Cmd {
	if m.listening {
		m.stopListening()
		return nil
	}
	if m.deps.Voice == nil || !m.deps.Voice.Available() {
		m.notice = "Voice input is not available: set voice_command in the config."
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	ch, err := m.deps.Voice.Start(ctx)
	if err != nil {
		cancel()
		if errors.Is(err, voice.ErrUnsupported) {
			m.notice = "Voice input is not available on this system."
		} else {
			m.notice = err.Error()
		}
		return nil
	}
	m.listening = true
	m.stopVoice = cancel
	m.voiceTarget = target
	return waitTranscript(ch)
}

func (m *Model) stopListening() {
	if m.stopVoice != nil {
		m.stopVoice()
	}
	m.stopVoice = nil
	m.listening = false
}

func waitTranscript(ch <-chan voice.Transcript) tea.Cmd {
	return func() tea.Msg {
		t, ok := <-ch
		if !ok {
			return voiceDoneMsg{}
		}
		return transcriptMsg{text: t.Text, ch: ch}
	}
}

func (m *Model) applyTranscript(msg transcriptMsg) tea.Cmd {
	if !m.listening {
		return nil
	}
	switch m.voiceTarget {
	case voiceChat:
		m.TextInput.SetValue(voice.Join(m.TextInput.Value(), msg.text))
		m.TextInput.CursorEnd()
		m.updateInputLayout()
	case voiceNotes:
		m.NoteInput.SetValue(voice.Join(m.NoteInput.Value(), msg.text))
		m.NoteInput.CursorEnd()
		m.voiceNote = true
	}
	return waitTranscript(msg.ch)
}
