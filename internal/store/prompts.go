package store

import (
	"context"
	"strings"

	"thronemind/internal/models"
	"thronemind/internal/state"
)

// HistoryLimit caps the prompt history; older entries fall off the end.
const HistoryLimit = 50

func (s *Store) CurrentPrompt() string { return s.currentPrompt }

// ImprovedPrompt is the improvement of the current prompt, if any.
func (s *Store) ImprovedPrompt() (string, bool) {
	return s.improved, s.improved != ""
}

// PromptHistory is newest first.
func (s *Store) PromptHistory() []models.PromptHistoryEntry {
	return append([]models.PromptHistoryEntry(nil), s.history...)
}

func (s *Store) SavedPrompts() []models.SavedPrompt {
	return append([]models.SavedPrompt(nil), s.saved...)
}

// SetCurrentPrompt replaces the prompt being edited. Any improvement in
// flight for the old text is discarded when it lands.
func (s *Store) SetCurrentPrompt(p string) {
	s.currentPrompt = p
	s.improved = ""
	s.Improve.Reset()
	s.notify(Change{Slice: SlicePrompts})
}

func (s *Store) ClearCurrentPrompt() {
	s.SetCurrentPrompt("")
}

// ClearPromptErrors drops the failure messages of the prompt requests.
func (s *Store) ClearPromptErrors() {
	s.Improve.ClearError()
	s.History.ClearError()
	s.Save.ClearError()
}

func (s *Store) AddToHistory(original, improved string) {
	s.pushHistory(models.PromptHistoryEntry{
		ID:        s.newID(),
		Original:  original,
		Improved:  improved,
		Timestamp: s.now(),
	})
	s.notify(Change{Slice: SlicePrompts})
}

func (s *Store) RemoveFromHistory(id string) {
	kept := make([]models.PromptHistoryEntry, 0, len(s.history))
	for _, h := range s.history {
		if h.ID != id {
			kept = append(kept, h)
		}
	}
	s.history = kept
	s.notify(Change{Slice: SlicePrompts})
}

func (s *Store) ClearHistory() {
	s.history = nil
	s.notify(Change{Slice: SlicePrompts})
}

func (s *Store) pushHistory(e models.PromptHistoryEntry) {
	s.history = append([]models.PromptHistoryEntry{e}, s.history...)
	if len(s.history) > HistoryLimit {
		s.history = s.history[:HistoryLimit]
	}
}

// BeginImprove asks the server to improve the current prompt.
func (s *Store) BeginImprove() (state.Runner, error) {
	prompt := strings.TrimSpace(s.currentPrompt)
	if prompt == "" {
		return nil, ErrEmpty
	}
	call := func(ctx context.Context) (models.ImproveResult, error) {
		return s.api.ImprovePrompt(ctx, prompt)
	}
	return state.Start(s.Improve, call, func(res models.ImproveResult) {
		s.improved = res.Improved
		s.pushHistory(models.PromptHistoryEntry{
			ID:        s.newID(),
			Original:  res.Original,
			Improved:  res.Improved,
			Timestamp: res.Timestamp,
		})
	})
}

// BeginHistory replaces the local history with the server's.
func (s *Store) BeginHistory() (state.Runner, error) {
	return state.Start(s.History, s.api.PromptHistory, func(entries []models.PromptHistoryEntry) {
		if len(entries) > HistoryLimit {
			entries = entries[:HistoryLimit]
		}
		// The request keeps its own copy as the last good payload.
		s.history = append([]models.PromptHistoryEntry(nil), entries...)
	})
}

// BeginSave stores the current improvement server side.
func (s *Store) BeginSave(category string) (state.Runner, error) {
	if s.improved == "" {
		return nil, ErrEmpty
	}
	req := models.SavePromptRequest{
		Original: strings.TrimSpace(s.currentPrompt),
		Improved: s.improved,
		Category: category,
	}
	call := func(ctx context.Context) (models.SavedPrompt, error) {
		return s.api.SavePrompt(ctx, req)
	}
	return state.Start(s.Save, call, func(p models.SavedPrompt) {
		if p.Improved == "" && p.Original == "" {
			p.Original, p.Improved, p.Category = req.Original, req.Improved, req.Category
		}
		s.saved = append([]models.SavedPrompt{p}, s.saved...)
	})
}
