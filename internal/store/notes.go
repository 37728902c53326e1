package store

import (
	"strings"

	"thronemind/internal/db"
	"thronemind/internal/models"
)

// Notes are newest first.
func (s *Store) Notes() []models.Note {
	return append([]models.Note(nil), s.notes...)
}

func (s *Store) loadNotes() {
	if s.db == nil {
		return
	}
	s.notes = nil
	notes, err := db.ListNotes(s.db, s.owner)
	if err != nil {
		s.persist("listNotes", err)
		return
	}
	s.notes = notes
}

// AddNote keeps content as a local note. voice marks dictated notes.
func (s *Store) AddNote(content string, voice bool) (models.Note, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Note{}, ErrEmpty
	}
	n := models.Note{ID: s.newID(), Content: content, IsVoiceNote: voice, CreatedAt: s.now()}
	if s.db != nil {
		if err := db.InsertNote(s.db, s.owner, n); err != nil {
			return models.Note{}, err
		}
	}
	s.notes = append([]models.Note{n}, s.notes...)
	s.notify(Change{Slice: SliceNotes})
	return n, nil
}

func (s *Store) DeleteNote(id string) error {
	if s.db != nil {
		if err := db.DeleteNote(s.db, s.owner, id); err != nil {
			return err
		}
	}
	kept := make([]models.Note, 0, len(s.notes))
	for _, n := range s.notes {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	s.notes = kept
	s.notify(Change{Slice: SliceNotes})
	return nil
}

// UseImprovedAsNote saves the current improvement as a note.
func (s *Store) UseImprovedAsNote() (models.Note, error) {
	return s.AddNote(s.improved, false)
}
