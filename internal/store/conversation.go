package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"thronemind/internal/db"
	"thronemind/internal/models"
	"thronemind/internal/state"
)

// Greeting opens every new conversation.
const Greeting = "Merhaba! Size nasıl yardımcı olabilirim? Sesli mesaj gönderebilir veya yazabilirsiniz."

// Messages returns the current conversation in order.
func (s *Store) Messages() []models.ConversationMessage {
	return append([]models.ConversationMessage(nil), s.messages...)
}

func (s *Store) ConversationID() int64 { return s.conversationID }

// NewConversation starts over with only the greeting. The conversation is
// written to disk once the user says something.
func (s *Store) NewConversation() {
	s.conversationID = 0
	s.messages = []models.ConversationMessage{{
		ID:        s.newID(),
		Text:      Greeting,
		Timestamp: s.now(),
		Type:      models.TypeChat,
	}}
	s.removed = map[int64]bool{}
	s.statuses = map[int64]models.TaskStatus{}
	s.Act.Reset()
	s.ActPhoto.Reset()
	s.Optimize.Reset()
	s.notify(Change{Slice: SliceConversation})
}

// LoadConversation replaces the current conversation with a stored one.
func (s *Store) LoadConversation(id int64) error {
	if s.db == nil {
		return ErrNotFound
	}
	msgs, err := db.GetConversationMessages(s.db, s.owner, id)
	if err != nil {
		return fmt.Errorf("load conversation %d: %w", id, err)
	}
	if len(msgs) == 0 {
		return ErrNotFound
	}
	s.NewConversation()
	s.conversationID = id
	s.messages = msgs
	for _, m := range msgs {
		if m.Type == models.TypeDuplicateTask && m.Resolved {
			for _, tid := range m.TaskIDs() {
				s.removed[tid] = true
			}
		}
	}
	s.notify(Change{Slice: SliceConversation})
	return nil
}

// Conversations lists stored conversations, most recently updated first.
func (s *Store) Conversations(limit, offset int) (int, []models.ConversationListItem, error) {
	if s.db == nil {
		return 0, nil, nil
	}
	return db.GetRecentConversations(s.db, s.owner, limit, offset)
}

func (s *Store) ensureConversation() {
	if s.db == nil || s.conversationID != 0 {
		return
	}
	id, err := db.CreateConversation(s.db, s.owner, s.now().Unix())
	if err != nil {
		s.persist("createConversation", err)
		return
	}
	s.conversationID = id
	for _, m := range s.messages {
		s.persist("insertMessage", db.InsertMessage(s.db, id, m))
	}
}

func (s *Store) appendUser(text string) {
	m := models.ConversationMessage{ID: s.newID(), Text: text, IsUser: true, Timestamp: s.now()}
	s.messages = append(s.messages, m)
	s.ensureConversation()
	if s.conversationID != 0 {
		s.persist("insertMessage", db.InsertMessage(s.db, s.conversationID, m))
		s.persist("updateConversation", db.UpdateConversationOnUser(s.db, s.conversationID, m.Timestamp.Unix(), text))
	}
	s.notify(Change{Slice: SliceConversation})
}

func (s *Store) appendAssistant(m models.ConversationMessage) {
	s.messages = append(s.messages, m)
	if s.conversationID != 0 {
		s.persist("insertMessage", db.InsertMessage(s.db, s.conversationID, m))
		s.persist("touchConversation", db.TouchConversation(s.db, s.conversationID, m.Timestamp.Unix()))
	}
}

func (s *Store) replyMessage(res models.ActResult) models.ConversationMessage {
	typ := res.Type
	if typ == "" {
		typ = models.TypeChat
	}
	return models.ConversationMessage{
		ID:        s.newID(),
		Text:      res.Message,
		Timestamp: s.now(),
		Type:      typ,
		Tasks:     res.Tasks,
	}
}

// BeginAct sends prompt to the assistant. The user's message is shown
// right away; the reply is appended when the call succeeds.
func (s *Store) BeginAct(prompt string) (state.Runner, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrEmpty
	}
	call := func(ctx context.Context) (models.ActResult, error) {
		return s.api.Act(ctx, prompt)
	}
	run, err := state.Start(s.Act, call, func(res models.ActResult) {
		s.appendAssistant(s.replyMessage(res))
	})
	if err != nil {
		return nil, err
	}
	s.appendUser(prompt)
	return run, nil
}

// BeginActWithPhoto sends an image to the assistant.
func (s *Store) BeginActWithPhoto(photo models.Photo) (state.Runner, error) {
	if len(photo.Data) == 0 {
		return nil, ErrEmpty
	}
	call := func(ctx context.Context) (models.ActResult, error) {
		return s.api.ActWithPhoto(ctx, photo)
	}
	run, err := state.Start(s.ActPhoto, call, func(res models.ActResult) {
		s.appendAssistant(s.replyMessage(res))
	})
	if err != nil {
		return nil, err
	}
	s.appendUser("📷 " + filepath.Base(photo.Filename))
	return run, nil
}

// ClearPromptAct forgets the last act reply state.
func (s *Store) ClearPromptAct() { s.Act.Reset() }

func (s *Store) ClearActWithPhoto() { s.ActPhoto.Reset() }

func (s *Store) ClearOptimize() { s.Optimize.Reset() }

// BeginOptimize merges the duplicate tasks listed by the DUBLICATE_TASK
// message messageID. A set can only be merged once.
func (s *Store) BeginOptimize(messageID string) (state.Runner, error) {
	idx := s.messageIndex(messageID)
	if idx < 0 {
		return nil, ErrNotFound
	}
	src := s.messages[idx]
	if src.Type != models.TypeDuplicateTask {
		return nil, fmt.Errorf("message %s is %s: %w", messageID, src.Type, ErrNotFound)
	}
	if src.Resolved {
		return nil, ErrResolved
	}
	ids := src.TaskIDs()
	if len(ids) == 0 {
		return nil, ErrEmpty
	}
	call := func(ctx context.Context) (models.OptimizeResult, error) {
		return s.api.OptimizeTasks(ctx, ids)
	}
	return state.Start(s.Optimize, call, func(res models.OptimizeResult) {
		s.resolve(messageID)
		for _, id := range res.DeletedIDs {
			s.removed[id] = true
			delete(s.statuses, id)
		}
		m := models.ConversationMessage{
			ID:        s.newID(),
			Text:      res.Message,
			Timestamp: s.now(),
			Type:      models.TypeOptimizeResult,
		}
		if res.NewTask != nil {
			m.Tasks = []models.TaskRef{*res.NewTask}
			delete(s.removed, res.NewTask.ID)
		}
		s.appendAssistant(m)
	})
}

func (s *Store) resolve(messageID string) {
	idx := s.messageIndex(messageID)
	if idx < 0 {
		return
	}
	s.messages[idx].Resolved = true
	if s.conversationID != 0 {
		s.persist("resolveMessage", db.MarkMessageResolved(s.db, s.conversationID, messageID))
	}
}

func (s *Store) messageIndex(id string) int {
	for i := range s.messages {
		if s.messages[i].ID == id {
			return i
		}
	}
	return -1
}
