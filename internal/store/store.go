// Package store is the client-side state container. Each server-backed
// operation is a state.Request whose success merges into one of the slices
// kept here. A Store is owned by one goroutine, like the requests inside it.
package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"thronemind/internal/models"
	"thronemind/internal/state"
)

var (
	// ErrEmpty is returned when a required input is blank; nothing is sent.
	ErrEmpty = errors.New("required input is empty")

	// ErrResolved is returned when optimizing a duplicate set that was
	// already merged.
	ErrResolved = errors.New("duplicate tasks already optimized")

	ErrNotFound = errors.New("message not found")
)

// API is the set of remote operations the store drives.
type API interface {
	ImprovePrompt(ctx context.Context, prompt string) (models.ImproveResult, error)
	PromptHistory(ctx context.Context) ([]models.PromptHistoryEntry, error)
	SavePrompt(ctx context.Context, req models.SavePromptRequest) (models.SavedPrompt, error)
	Act(ctx context.Context, prompt string) (models.ActResult, error)
	ActWithPhoto(ctx context.Context, photo models.Photo) (models.ActResult, error)
	OptimizeTasks(ctx context.Context, taskIDs []int64) (models.OptimizeResult, error)
	UpdateTaskStatus(ctx context.Context, id int64, status models.TaskStatus) (models.TaskStatusUpdate, error)
	DailySummary(ctx context.Context) (models.DailySummary, error)
}

// Slice names carried by Change.
const (
	SlicePrompts      = "prompts"
	SliceConversation = "conversation"
	SliceTasks        = "tasks"
	SliceSummary      = "summary"
	SliceNotes        = "notes"
)

// Change tells subscribers what moved. Request is set for lifecycle
// transitions of a named request.
type Change struct {
	Slice   string
	Request *state.Event
}

type Store struct {
	api   API
	db    *sql.DB
	owner string

	now   func() time.Time
	newID func() string

	subs    map[int]func(Change)
	nextSub int

	// prompts
	currentPrompt string
	improved      string
	history       []models.PromptHistoryEntry
	saved         []models.SavedPrompt

	// conversation
	conversationID int64
	messages       []models.ConversationMessage

	// tasks
	removed  map[int64]bool
	statuses map[int64]models.TaskStatus

	daily *models.DailySummary
	notes []models.Note

	Improve    *state.Request[models.ImproveResult]
	History    *state.Request[[]models.PromptHistoryEntry]
	Save       *state.Request[models.SavedPrompt]
	Act        *state.Request[models.ActResult]
	ActPhoto   *state.Request[models.ActResult]
	Optimize   *state.Request[models.OptimizeResult]
	TaskStatus *state.Request[models.TaskStatusUpdate]
	Summary    *state.Request[models.DailySummary]
}

type Option func(*Store)

// WithDB persists conversations and notes into conn.
func WithDB(conn *sql.DB) Option {
	return func(s *Store) { s.db = conn }
}

// WithOwner scopes stored conversations and notes to owner's email.
func WithOwner(email string) Option {
	return func(s *Store) { s.owner = normalizeOwner(email) }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(api API, opts ...Option) *Store {
	s := &Store{
		api:      api,
		now:      time.Now,
		newID:    uuid.NewString,
		subs:     map[int]func(Change){},
		removed:  map[int64]bool{},
		statuses: map[int64]models.TaskStatus{},

		Improve:    state.New[models.ImproveResult]("improvePrompt", "Prompt iyileştirme başarısız"),
		History:    state.New[[]models.PromptHistoryEntry]("promptHistory", "Geçmiş yüklenemedi"),
		Save:       state.New[models.SavedPrompt]("savePrompt", "Prompt kaydedilemedi"),
		Act:        state.New[models.ActResult]("act", "Prompt action başarısız"),
		ActPhoto:   state.New[models.ActResult]("actWithPhoto", "Fotoğraf ile işlem başarısız"),
		Optimize:   state.New[models.OptimizeResult]("optimizeTasks", "Optimize işlemi başarısız"),
		TaskStatus: state.New[models.TaskStatusUpdate]("updateTaskStatus", "Görev durumu güncellenemedi"),
		Summary:    state.New[models.DailySummary]("dailySummary", "Günlük özet alınamadı"),
	}
	for _, opt := range opts {
		opt(s)
	}

	observe(s, s.Improve, SlicePrompts)
	observe(s, s.History, SlicePrompts)
	observe(s, s.Save, SlicePrompts)
	observe(s, s.Act, SliceConversation)
	observe(s, s.ActPhoto, SliceConversation)
	observe(s, s.Optimize, SliceConversation)
	observe(s, s.TaskStatus, SliceTasks)
	observe(s, s.Summary, SliceSummary)

	s.NewConversation()
	s.loadNotes()
	return s
}

func normalizeOwner(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Store) Owner() string { return s.owner }

// SetOwner switches to another user's data. Everything held for the previous
// user is dropped and a new conversation begins; the same owner is a no-op.
func (s *Store) SetOwner(email string) {
	email = normalizeOwner(email)
	if email == s.owner {
		return
	}
	s.owner = email
	s.history = nil
	s.saved = nil
	s.daily = nil
	s.History.Reset()
	s.Save.Reset()
	s.Summary.Reset()
	s.TaskStatus.Reset()
	s.ClearCurrentPrompt()
	s.NewConversation()
	s.loadNotes()
	s.notify(Change{Slice: SliceNotes})
	log.Debug().Str("owner", email).Msg("store owner changed")
}

func observe[T any](s *Store, r *state.Request[T], slice string) {
	r.Observe(func(e state.Event) {
		s.notify(Change{Slice: slice, Request: &e})
	})
}

// Subscribe registers fn for every change and returns its unsubscribe func.
func (s *Store) Subscribe(fn func(Change)) func() {
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() { delete(s.subs, id) }
}

func (s *Store) notify(c Change) {
	for _, fn := range s.subs {
		fn(c)
	}
}

func (s *Store) persist(op string, err error) {
	if err != nil {
		log.Error().Err(err).Str("op", op).Msg("local persistence failed")
	}
}
