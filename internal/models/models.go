package models

import (
	"strings"
	"time"
)

// Route names a view. Values match the paths the web client used.
type Route string

const (
	RouteLogin    Route = "/login"
	RouteRegister Route = "/register"
	RouteHome     Route = "/"
	RouteNotes    Route = "/notes"
	RouteTodos    Route = "/todos"
	RouteProfile  Route = "/profile"
)

// Protected reports whether the route requires an access token.
func (r Route) Protected() bool {
	switch r {
	case RouteLogin, RouteRegister:
		return false
	default:
		return true
	}
}

type UserProfile struct {
	Email          string `json:"email"`
	Nickname       string `json:"nickname"`
	AvatarURL      string `json:"avatarUrl"`
	AvatarBase64   string `json:"avatarBase64,omitempty"`
	AvatarMimeType string `json:"avatarMimeType,omitempty"`
}

// AuthResponse is the payload of both /auth/login and /auth/register.
type AuthResponse struct {
	AccessToken    string `json:"accessToken"`
	RefreshToken   string `json:"refreshToken"`
	Email          string `json:"email"`
	Nickname       string `json:"nickname"`
	AvatarURL      string `json:"avatarUrl"`
	AvatarBase64   string `json:"avatarBase64,omitempty"`
	AvatarMimeType string `json:"avatarMimeType,omitempty"`
}

// Photo is an image attached to a multipart request.
type Photo struct {
	Filename string
	Data     []byte
}

type RegisterForm struct {
	Email    string
	Nickname string
	Password string
	Photo    *Photo
}

// ResolveAvatarURL turns a server-relative avatar path into an absolute URL.
func ResolveAvatarURL(avatarURL, origin string) string {
	if avatarURL == "" {
		return ""
	}
	if strings.HasPrefix(avatarURL, "http://") || strings.HasPrefix(avatarURL, "https://") {
		return avatarURL
	}
	origin = strings.TrimRight(origin, "/")
	if !strings.HasPrefix(avatarURL, "/") {
		avatarURL = "/" + avatarURL
	}
	return origin + avatarURL
}

// MessageType classifies an assistant reply. DUBLICATE_TASK is spelled the
// way the server sends it.
type MessageType string

const (
	TypeChat           MessageType = "CHAT"
	TypeNoteCreated    MessageType = "NOTE_CREATED"
	TypeTaskCreated    MessageType = "TASK_CREATED"
	TypeTasksListed    MessageType = "TASKS_LISTED"
	TypeDuplicateTask  MessageType = "DUBLICATE_TASK"
	TypeOptimizeResult MessageType = "OPTIMIZE_RESULT"
)

// TaskRef is a read-only snapshot of a task shown inside a message.
type TaskRef struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
}

type ConversationMessage struct {
	ID        string      `json:"id"`
	Text      string      `json:"text"`
	IsUser    bool        `json:"isUser"`
	Timestamp time.Time   `json:"timestamp"`
	Type      MessageType `json:"type,omitempty"`
	Tasks     []TaskRef   `json:"tasks,omitempty"`

	// Resolved is set on a DUBLICATE_TASK message once the user's
	// optimize confirmation succeeded.
	Resolved bool `json:"resolved,omitempty"`
}

// TaskIDs returns the ids of the tasks attached to the message.
func (m ConversationMessage) TaskIDs() []int64 {
	ids := make([]int64, 0, len(m.Tasks))
	for _, t := range m.Tasks {
		ids = append(ids, t.ID)
	}
	return ids
}

type PromptHistoryEntry struct {
	ID        string    `json:"id"`
	Original  string    `json:"original"`
	Improved  string    `json:"improved"`
	Timestamp time.Time `json:"timestamp"`
	Category  string    `json:"category,omitempty"`
}

type ImproveResult struct {
	Original  string
	Improved  string `json:"improved"`
	Timestamp time.Time
}

type SavePromptRequest struct {
	Original string `json:"original"`
	Improved string `json:"improved"`
	Category string `json:"category,omitempty"`
}

type SavedPrompt struct {
	ID       any    `json:"id,omitempty"`
	Original string `json:"original"`
	Improved string `json:"improved"`
	Category string `json:"category,omitempty"`
}

// ActResult is the reply of /prompt/act and /prompt/actWithPhoto.
type ActResult struct {
	ID      any         `json:"id"`
	Message string      `json:"message"`
	Type    MessageType `json:"type"`
	Tasks   []TaskRef   `json:"tasks,omitempty"`
}

type OptimizeResult struct {
	Message    string   `json:"message"`
	NewTask    *TaskRef `json:"newTask"`
	DeletedIDs []int64  `json:"deletedIds"`
}

type TaskStatus string

const (
	StatusNotStarted TaskStatus = "NOT_STARTED"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusDone       TaskStatus = "DONE"
)

// Next cycles NOT_STARTED -> IN_PROGRESS -> DONE -> NOT_STARTED.
func (s TaskStatus) Next() TaskStatus {
	switch s {
	case StatusNotStarted, "":
		return StatusInProgress
	case StatusInProgress:
		return StatusDone
	default:
		return StatusNotStarted
	}
}

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusDone:
		return true
	}
	return false
}

type TaskStatusUpdate struct {
	ID     int64
	Status TaskStatus
}

type RecentNote struct {
	ID        int64  `json:"id"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type DailySummary struct {
	Date              string       `json:"date"`
	ReignPercent      float64      `json:"reignPercent"`
	ProductivityScore float64      `json:"productivityScore"`
	TasksDone         int          `json:"tasksDone"`
	FocusTimeHours    float64      `json:"focusTimeHours"`
	Deadlines         int          `json:"deadlines"`
	YesterdaysVictory string       `json:"yesterdaysVictory"`
	TodaysFocus       string       `json:"todaysFocus"`
	AIRecommendations []string     `json:"aiRecommendations"`
	RecentNotes       []RecentNote `json:"recentNotes"`
}

// Note is a locally kept note, typed or dictated.
type Note struct {
	ID          string
	Content     string
	IsVoiceNote bool
	CreatedAt   time.Time
}

// ConversationListItem summarizes a locally stored conversation.
type ConversationListItem struct {
	ID             int64
	UpdatedAtUnix  int64
	LastUserPrompt string
}

// TaskView is a task as listed by the Todos view.
type TaskView struct {
	TaskRef
	Status TaskStatus
}
