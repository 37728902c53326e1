package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"thronemind/internal/models"
)

func Open(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, err
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS conversations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			owner TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			last_user_prompt TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS messages (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL,
			conversation_id INTEGER NOT NULL,
			is_user INTEGER NOT NULL,
			text TEXT NOT NULL,
			type TEXT NOT NULL DEFAULT '',
			tasks TEXT NOT NULL DEFAULT '[]',
			resolved INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL,
			FOREIGN KEY(conversation_id) REFERENCES conversations(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS notes (
			id TEXT PRIMARY KEY,
			owner TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL,
			is_voice INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL
		);`,
	}
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_conversations_owner_updated_at ON conversations(owner, updated_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conversation_id ON messages(conversation_id, seq);`,
		`CREATE INDEX IF NOT EXISTS idx_notes_owner_created_at ON notes(owner, created_at DESC);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	// Databases written before conversations and notes were per user.
	for _, table := range []string{"conversations", "notes"} {
		if err := ensureColumn(db, table, "owner", "TEXT NOT NULL DEFAULT ''"); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	for _, stmt := range indexes {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return db, nil
}

func ensureColumn(db *sql.DB, table, column, decl string) error {
	rows, err := db.Query("SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		if name == column {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	_, err = db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, decl))
	return err
}

// KV is the durable key/value record the session persists into.
type KV struct {
	DB *sql.DB
}

func (s KV) Get(key string) (string, bool, error) {
	var v string
	err := s.DB.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s KV) Set(key, value string) error {
	_, err := s.DB.Exec(
		"INSERT INTO kv(key, value) VALUES(?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key,
		value,
	)
	return err
}

func (s KV) Remove(keys ...string) error {
	for _, k := range keys {
		if _, err := s.DB.Exec("DELETE FROM kv WHERE key = ?", k); err != nil {
			return err
		}
	}
	return nil
}

// CreateConversation starts a conversation owned by owner, the signed-in
// user's email.
func CreateConversation(db *sql.DB, owner string, nowUnix int64) (int64, error) {
	res, err := db.Exec(
		"INSERT INTO conversations(owner, created_at, updated_at, last_user_prompt) VALUES(?, ?, ?, '')",
		owner,
		nowUnix,
		nowUnix,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func InsertMessage(db *sql.DB, conversationID int64, m models.ConversationMessage) error {
	tasks := m.Tasks
	if tasks == nil {
		tasks = []models.TaskRef{}
	}
	tasksJSON, err := json.Marshal(tasks)
	if err != nil {
		return err
	}
	_, err = db.Exec(
		"INSERT INTO messages(id, conversation_id, is_user, text, type, tasks, resolved, created_at) VALUES(?, ?, ?, ?, ?, ?, ?, ?)",
		m.ID,
		conversationID,
		boolInt(m.IsUser),
		m.Text,
		string(m.Type),
		string(tasksJSON),
		boolInt(m.Resolved),
		m.Timestamp.Unix(),
	)
	return err
}

func MarkMessageResolved(db *sql.DB, conversationID int64, messageID string) error {
	_, err := db.Exec(
		"UPDATE messages SET resolved = 1 WHERE conversation_id = ? AND id = ?",
		conversationID,
		messageID,
	)
	return err
}

func UpdateConversationOnUser(db *sql.DB, conversationID int64, nowUnix int64, lastUserPrompt string) error {
	_, err := db.Exec(
		"UPDATE conversations SET updated_at = ?, last_user_prompt = ? WHERE id = ?",
		nowUnix,
		lastUserPrompt,
		conversationID,
	)
	return err
}

func TouchConversation(db *sql.DB, conversationID int64, nowUnix int64) error {
	_, err := db.Exec(
		"UPDATE conversations SET updated_at = ? WHERE id = ?",
		nowUnix,
		conversationID,
	)
	return err
}

func GetRecentConversations(db *sql.DB, owner string, limit, offset int) (int, []models.ConversationListItem, error) {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM conversations WHERE owner = ?", owner).Scan(&count); err != nil {
		return 0, nil, err
	}

	rows, err := db.Query(
		"SELECT id, updated_at, last_user_prompt FROM conversations WHERE owner = ? ORDER BY updated_at DESC, id DESC LIMIT ? OFFSET ?",
		owner,
		limit,
		offset,
	)
	if err != nil {
		return 0, nil, err
	}
	defer rows.Close()

	items := make([]models.ConversationListItem, 0, limit)
	for rows.Next() {
		var it models.ConversationListItem
		if err := rows.Scan(&it.ID, &it.UpdatedAtUnix, &it.LastUserPrompt); err != nil {
			return 0, nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return 0, nil, err
	}

	return count, items, nil
}

// GetConversationMessages returns the messages of a conversation, or none
// when it belongs to someone other than owner.
func GetConversationMessages(db *sql.DB, owner string, conversationID int64) ([]models.ConversationMessage, error) {
	rows, err := db.Query(
		`SELECT m.id, m.is_user, m.text, m.type, m.tasks, m.resolved, m.created_at
		FROM messages m JOIN conversations c ON c.id = m.conversation_id
		WHERE m.conversation_id = ? AND c.owner = ?
		ORDER BY m.seq ASC`,
		conversationID,
		owner,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := []models.ConversationMessage{}
	for rows.Next() {
		var (
			m         models.ConversationMessage
			isUser    int
			resolved  int
			typ       string
			tasksJSON string
			createdAt int64
		)
		if err := rows.Scan(&m.ID, &isUser, &m.Text, &typ, &tasksJSON, &resolved, &createdAt); err != nil {
			return nil, err
		}
		m.IsUser = isUser != 0
		m.Resolved = resolved != 0
		m.Type = models.MessageType(typ)
		m.Timestamp = time.Unix(createdAt, 0)
		if err := json.Unmarshal([]byte(tasksJSON), &m.Tasks); err != nil {
			return nil, err
		}
		if len(m.Tasks) == 0 {
			m.Tasks = nil
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return msgs, nil
}

func InsertNote(db *sql.DB, owner string, n models.Note) error {
	_, err := db.Exec(
		"INSERT INTO notes(id, owner, content, is_voice, created_at) VALUES(?, ?, ?, ?, ?)",
		n.ID,
		owner,
		n.Content,
		boolInt(n.IsVoiceNote),
		n.CreatedAt.Unix(),
	)
	return err
}

func DeleteNote(db *sql.DB, owner, id string) error {
	_, err := db.Exec("DELETE FROM notes WHERE id = ? AND owner = ?", id, owner)
	return err
}

// ListNotes returns owner's notes newest first.
func ListNotes(db *sql.DB, owner string) ([]models.Note, error) {
	rows, err := db.Query("SELECT id, content, is_voice, created_at FROM notes WHERE owner = ? ORDER BY created_at DESC, rowid DESC", owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := []models.Note{}
	for rows.Next() {
		var (
			n         models.Note
			isVoice   int
			createdAt int64
		)
		if err := rows.Scan(&n.ID, &n.Content, &isVoice, &createdAt); err != nil {
			return nil, err
		}
		n.IsVoiceNote = isVoice != 0
		n.CreatedAt = time.Unix(createdAt, 0)
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
