// Package convlog is the append-only conversation log kept in the
// application's sqlite database: one row per conversation, one INSERT per turn.
package convlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/iksnae/agentroom/internal"
)

var (
	// ErrNotFound is returned when no conversation matches an id
	ErrNotFound = errors.New("conversation not found")
	// ErrAmbiguous is returned when an id prefix matches several conversations
	ErrAmbiguous = errors.New("conversation id is ambiguous")
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		host TEXT NOT NULL,
		host_is_bot INTEGER NOT NULL,
		guest TEXT NOT NULL,
		guest_is_bot INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		last_active INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS turns (
		id TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		request TEXT NOT NULL,
		response TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS turns_conversation ON turns(conversation_id, seq)`,
}

// Summary is a conversation without its turns
type Summary struct {
	ID         uuid.UUID
	Host       internal.Participant
	Guest      internal.Participant
	CreatedAt  time.Time
	LastActive time.Time
	Turns      int
}

// Title is a short human label for the conversation
func (s Summary) Title() string {
	return fmt.Sprintf("%s & %s", s.Host.Name, s.Guest.Name)
}

// Log reads and appends conversations
type Log struct {
	db *sql.DB
}

// New creates the log tables if needed. The caller owns db.
func New(db *sql.DB) (*Log, error) {
	if err := internal.Migrate(db, schema...); err != nil {
		return nil, err
	}
	return &Log{db: db}, nil
}

// Create stores a new conversation and any turns it already holds
func (l *Log) Create(ctx context.Context, conv *internal.Conversation) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return &internal.StorageError{Op: "write", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO conversations (id, host, host_is_bot, guest, guest_is_bot, created_at, last_active)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		conv.ID.String(), conv.Host.Name, conv.Host.IsBot, conv.Guest.Name, conv.Guest.IsBot,
		conv.CreatedAt.UnixMilli(), conv.LastActive.UnixMilli())
	if err != nil {
		return &internal.StorageError{Op: "write", Err: fmt.Errorf("failed to create conversation: %w", err)}
	}
	for i, turn := range conv.Turns {
		if err := insertTurn(ctx, tx, conv.ID, i, turn); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return &internal.StorageError{Op: "write", Err: err}
	}
	internal.LogDebug("Created conversation %s (%s)", conv.ID, conv.Title())
	return nil
}

// Append adds one turn to a stored conversation and bumps its last activity
func (l *Log) Append(ctx context.Context, id uuid.UUID, turn internal.Turn, at time.Time) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return &internal.StorageError{Op: "write", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	var seq int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM turns WHERE conversation_id = ?`, id.String()).Scan(&seq); err != nil {
		return &internal.StorageError{Op: "write", Err: err}
	}
	if err := insertTurn(ctx, tx, id, seq, turn); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `UPDATE conversations SET last_active = ? WHERE id = ?`, at.UnixMilli(), id.String())
	if err != nil {
		return &internal.StorageError{Op: "write", Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := tx.Commit(); err != nil {
		return &internal.StorageError{Op: "write", Err: err}
	}
	return nil
}

// Record appends the conversation's newest turn; it lets the log serve as
// a two-agent room's recorder
func (l *Log) Record(ctx context.Context, conv *internal.Conversation, turn internal.Turn) error {
	return l.Append(ctx, conv.ID, turn, conv.LastActive)
}

func insertTurn(ctx context.Context, tx *sql.Tx, id uuid.UUID, seq int, turn internal.Turn) error {
	request, err := json.Marshal(turn.Request)
	if err != nil {
		return &internal.StorageError{Op: "write", Err: err}
	}
	response, err := json.Marshal(turn.Response)
	if err != nil {
		return &internal.StorageError{Op: "write", Err: err}
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO turns (id, conversation_id, seq, request, response) VALUES (?, ?, ?, ?, ?)`,
		turn.ID.String(), id.String(), seq, string(request), string(response))
	if err != nil {
		return &internal.StorageError{Op: "write", Err: fmt.Errorf("failed to append turn: %w", err)}
	}
	return nil
}

// List returns conversations, most recently active first. limit <= 0 means all.
func (l *Log) List(ctx context.Context, limit int) ([]Summary, error) {
	query := `SELECT c.id, c.host, c.host_is_bot, c.guest, c.guest_is_bot, c.created_at, c.last_active,
			(SELECT COUNT(*) FROM turns t WHERE t.conversation_id = c.id)
		FROM conversations c ORDER BY c.last_active DESC, c.id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &internal.StorageError{Op: "read", Err: err}
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, &internal.StorageError{Op: "read", Err: err}
	}
	return out, nil
}

// Resolve expands a full id or unique id prefix to a conversation id
func (l *Log) Resolve(ctx context.Context, idOrPrefix string) (uuid.UUID, error) {
	prefix := strings.ToLower(strings.TrimSpace(idOrPrefix))
	if prefix == "" {
		return uuid.Nil, fmt.Errorf("%w: empty id", ErrNotFound)
	}
	rows, err := l.db.QueryContext(ctx, `SELECT id FROM conversations WHERE substr(id, 1, length(?)) = ? LIMIT 2`, prefix, prefix)
	if err != nil {
		return uuid.Nil, &internal.StorageError{Op: "read", Err: err}
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return uuid.Nil, &internal.StorageError{Op: "read", Err: err}
		}
		ids = append(ids, id)
	}
	switch len(ids) {
	case 0:
		return uuid.Nil, fmt.Errorf("%w: %s", ErrNotFound, idOrPrefix)
	case 1:
		return uuid.Parse(ids[0])
	default:
		return uuid.Nil, fmt.Errorf("%w: %s", ErrAmbiguous, idOrPrefix)
	}
}

// Load reads a conversation with all its turns. id may be a unique prefix.
func (l *Log) Load(ctx context.Context, idOrPrefix string) (*internal.Conversation, error) {
	id, err := l.Resolve(ctx, idOrPrefix)
	if err != nil {
		return nil, err
	}

	row := l.db.QueryRowContext(ctx,
		`SELECT c.id, c.host, c.host_is_bot, c.guest, c.guest_is_bot, c.created_at, c.last_active, 0
		 FROM conversations c WHERE c.id = ?`, id.String())
	s, err := scanSummary(row)
	if err != nil {
		return nil, err
	}
	conv := &internal.Conversation{
		ID:         s.ID,
		CreatedAt:  s.CreatedAt,
		LastActive: s.LastActive,
		Host:       s.Host,
		Guest:      s.Guest,
		Turns:      []internal.Turn{},
	}

	rows, err := l.db.QueryContext(ctx, `SELECT id, request, response FROM turns WHERE conversation_id = ? ORDER BY seq`, id.String())
	if err != nil {
		return nil, &internal.StorageError{Op: "read", Err: err}
	}
	defer rows.Close()
	for rows.Next() {
		var turnID, request, response string
		if err := rows.Scan(&turnID, &request, &response); err != nil {
			return nil, &internal.StorageError{Op: "read", Err: err}
		}
		var turn internal.Turn
		if turn.ID, err = uuid.Parse(turnID); err != nil {
			return nil, &internal.StorageError{Op: "parse", Err: err}
		}
		if err := json.Unmarshal([]byte(request), &turn.Request); err != nil {
			return nil, &internal.StorageError{Op: "parse", Err: err}
		}
		if err := json.Unmarshal([]byte(response), &turn.Response); err != nil {
			return nil, &internal.StorageError{Op: "parse", Err: err}
		}
		conv.Turns = append(conv.Turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, &internal.StorageError{Op: "read", Err: err}
	}
	return conv, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSummary(row scanner) (Summary, error) {
	var (
		s                  Summary
		id                 string
		created, lastActive int64
	)
	err := row.Scan(&id, &s.Host.Name, &s.Host.IsBot, &s.Guest.Name, &s.Guest.IsBot, &created, &lastActive, &s.Turns)
	if errors.Is(err, sql.ErrNoRows) {
		return s, ErrNotFound
	}
	if err != nil {
		return s, &internal.StorageError{Op: "read", Err: err}
	}
	if s.ID, err = uuid.Parse(id); err != nil {
		return s, &internal.StorageError{Op: "parse", Err: err}
	}
	s.CreatedAt = time.UnixMilli(created).UTC()
	s.LastActive = time.UnixMilli(lastActive).UTC()
	return s, nil
}
