package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/shop-backend/internal/model"
)

// ChatRepo stores direct messages and customer/admin threads.
type ChatRepo struct{ DB *sql.DB }

func NewChatRepo(db *sql.DB) *ChatRepo { return &ChatRepo{DB: db} }

const chatSelect = `SELECT m.id, m.sender_id, m.recipient_id, m.message, m.timestamp, s.email, rc.email
	FROM chat_messages m
	JOIN users s ON s.id = m.sender_id
	JOIN users rc ON rc.id = m.recipient_id `

// CreateMessage appends a direct message and reloads its timestamp and
// participant emails.  ErrNotFound is returned when the recipient is absent.
func (r *ChatRepo) CreateMessage(ctx context.Context, m *model.ChatMessage) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO chat_messages (sender_id, recipient_id, message) VALUES (?,?,?)",
		m.SenderID, m.RecipientID, m.Message)
	if err != nil {
		if isMissingReference(err) {
			return ErrNotFound
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	return notFound(r.DB.QueryRowContext(ctx, chatSelect+"WHERE m.id=?", id).Scan(
		&m.ID, &m.SenderID, &m.RecipientID, &m.Message, &m.Timestamp, &m.SenderName, &m.RecipientName))
}

// Conversation returns the messages exchanged between a and b in either
// direction, oldest first.
func (r *ChatRepo) Conversation(ctx context.Context, a, b uint64) ([]model.ChatMessage, error) {
	return r.messages(ctx,
		chatSelect+`WHERE (m.sender_id=? AND m.recipient_id=?) OR (m.sender_id=? AND m.recipient_id=?)
		ORDER BY m.timestamp ASC, m.id ASC`, a, b, b, a)
}

// Inbox returns the messages addressed to recipientID, newest first.
func (r *ChatRepo) Inbox(ctx context.Context, recipientID uint64) ([]model.ChatMessage, error) {
	return r.messages(ctx, chatSelect+"WHERE m.recipient_id=? ORDER BY m.timestamp DESC, m.id DESC", recipientID)
}

func (r *ChatRepo) messages(ctx context.Context, q string, args ...any) ([]model.ChatMessage, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.ChatMessage, 0)
	for rows.Next() {
		var m model.ChatMessage
		if err := rows.Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.Message, &m.Timestamp, &m.SenderName, &m.RecipientName); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// OpenThread returns the thread of (customerID, adminID), creating it on
// first use.  The unique key on the pair makes concurrent opens converge.
func (r *ChatRepo) OpenThread(ctx context.Context, customerID, adminID uint64) (model.ChatThread, error) {
	// The no-op update lets a second open succeed without creating a row.
	if _, err := r.DB.ExecContext(ctx,
		"INSERT INTO chat_threads (customer_id, admin_id) VALUES (?,?) ON DUPLICATE KEY UPDATE id=id",
		customerID, adminID); err != nil {
		if isMissingReference(err) {
			return model.ChatThread{}, ErrNotFound
		}
		return model.ChatThread{}, err
	}
	var t model.ChatThread
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, customer_id, admin_id, created_at FROM chat_threads WHERE customer_id=? AND admin_id=?",
		customerID, adminID).Scan(&t.ID, &t.CustomerID, &t.AdminID, &t.CreatedAt)
	return t, notFound(err)
}

// GetThread loads one thread.
func (r *ChatRepo) GetThread(ctx context.Context, id uint64) (model.ChatThread, error) {
	var t model.ChatThread
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, customer_id, admin_id, created_at FROM chat_threads WHERE id=?", id).
		Scan(&t.ID, &t.CustomerID, &t.AdminID, &t.CreatedAt)
	return t, notFound(err)
}

// ThreadsFor lists the threads userID takes part in, on either side.
func (r *ChatRepo) ThreadsFor(ctx context.Context, userID uint64) ([]model.ChatThread, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, customer_id, admin_id, created_at FROM chat_threads WHERE customer_id=? OR admin_id=? ORDER BY id",
		userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.ChatThread, 0)
	for rows.Next() {
		var t model.ChatThread
		if err := rows.Scan(&t.ID, &t.CustomerID, &t.AdminID, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// AddThreadMessage appends m to its thread.
func (r *ChatRepo) AddThreadMessage(ctx context.Context, m *model.ThreadMessage) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO thread_messages (thread_id, sender_id, text) VALUES (?,?,?)",
		m.ThreadID, m.SenderID, m.Text)
	if err != nil {
		if isMissingReference(err) {
			return ErrNotFound
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return notFound(r.DB.QueryRowContext(ctx, "SELECT timestamp FROM thread_messages WHERE id=?", m.ID).Scan(&m.Timestamp))
}

// ThreadMessages returns a thread's messages, oldest first.
func (r *ChatRepo) ThreadMessages(ctx context.Context, threadID uint64) ([]model.ThreadMessage, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, thread_id, sender_id, text, timestamp FROM thread_messages WHERE thread_id=? ORDER BY timestamp, id",
		threadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.ThreadMessage, 0)
	for rows.Next() {
		var m model.ThreadMessage
		if err := rows.Scan(&m.ID, &m.ThreadID, &m.SenderID, &m.Text, &m.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
