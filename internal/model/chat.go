package model

import "time"

// ChatMessage is a direct message between two users.
type ChatMessage struct {
	ID            uint64    `json:"id"`             // chat_messages.id
	SenderID      uint64    `json:"sender"`         // chat_messages.sender_id
	RecipientID   uint64    `json:"recipient"`      // chat_messages.recipient_id
	Message       string    `json:"message"`        // chat_messages.message
	Timestamp     time.Time `json:"timestamp"`      // chat_messages.timestamp
	SenderName    string    `json:"sender_name"`    // users.email of the sender
	RecipientName string    `json:"recipient_name"` // users.email of the recipient
}

// ChatThread pairs a customer with an admin.  There is at most one thread
// per pair.
type ChatThread struct {
	ID         uint64    `json:"id"`         // chat_threads.id
	CustomerID uint64    `json:"customer"`   // chat_threads.customer_id
	AdminID    uint64    `json:"admin"`      // chat_threads.admin_id
	CreatedAt  time.Time `json:"created_at"` // chat_threads.created_at
}

// HasParticipant reports whether userID is one side of the thread.
func (t ChatThread) HasParticipant(userID uint64) bool {
	return t.CustomerID == userID || t.AdminID == userID
}

// ThreadMessage is a message posted inside a thread.
type ThreadMessage struct {
	ID        uint64    `json:"id"`        // thread_messages.id
	ThreadID  uint64    `json:"thread"`    // thread_messages.thread_id
	SenderID  uint64    `json:"sender"`    // thread_messages.sender_id
	Text      string    `json:"text"`      // thread_messages.text
	Timestamp time.Time `json:"timestamp"` // thread_messages.timestamp
}

// ChatUser is the short identity shown in the admin chat sidebar.
type ChatUser struct {
	ID       uint64 `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}
