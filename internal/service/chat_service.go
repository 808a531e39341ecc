package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/shop-backend/internal/model"
	"github.com/iliyamo/shop-backend/internal/repository"
)

const maxChatMessageLen = 5000

var errAdminOnly = kindError(ErrForbidden, "You do not have permission to perform this action.")

// ChatService covers direct messages and customer/admin threads.
type ChatService struct {
	chat  ChatStore
	users UserStore
}

func NewChatService(chat ChatStore, users UserStore) *ChatService {
	return &ChatService{chat: chat, users: users}
}

// SendInput is the body of a direct message.
type SendInput struct {
	Recipient uint64 `json:"recipient" validate:"required"`
	Message   string `json:"message" validate:"required,max=5000"`
}

// Send stores a direct message from senderID.
func (s *ChatService) Send(ctx context.Context, senderID uint64, in SendInput) (model.ChatMessage, error) {
	in.Message = strings.TrimSpace(in.Message)
	if err := check(in); err != nil {
		return model.ChatMessage{}, err
	}
	if _, err := s.users.GetByID(ctx, in.Recipient); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.ChatMessage{}, invalid("recipient", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", in.Recipient))
		}
		return model.ChatMessage{}, fmt.Errorf("load recipient: %w", err)
	}
	m := model.ChatMessage{SenderID: senderID, RecipientID: in.Recipient, Message: in.Message}
	if err := s.chat.CreateMessage(ctx, &m); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.ChatMessage{}, invalid("recipient", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", in.Recipient))
		}
		return model.ChatMessage{}, fmt.Errorf("send message: %w", err)
	}
	return m, nil
}

// Conversation returns the messages exchanged between me and other, oldest
// first.
func (s *ChatService) Conversation(ctx context.Context, me, other uint64) ([]model.ChatMessage, error) {
	if other == 0 {
		return nil, invalid("with", "This field is required.")
	}
	out, err := s.chat.Conversation(ctx, me, other)
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	return out, nil
}

// AdminUsers lists the non-admin accounts an admin can chat with.
func (s *ChatService) AdminUsers(ctx context.Context, actor Actor) ([]model.ChatUser, error) {
	if !actor.IsAdmin() {
		return nil, errAdminOnly
	}
	out, err := s.users.ListCustomers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return out, nil
}

// Inbox returns the messages addressed to the admin, newest first.
func (s *ChatService) Inbox(ctx context.Context, actor Actor) ([]model.ChatMessage, error) {
	if !actor.IsAdmin() {
		return nil, errAdminOnly
	}
	out, err := s.chat.Inbox(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("load inbox: %w", err)
	}
	return out, nil
}

// OpenThread returns the thread between a customer and an admin, creating
// it on first use.  A customer is paired with the first staff account; an
// admin names the customer.
func (s *ChatService) OpenThread(ctx context.Context, actor Actor, customerID uint64) (model.ChatThread, error) {
	var adminID uint64
	if actor.IsAdmin() {
		if customerID == 0 {
			return model.ChatThread{}, invalid("customer", "This field is required.")
		}
		u, err := s.users.GetByID(ctx, customerID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return model.ChatThread{}, notFoundf("user %d not found", customerID)
			}
			return model.ChatThread{}, fmt.Errorf("load customer: %w", err)
		}
		if u.IsAdmin() {
			return model.ChatThread{}, invalid("customer", "Threads can only be opened with a customer.")
		}
		adminID = actor.ID
	} else {
		id, err := s.users.FirstStaffID(ctx)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return model.ChatThread{}, notFoundf("Admin not found")
			}
			return model.ChatThread{}, fmt.Errorf("find admin: %w", err)
		}
		customerID, adminID = actor.ID, id
	}
	t, err := s.chat.OpenThread(ctx, customerID, adminID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.ChatThread{}, notFoundf("user not found")
		}
		return model.ChatThread{}, fmt.Errorf("open thread: %w", err)
	}
	return t, nil
}

func (s *ChatService) Threads(ctx context.Context, userID uint64) ([]model.ChatThread, error) {
	out, err := s.chat.ThreadsFor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}
	return out, nil
}

// ThreadMessages returns the messages of a thread the caller takes part in.
func (s *ChatService) ThreadMessages(ctx context.Context, userID, threadID uint64) ([]model.ThreadMessage, error) {
	if _, err := s.participant(ctx, userID, threadID); err != nil {
		return nil, err
	}
	out, err := s.chat.ThreadMessages(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("list thread messages: %w", err)
	}
	return out, nil
}

// PostThreadMessage appends text to a thread the caller takes part in.
func (s *ChatService) PostThreadMessage(ctx context.Context, userID, threadID uint64, text string) (model.ThreadMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.ThreadMessage{}, invalid("text", "This field is required.")
	}
	if len([]rune(text)) > maxChatMessageLen {
		return model.ThreadMessage{}, invalid("text", fmt.Sprintf("Ensure this field has no more than %d characters.", maxChatMessageLen))
	}
	if _, err := s.participant(ctx, userID, threadID); err != nil {
		return model.ThreadMessage{}, err
	}
	m := model.ThreadMessage{ThreadID: threadID, SenderID: userID, Text: text}
	if err := s.chat.AddThreadMessage(ctx, &m); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.ThreadMessage{}, notFoundf("thread %d not found", threadID)
		}
		return model.ThreadMessage{}, fmt.Errorf("post thread message: %w", err)
	}
	return m, nil
}

func (s *ChatService) participant(ctx context.Context, userID, threadID uint64) (model.ChatThread, error) {
	t, err := s.chat.GetThread(ctx, threadID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.ChatThread{}, notFoundf("thread %d not found", threadID)
		}
		return model.ChatThread{}, fmt.Errorf("load thread: %w", err)
	}
	if !t.HasParticipant(userID) {
		return model.ChatThread{}, kindError(ErrForbidden, "You are not a participant of this thread.")
	}
	return t, nil
}
