package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatConversationBothDirections(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	buyer := f.user(t, "buyer@example.com", false)
	admin := f.user(t, "admin@example.com", true)
	other := f.user(t, "other@example.com", false)
	svc := NewChatService(f.store.Chat(), f.store.Users())

	_, err := svc.Send(ctx, buyer.ID, SendInput{Recipient: admin.ID, Message: "hello"})
	require.NoError(t, err)
	_, err = svc.Send(ctx, admin.ID, SendInput{Recipient: buyer.ID, Message: "hi there"})
	require.NoError(t, err)
	_, err = svc.Send(ctx, other.ID, SendInput{Recipient: admin.ID, Message: "unrelated"})
	require.NoError(t, err)

	conv, err := svc.Conversation(ctx, buyer.ID, admin.ID)
	require.NoError(t, err)
	require.Len(t, conv, 2)
	assert.Equal(t, "hello", conv[0].Message)
	assert.Equal(t, "buyer@example.com", conv[0].SenderName)
	assert.Equal(t, "admin@example.com", conv[0].RecipientName)

	inbox, err := svc.Inbox(ctx, customer(admin))
	require.NoError(t, err)
	require.Len(t, inbox, 2)
	assert.Equal(t, "unrelated", inbox[0].Message)
}

func TestChatAdminOnlyViews(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	buyer := f.user(t, "buyer@example.com", false)
	admin := f.user(t, "admin@example.com", true)
	svc := NewChatService(f.store.Chat(), f.store.Users())

	_, err := svc.Inbox(ctx, customer(buyer))
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.AdminUsers(ctx, customer(buyer))
	assert.ErrorIs(t, err, ErrForbidden)

	users, err := svc.AdminUsers(ctx, customer(admin))
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, buyer.ID, users[0].ID)
}

func TestChatSendValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	buyer := f.user(t, "buyer@example.com", false)
	svc := NewChatService(f.store.Chat(), f.store.Users())

	var verr *ValidationError
	_, err := svc.Send(ctx, buyer.ID, SendInput{Recipient: 99, Message: "x"})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "recipient")

	_, err = svc.Send(ctx, buyer.ID, SendInput{Recipient: buyer.ID, Message: " "})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "message")

	_, err = svc.Conversation(ctx, buyer.ID, 0)
	require.ErrorAs(t, err, &verr)
}

func TestChatThreads(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	svc := NewChatService(f.store.Chat(), f.store.Users())
	buyer := f.user(t, "buyer@example.com", false)

	_, err := svc.OpenThread(ctx, customer(buyer), 0)
	assert.ErrorIs(t, err, ErrNotFound)

	admin := f.user(t, "admin@example.com", true)
	stranger := f.user(t, "stranger@example.com", false)

	th, err := svc.OpenThread(ctx, customer(buyer), 0)
	require.NoError(t, err)
	assert.Equal(t, buyer.ID, th.CustomerID)
	assert.Equal(t, admin.ID, th.AdminID)

	again, err := svc.OpenThread(ctx, customer(admin), buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, th.ID, again.ID)

	var verr *ValidationError
	_, err = svc.OpenThread(ctx, customer(admin), admin.ID)
	require.ErrorAs(t, err, &verr)

	_, err = svc.PostThreadMessage(ctx, buyer.ID, th.ID, "where is my order?")
	require.NoError(t, err)
	_, err = svc.PostThreadMessage(ctx, admin.ID, th.ID, "shipped today")
	require.NoError(t, err)

	_, err = svc.PostThreadMessage(ctx, stranger.ID, th.ID, "hi")
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.ThreadMessages(ctx, stranger.ID, th.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.ThreadMessages(ctx, buyer.ID, 404)
	assert.ErrorIs(t, err, ErrNotFound)

	msgs, err := svc.ThreadMessages(ctx, admin.ID, th.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, buyer.ID, msgs[0].SenderID)

	mine, err := svc.Threads(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	none, err := svc.Threads(ctx, stranger.ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}
