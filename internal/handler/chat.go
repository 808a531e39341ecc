package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/shop-backend/internal/model"
	"github.com/iliyamo/shop-backend/internal/service"
)

// ChatHandler serves direct messages and support threads.
type ChatHandler struct {
	Chat  *service.ChatService
	Users *service.UserService
	Log   zerolog.Logger
}

func NewChatHandler(chat *service.ChatService, users *service.UserService, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{Chat: chat, Users: users, Log: log}
}

type inboxEntry struct {
	ID          uint64    `json:"id"`
	SenderID    uint64    `json:"sender_id"`
	SenderEmail string    `json:"sender_email"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
}

type openThreadReq struct {
	Customer uint64 `json:"customer"`
}

type threadMessageReq struct {
	Text string `json:"text"`
}

// Conversation lists messages exchanged with ?with=<user id>.
func (h *ChatHandler) Conversation(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var other uint64
	if v := c.QueryParam("with"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"with": []string{"A valid integer is required."}})
		}
		other = n
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	out, err := h.Chat.Conversation(ctx, uid, other)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ChatHandler) Send(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var req service.SendInput
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	m, err := h.Chat.Send(ctx, uid, req)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, m)
}

// AdminID tells customers whom to message for support.
func (h *ChatHandler) AdminID(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	id, err := h.Users.AdminID(ctx)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"admin_id": id})
}

func (h *ChatHandler) AdminUsers(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return unauthorized(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	out, err := h.Chat.AdminUsers(ctx, actor)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Inbox lists messages addressed to the admin, newest first.
func (h *ChatHandler) Inbox(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return unauthorized(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	msgs, err := h.Chat.Inbox(ctx, actor)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, inboxView(msgs))
}

func inboxView(msgs []model.ChatMessage) []inboxEntry {
	out := make([]inboxEntry, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, inboxEntry{
			ID:          m.ID,
			SenderID:    m.SenderID,
			SenderEmail: m.SenderName,
			Message:     m.Message,
			Timestamp:   m.Timestamp,
		})
	}
	return out
}

func (h *ChatHandler) Threads(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	out, err := h.Chat.Threads(ctx, uid)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, out)
}

// OpenThread returns the caller's support thread, creating it if needed.
// Admins pass the customer id in the body.
func (h *ChatHandler) OpenThread(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return unauthorized(c)
	}
	var req openThreadReq
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return invalidBody(c)
		}
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	t, err := h.Chat.OpenThread(ctx, actor, req.Customer)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *ChatHandler) ThreadMessages(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	out, err := h.Chat.ThreadMessages(ctx, uid, id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ChatHandler) PostThreadMessage(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var req threadMessageReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	m, err := h.Chat.PostThreadMessage(ctx, uid, id, req.Text)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, m)
}
