package message

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"go-classified/internal/middleware"
	"go-classified/internal/web"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all for now (Dev mode)
	},
}

// RoleChecker is what we need from the user service.
type RoleChecker interface {
	IsAdmin(ctx context.Context, userID int) bool
}

type Handler struct {
	Service *Service
	Hub     *Hub
	Roles   RoleChecker
}

func NewHandler(service *Service, hub *Hub, roles RoleChecker) *Handler {
	return &Handler{Service: service, Hub: hub, Roles: roles}
}

// Index lists the caller's conversations.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := middleware.Identity(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	result, err := h.Service.Inbox(r.Context(), userID, page)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	web.JSON(w, http.StatusOK, result)
}

// View returns one conversation with a page of its messages, newest first.
func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := middleware.Identity(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	conv, messages, err := h.Service.ViewConversation(r.Context(), id, page, userID)
	if err != nil {
		h.guardFailure(w, err)
		return
	}

	web.JSON(w, http.StatusOK, map[string]interface{}{
		"conversation": conv,
		"paginator":    messages,
	})
}

type messageRequest struct {
	Content string `json:"content"`
}

// Contact starts (or finds) the conversation about an advert.
func (h *Handler) Contact(w http.ResponseWriter, r *http.Request) {
	userID, login, ok := middleware.Identity(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	advertID, _ := strconv.Atoi(chi.URLParam(r, "id"))

	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		web.FieldErrors(w, map[string]string{"content": "must not be blank"})
		return
	}

	result, err := h.Service.InitiateContact(r.Context(), advertID, req.Content, userID, login)
	switch {
	case err == nil:
	case errors.Is(err, ErrSelfContact):
		web.FlashRedirect(
			w, http.StatusBadRequest,
			"/api/adverts/"+strconv.Itoa(advertID),
			web.FlashWarning, "cannot send a message to yourself",
		)
		return
	default:
		h.guardFailure(w, err)
		return
	}

	redirect := "/api/conversations/" + strconv.Itoa(result.ConversationID)
	if !result.Created {
		// Second contact for the same advert: no rows written, just route to
		// the existing conversation.
		web.JSON(w, http.StatusOK, map[string]interface{}{
			"conversation_id": result.ConversationID,
			"redirect":        redirect,
		})
		return
	}
	web.FlashRedirect(w, http.StatusCreated, redirect, web.FlashSuccess, "record added")
}

// Reply appends a message to a conversation the caller takes part in.
func (h *Handler) Reply(w http.ResponseWriter, r *http.Request) {
	userID, login, ok := middleware.Identity(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, _ := strconv.Atoi(chi.URLParam(r, "id"))

	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		web.FieldErrors(w, map[string]string{"content": "must not be blank"})
		return
	}

	if _, err := h.Service.Reply(r.Context(), id, req.Content, userID, login); err != nil {
		h.guardFailure(w, err)
		return
	}
	web.FlashRedirect(
		w, http.StatusCreated,
		"/api/conversations/"+strconv.Itoa(id),
		web.FlashSuccess, "record added",
	)
}

func (h *Handler) EditMessage(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := middleware.Identity(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, _ := strconv.Atoi(chi.URLParam(r, "id"))

	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		web.FieldErrors(w, map[string]string{"content": "must not be blank"})
		return
	}

	isAdmin := h.Roles.IsAdmin(r.Context(), userID)
	if err := h.Service.EditMessage(r.Context(), id, req.Content, userID, isAdmin); err != nil {
		h.guardFailure(w, err)
		return
	}
	web.FlashRedirect(w, http.StatusOK, "/api/conversations", web.FlashSuccess, "record saved")
}

func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := middleware.Identity(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, _ := strconv.Atoi(chi.URLParam(r, "id"))

	isAdmin := h.Roles.IsAdmin(r.Context(), userID)
	if err := h.Service.DeleteMessage(r.Context(), id, userID, isAdmin); err != nil {
		h.guardFailure(w, err)
		return
	}
	web.FlashRedirect(w, http.StatusOK, "/api/conversations", web.FlashSuccess, "record deleted")
}

// ServeWs upgrades to a websocket and streams new messages addressed to the
// caller.
func (h *Handler) ServeWs(w http.ResponseWriter, r *http.Request) {
	userID, login, ok := middleware.Identity(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println(err)
		return
	}

	client := &Client{
		Hub:    h.Hub,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		UserID: userID,
		Login:  login,
	}
	client.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}

// guardFailure answers a failed workflow guard. Forbidden looks exactly like
// not-found on the wire; anything else is a persistence fault.
func (h *Handler) guardFailure(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrForbidden) {
		web.FlashRedirect(w, http.StatusNotFound, "/api/conversations", web.FlashWarning, "record not found")
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
