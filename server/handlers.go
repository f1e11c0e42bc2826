package server

import (
	"chat-relay/auth"
	"chat-relay/domain"
	apperrors "chat-relay/errors"
	"chat-relay/services"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type contextKey string

const userIDKey contextKey = "userID"

// Handlers binds the HTTP surface to the domain services.
type Handlers struct {
	authService   services.IAuthService
	conversations services.IConversationService
	messages      services.IMessageService
	connections   services.IConnectionService
	authenticator *auth.Authenticator
	log           *slog.Logger
}

func NewHandlers(
	authService services.IAuthService,
	conversations services.IConversationService,
	messages services.IMessageService,
	connections services.IConnectionService,
	authenticator *auth.Authenticator,
	log *slog.Logger,
) *Handlers {
	return &Handlers{
		authService:   authService,
		conversations: conversations,
		messages:      messages,
		connections:   connections,
		authenticator: authenticator,
		log:           log,
	}
}

// Authenticated rejects requests without a valid bearer token and stores the
// caller's identity in the request context.
func (h *Handlers) Authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := h.authenticator.Authenticate(r.Header.Get("Authorization"))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	}
}

func callerID(r *http.Request) domain.UserID {
	id, _ := r.Context().Value(userIDKey).(domain.UserID)
	return id
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decode(w, r, &req) {
		return
	}
	token, err := h.authService.Register(req.Email, req.Password)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tokenResponse{Token: string(token)})
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decode(w, r, &req) {
		return
	}
	token, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: string(token)})
}

func (h *Handlers) OnlineUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.connections.OnlineUsers(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]domain.UserID{"users": users})
}

type createConversationRequest struct {
	Title        string   `json:"title"`
	Participants []string `json:"participants"`
}

func (h *Handlers) CreateConversation(w http.ResponseWriter, r *http.Request) {
	var req createConversationRequest
	if !decode(w, r, &req) {
		return
	}
	conversation, err := h.conversations.Create(r.Context(), callerID(r), req.Title, toUserIDs(req.Participants))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, conversation)
}

func (h *Handlers) GetConversation(w http.ResponseWriter, r *http.Request) {
	conversationID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	conversation, err := h.conversations.Get(conversationID, callerID(r))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conversation)
}

type participantsRequest struct {
	UserIDs []string `json:"user_ids"`
}

func (h *Handlers) AddParticipants(w http.ResponseWriter, r *http.Request) {
	conversationID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req participantsRequest
	if !decode(w, r, &req) {
		return
	}
	conversation, err := h.conversations.AddParticipants(r.Context(), callerID(r), conversationID, toUserIDs(req.UserIDs))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conversation)
}

func (h *Handlers) RemoveParticipant(w http.ResponseWriter, r *http.Request) {
	conversationID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	userID := domain.UserID(r.PathValue("userID"))
	if err := h.conversations.RemoveParticipant(r.Context(), callerID(r), conversationID, userID); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) LeaveConversation(w http.ResponseWriter, r *http.Request) {
	conversationID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.conversations.Leave(r.Context(), callerID(r), conversationID); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type messageRequest struct {
	Text string `json:"text"`
}

func (h *Handlers) CreateMessage(w http.ResponseWriter, r *http.Request) {
	conversationID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req messageRequest
	if !decode(w, r, &req) {
		return
	}
	message, err := h.messages.Create(r.Context(), callerID(r), conversationID, req.Text)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, message)
}

type historyResponse struct {
	Messages   []domain.Message `json:"messages"`
	NextCursor *string          `json:"next_cursor,omitempty"`
}

func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	conversationID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var cursor *string
	if raw := r.URL.Query().Get("cursor"); raw != "" {
		cursor = &raw
	}
	messages, next, err := h.messages.History(conversationID, callerID(r), cursor)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{Messages: messages, NextCursor: next})
}

func (h *Handlers) UpdateMessage(w http.ResponseWriter, r *http.Request) {
	messageID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req messageRequest
	if !decode(w, r, &req) {
		return
	}
	message, err := h.messages.Update(r.Context(), callerID(r), messageID, req.Text)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, message)
}

func (h *Handlers) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	messageID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.messages.Delete(r.Context(), callerID(r), messageID); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) MarkRead(w http.ResponseWriter, r *http.Request) {
	messageID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.messages.MarkRead(r.Context(), callerID(r), messageID); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeDomainError maps sentinel domain errors onto HTTP statuses. Unknown
// errors are logged and surfaced as 500 without internals.
func (h *Handlers) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrInvalidCredentials),
		errors.Is(err, apperrors.ErrMissingCredential),
		errors.Is(err, apperrors.ErrInvalidCredential):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, apperrors.ErrInvalidPassword):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperrors.ErrUserAlreadyExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, apperrors.ErrConversationNotFound),
		errors.Is(err, apperrors.ErrMessageNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, apperrors.ErrNotParticipant),
		errors.Is(err, apperrors.ErrNotSender):
		writeError(w, http.StatusForbidden, err.Error())
	default:
		h.log.Error("Request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func toUserIDs(raw []string) []domain.UserID {
	return lo.Map(raw, func(id string, _ int) domain.UserID {
		return domain.UserID(id)
	})
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid identifier")
		return uuid.Nil, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
