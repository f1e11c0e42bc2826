package server

import "net/http"

// Routes assembles the full HTTP surface. Everything except registration and
// login requires a bearer token.
func Routes(h *Handlers, wsHandler *WSHandler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/register", h.Register)
	mux.HandleFunc("POST /auth/login", h.Login)

	mux.HandleFunc("GET /users/online", h.Authenticated(h.OnlineUsers))

	mux.HandleFunc("POST /conversations", h.Authenticated(h.CreateConversation))
	mux.HandleFunc("GET /conversations/{id}", h.Authenticated(h.GetConversation))
	mux.HandleFunc("POST /conversations/{id}/participants", h.Authenticated(h.AddParticipants))
	mux.HandleFunc("DELETE /conversations/{id}/participants/{userID}", h.Authenticated(h.RemoveParticipant))
	mux.HandleFunc("POST /conversations/{id}/leave", h.Authenticated(h.LeaveConversation))
	mux.HandleFunc("POST /conversations/{id}/messages", h.Authenticated(h.CreateMessage))
	mux.HandleFunc("GET /conversations/{id}/messages", h.Authenticated(h.History))

	mux.HandleFunc("PATCH /messages/{id}", h.Authenticated(h.UpdateMessage))
	mux.HandleFunc("DELETE /messages/{id}", h.Authenticated(h.DeleteMessage))
	mux.HandleFunc("POST /messages/{id}/read", h.Authenticated(h.MarkRead))

	mux.Handle("GET /ws", wsHandler)

	return mux
}
