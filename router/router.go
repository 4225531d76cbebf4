package router

import (
	"database/sql"
	"net/http"
	"os"

	cardHandler "cardsync/internal/card"
	"cardsync/internal/card/repository"
	"cardsync/internal/card/service"
	"cardsync/middleware"
	"cardsync/socket"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

func Setup(db *sql.DB, hub *socket.Hub) http.Handler {
	r := mux.NewRouter()

	// WebSocket
	wsHandler := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		userID := req.Context().Value(middleware.UserIDKey).(string)
		displayName := req.Context().Value(middleware.DisplayNameKey).(string)
		socket.ServeWs(hub, w, req, userID, displayName)
	})
	r.Handle("/ws", middleware.AuthMiddleware(wsHandler))

	// REST API
	repo := repository.NewCardRepository(db)
	svc := service.NewCardService(repo)
	h := cardHandler.NewCardHandler(svc)
	auth := middleware.AuthMiddleware

	api := r.PathPrefix("/api").Subrouter()
	api.Handle("/cards/{cardId}", auth(http.HandlerFunc(h.GetCard))).Methods(http.MethodGet)
	api.Handle("/cards/{cardId}/content", auth(http.HandlerFunc(h.SaveContent))).Methods(http.MethodPut)
	api.Handle("/cards/{cardId}/permissions", auth(http.HandlerFunc(h.GrantAccess))).Methods(http.MethodPost)
	api.Handle("/cards/{cardId}/permissions", auth(http.HandlerFunc(h.ListGrants))).Methods(http.MethodGet)
	api.Handle("/cards/{cardId}/permissions/check", auth(http.HandlerFunc(h.CheckAccess))).Methods(http.MethodGet)
	api.Handle("/cards/{cardId}/permissions/available-users", auth(http.HandlerFunc(h.AvailableUsers))).Methods(http.MethodGet)
	api.Handle("/cards/{cardId}/permissions/{userId}", auth(http.HandlerFunc(h.RevokeAccess))).Methods(http.MethodDelete)

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)
	return handlers.LoggingHandler(os.Stdout, cors(r))
}
