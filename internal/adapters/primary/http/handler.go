package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/vetroai/vetro/internal/adapters/secondary/repository"
	"github.com/vetroai/vetro/internal/core/services"
	"github.com/vetroai/vetro/internal/logger"
)

type contextKey string

const userIDKey contextKey = "user_id"

// Handler is the HTTP handler for the chat application
type Handler struct {
	chat   *services.ChatService
	auth   *services.AuthService
	logger logger.Logger
	router *chi.Mux
}

// NewHandler creates a new HTTP handler
func NewHandler(chat *services.ChatService, auth *services.AuthService, log logger.Logger) *Handler {
	h := &Handler{
		chat:   chat,
		auth:   auth,
		logger: log,
	}

	h.setupRouter()
	return h
}

// setupRouter sets up the Chi router with middleware and routes
func (h *Handler) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggerMiddleware(h.logger))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/signup", h.Signup)
	r.Post("/login", h.Login)

	r.Route("/api", func(r chi.Router) {
		r.Use(h.requireAuth)

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", h.ListSessions)
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", h.GetSession)
				r.Delete("/", h.DeleteSession)
			})
		})

		r.Post("/chat", h.Chat)
		r.Get("/model", h.GetModelInfo)
	})

	h.router = r
}

// ServeHTTP implements the http.Handler interface
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// requireAuth validates the bearer token and stores the user ID in the
// request context. Invalid or missing tokens get a 401, which the client
// treats as a signal to reset its session.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			h.respondWithError(w, http.StatusUnauthorized, "Missing bearer token")
			return
		}

		userID, err := h.auth.ValidateToken(token)
		if err != nil {
			h.respondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}

// Signup handles account creation
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	token, err := h.auth.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			h.respondWithError(w, http.StatusConflict, err.Error())
			return
		}
		h.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.respondWithJSON(w, http.StatusCreated, map[string]string{"token": token})
}

// Login handles credential verification
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondWithError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]string{"token": token})
}

// ListSessions returns the user's sessions; ?q= filters by title
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.chat.ListSessions(r.Context(), userID(r), r.URL.Query().Get("q"))
	if err != nil {
		h.respondWithError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}
	h.respondWithJSON(w, http.StatusOK, sessions)
}

// GetSession returns one session transcript
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.chat.GetSession(r.Context(), userID(r), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondWithError(w, http.StatusNotFound, "Session not found")
		return
	}
	h.respondWithJSON(w, http.StatusOK, session)
}

// DeleteSession deletes one session
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.chat.DeleteSession(r.Context(), userID(r), chi.URLParam(r, "sessionID")); err != nil {
		h.respondWithError(w, http.StatusNotFound, "Session not found")
		return
	}
	h.respondWithJSON(w, http.StatusNoContent, nil)
}

// GetModelInfo returns model information
func (h *Handler) GetModelInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.chat.GetModelInfo(r.Context())
	if err != nil {
		h.respondWithError(w, http.StatusInternalServerError, "Failed to get model info")
		return
	}
	h.respondWithJSON(w, http.StatusOK, info)
}

// respondWithError sends an error response
func (h *Handler) respondWithError(w http.ResponseWriter, code int, message string) {
	h.respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithJSON sends a JSON response
func (h *Handler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	if payload == nil {
		w.WriteHeader(code)
		return
	}

	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// LoggerMiddleware is a middleware that logs HTTP requests
func LoggerMiddleware(log logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				log.Info("HTTP request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
