package event_api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"ms-rsvp/internal/auth"
	"ms-rsvp/internal/events"
	"ms-rsvp/internal/logger"
	"ms-rsvp/internal/models"

	"github.com/go-chi/chi/v5"
)

type LifecycleService interface {
	Create(ctx context.Context, req models.CreateEventRequest) (*models.Event, error)
	Delete(ctx context.Context, messageID, requestingUserID string, isPrivileged bool) error
}

type RSVPService interface {
	HandleReaction(ctx context.Context, signal models.ReactionSignal) error
}

type Reconciler interface {
	ReconcileAll(ctx context.Context) error
}

type ConfigStore interface {
	GetServerConfig(ctx context.Context, serverID string) (*models.ServerConfig, error)
	UpsertServerConfig(ctx context.Context, cfg models.ServerConfig) error
}

type Handler struct {
	Lifecycle  LifecycleService
	RSVP       RSVPService
	Reconciler Reconciler
	Configs    ConfigStore
	Logger     *logger.Logger
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/events", h.CreateEvent)
		r.Delete("/events/{messageID}", h.DeleteEvent)
		r.Post("/events/{messageID}/reactions", h.HandleReaction)
		r.Post("/reconcile", h.Reconcile)
		r.Route("/servers/{serverID}/config", func(r chi.Router) {
			r.Get("/", h.GetServerConfig)
			r.Put("/", h.PutServerConfig)
		})
	})
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req models.CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateEvent: invalid body: %v", err))
		http.Error(w, "Invalid event JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		req.AuthorID = claims.UserID
	}
	if req.AuthorID == "" || req.ServerID == "" || req.ChannelID == "" || req.Title == "" {
		http.Error(w, "server_id, channel_id, author_id and title are required", http.StatusBadRequest)
		return
	}

	h.Logger.Info("API", fmt.Sprintf("CreateEvent: %q by %s on server %s", req.Title, req.AuthorID, req.ServerID))

	event, err := h.Lifecycle.Create(r.Context(), req)
	if err != nil {
		if errors.Is(err, events.ErrDateInPast) {
			http.Error(w, "Event date must be in the future", http.StatusUnprocessableEntity)
			return
		}
		h.Logger.Error("API", fmt.Sprintf("CreateEvent: %v", err))
		http.Error(w, "Could not create event: "+err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(event); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateEvent: failed to encode response: %v", err))
	}
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	messageID := chi.URLParam(r, "messageID")

	userID := r.URL.Query().Get("user_id")
	privileged := false
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		userID = claims.UserID
		privileged = claims.Privileged
	}
	if userID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	h.Logger.Info("API", fmt.Sprintf("DeleteEvent: message=%s user=%s privileged=%v", messageID, userID, privileged))

	err := h.Lifecycle.Delete(r.Context(), messageID, userID, privileged)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, events.ErrNotFound):
		http.Error(w, "Event not found", http.StatusNotFound)
	case errors.Is(err, events.ErrPermissionDenied):
		http.Error(w, "Only the author or an admin may delete this event", http.StatusForbidden)
	default:
		h.Logger.Error("API", fmt.Sprintf("DeleteEvent: %v", err))
		http.Error(w, "Could not delete event: "+err.Error(), http.StatusBadGateway)
	}
}

func (h *Handler) HandleReaction(w http.ResponseWriter, r *http.Request) {
	messageID := chi.URLParam(r, "messageID")

	var body struct {
		UserID    string                   `json:"user_id"`
		Direction models.ReactionDirection `json:"direction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid reaction JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		body.UserID = claims.UserID
	}
	if body.UserID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}
	if body.Direction != models.ReactionAdded && body.Direction != models.ReactionRemoved {
		http.Error(w, "direction must be 'added' or 'removed'", http.StatusBadRequest)
		return
	}

	signal := models.ReactionSignal{
		MessageID: messageID,
		UserID:    body.UserID,
		Direction: body.Direction,
	}

	err := h.RSVP.HandleReaction(r.Context(), signal)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, events.ErrNotFound):
		http.Error(w, "No event is bound to this message", http.StatusNotFound)
	case errors.Is(err, events.ErrEventBusy):
		http.Error(w, "Event is busy, try again", http.StatusConflict)
	default:
		h.Logger.Error("API", fmt.Sprintf("HandleReaction: %v", err))
		http.Error(w, "Could not apply reaction: "+err.Error(), http.StatusBadGateway)
	}
}

func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	h.Logger.Info("API", "Reconcile: manual reconciliation requested")

	if err := h.Reconciler.ReconcileAll(r.Context()); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Reconcile: %v", err))
		http.Error(w, "Reconciliation failed: "+err.Error(), http.StatusBadGateway)
		return
	}

	h.Logger.LogAPI(r.Method, r.URL.Path, "204", time.Since(start).String())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetServerConfig(w http.ResponseWriter, r *http.Request) {
	serverID := chi.URLParam(r, "serverID")

	cfg, err := h.Configs.GetServerConfig(r.Context(), serverID)
	if err != nil {
		if errors.Is(err, events.ErrNotFound) {
			http.Error(w, "Server is not configured", http.StatusNotFound)
			return
		}
		h.Logger.Error("API", fmt.Sprintf("GetServerConfig: %v", err))
		http.Error(w, "Could not load server config: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(cfg); err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetServerConfig: failed to encode response: %v", err))
	}
}

func (h *Handler) PutServerConfig(w http.ResponseWriter, r *http.Request) {
	serverID := chi.URLParam(r, "serverID")

	var cfg models.ServerConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		http.Error(w, "Invalid config JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	cfg.ServerID = serverID
	if cfg.ChannelID == "" || cfg.Lang == "" {
		http.Error(w, "channel_id and lang are required", http.StatusBadRequest)
		return
	}

	if err := h.Configs.UpsertServerConfig(r.Context(), cfg); err != nil {
		h.Logger.Error("API", fmt.Sprintf("PutServerConfig: %v", err))
		http.Error(w, "Could not save server config: "+err.Error(), http.StatusInternalServerError)
		return
	}

	h.Logger.Info("API", fmt.Sprintf("PutServerConfig: server %s -> channel %s lang %s", serverID, cfg.ChannelID, cfg.Lang))
	w.WriteHeader(http.StatusNoContent)
}
