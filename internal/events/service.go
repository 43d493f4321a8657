package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ms-rsvp/internal/chat"
	"ms-rsvp/internal/logger"
	"ms-rsvp/internal/models"

	"github.com/google/uuid"
)

const defaultLang = "en"

type StoreLayer interface {
	GetEventByMessageID(ctx context.Context, messageID string) (*models.Event, error)
	CreateEvent(ctx context.Context, event models.Event) error
	PatchParticipants(ctx context.Context, eventID string, participants []string) error
	DeleteEvent(ctx context.Context, eventID string) error
	GetServerConfig(ctx context.Context, serverID string) (*models.ServerConfig, error)
}

type KafkaPublisher interface {
	PublishEventCreated(event models.Event) error
	PublishEventDeleted(event models.Event) error
}

// EventService owns the binding between a chat message and an event record:
// it creates both together, re-renders the message after every participant
// change, and tears both down on deletion.
type EventService struct {
	Store        StoreLayer
	Chat         chat.Binding
	Kafka        KafkaPublisher
	Logger       *logger.Logger
	AttendEmoji  string
	DeclineEmoji string
}

func NewEventService(store StoreLayer, binding chat.Binding, kafka KafkaPublisher, log *logger.Logger, attendEmoji, declineEmoji string) *EventService {
	return &EventService{
		Store:        store,
		Chat:         binding,
		Kafka:        kafka,
		Logger:       log,
		AttendEmoji:  attendEmoji,
		DeclineEmoji: declineEmoji,
	}
}

// Create validates the request, sends the event message to obtain its
// identity, then persists the event. A store failure after the message went
// out deletes the message again so no orphan is left behind.
func (s *EventService) Create(ctx context.Context, req models.CreateEventRequest) (*models.Event, error) {
	if !req.Date.After(time.Now()) {
		s.Logger.Warn("EVENT", fmt.Sprintf("Rejected event %q by %s: date %s is not in the future", req.Title, req.AuthorID, req.Date))
		return nil, ErrDateInPast
	}

	lang := s.langFor(ctx, req.ServerID)

	event := models.Event{
		ID:           uuid.New().String(),
		ServerID:     req.ServerID,
		ChannelID:    req.ChannelID,
		AuthorID:     req.AuthorID,
		Title:        req.Title,
		Description:  req.Description,
		Date:         req.Date,
		Image:        req.Image,
		Participants: []string{},
		CreatedAt:    time.Now(),
	}

	// The message goes out first: its ID is part of the record.
	messageID, err := s.Chat.SendMessage(ctx, req.ChannelID, BuildMessage(event, lang))
	if err != nil {
		return nil, fmt.Errorf("send event message: %w", err)
	}
	event.MessageID = messageID

	if err := s.Store.CreateEvent(ctx, event); err != nil {
		s.Logger.Error("EVENT", fmt.Sprintf("Failed to persist event %s, deleting message %s: %v", event.ID, messageID, err))
		if delErr := s.Chat.DeleteMessage(ctx, req.ChannelID, messageID); delErr != nil {
			s.Logger.Error("EVENT", fmt.Sprintf("Failed to delete orphan message %s: %v", messageID, delErr))
		}
		return nil, fmt.Errorf("persist event: %w", err)
	}

	// Marker reactions give users something to click on.
	for _, emoji := range []string{s.AttendEmoji, s.DeclineEmoji} {
		if err := s.Chat.AddReaction(ctx, req.ChannelID, messageID, emoji); err != nil {
			s.Logger.Warn("EVENT", fmt.Sprintf("Failed to add %s reaction to message %s: %v", emoji, messageID, err))
		}
	}

	s.Logger.LogEvent("CREATE", event.ID, fmt.Sprintf("Created by %s on server %s, message %s", req.AuthorID, req.ServerID, messageID))

	if s.Kafka != nil {
		if err := s.Kafka.PublishEventCreated(event); err != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish event created for %s: %v", event.ID, err))
		}
	}

	return &event, nil
}

// Render recomputes the message content from the event's current state and
// edits the bound message in place.
func (s *EventService) Render(ctx context.Context, event models.Event) error {
	lang := s.langFor(ctx, event.ServerID)
	if err := s.Chat.EditMessage(ctx, event.ChannelID, event.MessageID, BuildMessage(event, lang)); err != nil {
		return fmt.Errorf("render event %s: %w", event.ID, err)
	}
	return nil
}

// Delete removes the event if the requester is its author or privileged.
// The store record goes first; the chat message is only deleted once the
// record is gone, so a store failure never leaves a message without a record.
func (s *EventService) Delete(ctx context.Context, messageID, requestingUserID string, isPrivileged bool) error {
	event, err := s.Store.GetEventByMessageID(ctx, messageID)
	if err != nil {
		return err
	}

	if requestingUserID != event.AuthorID && !isPrivileged {
		s.Logger.Warn("EVENT", fmt.Sprintf("User %s may not delete event %s owned by %s", requestingUserID, event.ID, event.AuthorID))
		return ErrPermissionDenied
	}

	if err := s.Store.DeleteEvent(ctx, event.ID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete event %s: %w", event.ID, err)
	}

	// Record is gone; the message delete is best-effort.
	if err := s.Chat.DeleteMessage(ctx, event.ChannelID, event.MessageID); err != nil {
		s.Logger.Warn("EVENT", fmt.Sprintf("Failed to delete message %s for removed event %s: %v", event.MessageID, event.ID, err))
	}

	s.Logger.LogEvent("DELETE", event.ID, fmt.Sprintf("Deleted by %s (author: %v)", requestingUserID, requestingUserID == event.AuthorID))

	if s.Kafka != nil {
		if err := s.Kafka.PublishEventDeleted(*event); err != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish event deleted for %s: %v", event.ID, err))
		}
	}

	return nil
}

func (s *EventService) langFor(ctx context.Context, serverID string) string {
	cfg, err := s.Store.GetServerConfig(ctx, serverID)
	if err != nil {
		return defaultLang
	}
	return cfg.Lang
}
