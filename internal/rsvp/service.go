package rsvp

import (
	"context"
	"fmt"

	"ms-rsvp/internal/logger"
	"ms-rsvp/internal/models"
)

type StoreLayer interface {
	GetEventByMessageID(ctx context.Context, messageID string) (*models.Event, error)
	PatchParticipants(ctx context.Context, eventID string, participants []string) error
}

// EventLock hands out the per-event lease that keeps concurrent mutations of
// one participant set from interleaving.
type EventLock interface {
	Acquire(ctx context.Context, eventKey string) (string, error)
	Release(ctx context.Context, eventKey, token string) error
}

type Renderer interface {
	Render(ctx context.Context, event models.Event) error
}

type KafkaPublisher interface {
	PublishRSVPUpdated(event models.Event) error
}

// RSVPService applies a single reaction signal to the event bound to its
// message: mutate a working copy of the participant set, persist, then
// re-render. A failed patch leaves the rendered message untouched.
type RSVPService struct {
	Store    StoreLayer
	Lock     EventLock
	Renderer Renderer
	Kafka    KafkaPublisher
	Logger   *logger.Logger
	BotID    string
}

func NewRSVPService(store StoreLayer, lock EventLock, renderer Renderer, kafka KafkaPublisher, log *logger.Logger, botID string) *RSVPService {
	return &RSVPService{
		Store:    store,
		Lock:     lock,
		Renderer: renderer,
		Kafka:    kafka,
		Logger:   log,
		BotID:    botID,
	}
}

// HandleReaction processes one reaction-added or reaction-removed signal.
// The whole read-modify-write runs under the event lease, keyed by message ID
// so it can be taken before the record is even loaded.
func (s *RSVPService) HandleReaction(ctx context.Context, signal models.ReactionSignal) error {
	// The bot seeds the marker reactions itself; those signals carry no RSVP.
	if signal.UserID == s.BotID {
		return nil
	}

	token, err := s.Lock.Acquire(ctx, signal.MessageID)
	if err != nil {
		return err
	}
	defer func() {
		if relErr := s.Lock.Release(ctx, signal.MessageID, token); relErr != nil {
			s.Logger.Error("RSVP", fmt.Sprintf("Failed to release lock for message %s: %v", signal.MessageID, relErr))
		}
	}()

	event, err := s.Store.GetEventByMessageID(ctx, signal.MessageID)
	if err != nil {
		return err
	}

	participants := applyMutation(event.Participants, signal.UserID, signal.Direction)

	// Redundant signals must not change anything.
	if SameParticipants(participants, event.Participants) && len(participants) == len(event.Participants) {
		s.Logger.Debug("RSVP", fmt.Sprintf("Signal for message %s by %s is a no-op", signal.MessageID, signal.UserID))
		return nil
	}

	if err := s.Store.PatchParticipants(ctx, event.ID, participants); err != nil {
		return fmt.Errorf("patch participants: %w", err)
	}
	event.Participants = participants

	s.Logger.LogEvent("RSVP", event.ID, fmt.Sprintf("%s %s the event (%d participants)",
		signal.UserID, verbFor(signal.Direction), len(participants)))

	if err := s.Renderer.Render(ctx, *event); err != nil {
		// Persisted state is correct; the stale message heals on the next
		// render or reconciliation pass.
		s.Logger.Error("RSVP", fmt.Sprintf("Failed to re-render event %s: %v", event.ID, err))
	}

	if s.Kafka != nil {
		if err := s.Kafka.PublishRSVPUpdated(*event); err != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish rsvp update for %s: %v", event.ID, err))
		}
	}

	return nil
}

// applyMutation inserts or removes userID, collapsing any repeats already in
// the stored list. Both directions are idempotent.
func applyMutation(participants []string, userID string, direction models.ReactionDirection) []string {
	out := make([]string, 0, len(participants)+1)
	seen := make(map[string]struct{}, len(participants)+1)

	for _, id := range participants {
		if id == userID && direction == models.ReactionRemoved {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}

	if direction == models.ReactionAdded {
		if _, ok := seen[userID]; !ok {
			out = append(out, userID)
		}
	}

	return out
}

func verbFor(direction models.ReactionDirection) string {
	if direction == models.ReactionAdded {
		return "joined"
	}
	return "left"
}
