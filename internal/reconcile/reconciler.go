package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ms-rsvp/internal/chat"
	"ms-rsvp/internal/logger"
	"ms-rsvp/internal/models"
	"ms-rsvp/internal/rsvp"
)

type StoreLayer interface {
	ListEvents(ctx context.Context) ([]models.Event, error)
	PatchParticipants(ctx context.Context, eventID string, participants []string) error
}

type Renderer interface {
	Render(ctx context.Context, event models.Event) error
}

// Reconciler heals the divergence between stored participant sets and live
// reaction state that accumulated while the process was down. It runs once
// at startup, before any live signal is accepted.
type Reconciler struct {
	Store       StoreLayer
	Chat        chat.Binding
	Lock        rsvp.EventLock
	Renderer    Renderer
	Logger      *logger.Logger
	BotID       string
	AttendEmoji string
	PerEventTTL time.Duration
}

func NewReconciler(store StoreLayer, binding chat.Binding, lock rsvp.EventLock, renderer Renderer, log *logger.Logger, botID, attendEmoji string, perEventTTL time.Duration) *Reconciler {
	return &Reconciler{
		Store:       store,
		Chat:        binding,
		Lock:        lock,
		Renderer:    renderer,
		Logger:      log,
		BotID:       botID,
		AttendEmoji: attendEmoji,
		PerEventTTL: perEventTTL,
	}
}

// ReconcileAll walks every known event sequentially and corrects its stored
// participant set from live reactors. A failure on one event is logged and
// the pass moves on; only the initial event listing is fatal.
func (r *Reconciler) ReconcileAll(ctx context.Context) error {
	r.Logger.Info("RECONCILE", "Reconciliation pass starting")

	evts, err := r.Store.ListEvents(ctx)
	if err != nil {
		return fmt.Errorf("list events for reconciliation: %w", err)
	}

	for i := range evts {
		event := evts[i]
		r.Logger.LogReconcile(event.ID, fmt.Sprintf("Checking event (%d/%d)", i+1, len(evts)))

		if err := r.reconcileEvent(ctx, event); err != nil {
			r.Logger.Error("RECONCILE", fmt.Sprintf("Event %s left unreconciled: %v", event.ID, err))
		}
	}

	r.Logger.Info("RECONCILE", fmt.Sprintf("Reconciliation pass finished, %d events checked", len(evts)))
	return nil
}

func (r *Reconciler) reconcileEvent(ctx context.Context, event models.Event) error {
	evCtx := ctx
	if r.PerEventTTL > 0 {
		var cancel context.CancelFunc
		evCtx, cancel = context.WithTimeout(ctx, r.PerEventTTL)
		defer cancel()
	}

	msg, err := r.Chat.FetchMessage(evCtx, event.ChannelID, event.MessageID)
	if err != nil {
		if errors.Is(err, chat.ErrNotFound) {
			r.Logger.Warn("RECONCILE", fmt.Sprintf("Message %s for event %s is gone, skipping", event.MessageID, event.ID))
			return nil
		}
		return fmt.Errorf("fetch message %s: %w", event.MessageID, err)
	}
	if !msg.IsText() {
		r.Logger.Warn("RECONCILE", fmt.Sprintf("Channel %s for event %s is not a text channel, skipping", event.ChannelID, event.ID))
		return nil
	}

	// Everything from the reactor fetch to the final render races live
	// signals once consumers start, so it runs under the same per-event
	// lease the mutator takes.
	token, err := r.Lock.Acquire(evCtx, event.MessageID)
	if err != nil {
		return fmt.Errorf("acquire lease for event %s: %w", event.ID, err)
	}
	defer func() {
		if relErr := r.Lock.Release(evCtx, event.MessageID, token); relErr != nil {
			r.Logger.Error("RECONCILE", fmt.Sprintf("Failed to release lease for event %s: %v", event.ID, relErr))
		}
	}()

	reactors, err := r.Chat.FetchReactors(evCtx, event.ChannelID, event.MessageID, r.AttendEmoji)
	if err != nil {
		return fmt.Errorf("fetch reactors for message %s: %w", event.MessageID, err)
	}

	resolved := rsvp.ResolveParticipants(reactors, r.BotID)
	if rsvp.SameParticipants(resolved, event.Participants) {
		r.Logger.Debug("RECONCILE", fmt.Sprintf("Event %s is up to date", event.ID))
		return nil
	}

	if err := r.Store.PatchParticipants(evCtx, event.ID, resolved); err != nil {
		// Stored state unchanged, message left alone.
		return fmt.Errorf("patch participants: %w", err)
	}

	event.Participants = resolved
	r.Logger.LogReconcile(event.ID, fmt.Sprintf("Participants corrected to %d reactors", len(resolved)))

	if err := r.Renderer.Render(evCtx, event); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}
