package reconcile_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"ms-rsvp/internal/chat"
	"ms-rsvp/internal/logger"
	"ms-rsvp/internal/models"
	"ms-rsvp/internal/reconcile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// Mock implementations
type MockStore struct {
	mock.Mock
}

func (m *MockStore) ListEvents(ctx context.Context) ([]models.Event, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Event), args.Error(1)
}

func (m *MockStore) PatchParticipants(ctx context.Context, eventID string, participants []string) error {
	args := m.Called(ctx, eventID, participants)
	return args.Error(0)
}

type MockChat struct {
	mock.Mock
}

func (m *MockChat) FetchMessage(ctx context.Context, channelID, messageID string) (*chat.Message, error) {
	args := m.Called(ctx, channelID, messageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*chat.Message), args.Error(1)
}

func (m *MockChat) FetchReactors(ctx context.Context, channelID, messageID, emoji string) ([]string, error) {
	args := m.Called(ctx, channelID, messageID, emoji)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockChat) SendMessage(ctx context.Context, channelID string, content models.RenderedMessage) (string, error) {
	args := m.Called(ctx, channelID, content)
	return args.String(0), args.Error(1)
}

func (m *MockChat) EditMessage(ctx context.Context, channelID, messageID string, content models.RenderedMessage) error {
	args := m.Called(ctx, channelID, messageID, content)
	return args.Error(0)
}

func (m *MockChat) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	args := m.Called(ctx, channelID, messageID)
	return args.Error(0)
}

func (m *MockChat) AddReaction(ctx context.Context, channelID, messageID, emoji string) error {
	args := m.Called(ctx, channelID, messageID, emoji)
	return args.Error(0)
}

type MockLock struct {
	mock.Mock
}

func (m *MockLock) Acquire(ctx context.Context, eventKey string) (string, error) {
	args := m.Called(ctx, eventKey)
	return args.String(0), args.Error(1)
}

func (m *MockLock) Release(ctx context.Context, eventKey, token string) error {
	args := m.Called(ctx, eventKey, token)
	return args.Error(0)
}

type MockRenderer struct {
	mock.Mock
}

func (m *MockRenderer) Render(ctx context.Context, event models.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func newTestReconciler(store *MockStore, chatMock *MockChat, lock *MockLock, renderer *MockRenderer) *reconcile.Reconciler {
	return reconcile.NewReconciler(store, chatMock, lock, renderer, logger.NewLogger(), "botX", "✅", 5*time.Second)
}

func textMessage(channelID, messageID string) *chat.Message {
	return &chat.Message{ID: messageID, ChannelID: channelID, ChannelType: "text"}
}

func grantLock(lock *MockLock, key string) {
	lock.On("Acquire", mock.Anything, key).Return("tok", nil)
	lock.On("Release", mock.Anything, key, "tok").Return(nil)
}

func TestReconcileCorrectsDivergedEvent(t *testing.T) {
	store := new(MockStore)
	chatMock := new(MockChat)
	lock := new(MockLock)
	renderer := new(MockRenderer)
	r := newTestReconciler(store, chatMock, lock, renderer)

	event := models.Event{ID: "ev1", ChannelID: "chan1", MessageID: "msg1", Participants: []string{"A", "B"}}
	store.On("ListEvents", mock.Anything).Return([]models.Event{event}, nil)
	chatMock.On("FetchMessage", mock.Anything, "chan1", "msg1").Return(textMessage("chan1", "msg1"), nil)
	grantLock(lock, "msg1")
	// Live reactors include the bot, which must be filtered out.
	chatMock.On("FetchReactors", mock.Anything, "chan1", "msg1", "✅").Return([]string{"B", "C", "botX"}, nil)
	store.On("PatchParticipants", mock.Anything, "ev1", []string{"B", "C"}).Return(nil)
	renderer.On("Render", mock.Anything, mock.MatchedBy(func(e models.Event) bool {
		return e.ID == "ev1" && len(e.Participants) == 2
	})).Return(nil)

	err := r.ReconcileAll(context.Background())

	assert.NoError(t, err)
	store.AssertCalled(t, "PatchParticipants", mock.Anything, "ev1", []string{"B", "C"})
	renderer.AssertNumberOfCalls(t, "Render", 1)
}

func TestReconcileSkipsUpToDateEvent(t *testing.T) {
	store := new(MockStore)
	chatMock := new(MockChat)
	lock := new(MockLock)
	renderer := new(MockRenderer)
	r := newTestReconciler(store, chatMock, lock, renderer)

	event := models.Event{ID: "ev1", ChannelID: "chan1", MessageID: "msg1", Participants: []string{"B", "A"}}
	store.On("ListEvents", mock.Anything).Return([]models.Event{event}, nil)
	chatMock.On("FetchMessage", mock.Anything, "chan1", "msg1").Return(textMessage("chan1", "msg1"), nil)
	grantLock(lock, "msg1")
	// Same set, different order: no correction needed.
	chatMock.On("FetchReactors", mock.Anything, "chan1", "msg1", "✅").Return([]string{"A", "B"}, nil)

	err := r.ReconcileAll(context.Background())

	assert.NoError(t, err)
	store.AssertNotCalled(t, "PatchParticipants", mock.Anything, mock.Anything, mock.Anything)
	renderer.AssertNotCalled(t, "Render", mock.Anything, mock.Anything)
}

func TestReconcileSkipsNonTextChannel(t *testing.T) {
	store := new(MockStore)
	chatMock := new(MockChat)
	lock := new(MockLock)
	renderer := new(MockRenderer)
	r := newTestReconciler(store, chatMock, lock, renderer)

	event := models.Event{ID: "ev1", ChannelID: "voice1", MessageID: "msg1", Participants: []string{"A"}}
	store.On("ListEvents", mock.Anything).Return([]models.Event{event}, nil)
	chatMock.On("FetchMessage", mock.Anything, "voice1", "msg1").Return(&chat.Message{ID: "msg1", ChannelID: "voice1", ChannelType: "voice"}, nil)

	err := r.ReconcileAll(context.Background())

	assert.NoError(t, err)
	chatMock.AssertNotCalled(t, "FetchReactors", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "PatchParticipants", mock.Anything, mock.Anything, mock.Anything)
}

func TestReconcileSkipsMissingMessage(t *testing.T) {
	store := new(MockStore)
	chatMock := new(MockChat)
	lock := new(MockLock)
	renderer := new(MockRenderer)
	r := newTestReconciler(store, chatMock, lock, renderer)

	gone := models.Event{ID: "ev1", ChannelID: "chan1", MessageID: "gone", Participants: []string{"A"}}
	alive := models.Event{ID: "ev2", ChannelID: "chan1", MessageID: "msg2", Participants: []string{"A"}}
	store.On("ListEvents", mock.Anything).Return([]models.Event{gone, alive}, nil)
	chatMock.On("FetchMessage", mock.Anything, "chan1", "gone").Return(nil, chat.ErrNotFound)
	chatMock.On("FetchMessage", mock.Anything, "chan1", "msg2").Return(textMessage("chan1", "msg2"), nil)
	grantLock(lock, "msg2")
	chatMock.On("FetchReactors", mock.Anything, "chan1", "msg2", "✅").Return([]string{"A"}, nil)

	err := r.ReconcileAll(context.Background())

	// The missing message is skipped; the next event is still processed.
	assert.NoError(t, err)
	chatMock.AssertCalled(t, "FetchMessage", mock.Anything, "chan1", "msg2")
}

func TestReconcilePatchFailureIsolatedPerEvent(t *testing.T) {
	store := new(MockStore)
	chatMock := new(MockChat)
	lock := new(MockLock)
	renderer := new(MockRenderer)
	r := newTestReconciler(store, chatMock, lock, renderer)

	first := models.Event{ID: "ev1", ChannelID: "chan1", MessageID: "msg1", Participants: []string{"A"}}
	second := models.Event{ID: "ev2", ChannelID: "chan1", MessageID: "msg2", Participants: []string{"A"}}
	store.On("ListEvents", mock.Anything).Return([]models.Event{first, second}, nil)

	chatMock.On("FetchMessage", mock.Anything, "chan1", "msg1").Return(textMessage("chan1", "msg1"), nil)
	chatMock.On("FetchMessage", mock.Anything, "chan1", "msg2").Return(textMessage("chan1", "msg2"), nil)
	grantLock(lock, "msg1")
	grantLock(lock, "msg2")
	chatMock.On("FetchReactors", mock.Anything, "chan1", "msg1", "✅").Return([]string{"B"}, nil)
	chatMock.On("FetchReactors", mock.Anything, "chan1", "msg2", "✅").Return([]string{"C"}, nil)
	store.On("PatchParticipants", mock.Anything, "ev1", []string{"B"}).Return(errors.New("store down"))
	store.On("PatchParticipants", mock.Anything, "ev2", []string{"C"}).Return(nil)
	renderer.On("Render", mock.Anything, mock.Anything).Return(nil)

	err := r.ReconcileAll(context.Background())

	// ev1's failure must not halt the pass; ev1's message stays unedited.
	assert.NoError(t, err)
	store.AssertCalled(t, "PatchParticipants", mock.Anything, "ev2", []string{"C"})
	renderer.AssertNumberOfCalls(t, "Render", 1)
}

func TestReconcileListFailureIsFatal(t *testing.T) {
	store := new(MockStore)
	chatMock := new(MockChat)
	lock := new(MockLock)
	renderer := new(MockRenderer)
	r := newTestReconciler(store, chatMock, lock, renderer)

	store.On("ListEvents", mock.Anything).Return(nil, errors.New("store unavailable"))

	err := r.ReconcileAll(context.Background())

	assert.Error(t, err)
	chatMock.AssertNotCalled(t, "FetchMessage", mock.Anything, mock.Anything, mock.Anything)
}
