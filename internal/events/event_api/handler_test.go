package event_api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ms-rsvp/internal/events"
	"ms-rsvp/internal/events/event_api"
	"ms-rsvp/internal/logger"
	"ms-rsvp/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Mock implementations
type MockLifecycle struct {
	mock.Mock
}

func (m *MockLifecycle) Create(ctx context.Context, req models.CreateEventRequest) (*models.Event, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockLifecycle) Delete(ctx context.Context, messageID, requestingUserID string, isPrivileged bool) error {
	args := m.Called(ctx, messageID, requestingUserID, isPrivileged)
	return args.Error(0)
}

type MockRSVP struct {
	mock.Mock
}

func (m *MockRSVP) HandleReaction(ctx context.Context, signal models.ReactionSignal) error {
	args := m.Called(ctx, signal)
	return args.Error(0)
}

type MockReconciler struct {
	mock.Mock
}

func (m *MockReconciler) ReconcileAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockConfigStore struct {
	mock.Mock
}

func (m *MockConfigStore) GetServerConfig(ctx context.Context, serverID string) (*models.ServerConfig, error) {
	args := m.Called(ctx, serverID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ServerConfig), args.Error(1)
}

func (m *MockConfigStore) UpsertServerConfig(ctx context.Context, cfg models.ServerConfig) error {
	args := m.Called(ctx, cfg)
	return args.Error(0)
}

func newTestRouter(lifecycle *MockLifecycle, rsvpMock *MockRSVP, reconciler *MockReconciler, configs *MockConfigStore) *chi.Mux {
	handler := &event_api.Handler{
		Lifecycle:  lifecycle,
		RSVP:       rsvpMock,
		Reconciler: reconciler,
		Configs:    configs,
		Logger:     logger.NewLogger(),
	}
	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r
}

func TestCreateEventSuccess(t *testing.T) {
	lifecycle := new(MockLifecycle)
	router := newTestRouter(lifecycle, new(MockRSVP), new(MockReconciler), new(MockConfigStore))

	created := &models.Event{ID: "ev1", MessageID: "msg1", Title: "Raid night"}
	lifecycle.On("Create", mock.Anything, mock.Anything).Return(created, nil)

	body, _ := json.Marshal(models.CreateEventRequest{
		ServerID:  "srv1",
		ChannelID: "chan1",
		AuthorID:  "author1",
		Title:     "Raid night",
		Date:      time.Now().Add(time.Hour),
	})
	req := httptest.NewRequest(http.MethodPost, "/api/events", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	var got models.Event
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "ev1", got.ID)
}

func TestCreateEventPastDate(t *testing.T) {
	lifecycle := new(MockLifecycle)
	router := newTestRouter(lifecycle, new(MockRSVP), new(MockReconciler), new(MockConfigStore))

	lifecycle.On("Create", mock.Anything, mock.Anything).Return(nil, events.ErrDateInPast)

	body, _ := json.Marshal(models.CreateEventRequest{
		ServerID:  "srv1",
		ChannelID: "chan1",
		AuthorID:  "author1",
		Title:     "Raid night",
		Date:      time.Now().Add(-time.Hour),
	})
	req := httptest.NewRequest(http.MethodPost, "/api/events", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCreateEventMissingFields(t *testing.T) {
	lifecycle := new(MockLifecycle)
	router := newTestRouter(lifecycle, new(MockRSVP), new(MockReconciler), new(MockConfigStore))

	req := httptest.NewRequest(http.MethodPost, "/api/events", bytes.NewReader([]byte(`{"title":"x"}`)))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	lifecycle.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestDeleteEventStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"success", nil, http.StatusNoContent},
		{"not found", events.ErrNotFound, http.StatusNotFound},
		{"permission denied", events.ErrPermissionDenied, http.StatusForbidden},
		{"store failure", errors.New("store down"), http.StatusBadGateway},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			lifecycle := new(MockLifecycle)
			router := newTestRouter(lifecycle, new(MockRSVP), new(MockReconciler), new(MockConfigStore))

			lifecycle.On("Delete", mock.Anything, "msg1", "user1", false).Return(tc.err)

			req := httptest.NewRequest(http.MethodDelete, "/api/events/msg1?user_id=user1", nil)
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestHandleReactionSuccess(t *testing.T) {
	rsvpMock := new(MockRSVP)
	router := newTestRouter(new(MockLifecycle), rsvpMock, new(MockReconciler), new(MockConfigStore))

	rsvpMock.On("HandleReaction", mock.Anything, models.ReactionSignal{
		MessageID: "msg1",
		UserID:    "U1",
		Direction: models.ReactionAdded,
	}).Return(nil)

	body := []byte(`{"user_id":"U1","direction":"added"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/events/msg1/reactions", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHandleReactionBadDirection(t *testing.T) {
	rsvpMock := new(MockRSVP)
	router := newTestRouter(new(MockLifecycle), rsvpMock, new(MockReconciler), new(MockConfigStore))

	body := []byte(`{"user_id":"U1","direction":"sideways"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/events/msg1/reactions", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rsvpMock.AssertNotCalled(t, "HandleReaction", mock.Anything, mock.Anything)
}

func TestHandleReactionBusy(t *testing.T) {
	rsvpMock := new(MockRSVP)
	router := newTestRouter(new(MockLifecycle), rsvpMock, new(MockReconciler), new(MockConfigStore))

	rsvpMock.On("HandleReaction", mock.Anything, mock.Anything).Return(events.ErrEventBusy)

	body := []byte(`{"user_id":"U1","direction":"removed"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/events/msg1/reactions", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestReconcileEndpoint(t *testing.T) {
	reconciler := new(MockReconciler)
	router := newTestRouter(new(MockLifecycle), new(MockRSVP), reconciler, new(MockConfigStore))

	reconciler.On("ReconcileAll", mock.Anything).Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/reconcile", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	reconciler.AssertNumberOfCalls(t, "ReconcileAll", 1)
}

func TestServerConfigRoundTrip(t *testing.T) {
	configs := new(MockConfigStore)
	router := newTestRouter(new(MockLifecycle), new(MockRSVP), new(MockReconciler), configs)

	configs.On("UpsertServerConfig", mock.Anything, mock.MatchedBy(func(c models.ServerConfig) bool {
		return c.ServerID == "srv1" && c.ChannelID == "chan1" && c.Lang == "fr"
	})).Return(nil)
	configs.On("GetServerConfig", mock.Anything, "srv1").Return(&models.ServerConfig{
		ServerID: "srv1", ChannelID: "chan1", Lang: "fr",
	}, nil)

	putBody := []byte(`{"channel_id":"chan1","lang":"fr"}`)
	putReq := httptest.NewRequest(http.MethodPut, "/api/servers/srv1/config", bytes.NewReader(putBody))
	putRec := httptest.NewRecorder()
	router.ServeHTTP(putRec, putReq)
	assert.Equal(t, http.StatusNoContent, putRec.Code)

	getReq := httptest.NewRequest(http.MethodGet, "/api/servers/srv1/config", nil)
	getRec := httptest.NewRecorder()
	router.ServeHTTP(getRec, getReq)
	assert.Equal(t, http.StatusOK, getRec.Code)

	var got models.ServerConfig
	require.NoError(t, json.NewDecoder(getRec.Body).Decode(&got))
	assert.Equal(t, "fr", got.Lang)
}

func TestGetServerConfigNotFound(t *testing.T) {
	configs := new(MockConfigStore)
	router := newTestRouter(new(MockLifecycle), new(MockRSVP), new(MockReconciler), configs)

	configs.On("GetServerConfig", mock.Anything, "srv1").Return(nil, events.ErrNotFound)

	req := httptest.NewRequest(http.MethodGet, "/api/servers/srv1/config", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
