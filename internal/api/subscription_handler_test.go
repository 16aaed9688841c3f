package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticklerhq/tickler-api/internal/api/shared"
	"github.com/ticklerhq/tickler-api/internal/mocks"
)

func subscribeRequest(t *testing.T, userID uuid.UUID, body any) *http.Request {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(
		http.MethodPost, "/api/notifications/subscriptions", bytes.NewReader(payload))
	if userID != uuid.Nil {
		ctx := context.WithValue(req.Context(), shared.UserIDContextKey, userID)
		req = req.WithContext(ctx)
	}
	return req
}

func TestSubscribePush(t *testing.T) {
	t.Parallel()

	subs := mocks.NewMockSubscriptionStore()
	h := NewSubscriptionHandler(subs, testLogger())

	userID := uuid.New()
	w := httptest.NewRecorder()
	h.Subscribe(w, subscribeRequest(t, userID, SubscribeRequest{
		Channel:   "push",
		Endpoint:  "https://push.example.com/send/abc",
		P256dhKey: "p256dh-key",
		AuthKey:   "auth-key",
	}))

	require.Equal(t, http.StatusCreated, w.Code)

	var resp SubscriptionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "push", resp.Channel)
	assert.True(t, resp.Active)

	stored, err := subs.GetByID(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, userID, stored.OwnerID)
}

func TestSubscribeAgainKeepsOriginalID(t *testing.T) {
	t.Parallel()

	subs := mocks.NewMockSubscriptionStore()
	h := NewSubscriptionHandler(subs, testLogger())

	userID := uuid.New()
	endpoint := "https://push.example.com/send/rotated"

	first := httptest.NewRecorder()
	h.Subscribe(first, subscribeRequest(t, userID, SubscribeRequest{
		Channel:   "push",
		Endpoint:  endpoint,
		P256dhKey: "key-before-rotation",
		AuthKey:   "auth-before",
	}))
	require.Equal(t, http.StatusCreated, first.Code)

	var firstResp SubscriptionResponse
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &firstResp))

	// A browser re-subscribing the same endpoint after a key rotation must
	// get the row it already owns, not a fresh one.
	second := httptest.NewRecorder()
	h.Subscribe(second, subscribeRequest(t, userID, SubscribeRequest{
		Channel:   "push",
		Endpoint:  endpoint,
		P256dhKey: "key-after-rotation",
		AuthKey:   "auth-after",
	}))
	require.Equal(t, http.StatusCreated, second.Code)

	var secondResp SubscriptionResponse
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &secondResp))
	assert.Equal(t, firstResp.ID, secondResp.ID)

	stored, err := subs.GetByID(context.Background(), firstResp.ID)
	require.NoError(t, err)
	assert.Equal(t, "key-after-rotation", stored.P256dhKey)
	assert.True(t, stored.Active)
}

func TestSubscribeValidation(t *testing.T) {
	t.Parallel()

	subs := mocks.NewMockSubscriptionStore()
	h := NewSubscriptionHandler(subs, testLogger())
	userID := uuid.New()

	tests := []struct {
		name string
		body any
	}{
		{"unknown channel", SubscribeRequest{Channel: "email"}},
		{"push without endpoint", SubscribeRequest{
			Channel: "push", P256dhKey: "k", AuthKey: "a"}},
		{"relay without topic", SubscribeRequest{Channel: "relay"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := httptest.NewRecorder()
			h.Subscribe(w, subscribeRequest(t, userID, tt.body))
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestSubscribeUnauthenticated(t *testing.T) {
	t.Parallel()

	h := NewSubscriptionHandler(mocks.NewMockSubscriptionStore(), testLogger())

	w := httptest.NewRecorder()
	h.Subscribe(w, subscribeRequest(t, uuid.Nil, SubscribeRequest{
		Channel: "relay", Topic: "tickler-abc",
	}))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUnsubscribeDeactivates(t *testing.T) {
	t.Parallel()

	subs := mocks.NewMockSubscriptionStore()
	h := NewSubscriptionHandler(subs, testLogger())

	userID := uuid.New()
	endpoint := "https://push.example.com/send/gone"

	created := httptest.NewRecorder()
	h.Subscribe(created, subscribeRequest(t, userID, SubscribeRequest{
		Channel:   "push",
		Endpoint:  endpoint,
		P256dhKey: "k",
		AuthKey:   "a",
	}))
	require.Equal(t, http.StatusCreated, created.Code)

	var resp SubscriptionResponse
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &resp))

	payload, err := json.Marshal(UnsubscribeRequest{Endpoint: endpoint})
	require.NoError(t, err)
	req := httptest.NewRequest(
		http.MethodDelete, "/api/notifications/subscriptions", bytes.NewReader(payload))
	req = req.WithContext(context.WithValue(req.Context(), shared.UserIDContextKey, userID))

	w := httptest.NewRecorder()
	h.Unsubscribe(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)

	stored, err := subs.GetByID(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.False(t, stored.Active)
}
