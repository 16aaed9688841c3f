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

	"github.com/ticklerhq/tickler-api/internal/notify"
)

const testFireSecret = "fire-secret-for-tests-long-enough"

type recordingFireDispatcher struct {
	result notify.Result
	err    error
	calls  []uuid.UUID
}

func (r *recordingFireDispatcher) HandleFire(
	ctx context.Context,
	reminderID, taskID uuid.UUID,
) (notify.Result, error) {
	r.calls = append(r.calls, reminderID)
	return r.result, r.err
}

func fireRequest(t *testing.T, body any, bearer string) *http.Request {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/notifications/fire", bytes.NewReader(payload))
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return req
}

func TestFireDispatches(t *testing.T) {
	t.Parallel()

	dispatcher := &recordingFireDispatcher{result: notify.Result{Total: 3, Succeeded: 2, Failed: 1}}
	h := NewNotificationHandler(dispatcher, testFireSecret, testLogger())

	reminderID := uuid.New()
	req := fireRequest(t, FireRequest{ReminderID: reminderID, TaskID: uuid.New()}, testFireSecret)
	w := httptest.NewRecorder()
	h.Fire(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp FireResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, FireResponse{Total: 3, Succeeded: 2, Failed: 1}, resp)
	assert.Equal(t, []uuid.UUID{reminderID}, dispatcher.calls)
}

func TestFireUnauthorized(t *testing.T) {
	t.Parallel()

	dispatcher := &recordingFireDispatcher{}
	h := NewNotificationHandler(dispatcher, testFireSecret, testLogger())

	body := FireRequest{ReminderID: uuid.New(), TaskID: uuid.New()}

	tests := []struct {
		name   string
		bearer string
	}{
		{"missing header", ""},
		{"wrong secret", "not-the-secret"},
		{"secret with prefix", testFireSecret + "x"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := httptest.NewRecorder()
			h.Fire(w, fireRequest(t, body, tt.bearer))
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}

	assert.Empty(t, dispatcher.calls)
}

func TestFireValidation(t *testing.T) {
	t.Parallel()

	dispatcher := &recordingFireDispatcher{}
	h := NewNotificationHandler(dispatcher, testFireSecret, testLogger())

	t.Run("malformed JSON", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodPost, "/api/notifications/fire",
			bytes.NewReader([]byte("{not json")))
		req.Header.Set("Authorization", "Bearer "+testFireSecret)
		w := httptest.NewRecorder()
		h.Fire(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing reminder_id", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		h.Fire(w, fireRequest(t, map[string]string{"task_id": uuid.New().String()}, testFireSecret))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
