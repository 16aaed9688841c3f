package notify

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticklerhq/tickler-api/internal/domain"
	"github.com/ticklerhq/tickler-api/internal/mocks"
)

// newPushSubscription builds a subscription with a real P-256 key pair and
// auth secret so the web push library can encrypt against it. No decryption
// happens in these tests; the server only inspects the request.
func newPushSubscription(t *testing.T, endpoint string) *domain.Subscription {
	t.Helper()

	subscriberKey, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)

	authSecret := make([]byte, 16)
	_, err = rand.Read(authSecret)
	require.NoError(t, err)

	sub, err := domain.NewPushSubscription(
		uuid.New(),
		endpoint,
		base64.RawURLEncoding.EncodeToString(subscriberKey.PublicKey().Bytes()),
		base64.RawURLEncoding.EncodeToString(authSecret),
	)
	require.NoError(t, err)
	return sub
}

func newPushSenderFixture(t *testing.T, subs *mocks.MockSubscriptionStore) *PushSender {
	t.Helper()

	vapidPrivate, vapidPublic, err := webpush.GenerateVAPIDKeys()
	require.NoError(t, err)

	return NewPushSender(PushConfig{
		VAPIDPublicKey:  vapidPublic,
		VAPIDPrivateKey: vapidPrivate,
		Subject:         "mailto:ops@example.com",
	}, subs, testLogger())
}

func pushPayload() domain.Payload {
	return domain.Payload{
		ReminderID: uuid.New(),
		TaskID:     uuid.New(),
		TaskTitle:  "Water the plants",
	}
}

func TestPushSendDelivers(t *testing.T) {
	var gotRequest bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRequest = true
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	subs := mocks.NewMockSubscriptionStore()
	sender := newPushSenderFixture(t, subs)
	sub := newPushSubscription(t, server.URL)
	subs.Put(sub)

	err := sender.Send(context.Background(), sub, pushPayload())

	require.NoError(t, err)
	assert.True(t, gotRequest, "the push service should have been called")
	assert.Empty(t, subs.DeactivatedIDs)
}

func TestPushSendGoneDeactivatesSubscription(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusGone} {
		t.Run(fmt.Sprintf("status %d", status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
			}))
			defer server.Close()

			subs := mocks.NewMockSubscriptionStore()
			sender := newPushSenderFixture(t, subs)
			sub := newPushSubscription(t, server.URL)
			subs.Put(sub)

			err := sender.Send(context.Background(), sub, pushPayload())

			require.NoError(t, err, "a gone endpoint is self-healing cleanup, not a failure")
			require.Contains(t, subs.DeactivatedIDs, sub.ID)

			stored, err := subs.GetByID(context.Background(), sub.ID)
			require.NoError(t, err)
			assert.False(t, stored.Active)
		})
	}
}

func TestPushSendServerErrorIsReportedNotDeactivated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	subs := mocks.NewMockSubscriptionStore()
	sender := newPushSenderFixture(t, subs)
	sub := newPushSubscription(t, server.URL)
	subs.Put(sub)

	err := sender.Send(context.Background(), sub, pushPayload())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrChannelDelivery)
	assert.Empty(t, subs.DeactivatedIDs, "a transient failure must not deactivate the subscription")

	stored, err := subs.GetByID(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.True(t, stored.Active)
}
