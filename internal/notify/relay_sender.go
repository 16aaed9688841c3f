package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ticklerhq/tickler-api/internal/domain"
)

// RelayConfig holds settings for topic-based relay delivery.
type RelayConfig struct {
	// BaseURL is the ntfy-compatible relay the payload is posted to.
	BaseURL string

	// CallbackBaseURL is the externally reachable base URL of this service,
	// used to build the snooze/dismiss action URLs.
	CallbackBaseURL string
}

// RelaySender posts formatted payloads to a named topic over plain HTTP.
// Each message carries machine-actionable buttons whose target URLs are
// snooze/dismiss callbacks authenticated by a signed capability token.
// Failures are reported to the dispatcher; subscription state is never
// mutated here.
type RelaySender struct {
	config RelayConfig
	signer *TokenSigner
	client *http.Client
	logger *slog.Logger
}

// NewRelaySender creates a new RelaySender.
func NewRelaySender(config RelayConfig, signer *TokenSigner, logger *slog.Logger) *RelaySender {
	return &RelaySender{
		config: config,
		signer: signer,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger.With(slog.String("component", "relay_sender")),
	}
}

// Ensure RelaySender implements the ChannelSender interface
var _ ChannelSender = (*RelaySender)(nil)

// Channel implements ChannelSender.Channel.
func (s *RelaySender) Channel() domain.Channel {
	return domain.ChannelRelay
}

// Send implements ChannelSender.Send.
func (s *RelaySender) Send(ctx context.Context, sub *domain.Subscription, payload domain.Payload) error {
	now := time.Now()
	body := FormatBody(payload, now)
	topicURL := strings.TrimSuffix(s.config.BaseURL, "/") + "/" + url.PathEscape(sub.Topic)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, topicURL, strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build relay request: %v", ErrChannelDelivery, err)
	}

	req.Header.Set("Title", "Task reminder")
	req.Header.Set("Tags", "alarm_clock")
	req.Header.Set("Actions", s.actionsHeader(payload.ReminderID, now))

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrChannelDelivery, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			s.logger.Warn("failed to close relay response body", "error", closeErr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: relay returned status %d", ErrChannelDelivery, resp.StatusCode)
	}

	return nil
}

// actionsHeader builds the ntfy Actions header: three snooze buttons and a
// done button, each an unauthenticated-context HTTP GET against the callback
// endpoint carrying a capability token for this reminder.
func (s *RelaySender) actionsHeader(reminderID uuid.UUID, now time.Time) string {
	actions := []string{
		fmt.Sprintf("http, Snooze 10m, %s, method=GET", s.snoozeURL(reminderID, 10)),
		fmt.Sprintf("http, Snooze 1h, %s, method=GET", s.snoozeURL(reminderID, 60)),
		fmt.Sprintf("http, Tomorrow, %s, method=GET", s.snoozeURL(reminderID, minutesUntilNextMorning(now))),
		fmt.Sprintf("http, Done, %s, method=GET", s.dismissURL(reminderID)),
	}
	return strings.Join(actions, "; ")
}

// snoozeURL builds a signed snooze callback URL for the reminder.
func (s *RelaySender) snoozeURL(reminderID uuid.UUID, minutes int) string {
	params := url.Values{}
	params.Set("reminder_id", reminderID.String())
	params.Set("minutes", fmt.Sprintf("%d", minutes))
	params.Set("token", s.signer.Sign(reminderID))
	return s.callbackURL(params)
}

// dismissURL builds a signed dismiss callback URL for the reminder.
func (s *RelaySender) dismissURL(reminderID uuid.UUID) string {
	params := url.Values{}
	params.Set("reminder_id", reminderID.String())
	params.Set("done", "true")
	params.Set("token", s.signer.Sign(reminderID))
	return s.callbackURL(params)
}

func (s *RelaySender) callbackURL(params url.Values) string {
	return strings.TrimSuffix(s.config.CallbackBaseURL, "/") +
		"/api/reminders/callback?" + params.Encode()
}

// minutesUntilNextMorning returns the whole minutes from now until 09:00
// the next day, used for the next-day snooze button.
func minutesUntilNextMorning(now time.Time) int {
	morning := time.Date(now.Year(), now.Month(), now.Day(), 9, 0, 0, 0, now.Location()).
		AddDate(0, 0, 1)
	return int(morning.Sub(now).Minutes())
}
