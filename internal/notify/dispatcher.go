package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/ticklerhq/tickler-api/internal/domain"
	"github.com/ticklerhq/tickler-api/internal/store"
)

// Result aggregates the outcome of fanning one notification out across
// every active subscription.
type Result struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Dispatcher fans a single fired reminder out to every active subscription,
// invoking the matching channel sender per subscription concurrently with
// all-settle semantics: no sender's failure cancels another's send.
type Dispatcher struct {
	reminders store.ReminderStore
	subs      store.SubscriptionStore
	tasks     store.TaskStore
	senders   map[domain.Channel]ChannelSender
	logger    *slog.Logger
}

// NewDispatcher creates a new Dispatcher over the given stores and senders.
func NewDispatcher(
	reminders store.ReminderStore,
	subs store.SubscriptionStore,
	tasks store.TaskStore,
	senders []ChannelSender,
	logger *slog.Logger,
) *Dispatcher {
	byChannel := make(map[domain.Channel]ChannelSender, len(senders))
	for _, sender := range senders {
		byChannel[sender.Channel()] = sender
	}

	return &Dispatcher{
		reminders: reminders,
		subs:      subs,
		tasks:     tasks,
		senders:   byChannel,
		logger:    logger.With(slog.String("component", "dispatcher")),
	}
}

// HandleFire is the execution callback for a fired reminder job. It loads the
// task, builds the payload, and dispatches it. A task that is missing or
// already completed is a normal race between completion and fire time: the
// dispatcher skips without error and leaves the reminder's status to the
// task-completion flow.
func (d *Dispatcher) HandleFire(ctx context.Context, reminderID, taskID uuid.UUID) (Result, error) {
	task, err := d.tasks.GetByID(ctx, taskID)
	if errors.Is(err, store.ErrTaskNotFound) {
		d.logger.Debug("task gone before fire time, skipping notification",
			"reminder_id", reminderID,
			"task_id", taskID)
		return Result{}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("failed to load task: %w", err)
	}

	if task.Completed {
		d.logger.Debug("task completed before fire time, skipping notification",
			"reminder_id", reminderID,
			"task_id", taskID)
		return Result{}, nil
	}

	return d.Dispatch(ctx, domain.PayloadFromTask(reminderID, task))
}

// Dispatch sends the payload to every active subscription and marks the
// reminder sent once every send has settled, regardless of per-channel
// outcomes: a reminder must never be retried forever because one channel is
// broken.
func (d *Dispatcher) Dispatch(ctx context.Context, payload domain.Payload) (Result, error) {
	subscriptions, err := d.subs.ListActive(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to list active subscriptions: %w", err)
	}

	type outcome struct {
		subscriptionID uuid.UUID
		channel        domain.Channel
		err            error
	}

	outcomes := make(chan outcome, len(subscriptions))
	var wg sync.WaitGroup
	total := 0

	for _, sub := range subscriptions {
		sender, ok := d.senders[sub.Channel]
		if !ok {
			d.logger.Warn("no sender for subscription channel, skipping",
				"subscription_id", sub.ID,
				"channel", sub.Channel)
			continue
		}

		total++
		wg.Add(1)
		go func(sub *domain.Subscription, sender ChannelSender) {
			defer wg.Done()
			outcomes <- outcome{
				subscriptionID: sub.ID,
				channel:        sub.Channel,
				err:            sender.Send(ctx, sub, payload),
			}
		}(sub, sender)
	}

	wg.Wait()
	close(outcomes)

	result := Result{Total: total}
	for o := range outcomes {
		if o.err != nil {
			result.Failed++
			d.logger.Error("channel delivery failed",
				"reminder_id", payload.ReminderID,
				"subscription_id", o.subscriptionID,
				"channel", o.channel,
				"error", o.err)
			continue
		}
		result.Succeeded++
	}

	if err := d.reminders.MarkSent(ctx, payload.ReminderID); err != nil {
		return result, fmt.Errorf("failed to mark reminder sent: %w", err)
	}

	d.logger.Info("reminder dispatched",
		"reminder_id", payload.ReminderID,
		"total", result.Total,
		"succeeded", result.Succeeded,
		"failed", result.Failed)

	return result, nil
}
