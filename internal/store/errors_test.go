package store_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ticklerhq/tickler-api/internal/store"
)

func TestIsNotFoundError(t *testing.T) {
	t.Parallel()

	assert.True(t, store.IsNotFoundError(store.ErrNotFound))
	assert.True(t, store.IsNotFoundError(store.ErrReminderNotFound))
	assert.True(t, store.IsNotFoundError(store.ErrTaskNotFound))
	assert.True(t, store.IsNotFoundError(store.ErrSubscriptionNotFound))
	assert.True(t, store.IsNotFoundError(store.ErrUserNotFound))

	wrapped := fmt.Errorf("loading reminder: %w", store.ErrReminderNotFound)
	assert.True(t, store.IsNotFoundError(wrapped))

	assert.False(t, store.IsNotFoundError(nil))
	assert.False(t, store.IsNotFoundError(errors.New("boom")))
	assert.False(t, store.IsNotFoundError(store.ErrInvalidEntity))
}
