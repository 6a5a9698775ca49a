package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/resend/resend-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestCompletionRequest(t *testing.T) {
	req, err := completionRequest("FireEdu <noreply@fireedu.local>", CompletionEmail{
		To:        "anna@example.com",
		FirstName: "<Anna>",
		Score:     8,
		MaxScore:  10,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"anna@example.com"}, req.To)
	assert.Contains(t, req.Text, "8 out of 10")
	assert.Contains(t, req.Html, "&lt;Anna&gt;", "Имя экранируется в HTML")

	req, err = completionRequest("from", CompletionEmail{To: "x@example.com"})
	require.NoError(t, err)
	assert.Contains(t, req.Text, "Hi learner")

	_, err = completionRequest("from", CompletionEmail{To: "  "})
	assert.Error(t, err)
}

func TestEmailRetryDelay(t *testing.T) {
	wait, ok := emailRetryDelay(&resend.RateLimitError{RetryAfter: "120"}, 0)
	assert.True(t, ok)
	assert.Equal(t, maxRetryAfter, wait)

	wait, ok = emailRetryDelay(&resend.RateLimitError{RetryAfter: "2"}, 0)
	assert.True(t, ok)
	assert.Equal(t, 2*time.Second, wait)

	wait, ok = emailRetryDelay(timeoutError{}, 1)
	assert.True(t, ok)
	assert.Equal(t, time.Second, wait)

	_, ok = emailRetryDelay(errors.New("invalid from address"), 0)
	assert.False(t, ok)
}

func TestWithEmailRetry(t *testing.T) {
	calls := 0
	err := withEmailRetry(context.Background(), func() error {
		calls++
		if calls < 2 {
			return timeoutError{}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	calls = 0
	err = withEmailRetry(context.Background(), func() error {
		calls++
		return errors.New("validation_error")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls, "Постоянная ошибка не повторяется")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = withEmailRetry(ctx, func() error { return timeoutError{} })
	assert.ErrorIs(t, err, context.Canceled)
}
