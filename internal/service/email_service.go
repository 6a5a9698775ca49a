package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"

	"github.com/firewise/fireedu-api/pkg/logger"
)

const (
	emailSendAttempts = 3
	maxRetryAfter     = 30 * time.Second
)

// CompletionEmail — данные письма о прохождении пост-теста
type CompletionEmail struct {
	To        string
	FirstName string
	Score     int
	MaxScore  int
	// IdempotencyKey не дает отправить письмо дважды при повторной попытке
	IdempotencyKey string
}

// EmailService отправляет транзакционные письма
type EmailService interface {
	SendPostTestCompleted(ctx context.Context, msg CompletionEmail) error
}

// NoopEmailService используется, когда отправка писем отключена
type NoopEmailService struct {
	log *logger.Logger
}

func NewNoopEmailService(log *logger.Logger) *NoopEmailService {
	return &NoopEmailService{log: log.With("component", "NoopEmailService")}
}

func (s *NoopEmailService) SendPostTestCompleted(ctx context.Context, msg CompletionEmail) error {
	s.log.Info("email disabled, post-test completion email skipped", "to", msg.To)
	return nil
}

// ResendEmailService отправляет письма через Resend
type ResendEmailService struct {
	from   string
	client *resend.Client
}

func NewResendEmailService(apiKey, from string) (*ResendEmailService, error) {
	if apiKey == "" {
		return nil, errors.New("resend api key is required")
	}
	if from == "" {
		return nil, errors.New("email from is required")
	}
	return &ResendEmailService{
		from:   from,
		client: resend.NewClient(apiKey),
	}, nil
}

func (s *ResendEmailService) SendPostTestCompleted(ctx context.Context, msg CompletionEmail) error {
	req, err := completionRequest(s.from, msg)
	if err != nil {
		return err
	}
	opts := &resend.SendEmailOptions{IdempotencyKey: strings.TrimSpace(msg.IdempotencyKey)}

	return withEmailRetry(ctx, func() error {
		_, err := s.client.Emails.SendWithOptions(ctx, req, opts)
		return err
	})
}

// completionRequest собирает письмо о прохождении пост-теста
func completionRequest(from string, msg CompletionEmail) (*resend.SendEmailRequest, error) {
	if strings.TrimSpace(msg.To) == "" {
		return nil, errors.New("recipient is required")
	}
	name := strings.TrimSpace(msg.FirstName)
	if name == "" {
		name = "learner"
	}
	summary := fmt.Sprintf("%d out of %d", msg.Score, msg.MaxScore)

	return &resend.SendEmailRequest{
		From:    from,
		To:      []string{msg.To},
		Subject: "Fire-safety course: post-test completed",
		Text: fmt.Sprintf("Hi %s,\n\nyou scored %s on the fire-safety post-test. The course is now complete.\n",
			name, summary),
		Html: fmt.Sprintf("<p>Hi %s,</p><p>You scored <strong>%s</strong> on the fire-safety post-test. The course is now complete.</p>",
			html.EscapeString(name), summary),
	}, nil
}

// withEmailRetry повторяет отправку при rate limit и временных сетевых ошибках
func withEmailRetry(ctx context.Context, send func() error) error {
	var lastErr error
	for attempt := 0; attempt < emailSendAttempts; attempt++ {
		lastErr = send()
		if lastErr == nil {
			return nil
		}
		wait, retry := emailRetryDelay(lastErr, attempt)
		if !retry {
			return fmt.Errorf("resend send failed: %w", lastErr)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return fmt.Errorf("resend send failed after %d attempts: %w", emailSendAttempts, lastErr)
}

func emailRetryDelay(err error, attempt int) (time.Duration, bool) {
	backoff := time.Duration(attempt+1) * 500 * time.Millisecond

	var rateLimitErr *resend.RateLimitError
	if errors.As(err, &rateLimitErr) {
		seconds, convErr := strconv.Atoi(strings.TrimSpace(rateLimitErr.RetryAfter))
		if convErr != nil || seconds <= 0 {
			return 2 * backoff, true
		}
		wait := time.Duration(seconds) * time.Second
		if wait > maxRetryAfter {
			wait = maxRetryAfter
		}
		return wait, true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return backoff, true
	}
	return 0, false
}
