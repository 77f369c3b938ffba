package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// MaxRetries es el techo de reintentos; nunca reintentamos indefinidamente.
const MaxRetries = 5

var ErrEmptyResponse = errors.New("llm empty response")

// StatusError representa una respuesta HTTP de error del proveedor.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("llm http error: status=%d", e.StatusCode)
}

func clampRetries(n int) int {
	if n < 0 {
		return 0
	}
	if n > MaxRetries {
		return MaxRetries
	}
	return n
}

// retryable solo acepta rate limit y errores 5xx del proveedor.
func retryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= 500
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500
	}
	return false
}

var retryBackoff = 500 * time.Millisecond

func withRetry(ctx context.Context, maxRetries int, logger *zap.Logger, fn func() (string, error)) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			wait := retryBackoff * time.Duration(1<<(attempt-1))
			logger.Info("retrying llm call", zap.Int("attempt", attempt), zap.Duration("backoff", wait), zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(wait):
			}
		}

		out, err := fn()
		if err == nil {
			return out, nil
		}
		lastErr = err
		if ctx.Err() != nil || !retryable(err) {
			return "", err
		}
	}
	return "", lastErr
}
