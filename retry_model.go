package tripagent

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/cenkalti/backoff/v5"
	"github.com/openai/openai-go/v3"
	"google.golang.org/genai"

	"github.com/Desarso/tripagent/models"
)

// RetryingModel retries transient failures of the wrapped model with
// exponential backoff. Client errors other than 429 fail immediately.
type RetryingModel struct {
	Model    Model
	MaxTries uint
	logger   *log.Logger
}

func NewRetryingModel(m Model, maxTries uint) *RetryingModel {
	if maxTries == 0 {
		maxTries = 3
	}
	return &RetryingModel{
		Model:    m,
		MaxTries: maxTries,
		logger:   log.New(os.Stdout, "[MODEL] ", log.LstdFlags),
	}
}

func (r *RetryingModel) Model_Request(ctx context.Context, request models.Model_Request) (models.Model_Response, error) {
	attempt := 0
	return backoff.Retry(ctx, func() (models.Model_Response, error) {
		attempt++
		res, err := r.Model.Model_Request(ctx, request)
		if err == nil {
			return res, nil
		}
		if !retryable(err) {
			return res, backoff.Permanent(err)
		}
		r.logger.Printf("attempt %d failed, retrying: %v", attempt, err)
		return res, err
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(r.MaxTries),
	)
}

// retryable reports whether err looks transient. Unknown errors (network
// failures, timeouts) are retried.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	status := 0
	var oaErr *openai.Error
	var anErr *anthropic.Error
	var gErr genai.APIError
	switch {
	case errors.As(err, &oaErr):
		status = oaErr.StatusCode
	case errors.As(err, &anErr):
		status = anErr.StatusCode
	case errors.As(err, &gErr):
		status = gErr.Code
	}
	if status == 0 {
		return true
	}
	if status == http.StatusTooManyRequests {
		return true
	}
	return status < 400 || status >= 500
}
