package cache

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/FACorreiaa/go-templui-session/internal/pkg/apiclient"
)

// retry runs op once plus up to retries more times with exponential
// backoff. Client errors and context cancellation end it immediately.
func retry(ctx context.Context, retries uint, initial time.Duration, op func() (json.RawMessage, error)) (json.RawMessage, error) {
	if retries == 0 {
		return op()
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initial
	return backoff.Retry(ctx, func() (json.RawMessage, error) {
		data, err := op()
		if err != nil && permanent(err) {
			return nil, backoff.Permanent(err)
		}
		return data, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(retries+1))
}

func permanent(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	status := apiclient.StatusOf(err)
	return status >= http.StatusBadRequest && status < http.StatusInternalServerError
}
