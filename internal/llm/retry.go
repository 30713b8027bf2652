package llm

import (
	"context"
	"time"
)

const defaultRetries = 3

// RetryProvider wraps a Provider with a bounded linear-backoff retry on
// chat completions. Attempt i waits (1+i) seconds before retrying.
type RetryProvider struct {
	provider Provider
	retries  int
	sleep    func(time.Duration) // overridable for tests
}

// NewRetryProvider wraps the given provider. retries <= 0 uses the default.
func NewRetryProvider(provider Provider, retries int) *RetryProvider {
	if retries <= 0 {
		retries = defaultRetries
	}
	return &RetryProvider{
		provider: provider,
		retries:  retries,
		sleep:    time.Sleep,
	}
}

func (r *RetryProvider) Name() string {
	return r.provider.Name()
}

func (r *RetryProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	var lastErr error
	for i := 0; i < r.retries; i++ {
		resp, err := r.provider.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if i == r.retries-1 {
			break
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.sleep(time.Duration(1+i) * time.Second)
	}
	return nil, lastErr
}
