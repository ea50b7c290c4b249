package upstream

import (
	"context"
	"time"
)

type callResult struct {
	payload []byte
	err     error
}

// CallWithTimeout runs op with a deadline. If the deadline fires the call
// keeps running on its own goroutine with a canceled context, so
// well-behaved calls unwind promptly.
func CallWithTimeout(ctx context.Context, timeout time.Duration, op func(context.Context) ([]byte, error)) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan callResult, 1)

	go func() {
		payload, err := op(ctx)
		done <- callResult{payload: payload, err: err}
	}()

	select {
	case res := <-done:
		return res.payload, res.err
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrTimeout
		}
		return nil, ctx.Err()
	}
}
