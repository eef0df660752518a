package capture

import (
	"context"
	"fmt"
	"time"

	"go2tv.app/wlshot/internal/env"
	"go2tv.app/wlshot/internal/screencopy"
)

const (
	defaultTimeout = 5 * time.Second
	maxEnvTimeout  = 10 * time.Minute
)

func validateOptions(options *Options) (*Options, error) {
	if options == nil {
		options = &Options{}
	}
	if options.Timeout < 0 {
		return nil, fmt.Errorf("%w: Timeout must be >= 0", ErrInvalidOptions)
	}
	return options, nil
}

func (o *Options) timeout() time.Duration {
	if o.Timeout > 0 {
		return o.Timeout
	}
	return env.Millis("WLSHOT_TIMEOUT_MS", defaultTimeout, time.Millisecond, maxEnvTimeout)
}

// apply copies the caller-facing switches onto a screencopy request.
func (o *Options) apply(req screencopy.Request) screencopy.Request {
	req.IncludeCursor = o.IncludeCursor
	req.SkipFailed = o.SkipFailedOutputs
	req.Display = o.Display
	return req
}

// withTimeout bounds ctx by the options' timeout.
func (o *Options) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, o.timeout())
}
