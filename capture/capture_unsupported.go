//go:build !linux

package capture

import (
	"context"
	"fmt"

	"go2tv.app/wlshot/internal/screencopy"
)

func grab(_ context.Context, _ screencopy.Request, _ *Options) (*Result, error) {
	return nil, fmt.Errorf("%w: wlr-screencopy needs a Linux Wayland session", ErrNotImplemented)
}

func outputs(_ context.Context, _ *Options) ([]OutputInfo, error) {
	return nil, fmt.Errorf("%w: wlr-screencopy needs a Linux Wayland session", ErrNotImplemented)
}
