package capture

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go2tv.app/wlshot/internal/screencopy"
)

func TestResultImageSharesPixels(t *testing.T) {
	r := &Result{Width: 2, Height: 1, Pix: []byte{1, 2, 3, 4, 5, 6, 7, 8}}

	img := r.Image()
	assert.Equal(t, image.Rect(0, 0, 2, 1), img.Bounds())
	assert.Equal(t, color.RGBA{R: 5, G: 6, B: 7, A: 8}, img.RGBAAt(1, 0))

	img.SetRGBA(0, 0, color.RGBA{R: 9})
	assert.Equal(t, byte(9), r.Pix[0])
}

func TestResultGray(t *testing.T) {
	r := &Result{Width: 3, Height: 1, Pix: []byte{
		255, 255, 255, 255,
		2, 2, 2, 0,
		10, 20, 31, 255,
	}}

	// per-channel division truncates before summing
	assert.Equal(t, []byte{255, 0, 3 + 6 + 10}, r.Gray())
}

func TestValidateOptions(t *testing.T) {
	o, err := validateOptions(nil)
	require.NoError(t, err)
	assert.Equal(t, &Options{}, o)

	_, err = validateOptions(&Options{Timeout: -time.Second})
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestOptionsTimeout(t *testing.T) {
	t.Setenv("WLSHOT_TIMEOUT_MS", "")
	assert.Equal(t, defaultTimeout, (&Options{}).timeout())

	t.Setenv("WLSHOT_TIMEOUT_MS", "250")
	assert.Equal(t, 250*time.Millisecond, (&Options{}).timeout())
	assert.Equal(t, 2*time.Second, (&Options{Timeout: 2 * time.Second}).timeout())

	t.Setenv("WLSHOT_TIMEOUT_MS", "garbage")
	assert.Equal(t, defaultTimeout, (&Options{}).timeout())
}

func TestOptionsWithTimeout(t *testing.T) {
	ctx, cancel := (&Options{Timeout: time.Minute}).withTimeout(context.Background())
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
}

func TestOptionsApply(t *testing.T) {
	o := &Options{IncludeCursor: true, SkipFailedOutputs: true, Display: "wayland-1"}
	req := o.apply(screencopy.Request{Mode: screencopy.ModeNamed, Name: "DP-1"})

	assert.Equal(t, screencopy.Request{
		Mode:          screencopy.ModeNamed,
		Name:          "DP-1",
		IncludeCursor: true,
		SkipFailed:    true,
		Display:       "wayland-1",
	}, req)
}

func TestErrorsMatchEngineSentinels(t *testing.T) {
	err := error(&NoOutputError{Name: "DP-9"})
	assert.ErrorIs(t, err, ErrNoOutput)

	err = &FrameError{Output: "DP-1", Err: ErrScreencopyFailed}
	assert.ErrorIs(t, err, ErrScreencopyFailed)

	var frameErr *FrameError
	assert.True(t, errors.As(err, &frameErr))
	assert.Equal(t, "DP-1", frameErr.Output)

	err = &ProtocolError{Object: 12, Code: 1, Message: "invalid region"}
	assert.ErrorIs(t, err, ErrProtocolError)
	assert.Contains(t, err.Error(), "invalid region")
}

func TestCaptureRejectsNegativeTimeout(t *testing.T) {
	_, err := AllOutputs(context.Background(), &Options{Timeout: -1})
	assert.True(t, errors.Is(err, ErrInvalidOptions) || errors.Is(err, ErrNotImplemented))
}
