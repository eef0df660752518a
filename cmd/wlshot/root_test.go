package main

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go2tv.app/wlshot/capture"
	"go2tv.app/wlshot/internal/notify"
)

type grabCall struct {
	mode   string
	name   string
	region capture.Rect
	opts   capture.Options
}

// stubCapture replaces the capture entry points with ones that record the
// call and return a w×h opaque red image.
func stubCapture(t *testing.T, w, h int) *grabCall {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	call := &grabCall{}
	result := func() *capture.Result {
		pix := make([]byte, w*h*4)
		for i := 0; i < len(pix); i += 4 {
			pix[i], pix[i+3] = 0xff, 0xff
		}
		return &capture.Result{Width: w, Height: h, Pix: pix}
	}

	origAll, origNamed, origRegion, origList := captureAll, captureNamed, captureRegion, listOutputs
	origNotify, origNow := sendNotification, now
	t.Cleanup(func() {
		captureAll, captureNamed, captureRegion, listOutputs = origAll, origNamed, origRegion, origList
		sendNotification, now = origNotify, origNow
	})

	captureAll = func(_ context.Context, o *capture.Options) (*capture.Result, error) {
		call.mode, call.opts = "all", *o
		return result(), nil
	}
	captureNamed = func(_ context.Context, name string, o *capture.Options) (*capture.Result, error) {
		call.mode, call.name, call.opts = "named", name, *o
		return result(), nil
	}
	captureRegion = func(_ context.Context, x, y, rw, rh int32, o *capture.Options) (*capture.Result, error) {
		call.mode, call.opts = "region", *o
		call.region = capture.Rect{X: x, Y: y, Width: rw, Height: rh}
		return result(), nil
	}
	sendNotification = func(notify.Notification) (uint32, error) {
		t.Fatal("unexpected notification")
		return 0, nil
	}
	now = func() time.Time { return time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC) }
	return call
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCaptureAllToFile(t *testing.T) {
	call := stubCapture(t, 4, 3)
	path := filepath.Join(t.TempDir(), "shot.png")

	out, err := execute(t, "", "-c", "--skip-failed", "--timeout", "1500ms", path)
	require.NoError(t, err)
	assert.Equal(t, path+"\n", out)

	assert.Equal(t, "all", call.mode)
	assert.True(t, call.opts.IncludeCursor)
	assert.True(t, call.opts.SkipFailedOutputs)
	assert.Equal(t, 1500*time.Millisecond, call.opts.Timeout)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 3), img.Bounds())
}

func TestCaptureNamedToStdout(t *testing.T) {
	call := stubCapture(t, 2, 2)

	out, err := execute(t, "", "-o", "DP-1", "-")
	require.NoError(t, err)
	assert.Equal(t, "named", call.mode)
	assert.Equal(t, "DP-1", call.name)

	img, err := png.Decode(strings.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 2, 2), img.Bounds())
}

func TestCaptureRegion(t *testing.T) {
	call := stubCapture(t, 8, 6)
	path := filepath.Join(t.TempDir(), "region.jpg")

	_, err := execute(t, "", "-g", "-10,20 8x6", path)
	require.NoError(t, err)
	assert.Equal(t, "region", call.mode)
	assert.Equal(t, capture.Rect{X: -10, Y: 20, Width: 8, Height: 6}, call.region)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	_, err = jpeg.Decode(f)
	assert.NoError(t, err, "extension selects jpeg")
}

func TestCaptureRegionFromStdin(t *testing.T) {
	call := stubCapture(t, 1, 1)

	_, err := execute(t, "5,6 7x8\n", "-g", "-", filepath.Join(t.TempDir(), "r.png"))
	require.NoError(t, err)
	assert.Equal(t, capture.Rect{X: 5, Y: 6, Width: 7, Height: 8}, call.region)
}

func TestInvalidRegion(t *testing.T) {
	call := stubCapture(t, 1, 1)

	_, err := execute(t, "", "-g", "10x10", "-")
	assert.ErrorIs(t, err, capture.ErrInvalidRegion)
	assert.Empty(t, call.mode)
}

func TestGeometryAndOutputConflict(t *testing.T) {
	stubCapture(t, 1, 1)

	_, err := execute(t, "", "-g", "0,0 1x1", "-o", "DP-1", "-")
	assert.Error(t, err)
}

func TestAutoNamedFileInDir(t *testing.T) {
	stubCapture(t, 1, 1)
	dir := t.TempDir()

	out, err := execute(t, "", "--dir", dir, "--format", "jpeg")
	require.NoError(t, err)

	want := filepath.Join(dir, "wlshot-20240506-070809.jpg")
	assert.Equal(t, want+"\n", out)
	assert.FileExists(t, want)
}

func TestConfigFileAndEnv(t *testing.T) {
	call := stubCapture(t, 1, 1)
	cfgPath := filepath.Join(t.TempDir(), "wlshot.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("capture:\n  cursor: true\n  display: wayland-9\n"), 0o600))
	t.Setenv("WLSHOT_CAPTURE_SKIP_FAILED", "true")

	_, err := execute(t, "", "--config", cfgPath, "-")
	require.NoError(t, err)
	assert.True(t, call.opts.IncludeCursor)
	assert.True(t, call.opts.SkipFailedOutputs)
	assert.Equal(t, "wayland-9", call.opts.Display)
	assert.Zero(t, call.opts.Timeout)
}

func TestFlagOverridesConfig(t *testing.T) {
	call := stubCapture(t, 1, 1)
	cfgPath := filepath.Join(t.TempDir(), "wlshot.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("capture:\n  display: wayland-9\n"), 0o600))

	_, err := execute(t, "", "--config", cfgPath, "--display", "wayland-1", "-")
	require.NoError(t, err)
	assert.Equal(t, "wayland-1", call.opts.Display)
}

func TestNotifyAfterSave(t *testing.T) {
	stubCapture(t, 300, 10)
	path := filepath.Join(t.TempDir(), "shot.png")

	var got notify.Notification
	sendNotification = func(n notify.Notification) (uint32, error) {
		got = n
		return 1, nil
	}

	_, err := execute(t, "", "--notify", path)
	require.NoError(t, err)
	assert.Equal(t, path, got.Path)
	assert.Equal(t, "Screenshot saved", got.Summary)
	require.NotNil(t, got.Thumbnail)
	assert.Equal(t, image.Rect(0, 0, 300, 10), got.Thumbnail.Bounds())
}

func TestNotifyFailureIsAWarning(t *testing.T) {
	stubCapture(t, 1, 1)
	sendNotification = func(notify.Notification) (uint32, error) {
		return 0, errors.New("no notification daemon")
	}

	out, err := execute(t, "", "--notify", filepath.Join(t.TempDir(), "shot.png"))
	require.NoError(t, err)
	assert.Contains(t, out, "warning: no notification daemon")
}

func TestCaptureErrorIsReturned(t *testing.T) {
	stubCapture(t, 1, 1)
	captureAll = func(context.Context, *capture.Options) (*capture.Result, error) {
		return nil, capture.ErrTimeout
	}

	_, err := execute(t, "", "-")
	assert.ErrorIs(t, err, capture.ErrTimeout)
}

func TestListOutputs(t *testing.T) {
	stubCapture(t, 1, 1)
	var opts capture.Options
	listOutputs = func(_ context.Context, o *capture.Options) ([]capture.OutputInfo, error) {
		opts = *o
		return []capture.OutputInfo{
			{Name: "DP-1", Description: "Dell U2720Q", X: 0, Y: 0, Width: 2560, Height: 1440, Transform: "normal", Scale: 1},
			{Name: "HDMI-A-1", X: 2560, Y: 0, Width: 1080, Height: 1920, Transform: "90", Scale: 2},
		}, nil
	}

	out, err := execute(t, "", "list", "--display", "wayland-2")
	require.NoError(t, err)
	assert.Equal(t, "wayland-2", opts.Display)
	assert.Equal(t,
		"DP-1: 2560x1440+0+0 scale=1 transform=normal (Dell U2720Q)\n"+
			"HDMI-A-1: 1080x1920+2560+0 scale=2 transform=90\n",
		out)
}
