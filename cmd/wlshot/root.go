package main

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"go2tv.app/wlshot/capture"
	"go2tv.app/wlshot/internal/config"
	"go2tv.app/wlshot/internal/debuglog"
	"go2tv.app/wlshot/internal/notify"
)

// Swapped out by tests.
var (
	captureAll       = capture.AllOutputs
	captureNamed     = capture.NamedOutput
	captureRegion    = capture.Region
	listOutputs      = capture.Outputs
	sendNotification = notify.Send
	now              = time.Now
)

// flagKeys maps viper keys to the flags that override them.
var flagKeys = map[string]string{
	"capture.cursor":      "cursor",
	"capture.skip_failed": "skip-failed",
	"capture.display":     "display",
	"output.format":       "format",
	"output.quality":      "quality",
	"output.dir":          "dir",
	"output.gray":         "gray",
	"notify.enabled":      "notify",
	"debug":               "debug",
}

type app struct {
	cfgFile  string
	geometry string
	output   string
	timeout  time.Duration

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "wlshot [flags] [path]",
		Short: "Screenshot tool for wlroots-based Wayland compositors",
		Long: `Capture Wayland outputs through the wlr-screencopy protocol.

Without -g or -o every output is captured into one image laid out the way
the compositor arranges them. The image is written to path, to stdout when
path is "-", or to an auto-named file in the output directory.

The image format follows the path extension (.png, .jpg, .jpeg) and falls
back to --format.

Configuration is read from $XDG_CONFIG_HOME/wlshot/config.yaml and
WLSHOT_* environment variables (e.g. WLSHOT_OUTPUT_FORMAT=jpeg). Flags win.

Examples:
  wlshot shot.png                        # All outputs
  wlshot -o DP-1 -                       # One output to stdout
  wlshot -g "$(slurp)" region.jpg        # A region selected with slurp
  slurp | wlshot -g - region.png         # Region read from stdin
  wlshot -c --notify                     # With cursor, auto-named, notify`,
		Args:              cobra.MaximumNArgs(1),
		SilenceUsage:      true,
		PersistentPreRunE: a.load,
		RunE:              a.run,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/wlshot/config.yaml)")
	pf.String("display", "", "Wayland display name or socket path (default $WAYLAND_DISPLAY)")
	pf.DurationVar(&a.timeout, "timeout", 0, "Give up after this long (default 5s)")
	pf.Bool("debug", false, "Log protocol progress to stderr")

	f := cmd.Flags()
	f.StringVarP(&a.geometry, "geometry", "g", "", `Region to capture as "{x},{y} {width}x{height}", or - to read it from stdin`)
	f.StringVarP(&a.output, "output", "o", "", "Name of the output to capture")
	f.BoolP("cursor", "c", false, "Include the cursor in the screenshot")
	f.Bool("skip-failed", false, "Leave out outputs the compositor fails to copy")
	f.StringP("format", "f", "png", "Image format (png, jpeg)")
	f.IntP("quality", "q", 90, "JPEG quality (1-100)")
	f.StringP("dir", "d", "", "Directory for auto-named screenshots")
	f.Bool("gray", false, "Write a grayscale image")
	f.Bool("notify", false, "Show a desktop notification after saving")
	cmd.MarkFlagsMutuallyExclusive("geometry", "output")

	cmd.AddCommand(newListCmd(a))
	return cmd
}

func (a *app) load(cmd *cobra.Command, _ []string) error {
	v, err := config.New(a.cfgFile)
	if err != nil {
		return err
	}

	for key, name := range flagKeys {
		if fl := cmd.Flags().Lookup(name); fl != nil {
			if err := v.BindPFlag(key, fl); err != nil {
				return err
			}
		}
	}

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Capture.TimeoutMs = int(a.timeout / time.Millisecond)
	}
	if cfg.Debug {
		debuglog.SetEnabled(true)
	}

	a.cfg = cfg
	return nil
}

func (a *app) options() *capture.Options {
	return &capture.Options{
		IncludeCursor:     a.cfg.Capture.Cursor,
		SkipFailedOutputs: a.cfg.Capture.SkipFailed,
		Timeout:           a.cfg.Capture.Timeout(),
		Display:           a.cfg.Capture.Display,
	}
}

func (a *app) grab(ctx context.Context, stdin io.Reader) (*capture.Result, error) {
	opts := a.options()

	switch {
	case a.geometry != "":
		geometry := a.geometry
		if geometry == "-" {
			line, err := bufio.NewReader(stdin).ReadString('\n')
			if err != nil && line == "" {
				return nil, fmt.Errorf("read region from stdin: %w", err)
			}
			geometry = strings.TrimSpace(line)
		}
		r, err := capture.ParseRegion(geometry)
		if err != nil {
			return nil, err
		}
		return captureRegion(ctx, r.X, r.Y, r.Width, r.Height, opts)
	case a.output != "":
		return captureNamed(ctx, a.output, opts)
	default:
		return captureAll(ctx, opts)
	}
}

func (a *app) run(cmd *cobra.Command, args []string) error {
	res, err := a.grab(cmd.Context(), cmd.InOrStdin())
	if err != nil {
		return err
	}

	var img image.Image = res.Image()
	if a.cfg.Output.Gray {
		img = grayImage(res)
	}

	path := ""
	if len(args) == 1 {
		path = args[0]
	}
	if path == "-" {
		return encode(cmd.OutOrStdout(), img, a.cfg.Output.Format, a.cfg.Output.Quality)
	}
	if path == "" {
		path = filepath.Join(outputDir(a.cfg.Output.Dir), filename(a.cfg.Output.Format, now()))
	}

	format := formatFor(path, a.cfg.Output.Format)
	if err := writeFile(path, img, format, a.cfg.Output.Quality); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)

	if a.cfg.Notify.Enabled {
		a.announce(cmd, path, img)
	}
	return nil
}

func (a *app) announce(cmd *cobra.Command, path string, img image.Image) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	_, err := sendNotification(notify.Notification{
		Summary:   "Screenshot saved",
		Body:      path,
		Path:      path,
		Thumbnail: img,
	})
	if err != nil {
		debuglog.Printf("cli", "notify err=%q", err)
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
	}
}

// outputDir picks dir, then $XDG_PICTURES_DIR, then ~/Pictures, then ".".
func outputDir(dir string) string {
	if dir != "" {
		return dir
	}
	if pics := os.Getenv("XDG_PICTURES_DIR"); pics != "" {
		return pics
	}
	if home, err := os.UserHomeDir(); err == nil {
		pics := filepath.Join(home, "Pictures")
		if st, err := os.Stat(pics); err == nil && st.IsDir() {
			return pics
		}
	}
	return "."
}
