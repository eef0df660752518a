package main

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go2tv.app/wlshot/capture"
)

func encode(w io.Writer, img image.Image, format string, quality int) error {
	switch format {
	case "jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	case "png":
		return png.Encode(w, img)
	default:
		return fmt.Errorf("unknown image format %q", format)
	}
}

func writeFile(path string, img image.Image, format string, quality int) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, f.Close())
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	return encode(f, img, format, quality)
}

// formatFor prefers the extension of path over the configured format.
func formatFor(path, configured string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "png"
	case ".jpg", ".jpeg":
		return "jpeg"
	}
	return configured
}

func filename(format string, t time.Time) string {
	ext := "png"
	if format == "jpeg" {
		ext = "jpg"
	}
	return fmt.Sprintf("wlshot-%s.%s", t.Format("20060102-150405"), ext)
}

func grayImage(res *capture.Result) *image.Gray {
	return &image.Gray{
		Pix:    res.Gray(),
		Stride: res.Width,
		Rect:   image.Rect(0, 0, res.Width, res.Height),
	}
}
