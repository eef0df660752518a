//go:build linux

package capture

import (
	"context"

	"go2tv.app/wlshot/internal/composite"
	"go2tv.app/wlshot/internal/debuglog"
	"go2tv.app/wlshot/internal/screencopy"
)

func grab(ctx context.Context, req screencopy.Request, options *Options) (*Result, error) {
	options, err := validateOptions(options)
	if err != nil {
		return nil, err
	}

	ctx, cancel := options.withTimeout(ctx)
	defer cancel()

	caps, err := screencopy.Run(ctx, options.apply(req))
	if err != nil {
		debuglog.Printf("capture", "mode=%s err=%q", req.Mode, err)
		return nil, err
	}

	img, bounds, err := composite.Assemble(caps)
	if err != nil {
		return nil, err
	}
	debuglog.Printf("capture", "mode=%s outputs=%d bounds=%s", req.Mode, len(caps), bounds)

	return &Result{
		Width:  img.Rect.Dx(),
		Height: img.Rect.Dy(),
		Pix:    img.Pix,
	}, nil
}

func outputs(ctx context.Context, options *Options) ([]OutputInfo, error) {
	options, err := validateOptions(options)
	if err != nil {
		return nil, err
	}

	ctx, cancel := options.withTimeout(ctx)
	defer cancel()

	list, err := screencopy.ListOutputs(ctx, options.apply(screencopy.Request{}))
	if err != nil {
		return nil, err
	}

	infos := make([]OutputInfo, 0, len(list))
	for _, o := range list {
		infos = append(infos, OutputInfo{
			Name:        o.Name,
			Description: o.Description,
			X:           o.Position.X,
			Y:           o.Position.Y,
			Width:       o.Size.Width,
			Height:      o.Size.Height,
			Transform:   o.Transform.String(),
			Scale:       o.Scale,
		})
	}
	return infos, nil
}
