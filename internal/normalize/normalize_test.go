package normalize

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// labelled builds a w×h XBGR8888 buffer whose pixel at (x, y) carries the
// label y*w+x in its red channel.
func labelled(w, h, stride int) []byte {
	pix := make([]byte, stride*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			label := byte(y*w + x)
			i := y*stride + x*4
			pix[i], pix[i+1], pix[i+2], pix[i+3] = label, label+100, label+200, 0xff
		}
	}
	return pix
}

func redGrid(img *image.RGBA) [][]byte {
	b := img.Bounds()
	grid := make([][]byte, b.Dy())
	for y := range grid {
		grid[y] = make([]byte, b.Dx())
		for x := range grid[y] {
			grid[y][x] = img.Pix[y*img.Stride+x*4]
		}
	}
	return grid
}

func TestFrameTransforms(t *testing.T) {
	// source:
	//   0 1 2
	//   3 4 5
	tests := []struct {
		transform Transform
		want      [][]byte
	}{
		{TransformNormal, [][]byte{{0, 1, 2}, {3, 4, 5}}},
		{Transform90, [][]byte{{3, 0}, {4, 1}, {5, 2}}},
		{Transform180, [][]byte{{5, 4, 3}, {2, 1, 0}}},
		{Transform270, [][]byte{{2, 5}, {1, 4}, {0, 3}}},
		{TransformFlipped, [][]byte{{2, 1, 0}, {5, 4, 3}}},
		{TransformFlipped90, [][]byte{{0, 3}, {1, 4}, {2, 5}}},
		{TransformFlipped180, [][]byte{{3, 4, 5}, {0, 1, 2}}},
		{TransformFlipped270, [][]byte{{5, 2}, {4, 1}, {3, 0}}},
	}

	for _, tt := range tests {
		t.Run(tt.transform.String(), func(t *testing.T) {
			img, err := Frame(Raw{
				Pix:       labelled(3, 2, 12),
				Width:     3,
				Height:    2,
				Stride:    12,
				Format:    FormatXBGR8888,
				Transform: tt.transform,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, redGrid(img))

			w, h := tt.transform.OutputSize(3, 2)
			assert.Equal(t, image.Rect(0, 0, w, h), img.Bounds())
		})
	}
}

func TestFrameIdentityKeepsBuffer(t *testing.T) {
	src := labelled(4, 3, 16)
	img, err := Frame(Raw{Pix: src, Width: 4, Height: 3, Stride: 16, Format: FormatXBGR8888})
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, 4, 3), img.Bounds())
	assert.Equal(t, src, img.Pix)
}

func TestFrameQuarterTurnRoundTrip(t *testing.T) {
	for _, pair := range [][2]Transform{{Transform90, Transform270}, {Transform270, Transform90}} {
		t.Run(pair[0].String()+"-"+pair[1].String(), func(t *testing.T) {
			src := labelled(5, 3, 20)

			turned, err := Frame(Raw{Pix: src, Width: 5, Height: 3, Stride: 20, Format: FormatXBGR8888, Transform: pair[0]})
			require.NoError(t, err)
			require.Equal(t, image.Rect(0, 0, 3, 5), turned.Bounds())

			back, err := Frame(Raw{
				Pix:       turned.Pix,
				Width:     turned.Bounds().Dx(),
				Height:    turned.Bounds().Dy(),
				Stride:    turned.Stride,
				Format:    FormatXBGR8888,
				Transform: pair[1],
			})
			require.NoError(t, err)

			assert.Equal(t, image.Rect(0, 0, 5, 3), back.Bounds())
			assert.Equal(t, src, back.Pix)
		})
	}
}

func TestFramePixelFormats(t *testing.T) {
	src := []byte{
		0x11, 0x22, 0x33, 0x44,
		0xa0, 0xb0, 0xc0, 0x00,
	}

	tests := []struct {
		format Format
		want   []byte
	}{
		{FormatARGB8888, []byte{0x33, 0x22, 0x11, 0x44, 0xc0, 0xb0, 0xa0, 0x00}},
		{FormatXRGB8888, []byte{0x33, 0x22, 0x11, 0xff, 0xc0, 0xb0, 0xa0, 0xff}},
		{FormatXBGR8888, []byte{0x11, 0x22, 0x33, 0xff, 0xa0, 0xb0, 0xc0, 0xff}},
	}

	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			img, err := Frame(Raw{Pix: src, Width: 2, Height: 1, Stride: 8, Format: tt.format})
			require.NoError(t, err)
			assert.Equal(t, tt.want, img.Pix)
		})
	}
}

func TestFrameStridePaddingAndYInvert(t *testing.T) {
	// 2x2 buffer with 4 bytes of padding per row
	src := []byte{
		1, 0, 0, 0, 2, 0, 0, 0, 0xee, 0xee, 0xee, 0xee,
		3, 0, 0, 0, 4, 0, 0, 0, 0xee, 0xee, 0xee, 0xee,
	}

	img, err := Frame(Raw{Pix: src, Width: 2, Height: 2, Stride: 12, Format: FormatXBGR8888})
	require.NoError(t, err)
	assert.Equal(t, [][]byte{{1, 2}, {3, 4}}, redGrid(img))

	img, err = Frame(Raw{Pix: src, Width: 2, Height: 2, Stride: 12, Format: FormatXBGR8888, YInverted: true})
	require.NoError(t, err)
	assert.Equal(t, [][]byte{{3, 4}, {1, 2}}, redGrid(img))
}

func TestFrameRejectsBadInput(t *testing.T) {
	good := Raw{Pix: make([]byte, 16), Width: 2, Height: 2, Stride: 8, Format: FormatXRGB8888}

	tests := []struct {
		name   string
		mutate func(r *Raw)
		want   error
	}{
		{"format", func(r *Raw) { r.Format = 0x34325241 }, ErrUnsupportedFormat},
		{"transform", func(r *Raw) { r.Transform = 8 }, ErrUnsupportedTransform},
		{"negative transform", func(r *Raw) { r.Transform = -1 }, ErrUnsupportedTransform},
		{"zero width", func(r *Raw) { r.Width = 0 }, ErrInvalidBuffer},
		{"short stride", func(r *Raw) { r.Stride = 4 }, ErrInvalidBuffer},
		{"short buffer", func(r *Raw) { r.Pix = r.Pix[:15] }, ErrInvalidBuffer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := good
			tt.mutate(&r)
			_, err := Frame(r)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestTransformHelpers(t *testing.T) {
	assert.True(t, Transform90.QuarterTurn())
	assert.True(t, TransformFlipped270.QuarterTurn())
	assert.False(t, Transform180.QuarterTurn())
	assert.True(t, TransformFlipped.Flipped())
	assert.False(t, Transform270.Flipped())
	assert.False(t, Transform(9).Valid())
	assert.Equal(t, "flipped-90", TransformFlipped90.String())
	assert.Equal(t, "0x34325241", Format(0x34325241).String())
}
