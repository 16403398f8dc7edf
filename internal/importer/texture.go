package importer

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/h2non/filetype"
	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ErrUnsupportedImage is returned for payloads that are not a known image format.
var ErrUnsupportedImage = errors.New("unsupported image format")

// DecodeTexture decodes an encoded image to RGBA, downscaling it so neither
// edge exceeds maxSize. maxSize <= 0 disables downscaling.
func DecodeTexture(data []byte, maxSize int) (*image.RGBA, error) {
	if !filetype.IsImage(data) {
		kind, _ := filetype.Match(data)
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedImage, kind.MIME.Value)
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding %s image: %w", format, err)
	}

	b := src.Bounds()
	w, h := fitSize(b.Dx(), b.Dy(), maxSize)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	}
	return dst, nil
}

// fitSize scales w×h down to fit within maxSize, keeping the aspect ratio.
func fitSize(w, h, maxSize int) (int, int) {
	if maxSize <= 0 || (w <= maxSize && h <= maxSize) {
		return w, h
	}
	if w >= h {
		nh := h * maxSize / w
		if nh < 1 {
			nh = 1
		}
		return maxSize, nh
	}
	nw := w * maxSize / h
	if nw < 1 {
		nw = 1
	}
	return nw, maxSize
}
