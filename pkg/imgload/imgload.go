// Package imgload materializes image files into upload payloads for the
// OCR client. It decodes PNG, JPEG, and WebP, and downscales images whose
// longest side exceeds the service limit, re-encoding them as PNG so the
// declared dimensions always match the encoded bytes.
package imgload

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"os"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/gardar/lensocr/pkg/lens"
)

// MaxDimension is the longest image side the service accepts. Larger
// images are downscaled preserving aspect ratio.
const MaxDimension = 1000

// FromFile reads and decodes an image file into an upload payload.
func FromFile(path string) (lens.ImagePayload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return lens.ImagePayload{}, fmt.Errorf("reading image file: %w", err)
	}
	payload, err := FromBytes(data)
	if err != nil {
		return lens.ImagePayload{}, fmt.Errorf("loading %s: %w", path, err)
	}
	return payload, nil
}

// FromBytes decodes encoded image bytes into an upload payload. Images
// already within the size limit are passed through unmodified in their
// original encoding; oversized ones are downscaled and re-encoded as PNG.
func FromBytes(data []byte) (lens.ImagePayload, error) {
	img, mime, err := decode(data)
	if err != nil {
		return lens.ImagePayload{}, err
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return lens.ImagePayload{}, fmt.Errorf("image has empty bounds")
	}

	if w <= MaxDimension && h <= MaxDimension {
		return lens.ImagePayload{Bytes: data, Width: w, Height: h, Mime: mime}, nil
	}

	scaled, sw, sh := downscale(img, w, h)
	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return lens.ImagePayload{}, fmt.Errorf("re-encoding downscaled image: %w", err)
	}
	return lens.ImagePayload{Bytes: buf.Bytes(), Width: sw, Height: sh, Mime: lens.MimePNG}, nil
}

func decode(data []byte) (image.Image, lens.Mime, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decoding image: %w", err)
	}
	switch format {
	case "png":
		return img, lens.MimePNG, nil
	case "jpeg":
		return img, lens.MimeJPEG, nil
	case "webp":
		return img, lens.MimeWebP, nil
	}
	return nil, "", fmt.Errorf("unsupported image format %q (want png, jpeg, or webp)", format)
}

// downscale resizes so the longest side equals MaxDimension, using
// Catmull-Rom resampling to keep small glyphs legible.
func downscale(img image.Image, w, h int) (image.Image, int, int) {
	scale := float64(MaxDimension) / float64(w)
	if h > w {
		scale = float64(MaxDimension) / float64(h)
	}
	sw := int(float64(w) * scale)
	sh := int(float64(h) * scale)
	if sw < 1 {
		sw = 1
	}
	if sh < 1 {
		sh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, sw, sh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst, sw, sh
}
