// Package pdfout assembles a searchable PDF from a source image and its OCR
// result: the image becomes the page background and the recognized text is
// overlaid as an invisible, position-accurate layer, so the text can be
// selected and searched where it appears in the image.
package pdfout

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"strings"

	"codeberg.org/go-pdf/fpdf"
	_ "golang.org/x/image/webp"

	"github.com/gardar/lensocr/pkg/hocr"
)

// AssembleWithOCR builds a single-page searchable PDF from the image bytes
// and the hOCR document describing them. The first hOCR page supplies the
// page dimensions and the text layer.
func AssembleWithOCR(doc *hocr.HOCR, imageData []byte, cfg Config) ([]byte, error) {
	if doc == nil || len(doc.Pages) == 0 {
		return nil, fmt.Errorf("hOCR document has no pages")
	}
	if len(imageData) == 0 {
		return nil, fmt.Errorf("no image data")
	}
	page := doc.Pages[0]
	w, h := page.BBox.X2, page.BBox.Y2
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("hOCR page has no dimensions")
	}

	imageData, imageType, err := embeddableImage(imageData)
	if err != nil {
		return nil, err
	}

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})

	opts := fpdf.ImageOptions{ReadDpi: false, ImageType: imageType}
	pdf.RegisterImageOptionsReader("img0", opts, bytes.NewReader(imageData))
	pdf.ImageOptions("img0", 0, 0, w, h, false, opts, 0, "")

	if err := drawOCRLayer(pdf, page, cfg); err != nil {
		return nil, fmt.Errorf("failed to draw OCR layer: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// embeddableImage returns image bytes in an encoding fpdf can embed. PNG,
// JPEG, and GIF pass through untouched; every other decodable format (WebP
// uploads in particular arrive still in their original encoding) is
// re-encoded as PNG.
func embeddableImage(data []byte) ([]byte, string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image config: %w", err)
	}
	format = strings.ToUpper(format)
	switch format {
	case "PNG", "JPEG", "JPG", "GIF":
		return data, format, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode %s image: %w", format, err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, "", fmt.Errorf("failed to re-encode %s image as PNG: %w", format, err)
	}
	return buf.Bytes(), "PNG", nil
}
