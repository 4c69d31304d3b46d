package lens

import (
	"fmt"
	"strings"

	"github.com/gardar/lensocr/pkg/hocr"
	"github.com/gardar/lensocr/pkg/layout"
)

// HOCRFromResult converts an OCR result into an hOCR document for the
// source image. Segment polygons are scaled back to pixel space and reduced
// to axis-aligned boxes; each segment becomes one ocr_line whose words get
// boxes proportional to their share of the region width.
func HOCRFromResult(res *OcrResult, imageName string) (*hocr.HOCR, error) {
	if res.Width <= 0 || res.Height <= 0 {
		return nil, fmt.Errorf("result carries no source image size")
	}

	page := hocr.Page{
		ID:         "page_1",
		PageNumber: 1,
		ImageName:  imageName,
		BBox:       hocr.NewBoundingBox(0, 0, float64(res.Width), float64(res.Height)),
		Metadata:   make(map[string]string),
	}

	docLang := ""
	for _, seg := range res.Segments {
		line := hocr.Line{
			ID:       fmt.Sprintf("line_1_%d", seg.ReadingOrder+1),
			BBox:     pixelBBox(seg.Polygon, res.Width, res.Height),
			Metadata: make(map[string]string),
		}
		if seg.Language != LanguageUnknown {
			line.Lang = seg.Language
			if docLang == "" {
				docLang = seg.Language
			}
		}
		line.Words = splitWords(seg, line.BBox, line.Lang)
		page.Lines = append(page.Lines, line)
	}
	if docLang == "" {
		docLang = LanguageUnknown
	}
	page.Lang = docLang

	return &hocr.HOCR{
		Title:    "Image OCR",
		Language: docLang,
		Metadata: map[string]string{
			"ocr-system":          "lensocr",
			"ocr-number-of-pages": "1",
			"ocr-capabilities":    "ocrp_lang ocr_page ocr_line ocrx_word",
			"ocr-langs":           docLang,
		},
		Pages: []hocr.Page{page},
	}, nil
}

// GenerateHOCR renders the result straight to hOCR HTML.
func GenerateHOCR(res *OcrResult, imageName string) (string, error) {
	doc, err := HOCRFromResult(res, imageName)
	if err != nil {
		return "", err
	}
	return hocr.GenerateHOCRDocument(doc)
}

func pixelBBox(polygon []layout.Point, width, height int) hocr.BoundingBox {
	minX, minY, maxX, maxY := layout.BBox(polygon)
	return hocr.NewBoundingBox(
		minX*float64(width), minY*float64(height),
		maxX*float64(width), maxY*float64(height),
	)
}

// splitWords divides a segment box among its whitespace-separated words,
// proportional to rune count. The service does not report word-level
// geometry on this endpoint, so this is an estimate good enough for
// search-highlight overlays.
func splitWords(seg TextSegment, box hocr.BoundingBox, lang string) []hocr.Word {
	fields := strings.Fields(seg.Text)
	if len(fields) == 0 {
		return nil
	}
	conf := 100.0
	if seg.HasConfidence {
		conf = seg.Confidence * 100
	}

	total := 0
	for _, f := range fields {
		total += len([]rune(f))
	}
	total += len(fields) - 1 // inter-word gaps

	words := make([]hocr.Word, 0, len(fields))
	width := box.X2 - box.X1
	cursor := box.X1
	for i, f := range fields {
		span := width
		if total > 0 {
			span = width * float64(len([]rune(f))) / float64(total)
		}
		words = append(words, hocr.Word{
			ID:         fmt.Sprintf("word_1_%d_%d", seg.ReadingOrder+1, i+1),
			Text:       f,
			Lang:       lang,
			BBox:       hocr.NewBoundingBox(cursor, box.Y1, cursor+span, box.Y2),
			Confidence: conf,
		})
		cursor += span
		if total > 0 {
			cursor += width / float64(total) // the gap
		}
	}
	return words
}
