package lens

import (
	"strings"
	"testing"

	"github.com/gardar/lensocr/pkg/layout"
)

func sampleResult() *OcrResult {
	return &OcrResult{
		FullText: "Hello World",
		Width:    400,
		Height:   300,
		Segments: []TextSegment{
			{
				Text:         "Hello World",
				Language:     "en",
				ReadingOrder: 0,
				Polygon: []layout.Point{
					{X: 0.1, Y: 0.1}, {X: 0.5, Y: 0.1}, {X: 0.5, Y: 0.2}, {X: 0.1, Y: 0.2},
				},
				Confidence:    0.9,
				HasConfidence: true,
			},
		},
	}
}

func TestHOCRFromResult(t *testing.T) {
	doc, err := HOCRFromResult(sampleResult(), "photo.png")
	if err != nil {
		t.Fatalf("HOCRFromResult() error = %v", err)
	}
	if len(doc.Pages) != 1 {
		t.Fatalf("pages = %d, want 1", len(doc.Pages))
	}
	page := doc.Pages[0]
	if page.ImageName != "photo.png" {
		t.Fatalf("image name = %q", page.ImageName)
	}
	if page.BBox.X2 != 400 || page.BBox.Y2 != 300 {
		t.Fatalf("page box = %+v, want source pixel size", page.BBox)
	}
	if len(page.Lines) != 1 {
		t.Fatalf("lines = %d, want 1", len(page.Lines))
	}
	line := page.Lines[0]
	if line.ID != "line_1_1" || line.Lang != "en" {
		t.Fatalf("unexpected line: %+v", line)
	}
	// 0.1..0.5 of a 400px wide image.
	if line.BBox.X1 != 40 || line.BBox.X2 != 200 {
		t.Fatalf("line box not in pixel space: %+v", line.BBox)
	}
	if len(line.Words) != 2 {
		t.Fatalf("words = %d, want 2", len(line.Words))
	}
	if line.Words[0].Text != "Hello" || line.Words[1].Text != "World" {
		t.Fatalf("unexpected words: %+v", line.Words)
	}
	if line.Words[0].Confidence != 90 {
		t.Fatalf("word confidence = %v, want 90", line.Words[0].Confidence)
	}
	if line.Words[1].BBox.X1 <= line.Words[0].BBox.X2-1e-9 {
		t.Fatalf("word boxes overlap: %+v then %+v", line.Words[0].BBox, line.Words[1].BBox)
	}
}

func TestGenerateHOCRRendersDocument(t *testing.T) {
	html, err := GenerateHOCR(sampleResult(), "photo.png")
	if err != nil {
		t.Fatalf("GenerateHOCR() error = %v", err)
	}
	for _, marker := range []string{"ocr_page", "ocr_line", "ocrx_word", "Hello", "World", "x_wconf"} {
		if !strings.Contains(html, marker) {
			t.Fatalf("rendered hOCR missing %q", marker)
		}
	}
}

func TestHOCRFromResultRequiresDimensions(t *testing.T) {
	res := sampleResult()
	res.Width = 0
	if _, err := HOCRFromResult(res, "x.png"); err == nil {
		t.Fatalf("expected error for missing source size")
	}
}
