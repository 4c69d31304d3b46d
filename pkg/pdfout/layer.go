package pdfout

import (
	"fmt"

	"codeberg.org/go-pdf/fpdf"
	"golang.org/x/text/encoding/charmap"

	"github.com/gardar/lensocr/pkg/hocr"
)

// drawOCRLayer draws the OCR text onto a layer over the page image.
func drawOCRLayer(pdf *fpdf.Fpdf, page hocr.Page, cfg Config) error {
	layer := pdf.AddLayer(cfg.LayerName, true)
	pdf.BeginLayer(layer)
	pdf.SetFont(cfg.Font.Name, cfg.Font.Style, cfg.Font.Size)

	if cfg.Debug {
		pdf.SetTextColor(255, 0, 0) // highlight text in red
	} else {
		pdf.SetAlpha(0.0, "Normal") // hide text from normal view
	}

	encodingErrors := 0
	wordCount := 0
	for _, line := range page.Lines {
		for _, word := range line.Words {
			drawWord(pdf, word, cfg, &encodingErrors)
			wordCount++
		}
	}

	pdf.EndLayer()

	// Report encoding errors if more than a threshold
	if wordCount > 0 && encodingErrors > wordCount/10 {
		return fmt.Errorf("character encoding issues in %d of %d words",
			encodingErrors, wordCount)
	}
	return nil
}

// drawWord renders a single word onto the PDF layer, scaled to the width of
// its bounding box.
func drawWord(pdf *fpdf.Fpdf, word hocr.Word, cfg Config, encodingErrors *int) {
	x := word.BBox.X1
	y := word.BBox.Y1
	wordWidth := word.BBox.X2 - word.BBox.X1

	// Convert text to ISO-8859-1 to avoid PDF encoding issues
	latin1, err := charmap.ISO8859_1.NewEncoder().String(word.Text)
	if err != nil {
		// Track encoding errors but continue
		*encodingErrors++
		latin1 = word.Text // fallback to raw text
	}

	strWidth := pdf.GetStringWidth(latin1)
	if strWidth > 0 && wordWidth > 0 {
		scale := wordWidth / strWidth
		pdf.SetFontSize(cfg.Font.Size * scale)
	}

	fontSize, _ := pdf.GetFontSize()
	y += fontSize * cfg.Font.AscentRatio

	pdf.Text(x, y, latin1)
	pdf.SetFontSize(cfg.Font.Size)

	if cfg.Debug {
		height := word.BBox.Y2 - word.BBox.Y1
		pdf.Rect(x, y-(fontSize*cfg.Font.AscentRatio), wordWidth, height, "D")
	}
}
