package hocr

import (
	"strings"
)

// ExtractHOCRText extracts all text from an HOCR document
// The text is ordered by page, with regions separated by newlines
// and pages separated by double newlines
func ExtractHOCRText(hocrDoc *HOCR) string {
	var builder strings.Builder

	for pi, page := range hocrDoc.Pages {
		if pi > 0 {
			builder.WriteString("\n\n")
		}
		for li, line := range page.Lines {
			if li > 0 {
				builder.WriteString("\n")
			}
			for wi, word := range line.Words {
				if wi > 0 {
					builder.WriteString(" ")
				}
				builder.WriteString(word.Text)
			}
		}
	}

	return builder.String()
}
