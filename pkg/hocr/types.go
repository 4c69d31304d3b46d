package hocr

// HOCR represents the entire hOCR document structure
type HOCR struct {
	Title    string            // Document title
	Language string            // Document language
	Metadata map[string]string // Additional metadata
	Pages    []Page            // Pages in the document
}

// Page is one page of recognized text
// Corresponds to hOCR element with class: 'ocr_page'
type Page struct {
	ID         string            // Unique identifier
	Title      string            // Original title attribute
	PageNumber int               // Page number in document
	ImageName  string            // Source image filename
	Lang       string            // Language code for this page
	BBox       BoundingBox       // Page coordinates
	Lines      []Line            // Text regions on this page
	Metadata   map[string]string // Other page properties
}

// Class assign 'ocr_page' to 'Page' struct
func (Page) Class() string { return "ocr_page" }

// Line represents one detected text region
// Corresponds to hOCR element with class: 'ocr_line'
type Line struct {
	ID       string            // Unique identifier
	Lang     string            // Language code
	BBox     BoundingBox       // Region coordinates
	Words    []Word            // Words in this region
	Metadata map[string]string // Other region properties
}

// Class assign 'ocr_line' to 'Line' struct
func (Line) Class() string { return "ocr_line" }

// Word is a recognized word with bounding box
// Corresponds to hOCR element with class: 'ocrx_word'
type Word struct {
	ID         string      // Unique identifier
	Text       string      // The actual text content
	BBox       BoundingBox // Word coordinates
	Confidence float64     // Recognition confidence (0-100)
	Lang       string      // Language code
}

// Class assign 'ocrx_word' to 'Word' struct
func (Word) Class() string { return "ocrx_word" }

// BoundingBox represents a rectangle in the document
// Used to store hOCR 'bbox' property values
type BoundingBox struct {
	X1 float64 // Left coordinate
	Y1 float64 // Top coordinate
	X2 float64 // Right coordinate
	Y2 float64 // Bottom coordinate
}

// NewBoundingBox creates a bounding box from the x1, y1, x2, y2 coordinates
// commonly found in hOCR 'bbox' properties. x1, y1 is the top-left corner,
// x2, y2 the bottom-right corner.
func NewBoundingBox(x1, y1, x2, y2 float64) BoundingBox {
	return BoundingBox{
		X1: x1,
		Y1: y1,
		X2: x2,
		Y2: y2,
	}
}
