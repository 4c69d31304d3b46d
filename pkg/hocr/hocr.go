// Package hocr implements parsing and generation of hOCR data, an
// HTML-based standard format for representing OCR results.
//
// The object model here is flat by design: the upstream visual-search
// service reports independent text regions rather than a full document
// hierarchy, so a document is Pages → Lines → Words with metadata at each
// level. Region polygons are reduced to their axis-aligned bounding boxes,
// which is what the hOCR bbox property expresses.
//
// Key Types:
//
// - HOCR: Top-level structure representing an entire hOCR document
// - Page: Represents a single page with class 'ocr_page'
// - Line: Represents a text region with class 'ocr_line'
// - Word: Represents a single word with class 'ocrx_word'
// - BoundingBox: Represents a rectangle for positioning elements
//
// Main Functions:
//
// - ParseHOCR: Parses hOCR data from HTML into the object model
// - GenerateHOCRDocument: Generates valid hOCR HTML from the object model
package hocr
