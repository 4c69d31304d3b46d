package lens

import (
	"github.com/gardar/lensocr/pkg/layout"
)

// Mime identifies the encoding of an uploaded image.
type Mime string

const (
	MimePNG  Mime = "image/png"
	MimeJPEG Mime = "image/jpeg"
	MimeWebP Mime = "image/webp"
)

// Ext returns the file extension the upload filename uses for this mime.
func (m Mime) Ext() string {
	switch m {
	case MimePNG:
		return "png"
	case MimeJPEG:
		return "jpg"
	case MimeWebP:
		return "webp"
	}
	return "bin"
}

// valid reports whether the mime is one the service accepts.
func (m Mime) valid() bool {
	switch m {
	case MimePNG, MimeJPEG, MimeWebP:
		return true
	}
	return false
}

// ImagePayload is an already-materialized image ready for upload. The
// declared Width and Height must match the encoded bytes: the service uses
// the declared dimensions to map returned geometry back to pixel space, so
// a mismatch corrupts every polygon downstream.
type ImagePayload struct {
	Bytes  []byte
	Width  int
	Height int
	Mime   Mime
}

// LanguageUnknown is reported when the service omitted the language or the
// reported tag could not be resolved to an ISO-639 code.
const LanguageUnknown = "unknown"

// TextSegment is one detected text region.
type TextSegment struct {
	// Text is the recognized text of the region.
	Text string
	// Language is the ISO-639-1 code the service detected, or "unknown".
	Language string
	// Polygon bounds the region in normalized [0,1]x[0,1] coordinates,
	// ordered clockwise starting from the top-left-most point.
	Polygon []layout.Point
	// ReadingOrder is the segment's position in natural reading order,
	// unique within one result.
	ReadingOrder int
	// Confidence is the service-reported recognition confidence in [0,1].
	// Only meaningful when HasConfidence is set; some revisions omit it.
	Confidence    float64
	HasConfidence bool
}

// OcrResult is the outcome of one successful round trip.
type OcrResult struct {
	// FullText joins the segment texts in reading order, with line breaks
	// between vertical bands.
	FullText string
	// Segments are ordered by ReadingOrder.
	Segments []TextSegment
	// Width and Height echo the source image dimensions the geometry was
	// normalized against.
	Width  int
	Height int
	// DroppedNodes counts malformed response sub-nodes the decoder
	// recovered from by dropping. Useful for caller-side logging; a
	// non-zero count does not make the result less valid.
	DroppedNodes int
	// Attempts is how many round trips were made to obtain the result,
	// first try included. Mirrors ProtocolError.Attempts on the failure
	// side.
	Attempts int
}
