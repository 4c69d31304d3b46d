// Package lens implements the client side of the private image-upload OCR
// protocol used by a browser's built-in visual search.
//
// The package covers the full round trip for one image: encoding the image
// and session metadata into the exact multipart request shape the service
// validates, submitting it through a pluggable transport, decoding the
// service's weakly-typed positional response, and normalizing the reported
// geometry into a canonical text-segment model.
//
// The response format is undocumented and varies across service revisions,
// so the decoder is built defensively: it parses into a generic tree first
// and probes it with tolerant accessors, degrading malformed sub-nodes to
// "missing" instead of failing the decode. Malformed or partial responses
// are the normal case, not the exception.
//
// Key Types:
//
// - Client: drives one OCR round trip with bounded retry
// - Session: rotating cookie and sequence counter for one logical client
// - ImagePayload: the image bytes plus declared dimensions and mime type
// - OcrResult: text segments with canonical polygons in reading order
//
// A Client owns its Session and serializes its own requests; callers that
// need concurrent throughput should run a pool of independent clients
// rather than sharing one.
package lens

import "time"

const (
	// uploadPath is the fixed service path requests are POSTed to.
	uploadPath = "/v3/upload"

	// DefaultEndpoint is the production upload endpoint.
	DefaultEndpoint = "https://lens.google.com" + uploadPath

	// DefaultUserAgent matches the browser build the service expects to see.
	// Requests with generic client strings get served the anti-automation
	// interstitial instead of a result.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

	// DefaultTimeout bounds one transport attempt.
	DefaultTimeout = 60 * time.Second

	// antiXSSIPrefix guards the response body and must be stripped before
	// JSON parsing.
	antiXSSIPrefix = ")]}'"

	// interstitialMarker appears in anti-automation responses served with a
	// 2xx status on some revisions.
	interstitialMarker = "anti-automation"

	// maxImageDim is the longest image side the service accepts without
	// rejecting or silently cropping the upload.
	maxImageDim = 1000

	// snapshotLimit bounds the diagnostic prefix carried by shape errors.
	snapshotLimit = 512
)

// Multipart field names, in the order the service validates them.
const (
	fieldImage     = "encoded_image"
	fieldWidth     = "image_width"
	fieldHeight    = "image_height"
	fieldMime      = "image_mime_type"
	fieldSequence  = "sequence_id"
	fieldLanguage  = "language"
	headerSequence = "X-Client-Sequence"
)
