package lens

import (
	"bytes"
	"strings"

	"golang.org/x/text/language"

	"github.com/gardar/lensocr/pkg/jsontree"
	"github.com/gardar/lensocr/pkg/layout"
)

// DecodedSegment is one text-bearing node pulled from the raw tree, before
// geometry normalization. Points carry whatever coordinate convention the
// service revision used; Scale is the declared scale factor when the node
// carried one, else zero.
type DecodedSegment struct {
	Text          string
	Language      string
	Points        []layout.Point
	Scale         float64
	Confidence    float64
	HasConfidence bool
}

// DecodedTree is the validated internal form of one response body.
// A well-formed response with no detected text yields an empty Segments
// slice; that is a valid result, not an error.
type DecodedTree struct {
	Segments []DecodedSegment
	// Dropped counts sub-nodes that were malformed and recovered from by
	// dropping or coercing. Surfaced on the OcrResult for logging.
	Dropped int
}

// Index paths at which known service revisions place the text root,
// probed in order. Newer revisions hoist it to the top level; older ones
// nest it under a metadata wrapper.
var textRootPaths = [][]int{
	{3},
	{2, 3},
}

// DecodeResponse parses a raw response body into a DecodedTree.
//
// The body is parsed into a generic tree first and then probed at known
// index paths. Every per-field extraction tolerates a short path, a wrong
// kind, or an absent node and degrades to "field missing"; only the loss of
// the primary text payload fails the decode, as *UnrecognizedShapeError.
// Sibling order inside the text root is preserved as-is here: reading order
// is reconstructed during normalization, not assumed from array position.
func DecodeResponse(raw []byte) (*DecodedTree, error) {
	body := bytes.TrimPrefix(raw, []byte(antiXSSIPrefix))
	body = bytes.TrimLeft(body, "\r\n")

	root, err := jsontree.Parse(body)
	if err != nil {
		return nil, &UnrecognizedShapeError{
			Reason:   "body is not valid json",
			Snapshot: bounded(string(raw)),
		}
	}
	if root.Kind() != jsontree.Array {
		return nil, &UnrecognizedShapeError{
			Reason:   "root is " + root.Kind().String() + ", want array",
			Snapshot: root.Snapshot(snapshotLimit),
		}
	}

	tree := &DecodedTree{}
	textRoot, found, err := locateTextRoot(root)
	if err != nil {
		return nil, err
	}
	if !found {
		// Well-formed tree with no text root: the service found no text.
		return tree, nil
	}

	for i := 0; i < textRoot.Len(); i++ {
		node := textRoot.Index(i)
		seg, ok := decodeSegment(node, &tree.Dropped)
		if !ok {
			continue
		}
		tree.Segments = append(tree.Segments, seg)
	}
	return tree, nil
}

// locateTextRoot probes the known index paths. A candidate qualifies when
// it is an array whose elements are themselves arrays (segment nodes);
// arrays of scalars are revision metadata and are skipped. A candidate of
// scalar kind where a text root is expected marks the whole tree as an
// unknown revision.
func locateTextRoot(root jsontree.Value) (jsontree.Value, bool, error) {
	sawScalar := false
	for _, path := range textRootPaths {
		node := root.At(path...)
		switch node.Kind() {
		case jsontree.Missing, jsontree.Null:
			continue
		case jsontree.Array:
			if isSegmentList(node) {
				return node, true, nil
			}
		default:
			sawScalar = true
		}
	}
	if sawScalar {
		return jsontree.Value{}, false, &UnrecognizedShapeError{
			Reason:   "text root has scalar kind",
			Snapshot: root.Snapshot(snapshotLimit),
		}
	}
	return jsontree.Value{}, false, nil
}

// isSegmentList reports whether an array looks like a list of segment
// nodes. Empty lists qualify ("no text found"); interleaved non-array
// metadata entries are allowed as long as at least one element is a
// segment-shaped array.
func isSegmentList(node jsontree.Value) bool {
	if node.Len() == 0 {
		return true
	}
	for i := 0; i < node.Len(); i++ {
		if node.Index(i).Kind() == jsontree.Array {
			return true
		}
	}
	return false
}

// decodeSegment extracts one segment from a raw node. Returns ok=false and
// bumps the drop counter when the node is not a segment or its text cell is
// unrecoverable; every lesser defect degrades to a missing field.
func decodeSegment(node jsontree.Value, dropped *int) (DecodedSegment, bool) {
	if node.Kind() != jsontree.Array {
		// Interleaved revision metadata between text nodes; not a loss.
		return DecodedSegment{}, false
	}

	text, ok := node.Index(0).CoerceStr()
	if !ok || text == "" {
		*dropped++
		return DecodedSegment{}, false
	}
	if node.Index(0).Kind() != jsontree.String {
		// Numeric text cell was coerced; record the partial failure.
		*dropped++
	}

	seg := DecodedSegment{
		Text:     text,
		Language: canonicalLanguage(node.Index(1)),
	}

	seg.Points, seg.Scale = decodeGeometry(node.Index(2), dropped)

	if conf, ok := node.Index(3).Num(); ok {
		if conf >= 0 && conf <= 1 {
			seg.Confidence = conf
			seg.HasConfidence = true
		} else {
			*dropped++
		}
	}
	return seg, true
}

// canonicalLanguage resolves the service-reported language cell to an
// ISO-639 base code, or LanguageUnknown.
func canonicalLanguage(node jsontree.Value) string {
	raw, ok := node.Str()
	if !ok || raw == "" {
		return LanguageUnknown
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return LanguageUnknown
	}
	base, conf := tag.Base()
	if conf == language.No {
		return LanguageUnknown
	}
	return base.String()
}

// decodeGeometry handles the geometry cell variants: a 4-number center box,
// a flat even-length vertex list, or a list of [x,y] pairs. A trailing
// ["scale", n] element declares the coordinate scale on newer revisions.
// Emitted polygons always have at least four vertices; sub-quad geometry is
// unusable and degrades to no geometry, like every other malformed cell, and
// the normalizer drops geometry-less segments later.
func decodeGeometry(node jsontree.Value, dropped *int) ([]layout.Point, float64) {
	if node.Kind() != jsontree.Array {
		if node.Exists() && node.Kind() != jsontree.Null {
			*dropped++
		}
		return nil, 0
	}

	scale := 0.0
	last := node.Index(node.Len() - 1)
	elems := node.Len()
	if tag, ok := last.Index(0).Str(); ok && tag == "scale" {
		if s, ok := last.Index(1).CoerceNum(); ok && s > 0 {
			scale = s
		}
		elems--
	}

	// Flat numeric form.
	if elems > 0 && node.Index(0).Kind() == jsontree.Number {
		nums := make([]float64, 0, elems)
		for i := 0; i < elems; i++ {
			if f, ok := node.Index(i).Num(); ok {
				nums = append(nums, f)
			} else {
				*dropped++
			}
		}
		switch {
		case len(nums) == 4:
			return layout.PolygonFromCenterBox(nums[0], nums[1], nums[2], nums[3]), scale
		case len(nums) >= 8 && len(nums)%2 == 0:
			return layout.PolygonFromFlat(nums), scale
		}
		*dropped++
		return nil, scale
	}

	// Vertex-pair form.
	pts := make([]layout.Point, 0, elems)
	for i := 0; i < elems; i++ {
		pair := node.Index(i)
		x, okX := pair.Index(0).Num()
		y, okY := pair.Index(1).Num()
		if !okX || !okY {
			*dropped++
			continue
		}
		pts = append(pts, layout.Point{X: x, Y: y})
	}
	if len(pts) < 4 {
		if len(pts) > 0 {
			*dropped++
		}
		return nil, scale
	}
	return pts, scale
}

// rateLimited reports whether a 2xx body is actually the anti-automation
// interstitial rather than a result.
func rateLimited(body []byte) bool {
	return strings.Contains(string(body), interstitialMarker)
}

func bounded(s string) string {
	if len(s) > snapshotLimit {
		return s[:snapshotLimit] + "..."
	}
	return s
}
