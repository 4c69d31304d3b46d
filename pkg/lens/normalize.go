package lens

import (
	"strings"

	"github.com/gardar/lensocr/pkg/layout"
)

// Normalize converts a decoded tree into the final segment sequence for an
// image of the given source size.
//
// Each raw polygon is mapped into [0,1]x[0,1] space (honoring a declared
// scale when the decoder found one, else inferring the convention from
// coordinate magnitude), re-wound clockwise from its top-left-most point,
// and assigned a reading-order index by vertical band and horizontal
// position. Degenerate segments (empty text, no usable polygon, zero area)
// are dropped rather than emitted.
func Normalize(tree *DecodedTree, width, height int) *OcrResult {
	result := &OcrResult{
		Width:        width,
		Height:       height,
		DroppedNodes: tree.Dropped,
	}

	type candidate struct {
		seg    TextSegment
		extent layout.Extent
	}
	var candidates []candidate
	for _, raw := range tree.Segments {
		if strings.TrimSpace(raw.Text) == "" {
			continue
		}
		pts := layout.InferScale(raw.Points, raw.Scale, width, height)
		pts = layout.Canonicalize(pts)
		if len(pts) < 4 || layout.Area(pts) == 0 {
			continue
		}
		candidates = append(candidates, candidate{
			seg: TextSegment{
				Text:          raw.Text,
				Language:      raw.Language,
				Polygon:       pts,
				Confidence:    raw.Confidence,
				HasConfidence: raw.HasConfidence,
			},
			extent: layout.ExtentOf(pts),
		})
	}

	extents := make([]layout.Extent, len(candidates))
	for i, c := range candidates {
		extents[i] = c.extent
	}

	var text strings.Builder
	for rank, i := range layout.ReadingOrder(extents) {
		seg := candidates[i].seg
		seg.ReadingOrder = rank
		if rank > 0 {
			prev := result.Segments[rank-1]
			if layout.SameBand(layout.ExtentOf(prev.Polygon), candidates[i].extent) {
				text.WriteByte(' ')
			} else {
				text.WriteByte('\n')
			}
		}
		text.WriteString(seg.Text)
		result.Segments = append(result.Segments, seg)
	}
	result.FullText = text.String()
	return result
}
