package lens

import (
	"errors"
	"testing"
)

// body wraps a JSON tree in the anti-XSSI prefix the service emits.
func body(json string) []byte {
	return []byte(")]}'\n" + json)
}

func TestDecodeFullSuccess(t *testing.T) {
	raw := body(`[null, null, null, [
		["Hello", "en", [[10,10],[110,10],[110,30],[10,30]], 0.9],
		["World", "en", [[200,12],[300,12],[300,32],[200,32]], 0.8]
	]]`)
	tree, err := DecodeResponse(raw)
	if err != nil {
		t.Fatalf("DecodeResponse() error = %v", err)
	}
	if len(tree.Segments) != 2 {
		t.Fatalf("segments = %d, want 2", len(tree.Segments))
	}
	seg := tree.Segments[0]
	if seg.Text != "Hello" || seg.Language != "en" {
		t.Fatalf("unexpected first segment: %+v", seg)
	}
	if len(seg.Points) != 4 {
		t.Fatalf("unexpected point count: %d", len(seg.Points))
	}
	if !seg.HasConfidence || seg.Confidence != 0.9 {
		t.Fatalf("unexpected confidence: %+v", seg)
	}
	if tree.Dropped != 0 {
		t.Fatalf("unexpected drops: %d", tree.Dropped)
	}
}

func TestDecodeOlderRevisionPath(t *testing.T) {
	raw := body(`[null, null, [null, null, null, [
		["Nested", "de", [[1,1],[2,1],[2,2],[1,2]]]
	]]]`)
	tree, err := DecodeResponse(raw)
	if err != nil {
		t.Fatalf("DecodeResponse() error = %v", err)
	}
	if len(tree.Segments) != 1 || tree.Segments[0].Text != "Nested" {
		t.Fatalf("older revision path not found: %+v", tree.Segments)
	}
	if tree.Segments[0].Language != "de" {
		t.Fatalf("language = %q, want de", tree.Segments[0].Language)
	}
}

func TestDecodeMissingConfidenceIsNotFailure(t *testing.T) {
	raw := body(`[null, null, null, [["Hi", "en", [[0,0],[1,0],[1,1],[0,1]]]]]`)
	tree, err := DecodeResponse(raw)
	if err != nil {
		t.Fatalf("DecodeResponse() error = %v", err)
	}
	if len(tree.Segments) != 1 {
		t.Fatalf("segments = %d, want 1", len(tree.Segments))
	}
	if tree.Segments[0].HasConfidence {
		t.Fatalf("confidence must be absent, not defaulted")
	}
	if tree.Dropped != 0 {
		t.Fatalf("an omitted optional field is not a loss: dropped = %d", tree.Dropped)
	}
}

func TestDecodeEmptyButValid(t *testing.T) {
	for name, raw := range map[string][]byte{
		"empty text root": body(`[null, null, null, []]`),
		"no text root":    body(`[null, [], []]`),
		"short root":      body(`[]`),
	} {
		tree, err := DecodeResponse(raw)
		if err != nil {
			t.Fatalf("%s: DecodeResponse() error = %v, want empty success", name, err)
		}
		if len(tree.Segments) != 0 {
			t.Fatalf("%s: expected no segments", name)
		}
	}
}

func TestDecodeUnrecognizedShape(t *testing.T) {
	for name, raw := range map[string][]byte{
		"not json":    []byte("<!DOCTYPE html><html>interstitial</html>"),
		"object root": body(`{"error": "nope"}`),
		"scalar root": body(`42`),
		"scalar text root": body(`[0, 0, 0, "surprise"]`),
	} {
		_, err := DecodeResponse(raw)
		var shapeErr *UnrecognizedShapeError
		if !errors.As(err, &shapeErr) {
			t.Fatalf("%s: error = %v, want *UnrecognizedShapeError", name, err)
		}
		if shapeErr.Snapshot == "" {
			t.Fatalf("%s: shape error must carry a diagnostic snapshot", name)
		}
	}
}

func TestDecodeSnapshotIsBounded(t *testing.T) {
	big := make([]byte, 4096)
	for i := range big {
		big[i] = 'x'
	}
	_, err := DecodeResponse(big)
	var shapeErr *UnrecognizedShapeError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("error = %v", err)
	}
	if len(shapeErr.Snapshot) > snapshotLimit+3 {
		t.Fatalf("snapshot too large: %d bytes", len(shapeErr.Snapshot))
	}
}

func TestDecodeInterleavedMetadataSkipped(t *testing.T) {
	raw := body(`[null, null, null, [
		["One", "en", [[0,0],[5,0],[5,2],[0,2]]],
		"revision-tag",
		1234,
		["Two", "en", [[0,3],[5,3],[5,5],[0,5]]]
	]]`)
	tree, err := DecodeResponse(raw)
	if err != nil {
		t.Fatalf("DecodeResponse() error = %v", err)
	}
	if len(tree.Segments) != 2 {
		t.Fatalf("segments = %d, want 2", len(tree.Segments))
	}
	if tree.Dropped != 0 {
		t.Fatalf("interleaved metadata is not a loss: dropped = %d", tree.Dropped)
	}
}

func TestDecodeCoercesNumericText(t *testing.T) {
	raw := body(`[null, null, null, [[1234, "en", [[0,0],[5,0],[5,2],[0,2]]]]]`)
	tree, err := DecodeResponse(raw)
	if err != nil {
		t.Fatalf("DecodeResponse() error = %v", err)
	}
	if len(tree.Segments) != 1 || tree.Segments[0].Text != "1234" {
		t.Fatalf("numeric text cell not coerced: %+v", tree.Segments)
	}
	if tree.Dropped != 1 {
		t.Fatalf("coercion must be recorded, dropped = %d", tree.Dropped)
	}
}

func TestDecodeDropsTextlessNode(t *testing.T) {
	raw := body(`[null, null, null, [
		[null, "en", [[0,0],[5,0],[5,2],[0,2]]],
		["Kept", "en", [[0,3],[5,3],[5,5],[0,5]]]
	]]`)
	tree, err := DecodeResponse(raw)
	if err != nil {
		t.Fatalf("DecodeResponse() error = %v", err)
	}
	if len(tree.Segments) != 1 || tree.Segments[0].Text != "Kept" {
		t.Fatalf("unexpected segments: %+v", tree.Segments)
	}
	if tree.Dropped != 1 {
		t.Fatalf("dropped = %d, want 1", tree.Dropped)
	}
}

func TestDecodeGeometryVariants(t *testing.T) {
	raw := body(`[null, null, null, [
		["center", "en", [50, 20, 40, 10]],
		["flat", "en", [10, 10, 110, 10, 110, 30, 10, 30]],
		["pairs", "en", [[1,1],[2,1],[2,2],[1,2]]],
		["scaled", "en", [[100,100],[300,100],[300,200],[100,200],["scale",1000]]]
	]]`)
	tree, err := DecodeResponse(raw)
	if err != nil {
		t.Fatalf("DecodeResponse() error = %v", err)
	}
	if len(tree.Segments) != 4 {
		t.Fatalf("segments = %d, want 4", len(tree.Segments))
	}

	center := tree.Segments[0]
	if len(center.Points) != 4 || center.Points[0].X != 30 || center.Points[0].Y != 15 {
		t.Fatalf("center box not expanded: %+v", center.Points)
	}
	if len(tree.Segments[1].Points) != 4 {
		t.Fatalf("flat polygon not decoded: %+v", tree.Segments[1].Points)
	}
	if len(tree.Segments[2].Points) != 4 {
		t.Fatalf("pair polygon not decoded: %+v", tree.Segments[2].Points)
	}
	scaled := tree.Segments[3]
	if scaled.Scale != 1000 {
		t.Fatalf("declared scale = %v, want 1000", scaled.Scale)
	}
	if len(scaled.Points) != 4 {
		t.Fatalf("scaled polygon point count = %d", len(scaled.Points))
	}
}

func TestDecodeSubQuadGeometryDropped(t *testing.T) {
	raw := body(`[null, null, null, [
		["Tri", "en", [[10,10],[110,10],[110,30]]],
		["FlatTri", "en", [10, 10, 110, 10, 110, 30]]
	]]`)
	tree, err := DecodeResponse(raw)
	if err != nil {
		t.Fatalf("DecodeResponse() error = %v", err)
	}
	for _, seg := range tree.Segments {
		if seg.Points != nil {
			t.Fatalf("segment %q kept a sub-quad polygon: %+v", seg.Text, seg.Points)
		}
	}
	if tree.Dropped != 2 {
		t.Fatalf("dropped = %d, want 2", tree.Dropped)
	}

	res := Normalize(tree, 200, 100)
	for _, seg := range res.Segments {
		if len(seg.Polygon) < 4 {
			t.Fatalf("emitted polygon has %d points", len(seg.Polygon))
		}
	}
}

func TestDecodeMalformedGeometryDegrades(t *testing.T) {
	raw := body(`[null, null, null, [["NoGeom", "en", "not-an-array"]]]`)
	tree, err := DecodeResponse(raw)
	if err != nil {
		t.Fatalf("DecodeResponse() error = %v", err)
	}
	if len(tree.Segments) != 1 {
		t.Fatalf("segment with bad geometry must survive decode")
	}
	if tree.Segments[0].Points != nil {
		t.Fatalf("expected no points, got %+v", tree.Segments[0].Points)
	}
	if tree.Dropped != 1 {
		t.Fatalf("geometry loss must be recorded, dropped = %d", tree.Dropped)
	}
}

func TestDecodeUnknownLanguage(t *testing.T) {
	raw := body(`[null, null, null, [
		["A", "!!", [[0,0],[1,0],[1,1],[0,1]]],
		["B", null, [[0,2],[1,2],[1,3],[0,3]]]
	]]`)
	tree, err := DecodeResponse(raw)
	if err != nil {
		t.Fatalf("DecodeResponse() error = %v", err)
	}
	for _, seg := range tree.Segments {
		if seg.Language != LanguageUnknown {
			t.Fatalf("segment %q language = %q, want unknown", seg.Text, seg.Language)
		}
	}
}

func TestDecodeOutOfRangeConfidenceDropped(t *testing.T) {
	raw := body(`[null, null, null, [["Hi", "en", [[0,0],[1,0],[1,1],[0,1]], 42]]]`)
	tree, err := DecodeResponse(raw)
	if err != nil {
		t.Fatalf("DecodeResponse() error = %v", err)
	}
	if tree.Segments[0].HasConfidence {
		t.Fatalf("out-of-range confidence must be dropped")
	}
	if tree.Dropped != 1 {
		t.Fatalf("dropped = %d, want 1", tree.Dropped)
	}
}
