// Package layout converts the raw geometry reported by the OCR service into
// a canonical, image-size-independent model and reconstructs natural reading
// order for the detected text regions.
//
// The service reports region geometry in one of several conventions
// depending on its revision: a center box (cx, cy, w, h), a flat list of
// polygon vertices, or vertex pairs; coordinates may be absolute pixels, a
// fixed virtual canvas, or already normalized. This package canonicalizes
// all of them to clockwise polygons in [0,1]x[0,1] space, starting from the
// top-left-most vertex.
package layout

import (
	"math"
	"sort"
)

// Point is a 2D coordinate. Canonical polygons hold points in normalized
// [0,1]x[0,1] space with the origin at the top-left of the image.
type Point struct {
	X float64
	Y float64
}

// bandOverlapThreshold is the fraction of the smaller segment height that
// two vertical extents must share to be considered part of the same line.
const bandOverlapThreshold = 0.5

// PolygonFromCenterBox expands a (cx, cy, w, h) center box into its four
// corner points.
func PolygonFromCenterBox(cx, cy, w, h float64) []Point {
	hw, hh := w/2, h/2
	return []Point{
		{cx - hw, cy - hh},
		{cx + hw, cy - hh},
		{cx + hw, cy + hh},
		{cx - hw, cy + hh},
	}
}

// PolygonFromFlat turns a flat [x0 y0 x1 y1 ...] list into points. A
// trailing unpaired coordinate is dropped. Returns nil when fewer than
// four full points are present.
func PolygonFromFlat(nums []float64) []Point {
	n := len(nums) / 2
	if n < 4 {
		return nil
	}
	pts := make([]Point, n)
	for i := 0; i < n; i++ {
		pts[i] = Point{nums[2*i], nums[2*i+1]}
	}
	return pts
}

// InferScale maps a polygon into normalized space. A positive declared
// scale (as reported by newer service revisions) takes precedence; without
// one the convention is inferred from coordinate magnitude: values already
// within [0,1] (with slack for slight overshoot) are taken as normalized,
// anything larger is treated as pixels of the declared source size.
//
// The magnitude heuristic is the best available without live traffic from
// every revision; keep replacements confined to this function.
func InferScale(pts []Point, declared float64, width, height int) []Point {
	if len(pts) == 0 || width <= 0 || height <= 0 {
		return nil
	}
	sx, sy := 1.0, 1.0
	switch {
	case declared > 0:
		sx, sy = declared, declared
	default:
		maxMag := 0.0
		for _, p := range pts {
			maxMag = math.Max(maxMag, math.Max(math.Abs(p.X), math.Abs(p.Y)))
		}
		if maxMag > 1.5 {
			sx, sy = float64(width), float64(height)
		}
	}
	out := make([]Point, len(pts))
	for i, p := range pts {
		out[i] = Point{p.X / sx, p.Y / sy}
	}
	return out
}

// Canonicalize reorders polygon points clockwise starting from the
// top-left-most point (minimum x+y), regardless of the order the service
// emitted them. The input is not modified.
func Canonicalize(pts []Point) []Point {
	if len(pts) < 3 {
		return nil
	}
	out := make([]Point, len(pts))
	copy(out, pts)

	var cx, cy float64
	for _, p := range out {
		cx += p.X
		cy += p.Y
	}
	cx /= float64(len(out))
	cy /= float64(len(out))

	// Clockwise in image coordinates (y grows downward) is increasing
	// atan2 angle around the centroid.
	sort.SliceStable(out, func(i, j int) bool {
		ai := math.Atan2(out[i].Y-cy, out[i].X-cx)
		aj := math.Atan2(out[j].Y-cy, out[j].X-cx)
		return ai < aj
	})

	start := 0
	best := out[0].X + out[0].Y
	for i, p := range out {
		if s := p.X + p.Y; s < best {
			best = s
			start = i
		}
	}
	rotated := make([]Point, 0, len(out))
	rotated = append(rotated, out[start:]...)
	rotated = append(rotated, out[:start]...)
	return rotated
}

// Area returns the unsigned polygon area (shoelace formula). Degenerate
// polygons report zero.
func Area(pts []Point) float64 {
	if len(pts) < 3 {
		return 0
	}
	sum := 0.0
	for i := range pts {
		j := (i + 1) % len(pts)
		sum += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return math.Abs(sum) / 2
}

// BBox returns the axis-aligned bounds of a polygon.
func BBox(pts []Point) (minX, minY, maxX, maxY float64) {
	if len(pts) == 0 {
		return 0, 0, 0, 0
	}
	minX, minY = pts[0].X, pts[0].Y
	maxX, maxY = minX, minY
	for _, p := range pts[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return minX, minY, maxX, maxY
}

// Extent is the positional summary of one segment used for reading order.
type Extent struct {
	Top    float64
	Bottom float64
	Left   float64
}

// ExtentOf summarizes a polygon for reading-order assignment.
func ExtentOf(pts []Point) Extent {
	minX, minY, _, maxY := BBox(pts)
	return Extent{Top: minY, Bottom: maxY, Left: minX}
}

// ReadingOrder returns a permutation of indices into extents that
// approximates natural top-to-bottom, left-to-right reading order. Segments
// whose vertical extents overlap by more than half of the smaller height
// are grouped into one band and ordered left to right within it; the
// original index is the final tie-break, so the result is stable against
// the service's own (inconsistent) array order.
func ReadingOrder(extents []Extent) []int {
	idx := make([]int, len(extents))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return extents[idx[a]].Top < extents[idx[b]].Top
	})

	// Greedy banding over the top-sorted sequence. A band's extent grows as
	// members join, so slanted lines still cluster.
	type band struct {
		top, bottom float64
		members     []int
	}
	var bands []band
	for _, i := range idx {
		e := extents[i]
		placed := false
		for bi := range bands {
			if overlapFraction(bands[bi].top, bands[bi].bottom, e.Top, e.Bottom) > bandOverlapThreshold {
				bands[bi].members = append(bands[bi].members, i)
				bands[bi].top = math.Min(bands[bi].top, e.Top)
				bands[bi].bottom = math.Max(bands[bi].bottom, e.Bottom)
				placed = true
				break
			}
		}
		if !placed {
			bands = append(bands, band{top: e.Top, bottom: e.Bottom, members: []int{i}})
		}
	}

	sort.SliceStable(bands, func(a, b int) bool { return bands[a].top < bands[b].top })

	order := make([]int, 0, len(extents))
	for _, b := range bands {
		members := b.members
		sort.SliceStable(members, func(a, c int) bool {
			la, lc := extents[members[a]].Left, extents[members[c]].Left
			if la != lc {
				return la < lc
			}
			return members[a] < members[c]
		})
		order = append(order, members...)
	}
	return order
}

// SameBand reports whether two extents overlap vertically enough to read
// as one line.
func SameBand(a, b Extent) bool {
	return overlapFraction(a.Top, a.Bottom, b.Top, b.Bottom) > bandOverlapThreshold
}

func overlapFraction(top1, bot1, top2, bot2 float64) float64 {
	overlap := math.Min(bot1, bot2) - math.Max(top1, top2)
	if overlap <= 0 {
		return 0
	}
	smaller := math.Min(bot1-top1, bot2-top2)
	if smaller <= 0 {
		return 0
	}
	return overlap / smaller
}
