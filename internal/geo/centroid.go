// Package geo computes representative points and distances for zone shapes.
package geo

import (
	"math"

	"github.com/twpayne/go-geom"

	"github.com/sells-group/hotspot-cli/internal/zone"
)

// areaEpsilon is the smallest |signed area| (square degrees) treated as a
// real ring. Taxi zones are several orders of magnitude larger.
const areaEpsilon = 1e-12

// Point is a lon/lat position in degrees.
type Point struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// Centroid returns the area-weighted centroid of a Polygon or MultiPolygon.
// ok is false for degenerate or unsupported geometries.
func Centroid(g geom.T) (Point, bool) {
	switch t := g.(type) {
	case *geom.Polygon:
		if t == nil {
			return Point{}, false
		}
		p, _, ok := polygonCentroid(t)
		return p, ok
	case *geom.MultiPolygon:
		if t == nil {
			return Point{}, false
		}
		return multiPolygonCentroid(t)
	default:
		return Point{}, false
	}
}

// Centroids builds the per-frame centroid side-table. Zones without a valid
// centroid are left out.
func Centroids(zones []zone.Zone) map[string]Point {
	out := make(map[string]Point, len(zones))
	for _, z := range zones {
		if p, ok := Centroid(z.Geometry); ok {
			out[z.ID] = p
		}
	}
	return out
}

// ringMoments returns the signed area of a ring and its centroid. The ring is
// closed implicitly when the first and last vertices differ.
func ringMoments(flat []float64, stride int) (cx, cy, area float64, ok bool) {
	if stride < 2 {
		return 0, 0, 0, false
	}
	n := len(flat) / stride
	if n < 3 {
		return 0, 0, 0, false
	}

	var sumCross, sumX, sumY float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		xi, yi := flat[i*stride], flat[i*stride+1]
		xj, yj := flat[j*stride], flat[j*stride+1]
		cross := xi*yj - xj*yi
		sumCross += cross
		sumX += (xi + xj) * cross
		sumY += (yi + yj) * cross
	}

	area = sumCross / 2
	if math.Abs(area) < areaEpsilon {
		return 0, 0, 0, false
	}
	return sumX / (6 * area), sumY / (6 * area), area, true
}

// polygonCentroid subtracts hole moments from the outer ring by magnitude,
// so hole winding order does not matter. It returns the centroid and the
// outer ring's absolute area.
func polygonCentroid(p *geom.Polygon) (Point, float64, bool) {
	if p.NumLinearRings() == 0 {
		return Point{}, 0, false
	}
	stride := p.Stride()

	ox, oy, oArea, ok := ringMoments(p.LinearRing(0).FlatCoords(), stride)
	if !ok {
		return Point{}, 0, false
	}
	outerArea := math.Abs(oArea)

	netArea := outerArea
	mx, my := ox*outerArea, oy*outerArea
	for i := 1; i < p.NumLinearRings(); i++ {
		hx, hy, hArea, ok := ringMoments(p.LinearRing(i).FlatCoords(), stride)
		if !ok {
			continue
		}
		a := math.Abs(hArea)
		netArea -= a
		mx -= hx * a
		my -= hy * a
	}

	if math.Abs(netArea) < areaEpsilon {
		return Point{Lng: ox, Lat: oy}, outerArea, true
	}
	return Point{Lng: mx / netArea, Lat: my / netArea}, outerArea, true
}

func multiPolygonCentroid(mp *geom.MultiPolygon) (Point, bool) {
	var sumW, sx, sy float64
	for i := 0; i < mp.NumPolygons(); i++ {
		c, w, ok := polygonCentroid(mp.Polygon(i))
		if !ok {
			continue
		}
		sumW += w
		sx += c.Lng * w
		sy += c.Lat * w
	}
	if sumW == 0 {
		return Point{}, false
	}
	return Point{Lng: sx / sumW, Lat: sy / sumW}, true
}
