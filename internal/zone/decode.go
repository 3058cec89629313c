package zone

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
)

// timestampLayouts are the naive layouts produced by the upstream builder.
var timestampLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// ParseTimestamp parses a naive timestamp in loc. A trailing "Z" is ignored:
// upstream timestamps carry no zone and are read as home-timezone wall clock.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	raw := strings.TrimSuffix(strings.TrimSpace(s), "Z")
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, eris.Errorf("zone: unrecognized timestamp %q", s)
}

// wireFrame accepts both the "zones" key and the builder's "polygons" key for
// the feature collection.
type wireFrame struct {
	Time     string          `json:"time"`
	Zones    json.RawMessage `json:"zones"`
	Polygons json.RawMessage `json:"polygons"`
	Markers  []wireMarker    `json:"markers"`
}

type wireMarker struct {
	Tag          string   `json:"tag"`
	Lat          *float64 `json:"lat"`
	Lng          *float64 `json:"lng"`
	Zone         string   `json:"zone"`
	Borough      string   `json:"borough"`
	Color        string   `json:"color"`
	Rating       *float64 `json:"rating"`
	Pickups      *float64 `json:"pickups"`
	AvgDriverPay *float64 `json:"avg_driver_pay"`
	AvgTips      *float64 `json:"avg_tips"`
}

type wireCollection struct {
	Type     string        `json:"type"`
	Features []wireFeature `json:"features"`
}

type wireFeature struct {
	ID         json.RawMessage `json:"id"`
	Geometry   json.RawMessage `json:"geometry"`
	Properties map[string]any  `json:"properties"`
}

// ErrNoZones is returned for a frame document without a feature collection.
var ErrNoZones = eris.New("zone: frame has no feature collection")

// DecodeFrame decodes one upstream frame document. The frame timestamp is
// interpreted in loc. Features with unusable geometry are kept without a
// geometry; features without any identifier get a "feature-<n>" ID. A zone
// whose ID repeats an earlier one is dropped.
func DecodeFrame(data []byte, loc *time.Location) (*Frame, error) {
	var wf wireFrame
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, eris.Wrap(err, "zone: decode frame")
	}

	ts, err := ParseTimestamp(wf.Time, loc)
	if err != nil {
		return nil, err
	}

	raw := wf.Zones
	if isNull(raw) {
		raw = wf.Polygons
	}
	if isNull(raw) {
		return nil, eris.Wrapf(ErrNoZones, "frame %s", wf.Time)
	}
	var wc wireCollection
	if err := json.Unmarshal(raw, &wc); err != nil {
		return nil, eris.Wrap(err, "zone: decode feature collection")
	}

	frame := &Frame{Time: ts, Zones: make([]Zone, 0, len(wc.Features))}
	seen := make(map[string]int, len(wc.Features))
	for i, f := range wc.Features {
		z := decodeZone(i, f)
		if first, dup := seen[z.ID]; dup {
			zap.L().Warn("zone: dropping feature with duplicate id",
				zap.String("zone_id", z.ID),
				zap.Int("feature", i),
				zap.Int("first_feature", first),
			)
			continue
		}
		seen[z.ID] = i
		frame.Zones = append(frame.Zones, z)
	}

	frame.Markers = make([]Marker, 0, len(wf.Markers))
	for _, m := range wf.Markers {
		if mk, ok := decodeMarker(m); ok {
			frame.Markers = append(frame.Markers, mk)
		}
	}
	return frame, nil
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

// decodeMarker keeps markers with a finite, in-range position.
func decodeMarker(m wireMarker) (Marker, bool) {
	if m.Lat == nil || m.Lng == nil {
		return Marker{}, false
	}
	lat, lng := *m.Lat, *m.Lng
	if !(lat >= -90 && lat <= 90) || !(lng >= -180 && lng <= 180) {
		return Marker{}, false
	}

	mk := Marker{
		Tag:          ParseMarkerTag(m.Tag),
		Lat:          lat,
		Lng:          lng,
		Zone:         strings.TrimSpace(m.Zone),
		Borough:      strings.TrimSpace(m.Borough),
		Color:        strings.TrimSpace(m.Color),
		Pickups:      finite(m.Pickups),
		AvgDriverPay: finite(m.AvgDriverPay),
		AvgTips:      finite(m.AvgTips),
	}
	if v := finite(m.Rating); v != nil {
		if r := math.Round(*v); r >= MinRating && r <= MaxRating {
			rating := int(r)
			mk.Rating = &rating
		}
	}
	return mk, true
}

func finite(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	return v
}

func decodeZone(idx int, f wireFeature) Zone {
	p := f.Properties
	z := Zone{
		ID:      firstString(p, "location_id", "LocationID", "locationid"),
		Name:    firstString(p, "zone", "name", "Zone"),
		Borough: firstString(p, "borough", "boro", "Borough"),
	}
	if z.ID == "" {
		z.ID = rawID(f.ID)
	}
	if z.ID == "" {
		z.ID = "feature-" + strconv.Itoa(idx)
	}

	if !isNull(f.Geometry) {
		var g geom.T
		if err := geojson.Unmarshal(f.Geometry, &g); err != nil {
			zap.L().Debug("zone: skipping unreadable geometry", zap.String("zone_id", z.ID), zap.Error(err))
		} else {
			z.Geometry = g
		}
	}

	if v, ok := firstNumber(p, "rating", "score", "zone_score"); ok {
		if r := math.Round(v); r >= MinRating && r <= MaxRating {
			rating := int(r)
			z.Rating = &rating
		}
	}

	if b, ok := ParseBucket(firstString(p, "bucket")); ok {
		z.Bucket = b
	} else if z.Rating != nil {
		z.Bucket = BucketFor(*z.Rating)
	}

	z.Pickups = optionalNumber(p, "pickups")
	z.AvgDriverPay = optionalNumber(p, "avg_driver_pay", "pay")
	z.AvgTips = optionalNumber(p, "avg_tips")
	return z
}

func rawID(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	raw = bytes.TrimSpace(raw)
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func firstString(p map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := p[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

// firstNumber returns the first finite numeric property among keys. Numeric
// strings are accepted; anything else counts as absent.
func firstNumber(p map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		var v float64
		switch raw := p[k].(type) {
		case float64:
			v = raw
		case json.Number:
			f, err := raw.Float64()
			if err != nil {
				continue
			}
			v = f
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				continue
			}
			v = f
		default:
			continue
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		return v, true
	}
	return 0, false
}

func optionalNumber(p map[string]any, keys ...string) *float64 {
	v, ok := firstNumber(p, keys...)
	if !ok {
		return nil
	}
	return &v
}
