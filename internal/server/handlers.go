package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/sells-group/hotspot-cli/internal/feed"
	"github.com/sells-group/hotspot-cli/internal/geo"
	"github.com/sells-group/hotspot-cli/internal/hotspot"
	"github.com/sells-group/hotspot-cli/internal/timebin"
	"github.com/sells-group/hotspot-cli/internal/view"
	"github.com/sells-group/hotspot-cli/internal/zone"
)

type healthResponse struct {
	Status string           `json:"status"`
	Loaded bool             `json:"loaded"`
	Index  int              `json:"index"`
	LoadID string           `json:"load_id,omitempty"`
	Cache  *feed.CacheStats `json:"cache,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "ok", Index: -1}
	if snap := s.engine.Current(); snap != nil {
		resp.Loaded = true
		resp.Index = snap.Index
		resp.LoadID = snap.LoadID.String()
	}
	if s.opts.CacheStats != nil {
		st := s.opts.CacheStats()
		resp.Cache = &st
	}
	writeJSON(w, http.StatusOK, resp)
}

type binResponse struct {
	Index  int       `json:"index"`
	Time   time.Time `json:"time"`
	Label  string    `json:"label"`
	Minute int       `json:"minute_of_week"`
}

type timelineResponse struct {
	Bins            []binResponse `json:"bins"`
	Current         int           `json:"current"`
	Pending         int           `json:"pending"`
	SameDay         []int         `json:"same_day"`
	LastInteraction *time.Time    `json:"last_interaction,omitempty"`
}

func (s *Server) timeline(w http.ResponseWriter, _ *http.Request) {
	tl := s.clock.Timeline()
	st := s.clock.State()

	minutes := tl.Minutes()
	bins := make([]binResponse, tl.Len())
	for i := range bins {
		bins[i] = binResponse{Index: i, Time: tl.Time(i), Label: tl.Label(i), Minute: minutes[i]}
	}

	resp := timelineResponse{
		Bins:    bins,
		Current: st.Current,
		Pending: st.Pending,
		SameDay: []int{},
	}
	if st.Current >= 0 {
		resp.SameDay = tl.SameDay(st.Current)
	}
	if !st.LastInteraction.IsZero() {
		li := st.LastInteraction
		resp.LastInteraction = &li
	}
	writeJSON(w, http.StatusOK, resp)
}

type timeRequestResponse struct {
	Pending int    `json:"pending"`
	Label   string `json:"label"`
}

func (s *Server) setTime(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "index must be an integer")
		return
	}
	s.request(w, idx)
}

func (s *Server) setFineTime(w http.ResponseWriter, r *http.Request) {
	base, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "index must be an integer")
		return
	}
	pos, err := strconv.Atoi(chi.URLParam(r, "pos"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "pos must be an integer")
		return
	}

	if base < 0 {
		writeError(w, http.StatusBadRequest, "index out of range")
		return
	}

	idx, err := s.clock.RequestFine(base, pos)
	s.accepted(w, idx, err)
}

func (s *Server) request(w http.ResponseWriter, idx int) {
	s.accepted(w, idx, s.clock.Request(idx))
}

func (s *Server) accepted(w http.ResponseWriter, idx int, err error) {
	if err != nil {
		if errors.Is(err, timebin.ErrIndexOutOfRange) {
			writeError(w, http.StatusBadRequest, "index out of range")
			return
		}
		zap.L().Error("server: time request failed", zap.Int("index", idx), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "time request failed")
		return
	}
	writeJSON(w, http.StatusAccepted, timeRequestResponse{Pending: idx, Label: s.clock.Timeline().Label(idx)})
}

func (s *Server) visible(w http.ResponseWriter, _ *http.Request) {
	s.clock.Foreground()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getModes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Modes())
}

func (s *Server) putModes(w http.ResponseWriter, r *http.Request) {
	var m view.Modes
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		writeError(w, http.StatusBadRequest, "invalid modes body")
		return
	}
	s.engine.SetModes(m)
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) zones(w http.ResponseWriter, _ *http.Request) {
	snap := s.engine.Current()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "no frame loaded")
		return
	}

	fc := featureCollection(snap)
	w.Header().Set("X-Frame-Index", strconv.Itoa(snap.Index))
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, fc)
}

// featureCollection renders the snapshot with effective display properties.
func featureCollection(snap *hotspot.Snapshot) *geojson.FeatureCollection {
	views := snap.Views()
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(views))}
	for _, v := range views {
		props := map[string]any{
			"location_id":    v.Zone.ID,
			"zone":           v.Zone.Name,
			"borough":        v.Zone.Borough,
			"global_rating":  v.Zone.Rating,
			"global_bucket":  nullableBucket(v.Zone.Bucket),
			"rating":         v.Effective.Rating,
			"bucket":         nullableBucket(v.Effective.Bucket),
			"color":          v.Effective.Color,
			"local":          v.Effective.Local,
			"pickups":        v.Zone.Pickups,
			"avg_driver_pay": v.Zone.AvgDriverPay,
			"avg_tips":       v.Zone.AvgTips,
			"time":           snap.Frame.Time.Format("2006-01-02T15:04:05"),
		}
		if v.Centroid != nil {
			props["centroid"] = []float64{v.Centroid.Lng, v.Centroid.Lat}
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         v.Zone.ID,
			Geometry:   v.Zone.Geometry,
			Properties: props,
		})
	}
	return fc
}

type markersResponse struct {
	Index   int           `json:"index"`
	Time    string        `json:"time"`
	Markers []zone.Marker `json:"markers"`
}

func (s *Server) markers(w http.ResponseWriter, _ *http.Request) {
	snap := s.engine.Current()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "no frame loaded")
		return
	}

	markers := snap.Frame.Markers
	if markers == nil {
		markers = []zone.Marker{}
	}
	writeJSON(w, http.StatusOK, markersResponse{
		Index:   snap.Index,
		Time:    snap.Frame.Time.Format("2006-01-02T15:04:05"),
		Markers: markers,
	})
}

type legendEntry struct {
	Bucket zone.Bucket `json:"bucket"`
	Color  string      `json:"color"`
	Count  int         `json:"count"`
}

type legendResponse struct {
	Index   int           `json:"index"`
	Entries []legendEntry `json:"entries"`
}

// legend lists every bucket best-first with the number of zones currently
// shown in it.
func (s *Server) legend(w http.ResponseWriter, _ *http.Request) {
	snap := s.engine.Current()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "no frame loaded")
		return
	}

	counts := snap.Counts()
	resp := legendResponse{Index: snap.Index, Entries: make([]legendEntry, 0, len(zone.Buckets()))}
	for _, b := range zone.Buckets() {
		resp.Entries = append(resp.Entries, legendEntry{Bucket: b, Color: b.Color(), Count: counts[b]})
	}
	writeJSON(w, http.StatusOK, resp)
}

func nullableBucket(b zone.Bucket) any {
	if !b.Valid() {
		return nil
	}
	return b
}

func (s *Server) recommend(w http.ResponseWriter, r *http.Request) {
	loc, err := parseLocation(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := s.engine.Recommend(loc)
	if errors.Is(err, hotspot.ErrNoSnapshot) {
		writeError(w, http.StatusServiceUnavailable, "no frame loaded")
		return
	}
	if err != nil {
		zap.L().Error("server: recommend failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "recommend failed")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// parseLocation reads lat/lng query parameters. Both absent means no
// location; one without the other is an error.
func parseLocation(r *http.Request) (*geo.Point, error) {
	q := r.URL.Query()
	latS, lngS := strings.TrimSpace(q.Get("lat")), strings.TrimSpace(q.Get("lng"))
	if latS == "" && lngS == "" {
		return nil, nil
	}
	if latS == "" || lngS == "" {
		return nil, eris.New("lat and lng must be given together")
	}

	lat, err := strconv.ParseFloat(latS, 64)
	if err != nil || !(lat >= -90 && lat <= 90) {
		return nil, eris.New("lat must be a number in [-90, 90]")
	}
	lng, err := strconv.ParseFloat(lngS, 64)
	if err != nil || !(lng >= -180 && lng <= 180) {
		return nil, eris.New("lng must be a number in [-180, 180]")
	}
	return &geo.Point{Lng: lng, Lat: lat}, nil
}
