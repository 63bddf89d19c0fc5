// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cadence/internal/catalog"
	"github.com/tomtom215/cadence/internal/recommend"
)

type fakeEngine struct {
	mu          sync.Mutex
	lastReq     recommend.Request
	resp        *recommend.Response
	err         error
	rebuildErr  error
	rebuilds    int
	status      recommend.Status
	tracks      []catalog.TrackSummary
	searchQuery string
	searchLimit int
	lookupErr   error
}

func (f *fakeEngine) Recommend(_ context.Context, req recommend.Request) (*recommend.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func (f *fakeEngine) Rebuild(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rebuilds++
	if f.rebuildErr == nil {
		f.status.SnapshotVersion++
	}
	return f.rebuildErr
}

func (f *fakeEngine) Status() recommend.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeEngine) SearchTracks(_ context.Context, q string, limit int) ([]catalog.TrackSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchQuery, f.searchLimit = q, limit
	return f.tracks, f.err
}

func (f *fakeEngine) LookupTracks(context.Context, []string) ([]catalog.TrackSummary, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	return f.tracks, nil
}

type fakeScheduler struct {
	reqs []recommend.RebuildRequest
	err  error
}

func (s *fakeScheduler) ScheduleRebuild(_ context.Context, req recommend.RebuildRequest) error {
	if s.err != nil {
		return s.err
	}
	s.reqs = append(s.reqs, req)
	return nil
}

func newTestServer(engine Engine, scheduler recommend.RebuildScheduler) http.Handler {
	cfg := DefaultChiMiddlewareConfig()
	cfg.RateLimitDisabled = true
	return NewRouter(NewHandler(engine, scheduler), NewChiMiddleware(cfg)).SetupChi()
}

// do issues a request and decodes the envelope. data is decoded into out
// when non-nil.
func do(t *testing.T, h http.Handler, method, target, body string, out interface{}) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env struct {
		Status   string          `json:"status"`
		Data     json.RawMessage `json:"data"`
		Metadata Metadata        `json:"metadata"`
		Error    *APIError       `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %s %s: error = %v, body = %s", method, target, err, rec.Body.String())
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			t.Fatalf("decode data: error = %v", err)
		}
	}
	return rec, APIResponse{Status: env.Status, Metadata: env.Metadata, Error: env.Error}
}

func TestRecommend_Blended(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{
		resp: &recommend.Response{
			TrackIDs: []string{"t3", "t4"},
			Items: []recommend.ScoredTrack{
				{TrackID: "t3", Score: 0.9, ContentScore: 1, CollabScore: 0.85},
				{TrackID: "t4", Score: 0.2},
			},
			State:           recommend.StateBlended,
			Trace:           []recommend.State{recommend.StateContentOnly, recommend.StateCollaborativeAttempted, recommend.StateBlended},
			SnapshotVersion: 4,
		},
	}
	srv := newTestServer(engine, nil)

	var data RecommendResponse
	rec, env := do(t, srv, http.MethodPost, "/api/v1/recommendations",
		`{"user_id":"u1","seeds":["spotify:track:t1","t2"],"n":2}`, &data)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if env.Status != "success" {
		t.Errorf("envelope status = %q, want success", env.Status)
	}
	if strings.Join(data.TrackIDs, ",") != "t3,t4" {
		t.Errorf("track_ids = %v, want [t3 t4]", data.TrackIDs)
	}
	if data.State != recommend.StateBlended || len(data.Trace) != 3 {
		t.Errorf("state = %s trace = %v", data.State, data.Trace)
	}
	if data.SnapshotVersion != 4 {
		t.Errorf("snapshot_version = %d, want 4", data.SnapshotVersion)
	}
	if data.Seeds != nil {
		t.Errorf("seeds = %v, want omitted", data.Seeds)
	}
	if engine.lastReq.UserID != "u1" || len(engine.lastReq.SeedTrackIDs) != 2 || engine.lastReq.N != 2 {
		t.Errorf("engine request = %+v", engine.lastReq)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("X-Request-Id header not set")
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers not applied")
	}
}

func TestRecommend_FallbackWithSeeds(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{
		resp: &recommend.Response{
			State:         recommend.StateContentFallback,
			Trace:         []recommend.State{recommend.StateContentOnly, recommend.StateCollaborativeAttempted, recommend.StateColdStartRebuild, recommend.StateContentFallback},
			RebuildQueued: true,
			Skipped:       []string{"gone"},
		},
		tracks: []catalog.TrackSummary{{ID: "t1", Name: "One", Artists: []string{"A"}}},
	}
	srv := newTestServer(engine, nil)

	var data RecommendResponse
	rec, _ := do(t, srv, http.MethodPost, "/api/v1/recommendations",
		`{"user_id":"new","seeds":["t1","gone"],"include_seeds":true}`, &data)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if data.State != recommend.StateContentFallback || !data.RebuildQueued {
		t.Errorf("state = %s queued = %v", data.State, data.RebuildQueued)
	}
	if data.TrackIDs == nil || len(data.TrackIDs) != 0 {
		t.Errorf("track_ids = %#v, want empty array", data.TrackIDs)
	}
	if len(data.Seeds) != 1 || data.Seeds[0].Name != "One" {
		t.Errorf("seeds = %+v", data.Seeds)
	}
	if len(data.Skipped) != 1 || data.Skipped[0] != "gone" {
		t.Errorf("skipped = %v", data.Skipped)
	}
}

func TestRecommend_SeedLookupFailureIgnored(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{
		resp:      &recommend.Response{TrackIDs: []string{"t2"}, State: recommend.StateBlended},
		lookupErr: catalog.ErrUnavailable,
	}
	srv := newTestServer(engine, nil)

	var data RecommendResponse
	rec, _ := do(t, srv, http.MethodPost, "/api/v1/recommendations",
		`{"user_id":"u","seeds":["t1"],"include_seeds":true}`, &data)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if data.Seeds != nil {
		t.Errorf("seeds = %v, want omitted", data.Seeds)
	}
}

func TestRecommend_CacheHitMetadata(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{resp: &recommend.Response{TrackIDs: []string{"t9"}, State: recommend.StateBlended, CacheHit: true}}
	srv := newTestServer(engine, nil)

	_, env := do(t, srv, http.MethodPost, "/api/v1/recommendations", `{"user_id":"u","seeds":["t1"]}`, nil)
	if !env.Metadata.Cached {
		t.Error("metadata.cached = false, want true")
	}
}

func TestRecommend_BadRequests(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{"not json", `{`, CodeInvalidJSON},
		{"unknown field", `{"user_id":"u","seeds":["t1"],"limit":3}`, CodeInvalidJSON},
		{"missing user", `{"seeds":["t1"]}`, CodeValidation},
		{"missing seeds", `{"user_id":"u"}`, CodeValidation},
		{"empty seeds", `{"user_id":"u","seeds":[]}`, CodeValidation},
		{"blank seed", `{"user_id":"u","seeds":["  "]}`, CodeValidation},
		{"seed with space", `{"user_id":"u","seeds":["a b"]}`, CodeValidation},
		{"negative n", `{"user_id":"u","seeds":["t1"],"n":-1}`, CodeValidation},
		{"huge n", `{"user_id":"u","seeds":["t1"],"n":5000}`, CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			engine := &fakeEngine{}
			srv := newTestServer(engine, nil)

			rec, env := do(t, srv, http.MethodPost, "/api/v1/recommendations", tt.body, nil)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400; body = %s", rec.Code, rec.Body.String())
			}
			if env.Status != "error" || env.Error == nil || env.Error.Code != tt.wantCode {
				t.Errorf("error = %+v, want code %s", env.Error, tt.wantCode)
			}
			if engine.lastReq.UserID != "" {
				t.Error("engine called for an invalid request")
			}
		})
	}
}

func TestRecommend_EngineErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"empty input", &recommend.Error{Kind: recommend.KindEmptyInput, Op: "recommend", Err: errors.New("at least one seed track is required")}, http.StatusBadRequest, CodeEmptyInput},
		{"not found", &recommend.Error{Kind: recommend.KindNotFound, Err: errors.New("no such user")}, http.StatusNotFound, CodeNotFound},
		{"rebuild failure", &recommend.Error{Kind: recommend.KindRebuildFailure, Err: errors.New("fit diverged")}, http.StatusInternalServerError, CodeRebuildFailed},
		{"catalog down", fmt.Errorf("load catalog: %w", catalog.ErrUnavailable), http.StatusServiceUnavailable, CodeCatalogUnavailable},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, CodeTimeout},
		{"other", errors.New("boom"), http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := newTestServer(&fakeEngine{err: tt.err}, nil)

			rec, env := do(t, srv, http.MethodPost, "/api/v1/recommendations", `{"user_id":"u","seeds":["t1"]}`, nil)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if env.Error == nil || env.Error.Code != tt.wantCode {
				t.Errorf("error = %+v, want code %s", env.Error, tt.wantCode)
			}
		})
	}
}

func TestRecommend_EmptyInputMessage(t *testing.T) {
	t.Parallel()

	err := &recommend.Error{Kind: recommend.KindEmptyInput, Op: "recommend", ID: "u", Err: errors.New("at least one seed track is required")}
	srv := newTestServer(&fakeEngine{err: err}, nil)

	_, env := do(t, srv, http.MethodPost, "/api/v1/recommendations", `{"user_id":"u","seeds":["t1"]}`, nil)
	if env.Error == nil || env.Error.Message != "at least one seed track is required" {
		t.Errorf("message = %+v", env.Error)
	}
}

func TestSearchTracks(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{tracks: []catalog.TrackSummary{{ID: "t1", Name: "Blue Monday", Artists: []string{"New Order"}}}}
	srv := newTestServer(engine, nil)

	var data SearchResponse
	rec, _ := do(t, srv, http.MethodGet, "/api/v1/tracks/search?q=blue&limit=5", "", &data)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if data.Count != 1 || data.Tracks[0].ID != "t1" {
		t.Fatalf("data = %+v", data)
	}
	if got := data.Tracks[0].Artists; len(got) != 1 || got[0] != "New Order" {
		t.Errorf("Artists = %q, want [New Order]", got)
	}
	if engine.searchQuery != "blue" || engine.searchLimit != 5 {
		t.Errorf("engine search = %q/%d, want blue/5", engine.searchQuery, engine.searchLimit)
	}
}

func TestSearchTracks_Defaults(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{}
	srv := newTestServer(engine, nil)

	var data SearchResponse
	rec, _ := do(t, srv, http.MethodGet, "/api/v1/tracks/search?q=x", "", &data)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if engine.searchLimit != catalog.DefaultSearchLimit {
		t.Errorf("limit = %d, want %d", engine.searchLimit, catalog.DefaultSearchLimit)
	}
	if data.Tracks == nil || data.Count != 0 {
		t.Errorf("data = %+v, want empty tracks array", data)
	}
}

func TestSearchTracks_BadRequests(t *testing.T) {
	t.Parallel()

	for _, target := range []string{
		"/api/v1/tracks/search",
		"/api/v1/tracks/search?q=x&limit=abc",
		"/api/v1/tracks/search?q=x&limit=1000",
	} {
		srv := newTestServer(&fakeEngine{}, nil)
		rec, env := do(t, srv, http.MethodGet, target, "", nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", target, rec.Code)
		}
		if env.Error == nil || env.Error.Code != CodeValidation {
			t.Errorf("%s: error = %+v", target, env.Error)
		}
	}
}

func TestRecommendStatus(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{status: recommend.Status{SnapshotVersion: 7, Users: 3, Items: 12, HasModel: true, RebuildMode: recommend.RebuildSync}}
	srv := newTestServer(engine, nil)

	var data recommend.Status
	rec, _ := do(t, srv, http.MethodGet, "/api/v1/recommendations/status", "", &data)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if data.SnapshotVersion != 7 || data.Users != 3 || data.Items != 12 || !data.HasModel {
		t.Errorf("data = %+v", data)
	}
}

func TestRebuild_Sync(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{status: recommend.Status{SnapshotVersion: 1}}
	srv := newTestServer(engine, nil)

	var data RebuildResponse
	rec, _ := do(t, srv, http.MethodPost, "/api/v1/recommendations/rebuild", "", &data)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if engine.rebuilds != 1 {
		t.Errorf("rebuilds = %d, want 1", engine.rebuilds)
	}
	if data.Queued || data.Status == nil || data.Status.SnapshotVersion != 2 {
		t.Errorf("data = %+v", data)
	}
}

func TestRebuild_SyncFailure(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{rebuildErr: &recommend.Error{Kind: recommend.KindRebuildFailure, Err: errors.New("no events")}}
	srv := newTestServer(engine, nil)

	rec, env := do(t, srv, http.MethodPost, "/api/v1/recommendations/rebuild", "", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if env.Error == nil || env.Error.Code != CodeRebuildFailed {
		t.Errorf("error = %+v", env.Error)
	}
}

func TestRebuild_Async(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{}
	sched := &fakeScheduler{}
	h := NewHandler(engine, sched)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return fixed }
	cfg := DefaultChiMiddlewareConfig()
	cfg.RateLimitDisabled = true
	srv := NewRouter(h, NewChiMiddleware(cfg)).SetupChi()

	var data RebuildResponse
	rec, _ := do(t, srv, http.MethodPost, "/api/v1/recommendations/rebuild", "", &data)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	if !data.Queued {
		t.Error("queued = false, want true")
	}
	if engine.rebuilds != 0 {
		t.Errorf("engine rebuilt %d times, want 0", engine.rebuilds)
	}
	if len(sched.reqs) != 1 || sched.reqs[0].Reason != "manual" || !sched.reqs[0].RequestedAt.Equal(fixed) {
		t.Errorf("scheduled = %+v", sched.reqs)
	}
}

func TestRebuild_AsyncQueueClosed(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&fakeEngine{}, &fakeScheduler{err: errors.New("queue closed")})

	rec, env := do(t, srv, http.MethodPost, "/api/v1/recommendations/rebuild", "", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if env.Error == nil || env.Error.Code != CodeQueueUnavailable {
		t.Errorf("error = %+v", env.Error)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{}
	srv := newTestServer(engine, nil)

	var data HealthStatus
	rec, _ := do(t, srv, http.MethodGet, "/health", "", &data)
	if rec.Code != http.StatusServiceUnavailable || data.Status != "starting" {
		t.Errorf("before load: status = %d data = %+v", rec.Code, data)
	}

	engine.status.SnapshotVersion = 1
	rec, _ = do(t, srv, http.MethodGet, "/health", "", &data)
	if rec.Code != http.StatusOK || data.Status != "healthy" || data.SnapshotVersion != 1 {
		t.Errorf("after load: status = %d data = %+v", rec.Code, data)
	}

	rec, _ = do(t, srv, http.MethodGet, "/health/live", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("live: status = %d", rec.Code)
	}
}

func TestRouting(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&fakeEngine{}, nil)

	rec, env := do(t, srv, http.MethodGet, "/api/v1/nope", "", nil)
	if rec.Code != http.StatusNotFound || env.Error == nil || env.Error.Code != CodeNotFound {
		t.Errorf("unknown route: status = %d error = %+v", rec.Code, env.Error)
	}

	mrec := httptest.NewRecorder()
	srv.ServeHTTP(mrec, httptest.NewRequest(http.MethodGet, "/api/v1/recommendations", nil))
	if mrec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET recommendations: status = %d, want 405", mrec.Code)
	}

	mrec = httptest.NewRecorder()
	srv.ServeHTTP(mrec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if mrec.Code != http.StatusOK {
		t.Errorf("metrics: status = %d", mrec.Code)
	}
}

func TestRequestIDPropagation(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&fakeEngine{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set("X-Request-ID", "req-abc")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "req-abc" {
		t.Errorf("X-Request-ID = %q, want req-abc", got)
	}
}
