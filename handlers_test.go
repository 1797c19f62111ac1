package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kwv/cellbounds/cells"
)

func testTracker(t *testing.T) *cells.LayoutTracker {
	t.Helper()
	tracker := cells.NewLayoutTracker()
	rects := []cells.Rect{
		{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100},
		{MinX: 200, MinY: 0, MaxX: 300, MaxY: 100},
	}
	if _, _, err := tracker.Update("demo", rects); err != nil {
		t.Fatalf("seeding tracker: %v", err)
	}
	return tracker
}

func TestHealthEndpoint(t *testing.T) {
	handler := newHTTPServer(testTracker(t), &cells.Config{}, 0)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var status struct {
		Status     string `json:"status"`
		HasLayouts bool   `json:"hasLayouts"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &status); err != nil {
		t.Fatalf("decoding health response: %v", err)
	}
	if status.Status != "ok" || !status.HasLayouts {
		t.Errorf("health = %+v", status)
	}
}

func TestLayoutsEndpoint(t *testing.T) {
	handler := newHTTPServer(testTracker(t), &cells.Config{}, 0)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/layouts", nil))

	var names []string
	if err := json.Unmarshal(rr.Body.Bytes(), &names); err != nil {
		t.Fatalf("decoding layouts: %v", err)
	}
	if len(names) != 1 || names[0] != "demo" {
		t.Errorf("names = %v, want [demo]", names)
	}
}

func TestBoundariesJSONEndpoint(t *testing.T) {
	handler := newHTTPServer(testTracker(t), &cells.Config{}, 0)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/boundaries.json?layout=demo", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var state cells.LayoutState
	if err := json.Unmarshal(rr.Body.Bytes(), &state); err != nil {
		t.Fatalf("decoding state: %v", err)
	}
	if state.Name != "demo" || len(state.Lines) != 1 {
		t.Errorf("state = %+v, want demo with 1 line", state)
	}
}

func TestBoundariesJSON_DefaultLayout(t *testing.T) {
	// Without a layout parameter the first tracked layout is served.
	handler := newHTTPServer(testTracker(t), &cells.Config{}, 0)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/boundaries.json", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
}

func TestBoundariesJSON_UnknownLayout(t *testing.T) {
	handler := newHTTPServer(testTracker(t), &cells.Config{}, 0)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/boundaries.json?layout=nope", nil))

	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestBoundariesJSON_NoLayouts(t *testing.T) {
	handler := newHTTPServer(cells.NewLayoutTracker(), &cells.Config{}, 0)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/boundaries.json", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rr.Code)
	}
}

func TestBoundariesSVGEndpoint(t *testing.T) {
	handler := newHTTPServer(testTracker(t), &cells.Config{}, 0)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/boundaries.svg?layout=demo", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(rr.Body.String(), "<svg") {
		t.Error("body should contain an <svg element")
	}
}

func TestNewRenderer_ConfigDefaults(t *testing.T) {
	state := &cells.LayoutState{}
	config := &cells.Config{Render: cells.RenderConfig{Padding: 35, StrokeWidth: 4, GridSpacing: 25}}

	r := newRenderer(state, config, 0)
	if r.Padding != 35 || r.StrokeWidth != 4 || r.GridSpacing != 25 {
		t.Errorf("renderer = padding %v stroke %v grid %v", r.Padding, r.StrokeWidth, r.GridSpacing)
	}

	// The CLI flag wins over the config grid spacing.
	r = newRenderer(state, config, 100)
	if r.GridSpacing != 100 {
		t.Errorf("GridSpacing = %v, want 100", r.GridSpacing)
	}
}

func TestLayoutPostEndpoint(t *testing.T) {
	tracker := cells.NewLayoutTracker()
	handler := newHTTPServer(tracker, &cells.Config{}, 0)

	body := `[{"x": 0, "y": 0, "width": 100, "height": 100},
	          {"x": 200, "y": 0, "width": 100, "height": 100}]`
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/layout?name=floor1", strings.NewReader(body)))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Layout     string       `json:"layout"`
		Lines      []cells.Line `json:"lines"`
		Recomputed bool         `json:"recomputed"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Layout != "floor1" || !resp.Recomputed || len(resp.Lines) != 1 {
		t.Errorf("response = %+v", resp)
	}

	// A repeat of the same geometry is served from the memoized state.
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/layout?name=floor1", strings.NewReader(body)))
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding repeat response: %v", err)
	}
	if resp.Recomputed {
		t.Error("identical geometry should not recompute")
	}
}

func TestLayoutPost_Errors(t *testing.T) {
	handler := newHTTPServer(cells.NewLayoutTracker(), &cells.Config{}, 0)

	// GET is not allowed.
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/layout?name=x", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d, want 405", rr.Code)
	}

	// Missing name.
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/layout", strings.NewReader("[]")))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("missing name status = %d, want 400", rr.Code)
	}

	// Malformed body.
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/layout?name=x", strings.NewReader("{")))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("bad body status = %d, want 400", rr.Code)
	}
}
