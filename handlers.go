package main

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/kwv/cellbounds/cells"
)

// newHTTPServer creates an HTTP handler with all service endpoints.
func newHTTPServer(tracker *cells.LayoutTracker, config *cells.Config, gridSpacing float64) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		status := struct {
			Status     string    `json:"status"`
			Timestamp  time.Time `json:"timestamp"`
			HasLayouts bool      `json:"hasLayouts"`
		}{
			Status:     "ok",
			Timestamp:  time.Now(),
			HasLayouts: tracker.HasLayouts(),
		}
		if err := json.NewEncoder(w).Encode(status); err != nil {
			log.Printf("[HTTP] Error encoding health status: %v", err)
		}
	})

	// List tracked layout names
	mux.HandleFunc("/layouts", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(tracker.Names()); err != nil {
			log.Printf("[HTTP] Error encoding layout names: %v", err)
		}
	})

	// Boundary lines as JSON
	mux.HandleFunc("/boundaries.json", func(w http.ResponseWriter, r *http.Request) {
		state, ok := lookupLayout(tracker, w, r)
		if !ok {
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")
		if err := json.NewEncoder(w).Encode(state); err != nil {
			log.Printf("[HTTP] Error encoding boundaries: %v", err)
		}
	})

	// Rendered partition as SVG
	mux.HandleFunc("/boundaries.svg", func(w http.ResponseWriter, r *http.Request) {
		state, ok := lookupLayout(tracker, w, r)
		if !ok {
			return
		}
		renderer := newRenderer(state, config, gridSpacing)

		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Cache-Control", "no-cache")
		if err := renderer.RenderToSVG(w); err != nil {
			log.Printf("[HTTP] Error rendering SVG: %v", err)
		}
	})

	// Rendered partition as PNG
	mux.HandleFunc("/boundaries.png", func(w http.ResponseWriter, r *http.Request) {
		state, ok := lookupLayout(tracker, w, r)
		if !ok {
			return
		}
		renderer := newRenderer(state, config, gridSpacing)

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-cache")
		if err := renderer.RenderToPNG(w); err != nil {
			log.Printf("[HTTP] Error rendering PNG: %v", err)
		}
	})

	// Accept a full rectangle set for a layout
	mux.HandleFunc("/layout", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		name := r.URL.Query().Get("name")
		if name == "" {
			http.Error(w, "Missing name parameter", http.StatusBadRequest)
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			http.Error(w, "Error reading body", http.StatusBadRequest)
			return
		}
		rects, err := cells.ParseLayout(body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		lines, recomputed, err := tracker.Update(name, rects)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		resp := struct {
			Layout     string       `json:"layout"`
			Lines      []cells.Line `json:"lines"`
			Recomputed bool         `json:"recomputed"`
		}{
			Layout:     name,
			Lines:      lines,
			Recomputed: recomputed,
		}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			log.Printf("[HTTP] Error encoding layout response: %v", err)
		}
	})

	return mux
}

// newRenderer builds a renderer for a layout state, applying the config's
// render defaults. The -grid-spacing flag wins over the config value.
func newRenderer(state *cells.LayoutState, config *cells.Config, gridSpacing float64) *cells.BoundaryRenderer {
	renderer := cells.NewBoundaryRenderer(state.Rects, state.Lines)
	if config != nil {
		if config.Render.Padding > 0 {
			renderer.Padding = config.Render.Padding
		}
		if config.Render.StrokeWidth > 0 {
			renderer.StrokeWidth = config.Render.StrokeWidth
		}
		renderer.GridSpacing = config.Render.GridSpacing
	}
	if gridSpacing > 0 {
		renderer.GridSpacing = gridSpacing
	}
	return renderer
}

// lookupLayout resolves the layout query parameter against the tracker,
// writing the appropriate error response when it cannot.
func lookupLayout(tracker *cells.LayoutTracker, w http.ResponseWriter, r *http.Request) (*cells.LayoutState, bool) {
	name := r.URL.Query().Get("layout")
	if name == "" {
		names := tracker.Names()
		if len(names) == 0 {
			http.Error(w, "No layouts available", http.StatusServiceUnavailable)
			return nil, false
		}
		name = names[0]
	}

	state, ok := tracker.Get(name)
	if !ok {
		http.Error(w, "Unknown layout: "+name, http.StatusNotFound)
		return nil, false
	}
	return state, true
}
