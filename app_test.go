package main

import (
	"errors"
	"testing"

	"github.com/kwv/cellbounds/cells"
)

func TestApplyOptions(t *testing.T) {
	app := NewApp()
	app.ApplyOptions(AppOptions{
		ConfigFile:      "config.yaml",
		LayoutFile:      "layout.json",
		LayoutName:      "floor1",
		RenderFormat:    "png",
		OutputFile:      "out.png",
		ContainerWidth:  500,
		ContainerHeight: 400,
		GridSpacing:     50,
		HttpPort:        8080,
		MqttMode:        true,
		HttpMode:        true,
	})

	if app.ConfigFile != "config.yaml" || app.LayoutFile != "layout.json" {
		t.Errorf("file flags not applied: %+v", app)
	}
	if app.LayoutName != "floor1" || app.RenderFormat != "png" || app.OutputFile != "out.png" {
		t.Errorf("output flags not applied: %+v", app)
	}
	if !app.MqttMode || !app.HttpMode || app.HttpPort != 8080 {
		t.Errorf("service flags not applied: %+v", app)
	}

	opts := app.pipelineOptions()
	if opts.ContainerWidth != 500 || opts.ContainerHeight != 400 {
		t.Errorf("pipeline options = %+v", opts)
	}
}

func TestOnLayoutUpdate(t *testing.T) {
	app := NewApp()
	app.Tracker = cells.NewLayoutTracker()

	rects := []cells.Rect{
		{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100},
		{MinX: 200, MinY: 0, MaxX: 300, MaxY: 100},
	}

	// A valid update with no publisher still lands in the tracker.
	app.onLayoutUpdate("floor1", rects, nil)

	state, ok := app.Tracker.Get("floor1")
	if !ok {
		t.Fatal("update did not reach the tracker")
	}
	if len(state.Lines) != 1 {
		t.Errorf("got %d lines, want 1", len(state.Lines))
	}
}

func TestOnLayoutUpdate_ParseError(t *testing.T) {
	// A payload that failed to parse upstream must not touch the tracker.
	app := NewApp()
	app.Tracker = cells.NewLayoutTracker()

	app.onLayoutUpdate("floor1", nil, errors.New("bad payload"))

	if _, ok := app.Tracker.Get("floor1"); ok {
		t.Error("rejected update should not create tracker state")
	}
}

func TestOnLayoutUpdate_InvalidRects(t *testing.T) {
	app := NewApp()
	app.Tracker = cells.NewLayoutTracker()

	bad := []cells.Rect{{MinX: 10, MinY: 0, MaxX: 10, MaxY: 100}}
	app.onLayoutUpdate("floor1", bad, nil)

	if _, ok := app.Tracker.Get("floor1"); ok {
		t.Error("invalid rectangles should not create tracker state")
	}
}
