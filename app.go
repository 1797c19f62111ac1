package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/kwv/cellbounds/cells"
)

// App encapsulates the application state and dependencies.
type App struct {
	Config     *cells.Config
	Tracker    *cells.LayoutTracker
	MQTTClient *cells.MQTTClient
	Publisher  *cells.Publisher

	// CLI flags (effectively dependencies)
	ConfigFile      string
	LayoutFile      string
	LayoutName      string
	RenderFormat    string
	OutputFile      string
	ContainerWidth  float64
	ContainerHeight float64
	GridSpacing     float64
	HttpPort        int
	MqttMode        bool
	HttpMode        bool
}

// AppOptions carries parsed CLI flags into the App.
type AppOptions struct {
	ConfigFile      string
	LayoutFile      string
	LayoutName      string
	RenderFormat    string
	OutputFile      string
	ContainerWidth  float64
	ContainerHeight float64
	GridSpacing     float64
	HttpPort        int
	MqttMode        bool
	HttpMode        bool
}

// NewApp creates a new App instance.
func NewApp() *App {
	return &App{}
}

// ApplyOptions applies CLI options to the App instance.
func (a *App) ApplyOptions(opts AppOptions) {
	a.ConfigFile = opts.ConfigFile
	a.LayoutFile = opts.LayoutFile
	a.LayoutName = opts.LayoutName
	a.RenderFormat = opts.RenderFormat
	a.OutputFile = opts.OutputFile
	a.ContainerWidth = opts.ContainerWidth
	a.ContainerHeight = opts.ContainerHeight
	a.GridSpacing = opts.GridSpacing
	a.HttpPort = opts.HttpPort
	a.MqttMode = opts.MqttMode
	a.HttpMode = opts.HttpMode
}

// pipelineOptions builds pipeline options from the CLI flags.
func (a *App) pipelineOptions() cells.Options {
	return cells.Options{
		ContainerWidth:  a.ContainerWidth,
		ContainerHeight: a.ContainerHeight,
	}
}

// loadLayoutFlag loads the layout file given on the command line.
func (a *App) loadLayoutFlag() []cells.Rect {
	if a.LayoutFile == "" {
		log.Fatal("No layout file given (use -layout=FILE)")
	}
	rects, err := cells.LoadLayout(a.LayoutFile)
	if err != nil {
		log.Fatalf("Error loading layout: %v", err)
	}
	return rects
}

// RunCompute computes boundaries for the -layout file and prints them as a
// JSON line array to stdout or -output.
func (a *App) RunCompute() {
	rects := a.loadLayoutFlag()

	lines, err := cells.CalculateBoundariesWithOptions(rects, a.pipelineOptions())
	if err != nil {
		log.Fatalf("Error computing boundaries: %v", err)
	}

	data, err := json.MarshalIndent(lines, "", "  ")
	if err != nil {
		log.Fatalf("Error encoding boundaries: %v", err)
	}

	if a.OutputFile == "" {
		fmt.Println(string(data))
		fmt.Printf("\n%d rectangles, %d boundary lines\n", len(rects), len(lines))
		return
	}
	if err := os.WriteFile(a.OutputFile, data, 0644); err != nil {
		log.Fatalf("Error writing %s: %v", a.OutputFile, err)
	}
	fmt.Printf("Wrote %d boundary lines to %s\n", len(lines), a.OutputFile)
}

// RunRender computes boundaries for the -layout file and writes an SVG or
// PNG of the partition.
func (a *App) RunRender() {
	rects := a.loadLayoutFlag()

	lines, err := cells.CalculateBoundariesWithOptions(rects, a.pipelineOptions())
	if err != nil {
		log.Fatalf("Error computing boundaries: %v", err)
	}

	format := strings.ToLower(a.RenderFormat)
	if format != "svg" && format != "png" {
		log.Fatalf("Unknown render format %q (want svg or png)", a.RenderFormat)
	}

	output := a.OutputFile
	if output == "" {
		base := strings.TrimSuffix(filepath.Base(a.LayoutFile), filepath.Ext(a.LayoutFile))
		output = fmt.Sprintf("%s-boundaries.%s", base, format)
	}

	renderer := cells.NewBoundaryRenderer(rects, lines)
	renderer.GridSpacing = a.GridSpacing

	f, err := os.Create(output)
	if err != nil {
		log.Fatalf("Error creating %s: %v", output, err)
	}
	defer f.Close()

	if format == "svg" {
		err = renderer.RenderToSVG(f)
	} else {
		err = renderer.RenderToPNG(f)
	}
	if err != nil {
		log.Fatalf("Error rendering %s: %v", output, err)
	}

	fmt.Printf("Rendered %d rectangles and %d boundary lines to %s\n", len(rects), len(lines), output)
}

// RunService runs the MQTT and/or HTTP service modes until interrupted.
func (a *App) RunService() {
	config, err := cells.LoadConfig(a.ConfigFile)
	if err != nil {
		if a.MqttMode {
			log.Fatalf("Error loading config: %v", err)
		}
		// HTTP-only mode works without a config file.
		log.Printf("No config loaded (%v), starting with empty state", err)
		config = &cells.Config{}
	}
	a.Config = config
	a.Tracker = cells.NewLayoutTrackerWithOptions(a.pipelineOptions())

	// Seed layouts from configured files so endpoints have content at boot.
	for _, lc := range config.Layouts {
		if lc.File == "" {
			continue
		}
		rects, err := cells.LoadLayout(lc.File)
		if err != nil {
			log.Printf("Warning: layout %s: %v", lc.Name, err)
			continue
		}
		if _, _, err := a.Tracker.Update(lc.Name, rects); err != nil {
			log.Printf("Warning: layout %s: %v", lc.Name, err)
			continue
		}
		log.Printf("Seeded layout %s from %s (%d rects)", lc.Name, lc.File, len(rects))
	}

	// A -layout flag adds one more tracked layout.
	if a.LayoutFile != "" {
		rects, err := cells.LoadLayout(a.LayoutFile)
		if err != nil {
			log.Fatalf("Error loading layout: %v", err)
		}
		if _, _, err := a.Tracker.Update(a.LayoutName, rects); err != nil {
			log.Fatalf("Error computing boundaries: %v", err)
		}
	}

	if a.MqttMode {
		a.startMQTT()
	}
	if a.HttpMode {
		a.startHTTP()
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	log.Println("Shutting down...")
	if a.MQTTClient != nil {
		a.MQTTClient.Disconnect()
	}
}

// startMQTT connects the MQTT client and wires layout updates into the
// tracker and the boundary publisher.
func (a *App) startMQTT() {
	client, err := cells.InitMQTT(a.Config, a.onLayoutUpdate)
	if err != nil {
		log.Fatalf("Error initializing MQTT: %v", err)
	}
	if client == nil {
		log.Println("MQTT mode requested but no broker configured")
		return
	}
	a.MQTTClient = client
	a.Publisher = cells.NewPublisher(client.GetClient())
}

// onLayoutUpdate recomputes and republishes boundaries when a layout topic
// delivers new rectangles. Unchanged geometry is served from the memoized
// state without a publish.
func (a *App) onLayoutUpdate(layoutName string, rects []cells.Rect, err error) {
	if err != nil {
		log.Printf("Layout %s update rejected: %v", layoutName, err)
		return
	}

	lines, recomputed, err := a.Tracker.Update(layoutName, rects)
	if err != nil {
		log.Printf("Layout %s boundary computation failed: %v", layoutName, err)
		return
	}
	if !recomputed {
		return
	}

	if a.Publisher != nil {
		if err := a.Publisher.PublishBoundaries(layoutName, lines); err != nil {
			log.Printf("Layout %s publish failed: %v", layoutName, err)
		}
	}
}

// startHTTP starts the HTTP server in a goroutine.
func (a *App) startHTTP() {
	handler := newHTTPServer(a.Tracker, a.Config, a.GridSpacing)
	addr := fmt.Sprintf(":%d", a.HttpPort)

	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Printf("[HTTP] Listening on %s", addr)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()
}
