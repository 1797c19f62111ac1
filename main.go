package main

import (
	"flag"
	"fmt"
)

// Version is set at build time via -ldflags
var Version = "dev"

var (
	configFile      = flag.String("config", "config.yaml", "Path to configuration file")
	layoutFile      = flag.String("layout", "", "Path to a layout JSON file (rectangle array)")
	layoutName      = flag.String("name", "layout", "Layout name used in service topics and endpoints")
	computeOnly     = flag.Bool("compute", false, "Compute boundaries for -layout and print them as JSON")
	renderOnly      = flag.Bool("render", false, "Render -layout with its boundaries and exit")
	renderFormat    = flag.String("format", "svg", "Render format: svg or png")
	outputFile      = flag.String("output", "", "Output file for -compute/-render (default: stdout / boundaries.<format>)")
	containerWidth  = flag.Float64("container-width", 0, "Container width override (0 = derive from layout)")
	containerHeight = flag.Float64("container-height", 0, "Container height override (0 = derive from layout)")
	gridSpacing     = flag.Float64("grid-spacing", 0, "Reference grid spacing for rendering (0 disables)")
	mqttMode        = flag.Bool("mqtt", false, "Run MQTT service mode for live layout tracking")
	httpMode        = flag.Bool("http", false, "Enable HTTP server for boundary and image endpoints")
	httpPort        = flag.Int("http-port", 8080, "HTTP server port (default 8080)")
)

func main() {
	flag.Parse()
	fmt.Printf("cellbounds version: %s\n", Version)

	app := NewApp()
	app.ApplyOptions(AppOptions{
		ConfigFile:      *configFile,
		LayoutFile:      *layoutFile,
		LayoutName:      *layoutName,
		RenderFormat:    *renderFormat,
		OutputFile:      *outputFile,
		ContainerWidth:  *containerWidth,
		ContainerHeight: *containerHeight,
		GridSpacing:     *gridSpacing,
		HttpPort:        *httpPort,
		MqttMode:        *mqttMode,
		HttpMode:        *httpMode,
	})

	switch {
	case *computeOnly:
		app.RunCompute()
	case *renderOnly:
		app.RunRender()
	case *mqttMode || *httpMode:
		app.RunService()
	default:
		fmt.Println("cellbounds computes midline boundaries between packed rectangles")
		fmt.Println()
		fmt.Println("Use -compute -layout=FILE to print boundary lines as JSON")
		fmt.Println("Use -render -layout=FILE to write an SVG or PNG of the partition")
		fmt.Println("Use -http to serve boundaries and rendered images over HTTP")
		fmt.Println("Use -mqtt to track layout topics and publish boundaries live")
		fmt.Println("Use -mqtt -http to run both together")
		fmt.Println()
		fmt.Println("Configuration:")
		fmt.Println("  config.yaml - MQTT settings and tracked layouts")
	}
}
