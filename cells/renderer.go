package cells

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"github.com/tdewolff/canvas/renderers/svg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// DefaultPalette returns distinct fill colors cycled over the input
// rectangles so neighboring regions are easy to tell apart.
func DefaultPalette() []color.NRGBA {
	return []color.NRGBA{
		{100, 149, 237, 180}, // cornflower blue
		{255, 99, 71, 150},   // tomato
		{144, 238, 144, 150}, // light green
		{255, 255, 150, 150}, // light yellow
		{216, 191, 216, 180}, // thistle
		{255, 178, 102, 160}, // light orange
	}
}

// nrgbaToRGBA converts color.NRGBA to premultiplied color.RGBA, which the
// canvas library expects.
func nrgbaToRGBA(c color.NRGBA) color.RGBA {
	if c.A == 0 {
		return color.RGBA{0, 0, 0, 0}
	}
	if c.A == 255 {
		return color.RGBA{c.R, c.G, c.B, 255}
	}
	alpha32 := uint32(c.A)
	return color.RGBA{
		R: uint8((uint32(c.R) * alpha32) / 255),
		G: uint8((uint32(c.G) * alpha32) / 255),
		B: uint8((uint32(c.B) * alpha32) / 255),
		A: c.A,
	}
}

// BoundaryRenderer draws a layout and its computed boundary network as
// vector graphics: input rectangles filled with palette colors, boundary
// lines stroked on top, plus an optional dashed reference grid. It consumes
// only the Rect and Line shapes, never the pipeline internals.
type BoundaryRenderer struct {
	Rects       []Rect
	Lines       []Line
	Padding     float64           // world units of whitespace around the drawing
	StrokeWidth float64           // boundary line width in world units
	GridSpacing float64           // dashed reference grid spacing; 0 disables
	Resolution  canvas.Resolution // PNG output resolution
	Palette     []color.NRGBA
	LineColor   color.NRGBA
	Labels      bool // draw rectangle indices on the PNG output
}

// NewBoundaryRenderer creates a renderer with default settings for the given
// layout and boundary lines.
func NewBoundaryRenderer(rects []Rect, lines []Line) *BoundaryRenderer {
	return &BoundaryRenderer{
		Rects:       rects,
		Lines:       lines,
		Padding:     20.0,
		StrokeWidth: 2.0,
		GridSpacing: 0,
		Resolution:  canvas.DPI(300),
		Palette:     DefaultPalette(),
		LineColor:   color.NRGBA{30, 30, 30, 255},
		Labels:      true,
	}
}

// canvasRenderer is the subset of the svg and rasterizer renderers the
// drawing code needs.
type canvasRenderer interface {
	RenderPath(path *canvas.Path, style canvas.Style, m canvas.Matrix)
}

// RenderToSVG writes the drawing as an SVG document.
func (r *BoundaryRenderer) RenderToSVG(w io.Writer) error {
	minX, minY, width, height := r.worldBounds()

	svgRenderer := svg.New(w, width, height, nil)
	r.renderToCanvas(svgRenderer, minX, minY, width, height)
	return svgRenderer.Close()
}

// RenderToPNG writes the drawing as a PNG image.
func (r *BoundaryRenderer) RenderToPNG(w io.Writer) error {
	minX, minY, width, height := r.worldBounds()

	rast := rasterizer.New(width, height, r.Resolution, canvas.DefaultColorSpace)
	r.renderToCanvas(rast, minX, minY, width, height)

	if r.Labels {
		r.drawLabels(rast, minX, minY, width, height)
	}
	return png.Encode(w, rast)
}

// worldBounds returns the drawing origin and the padded canvas size.
func (r *BoundaryRenderer) worldBounds() (minX, minY, width, height float64) {
	minX, minY = math.MaxFloat64, math.MaxFloat64
	maxX, maxY := -math.MaxFloat64, -math.MaxFloat64

	extend := func(x, y float64) {
		minX = math.Min(minX, x)
		minY = math.Min(minY, y)
		maxX = math.Max(maxX, x)
		maxY = math.Max(maxY, y)
	}
	for _, rect := range r.Rects {
		extend(rect.MinX, rect.MinY)
		extend(rect.MaxX, rect.MaxY)
	}
	for _, l := range r.Lines {
		extend(l.Start.X, l.Start.Y)
		extend(l.End.X, l.End.Y)
	}
	if len(r.Rects) == 0 && len(r.Lines) == 0 {
		minX, minY, maxX, maxY = 0, 0, 1, 1
	}

	width = (maxX - minX) + 2*r.Padding
	height = (maxY - minY) + 2*r.Padding
	return minX, minY, width, height
}

// renderToCanvas draws the layout onto a canvas renderer; shared by the SVG
// and PNG paths.
func (r *BoundaryRenderer) renderToCanvas(renderer canvasRenderer, minX, minY, width, height float64) {
	toCanvas := func(x, y float64) (float64, float64) {
		return (x - minX) + r.Padding, (y - minY) + r.Padding
	}

	// White background.
	bgStyle := canvas.DefaultStyle
	bgStyle.Fill = canvas.Paint{Color: canvas.White}
	renderer.RenderPath(canvas.Rectangle(width, height), bgStyle, canvas.Identity)

	// Reference grid under everything else.
	if r.GridSpacing > 0 {
		gridStyle := canvas.DefaultStyle
		gridStyle.Fill = canvas.Paint{Color: canvas.Transparent}
		gridStyle.Stroke = canvas.Paint{Color: canvas.Gray}
		gridStyle.StrokeWidth = r.StrokeWidth / 4
		gridStyle.Dashes = []float64{4.0, 4.0}

		for x := math.Floor(minX/r.GridSpacing) * r.GridSpacing; x <= minX+width; x += r.GridSpacing {
			p := &canvas.Path{}
			x1, y1 := toCanvas(x, minY-r.Padding)
			x2, y2 := toCanvas(x, minY+height)
			p.MoveTo(x1, y1)
			p.LineTo(x2, y2)
			renderer.RenderPath(p, gridStyle, canvas.Identity)
		}
		for y := math.Floor(minY/r.GridSpacing) * r.GridSpacing; y <= minY+height; y += r.GridSpacing {
			p := &canvas.Path{}
			x1, y1 := toCanvas(minX-r.Padding, y)
			x2, y2 := toCanvas(minX+width, y)
			p.MoveTo(x1, y1)
			p.LineTo(x2, y2)
			renderer.RenderPath(p, gridStyle, canvas.Identity)
		}
	}

	// Input rectangles, filled.
	palette := r.Palette
	if len(palette) == 0 {
		palette = DefaultPalette()
	}
	for i, rect := range r.Rects {
		fillStyle := canvas.DefaultStyle
		fillStyle.Fill = canvas.Paint{Color: nrgbaToRGBA(palette[i%len(palette)])}
		fillStyle.Stroke = canvas.Paint{Color: canvas.Black}
		fillStyle.StrokeWidth = r.StrokeWidth / 2

		p := &canvas.Path{}
		x1, y1 := toCanvas(rect.MinX, rect.MinY)
		x2, y2 := toCanvas(rect.MaxX, rect.MaxY)
		p.MoveTo(x1, y1)
		p.LineTo(x2, y1)
		p.LineTo(x2, y2)
		p.LineTo(x1, y2)
		p.Close()
		renderer.RenderPath(p, fillStyle, canvas.Identity)
	}

	// Boundary lines on top.
	lineStyle := canvas.DefaultStyle
	lineStyle.Fill = canvas.Paint{Color: canvas.Transparent}
	lineStyle.Stroke = canvas.Paint{Color: nrgbaToRGBA(r.LineColor)}
	lineStyle.StrokeWidth = r.StrokeWidth

	for _, l := range r.Lines {
		p := &canvas.Path{}
		x1, y1 := toCanvas(l.Start.X, l.Start.Y)
		x2, y2 := toCanvas(l.End.X, l.End.Y)
		p.MoveTo(x1, y1)
		p.LineTo(x2, y2)
		renderer.RenderPath(p, lineStyle, canvas.Identity)
	}
}

// drawLabels writes each rectangle's index at its center on the rasterized
// image. The canvas y-axis points up while the image y-axis points down, so
// the vertical coordinate is flipped.
func (r *BoundaryRenderer) drawLabels(rast *rasterizer.Rasterizer, minX, minY, width, height float64) {
	b := rast.Bounds()
	sx := float64(b.Dx()) / width
	sy := float64(b.Dy()) / height

	drawer := &font.Drawer{
		Dst:  rast,
		Src:  image.NewUniform(color.RGBA{0, 0, 0, 255}),
		Face: basicfont.Face7x13,
	}

	for i, rect := range r.Rects {
		cx := ((rect.MinX+rect.MaxX)/2 - minX) + r.Padding
		cy := ((rect.MinY+rect.MaxY)/2 - minY) + r.Padding

		label := fmt.Sprintf("%d", i)
		px := int(cx * sx)
		py := b.Dy() - int(cy*sy)

		drawer.Dot = fixed.P(px-len(label)*basicfont.Face7x13.Advance/2, py)
		drawer.DrawString(label)
	}
}
