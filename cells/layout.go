package cells

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
)

// rectJSON accepts both rectangle forms that appear in layout files:
// {minX,minY,maxX,maxY} and {x,y,width,height}. ParseLayout normalizes to
// Rect once at the boundary.
type rectJSON struct {
	MinX   *float64 `json:"minX"`
	MinY   *float64 `json:"minY"`
	MaxX   *float64 `json:"maxX"`
	MaxY   *float64 `json:"maxY"`
	X      *float64 `json:"x"`
	Y      *float64 `json:"y"`
	Width  *float64 `json:"width"`
	Height *float64 `json:"height"`
}

// ParseLayout decodes a JSON array of rectangles. Either rectangle form is
// accepted per entry; mixed files work. The parsed rectangles are validated.
func ParseLayout(data []byte) ([]Rect, error) {
	var raw []rectJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing layout JSON: %w", err)
	}

	rects := make([]Rect, len(raw))
	for i, e := range raw {
		switch {
		case e.MinX != nil && e.MinY != nil && e.MaxX != nil && e.MaxY != nil:
			rects[i] = Rect{MinX: *e.MinX, MinY: *e.MinY, MaxX: *e.MaxX, MaxY: *e.MaxY}
		case e.X != nil && e.Y != nil && e.Width != nil && e.Height != nil:
			rects[i] = RectFromXYWH(*e.X, *e.Y, *e.Width, *e.Height)
		default:
			return nil, fmt.Errorf("layout entry %d: need minX/minY/maxX/maxY or x/y/width/height", i)
		}
	}

	if err := ValidateRects(rects); err != nil {
		return nil, err
	}
	return rects, nil
}

// LoadLayout reads and parses a layout JSON file.
func LoadLayout(path string) ([]Rect, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("layout file not found: %s", path)
		}
		return nil, fmt.Errorf("reading layout file: %w", err)
	}
	return ParseLayout(data)
}

// SaveLayout writes rectangles to a layout JSON file in the min/max form.
func SaveLayout(path string, rects []Rect) error {
	data, err := json.MarshalIndent(rects, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling layout JSON: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing layout file: %w", err)
	}
	return nil
}

// Fingerprint returns a canonical hash of a rectangle set. The hash is
// independent of slice order, so it identifies the geometric content of a
// layout: callers use it to memoize boundary computations across repeated
// updates (e.g. drag-move storms from an interactive editor).
func Fingerprint(rects []Rect) string {
	h := sha256.New()
	for _, r := range sortedRects(rects) {
		fmt.Fprintf(h, "%x:%x:%x:%x;", r.MinX, r.MinY, r.MaxX, r.MaxY)
	}
	return hex.EncodeToString(h.Sum(nil))
}
