package engine

import (
	"encoding/json"

	"github.com/pgdash/canvaschart/internal/geometry"
)

// Draw command ops.
const (
	OpPath  = "path"
	OpText  = "text"
	OpImage = "image"
)

// DrawCommand represents a single drawing operation in screen space.
// Both backends consume the same buffer, so any geometry decision lives in
// the resolver and never in a backend.
type DrawCommand struct {
	Op       string        `json:"op"`                 // "path", "text", "image"
	ObjectID string        `json:"objectId,omitempty"` // For hit correlation
	Path     geometry.Path `json:"path,omitempty"`     // Path data for "path" ops

	Fill         string    `json:"fill,omitempty"`         // Fill color
	FillGradient *Gradient `json:"fillGradient,omitempty"` // Overrides Fill when set
	Stroke       string    `json:"stroke,omitempty"`       // Stroke color
	StrokeWidth  float64   `json:"strokeWidth,omitempty"`  // Stroke width
	LineDash     []float64 `json:"lineDash,omitempty"`
	Opacity      float64   `json:"opacity"` // Global alpha

	// Text ops: X is the left edge, Y the alphabetic baseline.
	Text string  `json:"text,omitempty"`
	Font *Font   `json:"font,omitempty"`
	X    float64 `json:"x,omitempty"`
	Y    float64 `json:"y,omitempty"`

	// Image ops: (X, Y) is the top-left corner.
	ImageSrc string  `json:"imageSrc,omitempty"`
	Width    float64 `json:"width,omitempty"`
	Height   float64 `json:"height,omitempty"`

	Bounds Rect `json:"bounds"`
}

// Gradient is a linear gradient in screen space.
type Gradient struct {
	X0    float64        `json:"x0"`
	Y0    float64        `json:"y0"`
	X1    float64        `json:"x1"`
	Y1    float64        `json:"y1"`
	Stops []GradientStop `json:"stops"`
}

// GradientStop is a color at an offset in [0, 1].
type GradientStop struct {
	Offset float64 `json:"offset"`
	Color  string  `json:"color"`
}

// DrawCommandsToJSON serializes draw commands to JSON.
func DrawCommandsToJSON(commands []DrawCommand) (string, error) {
	data, err := json.Marshal(commands)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}

// HitTestResult contains information about a hit test.
type HitTestResult struct {
	ObjectID string  `json:"objectId"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// HitTest returns the ID of the topmost command whose bounds contain the
// screen point, or an empty string.
func HitTest(commands []DrawCommand, x, y float64) string {
	// Painter's order: walk back to front.
	for i := len(commands) - 1; i >= 0; i-- {
		cmd := commands[i]
		if cmd.ObjectID == "" || cmd.Bounds.IsEmpty() {
			continue
		}
		if cmd.Bounds.Contains(x, y) {
			return cmd.ObjectID
		}
	}
	return ""
}

// SelectionBounds returns the combined bounding box of every command
// carrying one of the given object IDs.
func SelectionBounds(commands []DrawCommand, objectIDs []string) Rect {
	if len(objectIDs) == 0 {
		return Rect{}
	}
	want := make(map[string]bool, len(objectIDs))
	for _, id := range objectIDs {
		want[id] = true
	}

	var result Rect
	for _, cmd := range commands {
		if !want[cmd.ObjectID] || cmd.Bounds.IsEmpty() {
			continue
		}
		result = result.Union(cmd.Bounds)
	}
	return result
}
