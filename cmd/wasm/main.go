//go:build js && wasm

package main

import (
	"syscall/js"

	"github.com/pgdash/canvaschart/internal/bridge"
	"github.com/pgdash/canvaschart/internal/chart"
	"github.com/pgdash/canvaschart/internal/engine"
)

var eng *bridge.Engine

// canvasMeasurer measures text with an offscreen 2D context so widths match
// what the browser draws.
type canvasMeasurer struct {
	ctx js.Value
}

func newCanvasMeasurer() engine.TextMeasurer {
	canvas := js.Global().Get("OffscreenCanvas")
	if canvas.IsUndefined() {
		return nil
	}
	return &canvasMeasurer{ctx: canvas.New(1, 1).Call("getContext", "2d")}
}

func (m *canvasMeasurer) MeasureText(s string, f engine.Font) float64 {
	m.ctx.Set("font", f.String())
	return m.ctx.Call("measureText", s).Get("width").Float()
}

func main() {
	opts := chart.Options{}
	if m := newCanvasMeasurer(); m != nil {
		opts.Measurer = m
	}
	eng = bridge.NewEngine(opts)

	api := js.Global().Get("Object").New()

	// --- Commands (frontend → backend) ---
	api.Set("loadDocument", js.FuncOf(loadDocument))
	api.Set("loadSampleDocument", js.FuncOf(loadSampleDocument))
	api.Set("input", js.FuncOf(input))
	api.Set("resize", js.FuncOf(resize))
	api.Set("setView", js.FuncOf(setView))
	api.Set("setEventsDisabled", js.FuncOf(setEventsDisabled))
	api.Set("setSelection", js.FuncOf(setSelection))
	api.Set("tick", js.FuncOf(tick))
	api.Set("close", js.FuncOf(closeChart))

	// --- Queries (frontend ← backend) ---
	api.Set("render", js.FuncOf(render))
	api.Set("drainEvents", js.FuncOf(drainEvents))
	api.Set("hitTest", js.FuncOf(hitTest))
	api.Set("getSelectionBounds", js.FuncOf(getSelectionBounds))
	api.Set("getView", js.FuncOf(getView))
	api.Set("getTransform", js.FuncOf(getTransform))
	api.Set("screenToData", js.FuncOf(screenToData))

	js.Global().Set("canvasChart", api)
	js.Global().Set("canvasChartReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func result(err error) any {
	if err != nil {
		return js.ValueOf(map[string]any{"error": err.Error()})
	}
	return js.ValueOf(map[string]any{"ok": true})
}

func missing(what string) any {
	return js.ValueOf(map[string]any{"error": "missing " + what})
}

// --- Command Handlers ---

func loadDocument(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return missing("document JSON")
	}
	return result(eng.LoadDocument(args[0].String()))
}

func loadSampleDocument(this js.Value, args []js.Value) any {
	kind := ""
	if len(args) > 0 && args[0].Type() == js.TypeString {
		kind = args[0].String()
	}
	return result(eng.LoadSampleDocument(kind))
}

func input(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return missing("event JSON")
	}
	return result(eng.Input(args[0].String()))
}

func resize(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return missing("size")
	}
	ratio := 1.0
	if len(args) > 2 && args[2].Type() == js.TypeNumber {
		ratio = args[2].Float()
	}
	return result(eng.Resize(args[0].Float(), args[1].Float(), ratio))
}

func setView(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return missing("view JSON")
	}
	return result(eng.SetView(args[0].String()))
}

func setEventsDisabled(this js.Value, args []js.Value) any {
	disabled := len(args) > 0 && args[0].Truthy()
	return result(eng.SetEventsDisabled(disabled))
}

func setSelection(this js.Value, args []js.Value) any {
	if len(args) < 1 || args[0].Type() != js.TypeObject {
		eng.SetSelection(nil)
		return nil
	}
	arr := args[0]
	ids := make([]string, arr.Length())
	for i := range ids {
		ids[i] = arr.Index(i).String()
	}
	eng.SetSelection(ids)
	return nil
}

func tick(this js.Value, args []js.Value) any {
	return js.ValueOf(eng.Tick())
}

func closeChart(this js.Value, args []js.Value) any {
	eng.Close()
	return nil
}

// --- Query Handlers ---

func render(this js.Value, args []js.Value) any {
	return js.ValueOf(eng.Render())
}

func drainEvents(this js.Value, args []js.Value) any {
	return js.ValueOf(eng.DrainEvents())
}

func hitTest(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return js.ValueOf("")
	}
	return js.ValueOf(eng.HitTest(args[0].Float(), args[1].Float()))
}

func getSelectionBounds(this js.Value, args []js.Value) any {
	return js.ValueOf(eng.GetSelectionBounds())
}

func getView(this js.Value, args []js.Value) any {
	return js.ValueOf(eng.GetView())
}

func getTransform(this js.Value, args []js.Value) any {
	m := eng.Transform()
	if m == nil {
		return js.Null()
	}
	out := make([]any, len(m))
	for i, v := range m {
		out[i] = v
	}
	return js.ValueOf(out)
}

func screenToData(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return js.Null()
	}
	x, y := eng.ScreenToData(args[0].Float(), args[1].Float())
	return js.ValueOf(map[string]any{"x": x, "y": y})
}
