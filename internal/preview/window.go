package preview

// Viewport describes the scroll state used to compute a virtualization
// window. All dimensions are pixels; RowHeight must be positive.
type Viewport struct {
	ScrollTop int
	Height    int
	RowHeight int
	// Overscan is how many extra rows to render on each side of the visible
	// range so fast scrolling never exposes a blank strip.
	Overscan int
}

// Window is a half-open index range [Start, End) of rows to render, plus the
// padding heights that keep the scrollbar proportional to the full set.
type Window struct {
	Start     int `json:"start"`
	End       int `json:"end"`
	PadTop    int `json:"padTop"`
	PadBottom int `json:"padBottom"`
}

// Count returns how many rows the window renders.
func (w Window) Count() int {
	return w.End - w.Start
}

// ComputeWindow derives the render window for total rows under the given
// viewport. The window size is bounded by the visible row count plus twice
// the overscan, independent of total.
func ComputeWindow(total int, vp Viewport) Window {
	if total <= 0 || vp.RowHeight <= 0 {
		return Window{}
	}

	// Scroll positions outside the content (negative, or past the end) clamp
	// to the nearest valid row so the range below stays within [0, total].
	first := vp.ScrollTop / vp.RowHeight
	if first < 0 {
		first = 0
	}
	if first >= total {
		first = total - 1
	}
	visible := (vp.Height + vp.RowHeight - 1) / vp.RowHeight
	if visible < 0 {
		visible = 0
	}
	overscan := vp.Overscan
	if overscan < 0 {
		overscan = 0
	}

	start := first - overscan
	end := first + visible + overscan

	if start < 0 {
		start = 0
	}
	if end > total {
		end = total
	}
	if start > end {
		start = end
	}

	return Window{
		Start:     start,
		End:       end,
		PadTop:    start * vp.RowHeight,
		PadBottom: (total - end) * vp.RowHeight,
	}
}
