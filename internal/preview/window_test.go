package preview

import "testing"

func TestComputeWindow(t *testing.T) {
	tests := []struct {
		name  string
		total int
		vp    Viewport
		want  Window
	}{
		{
			name:  "top of list",
			total: 1000,
			vp:    Viewport{ScrollTop: 0, Height: 400, RowHeight: 40, Overscan: 3},
			want:  Window{Start: 0, End: 13, PadTop: 0, PadBottom: 39480},
		},
		{
			name:  "mid scroll",
			total: 1000,
			vp:    Viewport{ScrollTop: 4000, Height: 400, RowHeight: 40, Overscan: 3},
			want:  Window{Start: 97, End: 113, PadTop: 3880, PadBottom: 35480},
		},
		{
			name:  "bottom of list",
			total: 120,
			vp:    Viewport{ScrollTop: 4400, Height: 400, RowHeight: 40, Overscan: 3},
			want:  Window{Start: 107, End: 120, PadTop: 4280, PadBottom: 0},
		},
		{
			name:  "fewer rows than viewport",
			total: 5,
			vp:    Viewport{ScrollTop: 0, Height: 400, RowHeight: 40, Overscan: 3},
			want:  Window{Start: 0, End: 5, PadTop: 0, PadBottom: 0},
		},
		{
			name:  "partial row at viewport edge rounds up",
			total: 1000,
			vp:    Viewport{ScrollTop: 0, Height: 410, RowHeight: 40, Overscan: 0},
			want:  Window{Start: 0, End: 11, PadTop: 0, PadBottom: 39560},
		},
		{
			name:  "empty set",
			total: 0,
			vp:    Viewport{ScrollTop: 0, Height: 400, RowHeight: 40, Overscan: 3},
			want:  Window{},
		},
		{
			name:  "zero row height",
			total: 100,
			vp:    Viewport{ScrollTop: 0, Height: 400, RowHeight: 0, Overscan: 3},
			want:  Window{},
		},
		{
			name:  "negative scroll clamps to top",
			total: 3,
			vp:    Viewport{ScrollTop: -1000, Height: 600, RowHeight: 32, Overscan: 5},
			want:  Window{Start: 0, End: 3, PadTop: 0, PadBottom: 0},
		},
		{
			name:  "scroll far past end clamps to last row",
			total: 10,
			vp:    Viewport{ScrollTop: 100000, Height: 400, RowHeight: 40, Overscan: 3},
			want:  Window{Start: 6, End: 10, PadTop: 240, PadBottom: 0},
		},
		{
			name:  "negative height renders overscan only",
			total: 100,
			vp:    Viewport{ScrollTop: 400, Height: -200, RowHeight: 40, Overscan: 2},
			want:  Window{Start: 8, End: 12, PadTop: 320, PadBottom: 3520},
		},
		{
			name:  "negative overscan treated as zero",
			total: 100,
			vp:    Viewport{ScrollTop: 0, Height: 400, RowHeight: 40, Overscan: -3},
			want:  Window{Start: 0, End: 10, PadTop: 0, PadBottom: 3600},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeWindow(tt.total, tt.vp)
			if got != tt.want {
				t.Errorf("ComputeWindow(%d, %+v) = %+v, want %+v", tt.total, tt.vp, got, tt.want)
			}
		})
	}
}

// The rendered row count never exceeds visible+2*overscan no matter how many
// rows exist or where the scroll sits.
func TestComputeWindow_BoundedByViewport(t *testing.T) {
	vp := Viewport{Height: 400, RowHeight: 40, Overscan: 5}
	visible := (vp.Height + vp.RowHeight - 1) / vp.RowHeight
	bound := visible + 2*vp.Overscan

	for _, total := range []int{1, 10, 100, 10000, 100000} {
		for _, scroll := range []int{-5000, -1, 0, 37, 400, 39999, total * vp.RowHeight} {
			vp.ScrollTop = scroll
			w := ComputeWindow(total, vp)
			if w.Count() > bound {
				t.Errorf("total=%d scroll=%d: rendered %d rows, bound %d",
					total, scroll, w.Count(), bound)
			}
			if w.Start < 0 || w.End > total {
				t.Errorf("total=%d scroll=%d: window [%d,%d) out of range",
					total, scroll, w.Start, w.End)
			}
		}
	}
}

func TestComputeWindow_PaddingPreservesTotalHeight(t *testing.T) {
	vp := Viewport{ScrollTop: 4000, Height: 400, RowHeight: 40, Overscan: 3}
	total := 1000

	w := ComputeWindow(total, vp)
	height := w.PadTop + w.Count()*vp.RowHeight + w.PadBottom
	if want := total * vp.RowHeight; height != want {
		t.Errorf("padded height = %d, want %d", height, want)
	}
}
