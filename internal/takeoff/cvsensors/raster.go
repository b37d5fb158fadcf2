package cvsensors

import "image"

// Raster is the single-page grayscale pixel buffer CV sensors operate on.
// The rasterizer (an external collaborator per spec §1) produces the PNG
// this wraps; everything downstream of this type is pure, deterministic
// Go with no I/O.
type Raster struct {
	Gray   *image.Gray
	Width  int
	Height int
}

// NewRaster builds a Raster from a decoded grayscale image.
func NewRaster(gray *image.Gray) *Raster {
	b := gray.Bounds()
	return &Raster{Gray: gray, Width: b.Dx(), Height: b.Dy()}
}

// At returns the 0-255 intensity at (x, y), 0 outside bounds.
func (r *Raster) At(x, y int) uint8 {
	if x < 0 || y < 0 || x >= r.Width || y >= r.Height {
		return 0
	}
	return r.Gray.GrayAt(x, y).Y
}

// region is a rectangular sub-window of the raster, used both for the four
// north-arrow corner regions and the single wall-edge scanning region.
type region struct {
	x0, y0, x1, y1 int // half-open [x0,x1) x [y0,y1)
	label          string
}

func (reg region) width() int  { return reg.x1 - reg.x0 }
func (reg region) height() int { return reg.y1 - reg.y0 }

// cornerRegions splits the page into four 25%-by-25% margin regions: north
// arrows live in drawing margins, not at the page center.
func cornerRegions(r *Raster) []region {
	hw, hh := r.Width/4, r.Height/4
	return []region{
		{0, 0, hw, hh, "top-left"},
		{r.Width - hw, 0, r.Width, hh, "top-right"},
		{0, r.Height - hh, hw, r.Height, "bottom-left"},
		{r.Width - hw, r.Height - hh, r.Width, r.Height, "bottom-right"},
	}
}

// grid3x3Label returns the label of the 3x3 grid cell containing (x, y),
// used for the wall-edge candidates' grid_position field.
func grid3x3Label(r *Raster, x, y int) string {
	col := x * 3 / max1(r.Width)
	row := y * 3 / max1(r.Height)
	col, row = clamp02(col), clamp02(row)
	cols := []string{"left", "center", "right"}
	rows := []string{"top", "middle", "bottom"}
	return rows[row] + "-" + cols[col]
}

func max1(v int) int {
	if v <= 0 {
		return 1
	}
	return v
}

func clamp02(v int) int {
	if v < 0 {
		return 0
	}
	if v > 2 {
		return 2
	}
	return v
}
