package viz

import (
	"math"
	"strings"
)

// Braille dot bits for a 2x4 cell:
//
//	1 4
//	2 5
//	3 6
//	7 8
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const brailleBlank = 0x2800

// Canvas is a Braille pixel canvas of Width x Height cells, i.e.
// (2*Width) x (4*Height) pixels.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set turns on the pixel at (x, y); y grows downwards.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// Plot draws ys against xs scaled to the whole canvas, joining consecutive
// finite points. It returns the y range used.
func (c *Canvas) Plot(xs, ys []float64) (ymin, ymax float64) {
	n := min(len(xs), len(ys))
	if n == 0 {
		return 0, 0
	}
	ymin, ymax = math.Inf(1), math.Inf(-1)
	for _, y := range ys[:n] {
		if !math.IsNaN(y) && !math.IsInf(y, 0) {
			ymin, ymax = math.Min(ymin, y), math.Max(ymax, y)
		}
	}
	if math.IsInf(ymin, 0) {
		return 0, 0
	}
	if ymax == ymin {
		ymin, ymax = ymin-1, ymax+1
	}
	xmin, xmax := xs[0], xs[n-1]
	if xmax == xmin {
		xmax = xmin + 1
	}

	pw, ph := 2*c.Width-1, 4*c.Height-1
	px := func(x float64) int { return int(math.Round((x - xmin) / (xmax - xmin) * float64(pw))) }
	py := func(y float64) int { return int(math.Round((ymax - y) / (ymax - ymin) * float64(ph))) }

	havePrev := false
	var x0, y0 int
	for i := 0; i < n; i++ {
		if math.IsNaN(ys[i]) || math.IsInf(ys[i], 0) {
			havePrev = false
			continue
		}
		x1, y1 := px(xs[i]), py(ys[i])
		if havePrev {
			c.DrawLine(x0, y0, x1, y1)
		} else {
			c.Set(x1, y1)
		}
		x0, y0, havePrev = x1, y1, true
	}
	return ymin, ymax
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
