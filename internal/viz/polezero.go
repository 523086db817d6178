package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/ltilab/internal/response"
)

// PoleZeroMap draws the s-plane on a width x height character grid. Poles
// are 'x', zeros 'o' and a pole on a zero '*'. The axes cross at the origin
// and the view is symmetric around it, sized to the largest root.
func PoleZeroMap(poles, zeros []response.Root, width, height int) string {
	if width < 5 {
		width = 5
	}
	if height < 3 {
		height = 3
	}
	if width%2 == 0 {
		width++
	}
	if height%2 == 0 {
		height++
	}

	extent := 1.0
	for _, r := range append(append([]response.Root{}, poles...), zeros...) {
		extent = math.Max(extent, math.Max(math.Abs(r.Re), math.Abs(r.Im)))
	}
	extent *= 1.1

	grid := make([][]rune, height)
	cx, cy := width/2, height/2
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", width))
		grid[i][cx] = '│'
	}
	for j := range grid[cy] {
		grid[cy][j] = '─'
	}
	grid[cy][cx] = '┼'

	place := func(r response.Root, mark rune) {
		col := cx + int(math.Round(r.Re/extent*float64(cx)))
		row := cy - int(math.Round(r.Im/extent*float64(cy)))
		if col < 0 || col >= width || row < 0 || row >= height {
			return
		}
		switch grid[row][col] {
		case 'x', 'o', '*':
			if grid[row][col] != mark {
				mark = '*'
			}
		}
		grid[row][col] = mark
	}
	for _, z := range zeros {
		place(z, 'o')
	}
	for _, p := range poles {
		place(p, 'x')
	}

	var b strings.Builder
	for _, row := range grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "Re, Im in [%.3g, %.3g]   x pole   o zero", -extent, extent)
	return b.String()
}
