package segment

import (
	"fmt"

	"github.com/MeKo-Tech/namescan/internal/mempool"
)

// maskFromCells builds a mask from an explicit cell grid.
func maskFromCells(w, h int, cells []Cell) (*Mask, error) {
	if w <= 0 || h <= 0 || len(cells) != w*h {
		return nil, fmt.Errorf("%w: %d cells for %dx%d mask", ErrDefect, len(cells), w, h)
	}
	m := &Mask{w: w, h: h, cells: mempool.GetUint8(w * h)}
	for i, c := range cells {
		m.cells[i] = uint8(c)
	}
	return m, nil
}

func countCells(m *Mask, c Cell) int {
	n := 0
	for _, v := range m.cells {
		if Cell(v) == c {
			n++
		}
	}
	return n
}
