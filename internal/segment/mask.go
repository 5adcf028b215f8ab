package segment

import (
	"fmt"
	"image"
	"image/color"

	"github.com/MeKo-Tech/namescan/internal/mempool"
)

// Cell is the classification state of one mask position.
type Cell uint8

const (
	Background Cell = iota
	Ink
	Letter
	Noise
)

func (c Cell) String() string {
	switch c {
	case Background:
		return "background"
	case Ink:
		return "ink"
	case Letter:
		return "letter"
	case Noise:
		return "noise"
	default:
		return fmt.Sprintf("cell(%d)", uint8(c))
	}
}

// Mask is a row-major grid of cells with the same size as the image it was
// built from. The backing buffer comes from mempool; call Release when done.
type Mask struct {
	w, h  int
	cells []uint8
}

// NewMask classifies every pixel of img as Ink or Background.
func NewMask(img *image.NRGBA, tolerance uint8) *Mask {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	m := &Mask{w: w, h: h, cells: mempool.GetUint8(w * h)}

	for y := range h {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := range w {
			p := row[x*4 : x*4+4 : x*4+4]
			if !IsBackground(colorAt(p), tolerance) {
				m.cells[y*w+x] = uint8(Ink)
			}
		}
	}
	return m
}

// Width returns the mask width.
func (m *Mask) Width() int { return m.w }

// Height returns the mask height.
func (m *Mask) Height() int { return m.h }

// At returns the cell at (x, y).
func (m *Mask) At(x, y int) Cell {
	return Cell(m.cells[y*m.w+x])
}

// Release hands the backing buffer back to the pool. The mask must not be
// used afterwards.
func (m *Mask) Release() {
	if m == nil || m.cells == nil {
		return
	}
	mempool.PutUint8(m.cells)
	m.cells = nil
}

func colorAt(p []uint8) color.NRGBA {
	return color.NRGBA{R: p[0], G: p[1], B: p[2], A: p[3]}
}
