package segment

import (
	"context"

	"github.com/MeKo-Tech/namescan/internal/mempool"
)

// Stats summarises one segmentation run.
type Stats struct {
	Seeds           int `json:"seeds"`
	Letters         int `json:"letters"`
	NoiseComponents int `json:"noise_components"`
	LetterPixels    int `json:"letter_pixels"`
	NoisePixels     int `json:"noise_pixels"`
}

// 8-neighbourhood offsets.
var (
	dx = [8]int{-1, 0, 1, -1, 1, -1, 0, 1}
	dy = [8]int{-1, -1, -1, 0, 0, 1, 1, 1}
)

// Segment labels every ink component reachable from the horizontal midline
// as Letter or Noise. A component is Noise when it holds more than
// maxLetterPixels cells or touches the image border. Ink the midline never
// reaches keeps its Ink label and is rendered as background.
func (m *Mask) Segment(maxLetterPixels int) Stats {
	st, _ := m.SegmentContext(context.Background(), maxLetterPixels)
	return st
}

// SegmentContext is Segment with cooperative cancellation between seeds.
// On cancellation the mask is left partially labelled and ctx.Err() is
// returned.
func (m *Mask) SegmentContext(ctx context.Context, maxLetterPixels int) (Stats, error) {
	var st Stats
	if m.w == 0 || m.h == 0 {
		return st, nil
	}

	mid := m.h / 2
	queue := mempool.GetInt32(m.w * 4)
	defer func() { mempool.PutInt32(queue) }()

	for x := range m.w {
		idx := mid*m.w + x
		if Cell(m.cells[idx]) != Ink {
			// Background, or already resolved by an earlier seed's growth.
			continue
		}
		if err := ctx.Err(); err != nil {
			return st, err
		}
		st.Seeds++

		var label Cell
		queue, label = m.grow(queue[:0], idx, maxLetterPixels)
		for _, i := range queue {
			m.cells[i] = uint8(label)
		}
		if label == Letter {
			st.Letters++
			st.LetterPixels += len(queue)
		} else {
			st.NoiseComponents++
			st.NoisePixels += len(queue)
		}
	}
	return st, nil
}

// grow runs a breadth-first flood over 8-connected Ink cells starting at
// seed. The queue doubles as the component's member list: cells are never
// dequeued, only a read cursor advances. Growth always runs to exhaustion so
// every reachable cell ends up labelled and later seeds inside the same blob
// are skipped.
func (m *Mask) grow(queue []int32, seed, maxLetterPixels int) ([]int32, Cell) {
	w, h := m.w, m.h
	noise := false

	// Visited cells are marked Letter provisionally; the caller relabels
	// the whole component once growth finishes.
	m.cells[seed] = uint8(Letter)
	queue = append(queue, int32(seed))

	for head := 0; head < len(queue); head++ {
		ci := int(queue[head])
		cx, cy := ci%w, ci/w

		if cx == 0 || cy == 0 || cx == w-1 || cy == h-1 {
			noise = true
		}

		for d := range 8 {
			nx, ny := cx+dx[d], cy+dy[d]
			if nx < 0 || nx >= w || ny < 0 || ny >= h {
				continue
			}
			ni := ny*w + nx
			if Cell(m.cells[ni]) != Ink {
				continue
			}
			m.cells[ni] = uint8(Letter)
			queue = append(queue, int32(ni))
		}

		if len(queue) > maxLetterPixels {
			noise = true
		}
	}

	if noise {
		return queue, Noise
	}
	return queue, Letter
}
