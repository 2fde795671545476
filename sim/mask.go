package sim

import "math/bits"

// Mask is a 1-bit-per-pixel bitmap used for pixel-exact overlap tests.
type Mask struct {
	w, h   int
	stride int // words per row
	bits   []uint64
}

// NewMask returns an empty w x h mask.
func NewMask(w, h int) *Mask {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	stride := (w + 63) / 64
	return &Mask{w: w, h: h, stride: stride, bits: make([]uint64, stride*h)}
}

// RectMask returns a fully set w x h mask.
func RectMask(w, h int) *Mask {
	m := NewMask(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.Set(x, y)
		}
	}
	return m
}

// CircleMask returns a d x d mask with the inscribed disc set.
func CircleMask(d int) *Mask {
	m := NewMask(d, d)
	r := float64(d) / 2
	for y := 0; y < d; y++ {
		for x := 0; x < d; x++ {
			// sample pixel centers
			fx := float64(x) + 0.5 - r
			fy := float64(y) + 0.5 - r
			if fx*fx+fy*fy <= r*r {
				m.Set(x, y)
			}
		}
	}
	return m
}

// Size returns the mask dimensions.
func (m *Mask) Size() (w, h int) { return m.w, m.h }

// Set marks the pixel at (x, y). Out-of-range coordinates are ignored.
func (m *Mask) Set(x, y int) {
	if x < 0 || y < 0 || x >= m.w || y >= m.h {
		return
	}
	m.bits[y*m.stride+x/64] |= 1 << uint(x%64)
}

// Get reports whether the pixel at (x, y) is set.
func (m *Mask) Get(x, y int) bool {
	if x < 0 || y < 0 || x >= m.w || y >= m.h {
		return false
	}
	return m.bits[y*m.stride+x/64]&(1<<uint(x%64)) != 0
}

// Count returns the number of set pixels.
func (m *Mask) Count() int {
	n := 0
	for _, w := range m.bits {
		n += bits.OnesCount64(w)
	}
	return n
}

// Overlap reports whether any set pixel of m coincides with a set pixel of
// other when other's origin is placed at (dx, dy) in m's coordinates.
func (m *Mask) Overlap(other *Mask, dx, dy int) bool {
	x0, x1 := max(0, dx), min(m.w, dx+other.w)
	y0, y1 := max(0, dy), min(m.h, dy+other.h)
	if x0 >= x1 || y0 >= y1 {
		return false
	}
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			if m.Get(x, y) && other.Get(x-dx, y-dy) {
				return true
			}
		}
	}
	return false
}
